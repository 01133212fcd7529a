package main

import (
	"net/http"
	"time"
)

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthStatus{
		Status:  "ok",
		Message: "Server is running",
		Ready:   true,
	}
	if !s.capability.Ready() {
		health = HealthStatus{
			Status:  "starting",
			Message: "yt-dlp is not ready yet",
			Ready:   false,
		}
	}
	writeJSON(w, http.StatusOK, health)
}

func (s *server) handleStats(w http.ResponseWriter, r *http.Request) {
	counters, err := s.stats.Snapshot(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Str("backend", s.stats.Backend()).Msg("error reading stats")
		writeJSONError(w, http.StatusInternalServerError, "Stats unavailable")
		return
	}
	uptime := time.Since(s.startedAt)
	writeJSON(w, http.StatusOK, StatsResponse{
		Backend:       s.stats.Backend(),
		Counters:      counters,
		UptimeSeconds: uptime.Seconds(),
		Uptime:        uptime.Round(time.Second).String(),
	})
}
