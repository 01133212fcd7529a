package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ytfetch/ytfetch/internal/media"
)

// POST /api/video-info
func (s *server) handleVideoInfo(w http.ResponseWriter, r *http.Request) {
	var req videoInfoRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	preview, err := s.previews.Preview(r.Context(), req.URL)
	if err != nil {
		s.metrics.previews.WithLabelValues("failed").Inc()
		record(r.Context(), s.stats, s.logger, StatPreviewFailed, 1)
		s.writeServiceError(w, r, err)
		return
	}
	s.metrics.previews.WithLabelValues("ok").Inc()
	record(r.Context(), s.stats, s.logger, StatPreviewOK, 1)
	writeJSON(w, http.StatusOK, preview)
}

// GET /api/download?url=...&format_id=...
func (s *server) handleDownload(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := media.DownloadRequest{URL: q.Get("url"), FormatID: q.Get("format_id")}

	s.metrics.activeStreams.Inc()
	defer s.metrics.activeStreams.Dec()

	res, err := s.downloads.Download(r.Context(), w, req)
	if res.Bytes > 0 {
		s.metrics.streamedBytes.Add(float64(res.Bytes))
		record(r.Context(), s.stats, s.logger, StatBytesStreamed, res.Bytes)
	}

	switch {
	case err == nil:
		s.metrics.downloads.WithLabelValues("completed").Inc()
		record(r.Context(), s.stats, s.logger, StatDownloadCompleted, 1)
	case errors.Is(err, media.ErrAborted):
		s.metrics.downloads.WithLabelValues("aborted").Inc()
		record(r.Context(), s.stats, s.logger, StatDownloadAborted, 1)
		// The status line and part of the body are out. Dropping the
		// connection is the only way left to tell the client.
		panic(http.ErrAbortHandler)
	default:
		s.metrics.downloads.WithLabelValues("failed").Inc()
		record(r.Context(), s.stats, s.logger, StatDownloadFailed, 1)
		s.writeServiceError(w, r, err)
	}
}

func statusFor(kind media.Kind) int {
	switch kind {
	case media.KindInvalidRequest:
		return http.StatusBadRequest
	case media.KindNotReady:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(media.KindOf(err))
	if status >= http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Debug().Err(err).Int("status", status).Msg("request failed")
	}
	writeJSONError(w, status, media.PublicMessage(err))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// decodeJSONBody decodes a JSON object of at most MaxRequestBodyBytes into
// dst. An empty body leaves dst at its zero value.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return errors.New("request body too large")
		}
		return errors.New("invalid JSON body")
	}
	return nil
}
