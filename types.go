package main

type videoInfoRequest struct {
	URL string `json:"url"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type HealthStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Ready   bool   `json:"ready"`
}

type StatsResponse struct {
	Backend       string           `json:"backend"`
	Counters      map[string]int64 `json:"counters"`
	UptimeSeconds float64          `json:"uptime_seconds"`
	Uptime        string           `json:"uptime"`
}
