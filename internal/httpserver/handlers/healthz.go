package handlers

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/weddingday/internal/httpserver/deps"
)

type healthzResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	ServerTime    string  `json:"server_time"`
	Timezone      string  `json:"timezone,omitempty"`
	Production    bool    `json:"production"`
	Version       string  `json:"version,omitempty"`
	Commit        string  `json:"commit,omitempty"`
	BuildDate     string  `json:"build_date,omitempty"`
	GoVersion     string  `json:"go_version,omitempty"`
}

// Healthz is liveness only: it never touches a backend. The server time is
// reported in the venue timezone so clock drift on the host is easy to spot.
func Healthz(d deps.Deps) http.HandlerFunc {
	loc := d.Timezone
	if loc == nil {
		loc = time.UTC
	}
	return func(w http.ResponseWriter, r *http.Request) {
		now := d.Now()
		writeJSON(w, http.StatusOK, healthzResponse{
			Status:        "ok",
			UptimeSeconds: now.Sub(d.StartTime).Seconds(),
			ServerTime:    now.In(loc).Format(time.RFC3339),
			Timezone:      loc.String(),
			Production:    d.Production,
			Version:       d.Version,
			Commit:        d.Commit,
			BuildDate:     d.BuildDate,
			GoVersion:     d.GoVersion,
		})
	}
}
