package handlers

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/MrSnakeDoc/weddingday/internal/httpserver/deps"
	"github.com/MrSnakeDoc/weddingday/internal/logger"
)

type componentStatus struct {
	OK        bool   `json:"ok"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

type readyzResponse struct {
	Ready      bool                       `json:"ready"`
	Components map[string]componentStatus `json:"components"`
}

// Readyz pings every backend in parallel; any failure answers 503.
func Readyz(d deps.Deps) http.HandlerFunc {
	names := make([]string, 0, len(d.Pingers))
	for name := range d.Pingers {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		var (
			mu   sync.Mutex
			wg   sync.WaitGroup
			resp = readyzResponse{Ready: true, Components: make(map[string]componentStatus, len(names))}
		)
		for _, name := range names {
			wg.Add(1)
			go func(name string) {
				defer wg.Done()
				start := time.Now()
				err := d.Pingers[name](ctx)
				st := componentStatus{OK: err == nil, LatencyMS: time.Since(start).Milliseconds()}
				if err != nil {
					st.Error = err.Error()
					d.Logger.Warn("readiness check failed", logger.String("component", name), logger.Error(err))
				}
				mu.Lock()
				resp.Components[name] = st
				resp.Ready = resp.Ready && st.OK
				mu.Unlock()
			}(name)
		}
		wg.Wait()

		status := http.StatusOK
		if !resp.Ready {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, resp)
	}
}
