package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/weddingday/internal/httpserver/deps"
	"github.com/MrSnakeDoc/weddingday/internal/scheduler"
)

// CronReminders is the external scheduler entry point.
func CronReminders(d deps.Deps) http.HandlerFunc {
	return runJob(d, scheduler.TriggerHTTP)
}

// runJob answers 200 with the summary, or 500 with the summary and the error.
func runJob(d deps.Deps, trigger string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := d.Job.Execute(r.Context(), trigger)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, struct {
				Error   string            `json:"error"`
				Summary scheduler.Summary `json:"summary"`
			}{Error: "reminder job failed", Summary: summary})
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}
