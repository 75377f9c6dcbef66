package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/weddingday/internal/domain"
	"github.com/MrSnakeDoc/weddingday/internal/httpserver/deps"
	"github.com/MrSnakeDoc/weddingday/internal/httpserver/mw"
	"github.com/MrSnakeDoc/weddingday/internal/logger"
	"github.com/MrSnakeDoc/weddingday/internal/scheduler"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

type scheduleRequest struct {
	Payload      json.RawMessage `json:"payload"`
	ScheduledFor string          `json:"scheduled_for"`
}

type toggleBody struct {
	Enabled *bool `json:"enabled"`
}

// parsePayload runs the JSON schema first so the admin sees every problem at once.
func parsePayload(raw []byte) (domain.Payload, error) {
	var p domain.Payload
	if err := domain.ValidatePayloadJSON(raw); err != nil {
		return p, err
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, &domain.ValidationError{Problems: []string{"payload: " + err.Error()}}
	}
	return p, p.Validate()
}

// CreateNotification queues a one-off push for the reminder job to drain.
func CreateNotification(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req scheduleRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, d.Logger, err)
			return
		}

		if req.ScheduledFor == "" {
			writeError(w, d.Logger, &domain.ValidationError{Problems: []string{"scheduled_for is required"}})
			return
		}
		at, err := time.Parse(time.RFC3339, req.ScheduledFor)
		if err != nil {
			writeError(w, d.Logger, &domain.ValidationError{Problems: []string{"scheduled_for must be RFC 3339"}})
			return
		}
		if len(req.Payload) == 0 {
			writeError(w, d.Logger, &domain.ValidationError{Problems: []string{"payload is required"}})
			return
		}
		payload, err := parsePayload(req.Payload)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}

		n := domain.ScheduledNotification{Payload: payload, ScheduledFor: at}
		if err := d.Notifications.CreateScheduled(r.Context(), &n); err != nil {
			writeError(w, d.Logger, err)
			return
		}

		d.Logger.Info("🗓️ notification scheduled",
			logger.String("id", n.ID),
			logger.Time("scheduled_for", n.ScheduledFor),
			logger.String("admin", mw.UserID(r.Context())),
		)
		writeJSON(w, http.StatusCreated, n)
	}
}

func ListNotifications(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pending, err := d.Notifications.ListPending(r.Context())
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, pending)
	}
}

func DeleteNotification(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Notifications.DeleteScheduled(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// NotificationHistory lists recent fan-outs, newest first. ?limit= caps the page.
func NotificationHistory(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultHistoryLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				writeError(w, d.Logger, &domain.ValidationError{Problems: []string{"limit must be a positive integer"}})
				return
			}
			limit = min(n, maxHistoryLimit)
		}

		entries, err := d.Notifications.ListHistory(r.Context(), limit)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

// Broadcast pushes a payload to every device right away.
func Broadcast(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := readBody(w, r)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		payload, err := parsePayload(raw)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}

		res, err := d.Notifier.Send(r.Context(), payload, domain.Scope{}, domain.SourceBroadcast)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}

		d.Logger.Info("📣 broadcast sent",
			logger.Int("recipients", res.Recipients),
			logger.Int("delivered", res.Delivered),
			logger.Int("failed", res.Failed),
		)
		writeJSON(w, http.StatusOK, res)
	}
}

func GetReminderSetting(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		enabled, err := d.Settings.RemindersEnabled(r.Context())
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toggleBody{Enabled: &enabled})
	}
}

func PutReminderSetting(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body toggleBody
		if err := decodeJSON(w, r, &body); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		if body.Enabled == nil {
			writeError(w, d.Logger, &domain.ValidationError{Problems: []string{"enabled is required"}})
			return
		}
		if err := d.Settings.SetRemindersEnabled(r.Context(), *body.Enabled); err != nil {
			writeError(w, d.Logger, err)
			return
		}

		d.Logger.Info("🔔 reminder toggle changed",
			logger.Bool("enabled", *body.Enabled),
			logger.String("admin", mw.UserID(r.Context())),
		)
		writeJSON(w, http.StatusOK, body)
	}
}

func CreateTimelineEvent(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ev domain.Event
		if err := decodeJSON(w, r, &ev); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		if err := ev.ValidateOfficial(d.Venues); err != nil {
			writeError(w, d.Logger, err)
			return
		}

		ev = ev.WithDisplay(d.Timezone)
		if err := d.Events.CreateEvent(r.Context(), d.OfficialPath, &ev); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, ev)
	}
}

func UpdateTimelineEvent(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ev domain.Event
		if err := decodeJSON(w, r, &ev); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		if err := ev.ValidateOfficial(d.Venues); err != nil {
			writeError(w, d.Logger, err)
			return
		}

		ev.ID = chi.URLParam(r, "id")
		ev = ev.WithDisplay(d.Timezone)
		if err := d.Events.UpdateEvent(r.Context(), d.OfficialPath, &ev); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, ev)
	}
}

func DeleteTimelineEvent(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Events.DeleteEvent(r.Context(), d.OfficialPath, chi.URLParam(r, "id")); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// RunReminders triggers the job by hand and returns its summary.
func RunReminders(d deps.Deps) http.HandlerFunc {
	return runJob(d, scheduler.TriggerManual)
}
