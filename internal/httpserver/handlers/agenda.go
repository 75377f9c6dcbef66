package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/weddingday/internal/agenda"
	"github.com/MrSnakeDoc/weddingday/internal/calendar"
	"github.com/MrSnakeDoc/weddingday/internal/domain"
	"github.com/MrSnakeDoc/weddingday/internal/httpserver/deps"
	"github.com/MrSnakeDoc/weddingday/internal/httpserver/mw"
	"github.com/MrSnakeDoc/weddingday/internal/logger"
	"github.com/MrSnakeDoc/weddingday/internal/metrics"
)

const streamKeepAlive = 25 * time.Second

type agendaResponse struct {
	Dates  []string      `json:"dates"`
	Agenda domain.Agenda `json:"agenda"`
}

func newAgendaResponse(a domain.Agenda) agendaResponse {
	return agendaResponse{Dates: a.Dates(), Agenda: a}
}

// loadAgenda reads both collections once and merges them.
func loadAgenda(ctx context.Context, d deps.Deps, userID string) (domain.Agenda, error) {
	official, err := d.Events.ListEvents(ctx, d.OfficialPath)
	if err != nil {
		return nil, err
	}
	var personal []domain.Event
	if userID != "" {
		if personal, err = d.Events.ListEvents(ctx, d.PersonalPath(userID)); err != nil {
			return nil, err
		}
	}
	return domain.BuildAgenda(official, personal), nil
}

// Agenda returns the merged agenda; personal entries only for an authenticated caller.
func Agenda(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := loadAgenda(r.Context(), d, mw.UserID(r.Context()))
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, newAgendaResponse(a))
	}
}

// AgendaICS exports the merged agenda as iCalendar, ?locale= picks translations.
func AgendaICS(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := loadAgenda(r.Context(), d, mw.UserID(r.Context()))
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}

		body := calendar.Export(a, calendar.Options{
			Name:    d.CalendarName,
			BaseURL: d.AgendaURL,
			Locale:  r.URL.Query().Get("locale"),
		}, d.Now())

		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="agenda.ics"`)
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write([]byte(body))
	}
}

// AgendaStream keeps a live merger open for the connection and pushes every
// loaded state as a server-sent event. A feed error is sent once, then the
// stream ends.
func AgendaStream(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := mw.UserID(ctx)

		m := agenda.NewMerger(d.Events, d.OfficialPath, d.PersonalPath, d.Logger.With(logger.String("user_id", userID)))
		defer m.Close()

		if err := m.Start(ctx); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		if err := m.SetUser(userID); err != nil {
			writeError(w, d.Logger, err)
			return
		}

		rc := http.NewResponseController(w)
		_ = rc.SetWriteDeadline(time.Time{})

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)
		if err := rc.Flush(); err != nil {
			d.Logger.Warn("agenda stream cannot flush", logger.Error(err))
			return
		}

		metrics.AgendaStreams.Inc()
		defer metrics.AgendaStreams.Dec()

		keepAlive := time.NewTicker(streamKeepAlive)
		defer keepAlive.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-d.StreamsDone:
				return
			case <-keepAlive.C:
				if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
					return
				}
			case st, ok := <-m.Updates():
				if !ok {
					return
				}
				if st.Err != nil {
					writeEvent(w, "error", errorResponse{Error: "failed to load agenda"})
					_ = rc.Flush()
					return
				}
				if !st.Loaded {
					continue
				}
				if err := writeEvent(w, "agenda", newAgendaResponse(st.Agenda)); err != nil {
					return
				}
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}
