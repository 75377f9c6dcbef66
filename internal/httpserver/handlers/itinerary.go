package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/weddingday/internal/domain"
	"github.com/MrSnakeDoc/weddingday/internal/httpserver/deps"
	"github.com/MrSnakeDoc/weddingday/internal/httpserver/mw"
)

// ListItinerary returns the caller's personal entries ordered by fullDate.
func ListItinerary(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		events, err := d.Events.ListEvents(r.Context(), d.PersonalPath(mw.UserID(r.Context())))
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		if events == nil {
			events = []domain.Event{}
		}
		writeJSON(w, http.StatusOK, events)
	}
}

func CreateItinerary(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ev domain.Event
		if err := decodeJSON(w, r, &ev); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		if err := ev.ValidatePersonal(); err != nil {
			writeError(w, d.Logger, err)
			return
		}

		ev.ID = ""
		ev = ev.WithDisplay(d.Timezone)
		if err := d.Events.CreateEvent(r.Context(), d.PersonalPath(mw.UserID(r.Context())), &ev); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, ev)
	}
}

func UpdateItinerary(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ev domain.Event
		if err := decodeJSON(w, r, &ev); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		if err := ev.ValidatePersonal(); err != nil {
			writeError(w, d.Logger, err)
			return
		}

		ev.ID = chi.URLParam(r, "id")
		ev = ev.WithDisplay(d.Timezone)
		if err := d.Events.UpdateEvent(r.Context(), d.PersonalPath(mw.UserID(r.Context())), &ev); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, ev)
	}
}

func DeleteItinerary(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Events.DeleteEvent(r.Context(), d.PersonalPath(mw.UserID(r.Context())), chi.URLParam(r, "id")); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
