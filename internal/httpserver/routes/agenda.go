package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/weddingday/internal/httpserver/deps"
	"github.com/MrSnakeDoc/weddingday/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/weddingday/internal/httpserver/mw"
)

func init() { Register(registerAgenda) }

// The stream route has no request timeout: it lives as long as the client.
func registerAgenda(r chi.Router, d deps.Deps) {
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(d.JWTSecret, false, d.Logger))

		r.Get("/api/agenda/stream", handlers.AgendaStream(d))

		timed := r.With(middleware.Timeout(d.RequestTimeout))
		timed.Get("/api/agenda", handlers.Agenda(d))
		timed.Get("/api/agenda.ics", handlers.AgendaICS(d))
	})

	r.With(middleware.Timeout(d.RequestTimeout)).Get("/api/push/public-key", handlers.PublicKey(d))
}
