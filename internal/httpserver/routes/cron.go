package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/weddingday/internal/httpserver/deps"
	"github.com/MrSnakeDoc/weddingday/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/weddingday/internal/httpserver/mw"
)

func init() {
	Register(registerCron)
}

func registerCron(r chi.Router, d deps.Deps) {
	r.With(
		mw.EnforceHost(d.AllowedHosts, d.Logger),
		mw.CronSecret(d.CronSecret, d.Production, d.Logger),
	).Get("/api/cron/reminders", handlers.CronReminders(d))
}
