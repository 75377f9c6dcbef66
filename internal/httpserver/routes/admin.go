package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/weddingday/internal/httpserver/deps"
	"github.com/MrSnakeDoc/weddingday/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/weddingday/internal/httpserver/mw"
)

func init() { Register(registerAdmin) }

func registerAdmin(r chi.Router, d deps.Deps) {
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(mw.EnforceHost(d.AllowedHosts, d.Logger))
		r.Use(mw.Authenticate(d.JWTSecret, true, d.Logger))
		r.Use(mw.RequireAdmin(d.Logger))

		// fan-outs and job runs are bounded by the push client, not the request timeout
		r.Post("/push/broadcast", handlers.Broadcast(d))
		r.Post("/reminders/run", handlers.RunReminders(d))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(d.RequestTimeout))

			r.Post("/notifications", handlers.CreateNotification(d))
			r.Get("/notifications", handlers.ListNotifications(d))
			r.Get("/notifications/history", handlers.NotificationHistory(d))
			r.Delete("/notifications/{id}", handlers.DeleteNotification(d))

			r.Get("/settings/reminders", handlers.GetReminderSetting(d))
			r.Put("/settings/reminders", handlers.PutReminderSetting(d))

			r.Post("/timeline", handlers.CreateTimelineEvent(d))
			r.Put("/timeline/{id}", handlers.UpdateTimelineEvent(d))
			r.Delete("/timeline/{id}", handlers.DeleteTimelineEvent(d))
		})
	})
}
