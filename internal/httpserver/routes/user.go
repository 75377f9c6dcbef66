package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/weddingday/internal/httpserver/deps"
	"github.com/MrSnakeDoc/weddingday/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/weddingday/internal/httpserver/mw"
)

func init() { Register(registerUser) }

func registerUser(r chi.Router, d deps.Deps) {
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(d.JWTSecret, true, d.Logger))
		r.Use(mw.RateLimit(mw.RateLimitConfig{
			Burst:        d.RateLimitBurst,
			RefillPerMin: d.RateLimitPerMin,
			MaxEntries:   d.RateLimitMaxEntries,
			TrustProxy:   d.TrustProxy,
		}))
		r.Use(middleware.Timeout(d.RequestTimeout))

		r.Post("/api/push/subscriptions", handlers.Subscribe(d))
		r.Delete("/api/push/subscriptions", handlers.Unsubscribe(d))
		r.Post("/api/push/test", handlers.TestPush(d))

		r.Get("/api/itinerary", handlers.ListItinerary(d))
		r.Post("/api/itinerary", handlers.CreateItinerary(d))
		r.Put("/api/itinerary/{id}", handlers.UpdateItinerary(d))
		r.Delete("/api/itinerary/{id}", handlers.DeleteItinerary(d))
	})
}
