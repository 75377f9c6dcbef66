package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/weddingday/internal/httpserver/deps"
)

type (
	Registrar  func(r chi.Router, d deps.Deps)
	Middleware = func(http.Handler) http.Handler
)

type entry struct {
	reg Registrar
	mws []Middleware
}

var registry []entry

// Register adds a route group from a package init. Extra middlewares wrap
// only that group; auth and timeouts are usually applied inside reg instead,
// since they depend on deps.
func Register(reg Registrar, mws ...Middleware) {
	registry = append(registry, entry{reg: reg, mws: mws})
}

// RegisterAll mounts every group on r. Called once from httpserver.NewRouter.
func RegisterAll(r chi.Router, d deps.Deps) {
	for _, e := range registry {
		r.Group(func(g chi.Router) {
			g.Use(e.mws...)
			e.reg(g, d)
		})
	}
	d.Logger.Debugf("routes registered: %d groups", len(registry))
}
