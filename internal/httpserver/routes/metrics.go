package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/geoinv/internal/httpserver/deps"
)

func init() { Register(registerMetrics) }

func registerMetrics(r chi.Router, d deps.Deps) {
	if d.Metrics == nil {
		return
	}
	r.With(adminOnly(d)).Method("GET", "/metrics", d.Metrics)
}
