package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/geoinv/internal/httpserver/deps"
	"github.com/MrSnakeDoc/geoinv/internal/httpserver/handlers"
)

func init() { Register(registerReload) }

func registerReload(r chi.Router, d deps.Deps) {
	r.With(append(api(d), adminOnly(d))...).Post("/api/reload", handlers.Reload(d))
}
