package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/geoinv/internal/httpserver/deps"
	"github.com/MrSnakeDoc/geoinv/internal/httpserver/handlers"
)

func init() { Register(registerInventory) }

func registerInventory(r chi.Router, d deps.Deps) {
	r.Group(func(r chi.Router) {
		r.Use(api(d)...)
		r.Get("/api/layers", handlers.Layers(d))
		r.Get("/api/directory", handlers.Directory(d))
		r.Get("/api/runs/last", handlers.LastRun(d))
		r.Get("/api/events", handlers.Events(d))
		r.Get("/api/infra", handlers.Infra(d))
	})
}
