package handlers

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/geoinv/internal/domain"
	"github.com/MrSnakeDoc/geoinv/internal/httpserver/deps"
	"github.com/MrSnakeDoc/geoinv/internal/index"
)

type layersResponse struct {
	Count      int            `json:"count"`
	Source     string         `json:"source,omitempty"`
	LastReload *time.Time     `json:"last_reload,omitempty"`
	Layers     []domain.Layer `json:"layers"`
}

// Layers lists the inventory, optionally filtered by ?server= and ?state=.
func Layers(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		state, err := index.ParseState(q.Get("state"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		layers := d.MemoryIndex.Layers(index.Filter{
			Server: q.Get("server"),
			State:  state,
		})

		resp := layersResponse{Count: len(layers), Layers: layers}
		if at, source := d.MemoryIndex.GetLastReload(); !at.IsZero() {
			resp.LastReload = &at
			resp.Source = source
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// Directory returns the server directory as written by the last run.
func Directory(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dir := d.MemoryIndex.Directory()
		if dir == nil {
			dir = domain.Directory{}
		}
		writeJSON(w, http.StatusOK, dir)
	}
}
