package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/geoinv/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready  bool `json:"ready"`
	Layers int  `json:"layers"`
}

// Readyz answers 503 until a run has completed in this process.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		ready := d.MemoryIndex.Ready()
		if !ready {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, readyzResponse{
			Ready:  ready,
			Layers: d.MemoryIndex.Count(),
		})
	}
}
