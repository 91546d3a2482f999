package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/geoinv/internal/httpserver/deps"
)

// LastRun returns the summary of the last run, 404 before any.
func LastRun(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := d.MemoryIndex.LastRun()
		if s == nil {
			writeError(w, http.StatusNotFound, "no run completed yet")
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}
