package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/geoinv/internal/httpserver/deps"
	"github.com/MrSnakeDoc/geoinv/internal/logger"
	"github.com/MrSnakeDoc/geoinv/internal/scheduler"
)

// Reload asks the scheduler for an immediate run
func Reload(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !scheduler.Trigger(d.ReloadTrigger) {
			d.Logger.Warn("run already pending",
				logger.String("remote_ip", r.RemoteAddr))
			w.WriteHeader(http.StatusTooManyRequests)
			if _, err := w.Write([]byte("⏳ Run already pending, please wait\n")); err != nil {
				d.Logger.Debug("failed to write response", logger.Error(err))
			}
			return
		}

		d.Logger.Info("manual run triggered via endpoint",
			logger.String("remote_ip", r.RemoteAddr))
		w.WriteHeader(http.StatusAccepted)
		if _, err := w.Write([]byte("✅ Run triggered successfully\n")); err != nil {
			d.Logger.Debug("failed to write response", logger.Error(err))
		}
	}
}
