package handlers

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/MrSnakeDoc/geoinv/internal/domain"
	"github.com/MrSnakeDoc/geoinv/internal/httpserver/deps"
)

type componentStatus struct {
	OK         bool                    `json:"ok"`
	Layers     *domain.InventoryCounts `json:"layers,omitempty"`
	LastReload string                  `json:"last_reload,omitempty"`
	Mode       string                  `json:"mode,omitempty"`
	Impact     string                  `json:"impact,omitempty"`
	Error      string                  `json:"error,omitempty"`
}

type infraResponse struct {
	Status     string                     `json:"status"`
	Components map[string]componentStatus `json:"components"`
}

func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts := d.MemoryIndex.Counts()
		lastReload, source := d.MemoryIndex.GetLastReload()
		lastReloadStr := "never"
		if !lastReload.IsZero() {
			lastReloadStr = lastReload.Format("2006-01-02 15:04:05")
		}

		components := map[string]componentStatus{
			"inventory": {
				OK:         d.MemoryIndex.Count() > 0,
				Layers:     &counts,
				LastReload: lastReloadStr,
				Mode:       source,
			},
			"runs":      checkRuns(d),
			"directory": checkFile(d.DirectoryFile, true),
			"files":     checkArtifacts(d),
			"redis":     checkRedis(d),
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Status:     determineStatus(components),
			Components: components,
		})
	}
}

func determineStatus(components map[string]componentStatus) string {
	// Without a directory no run can succeed
	if dir, exists := components["directory"]; exists && !dir.OK {
		return "critical"
	}

	// Nothing to serve yet
	if inv, exists := components["inventory"]; exists && !inv.OK {
		return "critical"
	}

	// Redis and stale runs are non-critical
	for _, name := range []string{"runs", "redis", "files"} {
		if c, exists := components[name]; exists && !c.OK {
			return "degraded"
		}
	}

	return "ok"
}

func checkRuns(d deps.Deps) componentStatus {
	s := d.MemoryIndex.LastRun()
	if s == nil {
		return componentStatus{OK: false, Mode: "pending", Error: "no run completed yet"}
	}
	mode := "local"
	if !d.MemoryIndex.Ready() {
		mode = "mirrored"
	}
	return componentStatus{
		OK:         d.MemoryIndex.Ready() && s.Queried > s.Errors,
		LastReload: s.Finished.Format("2006-01-02 15:04:05"),
		Mode:       mode,
	}
}

func checkArtifacts(d deps.Deps) componentStatus {
	for _, path := range []string{d.InventoryFile, d.LogFile} {
		if st := checkFile(path, false); !st.OK {
			return st
		}
	}
	return componentStatus{OK: true}
}

// checkFile reports whether path exists as a regular file. Optional files may
// be absent before the first run.
func checkFile(path string, required bool) componentStatus {
	if path == "" {
		return componentStatus{OK: !required, Mode: "unset"}
	}
	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err) && !required:
		return componentStatus{OK: true, Mode: "absent"}
	case err != nil:
		return componentStatus{OK: false, Error: err.Error()}
	case !info.Mode().IsRegular():
		return componentStatus{OK: false, Error: path + " is not a regular file"}
	}
	return componentStatus{OK: true, Mode: "present"}
}

func checkRedis(d deps.Deps) componentStatus {
	if d.Mirror == nil {
		return componentStatus{
			OK:     true,
			Mode:   "disabled",
			Impact: "no-warm-start",
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := d.Mirror.Ping(ctx); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "mirror-stale",
			Error:  err.Error(),
		}
	}

	return componentStatus{
		OK:     true,
		Mode:   "optimal",
		Impact: "mirror-enabled",
	}
}
