package deps

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/geoinv/internal/domain"
	"github.com/MrSnakeDoc/geoinv/internal/index"
	"github.com/MrSnakeDoc/geoinv/internal/logger"
)

// Mirror is the read side of the Redis mirror used by the API.
type Mirror interface {
	Ping(ctx context.Context) error
	RecentEvents(ctx context.Context, n int) ([]domain.Event, error)
}

type Deps struct {
	Logger        logger.Logger
	StartTime     time.Time
	Version       string
	Commit        string
	BuildDate     string
	GoVersion     string
	TimeNow       func() time.Time   // for testing, defaults to time.Now
	AllowedCIDRS  []string           // IPs allowed to access admin endpoints (reload, metrics)
	TrustProxy    bool               // true if running behind a trusted reverse proxy (e.g., cloudflared)
	DirectoryFile string             // Path to the server directory
	InventoryFile string             // Path to the historical inventory
	LogFile       string             // Path to the event log
	Mirror        Mirror             // Redis mirror, nil when disabled
	MemoryIndex   *index.MemoryIndex // In-memory inventory index
	Metrics       http.Handler       // Prometheus exposition, nil to disable /metrics
	ReloadTrigger chan struct{}      // Channel to trigger a manual run

	// APILimit is the per-IP limiter shared by /api routes, set by httpserver.New.
	APILimit func(http.Handler) http.Handler
}

// Now returns d.TimeNow() or time.Now() when unset.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
