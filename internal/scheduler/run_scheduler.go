package scheduler

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/geoinv/internal/domain"
	"github.com/MrSnakeDoc/geoinv/internal/logger"
)

// Runnable performs one full inventory run. *runner.Runner implements it.
type Runnable interface {
	Run(ctx context.Context) (domain.RunSummary, error)
}

// RunScheduler triggers inventory runs periodically and on demand
type RunScheduler struct {
	runner        Runnable
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	done          chan struct{}
	manualTrigger chan struct{}
}

// NewRunScheduler creates a new run scheduler. manualTrigger should be buffered
// (size 1) so that a pending request is never lost nor duplicated.
func NewRunScheduler(
	r Runnable,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *RunScheduler {
	return &RunScheduler{
		runner:        r,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		done:          make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start runs once immediately, then every interval and on each manual trigger.
// Runs never overlap; a failed run is logged and the loop goes on.
func (rs *RunScheduler) Start(ctx context.Context) {
	go func() {
		defer close(rs.done)

		rs.runOnce(ctx, "startup")

		ticker := time.NewTicker(rs.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rs.runOnce(ctx, "schedule")
			case <-rs.manualTrigger:
				rs.logger.Info("manual run triggered")
				rs.runOnce(ctx, "manual")
			case <-rs.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the scheduler and waits for a run in progress to return
func (rs *RunScheduler) Stop() {
	close(rs.stopCh)
	<-rs.done
}

func (rs *RunScheduler) runOnce(ctx context.Context, reason string) {
	if ctx.Err() != nil {
		return
	}
	summary, err := rs.runner.Run(ctx)
	if err != nil {
		rs.logger.Error("inventory run failed",
			logger.String("trigger", reason),
			logger.Error(err))
		return
	}
	rs.logger.Info("inventory run completed",
		logger.String("trigger", reason),
		logger.Int("layers", summary.Inventory),
		logger.Int("errors", summary.Errors),
		logger.Duration("duration", summary.Duration))
}

// Trigger asks for a run without blocking. It returns false when a request
// is already pending.
func Trigger(ch chan<- struct{}) bool {
	select {
	case ch <- struct{}{}:
		return true
	default:
		return false
	}
}
