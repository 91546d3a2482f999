package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/geoinv/internal/collector"
	"github.com/MrSnakeDoc/geoinv/internal/domain"
	"github.com/MrSnakeDoc/geoinv/internal/logger"
)

// ErrBusy is returned by TryRun while another run holds the stores.
var ErrBusy = errors.New("a run is already in progress")

type DirectoryStore interface {
	Load() (domain.Directory, error)
	Save(domain.Directory) error
}

type InventoryStore interface {
	Load() (domain.Inventory, error)
	Save(domain.Inventory) error
}

type EventLogStore interface {
	Load() ([]domain.Event, error)
	Save([]domain.Event) error
}

type Collector interface {
	Collect(ctx context.Context, dir domain.Directory) (*collector.Result, error)
}

// Mirror receives a copy of every run's output. internal/store/redis implements it.
type Mirror interface {
	SaveInventory(ctx context.Context, inv domain.Inventory) error
	AppendEvents(ctx context.Context, events []domain.Event) error
	SaveRunSummary(ctx context.Context, summary domain.RunSummary) error
}

// Publisher exposes the run output to readers. internal/index implements it.
type Publisher interface {
	UpdateInventory(inv domain.Inventory, source string)
	UpdateDirectory(dir domain.Directory)
	SetLastRun(s domain.RunSummary)
}

// Recorder is the metrics sink of a run.
type Recorder interface {
	ObserveRun(s domain.RunSummary, counts domain.InventoryCounts)
	RunFailed()
}

type Options struct {
	WindowDays int // breaker window, default domain.DefaultWindowDays
	Threshold  int // breaker threshold, default domain.DefaultThreshold

	// Location is the zone run dates are taken in, default UTC.
	Location *time.Location
	// Now is the wall clock, default time.Now.
	Now func() time.Time
	// MirrorTimeout bounds the whole Redis mirror step, default 10s.
	MirrorTimeout time.Duration
}

type Stores struct {
	Directory DirectoryStore
	Inventory InventoryStore
	Log       EventLogStore
}

// Runner performs complete runs: collect, reconcile, breaker, persist.
// Runs are serialized so each store has a single writer.
type Runner struct {
	mu        sync.Mutex
	stores    Stores
	collector Collector
	log       logger.Logger
	opts      Options

	mirror    Mirror
	publisher Publisher
	recorder  Recorder
}

func New(opts Options, stores Stores, c Collector, log logger.Logger) *Runner {
	if opts.WindowDays <= 0 {
		opts.WindowDays = domain.DefaultWindowDays
	}
	if opts.Threshold <= 0 {
		opts.Threshold = domain.DefaultThreshold
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.MirrorTimeout <= 0 {
		opts.MirrorTimeout = 10 * time.Second
	}
	return &Runner{
		stores:    stores,
		collector: c,
		log:       log,
		opts:      opts,
	}
}

// WithMirror sets the optional Redis mirror. A nil Mirror disables mirroring.
func (r *Runner) WithMirror(m Mirror) *Runner {
	r.mirror = m
	return r
}

func (r *Runner) WithPublisher(p Publisher) *Runner {
	r.publisher = p
	return r
}

func (r *Runner) WithRecorder(rec Recorder) *Runner {
	r.recorder = rec
	return r
}

// TryRun is Run, except it returns ErrBusy instead of waiting for a run in progress.
func (r *Runner) TryRun(ctx context.Context) (domain.RunSummary, error) {
	if !r.mu.TryLock() {
		return domain.RunSummary{}, ErrBusy
	}
	defer r.mu.Unlock()
	return r.run(ctx)
}

// Run performs one full run and returns its summary. Any error leaves the
// durable artifacts as they were before the failing write.
func (r *Runner) Run(ctx context.Context) (domain.RunSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.run(ctx)
}

func (r *Runner) run(ctx context.Context) (domain.RunSummary, error) {
	summary, err := r.execute(ctx)
	if err != nil {
		if r.recorder != nil {
			r.recorder.RunFailed()
		}
		r.log.Error("run failed", logger.Error(err))
		return summary, err
	}
	return summary, nil
}

func (r *Runner) execute(ctx context.Context) (domain.RunSummary, error) {
	started := r.opts.Now().In(r.opts.Location)
	summary := domain.RunSummary{
		Started: started,
		RunDate: domain.DateOf(started),
	}

	dir, err := r.stores.Directory.Load()
	if err != nil {
		return summary, fmt.Errorf("load directory: %w", err)
	}
	historical, err := r.stores.Inventory.Load()
	if err != nil {
		return summary, fmt.Errorf("load inventory: %w", err)
	}
	eventLog, err := r.stores.Log.Load()
	if err != nil {
		return summary, fmt.Errorf("load event log: %w", err)
	}
	summary.Servers = len(dir)

	r.log.Info("run started",
		logger.String("run_date", summary.RunDate.String()),
		logger.Int("servers", len(dir)),
		logger.Int("inventory", len(historical)),
		logger.Int("events", len(eventLog)),
	)

	res, err := r.collector.Collect(ctx, dir)
	if err != nil {
		return summary, fmt.Errorf("collect: %w", err)
	}
	summary.Queried = len(res.Events)
	summary.Errors = len(res.Errors())
	summary.Snapshot = res.Snapshot.Len()

	// An empty snapshot means nothing answered; keep the inventory as is
	// rather than flag every layer missing.
	inventory := historical
	if res.Snapshot.Len() > 0 {
		rec := domain.Reconcile(res.Snapshot, historical, res.Events, dir, summary.RunDate)
		inventory = rec.Inventory
		summary.Reconcile = rec.Stats
		summary.InventoryUpdated = true
	} else {
		r.log.Warn("no layer observed, inventory left untouched",
			logger.Int("errors", summary.Errors))
	}

	eventLog = domain.RecordRun(eventLog, res.Events)

	now := r.opts.Now().In(r.opts.Location)
	chronic := domain.FindChronicFailures(eventLog, now, r.opts.WindowDays, r.opts.Threshold)
	updatedDir, breakerEvents := domain.ApplyBreaker(dir, chronic, now.Truncate(time.Minute), r.opts.WindowDays)

	if len(breakerEvents) > 0 {
		if err := r.stores.Directory.Save(updatedDir); err != nil {
			return summary, fmt.Errorf("save directory: %w", err)
		}
		dir = updatedDir
		summary.DirectoryChanged = true
		for _, e := range breakerEvents {
			summary.Disabled = append(summary.Disabled, e.Pair())
			r.log.Warn("service disabled by breaker",
				logger.String("server", e.Server),
				logger.String("service", string(e.Service)),
				logger.Int("window_days", r.opts.WindowDays),
				logger.Int("threshold", r.opts.Threshold),
			)
		}
		eventLog = domain.RecordRun(eventLog, breakerEvents)
	}

	if summary.InventoryUpdated {
		if err := r.stores.Inventory.Save(inventory); err != nil {
			return summary, fmt.Errorf("save inventory: %w", err)
		}
	}
	if err := r.stores.Log.Save(eventLog); err != nil {
		return summary, fmt.Errorf("save event log: %w", err)
	}

	summary.Inventory = len(inventory)
	summary.Events = len(eventLog)
	summary.Finished = r.opts.Now().In(r.opts.Location)
	summary.Duration = summary.Finished.Sub(started)

	runEvents := append(append([]domain.Event(nil), res.Events...), breakerEvents...)
	r.publish(ctx, summary, inventory, dir, runEvents)

	r.log.Info("run finished",
		logger.Int("queried", summary.Queried),
		logger.Int("errors", summary.Errors),
		logger.Int("added", summary.Reconcile.Added+summary.Reconcile.AddedUndated),
		logger.Int("missing", summary.Reconcile.Missing),
		logger.Int("removed", summary.Reconcile.Removed),
		logger.Int("disabled", len(summary.Disabled)),
		logger.Duration("duration", summary.Duration),
	)
	return summary, nil
}

// publish hands the run output to the index, metrics and mirror. Mirror
// failures are logged only: the files are already written.
func (r *Runner) publish(ctx context.Context, s domain.RunSummary, inv domain.Inventory, dir domain.Directory, events []domain.Event) {
	if r.publisher != nil {
		r.publisher.UpdateInventory(inv, "run")
		r.publisher.UpdateDirectory(dir)
		r.publisher.SetLastRun(s)
	}
	if r.recorder != nil {
		r.recorder.ObserveRun(s, inv.Counts())
	}
	if r.mirror == nil {
		return
	}

	mctx, cancel := context.WithTimeout(ctx, r.opts.MirrorTimeout)
	defer cancel()

	if err := r.mirror.SaveInventory(mctx, inv); err != nil {
		r.log.Warn("failed to mirror inventory to redis", logger.Error(err))
		return
	}
	if err := r.mirror.AppendEvents(mctx, events); err != nil {
		r.log.Warn("failed to mirror events to redis", logger.Error(err))
		return
	}
	if err := r.mirror.SaveRunSummary(mctx, s); err != nil {
		r.log.Warn("failed to mirror run summary to redis", logger.Error(err))
		return
	}
	r.log.Debug("run mirrored to redis", logger.Int("layers", len(inv)))
}
