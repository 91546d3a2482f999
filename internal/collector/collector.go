package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/MrSnakeDoc/geoinv/internal/domain"
	"github.com/MrSnakeDoc/geoinv/internal/logger"
	"github.com/MrSnakeDoc/geoinv/internal/sources/ows"
)

// Observer receives one call per queried pair. The metrics package implements it.
type Observer interface {
	ObserveFetch(svc domain.Service, kind domain.EventKind, elapsed time.Duration)
}

type Options struct {
	Timeout           time.Duration
	Retries           int
	RetryBaseDelay    time.Duration // default 1s
	RetryMaxDelay     time.Duration // default 10s
	SkipTLSValidation bool
	Concurrency       int     // servers queried in parallel, default 1
	RequestsPerSecond float64 // <= 0 disables pacing

	// Location is the zone of event timestamps, default UTC.
	Location *time.Location
	// Now is the wall clock, default time.Now.
	Now func() time.Time
}

// Collector queries every enabled (server, service) pair of a Directory and
// builds the run's Snapshot and outcome events.
type Collector struct {
	client   *http.Client
	limiter  *rate.Limiter
	mapper   *ows.Mapper
	log      logger.Logger
	observer Observer
	retry    retryConfig
	opts     Options
}

// Result is everything a collection produced.
type Result struct {
	Snapshot *domain.Snapshot
	// Events holds exactly one ok or error event per queried pair, sorted.
	Events   []domain.Event
	Started  time.Time
	Finished time.Time
}

// Errors returns the error events of the result.
func (r *Result) Errors() []domain.Event {
	var out []domain.Event
	for _, e := range r.Events {
		if e.Kind == domain.EventError {
			out = append(out, e)
		}
	}
	return out
}

func New(opts Options, rules ows.Rules, log logger.Logger, observer Observer) *Collector {
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.RetryBaseDelay <= 0 {
		opts.RetryBaseDelay = time.Second
	}
	if opts.RetryMaxDelay <= 0 {
		opts.RetryMaxDelay = 10 * time.Second
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	return &Collector{
		client:   newHTTPClient(opts.Timeout, opts.SkipTLSValidation),
		limiter:  rate.NewLimiter(limit, opts.Concurrency),
		mapper:   ows.NewMapper(rules),
		log:      log,
		observer: observer,
		retry: retryConfig{
			maxRetries: opts.Retries,
			baseDelay:  opts.RetryBaseDelay,
			maxDelay:   opts.RetryMaxDelay,
		},
		opts: opts,
	}
}

type observation struct {
	layer domain.Layer
	svc   domain.Service
}

type serverResult struct {
	observations []observation
	events       []domain.Event
}

// Collect queries the directory. Pair failures become error events and never
// abort the collection; only a cancelled ctx returns an error.
func (c *Collector) Collect(ctx context.Context, dir domain.Directory) (*Result, error) {
	started := c.opts.Now()
	results := make([]serverResult, len(dir))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Concurrency)
	for i, srv := range dir {
		if len(srv.EnabledServices()) == 0 {
			continue
		}
		g.Go(func() error {
			results[i] = c.collectServer(gctx, srv)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("collection aborted: %w", err)
	}

	// Merge in directory order so a layer's attributes never depend on scheduling.
	snapshot := domain.NewSnapshot()
	var events []domain.Event
	for _, r := range results {
		for _, o := range r.observations {
			snapshot.Observe(o.layer, o.svc)
		}
		events = append(events, r.events...)
	}
	domain.SortEvents(events)

	return &Result{
		Snapshot: snapshot,
		Events:   events,
		Started:  started,
		Finished: c.opts.Now(),
	}, nil
}

// collectServer queries the enabled services of srv one after the other,
// wms first, so the first service's attributes win the merge.
func (c *Collector) collectServer(ctx context.Context, srv domain.Server) serverResult {
	var res serverResult
	for _, svc := range srv.EnabledServices() {
		at := c.eventTime()
		records, elapsed, err := c.fetch(ctx, srv.OWS, svc)

		event := domain.Event{Time: at, Server: srv.Name, Service: svc}
		if err != nil {
			event.Kind = domain.EventError
			event.Detail = err.Error()
			c.log.Warn("capabilities request failed",
				logger.String("server", srv.Name),
				logger.String("service", string(svc)),
				logger.Error(err),
			)
		} else {
			layers := c.mapper.MapLayers(srv.Name, records)
			for _, l := range layers {
				res.observations = append(res.observations, observation{layer: l, svc: svc})
			}
			event.Kind = domain.EventOK
			event.Detail = fmt.Sprintf("%.3f seconds", elapsed.Seconds())
			c.log.Debug("capabilities collected",
				logger.String("server", srv.Name),
				logger.String("service", string(svc)),
				logger.Int("layers", len(layers)),
				logger.Duration("elapsed", elapsed),
			)
		}

		if c.observer != nil {
			c.observer.ObserveFetch(svc, event.Kind, elapsed)
		}
		res.events = append(res.events, event)
	}
	return res
}

// fetch downloads and decodes one capabilities document, retrying network
// failures. The returned duration is that of the last attempt.
func (c *Collector) fetch(ctx context.Context, endpoint string, svc domain.Service) ([]ows.Record, time.Duration, error) {
	url, err := ows.CapabilitiesURL(endpoint, svc)
	if err != nil {
		return nil, 0, &FetchError{Kind: KindNetwork, URL: endpoint, Err: err}
	}

	var (
		body    []byte
		elapsed time.Duration
	)
	err = retryOp(ctx, c.retry, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return &FetchError{Kind: KindNetwork, URL: url, Err: err}
		}
		var getErr error
		body, elapsed, getErr = get(ctx, c.client, url)
		return getErr
	})
	if err != nil {
		return nil, elapsed, err
	}

	records, err := ows.Decode(svc, body)
	if err != nil {
		return nil, elapsed, &FetchError{Kind: KindMalformed, URL: url, Err: err}
	}
	return records, elapsed, nil
}

// eventTime is the wall clock in the run zone at minute precision.
func (c *Collector) eventTime() time.Time {
	return c.opts.Now().In(c.opts.Location).Truncate(time.Minute)
}

// IsKind reports whether err is a *FetchError of kind k.
func IsKind(err error, k Kind) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Kind == k
}
