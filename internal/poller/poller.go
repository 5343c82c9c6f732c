// Package poller runs a fetch-by-id operation on a fixed interval and hands every
// successful result to a callback.
//
// The first fetch is issued immediately, later ones on every interval tick. A tick
// cancels the fetch still in flight from the previous tick and that fetch's result is
// dropped, so only the latest request of a poller can deliver. Fetch errors are logged,
// counted and otherwise ignored: they never stop the loop.
package poller

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultInterval is the time between two fetches
const DefaultInterval = 5 * time.Second

// FetchFunc fetches a single snapshot of the record with the given id
type FetchFunc[T any] func(ctx context.Context, id string) (T, error)

// ResultFunc receives every successful, non superseded fetch result
type ResultFunc[T any] func(v T)

// Poller periodically fetches a record by id
type Poller[T any] struct {
	name     string
	id       string
	fetch    FetchFunc[T]
	onResult ResultFunc[T]
	interval time.Duration
	logger   *zap.SugaredLogger

	mu       sync.Mutex
	seq      uint64
	cancelFn context.CancelFunc
	inflight sync.WaitGroup
}

// Option is a functional configuration option
type Option[T any] func(p *Poller[T])

// WithInterval sets the time between two fetches
func WithInterval[T any](d time.Duration) Option[T] {
	return func(p *Poller[T]) {
		p.interval = d
	}
}

// WithLogger sets the poller logger
func WithLogger[T any](l *zap.SugaredLogger) Option[T] {
	return func(p *Poller[T]) {
		p.logger = l
	}
}

// New creates a poller named name that fetches id with fetch and reports to onResult
func New[T any](name, id string, fetch FetchFunc[T], onResult ResultFunc[T], opts ...Option[T]) (*Poller[T], error) {
	if fetch == nil || onResult == nil {
		return nil, ErrMissingFunc
	}

	p := &Poller[T]{
		name:     name,
		id:       id,
		fetch:    fetch,
		onResult: onResult,
		interval: DefaultInterval,
		logger:   zap.NewNop().Sugar(),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.interval <= 0 {
		return nil, ErrInvalidInterval
	}

	p.logger = p.logger.With("poller", p.name)

	return p, nil
}

// Name returns the poller name
func (p *Poller[T]) Name() string {
	return p.name
}

// Run polls until ctx is canceled. It returns once every fetch it started has returned.
func (p *Poller[T]) Run(ctx context.Context) {
	p.logger.Debugw("starting poller", "interval", p.interval)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("stopping poller")
			p.cancelInflight()
			p.inflight.Wait()

			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

// cancelInflight cancels the fetch started by the last tick, if any, and retires its sequence number
func (p *Poller[T]) cancelInflight() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancelFn != nil {
		p.cancelFn()
		p.cancelFn = nil
	}

	p.seq++
}

func (p *Poller[T]) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	fetchCtx, cancel := context.WithCancel(ctx)

	p.mu.Lock()

	if p.cancelFn != nil {
		p.cancelFn()
	}

	p.cancelFn = cancel
	p.seq++
	seq := p.seq

	p.mu.Unlock()

	p.inflight.Add(1)

	go func() {
		defer p.inflight.Done()
		defer cancel()

		p.fetchOnce(fetchCtx, seq)
	}()
}

func (p *Poller[T]) fetchOnce(ctx context.Context, seq uint64) {
	start := time.Now()

	v, err := p.fetch(ctx, p.id)

	fetchDuration.WithLabelValues(p.name).Observe(time.Since(start).Seconds())

	p.mu.Lock()
	defer p.mu.Unlock()

	if seq != p.seq || ctx.Err() != nil {
		fetchTotal.WithLabelValues(p.name, outcomeSuperseded).Inc()
		p.logger.Debugw("dropping superseded fetch result", "error", err)

		return
	}

	if err != nil {
		// best effort: keep the previous result and wait for the next tick
		fetchTotal.WithLabelValues(p.name, outcomeError).Inc()
		p.logger.Debugw("fetch failed", "error", err)

		return
	}

	fetchTotal.WithLabelValues(p.name, outcomeSuccess).Inc()

	p.onResult(v)
}
