package fx

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// DefaultRefreshInterval is how often the background refresher polls the source
const DefaultRefreshInterval = time.Hour

var (
	ErrRateFetchFailed = errors.New("exchange rate fetch failed")
)

// Rates maps a currency code to its multiplier relative to USD
type Rates map[string]float64

// DefaultRates is served until the first successful refresh
func DefaultRates() Rates {
	return Rates{
		"USD": 1,
		"EUR": 1.1,
		"GBP": 1.5,
	}
}

// Source fetches a fresh rate table
type Source interface {
	Fetch(ctx context.Context) (Rates, error)
}

// Observer is notified of every refresh outcome
type Observer interface {
	ObserveRefresh(err error)
}

// Cache holds the current rate snapshot. Readers never block and never see a
// partially merged table.
type Cache struct {
	source   Source
	interval time.Duration
	logger   *zap.Logger
	observer Observer

	snapshot atomic.Pointer[Rates]
	refresh  sync.Mutex

	lifecycle sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
}

// Option configures a Cache
type Option func(*Cache)

// WithInterval overrides the background refresh interval
func WithInterval(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithObserver attaches a refresh observer, e.g. metrics
func WithObserver(o Observer) Option {
	return func(c *Cache) {
		c.observer = o
	}
}

// NewCache creates a cache seeded with DefaultRates
func NewCache(source Source, logger *zap.Logger, opts ...Option) *Cache {
	c := &Cache{
		source:   source,
		interval: DefaultRefreshInterval,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}

	initial := DefaultRates()
	c.snapshot.Store(&initial)
	return c
}

// Current returns the latest successfully fetched snapshot. The returned map
// is shared and must not be modified.
func (c *Cache) Current() map[string]float64 {
	return *c.snapshot.Load()
}

// Refresh fetches from the source and merges the result over the current
// snapshot. On failure the snapshot is left untouched.
func (c *Cache) Refresh(ctx context.Context) (Rates, error) {
	c.refresh.Lock()
	defer c.refresh.Unlock()

	incoming, err := c.source.Fetch(ctx)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrRateFetchFailed, err)
		c.observe(err)
		return nil, err
	}

	merged := maps.Clone(*c.snapshot.Load())
	maps.Copy(merged, incoming)
	merged["USD"] = 1

	c.snapshot.Store(&merged)
	c.observe(nil)
	return merged, nil
}

// Start refreshes once and then on every interval until ctx is cancelled or
// Stop is called. Calling Start on a running cache is a no-op.
func (c *Cache) Start(ctx context.Context) {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	if c.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})

	go c.run(ctx, c.done)
}

// Stop cancels the background refresher and waits for it to exit
func (c *Cache) Stop() {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	if c.cancel == nil {
		return
	}

	c.cancel()
	<-c.done
	c.cancel = nil
	c.done = nil
}

func (c *Cache) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	c.refreshLogged(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.refreshLogged(ctx)
		}
	}
}

func (c *Cache) refreshLogged(ctx context.Context) {
	rates, err := c.Refresh(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		c.logger.Warn("Exchange rate refresh failed, keeping previous snapshot", zap.Error(err))
		return
	}
	c.logger.Debug("Exchange rates refreshed", zap.Int("currencies", len(rates)))
}

func (c *Cache) observe(err error) {
	if c.observer != nil {
		c.observer.ObserveRefresh(err)
	}
}
