package catalog

import (
	"context"
	"encoding/json"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/goliatone/go-sheet-catalog/sheetrepo"
)

// Source yields the raw product rows.
type Source interface {
	FetchTable(ctx context.Context, tableOrRange string) ([]sheetrepo.Record, error)
}

// Snapshot is an immutable, fully projected catalog. Callers must not modify
// Products.
type Snapshot struct {
	Products    []PublicProduct
	RefreshedAt time.Time
	// Version is a content hash, stable across refreshes that read the same data.
	Version string

	invalidated bool
}

// Len returns the number of products.
func (s *Snapshot) Len() int {
	return len(s.Products)
}

// SnapshotCache serves the public catalog from memory and refreshes it
// synchronously once it is older than the configured TTL. Writes to the
// product sheet do not invalidate it.
type SnapshotCache struct {
	source  Source
	cfg     Config
	clock   clockwork.Clock
	logger  *zap.Logger
	metrics *Metrics

	current atomic.Pointer[Snapshot]
	flight  singleflight.Group
}

// Option configures a SnapshotCache.
type Option func(*SnapshotCache)

func WithClock(clock clockwork.Clock) Option {
	return func(c *SnapshotCache) {
		c.clock = clock
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *SnapshotCache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(c *SnapshotCache) {
		c.metrics = m
	}
}

// NewSnapshotCache validates cfg and returns an empty cache. The first Get
// performs the initial fetch.
func NewSnapshotCache(source Source, cfg Config, opts ...Option) (*SnapshotCache, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &SnapshotCache{
		source: source,
		cfg:    cfg,
		clock:  clockwork.NewRealClock(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Get returns a snapshot no older than the TTL, refreshing it first when
// needed. Concurrent callers that miss share a single refresh.
func (c *SnapshotCache) Get(ctx context.Context) (*Snapshot, error) {
	if snap := c.current.Load(); c.fresh(snap) {
		c.metrics.hit()
		return snap, nil
	}
	c.metrics.miss()

	v, err, _ := c.flight.Do("snapshot", func() (any, error) {
		if snap := c.current.Load(); c.fresh(snap) {
			return snap, nil
		}
		return c.refresh(context.WithoutCancel(ctx))
	})
	if err != nil {
		prev := c.current.Load()
		if prev == nil || !c.cfg.StaleOnError {
			return nil, err
		}
		c.metrics.stale()
		c.logger.Warn("serving stale catalog snapshot",
			zap.Error(err),
			zap.Time("refreshed_at", prev.RefreshedAt),
		)
		return prev, nil
	}
	return v.(*Snapshot), nil
}

// Peek returns the current snapshot without refreshing. It may be nil.
func (c *SnapshotCache) Peek() *Snapshot {
	return c.current.Load()
}

// Invalidate marks the current snapshot expired. The next Get refreshes;
// the old snapshot stays available as a stale fallback.
func (c *SnapshotCache) Invalidate() {
	snap := c.current.Load()
	if snap == nil {
		return
	}
	expired := *snap
	expired.invalidated = true
	c.current.CompareAndSwap(snap, &expired)
}

// TTL returns the configured time to live.
func (c *SnapshotCache) TTL() time.Duration {
	return c.cfg.TTL
}

func (c *SnapshotCache) fresh(snap *Snapshot) bool {
	if snap == nil || snap.invalidated {
		return false
	}
	return c.clock.Since(snap.RefreshedAt) <= c.cfg.TTL
}

func (c *SnapshotCache) refresh(ctx context.Context) (*Snapshot, error) {
	started := c.clock.Now()
	records, err := c.source.FetchTable(ctx, c.cfg.Range)
	if err != nil {
		c.metrics.refreshFailed()
		return nil, err
	}

	products := Project(records, c.cfg.Fields)
	snap := &Snapshot{
		Products:    products,
		RefreshedAt: started,
		Version:     version(products),
	}
	c.current.Store(snap)
	c.metrics.refreshed(len(products))
	c.logger.Info("catalog snapshot refreshed",
		zap.Int("rows", len(records)),
		zap.Int("products", len(products)),
		zap.String("version", snap.Version),
		zap.Duration("took", c.clock.Since(started)),
	)
	return snap, nil
}

func version(products []PublicProduct) string {
	d := xxhash.New()
	_ = json.NewEncoder(d).Encode(products)
	return strconv.FormatUint(d.Sum64(), 16)
}
