package di

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/goliatone/go-sheet-catalog/cache"
	"github.com/goliatone/go-sheet-catalog/catalog"
	"github.com/goliatone/go-sheet-catalog/internal/auth"
	"github.com/goliatone/go-sheet-catalog/internal/config"
	"github.com/goliatone/go-sheet-catalog/internal/httpapi"
	"github.com/goliatone/go-sheet-catalog/internal/legacy"
	"github.com/goliatone/go-sheet-catalog/internal/migrate"
	"github.com/goliatone/go-sheet-catalog/internal/sessions"
	"github.com/goliatone/go-sheet-catalog/internal/sheetsbackend"
	"github.com/goliatone/go-sheet-catalog/internal/store"
	"github.com/goliatone/go-sheet-catalog/sheetrepo"
	"github.com/goliatone/go-sheet-catalog/storecache"
)

// productNamespace prefixes the cache keys of the relational product store.
const productNamespace = "products"

type Option func(*Container)

// WithBackend replaces the spreadsheet backend named by the configuration.
func WithBackend(b sheetrepo.Backend) Option {
	return func(c *Container) { c.backend = b }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Container) { c.logger = l }
}

func WithClock(clock clockwork.Clock) Option {
	return func(c *Container) { c.clock = clock }
}

// WithVersion sets the build version reported by the API root.
func WithVersion(v string) Option {
	return func(c *Container) { c.version = v }
}

// Container builds the catalogd services from a configuration. Sheet-side
// services are created eagerly; the database is opened on first use.
type Container struct {
	cfg      config.Config
	logger   *zap.Logger
	clock    clockwork.Clock
	version  string
	registry *prometheus.Registry

	backend sheetrepo.Backend
	closers []func() error

	repo     *sheetrepo.Repository
	catalog  *catalog.SnapshotCache
	tokens   *auth.Tokens
	sessions *sessions.Store
	legacy   *legacy.Services

	cacheService  cache.CacheService
	keySerializer cache.KeySerializer

	dbOnce   sync.Once
	dbErr    error
	stores   *store.Stores
	products *storecache.Products
}

// NewContainer validates cfg and wires the sheet, catalog and auth services.
func NewContainer(ctx context.Context, cfg config.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Container{
		cfg:      cfg,
		logger:   zap.NewNop(),
		clock:    clockwork.NewRealClock(),
		version:  "dev",
		registry: prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if c.backend == nil {
		backend, closer, err := openBackend(ctx, cfg.Sheets, c.logger)
		if err != nil {
			return nil, err
		}
		c.backend = backend
		if closer != nil {
			c.closers = append(c.closers, closer)
		}
	}

	c.repo = sheetrepo.New(c.backend,
		sheetrepo.WithLogger(c.logger.Named("sheetrepo")),
		sheetrepo.WithSchemas(legacy.Schemas()...),
	)

	snapshots, err := catalog.NewSnapshotCache(c.repo, cfg.Catalog,
		catalog.WithClock(c.clock),
		catalog.WithLogger(c.logger.Named("catalog")),
		catalog.WithMetrics(catalog.NewMetrics(c.registry)),
	)
	if err != nil {
		return nil, err
	}
	c.catalog = snapshots

	c.tokens = auth.NewTokens(cfg.Auth, c.clock)
	c.sessions = sessions.New(c.repo,
		sessions.WithClock(c.clock),
		sessions.WithLogger(c.logger.Named("sessions")),
		sessions.WithMaxDevices(cfg.Auth.MaxDevices),
	)
	c.legacy = legacy.New(c.repo)

	c.cacheService, err = cache.NewCacheService(cfg.Cache)
	if err != nil {
		return nil, err
	}
	c.keySerializer = cache.NewDefaultKeySerializer(productNamespace)
	return c, nil
}

func openBackend(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (sheetrepo.Backend, func() error, error) {
	switch cfg.Backend {
	case config.BackendXLSX:
		x, err := sheetsbackend.OpenXLSX(cfg.XLSXPath)
		if err != nil {
			return nil, nil, err
		}
		return x, x.Close, nil
	case config.BackendGoogle:
		creds, err := cfg.CredentialsJSON()
		if err != nil {
			return nil, nil, err
		}
		g, err := sheetsbackend.NewGoogleSheets(ctx, sheetsbackend.GoogleConfig{
			SpreadsheetID:   cfg.SpreadsheetID,
			CredentialsJSON: creds,
			Timeout:         cfg.Timeout,
			RetryMax:        cfg.RetryMax,
		}, logger.Named("sheets"))
		if err != nil {
			return nil, nil, err
		}
		return g, nil, nil
	default:
		return nil, nil, fmt.Errorf("di: unknown sheets backend %q", cfg.Backend)
	}
}

func (c *Container) Config() config.Config             { return c.cfg }
func (c *Container) Logger() *zap.Logger               { return c.logger }
func (c *Container) Registry() *prometheus.Registry    { return c.registry }
func (c *Container) Repository() *sheetrepo.Repository { return c.repo }
func (c *Container) Catalog() *catalog.SnapshotCache   { return c.catalog }
func (c *Container) Tokens() *auth.Tokens              { return c.tokens }
func (c *Container) Sessions() *sessions.Store         { return c.sessions }
func (c *Container) Legacy() *legacy.Services          { return c.legacy }

// CacheService returns the relational read cache.
func (c *Container) CacheService() cache.CacheService {
	return c.cacheService
}

func (c *Container) KeySerializer() cache.KeySerializer {
	return c.keySerializer
}

// Stores opens the database, creates missing tables and wires the stores.
// The outcome of the first call is kept.
func (c *Container) Stores(ctx context.Context) (*store.Stores, error) {
	c.dbOnce.Do(func() {
		db, err := store.Open(c.cfg.Database)
		if err != nil {
			c.dbErr = err
			return
		}
		if err := store.CreateSchema(ctx, db); err != nil {
			_ = db.Close()
			c.dbErr = err
			return
		}
		c.closers = append(c.closers, db.Close)
		c.stores = store.NewStores(db)
		c.products = storecache.NewProducts(c.stores.Products, c.cacheService, c.keySerializer)
	})
	return c.stores, c.dbErr
}

// Products is the cached relational product store.
func (c *Container) Products(ctx context.Context) (*storecache.Products, error) {
	if _, err := c.Stores(ctx); err != nil {
		return nil, err
	}
	return c.products, nil
}

// Relational groups the database stores for the HTTP routes.
func (c *Container) Relational(ctx context.Context) (*httpapi.Relational, error) {
	stores, err := c.Stores(ctx)
	if err != nil {
		return nil, err
	}
	return &httpapi.Relational{
		Products:  c.products,
		Users:     stores.Users,
		Clients:   stores.Clients,
		Sales:     stores.Sales,
		Dashboard: stores,
	}, nil
}

// Migrator copies the sheets into the database through the cached product
// store, so migrated products are visible to cached reads at once.
func (c *Container) Migrator(ctx context.Context) (*migrate.Migrator, error) {
	stores, err := c.Stores(ctx)
	if err != nil {
		return nil, err
	}
	return migrate.New(c.repo, c.products, stores.Users,
		migrate.WithProductRange(c.cfg.Catalog.Range),
		migrate.WithLogger(c.logger.Named("migrate")),
	), nil
}

// Server builds the HTTP API. withDatabase mounts the relational routes.
func (c *Container) Server(ctx context.Context, withDatabase bool) (*httpapi.Server, error) {
	deps := httpapi.Deps{
		Catalog:  c.catalog,
		Tokens:   c.tokens,
		Sessions: c.sessions,
		Legacy:   c.legacy,
		Gatherer: c.registry,
		Logger:   c.logger.Named("http"),
		Origins:  c.cfg.Server.Origins,
		Version:  c.version,
	}
	if withDatabase {
		rel, err := c.Relational(ctx)
		if err != nil {
			return nil, err
		}
		deps.Relational = rel
	}
	return httpapi.NewServer(deps)
}

// Close releases the database and the xlsx file, in reverse order of opening.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
