package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/goliatone/go-sheet-catalog/catalog"
	"github.com/goliatone/go-sheet-catalog/internal/auth"
	"github.com/goliatone/go-sheet-catalog/internal/legacy"
	"github.com/goliatone/go-sheet-catalog/internal/sessions"
	"github.com/goliatone/go-sheet-catalog/internal/store"
	"github.com/goliatone/go-sheet-catalog/storecache"
)

// Catalog serves public catalog snapshots.
type Catalog interface {
	Get(ctx context.Context) (*catalog.Snapshot, error)
	Invalidate()
}

type UserStore interface {
	List(ctx context.Context, f store.UserFilter) ([]*store.User, int, error)
	Get(ctx context.Context, id uuid.UUID) (*store.User, error)
	GetByUsername(ctx context.Context, username string) (*store.User, error)
	Create(ctx context.Context, u *store.User) (*store.User, error)
	Update(ctx context.Context, u *store.User) (*store.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type ClientStore interface {
	List(ctx context.Context, f store.ClientFilter) ([]*store.Client, int, error)
	Get(ctx context.Context, id uuid.UUID) (*store.Client, error)
	Create(ctx context.Context, c *store.Client) (*store.Client, error)
	Update(ctx context.Context, c *store.Client) (*store.Client, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type SaleStore interface {
	List(ctx context.Context, f store.SaleFilter) ([]*store.Sale, int, error)
	Get(ctx context.Context, id uuid.UUID) (*store.Sale, error)
	Create(ctx context.Context, in store.NewSale) (*store.Sale, error)
	Totals(ctx context.Context) (*store.SaleTotals, error)
}

type Dashboard interface {
	Overview(ctx context.Context) (*store.Overview, error)
}

// Relational groups the database backed stores. Products should be the
// cached store.
type Relational struct {
	Products  storecache.ProductStore
	Users     UserStore
	Clients   ClientStore
	Sales     SaleStore
	Dashboard Dashboard
}

// Deps are the services behind the routes. Legacy and Relational are
// optional; their routes are only mounted when set.
type Deps struct {
	Catalog    Catalog
	Tokens     *auth.Tokens
	Sessions   *sessions.Store
	Legacy     *legacy.Services
	Relational *Relational
	Gatherer   prometheus.Gatherer
	Logger     *zap.Logger
	Origins    []string
	Version    string
}

// Server is the catalog HTTP server.
type Server struct {
	deps   Deps
	logger *zap.Logger
	router *gin.Engine
}

// NewServer builds the router. Catalog and Tokens are required.
func NewServer(deps Deps) (*Server, error) {
	if deps.Catalog == nil {
		return nil, errors.New("httpapi: catalog is required")
	}
	if deps.Tokens == nil {
		return nil, errors.New("httpapi: tokens are required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(requestID(), recovery(deps.Logger), accessLog(deps.Logger), cors(deps.Origins))

	s := &Server{
		deps:   deps,
		logger: deps.Logger,
		router: router,
	}

	router.GET("/healthcheck", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	s.registerCatalog(router.Group("/api/essen"))

	authed := auth.Middleware(deps.Tokens)
	if deps.Legacy != nil && deps.Sessions != nil {
		s.registerAuth(router.Group("/auth"))
		s.registerLegacy(router.Group("/api"), authed)
	}
	if deps.Relational != nil {
		s.registerRelational(router.Group("/api", authed))
	}
	if deps.Sessions != nil {
		s.registerAdmin(router.Group("/api/admin", authed, auth.RequireAdmin()))
	}

	return s, nil
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("httpapi: serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("httpapi: shutdown: %w", err)
	}
	return nil
}
