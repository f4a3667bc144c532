package storecache

import (
	"context"

	"github.com/goliatone/go-sheet-catalog/cache"
	"github.com/goliatone/go-sheet-catalog/internal/store"
	"github.com/google/uuid"
)

// Namespace prefixes every key the product decorator stores.
const Namespace = "products"

// ProductStore is the product store contract shared by store.Products and
// the cached decorator.
type ProductStore interface {
	List(ctx context.Context, f store.ProductFilter) ([]*store.Product, int, error)
	Get(ctx context.Context, id uuid.UUID) (*store.Product, error)
	GetByCombo(ctx context.Context, combo int) (*store.Product, error)
	Stats(ctx context.Context) (*store.ProductStats, error)
	Create(ctx context.Context, p *store.Product) (*store.Product, error)
	Update(ctx context.Context, p *store.Product) (*store.Product, error)
	UpsertByCombo(ctx context.Context, p *store.Product) (*store.Product, bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

var _ ProductStore = (*store.Products)(nil)
var _ ProductStore = (*Products)(nil)

// listResult keeps the page and the total together under one key.
type listResult struct {
	Records []*store.Product
	Total   int
}

// Products decorates a ProductStore with read-through caching. Reads are
// served from the cache; any successful write drops every product key.
type Products struct {
	base          ProductStore
	cache         cache.CacheService
	keySerializer cache.KeySerializer
}

// NewProducts wraps base. A nil keySerializer uses the default one under
// Namespace.
func NewProducts(base ProductStore, cacheService cache.CacheService, keySerializer cache.KeySerializer) *Products {
	if keySerializer == nil {
		keySerializer = cache.NewDefaultKeySerializer(Namespace)
	}
	return &Products{
		base:          base,
		cache:         cacheService,
		keySerializer: keySerializer,
	}
}

func (c *Products) List(ctx context.Context, f store.ProductFilter) ([]*store.Product, int, error) {
	f.Page = f.Page.Normalize()
	key := c.keySerializer.SerializeKey("List", f)
	res, err := cache.GetOrFetch(ctx, c.cache, key, func(ctx context.Context) (listResult, error) {
		records, total, err := c.base.List(ctx, f)
		return listResult{Records: records, Total: total}, err
	})
	if err != nil {
		return nil, 0, err
	}
	return res.Records, res.Total, nil
}

func (c *Products) Get(ctx context.Context, id uuid.UUID) (*store.Product, error) {
	key := c.keySerializer.SerializeKey("Get", id)
	return cache.GetOrFetch(ctx, c.cache, key, func(ctx context.Context) (*store.Product, error) {
		return c.base.Get(ctx, id)
	})
}

func (c *Products) GetByCombo(ctx context.Context, combo int) (*store.Product, error) {
	key := c.keySerializer.SerializeKey("GetByCombo", combo)
	return cache.GetOrFetch(ctx, c.cache, key, func(ctx context.Context) (*store.Product, error) {
		return c.base.GetByCombo(ctx, combo)
	})
}

func (c *Products) Stats(ctx context.Context) (*store.ProductStats, error) {
	key := c.keySerializer.SerializeKey("Stats")
	return cache.GetOrFetch(ctx, c.cache, key, func(ctx context.Context) (*store.ProductStats, error) {
		return c.base.Stats(ctx)
	})
}

func (c *Products) Create(ctx context.Context, p *store.Product) (*store.Product, error) {
	created, err := c.base.Create(ctx, p)
	if err != nil {
		return nil, err
	}
	return created, c.invalidate(ctx)
}

func (c *Products) Update(ctx context.Context, p *store.Product) (*store.Product, error) {
	updated, err := c.base.Update(ctx, p)
	if err != nil {
		return nil, err
	}
	return updated, c.invalidate(ctx)
}

func (c *Products) UpsertByCombo(ctx context.Context, p *store.Product) (*store.Product, bool, error) {
	out, created, err := c.base.UpsertByCombo(ctx, p)
	if err != nil {
		return nil, false, err
	}
	return out, created, c.invalidate(ctx)
}

func (c *Products) Delete(ctx context.Context, id uuid.UUID) error {
	if err := c.base.Delete(ctx, id); err != nil {
		return err
	}
	return c.invalidate(ctx)
}

// Invalidate drops every cached product read.
func (c *Products) Invalidate(ctx context.Context) error {
	return c.invalidate(ctx)
}

// A write can change any page, lookup or count, so the whole namespace goes.
func (c *Products) invalidate(ctx context.Context) error {
	return c.cache.DeleteByPrefix(ctx, c.namespacePrefix())
}

// namespacePrefix is "products::" for the default serializer.
func (c *Products) namespacePrefix() string {
	return cache.Prefix(c.keySerializer, "")
}
