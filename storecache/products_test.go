package storecache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/goliatone/go-sheet-catalog/cache"
	"github.com/goliatone/go-sheet-catalog/internal/store"
	"github.com/google/uuid"
)

// mapCache is an in-memory CacheService that records deletions.
type mapCache struct {
	mu       sync.Mutex
	items    map[string]any
	prefixes []string
}

func newMapCache() *mapCache {
	return &mapCache{items: make(map[string]any)}
}

func (m *mapCache) GetOrFetch(ctx context.Context, key string, fetchFn func(context.Context) (any, error)) (any, error) {
	m.mu.Lock()
	if v, ok := m.items[key]; ok {
		m.mu.Unlock()
		return v, nil
	}
	m.mu.Unlock()

	v, err := fetchFn(ctx)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.items[key] = v
	m.mu.Unlock()
	return v, nil
}

func (m *mapCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

func (m *mapCache) DeleteByPrefix(ctx context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prefixes = append(m.prefixes, prefix)
	for k := range m.items {
		if strings.HasPrefix(k, prefix) {
			delete(m.items, k)
		}
	}
	return nil
}

func (m *mapCache) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.items))
	for k := range m.items {
		out = append(out, k)
	}
	return out
}

// mockStore records calls and returns canned results.
type mockStore struct {
	mu      sync.Mutex
	calls   []string
	product *store.Product
	list    []*store.Product
	total   int
	err     error
}

func (m *mockStore) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *mockStore) count(call string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (m *mockStore) List(ctx context.Context, f store.ProductFilter) ([]*store.Product, int, error) {
	m.record("List")
	return m.list, m.total, m.err
}

func (m *mockStore) Get(ctx context.Context, id uuid.UUID) (*store.Product, error) {
	m.record("Get")
	return m.product, m.err
}

func (m *mockStore) GetByCombo(ctx context.Context, combo int) (*store.Product, error) {
	m.record("GetByCombo")
	return m.product, m.err
}

func (m *mockStore) Stats(ctx context.Context) (*store.ProductStats, error) {
	m.record("Stats")
	return &store.ProductStats{Total: m.total}, m.err
}

func (m *mockStore) Create(ctx context.Context, p *store.Product) (*store.Product, error) {
	m.record("Create")
	return p, m.err
}

func (m *mockStore) Update(ctx context.Context, p *store.Product) (*store.Product, error) {
	m.record("Update")
	return p, m.err
}

func (m *mockStore) UpsertByCombo(ctx context.Context, p *store.Product) (*store.Product, bool, error) {
	m.record("UpsertByCombo")
	return p, true, m.err
}

func (m *mockStore) Delete(ctx context.Context, id uuid.UUID) error {
	m.record("Delete")
	return m.err
}

func TestProducts_ReadsAreCached(t *testing.T) {
	ctx := context.Background()
	p := &store.Product{ID: uuid.New(), Combo: 101}
	base := &mockStore{product: p, list: []*store.Product{p}, total: 1}
	cached := NewProducts(base, newMapCache(), nil)

	for i := 0; i < 3; i++ {
		got, err := cached.Get(ctx, p.ID)
		if err != nil || got != p {
			t.Fatalf("Get() = %v, %v", got, err)
		}
		if _, err := cached.GetByCombo(ctx, 101); err != nil {
			t.Fatal(err)
		}
		list, total, err := cached.List(ctx, store.ProductFilter{Familia: "Cocina"})
		if err != nil || total != 1 || len(list) != 1 {
			t.Fatalf("List() = %v, %d, %v", list, total, err)
		}
		if _, err := cached.Stats(ctx); err != nil {
			t.Fatal(err)
		}
	}

	for _, call := range []string{"Get", "GetByCombo", "List", "Stats"} {
		if n := base.count(call); n != 1 {
			t.Errorf("%s called %d times, want 1", call, n)
		}
	}
}

func TestProducts_ListKeyNormalizesPage(t *testing.T) {
	ctx := context.Background()
	base := &mockStore{}
	cached := NewProducts(base, newMapCache(), nil)

	if _, _, err := cached.List(ctx, store.ProductFilter{}); err != nil {
		t.Fatal(err)
	}
	if _, _, err := cached.List(ctx, store.ProductFilter{Page: store.Page{Page: 1, Limit: 50}}); err != nil {
		t.Fatal(err)
	}
	if n := base.count("List"); n != 1 {
		t.Errorf("List called %d times, want 1", n)
	}
}

func TestProducts_DistinctArgsDistinctKeys(t *testing.T) {
	ctx := context.Background()
	base := &mockStore{product: &store.Product{}}
	cached := NewProducts(base, newMapCache(), nil)

	_, _ = cached.GetByCombo(ctx, 1)
	_, _ = cached.GetByCombo(ctx, 2)
	if n := base.count("GetByCombo"); n != 2 {
		t.Errorf("GetByCombo called %d times, want 2", n)
	}
}

func TestProducts_WritesInvalidateNamespace(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name  string
		write func(c *Products) error
	}{
		{"create", func(c *Products) error { _, err := c.Create(ctx, &store.Product{}); return err }},
		{"update", func(c *Products) error { _, err := c.Update(ctx, &store.Product{}); return err }},
		{"upsert", func(c *Products) error { _, _, err := c.UpsertByCombo(ctx, &store.Product{}); return err }},
		{"delete", func(c *Products) error { return c.Delete(ctx, uuid.New()) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mc := newMapCache()
			base := &mockStore{product: &store.Product{}}
			cached := NewProducts(base, mc, nil)

			_, _ = cached.GetByCombo(ctx, 1)
			_, _ = cached.Stats(ctx)
			if len(mc.keys()) != 2 {
				t.Fatalf("keys before write = %v", mc.keys())
			}

			if err := tt.write(cached); err != nil {
				t.Fatal(err)
			}
			if keys := mc.keys(); len(keys) != 0 {
				t.Errorf("keys after write = %v", keys)
			}
			if len(mc.prefixes) != 1 || mc.prefixes[0] != "products::" {
				t.Errorf("prefixes = %v", mc.prefixes)
			}

			_, _ = cached.GetByCombo(ctx, 1)
			if n := base.count("GetByCombo"); n != 2 {
				t.Errorf("GetByCombo called %d times after write, want 2", n)
			}
		})
	}
}

func TestProducts_FailedWriteKeepsCache(t *testing.T) {
	ctx := context.Background()
	mc := newMapCache()
	base := &mockStore{product: &store.Product{}}
	cached := NewProducts(base, mc, nil)

	_, _ = cached.GetByCombo(ctx, 1)
	base.err = store.ErrConflict
	if _, err := cached.Create(ctx, &store.Product{}); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	if len(mc.prefixes) != 0 || len(mc.keys()) != 1 {
		t.Errorf("prefixes = %v keys = %v", mc.prefixes, mc.keys())
	}
}

func TestProducts_ErrorsNotCached(t *testing.T) {
	ctx := context.Background()
	base := &mockStore{err: store.ErrNotFound}
	cached := NewProducts(base, newMapCache(), nil)

	for i := 0; i < 2; i++ {
		if _, err := cached.Get(ctx, uuid.Nil); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	}
	if n := base.count("Get"); n != 2 {
		t.Errorf("Get called %d times, want 2", n)
	}
}

func TestProducts_WithSturdyc(t *testing.T) {
	ctx := context.Background()
	svc, err := cache.NewCacheService(cache.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	base := &mockStore{product: &store.Product{Combo: 9}}
	cached := NewProducts(base, svc, nil)

	for i := 0; i < 2; i++ {
		got, err := cached.GetByCombo(ctx, 9)
		if err != nil || got.Combo != 9 {
			t.Fatalf("GetByCombo() = %v, %v", got, err)
		}
	}
	if err := cached.Invalidate(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := cached.GetByCombo(ctx, 9); err != nil {
		t.Fatal(err)
	}
	if n := base.count("GetByCombo"); n != 2 {
		t.Errorf("GetByCombo called %d times, want 2", n)
	}
}
