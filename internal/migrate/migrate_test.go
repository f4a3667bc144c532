package migrate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/goliatone/go-sheet-catalog/internal/store"
	"github.com/goliatone/go-sheet-catalog/pkg/testsupport"
	"github.com/goliatone/go-sheet-catalog/sheetrepo"
)

func sheetTables() map[string][][]string {
	return map[string][][]string{
		"productos": {
			{"combo", "familia", "descripcion", "precio_negocio", "vigencia"},
			{"101", "Cocina", "Cacerola 24", "99999", "SI"},
			{"", "", "Separador", "", ""},
			{"abc", "Cocina", "Sin combo", "", ""},
			{"102", "Electro", "Batidora", "77777", "NO"},
		},
		"usuarios": {
			{"username", "password", "rango", "codigo_emprendedora", "tipo_usuario"},
			{"alice", "p1", "oro", "E1", "full"},
			{"", "", "", "", ""},
			{"bob", "p2", "plata", "E2", "gratis"},
		},
	}
}

func openStores(t *testing.T) *store.Stores {
	t.Helper()
	db, err := store.Open(store.Config{
		Driver: store.DriverSQLite,
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := store.CreateSchema(context.Background(), db); err != nil {
		t.Fatalf("schema: %v", err)
	}
	return store.NewStores(db)
}

func TestRun_UpsertsKeyedRows(t *testing.T) {
	ctx := context.Background()
	backend := testsupport.NewMemoryBackendWith(sheetTables())
	stores := openStores(t)
	m := New(sheetrepo.New(backend), stores.Products, stores.Users)

	report, err := m.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := report.Products; got.Migrated != 2 || got.Created != 2 || got.Skipped != 2 || got.Errors != 0 {
		t.Errorf("products = %+v", got)
	}
	if got := report.Users; got.Migrated != 2 || got.Skipped != 1 {
		t.Errorf("users = %+v", got)
	}

	p, err := stores.Products.GetByCombo(ctx, 101)
	if err != nil {
		t.Fatalf("GetByCombo: %v", err)
	}
	if p.PrecioNegocio != "99999" || p.Descripcion != "Cacerola 24" {
		t.Errorf("product = %+v", p)
	}
	u, err := stores.Users.GetByUsername(ctx, "bob")
	if err != nil {
		t.Fatalf("GetByUsername: %v", err)
	}
	if u.Estado != store.UserActiveValue || u.TipoUsuario != "gratis" {
		t.Errorf("user = %+v", u)
	}

	// A second run updates in place.
	report, err = m.Run(ctx)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if report.Products.Migrated != 2 || report.Products.Created != 0 {
		t.Errorf("second run products = %+v", report.Products)
	}
	_, total, err := stores.Products.List(ctx, store.ProductFilter{})
	if err != nil || total != 2 {
		t.Errorf("products in store = %d, %v", total, err)
	}
}

type failingProducts struct {
	mu     sync.Mutex
	combos []int
}

func (f *failingProducts) UpsertByCombo(_ context.Context, p *store.Product) (*store.Product, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.combos = append(f.combos, p.Combo)
	if p.Combo == 101 {
		return nil, false, errors.New("disk full")
	}
	return p, true, nil
}

type noUsers struct{}

func (noUsers) UpsertByUsername(_ context.Context, u *store.User) (*store.User, bool, error) {
	return u, false, nil
}

func TestRun_RowErrorsAreReported(t *testing.T) {
	backend := testsupport.NewMemoryBackendWith(sheetTables())
	sink := &failingProducts{}

	report, err := New(sheetrepo.New(backend), sink, noUsers{}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(sink.combos) != 2 {
		t.Errorf("upserts = %v, want both combos attempted", sink.combos)
	}
	got := report.Products
	if got.Errors != 1 || got.Migrated != 1 {
		t.Fatalf("products = %+v", got)
	}
	if f := got.Failures[0]; f.Row != 2 || f.Key != "101" || f.Err != "disk full" {
		t.Errorf("failure = %+v", f)
	}
}

func TestRun_ReadFailure(t *testing.T) {
	backend := testsupport.NewMemoryBackendWith(sheetTables())
	backend.FailOn("Values", testsupport.ErrBackendDown)

	_, err := New(sheetrepo.New(backend), &failingProducts{}, noUsers{}).Run(context.Background())
	if !errors.Is(err, sheetrepo.ErrBackendUnavailable) {
		t.Fatalf("err = %v, want ErrBackendUnavailable", err)
	}
}

func TestRun_CustomRanges(t *testing.T) {
	tables := sheetTables()
	tables["catalogo"] = tables["productos"]
	delete(tables, "productos")
	backend := testsupport.NewMemoryBackendWith(tables)

	report, err := New(sheetrepo.New(backend), &failingProducts{}, noUsers{}, WithProductRange("catalogo")).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Products.Errors != 1 {
		t.Errorf("products = %+v", report.Products)
	}
}

func TestProductFromRecord(t *testing.T) {
	tests := []struct {
		combo string
		ok    bool
	}{
		{"101", true},
		{" 7 ", true},
		{"", false},
		{"0", false},
		{"-3", false},
		{"12abc", true},
		{"12.0", true},
		{"abc", false},
	}
	for _, tt := range tests {
		_, ok := productFromRecord(sheetrepo.Record{"combo": tt.combo})
		if ok != tt.ok {
			t.Errorf("combo %q: ok = %v, want %v", tt.combo, ok, tt.ok)
		}
	}
}
