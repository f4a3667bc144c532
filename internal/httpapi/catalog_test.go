package httpapi

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-sheet-catalog/pkg/testsupport"
)

func TestListProducts(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(req{method: http.MethodGet, path: "/api/essen/products?familia=coc&sort=descripcion&order=desc&limit=1"})
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	body := decode(t, w)

	data := body["data"].([]any)
	if len(data) != 1 {
		t.Fatalf("got %d products, want 1", len(data))
	}
	if got := data[0].(map[string]any)["descripcion"]; got != "Sarten 20" {
		t.Errorf("first product = %v, want Sarten 20", got)
	}

	pagination := body["pagination"].(map[string]any)
	if pagination["total"] != float64(2) || pagination["pages"] != float64(2) || pagination["limit"] != float64(1) {
		t.Errorf("pagination = %v", pagination)
	}
	filters := body["filters"].(map[string]any)
	if filters["familia"] != "coc" || filters["sort"] != "descripcion" || filters["order"] != "desc" {
		t.Errorf("filters = %v", filters)
	}
	meta := body["meta"].(map[string]any)
	if meta["cache_updated"] != "2026-03-04T15:06:07Z" {
		t.Errorf("cache_updated = %v", meta["cache_updated"])
	}
}

func TestListProducts_NeverExposesPricing(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(req{method: http.MethodGet, path: "/api/essen/products"})
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	for _, secret := range []string{"99999", "55555", "77777", "8333", "precio_negocio", "doce_sin_interes"} {
		if strings.Contains(w.Body.String(), secret) {
			t.Errorf("response leaks %q", secret)
		}
	}
	if !strings.Contains(w.Body.String(), `"has_pricing":true`) {
		t.Error("missing pricing disclosure")
	}
}

func TestListProducts_BadQuery(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(req{method: http.MethodGet, path: "/api/essen/products?page=abc"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestProductLookups(t *testing.T) {
	env := newTestEnv(t)
	tests := []struct {
		name string
		path string
		code int
		want string
	}{
		{"by id", "/api/essen/products/4", http.StatusOK, "Batidora"},
		{"skipped row id", "/api/essen/products/3", http.StatusNotFound, "Producto no encontrado"},
		{"bad id", "/api/essen/products/x", http.StatusBadRequest, "id must be a number"},
		{"by combo", "/api/essen/products/combo/102", http.StatusOK, "Sarten 20"},
		{"missing combo", "/api/essen/products/combo/999", http.StatusNotFound, "Producto no encontrado"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(req{method: http.MethodGet, path: tt.path})
			if w.Code != tt.code {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.code, w.Body.String())
			}
			if !strings.Contains(w.Body.String(), tt.want) {
				t.Errorf("body %s lacks %q", w.Body.String(), tt.want)
			}
		})
	}
}

func TestETag(t *testing.T) {
	env := newTestEnv(t)
	first := env.do(req{method: http.MethodGet, path: "/api/essen/categories"})
	etag := first.Header().Get("ETag")
	if etag == "" {
		t.Fatal("missing ETag")
	}

	w := env.do(req{method: http.MethodGet, path: "/api/essen/categories", headers: map[string]string{"If-None-Match": etag}})
	if w.Code != http.StatusNotModified {
		t.Fatalf("status = %d, want 304", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("304 with body %q", w.Body.String())
	}

	w = env.do(req{method: http.MethodGet, path: "/api/essen/categories", headers: map[string]string{"If-None-Match": `"stale"`}})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestETagMatches(t *testing.T) {
	tests := []struct {
		header string
		want   bool
	}{
		{`"v1"`, true},
		{`W/"v1"`, true},
		{`"v0", "v1"`, true},
		{`*`, true},
		{`"v2"`, false},
	}
	for _, tt := range tests {
		if got := etagMatches(tt.header, `"v1"`); got != tt.want {
			t.Errorf("etagMatches(%s) = %v, want %v", tt.header, got, tt.want)
		}
	}
}

func TestCategoriesAndStats(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(req{method: http.MethodGet, path: "/api/essen/categories"})
	if w.Code != http.StatusOK {
		t.Fatalf("categories: %d", w.Code)
	}
	families := decode(t, w)["data"].(map[string]any)["familias"].([]any)
	if len(families) != 2 {
		t.Fatalf("familias = %v", families)
	}
	first := families[0].(map[string]any)
	if first["value"] != "Cocina" || first["count"] != float64(2) {
		t.Errorf("first family = %v", first)
	}

	w = env.do(req{method: http.MethodGet, path: "/api/essen/stats"})
	if w.Code != http.StatusOK {
		t.Fatalf("stats: %d", w.Code)
	}
	body := decode(t, w)
	stats := body["data"].(map[string]any)
	if stats["total_products"] != float64(3) {
		t.Errorf("total_products = %v", stats["total_products"])
	}
	if byValidity := stats["by_vigencia"].(map[string]any); byValidity["SI"] != float64(2) || byValidity["NO"] != float64(1) {
		t.Errorf("by_vigencia = %v", byValidity)
	}
	if ttl := body["meta"].(map[string]any)["ttl_seconds"]; ttl != float64(300) {
		t.Errorf("ttl_seconds = %v", ttl)
	}
}

func TestSearch(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(req{method: http.MethodGet, path: "/api/essen/search"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("no params: status %d", w.Code)
	}
	if params := decode(t, w)["available_params"].([]any); len(params) != 4 {
		t.Errorf("available_params = %v", params)
	}

	w = env.do(req{method: http.MethodGet, path: "/api/essen/search?q=t-24"})
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if total := decode(t, w)["total"]; total != float64(1) {
		t.Errorf("q=t-24 total = %v", total)
	}

	// familia is exact on /search.
	w = env.do(req{method: http.MethodGet, path: "/api/essen/search?familia=coc"})
	if total := decode(t, w)["total"]; total != float64(0) {
		t.Errorf("familia=coc total = %v", total)
	}
}

func TestFeed(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(req{method: http.MethodGet, path: "/api/essen/feed"})
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/rss+xml") {
		t.Errorf("content type = %q", ct)
	}
	out := w.Body.String()
	if !strings.Contains(out, "Cacerola 24") || !strings.Contains(out, "Sarten 20") {
		t.Errorf("feed lacks active products:\n%s", out)
	}
	if strings.Contains(out, "Batidora") {
		t.Error("feed lists a product not in force")
	}
	if strings.Contains(out, "99999") {
		t.Error("feed leaks pricing")
	}
}

func TestCatalog_BackendDown(t *testing.T) {
	env := newTestEnv(t)
	env.backend.FailOn("Values", testsupport.ErrBackendDown)

	w := env.do(req{method: http.MethodGet, path: "/api/essen/products"})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if body := decode(t, w); body["success"] != false {
		t.Errorf("body = %v", body)
	}
}

func TestCatalog_ServesStaleAfterFailedRefresh(t *testing.T) {
	env := newTestEnv(t)
	if w := env.do(req{method: http.MethodGet, path: "/api/essen/products"}); w.Code != http.StatusOK {
		t.Fatalf("warm: %d", w.Code)
	}

	env.backend.FailOn("Values", testsupport.ErrBackendDown)
	env.clock.Advance(6 * time.Minute)

	w := env.do(req{method: http.MethodGet, path: "/api/essen/products"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want stale 200", w.Code)
	}
	if updated := decode(t, w)["meta"].(map[string]any)["cache_updated"]; updated != "2026-03-04T15:06:07Z" {
		t.Errorf("cache_updated = %v", updated)
	}
}
