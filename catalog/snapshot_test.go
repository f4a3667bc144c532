package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/goliatone/go-sheet-catalog/sheetrepo"
)

type recordingSource struct {
	mu      sync.Mutex
	calls   int
	ranges  []string
	records []sheetrepo.Record
	err     error
	gate    chan struct{}
}

func (s *recordingSource) FetchTable(_ context.Context, tableOrRange string) ([]sheetrepo.Record, error) {
	s.mu.Lock()
	s.calls++
	s.ranges = append(s.ranges, tableOrRange)
	gate, records, err := s.gate, s.records, s.err
	s.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return records, err
}

func (s *recordingSource) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *recordingSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func sampleRecords() []sheetrepo.Record {
	return []sheetrepo.Record{
		{"combo": "10", "familia": "Cocina", "descripcion": "Olla", "precio_negocio": "900"},
		{"combo": "20", "familia": "Electro", "descripcion": "Batidora", "precio_negocio": "1500"},
	}
}

func newTestCache(t *testing.T, src Source, clock clockwork.Clock, mutate func(*Config)) *SnapshotCache {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	c, err := NewSnapshotCache(src, cfg, WithClock(clock))
	if err != nil {
		t.Fatalf("NewSnapshotCache error: %v", err)
	}
	return c
}

func TestSnapshotCache_TTLBoundary(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC))
	src := &recordingSource{records: sampleRecords()}
	cache := newTestCache(t, src, clock, nil)
	ctx := context.Background()

	first, err := cache.Get(ctx)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if src.callCount() != 1 {
		t.Fatalf("expected initial fetch, got %d calls", src.callCount())
	}
	if src.ranges[0] != "productos" {
		t.Errorf("fetched %q, want productos", src.ranges[0])
	}

	clock.Advance(4*time.Minute + 59*time.Second)
	second, err := cache.Get(ctx)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if src.callCount() != 1 {
		t.Errorf("read at 4:59 should be a hit, got %d fetches", src.callCount())
	}
	if second != first {
		t.Errorf("hit should return the same snapshot")
	}

	clock.Advance(2 * time.Second)
	third, err := cache.Get(ctx)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if src.callCount() != 2 {
		t.Errorf("read at 5:01 should refresh exactly once, got %d fetches", src.callCount())
	}
	if !third.RefreshedAt.Equal(clock.Now()) {
		t.Errorf("refreshed_at = %v, want %v", third.RefreshedAt, clock.Now())
	}

	if _, err := cache.Get(ctx); err != nil || src.callCount() != 2 {
		t.Errorf("fresh snapshot should be served, calls=%d err=%v", src.callCount(), err)
	}
}

func TestSnapshotCache_SingleFlight(t *testing.T) {
	clock := clockwork.NewFakeClock()
	src := &recordingSource{records: sampleRecords(), gate: make(chan struct{})}
	cache := newTestCache(t, src, clock, nil)

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snap, err := cache.Get(context.Background())
			if err == nil && snap.Len() != 2 {
				err = errors.New("unexpected snapshot size")
			}
			errs <- err
		}()
	}

	for src.callCount() == 0 {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(10 * time.Millisecond)
	close(src.gate)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("Get error: %v", err)
		}
	}
	if n := src.callCount(); n != 1 {
		t.Errorf("expected one shared refresh, got %d", n)
	}
}

func TestSnapshotCache_StaleOnError(t *testing.T) {
	clock := clockwork.NewFakeClock()
	src := &recordingSource{records: sampleRecords()}
	reg := prometheus.NewRegistry()
	cfg := DefaultConfig()
	metrics := NewMetrics(reg)
	cache, err := NewSnapshotCache(src, cfg, WithClock(clock), WithMetrics(metrics))
	if err != nil {
		t.Fatalf("NewSnapshotCache error: %v", err)
	}
	ctx := context.Background()

	first, err := cache.Get(ctx)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}

	src.setErr(sheetrepo.ErrBackendUnavailable)
	clock.Advance(6 * time.Minute)

	stale, err := cache.Get(ctx)
	if err != nil {
		t.Fatalf("stale snapshot expected, got error %v", err)
	}
	if stale != first {
		t.Errorf("expected the previous snapshot")
	}
	if got := testutil.ToFloat64(metrics.staleServed); got != 1 {
		t.Errorf("stale_served = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.refreshErrors); got != 1 {
		t.Errorf("refresh_errors = %v, want 1", got)
	}

	src.setErr(nil)
	if _, err := cache.Get(ctx); err != nil {
		t.Fatalf("recovery Get error: %v", err)
	}
	if src.callCount() != 3 {
		t.Errorf("next read after a failure should retry, got %d fetches", src.callCount())
	}
}

func TestSnapshotCache_FailHard(t *testing.T) {
	clock := clockwork.NewFakeClock()
	src := &recordingSource{records: sampleRecords()}
	cache := newTestCache(t, src, clock, func(c *Config) { c.StaleOnError = false })
	ctx := context.Background()

	if _, err := cache.Get(ctx); err != nil {
		t.Fatalf("Get error: %v", err)
	}
	src.setErr(sheetrepo.ErrBackendUnavailable)
	clock.Advance(6 * time.Minute)

	if _, err := cache.Get(ctx); !errors.Is(err, sheetrepo.ErrBackendUnavailable) {
		t.Errorf("expected ErrBackendUnavailable, got %v", err)
	}
}

func TestSnapshotCache_NoPriorSnapshot(t *testing.T) {
	src := &recordingSource{err: sheetrepo.ErrBackendUnavailable}
	cache := newTestCache(t, src, clockwork.NewFakeClock(), nil)

	snap, err := cache.Get(context.Background())
	if !errors.Is(err, sheetrepo.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
	if snap != nil {
		t.Errorf("no snapshot should be returned on a cold failure")
	}
}

func TestSnapshotCache_Invalidate(t *testing.T) {
	clock := clockwork.NewFakeClock()
	src := &recordingSource{records: sampleRecords()}
	cache := newTestCache(t, src, clock, nil)
	ctx := context.Background()

	first, _ := cache.Get(ctx)
	cache.Invalidate()
	second, err := cache.Get(ctx)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if src.callCount() != 2 {
		t.Errorf("expected a refresh after Invalidate, got %d fetches", src.callCount())
	}
	if first.Version != second.Version {
		t.Errorf("same content should keep the same version: %s != %s", first.Version, second.Version)
	}
}

func TestSnapshotCache_VersionTracksContent(t *testing.T) {
	clock := clockwork.NewFakeClock()
	src := &recordingSource{records: sampleRecords()}
	cache := newTestCache(t, src, clock, nil)
	ctx := context.Background()

	first, _ := cache.Get(ctx)

	src.mu.Lock()
	src.records = append(sampleRecords(), sheetrepo.Record{"combo": "30", "descripcion": "Sarten"})
	src.mu.Unlock()
	clock.Advance(DefaultTTL + time.Second)

	second, err := cache.Get(ctx)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if second.Len() != 3 {
		t.Errorf("expected 3 products, got %d", second.Len())
	}
	if first.Version == second.Version {
		t.Errorf("version should change with content")
	}
}

func TestSnapshotCache_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TTL = 0
	if _, err := NewSnapshotCache(&recordingSource{}, cfg); err == nil {
		t.Errorf("expected config error")
	}
}
