package sessions_test

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-sheet-catalog/internal/sessions"
	"github.com/goliatone/go-sheet-catalog/pkg/testsupport"
	"github.com/goliatone/go-sheet-catalog/sheetrepo"
	"github.com/jonboulle/clockwork"
)

var header = []string{"username", "fecha", "deviceId", "status"}

func newStore(t *testing.T, rows ...[]string) (*sessions.Store, *testsupport.MemoryBackend) {
	t.Helper()
	backend := testsupport.NewMemoryBackendWith(map[string][][]string{
		sessions.Table: append([][]string{header}, rows...),
	})
	repo := sheetrepo.New(backend, sheetrepo.WithSchemas(sessions.Schema()))
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 4, 15, 6, 7, 0, time.UTC))
	return sessions.New(repo, sessions.WithClock(clock)), backend
}

func TestStart_DeviceLimit(t *testing.T) {
	ctx := context.Background()
	store, backend := newStore(t,
		[]string{"carol", "01/03/2026, 10:00:00", "d1", "active"},
		[]string{"carol", "01/03/2026, 11:00:00", "d2", "active"},
		[]string{"carol", "01/03/2026, 12:00:00", "d3", "active"},
		[]string{"dave", "01/03/2026, 12:00:00", "d9", "active"},
	)
	backend.ResetCalls()

	if _, err := store.Start(ctx, "carol", "d4"); !errors.Is(err, sessions.ErrDeviceLimit) {
		t.Fatalf("fourth device err = %v, want ErrDeviceLimit", err)
	}

	created, err := store.Start(ctx, "carol", "d2")
	if err != nil {
		t.Fatalf("repeat device err = %v", err)
	}
	if created {
		t.Error("repeat device should not create a row")
	}

	if n := backend.CallCount("Append"); n != 0 {
		t.Errorf("Append called %d times, want 0", n)
	}
	if got := len(backend.Table(sessions.Table)); got != 5 {
		t.Errorf("rows = %d, want 5", got)
	}
}

func TestStart_InactiveDevicesDoNotCount(t *testing.T) {
	ctx := context.Background()
	store, backend := newStore(t,
		[]string{"carol", "", "d1", "inactive"},
		[]string{"carol", "x", "d2", "active"},
		[]string{"carol", "x", "d3", "active"},
	)

	created, err := store.Start(ctx, "carol", "d4")
	if err != nil || !created {
		t.Fatalf("Start() = %v, %v", created, err)
	}
	rows := backend.Table(sessions.Table)
	want := []string{"carol", "04/03/2026, 15:06:07", "d4", "active"}
	if !reflect.DeepEqual(rows[len(rows)-1], want) {
		t.Errorf("appended row = %v, want %v", rows[len(rows)-1], want)
	}
}

func TestStart_ReactivatesInactiveRow(t *testing.T) {
	ctx := context.Background()
	store, backend := newStore(t,
		[]string{"erin", "x", "d1", "active"},
		[]string{"erin", "", "d2", "inactive"},
	)
	backend.ResetCalls()

	created, err := store.Start(ctx, "erin", "d2")
	if err != nil || !created {
		t.Fatalf("Start() = %v, %v", created, err)
	}
	if n := backend.CallCount("Append"); n != 0 {
		t.Errorf("Append called %d times, want 0", n)
	}
	row := backend.Table(sessions.Table)[2]
	want := []string{"erin", "04/03/2026, 15:06:07", "d2", "active"}
	if !reflect.DeepEqual(row, want) {
		t.Errorf("row 3 = %v, want %v", row, want)
	}
}

func TestStart_ConcurrentNewDevicesRespectLimit(t *testing.T) {
	ctx := context.Background()
	store, backend := newStore(t)

	var wg sync.WaitGroup
	for _, d := range []string{"a", "b", "c", "d", "e"} {
		wg.Add(1)
		go func(device string) {
			defer wg.Done()
			_, _ = store.Start(ctx, "frank", device)
		}(d)
	}
	wg.Wait()

	if n := backend.CallCount("Append"); n != sessions.MaxDevices {
		t.Errorf("Append called %d times, want %d", n, sessions.MaxDevices)
	}
}

func TestStart_MaxDevicesOption(t *testing.T) {
	ctx := context.Background()
	backend := testsupport.NewMemoryBackendWith(map[string][][]string{
		sessions.Table: {header, {"gus", "x", "d1", "active"}},
	})
	store := sessions.New(sheetrepo.New(backend), sessions.WithMaxDevices(1))

	if _, err := store.Start(ctx, "gus", "d2"); !errors.Is(err, sessions.ErrDeviceLimit) {
		t.Fatalf("err = %v, want ErrDeviceLimit", err)
	}
}

func TestValid(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t,
		[]string{"hank", "x", "d1", "active"},
		[]string{"hank", "", "d2", "inactive"},
	)

	tests := []struct {
		device string
		want   bool
	}{
		{"d1", true},
		{"d2", false},
		{"unknown", true},
	}
	for _, tt := range tests {
		got, err := store.Valid(ctx, "hank", tt.device)
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("Valid(%s) = %v, want %v", tt.device, got, tt.want)
		}
	}
}

func TestLogoutAndActive(t *testing.T) {
	ctx := context.Background()
	store, backend := newStore(t,
		[]string{"ivy", "x", "d1", "active"},
		[]string{"ivy", "y", "d2", "active"},
	)

	if err := store.Logout(ctx, "ivy", "d1"); err != nil {
		t.Fatal(err)
	}
	if got := backend.Table(sessions.Table)[1]; !reflect.DeepEqual(got, []string{"ivy", "", "d1", "inactive"}) {
		t.Errorf("row 2 = %v", got)
	}

	active, err := store.Active(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 1 || active[0].DeviceID != "d2" {
		t.Errorf("Active() = %+v", active)
	}

	if err := store.Logout(ctx, "ivy", "nope"); !errors.Is(err, sheetrepo.ErrRecordNotFound) {
		t.Errorf("err = %v, want ErrRecordNotFound", err)
	}
}

func TestBackendFailureSurfaces(t *testing.T) {
	store, backend := newStore(t)
	backend.FailOn("Values", testsupport.ErrBackendDown)

	if _, err := store.Start(context.Background(), "x", "d"); !errors.Is(err, sheetrepo.ErrBackendUnavailable) {
		t.Errorf("err = %v, want ErrBackendUnavailable", err)
	}
}
