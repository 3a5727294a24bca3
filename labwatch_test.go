package labwatch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// emptySettings writes a settings file with no services so App tests never
// touch the network.
func emptySettings(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.json")
	raw := `{"services":[],"interval_secs":0,"icon_set":"default"}`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestApp(t *testing.T, opts ...Option) *App {
	t.Helper()
	opts = append([]Option{
		WithSettingsPath(emptySettings(t)),
		WithLogger(discardLogger()),
		WithPort(0),
		WithTick(5 * time.Millisecond),
	}, opts...)

	app, err := New(opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return app
}

func TestNew_DefaultsWhenSettingsMissing(t *testing.T) {
	app, err := New(
		WithSettingsPath(filepath.Join(t.TempDir(), "nope.json")),
		WithLogger(discardLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// built-in defaults: two example services, 10s interval
	if got := app.ListServices(); len(got) != 2 {
		t.Errorf("ListServices() = %d entries, want 2 defaults", len(got))
	}
	if got := app.Interval(); got != 10 {
		t.Errorf("Interval() = %d, want 10", got)
	}
	if !app.Healthy() {
		t.Error("Healthy() = false on startup, want true")
	}
}

func TestApp_MutationSequence(t *testing.T) {
	app, err := New(
		WithSettingsPath(filepath.Join(t.TempDir(), "settings.json")),
		WithLogger(discardLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// starts with the 2 defaults; add one, then drain from the front
	list := app.AddService("X", "1.2.3.4", "9999")
	if len(list) != 3 {
		t.Fatalf("AddService() = %d entries, want 3", len(list))
	}

	for i := 0; i < 3; i++ {
		if _, err := app.RemoveService(0); err != nil {
			t.Fatalf("RemoveService(0) #%d error = %v", i+1, err)
		}
	}
	if _, err := app.RemoveService(0); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("RemoveService(0) on empty list error = %v, want ErrIndexOutOfRange", err)
	}
	if got := app.ListServices(); len(got) != 0 {
		t.Errorf("ListServices() = %d entries, want 0", len(got))
	}
}

func TestApp_UpdateService(t *testing.T) {
	app := newTestApp(t)
	app.AddService("Old", "10.0.0.1", "80")

	list, err := app.UpdateService(0, "New", "10.0.0.2", "443")
	if err != nil {
		t.Fatalf("UpdateService(0) error = %v", err)
	}
	if list[0] != (Service{Name: "New", Host: "10.0.0.2", Port: "443"}) {
		t.Errorf("UpdateService(0) = %+v", list[0])
	}

	if _, err := app.UpdateService(7, "X", "1.1.1.1", "1"); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("UpdateService(7) error = %v, want ErrIndexOutOfRange", err)
	}
}

func TestApp_StatusBeforeFirstCycle(t *testing.T) {
	app := newTestApp(t)

	status := app.Status()
	if !status.Healthy {
		t.Error("Status().Healthy = false before first cycle, want true")
	}
	if len(status.Services) != 0 {
		t.Errorf("Status().Services = %d entries, want 0", len(status.Services))
	}
}

func TestApp_StartRunsCyclesAndStopsOnCancel(t *testing.T) {
	var mu sync.Mutex
	var refreshes []Refresh

	app := newTestApp(t, WithRefreshCallback(func(r Refresh) {
		mu.Lock()
		refreshes = append(refreshes, r)
		mu.Unlock()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Start(ctx) }()

	// zero interval and a 5ms tick: refreshes should arrive quickly
	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		n := len(refreshes)
		mu.Unlock()
		if n >= 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("no refreshes were delivered to the callback")
		}
		time.Sleep(5 * time.Millisecond)
	}

	mu.Lock()
	first := refreshes[0]
	mu.Unlock()
	if !first.Healthy {
		t.Error("refresh Healthy = false for an empty service list, want true")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() error = %v, want nil on graceful shutdown", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after context cancellation")
	}
}

func TestApp_SetIconSetRefreshesImmediately(t *testing.T) {
	var mu sync.Mutex
	var refreshes []Refresh

	app := newTestApp(t, WithRefreshCallback(func(r Refresh) {
		mu.Lock()
		refreshes = append(refreshes, r)
		mu.Unlock()
	}))

	// huge interval: after the first cycle the loop goes quiet
	app.SetInterval(3600)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- app.Start(ctx) }()

	waitForRefreshes := func(n int, msg string) {
		t.Helper()
		deadline := time.Now().Add(2 * time.Second)
		for {
			mu.Lock()
			count := len(refreshes)
			mu.Unlock()
			if count >= n {
				return
			}
			if time.Now().After(deadline) {
				t.Fatal(msg)
			}
			time.Sleep(5 * time.Millisecond)
		}
	}

	waitForRefreshes(1, "first cycle never completed")

	if got := app.SetIconSet(IconSetAlt); got != IconSetAlt {
		t.Fatalf("SetIconSet(alt) = %q", got)
	}

	waitForRefreshes(2, "icon set change did not trigger an immediate refresh")

	mu.Lock()
	last := refreshes[len(refreshes)-1]
	mu.Unlock()
	if last.IconSet != IconSetAlt {
		t.Errorf("refresh IconSet = %q, want alt", last.IconSet)
	}

	cancel()
	<-done
}

func TestApp_CallbackPanicDoesNotCrash(t *testing.T) {
	var mu sync.Mutex
	calls := 0

	app := newTestApp(t,
		WithRefreshCallback(func(Refresh) { panic("boom") }),
		WithRefreshCallback(func(Refresh) {
			mu.Lock()
			calls++
			mu.Unlock()
		}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- app.Start(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		n := calls
		mu.Unlock()
		if n >= 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("the callback after the panicking one never ran")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	<-done
}
