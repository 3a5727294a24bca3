package manage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/labwatch/labwatch/internal/settings"
	"github.com/labwatch/labwatch/internal/state"
	"github.com/labwatch/labwatch/internal/view"
)

func newTestManager(t *testing.T) (*Manager, *state.Store, *view.Hub, string) {
	t.Helper()

	store := state.NewStore(settings.Default())
	hub := view.NewHub()
	path := filepath.Join(t.TempDir(), "settings.json")
	return NewManager(store, path, hub, nil), store, hub, path
}

func TestManager_AddService(t *testing.T) {
	m, _, _, path := newTestManager(t)

	list := m.AddService("X", "1.2.3.4", "9999")
	if len(list) != 3 {
		t.Fatalf("AddService() returned %d services, want 3", len(list))
	}
	if list[2] != (state.Service{Name: "X", Host: "1.2.3.4", Port: "9999"}) {
		t.Errorf("AddService() appended %+v", list[2])
	}

	// mutation is durable before the call returns
	cfg, err := settings.Load(path)
	if err != nil {
		t.Fatalf("Load() after AddService error = %v", err)
	}
	if len(cfg.Services) != 3 {
		t.Errorf("persisted services = %d, want 3", len(cfg.Services))
	}
}

func TestManager_UpdateService(t *testing.T) {
	m, _, _, _ := newTestManager(t)

	list, err := m.UpdateService(0, "Cloudflare DNS", "1.1.1.1", "53")
	if err != nil {
		t.Fatalf("UpdateService(0) error = %v", err)
	}
	if list[0].Host != "1.1.1.1" {
		t.Errorf("UpdateService(0) host = %q, want 1.1.1.1", list[0].Host)
	}
}

func TestManager_UpdateServiceOutOfRange(t *testing.T) {
	m, _, _, path := newTestManager(t)

	if _, err := m.UpdateService(5, "nope", "0.0.0.0", "1"); !errors.Is(err, state.ErrIndexOutOfRange) {
		t.Errorf("UpdateService(5) error = %v, want ErrIndexOutOfRange", err)
	}

	// failed mutations never touch the settings file
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("settings file was written by a failed mutation")
	}
}

func TestManager_RemoveService(t *testing.T) {
	m, _, _, _ := newTestManager(t)

	m.AddService("X", "1.2.3.4", "9999")

	// two removals at index 0 plus one more drain the list; the fourth fails
	for i := 0; i < 3; i++ {
		if _, err := m.RemoveService(0); err != nil {
			t.Fatalf("RemoveService(0) #%d error = %v", i+1, err)
		}
	}
	if got := m.ListServices(); len(got) != 0 {
		t.Fatalf("ListServices() = %d entries, want 0", len(got))
	}
	if _, err := m.RemoveService(0); !errors.Is(err, state.ErrIndexOutOfRange) {
		t.Errorf("RemoveService(0) on empty list error = %v, want ErrIndexOutOfRange", err)
	}
}

func TestManager_SetInterval(t *testing.T) {
	m, _, _, path := newTestManager(t)

	m.SetInterval(0)
	if got := m.Interval(); got != 0 {
		t.Errorf("Interval() = %d, want 0 (zero disables throttling, not rejected)", got)
	}

	cfg, err := settings.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.IntervalSecs != 0 {
		t.Errorf("persisted interval = %d, want 0", cfg.IntervalSecs)
	}
}

func TestManager_SetIconSetNotifiesImmediately(t *testing.T) {
	m, store, hub, _ := newTestManager(t)

	// simulate a completed probe cycle that observed a failure
	store.SetHealthy(false)
	hub.Notify(view.Refresh{
		Healthy: false,
		IconSet: state.IconSetDefault,
		Services: []view.ServiceStatus{
			{Name: "Google DNS", Healthy: false},
		},
	})

	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	if got := m.SetIconSet("alt"); got != state.IconSetAlt {
		t.Fatalf("SetIconSet(alt) = %q, want %q", got, state.IconSetAlt)
	}

	select {
	case ref := <-ch:
		if ref.IconSet != state.IconSetAlt {
			t.Errorf("refresh IconSet = %q, want %q", ref.IconSet, state.IconSetAlt)
		}
		// the cached aggregate is reused; no new probe happens
		if ref.Healthy {
			t.Error("refresh Healthy = true, want cached value false")
		}
		if len(ref.Services) != 1 {
			t.Errorf("refresh carried %d services, want the cached verdicts (1)", len(ref.Services))
		}
	default:
		t.Fatal("SetIconSet() did not push an immediate refresh")
	}
}

func TestManager_SetIconSetNormalizesUnknown(t *testing.T) {
	m, _, _, _ := newTestManager(t)

	if got := m.SetIconSet("sparkles"); got != state.IconSetDefault {
		t.Errorf("SetIconSet(unknown) = %q, want %q", got, state.IconSetDefault)
	}
	if got := m.IconSet(); got != state.IconSetDefault {
		t.Errorf("IconSet() = %q, want %q", got, state.IconSetDefault)
	}
}

func TestManager_PersistenceFailureDoesNotFailMutation(t *testing.T) {
	store := state.NewStore(settings.Default())
	hub := view.NewHub()

	// a directory path makes every save fail
	dir := t.TempDir()
	m := NewManager(store, dir, hub, nil)

	list := m.AddService("X", "1.2.3.4", "9999")
	if len(list) != 3 {
		t.Fatalf("AddService() returned %d services, want 3 despite save failure", len(list))
	}

	// in-memory state stays authoritative
	if got := m.ListServices(); len(got) != 3 {
		t.Errorf("ListServices() = %d, want 3 after failed persistence", len(got))
	}
}
