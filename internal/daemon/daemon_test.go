package daemon

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/1broseidon/regionsel/internal/config"
	"github.com/1broseidon/regionsel/internal/desktop"
	"github.com/1broseidon/regionsel/internal/platform"
	"github.com/1broseidon/regionsel/internal/runtimepath"
)

func waitIdle(t *testing.T, d *Daemon) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for d.Status().Busy {
		if time.Now().After(deadline) {
			t.Fatal("selection did not finish")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestTrigger_SerializesSelections(t *testing.T) {
	release := make(chan struct{})
	started := make(chan bool, 2)
	d := New(config.DefaultConfig(), Options{
		Launch: func(_ context.Context, _ *config.Config, freeze bool) (string, error) {
			started <- freeze
			<-release
			return "confirmed", nil
		},
	})

	if err := d.Trigger(true); err != nil {
		t.Fatalf("first trigger: %v", err)
	}
	if freeze := <-started; !freeze {
		t.Fatal("freeze flag not passed to launcher")
	}
	if err := d.Trigger(false); !errors.Is(err, runtimepath.ErrBusy) {
		t.Fatalf("second trigger err = %v, want ErrBusy", err)
	}

	close(release)
	waitIdle(t, d)

	st := d.Status()
	if st.Triggers != 1 || st.LastOutcome != "confirmed" || st.Hotkey != config.DefaultHotkey {
		t.Fatalf("status = %+v", st)
	}
	d.Shutdown()
}

func TestTrigger_RecordsErrorOutcome(t *testing.T) {
	d := New(config.DefaultConfig(), Options{
		Launch: func(context.Context, *config.Config, bool) (string, error) {
			return "", errors.New("exec failed")
		},
	})
	if err := d.Trigger(false); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	waitIdle(t, d)
	if got := d.Status().LastOutcome; got != "error" {
		t.Fatalf("outcome = %q", got)
	}
	d.Shutdown()
}

func TestShutdown_CancelsRunningSelection(t *testing.T) {
	d := New(config.DefaultConfig(), Options{
		Launch: func(ctx context.Context, _ *config.Config, _ bool) (string, error) {
			<-ctx.Done()
			return "cancelled", nil
		},
	})
	if err := d.Trigger(false); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	d.Shutdown()
	if err := d.Trigger(false); err == nil {
		t.Fatal("trigger after shutdown should fail")
	}
}

func TestReload(t *testing.T) {
	next := config.DefaultConfig()
	next.Hotkey = "Mod4-Print"
	next.OnSelect = "notify-send done"

	d := New(config.DefaultConfig(), Options{
		Load: func() (*config.Config, error) { return next, nil },
	})
	if err := d.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if d.Config() != next {
		t.Fatal("config not replaced")
	}

	bad := New(config.DefaultConfig(), Options{
		Load: func() (*config.Config, error) { return nil, errors.New("bad yaml") },
	})
	if err := bad.Reload(); err == nil {
		t.Fatal("expected reload error")
	}
	if bad.Config() == nil {
		t.Fatal("failed reload dropped the config")
	}
}

func TestDisplays(t *testing.T) {
	d := New(config.DefaultConfig(), Options{
		Displays: func() ([]platform.DisplayReport, error) {
			return []platform.DisplayReport{{
				Display:  desktop.DisplayInfo{ID: 7, Name: "HDMI-1", X: 1920, Width: 2560, Height: 1440, Scale: 1},
				DPIScale: 1.5,
			}}, nil
		},
	})
	got, err := d.Displays()
	if err != nil {
		t.Fatalf("displays: %v", err)
	}
	if len(got) != 1 || got[0].Name != "HDMI-1" || got[0].X != 1920 || got[0].DPIScale != 1.5 {
		t.Fatalf("displays = %+v", got)
	}

	if _, err := New(config.DefaultConfig(), Options{}).Displays(); !errors.Is(err, platform.ErrUnsupported) {
		t.Fatalf("nil lister err = %v", err)
	}
}

func TestSelectArgs(t *testing.T) {
	cfg := config.DefaultConfig()
	if got, want := SelectArgs(cfg, false), []string{"select", "--format", "text"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("SelectArgs = %v, want %v", got, want)
	}
	cfg.OnSelect = "flameshot gui"
	want := []string{"select", "--format", "text", "--capture", "--exec", "flameshot gui"}
	if got := SelectArgs(cfg, true); !reflect.DeepEqual(got, want) {
		t.Fatalf("SelectArgs = %v, want %v", got, want)
	}
}
