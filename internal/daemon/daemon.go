// Package daemon keeps a global hotkey registered and launches a selection
// each time it fires.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"

	"github.com/1broseidon/regionsel/internal/config"
	"github.com/1broseidon/regionsel/internal/ipc"
	"github.com/1broseidon/regionsel/internal/platform"
	"github.com/1broseidon/regionsel/internal/runtimepath"
)

// Launcher runs one selection to completion and reports its outcome.
type Launcher func(ctx context.Context, cfg *config.Config, freeze bool) (outcome string, err error)

// Options wires the daemon to its collaborators.
type Options struct {
	Logger *slog.Logger
	// Launch runs a selection. Defaults to ExecLauncher for this executable.
	Launch Launcher
	// Load reloads the configuration. Defaults to config.Load.
	Load func() (*config.Config, error)
	// Displays lists the attached displays for status queries.
	Displays func() ([]platform.DisplayReport, error)
}

// Daemon serializes hotkey and IPC triggered selections.
type Daemon struct {
	logger   *slog.Logger
	launch   Launcher
	load     func() (*config.Config, error)
	displays func() ([]platform.DisplayReport, error)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	cfg         *config.Config
	busy        bool
	triggers    int
	lastOutcome string
}

// New creates a daemon with cfg as the active configuration.
func New(cfg *config.Config, opts Options) *Daemon {
	d := &Daemon{
		logger:   opts.Logger,
		launch:   opts.Launch,
		load:     opts.Load,
		displays: opts.Displays,
		cfg:      cfg,
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	if d.launch == nil {
		d.launch = ExecLauncher("")
	}
	if d.load == nil {
		d.load = config.Load
	}
	d.ctx, d.cancel = context.WithCancel(context.Background())
	return d
}

// Config returns the active configuration.
func (d *Daemon) Config() *config.Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg
}

// Trigger starts a selection in the background. It returns
// runtimepath.ErrBusy while a selection started by this daemon runs.
func (d *Daemon) Trigger(freeze bool) error {
	d.mu.Lock()
	if d.ctx.Err() != nil {
		d.mu.Unlock()
		return errors.New("daemon is shutting down")
	}
	if d.busy {
		d.mu.Unlock()
		d.logger.Info("selection already running, ignoring trigger")
		return runtimepath.ErrBusy
	}
	d.busy = true
	d.triggers++
	cfg := d.cfg
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()

		d.logger.Info("selection triggered", "freeze", freeze)
		outcome, err := d.launch(d.ctx, cfg, freeze)
		if err != nil {
			d.logger.Warn("selection failed", "error", err)
			outcome = "error"
		} else {
			d.logger.Info("selection finished", "outcome", outcome)
		}

		d.mu.Lock()
		d.busy = false
		d.lastOutcome = outcome
		d.mu.Unlock()
	}()
	return nil
}

// Reload replaces the configuration with a fresh load. A changed hotkey
// only takes effect after a restart.
func (d *Daemon) Reload() error {
	cfg, err := d.load()
	if err != nil {
		return err
	}

	d.mu.Lock()
	old := d.cfg
	d.cfg = cfg
	d.mu.Unlock()

	if old != nil && old.Hotkey != cfg.Hotkey {
		d.logger.Warn("hotkey changed; restart the daemon to rebind", "old", old.Hotkey, "new", cfg.Hotkey)
	}
	d.logger.Info("config reloaded")
	return nil
}

// Status reports the daemon state.
func (d *Daemon) Status() ipc.StatusData {
	d.mu.Lock()
	defer d.mu.Unlock()
	return ipc.StatusData{
		Hotkey:      d.cfg.Hotkey,
		Busy:        d.busy,
		Triggers:    d.triggers,
		LastOutcome: d.lastOutcome,
	}
}

// Displays lists the attached displays.
func (d *Daemon) Displays() ([]ipc.DisplayInfo, error) {
	if d.displays == nil {
		return nil, platform.ErrUnsupported
	}
	reports, err := d.displays()
	if err != nil {
		return nil, err
	}
	out := make([]ipc.DisplayInfo, 0, len(reports))
	for _, r := range reports {
		out = append(out, ipc.DisplayInfo{
			ID:       r.Display.ID,
			Name:     r.Display.Name,
			Primary:  r.Display.Primary,
			X:        r.Display.X,
			Y:        r.Display.Y,
			Width:    r.Display.Width,
			Height:   r.Display.Height,
			Scale:    r.Display.Scale,
			DPIScale: r.DPIScale,
		})
	}
	return out, nil
}

// Shutdown cancels a running selection and waits for it to exit.
func (d *Daemon) Shutdown() {
	d.mu.Lock()
	d.cancel()
	d.mu.Unlock()
	d.wg.Wait()
}

// ExecLauncher runs "<exe> select --exec <on_select>" as a child process.
// An empty exe means the running executable. Exit status 1 is a
// cancellation.
func ExecLauncher(exe string) Launcher {
	return func(ctx context.Context, cfg *config.Config, freeze bool) (string, error) {
		path := exe
		if path == "" {
			var err error
			if path, err = os.Executable(); err != nil {
				return "", fmt.Errorf("failed to find executable: %w", err)
			}
		}

		cmd := exec.CommandContext(ctx, path, SelectArgs(cfg, freeze)...)
		cmd.Stdout = os.Stderr
		cmd.Stderr = os.Stderr
		err := cmd.Run()

		var exitErr *exec.ExitError
		switch {
		case err == nil:
			return "confirmed", nil
		case errors.As(err, &exitErr) && exitErr.ExitCode() == 1:
			return "cancelled", nil
		default:
			return "", err
		}
	}
}

// SelectArgs builds the select command line for a daemon-launched session.
func SelectArgs(cfg *config.Config, freeze bool) []string {
	args := []string{"select", "--format", "text"}
	if freeze {
		args = append(args, "--capture")
	}
	if cfg != nil && cfg.OnSelect != "" {
		args = append(args, "--exec", cfg.OnSelect)
	}
	return args
}
