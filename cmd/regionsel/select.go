package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/1broseidon/regionsel/internal/capture"
	"github.com/1broseidon/regionsel/internal/clipboard"
	"github.com/1broseidon/regionsel/internal/config"
	"github.com/1broseidon/regionsel/internal/render"
	"github.com/1broseidon/regionsel/internal/runtimepath"
	"github.com/1broseidon/regionsel/internal/selection"
	"github.com/1broseidon/regionsel/internal/selector"
)

type selectOptions struct {
	path        string
	format      string
	capture     bool
	output      string
	imageFormat string
	quality     int
	resize      float64
	copy        bool
	copyHold    time.Duration
	exec        string
	backend     string
	menu        bool
	menuBackend string
}

// selectResult is the JSON form of a confirmed selection.
type selectResult struct {
	selection.Region
	Geometry string `json:"geometry"`
	Image    string `json:"image,omitempty"`
}

func printSelectUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: regionsel select [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Drag with the left button to select a region. Releasing the button keeps")
	fmt.Fprintln(w, "the selection on screen; Enter confirms it and Escape cancels.")
	fmt.Fprintln(w, "Hold Shift for a square, Alt to grow from the center.")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Exit status is 0 on a confirmed selection, 1 on cancel or failure,")
	fmt.Fprintln(w, "2 on usage errors.")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Options:")
}

func runSelect(args []string) int {
	var opts selectOptions
	fs := flag.NewFlagSet("select", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		printSelectUsage(os.Stderr)
		fs.PrintDefaults()
	}
	fs.StringVar(&opts.path, "path", "", "Config file path (default: ~/.config/regionsel/config.yaml)")
	fs.StringVar(&opts.format, "format", "", "Output format: text or json (default: text on a terminal, json otherwise)")
	fs.BoolVar(&opts.capture, "capture", false, "Freeze the screen first and capture the selected pixels")
	fs.StringVar(&opts.output, "output", "", "Write the captured image to this file ('-' for stdout); implies --capture")
	fs.StringVar(&opts.imageFormat, "image-format", "", "Image format: png, jpeg, bmp, tiff (default: from --output extension, else png)")
	fs.IntVar(&opts.quality, "quality", 0, "JPEG quality 1-100")
	fs.Float64Var(&opts.resize, "resize", 0, "Scale the captured image by this factor")
	fs.BoolVar(&opts.copy, "copy", false, "Copy the image (with --capture) or the geometry to the clipboard")
	fs.DurationVar(&opts.copyHold, "copy-hold", 10*time.Second, "How long to keep serving the clipboard when no other client takes it")
	fs.StringVar(&opts.exec, "exec", "", "Run this shell command with the region in REGIONSEL_* variables")
	fs.StringVar(&opts.backend, "backend", "", "Render backend: auto, gpu or cpu (overrides config)")
	fs.BoolVar(&opts.menu, "menu", false, "Pick what to do with the region from a launcher menu")
	fs.StringVar(&opts.menuBackend, "menu-backend", "auto", "Menu launcher: auto, rofi, fuzzel, wofi or dmenu")

	if isHelp(args) {
		printSelectUsage(os.Stdout)
		fs.SetOutput(os.Stdout)
		fs.PrintDefaults()
		return 0
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "select takes no arguments, got %q\n", fs.Args())
		return 2
	}
	if opts.format == "" {
		opts.format = defaultFormat(os.Stdout)
	}
	if opts.format != "text" && opts.format != "json" {
		fmt.Fprintf(os.Stderr, "unknown --format %q (want text or json)\n", opts.format)
		return 2
	}
	if opts.output != "" {
		opts.capture = true
	}

	res, err := loadConfig(opts.path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	cfg := res.Config

	code, err := doSelect(cfg, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "regionsel: %v\n", err)
	}
	return code
}

// defaultFormat picks text for an interactive terminal and json for pipes.
func defaultFormat(f *os.File) string {
	if term.IsTerminal(int(f.Fd())) {
		return "text"
	}
	return "json"
}

func doSelect(cfg *config.Config, opts selectOptions) (int, error) {
	logger := newLogger(cfg.LogLevel)

	selCfg := cfg.SelectorConfig()
	if opts.backend != "" {
		pref, err := render.ParsePreference(opts.backend)
		if err != nil {
			return 2, err
		}
		selCfg.Backend = pref
	}

	imgFormat := capture.FormatForPath(opts.output, capture.FormatPNG)
	if opts.imageFormat != "" {
		f, err := capture.ParseFormat(opts.imageFormat)
		if err != nil {
			return 2, err
		}
		imgFormat = f
	}

	backend, err := newBackend(cfg)
	if err != nil {
		return 1, err
	}

	release, err := acquireSessionLock()
	if err != nil {
		return 1, err
	}
	defer release()

	j := openJournal(cfg)
	defer j.Close()

	sel := selector.New(backend,
		selector.WithConfig(selCfg),
		selector.WithLogger(logger),
		selector.WithMetrics(selector.Tee(selector.SlogMetrics{Logger: logger}, j)),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shot, err := capture.Interactive(ctx, sel, capture.Virtual, opts.capture)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return 1, errors.New("interrupted")
		}
		return 1, err
	}
	if shot == nil {
		fmt.Fprintln(os.Stderr, "selection cancelled")
		return 1, nil
	}
	j.Region(shot.Region)

	out := selectResult{Region: shot.Region, Geometry: shot.Region.String()}

	var encoded []byte
	if shot.Image != nil {
		img := capture.Resize(shot.Image, opts.resize)
		var buf bytes.Buffer
		if err := capture.Encode(&buf, img, imgFormat, opts.quality); err != nil {
			return 1, err
		}
		encoded = buf.Bytes()

		switch {
		case opts.output == "-":
			if _, err := os.Stdout.Write(encoded); err != nil {
				return 1, err
			}
		case opts.output != "":
			if err := os.WriteFile(opts.output, encoded, 0644); err != nil {
				return 1, fmt.Errorf("write image: %w", err)
			}
			out.Image = opts.output
		case opts.exec != "":
			path, err := writeTempImage(encoded, imgFormat)
			if err != nil {
				return 1, err
			}
			out.Image = path
		}
	}

	if opts.output != "-" {
		if err := printResult(os.Stdout, out, opts.format); err != nil {
			return 1, err
		}
	}

	if opts.menu {
		return runMenu(ctx, opts, out, encoded, imgFormat)
	}

	if opts.copy {
		var err error
		if encoded != nil && imgFormat == capture.FormatPNG {
			err = clipboard.CopyPNG(ctx, encoded, opts.copyHold)
		} else {
			err = clipboard.CopyText(ctx, out.Geometry, opts.copyHold)
		}
		if err != nil {
			slog.Warn("clipboard copy failed", "error", err)
		}
	}

	if opts.exec != "" {
		if err := runOnSelect(ctx, opts.exec, out); err != nil {
			return 1, err
		}
	}
	return 0, nil
}

// acquireSessionLock takes the per-user selection lock.
func acquireSessionLock() (func(), error) {
	path, err := runtimepath.LockPath()
	if err != nil {
		return nil, err
	}
	lock, err := runtimepath.AcquireLock(path)
	if err != nil {
		return nil, err
	}
	return func() { lock.Release() }, nil
}

func printResult(w io.Writer, out selectResult, format string) error {
	if format == "json" {
		return json.NewEncoder(w).Encode(out)
	}
	if out.Image != "" {
		_, err := fmt.Fprintf(w, "%s %s\n", out.Geometry, out.Image)
		return err
	}
	_, err := fmt.Fprintln(w, out.Geometry)
	return err
}

func writeTempImage(data []byte, f capture.Format) (string, error) {
	tmp, err := os.CreateTemp("", "regionsel-*."+string(f))
	if err != nil {
		return "", fmt.Errorf("create temp image: %w", err)
	}
	defer tmp.Close()
	if _, err := tmp.Write(data); err != nil {
		return "", fmt.Errorf("write temp image: %w", err)
	}
	return tmp.Name(), nil
}

// regionEnv returns the REGIONSEL_* variables describing out.
func regionEnv(out selectResult) []string {
	g := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	env := []string{
		"REGIONSEL_X=" + g(out.X),
		"REGIONSEL_Y=" + g(out.Y),
		"REGIONSEL_WIDTH=" + g(out.Width),
		"REGIONSEL_HEIGHT=" + g(out.Height),
		"REGIONSEL_SCALE=" + g(out.Scale),
		"REGIONSEL_GEOMETRY=" + out.Geometry,
	}
	if out.Image != "" {
		env = append(env, "REGIONSEL_IMAGE="+out.Image)
	}
	return env
}

// runOnSelect runs command through sh with the region exported.
func runOnSelect(ctx context.Context, command string, out selectResult) error {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Env = append(os.Environ(), regionEnv(out)...)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("on-select command failed: %w", err)
	}
	return nil
}
