package config

import (
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/1broseidon/regionsel/internal/render"
)

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if cfg.Render.FPS != 60 || cfg.Overlay.Alpha != 128 {
		t.Fatalf("unexpected defaults: fps=%d alpha=%d", cfg.Render.FPS, cfg.Overlay.Alpha)
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	res, err := LoadFromPath(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Hotkey != DefaultHotkey {
		t.Fatalf("expected default hotkey, got %q", res.Config.Hotkey)
	}
	if len(res.Files) != 0 {
		t.Fatalf("expected no files, got %v", res.Files)
	}
}

func TestLoadFromPath_EmptyFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "# empty\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Render.Backend != "auto" {
		t.Fatalf("expected backend auto, got %q", res.Config.Render.Backend)
	}
}

func TestLoadFromPath_SectionsMergeOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, strings.Join([]string{
		"overlay:",
		"  alpha: 200",
		"border:",
		"  color: \"#ff0000\"",
		"render:",
		"  backend: cpu",
		"display: \":1\"",
		"",
	}, "\n"))

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := res.Config
	if cfg.Overlay.Alpha != 200 || cfg.Overlay.Color != "#000000" {
		t.Fatalf("overlay = %+v", cfg.Overlay)
	}
	if cfg.Border.Width != 2 || cfg.Border.Color != "#ff0000" {
		t.Fatalf("border = %+v", cfg.Border)
	}
	if cfg.Display != ":1" {
		t.Fatalf("display = %q", cfg.Display)
	}

	sel := cfg.SelectorConfig()
	if sel.Backend != render.PreferCPU {
		t.Fatalf("selector backend = %q", sel.Backend)
	}
	if sel.Tint != (color.RGBA{A: 200}) {
		t.Fatalf("tint = %+v", sel.Tint)
	}
	if sel.BorderColor != (color.RGBA{R: 255, A: 255}) {
		t.Fatalf("border color = %+v", sel.BorderColor)
	}
	if sel.Throttle.IdleRefill != 250*time.Millisecond {
		t.Fatalf("idle refill = %v", sel.Throttle.IdleRefill)
	}
}

func TestLoadFromPath_StrictUnknownKeyErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "render:\n  vsync: true\n")

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected error for unknown key")
	}
	if !strings.Contains(err.Error(), "vsync") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
}

func TestLoadFromPath_IncludeDirectoryOrderAndMainOverrides(t *testing.T) {
	dir := t.TempDir()

	// config.d loaded first, in sorted order.
	configD := filepath.Join(dir, "config.d")
	if err := os.MkdirAll(configD, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeFile(t, filepath.Join(configD, "10-base.yaml"), "render:\n  fps: 30\nborder:\n  width: 4\n")
	writeFile(t, filepath.Join(configD, "20-override.yaml"), "render:\n  fps: 90\n")

	// Main file overrides includes.
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, strings.Join([]string{
		"include:",
		"  - config.d",
		"render:",
		"  fps: 120",
		"",
	}, "\n"))

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Render.FPS != 120 {
		t.Fatalf("expected fps 120, got %d", res.Config.Render.FPS)
	}
	if res.Config.Border.Width != 4 {
		t.Fatalf("expected border width from include, got %d", res.Config.Border.Width)
	}
	if len(res.Files) != 3 {
		t.Fatalf("expected 3 files, got %v", res.Files)
	}
}

func TestLoadFromPath_IncludeMissingPathHasContext(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "include:\n  - missing.yaml\n")

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "include") || !strings.Contains(err.Error(), "missing.yaml") {
		t.Fatalf("expected include error, got %v", err)
	}
}

func TestLoadFromPath_IncludeCycleDetection(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.yaml")
	b := filepath.Join(dir, "b.yaml")
	writeFile(t, a, "include: b.yaml\n")
	writeFile(t, b, "include: a.yaml\n")

	_, err := LoadFromPath(a)
	if err == nil {
		t.Fatalf("expected cycle error")
	}
	if !strings.Contains(err.Error(), "include cycle") {
		t.Fatalf("expected cycle error, got %v", err)
	}
}

func TestLoadFromPath_ValidationErrorHasSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "overlay:\n  alpha: 300\n")

	_, err := LoadFromPath(path)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Path != "overlay.alpha" {
		t.Fatalf("path = %q", verr.Path)
	}
	if verr.Source.Kind != SourceFile || verr.Source.Line != 2 {
		t.Fatalf("source = %+v", verr.Source)
	}
	if !strings.Contains(err.Error(), ":2:") {
		t.Fatalf("expected file:line prefix, got %v", err)
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{name: "bad overlay color", mutate: func(c *Config) { c.Overlay.Color = "black" }, path: "overlay.color"},
		{name: "negative border", mutate: func(c *Config) { c.Border.Width = -1 }, path: "border.width"},
		{name: "unknown backend", mutate: func(c *Config) { c.Render.Backend = "vulkan" }, path: "render.backend"},
		{name: "zero fps", mutate: func(c *Config) { c.Render.FPS = 0 }, path: "render.fps"},
		{name: "negative budget", mutate: func(c *Config) { c.Throttle.Budget = -2 }, path: "throttle.budget"},
		{name: "empty hotkey", mutate: func(c *Config) { c.Hotkey = " " }, path: "hotkey"},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "loud" }, path: "log_level"},
		{name: "journal files", mutate: func(c *Config) { c.Journal.MaxFiles = 0 }, path: "journal.max_files"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Path != tt.path {
				t.Fatalf("Validate() = %v, want error at %s", err, tt.path)
			}
		})
	}
}

func TestParseColor(t *testing.T) {
	got, err := ParseColor("#1a2B3c")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got != (color.RGBA{R: 0x1a, G: 0x2b, B: 0x3c, A: 255}) {
		t.Fatalf("color = %+v", got)
	}
	if _, err := ParseColor("ffffff"); err != nil {
		t.Fatalf("expected bare hex to parse, got %v", err)
	}
	for _, bad := range []string{"", "#fff", "#gggggg", "#12345678"} {
		if _, err := ParseColor(bad); err == nil {
			t.Errorf("ParseColor(%q) succeeded", bad)
		}
	}
}

func TestLoadFromPath_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "render:\n  fps: 30\n  backend: gpu\n")
	writeFile(t, filepath.Join(dir, EnvFileName), "REGIONSEL_FPS=75\nREGIONSEL_LOG_LEVEL=debug\nOTHER=1\n")
	t.Setenv("REGIONSEL_LOG_LEVEL", "warn")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Render.FPS != 75 {
		t.Fatalf("expected fps from env file, got %d", res.Config.Render.FPS)
	}
	if res.Config.LogLevel != "warn" {
		t.Fatalf("expected process env to win, got %q", res.Config.LogLevel)
	}
	if res.Config.Render.Backend != "gpu" {
		t.Fatalf("expected file backend, got %q", res.Config.Render.Backend)
	}

	_, src, err := Explain(res, "render.fps")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if src.Kind != SourceEnv || src.Name != "REGIONSEL_FPS" {
		t.Fatalf("source = %+v", src)
	}
}

func TestLoadFromPath_EnvBadValue(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("REGIONSEL_FPS", "fast")

	_, err := LoadFromPath(filepath.Join(dir, "config.yaml"))
	if err == nil || !strings.Contains(err.Error(), "REGIONSEL_FPS") {
		t.Fatalf("expected env error, got %v", err)
	}
}

func TestLoadFromPath_EnvErrorKeepsEnvSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "render:\n  fps: 30\n")
	t.Setenv("REGIONSEL_FPS", "fast")

	_, err := LoadFromPath(path)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Source.Kind != SourceEnv || verr.Source.Name != "REGIONSEL_FPS" {
		t.Fatalf("source = %+v, want env REGIONSEL_FPS", verr.Source)
	}
}

func TestLoadFromPath_SourcesTrackFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "base.yaml")
	writeFile(t, base, "border:\n  width: 5\nrender:\n  fps: 30\n")
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "include: base.yaml\nborder:\n  width: 2\n")
	t.Setenv("REGIONSEL_FPS", "45")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	tests := []struct {
		key  string
		kind SourceKind
		file string
		name string
	}{
		{key: "border.width", kind: SourceFile, file: "config.yaml"},
		{key: "render", kind: SourceFile, file: "base.yaml"},
		{key: "render.fps", kind: SourceEnv, name: "REGIONSEL_FPS"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			src, ok := res.Sources[tt.key]
			if !ok {
				t.Fatalf("no source for %s", tt.key)
			}
			if src.Kind != tt.kind || src.Name != tt.name || (tt.file != "" && filepath.Base(src.File) != tt.file) {
				t.Fatalf("source = %+v", src)
			}
		})
	}
	if res.Config.Border.Width != 2 || res.Config.Render.FPS != 45 {
		t.Fatalf("border.width = %d, render.fps = %d", res.Config.Border.Width, res.Config.Render.FPS)
	}
}

func TestLoadFromPath_SharedIncludeLoadedOnce(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "common.yaml"), "border:\n  width: 6\n")
	writeFile(t, filepath.Join(dir, "a.yaml"), "include: common.yaml\n")
	writeFile(t, filepath.Join(dir, "b.yaml"), "include: common.yaml\nrender:\n  fps: 50\n")
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "include:\n  - a.yaml\n  - b.yaml\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	var names []string
	for _, f := range res.Files {
		names = append(names, filepath.Base(f))
	}
	want := "common.yaml a.yaml b.yaml config.yaml"
	if got := strings.Join(names, " "); got != want {
		t.Fatalf("files = %q, want %q", got, want)
	}
	if res.Config.Border.Width != 6 || res.Config.Render.FPS != 50 {
		t.Fatalf("border.width = %d, render.fps = %d", res.Config.Border.Width, res.Config.Render.FPS)
	}
}

func TestExplain(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "border:\n  width: 3\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	value, src, err := Explain(res, "border.width")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if value != 3 || src.Kind != SourceFile || src.Line != 2 {
		t.Fatalf("border.width = %v from %+v", value, src)
	}

	value, src, err = Explain(res, "render.fps")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if value != 60 || src.Kind != SourceDefault {
		t.Fatalf("render.fps = %v from %+v", value, src)
	}

	if _, _, err := Explain(res, "render"); err != nil {
		t.Fatalf("explain section: %v", err)
	}
	for _, bad := range []string{"", "nope", "render.vsync", "hotkey.extra", "a.b.c"} {
		if _, _, err := Explain(res, bad); err == nil {
			t.Errorf("Explain(%q) succeeded", bad)
		}
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Border.Width = 5
	cfg.Overlay.Color = "#102030"
	cfg.OnSelect = "notify-send $REGIONSEL_GEOMETRY"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if res.Config.Border.Width != 5 || res.Config.Overlay.Color != "#102030" || res.Config.OnSelect != cfg.OnSelect {
		t.Fatalf("round trip lost values: %+v", res.Config)
	}
}

func TestSave_RejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Render.Backend = "vulkan"
	if err := cfg.Save(path); err == nil {
		t.Fatal("expected validation error")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("invalid config was written: %v", err)
	}
}
