package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/1broseidon/regionsel/internal/capture"
	"github.com/1broseidon/regionsel/internal/config"
	"github.com/1broseidon/regionsel/internal/palette"
	"github.com/1broseidon/regionsel/internal/selection"
)

func sampleResult() selectResult {
	r := selection.Region{X: -1920, Y: 0, Width: 640, Height: 480, Scale: 1}
	return selectResult{Region: r, Geometry: r.String()}
}

func TestRegionEnv(t *testing.T) {
	out := sampleResult()
	got := regionEnv(out)
	want := []string{
		"REGIONSEL_X=-1920",
		"REGIONSEL_Y=0",
		"REGIONSEL_WIDTH=640",
		"REGIONSEL_HEIGHT=480",
		"REGIONSEL_SCALE=1",
		"REGIONSEL_GEOMETRY=640x480-1920+0",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("regionEnv = %v, want %v", got, want)
	}

	out.Image = "/tmp/shot.png"
	got = regionEnv(out)
	if last := got[len(got)-1]; last != "REGIONSEL_IMAGE=/tmp/shot.png" {
		t.Fatalf("last env = %q", last)
	}
}

func TestPrintResult(t *testing.T) {
	tests := []struct {
		name   string
		image  string
		format string
		want   string
	}{
		{name: "text", format: "text", want: "640x480-1920+0\n"},
		{name: "text with image", image: "out.png", format: "text", want: "640x480-1920+0 out.png\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := sampleResult()
			out.Image = tt.image
			var buf bytes.Buffer
			if err := printResult(&buf, out, tt.format); err != nil {
				t.Fatal(err)
			}
			if buf.String() != tt.want {
				t.Fatalf("got %q, want %q", buf.String(), tt.want)
			}
		})
	}

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		if err := printResult(&buf, sampleResult(), "json"); err != nil {
			t.Fatal(err)
		}
		var got map[string]any
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid json %q: %v", buf.String(), err)
		}
		if got["x"] != float64(-1920) || got["width"] != float64(640) || got["geometry"] != "640x480-1920+0" {
			t.Fatalf("unexpected json: %v", got)
		}
		if _, ok := got["image"]; ok {
			t.Fatalf("image key should be omitted: %v", got)
		}
	})
}

func TestWriteTempImage(t *testing.T) {
	t.Setenv("TMPDIR", t.TempDir())
	path, err := writeTempImage([]byte("data"), capture.FormatPNG)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Ext(path) != ".png" {
		t.Fatalf("path %q lacks .png extension", path)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "data" {
		t.Fatalf("read back %q, %v", data, err)
	}
}

func TestFormatSource(t *testing.T) {
	tests := []struct {
		src  config.Source
		want string
	}{
		{config.Source{Kind: config.SourceDefault}, "default"},
		{config.Source{Kind: config.SourceEnv, Name: "REGIONSEL_HOTKEY"}, "env:REGIONSEL_HOTKEY"},
		{config.Source{Kind: config.SourceFile, File: "/c.yaml", Line: 3, Column: 5}, "file:/c.yaml:3:5"},
		{config.Source{Kind: config.SourceFile, File: "/c.yaml"}, "file:/c.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := formatSource(tt.src); got != tt.want {
				t.Fatalf("formatSource = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsHelp(t *testing.T) {
	for _, args := range [][]string{{"help"}, {"-h"}, {"--help", "x"}} {
		if !isHelp(args) {
			t.Fatalf("isHelp(%v) = false", args)
		}
	}
	for _, args := range [][]string{nil, {"select"}, {"--path", "-h"}} {
		if isHelp(args) {
			t.Fatalf("isHelp(%v) = true", args)
		}
	}
}

func TestUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		run  func([]string) int
		args []string
	}{
		{"select bad format", runSelect, []string{"--format", "xml"}},
		{"select extra args", runSelect, []string{"now"}},
		{"select unknown flag", runSelect, []string{"--nope"}},
		{"mcp no subcommand", runMCP, nil},
		{"mcp unknown subcommand", runMCP, []string{"start"}},
		{"status extra args", runStatus, []string{"x"}},
		{"trigger extra args", runTrigger, []string{"x"}},
		{"reload extra args", runReload, []string{"x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rc := tt.run(tt.args); rc != 2 {
				t.Fatalf("rc = %d, want 2", rc)
			}
		})
	}
}

func TestReloaderPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("hotkey: \"Mod4-Shift-s\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := reloader(path)()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !strings.EqualFold(cfg.Hotkey, "Mod4-Shift-s") {
		t.Fatalf("hotkey = %q", cfg.Hotkey)
	}
}

func TestMenuItems(t *testing.T) {
	actions := func(items []palette.Item) []string {
		var out []string
		for _, it := range items {
			out = append(out, it.Action)
		}
		return out
	}

	tests := []struct {
		name     string
		hasImage bool
		format   capture.Format
		command  string
		want     []string
	}{
		{"geometry only", false, capture.FormatPNG, "", []string{actionCopyGeometry}},
		{"png image", true, capture.FormatPNG, "", []string{actionCopyGeometry, actionCopyImage, actionSaveImage}},
		{"jpeg cannot be copied", true, capture.FormatJPEG, "", []string{actionCopyGeometry, actionSaveImage}},
		{"with command", false, capture.FormatPNG, "echo hi", []string{actionCopyGeometry, actionExec}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := actions(menuItems(tt.hasImage, tt.format, tt.command))
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("actions = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPicturesPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	got, err := picturesPath(now, capture.FormatJPEG)
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(home, "Pictures", "regionsel-20260304-050607.jpeg")
	if got != want {
		t.Fatalf("picturesPath = %q, want %q", got, want)
	}
}
