// Package palette shows a list of actions through an external launcher
// (rofi, fuzzel, wofi or dmenu) and reports the one picked.
package palette

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrCancelled is returned when the user closes the palette without selecting an item.
var ErrCancelled = errors.New("palette cancelled")

// Item is a single selectable entry.
type Item struct {
	Label  string // Display text
	Action string // Identifier returned on selection
	Icon   string // Icon name for launchers that show icons
}

// Backend shows a palette to the user and returns the selected item.
type Backend interface {
	Show(prompt string, items []Item) (Item, error)
}

// detectOrder is the launcher priority for "auto".
var detectOrder = []string{"rofi", "fuzzel", "wofi", "dmenu"}

var lookPathFn = exec.LookPath

// DetectBackend returns the first launcher found in PATH.
func DetectBackend() (string, error) {
	for _, name := range detectOrder {
		if _, err := lookPathFn(name); err == nil {
			return name, nil
		}
	}
	return "", fmt.Errorf("no palette backend found in PATH (looked for: %s)", strings.Join(detectOrder, ", "))
}

// NewBackend creates a backend by name: auto, rofi, fuzzel, wofi or dmenu.
func NewBackend(name string) (Backend, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "auto" {
		detected, err := DetectBackend()
		if err != nil {
			return nil, err
		}
		name = detected
	}

	var kind backendKind
	switch name {
	case "rofi":
		kind = kindRofi
	case "fuzzel":
		kind = kindFuzzel
	case "wofi":
		kind = kindWofi
	case "dmenu":
		kind = kindDmenu
	default:
		return nil, fmt.Errorf("unknown palette backend: %q (expected: auto, %s)", name, strings.Join(detectOrder, ", "))
	}
	if _, err := lookPathFn(name); err != nil {
		return nil, fmt.Errorf("palette backend %q not found in PATH", name)
	}
	return &launcher{command: name, kind: kind}, nil
}
