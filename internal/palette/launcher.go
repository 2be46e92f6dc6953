package palette

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"os/exec"
	"strconv"
	"strings"
)

type backendKind int

const (
	kindRofi backendKind = iota
	kindFuzzel
	kindWofi
	kindDmenu
)

// launcher drives a dmenu-compatible program over stdin/stdout.
type launcher struct {
	command string
	kind    backendKind
}

// runFn executes the launcher; replaced in tests.
var runFn = func(name string, args []string, stdin string) (string, error) {
	cmd := exec.Command(name, args...)
	cmd.Stdin = strings.NewReader(stdin)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil && !isCancelExit(err) {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%s failed: %s", name, msg)
		}
		return "", fmt.Errorf("%s failed: %w", name, err)
	}
	if err != nil {
		return "", ErrCancelled
	}
	return string(out), nil
}

// indexed reports whether the launcher prints the row index instead of
// the row text.
func (l *launcher) indexed() bool {
	return l.kind == kindRofi || l.kind == kindFuzzel
}

func (l *launcher) Show(prompt string, items []Item) (Item, error) {
	if len(items) == 0 {
		return Item{}, fmt.Errorf("palette: no items to show")
	}
	out, err := runFn(l.command, l.args(prompt), l.input(items))
	if err != nil {
		return Item{}, err
	}
	sel := strings.TrimSpace(out)
	if sel == "" {
		return Item{}, ErrCancelled
	}
	return l.parse(sel, items)
}

func (l *launcher) args(prompt string) []string {
	switch l.kind {
	case kindRofi:
		// -format i prints the index, so labels never need to round-trip.
		args := []string{"-dmenu", "-i", "-format", "i", "-no-custom", "-markup-rows", "-show-icons"}
		if prompt != "" {
			args = append(args, "-p", prompt)
		}
		return args
	case kindFuzzel:
		args := []string{"--dmenu", "--index"}
		if prompt != "" {
			args = append(args, "--prompt", prompt)
		}
		return args
	case kindWofi:
		args := []string{"--dmenu", "--allow-images"}
		if prompt != "" {
			args = append(args, "--prompt", prompt)
		}
		return args
	default:
		args := []string{"-i"}
		if prompt != "" {
			args = append(args, "-p", prompt)
		}
		return args
	}
}

// input renders one row per item. Rofi rows carry the icon through the
// \0icon\x1fname property.
func (l *launcher) input(items []Item) string {
	rows := make([]string, len(items))
	for i, item := range items {
		label := cleanField(item.Label)
		if l.kind == kindRofi {
			label = html.EscapeString(label)
			if item.Icon != "" {
				label += "\x00icon\x1f" + cleanField(item.Icon)
			}
		}
		rows[i] = label
	}
	return strings.Join(rows, "\n")
}

func (l *launcher) parse(sel string, items []Item) (Item, error) {
	if l.indexed() {
		if idx, err := strconv.Atoi(sel); err == nil {
			if idx < 0 || idx >= len(items) {
				return Item{}, fmt.Errorf("palette: index %d out of range", idx)
			}
			return items[idx], nil
		}
	}
	for _, item := range items {
		if cleanField(item.Label) == sel {
			return item, nil
		}
	}
	return Item{}, fmt.Errorf("palette: unknown selection %q", sel)
}

// cleanField strips characters that would break row or property framing.
func cleanField(s string) string {
	return strings.TrimSpace(strings.NewReplacer("\x00", " ", "\x1f", " ", "\r", " ", "\n", " ").Replace(s))
}

func isCancelExit(err error) bool {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return false
	}
	// 1 is "no selection", 130 is Ctrl+C.
	switch exitErr.ExitCode() {
	case 1, 130:
		return true
	default:
		return false
	}
}
