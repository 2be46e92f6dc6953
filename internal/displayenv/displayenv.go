// Package displayenv finds the X display for processes started outside the
// graphical session, such as the MCP server or a systemd user unit.
package displayenv

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/1broseidon/regionsel/internal/runtimepath"
)

// ErrNoDisplay is returned when no X display could be found.
var ErrNoDisplay = errors.New("no X display found; set display in config (e.g. display: \":0\") or export DISPLAY")

const socketDir = "/tmp/.X11-unix"

var (
	runCommandOutputFn        = runCommandOutput
	readFileFn                = os.ReadFile
	readDirFn                 = os.ReadDir
	detectSessionX11EnvFn     = detectSessionX11Env
	detectDisplayFromSocketFn = detectDisplayFromSockets
)

// Resolve fills DISPLAY, XAUTHORITY and XDG_RUNTIME_DIR in env. Values
// already present win, then the configured display and xauthority, then the
// login session of the current user, then the highest X socket.
func Resolve(env []string, display, xauthority string) ([]string, error) {
	if strings.TrimSpace(Lookup(env, "XDG_RUNTIME_DIR")) == "" {
		if rd, err := runtimepath.Dir(); err == nil && strings.TrimSpace(rd) != "" {
			env = Upsert(env, "XDG_RUNTIME_DIR", rd)
		}
	}

	d := strings.TrimSpace(Lookup(env, "DISPLAY"))
	xa := strings.TrimSpace(Lookup(env, "XAUTHORITY"))
	if d == "" {
		d = strings.TrimSpace(display)
	}
	if xa == "" {
		xa = strings.TrimSpace(xauthority)
	}

	if d == "" || xa == "" {
		detectedDisplay, detectedXAuthority := detectSessionX11EnvFn()
		if d == "" {
			d = strings.TrimSpace(detectedDisplay)
		}
		if xa == "" {
			xa = strings.TrimSpace(detectedXAuthority)
		}
	}

	if d == "" {
		d = detectDisplayFromSocketFn(socketDir)
	}
	if d == "" {
		return env, ErrNoDisplay
	}

	if xa == "" {
		home := strings.TrimSpace(Lookup(env, "HOME"))
		if home == "" {
			if detectedHome, err := os.UserHomeDir(); err == nil {
				home = detectedHome
			}
		}
		if home != "" {
			candidate := filepath.Join(home, ".Xauthority")
			if _, err := os.Stat(candidate); err == nil {
				xa = candidate
			}
		}
	}

	env = Upsert(env, "DISPLAY", d)
	if xa != "" {
		env = Upsert(env, "XAUTHORITY", xa)
	}
	return env, nil
}

// Apply resolves the display for the current process and exports it, so
// the X connection and child processes see the same values.
func Apply(display, xauthority string) (string, error) {
	env, err := Resolve(os.Environ(), display, xauthority)
	if err != nil {
		return "", err
	}
	for _, key := range []string{"DISPLAY", "XAUTHORITY", "XDG_RUNTIME_DIR"} {
		if v := Lookup(env, key); v != "" && os.Getenv(key) != v {
			if err := os.Setenv(key, v); err != nil {
				return "", fmt.Errorf("set %s: %w", key, err)
			}
		}
	}
	return Lookup(env, "DISPLAY"), nil
}

func runCommandOutput(name string, args ...string) (string, error) {
	out, err := exec.Command(name, args...).Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func detectSessionX11Env() (display string, xauthority string) {
	uid := strconv.Itoa(os.Getuid())
	out, err := runCommandOutputFn("loginctl", "list-sessions", "--no-legend")
	if err != nil {
		return "", ""
	}
	for _, sessionID := range parseLoginctlSessions(out, uid) {
		d := strings.TrimSpace(loginctlShowSessionProp(sessionID, "Display"))
		if d == "" || strings.EqualFold(d, "n/a") {
			continue
		}

		xauth := ""
		leader := strings.TrimSpace(loginctlShowSessionProp(sessionID, "Leader"))
		if leader != "" && leader != "0" {
			if envMap, err := readProcEnviron(leader); err == nil {
				if ed := strings.TrimSpace(envMap["DISPLAY"]); ed != "" {
					d = ed
				}
				xauth = strings.TrimSpace(envMap["XAUTHORITY"])
			}
		}
		return d, xauth
	}
	return "", ""
}

func parseLoginctlSessions(output string, uid string) []string {
	var sessions []string
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(strings.TrimSpace(line))
		if len(fields) < 2 {
			continue
		}
		if fields[1] == uid {
			sessions = append(sessions, fields[0])
		}
	}
	return sessions
}

func loginctlShowSessionProp(sessionID string, prop string) string {
	out, err := runCommandOutputFn("loginctl", "show-session", sessionID, "-p", prop, "--value")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}

func readProcEnviron(pid string) (map[string]string, error) {
	data, err := readFileFn(filepath.Join("/proc", pid, "environ"))
	if err != nil {
		return nil, err
	}

	env := make(map[string]string)
	for _, part := range strings.Split(string(data), "\x00") {
		k, v, ok := strings.Cut(part, "=")
		if !ok || k == "" {
			continue
		}
		env[k] = v
	}
	return env, nil
}

func detectDisplayFromSockets(dir string) string {
	entries, err := readDirFn(dir)
	if err != nil {
		return ""
	}

	var displays []int
	for _, entry := range entries {
		name := entry.Name()
		if len(name) < 2 || name[0] != 'X' {
			continue
		}
		n, err := strconv.Atoi(name[1:])
		if err != nil {
			continue
		}
		displays = append(displays, n)
	}

	if len(displays) == 0 {
		return ""
	}
	sort.Ints(displays)
	return fmt.Sprintf(":%d", displays[len(displays)-1])
}

// Lookup returns the value of key in env.
func Lookup(env []string, key string) string {
	prefix := key + "="
	for _, e := range env {
		if strings.HasPrefix(e, prefix) {
			return strings.TrimPrefix(e, prefix)
		}
	}
	return ""
}

// Upsert sets key in env, replacing an existing entry.
func Upsert(env []string, key string, value string) []string {
	prefix := key + "="
	for i, e := range env {
		if strings.HasPrefix(e, prefix) {
			env[i] = prefix + value
			return env
		}
	}
	return append(env, prefix+value)
}
