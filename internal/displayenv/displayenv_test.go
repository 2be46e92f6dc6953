package displayenv

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

func TestResolve_UsesExistingEnv(t *testing.T) {
	restore := stubDetectFns(
		func() (string, string) { return ":99", "/tmp/should-not-be-used" },
		func(string) string { return ":88" },
	)
	defer restore()

	env := []string{
		"HOME=" + t.TempDir(),
		"DISPLAY=:7",
		"XAUTHORITY=/tmp/xauth-existing",
	}

	env, err := Resolve(env, ":1", "/tmp/cfg")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got := Lookup(env, "DISPLAY"); got != ":7" {
		t.Fatalf("DISPLAY = %q, want %q", got, ":7")
	}
	if got := Lookup(env, "XAUTHORITY"); got != "/tmp/xauth-existing" {
		t.Fatalf("XAUTHORITY = %q, want %q", got, "/tmp/xauth-existing")
	}
}

func TestResolve_UsesConfigAndFallsBackToHomeXAuthority(t *testing.T) {
	restore := stubDetectFns(
		func() (string, string) { return "", "" },
		func(string) string { return "" },
	)
	defer restore()

	home := t.TempDir()
	xauth := filepath.Join(home, ".Xauthority")
	if err := os.WriteFile(xauth, []byte("cookie"), 0600); err != nil {
		t.Fatalf("write xauthority: %v", err)
	}

	env, err := Resolve([]string{"HOME=" + home}, ":1", "")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got := Lookup(env, "DISPLAY"); got != ":1" {
		t.Fatalf("DISPLAY = %q, want %q", got, ":1")
	}
	if got := Lookup(env, "XAUTHORITY"); got != xauth {
		t.Fatalf("XAUTHORITY = %q, want %q", got, xauth)
	}
}

func TestResolve_UsesDetectedValues(t *testing.T) {
	restore := stubDetectFns(
		func() (string, string) { return ":5", "/tmp/xauth-detected" },
		func(string) string { return "" },
	)
	defer restore()

	env, err := Resolve([]string{"HOME=" + t.TempDir()}, "", "")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got := Lookup(env, "DISPLAY"); got != ":5" {
		t.Fatalf("DISPLAY = %q, want %q", got, ":5")
	}
	if got := Lookup(env, "XAUTHORITY"); got != "/tmp/xauth-detected" {
		t.Fatalf("XAUTHORITY = %q, want %q", got, "/tmp/xauth-detected")
	}
}

func TestResolve_FallsBackToSocket(t *testing.T) {
	restore := stubDetectFns(
		func() (string, string) { return "", "" },
		func(string) string { return ":3" },
	)
	defer restore()

	env, err := Resolve([]string{"HOME=" + t.TempDir()}, "", "")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got := Lookup(env, "DISPLAY"); got != ":3" {
		t.Fatalf("DISPLAY = %q, want %q", got, ":3")
	}
}

func TestResolve_SetsXdgRuntimeDirWhenMissing(t *testing.T) {
	restore := stubDetectFns(
		func() (string, string) { return "", "" },
		func(string) string { return "" },
	)
	defer restore()

	xdg := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", xdg)

	env, err := Resolve([]string{"HOME=" + t.TempDir()}, ":1", "")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got := Lookup(env, "XDG_RUNTIME_DIR"); got != xdg {
		t.Fatalf("XDG_RUNTIME_DIR = %q, want %q", got, xdg)
	}
}

func TestResolve_NoDisplay(t *testing.T) {
	restore := stubDetectFns(
		func() (string, string) { return "", "" },
		func(string) string { return "" },
	)
	defer restore()

	_, err := Resolve([]string{"HOME=" + t.TempDir()}, "", "")
	if !errors.Is(err, ErrNoDisplay) {
		t.Fatalf("err = %v, want ErrNoDisplay", err)
	}
}

func TestApply_ExportsDisplay(t *testing.T) {
	restore := stubDetectFns(
		func() (string, string) { return "", "" },
		func(string) string { return "" },
	)
	defer restore()

	t.Setenv("DISPLAY", "")
	t.Setenv("XAUTHORITY", "/tmp/xauth-env")
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

	got, err := Apply(":4", "")
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if got != ":4" || os.Getenv("DISPLAY") != ":4" {
		t.Fatalf("display = %q, env DISPLAY = %q", got, os.Getenv("DISPLAY"))
	}
}

func TestDetectDisplayFromSockets(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"X0", "X2", "not-a-display"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte{}, 0600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	if got := detectDisplayFromSockets(dir); got != ":2" {
		t.Fatalf("detectDisplayFromSockets = %q, want %q", got, ":2")
	}
}

func TestParseLoginctlSessions(t *testing.T) {
	out := strings.Join([]string{
		"1 1000 george seat0",
		"2 1001 alice seat0",
		"3 1000 george seat1",
		"",
	}, "\n")
	got := parseLoginctlSessions(out, "1000")
	if len(got) != 2 || got[0] != "1" || got[1] != "3" {
		t.Fatalf("parseLoginctlSessions = %v, want [1 3]", got)
	}
}

func TestDetectSessionX11Env_ReadsLeaderEnviron(t *testing.T) {
	origRun, origRead := runCommandOutputFn, readFileFn
	defer func() { runCommandOutputFn, readFileFn = origRun, origRead }()

	uid := os.Getuid()
	runCommandOutputFn = func(name string, args ...string) (string, error) {
		switch {
		case len(args) > 0 && args[0] == "list-sessions":
			return "7 " + strconv.Itoa(uid) + " user seat0\n", nil
		case len(args) > 3 && args[3] == "Display":
			return ":0\n", nil
		case len(args) > 3 && args[3] == "Leader":
			return "4242\n", nil
		}
		return "", errors.New("unexpected")
	}
	readFileFn = func(path string) ([]byte, error) {
		if path != "/proc/4242/environ" {
			return nil, os.ErrNotExist
		}
		return []byte("DISPLAY=:1\x00XAUTHORITY=/run/user/x/xauth\x00"), nil
	}

	d, xa := detectSessionX11Env()
	if d != ":1" || xa != "/run/user/x/xauth" {
		t.Fatalf("detectSessionX11Env = %q, %q", d, xa)
	}
}

func stubDetectFns(
	detectSession func() (string, string),
	detectSocket func(string) string,
) func() {
	origSession := detectSessionX11EnvFn
	origSocket := detectDisplayFromSocketFn
	detectSessionX11EnvFn = detectSession
	detectDisplayFromSocketFn = detectSocket
	return func() {
		detectSessionX11EnvFn = origSession
		detectDisplayFromSocketFn = origSocket
	}
}
