package runtimepath

import (
	"fmt"
	"os"
	"path/filepath"
)

// File names inside Dir.
const (
	SocketName = "regionsel.sock"
	LockName   = "regionsel.lock"
)

var (
	getuidFn  = os.Getuid
	tempDirFn = os.TempDir
)

// Dir returns the per-user directory that holds the selection lock and the
// daemon socket: $XDG_RUNTIME_DIR, then /run/user/<uid>, then a private
// regionsel-runtime-<uid> directory under the temp dir.
func Dir() (string, error) {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return dir, nil
	}

	uid := getuidFn()
	if info, err := os.Stat(fmt.Sprintf("/run/user/%d", uid)); err == nil && info.IsDir() {
		return fmt.Sprintf("/run/user/%d", uid), nil
	}
	return privateDir(filepath.Join(tempDirFn(), fmt.Sprintf("regionsel-runtime-%d", uid)))
}

// privateDir creates dir with mode 0700 and rejects an existing dir that
// other users can reach.
func privateDir(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create runtime dir: %w", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("failed to stat runtime dir: %w", err)
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		return "", fmt.Errorf("runtime dir %s is open to other users (mode %04o)", dir, perm)
	}
	return dir, nil
}

func join(name string) (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// SocketPath returns the daemon IPC socket path.
func SocketPath() (string, error) { return join(SocketName) }

// LockPath returns the single-session lock file path.
func LockPath() (string, error) { return join(LockName) }
