//go:build !unix

package runtimepath

import "errors"

// Lock is unavailable on this platform.
type Lock struct{}

// AcquireLock always fails on this platform.
func AcquireLock(string) (*Lock, error) {
	return nil, errors.ErrUnsupported
}

// Release is a no-op.
func (l *Lock) Release() error { return nil }
