package runtimepath

import "errors"

// ErrBusy reports a lock held by another session.
var ErrBusy = errors.New("another selection session is active")
