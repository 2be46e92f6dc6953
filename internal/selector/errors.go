package selector

import (
	"errors"
	"fmt"

	"github.com/1broseidon/regionsel/internal/selection"
)

var (
	// ErrUnsupported is returned when the platform or every render backend
	// lacks a required capability.
	ErrUnsupported = errors.New("region selection unsupported")
	// ErrCancelled reports a selection the user dismissed. Select returns
	// nil, nil for that case; RequireSelection converts it to this error.
	ErrCancelled = errors.New("selection cancelled")
)

// InternalError is an event loop or surface setup failure.
type InternalError struct {
	Op  string
	Err error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("selector: %s: %v", e.Op, e.Err)
}

func (e *InternalError) Unwrap() error { return e.Err }

func internal(op string, err error) error {
	if errors.Is(err, ErrUnsupported) {
		return err
	}
	return &InternalError{Op: op, Err: err}
}

// RequireSelection turns a cancelled selection into ErrCancelled.
func RequireSelection(r *selection.Region, err error) (*selection.Region, error) {
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, ErrCancelled
	}
	return r, nil
}
