// Package clipboard publishes selection results on the system clipboard.
package clipboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.design/x/clipboard"
)

var (
	writeMu  sync.Mutex
	initOnce sync.Once
	initErr  error
)

// Init prepares the clipboard. It is safe to call repeatedly.
func Init() error {
	initOnce.Do(func() {
		initErr = clipboard.Init()
	})
	return initErr
}

// CopyText puts text on the clipboard. See Copy for hold.
func CopyText(ctx context.Context, text string, hold time.Duration) error {
	return Copy(ctx, clipboard.FmtText, []byte(text), hold)
}

// CopyPNG puts PNG-encoded image data on the clipboard. See Copy for hold.
func CopyPNG(ctx context.Context, data []byte, hold time.Duration) error {
	return Copy(ctx, clipboard.FmtImage, data, hold)
}

// Copy performs a mutex-guarded clipboard write. On X11 the content lives
// only as long as its owner, so Copy then waits up to hold for another
// client to take the clipboard over.
func Copy(ctx context.Context, f clipboard.Format, data []byte, hold time.Duration) error {
	if err := Init(); err != nil {
		return fmt.Errorf("clipboard unavailable: %w", err)
	}

	writeMu.Lock()
	changed := clipboard.Write(f, data)
	writeMu.Unlock()

	if hold <= 0 {
		return nil
	}
	timer := time.NewTimer(hold)
	defer timer.Stop()
	select {
	case <-changed:
	case <-timer.C:
	case <-ctx.Done():
	}
	return nil
}
