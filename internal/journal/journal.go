// Package journal appends one line per selection-session event to a
// size-rotated file.
package journal

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/1broseidon/regionsel/internal/render"
	"github.com/1broseidon/regionsel/internal/selection"
)

// Level defines the journal verbosity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Event is the type of a journal entry.
type Event string

const (
	EventSessionStart Event = "SESSION-START"
	EventSessionEnd   Event = "SESSION-END"
	EventFrame        Event = "FRAME"
	EventSkip         Event = "SKIP"
	EventRegion       Event = "REGION"
)

// eventLevel returns the level an event is recorded at.
func eventLevel(ev Event) Level {
	switch ev {
	case EventFrame, EventSkip:
		return LevelDebug
	default:
		return LevelInfo
	}
}

// Config holds the journal settings.
type Config struct {
	Enabled   bool
	Level     Level
	FilePath  string
	MaxSizeMB int
	MaxFiles  int
}

// Journal records session events with file rotation. A disabled or nil
// Journal discards everything.
type Journal struct {
	mu          sync.Mutex
	file        *os.File
	config      Config
	currentSize int64
	now         func() time.Time
}

// New opens the journal file when enabled.
func New(cfg Config) (*Journal, error) {
	if !cfg.Enabled {
		return &Journal{config: cfg, now: time.Now}, nil
	}

	dir := filepath.Dir(cfg.FilePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory %s: %w", dir, err)
	}

	f, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal %s: %w", cfg.FilePath, err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat journal: %w", err)
	}

	return &Journal{
		file:        f,
		config:      cfg,
		currentSize: stat.Size(),
		now:         time.Now,
	}, nil
}

// Record appends an entry with details in sorted key order.
func (j *Journal) Record(ev Event, details map[string]any) {
	if j == nil || !j.config.Enabled {
		return
	}
	if eventLevel(ev) < j.config.Level {
		return
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file == nil {
		return
	}

	maxBytes := int64(j.config.MaxSizeMB) * 1024 * 1024
	if j.currentSize >= maxBytes {
		if err := j.rotate(); err != nil {
			fmt.Fprintf(os.Stderr, "journal rotation failed: %v\n", err)
		}
		if j.file == nil {
			return
		}
	}

	var sb strings.Builder
	sb.WriteString(j.now().Format("2006-01-02 15:04:05.000"))
	sb.WriteString(" [")
	sb.WriteString(string(ev))
	sb.WriteString("]")

	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch val := details[k].(type) {
		case string:
			fmt.Fprintf(&sb, " %s=%q", k, val)
		default:
			fmt.Fprintf(&sb, " %s=%v", k, val)
		}
	}
	sb.WriteString("\n")

	n, err := j.file.WriteString(sb.String())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to write journal entry: %v\n", err)
		return
	}
	j.currentSize += int64(n)
}

// SessionStarted records the mode and window count of a new session.
func (j *Journal) SessionStarted(mode string, windows int) {
	j.Record(EventSessionStart, map[string]any{"mode": mode, "windows": windows})
}

// FrameRendered records one presented frame.
func (j *Journal) FrameRendered(kind render.Kind, d time.Duration) {
	j.Record(EventFrame, map[string]any{"backend": kind.String(), "duration": d.Round(time.Microsecond)})
}

// RedrawSkipped records a redraw dropped by the pacer.
func (j *Journal) RedrawSkipped(reason string) {
	j.Record(EventSkip, map[string]any{"reason": reason})
}

// SessionEnded records how a session finished.
func (j *Journal) SessionEnded(outcome string, d time.Duration) {
	j.Record(EventSessionEnd, map[string]any{"outcome": outcome, "duration": d.Round(time.Millisecond)})
}

// Region records a confirmed region.
func (j *Journal) Region(r selection.Region) {
	j.Record(EventRegion, map[string]any{"geometry": r.String(), "scale": r.Scale})
}

// Close closes the journal file.
func (j *Journal) Close() error {
	if j == nil || j.file == nil {
		return nil
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	err := j.file.Close()
	j.file = nil
	return err
}

// rotate shifts sessions.log.N to .N+1, dropping the oldest, and reopens an
// empty file. With MaxFiles=3 the rotated files are .1, .2 and .3.
func (j *Journal) rotate() error {
	if j.file != nil {
		j.file.Close()
		j.file = nil
	}

	basePath := j.config.FilePath
	for i := j.config.MaxFiles; i >= 1; i-- {
		oldPath := fmt.Sprintf("%s.%d", basePath, i)
		if i == j.config.MaxFiles {
			os.Remove(oldPath)
			continue
		}
		os.Rename(oldPath, fmt.Sprintf("%s.%d", basePath, i+1))
	}

	if err := os.Rename(basePath, basePath+".1"); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to rotate journal: %w", err)
	}

	f, err := os.OpenFile(basePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open new journal: %w", err)
	}

	j.file = f
	j.currentSize = 0
	return nil
}

// ParseLevel converts a string to Level; unknown names map to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}
