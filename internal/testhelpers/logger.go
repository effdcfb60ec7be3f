package testhelpers

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/myrjola/unsolved/internal/logging"
)

// NewLogger creates a new logger with the given log sink such as io.Discard.
func NewLogger(logSink io.Writer) *slog.Logger {
	handler := logging.NewContextHandler(slog.NewTextHandler(logSink, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	}))
	return slog.New(handler)
}

// FakeNow is a controllable wall clock for components that take a `now func() time.Time`.
type FakeNow struct {
	mu      sync.Mutex
	current time.Time
}

// NewFakeNow creates a FakeNow starting at start.
func NewFakeNow(start time.Time) *FakeNow {
	return &FakeNow{current: start}
}

// Now returns the current fake time.
func (f *FakeNow) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// Advance moves the fake time forward by d.
func (f *FakeNow) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = f.current.Add(d)
}
