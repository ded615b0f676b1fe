// Package monitor reports the title currently playing on a network audio stream.
package monitor

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

const DefaultTimeout = 15 * time.Second

// Prober fetches the current title from a stream. Implementations may block
// until ctx is done.
type Prober interface {
	Title(ctx context.Context) (string, error)
}

// Monitor wraps a Prober so that every failure turns into "no title".
type Monitor struct {
	prober  Prober
	timeout time.Duration
}

func New(prober Prober, timeout time.Duration) *Monitor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Monitor{prober: prober, timeout: timeout}
}

// Poll returns the current title and whether one was available. Errors are
// logged and swallowed.
func (m *Monitor) Poll(ctx context.Context) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	title, err := m.prober.Title(ctx)
	if err != nil {
		slog.Warn("Failed to fetch current title", slog.String("error", err.Error()))
		return "", false
	}
	title = strings.TrimSpace(title)
	if title == "" {
		slog.Debug("Stream did not report a title")
		return "", false
	}
	return title, true
}
