package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// Ticker is driven once per interval. The controller is the only one.
type Ticker interface {
	Tick(ctx context.Context, now time.Time) error
}

// SetupInBackground schedules t every interval. Ticks never overlap: a tick
// still busy walking the volume delays the next one rather than racing it.
// Schedules are written in wall clock time so the scheduler runs in the
// local zone.
func SetupInBackground(ctx context.Context, interval time.Duration, t Ticker) (*gocron.Scheduler, error) {
	s := gocron.NewScheduler(time.Local)
	s.SingletonModeAll()

	if _, err := s.Every(interval).Do(RunTick, ctx, t); err != nil {
		return nil, err
	}

	slog.Debug("Jobs scheduled. Scheduler not running yet.", slog.Duration("interval", interval))

	return s, nil
}

// RunTick runs a single tick, logging rather than returning failures. The
// next tick starts over from the live device state.
func RunTick(ctx context.Context, t Ticker) {
	if ctx.Err() != nil {
		return
	}
	if err := t.Tick(ctx, time.Now()); err != nil {
		if errors.Is(err, context.Canceled) {
			slog.Debug("Tick interrupted by shutdown")
			return
		}
		slog.Error("Tick failed", slog.String("error", err.Error()))
	}
}
