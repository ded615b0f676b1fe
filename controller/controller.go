// Package controller decides when the television should be turned down for
// a break and when it should come back up.
//
// Every tick runs two steps in a fixed order. First, at most once per track
// check interval, the stream title is polled; a new title re-arms the
// reduction for the current window and, if the volume is currently reduced,
// brings it back up so the start of the new song is heard. Second, the
// schedule is consulted and the volume is reduced on entering a window (or
// after a track change inside one) and restored on leaving it.
//
// All decisions are made against the volume the device reports at that
// moment, so a failed tick is simply retried by the next one.
package controller

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/marcus-crane/adbreak/db"
	"github.com/marcus-crane/adbreak/device"
	"github.com/marcus-crane/adbreak/notify"
)

// Window reports whether a moment falls inside a quiet window.
type Window interface {
	IsQuiet(now time.Time) bool
}

// TitleSource returns the current track title, or false if none is available.
type TitleSource interface {
	Poll(ctx context.Context) (string, bool)
}

type Broadcaster interface {
	Broadcast(v any)
}

type nopBroadcaster struct{}

func (nopBroadcaster) Broadcast(v any) {}

type Options struct {
	ReductionFactor    float64
	StepDelay          time.Duration
	TrackCheckInterval time.Duration
	// InitialVolume seeds the reference volume. Nil means learn it from
	// the device on the first break.
	InitialVolume *int
	// RelearnReference re-reads the reference volume from the device every
	// time a window is entered, picking up changes made between breaks.
	RelearnReference bool
}

type Controller struct {
	opts        Options
	device      device.Volume
	window      Window
	monitor     TitleSource
	store       db.Store
	notifier    notify.Notifier
	broadcaster Broadcaster

	m        sync.RWMutex
	state    State
	snapshot Snapshot
	// last reading, only for the snapshot
	lastVolume  *int
	unreachable bool
}

func New(opts Options, dev device.Volume, window Window, monitor TitleSource, store db.Store) *Controller {
	c := &Controller{
		opts:        opts,
		device:      dev,
		window:      window,
		monitor:     monitor,
		store:       store,
		notifier:    notify.Nop{},
		broadcaster: nopBroadcaster{},
	}
	if opts.InitialVolume != nil {
		v := *opts.InitialVolume
		c.state.ReferenceVolume = &v
	}
	c.snapshot = c.buildSnapshot(c.state, false, time.Time{})
	return c
}

func (c *Controller) SetNotifier(n notify.Notifier) {
	c.notifier = n
}

func (c *Controller) SetBroadcaster(b Broadcaster) {
	c.broadcaster = b
}

// State returns a copy of the current session state.
func (c *Controller) State() State {
	c.m.RLock()
	defer c.m.RUnlock()
	return c.state.clone()
}

// Snapshot returns the view published after the most recent tick.
func (c *Controller) Snapshot() Snapshot {
	c.m.RLock()
	defer c.m.RUnlock()
	return c.snapshot
}

func (c *Controller) commit(s State) {
	c.m.Lock()
	defer c.m.Unlock()
	c.state = s.clone()
}

// Tick runs one evaluation. It must not be called concurrently with itself.
// Errors come from the device; state touched by the failing step is left
// as it was so the next tick can try again.
func (c *Controller) Tick(ctx context.Context, now time.Time) error {
	restored, err := c.checkTrack(ctx, now)
	if err == nil {
		err = c.checkWindow(ctx, now, restored)
	}
	c.publish(now)
	return err
}

// checkTrack polls the monitor when the throttle allows it and handles a
// track change. It reports whether the volume was restored.
func (c *Controller) checkTrack(ctx context.Context, now time.Time) (bool, error) {
	s := c.State()
	if !s.LastMonitorCheck.IsZero() && now.Sub(s.LastMonitorCheck) < c.opts.TrackCheckInterval {
		return false, nil
	}

	title, ok := c.monitor.Poll(ctx)
	s.LastMonitorCheck = now
	// The check counts even if the rest of this step fails, otherwise a
	// dead device would have us probing the stream every tick.
	c.commit(s)

	if !ok || title == s.LastTrack {
		return false, nil
	}

	c.logPlay(ctx, now, title)
	s.LastTrack = title
	s.MuteForTrack = Pending

	if !s.Muted {
		c.commit(s)
		return false, nil
	}

	if s.ReferenceVolume == nil {
		// Cannot happen while muted, but there is nothing to restore to
		c.commit(s)
		return false, nil
	}

	current, err := c.readVolume(ctx)
	if err != nil {
		return false, err
	}
	if _, err := Transition(ctx, c.device, current, *s.ReferenceVolume, c.opts.StepDelay); err != nil {
		return false, fmt.Errorf("failed to restore volume after track change: %w", err)
	}
	c.setLastVolume(*s.ReferenceVolume)
	slog.Info("Restored volume for new track",
		slog.Int("volume", *s.ReferenceVolume),
		slog.String("title", title))

	c.commit(s)
	return true, nil
}

func (c *Controller) logPlay(ctx context.Context, now time.Time, title string) {
	inserted, err := c.store.AppendIfNew(ctx, now, title)
	if err != nil {
		slog.Error("Failed to log play",
			slog.String("error", err.Error()),
			slog.String("title", title))
		return
	}
	if !inserted {
		slog.Debug("Title matches the latest logged play", slog.String("title", title))
		return
	}
	attrs := []any{slog.String("title", title)}
	if count, err := c.store.TimesPlayed(ctx, title); err == nil {
		attrs = append(attrs, slog.Int("times_played", count))
	}
	slog.Info("Now playing", attrs...)
}

// checkWindow reduces or restores the volume based on the schedule.
// skipRearm holds off a re-reduction in the same tick as a track change
// restore so the new track is briefly audible.
//
// Entering a window marks the current track as handled even when the volume
// was already at or below the reduced level. Raising the volume by hand later
// in the same track is not corrected until the next track change or window.
func (c *Controller) checkWindow(ctx context.Context, now time.Time, skipRearm bool) error {
	s := c.State()
	quiet := c.window.IsQuiet(now)

	switch {
	case quiet && !s.Muted && s.MuteForTrack != Applied:
		current, err := c.readVolume(ctx)
		if err != nil {
			return err
		}
		reference := current
		learned := s.ReferenceVolume == nil || c.opts.RelearnReference
		if !learned {
			reference = *s.ReferenceVolume
		}
		reduced := Reduced(reference, c.opts.ReductionFactor)
		if current > reduced {
			if _, err := Transition(ctx, c.device, current, reduced, c.opts.StepDelay); err != nil {
				return fmt.Errorf("failed to reduce volume: %w", err)
			}
			c.setLastVolume(reduced)
			// The reference is only kept once it has been used to reduce, so a
			// low or unknown reading never becomes the level breaks restore to.
			if learned {
				s.ReferenceVolume = &reference
				slog.Debug("Learned reference volume", slog.Int("volume", reference))
			}
			s.Muted = true
			slog.Info("Reduced volume for break",
				slog.Int("volume", reduced),
				slog.Int("reference", *s.ReferenceVolume))
		} else {
			slog.Debug("Volume already at or below the reduced level",
				slog.Int("volume", current),
				slog.Int("reduced", reduced))
		}
		s.MuteForTrack = Applied

	case quiet && s.Muted && s.MuteForTrack == Pending && !skipRearm:
		current, err := c.readVolume(ctx)
		if err != nil {
			return err
		}
		reduced := Reduced(*s.ReferenceVolume, c.opts.ReductionFactor)
		if current > reduced {
			if _, err := Transition(ctx, c.device, current, reduced, c.opts.StepDelay); err != nil {
				return fmt.Errorf("failed to reduce volume: %w", err)
			}
			c.setLastVolume(reduced)
			slog.Info("Reduced volume again after track change",
				slog.Int("volume", reduced),
				slog.Int("reference", *s.ReferenceVolume))
		}
		s.MuteForTrack = Applied

	case !quiet && s.Muted:
		current, err := c.readVolume(ctx)
		if err != nil {
			return err
		}
		// A track change may already have restored it, in which case this is a no-op
		if _, err := Transition(ctx, c.device, current, *s.ReferenceVolume, c.opts.StepDelay); err != nil {
			return fmt.Errorf("failed to restore volume: %w", err)
		}
		c.setLastVolume(*s.ReferenceVolume)
		s.Muted = false
		s.MuteForTrack = Unset
		slog.Info("Restored volume after break", slog.Int("volume", *s.ReferenceVolume))

	case !quiet:
		s.MuteForTrack = Unset
	}

	c.commit(s)
	return nil
}

// readVolume treats an unknown level as zero and keeps track of whether the
// device is answering at all.
func (c *Controller) readVolume(ctx context.Context) (int, error) {
	v, err := c.device.Volume(ctx)
	if err != nil {
		c.markReachable(false, err)
		return 0, fmt.Errorf("failed to read volume: %w", err)
	}
	c.markReachable(true, nil)
	level := device.Level(v)
	c.setLastVolume(level)
	return level, nil
}

func (c *Controller) setLastVolume(v int) {
	c.m.Lock()
	defer c.m.Unlock()
	c.lastVolume = &v
}

func (c *Controller) markReachable(ok bool, err error) {
	c.m.Lock()
	changed := c.unreachable == ok
	c.unreachable = !ok
	c.m.Unlock()

	if !changed {
		return
	}
	if ok {
		slog.Info("Device is reachable again")
		c.notifier.Notify("Television reachable", "Volume control has resumed.")
		return
	}
	slog.Warn("Device stopped responding", slog.String("error", err.Error()))
	c.notifier.Notify("Television unreachable", fmt.Sprintf("Volume control is paused: %v", err))
}

func (c *Controller) buildSnapshot(s State, quiet bool, now time.Time) Snapshot {
	var vol *int
	if c.lastVolume != nil {
		v := *c.lastVolume
		vol = &v
	}
	s = s.clone()
	return Snapshot{
		Muted:           s.Muted,
		ReferenceVolume: s.ReferenceVolume,
		LastTrack:       s.LastTrack,
		MuteForTrack:    s.MuteForTrack,
		Quiet:           quiet,
		DeviceVolume:    vol,
		DeviceReachable: !c.unreachable,
		At:              now,
	}
}

func (c *Controller) publish(now time.Time) {
	quiet := c.window.IsQuiet(now)

	c.m.Lock()
	next := c.buildSnapshot(c.state, quiet, now)
	changed := !next.sameAs(c.snapshot)
	c.snapshot = next
	c.m.Unlock()

	if changed {
		c.broadcaster.Broadcast(next)
	}
}
