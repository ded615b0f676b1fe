package controller

import (
	"context"
	"math"
	"time"

	"github.com/marcus-crane/adbreak/device"
)

// Reduced is the level a break drops to. It never reaches zero so the
// television never looks switched off.
func Reduced(reference int, factor float64) int {
	// The epsilon keeps values like 50*0.2 from flooring to 9
	reduced := int(math.Floor(float64(reference)*factor + 1e-9))
	return max(1, reduced)
}

// Transition walks the device from current to target one step at a time,
// waiting delay between steps. It trusts its own step count rather than
// reading the volume back after every step, so a change made with the
// remote during a transition is not noticed until the next tick.
// It returns the number of steps sent.
func Transition(ctx context.Context, dev device.Volume, current, target int, delay time.Duration) (int, error) {
	if current == target {
		return 0, nil
	}
	step := dev.VolumeDown
	steps := current - target
	if current < target {
		step = dev.VolumeUp
		steps = target - current
	}
	for i := 0; i < steps; i++ {
		if i > 0 {
			if err := wait(ctx, delay); err != nil {
				return i, err
			}
		}
		if err := step(ctx); err != nil {
			return i, err
		}
	}
	return steps, nil
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
