// Package device talks to the television whose volume is being managed.
package device

import "context"

// Volume is the small surface the controller needs from a television.
// Volume returns nil when the device answered but did not report a level.
type Volume interface {
	Volume(ctx context.Context) (*int, error)
	VolumeUp(ctx context.Context) error
	VolumeDown(ctx context.Context) error
}

// Level dereferences a volume reading, treating an unknown level as zero.
func Level(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
