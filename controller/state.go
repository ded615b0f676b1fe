package controller

import (
	"time"
)

// MuteMark records whether the current track still owes a reduction.
type MuteMark int

const (
	// Unset means no reduction is being tracked, i.e. we are outside a window.
	Unset MuteMark = iota
	// Pending means a reduction is owed for the current track.
	Pending
	// Applied means the current track has already had its reduction.
	Applied
)

func (m MuteMark) String() string {
	switch m {
	case Unset:
		return "unset"
	case Pending:
		return "pending"
	case Applied:
		return "applied"
	}
	return "unknown"
}

func (m MuteMark) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// State is everything the controller remembers between ticks. It lives for
// the life of the process and is never persisted.
type State struct {
	Muted bool
	// ReferenceVolume is the level to restore to. Always set while Muted.
	ReferenceVolume  *int
	LastTrack        string
	MuteForTrack     MuteMark
	LastMonitorCheck time.Time
}

func (s State) clone() State {
	if s.ReferenceVolume != nil {
		v := *s.ReferenceVolume
		s.ReferenceVolume = &v
	}
	return s
}

// Snapshot is the externally visible view of the controller.
type Snapshot struct {
	Muted           bool      `json:"muted"`
	ReferenceVolume *int      `json:"reference_volume"`
	LastTrack       string    `json:"last_track"`
	MuteForTrack    MuteMark  `json:"mute_for_track"`
	Quiet           bool      `json:"quiet"`
	DeviceVolume    *int      `json:"device_volume"`
	DeviceReachable bool      `json:"device_reachable"`
	At              time.Time `json:"at"`
}

// sameAs ignores the timestamp so that idle ticks do not count as changes.
func (s Snapshot) sameAs(o Snapshot) bool {
	return s.Muted == o.Muted &&
		intPtrEqual(s.ReferenceVolume, o.ReferenceVolume) &&
		s.LastTrack == o.LastTrack &&
		s.MuteForTrack == o.MuteForTrack &&
		s.Quiet == o.Quiet &&
		intPtrEqual(s.DeviceVolume, o.DeviceVolume) &&
		s.DeviceReachable == o.DeviceReachable
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
