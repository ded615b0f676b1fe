package device

import (
	"context"
	"sync"
)

// Memory is an in-process television. It backs dry runs where no real
// device is attached and lets tests inspect every step that was sent.
type Memory struct {
	m       sync.Mutex
	level   int
	max     int
	unknown bool
	ups     int
	downs   int
	fail    error
}

func NewMemory(level, max int) *Memory {
	return &Memory{level: level, max: max}
}

func (d *Memory) Volume(ctx context.Context) (*int, error) {
	d.m.Lock()
	defer d.m.Unlock()
	if d.fail != nil {
		return nil, d.fail
	}
	if d.unknown {
		return nil, nil
	}
	v := d.level
	return &v, nil
}

func (d *Memory) VolumeUp(ctx context.Context) error {
	d.m.Lock()
	defer d.m.Unlock()
	if d.fail != nil {
		return d.fail
	}
	d.ups++
	if d.level < d.max {
		d.level++
	}
	return nil
}

func (d *Memory) VolumeDown(ctx context.Context) error {
	d.m.Lock()
	defer d.m.Unlock()
	if d.fail != nil {
		return d.fail
	}
	d.downs++
	if d.level > 0 {
		d.level--
	}
	return nil
}

// Set changes the level as if someone used the remote.
func (d *Memory) Set(level int) {
	d.m.Lock()
	defer d.m.Unlock()
	d.level = level
}

func (d *Memory) Level() int {
	d.m.Lock()
	defer d.m.Unlock()
	return d.level
}

// SetUnknown makes Volume report no level until cleared.
func (d *Memory) SetUnknown(unknown bool) {
	d.m.Lock()
	defer d.m.Unlock()
	d.unknown = unknown
}

// Fail makes every call return err. Pass nil to recover.
func (d *Memory) Fail(err error) {
	d.m.Lock()
	defer d.m.Unlock()
	d.fail = err
}

// Steps reports how many up and down commands were received.
func (d *Memory) Steps() (ups, downs int) {
	d.m.Lock()
	defer d.m.Unlock()
	return d.ups, d.downs
}

func (d *Memory) ResetSteps() {
	d.m.Lock()
	defer d.m.Unlock()
	d.ups, d.downs = 0, 0
}
