package hardware

import (
	"context"
	"sync"
)

// RelayCall records one write made to a FakeRelay.
type RelayCall struct {
	Power     *bool
	Direction *Direction
}

// FakeRelay is a test double that records relay writes.
type FakeRelay struct {
	mu sync.Mutex

	// Calls contains every write in order.
	Calls []RelayCall

	// Powered and Dir reflect the last successful writes.
	Powered bool
	Dir     Direction

	// PowerError, if set, will be returned by SetPower.
	PowerError error

	// DirectionError, if set, will be returned by SetDirection.
	DirectionError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeRelay creates a FakeRelay.
func NewFakeRelay() *FakeRelay {
	return &FakeRelay{}
}

// SetPower records the write.
func (f *FakeRelay) SetPower(on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, RelayCall{Power: &on})
	if f.PowerError != nil {
		return f.PowerError
	}
	f.Powered = on
	return nil
}

// SetDirection records the write.
func (f *FakeRelay) SetDirection(d Direction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, RelayCall{Direction: &d})
	if f.DirectionError != nil {
		return f.DirectionError
	}
	f.Dir = d
	return nil
}

// Close marks the relay as closed and powers it off.
func (f *FakeRelay) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	f.Powered = false
	return nil
}

// State returns the last written power and direction.
func (f *FakeRelay) State() (bool, Direction) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Powered, f.Dir
}

// PowerOnCount returns how many times power was switched on.
func (f *FakeRelay) PowerOnCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if c.Power != nil && *c.Power {
			n++
		}
	}
	return n
}

// FakeSensor is a test double that returns scripted readings.
type FakeSensor struct {
	mu sync.Mutex

	// Readings contains scripted values. Each call consumes the next one;
	// once exhausted the last one repeats.
	Readings []Reading

	index int

	// ReadError, if set, will be returned by ReadEnvironment.
	ReadError error
}

// NewFakeSensor creates a FakeSensor with the given readings.
func NewFakeSensor(readings ...Reading) *FakeSensor {
	return &FakeSensor{Readings: readings}
}

// ReadEnvironment returns the next scripted reading.
func (f *FakeSensor) ReadEnvironment(ctx context.Context) (Reading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ReadError != nil {
		return Reading{}, f.ReadError
	}
	if len(f.Readings) == 0 {
		return Reading{}, ErrNoReading
	}
	r := f.Readings[f.index]
	if f.index < len(f.Readings)-1 {
		f.index++
	}
	return r, nil
}

// Set replaces the scripted readings and clears any error.
func (f *FakeSensor) Set(readings ...Reading) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Readings = readings
	f.index = 0
	f.ReadError = nil
}

// Fail makes subsequent reads return err.
func (f *FakeSensor) Fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ReadError = err
}
