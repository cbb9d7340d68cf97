package typewriter

import (
	"context"
	"sync"
	"time"
)

// Clock paces animation ticks. Sleep blocks for d or until ctx is done,
// whichever comes first, and reports ctx's error in the latter case.
type Clock interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

// RealClock returns a Clock backed by wall-clock timers.
func RealClock() Clock { return realClock{} }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type instantClock struct{}

// InstantClock returns a Clock that never waits. Animations still emit every
// tick, they just complete immediately.
func InstantClock() Clock { return instantClock{} }

func (instantClock) Sleep(ctx context.Context, d time.Duration) error { return ctx.Err() }

// RecordingClock never blocks. It accumulates every requested delay so
// callers can check pacing without waiting for it.
type RecordingClock struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

func (c *RecordingClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	c.sleeps = append(c.sleeps, d)
	c.mu.Unlock()
	return nil
}

// Sleeps returns a copy of the recorded delays in call order.
func (c *RecordingClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}

// Total returns the sum of the recorded delays.
func (c *RecordingClock) Total() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total time.Duration
	for _, d := range c.sleeps {
		total += d
	}
	return total
}
