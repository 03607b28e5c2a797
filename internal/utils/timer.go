package utils

import "time"

// Timer measures wall-clock time between NewTimer (or Start) and Stop.
type Timer struct {
	startTime time.Time
	duration  time.Duration
}

// NewTimer returns a running Timer.
func NewTimer() *Timer {
	return &Timer{startTime: time.Now()}
}

// Start restarts the measurement.
func (t *Timer) Start() {
	t.startTime = time.Now()
	t.duration = 0
}

// Stop captures the elapsed time and returns it.
func (t *Timer) Stop() time.Duration {
	t.duration = time.Since(t.startTime)
	return t.duration
}

// GetDuration returns the value captured by the last Stop, or zero.
func (t *Timer) GetDuration() time.Duration {
	return t.duration
}
