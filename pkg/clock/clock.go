// Package clock provides time abstractions for production and testing
package clock

import "time"

// Clock is the time source used by services with timers
type Clock interface {
	After(d time.Duration) <-chan time.Time
	Now() time.Time
}

// SystemClock provides production time implementation using the standard library
type SystemClock struct{}

var _ Clock = SystemClock{}

// After returns a channel that sends the current time after the specified duration
func (SystemClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// Now returns the current time
func (SystemClock) Now() time.Time {
	return time.Now()
}
