// Package clock abstracts time so expiry math is deterministic in tests.
package clock

import "time"

// Clock supplies the current time. All expiry evaluation is relative to it.
type Clock interface {
	Now() time.Time
}

// System reads the wall clock.
type System struct{}

// Now returns the current wall-clock time in UTC.
func (System) Now() time.Time { return time.Now().UTC() }
