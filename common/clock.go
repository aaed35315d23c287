// file: common/clock.go

package common

import "time"

// Clock abstracts time.Now so that expiry logic can be driven by a fake
// clock in tests instead of the wall clock.
type Clock interface {
	Now() time.Time
}

// RealClock is the production Clock backed by the system time.
type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now().UTC()
}
