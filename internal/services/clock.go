package services

import "time"

// Clock abstracts wall time so schedulers and due-window checks can be
// driven by a fake in tests.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }
