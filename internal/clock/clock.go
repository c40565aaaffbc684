// Package clock provides an injectable time source so that report
// boundaries and booking timestamps are deterministic in tests.
package clock

import "time"

type Clock interface {
	Now() time.Time
}

// System reads the wall clock.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Fixed always reports the same instant. Test use only.
type Fixed struct {
	At time.Time
}

func (f Fixed) Now() time.Time { return f.At }
