package clock

import "time"

// Clock abstracts "now" so release-eligibility and deadline checks can be
// tested with simulated elapsed time.
type Clock interface {
	Now() time.Time
}

// System reads the wall clock.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Fixed always returns the same instant.
type Fixed struct {
	T time.Time
}

func (f Fixed) Now() time.Time { return f.T }

// At is shorthand for a Fixed clock.
func At(t time.Time) Fixed { return Fixed{T: t} }
