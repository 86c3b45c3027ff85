package uictl

import "golang.org/x/exp/constraints"

type Number interface {
	constraints.Integer | constraints.Float
}

// Levels is a control that exposes a window of recent signal levels,
// newest last. Readers treat the slice as read-only.
type Levels[N Number] interface {
	Read() []N
}

// Clamp pins v to the inclusive range [lo, hi].
func Clamp[N Number](v, lo, hi N) N {
	if v < lo {
		return lo
	}

	if v > hi {
		return hi
	}

	return v
}
