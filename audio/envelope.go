package audio

import "math"

// triangle is the grain window: a linear ramp from 0 to 1 over the first half of the
// grain's life and back to 0 over the second half.
func triangle(phase float64) float64 {
	if phase < 0.5 {
		return phase * 2
	}
	return (1 - phase) * 2
}

// envelope tracks how far a grain is through its life. Phase is derived from an
// integer age so it reaches exactly 1 after size steps.
type envelope struct {
	age  int
	size int
}

func (e *envelope) start(size int) {
	e.age = 0
	e.size = size
}

func (e *envelope) phase() float64 {
	return float64(e.age) / float64(e.size)
}

// value returns the current amplitude and advances the envelope by one sample.
func (e *envelope) value() float64 {
	amp := triangle(e.phase())
	e.age++
	return amp
}

func (e *envelope) done() bool {
	return e.age >= e.size
}

// wrapPosition folds p into [0, n). Positions pushed past the end re-enter from the
// start and negative positions re-enter from the end.
func wrapPosition(p float64, n int) float64 {
	l := float64(n)
	if p >= 0 && p < l {
		return p
	}
	p = math.Mod(p, l)
	if p < 0 {
		p += l
	}
	if p >= l {
		p = 0
	}
	return p
}
