package audio

import (
	"math"

	imath "github.com/pkg/math"
)

const (
	minBufferLen = 4
	minDensity   = 0.1
)

// DelayLength converts tempo and division into a delay buffer length in samples:
// one bar of 4/4 divided by division, clamped to [4, capacity].
func DelayLength(tempo, division, sampleRate float64, capacity int) int {
	if tempo <= 0 || division <= 0 {
		return capacity
	}
	seconds := (60 / tempo) * (4 / division)
	n := seconds * sampleRate
	if math.IsNaN(n) || n > float64(capacity) {
		return capacity
	}
	return imath.Max(minBufferLen, imath.Min(int(n), capacity))
}

// TriggerInterval returns the number of samples until the next grain on a channel. r is
// a random value in [0, 1) that jitters the interval by up to width.
func TriggerInterval(density, width, sampleRate, r float64) uint32 {
	if density < minDensity || math.IsNaN(density) {
		density = minDensity
	}
	base := sampleRate / density
	n := uint32(base * ((1 - width) + r*width))
	if n == 0 {
		n = 1
	}
	return n
}
