package audio

import (
	"math"

	"github.com/pkg/errors"
)

// Config holds everything that is fixed for the lifetime of an Engine. All buffers are
// sized from it once, in NewEngine.
type Config struct {
	SampleRate     float64
	BlockSize      int     // frames per audio callback
	Grains         int     // voices per channel
	DelaySeconds   float64 // live delay buffer capacity
	LoopSeconds    float64 // capacity of each loop buffer
	MinLoopSeconds float64 // shortest loop a commit can produce
	Seed           uint32
}

func DefaultConfig() Config {
	return Config{
		SampleRate:     48000,
		BlockSize:      4,
		Grains:         8,
		DelaySeconds:   2,
		LoopSeconds:    20,
		MinLoopSeconds: 0.1,
		Seed:           1,
	}
}

func (c Config) Validate() error {
	switch {
	case c.SampleRate <= 0 || math.IsNaN(c.SampleRate) || math.IsInf(c.SampleRate, 0):
		return errors.Errorf("invalid sample rate: %v", c.SampleRate)
	case c.BlockSize <= 0:
		return errors.Errorf("invalid block size: %d", c.BlockSize)
	case c.Grains <= 0:
		return errors.Errorf("invalid grain count: %d", c.Grains)
	case c.samples(c.DelaySeconds) < minBufferLen:
		return errors.Errorf("delay buffer too short: %vs", c.DelaySeconds)
	case c.samples(c.LoopSeconds) < minBufferLen:
		return errors.Errorf("loop buffer too short: %vs", c.LoopSeconds)
	case c.MinLoopSeconds < 0:
		return errors.Errorf("invalid minimum loop length: %vs", c.MinLoopSeconds)
	}
	return nil
}

func (c Config) samples(seconds float64) int {
	return int(seconds * c.SampleRate)
}
