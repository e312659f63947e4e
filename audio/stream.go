package audio

import (
	"github.com/gopxl/beep"
)

// Stream runs src through the engine in blocks of BlockSize. A nil src feeds the
// engine silence and never ends.
func (e *Engine) Stream(src beep.Streamer) beep.Streamer {
	block := e.cfg.BlockSize
	in := [][]float32{make([]float32, block), make([]float32, block)}
	out := [][]float32{make([]float32, block), make([]float32, block)}
	inView := make([][]float32, 2)
	outView := make([][]float32, 2)

	return beep.StreamerFunc(func(samples [][2]float64) (n int, ok bool) {
		if src == nil {
			clear(samples)
			n, ok = len(samples), true
		} else {
			n, ok = src.Stream(samples)
		}

		for i := 0; i < n; i += block {
			m := min(block, n-i)
			for j := 0; j < m; j++ {
				in[0][j] = float32(samples[i+j][0])
				in[1][j] = float32(samples[i+j][1])
			}
			for c := range inView {
				inView[c] = in[c][:m]
				outView[c] = out[c][:m]
			}
			e.Process(inView, outView)
			for j := 0; j < m; j++ {
				samples[i+j][0] = float64(out[0][j])
				samples[i+j][1] = float64(out[1][j])
			}
		}
		return n, ok
	})
}

// Resample converts src to the engine sample rate if it runs at another rate.
func (e *Engine) Resample(src beep.Streamer, rate int) beep.Streamer {
	to := beep.SampleRate(int(e.cfg.SampleRate))
	if beep.SampleRate(rate) == to {
		return src
	}
	return beep.Resample(4, beep.SampleRate(rate), to, src)
}
