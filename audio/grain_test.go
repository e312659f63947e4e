package audio

import (
	"testing"
)

func ramp(n int) []float32 {
	buf := make([]float32, n)
	for i := range buf {
		buf[i] = float32(i+1) / float32(n)
	}
	return buf
}

func TestGrainRoundTrip(t *testing.T) {
	const size = 8
	buf := ramp(16)
	n := len(buf)

	// Starts that stay inside the buffer, cross its end, and begin before its start.
	for _, start := range []int{0, 12, n - 1, -3} {
		pool := NewGrainPool(1)
		if !pool.Trigger(float64(start), 1, size, n) {
			t.Fatal("trigger failed on an empty pool")
		}
		for k := 0; k < size; k++ {
			i := ((start+k)%n + n) % n
			want := buf[i] * float32(triangle(float64(k)/size))
			if got := pool.Process(buf, n); want != got {
				t.Errorf("start %d, sample %d: want %v, got %v", start, k, want, got)
			}
		}
		if want, got := 0, pool.Active(); want != got {
			t.Errorf("start %d: grain still active after its size: want %v, got %v", start, want, got)
		}
		if got := pool.Process(buf, n); got != 0 {
			t.Errorf("start %d: finished grain produced output: %v", start, got)
		}
	}
}

func TestGrainInterpolation(t *testing.T) {
	buf := []float32{0, 1, 2, 3, 4, 5, 6, 7}
	pool := NewGrainPool(1)
	pool.Trigger(0, 0.5, 8, len(buf))

	want := []float32{0, 0.5 * 0.25, 1 * 0.5, 1.5 * 0.75}
	for k, w := range want {
		if got := pool.Process(buf, len(buf)); w != got {
			t.Errorf("sample %d: want %v, got %v", k, w, got)
		}
	}
}

func TestGrainWrap(t *testing.T) {
	buf := ramp(16)
	pool := NewGrainPool(2)

	pool.Trigger(-3, 1, 8, len(buf))
	if want, got := 13.0, pool.grains[0].pos; want != got {
		t.Errorf("negative start: want %v, got %v", want, got)
	}

	pool.Trigger(15, 1, 8, len(buf))
	pool.Process(buf, len(buf))
	if want, got := 0.0, pool.grains[1].pos; want != got {
		t.Errorf("read past end: want %v, got %v", want, got)
	}

	// The buffer shrinks under a running grain.
	pool.Process(buf, 4)
	for i, g := range pool.grains {
		if g.pos < 0 || g.pos >= 4 {
			t.Errorf("grain %d outside shrunk buffer: %v", i, g.pos)
		}
	}
}

func TestGrainSizeFloor(t *testing.T) {
	pool := NewGrainPool(1)
	pool.Trigger(0, 1, 1, 16)
	if want, got := MinGrainSize, pool.grains[0].env.size; want != got {
		t.Errorf("want size %v, got %v", want, got)
	}
}

func TestGrainPoolExhausted(t *testing.T) {
	pool := NewGrainPool(2)
	for i, want := range []bool{true, true, false} {
		if got := pool.Trigger(0, 1, 100, 16); want != got {
			t.Errorf("trigger %d: want %v, got %v", i, want, got)
		}
	}
	if want, got := 2, pool.Active(); want != got {
		t.Errorf("want %v active grains, got %v", want, got)
	}

	pool.Reset()
	if want, got := 0, pool.Active(); want != got {
		t.Errorf("want %v active grains after reset, got %v", want, got)
	}
}

func TestWrapPosition(t *testing.T) {
	tests := []struct {
		p    float64
		n    int
		want float64
	}{
		{0, 10, 0},
		{9.5, 10, 9.5},
		{10, 10, 0},
		{23, 10, 3},
		{-1, 10, 9},
		{-0.5, 10, 9.5},
		{-30, 10, 0},
	}
	for _, test := range tests {
		if got := wrapPosition(test.p, test.n); got != test.want {
			t.Errorf("wrap %v into %v: want %v, got %v", test.p, test.n, test.want, got)
		}
	}
}
