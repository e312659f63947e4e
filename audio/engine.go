package audio

import (
	"math"
	"sync/atomic"

	imath "github.com/pkg/math"
)

const (
	left  = 0
	right = 1

	// grainGain attenuates the unnormalized grain sum of each channel.
	grainGain = 0.5
)

// Engine is the per-sample processor: gain staging, the live delay line, the looper
// and a grain pool per output channel. Process is called from the audio callback; Tick
// and the parameter and looper methods are called from the control side.
type Engine struct {
	cfg    Config
	params *Params
	looper *Looper

	live     []float32
	writePos atomic.Uint32
	delayLen atomic.Uint32

	pools     [2]*GrainPool
	counters  [2]uint32
	intervals [2]atomic.Uint32
	rand      *Rand // audio callback only
	tickRand  *Rand // control side only

	notices *eventBuffer
	clock   uint64
	peak    atomic.Uint32
	grains  atomic.Uint32
}

func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:      cfg,
		params:   NewParams(),
		looper:   NewLooper(cfg.samples(cfg.LoopSeconds), cfg.samples(cfg.MinLoopSeconds)),
		live:     make([]float32, cfg.samples(cfg.DelaySeconds)),
		pools:    [2]*GrainPool{NewGrainPool(cfg.Grains), NewGrainPool(cfg.Grains)},
		rand:     NewRand(cfg.Seed),
		tickRand: NewRand(cfg.Seed ^ 0x9e3779b9),
		notices:  newEventBuffer(256),
	}
	e.Tick()
	return e, nil
}

func (e *Engine) Config() Config { return e.cfg }

func (e *Engine) Params() *Params { return e.params }

func (e *Engine) Looper() *Looper { return e.looper }

// Tick recomputes the values derived from parameters. It runs at control rate.
func (e *Engine) Tick() {
	p := e.params
	sr := e.cfg.SampleRate

	n := DelayLength(p.Effective(Tempo), p.Effective(Division), sr, len(e.live))
	e.delayLen.Store(uint32(n))
	if w := e.writePos.Load(); int(w) >= n {
		e.writePos.CompareAndSwap(w, 0)
	}

	density, width := p.Effective(Density), p.Effective(Width)
	for c := range e.intervals {
		e.intervals[c].Store(TriggerInterval(density, width, sr, e.tickRand.Next()))
	}
}

// BufferLength is the length grains currently wrap at: the committed loop length
// while a loop exists, otherwise the tempo-derived delay length.
func (e *Engine) BufferLength() int {
	return e.bufferLen(e.looper.load())
}

func (e *Engine) bufferLen(h *loopHandle) int {
	if h.state != Empty && h.loopLen > 0 {
		return h.loopLen
	}
	return int(e.delayLen.Load())
}

// Interval returns the current grain trigger interval of a channel in samples.
func (e *Engine) Interval(channel int) uint32 {
	return e.intervals[channel].Load()
}

// Process renders one block. in may be empty (no input device) or mono; out must have
// at least one channel and every channel the same length.
func (e *Engine) Process(in, out [][]float32) {
	if len(out) == 0 {
		return
	}
	h := e.looper.load()
	var peak float32
	for i := range out[0] {
		var inL, inR float32
		switch {
		case len(in) == 0 || i >= len(in[0]):
		case len(in) == 1:
			inL, inR = in[0][i], in[0][i]
		default:
			inL, inR = in[0][i], in[1][i]
		}
		l, r := e.processSample(h, inL, inR)
		out[0][i] = l
		if len(out) > 1 {
			out[1][i] = r
		}
		peak = max(peak, abs(l), abs(r))
	}
	if bits := math.Float32bits(peak); bits > e.peak.Load() {
		e.peak.Store(bits)
	}
	e.grains.Store(uint32(e.pools[left].Active() + e.pools[right].Active()))
}

// ProcessSample renders a single stereo sample.
func (e *Engine) ProcessSample(inL, inR float32) (float32, float32) {
	return e.processSample(e.looper.load(), inL, inR)
}

func (e *Engine) processSample(h *loopHandle, inL, inR float32) (float32, float32) {
	p := e.params
	pre := float32(p.Effective(PreGain) * 2)
	post := float32(p.Effective(PostGain) * 2)
	mix := float32(p.Effective(Mix))
	fbk := float32(p.Effective(Feedback))

	inL *= pre
	inR *= pre
	wet := (inL + inR) * 0.5

	buf, n, origin := e.source(h)

	var wetL, wetR float32
	if h.state != Stopped {
		e.schedule(left, origin, n)
		e.schedule(right, origin, n)
		wetL = e.pools[left].Process(buf, n) * grainGain
		wetR = e.pools[right].Process(buf, n) * grainGain
	}

	switch h.state {
	case Empty:
		w := origin
		e.live[w] = clamp(wet + e.live[w]*fbk)
		if w++; w >= n {
			w = 0
		}
		e.writePos.Store(uint32(w))
	case Recording:
		if e.looper.record(h, clamp(wet+fbk*(wetL+wetR)*0.5)) {
			e.notices.push(Notice{Kind: RecordFull, Sample: e.clock})
		}
	case Playing:
		e.looper.advance(h)
	}
	e.clock++

	outL := (inL*(1-mix) + wetL*mix) * post
	outR := (inR*(1-mix) + wetR*mix) * post
	return outL, outR
}

// source picks the buffer grains read from, its length, and the cursor grains are
// sprayed around.
func (e *Engine) source(h *loopHandle) (buf []float32, n, origin int) {
	switch h.state {
	case Empty:
		buf = e.live
		n = imath.Min(int(e.delayLen.Load()), len(buf))
		origin = int(e.writePos.Load())
		if origin >= n {
			origin = 0
		}
		return buf, n, origin
	case Recording:
		origin = int(h.recPos.Load())
	default:
		origin = int(h.playPos.Load())
	}
	buf = e.looper.bufs[h.active]
	n = imath.Min(e.bufferLen(h), len(buf))
	return buf, n, origin
}

// schedule counts down a channel's trigger timer and starts a grain when it expires.
func (e *Engine) schedule(c int, origin, n int) {
	if e.counters[c] == 0 {
		p := e.params
		sr := e.cfg.SampleRate
		width := p.Effective(Width)
		sizeMod := (1 - width) + e.rand.Next()*width
		size := int(p.Effective(GrainSize) * sr * sizeMod)
		start := float64(origin) - e.rand.Next()*p.Effective(Spray)*0.5*sr
		if !e.pools[c].Trigger(start, p.Effective(Pitch), size, n) {
			e.notices.push(Notice{Kind: GrainDropped, Channel: c, Sample: e.clock})
		}
		interval := TriggerInterval(p.Effective(Density), width, sr, e.rand.Next())
		e.intervals[c].Store(interval)
		e.counters[c] = interval
	}
	e.counters[c]--
}

// Notices drains the notices posted by the audio callback and returns how many were
// lost because the queue was full.
func (e *Engine) Notices(f func(Notice)) int {
	e.notices.iter(f)
	return e.notices.overflowed()
}

// Status is a snapshot of the engine for display.
type Status struct {
	State        LoopState
	RecordCursor int
	PlayCursor   int
	LoopLength   int
	BufferLength int
	WriteCursor  int
	Capacity     int
	Grains       int
	Peak         float64
	Values       [NumParams]float64
}

// Status returns a snapshot for display and resets the peak meter.
func (e *Engine) Status() Status {
	h := e.looper.load()
	st := Status{
		State:        h.state,
		RecordCursor: int(h.recPos.Load()),
		PlayCursor:   int(h.playPos.Load()),
		LoopLength:   h.loopLen,
		BufferLength: e.bufferLen(h),
		WriteCursor:  int(e.writePos.Load()),
		Capacity:     e.looper.Capacity(),
		Grains:       int(e.grains.Load()),
		Peak:         float64(math.Float32frombits(e.peak.Swap(0))),
	}
	if st.WriteCursor >= st.BufferLength {
		st.WriteCursor = 0
	}
	for p := Param(0); p < NumParams; p++ {
		st.Values[p] = e.params.Effective(p)
	}
	return st
}

func clamp(v float32) float32 {
	return max(-1, min(1, v))
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
