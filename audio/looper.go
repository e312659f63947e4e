package audio

import (
	"sync"
	"sync/atomic"

	imath "github.com/pkg/math"
)

type LoopState int

const (
	Empty LoopState = iota
	Recording
	Playing
	Stopped
)

func (s LoopState) String() string {
	switch s {
	case Empty:
		return "EMPTY"
	case Recording:
		return "REC"
	case Playing:
		return "PLAY"
	case Stopped:
		return "STOP"
	default:
		return "UNKNOWN"
	}
}

// loopHandle is everything the audio callback needs to know about the looper. A
// handle's structure never changes after it is published: transitions build a new one
// and swap it in, so a buffer index is never paired with another state's cursors or
// length. Only the cursors move, and only the audio callback moves them.
type loopHandle struct {
	state   LoopState
	active  int // buffer index being played back and granulated
	record  int // buffer index being recorded into
	loopLen int // committed loop length, 0 when nothing has been committed

	recPos  atomic.Uint32
	playPos atomic.Uint32
	full    atomic.Bool
}

// Looper owns the two loop buffers and the record/play state machine. Transitions are
// called from the control side and never block the audio callback.
type Looper struct {
	mu      sync.Mutex // serializes transitions; never taken by the audio callback
	bufs    [2][]float32
	minLoop int
	handle  atomic.Pointer[loopHandle]
	cleared atomic.Bool
}

func NewLooper(capacity, minLoop int) *Looper {
	l := &Looper{
		bufs:    [2][]float32{make([]float32, capacity), make([]float32, capacity)},
		minLoop: imath.Max(minBufferLen, imath.Min(minLoop, capacity)),
	}
	l.handle.Store(&loopHandle{state: Empty, active: 0, record: 1})
	return l
}

func (l *Looper) Capacity() int { return len(l.bufs[0]) }

func (l *Looper) State() LoopState { return l.handle.Load().state }

func (l *Looper) RecordCursor() int { return int(l.handle.Load().recPos.Load()) }

func (l *Looper) PlayCursor() int { return int(l.handle.Load().playPos.Load()) }

// LoopLength returns the committed loop length, or 0 if no loop has been committed.
func (l *Looper) LoopLength() int { return l.handle.Load().loopLen }

// TakeCleared reports whether the loop was reset since the last call.
func (l *Looper) TakeCleared() bool { return l.cleared.Swap(false) }

// Click is a short press of the looper button.
func (l *Looper) Click() {
	l.mu.Lock()
	defer l.mu.Unlock()

	h := l.handle.Load()
	switch h.state {
	case Empty:
		// Neither loop buffer is touched by the audio callback while empty.
		clear(l.bufs[h.record])
		clear(l.bufs[h.active])
		l.publish(&loopHandle{state: Recording, active: h.active, record: h.record})
	case Recording:
		l.publish(l.commit(h, Playing))
	case Playing:
		// Overdub: keep playing the committed loop while recording a new pass.
		clear(l.bufs[h.record])
		l.publish(&loopHandle{state: Recording, active: h.active, record: h.record, loopLen: h.loopLen})
	case Stopped:
		l.publish(&loopHandle{state: Playing, active: h.active, record: h.record, loopLen: h.loopLen})
	}
}

// DoubleClick stops playback. A pass that is being recorded is committed first so
// that a later Click has a loop to play.
func (l *Looper) DoubleClick() {
	l.mu.Lock()
	defer l.mu.Unlock()

	h := l.handle.Load()
	switch h.state {
	case Recording:
		l.publish(l.commit(h, Stopped))
	case Playing:
		l.publish(&loopHandle{state: Stopped, active: h.active, record: h.record, loopLen: h.loopLen})
	}
}

// Hold resets the looper to empty from any other state.
func (l *Looper) Hold() {
	l.mu.Lock()
	defer l.mu.Unlock()

	h := l.handle.Load()
	if h.state == Empty {
		return
	}
	// The buffers are not read again until the next recording is armed, and arming
	// clears both of them.
	l.publish(&loopHandle{state: Empty, active: h.active, record: h.record})
	l.cleared.Store(true)
}

// commit turns the pass recorded in h into the playback loop.
func (l *Looper) commit(h *loopHandle, next LoopState) *loopHandle {
	n := imath.Max(int(h.recPos.Load()), l.minLoop)
	n = imath.Min(n, l.Capacity())
	return &loopHandle{state: next, active: h.record, record: h.active, loopLen: n}
}

func (l *Looper) publish(h *loopHandle) {
	l.handle.Store(h)
}

// load returns the current handle. The audio callback loads it once per block.
func (l *Looper) load() *loopHandle { return l.handle.Load() }

// record writes one sample of the current pass. Once the buffer is full further
// samples are dropped, and full reports the first one.
func (l *Looper) record(h *loopHandle, v float32) (full bool) {
	pos := h.recPos.Load()
	buf := l.bufs[h.record]
	if int(pos) >= len(buf) {
		return !h.full.Swap(true)
	}
	buf[pos] = v
	h.recPos.Store(pos + 1)
	return false
}

// advance moves the play cursor forward, wrapping at the loop length.
func (l *Looper) advance(h *loopHandle) {
	if h.loopLen <= 0 {
		return
	}
	pos := h.playPos.Load() + 1
	if int(pos) >= h.loopLen {
		pos = 0
	}
	h.playPos.Store(pos)
}
