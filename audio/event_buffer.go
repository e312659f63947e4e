package audio

import (
	"fmt"
	"sync/atomic"
)

type NoticeKind int

const (
	GrainDropped NoticeKind = iota
	RecordFull
)

// Notice is something the audio callback wants the control side to know about.
type Notice struct {
	Kind    NoticeKind
	Channel int
	Sample  uint64 // engine clock when it happened
}

func (n Notice) String() string {
	switch n.Kind {
	case GrainDropped:
		return fmt.Sprintf("grain dropped on channel %d at sample %d", n.Channel, n.Sample)
	case RecordFull:
		return fmt.Sprintf("record buffer full at sample %d", n.Sample)
	default:
		return fmt.Sprintf("notice %d at sample %d", int(n.Kind), n.Sample)
	}
}

// eventBuffer is a lock-free spsc queue. The audio callback is the only producer and
// never waits: when the queue is full the notice is dropped.
type eventBuffer struct {
	events      []Notice
	read, write *uint32
	dropped     *uint32
}

func newEventBuffer(size int) *eventBuffer {
	if size <= 0 || size&(size-1) != 0 {
		panic("event buffer size must be a power of 2")
	}
	return &eventBuffer{
		events:  make([]Notice, size),
		read:    new(uint32),
		write:   new(uint32),
		dropped: new(uint32),
	}
}

func (b *eventBuffer) push(ev Notice) bool {
	write := atomic.LoadUint32(b.write)
	if write-atomic.LoadUint32(b.read) == uint32(len(b.events)) {
		atomic.AddUint32(b.dropped, 1)
		return false
	}
	b.events[write%uint32(len(b.events))] = ev
	atomic.StoreUint32(b.write, write+1)
	return true
}

func (b *eventBuffer) iter(f func(Notice)) {
	read := atomic.LoadUint32(b.read)
	write := atomic.LoadUint32(b.write)
	for read != write {
		f(b.events[read%uint32(len(b.events))])
		read++
	}
	atomic.StoreUint32(b.read, read)
}

// overflowed returns how many notices were dropped since the last call.
func (b *eventBuffer) overflowed() int {
	return int(atomic.SwapUint32(b.dropped, 0))
}
