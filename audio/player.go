package audio

import (
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"github.com/pkg/errors"
)

// Player plays a source through the engine on the default output device. It is used
// when there is no input device to run duplex, for example to process a file live.
type Player struct {
	engine *Engine
	stream beep.Streamer
	done   chan struct{}
}

// NewPlayer plays src, running at rate, through engine. Once src ends the engine keeps
// running on silence so loops and grain tails go on playing. A nil src plays the
// engine's response to silence from the start.
func NewPlayer(engine *Engine, src beep.Streamer, rate int) *Player {
	p := &Player{engine: engine, done: make(chan struct{})}
	if src == nil {
		close(p.done)
		p.stream = engine.Stream(nil)
		return p
	}
	p.stream = engine.Stream(beep.Seq(
		engine.Resample(src, rate),
		beep.Callback(func() { close(p.done) }),
		beep.Silence(-1),
	))
	return p
}

func (p *Player) Start() error {
	sr := beep.SampleRate(int(p.engine.cfg.SampleRate))
	if err := speaker.Init(sr, sr.N(time.Second/20)); err != nil {
		return errors.Wrap(err, "initialize speaker")
	}
	speaker.Play(p.stream)
	return nil
}

// Done is closed when the source has been played to the end.
func (p *Player) Done() <-chan struct{} { return p.done }

func (p *Player) Stop() error {
	speaker.Clear()
	speaker.Close()
	return nil
}
