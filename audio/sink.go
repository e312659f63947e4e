package audio

import (
	"github.com/gordonklaus/portaudio"
	"github.com/pkg/errors"
)

// Processor renders one block of output from one block of input.
type Processor interface {
	Process(in, out [][]float32)
}

// Sink runs a Processor on the default duplex portaudio stream.
type Sink struct {
	proc   Processor
	stream *portaudio.Stream
}

func NewSink(cfg Config, proc Processor) (*Sink, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, errors.Wrap(err, "initialize portaudio")
	}
	s := &Sink{proc: proc}
	stream, err := portaudio.OpenDefaultStream(2, 2, cfg.SampleRate, cfg.BlockSize, s.process)
	if err != nil {
		portaudio.Terminate()
		return nil, errors.Wrap(err, "open default stream")
	}
	s.stream = stream
	return s, nil
}

func (s *Sink) Start() error {
	return errors.Wrap(s.stream.Start(), "start stream")
}

func (s *Sink) Stop() error {
	err := s.stream.Close()
	portaudio.Terminate()
	return errors.Wrap(err, "close stream")
}

func (s *Sink) process(in, out [][]float32) {
	for i := range out {
		clear(out[i])
	}
	s.proc.Process(in, out)
}
