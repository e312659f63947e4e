package control

import (
	"context"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/mrdg/dust/audio"
	"github.com/pkg/errors"
	"github.com/rakyll/portmidi"
)

const (
	noteOff       = 0x80
	noteOn        = 0x90
	controlChange = 0xb0
)

// Binding maps a control change number to a parameter. Absolute bindings spread
// 0..127 across the parameter's range. Relative bindings treat the value as encoder
// ticks: 1..63 turn up, 65..127 turn down.
type Binding struct {
	CC       int64
	Param    audio.Param
	Relative bool
}

type MIDIConfig struct {
	Device     int // portmidi device id, -1 for the default input
	Bindings   []Binding
	Footswitch int64         // note number acting as the looper button
	ModCC      int64         // control change driving the modulation source
	ModTargets []audio.Param // parameters the modulation source is applied to
}

func DefaultMIDIConfig() MIDIConfig {
	cfg := MIDIConfig{
		Device:     -1,
		Footswitch: 64,
		ModCC:      1,
		ModTargets: []audio.Param{audio.Pitch, audio.GrainSize, audio.Spray},
	}
	for p := audio.Param(0); p < audio.NumParams; p++ {
		cfg.Bindings = append(cfg.Bindings, Binding{CC: 14 + int64(p), Param: p})
	}
	return cfg
}

// ParseBindings parses a comma separated list of cc:param bindings. A third field
// "rel" makes the binding relative, e.g. "20:density,21:spray:rel".
func ParseBindings(s string) ([]Binding, error) {
	var bindings []Binding
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		parts := strings.Split(field, ":")
		if len(parts) < 2 || len(parts) > 3 {
			return nil, errors.Errorf("invalid binding %q", field)
		}
		cc, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil || cc < 0 || cc > 127 {
			return nil, errors.Errorf("invalid control change number in %q", field)
		}
		param, ok := audio.Lookup(parts[1])
		if !ok {
			return nil, errors.Errorf("unknown parameter in %q", field)
		}
		b := Binding{CC: cc, Param: param}
		if len(parts) == 3 {
			if parts[2] != "rel" {
				return nil, errors.Errorf("invalid binding mode in %q", field)
			}
			b.Relative = true
		}
		bindings = append(bindings, b)
	}
	return bindings, nil
}

// MIDI turns input from a MIDI controller into parameter changes and looper button
// edges.
type MIDI struct {
	cfg      MIDIConfig
	params   *audio.Params
	gesture  *Gesture
	bindings map[int64]Binding
	stream   *portmidi.Stream
}

func NewMIDI(cfg MIDIConfig, params *audio.Params, gesture *Gesture) *MIDI {
	m := &MIDI{
		cfg:      cfg,
		params:   params,
		gesture:  gesture,
		bindings: make(map[int64]Binding),
	}
	for _, b := range cfg.Bindings {
		m.bindings[b.CC] = b
	}
	return m
}

// Open opens the configured input device.
func (m *MIDI) Open() error {
	if err := portmidi.Initialize(); err != nil {
		return errors.Wrap(err, "initialize portmidi")
	}
	id := portmidi.DeviceID(m.cfg.Device)
	if m.cfg.Device < 0 {
		id = portmidi.DefaultInputDeviceID()
	}
	if id < 0 {
		portmidi.Terminate()
		return errors.New("no midi input device")
	}
	stream, err := portmidi.NewInputStream(id, 1024)
	if err != nil {
		portmidi.Terminate()
		return errors.Wrapf(err, "open midi device %d", id)
	}
	if info := portmidi.Info(id); info != nil {
		log.Printf("midi: listening on %s", info.Name)
	}
	m.stream = stream
	return nil
}

func (m *MIDI) Close() error {
	if m.stream == nil {
		return nil
	}
	err := m.stream.Close()
	portmidi.Terminate()
	return errors.Wrap(err, "close midi stream")
}

// Run reads events from the device until ctx is done.
func (m *MIDI) Run(ctx context.Context) error {
	if m.stream == nil {
		return errors.New("midi device not open")
	}
	ticker := time.NewTicker(2 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case t := <-ticker.C:
			events, err := m.stream.Read(1024)
			if err != nil {
				return errors.Wrap(err, "read midi")
			}
			for _, ev := range events {
				m.Handle(ev, t)
			}
		}
	}
}

// Handle applies a single event received at t.
func (m *MIDI) Handle(ev portmidi.Event, t time.Time) {
	switch ev.Status & 0xf0 {
	case noteOn:
		if ev.Data1 != m.cfg.Footswitch || m.gesture == nil {
			return
		}
		if ev.Data2 == 0 {
			m.gesture.Release(t)
		} else {
			m.gesture.Press(t)
		}
	case noteOff:
		if ev.Data1 == m.cfg.Footswitch && m.gesture != nil {
			m.gesture.Release(t)
		}
	case controlChange:
		if ev.Data1 == m.cfg.ModCC {
			offset := float64(ev.Data2)/63.5 - 1
			for _, p := range m.cfg.ModTargets {
				m.params.SetModulation(p, offset)
			}
			return
		}
		b, ok := m.bindings[ev.Data1]
		if !ok {
			return
		}
		if b.Relative {
			m.params.Nudge(b.Param, encoderTicks(ev.Data2), false)
			return
		}
		d := b.Param.Descriptor()
		m.params.SetRaw(b.Param, d.Min+float64(ev.Data2)/127*(d.Max-d.Min))
	}
}

func encoderTicks(v int64) int {
	switch {
	case v == 0 || v == 64:
		return 0
	case v < 64:
		return int(v)
	default:
		return int(v - 128)
	}
}
