package control

import (
	"reflect"
	"testing"
	"time"

	"github.com/mrdg/dust/audio"
	"github.com/rakyll/portmidi"
	"gonum.org/v1/gonum/floats/scalar"
)

func TestMIDIAbsoluteBinding(t *testing.T) {
	params := audio.NewParams()
	m := NewMIDI(DefaultMIDIConfig(), params, nil)

	tests := []struct {
		data int64
		want float64
	}{
		{0, 20},
		{127, 300},
	}
	for _, test := range tests {
		m.Handle(portmidi.Event{Status: controlChange, Data1: 14 + int64(audio.Tempo), Data2: test.data}, time.Now())
		if want, got := test.want, params.Effective(audio.Tempo); want != got {
			t.Errorf("value %v: want %v, got %v", test.data, want, got)
		}
	}

	// Channel bits are ignored.
	m.Handle(portmidi.Event{Status: controlChange | 0x03, Data1: 14 + int64(audio.Mix), Data2: 127}, time.Now())
	if want, got := 1.0, params.Effective(audio.Mix); want != got {
		t.Errorf("want %v, got %v", want, got)
	}
}

func TestMIDIRelativeBinding(t *testing.T) {
	params := audio.NewParams()
	cfg := DefaultMIDIConfig()
	cfg.Bindings = []Binding{{CC: 30, Param: audio.Tempo, Relative: true}}
	m := NewMIDI(cfg, params, nil)

	m.Handle(portmidi.Event{Status: controlChange, Data1: 30, Data2: 3}, time.Now())
	if want, got := 123.0, params.Effective(audio.Tempo); want != got {
		t.Errorf("want %v, got %v", want, got)
	}
	m.Handle(portmidi.Event{Status: controlChange, Data1: 30, Data2: 126}, time.Now())
	if want, got := 121.0, params.Effective(audio.Tempo); want != got {
		t.Errorf("want %v, got %v", want, got)
	}
}

func TestMIDIModulation(t *testing.T) {
	params := audio.NewParams()
	params.SetRaw(audio.ModDepth, 1)
	m := NewMIDI(DefaultMIDIConfig(), params, nil)

	m.Handle(portmidi.Event{Status: controlChange, Data1: 1, Data2: 127}, time.Now())
	if want, got := 1.0, params.Modulation(audio.Spray); !scalar.EqualWithinAbs(want, got, 1e-12) {
		t.Errorf("want %v, got %v", want, got)
	}
	if want, got := 1.0, params.Effective(audio.Spray); want != got {
		t.Errorf("want %v, got %v", want, got)
	}
	if want, got := 0.0, params.Modulation(audio.Mix); want != got {
		t.Errorf("untargeted parameter modulated: %v", got)
	}
}

func TestMIDIFootswitch(t *testing.T) {
	var rec recorder
	g := NewGesture(DefaultGestureConfig(), &rec)
	m := NewMIDI(DefaultMIDIConfig(), audio.NewParams(), g)
	start := time.Unix(0, 0)

	m.Handle(portmidi.Event{Status: noteOn, Data1: 64, Data2: 100}, start)
	m.Handle(portmidi.Event{Status: noteOff, Data1: 64}, start.Add(50*time.Millisecond))
	m.Handle(portmidi.Event{Status: noteOn, Data1: 64, Data2: 100}, start.Add(100*time.Millisecond))
	// Note on with zero velocity is a release.
	m.Handle(portmidi.Event{Status: noteOn, Data1: 64, Data2: 0}, start.Add(150*time.Millisecond))
	// Other notes are ignored.
	m.Handle(portmidi.Event{Status: noteOn, Data1: 60, Data2: 100}, start.Add(200*time.Millisecond))

	if want, got := []Action{DoubleClick}, rec.actions; !reflect.DeepEqual(want, got) {
		t.Errorf("want %v, got %v", want, got)
	}
}

func TestParseBindings(t *testing.T) {
	got, err := ParseBindings("20:density, 21:spray:rel")
	if err != nil {
		t.Fatal(err)
	}
	want := []Binding{
		{CC: 20, Param: audio.Density},
		{CC: 21, Param: audio.Spray, Relative: true},
	}
	if !reflect.DeepEqual(want, got) {
		t.Errorf("wrong bindings:\nwant: %+v\ngot:  %+v", want, got)
	}

	for _, bad := range []string{"20", "x:density", "200:density", "20:volume", "20:density:abs"} {
		if _, err := ParseBindings(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestEncoderTicks(t *testing.T) {
	for v, want := range map[int64]int{0: 0, 1: 1, 63: 63, 64: 0, 65: -63, 127: -1} {
		if got := encoderTicks(v); got != want {
			t.Errorf("encoder value %v: want %v, got %v", v, want, got)
		}
	}
}
