package audio

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestParamsDefaults(t *testing.T) {
	p := NewParams()
	for param := Param(0); param < NumParams; param++ {
		d := param.Descriptor()
		if want, got := d.Default, p.Effective(param); want != got {
			t.Errorf("%v: want default %v, got %v", param, want, got)
		}
		if d.Default < d.Min || d.Default > d.Max {
			t.Errorf("%v: default %v outside [%v, %v]", param, d.Default, d.Min, d.Max)
		}
	}
}

func TestParamsClamp(t *testing.T) {
	tests := []struct {
		param Param
		set   float64
		want  float64
	}{
		{Tempo, 1000, 300},
		{Tempo, 0, 20},
		{Mix, -1, 0},
		{Pitch, 0.1, 0.25},
		{Density, 0, 0.1},
		{GrainSize, 2, 1},
		{Division, 4, 4},
	}
	for _, test := range tests {
		p := NewParams()
		p.SetRaw(test.param, test.set)
		if want, got := test.want, p.Effective(test.param); want != got {
			t.Errorf("%v set to %v: want %v, got %v", test.param, test.set, want, got)
		}
	}

	p := NewParams()
	p.SetRaw(Tempo, math.NaN())
	if want, got := 120.0, p.Raw(Tempo); want != got {
		t.Errorf("NaN was not ignored: want %v, got %v", want, got)
	}
}

func TestParamsNudge(t *testing.T) {
	p := NewParams()
	p.Nudge(Tempo, 3, false)
	if want, got := 123.0, p.Effective(Tempo); want != got {
		t.Errorf("fine nudge: want %v, got %v", want, got)
	}
	p.Nudge(Tempo, -2, true)
	if want, got := 113.0, p.Effective(Tempo); want != got {
		t.Errorf("coarse nudge: want %v, got %v", want, got)
	}
	p.Nudge(Division, 100, true)
	if want, got := 16.0, p.Effective(Division); want != got {
		t.Errorf("nudge past max: want %v, got %v", want, got)
	}
}

func TestParamsModulation(t *testing.T) {
	p := NewParams()

	p.SetModulation(Pitch, 1)
	if want, got := 1.0, p.Effective(Pitch); want != got {
		t.Errorf("modulation without depth: want %v, got %v", want, got)
	}

	p.SetRaw(ModDepth, 1)
	if want, got := 4.0, p.Effective(Pitch); want != got {
		t.Errorf("depth change did not refresh pitch: want %v, got %v", want, got)
	}
	if want, got := 1.0, p.Raw(Pitch); want != got {
		t.Errorf("raw value changed by modulation: want %v, got %v", want, got)
	}

	p.SetRaw(ModDepth, 0.5)
	p.SetModulation(Mix, 0.4)
	if want, got := 0.7, p.Effective(Mix); !scalar.EqualWithinAbs(want, got, 1e-12) {
		t.Errorf("modulated mix: want %v, got %v", want, got)
	}

	p.SetModulation(Mix, -5)
	if want, got := -1.0, p.Modulation(Mix); want != got {
		t.Errorf("offset not clamped: want %v, got %v", want, got)
	}
	if want, got := 0.0, p.Effective(Mix); want != got {
		t.Errorf("modulated mix below range: want %v, got %v", want, got)
	}
}

func TestParamsDevice(t *testing.T) {
	p := NewParams()
	if err := p.Set("density", 20); err != nil {
		t.Fatal(err)
	}
	v, err := p.Get("density")
	if err != nil {
		t.Fatal(err)
	}
	if want, got := 20.0, v.(float64); want != got {
		t.Errorf("want %v, got %v", want, got)
	}
	if err := p.Set("nope", 1.0); err == nil {
		t.Errorf("expected error for unknown parameter")
	}
	if err := p.Set("mix", "loud"); err == nil {
		t.Errorf("expected error for non-numeric value")
	}
}

func TestNormalize(t *testing.T) {
	d := Tempo.Descriptor()
	for _, test := range []struct{ v, want float64 }{
		{20, 0},
		{300, 1},
		{160, 0.5},
		{1000, 1},
	} {
		if got := d.Normalize(test.v); got != test.want {
			t.Errorf("normalize %v: want %v, got %v", test.v, test.want, got)
		}
	}
}

func TestLookup(t *testing.T) {
	for param := Param(0); param < NumParams; param++ {
		got, ok := Lookup(param.String())
		if !ok || got != param {
			t.Errorf("lookup %q: want %v, got %v (%v)", param.String(), param, got, ok)
		}
	}
	if _, ok := Lookup("volume"); ok {
		t.Errorf("found unknown parameter")
	}
}

func TestLoadPreset(t *testing.T) {
	p := NewParams()
	if err := LoadPreset("stutter", p); err != nil {
		t.Fatal(err)
	}
	if want, got := 4.0, p.Effective(Division); want != got {
		t.Errorf("division: want %v, got %v", want, got)
	}
	if want, got := 0.03, p.Effective(GrainSize); want != got {
		t.Errorf("grain size: want %v, got %v", want, got)
	}

	if err := LoadPreset("default", p); err != nil {
		t.Fatal(err)
	}
	for param := Param(0); param < NumParams; param++ {
		if want, got := param.Descriptor().Default, p.Effective(param); want != got {
			t.Errorf("%v after default preset: want %v, got %v", param, want, got)
		}
	}

	if err := LoadPreset("missing", p); err == nil {
		t.Errorf("expected error for unknown preset")
	}
	for _, name := range PresetNames() {
		if err := LoadPreset(name, NewParams()); err != nil {
			t.Errorf("preset %s: %v", name, err)
		}
	}
}
