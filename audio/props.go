package audio

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"
)

// Param identifies one of the engine's continuous controls.
type Param int

const (
	PreGain Param = iota
	PostGain
	Mix
	Feedback
	Tempo
	Division
	Pitch
	GrainSize
	Density
	Spray
	Width
	ModDepth
	NumParams
)

// Descriptor declares a parameter's name, range and editing step.
type Descriptor struct {
	Name    string
	Label   string
	Unit    string
	Min     float64
	Max     float64
	Default float64
	Step    float64
}

var descriptors = [NumParams]Descriptor{
	PreGain:   {Name: "pre-gain", Label: "Pre Gain", Min: 0, Max: 1, Default: 0.5, Step: 0.01},
	PostGain:  {Name: "post-gain", Label: "Post Gain", Min: 0, Max: 1, Default: 0.5, Step: 0.01},
	Mix:       {Name: "mix", Label: "Mix", Min: 0, Max: 1, Default: 0.5, Step: 0.01},
	Feedback:  {Name: "feedback", Label: "Fbk", Min: 0, Max: 1, Default: 0.5, Step: 0.01},
	Tempo:     {Name: "tempo", Label: "BPM", Unit: "bpm", Min: 20, Max: 300, Default: 120, Step: 1},
	Division:  {Name: "division", Label: "Div", Min: 1, Max: 16, Default: 1, Step: 1},
	Pitch:     {Name: "pitch", Label: "Pitch", Unit: "x", Min: 0.25, Max: 4, Default: 1, Step: 0.01},
	GrainSize: {Name: "grain-size", Label: "Size", Unit: "s", Min: 0.001, Max: 1, Default: 0.1, Step: 0.005},
	Density:   {Name: "density", Label: "Density", Unit: "Hz", Min: 0.1, Max: 100, Default: 10, Step: 0.5},
	Spray:     {Name: "spray", Label: "Spray", Min: 0, Max: 1, Default: 0, Step: 0.01},
	Width:     {Name: "width", Label: "Stereo", Min: 0, Max: 1, Default: 0, Step: 0.01},
	ModDepth:  {Name: "mod-depth", Label: "Map Amt", Min: 0, Max: 1, Default: 0, Step: 0.01},
}

// coarseFactor scales Nudge steps while the encoder is held down.
const coarseFactor = 5

func (p Param) Descriptor() Descriptor {
	if p < 0 || p >= NumParams {
		return Descriptor{}
	}
	return descriptors[p]
}

func (p Param) String() string {
	if p < 0 || p >= NumParams {
		return fmt.Sprintf("Param(%d)", int(p))
	}
	return descriptors[p].Name
}

func (d Descriptor) clamp(v float64) float64 {
	return math.Max(d.Min, math.Min(d.Max, v))
}

// Normalize maps v into [0, 1] across the parameter's range.
func (d Descriptor) Normalize(v float64) float64 {
	if d.Max <= d.Min {
		return 0
	}
	return (d.clamp(v) - d.Min) / (d.Max - d.Min)
}

// Lookup finds a parameter by its name.
func Lookup(name string) (Param, bool) {
	for p := Param(0); p < NumParams; p++ {
		if descriptors[p].Name == name {
			return p, true
		}
	}
	return 0, false
}

// Params stores the raw and effective value of every parameter. Reads are lock-free
// and safe from the audio callback. Writers are serialized among themselves so that a
// recomputation never interleaves with another one.
type Params struct {
	mu  sync.Mutex
	raw [NumParams]atomic.Uint64
	mod [NumParams]atomic.Uint64
	eff [NumParams]atomic.Uint64
}

func NewParams() *Params {
	p := &Params{}
	for i := Param(0); i < NumParams; i++ {
		p.raw[i].Store(math.Float64bits(descriptors[i].Default))
		p.eff[i].Store(math.Float64bits(descriptors[i].Default))
	}
	return p
}

// Effective returns the value the audio engine should use.
func (p *Params) Effective(param Param) float64 {
	return math.Float64frombits(p.eff[param].Load())
}

// Raw returns the last value set by the control layer.
func (p *Params) Raw(param Param) float64 {
	return math.Float64frombits(p.raw[param].Load())
}

func (p *Params) Modulation(param Param) float64 {
	return math.Float64frombits(p.mod[param].Load())
}

// SetRaw clamps v into the parameter's range and stores it. NaN is ignored.
func (p *Params) SetRaw(param Param, v float64) {
	if param < 0 || param >= NumParams || math.IsNaN(v) {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.raw[param].Store(math.Float64bits(descriptors[param].clamp(v)))
	p.refresh(param)
}

// Nudge moves a parameter by a number of encoder ticks.
func (p *Params) Nudge(param Param, ticks int, coarse bool) {
	if param < 0 || param >= NumParams {
		return
	}
	step := descriptors[param].Step * float64(ticks)
	if coarse {
		step *= coarseFactor
	}
	p.SetRaw(param, p.Raw(param)+step)
}

// SetModulation sets a modulation offset in [-1, 1] for a parameter. The offset is
// scaled by mod-depth and by the parameter's range before it is added to the raw value.
func (p *Params) SetModulation(param Param, offset float64) {
	if param < 0 || param >= NumParams || math.IsNaN(offset) {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mod[param].Store(math.Float64bits(math.Max(-1, math.Min(1, offset))))
	p.refresh(param)
}

// refresh recomputes effective values. Callers hold mu.
func (p *Params) refresh(param Param) {
	if param == ModDepth {
		p.eff[ModDepth].Store(p.raw[ModDepth].Load())
		for i := Param(0); i < NumParams; i++ {
			if i != ModDepth {
				p.refreshOne(i)
			}
		}
		return
	}
	p.refreshOne(param)
}

func (p *Params) refreshOne(param Param) {
	d := descriptors[param]
	v := p.Raw(param)
	if param != ModDepth {
		depth := p.Raw(ModDepth)
		v += p.Modulation(param) * depth * (d.Max - d.Min)
	}
	p.eff[param].Store(math.Float64bits(d.clamp(v)))
}

// Set implements Device. Values out of range are clamped, not rejected.
func (p *Params) Set(key string, value interface{}) error {
	param, ok := Lookup(key)
	if !ok {
		return fmt.Errorf("unknown parameter %s", key)
	}
	var f float64
	switch n := value.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	default:
		return fmt.Errorf("set parameter %s: value is not a number: %v", key, value)
	}
	p.SetRaw(param, f)
	return nil
}

// Get implements Device and returns the effective value.
func (p *Params) Get(key string) (interface{}, error) {
	param, ok := Lookup(key)
	if !ok {
		return nil, fmt.Errorf("unknown parameter %s", key)
	}
	return p.Effective(param), nil
}
