package audio

// MinGrainSize is the shortest grain, in samples, the pool will play.
const MinGrainSize = 4

type grain struct {
	active bool
	pos    float64 // fractional read position
	inc    float64 // read increment, i.e. the pitch ratio
	env    envelope
}

func (g *grain) start(pos, pitch float64, size, bufLen int) {
	if size < MinGrainSize {
		size = MinGrainSize
	}
	g.active = true
	g.pos = wrapPosition(pos, bufLen)
	g.inc = pitch
	g.env.start(size)
}

func (g *grain) process(buf []float32, bufLen int) float32 {
	// The buffer may have shrunk since the last sample.
	g.pos = wrapPosition(g.pos, bufLen)

	i := int(g.pos)
	frac := float32(g.pos - float64(i))
	a := buf[i]
	b := buf[(i+1)%bufLen]
	sample := a + (b-a)*frac
	amp := float32(g.env.value())

	g.pos = wrapPosition(g.pos+g.inc, bufLen)
	if g.env.done() {
		g.active = false
	}
	return sample * amp
}

// GrainPool is a fixed set of grain voices. A trigger that finds no free voice is
// dropped, nothing is stolen or queued.
type GrainPool struct {
	grains []grain
}

func NewGrainPool(size int) *GrainPool {
	return &GrainPool{grains: make([]grain, size)}
}

// Trigger starts a grain at start (wrapped into [0, bufLen)) playing at pitch for size
// samples. It reports whether a free voice was found.
func (p *GrainPool) Trigger(start, pitch float64, size, bufLen int) bool {
	g := p.findFree()
	if g == nil {
		return false
	}
	g.start(start, pitch, size, bufLen)
	return true
}

// Process advances every active grain by one sample and returns their sum. The sum is
// not normalized by the number of voices.
func (p *GrainPool) Process(buf []float32, bufLen int) float32 {
	var sum float32
	for i := range p.grains {
		g := &p.grains[i]
		if !g.active {
			continue
		}
		sum += g.process(buf, bufLen)
	}
	return sum
}

func (p *GrainPool) Active() int {
	var n int
	for i := range p.grains {
		if p.grains[i].active {
			n++
		}
	}
	return n
}

func (p *GrainPool) Reset() {
	for i := range p.grains {
		p.grains[i] = grain{}
	}
}

func (p *GrainPool) findFree() *grain {
	for i := range p.grains {
		if !p.grains[i].active {
			return &p.grains[i]
		}
	}
	return nil
}
