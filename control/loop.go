package control

import (
	"context"
	"time"
)

// DefaultRate is how often the control loop runs.
const DefaultRate = 30

type Ticker interface {
	Tick()
}

// Loop runs the control-rate work: it polls the looper button, lets the engine
// recompute derived values and calls the registered hooks, in that order.
type Loop struct {
	interval time.Duration
	engine   Ticker
	gesture  *Gesture
	hooks    []func(time.Time)
}

// NewLoop creates a loop running hz times a second. gesture may be nil.
func NewLoop(engine Ticker, gesture *Gesture, hz float64) *Loop {
	if hz <= 0 {
		hz = DefaultRate
	}
	return &Loop{
		interval: time.Duration(float64(time.Second) / hz),
		engine:   engine,
		gesture:  gesture,
	}
}

// AddHook registers f to run after every tick. Hooks must be added before Run.
func (l *Loop) AddHook(f func(time.Time)) {
	l.hooks = append(l.hooks, f)
}

// Run ticks until ctx is done and returns its error.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case t := <-ticker.C:
			l.Step(t)
		}
	}
}

// Step runs one iteration as if the ticker fired at t.
func (l *Loop) Step(t time.Time) {
	if l.gesture != nil {
		l.gesture.Poll(t)
	}
	l.engine.Tick()
	for _, hook := range l.hooks {
		hook(t)
	}
}
