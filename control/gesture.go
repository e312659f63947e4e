package control

import (
	"sync"
	"time"
)

// Target receives the gestures recognized on the looper button.
type Target interface {
	Click()
	DoubleClick()
	Hold()
}

type Action int

const (
	Click Action = iota
	DoubleClick
	Hold
)

func (a Action) String() string {
	switch a {
	case Click:
		return "click"
	case DoubleClick:
		return "double-click"
	case Hold:
		return "hold"
	default:
		return "unknown"
	}
}

type GestureConfig struct {
	DoubleClick time.Duration // max gap between the two releases of a double click
	Hold        time.Duration // how long the button is down before it is a hold
}

func DefaultGestureConfig() GestureConfig {
	return GestureConfig{
		DoubleClick: 300 * time.Millisecond,
		Hold:        time.Second,
	}
}

// Gesture turns raw press and release edges into clicks, double clicks and holds.
// Time is passed in by the caller. A click is only emitted once the double click
// window has passed without a second click, so it needs Poll to be called regularly.
type Gesture struct {
	cfg    GestureConfig
	target Target

	mu         sync.Mutex
	pressed    bool
	pressedAt  time.Time
	held       bool // hold already fired for the current press
	pending    bool // a click waiting out the double click window
	releasedAt time.Time
}

func NewGesture(cfg GestureConfig, target Target) *Gesture {
	return &Gesture{cfg: cfg, target: target}
}

func (g *Gesture) Press(t time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pressed {
		return
	}
	g.pressed = true
	g.pressedAt = t
	g.held = false
}

func (g *Gesture) Release(t time.Time) {
	g.dispatch(g.release(t))
}

func (g *Gesture) release(t time.Time) []Action {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.pressed {
		return nil
	}
	g.pressed = false

	// The release that ends a hold is swallowed.
	if g.held {
		g.held = false
		return nil
	}

	var actions []Action
	if t.Sub(g.pressedAt) >= g.cfg.Hold {
		actions = g.flush(actions)
		return append(actions, Hold)
	}
	if g.pending && t.Sub(g.releasedAt) <= g.cfg.DoubleClick {
		g.pending = false
		return append(actions, DoubleClick)
	}
	actions = g.flush(actions)
	g.pending = true
	g.releasedAt = t
	return actions
}

// Poll emits the gestures that complete with the passage of time: a pending click
// whose window ran out, and a hold that crossed its threshold.
func (g *Gesture) Poll(t time.Time) {
	g.dispatch(g.poll(t))
}

func (g *Gesture) poll(t time.Time) []Action {
	g.mu.Lock()
	defer g.mu.Unlock()

	var actions []Action
	if g.pressed && !g.held && t.Sub(g.pressedAt) >= g.cfg.Hold {
		g.held = true
		actions = g.flush(actions)
		return append(actions, Hold)
	}
	if g.pending && !g.pressed && t.Sub(g.releasedAt) > g.cfg.DoubleClick {
		actions = g.flush(actions)
	}
	return actions
}

// flush emits the pending click, if any.
func (g *Gesture) flush(actions []Action) []Action {
	if g.pending {
		g.pending = false
		actions = append(actions, Click)
	}
	return actions
}

func (g *Gesture) dispatch(actions []Action) {
	for _, a := range actions {
		switch a {
		case Click:
			g.target.Click()
		case DoubleClick:
			g.target.DoubleClick()
		case Hold:
			g.target.Hold()
		}
	}
}
