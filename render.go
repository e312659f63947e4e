package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mrdg/dust/audio"
	"golang.org/x/term"
)

// flashDuration is how long the CLEAR marker stays up after the loop is reset.
const flashDuration = time.Second

type display struct {
	color bool
	width int

	mu        sync.Mutex
	clearedAt time.Time
}

// newDisplay sizes the display for f. Colour is only used when f is a terminal.
func newDisplay(f *os.File) *display {
	d := &display{width: 80}
	fd := int(f.Fd())
	if term.IsTerminal(fd) {
		d.color = true
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			d.width = w
		}
	}
	return d
}

// flash marks the loop as just cleared.
func (d *display) flash(t time.Time) {
	d.mu.Lock()
	d.clearedAt = t
	d.mu.Unlock()
}

func (d *display) flashing(t time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.clearedAt.IsZero() && t.Sub(d.clearedAt) < flashDuration
}

func (d *display) renderStatus(w io.Writer, st audio.Status, sampleRate float64, now time.Time) {
	barWidth := max(10, d.width/3)

	state := fmt.Sprintf("%-5s", st.State)
	switch st.State {
	case audio.Recording:
		state = d.colorize(state, colorRed)
	case audio.Playing:
		state = d.colorize(state, colorGreen)
	case audio.Stopped:
		state = d.colorize(state, colorYellow)
	}

	var cursor, length int
	switch st.State {
	case audio.Empty:
		cursor, length = st.WriteCursor, st.BufferLength
	case audio.Recording:
		cursor, length = st.RecordCursor, st.BufferLength
		if st.LoopLength == 0 {
			length = st.Capacity
		}
	default:
		cursor, length = st.PlayCursor, st.LoopLength
	}
	progress := 0.0
	if length > 0 {
		progress = float64(cursor) / float64(length)
	}

	line := fmt.Sprintf("%s %s %5.2fs / %5.2fs  grains %2d  peak %s",
		state,
		bar(progress, barWidth),
		float64(cursor)/sampleRate,
		float64(length)/sampleRate,
		st.Grains,
		d.meter(st.Peak),
	)
	if d.flashing(now) {
		line += " " + d.colorize("CLEAR", colorMagenta)
	}
	fmt.Fprintln(w, line)

	for p := audio.Param(0); p < audio.NumParams; p++ {
		desc := p.Descriptor()
		fmt.Fprintf(w, "%-10s %s %s\n",
			desc.Name,
			d.colorize(bar(desc.Normalize(st.Values[p]), barWidth), colorBlue),
			formatValue(st.Values[p], desc),
		)
	}
}

// renderParams lists the parameters with their ranges and current values.
func renderParams(w io.Writer, params *audio.Params, only []string) {
	for _, name := range only {
		p, ok := audio.Lookup(name)
		if !ok {
			continue
		}
		desc := p.Descriptor()
		fmt.Fprintf(w, "%-10s %-9s [%v, %v] step %v\n",
			desc.Name, formatValue(params.Effective(p), desc), desc.Min, desc.Max, desc.Step)
	}
}

func formatValue(v float64, desc audio.Descriptor) string {
	s := fmt.Sprintf("%.3g", v)
	if desc.Unit != "" {
		s += " " + desc.Unit
	}
	return s
}

func (d *display) meter(peak float64) string {
	const width = 10
	s := bar(peak, width)
	if peak >= 1 {
		return d.colorize(s, colorRed)
	}
	return s
}

func bar(v float64, width int) string {
	v = max(0, min(1, v))
	n := int(v*float64(width) + 0.5)
	return "[" + strings.Repeat("#", n) + strings.Repeat(" ", width-n) + "]"
}

const (
	colorBlack = iota + 30
	colorRed
	colorGreen
	colorYellow
	colorBlue
	colorMagenta
)

func (d *display) colorize(text string, color int) string {
	if !d.color {
		return text
	}
	return colorize(text, color)
}

func colorize(text string, color int) string {
	return fmt.Sprintf("\033[%dm%s\033[0m", color, text)
}
