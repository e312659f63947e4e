package main

import (
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/mp3"
	"github.com/mrdg/dust/audio"
	"github.com/pkg/errors"
	wav "github.com/youpy/go-wav"
	"gonum.org/v1/gonum/floats"
)

// cue is a looper gesture scheduled at a point in an offline render.
type cue struct {
	at     float64 // seconds
	action string
}

var cueActions = map[string]func(*audio.Looper){
	"click":  (*audio.Looper).Click,
	"dclick": (*audio.Looper).DoubleClick,
	"hold":   (*audio.Looper).Hold,
}

// parseCues parses a timeline such as "click@0.5,click@4.5,hold@9". The result is
// sorted by time.
func parseCues(s string) ([]cue, error) {
	var cues []cue
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		action, at, ok := strings.Cut(field, "@")
		if !ok {
			return nil, errors.Errorf("invalid cue %q: want action@seconds", field)
		}
		if _, ok := cueActions[action]; !ok {
			return nil, errors.Errorf("invalid cue %q: unknown action %s", field, action)
		}
		t, err := strconv.ParseFloat(at, 64)
		if err != nil || t < 0 {
			return nil, errors.Errorf("invalid cue %q: bad time", field)
		}
		cues = append(cues, cue{at: t, action: action})
	}
	sort.SliceStable(cues, func(i, j int) bool { return cues[i].at < cues[j].at })
	return cues, nil
}

type renderJob struct {
	in, out string
	seconds float64 // output length, 0 for the length of the input
	cues    []cue
}

type levels struct {
	peak float64
	rms  float64
}

func (l levels) String() string {
	return "peak " + formatDB(l.peak) + ", rms " + formatDB(l.rms)
}

func formatDB(v float64) string {
	if v <= 0 {
		return "-inf dB"
	}
	return strconv.FormatFloat(20*math.Log10(v), 'f', 1, 64) + " dB"
}

// renderFile runs job.in through the engine and writes the result to job.out.
func renderFile(engine *audio.Engine, job renderJob) (levels, error) {
	in, err := decodeFile(engine, job.in)
	if err != nil {
		return levels{}, err
	}
	out := renderFrames(engine, in, job.seconds, job.cues)
	if err := writeWav(job.out, out, int(engine.Config().SampleRate)); err != nil {
		return levels{}, err
	}
	return measure(out), nil
}

// renderFrames processes in followed by silence for the requested length, ticking the
// engine at control rate and firing cues on block boundaries.
func renderFrames(engine *audio.Engine, in [][2]float64, seconds float64, cues []cue) [][2]float64 {
	cfg := engine.Config()
	total := len(in)
	if seconds > 0 {
		total = int(seconds * cfg.SampleRate)
	}
	src := make([][2]float64, total)
	copy(src, in)
	out := make([][2]float64, total)

	stream := engine.Stream(sliceStreamer(src))
	tickEvery := int(cfg.SampleRate / 30)
	nextTick := 0

	for pos := 0; pos < total; pos += cfg.BlockSize {
		for len(cues) > 0 && int(cues[0].at*cfg.SampleRate) <= pos {
			cueActions[cues[0].action](engine.Looper())
			cues = cues[1:]
		}
		if pos >= nextTick {
			engine.Tick()
			nextTick += tickEvery
		}
		stream.Stream(out[pos:min(pos+cfg.BlockSize, total)])
	}
	return out
}

// decodeFile reads a WAV or MP3 file into stereo frames at the engine sample rate.
func decodeFile(engine *audio.Engine, path string) ([][2]float64, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".wav" && ext != ".mp3" {
		return nil, errors.Errorf("unsupported input format %q", ext)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open input")
	}

	var (
		src  beep.Streamer
		rate int
	)
	switch ext {
	case ".wav":
		frames, r, err := readWav(f)
		f.Close()
		if err != nil {
			return nil, errors.Wrapf(err, "decode %s", path)
		}
		src, rate = sliceStreamer(frames), r
	case ".mp3":
		// The decoder owns f from here on and closes it, also on error.
		s, format, err := mp3.Decode(f)
		if err != nil {
			return nil, errors.Wrapf(err, "decode %s", path)
		}
		defer s.Close()
		src, rate = s, int(format.SampleRate)
	}

	frames := readAll(engine.Resample(src, rate))
	if err := src.Err(); err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return frames, nil
}

func readWav(f *os.File) ([][2]float64, int, error) {
	r := wav.NewReader(f)
	format, err := r.Format()
	if err != nil {
		return nil, 0, err
	}
	var frames [][2]float64
	for {
		samples, err := r.ReadSamples()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, err
		}
		for _, sample := range samples {
			l := r.FloatValue(sample, 0)
			right := l
			if format.NumChannels > 1 {
				right = r.FloatValue(sample, 1)
			}
			frames = append(frames, [2]float64{l, right})
		}
	}
	return frames, int(format.SampleRate), nil
}

func sliceStreamer(frames [][2]float64) beep.Streamer {
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if len(frames) == 0 {
			return 0, false
		}
		n := copy(samples, frames)
		frames = frames[n:]
		return n, true
	})
}

func readAll(s beep.Streamer) [][2]float64 {
	var frames [][2]float64
	buf := make([][2]float64, 512)
	for {
		n, ok := s.Stream(buf)
		frames = append(frames, buf[:n]...)
		if !ok {
			return frames
		}
	}
}

// writeWav writes 16 bit stereo.
func writeWav(path string, frames [][2]float64, rate int) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create output")
	}
	defer f.Close()

	const scale = 1<<15 - 1
	samples := make([]wav.Sample, len(frames))
	for i, frame := range frames {
		for c := range frame {
			v := math.Max(-1, math.Min(1, frame[c]))
			samples[i].Values[c] = int(math.Round(v * scale))
		}
	}
	w := wav.NewWriter(f, uint32(len(frames)), 2, uint32(rate), 16)
	if err := w.WriteSamples(samples); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return errors.Wrap(f.Close(), "close output")
}

func measure(frames [][2]float64) levels {
	if len(frames) == 0 {
		return levels{}
	}
	mono := make([]float64, 0, 2*len(frames))
	for _, f := range frames {
		mono = append(mono, math.Abs(f[0]), math.Abs(f[1]))
	}
	return levels{
		peak: floats.Max(mono),
		rms:  floats.Norm(mono, 2) / math.Sqrt(float64(len(mono))),
	}
}
