package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/mrdg/dust/audio"
	"github.com/mrdg/dust/control"
)

type backend interface {
	Start() error
	Stop() error
}

func main() {
	defaults := audio.DefaultConfig()
	var (
		rate       = flag.Float64("rate", defaults.SampleRate, "sample rate")
		block      = flag.Int("block", 64, "frames per audio callback")
		grains     = flag.Int("grains", defaults.Grains, "grain voices per channel")
		loopSecs   = flag.Float64("loop", defaults.LoopSeconds, "loop buffer length in seconds")
		seed       = flag.Uint("seed", uint(defaults.Seed), "random seed")
		preset     = flag.String("preset", "default", "preset to start with")
		controlHz  = flag.Float64("control-rate", control.DefaultRate, "control updates per second")
		play       = flag.String("play", "", "play a file through the engine instead of the audio input")
		renderTo   = flag.String("render", "", "render -in offline to this WAV file and exit")
		in         = flag.String("in", "", "input file for -render (WAV or MP3)")
		seconds    = flag.Float64("seconds", 0, "length of the -render output, defaults to the input length")
		cues       = flag.String("cues", "", "looper gestures for -render, e.g. click@0.5,click@4.5,hold@9")
		useMIDI    = flag.Bool("midi", false, "read controls from a MIDI input")
		midiDevice = flag.Int("midi-device", -1, "portmidi input device id, -1 for the default")
		midiMap    = flag.String("midi-map", "", "cc:param[:rel] bindings replacing the defaults")
		footswitch = flag.Int("footswitch", 64, "MIDI note acting as the looper button")
		run        = flag.String("run", "", "file with commands to run at startup")
	)
	flag.Parse()

	cfg := defaults
	cfg.SampleRate = *rate
	cfg.BlockSize = *block
	cfg.Grains = *grains
	cfg.LoopSeconds = *loopSecs
	cfg.Seed = uint32(*seed)

	engine, err := audio.NewEngine(cfg)
	if err != nil {
		log.Fatal(err)
	}
	if err := audio.LoadPreset(*preset, engine.Params()); err != nil {
		log.Fatal(err)
	}
	engine.Tick()

	if *renderTo != "" {
		timeline, err := parseCues(*cues)
		if err != nil {
			log.Fatal(err)
		}
		lv, err := renderFile(engine, renderJob{in: *in, out: *renderTo, seconds: *seconds, cues: timeline})
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("wrote %s: %v\n", *renderTo, lv)
		return
	}

	var out backend
	if *play != "" {
		frames, err := decodeFile(engine, *play)
		if err != nil {
			log.Fatal(err)
		}
		player := audio.NewPlayer(engine, sliceStreamer(frames), int(cfg.SampleRate))
		go func() {
			<-player.Done()
			log.Printf("play: end of %s", *play)
		}()
		out = player
	} else {
		sink, err := audio.NewSink(cfg, engine)
		if err != nil {
			log.Fatal(err)
		}
		out = sink
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	gesture := control.NewGesture(control.DefaultGestureConfig(), engine.Looper())
	disp := newDisplay(os.Stdout)

	loop := control.NewLoop(engine, gesture, *controlHz)
	loop.AddHook(func(t time.Time) {
		if engine.Looper().TakeCleared() {
			disp.flash(t)
		}
	})
	loop.AddHook(noticeLogger(engine))
	go loop.Run(ctx)

	if *useMIDI {
		midiCfg := control.DefaultMIDIConfig()
		midiCfg.Device = *midiDevice
		midiCfg.Footswitch = int64(*footswitch)
		if *midiMap != "" {
			if midiCfg.Bindings, err = control.ParseBindings(*midiMap); err != nil {
				log.Fatal(err)
			}
		}
		m := control.NewMIDI(midiCfg, engine.Params(), gesture)
		if err := m.Open(); err != nil {
			log.Fatal(err)
		}
		defer m.Close()
		go func() {
			if err := m.Run(ctx); err != nil && ctx.Err() == nil {
				log.Printf("midi: %v", err)
			}
		}()
	}

	if err := out.Start(); err != nil {
		log.Fatal(err)
	}
	defer out.Stop()

	env := &env{
		engine:  engine,
		gesture: gesture,
		display: disp,
		now:     time.Now,
	}

	if *run != "" {
		if err := runScript(env, *run); err != nil {
			log.Fatal(err)
		}
	}

	if err := repl(env); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// runScript evaluates every line of a command file. Lines starting with # are
// comments.
func runScript(env *env, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		result, err := env.eval(line)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if result != "" {
			fmt.Println(result)
		}
	}
	return scanner.Err()
}

// noticeLogger logs what the audio callback reported. Dropped grains are summed up
// and logged at most once a second.
func noticeLogger(engine *audio.Engine) func(time.Time) {
	var (
		dropped, lost int
		last          time.Time
	)
	return func(t time.Time) {
		lost += engine.Notices(func(n audio.Notice) {
			if n.Kind == audio.GrainDropped {
				dropped++
				return
			}
			log.Printf("engine: %v", n)
		})
		if t.Sub(last) < time.Second {
			return
		}
		if dropped > 0 {
			log.Printf("engine: %d grains dropped, no free voice available", dropped)
		}
		if lost > 0 {
			log.Printf("engine: %d notices lost", lost)
		}
		dropped, lost, last = 0, 0, t
	}
}
