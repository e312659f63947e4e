package main

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mrdg/dust/audio"
	"github.com/mrdg/dust/control"
)

func newTestEnv(t *testing.T) (*env, *time.Time) {
	t.Helper()
	engine, err := audio.NewEngine(audio.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	now := time.Unix(0, 0)
	return &env{
		engine:  engine,
		gesture: control.NewGesture(control.DefaultGestureConfig(), engine.Looper()),
		display: &display{width: 40},
		now:     func() time.Time { return now },
	}, &now
}

func TestEvalParams(t *testing.T) {
	env, _ := newTestEnv(t)
	tests := []struct {
		input string
		want  string
	}{
		{"set density 20", ""},
		{"get density", "density 20"},
		{"set tempo 1000; get tempo", "tempo 300"},
		{"get *-gain", "pre-gain 0.5\npost-gain 0.5"},
		{"nudge division 3", "division 4"},
		{"nudge division -1 coarse", "division 1"},
		{"set mod-depth 1; mod pitch 1; get pitch", "pitch 4"},
		{"preset stutter; get division", "division 4"},
	}
	for _, test := range tests {
		got, err := env.eval(test.input)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", test.input, err)
			continue
		}
		if got != test.want {
			t.Errorf("%s: want %q, got %q", test.input, test.want, got)
		}
	}
}

func TestEvalLooper(t *testing.T) {
	env, now := newTestEnv(t)
	looper := env.engine.Looper()

	if want, got := "REC", mustEval(t, env, "click"); want != got {
		t.Errorf("want %v, got %v", want, got)
	}
	if want, got := "PLAY", mustEval(t, env, "click"); want != got {
		t.Errorf("want %v, got %v", want, got)
	}
	if want, got := "STOP", mustEval(t, env, "dclick"); want != got {
		t.Errorf("want %v, got %v", want, got)
	}

	mustEval(t, env, "press")
	*now = now.Add(2 * time.Second)
	mustEval(t, env, "release")
	if want, got := audio.Empty, looper.State(); want != got {
		t.Errorf("press and release after 2s: want %v, got %v", want, got)
	}
}

func TestEvalErrors(t *testing.T) {
	env, _ := newTestEnv(t)
	for _, input := range []string{
		"jump",
		"set density",
		"set density fast",
		"set volume 1",
		"nudge tempo 1.5",
		"nudge tempo 1 fine",
		"mod nope 1",
		"get x*",
		"preset missing",
		"click 1",
		"render in.wav",
		`render in.wav out.wav 1 "jump@1"`,
	} {
		if _, err := env.eval(input); err == nil {
			t.Errorf("%s: expected error", input)
		}
	}
}

func TestEvalRender(t *testing.T) {
	env, _ := newTestEnv(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "in.wav")
	out := filepath.Join(dir, "out.wav")

	frames := make([][2]float64, 4800)
	for i := range frames {
		frames[i] = [2]float64{0.25, 0.25}
	}
	if err := writeWav(in, frames, 48000); err != nil {
		t.Fatal(err)
	}

	result, err := env.eval(`render "` + in + `" "` + out + `" 0.5 "click@0.01,click@0.05"`)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(result, "wrote "+out) {
		t.Errorf("unexpected result: %s", result)
	}
	if want, got := audio.Empty, env.engine.Looper().State(); want != got {
		t.Errorf("render changed the live looper: want %v, got %v", want, got)
	}

	rendered, err := decodeFile(env.engine, out)
	if err != nil {
		t.Fatal(err)
	}
	if want, got := 24000, len(rendered); want != got {
		t.Errorf("want %v frames, got %v", want, got)
	}
}

func TestEvalHelp(t *testing.T) {
	env, _ := newTestEnv(t)
	help := mustEval(t, env, "help")
	for _, cmd := range commands {
		if !strings.Contains(help, cmd.name) {
			t.Errorf("help is missing %s", cmd.name)
		}
	}
}

func TestCloneEngine(t *testing.T) {
	env, _ := newTestEnv(t)
	mustEval(t, env, "set spray 0.3; set mod-depth 0.5; mod spray 0.2")

	clone, err := cloneEngine(env.engine)
	if err != nil {
		t.Fatal(err)
	}
	for p := audio.Param(0); p < audio.NumParams; p++ {
		if want, got := env.engine.Params().Effective(p), clone.Params().Effective(p); want != got {
			t.Errorf("%v: want %v, got %v", p, want, got)
		}
	}
}

func mustEval(t *testing.T, env *env, input string) string {
	t.Helper()
	result, err := env.eval(input)
	if err != nil {
		t.Fatalf("%s: %v", input, err)
	}
	return result
}
