package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/mrdg/dust/audio"
	"github.com/mrdg/dust/control"
	"github.com/mrdg/dust/dub"
)

type env struct {
	engine  *audio.Engine
	gesture *control.Gesture
	display *display
	now     func() time.Time
}

func (e *env) eval(input string) (string, error) {
	cmds, err := dub.ParseAll(input)
	if err != nil {
		return "", err
	}
	var out []string
	for _, cmd := range cmds {
		result, err := e.evalCommand(cmd)
		if result != "" {
			out = append(out, result)
		}
		if err != nil {
			return strings.Join(out, "\n"), err
		}
	}
	return strings.Join(out, "\n"), nil
}

func (e *env) evalCommand(command dub.Command) (string, error) {
	name := string(command.Name)
	for _, cmd := range commands {
		if name != cmd.name {
			continue
		}
		if n := len(command.Args); n < cmd.minArgs || (cmd.maxArgs >= 0 && n > cmd.maxArgs) {
			return "", fmt.Errorf("%s: wrong number of arguments: usage: %s", cmd.name, cmd.usage)
		}
		result, err := cmd.run(e, command.Args)
		if err != nil {
			return result, fmt.Errorf("%s error: %w", cmd.name, err)
		}
		return result, nil
	}
	return "", fmt.Errorf("unknown command: %s", name)
}

func repl(env *env) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:       "> ",
		AutoComplete: completer(),
	})
	if err != nil {
		return err
	}
	defer rl.Close()
	log.SetOutput(rl.Stderr())

	for {
		line, err := rl.Readline()
		if err == io.EOF || err == readline.ErrInterrupt {
			return nil
		}
		if err != nil {
			fmt.Println(err)
			continue
		}
		if len(strings.TrimSpace(line)) == 0 {
			continue
		}
		result, err := env.eval(line)
		if result != "" {
			fmt.Println(result)
		}
		if err != nil {
			fmt.Println(err)
		}
	}
}

func completer() *readline.PrefixCompleter {
	var params []readline.PrefixCompleterInterface
	for p := audio.Param(0); p < audio.NumParams; p++ {
		params = append(params, readline.PcItem(p.String()))
	}
	var presets []readline.PrefixCompleterInterface
	for _, name := range audio.PresetNames() {
		presets = append(presets, readline.PcItem(name))
	}

	var items []readline.PrefixCompleterInterface
	for _, cmd := range commands {
		switch cmd.name {
		case "set", "get", "nudge", "mod":
			items = append(items, readline.PcItem(cmd.name, params...))
		case "preset":
			items = append(items, readline.PcItem(cmd.name, presets...))
		default:
			items = append(items, readline.PcItem(cmd.name))
		}
	}
	return readline.NewPrefixCompleter(items...)
}

type command struct {
	name    string
	run     func(*env, []dub.Node) (string, error)
	minArgs int
	maxArgs int // -1 for no limit
	usage   string
}

var commands []command

func init() {
	commands = []command{
		{"set", setCommand, 2, 2, "set <param> <value>"},
		{"get", getCommand, 0, 1, "get [pattern]"},
		{"nudge", nudgeCommand, 2, 3, "nudge <param> <ticks> [coarse]"},
		{"mod", modCommand, 2, 2, "mod <param> <offset>"},
		{"click", looperCommand((*audio.Looper).Click), 0, 0, "click"},
		{"dclick", looperCommand((*audio.Looper).DoubleClick), 0, 0, "dclick"},
		{"hold", looperCommand((*audio.Looper).Hold), 0, 0, "hold"},
		{"press", pressCommand, 0, 0, "press"},
		{"release", releaseCommand, 0, 0, "release"},
		{"preset", presetCommand, 0, 1, "preset [name]"},
		{"status", statusCommand, 0, 0, "status"},
		{"params", paramsCommand, 0, 0, "params"},
		{"render", renderCommand, 2, 4, "render <in> <out> [seconds] [\"cues\"]"},
		{"help", helpCommand, 0, 0, "help"},
	}
}

func setCommand(env *env, args []dub.Node) (string, error) {
	var name string
	var value float64
	if err := readArgs(args, &name, &value); err != nil {
		return "", err
	}
	return "", env.engine.Params().Set(name, value)
}

func getCommand(env *env, args []dub.Node) (string, error) {
	pattern := dub.Pattern("*")
	if len(args) == 1 {
		switch v := args[0].(type) {
		case dub.Pattern:
			pattern = v
		case dub.Identifier:
			pattern = dub.Pattern(v)
		default:
			return "", fmt.Errorf("argument error: expected a parameter name or pattern")
		}
	}
	names := pattern.Filter(paramNames())
	if len(names) == 0 {
		return "", fmt.Errorf("no parameter matches %s", pattern)
	}
	var b strings.Builder
	for _, name := range names {
		v, err := env.engine.Params().Get(name)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "%s %v\n", name, v)
	}
	return strings.TrimSuffix(b.String(), "\n"), nil
}

func nudgeCommand(env *env, args []dub.Node) (string, error) {
	var name string
	var ticks int
	coarse := false
	if len(args) == 3 {
		var mode string
		if err := readArgs(args, &name, &ticks, &mode); err != nil {
			return "", err
		}
		if mode != "coarse" {
			return "", fmt.Errorf("unknown nudge mode: %s", mode)
		}
		coarse = true
	} else if err := readArgs(args, &name, &ticks); err != nil {
		return "", err
	}
	p, err := lookup(name)
	if err != nil {
		return "", err
	}
	env.engine.Params().Nudge(p, ticks, coarse)
	return fmt.Sprintf("%s %v", name, env.engine.Params().Effective(p)), nil
}

func modCommand(env *env, args []dub.Node) (string, error) {
	var name string
	var offset float64
	if err := readArgs(args, &name, &offset); err != nil {
		return "", err
	}
	p, err := lookup(name)
	if err != nil {
		return "", err
	}
	env.engine.Params().SetModulation(p, offset)
	return "", nil
}

func looperCommand(f func(*audio.Looper)) func(*env, []dub.Node) (string, error) {
	return func(env *env, args []dub.Node) (string, error) {
		f(env.engine.Looper())
		return env.engine.Looper().State().String(), nil
	}
}

func pressCommand(env *env, args []dub.Node) (string, error) {
	env.gesture.Press(env.now())
	return "", nil
}

func releaseCommand(env *env, args []dub.Node) (string, error) {
	env.gesture.Release(env.now())
	return "", nil
}

func presetCommand(env *env, args []dub.Node) (string, error) {
	if len(args) == 0 {
		return strings.Join(audio.PresetNames(), " "), nil
	}
	var name string
	if err := readArgs(args, &name); err != nil {
		return "", err
	}
	return "", audio.LoadPreset(name, env.engine.Params())
}

func statusCommand(env *env, args []dub.Node) (string, error) {
	var b strings.Builder
	env.display.renderStatus(&b, env.engine.Status(), env.engine.Config().SampleRate, env.now())
	return strings.TrimSuffix(b.String(), "\n"), nil
}

func paramsCommand(env *env, args []dub.Node) (string, error) {
	var b strings.Builder
	renderParams(&b, env.engine.Params(), paramNames())
	return strings.TrimSuffix(b.String(), "\n"), nil
}

// renderCommand renders a file offline with a copy of the current settings, leaving
// the live engine alone.
func renderCommand(env *env, args []dub.Node) (string, error) {
	var job renderJob
	var cues string
	var err error
	switch len(args) {
	case 2:
		err = readArgs(args, &job.in, &job.out)
	case 3:
		err = readArgs(args, &job.in, &job.out, &job.seconds)
	default:
		err = readArgs(args, &job.in, &job.out, &job.seconds, &cues)
	}
	if err != nil {
		return "", err
	}
	if job.cues, err = parseCues(cues); err != nil {
		return "", err
	}
	engine, err := cloneEngine(env.engine)
	if err != nil {
		return "", err
	}
	lv, err := renderFile(engine, job)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("wrote %s: %v", job.out, lv), nil
}

func helpCommand(env *env, args []dub.Node) (string, error) {
	var usage []string
	for _, cmd := range commands {
		usage = append(usage, cmd.usage)
	}
	return strings.Join(usage, "\n"), nil
}

// cloneEngine creates an engine with the same configuration and parameter values.
func cloneEngine(e *audio.Engine) (*audio.Engine, error) {
	clone, err := audio.NewEngine(e.Config())
	if err != nil {
		return nil, err
	}
	for p := audio.Param(0); p < audio.NumParams; p++ {
		clone.Params().SetRaw(p, e.Params().Raw(p))
		clone.Params().SetModulation(p, e.Params().Modulation(p))
	}
	clone.Tick()
	return clone, nil
}

func paramNames() []string {
	names := make([]string, 0, audio.NumParams)
	for p := audio.Param(0); p < audio.NumParams; p++ {
		names = append(names, p.String())
	}
	return names
}

func lookup(name string) (audio.Param, error) {
	p, ok := audio.Lookup(name)
	if !ok {
		return 0, fmt.Errorf("unknown parameter %s", name)
	}
	return p, nil
}

func readArgs(args []dub.Node, slots ...interface{}) error {
	if len(args) != len(slots) {
		return errors.New("not enough arguments")
	}
	for n, arg := range args {
		dest := slots[n]
		switch p := dest.(type) {
		case *string:
			switch s := arg.(type) {
			case dub.String:
				*p = string(s)
			case dub.Identifier:
				*p = string(s)
			default:
				return fmt.Errorf("argument error: expected a string or identifier")
			}
		case *float64:
			n, ok := dub.Number(arg)
			if !ok {
				return fmt.Errorf("argument error: expected a number")
			}
			*p = n
		case *int:
			n, ok := arg.(dub.Int)
			if !ok {
				return fmt.Errorf("argument error: expected an integer")
			}
			*p = int(n)
		default:
			panic("readArgs: unhandled destination type: " + fmt.Sprint(p))
		}
	}
	return nil
}
