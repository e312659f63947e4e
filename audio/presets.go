package audio

import (
	"fmt"
	"sort"
)

type Device interface {
	Set(key string, val interface{}) error
	Get(key string) (interface{}, error)
}

type preset map[string]interface{}

var presets = map[string]preset{
	"default": defaults(),
	"shimmer": preset{
		"pitch":      2.0,
		"grain-size": 0.2,
		"density":    20.0,
		"spray":      0.3,
		"width":      0.5,
		"feedback":   0.6,
		"mix":        0.6,
	},
	"cloud": preset{
		"pitch":      1.0,
		"grain-size": 0.4,
		"density":    30.0,
		"spray":      0.8,
		"width":      1.0,
		"mix":        0.7,
	},
	"stutter": preset{
		"pitch":      1.0,
		"grain-size": 0.03,
		"density":    16.0,
		"spray":      0.0,
		"width":      0.0,
		"division":   4,
	},
	"sub": preset{
		"pitch":      0.5,
		"grain-size": 0.25,
		"density":    8.0,
		"spray":      0.1,
		"feedback":   0.3,
	},
}

func defaults() preset {
	p := make(preset, NumParams)
	for _, d := range descriptors {
		p[d.Name] = d.Default
	}
	return p
}

func LoadPreset(name string, d Device) error {
	p, ok := presets[name]
	if !ok {
		return fmt.Errorf("unknown preset: %v", name)
	}
	for k, v := range p {
		if err := d.Set(k, v); err != nil {
			return err
		}
	}
	return nil
}

func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
