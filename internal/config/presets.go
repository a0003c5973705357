package config

import "sort"

var Presets = map[string]map[string]*Config{
	"particle": {
		"cyclotron": particle(func(p *ParticleConfig) {
			p.M = 1
			p.B = Vec{Z: 0.5}
			p.V = Vec{X: 2}
		}),
		"exb-drift": particle(func(p *ParticleConfig) {
			p.M = 1
			p.E = Vec{Y: 0.5}
			p.B = Vec{Z: 1}
		}),
		"helix": particle(func(p *ParticleConfig) {
			p.M = 1
			p.B = Vec{Z: 0.5}
			p.V = Vec{X: 1, Z: 0.5}
		}),
		"accelerate": particle(func(p *ParticleConfig) {
			p.M = 1
			p.E = Vec{X: 0.2}
		}),
	},
	"pendulum": {
		"hoop-stable": pendulum(func(p *PendulumConfig) {
			p.Omega = 1
			p.Theta0 = 2.8
		}),
		"hoop-spin": pendulum(func(p *PendulumConfig) {
			p.Omega = 5
			p.Gamma = 0.2
			p.Theta0 = 0.5
		}),
	},
}

func particle(edit func(*ParticleConfig)) *Config {
	cfg := DefaultConfig()
	edit(&cfg.Particle)
	return cfg
}

func pendulum(edit func(*PendulumConfig)) *Config {
	cfg := DefaultConfig()
	cfg.Model = "pendulum"
	cfg.TrailLength = 0
	edit(&cfg.Pendulum)
	return cfg
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(model, preset string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	cfg, ok := modelPresets[preset]
	if !ok {
		return nil
	}
	c := *cfg
	return &c
}

// FindPreset looks a preset up by name across all models.
func FindPreset(preset string) *Config {
	for model := range Presets {
		if cfg := GetPreset(model, preset); cfg != nil {
			return cfg
		}
	}
	return nil
}

func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
