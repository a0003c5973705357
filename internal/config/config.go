package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/fieldsim/internal/integrators"
)

const (
	DefaultDt          = 0.01
	MinDt              = 1e-6
	DefaultFPS         = 60
	DefaultDuration    = 10.0
	DefaultTrailLength = 2000
	DefaultCharge      = 1.0
	DefaultMass        = 0.1
	DefaultOmega       = 2.0
	DefaultGOverR      = 9.81
	DefaultGamma       = 0.1
	DefaultBeadMass    = 1.0
	DefaultTheta0      = 0.5
	DefaultAddr        = ":8080"
)

var (
	Models    = []string{"particle", "pendulum"}
	LogLevels = []string{"debug", "info", "warn", "error"}

	ErrInvalid = errors.New("config: invalid")
)

type Config struct {
	Model       string         `yaml:"model"`
	Integrator  string         `yaml:"integrator"`
	Dt          float64        `yaml:"dt"`
	FPS         int            `yaml:"fps"`
	Duration    float64        `yaml:"duration"`
	TrailLength int            `yaml:"trail_length"`
	Seed        int64          `yaml:"seed"`
	Jitter      float64        `yaml:"jitter"`
	Particle    ParticleConfig `yaml:"particle"`
	Pendulum    PendulumConfig `yaml:"pendulum"`
	Log         LogConfig      `yaml:"log"`
	Serve       ServeConfig    `yaml:"serve"`
}

type Vec struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

type ParticleConfig struct {
	Q float64 `yaml:"q"`
	M float64 `yaml:"m"`
	V Vec     `yaml:"v"`
	E Vec     `yaml:"e"`
	B Vec     `yaml:"b"`
}

type PendulumConfig struct {
	Omega  float64 `yaml:"omega"`
	GOverR float64 `yaml:"g_over_r"`
	Gamma  float64 `yaml:"gamma"`
	Mass   float64 `yaml:"m"`
	Theta0 float64 `yaml:"theta0"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
	JSON  bool   `yaml:"json"`
}

type ServeConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:       "particle",
		Integrator:  "rk4",
		Dt:          DefaultDt,
		FPS:         DefaultFPS,
		Duration:    DefaultDuration,
		TrailLength: DefaultTrailLength,
		Particle: ParticleConfig{
			Q: DefaultCharge,
			M: DefaultMass,
		},
		Pendulum: PendulumConfig{
			Omega:  DefaultOmega,
			GOverR: DefaultGOverR,
			Gamma:  DefaultGamma,
			Mass:   DefaultBeadMass,
			Theta0: DefaultTheta0,
		},
		Log:   LogConfig{Level: "info"},
		Serve: ServeConfig{Addr: DefaultAddr},
	}
}

// Load reads a yaml file over the defaults, so a file only needs the keys
// it changes.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate reports every problem at once, each wrapping ErrInvalid.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if !slices.Contains(Models, c.Model) {
		bad("unknown model %q", c.Model)
	}
	if c.Integrator != "" && !slices.Contains(integrators.Names, c.Integrator) {
		bad("unknown integrator %q", c.Integrator)
	}
	if !(c.Dt > 0) || math.IsInf(c.Dt, 0) {
		bad("dt must be positive and finite, got %g", c.Dt)
	} else if c.Dt < MinDt {
		bad("dt must be at least %g, got %g", MinDt, c.Dt)
	}
	if c.FPS <= 0 {
		bad("fps must be positive, got %d", c.FPS)
	}
	if c.Duration < 0 || math.IsNaN(c.Duration) {
		bad("duration must not be negative, got %g", c.Duration)
	}
	if c.TrailLength < 0 {
		bad("trail_length must not be negative, got %d", c.TrailLength)
	}
	if c.Jitter < 0 || c.Jitter >= 1 {
		bad("jitter must be in [0, 1), got %g", c.Jitter)
	}
	if c.Particle.M == 0 {
		bad("particle mass must be non-zero")
	}
	if c.Pendulum.Mass == 0 {
		bad("pendulum mass must be non-zero")
	}
	if c.Log.Level != "" && !slices.Contains(LogLevels, c.Log.Level) {
		bad("unknown log level %q", c.Log.Level)
	}
	return errors.Join(errs...)
}

// ParticleParams maps the particle section onto model parameter names.
func (c *Config) ParticleParams() map[string]float64 {
	p := c.Particle
	return map[string]float64{
		"q":  p.Q,
		"m":  p.M,
		"vx": p.V.X,
		"vy": p.V.Y,
		"vz": p.V.Z,
		"Ex": p.E.X,
		"Ey": p.E.Y,
		"Ez": p.E.Z,
		"Bx": p.B.X,
		"By": p.B.Y,
		"Bz": p.B.Z,
	}
}

// PendulumParams omits theta0, which sets the start angle rather than a
// constant of the law.
func (c *Config) PendulumParams() map[string]float64 {
	p := c.Pendulum
	return map[string]float64{
		"omega":    p.Omega,
		"g_over_r": p.GOverR,
		"gamma":    p.Gamma,
		"m":        p.Mass,
	}
}
