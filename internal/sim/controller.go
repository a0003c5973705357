package sim

import (
	"fmt"
	"log/slog"

	"github.com/san-kum/fieldsim/internal/dynamo"
)

// Model is everything the controller needs from a physical model.
type Model[T dynamo.Vector[T]] interface {
	dynamo.Model[T]
	dynamo.Configurable
	dynamo.Resettable
}

type ControllerOptions[T dynamo.Vector[T]] struct {
	// TrailLength is the trajectory capacity; zero disables the trail.
	TrailLength int
	View        View[T]
	Observers   []Observer[T]
	// Overrides are applied on top of the model defaults at every reset.
	Overrides map[string]float64
	Logger    *slog.Logger
}

// Controller owns a model and its trajectory and is the only entry point
// that mutates them. It starts idle.
type Controller[T dynamo.Vector[T]] struct {
	model     Model[T]
	integ     dynamo.Integrator[T]
	trail     *Trajectory[T]
	view      View[T]
	observers []Observer[T]
	overrides map[string]float64
	log       *slog.Logger

	running bool
	steps   uint64
}

// NewController validates the overrides and leaves the model in its reset
// state with the view drawn once.
func NewController[T dynamo.Vector[T]](m Model[T], integ dynamo.Integrator[T], opts ControllerOptions[T]) (*Controller[T], error) {
	c := &Controller[T]{
		model:     m,
		integ:     integ,
		view:      opts.View,
		observers: opts.Observers,
		overrides: make(map[string]float64, len(opts.Overrides)),
		log:       opts.Logger,
	}
	if c.view == nil {
		c.view = nopView[T]{}
	}
	if c.log == nil {
		c.log = slog.New(slog.DiscardHandler)
	}
	if opts.TrailLength > 0 {
		c.trail = NewTrajectory(opts.TrailLength, m.State().X)
	}

	m.Reset()
	for name, v := range opts.Overrides {
		if err := c.validate(name, v); err != nil {
			return nil, fmt.Errorf("override: %w", err)
		}
		c.overrides[name] = v
	}

	c.Reset()
	return c, nil
}

func (c *Controller[T]) Running() bool { return c.running }

func (c *Controller[T]) Start() {
	if !c.running {
		c.running = true
		c.log.Debug("simulation started", "t", c.SimTime())
	}
}

func (c *Controller[T]) Stop() {
	if c.running {
		c.running = false
		c.log.Debug("simulation stopped", "t", c.SimTime())
	}
}

func (c *Controller[T]) ToggleRunning() bool {
	if c.running {
		c.Stop()
	} else {
		c.Start()
	}
	return c.running
}

// Reset returns to idle with the model, trail and observers reinitialised,
// then redraws the view so it shows the defaults immediately.
func (c *Controller[T]) Reset() {
	c.running = false
	c.steps = 0
	c.model.Reset()
	for name, v := range c.overrides {
		if err := c.model.SetParam(name, v); err != nil {
			c.log.Error("override rejected on reset", "param", name, "value", v, "err", err)
		}
	}
	if c.trail != nil {
		c.trail.Fill(c.model.State().X)
	}
	for _, o := range c.observers {
		o.Reset()
	}
	c.log.Debug("simulation reset")

	c.view.ParamsChanged(c.model.Params())
	c.Render()
}

// SetParameter validates value against the parameter's published bounds
// before it reaches the model. A refused value leaves the old one in place.
func (c *Controller[T]) SetParameter(name string, value float64) error {
	if err := c.validate(name, value); err != nil {
		c.log.Warn("parameter refused", "param", name, "value", value, "err", err)
		return err
	}
	if err := c.model.SetParam(name, value); err != nil {
		c.log.Warn("parameter refused", "param", name, "value", value, "err", err)
		return err
	}
	c.view.ParamsChanged(c.model.Params())
	return nil
}

func (c *Controller[T]) validate(name string, value float64) error {
	spec, ok := c.spec(name)
	switch {
	case !ok:
		return &dynamo.ParamError{Name: name, Value: value, Err: dynamo.ErrUnknownParam}
	case !dynamo.IsFinite(value):
		return &dynamo.ParamError{Name: name, Value: value, Err: dynamo.ErrNonFinite}
	case spec.NonZero && value == 0:
		return &dynamo.ParamError{Name: name, Value: value, Err: dynamo.ErrZeroDivisor}
	case !spec.Contains(value):
		return &dynamo.ParamError{Name: name, Value: value, Err: dynamo.ErrParameterBounds}
	}
	return nil
}

func (c *Controller[T]) spec(name string) (dynamo.ParamSpec, bool) {
	for _, s := range c.model.Specs() {
		if s.Name == name {
			return s, true
		}
	}
	return dynamo.ParamSpec{}, false
}

// Tick advances the model by one integration step and records it. It does
// not draw; callers render once after a batch of ticks.
func (c *Controller[T]) Tick() {
	s := c.integ.Advance(c.model, c.model.State())
	c.model.SetState(s)
	c.steps++
	if c.trail != nil {
		c.trail.Push(s.X)
	}
	t := c.SimTime()
	for _, o := range c.observers {
		o.OnStep(s, t)
	}
}

// Render pushes the state as of the last completed step to the view.
func (c *Controller[T]) Render() {
	c.view.Draw(c.Frame())
}

func (c *Controller[T]) Frame() Frame[T] {
	f := Frame[T]{
		State:   c.model.State(),
		Time:    c.SimTime(),
		Steps:   c.steps,
		Running: c.running,
	}
	if c.trail != nil {
		f.Trail = c.trail.Slice()
	}
	return f
}

func (c *Controller[T]) SimTime() float64 { return float64(c.steps) * c.integ.Dt() }
func (c *Controller[T]) Steps() uint64    { return c.steps }
func (c *Controller[T]) Dt() float64      { return c.integ.Dt() }

func (c *Controller[T]) Params() map[string]float64 { return c.model.Params() }
func (c *Controller[T]) Specs() []dynamo.ParamSpec  { return c.model.Specs() }

// Model exposes the underlying model for read-only queries such as energy.
func (c *Controller[T]) Model() Model[T] { return c.model }
