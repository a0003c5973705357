package sim

import "github.com/san-kum/fieldsim/internal/dynamo"

// Frame is what a view receives after the state changes.
type Frame[T dynamo.Vector[T]] struct {
	State   dynamo.State[T]
	Trail   []T
	Time    float64
	Steps   uint64
	Running bool
}

// View is the rendering collaborator. Draw must not block.
type View[T dynamo.Vector[T]] interface {
	Draw(Frame[T])
	ParamsChanged(params map[string]float64)
}

// Observer sees every integration step, unlike a View which sees frames.
type Observer[T dynamo.Vector[T]] interface {
	OnStep(s dynamo.State[T], t float64)
	Reset()
}

type MultiView[T dynamo.Vector[T]] []View[T]

func (mv MultiView[T]) Draw(f Frame[T]) {
	for _, v := range mv {
		v.Draw(f)
	}
}

func (mv MultiView[T]) ParamsChanged(params map[string]float64) {
	for _, v := range mv {
		v.ParamsChanged(params)
	}
}

type nopView[T dynamo.Vector[T]] struct{}

func (nopView[T]) Draw(Frame[T])                    {}
func (nopView[T]) ParamsChanged(map[string]float64) {}
