package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for parameter mutation and integrator setup.
var (
	// ErrUnknownParam indicates a parameter name the model does not expose.
	ErrUnknownParam = errors.New("dynamo: unknown parameter")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrNonFinite indicates a NaN or infinite parameter value.
	ErrNonFinite = errors.New("dynamo: parameter is not finite")

	// ErrZeroDivisor indicates a zero value for a parameter the law divides by.
	ErrZeroDivisor = errors.New("dynamo: parameter must be non-zero")

	// ErrInvalidTimestep indicates a non-positive or non-finite dt.
	ErrInvalidTimestep = errors.New("dynamo: timestep must be positive and finite")
)

// ParamError wraps a refused parameter mutation with its name and value.
type ParamError struct {
	Name  string
	Value float64
	Err   error
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("%s=%g: %v", e.Name, e.Value, e.Err)
}

func (e *ParamError) Unwrap() error {
	return e.Err
}
