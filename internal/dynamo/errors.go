package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for integration runs. None of them is recoverable inside a
// run: callers abort and report.
var (
	// ErrConfiguration indicates invalid parameter relationships, e.g. rho_1 > rho_0.
	ErrConfiguration = errors.New("dynamo: invalid configuration")

	// ErrDomain indicates the trajectory left its domain (x[0] <= 0 or a singular density).
	ErrDomain = errors.New("dynamo: trajectory outside its domain")

	// ErrRootNotBracketed indicates the temperature solve could not bracket a root.
	ErrRootNotBracketed = errors.New("dynamo: temperature root not bracketed")

	// ErrEngine indicates a failure surfaced by the network engine.
	ErrEngine = errors.New("dynamo: network engine failure")

	// ErrMissingProperty indicates a required zone property is absent.
	ErrMissingProperty = errors.New("dynamo: missing zone property")

	// ErrInvalidState indicates a state vector with NaN or Inf components.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")
)

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.6e): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}

// Configf returns an ErrConfiguration carrying a formatted reason.
func Configf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// Domainf returns an ErrDomain carrying a formatted reason.
func Domainf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrDomain, fmt.Sprintf(format, args...))
}
