// Package dynamo provides the core primitives of the trajectory/entropy
// integration.
//
// The package defines the types shared by every other package:
//
//   - [State]: the ODE state vector (scale factor, its rate, entropy per nucleon)
//   - [Zone]: the committed thermodynamic state of the network zone
//   - [Engine]: the contract a reaction-network engine must satisfy
//   - [System]: a right-hand side dX/dt = f(X, t) that may fail
//   - [Integrator]: a numerical stepper over a [System]
//   - [Observer], [StepObserver], [Metric]: diagnostics hooks
//
// # Example
//
//	model := trajectory.New(params)
//	rhs := coupling.New(engine, model, solver, nil)
//	x, err := integ.Step(rhs, x, t, dt)
//
// # Thread Safety
//
// A [Zone] and the [Engine] that owns it are NOT thread-safe. A run mutates
// them from a single call stack; diagnostics that cross goroutines must
// copy [StepInfo] values.
package dynamo
