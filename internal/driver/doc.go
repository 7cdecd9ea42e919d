// Package driver runs the coupled trajectory/network integration.
//
// A [Driver] moves through three phases:
//
//	Initializing -> Stepping -> Done
//
// Initializing sets the zone to the trajectory's initial temperature and
// density, takes the initial entropy from the engine and clamps the first
// step to the end time. Every Stepping iteration takes one integrator step
// through a fresh [coupling.RHS], commits density, entropy and temperature
// to the zone, evolves the engine over the accepted step, checkpoints at
// the configured cadence, prunes the engine and picks the next step with a
// [stepctl.Controller]. Steps are never rejected.
//
// Done always flushes the checkpoint writer, including after a failed or
// cancelled run.
package driver
