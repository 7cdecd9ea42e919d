// Package network is a compact reaction-network engine that satisfies
// [dynamo.Engine].
//
// A [Net] holds species and reactions with a parameterized rate
//
//	lambda(T9) = A * T9^N * exp(-B / T9)
//
// and validates charge and baryon number of every reaction. Leptons
// (electron, positron, neutrino_e, anti-neutrino_e) may appear in
// reactions; they are counted for charge and carry no mass excess.
//
// # Views
//
// A [View] selects species and reactions with CUE boolean expressions:
//
//	net.NewView("light", "z <= 2", `label != "n decay"`)
//
// Species expose z, a, n and name; reactions expose label, q, reactants
// and products. A reaction belongs to a view only if all of its nuclides
// do. An empty filter selects everything.
//
// # Engine
//
// [Engine] evolves abundances with backward Euler and Newton iterations,
// halving the step on failure. Its entropy is that of a photon gas plus an
// ideal Boltzmann gas of nuclei; electrons are not modelled.
package network
