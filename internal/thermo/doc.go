// Package thermo solves for the temperature consistent with a target
// entropy per nucleon.
//
// [Solver.Solve] brackets the root multiplicatively around a guess and
// refines it with Brent's method. [Solver.ForEntropy] applies it to an
// [dynamo.EntropySource], holding density and composition fixed.
package thermo
