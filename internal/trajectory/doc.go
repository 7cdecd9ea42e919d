// Package trajectory provides the parameterized expansion trajectory that
// drives density in an entropy-generation run.
//
// The state vector is x[0] (scale factor), x[1] (its rate) and x[2]
// (entropy per nucleon). [Model] computes:
//
//   - [Model.InitialState]: x[0] = 1 and the matching initial rate
//   - [Model.Density]: rho_0 / x[0]^3
//   - [Model.Acceleration]: the normalized rate x[1] / (3 tau)
//   - [Model.Jerk]: the third-order term of the density profile, recorded
//     as the "jerk" property of every checkpoint
//
// All methods are pure; none of them writes into the state vector.
package trajectory
