// Package mc drives the Metropolis Monte Carlo integration of a
// configuration in the canonical (NVT) ensemble.
//
// Each step picks an object uniformly at random, proposes a compound
// translate-and-rotate move, and accepts it with probability
// min(1, exp(-beta*dE)). The proposal half-width adapts toward a 50%
// acceptance rate; adaptation looks only at past acceptance history, so the
// proposal stays symmetric and the chain unbiased.
//
// The integrator owns no configuration state: it borrows the configuration
// for the duration of a Run and carries only its counters, its step width,
// and an injected random source.
package mc
