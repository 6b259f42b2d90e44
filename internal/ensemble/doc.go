// Package ensemble holds the configuration and energy model for the 2D
// coarse-grained Monte Carlo simulation.
//
// A [Configuration] is a rectangular domain containing rigid [Object]
// placements. Each object carries a fixed pattern of interaction sites
// described by a [topology.Topology]; pairwise energies come from a
// [ForceField]. Periodic domains use the minimum-image convention on object
// centers; non-periodic domains add a hard-wall term.
//
// # Incremental energy
//
// Every object caches the sum of its interactions with all partners. A move
// or rotation marks the object and its neighbourhood dirty; the next call to
// [Configuration.Energy] recomputes only the dirty caches and halves the
// double-counted sum. The dirty set must reflect every structural change
// since the last energy call.
package ensemble
