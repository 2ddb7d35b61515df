// SPDX-License-Identifier: MIT

// Package matrix: functional configuration for spectral repair kernels.
// This file defines:
//   - Option / Options (functional options with internal state),
//   - documented defaults (constants),
//   - WithX constructors with strong validation (panic on nonsensical values),
//   - gatherOptions helper (internal) that enforces invariants.
//
// Design goals:
//   - Deterministic behavior: no global state, no implicit randomness.
//   - Safe by construction: panic only on invalid parameters (programmer error).
package matrix

import "math"

// ---------- Defaults (single source of truth) ----------

const (
	// DefaultEpsilon is the convergence tolerance for Jacobi sweeps and the
	// symmetry tolerance used by spectral kernels.
	DefaultEpsilon = 1e-10

	// DefaultEigenFloor is the smallest eigenvalue kept by NearestCorrelation.
	// Eigenvalues below it are raised to it before reconstruction.
	DefaultEigenFloor = 1e-6

	// DefaultMaxSweepFactor scales the Jacobi iteration budget with n²:
	// maxIter = DefaultMaxSweepFactor * n * n (at least minJacobiIter).
	DefaultMaxSweepFactor = 50

	// minJacobiIter keeps tiny matrices from getting an unreasonably small budget.
	minJacobiIter = 100
)

// ---------- Internal panic messages (no magic strings) ----------

const (
	panicEpsilonInvalid    = "matrix: WithEpsilon: eps must be finite, positive"
	panicEigenFloorInvalid = "matrix: WithEigenFloor: floor must be finite, positive"
	panicMaxIterInvalid    = "matrix: WithMaxIter: iterations must be > 0"
)

// Option mutates internal options. Safe to apply repeatedly (idempotent).
// Constructors MUST panic only on nonsensical values (programmer error).
type Option func(*Options)

// Options is the resolved configuration of a spectral kernel call.
type Options struct {
	eps        float64
	eigenFloor float64
	maxIter    int // 0 means "derive from n"
}

// WithEpsilon sets the convergence/symmetry tolerance.
// Panics if eps is NaN, Inf, or not positive.
func WithEpsilon(eps float64) Option {
	if math.IsNaN(eps) || math.IsInf(eps, 0) || eps <= 0 {
		panic(panicEpsilonInvalid)
	}

	return func(o *Options) { o.eps = eps }
}

// WithEigenFloor sets the eigenvalue floor used by NearestCorrelation.
// Panics if floor is NaN, Inf, or not positive.
func WithEigenFloor(floor float64) Option {
	if math.IsNaN(floor) || math.IsInf(floor, 0) || floor <= 0 {
		panic(panicEigenFloorInvalid)
	}

	return func(o *Options) { o.eigenFloor = floor }
}

// WithMaxIter caps the number of Jacobi rotations.
// Panics if n <= 0.
func WithMaxIter(n int) Option {
	if n <= 0 {
		panic(panicMaxIterInvalid)
	}

	return func(o *Options) { o.maxIter = n }
}

// defaultOptions returns the documented defaults.
func defaultOptions() Options {
	return Options{
		eps:        DefaultEpsilon,
		eigenFloor: DefaultEigenFloor,
	}
}

// gatherOptions applies user options over defaults, skipping nil entries.
func gatherOptions(user ...Option) Options {
	o := defaultOptions()
	for _, fn := range user {
		if fn != nil {
			fn(&o)
		}
	}

	return o
}

// iterBudget resolves the Jacobi iteration cap for an n×n input.
func (o Options) iterBudget(n int) int {
	if o.maxIter > 0 {
		return o.maxIter
	}
	it := DefaultMaxSweepFactor * n * n
	if it < minJacobiIter {
		it = minJacobiIter
	}

	return it
}
