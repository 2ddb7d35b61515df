// SPDX-License-Identifier: MIT

package sampler

import (
	"fmt"
	"log/slog"
	"math"
	"runtime"

	"github.com/katalvlaran/tabularforge/matrix"
)

// Defaults for Options.
const (
	// DefaultChunkSize is the number of rows drawn from one random stream.
	DefaultChunkSize = 4096

	// DefaultEigenFloor is the smallest eigenvalue kept when the latent
	// correlation is repaired before factorization.
	DefaultEigenFloor = matrix.DefaultEigenFloor
)

// Option configures Sample.
type Option func(*options)

type options struct {
	seed       uint64
	seeded     bool
	workers    int
	chunkSize  int
	eigenFloor float64
	maxIter    int
	logger     *slog.Logger
}

func defaultOptions() options {
	return options{
		workers:    runtime.GOMAXPROCS(0),
		chunkSize:  DefaultChunkSize,
		eigenFloor: DefaultEigenFloor,
		logger:     slog.New(slog.DiscardHandler),
	}
}

func gatherOptions(user ...Option) options {
	o := defaultOptions()
	for _, fn := range user {
		if fn != nil {
			fn(&o)
		}
	}

	return o
}

// WithSeed fixes the random seed; equal seeds give identical output.
// Without it every call draws a fresh seed.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = seed
		o.seeded = true
	}
}

// WithWorkers bounds the number of chunks generated concurrently.
// Output does not depend on the value. Panics if n < 1.
func WithWorkers(n int) Option {
	if n < 1 {
		panic(fmt.Sprintf("sampler: WithWorkers(%d): must be >= 1", n))
	}
	return func(o *options) { o.workers = n }
}

// WithChunkSize sets the rows per random stream. Output for a given seed
// depends on it. Panics if n < 1.
func WithChunkSize(n int) Option {
	if n < 1 {
		panic(fmt.Sprintf("sampler: WithChunkSize(%d): must be >= 1", n))
	}
	return func(o *options) { o.chunkSize = n }
}

// WithEigenFloor sets the eigenvalue floor of the correlation repair.
// Panics if floor is not a finite positive number.
func WithEigenFloor(floor float64) Option {
	if !(floor > 0) || math.IsInf(floor, 1) {
		panic(fmt.Sprintf("sampler: WithEigenFloor(%g): must be finite and > 0", floor))
	}
	return func(o *options) { o.eigenFloor = floor }
}

// WithMaxIter caps the Jacobi rotations of the correlation repair; the
// default scales with the column count. When the repair does not converge the
// columns are sampled independently. Panics if n < 1.
func WithMaxIter(n int) Option {
	if n < 1 {
		panic(fmt.Sprintf("sampler: WithMaxIter(%d): must be >= 1", n))
	}
	return func(o *options) { o.maxIter = n }
}

// repair returns the matrix options of the correlation repair.
func (o options) repair() []matrix.Option {
	out := []matrix.Option{matrix.WithEigenFloor(o.eigenFloor)}
	if o.maxIter > 0 {
		out = append(out, matrix.WithMaxIter(o.maxIter))
	}

	return out
}

// WithLogger routes diagnostics (notably the independence fallback) to l.
// A nil logger is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
