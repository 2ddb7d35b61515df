// SPDX-License-Identifier: MIT

// Package sampler draws synthetic rows from a fitted model with a Gaussian
// copula.
//
// For each row, d independent standard normals z are coupled as y = L·z, where
// L is the Cholesky factor of the latent correlation R, R_ij = 2·sin(π·ρ_ij/6)
// for Spearman coefficients ρ. Each coupled value is mapped to a uniform
// u = Φ(y_j) and then through the column profile's quantile function. A second
// set of d uniforms decides, cell by cell, whether the value is replaced by a
// missing cell.
//
// Rows are produced in fixed-size chunks, each driven by its own PCG stream
// keyed by (seed, chunk index), so the output for a seed is identical for any
// worker count.
package sampler

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/katalvlaran/tabularforge/dataset"
	"github.com/katalvlaran/tabularforge/dependency"
	"github.com/katalvlaran/tabularforge/matrix"
	"github.com/katalvlaran/tabularforge/model"
	"github.com/katalvlaran/tabularforge/profile"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat/distuv"
)

// Sentinel errors.
var (
	// ErrInvalidSampleSize is returned for a non-positive row count.
	ErrInvalidSampleSize = errors.New("sampler: sample size must be > 0")

	// ErrNilModel is returned when no model is given.
	ErrNilModel = errors.New("sampler: nil model")
)

// LatentCorrelation converts Spearman coefficients into the Pearson
// correlation of the Gaussian latent space: R_ij = 2·sin(π·ρ_ij/6).
func LatentCorrelation(dep dependency.Structure) (*matrix.Dense, error) {
	if dep.Coefficients == nil {
		return nil, fmt.Errorf("sampler: latent correlation: %w", matrix.ErrNilMatrix)
	}
	n := dep.Coefficients.Rows()
	r, err := matrix.NewIdentity(n)
	if err != nil {
		return nil, fmt.Errorf("sampler: latent correlation: %w", err)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			rho, err := dep.Coefficients.At(i, j)
			if err != nil {
				return nil, fmt.Errorf("sampler: latent correlation: %w", err)
			}
			if err = r.Set(i, j, 2*math.Sin(math.Pi*rho/6)); err != nil {
				return nil, fmt.Errorf("sampler: latent correlation: %w", err)
			}
		}
	}

	return r, nil
}

// Factor returns the lower Cholesky factor of the latent correlation of dep
// after NearestCorrelation repairs it with the given options.
//
// Errors:
//   - matrix.ErrEigenFailed, matrix.ErrNotPositiveDefinite and friends when the
//     repair or the factorization fails.
func Factor(dep dependency.Structure, repair ...matrix.Option) (matrix.Matrix, error) {
	r, err := LatentCorrelation(dep)
	if err != nil {
		return nil, err
	}
	fixed, err := matrix.NearestCorrelation(r, repair...)
	if err != nil {
		return nil, fmt.Errorf("sampler: factor: %w", err)
	}
	l, err := matrix.Cholesky(fixed)
	if err != nil {
		return nil, fmt.Errorf("sampler: factor: %w", err)
	}

	return l, nil
}

// Sample draws n synthetic rows from m. Columns follow the model's
// fingerprint in order, name and semantic type.
//
// Errors:
//   - ErrNilModel, ErrInvalidSampleSize.
//   - ctx.Err() when cancelled between chunks.
func Sample(ctx context.Context, m *model.Model, n int, opts ...Option) (*dataset.Dataset, error) {
	if m == nil {
		return nil, ErrNilModel
	}
	if n <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSampleSize, n)
	}
	o := gatherOptions(opts...)
	if !o.seeded {
		o.seed = rand.Uint64()
	}

	profiles := m.Profiles()
	d := len(profiles)
	lower := factorRows(m.Dependency(), o)

	cols := make([][]any, d)
	for j := range cols {
		cols[j] = make([]any, n)
	}

	chunks := (n + o.chunkSize - 1) / o.chunkSize
	o.logger.Debug("sampling", "rows", n, "columns", d, "chunks", chunks, "seed", o.seed)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for k := 0; k < chunks; k++ {
		k := k
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			lo := k * o.chunkSize
			hi := min(lo+o.chunkSize, n)
			fillChunk(cols, lo, hi, profiles, lower, rand.New(rand.NewPCG(o.seed, uint64(k))))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]dataset.Column, d)
	for j, p := range profiles {
		out[j] = dataset.Column{Name: p.Name, Type: p.Type, Values: cols[j]}
	}

	return &dataset.Dataset{Columns: out}, nil
}

// factorRows returns the rows of the Cholesky factor, or nil for independent
// columns. A failed repair degrades to independence with a warning.
func factorRows(dep dependency.Structure, o options) [][]float64 {
	n := len(dep.Columns)
	if n < 2 {
		return nil
	}
	l, err := Factor(dep, o.repair()...)
	if err != nil {
		o.logger.Warn("dependency structure could not be factorized; sampling columns independently",
			"error", err)
		return nil
	}
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, i+1)
		for k := 0; k <= i; k++ {
			rows[i][k], _ = l.At(i, k)
		}
	}

	return rows
}

// fillChunk writes rows [lo, hi) of every column. Per row it consumes d normals
// and then d uniforms from rng.
func fillChunk(cols [][]any, lo, hi int, profiles []profile.Profile, lower [][]float64, rng *rand.Rand) {
	d := len(profiles)
	z := make([]float64, d)
	for i := lo; i < hi; i++ {
		for j := range z {
			z[j] = rng.NormFloat64()
		}
		for j, p := range profiles {
			y := z[j]
			if lower != nil {
				y = 0
				for k, l := range lower[j] {
					y += l * z[k]
				}
			}
			cols[j][i] = p.Quantile(distuv.UnitNormal.CDF(y))
		}
		for j, p := range profiles {
			if rng.Float64() < p.MissingRate {
				cols[j][i] = nil
			}
		}
	}
}
