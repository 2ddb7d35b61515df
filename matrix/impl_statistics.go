// SPDX-License-Identifier: MIT
// Package: matrix
//
// Purpose:
//   - Provide column statistics (centering, Pearson correlation) as deterministic
//     compositions over canonical kernels (Mul/Transpose/Scale).
//
// Determinism & Performance:
//   - Fixed i→j traversal for all explicit loops on flat row-major buffers.
//
// Notes:
//   - Correlation of rank-transformed columns is Spearman's rho; the dependency
//     estimator relies on that identity.

package matrix

import "math"

// Operation name constants for unified error wrapping and reducing magic strings.
const (
	opCenterColumns = "CenterColumns"
	opCorrelation   = "Correlation"
)

// centerColumns subtracts the per-column mean from every element.
//
// Returns:
//   - Matrix: centered copy (r×c).
//   - []float64: column means (len=c).
//
// Errors:
//   - ErrNilMatrix from validation.
//
// Complexity:
//   - Time O(r*c), Space O(r*c).
func centerColumns(X Matrix) (Matrix, []float64, error) {
	if err := ValidateNotNil(X); err != nil {
		return nil, nil, matrixErrorf(opCenterColumns, err)
	}
	d, err := toDense(X)
	if err != nil {
		return nil, nil, matrixErrorf(opCenterColumns, err)
	}
	r, c := d.r, d.c
	means := make([]float64, c)

	var i, j, base int
	for i = 0; i < r; i++ {
		base = i * c
		for j = 0; j < c; j++ {
			means[j] += d.data[base+j]
		}
	}
	invR := 1.0 / float64(r)
	for j = 0; j < c; j++ {
		means[j] *= invR
	}

	out := d.Clone().(*Dense)
	for i = 0; i < r; i++ {
		base = i * c
		for j = 0; j < c; j++ {
			out.data[base+j] -= means[j]
		}
	}

	return out, means, nil
}

// correlation computes the Pearson correlation of columns via z-scoring:
// Corr = (Zᵀ Z)/(r-1), where Z = (X − mean) * diag(1/std).
//
// Behavior highlights:
//   - Symmetric; diagonal is 1 for non-degenerate columns and 0 for degenerate
//     (std == 0) columns, whose rows/columns are all zero.
//
// Returns:
//   - Matrix: Correlation (c×c).
//   - []float64: column means.
//   - []float64: column stds (sample).
//
// Errors:
//   - ErrNilMatrix, ErrDimensionMismatch (r<2).
//
// Complexity:
//   - Time O(r*c²), Space O(r*c + c²).
func correlation(X Matrix) (Matrix, []float64, []float64, error) {
	if err := ValidateNotNil(X); err != nil {
		return nil, nil, nil, matrixErrorf(opCorrelation, err)
	}
	r, c := X.Rows(), X.Cols()
	// Sample correlation requires at least two observations.
	if r < 2 {
		return nil, nil, nil, matrixErrorf(opCorrelation, ErrDimensionMismatch)
	}

	Xc, means, err := centerColumns(X)
	if err != nil {
		return nil, nil, nil, matrixErrorf(opCorrelation, err)
	}
	z := Xc.(*Dense)

	// std[j] = sqrt( Σ_i Xc[i,j]^2 / (r-1) ).
	stds := make([]float64, c)
	var i, j, base int
	var v float64
	for i = 0; i < r; i++ {
		base = i * c
		for j = 0; j < c; j++ {
			v = z.data[base+j]
			stds[j] += v * v
		}
	}
	inv := 1.0 / float64(r-1)
	for j = 0; j < c; j++ {
		stds[j] = math.Sqrt(stds[j] * inv)
	}

	// Z-score in place; degenerate std==0 zeroes the column.
	for i = 0; i < r; i++ {
		base = i * c
		for j = 0; j < c; j++ {
			if stds[j] > 0 {
				z.data[base+j] /= stds[j]
			} else {
				z.data[base+j] = 0
			}
		}
	}

	Zt, err := Transpose(z)
	if err != nil {
		return nil, nil, nil, matrixErrorf(opCorrelation, err)
	}
	G, err := Mul(Zt, z)
	if err != nil {
		return nil, nil, nil, matrixErrorf(opCorrelation, err)
	}
	corr, err := Scale(G, inv)
	if err != nil {
		return nil, nil, nil, matrixErrorf(opCorrelation, err)
	}

	return corr, means, stds, nil
}
