// SPDX-License-Identifier: MIT
// Package matrix: public facade over the statistics and spectral kernels.
// Kernels live in impl_*.go; this file only exposes them under stable names.

package matrix

import "math"

// CenterColumns subtracts each column's mean; returns the centered copy and the means.
func CenterColumns(X Matrix) (Matrix, []float64, error) { return centerColumns(X) }

// Correlation returns the Pearson correlation of X's columns together with the
// column means and sample standard deviations. Degenerate columns produce
// zero rows/columns (including a zero diagonal entry).
func Correlation(X Matrix) (Matrix, []float64, []float64, error) { return correlation(X) }

// NearestCorrelation repairs a symmetric estimate into a positive definite
// correlation matrix with unit diagonal. See impl_correlation.go.
func NearestCorrelation(A Matrix, opts ...Option) (Matrix, error) {
	return nearestCorrelation(A, opts...)
}

// AllClose reports whether |a−b| ≤ atol + rtol·|b| holds elementwise.
// Returns ErrDimensionMismatch on shape mismatch.
func AllClose(a, b Matrix, rtol, atol float64) (bool, error) {
	if err := ValidateNotNil(a); err != nil {
		return false, err
	}
	if err := ValidateNotNil(b); err != nil {
		return false, err
	}
	if a.Rows() != b.Rows() || a.Cols() != b.Cols() {
		return false, ErrDimensionMismatch
	}
	var av, bv float64
	for i := 0; i < a.Rows(); i++ {
		for j := 0; j < a.Cols(); j++ {
			av, _ = a.At(i, j)
			bv, _ = b.At(i, j)
			if math.Abs(av-bv) > atol+rtol*math.Abs(bv) {
				return false, nil
			}
		}
	}

	return true, nil
}
