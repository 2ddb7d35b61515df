// SPDX-License-Identifier: MIT
// Package matrix_test contains test helpers
//
// Purpose:
//   • Provide small, deterministic test fixtures and utilities for kernels.
//   • Keep all data finite and well-formed.

package matrix_test

import (
	"math"
	"testing"

	"github.com/katalvlaran/tabularforge/matrix"
	"github.com/stretchr/testify/require"
)

// hide wraps any Matrix to hide its concrete type from type assertions,
// forcing kernels through their generic (At/Set) materialization path.
type hide struct{ matrix.Matrix }

// NewFilledDense allocates an r×c *Dense from row-major data or fails the test.
func NewFilledDense(t *testing.T, r, c int, data []float64) *matrix.Dense {
	t.Helper()
	m, err := matrix.NewDenseFrom(r, c, data)
	require.NoError(t, err)

	return m
}

// MustAt reads m(i,j) or fails the test.
func MustAt(t *testing.T, m matrix.Matrix, i, j int) float64 {
	t.Helper()
	v, err := m.At(i, j)
	require.NoError(t, err)

	return v
}

// CompareClose asserts elementwise closeness of two matrices.
func CompareClose(t *testing.T, got, want matrix.Matrix, rtol, atol float64) {
	t.Helper()
	ok, err := matrix.AllClose(got, want, rtol, atol)
	require.NoError(t, err)
	require.Truef(t, ok, "matrices differ:\n got=%v\nwant=%v", got, want)
}

// reconstruct returns Q·diag(eigs)·Qᵀ for eigen round-trip checks.
func reconstruct(t *testing.T, eigs []float64, q matrix.Matrix) matrix.Matrix {
	t.Helper()
	n := len(eigs)
	out, err := matrix.NewDense(n, n)
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			var acc float64
			for k := 0; k < n; k++ {
				acc += MustAt(t, q, i, k) * eigs[k] * MustAt(t, q, j, k)
			}
			require.NoError(t, out.Set(i, j, acc))
		}
	}

	return out
}

// requireValidCorrelation asserts symmetry, unit diagonal, [-1,1] range and a
// successful Cholesky factorization.
func requireValidCorrelation(t *testing.T, c matrix.Matrix) {
	t.Helper()
	require.NoError(t, matrix.ValidateCorrelation(c, 1e-9))
	_, err := matrix.Cholesky(c)
	require.NoError(t, err)
	for i := 0; i < c.Rows(); i++ {
		require.InDelta(t, 1.0, MustAt(t, c, i, i), 1e-12)
		for j := 0; j < c.Cols(); j++ {
			require.False(t, math.IsNaN(MustAt(t, c, i, j)))
		}
	}
}
