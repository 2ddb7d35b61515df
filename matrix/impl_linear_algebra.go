// SPDX-License-Identifier: MIT
// Package matrix provides universal operations on any Matrix implementation:
// matrix multiplication, transpose, scalar scaling, matrix-vector products,
// symmetric eigen decomposition and Cholesky factorization. All functions
// perform strict fail-fast validation and return clear errors.
//
// Notes:
//   - Every kernel materializes its operands as *Dense once (toDense) and then
//     runs flat row-major loops; fixed loop orders keep results reproducible.
//   - All errors are wrapped via matrixErrorf with an op* tag.

package matrix

import (
	"fmt"
	"math"
)

// ZeroSum is the initial sum value for dot products and substitutions.
const ZeroSum = 0.0

// Operation name constants for unified error wrapping and reducing magic strings.
const (
	opMul       = "Mul"
	opTranspose = "Transpose"
	opScale     = "Scale"
	opEigen     = "Eigen"
	opCholesky  = "Cholesky"
)

// matrixErrorf wraps err with an operation tag, preserving the original error via %w.
// Use only when err != nil to avoid creating a non-nil wrapper around a nil cause.
func matrixErrorf(tag string, err error) error {
	return fmt.Errorf("%s: %w", tag, err)
}

// Mul returns the matrix product a·b.
//
// Implementation:
//   - Stage 1: ValidateMulCompatible(a, b); materialize both as *Dense.
//   - Stage 2: i→k→j accumulation into a fresh result (row-major friendly).
//
// Errors:
//   - ErrNilMatrix, ErrDimensionMismatch (a.Cols != b.Rows).
//
// Complexity:
//   - Time O(r·k·c), Space O(r·c).
func Mul(a, b Matrix) (Matrix, error) {
	if err := ValidateMulCompatible(a, b); err != nil {
		return nil, matrixErrorf(opMul, err)
	}
	da, err := toDense(a)
	if err != nil {
		return nil, matrixErrorf(opMul, err)
	}
	db, err := toDense(b)
	if err != nil {
		return nil, matrixErrorf(opMul, err)
	}

	aRows, aCols, bCols := da.r, da.c, db.c
	res, err := NewDense(aRows, bCols)
	if err != nil {
		return nil, matrixErrorf(opMul, err)
	}

	var (
		i, k, j                            int
		av                                 float64
		rowOffsetA, rowOffsetB, rowOffsetR int
	)
	for i = 0; i < aRows; i++ {
		rowOffsetA = i * aCols
		rowOffsetR = i * bCols
		for k = 0; k < aCols; k++ {
			av = da.data[rowOffsetA+k]
			if av == 0 {
				continue // skip zero for performance
			}
			rowOffsetB = k * bCols
			for j = 0; j < bCols; j++ {
				res.data[rowOffsetR+j] += av * db.data[rowOffsetB+j]
			}
		}
	}

	return res, nil
}

// Transpose returns a new matrix with rows and columns swapped (mᵀ).
// Complexity: O(r·c) time and space.
func Transpose(m Matrix) (Matrix, error) {
	if err := ValidateNotNil(m); err != nil {
		return nil, matrixErrorf(opTranspose, err)
	}
	dm, err := toDense(m)
	if err != nil {
		return nil, matrixErrorf(opTranspose, err)
	}
	rows, cols := dm.r, dm.c
	res, err := NewDense(cols, rows)
	if err != nil {
		return nil, matrixErrorf(opTranspose, err)
	}

	// data[i*cols + j] → res.data[j*rows + i]
	var baseSrc int
	for i := 0; i < rows; i++ {
		baseSrc = i * cols
		for j := 0; j < cols; j++ {
			res.data[j*rows+i] = dm.data[baseSrc+j]
		}
	}

	return res, nil
}

// Scale returns a new matrix whose elements are alpha * m[i,j].
// Complexity: O(r·c) time and space.
func Scale(m Matrix, alpha float64) (Matrix, error) {
	if err := ValidateNotNil(m); err != nil {
		return nil, matrixErrorf(opScale, err)
	}
	dm, err := toDense(m)
	if err != nil {
		return nil, matrixErrorf(opScale, err)
	}
	res := dm.Clone().(*Dense)
	for i := range res.data {
		res.data[i] *= alpha
	}

	return res, nil
}

// Eigen computes eigenvalues and eigenvectors of a symmetric matrix via Jacobi rotations.
//
// Implementation:
//   - Stage 1: Validate symmetric square input within tol.
//   - Stage 2: Repeatedly pick (p,q) with the largest |A[p,q]| in i→j order and
//     apply a Jacobi rotation, accumulating rotations into Q.
//   - Stage 3: Fail with ErrEigenFailed if the max off-diagonal is still ≥ tol.
//
// Returns:
//   - []float64: eigenvalues (diagonal of the rotated matrix), unsorted.
//   - Matrix: Q whose columns are the matching eigenvectors.
//
// Errors:
//   - ErrNilMatrix, ErrNonSquare, ErrAsymmetry, ErrEigenFailed.
//
// Determinism:
//   - Fixed i→j pivot search and fixed update order produce stable results.
//
// Complexity:
//   - Time O(maxIter · n), Space O(n²).
func Eigen(m Matrix, tol float64, maxIter int) ([]float64, Matrix, error) {
	if err := ValidateSymmetric(m, tol); err != nil {
		return nil, nil, matrixErrorf(opEigen, err)
	}
	src, err := toDense(m)
	if err != nil {
		return nil, nil, matrixErrorf(opEigen, err)
	}
	n := src.r
	a := src.Clone().(*Dense) // working copy; the input stays untouched
	q, err := NewIdentity(n)
	if err != nil {
		return nil, nil, matrixErrorf(opEigen, err)
	}

	var (
		iter, i, j, p, q2  int
		maxOff, off        float64
		app, aqq, apq      float64
		aip, aiq, qip, qiq float64
		newIP, newIQ       float64
		theta, t, c, s     float64
	)
	for iter = 0; iter < maxIter; iter++ {
		// J.1: pivot (p,q2) maximizing |A[p,q2]| over the strict upper triangle.
		maxOff = 0
		for i = 0; i < n; i++ {
			for j = i + 1; j < n; j++ {
				off = math.Abs(a.data[i*n+j])
				if off > maxOff {
					maxOff, p, q2 = off, i, j
				}
			}
		}
		// J.2: converged.
		if maxOff < tol {
			break
		}

		// J.3: rotation parameters.
		app = a.data[p*n+p]
		aqq = a.data[q2*n+q2]
		apq = a.data[p*n+q2]
		theta = (aqq - app) / (2 * apq)
		t = math.Copysign(1.0/(math.Abs(theta)+math.Hypot(theta, 1)), theta)
		c = 1.0 / math.Sqrt(t*t+1)
		s = t * c

		// J.4: rotate rows/cols p and q2 of A.
		for i = 0; i < n; i++ {
			if i == p || i == q2 {
				continue
			}
			aip = a.data[i*n+p]
			aiq = a.data[i*n+q2]
			newIP = c*aip - s*aiq
			newIQ = s*aip + c*aiq
			a.data[i*n+p], a.data[p*n+i] = newIP, newIP
			a.data[i*n+q2], a.data[q2*n+i] = newIQ, newIQ
		}
		a.data[p*n+p] = c*c*app - 2*c*s*apq + s*s*aqq
		a.data[q2*n+q2] = s*s*app + 2*c*s*apq + c*c*aqq
		a.data[p*n+q2], a.data[q2*n+p] = 0, 0

		// J.5: accumulate the rotation into Q.
		for i = 0; i < n; i++ {
			qip = q.data[i*n+p]
			qiq = q.data[i*n+q2]
			q.data[i*n+p] = c*qip - s*qiq
			q.data[i*n+q2] = s*qip + c*qiq
		}
	}

	// Final convergence check.
	maxOff = 0
	for i = 0; i < n; i++ {
		for j = i + 1; j < n; j++ {
			if off = math.Abs(a.data[i*n+j]); off > maxOff {
				maxOff = off
			}
		}
	}
	if maxOff >= tol {
		return nil, nil, matrixErrorf(opEigen, ErrEigenFailed)
	}

	eigs := make([]float64, n)
	for i = 0; i < n; i++ {
		eigs[i] = a.data[i*n+i]
	}

	return eigs, q, nil
}

// Cholesky factors a symmetric positive definite matrix as A = L·Lᵀ and returns L
// (lower triangular, positive diagonal).
//
// Implementation:
//   - Stage 1: Validate symmetric square input within DefaultEpsilon.
//   - Stage 2: Cholesky–Banachiewicz, row by row; a pivot ≤ 0 aborts.
//
// Errors:
//   - ErrNilMatrix, ErrNonSquare, ErrAsymmetry, ErrNotPositiveDefinite.
//
// Complexity:
//   - Time O(n³/3), Space O(n²).
//
// Notes:
//   - Positive semi-definite input with an exactly zero eigenvalue fails here;
//     repair it with NearestCorrelation first.
func Cholesky(m Matrix) (Matrix, error) {
	if err := ValidateSymmetric(m, DefaultEpsilon); err != nil {
		return nil, matrixErrorf(opCholesky, err)
	}
	a, err := toDense(m)
	if err != nil {
		return nil, matrixErrorf(opCholesky, err)
	}
	n := a.r
	l, err := NewDense(n, n)
	if err != nil {
		return nil, matrixErrorf(opCholesky, err)
	}

	var sum float64
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			sum = a.data[i*n+j]
			for k := 0; k < j; k++ {
				sum -= l.data[i*n+k] * l.data[j*n+k]
			}
			if i == j {
				if sum <= 0 || math.IsNaN(sum) {
					return nil, matrixErrorf(opCholesky, ErrNotPositiveDefinite)
				}
				l.data[i*n+i] = math.Sqrt(sum)
				continue
			}
			l.data[i*n+j] = sum / l.data[j*n+j]
		}
	}

	return l, nil
}
