// SPDX-License-Identifier: MIT
// Package: matrix
//
// Purpose:
//   - Repair a symmetric "correlation-like" estimate into a valid correlation
//     matrix (positive definite, unit diagonal) so that Cholesky succeeds.
//
// Method (eigenvalue clipping):
//  1. Symmetrize: S = (A + Aᵀ)/2.
//  2. Decompose: S = Q Λ Qᵀ (Jacobi).
//  3. Floor: λ_i ← max(λ_i, floor).
//  4. Rebuild: B = Q Λ' Qᵀ.
//  5. Rescale: C = D^{-1/2} B D^{-1/2}, D = diag(B); then force exact symmetry
//     and a unit diagonal.
//
// This is the single-step spectral projection (not Higham's alternating
// projections); it is exact when A is already valid and cheap otherwise.

package matrix

import "math"

const opNearestCorrelation = "NearestCorrelation"

// nearestCorrelation implements the eigenvalue-clipping repair described above.
//
// Errors:
//   - ErrNilMatrix, ErrNonSquare, ErrNaNInf (non-finite input),
//     ErrEigenFailed (Jacobi did not converge within the budget).
//
// Determinism:
//   - Fully deterministic for identical input and options.
//
// Complexity:
//   - Time O(iter·n + n³), Space O(n²).
func nearestCorrelation(A Matrix, opts ...Option) (Matrix, error) {
	if err := ValidateSquare(A); err != nil {
		return nil, matrixErrorf(opNearestCorrelation, err)
	}
	o := gatherOptions(opts...)
	src, err := toDense(A)
	if err != nil {
		return nil, matrixErrorf(opNearestCorrelation, err)
	}
	n := src.r
	for _, v := range src.data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, matrixErrorf(opNearestCorrelation, ErrNaNInf)
		}
	}

	// Stage 1: symmetrize.
	s := src.Clone().(*Dense)
	var i, j, k int
	for i = 0; i < n; i++ {
		for j = i + 1; j < n; j++ {
			avg := 0.5 * (s.data[i*n+j] + s.data[j*n+i])
			s.data[i*n+j], s.data[j*n+i] = avg, avg
		}
	}

	// Stage 2: eigen decomposition.
	eigs, qm, err := Eigen(s, o.eps, o.iterBudget(n))
	if err != nil {
		return nil, matrixErrorf(opNearestCorrelation, err)
	}
	q := qm.(*Dense)

	// Stage 3: floor eigenvalues.
	for k = 0; k < n; k++ {
		if eigs[k] < o.eigenFloor {
			eigs[k] = o.eigenFloor
		}
	}

	// Stage 4: B = Q Λ Qᵀ, written directly to avoid two temporaries.
	b, err := NewDense(n, n)
	if err != nil {
		return nil, matrixErrorf(opNearestCorrelation, err)
	}
	var acc float64
	for i = 0; i < n; i++ {
		for j = i; j < n; j++ {
			acc = ZeroSum
			for k = 0; k < n; k++ {
				acc += q.data[i*n+k] * eigs[k] * q.data[j*n+k]
			}
			b.data[i*n+j], b.data[j*n+i] = acc, acc
		}
	}

	// Stage 5: rescale to unit diagonal and clamp to [-1, 1].
	scale := make([]float64, n)
	for i = 0; i < n; i++ {
		scale[i] = 1.0 / math.Sqrt(b.data[i*n+i]) // diag > 0 since every λ ≥ floor > 0
	}
	for i = 0; i < n; i++ {
		b.data[i*n+i] = 1.0
		for j = i + 1; j < n; j++ {
			v := b.data[i*n+j] * scale[i] * scale[j]
			v = math.Max(-1, math.Min(1, v))
			b.data[i*n+j], b.data[j*n+i] = v, v
		}
	}

	return b, nil
}
