// Package matrix offers the dense linear algebra used by the copula machinery.
//
// The matrix package provides:
//
//   - Dense, a row-major float64 matrix with safe accessors (At/Set return
//     errors instead of panicking).
//   - Canonical kernels: Mul, Transpose, Scale.
//   - Factorizations: Eigen (Jacobi sweeps for symmetric input) and Cholesky.
//   - Statistics: CenterColumns and Correlation (Pearson, z-scored columns).
//   - NearestCorrelation, which repairs an indefinite or noisy correlation
//     estimate into a valid (positive semi-definite, unit diagonal) one.
//
// All kernels are deterministic: fixed loop orders, no map iteration, no
// hidden randomness. Inputs are never mutated; results are freshly allocated.
package matrix
