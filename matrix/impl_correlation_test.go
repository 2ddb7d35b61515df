// SPDX-License-Identifier: MIT

package matrix_test

import (
	"testing"

	"github.com/katalvlaran/tabularforge/matrix"
	"github.com/stretchr/testify/require"
)

func TestNearestCorrelation_ValidInputUnchanged(t *testing.T) {
	t.Parallel()

	a := NewFilledDense(t, 3, 3, []float64{
		1, 0.5, 0.2,
		0.5, 1, 0.3,
		0.2, 0.3, 1,
	})
	c, err := matrix.NearestCorrelation(a)
	require.NoError(t, err)
	CompareClose(t, c, a, 0, 1e-9)
	requireValidCorrelation(t, c)
}

func TestNearestCorrelation_RepairsIndefinite(t *testing.T) {
	t.Parallel()

	// Pairwise-plausible but jointly impossible: x~y, y~z strongly, x~z strongly negative.
	a := NewFilledDense(t, 3, 3, []float64{
		1, 0.9, -0.9,
		0.9, 1, 0.9,
		-0.9, 0.9, 1,
	})
	_, err := matrix.Cholesky(a)
	require.ErrorIs(t, err, matrix.ErrNotPositiveDefinite)

	c, err := matrix.NearestCorrelation(a)
	require.NoError(t, err)
	requireValidCorrelation(t, c)

	// Signs of the original associations survive the repair.
	require.Greater(t, MustAt(t, c, 0, 1), 0.0)
	require.Less(t, MustAt(t, c, 0, 2), 0.0)
}

func TestNearestCorrelation_SingularAndAsymmetric(t *testing.T) {
	t.Parallel()

	// Rank-deficient (two identical columns) and slightly asymmetric input.
	a := NewFilledDense(t, 3, 3, []float64{
		1, 1, 0.1,
		1, 1, 0.1,
		0.1000001, 0.1, 1,
	})
	c, err := matrix.NearestCorrelation(hide{a}, matrix.WithEigenFloor(1e-4))
	require.NoError(t, err)
	requireValidCorrelation(t, c)
}

func TestNearestCorrelation_Errors(t *testing.T) {
	t.Parallel()

	_, err := matrix.NearestCorrelation(NewFilledDense(t, 2, 3, []float64{1, 2, 3, 4, 5, 6}))
	require.ErrorIs(t, err, matrix.ErrNonSquare)

	_, err = matrix.NearestCorrelation(nil)
	require.ErrorIs(t, err, matrix.ErrNilMatrix)
}

func TestOptions_PanicOnNonsense(t *testing.T) {
	t.Parallel()

	require.Panics(t, func() { matrix.WithEpsilon(0) })
	require.Panics(t, func() { matrix.WithEigenFloor(-1) })
	require.Panics(t, func() { matrix.WithMaxIter(0) })
}
