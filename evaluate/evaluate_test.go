// SPDX-License-Identifier: MIT

package evaluate_test

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/katalvlaran/tabularforge/dataset"
	"github.com/katalvlaran/tabularforge/evaluate"
	"github.com/katalvlaran/tabularforge/forge"
	"github.com/katalvlaran/tabularforge/sampler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func realData(t *testing.T, n int, shift float64) *dataset.Dataset {
	t.Helper()
	rng := rand.New(rand.NewPCG(9, 9))
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	income := make([]any, n)
	age := make([]any, n)
	tier := make([]any, n)
	seen := make([]any, n)
	for i := 0; i < n; i++ {
		a := 20 + rng.Float64()*50
		age[i] = a + shift
		income[i] = 1000 + a*80 + rng.NormFloat64()*300
		tier[i] = []string{"basic", "plus", "max"}[rng.IntN(3)]
		seen[i] = start.Add(time.Duration(rng.IntN(1_000_000)) * time.Second)
		if i%25 == 0 {
			tier[i] = nil
		}
	}
	ds, err := dataset.New(
		dataset.Column{Name: "age", Values: age},
		dataset.Column{Name: "income", Values: income},
		dataset.Column{Name: "tier", Values: tier},
		dataset.Column{Name: "last_seen", Values: seen},
	)
	require.NoError(t, err)
	return ds
}

func synthesize(t *testing.T, real *dataset.Dataset, n int) *dataset.Dataset {
	t.Helper()
	f := forge.New()
	require.NoError(t, f.Fit(context.Background(), real))
	out, err := f.Generate(context.Background(), n, sampler.WithSeed(1))
	require.NoError(t, err)
	return out
}

func TestQuality_Identical(t *testing.T) {
	t.Parallel()

	real := realData(t, 300, 0)
	rep, err := evaluate.Quality(context.Background(), real, real, evaluate.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, rep.Columns, 4)
	for _, c := range rep.Columns {
		assert.InDelta(t, 1, c.Score, 1e-12, c.Name)
	}
	assert.Equal(t, evaluate.MetricKS, rep.Columns[0].Metric)
	assert.Equal(t, evaluate.MetricTVD, rep.Columns[2].Metric)
	assert.InDelta(t, 1, rep.CorrelationSimilarity, 1e-12)
	assert.InDelta(t, 1, rep.Overall, 1e-12)
}

func TestQuality_Synthetic(t *testing.T) {
	t.Parallel()

	real := realData(t, 800, 0)
	synth := synthesize(t, real, 800)
	rep, err := evaluate.Quality(context.Background(), real, synth, evaluate.DefaultOptions())
	require.NoError(t, err)
	assert.Greater(t, rep.StatisticalSimilarity, 0.8)
	assert.Greater(t, rep.CorrelationSimilarity, 0.9)
	assert.Greater(t, rep.Overall, 0.85)

	shifted := realData(t, 800, 100)
	rep, err = evaluate.Quality(context.Background(), real, shifted, evaluate.DefaultOptions())
	require.NoError(t, err)
	assert.InDelta(t, 0, rep.Columns[0].Score, 1e-12)
}

func TestQuality_SchemaMismatch(t *testing.T) {
	t.Parallel()

	real := realData(t, 50, 0)
	other, err := dataset.New(dataset.Column{Name: "age", Values: []any{1.0, 2.0}})
	require.NoError(t, err)
	_, err = evaluate.Quality(context.Background(), real, other, evaluate.DefaultOptions())
	require.ErrorIs(t, err, evaluate.ErrSchemaMismatch)
	_, err = evaluate.Privacy(context.Background(), real, other, evaluate.DefaultOptions())
	require.ErrorIs(t, err, evaluate.ErrSchemaMismatch)
	_, err = evaluate.Quality(context.Background(), nil, real, evaluate.DefaultOptions())
	require.ErrorIs(t, err, evaluate.ErrSchemaMismatch)
}

func TestPrivacy_RaggedSynthetic(t *testing.T) {
	t.Parallel()

	real := realData(t, 50, 0)
	ragged := &dataset.Dataset{Columns: make([]dataset.Column, real.NumCols())}
	for j, c := range real.Columns {
		ragged.Columns[j] = dataset.Column{Name: c.Name, Values: c.Values[:50-j*5]}
	}
	require.NotPanics(t, func() {
		_, err := evaluate.Privacy(context.Background(), real, ragged, evaluate.DefaultOptions())
		require.ErrorIs(t, err, evaluate.ErrSchemaMismatch)
		require.ErrorIs(t, err, dataset.ErrRaggedColumns)
	})
	_, err := evaluate.Quality(context.Background(), real, ragged, evaluate.DefaultOptions())
	require.ErrorIs(t, err, evaluate.ErrSchemaMismatch)
}

func TestPrivacy(t *testing.T) {
	t.Parallel()

	real := realData(t, 400, 0)
	rep, err := evaluate.Privacy(context.Background(), real, real, evaluate.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 0.0, rep.DCRMin)
	assert.Equal(t, 0.0, rep.DCRMean)
	assert.Equal(t, 1.0, rep.ExactMatchRate)

	synth := synthesize(t, real, 300)
	rep, err = evaluate.Privacy(context.Background(), real, synth, evaluate.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 400, rep.RealRows)
	assert.Equal(t, 300, rep.SyntheticRows)
	assert.Less(t, rep.ExactMatchRate, 0.05)
	assert.Greater(t, rep.DCRMean, 0.0)
	assert.LessOrEqual(t, rep.DCRMin, rep.DCR5thPercentile)
	assert.LessOrEqual(t, rep.DCR5thPercentile, 1.0)

	opts := evaluate.DefaultOptions()
	opts.MaxRows = 100
	opts.Workers = 1
	capped, err := evaluate.Privacy(context.Background(), real, synth, opts)
	require.NoError(t, err)
	assert.Equal(t, 100, capped.RealRows)
	assert.Equal(t, 100, capped.SyntheticRows)
}

func TestPrivacy_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	real := realData(t, 50, 0)
	_, err := evaluate.Privacy(ctx, real, real, evaluate.DefaultOptions())
	require.ErrorIs(t, err, context.Canceled)
}
