// SPDX-License-Identifier: MIT

package profile_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/katalvlaran/tabularforge/dataset"
	"github.com/katalvlaran/tabularforge/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(n int, f func(i int) any) []any {
	out := make([]any, n)
	for i := range out {
		out[i] = f(i)
	}
	return out
}

func TestColumn_Inference(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		values []any
		want   dataset.SemanticType
	}{
		{"bools", []any{true, false, true, nil}, dataset.Boolean},
		{"two labels", []any{"M", "F", "M", "M"}, dataset.Boolean},
		{"date strings", []any{"2024-01-01", "2024-02-01", "2024-03-01"}, dataset.Datetime},
		{"two dates", []any{"2024-01-01", "2024-06-01", "2024-01-01"}, dataset.Datetime},
		{"two numbers", seq(100, func(i int) any { return float64(i % 2) }), dataset.Boolean},
		{"times", []any{time.Now(), time.Now().Add(time.Hour), time.Now().Add(2 * time.Hour)}, dataset.Datetime},
		{"many numbers", seq(100, func(i int) any { return float64(i) * 1.5 }), dataset.Continuous},
		{"numeric strings", []any{"1.5", "2.5", "3.5"}, dataset.Continuous},
		{"few numbers", seq(100, func(i int) any { return float64(i % 3) }), dataset.Categorical},
		{"labels", []any{"a", "b", "c", "a"}, dataset.Categorical},
		{"mixed", []any{"a", 1.0, true}, dataset.Categorical},
		{"all missing", []any{nil, math.NaN()}, dataset.Categorical},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			p, err := profile.Column("c", tc.values, dataset.Unknown, profile.DefaultOptions())
			require.NoError(t, err)
			assert.Equal(t, tc.want, p.Type)
			require.NoError(t, p.Validate())
		})
	}
}

func TestColumn_Errors(t *testing.T) {
	t.Parallel()

	opts := profile.DefaultOptions()

	_, err := profile.Column("x", nil, dataset.Unknown, opts)
	require.ErrorIs(t, err, profile.ErrEmptyColumn)

	_, err = profile.Column("x", []any{"a", "b"}, dataset.Continuous, opts)
	require.ErrorIs(t, err, profile.ErrTypeConflict)

	_, err = profile.Column("x", []any{1.0, 2.0}, dataset.Datetime, opts)
	require.ErrorIs(t, err, profile.ErrTypeConflict)

	_, err = profile.Column("x", []any{"a", "b", "c"}, dataset.Boolean, opts)
	require.ErrorIs(t, err, profile.ErrTypeConflict)

	_, err = profile.Column("x", []any{1.0}, dataset.SemanticType("ordinal"), opts)
	require.ErrorIs(t, err, dataset.ErrUnknownType)
}

func TestColumn_HintOverridesInference(t *testing.T) {
	t.Parallel()

	values := seq(100, func(i int) any { return float64(i % 3) })
	p, err := profile.Column("x", values, dataset.Continuous, profile.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, dataset.Continuous, p.Type)
	require.NotNil(t, p.Continuous)
	assert.Nil(t, p.Categorical)
}

func TestColumn_MissingRate(t *testing.T) {
	t.Parallel()

	values := []any{1.0, nil, 3.0, math.NaN(), 5.0, 6.0, 7.0, 8.0}
	p, err := profile.Column("x", values, dataset.Continuous, profile.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 8, p.Count)
	assert.InDelta(t, 0.25, p.MissingRate, 1e-12)
	assert.Equal(t, 1.0, p.Continuous.Min)
	assert.Equal(t, 8.0, p.Continuous.Max)
}

func TestColumn_AllMissing(t *testing.T) {
	t.Parallel()

	p, err := profile.Column("x", []any{nil, nil}, dataset.Continuous, profile.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 1.0, p.MissingRate)
	assert.Nil(t, p.Quantile(0.5))
	require.NoError(t, p.Validate())
}

func TestContinuous_Gaussian(t *testing.T) {
	t.Parallel()

	values := seq(100, func(i int) any { return i + 1 })
	p, err := profile.Column("n", values, dataset.Unknown, profile.DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, dataset.Continuous, p.Type)

	c := p.Continuous
	assert.Equal(t, profile.Gaussian, c.Family)
	assert.InDelta(t, 50.5, c.Mean, 1e-9)
	assert.InDelta(t, 29.011, c.Std, 1e-3)
	assert.InDelta(t, 0, c.Skewness, 1e-9)
	assert.True(t, c.Integral)
	assert.Empty(t, c.Quantiles)

	assert.Equal(t, 1.0, c.Quantile(0))
	assert.Equal(t, 100.0, c.Quantile(1))
	assert.InDelta(t, 51, c.Quantile(0.5), 1)
	for u := 0.0; u <= 1; u += 0.01 {
		x := p.Quantile(u).(float64)
		assert.GreaterOrEqual(t, x, 1.0)
		assert.LessOrEqual(t, x, 100.0)
		assert.Equal(t, math.Round(x), x)
	}
}

func TestContinuous_SkewedUsesEmpirical(t *testing.T) {
	t.Parallel()

	values := seq(200, func(i int) any { return math.Exp(float64(i) / 20) })
	p, err := profile.Column("income", values, dataset.Continuous, profile.DefaultOptions())
	require.NoError(t, err)

	c := p.Continuous
	assert.Equal(t, profile.Empirical, c.Family)
	assert.Greater(t, c.Skewness, 1.0)
	assert.False(t, c.Integral)
	require.Len(t, c.Quantiles, profile.DefaultQuantileBins+1)
	assert.Equal(t, c.Min, c.Quantiles[0])
	assert.Equal(t, c.Max, c.Quantiles[profile.DefaultQuantileBins])
	assert.Equal(t, c.Min, c.Quantile(0))
	assert.Equal(t, c.Max, c.Quantile(1))

	prev := math.Inf(-1)
	for u := 0.0; u <= 1; u += 0.05 {
		x := c.Quantile(u)
		assert.GreaterOrEqual(t, x, prev)
		assert.Greater(t, x, 0.0)
		prev = x
	}
}

func TestDatetime_DayResolution(t *testing.T) {
	t.Parallel()

	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	values := seq(50, func(i int) any { return start.AddDate(0, 0, i*7) })
	p, err := profile.Column("signup", values, dataset.Unknown, profile.DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, dataset.Datetime, p.Type)

	d := p.Datetime
	assert.Equal(t, profile.DayResolution, d.Resolution)
	assert.True(t, d.Epoch.Equal(start))

	last := start.AddDate(0, 0, 49*7)
	for u := 0.0; u <= 1; u += 0.1 {
		got := p.Quantile(u).(time.Time)
		assert.False(t, got.Before(start))
		assert.False(t, got.After(last))
		assert.Equal(t, got, got.Truncate(24*time.Hour))
		assert.Equal(t, time.UTC, got.Location())
	}
}

func TestDatetime_SpanBeyondDuration(t *testing.T) {
	t.Parallel()

	start := time.Date(1600, 1, 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(1998, 1, 1, 0, 0, 0, 0, time.UTC)
	values := seq(200, func(i int) any { return start.AddDate(2*i, 0, 0) })
	p, err := profile.Column("born", values, dataset.Unknown, profile.DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, dataset.Datetime, p.Type)

	d := p.Datetime
	assert.Equal(t, float64(last.Unix()-start.Unix()), d.Offsets.Max)
	assert.True(t, p.Quantile(1).(time.Time).Equal(last))

	above := 0
	for i := 0; i < 1000; i++ {
		if p.Quantile((float64(i)+0.5)/1000).(time.Time).Year() >= 1893 {
			above++
		}
	}
	assert.Greater(t, above, 150)

	enc := p.Encoder(profile.DefaultOptions())
	x, ok := enc(time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC))
	require.True(t, ok)
	y, ok := enc(last)
	require.True(t, ok)
	assert.Less(t, x, y)
	assert.Equal(t, d.Offsets.Max, y)
}

func TestDatetime_SecondResolutionFromStrings(t *testing.T) {
	t.Parallel()

	values := []any{"2024-05-01T10:00:00Z", "2024-05-01T10:30:00Z", "2024-05-02T08:15:00Z"}
	p, err := profile.Column("ts", values, dataset.Datetime, profile.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, profile.SecondResolution, p.Datetime.Resolution)
	assert.Equal(t, 0.0, p.Datetime.Offsets.Min)
	assert.Equal(t, float64(22*3600+15*60), p.Datetime.Offsets.Max)
}

func TestCategorical_OrderAndInverseCDF(t *testing.T) {
	t.Parallel()

	values := []any{"b", "a", "a", "c", "c", "c", nil}
	p, err := profile.Column("city", values, dataset.Categorical, profile.DefaultOptions())
	require.NoError(t, err)

	cats := p.Categorical.Categories
	require.Len(t, cats, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{cats[0].Label, cats[1].Label, cats[2].Label})
	assert.InDelta(t, 0.5, cats[0].Probability, 1e-12)
	assert.InDelta(t, 1.0/3, cats[1].Probability, 1e-12)

	assert.Equal(t, "c", p.Quantile(0))
	assert.Equal(t, "a", p.Quantile(0.6))
	assert.Equal(t, "b", p.Quantile(0.99))
	assert.Equal(t, "b", p.Quantile(1))

	enc := p.Encoder(profile.DefaultOptions())
	v, ok := enc("a")
	assert.True(t, ok)
	assert.Equal(t, 1.0, v)
	_, ok = enc("zzz")
	assert.False(t, ok)
	_, ok = enc(nil)
	assert.False(t, ok)
}

func TestCategorical_TiesAndKinds(t *testing.T) {
	t.Parallel()

	p, err := profile.Column("tier", []any{"y", "x", 3, 3.0, true}, dataset.Categorical, profile.DefaultOptions())
	require.NoError(t, err)

	cats := p.Categorical.Categories
	require.Len(t, cats, 4)
	assert.Equal(t, "3", cats[0].Label)
	assert.Equal(t, profile.KindNumber, cats[0].Kind)
	assert.Equal(t, 3.0, cats[0].Value())
	assert.Equal(t, []string{"true", "x", "y"}, []string{cats[1].Label, cats[2].Label, cats[3].Label})
	assert.Equal(t, true, cats[1].Value())
}

func TestBoolean(t *testing.T) {
	t.Parallel()

	p, err := profile.Column("active", []any{true, true, false, true}, dataset.Unknown, profile.DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, dataset.Boolean, p.Type)
	assert.Equal(t, true, p.Quantile(0.1))
	assert.Equal(t, false, p.Quantile(0.9))
}

func TestProfile_ValidateAndClone(t *testing.T) {
	t.Parallel()

	p, err := profile.Column("city", []any{"a", "b", "c", "a"}, dataset.Unknown, profile.DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, p.Validate())

	c := p.Clone()
	c.Categorical.Categories[0].Probability = 0.9
	assert.NotEqual(t, 0.9, p.Categorical.Categories[0].Probability)
	require.ErrorIs(t, c.Validate(), profile.ErrInvalidProfile)

	c = p.Clone()
	c.Continuous = &profile.Continuous{Family: profile.Gaussian}
	require.ErrorIs(t, c.Validate(), profile.ErrInvalidProfile)

	c = p.Clone()
	c.MissingRate = 1.5
	require.ErrorIs(t, c.Validate(), profile.ErrInvalidProfile)
}

func TestAll(t *testing.T) {
	t.Parallel()

	ds, err := dataset.New(
		dataset.Column{Name: "n", Values: seq(40, func(i int) any { return float64(i) })},
		dataset.Column{Name: "k", Type: dataset.Categorical, Values: seq(40, func(i int) any { return float64(i) })},
		dataset.Column{Name: "s", Values: seq(40, func(i int) any { return []string{"a", "b", "c"}[i%3] })},
	)
	require.NoError(t, err)

	hints := map[string]dataset.SemanticType{"n": dataset.Categorical}
	ps, err := profile.All(context.Background(), ds, hints, profile.DefaultOptions(), 2)
	require.NoError(t, err)
	require.Len(t, ps, 3)
	assert.Equal(t, []string{"n", "k", "s"}, []string{ps[0].Name, ps[1].Name, ps[2].Name})
	assert.Equal(t, dataset.Categorical, ps[0].Type)
	assert.Equal(t, dataset.Categorical, ps[1].Type)
	assert.Equal(t, dataset.Categorical, ps[2].Type)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = profile.All(ctx, ds, nil, profile.DefaultOptions(), 0)
	require.ErrorIs(t, err, context.Canceled)
}
