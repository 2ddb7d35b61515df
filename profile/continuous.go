// SPDX-License-Identifier: MIT

package profile

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Family names the distribution of a continuous marginal.
type Family string

// Continuous families.
const (
	Gaussian  Family = "gaussian"
	Empirical Family = "empirical"
)

// uClamp keeps the Gaussian inverse CDF away from ±Inf at u ∈ {0, 1}.
const uClamp = 1e-12

// Continuous models a numeric marginal. Samples are always clipped to
// [Min, Max]; Integral columns are rounded to whole numbers.
type Continuous struct {
	Family    Family    `json:"family" yaml:"family"`
	Mean      float64   `json:"mean" yaml:"mean"`
	Std       float64   `json:"std" yaml:"std"`
	Min       float64   `json:"min" yaml:"min"`
	Max       float64   `json:"max" yaml:"max"`
	Skewness  float64   `json:"skewness" yaml:"skewness"`
	Integral  bool      `json:"integral" yaml:"integral"`
	Quantiles []float64 `json:"quantiles,omitempty" yaml:"quantiles,omitempty"`
}

// Quantile returns the value at cumulative probability u.
func (c *Continuous) Quantile(u float64) float64 {
	u = clamp(u, 0, 1)

	var x float64
	switch c.Family {
	case Empirical:
		x = interpolate(c.Quantiles, u)
	default:
		if c.Std <= 0 {
			x = c.Mean
			break
		}
		n := distuv.Normal{Mu: c.Mean, Sigma: c.Std}
		x = n.Quantile(clamp(u, uClamp, 1-uClamp))
	}
	if c.Integral {
		x = math.Round(x)
	}

	return clamp(x, c.Min, c.Max)
}

// fitContinuous fits a Gaussian or, when |skewness| exceeds the threshold, an
// empirical quantile table. Non-numeric input is a type conflict.
func fitContinuous(present []any, opts Options) (*Continuous, error) {
	xs := make([]float64, len(present))
	for i, v := range present {
		f, ok := asNumber(v)
		if !ok {
			return nil, fmt.Errorf("value %v (%T) is not numeric: %w", v, v, ErrTypeConflict)
		}
		xs[i] = f
	}

	return fitNumbers(xs, opts), nil
}

// fitNumbers fits xs in place (xs is sorted on return).
func fitNumbers(xs []float64, opts Options) *Continuous {
	c := &Continuous{Family: Gaussian}
	if len(xs) == 0 {
		return c
	}

	slices.Sort(xs)
	c.Min, c.Max = xs[0], xs[len(xs)-1]
	c.Mean = stat.Mean(xs, nil)
	c.Std = finite(stat.StdDev(xs, nil))
	c.Skewness = finite(stat.Skew(xs, nil))
	c.Integral = true
	for _, x := range xs {
		if x != math.Trunc(x) {
			c.Integral = false
			break
		}
	}

	if math.Abs(c.Skewness) > opts.SkewThreshold {
		c.Family = Empirical
		c.Quantiles = knots(xs, opts.QuantileBins)
	}

	return c
}

// knots returns bins+1 quantile knots of sorted xs, pinned to the observed
// extremes and non-decreasing.
func knots(sorted []float64, bins int) []float64 {
	q := make([]float64, bins+1)
	for k := 0; k <= bins; k++ {
		q[k] = stat.Quantile(float64(k)/float64(bins), stat.LinInterp, sorted, nil)
	}
	q[0], q[bins] = sorted[0], sorted[len(sorted)-1]
	for k := 1; k <= bins; k++ {
		if q[k] < q[k-1] {
			q[k] = q[k-1]
		}
	}

	return q
}

// interpolate reads the piecewise-linear quantile function defined by
// equally spaced knots.
func interpolate(q []float64, u float64) float64 {
	switch len(q) {
	case 0:
		return 0
	case 1:
		return q[0]
	}
	pos := u * float64(len(q)-1)
	i := int(pos)
	if i >= len(q)-1 {
		return q[len(q)-1]
	}
	t := pos - float64(i)

	return q[i] + t*(q[i+1]-q[i])
}

func (c *Continuous) validate(empty bool) error {
	if c.Family != Gaussian && c.Family != Empirical {
		return fmt.Errorf("unknown family %q", c.Family)
	}
	if empty {
		return nil
	}
	for _, v := range []float64{c.Mean, c.Std, c.Min, c.Max, c.Skewness} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.New("non-finite parameter")
		}
	}
	if c.Min > c.Max {
		return fmt.Errorf("min %g > max %g", c.Min, c.Max)
	}
	if c.Std < 0 {
		return fmt.Errorf("negative std %g", c.Std)
	}
	if c.Family == Empirical {
		if len(c.Quantiles) < 2 {
			return fmt.Errorf("empirical model with %d knots", len(c.Quantiles))
		}
		if !slices.IsSorted(c.Quantiles) {
			return errors.New("quantile knots not sorted")
		}
	}

	return nil
}

func (c *Continuous) clone() Continuous {
	out := *c
	out.Quantiles = slices.Clone(c.Quantiles)

	return out
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

// finite maps NaN and ±Inf (too few observations) to 0.
func finite(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}

	return x
}
