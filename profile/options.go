// SPDX-License-Identifier: MIT

package profile

// Defaults for Options. Single source of truth for zero-value behavior.
const (
	// DefaultContinuousRatio is the distinct/non-missing ratio above which an
	// all-numeric column is treated as continuous rather than categorical.
	DefaultContinuousRatio = 0.05

	// DefaultSkewThreshold is the |skewness| above which a continuous column is
	// modelled by empirical quantiles instead of a Gaussian.
	DefaultSkewThreshold = 1.0

	// DefaultQuantileBins is the number of equal-probability bins of the
	// empirical model (the table stores bins+1 knots).
	DefaultQuantileBins = 100
)

// DefaultDatetimeLayouts are tried in order when inferring datetime strings.
var DefaultDatetimeLayouts = []string{
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
	"02 Jan 2006",
}

// Options tunes type inference and marginal fitting.
type Options struct {
	ContinuousRatio float64
	SkewThreshold   float64
	QuantileBins    int
	DatetimeLayouts []string
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		ContinuousRatio: DefaultContinuousRatio,
		SkewThreshold:   DefaultSkewThreshold,
		QuantileBins:    DefaultQuantileBins,
		DatetimeLayouts: DefaultDatetimeLayouts,
	}
}

// normalized fills zero fields with defaults.
func (o Options) normalized() Options {
	if o.ContinuousRatio <= 0 {
		o.ContinuousRatio = DefaultContinuousRatio
	}
	if o.SkewThreshold <= 0 {
		o.SkewThreshold = DefaultSkewThreshold
	}
	if o.QuantileBins < 2 {
		o.QuantileBins = DefaultQuantileBins
	}
	if len(o.DatetimeLayouts) == 0 {
		o.DatetimeLayouts = DefaultDatetimeLayouts
	}

	return o
}
