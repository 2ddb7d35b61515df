// SPDX-License-Identifier: MIT

// Package profile implements the column profiler: it classifies one column
// into a semantic type and fits a marginal model that, on its own, fully
// determines a sampling distribution for that column.
//
// Marginals:
//
//	continuous   Gaussian (mean, std) or, for strongly skewed data, an
//	             empirical quantile table; always clipped to [min, max]
//	categorical  frequency table over observed categories only
//	boolean      frequency table with at most two categories
//	datetime     epoch (observed minimum) + continuous model of offsets
//
// Every profile also records the column's missing rate so the sampler can
// re-inject missing cells.
package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/katalvlaran/tabularforge/dataset"
	"golang.org/x/sync/errgroup"
)

// Sentinel errors.
var (
	// ErrEmptyColumn is returned when a column has no cells at all.
	ErrEmptyColumn = errors.New("profile: column is empty")

	// ErrTypeConflict is returned when a declared type cannot describe the values.
	ErrTypeConflict = errors.New("profile: values conflict with declared type")

	// ErrInvalidProfile is returned by Validate for internally inconsistent profiles.
	ErrInvalidProfile = errors.New("profile: invalid profile")
)

// Profile is the fitted marginal model of one column.
// Exactly one of Continuous, Categorical, Datetime is set; boolean columns use
// Categorical.
type Profile struct {
	Name        string               `json:"name" yaml:"name"`
	Type        dataset.SemanticType `json:"type" yaml:"type"`
	Count       int                  `json:"count" yaml:"count"`
	MissingRate float64              `json:"missing_rate" yaml:"missing_rate"`
	Continuous  *Continuous          `json:"continuous,omitempty" yaml:"continuous,omitempty"`
	Categorical *Categorical         `json:"categorical,omitempty" yaml:"categorical,omitempty"`
	Datetime    *Datetime            `json:"datetime,omitempty" yaml:"datetime,omitempty"`
}

// Column profiles one column. A non-empty hint always overrides inference.
//
// Errors:
//   - ErrEmptyColumn when values is empty.
//   - ErrTypeConflict when the hint cannot describe the values.
//   - dataset.ErrUnknownType for an unrecognised hint.
func Column(name string, values []any, hint dataset.SemanticType, opts Options) (Profile, error) {
	if len(values) == 0 {
		return Profile{}, fmt.Errorf("column %q: %w", name, ErrEmptyColumn)
	}
	if hint != dataset.Unknown && !hint.Valid() {
		return Profile{}, fmt.Errorf("column %q: %w: %q", name, dataset.ErrUnknownType, string(hint))
	}
	opts = opts.normalized()

	present := make([]any, 0, len(values))
	for _, v := range values {
		if !dataset.IsMissing(v) {
			present = append(present, v)
		}
	}
	p := Profile{
		Name:        name,
		Count:       len(values),
		MissingRate: float64(len(values)-len(present)) / float64(len(values)),
	}

	typ := hint
	if typ == dataset.Unknown {
		typ = infer(present, opts)
	}
	p.Type = typ

	var err error
	switch typ {
	case dataset.Continuous:
		p.Continuous, err = fitContinuous(present, opts)
	case dataset.Datetime:
		p.Datetime, err = fitDatetime(present, opts)
	case dataset.Boolean:
		p.Categorical, err = fitCategorical(present)
		if err == nil && len(p.Categorical.Categories) > 2 {
			err = fmt.Errorf("%d distinct values for boolean: %w", len(p.Categorical.Categories), ErrTypeConflict)
		}
	default:
		p.Categorical, err = fitCategorical(present)
	}
	if err != nil {
		return Profile{}, fmt.Errorf("column %q: %w", name, err)
	}

	return p, nil
}

// All profiles every column of ds with at most workers goroutines (workers <= 0
// means one per column). hints override declared column types, which override
// inference. ctx is checked before each column; the result keeps column order.
func All(ctx context.Context, ds *dataset.Dataset, hints map[string]dataset.SemanticType, opts Options, workers int) ([]Profile, error) {
	out := make([]Profile, ds.NumCols())
	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i := range ds.Columns {
		i := i
		col := ds.Columns[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			hint := col.Type
			if h, ok := hints[col.Name]; ok && h != dataset.Unknown {
				hint = h
			}
			p, err := Column(col.Name, col.Values, hint, opts)
			if err != nil {
				return err
			}
			out[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}

// Quantile maps u ∈ [0,1] to a value of the column's marginal distribution.
// Returns nil when the column was never observed (all cells missing).
func (p Profile) Quantile(u float64) any {
	switch {
	case p.Continuous != nil:
		if p.empty() {
			return nil
		}
		return p.Continuous.Quantile(u)
	case p.Datetime != nil:
		if p.empty() {
			return nil
		}
		return p.Datetime.Quantile(u)
	case p.Categorical != nil:
		if len(p.Categorical.Categories) == 0 {
			return nil
		}
		return p.Categorical.Value(p.Categorical.Index(u))
	}

	return nil
}

// empty reports whether the profile was fitted over zero observed values.
func (p Profile) empty() bool {
	return p.MissingRate >= 1
}

// Encoder returns a function mapping a cell to the numeric scale used for rank
// dependency: raw number (continuous), seconds since epoch (datetime), or
// position in the frequency order (categorical/boolean). Missing or
// unrecognised cells report false.
func (p Profile) Encoder(opts Options) func(any) (float64, bool) {
	opts = opts.normalized()
	switch {
	case p.Continuous != nil:
		return func(v any) (float64, bool) {
			if dataset.IsMissing(v) {
				return 0, false
			}
			return asNumber(v)
		}
	case p.Datetime != nil:
		d := p.Datetime
		return func(v any) (float64, bool) {
			if dataset.IsMissing(v) {
				return 0, false
			}
			t, ok := asTime(v, opts.DatetimeLayouts)
			if !ok {
				return 0, false
			}
			return secondsSince(t, d.Epoch), true
		}
	case p.Categorical != nil:
		index := make(map[string]int, len(p.Categorical.Categories))
		for i, c := range p.Categorical.Categories {
			index[c.key()] = i
		}
		return func(v any) (float64, bool) {
			if dataset.IsMissing(v) {
				return 0, false
			}
			i, ok := index[categoryOf(v).key()]
			return float64(i), ok
		}
	}

	return func(any) (float64, bool) { return 0, false }
}

// Validate checks internal consistency: exactly one distribution matching Type,
// probabilities summing to 1, ordered knots, min ≤ max, rate within [0,1].
func (p Profile) Validate() error {
	if p.Name == "" || !p.Type.Valid() {
		return fmt.Errorf("%w: name or type", ErrInvalidProfile)
	}
	if p.MissingRate < 0 || p.MissingRate > 1 || p.Count < 0 {
		return fmt.Errorf("%w: column %q: missing rate %g", ErrInvalidProfile, p.Name, p.MissingRate)
	}
	set := 0
	for _, ok := range []bool{p.Continuous != nil, p.Categorical != nil, p.Datetime != nil} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("%w: column %q: %d distributions", ErrInvalidProfile, p.Name, set)
	}

	var err error
	switch p.Type {
	case dataset.Continuous:
		if p.Continuous == nil {
			return fmt.Errorf("%w: column %q: missing continuous model", ErrInvalidProfile, p.Name)
		}
		err = p.Continuous.validate(p.empty())
	case dataset.Datetime:
		if p.Datetime == nil {
			return fmt.Errorf("%w: column %q: missing datetime model", ErrInvalidProfile, p.Name)
		}
		err = p.Datetime.validate(p.empty())
	case dataset.Categorical, dataset.Boolean:
		if p.Categorical == nil {
			return fmt.Errorf("%w: column %q: missing frequency table", ErrInvalidProfile, p.Name)
		}
		err = p.Categorical.validate(p.empty(), p.Type == dataset.Boolean)
	}
	if err != nil {
		return fmt.Errorf("%w: column %q: %v", ErrInvalidProfile, p.Name, err)
	}

	return nil
}

// Clone returns a deep copy.
func (p Profile) Clone() Profile {
	out := p
	if p.Continuous != nil {
		c := p.Continuous.clone()
		out.Continuous = &c
	}
	if p.Categorical != nil {
		c := Categorical{Categories: append([]Category(nil), p.Categorical.Categories...)}
		out.Categorical = &c
	}
	if p.Datetime != nil {
		d := *p.Datetime
		d.Offsets = p.Datetime.Offsets.clone()
		out.Datetime = &d
	}

	return out
}
