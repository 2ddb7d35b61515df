// SPDX-License-Identifier: MIT

// Package evaluate scores a synthetic dataset against the real one it was
// generated from.
//
// Quality compares marginals (1 − Kolmogorov–Smirnov statistic for numeric and
// datetime columns, 1 − total variation distance for categorical and boolean
// columns) and pairwise rank correlations. Privacy measures the distance from
// every synthetic row to its closest real row (DCR).
//
// Column types come from profiling the real dataset, so both reports honour the
// same type hints as a fit.
package evaluate

import (
	"context"
	"errors"
	"fmt"

	"github.com/katalvlaran/tabularforge/dataset"
	"github.com/katalvlaran/tabularforge/profile"
)

// ErrSchemaMismatch is returned when the synthetic dataset lacks a real column.
var ErrSchemaMismatch = errors.New("evaluate: schema mismatch")

// DefaultMaxRows caps each side of the DCR computation.
const DefaultMaxRows = 2000

// Options tunes both reports.
type Options struct {
	Profile profile.Options
	Hints   map[string]dataset.SemanticType
	MaxRows int
	Workers int // privacy distance workers; 0 means GOMAXPROCS
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{Profile: profile.DefaultOptions(), MaxRows: DefaultMaxRows}
}

// schema profiles the real columns and pairs them with the synthetic ones.
type schema struct {
	profiles []profile.Profile
	synth    []dataset.Column // aligned with profiles
	encoders []func(any) (float64, bool)
}

func align(ctx context.Context, real, synth *dataset.Dataset, opts Options) (*schema, error) {
	if real == nil || synth == nil || real.NumCols() == 0 {
		return nil, fmt.Errorf("%w: empty dataset", ErrSchemaMismatch)
	}
	if err := real.Validate(); err != nil {
		return nil, fmt.Errorf("%w: real: %w", ErrSchemaMismatch, err)
	}
	if err := synth.Validate(); err != nil {
		return nil, fmt.Errorf("%w: synthetic: %w", ErrSchemaMismatch, err)
	}
	ps, err := profile.All(ctx, real, opts.Hints, opts.Profile, 0)
	if err != nil {
		return nil, fmt.Errorf("evaluate: profile real data: %w", err)
	}
	s := &schema{
		profiles: ps,
		synth:    make([]dataset.Column, len(ps)),
		encoders: make([]func(any) (float64, bool), len(ps)),
	}
	for j, p := range ps {
		col, err := synth.Column(p.Name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
		}
		s.synth[j] = col
		s.encoders[j] = p.Encoder(opts.Profile)
	}

	return s, nil
}

// numeric reports whether a type is compared on a continuous scale.
func numeric(t dataset.SemanticType) bool {
	return t == dataset.Continuous || t == dataset.Datetime
}
