// SPDX-License-Identifier: MIT

// Package forge is the entry point of tabularforge: fit a statistical model of
// a real dataset once, then generate any number of synthetic datasets of the
// same schema from it.
//
//	f := forge.New(forge.WithLogger(logger))
//	if err := f.Fit(ctx, ds); err != nil { ... }
//	synth, err := f.Generate(ctx, 500, sampler.WithSeed(42))
//
// A Forge owns at most one fitted model. Fit replaces it atomically and leaves
// the previous model in place on failure; Generate and Model may run
// concurrently with each other and with Fit.
package forge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/katalvlaran/tabularforge/config"
	"github.com/katalvlaran/tabularforge/dataset"
	"github.com/katalvlaran/tabularforge/dependency"
	"github.com/katalvlaran/tabularforge/model"
	"github.com/katalvlaran/tabularforge/privacy"
	"github.com/katalvlaran/tabularforge/profile"
	"github.com/katalvlaran/tabularforge/sampler"
)

// Sentinel errors.
var (
	// ErrEmptyDataset is returned by Fit for a nil dataset or one without rows or columns.
	ErrEmptyDataset = errors.New("forge: dataset is empty")

	// ErrNotFitted is returned when a model is needed but none has been fitted.
	ErrNotFitted = errors.New("forge: no model fitted")
)

// Forge fits and samples synthetic data models.
type Forge struct {
	mu    sync.RWMutex
	model *model.Model

	cfg     config.Config
	workers *int // WithWorkers, applied over cfg
	hints   map[string]dataset.SemanticType
	logger  *slog.Logger
}

// Option configures a Forge.
type Option func(*Forge)

// WithLogger sets the logger; nil keeps the discarding default.
func WithLogger(l *slog.Logger) Option {
	return func(f *Forge) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithConfig replaces the default configuration.
func WithConfig(cfg config.Config) Option {
	return func(f *Forge) { f.cfg = cfg }
}

// WithColumnTypes declares semantic types by column name. They take precedence
// over types declared on the dataset's columns, which take precedence over
// inference.
func WithColumnTypes(types map[string]dataset.SemanticType) Option {
	return func(f *Forge) { f.hints = maps.Clone(types) }
}

// WithWorkers bounds concurrent column profiling; n <= 0 profiles every column
// in its own goroutine. It overrides the configured worker count whatever the
// option order.
func WithWorkers(n int) Option {
	return func(f *Forge) {
		w := max(n, 0)
		f.workers = &w
	}
}

// New returns an unfitted Forge.
func New(opts ...Option) *Forge {
	f := &Forge{
		cfg:    config.Default(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	if f.workers != nil {
		f.cfg.Workers = *f.workers
	}

	return f
}

// Config returns the effective configuration.
func (f *Forge) Config() config.Config { return f.cfg }

// FromModel returns a Forge already holding m, e.g. one restored with Load.
func FromModel(m *model.Model, opts ...Option) (*Forge, error) {
	if m == nil {
		return nil, fmt.Errorf("forge: from model: %w", ErrNotFitted)
	}
	f := New(opts...)
	f.model = m

	return f, nil
}

// Load decodes a model written by Save and wraps it in a Forge.
func Load(r io.Reader, opts ...Option) (*Forge, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("forge: load: %w", err)
	}
	m, err := model.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("forge: load: %w", err)
	}

	return FromModel(m, opts...)
}

// Fit profiles every column of ds, estimates their rank dependency, and
// replaces the current model. On error the current model is kept.
//
// Errors:
//   - ErrEmptyDataset, dataset validation errors.
//   - profile.ErrEmptyColumn, profile.ErrTypeConflict.
//   - dependency.ErrInsufficientData.
//   - ctx.Err() when cancelled.
func (f *Forge) Fit(ctx context.Context, ds *dataset.Dataset) error {
	if ds == nil || ds.NumCols() == 0 || ds.NumRows() == 0 {
		return ErrEmptyDataset
	}
	if err := ds.Validate(); err != nil {
		return fmt.Errorf("forge: fit: %w", err)
	}
	if err := f.cfg.Validate(); err != nil {
		return fmt.Errorf("forge: fit: %w", err)
	}

	start := time.Now()
	rows := ds.NumRows()
	f.logger.Info("fit started", "rows", rows, "columns", ds.NumCols())

	profiles, err := profile.All(ctx, ds, f.hints, f.cfg.ProfileOptions(), f.cfg.Workers)
	if err != nil {
		return fmt.Errorf("forge: fit: %w", err)
	}
	for _, p := range profiles {
		f.logger.Debug("column profiled", "column", p.Name, "type", string(p.Type), "missing_rate", p.MissingRate)
	}
	if err = ctx.Err(); err != nil {
		return err
	}

	if eps := f.cfg.Privacy.Epsilon; eps > 0 {
		var seed *uint64
		if f.cfg.Privacy.Seed != 0 {
			s := f.cfg.Privacy.Seed
			seed = &s
		}
		mech, err := privacy.New(eps, seed)
		if err != nil {
			return fmt.Errorf("forge: fit: %w", err)
		}
		profiles = mech.Apply(profiles, rows)
		f.logger.Debug("privacy noise applied", "epsilon", eps)
	}

	dep, err := dependency.Estimate(profiles, ds, f.cfg.DependencyOptions())
	if err != nil {
		return fmt.Errorf("forge: fit: %w", err)
	}
	m, err := model.Build(profiles, dep, rows)
	if err != nil {
		return fmt.Errorf("forge: fit: %w", err)
	}

	f.mu.Lock()
	f.model = m
	f.mu.Unlock()

	f.logger.Info("fit finished",
		"rows", rows,
		"columns", m.NumColumns(),
		"model", m.Fingerprint().ID().String(),
		"duration", time.Since(start))

	return nil
}

// Generate draws n synthetic rows from the current model. Configured sampler
// settings apply first; opts override them (use sampler.WithSeed for
// reproducible output).
//
// Errors:
//   - ErrNotFitted, sampler.ErrInvalidSampleSize, ctx.Err().
func (f *Forge) Generate(ctx context.Context, n int, opts ...sampler.Option) (*dataset.Dataset, error) {
	m, err := f.Model()
	if err != nil {
		return nil, err
	}
	all := append(f.cfg.SamplerOptions(), sampler.WithLogger(f.logger))
	all = append(all, opts...)

	out, err := sampler.Sample(ctx, m, n, all...)
	if err != nil {
		return nil, fmt.Errorf("forge: generate: %w", err)
	}

	return out, nil
}

// Model returns the current model. Models are immutable, so the result may
// be used freely after a later Fit replaced it.
func (f *Forge) Model() (*model.Model, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.model == nil {
		return nil, ErrNotFitted
	}

	return f.model, nil
}

// Fitted reports whether a model is present.
func (f *Forge) Fitted() bool {
	_, err := f.Model()
	return err == nil
}

// Save encodes the current model to w.
func (f *Forge) Save(w io.Writer, format model.Format) error {
	m, err := f.Model()
	if err != nil {
		return err
	}
	data, err := model.Encode(m, format)
	if err != nil {
		return fmt.Errorf("forge: save: %w", err)
	}
	if _, err = w.Write(data); err != nil {
		return fmt.Errorf("forge: save: %w", err)
	}

	return nil
}
