// SPDX-License-Identifier: MIT

// Package config holds the tunables of the fit and generate pipeline and loads
// them from layered sources.
//
// Precedence (highest to lowest): environment (TABFORGE_ prefix) > YAML file >
// defaults. TABFORGE_SAMPLER_CHUNK_SIZE sets sampler.chunk_size; the first
// underscore after the prefix separates section from key.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/katalvlaran/tabularforge/dependency"
	"github.com/katalvlaran/tabularforge/profile"
	"github.com/katalvlaran/tabularforge/sampler"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TABFORGE_"

// ErrInvalid is returned by Validate for out-of-range settings.
var ErrInvalid = errors.New("config: invalid configuration")

// Config is the full configuration.
type Config struct {
	// Workers bounds concurrent column profiling; 0 means one goroutine per column.
	Workers    int              `koanf:"workers"`
	Profile    ProfileConfig    `koanf:"profile"`
	Dependency DependencyConfig `koanf:"dependency"`
	Sampler    SamplerConfig    `koanf:"sampler"`
	Privacy    PrivacyConfig    `koanf:"privacy"`
}

// ProfileConfig tunes type inference and marginal fitting.
type ProfileConfig struct {
	ContinuousRatio float64  `koanf:"continuous_ratio"`
	SkewThreshold   float64  `koanf:"skew_threshold"`
	QuantileBins    int      `koanf:"quantile_bins"`
	DatetimeLayouts []string `koanf:"datetime_layouts"`
}

// DependencyConfig tunes rank dependency estimation.
type DependencyConfig struct {
	MinRows int `koanf:"min_rows"`
}

// SamplerConfig tunes generation.
type SamplerConfig struct {
	ChunkSize  int     `koanf:"chunk_size"`
	Workers    int     `koanf:"workers"`
	EigenFloor float64 `koanf:"eigen_floor"`
}

// PrivacyConfig enables Laplace noise on fitted marginals when Epsilon > 0.
// A zero Seed draws fresh noise on every fit.
type PrivacyConfig struct {
	Epsilon float64 `koanf:"epsilon"`
	Seed    uint64  `koanf:"seed"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Profile: ProfileConfig{
			ContinuousRatio: profile.DefaultContinuousRatio,
			SkewThreshold:   profile.DefaultSkewThreshold,
			QuantileBins:    profile.DefaultQuantileBins,
			DatetimeLayouts: slices.Clone(profile.DefaultDatetimeLayouts),
		},
		Dependency: DependencyConfig{MinRows: dependency.DefaultMinRows},
		Sampler: SamplerConfig{
			ChunkSize:  sampler.DefaultChunkSize,
			EigenFloor: sampler.DefaultEigenFloor,
		},
	}
}

func defaultsMap() map[string]any {
	d := Default()
	return map[string]any{
		"workers":                  d.Workers,
		"profile.continuous_ratio": d.Profile.ContinuousRatio,
		"profile.skew_threshold":   d.Profile.SkewThreshold,
		"profile.quantile_bins":    d.Profile.QuantileBins,
		"profile.datetime_layouts": d.Profile.DatetimeLayouts,
		"dependency.min_rows":      d.Dependency.MinRows,
		"sampler.chunk_size":       d.Sampler.ChunkSize,
		"sampler.workers":          d.Sampler.Workers,
		"sampler.eigen_floor":      d.Sampler.EigenFloor,
		"privacy.epsilon":          d.Privacy.Epsilon,
		"privacy.seed":             d.Privacy.Seed,
	}
}

// envKey maps TABFORGE_SAMPLER_CHUNK_SIZE to sampler.chunk_size.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, key, ok := strings.Cut(s, "_")
	if !ok {
		return s
	}
	switch section {
	case "profile", "dependency", "sampler", "privacy":
		return section + "." + key
	}

	return s
}

// Load layers defaults, the YAML file at path (skipped when path is empty) and
// the environment, then validates the result.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultsMap(), "."), nil); err != nil {
		return Config{}, fmt.Errorf("config: load defaults: %w", err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("config: load env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate rejects settings no component can honour.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}
	check(c.Workers >= 0, "workers %d < 0", c.Workers)
	check(c.Profile.ContinuousRatio > 0 && c.Profile.ContinuousRatio <= 1,
		"profile.continuous_ratio %g outside (0, 1]", c.Profile.ContinuousRatio)
	check(c.Profile.SkewThreshold > 0, "profile.skew_threshold %g <= 0", c.Profile.SkewThreshold)
	check(c.Profile.QuantileBins >= 2, "profile.quantile_bins %d < 2", c.Profile.QuantileBins)
	check(c.Dependency.MinRows >= dependency.DefaultMinRows, "dependency.min_rows %d < %d",
		c.Dependency.MinRows, dependency.DefaultMinRows)
	check(c.Sampler.ChunkSize >= 1, "sampler.chunk_size %d < 1", c.Sampler.ChunkSize)
	check(c.Sampler.Workers >= 0, "sampler.workers %d < 0", c.Sampler.Workers)
	check(c.Sampler.EigenFloor > 0 && c.Sampler.EigenFloor < 1,
		"sampler.eigen_floor %g outside (0, 1)", c.Sampler.EigenFloor)
	check(c.Privacy.Epsilon >= 0, "privacy.epsilon %g < 0", c.Privacy.Epsilon)

	return errors.Join(errs...)
}

// ProfileOptions translates the profile section.
func (c Config) ProfileOptions() profile.Options {
	return profile.Options{
		ContinuousRatio: c.Profile.ContinuousRatio,
		SkewThreshold:   c.Profile.SkewThreshold,
		QuantileBins:    c.Profile.QuantileBins,
		DatetimeLayouts: slices.Clone(c.Profile.DatetimeLayouts),
	}
}

// DependencyOptions translates the dependency section.
func (c Config) DependencyOptions() dependency.Options {
	return dependency.Options{MinRows: c.Dependency.MinRows, Profile: c.ProfileOptions()}
}

// SamplerOptions translates the sampler section. Zero values keep the
// sampler's own defaults.
func (c Config) SamplerOptions() []sampler.Option {
	var opts []sampler.Option
	if c.Sampler.ChunkSize > 0 {
		opts = append(opts, sampler.WithChunkSize(c.Sampler.ChunkSize))
	}
	if c.Sampler.Workers > 0 {
		opts = append(opts, sampler.WithWorkers(c.Sampler.Workers))
	}
	if c.Sampler.EigenFloor > 0 && c.Sampler.EigenFloor < 1 {
		opts = append(opts, sampler.WithEigenFloor(c.Sampler.EigenFloor))
	}

	return opts
}
