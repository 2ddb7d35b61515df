// SPDX-License-Identifier: MIT

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/katalvlaran/tabularforge/config"
	"github.com/katalvlaran/tabularforge/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tabularforge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, profile.DefaultOptions(), cfg.ProfileOptions())
	assert.Equal(t, 2, cfg.DependencyOptions().MinRows)
	assert.Len(t, cfg.SamplerOptions(), 2)
}

func TestLoad_DefaultsOnly(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeFile(t, `
workers: 3
profile:
  skew_threshold: 2.5
  quantile_bins: 50
sampler:
  chunk_size: 1000
privacy:
  epsilon: 1.5
  seed: 9
`)
	t.Setenv("TABFORGE_SAMPLER_CHUNK_SIZE", "512")
	t.Setenv("TABFORGE_DEPENDENCY_MIN_ROWS", "10")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, 2.5, cfg.Profile.SkewThreshold)
	assert.Equal(t, 50, cfg.Profile.QuantileBins)
	assert.Equal(t, profile.DefaultContinuousRatio, cfg.Profile.ContinuousRatio)
	assert.Equal(t, 512, cfg.Sampler.ChunkSize)
	assert.Equal(t, 10, cfg.Dependency.MinRows)
	assert.Equal(t, 1.5, cfg.Privacy.Epsilon)
	assert.Equal(t, uint64(9), cfg.Privacy.Seed)

	po := cfg.ProfileOptions()
	assert.Equal(t, 50, po.QuantileBins)
	assert.Equal(t, 10, cfg.DependencyOptions().MinRows)
}

func TestLoad_Errors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)

	path := writeFile(t, "sampler:\n  chunk_size: 0\nprofile:\n  continuous_ratio: 3\n")
	_, err = config.Load(path)
	require.ErrorIs(t, err, config.ErrInvalid)
	assert.Contains(t, err.Error(), "sampler.chunk_size")
	assert.Contains(t, err.Error(), "profile.continuous_ratio")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"negative workers", func(c *config.Config) { c.Workers = -1 }},
		{"skew", func(c *config.Config) { c.Profile.SkewThreshold = 0 }},
		{"bins", func(c *config.Config) { c.Profile.QuantileBins = 1 }},
		{"min rows", func(c *config.Config) { c.Dependency.MinRows = 1 }},
		{"eigen floor", func(c *config.Config) { c.Sampler.EigenFloor = 1 }},
		{"epsilon", func(c *config.Config) { c.Privacy.Epsilon = -0.5 }},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := config.Default()
			tc.mutate(&cfg)
			require.ErrorIs(t, cfg.Validate(), config.ErrInvalid)
		})
	}
}
