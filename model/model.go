// SPDX-License-Identifier: MIT

// Package model assembles column profiles and a dependency structure into an
// immutable, serializable SyntheticModel.
//
// A Model never changes after Build or Decode; every accessor returns a deep
// copy, so a model can be shared by concurrent samplers without locking.
package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/katalvlaran/tabularforge/dataset"
	"github.com/katalvlaran/tabularforge/dependency"
	"github.com/katalvlaran/tabularforge/matrix"
	"github.com/katalvlaran/tabularforge/profile"
	"github.com/zeebo/xxh3"
)

// Sentinel errors.
var (
	// ErrSchemaMismatch is returned when profiles and dependency disagree on
	// column names. It is the same value as dependency.ErrSchemaMismatch.
	ErrSchemaMismatch = dependency.ErrSchemaMismatch

	// ErrModelFormat is returned for structurally invalid serialized input.
	ErrModelFormat = errors.New("model: invalid model format")

	// ErrModelVersion is returned for a serialized model of an unsupported version.
	ErrModelVersion = errors.New("model: unsupported model version")
)

// Version is the model schema version written by Encode.
const Version = 1

// idSpace namespaces fingerprint IDs.
var idSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/katalvlaran/tabularforge/model"))

// FieldSpec is one column of a fingerprint.
type FieldSpec struct {
	Name string               `json:"name" yaml:"name"`
	Type dataset.SemanticType `json:"type" yaml:"type"`
}

// Fingerprint is the ordered schema a model was fitted on.
type Fingerprint struct {
	Columns []FieldSpec `json:"columns" yaml:"columns"`
}

// canonical renders the fingerprint as "name:type" lines.
func (f Fingerprint) canonical() string {
	var b strings.Builder
	for _, c := range f.Columns {
		b.WriteString(c.Name)
		b.WriteByte(':')
		b.WriteString(string(c.Type))
		b.WriteByte('\n')
	}

	return b.String()
}

// Hash returns the xxh3 hash of the schema.
func (f Fingerprint) Hash() uint64 {
	return xxh3.HashString(f.canonical())
}

// ID returns a name-based UUID of the schema; equal schemas share an ID.
func (f Fingerprint) ID() uuid.UUID {
	return uuid.NewSHA1(idSpace, []byte(f.canonical()))
}

// Names returns the column names in order.
func (f Fingerprint) Names() []string {
	out := make([]string, len(f.Columns))
	for i, c := range f.Columns {
		out[i] = c.Name
	}

	return out
}

// Model is a fitted synthetic data model.
type Model struct {
	fingerprint Fingerprint
	profiles    []profile.Profile
	dependency  dependency.Structure
	fitRows     int
}

// Build validates and assembles a model. The dependency structure is
// reordered to follow the profile order.
//
// Errors:
//   - ErrSchemaMismatch when the name sets differ, contain duplicates, or are empty.
//   - profile.ErrInvalidProfile for an inconsistent profile.
//   - matrix errors for a coefficient matrix that is not a correlation matrix.
func Build(profiles []profile.Profile, dep dependency.Structure, fitRows int) (*Model, error) {
	if len(profiles) == 0 {
		return nil, fmt.Errorf("model: build: %w: no columns", ErrSchemaMismatch)
	}
	if fitRows < 0 {
		return nil, fmt.Errorf("model: build: negative fit row count %d", fitRows)
	}
	if err := dep.Validate(); err != nil {
		return nil, fmt.Errorf("model: build: %w", err)
	}
	if len(dep.Columns) != len(profiles) {
		return nil, fmt.Errorf("model: build: %w: %d profiles, %d dependency columns",
			ErrSchemaMismatch, len(profiles), len(dep.Columns))
	}

	n := len(profiles)
	m := &Model{
		fingerprint: Fingerprint{Columns: make([]FieldSpec, n)},
		profiles:    make([]profile.Profile, n),
		fitRows:     fitRows,
	}
	perm := make([]int, n)
	seen := make(map[string]struct{}, n)
	for i, p := range profiles {
		if _, dup := seen[p.Name]; dup {
			return nil, fmt.Errorf("model: build: %w: duplicate column %q", ErrSchemaMismatch, p.Name)
		}
		seen[p.Name] = struct{}{}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("model: build: %w", err)
		}
		perm[i] = dep.Index(p.Name)
		if perm[i] < 0 {
			return nil, fmt.Errorf("model: build: %w: column %q has no dependency entry", ErrSchemaMismatch, p.Name)
		}
		m.profiles[i] = p.Clone()
		m.fingerprint.Columns[i] = FieldSpec{Name: p.Name, Type: p.Type}
	}

	coef, err := matrix.NewDense(n, n)
	if err != nil {
		return nil, fmt.Errorf("model: build: %w", err)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v, _ := dep.Coefficients.At(perm[i], perm[j])
			_ = coef.Set(i, j, v)
		}
	}
	m.dependency = dependency.Structure{Columns: m.fingerprint.Names(), Coefficients: coef}

	return m, nil
}

// Fingerprint returns the schema the model was fitted on.
func (m *Model) Fingerprint() Fingerprint {
	return Fingerprint{Columns: append([]FieldSpec(nil), m.fingerprint.Columns...)}
}

// Hash is shorthand for Fingerprint().Hash().
func (m *Model) Hash() uint64 { return m.fingerprint.Hash() }

// Columns returns the column names in order.
func (m *Model) Columns() []string { return m.fingerprint.Names() }

// NumColumns returns the number of modelled columns.
func (m *Model) NumColumns() int { return len(m.profiles) }

// FitRows returns the row count of the dataset the model was fitted on.
func (m *Model) FitRows() int { return m.fitRows }

// Profiles returns copies of the column profiles in column order.
func (m *Model) Profiles() []profile.Profile {
	out := make([]profile.Profile, len(m.profiles))
	for i, p := range m.profiles {
		out[i] = p.Clone()
	}

	return out
}

// Profile returns a copy of the named profile.
func (m *Model) Profile(name string) (profile.Profile, bool) {
	for _, p := range m.profiles {
		if p.Name == name {
			return p.Clone(), true
		}
	}

	return profile.Profile{}, false
}

// Dependency returns a copy of the dependency structure, ordered like Columns.
func (m *Model) Dependency() dependency.Structure {
	return m.dependency.Clone()
}
