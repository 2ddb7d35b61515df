// SPDX-License-Identifier: MIT

package model

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/golang/snappy"
	"github.com/katalvlaran/tabularforge/dependency"
	"github.com/katalvlaran/tabularforge/matrix"
	"github.com/katalvlaran/tabularforge/profile"
	"gopkg.in/yaml.v3"
)

// Format selects a serialization encoding.
type Format string

// Supported formats.
const (
	FormatJSON   Format = "json"
	FormatYAML   Format = "yaml"
	FormatSnappy Format = "snappy" // snappy-compressed JSON behind snappyMagic
)

// formatTag identifies a serialized model inside the envelope.
const formatTag = "tabularforge.model"

var snappyMagic = []byte("TFZ\x01")

// ParseFormat maps "json", "yaml"/"yml" or "snappy" to a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "snappy":
		return FormatSnappy, nil
	}

	return "", fmt.Errorf("%w: unknown format %q", ErrModelFormat, s)
}

type envelope struct {
	Format  string   `json:"format" yaml:"format"`
	Version int      `json:"version" yaml:"version"`
	Model   document `json:"model" yaml:"model"`
}

type document struct {
	FitRows     int               `json:"fit_rows" yaml:"fit_rows"`
	Fingerprint Fingerprint       `json:"fingerprint" yaml:"fingerprint"`
	Profiles    []profile.Profile `json:"profiles" yaml:"profiles"`
	Dependency  structureDoc      `json:"dependency" yaml:"dependency"`
}

type structureDoc struct {
	Columns      []string    `json:"columns" yaml:"columns"`
	Coefficients [][]float64 `json:"coefficients" yaml:"coefficients,flow"`
}

// header is decoded first so format and version are checked before the body.
type header struct {
	Format  string `json:"format" yaml:"format"`
	Version int    `json:"version" yaml:"version"`
}

// Encode serializes m. Equal models encode to identical bytes.
func Encode(m *Model, f Format) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("model: encode: %w: nil model", ErrModelFormat)
	}
	env := envelope{Format: formatTag, Version: Version, Model: m.document()}

	switch f {
	case FormatJSON, "":
		b, err := json.MarshalIndent(env, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("model: encode json: %w", err)
		}
		return append(b, '\n'), nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(env); err != nil {
			return nil, fmt.Errorf("model: encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("model: encode yaml: %w", err)
		}
		return buf.Bytes(), nil
	case FormatSnappy:
		b, err := json.Marshal(env)
		if err != nil {
			return nil, fmt.Errorf("model: encode snappy: %w", err)
		}
		return append(append([]byte(nil), snappyMagic...), snappy.Encode(nil, b)...), nil
	}

	return nil, fmt.Errorf("model: encode: %w: unknown format %q", ErrModelFormat, f)
}

// Decode parses a model written by Encode in any format; the format is sniffed.
//
// Errors:
//   - ErrModelFormat for unreadable input, a foreign format tag, or an
//     inconsistent model body.
//   - ErrModelVersion when the version is not Version.
func Decode(data []byte) (*Model, error) {
	if bytes.HasPrefix(data, snappyMagic) {
		raw, err := snappy.Decode(nil, data[len(snappyMagic):])
		if err != nil {
			return nil, fmt.Errorf("model: decode: %w: %v", ErrModelFormat, err)
		}
		return decodeJSON(raw)
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("model: decode: %w: empty input", ErrModelFormat)
	}
	if trimmed[0] == '{' {
		return decodeJSON(trimmed)
	}

	return decodeYAML(trimmed)
}

func decodeJSON(data []byte) (*Model, error) {
	var h header
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("model: decode json: %w: %v", ErrModelFormat, err)
	}
	if err := h.check(); err != nil {
		return nil, err
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("model: decode json: %w: %v", ErrModelFormat, err)
	}

	return env.Model.build()
}

func decodeYAML(data []byte) (*Model, error) {
	var h header
	if err := yaml.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("model: decode yaml: %w: %v", ErrModelFormat, err)
	}
	if err := h.check(); err != nil {
		return nil, err
	}
	var env envelope
	if err := yaml.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("model: decode yaml: %w: %v", ErrModelFormat, err)
	}

	return env.Model.build()
}

func (h header) check() error {
	if h.Format != formatTag {
		return fmt.Errorf("model: decode: %w: format tag %q", ErrModelFormat, h.Format)
	}
	if h.Version != Version {
		return fmt.Errorf("model: decode: %w: %d (supported: %d)", ErrModelVersion, h.Version, Version)
	}

	return nil
}

func (m *Model) document() document {
	d := m.dependency.Coefficients
	rows := make([][]float64, d.Rows())
	for i := range rows {
		rows[i], _ = d.Row(i)
	}

	return document{
		FitRows:     m.fitRows,
		Fingerprint: m.Fingerprint(),
		Profiles:    m.Profiles(),
		Dependency:  structureDoc{Columns: m.Columns(), Coefficients: rows},
	}
}

// build rebuilds and revalidates a decoded document.
func (d document) build() (*Model, error) {
	n := len(d.Dependency.Columns)
	if len(d.Dependency.Coefficients) != n {
		return nil, fmt.Errorf("model: decode: %w: %d coefficient rows for %d columns",
			ErrModelFormat, len(d.Dependency.Coefficients), n)
	}
	flat := make([]float64, 0, n*n)
	for i, row := range d.Dependency.Coefficients {
		if len(row) != n {
			return nil, fmt.Errorf("model: decode: %w: coefficient row %d has %d entries", ErrModelFormat, i, len(row))
		}
		flat = append(flat, row...)
	}
	coef, err := matrix.NewDenseFrom(n, n, flat)
	if err != nil {
		return nil, fmt.Errorf("model: decode: %w: %v", ErrModelFormat, err)
	}

	m, err := Build(d.Profiles, dependency.Structure{Columns: d.Dependency.Columns, Coefficients: coef}, d.FitRows)
	if err != nil {
		return nil, fmt.Errorf("model: decode: %w: %v", ErrModelFormat, err)
	}
	if len(d.Fingerprint.Columns) > 0 && d.Fingerprint.Hash() != m.fingerprint.Hash() {
		return nil, fmt.Errorf("model: decode: %w: fingerprint does not match profiles", ErrModelFormat)
	}

	return m, nil
}
