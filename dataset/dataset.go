// SPDX-License-Identifier: MIT

// Package dataset defines the in-memory tabular data model shared by every
// other package: an ordered list of named columns of equal length.
//
// Cells are plain Go values:
//
//	nil                 missing
//	float32, float64    numeric (NaN is treated as missing)
//	int*, uint*         numeric
//	string              text (may still parse as a number or a timestamp)
//	bool                boolean
//	time.Time           timestamp
//
// A Column may carry a declared SemanticType; the profiler treats a declared
// type as a hint that overrides inference.
package dataset

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Sentinel errors for dataset validation.
var (
	// ErrEmptyColumnName indicates a column without a name.
	ErrEmptyColumnName = errors.New("dataset: column name is empty")

	// ErrDuplicateColumn indicates two columns share a name.
	ErrDuplicateColumn = errors.New("dataset: duplicate column name")

	// ErrRaggedColumns indicates columns with different row counts.
	ErrRaggedColumns = errors.New("dataset: columns have different row counts")

	// ErrUnsupportedValue indicates a cell of a Go type the model cannot represent.
	ErrUnsupportedValue = errors.New("dataset: unsupported cell value type")

	// ErrUnknownType indicates an unrecognised semantic type name.
	ErrUnknownType = errors.New("dataset: unknown semantic type")

	// ErrColumnNotFound indicates a lookup for a name that is not in the dataset.
	ErrColumnNotFound = errors.New("dataset: column not found")
)

// SemanticType classifies what a column means statistically.
type SemanticType string

// Semantic types. The zero value means "not declared".
const (
	Unknown     SemanticType = ""
	Continuous  SemanticType = "continuous"
	Categorical SemanticType = "categorical"
	Datetime    SemanticType = "datetime"
	Boolean     SemanticType = "boolean"
)

// Valid reports whether t is one of the four concrete semantic types.
func (t SemanticType) Valid() bool {
	switch t {
	case Continuous, Categorical, Datetime, Boolean:
		return true
	default:
		return false
	}
}

// ParseSemanticType maps a name ("continuous", "numerical", "categorical", ...)
// to a SemanticType. "numerical"/"numeric" are accepted aliases of continuous.
func ParseSemanticType(s string) (SemanticType, error) {
	switch s {
	case "continuous", "numerical", "numeric":
		return Continuous, nil
	case "categorical", "category":
		return Categorical, nil
	case "datetime", "date", "timestamp":
		return Datetime, nil
	case "boolean", "bool":
		return Boolean, nil
	}

	return Unknown, fmt.Errorf("%w: %q", ErrUnknownType, s)
}

// Column is one named, ordered sequence of cells.
type Column struct {
	Name   string
	Type   SemanticType // declared type; Unknown lets the profiler infer
	Values []any
}

// Len returns the number of cells.
func (c Column) Len() int { return len(c.Values) }

// Dataset is an ordered sequence of named columns sharing a row count.
type Dataset struct {
	Columns []Column
}

// New builds a Dataset and validates it.
func New(cols ...Column) (*Dataset, error) {
	ds := &Dataset{Columns: cols}
	if err := ds.Validate(); err != nil {
		return nil, err
	}

	return ds, nil
}

// Validate checks the dataset invariants: names non-empty and unique, equal
// row counts, declared types recognised, and supported cell types.
func (d *Dataset) Validate() error {
	seen := make(map[string]struct{}, len(d.Columns))
	rows := -1
	for i, c := range d.Columns {
		if c.Name == "" {
			return fmt.Errorf("column %d: %w", i, ErrEmptyColumnName)
		}
		if _, dup := seen[c.Name]; dup {
			return fmt.Errorf("column %q: %w", c.Name, ErrDuplicateColumn)
		}
		seen[c.Name] = struct{}{}
		if c.Type != Unknown && !c.Type.Valid() {
			return fmt.Errorf("column %q: %w: %q", c.Name, ErrUnknownType, string(c.Type))
		}
		if rows >= 0 && len(c.Values) != rows {
			return fmt.Errorf("column %q has %d rows, want %d: %w", c.Name, len(c.Values), rows, ErrRaggedColumns)
		}
		rows = len(c.Values)
		for r, v := range c.Values {
			if !supported(v) {
				return fmt.Errorf("column %q row %d (%T): %w", c.Name, r, v, ErrUnsupportedValue)
			}
		}
	}

	return nil
}

// NumRows returns the shared row count (0 for a dataset without columns).
func (d *Dataset) NumRows() int {
	if d == nil || len(d.Columns) == 0 {
		return 0
	}

	return len(d.Columns[0].Values)
}

// NumCols returns the number of columns.
func (d *Dataset) NumCols() int {
	if d == nil {
		return 0
	}

	return len(d.Columns)
}

// Names returns the column names in order.
func (d *Dataset) Names() []string {
	out := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		out[i] = c.Name
	}

	return out
}

// Index returns the position of the named column, or -1.
func (d *Dataset) Index(name string) int {
	for i, c := range d.Columns {
		if c.Name == name {
			return i
		}
	}

	return -1
}

// Column returns the named column or ErrColumnNotFound.
func (d *Dataset) Column(name string) (Column, error) {
	if i := d.Index(name); i >= 0 {
		return d.Columns[i], nil
	}

	return Column{}, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
}

// Row returns the cells of row i in column order.
func (d *Dataset) Row(i int) []any {
	out := make([]any, len(d.Columns))
	for j, c := range d.Columns {
		out[j] = c.Values[i]
	}

	return out
}

// Head returns a dataset holding the first n rows (sharing no cell slices).
func (d *Dataset) Head(n int) *Dataset {
	if n > d.NumRows() {
		n = d.NumRows()
	}
	if n < 0 {
		n = 0
	}
	cols := make([]Column, len(d.Columns))
	for i, c := range d.Columns {
		vals := make([]any, n)
		copy(vals, c.Values[:n])
		cols[i] = Column{Name: c.Name, Type: c.Type, Values: vals}
	}

	return &Dataset{Columns: cols}
}

// IsMissing reports whether a cell counts as missing (nil or NaN).
func IsMissing(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(x)
	case float32:
		return math.IsNaN(float64(x))
	}

	return false
}

// Number converts a numeric Go value to float64. Strings are NOT parsed here.
func Number(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	}

	return 0, false
}

// supported reports whether v is a cell value the model can represent.
func supported(v any) bool {
	if v == nil {
		return true
	}
	if _, ok := Number(v); ok {
		return true
	}
	switch v.(type) {
	case string, bool, time.Time:
		return true
	}

	return false
}
