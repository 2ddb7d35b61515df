// SPDX-License-Identifier: MIT

package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// ErrNoHeader is returned by ReadCSV for input without a header record.
var ErrNoHeader = errors.New("dataset: csv input has no header row")

// DefaultMissingTokens are the cell spellings ReadCSV treats as missing.
var DefaultMissingTokens = []string{"", "NA", "N/A", "NaN", "nan", "null", "NULL"}

const dateLayout = "2006-01-02"

// CSVOption configures ReadCSV.
type CSVOption func(*csvOptions)

type csvOptions struct {
	comma   rune
	missing map[string]struct{}
	types   map[string]SemanticType
}

// WithComma sets the field delimiter (default ',').
func WithComma(r rune) CSVOption {
	return func(o *csvOptions) { o.comma = r }
}

// WithMissingTokens replaces DefaultMissingTokens.
func WithMissingTokens(tokens ...string) CSVOption {
	return func(o *csvOptions) {
		o.missing = make(map[string]struct{}, len(tokens))
		for _, t := range tokens {
			o.missing[t] = struct{}{}
		}
	}
}

// WithDeclaredTypes attaches declared semantic types to the named columns.
func WithDeclaredTypes(types map[string]SemanticType) CSVOption {
	return func(o *csvOptions) { o.types = types }
}

// ReadCSV reads a header row followed by records into a Dataset.
//
// Cells are decoded as: a missing token -> nil; parseable float -> float64;
// "true"/"false" (any case) -> bool; anything else -> string. Timestamps stay
// strings; the profiler recognises them.
func ReadCSV(r io.Reader, opts ...CSVOption) (*Dataset, error) {
	o := csvOptions{comma: ','}
	WithMissingTokens(DefaultMissingTokens...)(&o)
	for _, fn := range opts {
		fn(&o)
	}

	cr := csv.NewReader(r)
	cr.Comma = o.comma
	cr.ReuseRecord = false

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("dataset: read csv header: %w", err)
	}

	cols := make([]Column, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		cols[i] = Column{Name: name, Type: o.types[name]}
	}

	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("dataset: read csv line %d: %w", line, err)
		}
		for i, cell := range rec {
			cols[i].Values = append(cols[i].Values, decodeCell(cell, o.missing))
		}
	}

	return New(cols...)
}

// decodeCell converts one CSV field to a cell value.
func decodeCell(s string, missing map[string]struct{}) any {
	t := strings.TrimSpace(s)
	if _, ok := missing[t]; ok {
		return nil
	}
	if f, err := strconv.ParseFloat(t, 64); err == nil {
		return f
	}
	switch strings.ToLower(t) {
	case "true":
		return true
	case "false":
		return false
	}

	return s
}

// WriteCSV writes ds as a header row followed by one record per row.
// Missing cells become empty fields. A time column is written as a plain date
// when every value in it falls on midnight UTC, otherwise as RFC 3339.
func WriteCSV(w io.Writer, ds *Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ds.Names()); err != nil {
		return fmt.Errorf("dataset: write csv header: %w", err)
	}

	layouts := make([]string, ds.NumCols())
	for j, c := range ds.Columns {
		layouts[j] = timeLayout(c.Values)
	}

	rec := make([]string, ds.NumCols())
	for i := 0; i < ds.NumRows(); i++ {
		for j, c := range ds.Columns {
			rec[j] = FormatCell(c.Values[i], layouts[j])
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("dataset: write csv row %d: %w", i, err)
		}
	}
	cw.Flush()

	return cw.Error()
}

// FormatCell renders one cell as text; layout applies to time.Time values.
func FormatCell(v any, layout string) string {
	if IsMissing(v) {
		return ""
	}
	switch x := v.(type) {
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		if layout == "" {
			layout = time.RFC3339
		}
		return x.Format(layout)
	}
	if f, ok := Number(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}

	return fmt.Sprint(v)
}

// timeLayout picks the date-only layout when every time value is midnight UTC.
func timeLayout(values []any) string {
	seen := false
	for _, v := range values {
		t, ok := v.(time.Time)
		if !ok {
			continue
		}
		seen = true
		u := t.UTC()
		if u.Hour() != 0 || u.Minute() != 0 || u.Second() != 0 || u.Nanosecond() != 0 {
			return time.RFC3339
		}
	}
	if !seen {
		return ""
	}

	return dateLayout
}
