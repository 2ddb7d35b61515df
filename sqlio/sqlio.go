// SPDX-License-Identifier: MIT

// Package sqlio moves datasets in and out of SQL databases through
// database/sql. It is driver-agnostic; the tests run against the pure-Go
// SQLite driver (modernc.org/sqlite).
package sqlio

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/katalvlaran/tabularforge/dataset"
)

// ErrEmptyTable is returned by Store for an empty table name or a dataset
// without columns.
var ErrEmptyTable = errors.New("sqlio: nothing to store")

// timeLayouts parse timestamps that a driver hands back as text.
var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// Load runs query and returns its result set as a dataset. NULL becomes a
// missing cell, []byte becomes string, and columns declared as DATE, DATETIME,
// TIMESTAMP or BOOLEAN carry that semantic type.
func Load(ctx context.Context, db *sql.DB, query string, args ...any) (*dataset.Dataset, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlio: query: %w", err)
	}
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("sqlio: column types: %w", err)
	}
	cols := make([]dataset.Column, len(types))
	for j, ct := range types {
		cols[j] = dataset.Column{Name: ct.Name(), Type: declaredType(ct.DatabaseTypeName())}
	}

	cells := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for j := range cells {
		ptrs[j] = &cells[j]
	}
	for rows.Next() {
		if err = rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("sqlio: scan: %w", err)
		}
		for j, v := range cells {
			cols[j].Values = append(cols[j].Values, convert(v, cols[j].Type))
		}
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlio: rows: %w", err)
	}

	return dataset.New(cols...)
}

func declaredType(name string) dataset.SemanticType {
	switch strings.ToUpper(name) {
	case "DATE", "DATETIME", "TIMESTAMP", "TIMESTAMPTZ":
		return dataset.Datetime
	case "BOOL", "BOOLEAN":
		return dataset.Boolean
	}

	return dataset.Unknown
}

// convert maps a scanned driver value to a dataset cell.
func convert(v any, t dataset.SemanticType) any {
	switch x := v.(type) {
	case nil:
		return nil
	case []byte:
		v = string(x)
	case time.Time:
		return x.UTC()
	}

	switch t {
	case dataset.Datetime:
		if s, ok := v.(string); ok {
			for _, l := range timeLayouts {
				if ts, err := time.Parse(l, s); err == nil {
					return ts.UTC()
				}
			}
		}
	case dataset.Boolean:
		if i, ok := v.(int64); ok {
			return i != 0
		}
	}

	return v
}

// StoreOption configures Store.
type StoreOption func(*storeOptions)

type storeOptions struct {
	placeholder func(i int) string
}

// WithPlaceholder sets the bind parameter style; i is 1-based.
// The default is "?"; use DollarPlaceholder for PostgreSQL.
func WithPlaceholder(fn func(i int) string) StoreOption {
	return func(o *storeOptions) {
		if fn != nil {
			o.placeholder = fn
		}
	}
}

// DollarPlaceholder renders $1, $2, ...
func DollarPlaceholder(i int) string { return fmt.Sprintf("$%d", i) }

// Store creates table with one column per dataset column and inserts every
// row in a single transaction. Column SQL types follow the semantic type:
// REAL, TEXT, TIMESTAMP or BOOLEAN.
func Store(ctx context.Context, db *sql.DB, table string, ds *dataset.Dataset, opts ...StoreOption) (err error) {
	if table == "" || ds == nil || ds.NumCols() == 0 {
		return ErrEmptyTable
	}
	o := storeOptions{placeholder: func(int) string { return "?" }}
	for _, fn := range opts {
		fn(&o)
	}

	defs := make([]string, ds.NumCols())
	names := make([]string, ds.NumCols())
	marks := make([]string, ds.NumCols())
	for j, c := range ds.Columns {
		names[j] = quote(c.Name)
		defs[j] = names[j] + " " + sqlType(c)
		marks[j] = o.placeholder(j + 1)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlio: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", quote(table), strings.Join(defs, ", "))); err != nil {
		return fmt.Errorf("sqlio: create %s: %w", table, err)
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quote(table), strings.Join(names, ", "), strings.Join(marks, ", ")))
	if err != nil {
		return fmt.Errorf("sqlio: prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := 0; i < ds.NumRows(); i++ {
		row := ds.Row(i)
		for j, v := range row {
			if dataset.IsMissing(v) {
				row[j] = nil
			}
		}
		if _, err = stmt.ExecContext(ctx, row...); err != nil {
			return fmt.Errorf("sqlio: insert row %d: %w", i, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("sqlio: commit: %w", err)
	}

	return nil
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// sqlType picks a column type from the declared semantic type, or from the
// first non-missing cell when none is declared.
func sqlType(c dataset.Column) string {
	switch c.Type {
	case dataset.Continuous:
		return "REAL"
	case dataset.Categorical:
		return "TEXT"
	case dataset.Datetime:
		return "TIMESTAMP"
	case dataset.Boolean:
		return "BOOLEAN"
	}
	for _, v := range c.Values {
		if dataset.IsMissing(v) {
			continue
		}
		switch v.(type) {
		case bool:
			return "BOOLEAN"
		case time.Time:
			return "TIMESTAMP"
		case string:
			return "TEXT"
		}
		if _, ok := dataset.Number(v); ok {
			return "REAL"
		}
	}

	return "TEXT"
}
