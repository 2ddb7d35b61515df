// SPDX-License-Identifier: MIT

package sqlio_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/katalvlaran/tabularforge/dataset"
	"github.com/katalvlaran/tabularforge/sqlio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestStoreLoad_RoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := openDB(t)
	t0 := time.Date(2024, 2, 29, 13, 45, 0, 0, time.UTC)

	ds, err := dataset.New(
		dataset.Column{Name: "age", Values: []any{31.0, nil, 58.5}},
		dataset.Column{Name: "city", Values: []any{"Lagos", "Quito", nil}},
		dataset.Column{Name: "active", Values: []any{true, false, true}},
		dataset.Column{Name: "signup date", Values: []any{t0, t0.Add(time.Hour), nil}},
	)
	require.NoError(t, err)
	require.NoError(t, sqlio.Store(ctx, db, "customers", ds))

	got, err := sqlio.Load(ctx, db, `SELECT * FROM customers`)
	require.NoError(t, err)
	require.Equal(t, ds.Names(), got.Names())
	require.Equal(t, 3, got.NumRows())

	assert.Equal(t, []any{31.0, nil, 58.5}, got.Columns[0].Values)
	assert.Equal(t, []any{"Lagos", "Quito", nil}, got.Columns[1].Values)
	assert.Equal(t, dataset.Boolean, got.Columns[2].Type)
	assert.Equal(t, []any{true, false, true}, got.Columns[2].Values)

	assert.Equal(t, dataset.Datetime, got.Columns[3].Type)
	ts, ok := got.Columns[3].Values[0].(time.Time)
	require.True(t, ok, "got %T", got.Columns[3].Values[0])
	assert.True(t, ts.Equal(t0))
	assert.Nil(t, got.Columns[3].Values[2])
}

func TestLoad_QueryArgs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := openDB(t)
	_, err := db.ExecContext(ctx, `CREATE TABLE t (n INTEGER, s TEXT)`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO t VALUES (1, 'a'), (2, 'b'), (3, NULL)`)
	require.NoError(t, err)

	got, err := sqlio.Load(ctx, db, `SELECT n, s FROM t WHERE n >= ? ORDER BY n`, 2)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(2), int64(3)}, got.Columns[0].Values)
	assert.Equal(t, []any{"b", nil}, got.Columns[1].Values)

	_, err = sqlio.Load(ctx, db, `SELECT * FROM missing_table`)
	require.Error(t, err)
}

func TestStore_Errors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := openDB(t)
	ds, err := dataset.New(dataset.Column{Name: "x", Values: []any{1.0}})
	require.NoError(t, err)

	require.ErrorIs(t, sqlio.Store(ctx, db, "", ds), sqlio.ErrEmptyTable)
	require.ErrorIs(t, sqlio.Store(ctx, db, "t", &dataset.Dataset{}), sqlio.ErrEmptyTable)

	require.NoError(t, sqlio.Store(ctx, db, "t", ds))
	require.Error(t, sqlio.Store(ctx, db, "t", ds))

	got, err := sqlio.Load(ctx, db, `SELECT * FROM t`)
	require.NoError(t, err)
	assert.Equal(t, 1, got.NumRows())

	assert.Equal(t, "$3", sqlio.DollarPlaceholder(3))
}
