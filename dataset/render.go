// SPDX-License-Identifier: MIT

package dataset

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Render writes the first n rows of ds to w as a boxed table, followed by a
// "rows × columns" caption. n <= 0 renders every row.
func Render(w io.Writer, ds *Dataset, n int) {
	if n <= 0 || n > ds.NumRows() {
		n = ds.NumRows()
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)

	header := make(table.Row, 0, ds.NumCols())
	layouts := make([]string, ds.NumCols())
	for j, c := range ds.Columns {
		header = append(header, c.Name)
		layouts[j] = timeLayout(c.Values)
	}
	tw.AppendHeader(header)

	for i := 0; i < n; i++ {
		row := make(table.Row, 0, ds.NumCols())
		for j, c := range ds.Columns {
			cell := FormatCell(c.Values[i], layouts[j])
			if IsMissing(c.Values[i]) {
				cell = "<missing>"
			}
			row = append(row, cell)
		}
		tw.AppendRow(row)
	}
	tw.SetCaption(fmt.Sprintf("%d rows × %d columns", ds.NumRows(), ds.NumCols()))
	tw.Render()
}
