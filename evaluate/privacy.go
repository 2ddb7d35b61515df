// SPDX-License-Identifier: MIT

package evaluate

import (
	"context"
	"math"
	"runtime"
	"slices"

	"github.com/katalvlaran/tabularforge/dataset"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// PrivacyReport summarises distances to closest record (DCR). Distances are
// the mean per-column distance, each in [0, 1]; small values mean synthetic
// rows sit close to real ones.
type PrivacyReport struct {
	DCRMean          float64
	DCRMin           float64
	DCR5thPercentile float64
	ExactMatchRate   float64
	RealRows         int
	SyntheticRows    int
}

// encoded is one dataset side as per-column encoded values.
type encoded struct {
	vals    [][]float64 // [col][row]
	missing [][]bool
	rows    int
}

// Privacy computes DCR statistics of synth against real. Both sides are capped
// at MaxRows rows by a deterministic stride.
//
// Errors:
//   - ErrSchemaMismatch when synth lacks a column of real.
//   - ctx.Err() when cancelled.
func Privacy(ctx context.Context, real, synth *dataset.Dataset, opts Options) (PrivacyReport, error) {
	s, err := align(ctx, real, synth, opts)
	if err != nil {
		return PrivacyReport{}, err
	}
	if opts.MaxRows <= 0 {
		opts.MaxRows = DefaultMaxRows
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	d := len(s.profiles)
	realCols := make([]dataset.Column, d)
	ranges := make([]float64, d)
	for j, p := range s.profiles {
		realCols[j], _ = real.Column(p.Name)
		switch {
		case p.Continuous != nil:
			ranges[j] = p.Continuous.Max - p.Continuous.Min
		case p.Datetime != nil:
			ranges[j] = p.Datetime.Offsets.Max - p.Datetime.Offsets.Min
		}
	}
	r := encodeSide(realCols, s.encoders, opts.MaxRows)
	q := encodeSide(s.synth, s.encoders, opts.MaxRows)
	if r.rows == 0 || q.rows == 0 {
		return PrivacyReport{RealRows: r.rows, SyntheticRows: q.rows}, nil
	}

	dcr := make([]float64, q.rows)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	const block = 64
	for lo := 0; lo < q.rows; lo += block {
		lo := lo
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for i := lo; i < min(lo+block, q.rows); i++ {
				best := math.Inf(1)
				for k := 0; k < r.rows && best > 0; k++ {
					best = math.Min(best, rowDistance(q, i, r, k, ranges))
				}
				dcr[i] = best
			}
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return PrivacyReport{}, err
	}

	rep := PrivacyReport{RealRows: r.rows, SyntheticRows: q.rows}
	exact := 0
	for _, v := range dcr {
		rep.DCRMean += v
		if v == 0 {
			exact++
		}
	}
	rep.DCRMean /= float64(len(dcr))
	rep.ExactMatchRate = float64(exact) / float64(len(dcr))
	slices.Sort(dcr)
	rep.DCRMin = dcr[0]
	rep.DCR5thPercentile = stat.Quantile(0.05, stat.Empirical, dcr, nil)

	return rep, nil
}

// encodeSide encodes up to maxRows rows chosen by an even stride.
func encodeSide(cols []dataset.Column, encoders []func(any) (float64, bool), maxRows int) encoded {
	n := 0
	if len(cols) > 0 {
		n = len(cols[0].Values)
	}
	rows := min(n, maxRows)
	e := encoded{vals: make([][]float64, len(cols)), missing: make([][]bool, len(cols)), rows: rows}
	for j, c := range cols {
		e.vals[j] = make([]float64, rows)
		e.missing[j] = make([]bool, rows)
		for i := 0; i < rows; i++ {
			v := c.Values[i*n/rows]
			if dataset.IsMissing(v) {
				e.missing[j][i] = true
				continue
			}
			x, ok := encoders[j](v)
			if !ok {
				x = unseen
			}
			e.vals[j][i] = x
		}
	}

	return e
}

// rowDistance is the mean per-column distance between row a of x and row b of
// y. Numeric columns (range > 0) use range-scaled absolute difference capped at
// 1; all others use exact match.
func rowDistance(x encoded, a int, y encoded, b int, ranges []float64) float64 {
	var sum float64
	for j := range x.vals {
		xm, ym := x.missing[j][a], y.missing[j][b]
		switch {
		case xm && ym:
		case xm || ym:
			sum++
		case ranges[j] > 0:
			sum += math.Min(1, math.Abs(x.vals[j][a]-y.vals[j][b])/ranges[j])
		case x.vals[j][a] != y.vals[j][b]:
			sum++
		}
	}

	return sum / float64(len(x.vals))
}
