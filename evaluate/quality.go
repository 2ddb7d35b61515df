// SPDX-License-Identifier: MIT

package evaluate

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/katalvlaran/tabularforge/dataset"
	"github.com/katalvlaran/tabularforge/dependency"
	"gonum.org/v1/gonum/stat"
)

// Marginal metrics.
const (
	MetricKS  = "ks_complement"
	MetricTVD = "tv_complement"
)

// unseen is the encoding bucket of synthetic categories absent from the real data.
const unseen = -1

// ColumnScore is the marginal similarity of one column, in [0, 1].
type ColumnScore struct {
	Name   string
	Type   dataset.SemanticType
	Metric string
	Score  float64
}

// QualityReport summarises statistical fidelity; every score is in [0, 1] and
// 1 means indistinguishable.
type QualityReport struct {
	Columns               []ColumnScore
	StatisticalSimilarity float64
	CorrelationSimilarity float64
	Overall               float64
}

// Quality compares the marginals and rank correlations of synth with real.
//
// Errors:
//   - ErrSchemaMismatch when synth lacks a column of real.
//   - profile errors when real cannot be profiled.
func Quality(ctx context.Context, real, synth *dataset.Dataset, opts Options) (QualityReport, error) {
	s, err := align(ctx, real, synth, opts)
	if err != nil {
		return QualityReport{}, err
	}

	var rep QualityReport
	for j, p := range s.profiles {
		realCol, _ := real.Column(p.Name)
		cs := ColumnScore{Name: p.Name, Type: p.Type}
		if numeric(p.Type) {
			cs.Metric = MetricKS
			cs.Score = 1 - ksStatistic(
				encodeSorted(realCol.Values, s.encoders[j]),
				encodeSorted(s.synth[j].Values, s.encoders[j]))
		} else {
			cs.Metric = MetricTVD
			cs.Score = 1 - tvDistance(
				frequencies(realCol.Values, s.encoders[j]),
				frequencies(s.synth[j].Values, s.encoders[j]))
		}
		rep.Columns = append(rep.Columns, cs)
		rep.StatisticalSimilarity += cs.Score
	}
	rep.StatisticalSimilarity /= float64(len(rep.Columns))

	rep.CorrelationSimilarity, err = correlationSimilarity(s, real, synth, opts)
	if err != nil {
		return QualityReport{}, err
	}
	rep.Overall = (rep.StatisticalSimilarity + rep.CorrelationSimilarity) / 2

	return rep, nil
}

func encodeSorted(values []any, enc func(any) (float64, bool)) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if x, ok := enc(v); ok {
			out = append(out, x)
		}
	}
	slices.Sort(out)

	return out
}

// ksStatistic is the two-sample KS distance of sorted samples; an empty
// side counts as maximally distant unless both are empty.
func ksStatistic(a, b []float64) float64 {
	switch {
	case len(a) == 0 && len(b) == 0:
		return 0
	case len(a) == 0 || len(b) == 0:
		return 1
	}

	return stat.KolmogorovSmirnov(a, nil, b, nil)
}

// frequencies returns the relative frequency of each encoded category among
// non-missing cells.
func frequencies(values []any, enc func(any) (float64, bool)) map[int]float64 {
	out := make(map[int]float64)
	var n float64
	for _, v := range values {
		if dataset.IsMissing(v) {
			continue
		}
		k := unseen
		if x, ok := enc(v); ok {
			k = int(x)
		}
		out[k]++
		n++
	}
	for k := range out {
		out[k] /= n
	}

	return out
}

func tvDistance(p, q map[int]float64) float64 {
	if len(p) == 0 && len(q) == 0 {
		return 0
	}
	var sum float64
	for k, v := range p {
		sum += math.Abs(v - q[k])
	}
	for k, v := range q {
		if _, ok := p[k]; !ok {
			sum += v
		}
	}

	return math.Min(1, sum/2)
}

// correlationSimilarity is 1 − mean |ρ_real − ρ_synth| / 2 over column pairs.
func correlationSimilarity(s *schema, real, synth *dataset.Dataset, opts Options) (float64, error) {
	d := len(s.profiles)
	if d < 2 || real.NumRows() < 2 || synth.NumRows() < 2 {
		return 1, nil
	}
	depOpts := dependency.Options{MinRows: dependency.DefaultMinRows, Profile: opts.Profile}
	rd, err := dependency.Estimate(s.profiles, real, depOpts)
	if err != nil {
		return 0, fmt.Errorf("evaluate: real dependency: %w", err)
	}
	sd, err := dependency.Estimate(s.profiles, synth, depOpts)
	if err != nil {
		return 0, fmt.Errorf("evaluate: synthetic dependency: %w", err)
	}

	var sum float64
	pairs := 0
	for i := 0; i < d; i++ {
		for j := i + 1; j < d; j++ {
			a, _ := rd.Coefficients.At(i, j)
			b, _ := sd.Coefficients.At(i, j)
			sum += math.Abs(a - b)
			pairs++
		}
	}

	return 1 - sum/float64(pairs)/2, nil
}
