// SPDX-License-Identifier: MIT

// Package dependency estimates pairwise rank dependency between profiled
// columns. The statistic is Spearman's ρ: each column is encoded onto a numeric
// scale, converted to average ranks, and the Pearson correlation of the ranks
// is taken with matrix.Correlation.
//
// Encoding per semantic type:
//
//	continuous           the number itself
//	datetime             seconds since the profile epoch
//	categorical/boolean  position in the profile's frequency order
//
// Missing cells receive the mean rank so they add no association.
package dependency

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/katalvlaran/tabularforge/dataset"
	"github.com/katalvlaran/tabularforge/matrix"
	"github.com/katalvlaran/tabularforge/profile"
)

// Sentinel errors.
var (
	// ErrInsufficientData is returned when the dataset has fewer rows than MinRows.
	ErrInsufficientData = errors.New("dependency: insufficient data")

	// ErrSchemaMismatch is returned when profiles and data (or a structure and
	// its column list) disagree.
	ErrSchemaMismatch = errors.New("dependency: schema mismatch")

	// ErrUnknownColumn is returned by At for a name outside the structure.
	ErrUnknownColumn = errors.New("dependency: unknown column")
)

// DefaultMinRows is the smallest row count a correlation can be estimated from.
const DefaultMinRows = 2

// validateTol is the tolerance for symmetry and unit diagonal checks.
const validateTol = 1e-9

// Options tunes Estimate.
type Options struct {
	MinRows int
	Profile profile.Options // datetime layouts used when encoding string cells
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{MinRows: DefaultMinRows, Profile: profile.DefaultOptions()}
}

// Structure is a Spearman rank-correlation matrix over named columns.
// Coefficients is symmetric with a unit diagonal and entries in [-1, 1];
// row/column i belongs to Columns[i].
type Structure struct {
	Columns      []string
	Coefficients *matrix.Dense
}

// Estimate computes the rank correlation of the profiled columns of ds.
//
// Errors:
//   - ErrInsufficientData when ds has fewer than MinRows rows.
//   - ErrSchemaMismatch when a profiled column is absent from ds, or there are
//     no profiles.
func Estimate(profiles []profile.Profile, ds *dataset.Dataset, opts Options) (Structure, error) {
	if opts.MinRows < DefaultMinRows {
		opts.MinRows = DefaultMinRows
	}
	r, d := ds.NumRows(), len(profiles)
	if r < opts.MinRows {
		return Structure{}, fmt.Errorf("%w: %d rows, need %d", ErrInsufficientData, r, opts.MinRows)
	}
	if d == 0 {
		return Structure{}, fmt.Errorf("%w: no columns", ErrSchemaMismatch)
	}

	names := make([]string, d)
	data := make([]float64, r*d)
	for j, p := range profiles {
		col, err := ds.Column(p.Name)
		if err != nil {
			return Structure{}, fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
		}
		names[j] = p.Name
		ranks := rankColumn(col.Values, p.Encoder(opts.Profile))
		for i, v := range ranks {
			data[i*d+j] = v
		}
	}

	x, err := matrix.NewDenseFrom(r, d, data)
	if err != nil {
		return Structure{}, fmt.Errorf("dependency: rank matrix: %w", err)
	}
	corr, _, _, err := matrix.Correlation(x)
	if err != nil {
		return Structure{}, fmt.Errorf("dependency: correlation: %w", err)
	}

	coef := make([]float64, d*d)
	for i := 0; i < d; i++ {
		for j := 0; j < d; j++ {
			if i == j {
				coef[i*d+j] = 1
				continue
			}
			v, _ := corr.At(i, j)
			if math.IsNaN(v) {
				v = 0
			}
			coef[i*d+j] = math.Max(-1, math.Min(1, v))
		}
	}
	// Mirror the upper triangle so rounding in Mul cannot leave asymmetry.
	for i := 0; i < d; i++ {
		for j := i + 1; j < d; j++ {
			coef[j*d+i] = coef[i*d+j]
		}
	}
	m, err := matrix.NewDenseFrom(d, d, coef)
	if err != nil {
		return Structure{}, fmt.Errorf("dependency: coefficients: %w", err)
	}

	return Structure{Columns: names, Coefficients: m}, nil
}

// Independent returns the identity structure over columns.
func Independent(columns []string) (Structure, error) {
	if len(columns) == 0 {
		return Structure{}, fmt.Errorf("%w: no columns", ErrSchemaMismatch)
	}
	id, err := matrix.NewIdentity(len(columns))
	if err != nil {
		return Structure{}, err
	}

	return Structure{Columns: slices.Clone(columns), Coefficients: id}, nil
}

// Index returns the position of column name, or -1.
func (s Structure) Index(name string) int {
	return slices.Index(s.Columns, name)
}

// At returns the coefficient between columns a and b.
func (s Structure) At(a, b string) (float64, error) {
	i, j := s.Index(a), s.Index(b)
	if i < 0 {
		return 0, fmt.Errorf("%w: %q", ErrUnknownColumn, a)
	}
	if j < 0 {
		return 0, fmt.Errorf("%w: %q", ErrUnknownColumn, b)
	}

	return s.Coefficients.At(i, j)
}

// Validate checks that names are unique, the matrix matches them in size and
// is a correlation matrix.
func (s Structure) Validate() error {
	if s.Coefficients == nil {
		return fmt.Errorf("%w: nil coefficients", ErrSchemaMismatch)
	}
	n := len(s.Columns)
	if s.Coefficients.Rows() != n || s.Coefficients.Cols() != n {
		return fmt.Errorf("%w: %d columns, %dx%d coefficients",
			ErrSchemaMismatch, n, s.Coefficients.Rows(), s.Coefficients.Cols())
	}
	seen := make(map[string]struct{}, n)
	for _, c := range s.Columns {
		if _, dup := seen[c]; dup {
			return fmt.Errorf("%w: duplicate column %q", ErrSchemaMismatch, c)
		}
		seen[c] = struct{}{}
	}

	return matrix.ValidateCorrelation(s.Coefficients, validateTol)
}

// Clone returns a deep copy.
func (s Structure) Clone() Structure {
	out := Structure{Columns: slices.Clone(s.Columns)}
	if s.Coefficients != nil {
		out.Coefficients = s.Coefficients.Clone().(*matrix.Dense)
	}

	return out
}
