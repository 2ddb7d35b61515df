// SPDX-License-Identifier: MIT

// Package privacy perturbs fitted column profiles with the Laplace mechanism
// so the released marginals carry ε-differential-privacy style noise on their
// summary statistics.
//
// Noise scales, for n fitted rows and budget ε:
//
//	category counts         1/ε
//	mean, std, knots        (max−min)/(n·ε)
//	missing rate            1/(n·ε)
//
// Only the marginals are noised. Min and max are kept as fitted, since they
// bound every generated value, and the rank dependency between columns is
// estimated from the raw rows. A model fitted with a privacy budget is
// therefore not ε-differentially private as a whole.
package privacy

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/katalvlaran/tabularforge/profile"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrInvalidEpsilon is returned for a non-positive or non-finite budget.
var ErrInvalidEpsilon = errors.New("privacy: epsilon must be finite and > 0")

// Mechanism draws Laplace noise from a private random stream.
// A Mechanism is not safe for concurrent use.
type Mechanism struct {
	epsilon float64
	rng     *rand.Rand
}

// New returns a mechanism with privacy budget epsilon. A nil seed draws a
// fresh one; a fixed seed makes Apply deterministic.
func New(epsilon float64, seed *uint64) (*Mechanism, error) {
	if !(epsilon > 0) || math.IsInf(epsilon, 1) {
		return nil, fmt.Errorf("%w: got %g", ErrInvalidEpsilon, epsilon)
	}
	s := rand.Uint64()
	if seed != nil {
		s = *seed
	}

	return &Mechanism{epsilon: epsilon, rng: rand.New(rand.NewPCG(s, 0x7072697661637921))}, nil
}

// Epsilon returns the privacy budget.
func (m *Mechanism) Epsilon() float64 { return m.epsilon }

// laplace draws one Laplace(0, scale) variate; a non-positive scale yields 0.
func (m *Mechanism) laplace(scale float64) float64 {
	if !(scale > 0) {
		return 0
	}
	u := m.rng.Float64()
	for u == 0 {
		u = m.rng.Float64()
	}

	return distuv.Laplace{Mu: 0, Scale: scale}.Quantile(u)
}

// Apply returns noised copies of profiles fitted on rows rows. The inputs are
// not modified. Profiles of all-missing columns are copied unchanged.
func (m *Mechanism) Apply(profiles []profile.Profile, rows int) []profile.Profile {
	out := make([]profile.Profile, len(profiles))
	for i, p := range profiles {
		q := p.Clone()
		if rows > 0 && q.MissingRate < 1 {
			m.noise(&q, rows)
		}
		out[i] = q
	}

	return out
}

func (m *Mechanism) noise(p *profile.Profile, rows int) {
	n := float64(rows)
	present := n * (1 - p.MissingRate)

	switch {
	case p.Continuous != nil:
		m.continuous(p.Continuous, present)
	case p.Datetime != nil:
		m.continuous(&p.Datetime.Offsets, present)
	case p.Categorical != nil:
		m.categorical(p.Categorical, present)
	}

	rate := p.MissingRate + m.laplace(1/(n*m.epsilon))
	p.MissingRate = math.Max(0, math.Min(math.Nextafter(1, 0), rate))
}

func (m *Mechanism) continuous(c *profile.Continuous, n float64) {
	if n < 1 {
		n = 1
	}
	scale := (c.Max - c.Min) / (n * m.epsilon)

	c.Mean = math.Max(c.Min, math.Min(c.Max, c.Mean+m.laplace(scale)))
	c.Std = math.Max(0, c.Std+m.laplace(scale))
	if c.Family != profile.Empirical {
		return
	}
	for k := range c.Quantiles {
		c.Quantiles[k] = math.Max(c.Min, math.Min(c.Max, c.Quantiles[k]+m.laplace(scale)))
	}
	slices.Sort(c.Quantiles)
}

func (m *Mechanism) categorical(c *profile.Categorical, n float64) {
	cats := c.Categories
	if len(cats) == 0 {
		return
	}
	var total float64
	for i := range cats {
		cnt := math.Max(0, cats[i].Probability*n+m.laplace(1/m.epsilon))
		cats[i].Probability = cnt
		total += cnt
	}
	for i := range cats {
		if total > 0 {
			cats[i].Probability /= total
		} else {
			cats[i].Probability = 1 / float64(len(cats))
		}
	}
	slices.SortStableFunc(cats, func(a, b profile.Category) int {
		if a.Probability != b.Probability {
			return cmp.Compare(b.Probability, a.Probability)
		}
		if a.Label != b.Label {
			return cmp.Compare(a.Label, b.Label)
		}
		return cmp.Compare(a.Kind, b.Kind)
	})
}
