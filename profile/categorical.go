// SPDX-License-Identifier: MIT

package profile

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"time"

	"github.com/katalvlaran/tabularforge/dataset"
)

// Kind records the Go type a category label is restored to.
type Kind string

// Category kinds.
const (
	KindString Kind = "string"
	KindNumber Kind = "number"
	KindBool   Kind = "bool"
	KindTime   Kind = "time"
)

// probTol bounds the drift allowed when probabilities are summed.
const probTol = 1e-6

// Category is one observed value and its relative frequency.
type Category struct {
	Label       string  `json:"label" yaml:"label"`
	Kind        Kind    `json:"kind" yaml:"kind"`
	Probability float64 `json:"probability" yaml:"probability"`
}

// Value restores the category to its original Go type
// (string, float64, bool or time.Time).
func (c Category) Value() any {
	switch c.Kind {
	case KindNumber:
		if f, err := strconv.ParseFloat(c.Label, 64); err == nil {
			return f
		}
	case KindBool:
		if b, err := strconv.ParseBool(c.Label); err == nil {
			return b
		}
	case KindTime:
		if t, err := time.Parse(time.RFC3339Nano, c.Label); err == nil {
			return t.UTC()
		}
	}

	return c.Label
}

func (c Category) key() string {
	return string(c.Kind) + "\x00" + c.Label
}

// categoryOf labels a non-missing cell.
func categoryOf(v any) Category {
	switch x := v.(type) {
	case string:
		return Category{Label: x, Kind: KindString}
	case bool:
		return Category{Label: strconv.FormatBool(x), Kind: KindBool}
	case time.Time:
		return Category{Label: x.UTC().Format(time.RFC3339Nano), Kind: KindTime}
	}
	if f, ok := dataset.Number(v); ok {
		return Category{Label: strconv.FormatFloat(f, 'g', -1, 64), Kind: KindNumber}
	}

	return Category{Label: fmt.Sprint(v), Kind: KindString}
}

// Categorical is a frequency table over observed categories, ordered by
// descending probability then ascending label. Unseen values are never
// generated.
type Categorical struct {
	Categories []Category `json:"categories" yaml:"categories"`
}

// Index maps u ∈ [0,1] to a category by inverse CDF over the table order.
func (c *Categorical) Index(u float64) int {
	n := len(c.Categories)
	if n == 0 {
		return -1
	}
	var cum float64
	for i, cat := range c.Categories {
		cum += cat.Probability
		if u < cum {
			return i
		}
	}

	return n - 1
}

// Value returns the restored value of category i, or nil when i is out of range.
func (c *Categorical) Value(i int) any {
	if i < 0 || i >= len(c.Categories) {
		return nil
	}

	return c.Categories[i].Value()
}

func fitCategorical(present []any) (*Categorical, error) {
	counts := make(map[string]int, 16)
	cats := make([]Category, 0, 16)
	for _, v := range present {
		c := categoryOf(v)
		k := c.key()
		if _, seen := counts[k]; !seen {
			cats = append(cats, c)
		}
		counts[k]++
	}

	total := float64(len(present))
	for i := range cats {
		cats[i].Probability = float64(counts[cats[i].key()]) / total
	}
	slices.SortFunc(cats, func(a, b Category) int {
		ca, cb := counts[a.key()], counts[b.key()]
		if ca != cb {
			return cb - ca
		}
		if a.Label != b.Label {
			return cmp.Compare(a.Label, b.Label)
		}
		return cmp.Compare(a.Kind, b.Kind)
	})

	return &Categorical{Categories: cats}, nil
}

func (c *Categorical) validate(empty, boolean bool) error {
	if empty {
		if len(c.Categories) != 0 {
			return errors.New("categories on an all-missing column")
		}
		return nil
	}
	if len(c.Categories) == 0 {
		return errors.New("no categories")
	}
	if boolean && len(c.Categories) > 2 {
		return fmt.Errorf("boolean with %d categories", len(c.Categories))
	}
	var sum float64
	seen := make(map[string]struct{}, len(c.Categories))
	for _, cat := range c.Categories {
		if cat.Probability < 0 || cat.Probability > 1 {
			return fmt.Errorf("category %q: probability %g", cat.Label, cat.Probability)
		}
		if _, dup := seen[cat.key()]; dup {
			return fmt.Errorf("duplicate category %q", cat.Label)
		}
		seen[cat.key()] = struct{}{}
		sum += cat.Probability
	}
	if math.Abs(sum-1) > probTol {
		return fmt.Errorf("probabilities sum to %g", sum)
	}

	return nil
}
