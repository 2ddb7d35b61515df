// SPDX-License-Identifier: MIT

package profile

import (
	"strconv"
	"strings"
	"time"

	"github.com/katalvlaran/tabularforge/dataset"
)

// infer classifies the non-missing values of a column. Rules, first match wins:
//
//  1. every value is a bool                                          → boolean
//  2. every value is a time.Time or a string in a known layout       → datetime
//  3. exactly two distinct values                                     → boolean
//  4. every value is numeric: distinct ratio above threshold          → continuous
//     otherwise                                                         categorical
//  5. anything else                                                  → categorical
//
// An empty input is categorical.
func infer(present []any, opts Options) dataset.SemanticType {
	if len(present) == 0 {
		return dataset.Categorical
	}

	allBool, allTime, allNum := true, true, true
	distinct := make(map[string]struct{}, 16)
	for _, v := range present {
		if _, ok := v.(bool); !ok {
			allBool = false
		}
		if allTime {
			if _, ok := asTime(v, opts.DatetimeLayouts); !ok {
				allTime = false
			}
		}
		if allNum {
			if _, ok := asNumber(v); !ok {
				allNum = false
			}
		}
		distinct[categoryOf(v).key()] = struct{}{}
	}

	switch {
	case allBool:
		return dataset.Boolean
	case allTime:
		return dataset.Datetime
	case len(distinct) == 2:
		return dataset.Boolean
	case allNum:
		if float64(len(distinct))/float64(len(present)) > opts.ContinuousRatio {
			return dataset.Continuous
		}
		return dataset.Categorical
	}

	return dataset.Categorical
}

// asNumber converts numeric cells and numeric strings to float64.
// Booleans are not numbers.
func asNumber(v any) (float64, bool) {
	if f, ok := dataset.Number(v); ok {
		return f, true
	}
	s, ok := v.(string)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}

	return f, true
}

// asTime converts time.Time cells and strings matching one of layouts.
func asTime(v any, layouts []string) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, true
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return time.Time{}, false
		}
		for _, l := range layouts {
			if t, err := time.Parse(l, s); err == nil {
				return t, true
			}
		}
	}

	return time.Time{}, false
}
