// SPDX-License-Identifier: MIT

package dependency

import "sort"

// rankColumn encodes values and returns their 1-based average ranks. Ties share
// the mean of the ranks they span; cells the encoder rejects get the mean rank
// of the encoded ones.
func rankColumn(values []any, encode func(any) (float64, bool)) []float64 {
	n := len(values)
	keys := make([]float64, 0, n)
	idx := make([]int, 0, n)
	for i, v := range values {
		if x, ok := encode(v); ok {
			keys = append(keys, x)
			idx = append(idx, i)
		}
	}

	out := make([]float64, n)
	m := len(keys)
	mean := float64(m+1) / 2
	for i := range out {
		out[i] = mean
	}

	order := make([]int, m)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return keys[order[a]] < keys[order[b]] })

	for lo := 0; lo < m; {
		hi := lo + 1
		for hi < m && keys[order[hi]] == keys[order[lo]] {
			hi++
		}
		// positions lo..hi-1 hold ranks lo+1..hi
		avg := float64(lo+1+hi) / 2
		for k := lo; k < hi; k++ {
			out[idx[order[k]]] = avg
		}
		lo = hi
	}

	return out
}
