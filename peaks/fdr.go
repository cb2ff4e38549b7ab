// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package peaks

import "sort"

// adjustBH returns Benjamini-Hochberg q-values for p:
//
//   q_(i) = min_{j >= i} p_(j) * m / j
//
// capped at 1, where p_(j) is the j-th smallest p-value. Ties in p are ranked
// by index, so the result depends only on p.
func adjustBH(p []float64) []float64 {
	m := len(p)
	order := make([]int, m)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return p[order[a]] < p[order[b]] })
	q := make([]float64, m)
	running := 1.0
	for rank := m; rank >= 1; rank-- {
		i := order[rank-1]
		v := p[i] * float64(m) / float64(rank)
		if v < running {
			running = v
		}
		q[i] = running
	}
	return q
}
