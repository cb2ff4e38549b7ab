package interval

// Group sums the scores of intervals sharing (Chrom, Start, End, Strand)
// across all collections and returns the result sorted. Names are kept only
// when every contributor agrees on them.
//
// Group is also how uniquely- and multi-mapped site collections are
// reconciled: callers that want a combined count pass both collections.
func Group(collections ...[]Interval) []Interval {
	n := 0
	for _, c := range collections {
		n += len(c)
	}
	all := make([]Interval, 0, n)
	for _, c := range collections {
		all = append(all, c...)
	}
	Sort(all)
	out := all[:0]
	for _, iv := range all {
		if k := len(out) - 1; k >= 0 && Compare(out[k], iv) == 0 {
			out[k].Score += iv.Score
			if out[k].Name != iv.Name {
				out[k].Name = ""
			}
			continue
		}
		out = append(out, iv)
	}
	return out
}
