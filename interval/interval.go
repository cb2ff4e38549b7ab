package interval

import (
	"fmt"
	"math"
	"sort"
)

// PosType is the type used to represent genomic positions.
type PosType int32

const posTypeMax = math.MaxInt32

// Strand is the genomic strand of an interval, stored as its BED character.
type Strand byte

const (
	// Forward is the '+' strand.
	Forward Strand = '+'
	// Reverse is the '-' strand.
	Reverse Strand = '-'
)

// ParseStrand parses "+" or "-".
func ParseStrand(s string) (Strand, error) {
	switch s {
	case "+":
		return Forward, nil
	case "-":
		return Reverse, nil
	}
	return 0, fmt.Errorf("interval.ParseStrand: invalid strand %q", s)
}

func (s Strand) String() string {
	return string(s)
}

// Interval is a stranded genomic interval [Start, End) with an integer score.
// For crosslink sites and clusters the score is the cDNA or read count.
type Interval struct {
	Chrom      string
	Start, End PosType
	Strand     Strand
	Score      int64
	// Name is the optional annotation; empty means none.
	Name string
}

// NewSite returns the single-nucleotide interval at pos.
func NewSite(chrom string, pos PosType, strand Strand, count int64) Interval {
	return Interval{Chrom: chrom, Start: pos, End: pos + 1, Strand: strand, Score: count}
}

// Len returns End - Start.
func (iv Interval) Len() PosType {
	return iv.End - iv.Start
}

// Contains reports whether the position lies inside the interval on the same
// chromosome and strand.
func (iv Interval) Contains(chrom string, strand Strand, pos PosType) bool {
	return iv.Chrom == chrom && iv.Strand == strand && pos >= iv.Start && pos < iv.End
}

func (iv Interval) String() string {
	return fmt.Sprintf("%s:%d-%d(%c)=%d", iv.Chrom, iv.Start, iv.End, iv.Strand, iv.Score)
}

// Compare orders intervals by (Chrom, Start, End, Strand), returning -1, 0
// or 1.
func Compare(a, b Interval) int {
	switch {
	case a.Chrom < b.Chrom:
		return -1
	case a.Chrom > b.Chrom:
		return 1
	case a.Start < b.Start:
		return -1
	case a.Start > b.Start:
		return 1
	case a.End < b.End:
		return -1
	case a.End > b.End:
		return 1
	case a.Strand < b.Strand:
		return -1
	case a.Strand > b.Strand:
		return 1
	}
	return 0
}

// Less is Compare(a, b) < 0.
func Less(a, b Interval) bool {
	return Compare(a, b) < 0
}

// Sort sorts ivs in place by Compare. Equal keys keep their relative order.
func Sort(ivs []Interval) {
	sort.SliceStable(ivs, func(i, j int) bool { return Less(ivs[i], ivs[j]) })
}

// IsSorted reports whether ivs is ordered by Compare.
func IsSorted(ivs []Interval) bool {
	return sort.SliceIsSorted(ivs, func(i, j int) bool { return Less(ivs[i], ivs[j]) })
}

// Gap returns the number of bases separating a and b: 0 for book-ended
// intervals, negative when they overlap. a and b must be on the same
// chromosome.
func Gap(a, b Interval) PosType {
	lo, hi := a, b
	if b.Start < a.Start {
		lo, hi = b, a
	}
	return hi.Start - lo.End
}

// Merge returns the interval spanning a and b with their scores summed. It
// is defined only when both are on the same chromosome and strand and
// Gap(a, b) <= dist; otherwise ok is false.
func Merge(a, b Interval, dist PosType) (merged Interval, ok bool) {
	if a.Chrom != b.Chrom || a.Strand != b.Strand || Gap(a, b) > dist {
		return Interval{}, false
	}
	merged = a
	if b.Start < merged.Start {
		merged.Start = b.Start
	}
	if b.End > merged.End {
		merged.End = b.End
	}
	merged.Score = a.Score + b.Score
	if a.Name != b.Name {
		merged.Name = ""
	}
	return merged, true
}
