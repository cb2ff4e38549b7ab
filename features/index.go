package features

import (
	"fmt"
	"sort"

	"github.com/biogo/store/interval"
	xinterval "github.com/grailbio/xlink/interval"
)

// intInterval is a feature span stored in an interval tree. UID is the index
// of the feature in Index.Features.
type intInterval struct {
	Start, End int
	UID        uintptr
}

func (i intInterval) Overlap(b interval.IntRange) bool {
	// Half-open interval indexing.
	return i.End > b.Start && i.Start < b.End
}

func (i intInterval) ID() uintptr {
	return i.UID
}

func (i intInterval) Range() interval.IntRange {
	return interval.IntRange{Start: i.Start, End: i.End}
}

func (i intInterval) String() string {
	return fmt.Sprintf("[%d,%d)#%d", i.Start, i.End, i.UID)
}

type treeKey struct {
	chrom  string
	strand xinterval.Strand
}

// Index answers which features overlap a stranded position or interval.
type Index struct {
	// Features are the indexed features, in the order given to NewIndex.
	Features []Feature
	trees    map[treeKey]*interval.IntTree
}

// NewIndex builds one interval tree per (chromosome, strand). Empty features
// are not indexed.
func NewIndex(feats []Feature) (*Index, error) {
	x := &Index{Features: feats, trees: map[treeKey]*interval.IntTree{}}
	for i := range feats {
		f := &feats[i]
		if f.End <= f.Start {
			continue
		}
		k := treeKey{f.Chrom, f.Strand}
		t, ok := x.trees[k]
		if !ok {
			t = &interval.IntTree{}
			x.trees[k] = t
		}
		iv := intInterval{Start: int(f.Start), End: int(f.End), UID: uintptr(i)}
		if err := t.Insert(iv, true); err != nil {
			return nil, err
		}
	}
	for _, t := range x.trees {
		t.AdjustRanges()
	}
	return x, nil
}

// Overlapping returns the ascending indices of the features on chrom and
// strand that overlap [start, end).
func (x *Index) Overlapping(chrom string, strand xinterval.Strand, start, end xinterval.PosType) []int {
	t, ok := x.trees[treeKey{chrom, strand}]
	if !ok {
		return nil
	}
	hits := t.Get(intInterval{Start: int(start), End: int(end)})
	if len(hits) == 0 {
		return nil
	}
	ids := make([]int, len(hits))
	for i, h := range hits {
		ids[i] = int(h.ID())
	}
	sort.Ints(ids)
	return ids
}

// Containing returns the ascending indices of the features containing the
// single position pos on chrom and strand.
func (x *Index) Containing(chrom string, strand xinterval.Strand, pos xinterval.PosType) []int {
	return x.Overlapping(chrom, strand, pos, pos+1)
}
