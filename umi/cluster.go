package umi

import (
	"sort"

	"blainsmith.com/go/seahash"
	"github.com/grailbio/base/unsafe"
	"github.com/grailbio/xlink/util"
)

var alphabetWithNMap = map[byte]bool{
	'A': true,
	'C': true,
	'G': true,
	'T': true,
	'N': true,
}

// ValidBarcode reports whether every base of barcode is one of ACGTN.
func ValidBarcode(barcode string) bool {
	for i := 0; i < len(barcode); i++ {
		if !alphabetWithNMap[barcode[i]] {
			return false
		}
	}
	return true
}

// unionFind is a disjoint-set forest with path halving and union by size.
type unionFind struct {
	parent []int32
	size   []int32
}

func newUnionFind(n int) *unionFind {
	u := &unionFind{parent: make([]int32, n), size: make([]int32, n)}
	for i := range u.parent {
		u.parent[i] = int32(i)
		u.size[i] = 1
	}
	return u
}

func (u *unionFind) find(x int32) int32 {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int32) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if u.size[ra] < u.size[rb] {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
	u.size[ra] += u.size[rb]
}

// segmentKey identifies one pigeonhole bucket: barcodes of the same length
// whose segIdx'th segment hashes to the same value.
type segmentKey struct {
	length int
	segIdx int
	hash   uint64
}

// Cluster partitions barcodes into groups of reads that share an origin. Two
// barcodes are in the same group iff they are connected by a chain of
// barcodes, each within maxMismatch Hamming distance of the next. Barcodes of
// different lengths are never joined.
//
// The returned groups hold indices into barcodes. Members are ascending, and
// groups are ordered by their first member, so the result depends only on
// the input order.
//
// Candidate pairs are found with the pigeonhole principle: a barcode split
// into maxMismatch+1 segments shares at least one identical segment with any
// barcode within maxMismatch of it. Only barcodes sharing a segment are
// compared.
func Cluster(barcodes []string, maxMismatch int) [][]int {
	if len(barcodes) == 0 {
		return nil
	}
	// Collapse identical barcodes first.
	distinctIdx := make(map[string]int32, len(barcodes))
	var distinct []string
	readDistinct := make([]int32, len(barcodes))
	for i, b := range barcodes {
		d, ok := distinctIdx[b]
		if !ok {
			d = int32(len(distinct))
			distinctIdx[b] = d
			distinct = append(distinct, b)
		}
		readDistinct[i] = d
	}

	uf := newUnionFind(len(distinct))
	if maxMismatch > 0 && len(distinct) > 1 {
		joinSimilar(distinct, maxMismatch, uf)
	}

	groupOf := make(map[int32]int, len(distinct))
	var groups [][]int
	for i, d := range readDistinct {
		root := uf.find(d)
		g, ok := groupOf[root]
		if !ok {
			g = len(groups)
			groupOf[root] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}
	return groups
}

func joinSimilar(distinct []string, maxMismatch int, uf *unionFind) {
	// Barcodes no longer than maxMismatch are all within range of each other.
	shortRoot := map[int]int32{}
	buckets := map[segmentKey][]int32{}
	for i, b := range distinct {
		n := len(b)
		if n <= maxMismatch {
			if r, ok := shortRoot[n]; ok {
				uf.union(r, int32(i))
			} else {
				shortRoot[n] = int32(i)
			}
			continue
		}
		nSeg := maxMismatch + 1
		for s := 0; s < nSeg; s++ {
			seg := b[s*n/nSeg : (s+1)*n/nSeg]
			key := segmentKey{length: n, segIdx: s, hash: seahash.Sum64(unsafe.StringToBytes(seg))}
			buckets[key] = append(buckets[key], int32(i))
		}
	}

	// Visit buckets in a fixed order; the components do not depend on it, but
	// the union-find layout then does not vary between runs.
	keys := make([]segmentKey, 0, len(buckets))
	for k, members := range buckets {
		if len(members) > 1 {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.length != b.length {
			return a.length < b.length
		}
		if a.segIdx != b.segIdx {
			return a.segIdx < b.segIdx
		}
		return a.hash < b.hash
	})
	for _, k := range keys {
		members := buckets[k]
		for x := 0; x < len(members); x++ {
			for y := x + 1; y < len(members); y++ {
				a, b := members[x], members[y]
				if uf.find(a) == uf.find(b) {
					continue
				}
				if util.HammingWithin(distinct[a], distinct[b], maxMismatch) {
					uf.union(a, b)
				}
			}
		}
	}
}
