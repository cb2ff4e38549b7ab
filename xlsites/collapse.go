package xlsites

import (
	"sort"

	"github.com/grailbio/base/traverse"
	"github.com/grailbio/xlink/interval"
	"github.com/grailbio/xlink/umi"
)

// siteKey identifies a site within one chromosome.
type siteKey struct {
	pos    interval.PosType
	strand interval.Strand
}

// chooseRepresentative returns the index (into reads) of the read that
// stands for a barcode cluster. members indexes reads.
func chooseRepresentative(reads []AlignedRead, members []int) int {
	freq := make(map[string]int, len(members))
	for _, m := range members {
		freq[reads[m].Barcode]++
	}
	best := members[0]
	for _, m := range members[1:] {
		a, b := &reads[m], &reads[best]
		switch {
		case freq[a.Barcode] != freq[b.Barcode]:
			if freq[a.Barcode] > freq[b.Barcode] {
				best = m
			}
		case a.Len != b.Len:
			if a.Len > b.Len {
				best = m
			}
		case a.Barcode != b.Barcode:
			if a.Barcode < b.Barcode {
				best = m
			}
		case a.Name < b.Name:
			best = m
		}
	}
	return best
}

// Collapse turns the reads of one stream into sites. Reads are grouped by
// (chromosome, strand, 5' end); each barcode cluster in a group contributes
// one unit (QuantCDNA) or its size (QuantReads) at the position derived from
// its representative read. The result is sorted and has one site per
// (chromosome, position, strand). Reads whose crosslink position would be
// negative must be removed by the caller. Chromosomes are collapsed
// concurrently, opts.Parallelism at a time.
func Collapse(reads []AlignedRead, opts Opts) []interval.Interval {
	byChrom := map[string][]AlignedRead{}
	for _, r := range reads {
		byChrom[r.Chrom] = append(byChrom[r.Chrom], r)
	}
	chroms := make([]string, 0, len(byChrom))
	for c := range byChrom {
		chroms = append(chroms, c)
	}
	sort.Strings(chroms)
	nChrom := len(chroms)
	if nChrom == 0 {
		return nil
	}
	parallelism := opts.Parallelism
	if parallelism < 1 {
		parallelism = 1
	}
	if parallelism > nChrom {
		parallelism = nChrom
	}
	results := make([][]interval.Interval, nChrom)
	// collapseChrom cannot fail, so neither can the traversal.
	_ = traverse.Each(parallelism, func(jobIdx int) error {
		startIdx := (jobIdx * nChrom) / parallelism
		endIdx := ((jobIdx + 1) * nChrom) / parallelism
		for i := startIdx; i < endIdx; i++ {
			results[i] = collapseChrom(chroms[i], byChrom[chroms[i]], opts)
		}
		return nil
	})
	var sites []interval.Interval
	for _, r := range results {
		sites = append(sites, r...)
	}
	return sites
}

// collapseChrom collapses reads that all lie on chrom. reads is reordered.
func collapseChrom(chrom string, reads []AlignedRead, opts Opts) []interval.Interval {
	sort.SliceStable(reads, func(i, j int) bool {
		a, b := &reads[i], &reads[j]
		if fa, fb := a.FivePrime(), b.FivePrime(); fa != fb {
			return fa < fb
		}
		return a.Strand < b.Strand
	})

	counts := map[siteKey]int64{}
	var barcodes []string
	for start := 0; start < len(reads); {
		end := start + 1
		for end < len(reads) && reads[end].FivePrime() == reads[start].FivePrime() &&
			reads[end].Strand == reads[start].Strand {
			end++
		}
		group := reads[start:end]
		barcodes = barcodes[:0]
		for i := range group {
			barcodes = append(barcodes, group[i].Barcode)
		}
		for _, members := range umi.Cluster(barcodes, opts.Mismatches) {
			rep := &group[chooseRepresentative(group, members)]
			key := siteKey{pos: rep.CrosslinkPos(opts.Group), strand: rep.Strand}
			if opts.Quant == QuantReads {
				counts[key] += int64(len(members))
			} else {
				counts[key]++
			}
		}
		start = end
	}

	sites := make([]interval.Interval, 0, len(counts))
	for k, n := range counts {
		sites = append(sites, interval.NewSite(chrom, k.pos, k.strand, n))
	}
	interval.Sort(sites)
	return sites
}
