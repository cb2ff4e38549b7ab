// Package clusters merges nearby crosslink sites into clusters.
package clusters

import (
	"context"
	"fmt"

	"github.com/grailbio/base/log"
	"github.com/grailbio/xlink/interval"
)

// Merge merges intervals on the same chromosome and strand whose gap is at
// most dist into clusters whose score is the sum of their members'. A gap is
// next.Start - current.End, so dist 0 merges book-ended sites only; two
// clusters of the result are always more than dist apart, which makes Merge
// idempotent. ivs is not modified.
func Merge(ivs []interval.Interval, dist interval.PosType) ([]interval.Interval, error) {
	if dist < 0 {
		return nil, fmt.Errorf("clusters.Merge: merge distance must be non-negative, got %d", dist)
	}
	sorted := make([]interval.Interval, len(ivs))
	copy(sorted, ivs)
	interval.Sort(sorted)

	// Within a chromosome the order is by start, but strands interleave, so
	// keep one running cluster per strand.
	var (
		out     []interval.Interval
		running = map[interval.Strand]int{}
		chrom   string
	)
	for _, iv := range sorted {
		if iv.Chrom != chrom {
			chrom = iv.Chrom
			running = map[interval.Strand]int{}
		}
		if idx, ok := running[iv.Strand]; ok {
			if merged, ok := interval.Merge(out[idx], iv, dist); ok {
				out[idx] = merged
				continue
			}
		}
		running[iv.Strand] = len(out)
		out = append(out, iv)
	}
	interval.Sort(out)
	return out, nil
}

// Run reads sites from inPath, merges them with Merge and writes the clusters
// to outPath.
func Run(ctx context.Context, inPath, outPath string, dist interval.PosType) error {
	if dist < 0 {
		return fmt.Errorf("clusters.Run: merge distance must be non-negative, got %d", dist)
	}
	sites, err := interval.ReadBED(ctx, inPath)
	if err != nil {
		return err
	}
	merged, err := Merge(sites, dist)
	if err != nil {
		return err
	}
	log.Printf("clusters: merged %d sites into %d clusters", len(sites), len(merged))
	return interval.WriteBED(ctx, outPath, merged)
}
