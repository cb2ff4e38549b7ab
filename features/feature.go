// Package features loads annotation features (genes, segments) and indexes
// them for stranded position lookups.
package features

import (
	"context"
	"sort"
	"strings"

	"github.com/grailbio/xlink/interval"
)

// Feature is a stranded annotation interval, 0-based and half-open.
type Feature struct {
	Chrom  string
	Start  interval.PosType
	End    interval.PosType
	Strand interval.Strand
	// Type is the GTF feature type (third column), e.g. "gene" or "CDS".
	Type string
	// ID groups features; it is the value of the grouping attribute.
	ID string
	// Name is the human readable name, or ID when there is none.
	Name string
}

// Len returns End - Start.
func (f *Feature) Len() interval.PosType {
	return f.End - f.Start
}

// Opts controls which features are loaded.
type Opts struct {
	// Types restricts GTF features to these feature types. Empty means all.
	Types []string
	// GroupBy is the GTF attribute used as the feature ID.
	GroupBy string
}

// DefaultOpts sets the default values of Opts.
var DefaultOpts = Opts{
	Types:   []string{"gene"},
	GroupBy: "gene_id",
}

// Less orders features by (Chrom, Start, End, Strand, ID, Name, Type).
func Less(a, b *Feature) bool {
	if a.Chrom != b.Chrom {
		return a.Chrom < b.Chrom
	}
	if a.Start != b.Start {
		return a.Start < b.Start
	}
	if a.End != b.End {
		return a.End < b.End
	}
	if a.Strand != b.Strand {
		return a.Strand < b.Strand
	}
	if a.ID != b.ID {
		return a.ID < b.ID
	}
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.Type < b.Type
}

// Sort sorts feats in place by Less.
func Sort(feats []Feature) {
	sort.SliceStable(feats, func(i, j int) bool { return Less(&feats[i], &feats[j]) })
}

func isGTF(path string) bool {
	for _, ext := range []string{".gtf", ".gff", ".gff2", ".gtf.gz", ".gff.gz", ".gff2.gz", ".gtf.lz4", ".gff.lz4"} {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// Read loads features from a GTF file (".gtf", ".gff", optionally compressed)
// or otherwise from a BED6 file, where the name column becomes both ID and
// Name and the type is empty. The result is sorted.
func Read(ctx context.Context, path string, opts Opts) ([]Feature, error) {
	var (
		feats []Feature
		err   error
	)
	if isGTF(path) {
		feats, err = ReadGTF(ctx, path, opts)
	} else {
		feats, err = ReadBED(ctx, path)
	}
	if err != nil {
		return nil, err
	}
	Sort(feats)
	return feats, nil
}

// ReadBED loads BED6 intervals as features.
func ReadBED(ctx context.Context, path string) ([]Feature, error) {
	ivs, err := interval.ReadBED(ctx, path)
	if err != nil {
		return nil, err
	}
	feats := make([]Feature, len(ivs))
	for i, iv := range ivs {
		feats[i] = Feature{Chrom: iv.Chrom, Start: iv.Start, End: iv.End, Strand: iv.Strand, ID: iv.Name, Name: iv.Name}
	}
	return feats, nil
}
