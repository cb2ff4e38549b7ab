// Package annotate labels crosslink sites with the annotation features they
// fall in.
package annotate

import (
	"context"
	"sort"
	"strings"

	"github.com/grailbio/base/log"
	"github.com/grailbio/xlink/features"
	"github.com/grailbio/xlink/interval"
)

// label is "name:type", or just the name for untyped (BED) features.
func label(f *features.Feature) string {
	if f.Type == "" {
		return f.Name
	}
	return f.Name + ":" + f.Type
}

// Annotate returns a copy of sites where each Name lists the distinct labels
// of the same-strand features containing the site's start, sorted and
// comma-separated. Sites in no feature get an empty Name.
func Annotate(sites []interval.Interval, feats []features.Feature) ([]interval.Interval, error) {
	index, err := features.NewIndex(feats)
	if err != nil {
		return nil, err
	}
	out := make([]interval.Interval, len(sites))
	nAnnotated := 0
	var labels []string
	for i, s := range sites {
		labels = labels[:0]
		for _, fi := range index.Containing(s.Chrom, s.Strand, s.Start) {
			labels = append(labels, label(&feats[fi]))
		}
		sort.Strings(labels)
		uniq := labels[:0]
		for _, l := range labels {
			if len(uniq) == 0 || uniq[len(uniq)-1] != l {
				uniq = append(uniq, l)
			}
		}
		s.Name = strings.Join(uniq, ",")
		if s.Name != "" {
			nAnnotated++
		}
		out[i] = s
	}
	log.Printf("annotate: %d of %d site(s) fall in an annotated feature", nAnnotated, len(sites))
	return out, nil
}

// Run annotates the sites of sitesPath with the features of annotationPath
// and writes them to outPath.
func Run(ctx context.Context, annotationPath, sitesPath, outPath string, opts features.Opts) error {
	feats, err := features.Read(ctx, annotationPath, opts)
	if err != nil {
		return err
	}
	sites, err := interval.ReadBED(ctx, sitesPath)
	if err != nil {
		return err
	}
	annotated, err := Annotate(sites, feats)
	if err != nil {
		return err
	}
	return interval.WriteBED(ctx, outPath, annotated)
}
