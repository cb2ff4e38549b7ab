package rnamaps

import (
	"fmt"
	"sort"

	"github.com/grailbio/xlink/features"
	"github.com/grailbio/xlink/interval"
	"gopkg.in/fatih/set.v0"
)

// MapType describes a landmark: the boundary between an upstream segment of
// one of the Upstream types, longer than UpLimit, and a downstream segment
// of one of the Downstream types, longer than DownLimit.
type MapType struct {
	Name       string
	Upstream   []string
	UpLimit    int
	Downstream []string
	DownLimit  int
}

// MapTypes are the known landmark kinds, by name.
var MapTypes = map[string]MapType{
	"exon-intron":          {"exon-intron", []string{"CDS", "UTR5"}, 50, []string{"intron"}, 150},
	"intron-exon":          {"intron-exon", []string{"intron"}, 150, []string{"CDS", "UTR3"}, 50},
	"gene-start":           {"gene-start", []string{"intergenic"}, 200, []string{"UTR5", "CDS"}, 50},
	"gene-end":             {"gene-end", []string{"CDS", "UTR3"}, 200, []string{"intergenic"}, 200},
	"translation-start":    {"translation-start", []string{"UTR5"}, 50, []string{"CDS"}, 50},
	"translation-end":      {"translation-end", []string{"CDS"}, 50, []string{"UTR3"}, 200},
	"noncoding-gene-start": {"noncoding-gene-start", []string{"intergenic"}, 200, []string{"ncRNA"}, 100},
	"noncoding-gene-end":   {"noncoding-gene-end", []string{"ncRNA"}, 100, []string{"intergenic"}, 200},
}

// MapTypeNames returns the sorted names of MapTypes.
func MapTypeNames() []string {
	names := make([]string, 0, len(MapTypes))
	for name := range MapTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func typeSet(types []string) set.Interface {
	s := set.New(set.NonThreadSafe)
	for _, t := range types {
		s.Add(t)
	}
	return s
}

// Landmarks returns the sorted single-nucleotide landmarks of mt found in
// segments. Two segments form a landmark when they are consecutive on the
// same chromosome and strand, in start order. The landmark is the first
// nucleotide of the downstream segment, in transcription direction.
func Landmarks(segments []features.Feature, mt MapType) []interval.Interval {
	up, down := typeSet(mt.Upstream), typeSet(mt.Downstream)
	var landmarks []interval.Interval
	for _, strand := range []interval.Strand{interval.Forward, interval.Reverse} {
		var segs []*features.Feature
		for i := range segments {
			if segments[i].Strand == strand {
				segs = append(segs, &segments[i])
			}
		}
		sort.SliceStable(segs, func(i, j int) bool {
			if segs[i].Chrom != segs[j].Chrom {
				return segs[i].Chrom < segs[j].Chrom
			}
			return segs[i].Start < segs[j].Start
		})
		for i := 1; i < len(segs); i++ {
			seg1, seg2 := segs[i-1], segs[i]
			if seg1.Chrom != seg2.Chrom {
				continue
			}
			len1, len2 := int(seg1.Len()), int(seg2.Len())
			switch strand {
			case interval.Forward:
				if up.Has(seg1.Type) && down.Has(seg2.Type) && len1 > mt.UpLimit && len2 > mt.DownLimit {
					landmarks = append(landmarks, interval.NewSite(seg1.Chrom, seg1.End, strand, 0))
				}
			case interval.Reverse:
				if down.Has(seg1.Type) && up.Has(seg2.Type) && len1 > mt.DownLimit && len2 > mt.UpLimit {
					landmarks = append(landmarks, interval.NewSite(seg1.Chrom, seg1.End-1, strand, 0))
				}
			}
		}
	}
	interval.Sort(landmarks)
	return landmarks
}

func parseMapTypes(names []string) ([]MapType, error) {
	if len(names) == 0 {
		names = MapTypeNames()
	}
	mts := make([]MapType, 0, len(names))
	for _, name := range names {
		mt, ok := MapTypes[name]
		if !ok {
			return nil, fmt.Errorf("unknown map type %q, must be one of %v", name, MapTypeNames())
		}
		mts = append(mts, mt)
	}
	return mts, nil
}
