// Package rnamaps computes the distribution of crosslink sites around RNA
// landmarks such as exon-intron boundaries.
//
// Landmarks are derived from a segmentation of the genome into typed
// regions (CDS, UTR3, UTR5, intron, ncRNA, intergenic). Every site is
// assigned to its closest landmark on the same chromosome and strand, and
// the site count is accumulated under the landmark and the signed distance
// to it. The distance is positive when the site lies downstream of the
// landmark in transcription direction.
package rnamaps

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/xlink/features"
	"github.com/grailbio/xlink/interval"
	"github.com/grailbio/xlink/util"
	"github.com/pkg/errors"
)

// Opts for RNA map computation.
type Opts struct {
	// MaxWidth is the largest absolute distance reported.
	MaxWidth int
	// MapTypes restricts the computed maps. Empty means all of MapTypes.
	MapTypes []string
}

// DefaultOpts sets the default values of Opts.
var DefaultOpts = Opts{MaxWidth: 500}

type landmarkKey struct {
	chrom  string
	strand interval.Strand
	pos    interval.PosType
}

func (k landmarkKey) String() string {
	return k.chrom + "_" + string(k.strand) + "_" + strconv.Itoa(int(k.pos))
}

// Map holds the site counts around the landmarks of one map type.
type Map struct {
	// TotalCDNA is the summed count of every site, including sites far from
	// any landmark.
	TotalCDNA int64
	scores    map[landmarkKey]map[int]int64
}

// Len returns the number of landmarks with at least one site nearby.
func (m *Map) Len() int {
	return len(m.scores)
}

// Score returns the count accumulated at distance dist of the landmark at
// chrom:pos on strand.
func (m *Map) Score(chrom string, strand interval.Strand, pos interval.PosType, dist int) int64 {
	return m.scores[landmarkKey{chrom, strand, pos}][dist]
}

// closest returns the index of the landmark in positions closest to pos.
// Ties go to the lower position. positions must be sorted and non-empty.
func closest(positions []interval.PosType, pos interval.PosType) int {
	i := sort.Search(len(positions), func(i int) bool { return positions[i] >= pos })
	switch {
	case i == len(positions):
		return i - 1
	case i == 0:
		return 0
	case pos-positions[i-1] <= positions[i]-pos:
		return i - 1
	}
	return i
}

// Distances assigns every site to its closest landmark and accumulates site
// counts by landmark and distance. Sites farther than maxWidth are counted
// only in TotalCDNA. landmarks must be sorted.
func Distances(landmarks, sites []interval.Interval, maxWidth int) *Map {
	type key struct {
		chrom  string
		strand interval.Strand
	}
	positions := map[key][]interval.PosType{}
	for _, lm := range landmarks {
		k := key{lm.Chrom, lm.Strand}
		positions[k] = append(positions[k], lm.Start)
	}
	m := &Map{scores: map[landmarkKey]map[int]int64{}}
	for _, s := range sites {
		m.TotalCDNA += s.Score
		pos, ok := positions[key{s.Chrom, s.Strand}]
		if !ok {
			continue
		}
		lm := pos[closest(pos, s.Start)]
		dist := int(s.Start - lm)
		if s.Strand == interval.Reverse {
			dist = -dist
		}
		if dist > maxWidth || dist < -maxWidth {
			continue
		}
		lk := landmarkKey{s.Chrom, s.Strand, lm}
		byDist, ok := m.scores[lk]
		if !ok {
			byDist = map[int]int64{}
			m.scores[lk] = byDist
		}
		byDist[dist] += s.Score
	}
	return m
}

// WriteTo writes m as TSV. The first line is "total_cdna:N"; each following
// line is a landmark "chrom_strand_pos" followed by "distance:count" fields
// in ascending distance order. Landmark lines are sorted by their text.
func (m *Map) WriteTo(w io.Writer) error {
	type row struct {
		name string
		key  landmarkKey
	}
	rows := make([]row, 0, len(m.scores))
	for k := range m.scores {
		rows = append(rows, row{k.String(), k})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].name < rows[j].name })

	tsvw := tsv.NewWriter(w)
	tsvw.WriteString("total_cdna:" + strconv.FormatInt(m.TotalCDNA, 10))
	if err := tsvw.EndLine(); err != nil {
		return err
	}
	var dists []int
	for _, r := range rows {
		byDist := m.scores[r.key]
		dists = dists[:0]
		for d := range byDist {
			dists = append(dists, d)
		}
		sort.Ints(dists)
		tsvw.WriteString(r.name)
		for _, d := range dists {
			tsvw.WriteString(fmt.Sprintf("%d:%d", d, byDist[d]))
		}
		if err := tsvw.EndLine(); err != nil {
			return err
		}
	}
	return tsvw.Flush()
}

func writeMap(ctx context.Context, path string, m *Map) (err error) {
	var out *util.Writer
	if out, err = util.CreateWriter(ctx, path, interval.DefaultBGZFParallelism); err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return errors.Wrapf(m.WriteTo(out), "rnamaps: write %s", path)
}

// Run computes the maps of opts.MapTypes from the segments of regionsPath
// and the sites of sitesPath, and writes each to "<outDir>/<maptype>.tsv".
// Map types without landmarks or without nearby sites produce no file.
func Run(ctx context.Context, regionsPath, sitesPath, outDir string, opts Opts) error {
	if opts.MaxWidth < 0 {
		return fmt.Errorf("max width must be non-negative, got %d", opts.MaxWidth)
	}
	mts, err := parseMapTypes(opts.MapTypes)
	if err != nil {
		return err
	}
	segments, err := features.ReadGTF(ctx, regionsPath, features.Opts{GroupBy: "gene_id"})
	if err != nil {
		return errors.Wrapf(err, "rnamaps: load regions %s", regionsPath)
	}
	sites, err := interval.ReadBED(ctx, sitesPath)
	if err != nil {
		return errors.Wrapf(err, "rnamaps: load sites %s", sitesPath)
	}
	return traverse.Each(len(mts), func(i int) error {
		mt := mts[i]
		landmarks := Landmarks(segments, mt)
		if len(landmarks) == 0 {
			log.Printf("rnamaps: no landmarks for %s", mt.Name)
			return nil
		}
		m := Distances(landmarks, sites, opts.MaxWidth)
		if m.Len() == 0 {
			log.Printf("rnamaps: no sites near %d %s landmark(s)", len(landmarks), mt.Name)
			return nil
		}
		log.Printf("rnamaps: %s: %d of %d landmark(s) with sites", mt.Name, m.Len(), len(landmarks))
		return writeMap(ctx, strings.TrimSuffix(outDir, "/")+"/"+mt.Name+".tsv", m)
	})
}
