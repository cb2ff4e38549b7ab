// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package peaks

import (
	"sort"

	"github.com/grailbio/xlink/features"
	"github.com/grailbio/xlink/interval"
)

// featureGroup is a feature together with the sites it contains.
type featureGroup struct {
	// idx is the index of the feature in the sorted feature list.
	idx  int
	feat *features.Feature
	// sites index into the site list; their positions are strictly
	// increasing.
	sites []int
	pos   []interval.PosType
	count []int64
}

// window returns the inclusive bounds of the scoring window around pos,
// clipped to the feature.
func (g *featureGroup) window(pos interval.PosType, halfWindow int) (lo, hi interval.PosType) {
	lo, hi = pos-interval.PosType(halfWindow), pos+interval.PosType(halfWindow)
	if lo < g.feat.Start {
		lo = g.feat.Start
	}
	if hi > g.feat.End-1 {
		hi = g.feat.End - 1
	}
	return lo, hi
}

// total is the number of count units placed in each null trial.
func (g *featureGroup) total() int64 {
	var n int64
	for _, c := range g.count {
		n += c
	}
	return n
}

// observedScores returns the local score of every site of g.
func (g *featureGroup) observedScores(halfWindow int) []int64 {
	cum := make([]int64, len(g.count)+1)
	for i, c := range g.count {
		cum[i+1] = cum[i] + c
	}
	scores := make([]int64, len(g.pos))
	for i, p := range g.pos {
		lo, hi := g.window(p, halfWindow)
		a := sort.Search(len(g.pos), func(j int) bool { return g.pos[j] >= lo })
		b := sort.Search(len(g.pos), func(j int) bool { return g.pos[j] > hi })
		scores[i] = cum[b] - cum[a]
	}
	return scores
}

// exceedances runs perms null trials and returns, per site, the number of
// trials whose null local score is at least the observed one.
func (g *featureGroup) exceedances(observed []int64, halfWindow, perms int, src *trialSource) []int {
	var (
		n      = g.total()
		span   = int(g.feat.Len())
		null   = make([]interval.PosType, n)
		exceed = make([]int, len(g.pos))
		lo     = make([]interval.PosType, len(g.pos))
		hi     = make([]interval.PosType, len(g.pos))
	)
	for i, p := range g.pos {
		lo[i], hi[i] = g.window(p, halfWindow)
	}
	for t := 0; t < perms; t++ {
		r := src.trial(g.idx, t)
		for k := range null {
			null[k] = g.feat.Start + interval.PosType(r.IntN(span))
		}
		sort.Slice(null, func(a, b int) bool { return null[a] < null[b] })
		for i := range g.pos {
			a := sort.Search(len(null), func(j int) bool { return null[j] >= lo[i] })
			b := sort.Search(len(null), func(j int) bool { return null[j] > hi[i] })
			if int64(b-a) >= observed[i] {
				exceed[i]++
			}
		}
	}
	return exceed
}

// test scores every site of g and returns one Result per site, in position
// order. Q is filled in later.
func (g *featureGroup) test(sites []interval.Interval, halfWindow, perms int, src *trialSource) []Result {
	observed := g.observedScores(halfWindow)
	exceed := g.exceedances(observed, halfWindow, perms, src)
	results := make([]Result, len(g.sites))
	for i, si := range g.sites {
		results[i] = Result{
			Site:       sites[si],
			Feature:    g.feat.Name,
			FeatureIdx: g.idx,
			LocalScore: observed[i],
			P:          float64(1+exceed[i]) / float64(1+perms),
			siteIdx:    si,
		}
	}
	return results
}

// groupSites assigns each site to every same-strand feature containing its
// position. Features without sites are omitted. sites must be sorted and
// unique by position.
func groupSites(sites []interval.Interval, feats []features.Feature) ([]*featureGroup, error) {
	index, err := features.NewIndex(feats)
	if err != nil {
		return nil, err
	}
	byFeature := make([]*featureGroup, len(feats))
	for si := range sites {
		s := &sites[si]
		for _, fi := range index.Containing(s.Chrom, s.Strand, s.Start) {
			g := byFeature[fi]
			if g == nil {
				g = &featureGroup{idx: fi, feat: &feats[fi]}
				byFeature[fi] = g
			}
			g.sites = append(g.sites, si)
			g.pos = append(g.pos, s.Start)
			g.count = append(g.count, s.Score)
		}
	}
	var groups []*featureGroup
	for _, g := range byFeature {
		if g != nil {
			groups = append(groups, g)
		}
	}
	return groups, nil
}
