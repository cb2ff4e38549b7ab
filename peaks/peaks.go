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
	"strings"

	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/xlink/clusters"
	"github.com/grailbio/xlink/features"
	"github.com/grailbio/xlink/interval"
)

// Result is the outcome of testing one site against one feature.
type Result struct {
	Site       interval.Interval
	Feature    string
	FeatureIdx int
	LocalScore int64
	P, Q       float64

	siteIdx int
}

// Output is the result of Call.
type Output struct {
	// Tests holds every (site, feature) test, ordered by site then feature.
	Tests []Result
	// Peaks are the retained sites, named after the feature of their best
	// test.
	Peaks []interval.Interval
	// Clusters are the clusters containing a retained site. Nil unless
	// ClusterDistance >= 0.
	Clusters []interval.Interval
}

// normalizeSites reduces every interval to the site at its start, sums
// duplicates, and drops sites without a positive count.
func normalizeSites(in []interval.Interval) []interval.Interval {
	sites := make([]interval.Interval, 0, len(in))
	nDropped := 0
	for _, s := range in {
		if s.Score < 1 {
			nDropped++
			continue
		}
		sites = append(sites, interval.NewSite(s.Chrom, s.Start, s.Strand, s.Score))
	}
	if nDropped > 0 {
		log.Printf("peaks: ignoring %d site(s) with non-positive count", nDropped)
	}
	return interval.Group(sites)
}

// Call tests sites against the features they fall in and returns the
// significant ones. feats need not be sorted; neither argument is modified.
func Call(sites []interval.Interval, feats []features.Feature, opts Opts) (*Output, error) {
	if err := validate(&opts); err != nil {
		return nil, err
	}
	sites = normalizeSites(sites)
	sortedFeats := make([]features.Feature, len(feats))
	copy(sortedFeats, feats)
	features.Sort(sortedFeats)

	groups, err := groupSites(sites, sortedFeats)
	if err != nil {
		return nil, err
	}
	log.Printf("peaks: %d site(s) in %d of %d feature(s)", len(sites), len(groups), len(sortedFeats))

	perGroup := make([][]Result, len(groups))
	parallelism := opts.Parallelism
	if parallelism > len(groups) {
		parallelism = len(groups)
	}
	if parallelism > 0 {
		err = traverse.Each(parallelism, func(jobIdx int) error {
			startIdx := (jobIdx * len(groups)) / parallelism
			endIdx := ((jobIdx + 1) * len(groups)) / parallelism
			src := newTrialSource(opts.Seed)
			for gi := startIdx; gi < endIdx; gi++ {
				perGroup[gi] = groups[gi].test(sites, opts.HalfWindow, opts.Perms, src)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	// Test order is (feature, position); the BH ranking depends on it
	// only through ties.
	var tests []Result
	for _, r := range perGroup {
		tests = append(tests, r...)
	}
	p := make([]float64, len(tests))
	for i := range tests {
		p[i] = tests[i].P
	}
	for i, q := range adjustBH(p) {
		tests[i].Q = q
	}

	out := &Output{Peaks: selectPeaks(sites, tests, opts.FDR)}
	if opts.ClusterDistance >= 0 {
		if out.Clusters, err = enclosingClusters(sites, out.Peaks, interval.PosType(opts.ClusterDistance)); err != nil {
			return nil, err
		}
	}
	sort.SliceStable(tests, func(a, b int) bool {
		if tests[a].siteIdx != tests[b].siteIdx {
			return tests[a].siteIdx < tests[b].siteIdx
		}
		return tests[a].FeatureIdx < tests[b].FeatureIdx
	})
	out.Tests = tests
	log.Printf("peaks: %d of %d test(s) pass, %d significant site(s)", countPassing(tests, opts.FDR), len(tests), len(out.Peaks))
	return out, nil
}

func countPassing(tests []Result, fdr float64) int {
	n := 0
	for _, t := range tests {
		if t.Q <= fdr {
			n++
		}
	}
	return n
}

// selectPeaks keeps, for every site, the test with the smallest q-value; on
// ties the test of the lower feature index wins. Sites whose best q-value
// exceeds fdr are dropped. tests must be in feature order.
func selectPeaks(sites []interval.Interval, tests []Result, fdr float64) []interval.Interval {
	best := make([]int, len(sites))
	for i := range best {
		best[i] = -1
	}
	for ti := range tests {
		t := &tests[ti]
		if b := best[t.siteIdx]; b < 0 || t.Q < tests[b].Q {
			best[t.siteIdx] = ti
		}
	}
	var peaks []interval.Interval
	for si, ti := range best {
		if ti < 0 || tests[ti].Q > fdr {
			continue
		}
		peak := sites[si]
		peak.Name = tests[ti].Feature
		peaks = append(peaks, peak)
	}
	return peaks
}

// enclosingClusters merges all sites at distance dist and returns the
// clusters that contain at least one peak. A cluster is named after the
// distinct features of its peaks.
func enclosingClusters(sites, peaks []interval.Interval, dist interval.PosType) ([]interval.Interval, error) {
	unnamed := make([]interval.Interval, len(sites))
	for i, s := range sites {
		s.Name = ""
		unnamed[i] = s
	}
	all, err := clusters.Merge(unnamed, dist)
	if err != nil {
		return nil, err
	}
	type key struct {
		chrom  string
		strand interval.Strand
	}
	byKey := map[key][]int{}
	for i, c := range all {
		k := key{c.Chrom, c.Strand}
		byKey[k] = append(byKey[k], i)
	}
	names := map[int][]string{}
	for _, p := range peaks {
		idx := byKey[key{p.Chrom, p.Strand}]
		// Clusters of one chromosome and strand are disjoint and sorted by
		// start.
		j := sort.Search(len(idx), func(j int) bool { return all[idx[j]].Start > p.Start }) - 1
		if j < 0 || all[idx[j]].End <= p.Start {
			log.Error.Printf("peaks: peak %v is in no cluster", p)
			continue
		}
		names[idx[j]] = append(names[idx[j]], p.Name)
	}
	var out []interval.Interval
	for i, c := range all {
		n, ok := names[i]
		if !ok {
			continue
		}
		sort.Strings(n)
		uniq := n[:0]
		for _, s := range n {
			if len(uniq) == 0 || uniq[len(uniq)-1] != s {
				uniq = append(uniq, s)
			}
		}
		c.Name = strings.Join(uniq, ",")
		out = append(out, c)
	}
	return out, nil
}
