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

// Package peaks calls significant crosslink sites with a per-feature
// permutation test.
//
// Each site is scored by the summed count of the sites of the same feature
// within HalfWindow nucleotides of it, the window being clipped to the
// feature. The null distribution of that local score is obtained by
// scattering the feature's total count uniformly over the feature Perms
// times. Empirical p-values are
//
//   p = (1 + #{trials whose null score >= observed}) / (1 + Perms)
//
// and are corrected with Benjamini-Hochberg across every (site, feature)
// test of the run. Sites whose best q-value exceeds FDR are dropped.
//
// Trial t of feature f draws from a PCG generator seeded with a hash of
// (Seed, f, t), so results do not depend on Parallelism.
package peaks

import (
	"fmt"
	"runtime"

	"github.com/grailbio/xlink/features"
)

// Opts for peak calling.
type Opts struct {
	// HalfWindow is the number of nucleotides on each side of a site that
	// contribute to its local score.
	HalfWindow int
	// Perms is the number of permutation trials per feature.
	Perms int
	// Seed determines every random draw.
	Seed uint64
	// FDR is the q-value threshold of retained sites.
	FDR float64
	// Features selects the annotation features sites are grouped by.
	Features features.Opts
	// ClusterDistance, when non-negative, merges all sites into clusters at
	// this distance and reports the clusters containing a retained site.
	ClusterDistance int
	// ClustersPath receives the clusters; requires ClusterDistance >= 0.
	ClustersPath string
	// DetailPath, if set, receives a TSV with the scores of every test.
	DetailPath string
	// Parallelism is the number of features tested concurrently.
	Parallelism int
}

// DefaultOpts sets the default values of Opts.
var DefaultOpts = Opts{
	HalfWindow:      3,
	Perms:           100,
	Seed:            42,
	FDR:             0.05,
	Features:        features.DefaultOpts,
	ClusterDistance: -1,
	Parallelism:     runtime.NumCPU(),
}

func validate(opts *Opts) error {
	if opts.HalfWindow < 0 {
		return fmt.Errorf("half-window must be non-negative, got %d", opts.HalfWindow)
	}
	if opts.Perms <= 0 {
		return fmt.Errorf("number of permutations must be positive, got %d", opts.Perms)
	}
	if !(opts.FDR > 0 && opts.FDR <= 1) {
		return fmt.Errorf("fdr must be in (0, 1], got %v", opts.FDR)
	}
	if len(opts.Features.Types) == 0 {
		return fmt.Errorf("at least one feature type is required")
	}
	if opts.ClustersPath != "" && opts.ClusterDistance < 0 {
		return fmt.Errorf("cluster distance must be non-negative when a clusters output is requested")
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = 1
	}
	return nil
}
