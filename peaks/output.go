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
	"context"
	"io"
	"strconv"

	"github.com/grailbio/base/tsv"
	"github.com/grailbio/xlink/features"
	"github.com/grailbio/xlink/interval"
	"github.com/grailbio/xlink/util"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

var detailHeader = []string{"chrom", "position", "strand", "name", "count", "local_score", "p_value", "q_value"}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteDetailTo writes one TSV line per test, preceded by a header line.
func WriteDetailTo(w io.Writer, tests []Result) error {
	tsvw := tsv.NewWriter(w)
	for _, h := range detailHeader {
		tsvw.WriteString(h)
	}
	if err := tsvw.EndLine(); err != nil {
		return err
	}
	for _, t := range tests {
		tsvw.WriteString(t.Site.Chrom)
		tsvw.WriteUint32(uint32(t.Site.Start))
		tsvw.WriteByte(byte(t.Site.Strand))
		tsvw.WriteString(t.Feature)
		tsvw.WriteString(strconv.FormatInt(t.Site.Score, 10))
		tsvw.WriteString(strconv.FormatInt(t.LocalScore, 10))
		tsvw.WriteString(formatFloat(t.P))
		tsvw.WriteString(formatFloat(t.Q))
		if err := tsvw.EndLine(); err != nil {
			return err
		}
	}
	return tsvw.Flush()
}

func writeDetail(ctx context.Context, path string, tests []Result) (err error) {
	var out *util.Writer
	if out, err = util.CreateWriter(ctx, path, interval.DefaultBGZFParallelism); err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return errors.Wrapf(WriteDetailTo(out, tests), "peaks: write %s", path)
}

// Run reads the annotation and sites, calls peaks and writes them to
// peaksPath, along with the clusters and detail table when opts asks for
// them.
func Run(ctx context.Context, annotationPath, sitesPath, peaksPath string, opts Opts) error {
	if err := validate(&opts); err != nil {
		return err
	}
	var (
		feats []features.Feature
		sites []interval.Interval
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		feats, err = features.Read(gctx, annotationPath, opts.Features)
		return errors.Wrapf(err, "peaks: load annotation %s", annotationPath)
	})
	g.Go(func() (err error) {
		sites, err = interval.ReadBED(gctx, sitesPath)
		return errors.Wrapf(err, "peaks: load sites %s", sitesPath)
	})
	if err := g.Wait(); err != nil {
		return err
	}
	out, err := Call(sites, feats, opts)
	if err != nil {
		return err
	}
	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error { return interval.WriteBED(gctx, peaksPath, out.Peaks) })
	if opts.ClustersPath != "" {
		g.Go(func() error { return interval.WriteBED(gctx, opts.ClustersPath, out.Clusters) })
	}
	if opts.DetailPath != "" {
		g.Go(func() error { return writeDetail(gctx, opts.DetailPath, out.Tests) })
	}
	return g.Wait()
}
