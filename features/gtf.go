package features

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/biogo/biogo/io/featio/gff"
	"github.com/biogo/biogo/seq"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/xlink/interval"
	"github.com/grailbio/xlink/util"
	"gopkg.in/fatih/set.v0"
)

// maxConsecutiveErrors bounds how many unreadable lines in a row are skipped
// before the input is considered broken.
const maxConsecutiveErrors = 100

func attribute(gf *gff.Feature, tag string) string {
	return strings.Trim(gf.FeatAttributes.Get(tag), `"`)
}

// ScanGTF reads features from a GTF (GFF2) stream. Features without a strand
// and features whose type is not in opts.Types are skipped, as are lines
// that cannot be parsed.
func ScanGTF(r io.Reader, opts Opts) ([]Feature, error) {
	types := set.New(set.NonThreadSafe)
	for _, t := range opts.Types {
		types.Add(t)
	}
	in := gff.NewReader(r)
	var (
		feats     []Feature
		nErr      int
		nSkipped  int
		nUnstrand int
	)
	for {
		f, err := in.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			nErr++
			if nErr > maxConsecutiveErrors {
				return nil, fmt.Errorf("features.ScanGTF: too many consecutive errors, last: %v", err)
			}
			log.Printf("features.ScanGTF: skipping line: %v", err)
			nSkipped++
			continue
		}
		nErr = 0
		gf := f.(*gff.Feature)
		if types.Size() > 0 && !types.Has(gf.Feature) {
			continue
		}
		var strand interval.Strand
		switch gf.FeatStrand {
		case seq.Plus:
			strand = interval.Forward
		case seq.Minus:
			strand = interval.Reverse
		default:
			nUnstrand++
			continue
		}
		feat := Feature{
			Chrom:  gf.SeqName,
			Start:  interval.PosType(gf.FeatStart),
			End:    interval.PosType(gf.FeatEnd),
			Strand: strand,
			Type:   gf.Feature,
		}
		if opts.GroupBy != "" {
			feat.ID = attribute(gf, opts.GroupBy)
		}
		if feat.ID == "" {
			feat.ID = fmt.Sprintf("%s:%d-%d", feat.Chrom, feat.Start, feat.End)
		}
		if feat.Name = attribute(gf, "gene_name"); feat.Name == "" {
			feat.Name = feat.ID
		}
		feats = append(feats, feat)
	}
	if nSkipped > 0 {
		log.Printf("features.ScanGTF: skipped %d unreadable line(s)", nSkipped)
	}
	if nUnstrand > 0 {
		log.Debug.Printf("features.ScanGTF: skipped %d unstranded feature(s)", nUnstrand)
	}
	return feats, nil
}

// ReadGTF is a wrapper for ScanGTF that takes a path.
func ReadGTF(ctx context.Context, path string, opts Opts) (feats []Feature, err error) {
	var in *util.Reader
	if in, err = util.OpenReader(ctx, path); err != nil {
		return
	}
	defer func() {
		if cerr := in.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if feats, err = ScanGTF(in, opts); err != nil {
		err = errors.E(err, "read GTF", path)
	}
	log.Debug.Printf("features.ReadGTF: %d feature(s) from %s", len(feats), path)
	return
}
