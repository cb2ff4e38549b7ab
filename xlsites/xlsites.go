package xlsites

import (
	"context"
	"io"
	"runtime"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/xlink/interval"
	"golang.org/x/sync/errgroup"
)

// RecordReader is implemented by both hts sam.Reader and hts bam.Reader.
type RecordReader interface {
	Header() *sam.Header
	Read() (*sam.Record, error)
}

// Result holds the sites of both streams.
type Result struct {
	Unique  []interval.Interval
	Multi   []interval.Interval
	Metrics *Metrics
}

type stream int

const (
	streamNone stream = iota
	streamUnique
	streamMulti
)

// classify assigns a record to a stream, updating the filter counters.
func classify(r *sam.Record, opts *Opts, region *interval.Region, m *Metrics) (AlignedRead, stream) {
	if r.Flags&sam.Unmapped != 0 || r.Ref == nil {
		m.Unmapped++
		return AlignedRead{}, streamNone
	}
	if r.Flags&(sam.Supplementary|sam.QCFail) != 0 {
		m.SupplementaryOrQCFail++
		return AlignedRead{}, streamNone
	}
	read, err := NewAlignedRead(r)
	if err != nil {
		log.Printf("xlsites: skipping malformed record: %v", err)
		m.Malformed++
		return AlignedRead{}, streamNone
	}
	if region != nil && !region.Contains(read.Chrom, read.FivePrime()) {
		m.OutsideRegion++
		return AlignedRead{}, streamNone
	}
	if read.NH > opts.MultiMax {
		m.TooManyHits++
		return AlignedRead{}, streamNone
	}
	if pos := read.CrosslinkPos(opts.Group); pos < 0 || (r.Ref.Len() > 0 && int(pos) >= r.Ref.Len()) {
		log.Printf("xlsites: crosslink of read %s at %s:%d is off the chromosome, skipping", read.Name, read.Chrom, pos)
		m.OffChromosome++
		return AlignedRead{}, streamNone
	}
	if read.NH <= 1 {
		if read.MapQ < opts.MapqThreshold {
			m.LowMapq++
			return AlignedRead{}, streamNone
		}
		m.UniqueAlignments++
		m.uniqueNames.Add(read.Name)
		return read, streamUnique
	}
	m.MultiAlignments++
	m.multiNames.Add(read.Name)
	return read, streamMulti
}

// CallSites reads every record from reader and returns the collapsed sites
// of the unique and multi streams.
func CallSites(reader RecordReader, opts Opts) (*Result, error) {
	region, err := validate(&opts)
	if err != nil {
		return nil, err
	}
	m := newMetrics()
	var unique, multi []AlignedRead
	for {
		r, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.E(err, "xlsites: read record")
		}
		m.RecordsExamined++
		read, s := classify(r, &opts, region, m)
		switch s {
		case streamUnique:
			unique = append(unique, read)
		case streamMulti:
			multi = append(multi, read)
		}
	}
	log.Debug.Printf("xlsites: %d unique and %d multi alignments retained of %d records",
		len(unique), len(multi), m.RecordsExamined)

	res := &Result{
		Unique:  Collapse(unique, opts),
		Multi:   Collapse(multi, opts),
		Metrics: m,
	}
	m.UniqueSites, m.MultiSites = len(res.Unique), len(res.Multi)
	for _, s := range res.Unique {
		m.UniqueCount += s.Score
	}
	for _, s := range res.Multi {
		m.MultiCount += s.Score
	}
	return res, nil
}

// openInput opens a BAM file, or a SAM file if the path ends in ".sam".
func openInput(ctx context.Context, in file.File, path string) (RecordReader, func() error, error) {
	if strings.HasSuffix(path, ".sam") {
		r, err := sam.NewReader(in.Reader(ctx))
		if err != nil {
			return nil, nil, errors.E(err, "open SAM", path)
		}
		return r, func() error { return nil }, nil
	}
	r, err := bam.NewReader(in.Reader(ctx), runtime.NumCPU())
	if err != nil {
		return nil, nil, errors.E(err, "open BAM", path)
	}
	return r, r.Close, nil
}

// Run calls sites on the alignments in inPath and writes the unique and multi
// site collections as BED6 to uniquePath and multiPath.
func Run(ctx context.Context, inPath, uniquePath, multiPath string, opts Opts) (m *Metrics, err error) {
	if _, err = validate(&opts); err != nil {
		return nil, err
	}
	var in file.File
	if in, err = file.Open(ctx, inPath); err != nil {
		return nil, errors.E(err, "open", inPath)
	}
	defer file.CloseAndReport(ctx, in, &err)

	reader, closeReader, err := openInput(ctx, in, inPath)
	if err != nil {
		return nil, err
	}
	res, err := CallSites(reader, opts)
	if e := closeReader(); e != nil && err == nil {
		err = errors.E(e, "close", inPath)
	}
	if err != nil {
		return nil, err
	}
	log.Printf("xlsites: %d unique sites (%d), %d multi sites (%d)",
		len(res.Unique), res.Metrics.UniqueCount, len(res.Multi), res.Metrics.MultiCount)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return interval.WriteBED(gctx, uniquePath, res.Unique) })
	g.Go(func() error { return interval.WriteBED(gctx, multiPath, res.Multi) })
	if opts.MetricsFile != "" {
		g.Go(func() error { return writeMetrics(gctx, opts.MetricsFile, res.Metrics) })
	}
	if err = g.Wait(); err != nil {
		return nil, err
	}
	return res.Metrics, nil
}
