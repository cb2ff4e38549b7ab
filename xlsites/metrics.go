package xlsites

import (
	"context"
	"strconv"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/tsv"
	"gopkg.in/fatih/set.v0"
)

// Metrics counts what happened to the input records.
type Metrics struct {
	// RecordsExamined is the total number of alignment records read.
	RecordsExamined int
	// Unmapped is the number of unmapped records.
	Unmapped int
	// SupplementaryOrQCFail is the number of supplementary or QC-failed
	// records, which are never used.
	SupplementaryOrQCFail int
	// Malformed is the number of records skipped because their alignment
	// could not be interpreted.
	Malformed int
	// OutsideRegion is the number of records outside the requested region.
	OutsideRegion int
	// LowMapq is the number of uniquely mapped records below the MAPQ
	// threshold.
	LowMapq int
	// TooManyHits is the number of records of reads with more than
	// multimax alignments.
	TooManyHits int
	// OffChromosome is the number of records whose crosslink position falls
	// outside the chromosome.
	OffChromosome int

	// UniqueAlignments and MultiAlignments are the numbers of records
	// retained in each stream.
	UniqueAlignments int
	MultiAlignments  int

	// UniqueSites and MultiSites are the numbers of sites emitted per stream,
	// UniqueCount and MultiCount the sums of their counts.
	UniqueSites int
	MultiSites  int
	UniqueCount int64
	MultiCount  int64

	uniqueNames set.Interface
	multiNames  set.Interface
}

func newMetrics() *Metrics {
	return &Metrics{
		uniqueNames: set.New(set.NonThreadSafe),
		multiNames:  set.New(set.NonThreadSafe),
	}
}

// UniqueReads returns the number of distinct read names in the unique
// stream.
func (m *Metrics) UniqueReads() int {
	if m.uniqueNames == nil {
		return 0
	}
	return m.uniqueNames.Size()
}

// MultiReads returns the number of distinct read names in the multi stream.
func (m *Metrics) MultiReads() int {
	if m.multiNames == nil {
		return 0
	}
	return m.multiNames.Size()
}

func (m *Metrics) rows() [][2]string {
	itoa := strconv.Itoa
	return [][2]string{
		{"records_examined", itoa(m.RecordsExamined)},
		{"unmapped", itoa(m.Unmapped)},
		{"supplementary_or_qcfail", itoa(m.SupplementaryOrQCFail)},
		{"malformed", itoa(m.Malformed)},
		{"outside_region", itoa(m.OutsideRegion)},
		{"low_mapq", itoa(m.LowMapq)},
		{"too_many_hits", itoa(m.TooManyHits)},
		{"off_chromosome", itoa(m.OffChromosome)},
		{"unique_alignments", itoa(m.UniqueAlignments)},
		{"unique_reads", itoa(m.UniqueReads())},
		{"unique_sites", itoa(m.UniqueSites)},
		{"unique_count", strconv.FormatInt(m.UniqueCount, 10)},
		{"multi_alignments", itoa(m.MultiAlignments)},
		{"multi_reads", itoa(m.MultiReads())},
		{"multi_sites", itoa(m.MultiSites)},
		{"multi_count", strconv.FormatInt(m.MultiCount, 10)},
	}
}

func writeMetrics(ctx context.Context, path string, m *Metrics) (err error) {
	var out file.File
	if out, err = file.Create(ctx, path); err != nil {
		return errors.E(err, "Couldn't create metrics file:", path)
	}
	defer file.CloseAndReport(ctx, out, &err)
	w := tsv.NewWriter(out.Writer(ctx))
	w.WriteString("#METRIC")
	w.WriteString("VALUE")
	if err = w.EndLine(); err != nil {
		return errors.E(err, "error writing to metrics file:", path)
	}
	for _, row := range m.rows() {
		w.WriteString(row[0])
		w.WriteString(row[1])
		if err = w.EndLine(); err != nil {
			return errors.E(err, "error writing to metrics file:", path)
		}
	}
	if err = w.Flush(); err != nil {
		return errors.E(err, "error writing to metrics file:", path)
	}
	return nil
}
