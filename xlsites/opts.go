package xlsites

import (
	"fmt"
	"runtime"

	"github.com/grailbio/xlink/interval"
)

// GroupMode selects which read coordinate is reported as the crosslink.
type GroupMode int

const (
	// GroupStart reports the nucleotide preceding the read's 5' end.
	GroupStart GroupMode = iota
	// GroupMiddle reports the read's middle nucleotide.
	GroupMiddle
	// GroupEnd reports the read's 3' end.
	GroupEnd
)

// ParseGroupMode parses "start", "middle" or "end".
func ParseGroupMode(s string) (GroupMode, error) {
	switch s {
	case "start":
		return GroupStart, nil
	case "middle":
		return GroupMiddle, nil
	case "end":
		return GroupEnd, nil
	}
	return 0, fmt.Errorf("unknown group mode %q, must be one of start, middle, end", s)
}

func (g GroupMode) String() string {
	switch g {
	case GroupStart:
		return "start"
	case GroupMiddle:
		return "middle"
	case GroupEnd:
		return "end"
	}
	return fmt.Sprintf("GroupMode(%d)", int(g))
}

// QuantMode selects what a site's count means.
type QuantMode int

const (
	// QuantCDNA counts distinct barcode clusters (original molecules).
	QuantCDNA QuantMode = iota
	// QuantReads counts supporting reads.
	QuantReads
)

// ParseQuantMode parses "cdna" or "reads".
func ParseQuantMode(s string) (QuantMode, error) {
	switch s {
	case "cdna", "cDNA":
		return QuantCDNA, nil
	case "reads":
		return QuantReads, nil
	}
	return 0, fmt.Errorf("unknown quantification mode %q, must be one of cdna, reads", s)
}

func (q QuantMode) String() string {
	switch q {
	case QuantCDNA:
		return "cdna"
	case QuantReads:
		return "reads"
	}
	return fmt.Sprintf("QuantMode(%d)", int(q))
}

// Opts for crosslink site calling.
type Opts struct {
	Group GroupMode
	Quant QuantMode
	// Mismatches is the maximum Hamming distance between two barcodes of
	// PCR duplicates.
	Mismatches int
	// MapqThreshold is the minimum MAPQ of uniquely mapped reads.
	MapqThreshold int
	// MultiMax is the maximum number of alignments of a multi-mapped read.
	MultiMax int
	// Region optionally restricts processing to reads whose 5' end lies in
	// a "chr[:start-end]" region.
	Region string
	// MetricsFile, if set, receives a TSV of processing counters.
	MetricsFile string
	// Parallelism is the number of chromosomes collapsed concurrently.
	Parallelism int
}

// DefaultOpts sets the default values of Opts.
var DefaultOpts = Opts{
	Group:         GroupStart,
	Quant:         QuantCDNA,
	Mismatches:    1,
	MapqThreshold: 0,
	MultiMax:      50,
	Parallelism:   runtime.NumCPU(),
}

func validate(opts *Opts) (region *interval.Region, err error) {
	if opts.Mismatches < 0 {
		return nil, fmt.Errorf("mismatches must be non-negative")
	}
	if opts.MapqThreshold < 0 || opts.MapqThreshold > 255 {
		return nil, fmt.Errorf("mapq threshold must be in [0, 255]")
	}
	if opts.MultiMax < 1 {
		return nil, fmt.Errorf("multimax must be positive")
	}
	if opts.Group < GroupStart || opts.Group > GroupEnd {
		return nil, fmt.Errorf("invalid group mode %v", opts.Group)
	}
	if opts.Quant != QuantCDNA && opts.Quant != QuantReads {
		return nil, fmt.Errorf("invalid quantification mode %v", opts.Quant)
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = 1
	}
	if opts.Region != "" {
		r, err := interval.ParseRegionString(opts.Region)
		if err != nil {
			return nil, err
		}
		region = &r
	}
	return region, nil
}
