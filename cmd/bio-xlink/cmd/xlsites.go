package cmd

import (
	"fmt"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/xlink/xlsites"
	"v.io/x/lib/cmdline"
)

func newCmdXlsites() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "xlsites",
		Short:    "Call crosslink sites from aligned reads",
		ArgsName: "in.bam unique.bed multi.bed",
		Long: `
Reads are split into uniquely and multi-mapped streams. Within each stream,
reads sharing a start position and strand are collapsed by random barcode,
taken from the read name after "rbc:". Each stream is written as BED6 sites.
SAM input is accepted when the path ends in ".sam".`,
	}
	opts := xlsites.DefaultOpts
	group := cmd.Flags.String("group", opts.Group.String(), "Crosslink coordinate: start, middle or end")
	quant := cmd.Flags.String("quant", opts.Quant.String(), "Site count: cdna (barcode clusters) or reads")
	cmd.Flags.IntVar(&opts.Mismatches, "mismatches", opts.Mismatches, "Maximum barcode mismatches between PCR duplicates")
	cmd.Flags.IntVar(&opts.MapqThreshold, "mapq", opts.MapqThreshold, "Minimum MAPQ of uniquely mapped reads")
	cmd.Flags.IntVar(&opts.MultiMax, "multimax", opts.MultiMax, "Maximum number of alignments of a multi-mapped read")
	cmd.Flags.StringVar(&opts.Region, "region", "", "Only process reads whose 5' end is in this chr[:start-end] region")
	cmd.Flags.StringVar(&opts.MetricsFile, "metrics", "", "Output path of a TSV of processing counters")
	cmd.Flags.IntVar(&opts.Parallelism, "parallelism", opts.Parallelism, "Number of chromosomes processed concurrently")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) (err error) {
		if len(argv) != 3 {
			return fmt.Errorf("xlsites takes in.bam unique.bed multi.bed, but got %v", argv)
		}
		if opts.Group, err = xlsites.ParseGroupMode(*group); err != nil {
			return err
		}
		if opts.Quant, err = xlsites.ParseQuantMode(*quant); err != nil {
			return err
		}
		_, err = xlsites.Run(vcontext.Background(), argv[0], argv[1], argv[2], opts)
		return err
	})
	return cmd
}
