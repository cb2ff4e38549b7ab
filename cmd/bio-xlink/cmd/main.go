package cmd

import (
	"fmt"
	"strings"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/xlink/annotate"
	"github.com/grailbio/xlink/clusters"
	"github.com/grailbio/xlink/features"
	"github.com/grailbio/xlink/interval"
	"github.com/grailbio/xlink/rnamaps"
	"v.io/x/lib/cmdline"
)

// splitList splits a comma-separated flag value, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func newCmdClusters() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "clusters",
		Short:    "Merge nearby crosslink sites into clusters",
		ArgsName: "sites.bed clusters.bed",
		Long: `
Sites on the same chromosome and strand are merged when the gap between them,
next start minus current end, is at most -dist. Cluster scores are the summed
site counts.`,
	}
	dist := cmd.Flags.Int("dist", 20, "Maximum gap between merged sites")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 2 {
			return fmt.Errorf("clusters takes sites.bed clusters.bed, but got %v", argv)
		}
		return clusters.Run(vcontext.Background(), argv[0], argv[1], interval.PosType(*dist))
	})
	return cmd
}

func newCmdGroup() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "group",
		Short:    "Sum the counts of several site files",
		ArgsName: "out.bed in.bed...",
		Long: `
Sites with the same chromosome, coordinates and strand are merged and their
counts summed. This is also how uniquely- and multi-mapped sites are combined.`,
	}
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) < 2 {
			return fmt.Errorf("group takes out.bed and at least one input, but got %v", argv)
		}
		ctx := vcontext.Background()
		var collections [][]interval.Interval
		for _, path := range argv[1:] {
			ivs, err := interval.ReadBED(ctx, path)
			if err != nil {
				return err
			}
			collections = append(collections, ivs)
		}
		return interval.WriteBED(ctx, argv[0], interval.Group(collections...))
	})
	return cmd
}

func newCmdAnnotate() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "annotate",
		Short:    "Label crosslink sites with the annotation features they fall in",
		ArgsName: "annotation sites.bed out.bed",
	}
	featureTypes := cmd.Flags.String("features", "gene", "Comma-separated GTF feature types; empty means all")
	groupBy := cmd.Flags.String("group-by", features.DefaultOpts.GroupBy, "GTF attribute identifying a feature")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 3 {
			return fmt.Errorf("annotate takes annotation sites.bed out.bed, but got %v", argv)
		}
		opts := features.Opts{Types: splitList(*featureTypes), GroupBy: *groupBy}
		return annotate.Run(vcontext.Background(), argv[0], argv[1], argv[2], opts)
	})
	return cmd
}

func newCmdRNAMaps() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "rnamaps",
		Short:    "Compute crosslink distributions around RNA landmarks",
		ArgsName: "regions.gtf sites.bed outdir",
		Long: `
regions.gtf is a segmentation of the genome into CDS, UTR3, UTR5, intron, ncRNA
and intergenic regions. One <maptype>.tsv file is written to outdir per map
type that has sites near its landmarks. Known map types: ` + strings.Join(rnamaps.MapTypeNames(), ", ") + ".",
	}
	maxWidth := cmd.Flags.Int("max-width", rnamaps.DefaultOpts.MaxWidth, "Largest reported distance from a landmark")
	mapTypes := cmd.Flags.String("maptypes", "", "Comma-separated map types; empty means all")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 3 {
			return fmt.Errorf("rnamaps takes regions.gtf sites.bed outdir, but got %v", argv)
		}
		opts := rnamaps.Opts{MaxWidth: *maxWidth, MapTypes: splitList(*mapTypes)}
		return rnamaps.Run(vcontext.Background(), argv[0], argv[1], argv[2], opts)
	})
	return cmd
}

// Run parses the command line and runs the selected subcommand.
func Run() {
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(
		&cmdline.Command{
			Name:     "bio-xlink",
			Short:    "Tools for calling protein-RNA crosslink sites from CLIP data",
			LookPath: false,
			Children: []*cmdline.Command{
				newCmdXlsites(),
				newCmdGroup(),
				newCmdClusters(),
				newCmdPeaks(),
				newCmdAnnotate(),
				newCmdRNAMaps(),
			},
		})
}
