package cmd

import (
	"fmt"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/xlink/peaks"
	"v.io/x/lib/cmdline"
)

func newCmdPeaks() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "peaks",
		Short:    "Call significant crosslink sites with a permutation test",
		ArgsName: "annotation sites.bed peaks.bed",
		Long: `
Sites are grouped by the annotation features containing them. The local score
of a site, its summed count within -half-window, is compared to -perms random
placements of the feature's counts. Benjamini-Hochberg q-values are computed
over all tests and sites with q <= -fdr are written to peaks.bed. The
annotation is a GTF file, or a BED6 file whose names identify features.`,
	}
	opts := peaks.DefaultOpts
	cmd.Flags.IntVar(&opts.HalfWindow, "half-window", opts.HalfWindow, "Half-window of the local score")
	cmd.Flags.IntVar(&opts.Perms, "perms", opts.Perms, "Number of permutations per feature")
	cmd.Flags.Uint64Var(&opts.Seed, "seed", opts.Seed, "Random seed")
	cmd.Flags.Float64Var(&opts.FDR, "fdr", opts.FDR, "Maximum q-value of reported sites")
	featureTypes := cmd.Flags.String("features", "gene", "Comma-separated GTF feature types sites are grouped by")
	cmd.Flags.StringVar(&opts.Features.GroupBy, "group-by", opts.Features.GroupBy, "GTF attribute identifying a feature")
	cmd.Flags.StringVar(&opts.ClustersPath, "clusters", "", "Output path of the clusters containing significant sites")
	cmd.Flags.IntVar(&opts.ClusterDistance, "cluster-dist", opts.ClusterDistance, "Merge distance of -clusters; required with -clusters")
	cmd.Flags.StringVar(&opts.DetailPath, "scores", "", "Output path of a TSV with the scores of every tested site")
	cmd.Flags.IntVar(&opts.Parallelism, "parallelism", opts.Parallelism, "Number of features tested concurrently")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 3 {
			return fmt.Errorf("peaks takes annotation sites.bed peaks.bed, but got %v", argv)
		}
		opts.Features.Types = splitList(*featureTypes)
		return peaks.Run(vcontext.Background(), argv[0], argv[1], argv[2], opts)
	})
	return cmd
}
