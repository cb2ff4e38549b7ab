package clusters

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/expect"
	"github.com/grailbio/xlink/interval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	shutdown := grail.Init()
	defer shutdown()
	os.Exit(m.Run())
}

func site(chrom string, pos int, strand interval.Strand, count int64) interval.Interval {
	return interval.NewSite(chrom, interval.PosType(pos), strand, count)
}

func cluster(chrom string, start, end int, strand interval.Strand, count int64) interval.Interval {
	return interval.Interval{Chrom: chrom, Start: interval.PosType(start), End: interval.PosType(end), Strand: strand, Score: count}
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name  string
		sites []interval.Interval
		dist  interval.PosType
		want  []interval.Interval
	}{
		{
			"gap equal to distance merges",
			[]interval.Interval{
				site("chr1", 40, '+', 1),
				site("chr1", 10, '+', 2),
				site("chr1", 15, '+', 3),
			},
			5,
			[]interval.Interval{
				cluster("chr1", 10, 16, '+', 5),
				cluster("chr1", 40, 41, '+', 1),
			},
		},
		{
			"distance zero merges adjacent sites only",
			[]interval.Interval{
				site("chr1", 10, '+', 1),
				site("chr1", 11, '+', 1),
				site("chr1", 13, '+', 1),
			},
			0,
			[]interval.Interval{
				cluster("chr1", 10, 12, '+', 2),
				cluster("chr1", 13, 14, '+', 1),
			},
		},
		{
			"strands and chromosomes are independent",
			[]interval.Interval{
				site("chr1", 10, '+', 1),
				site("chr1", 11, '-', 1),
				site("chr1", 12, '+', 1),
				site("chr1", 13, '-', 1),
				site("chr2", 14, '+', 1),
			},
			2,
			[]interval.Interval{
				cluster("chr1", 10, 13, '+', 2),
				cluster("chr1", 11, 14, '-', 2),
				cluster("chr2", 14, 15, '+', 1),
			},
		},
		{"empty input", nil, 3, []interval.Interval{}},
	}
	for _, test := range tests {
		got, err := Merge(test.sites, test.dist)
		require.NoError(t, err, test.name)
		if len(test.want) == 0 {
			assert.Empty(t, got, test.name)
			continue
		}
		expect.EQ(t, got, test.want, test.name)
	}

	_, err := Merge(nil, -1)
	assert.Error(t, err)
}

func TestMergeIdempotent(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	for trial := 0; trial < 100; trial++ {
		var sites []interval.Interval
		var total int64
		for i := r.Intn(100); i > 0; i-- {
			strand := interval.Forward
			if r.Intn(2) == 1 {
				strand = interval.Reverse
			}
			chrom := []string{"chr1", "chr2"}[r.Intn(2)]
			count := int64(1 + r.Intn(5))
			total += count
			sites = append(sites, site(chrom, r.Intn(300), strand, count))
		}
		sites = interval.Group(sites)
		dist := interval.PosType(r.Intn(10))
		once, err := Merge(sites, dist)
		require.NoError(t, err)
		twice, err := Merge(once, dist)
		require.NoError(t, err)
		expect.EQ(t, twice, once)

		var sum int64
		for i, c := range once {
			sum += c.Score
			for _, d := range once[i+1:] {
				if c.Chrom == d.Chrom && c.Strand == d.Strand {
					assert.True(t, interval.Gap(c, d) > dist, "%v and %v should have merged", c, d)
				}
			}
		}
		expect.EQ(t, sum, total)
	}
}

func TestRun(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := vcontext.Background()
	in := filepath.Join(tempDir, "sites.bed")
	out := filepath.Join(tempDir, "clusters.bed")
	require.NoError(t, interval.WriteBED(ctx, in, []interval.Interval{
		site("chr1", 10, '+', 1),
		site("chr1", 15, '+', 1),
		site("chr1", 40, '+', 1),
	}))
	require.NoError(t, Run(ctx, in, out, 5))
	got, err := interval.ReadBED(ctx, out)
	require.NoError(t, err)
	expect.EQ(t, got, []interval.Interval{
		cluster("chr1", 10, 16, '+', 2),
		cluster("chr1", 40, 41, '+', 1),
	})
	assert.Error(t, Run(ctx, in, out, -1))
}
