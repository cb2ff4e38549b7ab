package rnamaps

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/expect"
	"github.com/grailbio/xlink/features"
	"github.com/grailbio/xlink/interval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	shutdown := grail.Init()
	defer shutdown()
	os.Exit(m.Run())
}

func seg(strand interval.Strand, typ string, start, end interval.PosType) features.Feature {
	return features.Feature{Chrom: "chr1", Start: start, End: end, Strand: strand, Type: typ}
}

var testSegments = []features.Feature{
	seg('+', "UTR5", 0, 100),
	seg('+', "CDS", 100, 200),
	seg('+', "intron", 200, 400),
	seg('+', "CDS", 400, 460),
	seg('+', "UTR3", 460, 700),
	seg('+', "intergenic", 700, 1000),
	seg('-', "CDS", 200, 300),
	seg('-', "intron", 0, 200),
}

func TestLandmarks(t *testing.T) {
	tests := []struct {
		mapType string
		want    []interval.Interval
	}{
		{"exon-intron", []interval.Interval{
			interval.NewSite("chr1", 199, '-', 0),
			interval.NewSite("chr1", 200, '+', 0),
		}},
		{"intron-exon", []interval.Interval{interval.NewSite("chr1", 400, '+', 0)}},
		{"translation-start", []interval.Interval{interval.NewSite("chr1", 100, '+', 0)}},
		{"translation-end", []interval.Interval{interval.NewSite("chr1", 460, '+', 0)}},
		{"gene-end", []interval.Interval{interval.NewSite("chr1", 700, '+', 0)}},
		{"gene-start", nil},
		{"noncoding-gene-start", nil},
	}
	for _, test := range tests {
		expect.EQ(t, Landmarks(testSegments, MapTypes[test.mapType]), test.want, test.mapType)
	}

	// Segments at or below the size limit do not form landmarks.
	short := []features.Feature{seg('+', "CDS", 0, 50), seg('+', "intron", 50, 500)}
	expect.EQ(t, len(Landmarks(short, MapTypes["exon-intron"])), 0)
}

func TestClosest(t *testing.T) {
	positions := []interval.PosType{10, 20}
	for pos, want := range map[interval.PosType]int{0: 0, 10: 0, 15: 0, 16: 1, 20: 1, 99: 1} {
		expect.EQ(t, closest(positions, pos), want, "pos %d", pos)
	}
}

var testSites = []interval.Interval{
	interval.NewSite("chr1", 210, '+', 3),
	interval.NewSite("chr1", 190, '+', 1),
	interval.NewSite("chr1", 150, '-', 2),
	interval.NewSite("chr1", 900, '+', 5),
	interval.NewSite("chr2", 10, '+', 7),
}

const wantExonIntron = "total_cdna:18\nchr1_+_200\t-10:1\t10:3\nchr1_-_199\t49:2\n"

func TestDistances(t *testing.T) {
	m := Distances(Landmarks(testSegments, MapTypes["exon-intron"]), testSites, 500)
	expect.EQ(t, m.TotalCDNA, int64(18))
	expect.EQ(t, m.Len(), 2)
	expect.EQ(t, m.Score("chr1", '+', 200, 10), int64(3))
	expect.EQ(t, m.Score("chr1", '+', 200, -10), int64(1))
	expect.EQ(t, m.Score("chr1", '-', 199, 49), int64(2))
	expect.EQ(t, m.Score("chr1", '+', 200, 700), int64(0))

	var buf bytes.Buffer
	require.NoError(t, m.WriteTo(&buf))
	expect.EQ(t, buf.String(), wantExonIntron)

	// Narrower maps drop the far sites but still count them.
	m = Distances(Landmarks(testSegments, MapTypes["exon-intron"]), testSites, 10)
	expect.EQ(t, m.TotalCDNA, int64(18))
	expect.EQ(t, m.Len(), 1)
}

func TestRun(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := vcontext.Background()

	var gtf strings.Builder
	for _, s := range []struct {
		typ        string
		start, end int
		strand     string
	}{
		{"UTR5", 1, 100, "+"},
		{"CDS", 101, 200, "+"},
		{"intron", 201, 400, "+"},
		{"CDS", 401, 460, "+"},
		{"UTR3", 461, 700, "+"},
		{"intergenic", 701, 1000, "+"},
		{"intron", 1, 200, "-"},
		{"CDS", 201, 300, "-"},
	} {
		gtf.WriteString("chr1\tsegment\t" + s.typ + "\t" + strconv.Itoa(s.start) + "\t" + strconv.Itoa(s.end) +
			"\t.\t" + s.strand + "\t.\tgene_id \"G1\";\n")
	}
	regionsPath := filepath.Join(tempDir, "regions.gtf")
	require.NoError(t, ioutil.WriteFile(regionsPath, []byte(gtf.String()), 0644))
	sitesPath := filepath.Join(tempDir, "sites.bed")
	require.NoError(t, interval.WriteBED(ctx, sitesPath, testSites))

	outDir := filepath.Join(tempDir, "maps")
	require.NoError(t, os.MkdirAll(outDir, 0755))
	opts := DefaultOpts
	opts.MapTypes = []string{"exon-intron", "gene-start"}
	require.NoError(t, Run(ctx, regionsPath, sitesPath, outDir, opts))

	got, err := ioutil.ReadFile(filepath.Join(outDir, "exon-intron.tsv"))
	require.NoError(t, err)
	expect.EQ(t, string(got), wantExonIntron)
	_, err = os.Stat(filepath.Join(outDir, "gene-start.tsv"))
	assert.True(t, os.IsNotExist(err))

	opts.MapTypes = []string{"exon-exon"}
	err = Run(ctx, regionsPath, sitesPath, outDir, opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown map type")

	opts = DefaultOpts
	opts.MaxWidth = -1
	assert.Error(t, Run(ctx, regionsPath, sitesPath, outDir, opts))
}
