package cmd

import (
	"io/ioutil"
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
	"v.io/x/lib/cmdline"
)

func TestMain(m *testing.M) {
	shutdown := grail.Init()
	defer shutdown()
	os.Exit(m.Run())
}

func TestSplitList(t *testing.T) {
	expect.EQ(t, splitList(""), []string(nil))
	expect.EQ(t, splitList("gene"), []string{"gene"})
	expect.EQ(t, splitList("CDS, UTR3,,intron"), []string{"CDS", "UTR3", "intron"})
}

func TestGroupAndClustersCommands(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := vcontext.Background()

	unique := filepath.Join(tempDir, "unique.bed")
	multi := filepath.Join(tempDir, "multi.bed")
	require.NoError(t, interval.WriteBED(ctx, unique, []interval.Interval{
		interval.NewSite("chr1", 10, '+', 2),
		interval.NewSite("chr1", 15, '+', 1),
	}))
	require.NoError(t, interval.WriteBED(ctx, multi, []interval.Interval{
		interval.NewSite("chr1", 10, '+', 1),
		interval.NewSite("chr1", 40, '+', 1),
	}))
	env := cmdline.EnvFromOS()

	grouped := filepath.Join(tempDir, "grouped.bed")
	require.NoError(t, cmdline.ParseAndRun(newCmdGroup(), env, []string{grouped, unique, multi}))
	got, err := ioutil.ReadFile(grouped)
	require.NoError(t, err)
	expect.EQ(t, string(got), "chr1\t10\t11\t.\t3\t+\nchr1\t15\t16\t.\t1\t+\nchr1\t40\t41\t.\t1\t+\n")

	clustered := filepath.Join(tempDir, "clusters.bed")
	require.NoError(t, cmdline.ParseAndRun(newCmdClusters(), env, []string{"-dist=5", grouped, clustered}))
	got, err = ioutil.ReadFile(clustered)
	require.NoError(t, err)
	expect.EQ(t, string(got), "chr1\t10\t16\t.\t4\t+\nchr1\t40\t41\t.\t1\t+\n")

	assert.Error(t, cmdline.ParseAndRun(newCmdGroup(), env, []string{grouped}))
	assert.Error(t, cmdline.ParseAndRun(newCmdClusters(), env, []string{"-dist=-1", grouped, clustered}))
}
