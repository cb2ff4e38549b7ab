package xlsites

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/grailbio/testutil/expect"
	"github.com/grailbio/xlink/interval"
	"github.com/stretchr/testify/assert"
)

func optsWith(quant QuantMode, mismatches int) Opts {
	opts := DefaultOpts
	opts.Quant = quant
	opts.Mismatches = mismatches
	return opts
}

func TestCollapseBarcodes(t *testing.T) {
	reads := []AlignedRead{
		fwdRead("a", "AAAA", 100, 20),
		fwdRead("b", "AAAA", 100, 20),
		fwdRead("c", "AAAA", 100, 20),
		fwdRead("d", "AAAT", 100, 20),
	}
	expect.EQ(t, Collapse(reads, optsWith(QuantCDNA, 1)),
		[]interval.Interval{interval.NewSite("chr1", 99, interval.Forward, 1)})
	expect.EQ(t, Collapse(reads, optsWith(QuantReads, 1)),
		[]interval.Interval{interval.NewSite("chr1", 99, interval.Forward, 4)})
	// Without mismatch tolerance AAAT is a separate molecule.
	expect.EQ(t, Collapse(reads, optsWith(QuantCDNA, 0)),
		[]interval.Interval{interval.NewSite("chr1", 99, interval.Forward, 2)})
}

func TestCollapseStrandsAndChromosomes(t *testing.T) {
	chr2Read := fwdRead("e", "CCCC", 10, 5)
	chr2Read.Chrom = "chr2"
	reads := []AlignedRead{
		chr2Read,
		revRead("c", "AAAA", 100, 20), // 5' end 119, crosslink 120
		fwdRead("a", "AAAA", 100, 20),
		fwdRead("b", "AAAA", 101, 20),
	}
	got := Collapse(reads, optsWith(QuantCDNA, 1))
	expect.EQ(t, got, []interval.Interval{
		interval.NewSite("chr1", 99, interval.Forward, 1),
		interval.NewSite("chr1", 100, interval.Forward, 1),
		interval.NewSite("chr1", 120, interval.Reverse, 1),
		interval.NewSite("chr2", 9, interval.Forward, 1),
	})
}

func TestCollapseEmpty(t *testing.T) {
	assert.Empty(t, Collapse(nil, DefaultOpts))
}

func TestCollapseMiddleSumsPositions(t *testing.T) {
	// Different 5' ends whose middles coincide are summed into one site.
	reads := []AlignedRead{
		fwdRead("a", "AAAA", 100, 21), // middle 110
		fwdRead("b", "CCCC", 102, 17), // middle 110
	}
	opts := optsWith(QuantCDNA, 1)
	opts.Group = GroupMiddle
	expect.EQ(t, Collapse(reads, opts),
		[]interval.Interval{interval.NewSite("chr1", 110, interval.Forward, 2)})
}

func TestChooseRepresentative(t *testing.T) {
	reads := []AlignedRead{
		fwdRead("a", "AAAT", 100, 40),
		fwdRead("b", "AAAA", 100, 20),
		fwdRead("c", "AAAA", 100, 30),
		fwdRead("d", "AAAA", 100, 30),
	}
	// AAAA is the most frequent barcode; c and d tie on length, c wins on name.
	expect.EQ(t, chooseRepresentative(reads, []int{0, 1, 2, 3}), 2)
	expect.EQ(t, chooseRepresentative(reads, []int{3, 2, 1, 0}), 2)

	// Equal frequencies: the longest read wins.
	expect.EQ(t, chooseRepresentative(reads, []int{0, 1}), 0)

	// Equal frequency and length: the smallest barcode wins.
	tied := []AlignedRead{
		fwdRead("x", "GGGG", 100, 30),
		fwdRead("y", "GGGC", 100, 30),
	}
	expect.EQ(t, chooseRepresentative(tied, []int{0, 1}), 1)

	// The representative determines the position in end mode.
	opts := optsWith(QuantCDNA, 1)
	opts.Group = GroupEnd
	expect.EQ(t, Collapse(reads, opts),
		[]interval.Interval{interval.NewSite("chr1", 129, interval.Forward, 1)})
}

func randomReads(r *rand.Rand, n int) []AlignedRead {
	bases := "ACGT"
	reads := make([]AlignedRead, n)
	for i := range reads {
		b := make([]byte, 5)
		for j := range b {
			b[j] = bases[r.Intn(2)] // a small alphabet makes duplicates likely
		}
		if r.Intn(2) == 0 {
			reads[i] = fwdRead(fmt.Sprintf("r%d", i), string(b), 10+r.Intn(20), 10+r.Intn(10))
		} else {
			reads[i] = revRead(fmt.Sprintf("r%d", i), string(b), 10+r.Intn(20), 10+r.Intn(10))
		}
	}
	return reads
}

func TestCollapseProperties(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for trial := 0; trial < 20; trial++ {
		reads := randomReads(r, 1+r.Intn(200))
		for _, mode := range []GroupMode{GroupStart, GroupMiddle, GroupEnd} {
			opts := optsWith(QuantReads, 1)
			opts.Group = mode
			sites := Collapse(reads, opts)

			// Read counts are conserved and sites are unique and sorted.
			var total int64
			for i, s := range sites {
				total += s.Score
				assert.True(t, s.Score >= 1)
				if i > 0 {
					assert.True(t, interval.Less(sites[i-1], s), "%v %v", sites[i-1], s)
				}
			}
			expect.EQ(t, total, int64(len(reads)))

			// cDNA counts never exceed read counts.
			opts.Quant = QuantCDNA
			var cdna int64
			for _, s := range Collapse(reads, opts) {
				cdna += s.Score
			}
			assert.True(t, cdna <= total)

			// Parallel and sequential runs agree.
			opts.Parallelism = 1
			seq := Collapse(reads, opts)
			opts.Parallelism = 8
			expect.EQ(t, Collapse(reads, opts), seq)
		}
	}
}
