package xlsites

import (
	"testing"

	"github.com/grailbio/hts/sam"
	"github.com/grailbio/testutil/expect"
	"github.com/grailbio/xlink/interval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBarcodeFromName(t *testing.T) {
	tests := []struct {
		name, want string
	}{
		{"read1:rbc:AAAT", "AAAT"},
		{"read1:rbc:gatc", "GATC"},
		{"rbc:ACG:rbc:TTT", "TTT"},
		{"rbc:ACGT:extra", "ACGT"},
		{"rbc:ACGT 1:N:0", "ACGT"},
		{"read1", ""},
		{"read1:rbc:", ""},
	}
	for _, test := range tests {
		expect.EQ(t, barcodeFromName(test.name), test.want, test.name)
	}
}

func TestNewAlignedRead(t *testing.T) {
	r := NewRecord("r1:rbc:ACGT", chr1, 100, sam.Reverse, 30, 3, 40)
	read, err := NewAlignedRead(r)
	require.NoError(t, err)
	expect.EQ(t, read, AlignedRead{
		Name:    "r1:rbc:ACGT",
		Chrom:   "chr1",
		Start:   100,
		End:     130,
		Strand:  interval.Reverse,
		Barcode: "ACGT",
		MapQ:    40,
		NH:      3,
		Len:     30,
	})

	// No NH tag means a single alignment.
	read, err = NewAlignedRead(NewRecord("r2", chr1, 0, 0, 10, 0, 0))
	require.NoError(t, err)
	expect.EQ(t, read.NH, 1)
	expect.EQ(t, read.Barcode, "")

	// A CIGAR that disagrees with the sequence.
	bad := NewRecord("r3", chr1, 0, 0, 10, 0, 0)
	bad.Cigar = sam.Cigar{sam.NewCigarOp(sam.CigarMatch, 12)}
	_, err = NewAlignedRead(bad)
	assert.Error(t, err)

	// No CIGAR at all.
	bad = NewRecord("r4", chr1, 0, 0, 10, 0, 0)
	bad.Cigar = nil
	_, err = NewAlignedRead(bad)
	assert.Error(t, err)

	// Past the end of the reference.
	_, err = NewAlignedRead(NewRecord("r5", chr1, 995, 0, 10, 0, 0))
	assert.Error(t, err)

	// Deletions consume reference but not query bases.
	spliced := NewRecord("r6", chr1, 10, 0, 10, 0, 0)
	spliced.Cigar = sam.Cigar{
		sam.NewCigarOp(sam.CigarMatch, 4),
		sam.NewCigarOp(sam.CigarSkipped, 100),
		sam.NewCigarOp(sam.CigarMatch, 6),
	}
	read, err = NewAlignedRead(spliced)
	require.NoError(t, err)
	expect.EQ(t, read.End, interval.PosType(120))
	expect.EQ(t, read.Len, 10)
}

func TestCrosslinkPos(t *testing.T) {
	fwd := fwdRead("f", "", 100, 10) // covers [100, 110)
	rev := revRead("r", "", 100, 10)
	tests := []struct {
		read AlignedRead
		mode GroupMode
		want interval.PosType
	}{
		{fwd, GroupStart, 99},
		{fwd, GroupMiddle, 104},
		{fwd, GroupEnd, 109},
		{rev, GroupStart, 110},
		{rev, GroupMiddle, 105},
		{rev, GroupEnd, 100},
		{fwdRead("f", "", 0, 5), GroupStart, -1},
	}
	for i, test := range tests {
		expect.EQ(t, test.read.CrosslinkPos(test.mode), test.want, "test %d", i)
	}
	expect.EQ(t, fwd.FivePrime(), interval.PosType(100))
	expect.EQ(t, rev.FivePrime(), interval.PosType(109))
}

func TestParseModes(t *testing.T) {
	for _, m := range []GroupMode{GroupStart, GroupMiddle, GroupEnd} {
		got, err := ParseGroupMode(m.String())
		require.NoError(t, err)
		expect.EQ(t, got, m)
	}
	_, err := ParseGroupMode("5prime")
	assert.Error(t, err)
	for _, q := range []QuantMode{QuantCDNA, QuantReads} {
		got, err := ParseQuantMode(q.String())
		require.NoError(t, err)
		expect.EQ(t, got, q)
	}
	_, err = ParseQuantMode("molecules")
	assert.Error(t, err)
}
