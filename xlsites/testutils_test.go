package xlsites

import (
	"fmt"
	"io"
	"strings"

	"github.com/grailbio/hts/sam"
	"github.com/grailbio/xlink/interval"
)

var (
	chr1, _   = sam.NewReference("chr1", "", "", 1000, nil, nil)
	chr2, _   = sam.NewReference("chr2", "", "", 2000, nil, nil)
	header, _ = sam.NewHeader(nil, []*sam.Reference{chr1, chr2})
)

func NewAux(name string, val interface{}) sam.Aux {
	aux, err := sam.NewAux(sam.NewTag(name), val)
	if err != nil {
		panic(fmt.Sprintf("error creating %s %v tag: %v", name, val, err))
	}
	return aux
}

// NewRecord returns a mapped record with a matching sequence, an NH tag of
// nh (omitted when zero), and the given MAPQ.
func NewRecord(name string, ref *sam.Reference, pos int, flags sam.Flags, length int, nh int, mapq byte) *sam.Record {
	r := sam.GetFromFreePool()
	r.Name = name
	r.Ref = ref
	r.Pos = pos
	r.MatePos = -1
	r.Flags = flags
	r.MapQ = mapq
	r.Cigar = sam.Cigar{sam.NewCigarOp(sam.CigarMatch, length)}
	r.Seq = sam.NewSeq([]byte(strings.Repeat("A", length)))
	r.Qual = []byte(strings.Repeat("I", length))
	if nh > 0 {
		r.AuxFields = append(r.AuxFields, NewAux("NH", nh))
	}
	return r
}

// fakeReader serves a fixed slice of records.
type fakeReader struct {
	records []*sam.Record
}

func (f *fakeReader) Header() *sam.Header { return header }

func (f *fakeReader) Read() (*sam.Record, error) {
	if len(f.records) == 0 {
		return nil, io.EOF
	}
	r := f.records[0]
	f.records = f.records[1:]
	return r, nil
}

// fwdRead returns a unique forward AlignedRead.
func fwdRead(name, barcode string, start, length int) AlignedRead {
	return AlignedRead{
		Name:    name,
		Chrom:   "chr1",
		Start:   interval.PosType(start),
		End:     interval.PosType(start + length),
		Strand:  interval.Forward,
		Barcode: barcode,
		NH:      1,
		Len:     length,
	}
}

func revRead(name, barcode string, start, length int) AlignedRead {
	r := fwdRead(name, barcode, start, length)
	r.Strand = interval.Reverse
	return r
}
