package xlsites

import (
	"fmt"
	"strings"

	"github.com/grailbio/hts/sam"
	"github.com/grailbio/xlink/interval"
)

// barcodeMarker precedes the random barcode in read names.
const barcodeMarker = "rbc:"

// AlignedRead is the part of an alignment record needed to call sites.
// Coordinates are 0-based; End is exclusive.
type AlignedRead struct {
	Name    string
	Chrom   string
	Start   interval.PosType
	End     interval.PosType
	Strand  interval.Strand
	Barcode string
	MapQ    int
	// NH is the number of reported alignments of the read.
	NH int
	// Len is the number of query bases consumed by the alignment.
	Len int
}

// barcodeFromName extracts the random barcode stored after the last "rbc:"
// in a read name, up to the next ':' or whitespace. It returns "" when the
// name carries no barcode.
func barcodeFromName(name string) string {
	i := strings.LastIndex(name, barcodeMarker)
	if i < 0 {
		return ""
	}
	b := name[i+len(barcodeMarker):]
	if j := strings.IndexAny(b, ": \t"); j >= 0 {
		b = b[:j]
	}
	return strings.ToUpper(b)
}

var nhTag = []byte{'N', 'H'}

// numHits returns the value of the NH aux tag, or 1 if the record has none.
func numHits(r *sam.Record) (int, error) {
	aux, ok := r.Tag(nhTag)
	if !ok {
		return 1, nil
	}
	switch v := aux.Value().(type) {
	case uint8:
		return int(v), nil
	case int8:
		return int(v), nil
	case uint16:
		return int(v), nil
	case int16:
		return int(v), nil
	case uint32:
		return int(v), nil
	case int32:
		return int(v), nil
	}
	return 0, fmt.Errorf("NH tag of %s has non-integer value %v", r.Name, aux.Value())
}

// NewAlignedRead extracts an AlignedRead from a mapped record. It fails on
// records whose CIGAR or position cannot describe an alignment.
func NewAlignedRead(r *sam.Record) (AlignedRead, error) {
	if r.Ref == nil || r.Pos < 0 {
		return AlignedRead{}, fmt.Errorf("read %s has no alignment position", r.Name)
	}
	refLen, queryLen := r.Cigar.Lengths()
	if refLen <= 0 {
		return AlignedRead{}, fmt.Errorf("read %s has CIGAR %v covering no reference bases", r.Name, r.Cigar)
	}
	if r.Seq.Length > 0 && queryLen != r.Seq.Length {
		return AlignedRead{}, fmt.Errorf("read %s has CIGAR %v inconsistent with sequence length %d",
			r.Name, r.Cigar, r.Seq.Length)
	}
	if n := r.Ref.Len(); n > 0 && r.Pos+refLen > n {
		return AlignedRead{}, fmt.Errorf("read %s extends past the end of %s", r.Name, r.Ref.Name())
	}
	nh, err := numHits(r)
	if err != nil {
		return AlignedRead{}, err
	}
	strand := interval.Forward
	if r.Flags&sam.Reverse != 0 {
		strand = interval.Reverse
	}
	return AlignedRead{
		Name:    r.Name,
		Chrom:   r.Ref.Name(),
		Start:   interval.PosType(r.Pos),
		End:     interval.PosType(r.Pos + refLen),
		Strand:  strand,
		Barcode: barcodeFromName(r.Name),
		MapQ:    int(r.MapQ),
		NH:      nh,
		Len:     queryLen,
	}, nil
}

// FivePrime returns the position of the read's 5' end.
func (r *AlignedRead) FivePrime() interval.PosType {
	if r.Strand == interval.Reverse {
		return r.End - 1
	}
	return r.Start
}

// CrosslinkPos returns the site position reported for the read in the given
// mode. In GroupStart mode it may be -1 for a forward read starting at the
// first base of a chromosome.
func (r *AlignedRead) CrosslinkPos(mode GroupMode) interval.PosType {
	last := r.End - 1
	switch mode {
	case GroupMiddle:
		half := (last - r.Start) / 2
		if r.Strand == interval.Reverse {
			return last - half
		}
		return r.Start + half
	case GroupEnd:
		if r.Strand == interval.Reverse {
			return r.Start
		}
		return last
	}
	if r.Strand == interval.Reverse {
		return r.End
	}
	return r.Start - 1
}
