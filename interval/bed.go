package interval

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/grailbio/xlink/util"
)

// DefaultBGZFParallelism is the number of compression goroutines used when
// writing a ".gz" BED file.
var DefaultBGZFParallelism = 4

// getTokens splits curLine on tabs into up to len(tokens) fields, returning
// the number of fields saved. A trailing '\r' is dropped.
func getTokens(tokens [][]byte, curLine []byte) int {
	if n := len(curLine); n > 0 && curLine[n-1] == '\r' {
		curLine = curLine[:n-1]
	}
	if len(curLine) == 0 {
		return 0
	}
	tokenIdx := 0
	for tokenIdx < len(tokens) {
		tab := bytes.IndexByte(curLine, '\t')
		if tab < 0 {
			tokens[tokenIdx] = curLine
			return tokenIdx + 1
		}
		tokens[tokenIdx] = curLine[:tab]
		curLine = curLine[tab+1:]
		tokenIdx++
	}
	return tokenIdx
}

func isHeaderLine(line []byte) bool {
	return len(line) == 0 || line[0] == '#' || bytes.HasPrefix(line, []byte("track")) ||
		bytes.HasPrefix(line, []byte("browser"))
}

func parseScore(token []byte) (int64, error) {
	s := gunsafe.BytesToString(token)
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int64(math.Round(f)), nil
}

// parseBEDLine parses a single BED6 line.
func parseBEDLine(tokens [][]byte) (iv Interval, err error) {
	iv.Chrom = string(tokens[0])
	var start, end int
	if start, err = strconv.Atoi(gunsafe.BytesToString(tokens[1])); err != nil {
		return
	}
	if end, err = strconv.Atoi(gunsafe.BytesToString(tokens[2])); err != nil {
		return
	}
	if start < 0 || end < start || end >= posTypeMax {
		err = fmt.Errorf("invalid coordinate pair %d-%d", start, end)
		return
	}
	iv.Start, iv.End = PosType(start), PosType(end)
	if name := gunsafe.BytesToString(tokens[3]); name != "." {
		iv.Name = string(tokens[3])
	}
	if iv.Score, err = parseScore(tokens[4]); err != nil {
		return
	}
	iv.Strand, err = ParseStrand(gunsafe.BytesToString(tokens[5]))
	return
}

// ScanBED reads BED6 records from reader. Header, comment and blank lines are
// ignored. Malformed lines are logged and skipped.
func ScanBED(reader io.Reader) ([]Interval, error) {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64<<10), 16<<20)
	var tokens [6][]byte
	var ivs []Interval
	lineIdx := 0
	nSkipped := 0
	for scanner.Scan() {
		lineIdx++
		curLine := scanner.Bytes()
		if isHeaderLine(curLine) {
			continue
		}
		if nToken := getTokens(tokens[:], curLine); nToken < len(tokens) {
			log.Printf("interval.ScanBED: line %d has %d fields, expected 6; skipping", lineIdx, nToken)
			nSkipped++
			continue
		}
		iv, err := parseBEDLine(tokens[:])
		if err != nil {
			log.Printf("interval.ScanBED: line %d: %v; skipping", lineIdx, err)
			nSkipped++
			continue
		}
		ivs = append(ivs, iv)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if nSkipped > 0 {
		log.Printf("interval.ScanBED: skipped %d malformed line(s)", nSkipped)
	}
	log.Debug.Printf("interval.ScanBED: read %d interval(s)", len(ivs))
	return ivs, nil
}

// ReadBED is a wrapper for ScanBED that takes a path instead of an
// io.Reader. gzip and lz4 input are decompressed transparently.
func ReadBED(ctx context.Context, path string) (ivs []Interval, err error) {
	var in *util.Reader
	if in, err = util.OpenReader(ctx, path); err != nil {
		return
	}
	defer func() {
		if cerr := in.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if ivs, err = ScanBED(in); err != nil {
		err = errors.E(err, "read BED", path)
	}
	return
}

// WriteBEDTo writes ivs as BED6 lines. An empty Name is written as ".".
func WriteBEDTo(w io.Writer, ivs []Interval) error {
	tsvw := tsv.NewWriter(w)
	for _, iv := range ivs {
		tsvw.WriteString(iv.Chrom)
		tsvw.WriteUint32(uint32(iv.Start))
		tsvw.WriteUint32(uint32(iv.End))
		if iv.Name == "" {
			tsvw.WriteByte('.')
		} else {
			tsvw.WriteString(iv.Name)
		}
		tsvw.WriteString(strconv.FormatInt(iv.Score, 10))
		tsvw.WriteByte(byte(iv.Strand))
		if err := tsvw.EndLine(); err != nil {
			return err
		}
	}
	return tsvw.Flush()
}

// WriteBED writes ivs to path. Paths ending in ".gz" are bgzf-compressed,
// paths ending in ".lz4" are lz4-compressed.
func WriteBED(ctx context.Context, path string, ivs []Interval) (err error) {
	var out *util.Writer
	if out, err = util.CreateWriter(ctx, path, DefaultBGZFParallelism); err != nil {
		return
	}
	defer func() {
		if cerr := out.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if err = WriteBEDTo(out, ivs); err != nil {
		err = errors.E(err, "write BED", path)
	}
	return
}
