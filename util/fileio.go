package util

import (
	"context"
	"io"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/hts/bgzf"
	"github.com/klauspost/compress/gzip"
	"github.com/pierrec/lz4"
)

// Reader reads a possibly-compressed file. Compression is inferred from the
// path: gzip (and bgzf) for ".gz", lz4 for ".lz4".
type Reader struct {
	io.Reader
	f  file.File
	gz *gzip.Reader
}

// OpenReader opens path for reading, decompressing on the fly if needed.
func OpenReader(ctx context.Context, path string) (*Reader, error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "open", path)
	}
	r := &Reader{Reader: f.Reader(ctx), f: f}
	switch {
	case fileio.DetermineType(path) == fileio.Gzip:
		if r.gz, err = gzip.NewReader(r.Reader); err != nil {
			_ = f.Close(ctx)
			return nil, errors.E(err, "gzip", path)
		}
		r.Reader = r.gz
	case strings.HasSuffix(path, ".lz4"):
		r.Reader = lz4.NewReader(r.Reader)
	}
	return r, nil
}

// Close closes the decompressor, if any, and the underlying file.
func (r *Reader) Close(ctx context.Context) error {
	var err error
	if r.gz != nil {
		err = r.gz.Close()
	}
	if e := r.f.Close(ctx); e != nil && err == nil {
		err = e
	}
	return err
}

// Writer writes a possibly-compressed file. Paths ending in ".gz" are written
// as bgzf, which any gzip reader accepts; paths ending in ".lz4" are written
// as lz4 frames.
type Writer struct {
	io.Writer
	f file.File
	c io.Closer
}

// CreateWriter creates path for writing. parallelism is the number of bgzf
// compression goroutines.
func CreateWriter(ctx context.Context, path string, parallelism int) (*Writer, error) {
	f, err := file.Create(ctx, path)
	if err != nil {
		return nil, errors.E(err, "create", path)
	}
	w := &Writer{Writer: f.Writer(ctx), f: f}
	switch {
	case fileio.DetermineType(path) == fileio.Gzip:
		if parallelism < 1 {
			parallelism = 1
		}
		bw := bgzf.NewWriter(w.Writer, parallelism)
		w.Writer, w.c = bw, bw
	case strings.HasSuffix(path, ".lz4"):
		lw := lz4.NewWriter(w.Writer)
		w.Writer, w.c = lw, lw
	}
	return w, nil
}

// Close flushes the compressor, if any, and closes the underlying file.
func (w *Writer) Close(ctx context.Context) error {
	var err error
	if w.c != nil {
		err = w.c.Close()
	}
	if e := w.f.Close(ctx); e != nil && err == nil {
		err = e
	}
	return err
}
