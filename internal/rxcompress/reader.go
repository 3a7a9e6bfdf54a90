package rxcompress

import (
	"bufio"
	"compress/bzip2"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	dsnetbzip2 "github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	"github.com/standardbeagle/rx/internal/rxerrors"
)

// NewReader opens path and returns a streaming decompressing reader for
// the detected format, along with the detected Format. Callers read a
// byte stream and are never exposed to the underlying algorithm. Compound
// archives are rejected before any decompressor is constructed.
func NewReader(path string) (io.ReadCloser, Format, error) {
	format, err := Detect(path)
	if err != nil {
		return nil, FormatNone, err
	}
	if format == FormatCompoundArchive {
		return nil, format, rxerrors.New(rxerrors.NotAProcessableFile, "open", fmt.Errorf("compound archive: %s", path)).WithPath(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, format, err
	}

	rc, err := wrapReader(f, format)
	if err != nil {
		f.Close()
		return nil, format, rxerrors.New(rxerrors.CompressionUnsupported, "open", err).WithPath(path)
	}
	return rc, format, nil
}

// wrapReader wraps r with a streaming decompressor for format. format
// FormatNone returns r unwrapped (plain text / unknown-but-not-compressed).
func wrapReader(r io.ReadCloser, format Format) (io.ReadCloser, error) {
	switch format {
	case FormatNone:
		return r, nil
	case FormatGzip:
		gz, err := gzip.NewReader(bufio.NewReader(r))
		if err != nil {
			return nil, err
		}
		return &closeBoth{Reader: gz, inner: r, closer: gz}, nil
	case FormatZstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return &zstdCloser{dec: dec, inner: r}, nil
	case FormatXz:
		xr, err := xz.NewReader(bufio.NewReader(r))
		if err != nil {
			return nil, err
		}
		return &closeBoth{Reader: xr, inner: r, closer: io.NopCloser(nil)}, nil
	case FormatBzip2:
		// compress/bzip2 from the standard library has no write/streaming
		// quirks worth avoiding for reading, but dsnet's bzip2 reader
		// reports corrupt-stream errors the stdlib swallows, which is
		// more useful for a search engine that must decide "skip this
		// file" vs "keep going" (spec.md §7 ChunkFailure).
		br, err := dsnetbzip2.NewReader(bufio.NewReader(r), nil)
		if err != nil {
			if fallback := bzip2.NewReader(bufio.NewReader(r)); fallback != nil {
				return &closeBoth{Reader: fallback, inner: r, closer: io.NopCloser(nil)}, nil
			}
			return nil, err
		}
		return &closeBoth{Reader: br, inner: r, closer: br}, nil
	default:
		return nil, fmt.Errorf("unsupported compression format: %s", format)
	}
}

// closeBoth closes both the decompressor (if it implements io.Closer) and
// the underlying file handle.
type closeBoth struct {
	io.Reader
	inner  io.Closer
	closer io.Closer
}

func (c *closeBoth) Close() error {
	var err error
	if c.closer != nil {
		err = c.closer.Close()
	}
	if cerr := c.inner.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// zstdCloser adapts klauspost/compress/zstd.Decoder (whose Close returns
// nothing) to io.ReadCloser while also closing the underlying file.
type zstdCloser struct {
	dec   *zstd.Decoder
	inner io.Closer
}

func (z *zstdCloser) Read(p []byte) (int, error) { return z.dec.Read(p) }

func (z *zstdCloser) Close() error {
	z.dec.Close()
	return z.inner.Close()
}

// GzipUncompressedSize reports the uncompressed size gzip stores in its
// trailer, modulo 2^32. Gzip cannot represent sizes above that, so when
// the true size is at or beyond it the caller should report "unknown"
// rather than trust this value (spec.md §4.2).
func GzipUncompressedSize(path string) (size uint32, known bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, false, err
	}
	defer f.Close()

	info, err := os.Stat(path)
	if err != nil {
		return 0, false, err
	}
	if info.Size() < 8 {
		return 0, false, fmt.Errorf("file too short to be gzip: %s", path)
	}

	if _, err := f.Seek(-4, io.SeekEnd); err != nil {
		return 0, false, err
	}
	var trailer [4]byte
	if _, err := io.ReadFull(f, trailer[:]); err != nil {
		return 0, false, err
	}
	return binary.LittleEndian.Uint32(trailer[:]), true, nil
}
