package scan

import (
	"bytes"
	"io"
	"os"

	"github.com/standardbeagle/rx/internal/rxcompress"
	"github.com/standardbeagle/rx/internal/seekzstd"
)

// source is an open, randomly-addressable view of one file's decompressed
// bytes, plus however much of it chunking may parallelize over.
type source struct {
	ra         io.ReaderAt
	size       int64
	chunkable  bool // false forces a single chunk (no seekable random access)
	close      func() error
}

// openSource opens absPath for scanning. Plain files are read directly.
// Seekable zstd containers (detected by footer magic) keep full random
// access via seekzstd.Reader. Any other compressed format is decompressed
// once into memory and searched as a single chunk — spec.md's parallel
// chunk dispatch assumes cheap random access, which a non-seekable
// compressed stream does not offer.
func openSource(absPath string) (*source, error) {
	format, err := rxcompress.Detect(absPath)
	if err != nil {
		return nil, err
	}

	if format == rxcompress.FormatZstd {
		if seekable, serr := isSeekableZstd(absPath); serr == nil && seekable {
			return openSeekableZstd(absPath)
		}
	}

	if format == rxcompress.FormatNone {
		return openPlain(absPath)
	}

	return openDecompressedBuffer(absPath)
}

func openPlain(absPath string) (*source, error) {
	f, err := os.Open(absPath)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &source{ra: f, size: info.Size(), chunkable: true, close: f.Close}, nil
}

func openDecompressedBuffer(absPath string) (*source, error) {
	rc, _, err := rxcompress.NewReader(absPath)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	br := bytes.NewReader(data)
	return &source{ra: br, size: int64(len(data)), chunkable: false, close: func() error { return nil }}, nil
}

func isSeekableZstd(absPath string) (bool, error) {
	f, err := os.Open(absPath)
	if err != nil {
		return false, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return false, err
	}
	if info.Size() < 9 {
		return false, nil
	}
	tail := make([]byte, 9)
	if _, err := f.ReadAt(tail, info.Size()-9); err != nil {
		return false, err
	}
	return seekzstd.IsSeekableZstd(tail), nil
}

func openSeekableZstd(absPath string) (*source, error) {
	f, err := os.Open(absPath)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	r, err := seekzstd.Open(f, info.Size())
	if err != nil {
		// Footer magic present but invariants failed (SeekTableCorrupt):
		// fall back to streaming decompression per spec.md §7.
		f.Close()
		return openDecompressedBuffer(absPath)
	}
	adapter := &seekableZstdReaderAt{r: r}
	return &source{
		ra:        adapter,
		size:      r.Size(),
		chunkable: true,
		close: func() error {
			r.Close()
			return f.Close()
		},
	}, nil
}

// seekableZstdReaderAt adapts seekzstd.Reader's range-based ReadRange to
// io.ReaderAt so the chunker and subprocess dispatch can treat every
// source uniformly.
type seekableZstdReaderAt struct {
	r *seekzstd.Reader
}

func (s *seekableZstdReaderAt) ReadAt(p []byte, off int64) (int, error) {
	data, err := s.r.ReadRange(off, off+int64(len(p)))
	if err != nil {
		return 0, err
	}
	n := copy(p, data)
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
