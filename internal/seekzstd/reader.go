package seekzstd

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Reader provides random byte-range access into a seekable zstd container
// without decompressing the whole file (spec.md §4.3 "Random access").
type Reader struct {
	ra     io.ReaderAt
	dec    *zstd.Decoder
	frames []FrameInfo
	size   int64 // total decompressed size

	mu          sync.Mutex
	cachedIndex int
	cachedData  []byte
}

// Open builds a Reader from ra, reading and validating the trailing seek
// table. size is the total file size (needed to locate the footer).
func Open(ra io.ReaderAt, size int64) (*Reader, error) {
	if size < footerSize {
		return nil, errSeekTableCorrupt("file too short to contain a footer")
	}

	footerBuf := make([]byte, footerSize)
	if _, err := ra.ReadAt(footerBuf, size-footerSize); err != nil && err != io.EOF {
		return nil, err
	}

	numFrames, flags, ok := parseFooter(footerBuf)
	if !ok {
		return nil, errSeekTableCorrupt("footer magic mismatch")
	}

	entriesLen := int64(entrySize(flags)) * int64(numFrames)
	skipFrameTotal := skipFrameHeaderSize + entriesLen + footerSize
	if skipFrameTotal > size {
		return nil, errSeekTableCorrupt("seek table larger than file")
	}

	entriesBuf := make([]byte, entriesLen)
	if entriesLen > 0 {
		if _, err := ra.ReadAt(entriesBuf, size-skipFrameTotal+skipFrameHeaderSize); err != nil && err != io.EOF {
			return nil, err
		}
	}

	frames, err := decodeSeekTable(entriesBuf, numFrames, flags)
	if err != nil {
		return nil, err
	}
	if err := verifyInvariants(frames); err != nil {
		return nil, err
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}

	var total int64
	if len(frames) > 0 {
		last := frames[len(frames)-1]
		total = last.decompressedEnd()
	}

	return &Reader{
		ra:          ra,
		dec:         dec,
		frames:      frames,
		size:        total,
		cachedIndex: -1,
	}, nil
}

// Size returns the total decompressed size.
func (r *Reader) Size() int64 { return r.size }

// Frames returns the container's FrameInfo records in order.
func (r *Reader) Frames() []FrameInfo { return r.frames }

// Close releases the decoder. The underlying io.ReaderAt is owned by the
// caller and is not closed here.
func (r *Reader) Close() error {
	r.dec.Close()
	return nil
}

// frameForOffset binary-searches for the frame whose decompressed range
// contains off.
func (r *Reader) frameForOffset(off int64) (FrameInfo, bool) {
	i := sort.Search(len(r.frames), func(i int) bool {
		return r.frames[i].decompressedEnd() > off
	})
	if i == len(r.frames) {
		return FrameInfo{}, false
	}
	f := r.frames[i]
	if off < f.DecompressedOffset {
		return FrameInfo{}, false
	}
	return f, true
}

// framesOverlapping returns every frame whose decompressed range overlaps
// [start, end) (spec.md §4.3 step 1).
func (r *Reader) framesOverlapping(start, end int64) []FrameInfo {
	lo := sort.Search(len(r.frames), func(i int) bool {
		return r.frames[i].decompressedEnd() > start
	})
	var out []FrameInfo
	for i := lo; i < len(r.frames) && r.frames[i].DecompressedOffset < end; i++ {
		out = append(out, r.frames[i])
	}
	return out
}

func (r *Reader) decodeFrame(f FrameInfo) ([]byte, error) {
	r.mu.Lock()
	if r.cachedIndex == f.Index {
		data := r.cachedData
		r.mu.Unlock()
		return data, nil
	}
	r.mu.Unlock()

	compressed := make([]byte, f.CompressedSize)
	if _, err := r.ra.ReadAt(compressed, f.CompressedOffset); err != nil && err != io.EOF {
		return nil, err
	}

	plain, err := r.dec.DecodeAll(compressed, make([]byte, 0, f.DecompressedSize))
	if err != nil {
		return nil, fmt.Errorf("decode frame %d: %w", f.Index, err)
	}

	r.mu.Lock()
	r.cachedIndex = f.Index
	r.cachedData = plain
	r.mu.Unlock()

	return plain, nil
}

// ReadRange decompresses and returns the decompressed byte range
// [start, end). Only the overlapping frames are decompressed.
func (r *Reader) ReadRange(start, end int64) ([]byte, error) {
	if start < 0 || end < start || end > r.size {
		return nil, errors.New("seekzstd: range out of bounds")
	}
	if start == end {
		return nil, nil
	}

	out := make([]byte, 0, end-start)
	for _, f := range r.framesOverlapping(start, end) {
		plain, err := r.decodeFrame(f)
		if err != nil {
			return nil, err
		}

		lo := int64(0)
		if start > f.DecompressedOffset {
			lo = start - f.DecompressedOffset
		}
		hi := f.DecompressedSize
		if end < f.decompressedEnd() {
			hi = end - f.DecompressedOffset
		}
		out = append(out, plain[lo:hi]...)
	}

	return out, nil
}

// NewSequentialReader returns an io.Reader that decompresses the whole
// container frame by frame in order, for callers that just want to stream
// the plaintext (e.g. feeding the chunk planner without random access).
func (r *Reader) NewSequentialReader() io.Reader {
	return &sequentialReader{r: r}
}

type sequentialReader struct {
	r      *Reader
	frame  int
	offset int
	buf    []byte
}

func (s *sequentialReader) Read(p []byte) (int, error) {
	if s.buf != nil && s.offset < len(s.buf) {
		n := copy(p, s.buf[s.offset:])
		s.offset += n
		return n, nil
	}

	if s.frame >= len(s.r.frames) {
		return 0, io.EOF
	}

	plain, err := s.r.decodeFrame(s.r.frames[s.frame])
	if err != nil {
		return 0, err
	}
	s.buf = plain
	s.offset = 0
	s.frame++

	n := copy(p, s.buf[s.offset:])
	s.offset += n
	return n, nil
}
