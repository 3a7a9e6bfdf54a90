package seekzstd

import (
	"bufio"
	"bytes"
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"
)

// WriterOptions configures Writer.
type WriterOptions struct {
	// FrameSizeBytes is the target size of each frame before newline
	// extension. Zero means DefaultFrameSizeBytes.
	FrameSizeBytes int

	// Checksums, when true, records an xxhash64-truncated-to-32-bits
	// checksum per frame in the seek table (footer flag bit 0).
	Checksums bool
}

// Writer builds a seekable zstd container by reading an input stream in
// newline-extended chunks, compressing each as an independent zstd frame,
// and appending the seek table on Close (spec.md §4.3 "Creation").
type Writer struct {
	w       io.Writer
	enc     *zstd.Encoder
	opts    WriterOptions
	frames  []FrameInfo
	compOff int64
	decOff  int64
	closed  bool
}

// NewWriter wraps w, compressing each frame independently as it is fed by
// WriteFrame or WriteAll. Callers MUST call Close to flush the final frame and seek table.
func NewWriter(w io.Writer, opts WriterOptions) (*Writer, error) {
	if opts.FrameSizeBytes <= 0 {
		opts.FrameSizeBytes = DefaultFrameSizeBytes
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	return &Writer{w: w, enc: enc, opts: opts}, nil
}

// WriteFrame compresses chunk as a single independent zstd frame and
// appends it to the container. The caller is responsible for newline
// extension (WriteAll does this automatically for a full stream).
func (wr *Writer) WriteFrame(chunk []byte) error {
	compressed := wr.enc.EncodeAll(chunk, nil)

	if _, err := wr.w.Write(compressed); err != nil {
		return err
	}

	f := FrameInfo{
		Index:              len(wr.frames),
		CompressedOffset:   wr.compOff,
		CompressedSize:     int64(len(compressed)),
		DecompressedOffset: wr.decOff,
		DecompressedSize:   int64(len(chunk)),
	}
	if wr.opts.Checksums {
		f.Checksum = uint32(xxhash.Sum64(chunk))
	}
	wr.frames = append(wr.frames, f)

	wr.compOff += f.CompressedSize
	wr.decOff += f.DecompressedSize
	return nil
}

// WriteAll reads r to EOF in FrameSizeBytes-ish chunks, extending each
// chunk forward to the next newline (or EOF) before compressing it as its
// own frame, then writes the seek table and closes the underlying writer
// state. Every frame but possibly the last ends on a newline.
func (wr *Writer) WriteAll(r io.Reader) error {
	br := bufio.NewReaderSize(r, wr.opts.FrameSizeBytes)
	var buf bytes.Buffer

	for {
		buf.Reset()
		n, err := io.CopyN(&buf, br, int64(wr.opts.FrameSizeBytes))
		if n > 0 {
			if err == nil {
				if extendErr := extendToNewline(&buf, br); extendErr != nil && extendErr != io.EOF {
					return extendErr
				}
			}
			if werr := wr.WriteFrame(buf.Bytes()); werr != nil {
				return werr
			}
		}
		if err == io.EOF {
			return wr.Close()
		}
		if err != nil {
			return err
		}
	}
}

// extendToNewline reads byte-by-byte from br until a newline is consumed
// (or EOF), appending to buf. This keeps every frame boundary on a line
// boundary so the chunk planner and line-offset index never need
// cross-frame bookkeeping (spec.md §4.3).
func extendToNewline(buf *bytes.Buffer, br *bufio.Reader) error {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return err
		}
		buf.WriteByte(b)
		if b == '\n' {
			return nil
		}
	}
}

// Close appends the seek table (skippable frame + footer) and finalizes
// the container. Safe to call once; a second call is a no-op.
func (wr *Writer) Close() error {
	if wr.closed {
		return nil
	}
	wr.closed = true

	table := encodeSeekTable(wr.frames, wr.opts.Checksums)
	if _, err := wr.w.Write(table); err != nil {
		return err
	}
	return wr.enc.Close()
}

// Frames returns the FrameInfo records accumulated so far, for callers
// that want to build a line-offset index alongside writing (C4).
func (wr *Writer) Frames() []FrameInfo {
	return wr.frames
}
