// Package seekzstd implements rx's seekable zstd container (spec.md C3): a
// concatenation of independently decompressable zstd frames followed by a
// skippable-frame seek table, enabling parallel frame decompression and
// random byte-range access without decompressing the whole file.
package seekzstd

import "encoding/binary"

const (
	footerMagic   uint32 = 0x8F92EAB1
	skipFrameMagic uint32 = 0x184D2A5E

	// footerSize is the fixed 9-byte footer: magic(4) + num_frames(4) + flags(1).
	footerSize = 9

	// skipFrameHeaderSize is the skippable-frame header immediately
	// preceding the seek table entries: magic(4) + frame_size(4).
	skipFrameHeaderSize = 8

	entrySizePlain    = 8  // compressed_size:u32, decompressed_size:u32
	entrySizeChecksum = 12 // + checksum:u32

	flagChecksums byte = 1 << 0

	// DefaultFrameSizeBytes is the target size of each independently
	// decompressable frame before newline extension (spec.md §4.3).
	DefaultFrameSizeBytes = 4 * 1024 * 1024
)

// FrameInfo describes one independently decompressable zstd frame plus its
// placement within the compressed and decompressed streams.
type FrameInfo struct {
	Index              int
	CompressedOffset   int64
	CompressedSize     int64
	DecompressedOffset int64
	DecompressedSize   int64
	Checksum           uint32 // valid only when the seek table carries checksums
}

func (f FrameInfo) compressedEnd() int64   { return f.CompressedOffset + f.CompressedSize }
func (f FrameInfo) decompressedEnd() int64 { return f.DecompressedOffset + f.DecompressedSize }

// IsSeekableZstd reports whether the last 9 bytes of tail (the final bytes
// of the file) match the footer magic. Callers pass the trailing bytes of
// the file. No file-extension check is made here or by internal/scan: a
// file is treated as seekable when its header carries the zstd magic and
// its tail carries the footer magic, whatever its name.
func IsSeekableZstd(tail []byte) bool {
	if len(tail) < footerSize {
		return false
	}
	magic := binary.LittleEndian.Uint32(tail[len(tail)-footerSize : len(tail)-footerSize+4])
	return magic == footerMagic
}

// parseFooter decodes the fixed 9-byte footer.
func parseFooter(b []byte) (numFrames uint32, flags byte, ok bool) {
	if len(b) != footerSize {
		return 0, 0, false
	}
	magic := binary.LittleEndian.Uint32(b[0:4])
	if magic != footerMagic {
		return 0, 0, false
	}
	numFrames = binary.LittleEndian.Uint32(b[4:8])
	flags = b[8]
	return numFrames, flags, true
}

func entrySize(flags byte) int {
	if flags&flagChecksums != 0 {
		return entrySizeChecksum
	}
	return entrySizePlain
}

// decodeSeekTable parses numFrames fixed-size entries (in frame order) into
// FrameInfo records with cumulative compressed/decompressed offsets filled
// in (the wire format stores only per-frame sizes).
func decodeSeekTable(entries []byte, numFrames uint32, flags byte) ([]FrameInfo, error) {
	sz := entrySize(flags)
	if len(entries) != sz*int(numFrames) {
		return nil, errSeekTableCorrupt("entries length does not match num_frames * entry_size")
	}

	frames := make([]FrameInfo, numFrames)
	var compOff, decompOff int64
	hasChecksum := flags&flagChecksums != 0

	for i := 0; i < int(numFrames); i++ {
		e := entries[i*sz : (i+1)*sz]
		compSize := int64(binary.LittleEndian.Uint32(e[0:4]))
		decompSize := int64(binary.LittleEndian.Uint32(e[4:8]))

		f := FrameInfo{
			Index:              i,
			CompressedOffset:   compOff,
			CompressedSize:     compSize,
			DecompressedOffset: decompOff,
			DecompressedSize:   decompSize,
		}
		if hasChecksum {
			f.Checksum = binary.LittleEndian.Uint32(e[8:12])
		}
		frames[i] = f

		compOff += compSize
		decompOff += decompSize
	}

	return frames, nil
}

// encodeSeekTable serializes frames (in order) to the wire entry format,
// plus the skippable-frame header and footer, per spec.md §4.3.
func encodeSeekTable(frames []FrameInfo, withChecksums bool) []byte {
	sz := entrySizePlain
	var flags byte
	if withChecksums {
		sz = entrySizeChecksum
		flags = flagChecksums
	}

	entries := make([]byte, sz*len(frames))
	for i, f := range frames {
		e := entries[i*sz : (i+1)*sz]
		binary.LittleEndian.PutUint32(e[0:4], uint32(f.CompressedSize))
		binary.LittleEndian.PutUint32(e[4:8], uint32(f.DecompressedSize))
		if withChecksums {
			binary.LittleEndian.PutUint32(e[8:12], f.Checksum)
		}
	}

	footerPayload := entries
	frameSize := uint32(len(entries) + footerSize)

	out := make([]byte, 0, skipFrameHeaderSize+len(footerPayload)+footerSize)

	header := make([]byte, skipFrameHeaderSize)
	binary.LittleEndian.PutUint32(header[0:4], skipFrameMagic)
	binary.LittleEndian.PutUint32(header[4:8], frameSize)
	out = append(out, header...)
	out = append(out, footerPayload...)

	footer := make([]byte, footerSize)
	binary.LittleEndian.PutUint32(footer[0:4], footerMagic)
	binary.LittleEndian.PutUint32(footer[4:8], uint32(len(frames)))
	footer[8] = flags
	out = append(out, footer...)

	return out
}

// verifyInvariants checks the offset-sum invariant spec.md §3/§7 requires
// of a seek table: each frame's compressed/decompressed offset equals the
// running sum of the preceding frames' sizes.
func verifyInvariants(frames []FrameInfo) error {
	var compOff, decompOff int64
	for _, f := range frames {
		if f.CompressedOffset != compOff || f.DecompressedOffset != decompOff {
			return errSeekTableCorrupt("frame offsets fail the offset-sum invariant")
		}
		compOff = f.compressedEnd()
		decompOff = f.decompressedEnd()
	}
	return nil
}
