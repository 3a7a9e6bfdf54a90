// Package rxcompress implements the compression layer (spec.md C2):
// magic-byte + extension detection, streaming decompression for
// gzip/xz/bz2/zstd, and the text/binary classification used before a file
// enters the search or index pipeline.
package rxcompress

import (
	"bytes"
	"io"
	"os"
	"strings"
)

// Format identifies a detected compression algorithm.
type Format int

const (
	FormatNone Format = iota
	FormatGzip
	FormatZstd
	FormatXz
	FormatBzip2
	// FormatCompoundArchive marks a path that is a compressed tar (or
	// similar) and is rejected early as binary/non-processable.
	FormatCompoundArchive
)

func (f Format) String() string {
	switch f {
	case FormatGzip:
		return "gzip"
	case FormatZstd:
		return "zstd"
	case FormatXz:
		return "xz"
	case FormatBzip2:
		return "bzip2"
	case FormatCompoundArchive:
		return "compound_archive"
	default:
		return "none"
	}
}

var (
	magicGzip  = []byte{0x1F, 0x8B}
	magicZstd  = []byte{0x28, 0xB5, 0x2F, 0xFD}
	magicXz    = []byte{0xFD, 0x37, 0x7A, 0x58, 0x5A, 0x00}
	magicBzip2 = []byte{0x42, 0x5A, 0x68}
)

var compoundArchiveSuffixes = []string{
	".tar.gz", ".tgz",
	".tar.xz", ".txz",
	".tar.bz2", ".tbz", ".tbz2",
	".tar.zst", ".tzst",
}

// isCompoundArchive reports whether path names a compressed tar. Compound
// archives are classified binary/non-processable; rewriting a tar inside a
// compressed stream is out of scope (spec.md §4.2).
func isCompoundArchive(path string) bool {
	lower := strings.ToLower(path)
	for _, suffix := range compoundArchiveSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

// DetectMagic classifies header bytes by magic prefix alone. It returns
// FormatNone if none of the known prefixes match.
func DetectMagic(header []byte) Format {
	switch {
	case bytes.HasPrefix(header, magicZstd):
		return FormatZstd
	case bytes.HasPrefix(header, magicGzip):
		return FormatGzip
	case bytes.HasPrefix(header, magicXz):
		return FormatXz
	case bytes.HasPrefix(header, magicBzip2):
		return FormatBzip2
	default:
		return FormatNone
	}
}

// detectByExtension classifies a path by its file extension. Used only
// when magic bytes are unavailable, e.g. validating the path of a file we
// are about to create (spec.md §4.2).
func detectByExtension(path string) Format {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".gz"):
		return FormatGzip
	case strings.HasSuffix(lower, ".zst"):
		return FormatZstd
	case strings.HasSuffix(lower, ".xz"):
		return FormatXz
	case strings.HasSuffix(lower, ".bz2"):
		return FormatBzip2
	default:
		return FormatNone
	}
}

// Detect classifies path, preferring magic bytes over extension. Compound
// archives are detected by suffix first and always win, regardless of
// magic bytes, since the outer container is what matters.
func Detect(path string) (Format, error) {
	if isCompoundArchive(path) {
		return FormatCompoundArchive, nil
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Path doesn't exist yet (e.g. a create operation): fall back
			// to extension-only classification.
			return detectByExtension(path), nil
		}
		return FormatNone, err
	}
	defer f.Close()

	header := make([]byte, 8)
	n, err := io.ReadFull(f, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return FormatNone, err
	}
	header = header[:n]

	if m := DetectMagic(header); m != FormatNone {
		return m, nil
	}
	return detectByExtension(path), nil
}

// IsProcessable reports whether path can enter the search/index pipeline
// at all. Compound archives are the only hard rejection at this layer;
// everything else (including compressed files, which "look binary" on
// their compressed bytes) passes.
func IsProcessable(path string) (bool, error) {
	f, err := Detect(path)
	if err != nil {
		return false, err
	}
	return f != FormatCompoundArchive, nil
}

// binaryProbeSize is the amount of the file inspected for the text/binary
// classification (spec.md §4.2): a file is binary iff its first 8 KiB
// contains a null byte.
const binaryProbeSize = 8 * 1024

// IsBinary reports whether the first 8 KiB of r contains a null byte.
// Compressed files are never binary-tested on their compressed bytes by
// callers of this package; decompress first, then call IsBinary on the
// plaintext stream if classification is needed.
func IsBinary(r io.Reader) (bool, error) {
	buf := make([]byte, binaryProbeSize)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return false, err
	}
	return bytes.IndexByte(buf[:n], 0) >= 0, nil
}

// IsBinaryFile opens path and applies IsBinary to its first 8 KiB.
func IsBinaryFile(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()
	return IsBinary(f)
}
