package rxcompress

import (
	"bytes"
	"compress/gzip"
	"io"
	"testing"

	dsnetbzip2 "github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

func TestNewReaderRoundTrip(t *testing.T) {
	payload := []byte("2024-01-01T00:00:00Z INFO starting up\n2024-01-01T00:00:01Z ERROR boom\n")

	t.Run("Gzip", func(t *testing.T) {
		var buf bytes.Buffer
		gw := gzip.NewWriter(&buf)
		_, _ = gw.Write(payload)
		require.NoError(t, gw.Close())
		assertRoundTrip(t, "app.log.gz", buf.Bytes(), payload)
	})

	t.Run("Zstd", func(t *testing.T) {
		var buf bytes.Buffer
		zw, err := zstd.NewWriter(&buf)
		require.NoError(t, err)
		_, _ = zw.Write(payload)
		require.NoError(t, zw.Close())
		assertRoundTrip(t, "app.log.zst", buf.Bytes(), payload)
	})

	t.Run("Xz", func(t *testing.T) {
		var buf bytes.Buffer
		xw, err := xz.NewWriter(&buf)
		require.NoError(t, err)
		_, _ = xw.Write(payload)
		require.NoError(t, xw.Close())
		assertRoundTrip(t, "app.log.xz", buf.Bytes(), payload)
	})

	t.Run("Bzip2", func(t *testing.T) {
		var buf bytes.Buffer
		bw, err := dsnetbzip2.NewWriter(&buf, nil)
		require.NoError(t, err)
		_, _ = bw.Write(payload)
		require.NoError(t, bw.Close())
		assertRoundTrip(t, "app.log.bz2", buf.Bytes(), payload)
	})
}

func assertRoundTrip(t *testing.T, name string, compressed, want []byte) {
	t.Helper()
	path := writeTempFile(t, name, compressed)

	rc, format, err := NewReader(path)
	require.NoError(t, err)
	defer rc.Close()

	assert.NotEqual(t, FormatNone, format)

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestNewReaderRejectsCompoundArchive(t *testing.T) {
	path := writeTempFile(t, "logs.tar.gz", []byte{0x1F, 0x8B})
	_, _, err := NewReader(path)
	assert.Error(t, err)
}

func TestNewReaderPassesThroughPlainText(t *testing.T) {
	path := writeTempFile(t, "app.log", []byte("plain text\n"))
	rc, format, err := NewReader(path)
	require.NoError(t, err)
	defer rc.Close()
	assert.Equal(t, FormatNone, format)

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "plain text\n", string(data))
}
