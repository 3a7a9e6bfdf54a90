package lineindex

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/rx/internal/rxtypes"
)

func sampleLog(lines int) []byte {
	var b bytes.Buffer
	for i := 0; i < lines; i++ {
		if i%7 == 0 {
			fmt.Fprintf(&b, "\n")
			continue
		}
		fmt.Fprintf(&b, "line %d: some payload text of varying length %s\n", i, strings.Repeat("x", i%23))
	}
	return b.Bytes()
}

func TestBuild_ChecksAndStats(t *testing.T) {
	data := sampleLog(5000)

	idx, stats, ending, err := Build(bytes.NewReader(data), BuildOptions{Step: 4096, ReservoirSize: 1000})
	require.NoError(t, err)

	assert.Equal(t, rxtypes.LineEndingLF, ending)
	assert.Equal(t, int64(5000), stats.LineCount)
	assert.Equal(t, int64(5000), stats.MaxLineNumber)
	assert.Greater(t, stats.EmptyLineCount, int64(0))
	assert.Greater(t, stats.Mean, 0.0)

	require.NotEmpty(t, idx.Checkpoints)
	assert.Equal(t, Checkpoint{LineNo: 1, ByteOffset: 0}, idx.Checkpoints[0])
	for i := 1; i < len(idx.Checkpoints); i++ {
		assert.Greater(t, idx.Checkpoints[i].ByteOffset, idx.Checkpoints[i-1].ByteOffset)
		assert.Greater(t, idx.Checkpoints[i].LineNo, idx.Checkpoints[i-1].LineNo)
	}
}

func TestBuild_LineEndingDetection(t *testing.T) {
	lf := []byte("a\nb\nc\n")
	crlf := []byte("a\r\nb\r\nc\r\n")
	mixed := []byte("a\r\nb\nc\r\n")

	_, _, ending, err := Build(bytes.NewReader(lf), BuildOptions{Step: 1024})
	require.NoError(t, err)
	assert.Equal(t, rxtypes.LineEndingLF, ending)

	_, _, ending, err = Build(bytes.NewReader(crlf), BuildOptions{Step: 1024})
	require.NoError(t, err)
	assert.Equal(t, rxtypes.LineEndingCRLF, ending)

	_, _, ending, err = Build(bytes.NewReader(mixed), BuildOptions{Step: 1024})
	require.NoError(t, err)
	assert.Equal(t, rxtypes.LineEndingMixed, ending)
}

func TestQueries_RoundTripAgainstManualScan(t *testing.T) {
	data := sampleLog(3000)
	idx, _, _, err := Build(bytes.NewReader(data), BuildOptions{Step: 2048})
	require.NoError(t, err)

	r := bytes.NewReader(data)

	lineStarts := []int64{0}
	for i, b := range data {
		if b == '\n' && i+1 < len(data) {
			lineStarts = append(lineStarts, int64(i+1))
		}
	}

	for _, wantLine := range []int64{1, 2, 17, 500, 1500, int64(len(lineStarts))} {
		off, err := OffsetForLine(r, idx, wantLine)
		require.NoError(t, err)
		assert.Equal(t, lineStarts[wantLine-1], off, "line %d", wantLine)

		line, err := LineForOffset(r, idx, off)
		require.NoError(t, err)
		assert.Equal(t, wantLine, line)
	}
}

func TestBatchLineInfo_MatchesSequentialQueries(t *testing.T) {
	data := sampleLog(2000)
	idx, _, _, err := Build(bytes.NewReader(data), BuildOptions{Step: 1024})
	require.NoError(t, err)

	r := bytes.NewReader(data)

	offsets := []int64{0, 5, 100, 999, int64(len(data) - 1)}
	results, err := BatchLineInfo(r, idx, offsets)
	require.NoError(t, err)
	require.Len(t, results, len(offsets))

	for i, off := range offsets {
		want, err := LineForOffset(bytes.NewReader(data), idx, off)
		require.NoError(t, err)
		assert.Equal(t, want, results[i].LineNumber, "offset %d", off)
		assert.LessOrEqual(t, results[i].StartOffset, off)
		assert.Greater(t, results[i].EndOffset, off)
	}
}

func TestBatchLineInfo_DuplicateOffsets(t *testing.T) {
	data := sampleLog(500)
	idx, _, _, err := Build(bytes.NewReader(data), BuildOptions{Step: 4096})
	require.NoError(t, err)

	results, err := BatchLineInfo(bytes.NewReader(data), idx, []int64{10, 10, 10})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, results[0], results[1])
	assert.Equal(t, results[1], results[2])
}

func TestValid_RejectsOnMismatch(t *testing.T) {
	now := time.Now()
	u := &UnifiedFileIndex{
		Version:          CurrentVersion,
		SourceSizeBytes:  100,
		SourceModifiedAt: timeToNanos(now),
		AnalysisPerformed: true,
		Anomalies:        []rxtypes.AnomalyRange{{StartLine: 1, EndLine: 2}},
	}
	current := rxtypes.FileIdentity{SizeBytes: 100, ModifiedAt: now}

	assert.True(t, u.Valid(current, true, true))
	assert.False(t, u.Valid(rxtypes.FileIdentity{SizeBytes: 200, ModifiedAt: now}, false, false))

	stale := *u
	stale.Version = CurrentVersion + 1
	assert.False(t, stale.Valid(current, false, false))

	notAnalyzed := *u
	notAnalyzed.AnalysisPerformed = false
	assert.False(t, notAnalyzed.Valid(current, true, false))

	noAnomalies := *u
	noAnomalies.Anomalies = nil
	assert.False(t, noAnomalies.Valid(current, false, true))
}

func TestCachePath_SanitizesBasename(t *testing.T) {
	p := CachePath("/cache", "/var/log/app ☃.log")
	assert.True(t, strings.HasPrefix(filepath.Base(p), "app__.log_") || strings.Contains(filepath.Base(p), "app"))
	assert.True(t, strings.HasSuffix(p, ".json"))
	assert.Equal(t, "/cache", filepath.Dir(p))
}

func TestCachePath_Deterministic(t *testing.T) {
	a := CachePath("/cache", "/var/log/app.log")
	b := CachePath("/cache", "/var/log/app.log")
	assert.Equal(t, a, b)

	c := CachePath("/cache", "/var/log/other.log")
	assert.NotEqual(t, a, c)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := CachePath(dir, "/var/log/app.log")

	now := time.Now()
	want := &UnifiedFileIndex{
		Version:           CurrentVersion,
		SourcePath:        "/var/log/app.log",
		SourceSizeBytes:   4096,
		SourceModifiedAt:  timeToNanos(now),
		Index:             LineIndex{Checkpoints: []Checkpoint{{LineNo: 1, ByteOffset: 0}}, Step: 1024},
		Stats:             LineStats{LineCount: 10, Mean: 42.5},
		LineEnding:        rxtypes.LineEndingLF,
		AnalysisPerformed: true,
	}

	require.NoError(t, Save(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want.SourcePath, got.SourcePath)
	assert.Equal(t, want.SourceSizeBytes, got.SourceSizeBytes)
	assert.Equal(t, want.Index, got.Index)
	assert.Equal(t, want.Stats, got.Stats)
	assert.True(t, got.Identity().Equal(rxtypes.FileIdentity{SizeBytes: 4096, ModifiedAt: now}))
}

func TestSave_UsesCompactJSONAboveThreshold(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.json")

	anomalies := make([]rxtypes.AnomalyRange, compactAnomalyThreshold+1)
	u := &UnifiedFileIndex{Version: CurrentVersion, Anomalies: anomalies}
	require.NoError(t, Save(path, u))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "\n  \"")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}

func TestBuildFastPath_CountsLinesOnly(t *testing.T) {
	data := sampleLog(1000)
	stats, ending, err := BuildFastPath(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, int64(1000), stats.LineCount)
	assert.Equal(t, rxtypes.LineEndingLF, ending)
	assert.Equal(t, 0.0, stats.Mean)
	assert.Equal(t, 0.0, stats.P99)
}
