package lineindex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/rx/internal/rxtypes"
)

func writeAnalysisFixture(t *testing.T) *os.File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.log")
	content := "2024-01-01 12:00:00 INFO starting up\n" +
		"2024-01-01 12:00:01 INFO still running\n" +
		"2024-01-01 12:00:02 ERROR something broke\n" +
		"2024-01-01 12:00:03 INFO recovered\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	f, err := os.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestAnalyze_ProducesAnomalyRanges(t *testing.T) {
	f := writeAnalysisFixture(t)
	info, err := f.Stat()
	require.NoError(t, err)

	ranges, summary, err := Analyze(f, info.Size(), AnalysisOptions{WindowSize: 4, MaxRanges: 100})
	require.NoError(t, err)
	assert.NotEmpty(t, summary)
	for _, r := range ranges {
		assert.NotEmpty(t, r.Detector)
	}
}

func TestBuildWithAnalysis_AttachesAnomaliesToIndex(t *testing.T) {
	f := writeAnalysisFixture(t)
	info, err := f.Stat()
	require.NoError(t, err)
	identity := rxtypes.FileIdentity{SizeBytes: info.Size(), ModifiedAt: info.ModTime()}

	u, err := BuildWithAnalysis(f, identity, "app.log", BuildOptions{Step: 1 << 20, ReservoirSize: 1000}, &AnalysisOptions{WindowSize: 4, MaxRanges: 100})
	require.NoError(t, err)
	assert.True(t, u.AnalysisPerformed)
	assert.Equal(t, int64(4), u.Stats.LineCount)
}

func TestBuildWithAnalysis_SkipsAnalysisWhenOptionsNil(t *testing.T) {
	f := writeAnalysisFixture(t)
	info, err := f.Stat()
	require.NoError(t, err)
	identity := rxtypes.FileIdentity{SizeBytes: info.Size(), ModifiedAt: info.ModTime()}

	u, err := BuildWithAnalysis(f, identity, "app.log", BuildOptions{Step: 1 << 20, ReservoirSize: 1000}, nil)
	require.NoError(t, err)
	assert.False(t, u.AnalysisPerformed)
	assert.Nil(t, u.Anomalies)
}
