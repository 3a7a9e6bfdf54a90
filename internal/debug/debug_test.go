package debug

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetDebugState(t *testing.T) {
	t.Helper()
	origEnable := EnableDebug
	t.Cleanup(func() {
		EnableDebug = origEnable
		SetDebugOutput(nil)
	})
}

func TestIsDebugEnabled_BuildFlag(t *testing.T) {
	resetDebugState(t)
	EnableDebug = "true"
	assert.True(t, IsDebugEnabled())
}

func TestIsDebugEnabled_EnvVar(t *testing.T) {
	resetDebugState(t)
	EnableDebug = "false"
	t.Setenv("DEBUG", "1")
	assert.True(t, IsDebugEnabled())
}

func TestIsDebugEnabled_Default(t *testing.T) {
	resetDebugState(t)
	EnableDebug = "false"
	t.Setenv("DEBUG", "")
	assert.False(t, IsDebugEnabled())
}

func TestPrintf_NoOutputWhenDisabled(t *testing.T) {
	resetDebugState(t)
	EnableDebug = "false"
	var buf bytes.Buffer
	SetDebugOutput(&buf)

	Printf("hello %s", "world")
	assert.Empty(t, buf.String())
}

func TestPrintf_WritesWhenEnabled(t *testing.T) {
	resetDebugState(t)
	EnableDebug = "true"
	var buf bytes.Buffer
	SetDebugOutput(&buf)

	Printf("hello %s", "world")
	assert.Contains(t, buf.String(), "[DEBUG] hello world")
}

func TestLog_IncludesComponent(t *testing.T) {
	resetDebugState(t)
	EnableDebug = "true"
	var buf bytes.Buffer
	SetDebugOutput(&buf)

	Log("SCAN", "dispatched %d chunks", 3)
	assert.Contains(t, buf.String(), "[DEBUG:SCAN] dispatched 3 chunks")
}

func TestLogScan_LogCache_LogAnomaly_PrefixComponent(t *testing.T) {
	resetDebugState(t)
	EnableDebug = "true"
	var buf bytes.Buffer
	SetDebugOutput(&buf)

	LogScan("a")
	LogIndex("b")
	LogCache("c")
	LogAnomaly("d")
	LogCompress("e")

	out := buf.String()
	for _, want := range []string{"[DEBUG:SCAN] a", "[DEBUG:INDEX] b", "[DEBUG:CACHE] c", "[DEBUG:ANOMALY] d", "[DEBUG:COMPRESS] e"} {
		assert.True(t, strings.Contains(out, want), "expected %q in %q", want, out)
	}
}

func TestFatal_ReturnsErrorRegardlessOfDebugState(t *testing.T) {
	resetDebugState(t)
	EnableDebug = "false"

	err := Fatal("chunk %d failed", 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chunk 7 failed")
}

func TestInitAndCloseDebugLogFile(t *testing.T) {
	resetDebugState(t)
	path, err := InitDebugLogFile()
	require.NoError(t, err)
	assert.NotEmpty(t, path)
	require.NoError(t, CloseDebugLog())
	// Closing twice is a no-op, not an error.
	require.NoError(t, CloseDebugLog())
}
