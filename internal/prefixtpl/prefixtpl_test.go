package prefixtpl

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMask_OrdersDatetimeBeforeDateAndTime(t *testing.T) {
	got := mask("2025-12-10T07:49:50.123Z component started")
	assert.Equal(t, "<DATETIME> component started", got)
}

func TestMask_LevelAndComponent(t *testing.T) {
	got := mask("[my-service.worker] ERROR connection refused")
	assert.Equal(t, "<COMPONENT> <LEVEL> connection refused", got)
}

func TestMask_IPAndNum(t *testing.T) {
	got := mask("request from 10.0.0.5 took 42 ms")
	assert.Equal(t, "request from <IP> took <NUM> ms", got)
}

func TestExtract_DominantPrefixDetected(t *testing.T) {
	var lines []string
	for i := 0; i < 20; i++ {
		lines = append(lines, "2025-12-10T07:49:50.123Z INFO worker started job")
	}
	lines = append(lines, "totally unrelated one-off line")

	pattern, ok := Extract(lines, DefaultOptions())
	require.True(t, ok)
	assert.Contains(t, pattern.Pattern, "<DATETIME>")
	assert.True(t, strings.HasPrefix(pattern.Regex, "^"))
	assert.Greater(t, pattern.Coverage, 0.9)
}

func TestExtract_NoPatternBelowFallback(t *testing.T) {
	lines := []string{
		"alpha one", "beta two", "gamma three", "delta four",
		"epsilon five", "zeta six", "eta seven", "theta eight",
	}
	_, ok := Extract(lines, DefaultOptions())
	assert.False(t, ok)
}

func TestExtract_EmptyInput(t *testing.T) {
	_, ok := Extract(nil, DefaultOptions())
	assert.False(t, ok)
}

func TestPrefixToRegex_MatchesMaskedLine(t *testing.T) {
	regex := prefixToRegex([]string{"<DATE>", "<LEVEL>"})
	assert.Equal(t, `^\d{4}-\d{2}-\d{2}\s+(?:DEBUG|INFO|WARN(?:ING)?|ERROR|CRITICAL|FATAL|TRACE)`, regex)
}

func TestTokenRegex_EmbeddedTag(t *testing.T) {
	got := tokenRegex("daemon<NUM_ID>:")
	assert.Equal(t, `daemon\[\d+\]:`, got)
}

func TestSample_SkipsPartialLineAtOffset(t *testing.T) {
	data := []byte("first line\nsecond line\nthird line\nfourth line\n")
	opts := Options{SampleSize: 10, SkipRatio: 0.3}

	lines, err := Sample(bytes.NewReader(data), int64(len(data)), opts)
	require.NoError(t, err)
	assert.NotContains(t, lines, "first line")
}

func TestSample_RespectsSampleSize(t *testing.T) {
	var buf bytes.Buffer
	for i := 0; i < 50; i++ {
		buf.WriteString("a line\n")
	}
	opts := Options{SampleSize: 5, SkipRatio: 0}

	lines, err := Sample(bytes.NewReader(buf.Bytes()), int64(buf.Len()), opts)
	require.NoError(t, err)
	assert.Len(t, lines, 5)
}

func TestEstimatePrefixLength_Median(t *testing.T) {
	lines := []string{"ab cd", "abc de", "a b"}
	length := estimatePrefixLength(lines, `^\S+`)
	assert.Greater(t, length, 0)
}
