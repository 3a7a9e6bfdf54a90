package rxengine

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/rx/internal/rxtypes"
)

func TestArgs_PatternsAndFlags(t *testing.T) {
	args := Args(BuildArgs{
		Patterns:      []string{"error", "warn"},
		Flags:         rxtypes.MatchingFlags{IgnoreCase: true, WholeWord: true},
		ContextBefore: 2,
		ContextAfter: 3,
	})

	joined := strings.Join(args, " ")
	assert.Contains(t, joined, "--json")
	assert.Contains(t, joined, "-i")
	assert.Contains(t, joined, "-w")
	assert.Contains(t, joined, "-B 2")
	assert.Contains(t, joined, "-A 3")
	assert.Contains(t, joined, "-e error")
	assert.Contains(t, joined, "-e warn")
}

func TestEquivalentCommand_QuotesSpecialChars(t *testing.T) {
	cmd := EquivalentCommand(BuildArgs{Patterns: []string{"foo bar"}})
	assert.Contains(t, cmd, "'foo bar'")
	assert.True(t, strings.HasPrefix(cmd, "rg "))
}

func TestDecode_AllEventTypes(t *testing.T) {
	begin, err := Decode([]byte(`{"type":"begin","data":{"path":{"text":"/var/log/app.log"}}}`))
	require.NoError(t, err)
	require.NotNil(t, begin)
	assert.Equal(t, "/var/log/app.log", begin.Begin.Path.Text)

	match, err := Decode([]byte(`{"type":"match","data":{"path":{"text":"x"},"line_number":5,"absolute_offset":120,"lines":{"text":"error: boom\n"},"submatches":[{"match":{"text":"error"},"start":0,"end":5}]}}`))
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, int64(5), match.Match.LineNumber)
	assert.Equal(t, int64(120), match.Match.AbsoluteOffset)
	require.Len(t, match.Match.Submatches, 1)
	assert.Equal(t, "error", match.Match.Submatches[0].Match.Text)

	ctxEvt, err := Decode([]byte(`{"type":"context","data":{"path":{"text":"x"},"line_number":4,"absolute_offset":100,"lines":{"text":"info: ok\n"}}}`))
	require.NoError(t, err)
	require.NotNil(t, ctxEvt)
	assert.Empty(t, ctxEvt.Context.Submatches)

	end, err := Decode([]byte(`{"type":"end","data":{"bytes_searched":4096,"matched_lines":2,"matches":3}}`))
	require.NoError(t, err)
	require.NotNil(t, end)
	assert.Equal(t, int64(4096), end.End.BytesSearched)

	summary, err := Decode([]byte(`{"type":"summary","data":{"bytes_searched":8192,"matched_lines":5,"matches":6}}`))
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, int64(6), summary.Summary.Matches)
}

func TestDecode_UnknownTypeIsIgnored(t *testing.T) {
	ev, err := Decode([]byte(`{"type":"elapsed","data":{}}`))
	require.NoError(t, err)
	assert.Nil(t, ev)
}

func TestDecode_MalformedJSONErrors(t *testing.T) {
	_, err := Decode([]byte(`{not json`))
	assert.Error(t, err)
}

func writeFixtureEngine(t *testing.T, lines []string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fixture engine script is a POSIX shell script")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "fake-rg.sh")

	var b strings.Builder
	b.WriteString("#!/bin/sh\n")
	for _, l := range lines {
		b.WriteString("printf '%s\\n' '" + strings.ReplaceAll(l, "'", `'\''`) + "'\n")
	}
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o755))
	return path
}

func TestRun_StreamsDecodedEvents(t *testing.T) {
	path := writeFixtureEngine(t, []string{
		`{"type":"begin","data":{"path":{"text":"x"}}}`,
		`{"type":"match","data":{"path":{"text":"x"},"line_number":1,"absolute_offset":0,"lines":{"text":"boom\n"},"submatches":[{"match":{"text":"boom"},"start":0,"end":4}]}}`,
		`{"type":"end","data":{"bytes_searched":10,"matched_lines":1,"matches":1}}`,
	})

	orig := EngineBinary
	EngineBinary = path
	defer func() { EngineBinary = orig }()

	events, errc := Run(context.Background(), strings.NewReader(""), BuildArgs{Patterns: []string{"boom"}})

	var got []Event
	for ev := range events {
		got = append(got, ev)
	}
	require.NoError(t, <-errc)

	require.Len(t, got, 3)
	assert.Equal(t, EventBegin, got[0].Type)
	assert.Equal(t, EventMatch, got[1].Type)
	assert.Equal(t, EventEnd, got[2].Type)
}

func TestRun_MalformedLineSurfacesAsError(t *testing.T) {
	path := writeFixtureEngine(t, []string{`not json at all`})

	orig := EngineBinary
	EngineBinary = path
	defer func() { EngineBinary = orig }()

	events, errc := Run(context.Background(), strings.NewReader(""), BuildArgs{Patterns: []string{"x"}})

	for range events {
	}
	err := <-errc
	assert.Error(t, err)
}
