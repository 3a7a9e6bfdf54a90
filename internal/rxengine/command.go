// Package rxengine builds and drives the external regex-engine subprocess
// protocol described in spec.md §6.2: a subprocess invoked with a pattern
// list and a byte stream, emitting one JSON object per line on stdout.
package rxengine

import (
	"strconv"

	"github.com/standardbeagle/rx/internal/rxtypes"
)

// BuildArgs describes one subprocess invocation. The chunk's bytes are fed
// over stdin (the engine never re-opens the file itself); this is what
// makes event.absolute_offset chunk-relative, letting the scan driver
// translate it to a file-absolute offset by adding chunk_start.
type BuildArgs struct {
	Patterns      []string
	Flags         rxtypes.MatchingFlags
	ContextBefore int
	ContextAfter  int
}

// EngineBinary is the subprocess rx invokes. ripgrep's --json mode is the
// concrete engine this protocol was modeled on; any engine emitting the
// same event shapes satisfies §6.2. A var, not a const, so tests can point
// it at a fixture script.
var EngineBinary = "rg"

// Args builds the argv (excluding argv[0]) for one BuildArgs invocation.
// Patterns are passed as repeated -e flags rather than joined by
// alternation, matching ripgrep's native multi-pattern convention and
// keeping each pattern's own anchors/flags independent.
func Args(b BuildArgs) []string {
	args := []string{"--json", "--line-number"}

	for _, f := range b.Flags.Sorted() {
		args = append(args, f)
	}
	if b.ContextBefore > 0 {
		args = append(args, "-B", strconv.Itoa(b.ContextBefore))
	}
	if b.ContextAfter > 0 {
		args = append(args, "-A", strconv.Itoa(b.ContextAfter))
	}
	for _, p := range b.Patterns {
		args = append(args, "-e", p)
	}

	return args
}

// EquivalentCommand renders the CLI-equivalent string for logging and
// diagnostics, in the spirit of the teacher's human-readable command
// summaries: a developer debugging a ChunkFailure can paste this line
// directly to reproduce the subprocess invocation against the same bytes.
func EquivalentCommand(b BuildArgs) string {
	args := Args(b)
	out := EngineBinary
	for _, a := range args {
		out += " " + shellQuote(a)
	}
	return out
}

func shellQuote(s string) string {
	safe := true
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '_', r == '-', r == '.', r == '/', r == ':', r == '=':
		default:
			safe = false
		}
	}
	if safe && s != "" {
		return s
	}
	quoted := "'"
	for _, r := range s {
		if r == '\'' {
			quoted += `'\''`
		} else {
			quoted += string(r)
		}
	}
	return quoted + "'"
}
