// Package prefixtpl implements rx's prefix-pattern extractor (C9): mining
// a dominant log-line prefix template from a line sample and turning it
// into a regex, consumed by the anomaly pipeline's prefix-deviation
// detector.
package prefixtpl

import "regexp"

// maskRule is one (pattern, tag) substitution, applied in priority order
// so more specific patterns (ISO datetimes) claim their bytes before
// more general ones (bare numbers) get a chance.
type maskRule struct {
	re  *regexp.Regexp
	tag string
}

var maskRules = []maskRule{
	{regexp.MustCompile(`\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:[.,]\d{3,6})?Z?`), "DATETIME"},
	{regexp.MustCompile(`\d{4}-\d{2}-\d{2}`), "DATE"},
	{regexp.MustCompile(`\d{2}:\d{2}:\d{2}[.,]\d{3,6}Z?`), "TIME"},
	{regexp.MustCompile(`\d{2}:\d{2}:\d{2}`), "TIME"},
	{regexp.MustCompile(`[A-Z][a-z]{2}\s+\d{1,2}`), "SYSDATE"},
	{regexp.MustCompile(`\[\d+\]`), "NUM_ID"},
	{regexp.MustCompile(`\[[\w.-]+\]`), "COMPONENT"},
	{regexp.MustCompile(`\b(?:DEBUG|INFO|WARN(?:ING)?|ERROR|CRITICAL|FATAL|TRACE)\b`), "LEVEL"},
	{regexp.MustCompile(`\b[0-9A-Fa-f]{8,}\b`), "HEX"},
	{regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`), "IP"},
	{regexp.MustCompile(`\b\d+\b`), "NUM"},
}

// tokenToRegex converts a mask tag back to the regex that matches the
// class of text it stands for (spec.md §4.9 step 5).
var tokenToRegex = map[string]string{
	"DATETIME":  `\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:[.,]\d{3,6})?Z?`,
	"DATE":      `\d{4}-\d{2}-\d{2}`,
	"TIME":      `\d{2}:\d{2}:\d{2}(?:[.,]\d{3,6})?Z?`,
	"SYSDATE":   `[A-Z][a-z]{2}\s+\d{1,2}`,
	"NUM_ID":    `\[\d+\]`,
	"COMPONENT": `\[[\w.-]+\]`,
	"LEVEL":     `(?:DEBUG|INFO|WARN(?:ING)?|ERROR|CRITICAL|FATAL|TRACE)`,
	"HEX":       `[0-9A-Fa-f]{8,}`,
	"IP":        `\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}`,
	"NUM":       `\d+`,
}

// mask replaces every recognized token in line with its <TAG>, applying
// rules in priority order over the progressively-masked string.
func mask(line string) string {
	out := line
	for _, r := range maskRules {
		out = r.re.ReplaceAllString(out, "<"+r.tag+">")
	}
	return out
}
