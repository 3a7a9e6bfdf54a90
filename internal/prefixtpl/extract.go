package prefixtpl

import (
	"regexp"
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"
)

// PrefixPattern is a detected dominant prefix template (spec.md §4.9).
type PrefixPattern struct {
	Pattern      string // masked token pattern, e.g. "<DATE> <TIME> <LEVEL>"
	Regex        string // compiled-ready regex string, anchored at ^
	Coverage     float64
	PrefixLength int // median matched prefix length in bytes
	TokenCount   int
}

// Options configures extraction (spec.md §4.9 defaults).
type Options struct {
	SimilarityThreshold float64 // θ, template-cluster merge threshold
	CoverageThreshold   float64 // primary acceptance threshold
	FallbackThreshold   float64 // weaker acceptance threshold
	MaxPrefixTokens     int
	SampleSize          int
	SkipRatio           float64
}

// DefaultOptions matches spec.md §4.9's stated defaults.
func DefaultOptions() Options {
	return Options{
		SimilarityThreshold: 0.3,
		CoverageThreshold:   0.90,
		FallbackThreshold:   0.50,
		MaxPrefixTokens:     8,
		SampleSize:          1000,
		SkipRatio:           0.05,
	}
}

type templateCluster struct {
	tuple []string
	count int
}

// Extract mines a dominant prefix template from lines (spec.md §4.9 steps
// 1-6). The bool return is false when no pattern meets even the fallback
// coverage threshold.
func Extract(lines []string, opts Options) (*PrefixPattern, bool) {
	if len(lines) == 0 {
		return nil, false
	}
	if opts.MaxPrefixTokens <= 0 {
		opts = DefaultOptions()
	}

	clusters := clusterLines(lines, opts)
	if len(clusters) == 0 {
		return nil, false
	}

	total := 0
	for _, c := range clusters {
		total += c.count
	}
	if total == 0 {
		return nil, false
	}

	best, bestCoverage, ok := longestQualifyingPrefix(clusters, total, opts)
	if !ok {
		return nil, false
	}

	regex := prefixToRegex(best)
	length := estimatePrefixLength(lines, regex)

	return &PrefixPattern{
		Pattern:      strings.Join(best, " "),
		Regex:        regex,
		Coverage:     bestCoverage,
		PrefixLength: length,
		TokenCount:   len(best),
	}, true
}

// clusterLines masks and tokenizes every non-empty line, greedily merging
// each line's prefix tuple into the nearest existing cluster when their
// edlib-scored similarity clears the threshold (standing in for the
// tree-structured template miner spec.md §4.9 step 2 describes — merging
// by string similarity on the masked prefix rather than a full trie).
func clusterLines(lines []string, opts Options) []*templateCluster {
	var clusters []*templateCluster

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		masked := mask(line)
		tokens := strings.Fields(masked)
		if len(tokens) > opts.MaxPrefixTokens {
			tokens = tokens[:opts.MaxPrefixTokens]
		}
		if len(tokens) == 0 {
			continue
		}
		key := strings.Join(tokens, " ")

		best := -1
		bestScore := 0.0
		for i, c := range clusters {
			// edlib.StringsSimilarity returns a similarity in [0, 1] for
			// every algorithm, Levenshtein included (1 means identical).
			sim, err := edlib.StringsSimilarity(key, strings.Join(c.tuple, " "), edlib.Levenshtein)
			if err != nil {
				continue
			}
			score := float64(sim)
			if score > bestScore {
				bestScore = score
				best = i
			}
		}

		if best >= 0 && bestScore >= 1.0-opts.SimilarityThreshold {
			clusters[best].count++
			continue
		}
		clusters = append(clusters, &templateCluster{tuple: tokens, count: 1})
	}

	return clusters
}

// longestQualifyingPrefix tries prefix lengths from opts.MaxPrefixTokens
// down to 1, returning the longest whose most-frequent tuple covers the
// coverage threshold; falls back to the single most common tuple at full
// length if it alone clears the fallback threshold (spec.md §4.9 step 4).
func longestQualifyingPrefix(clusters []*templateCluster, total int, opts Options) ([]string, float64, bool) {
	maxLen := opts.MaxPrefixTokens
	for _, c := range clusters {
		if len(c.tuple) > maxLen {
			maxLen = len(c.tuple)
		}
	}

	for prefixLen := maxLen; prefixLen >= 1; prefixLen-- {
		counts := map[string]int{}
		reps := map[string][]string{}
		for _, c := range clusters {
			n := prefixLen
			if n > len(c.tuple) {
				n = len(c.tuple)
			}
			short := c.tuple[:n]
			key := strings.Join(short, " ")
			counts[key] += c.count
			reps[key] = short
		}

		bestKey := ""
		bestCount := 0
		for k, n := range counts {
			if n > bestCount {
				bestCount = n
				bestKey = k
			}
		}
		if bestKey == "" {
			continue
		}
		coverage := float64(bestCount) / float64(total)
		if coverage >= opts.CoverageThreshold {
			return reps[bestKey], coverage, true
		}
	}

	// Fallback: the single most common full-length tuple, if it alone
	// clears the weaker threshold.
	sort.Slice(clusters, func(i, j int) bool { return clusters[i].count > clusters[j].count })
	top := clusters[0]
	coverage := float64(top.count) / float64(total)
	if coverage >= opts.FallbackThreshold {
		return top.tuple, coverage, true
	}
	return nil, 0, false
}

var (
	bareMaskPattern     = regexp.MustCompile(`^<[A-Z_]+>$`)
	embeddedMaskPattern = regexp.MustCompile(`<[A-Z_]+>`)
)

// prefixToRegex converts masked prefix tokens into an anchored regex
// (spec.md §4.9 step 5).
func prefixToRegex(tokens []string) string {
	var b strings.Builder
	b.WriteString("^")
	for i, tok := range tokens {
		b.WriteString(tokenRegex(tok))
		if i < len(tokens)-1 {
			b.WriteString(`\s+`)
		}
	}
	return b.String()
}

// tokenRegex converts one masked token, which may be a bare tag
// ("<DATE>") or a tag embedded in literal text ("daemon<NUM_ID>:"), into
// its matching regex fragment.
func tokenRegex(tok string) string {
	if bareMaskPattern.MatchString(tok) {
		if expr, ok := tokenToRegex[strings.Trim(tok, "<>")]; ok {
			return expr
		}
	}

	matches := embeddedMaskPattern.FindAllStringIndex(tok, -1)
	if len(matches) == 0 {
		return regexp.QuoteMeta(tok)
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		if m[0] > last {
			b.WriteString(regexp.QuoteMeta(tok[last:m[0]]))
		}
		tag := strings.Trim(tok[m[0]:m[1]], "<>")
		if expr, ok := tokenToRegex[tag]; ok {
			b.WriteString(expr)
		} else {
			b.WriteString(`\S+`)
		}
		last = m[1]
	}
	if last < len(tok) {
		b.WriteString(regexp.QuoteMeta(tok[last:]))
	}
	return b.String()
}

// estimatePrefixLength applies regex to the first 100 lines and returns
// the median match length in bytes (spec.md §4.9 step 6).
func estimatePrefixLength(lines []string, pattern string) int {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return 0
	}

	n := len(lines)
	if n > 100 {
		n = 100
	}

	var lengths []int
	for _, line := range lines[:n] {
		loc := re.FindStringIndex(line)
		if loc != nil {
			lengths = append(lengths, loc[1])
		}
	}
	if len(lengths) == 0 {
		return 0
	}
	sort.Ints(lengths)
	return lengths[len(lengths)/2]
}
