package rxtypes

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFileIdentity_Equal(t *testing.T) {
	now := time.Now()
	a := FileIdentity{SizeBytes: 100, ModifiedAt: now}
	b := FileIdentity{SizeBytes: 100, ModifiedAt: now}
	c := FileIdentity{SizeBytes: 101, ModifiedAt: now}
	d := FileIdentity{SizeBytes: 100, ModifiedAt: now.Add(time.Second)}

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(d))
}

func TestMatchingFlags_Sorted(t *testing.T) {
	flags := MatchingFlags{IgnoreCase: true, FixedStrings: true, WholeWord: true}
	got := flags.Sorted()
	assert.ElementsMatch(t, []string{"-i", "-F", "-w"}, got)
}

func TestMatchingFlags_Sorted_Empty(t *testing.T) {
	assert.Empty(t, MatchingFlags{}.Sorted())
}

func TestMatchingFlags_Sorted_Stable(t *testing.T) {
	flags := MatchingFlags{IgnoreCase: true, PCRE2: true}
	first := flags.Sorted()
	second := flags.Sorted()
	assert.Equal(t, first, second)
}
