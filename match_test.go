package diffmerge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchAlphabet(t *testing.T) {
	assert.Equal(t, map[rune]int{'a': 4, 'b': 2, 'c': 1}, matchAlphabet([]rune("abc")))
	assert.Equal(t, map[rune]int{'a': 37, 'b': 18, 'c': 8}, matchAlphabet([]rune("abcaba")))
}

func TestMatchBitap(t *testing.T) {
	tests := []struct {
		name      string
		distance  int
		threshold float64
		text      string
		pattern   string
		loc       int
		want      int
	}{
		{"exact match 1", 100, 0.5, "abcdefghijk", "fgh", 5, 5},
		{"exact match 2", 100, 0.5, "abcdefghijk", "fgh", 0, 5},
		{"fuzzy match 1", 100, 0.5, "abcdefghijk", "efxhi", 0, 4},
		{"fuzzy match 2", 100, 0.5, "abcdefghijk", "cdefxyhijk", 5, 2},
		{"fuzzy match 3", 100, 0.5, "abcdefghijk", "bxy", 1, -1},
		{"overflow", 100, 0.5, "123456789xx0", "3456789x0", 2, 2},
		{"before start match", 100, 0.5, "abcdef", "xxabc", 4, 0},
		{"beyond end match", 100, 0.5, "abcdef", "defyy", 4, 3},
		{"oversized pattern", 100, 0.5, "abcdef", "xabcdefy", 0, 0},
		{"threshold 1", 100, 0.4, "abcdefghijk", "efxyhi", 1, 4},
		{"threshold 2", 100, 0.3, "abcdefghijk", "efxyhi", 1, -1},
		{"threshold 3", 100, 0.0, "abcdefghijk", "bcdef", 1, 1},
		{"multiple select 1", 100, 0.5, "abcdexyzabcde", "abccde", 3, 0},
		{"multiple select 2", 100, 0.5, "abcdexyzabcde", "abccde", 5, 8},
		{"strict location 1", 10, 0.5, "abcdefghijklmnopqrstuvwxyz", "abcdefg", 24, -1},
		{"strict location 2", 10, 0.5, "abcdefghijklmnopqrstuvwxyz", "abcdxxefg", 1, 0},
		{"loose location", 1000, 0.5, "abcdefghijklmnopqrstuvwxyz", "abcdefg", 24, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(WithMatchDistance(tt.distance), WithMatchThreshold(tt.threshold))
			assert.Equal(t, tt.want, e.matchBitap([]rune(tt.text), []rune(tt.pattern), tt.loc))
		})
	}
}

func TestMatchMain(t *testing.T) {
	tests := []struct {
		name      string
		threshold float64
		text      string
		pattern   string
		loc       int
		want      int
	}{
		{"equality", 0.5, "abcdef", "abcdef", 1000, 0},
		{"null text", 0.5, "", "abcdef", 1, -1},
		{"null pattern", 0.5, "abcdef", "", 3, 3},
		{"exact match", 0.5, "abcdef", "de", 3, 3},
		{"beyond end match", 0.5, "abcdef", "defy", 4, 3},
		{"oversized pattern", 0.5, "abcdef", "abcdefy", 0, 0},
		{"complex match", 0.7, "I am the very model of a modern major general.", " that berry ", 5, 4},
		{"location past the end", 0.5, "abcdef", "ef", 100, 4},
		{"multibyte runes", 0.5, "日本語のテキスト", "テキ", 0, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(WithMatchThreshold(tt.threshold))
			got, err := e.MatchMain(tt.text, tt.pattern, tt.loc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatchMain_PatternTooLong(t *testing.T) {
	e := New()
	long := strings.Repeat("x", MatchMaxBits+8)

	_, err := e.MatchMain("abc", long, 0)
	require.Error(t, err)
	assert.True(t, IsInvalidArgument(err))
	var me *Error
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "match_main", me.Op)
	length, ok := me.Field("length")
	require.True(t, ok)
	assert.Equal(t, MatchMaxBits+8, length)

	// An exact hit needs no bitap search, so length does not matter.
	got, err := e.MatchMain(long+"y", long, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, got)
}

func TestBitapScorer(t *testing.T) {
	s := bitapScorer{patternLen: 4, loc: 10, distance: 100}
	assert.InDelta(t, 0.0, s.score(0, 10), 1e-9)
	assert.InDelta(t, 0.25, s.score(1, 10), 1e-9)
	assert.InDelta(t, 0.35, s.score(1, 20), 1e-9)

	strict := bitapScorer{patternLen: 4, loc: 10}
	assert.InDelta(t, 0.5, strict.score(2, 10), 1e-9)
	assert.InDelta(t, 1.0, strict.score(0, 11), 1e-9)
}
