package sondage

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func word(text string, x0, x1, top float64) Token {
	return Token{Text: text, X0: x0, X1: x1, Top: top, Bottom: top + 8}
}

func TestTokenIndex_PositionOf(t *testing.T) {
	idx := NewTokenIndex([]Token{
		word("SP12", 20, 40, 10),
		word("  pf* ", 100, 110, 50),
		word("Pf*", 300, 310, 60),
		word("Module", 200, 230, 50),
	})

	tests := []struct {
		name    string
		keyword string
		want    Anchor
		found   bool
	}{
		{name: "case insensitive and trimmed, first match wins", keyword: "Pf*", want: Anchor{X: 105, Y: 50}, found: true},
		{name: "upper case query", keyword: "MODULE", want: Anchor{X: 215, Y: 50}, found: true},
		{name: "missing keyword", keyword: "Pl*", found: false},
		{name: "empty keyword", keyword: "  ", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := idx.PositionOf(tt.keyword)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.InDelta(t, tt.want.X, got.X, 1e-9)
				assert.InDelta(t, tt.want.Y, got.Y, 1e-9)
			}
		})
	}
}

func TestTokenIndex_PositionOfCompatibilityForms(t *testing.T) {
	// full width letters fold onto ASCII under NFKC
	idx := NewTokenIndex([]Token{word("Ｐｌ*", 10, 20, 30)})

	a, ok := idx.PositionOf("Pl*")
	require.True(t, ok)
	assert.InDelta(t, 15.0, a.X, 1e-9)
}

func TestTokenIndex_FindName(t *testing.T) {
	pattern := regexp.MustCompile(DefaultNamePattern)

	tests := []struct {
		name   string
		tokens []Token
		want   string
		found  bool
	}{
		{
			name:   "first exact match",
			tokens: []Token{word("Sondage", 0, 1, 0), word("SP3", 0, 1, 0), word("SP4", 0, 1, 0)},
			want:   "SP3",
			found:  true,
		},
		{
			name:   "substring does not count",
			tokens: []Token{word("SP12a", 0, 1, 0), word("xSP1", 0, 1, 0)},
			found:  false,
		},
		{
			name:   "too many digits",
			tokens: []Token{word("SP12345", 0, 1, 0)},
			found:  false,
		},
		{
			name:   "surrounding whitespace trimmed",
			tokens: []Token{word(" PR7 ", 0, 1, 0)},
			want:   "PR7",
			found:  true,
		},
		{
			name:  "no tokens",
			found: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NewTokenIndex(tt.tokens).FindName(pattern)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTokenIndex_FindNameUnanchoredPattern(t *testing.T) {
	// a pattern without anchors still has to cover the whole token
	idx := NewTokenIndex([]Token{word("SP12a", 0, 1, 0), word("SP12", 0, 1, 0)})

	got, ok := idx.FindName(regexp.MustCompile(`[A-Z]{2}\d{1,4}`))
	require.True(t, ok)
	assert.Equal(t, "SP12", got)
}

func TestIsMerged(t *testing.T) {
	tests := []struct {
		name      string
		a, b      Anchor
		threshold float64
		want      bool
	}{
		{name: "same column", a: Anchor{X: 100}, b: Anchor{X: 108}, threshold: 15, want: true},
		{name: "exactly on threshold", a: Anchor{X: 100}, b: Anchor{X: 115}, threshold: 15, want: true},
		{name: "separate columns", a: Anchor{X: 100}, b: Anchor{X: 140}, threshold: 15, want: false},
		{name: "zero threshold same x", a: Anchor{X: 50}, b: Anchor{X: 50}, threshold: 0, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsMerged(tt.a, tt.b, tt.threshold))
			assert.Equal(t, IsMerged(tt.a, tt.b, tt.threshold), IsMerged(tt.b, tt.a, tt.threshold), "must be symmetric")
		})
	}
}

func TestDetectMerge_MissingKeyword(t *testing.T) {
	idx := NewTokenIndex([]Token{word("Pf*", 100, 110, 50)})

	merged, err := DetectMerge(idx, "Pf*", "Pl*", 15)
	require.Error(t, err)
	assert.False(t, merged)
	assert.ErrorIs(t, err, ErrMissingKeyword)

	var serr *Error
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "Pl*", serr.Keyword)
}

func TestDetectMerge_Found(t *testing.T) {
	idx := NewTokenIndex([]Token{word("Pf*", 100, 110, 50), word("Pl*", 104, 116, 50)})

	merged, err := DetectMerge(idx, "Pf*", "Pl*", DefaultMergeThreshold)
	require.NoError(t, err)
	assert.True(t, merged)
}
