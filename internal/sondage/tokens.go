package sondage

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// DefaultNamePattern matches borehole identifiers such as SP12: two letters
// followed by one to four digits.
const DefaultNamePattern = `^[A-Za-z]{2}\d{1,4}$`

// TokenIndex answers keyword position and name queries over one page.
// Tokens are kept in document order and never modified.
type TokenIndex struct {
	tokens []Token
	folded []string
}

// NewTokenIndex builds an index over the tokens of a page
func NewTokenIndex(tokens []Token) *TokenIndex {
	folder := cases.Fold()
	folded := make([]string, len(tokens))
	for i, t := range tokens {
		folded[i] = folder.String(normalizeText(t.Text))
	}
	return &TokenIndex{tokens: tokens, folded: folded}
}

// normalizeText trims the token and maps compatibility forms (full width
// digits, the asterisk operator) onto their plain equivalents.
func normalizeText(s string) string {
	return strings.TrimSpace(norm.NFKC.String(s))
}

// Tokens returns the indexed tokens in document order
func (ti *TokenIndex) Tokens() []Token {
	return ti.tokens
}

// Len returns the number of tokens
func (ti *TokenIndex) Len() int {
	return len(ti.tokens)
}

// Find returns the first token whose text equals label, ignoring case and
// surrounding whitespace.
func (ti *TokenIndex) Find(label string) (Token, bool) {
	want := cases.Fold().String(normalizeText(label))
	if want == "" {
		return Token{}, false
	}
	for i, f := range ti.folded {
		if f == want {
			return ti.tokens[i], true
		}
	}
	return Token{}, false
}

// PositionOf returns the anchor of a keyword: horizontal centre and top edge
// of its first matching token.
func (ti *TokenIndex) PositionOf(label string) (Anchor, bool) {
	t, ok := ti.Find(label)
	if !ok {
		return Anchor{}, false
	}
	return Anchor{X: t.CenterX(), Y: t.Top}, true
}

// Positions returns the anchors of every keyword found on the page
func (ti *TokenIndex) Positions(keywords []Keyword) map[string]Anchor {
	out := make(map[string]Anchor, len(keywords))
	for _, kw := range keywords {
		if a, ok := ti.PositionOf(kw.Label); ok {
			out[kw.Label] = a
		}
	}
	return out
}

// FindName returns the first token text fully matching pattern
func (ti *TokenIndex) FindName(pattern *regexp.Regexp) (string, bool) {
	if pattern == nil {
		return "", false
	}
	for _, t := range ti.tokens {
		text := strings.TrimSpace(t.Text)
		if text == "" {
			continue
		}
		if loc := pattern.FindStringIndex(text); loc != nil && loc[0] == 0 && loc[1] == len(text) {
			return text, true
		}
	}
	return "", false
}
