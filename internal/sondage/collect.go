package sondage

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// ParseNumber reads a token as a decimal number. Both "1,25" and "1.25" are
// accepted. Non numeric tokens return false and are simply not candidates.
func ParseNumber(text string) (float64, bool) {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Collect gathers the numeric tokens inside the keyword's tolerance window:
// horizontal centre within [x-left, x+right] of the anchor and top strictly
// more than MinDY below it. The result is sorted by vertical position.
// There is no lower bound, the whole column under the header is taken.
func Collect(idx *TokenIndex, kw Keyword) []PositionedValue {
	anchor, ok := idx.PositionOf(kw.Label)
	if !ok {
		return []PositionedValue{}
	}
	return CollectAt(idx, anchor, kw.Tolerance)
}

// CollectAt is Collect with an already resolved anchor
func CollectAt(idx *TokenIndex, anchor Anchor, tol ToleranceWindow) []PositionedValue {
	values := []PositionedValue{}
	for _, t := range idx.Tokens() {
		v, ok := ParseNumber(t.Text)
		if !ok {
			continue
		}

		xc := t.CenterX()
		if xc < anchor.X-tol.Left || xc > anchor.X+tol.Right {
			continue
		}
		if !(t.Top > anchor.Y+tol.MinDY) {
			continue
		}
		values = append(values, PositionedValue{Y: t.Top, Value: v})
	}

	sort.SliceStable(values, func(i, j int) bool {
		return values[i].Y < values[j].Y
	})
	return values
}
