package sondage

import "math"

// IsMerged reports whether two keyword headers sit close enough horizontally
// for their values to share one column.
func IsMerged(a, b Anchor, threshold float64) bool {
	return math.Abs(a.X-b.X) <= threshold
}

// DetectMerge resolves both keywords on the page and applies IsMerged.
// A missing keyword is returned as an ErrMissingKeyword error; callers treat
// the pair as separate columns but must report it.
func DetectMerge(idx *TokenIndex, first, second string, threshold float64) (bool, error) {
	a, okA := idx.PositionOf(first)
	b, okB := idx.PositionOf(second)

	switch {
	case !okA && !okB:
		return false, NewError(ErrorTypeMissingKeyword,
			"cannot determine column merge, both keywords missing").WithKeyword(first + "," + second)
	case !okA:
		return false, NewError(ErrorTypeMissingKeyword,
			"cannot determine column merge").WithKeyword(first)
	case !okB:
		return false, NewError(ErrorTypeMissingKeyword,
			"cannot determine column merge").WithKeyword(second)
	}

	return IsMerged(a, b, threshold), nil
}
