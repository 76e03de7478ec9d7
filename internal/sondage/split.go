package sondage

import "fmt"

// CheckMergedStreams verifies that two keywords judged to share a column
// produced the very same candidate stream. Anything else means the page
// layout is not what the splitter expects and the page must be skipped.
func CheckMergedStreams(first, second []PositionedValue) error {
	if len(first) != len(second) {
		return NewError(ErrorTypeInconsistentMerge,
			fmt.Sprintf("merged streams have %d and %d values", len(first), len(second)))
	}
	for i := range first {
		if first[i] != second[i] {
			return NewError(ErrorTypeInconsistentMerge,
				fmt.Sprintf("merged streams differ at index %d (%v vs %v)", i, first[i], second[i]))
		}
	}
	return nil
}

// Split de-interleaves a merged Pf*/Pl* stream. Pairs are taken from the end
// of the stream backwards; in each pair the smaller reading belongs to the
// first keyword and the larger to the second; on a tie the lower element goes
// first. Both results are returned top to bottom. An odd trailing element is
// dropped with a warning.
func Split(stream []PositionedValue) (first, second []PositionedValue, warnings []string) {
	n := len(stream)
	if n%2 != 0 {
		dropped := stream[n-1]
		warnings = append(warnings,
			fmt.Sprintf("merged stream has odd length %d, dropping last value %v (y=%.1f)", n, dropped.Value, dropped.Y))
		n--
	}

	first = make([]PositionedValue, 0, n/2)
	second = make([]PositionedValue, 0, n/2)
	for i := n - 2; i >= 0; i -= 2 {
		a, b := stream[i], stream[i+1]
		if a.Value < b.Value {
			first = append(first, a)
			second = append(second, b)
		} else {
			first = append(first, b)
			second = append(second, a)
		}
	}

	reverse(first)
	reverse(second)
	return first, second, warnings
}

func reverse(pvs []PositionedValue) {
	for i, j := 0, len(pvs)-1; i < j; i, j = i+1, j-1 {
		pvs[i], pvs[j] = pvs[j], pvs[i]
	}
}
