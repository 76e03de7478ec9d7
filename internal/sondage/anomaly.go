package sondage

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Spacing band around the median pitch of a column
var (
	lowerBandFactor = decimal.RequireFromString("0.7")
	upperBandFactor = decimal.RequireFromString("1.3")
)

// minAnomalySamples is the shortest sequence with meaningful spacing statistics
const minAnomalySamples = 3

// Detection is the outcome of spacing analysis over one column
type Detection struct {
	Values   Sequence `json:"values"`
	Warnings []string `json:"warnings,omitempty"`
	Flagged  []int    `json:"flagged,omitempty"`
	// MedianDY is zero when the sequence was too short to analyse
	MedianDY decimal.Decimal `json:"median_dy"`
}

// DetectAnomalies compares each vertical step of the column with the median
// step. A step wider than 1.3x the median means a reading is missing and a
// nil gap is inserted after the current value. A step narrower than 0.7x the
// median flags both neighbours as a possible duplicate or misread.
// Sequences shorter than three values are returned unchanged.
func DetectAnomalies(keyword string, values []PositionedValue) Detection {
	if len(values) < minAnomalySamples {
		out := make(Sequence, len(values))
		for i, pv := range values {
			out[i] = Float(pv.Value)
		}
		return Detection{Values: out}
	}

	sorted := make([]PositionedValue, len(values))
	copy(sorted, values)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Y < sorted[j].Y
	})

	deltas := make([]decimal.Decimal, len(sorted)-1)
	for i := range deltas {
		deltas[i] = decimal.NewFromFloat(sorted[i+1].Y).Sub(decimal.NewFromFloat(sorted[i].Y))
	}

	median := medianOf(deltas)
	minDY := median.Mul(lowerBandFactor)
	maxDY := median.Mul(upperBandFactor)

	det := Detection{
		Values:   make(Sequence, 0, len(sorted)+1),
		MedianDY: median,
	}

	for i, dy := range deltas {
		cur, next := sorted[i], sorted[i+1]
		det.Values = append(det.Values, Float(cur.Value))

		switch {
		case dy.GreaterThan(maxDY):
			det.Values = append(det.Values, nil)
			det.Warnings = append(det.Warnings, fmt.Sprintf(
				"gap detected for '%s' between %v and %v (dy = %s pts, median %s pts)",
				keyword, cur.Value, next.Value, dy.StringFixed(1), median.StringFixed(2)))
		case dy.LessThan(minDY):
			last := len(det.Values) - 1
			det.Flagged = append(det.Flagged, last, last+1)
			det.Warnings = append(det.Warnings, fmt.Sprintf(
				"spacing too small for '%s' between %v and %v (dy = %s pts, median %s pts)",
				keyword, cur.Value, next.Value, dy.StringFixed(1), median.StringFixed(2)))
		}
	}

	det.Values = append(det.Values, Float(sorted[len(sorted)-1].Value))
	return det
}

// medianOf returns the median of a non empty slice without modifying it
func medianOf(ds []decimal.Decimal) decimal.Decimal {
	s := make([]decimal.Decimal, len(ds))
	copy(s, ds)
	sort.Slice(s, func(i, j int) bool { return s[i].LessThan(s[j]) })

	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return s[mid-1].Add(s[mid]).Div(decimal.NewFromInt(2))
}
