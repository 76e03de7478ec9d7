package sondage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stream(values ...float64) []PositionedValue {
	out := make([]PositionedValue, len(values))
	for i, v := range values {
		out[i] = PositionedValue{Y: float64(100 + 10*i), Value: v}
	}
	return out
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name         string
		in           []PositionedValue
		wantFirst    []float64
		wantSecond   []float64
		wantWarnings int
	}{
		{
			name:       "pairs from the tail",
			in:         stream(10, 20, 30, 40),
			wantFirst:  []float64{10, 30},
			wantSecond: []float64{20, 40},
		},
		{
			name:       "smaller reading goes first whatever its position",
			in:         stream(0.9, 0.4, 1.8, 2.5),
			wantFirst:  []float64{0.4, 1.8},
			wantSecond: []float64{0.9, 2.5},
		},
		{
			name:         "odd length drops the last value",
			in:           stream(1, 2, 3, 4, 5),
			wantFirst:    []float64{1, 3},
			wantSecond:   []float64{2, 4},
			wantWarnings: 1,
		},
		{
			name:       "empty stream",
			in:         nil,
			wantFirst:  []float64{},
			wantSecond: []float64{},
		},
		{
			name:         "single value",
			in:           stream(7),
			wantFirst:    []float64{},
			wantSecond:   []float64{},
			wantWarnings: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, second, warnings := Split(tt.in)
			assert.Equal(t, tt.wantFirst, Values(first))
			assert.Equal(t, tt.wantSecond, Values(second))
			assert.Len(t, warnings, tt.wantWarnings)
		})
	}
}

func TestSplit_KeepsOwnPositions(t *testing.T) {
	first, second, _ := Split([]PositionedValue{{Y: 10, Value: 5}, {Y: 20, Value: 1}})
	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, PositionedValue{Y: 20, Value: 1}, first[0])
	assert.Equal(t, PositionedValue{Y: 10, Value: 5}, second[0])
}

func TestSplit_EqualPair(t *testing.T) {
	// a tie is not "smaller", so the lower element of the pair goes first
	first, second, _ := Split([]PositionedValue{{Y: 10, Value: 1}, {Y: 20, Value: 1}})
	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, PositionedValue{Y: 20, Value: 1}, first[0])
	assert.Equal(t, PositionedValue{Y: 10, Value: 1}, second[0])
}

func TestSplit_DoesNotModifyInput(t *testing.T) {
	in := stream(4, 3, 2, 1)
	orig := append([]PositionedValue(nil), in...)
	Split(in)
	assert.Equal(t, orig, in)
}

func TestCheckMergedStreams(t *testing.T) {
	a := stream(1, 2, 3)

	assert.NoError(t, CheckMergedStreams(a, stream(1, 2, 3)))

	err := CheckMergedStreams(a, stream(1, 2))
	assert.ErrorIs(t, err, ErrInconsistentMerge)

	b := stream(1, 2, 3)
	b[1].Y = 999
	err = CheckMergedStreams(a, b)
	assert.ErrorIs(t, err, ErrInconsistentMerge)
}
