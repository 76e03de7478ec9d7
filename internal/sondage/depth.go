package sondage

import (
	"context"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// depthPrecision is the number of decimal places kept on ladder values
const depthPrecision = 3

// MaxLadderLength bounds the number of depths a range may generate
const MaxLadderLength = 100_000

// DepthRange is a user declared depth ladder: start, end and step in metres
type DepthRange struct {
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
	Step  float64 `json:"step" yaml:"step"`
}

// Validate checks the values are finite, start < end and step > 0
func (r DepthRange) Validate() error {
	for _, v := range []float64{r.Start, r.End, r.Step} {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return NewError(ErrorTypeInvalidDepthParameters,
				fmt.Sprintf("depth values must be finite, got start=%v end=%v step=%v", r.Start, r.End, r.Step))
		}
	}
	if !(r.Start < r.End) || !(r.Step > 0) {
		return NewError(ErrorTypeInvalidDepthParameters,
			fmt.Sprintf("need start < end and step > 0, got start=%v end=%v step=%v", r.Start, r.End, r.Step))
	}
	return nil
}

// Ladder generates the depth values of the range
func (r DepthRange) Ladder() ([]float64, error) {
	return GenerateDepths(r.Start, r.End, r.Step)
}

// GenerateDepths returns start + i*step for i = 0..floor((end-start)/step),
// each rounded to three decimals. The arithmetic is decimal so the end value
// is included exactly when it is reachable and never appended otherwise.
func GenerateDepths(start, end, step float64) ([]float64, error) {
	r := DepthRange{Start: start, End: end, Step: step}
	if err := r.Validate(); err != nil {
		return nil, err
	}

	s := decimal.NewFromFloat(start)
	e := decimal.NewFromFloat(end)
	st := decimal.NewFromFloat(step)

	steps := e.Sub(s).Div(st).Floor()
	if steps.GreaterThanOrEqual(decimal.NewFromInt(MaxLadderLength)) {
		return nil, NewError(ErrorTypeInvalidDepthParameters,
			fmt.Sprintf("range %v to %v step %v gives more than %d depths", start, end, step, MaxLadderLength))
	}
	count := steps.IntPart()
	depths := make([]float64, 0, count+1)
	for i := int64(0); i <= count; i++ {
		v := s.Add(st.Mul(decimal.NewFromInt(i))).Round(depthPrecision)
		depths = append(depths, v.InexactFloat64())
	}
	return depths, nil
}

// DepthSource supplies the depth range of a newly encountered borehole.
// It is called once per distinct name and may block on user input.
// Returning an error aborts the run.
type DepthSource interface {
	DepthRange(ctx context.Context, sondage string) (DepthRange, error)
}

// DepthSourceFunc adapts a function to DepthSource
type DepthSourceFunc func(ctx context.Context, sondage string) (DepthRange, error)

// DepthRange implements DepthSource
func (f DepthSourceFunc) DepthRange(ctx context.Context, sondage string) (DepthRange, error) {
	return f(ctx, sondage)
}

// FixedDepth returns a DepthSource answering every borehole with the same range
func FixedDepth(r DepthRange) DepthSource {
	return DepthSourceFunc(func(context.Context, string) (DepthRange, error) {
		return r, nil
	})
}

// MaxDepthAttempts bounds how often a source is asked again after answering
// with invalid parameters.
const MaxDepthAttempts = 5

// RequestLadder asks src for a range until it produces a valid ladder.
// Invalid parameters are never replaced by defaults: the source is asked
// again, with onInvalid told why, up to MaxDepthAttempts times. A source
// error or a cancelled context ends the loop.
func RequestLadder(ctx context.Context, src DepthSource, sondage string, onInvalid func(error)) (DepthRange, []float64, error) {
	var lastErr error
	for attempt := 0; attempt < MaxDepthAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return DepthRange{}, nil, err
		}

		r, err := src.DepthRange(ctx, sondage)
		if err != nil {
			return DepthRange{}, nil, fmt.Errorf("depth range for %s: %w", sondage, err)
		}

		ladder, err := r.Ladder()
		if err == nil {
			return r, ladder, nil
		}
		lastErr = err
		if onInvalid != nil {
			onInvalid(err)
		}
	}

	e := NewError(ErrorTypeInvalidDepthParameters,
		fmt.Sprintf("no valid depth range after %d attempts", MaxDepthAttempts)).WithSondage(sondage)
	e.Err = lastErr
	return DepthRange{}, nil, e
}
