package sondage

// Default keyword labels of a pressuremeter report
const (
	KeywordPf     = "Pf*"
	KeywordPl     = "Pl*"
	KeywordModule = "Module"

	// ColumnDepth is the pseudo column holding the depth ladder
	ColumnDepth = "Depth"

	DefaultMergeThreshold = 15.0
)

// Token is a positioned word of a page, in PDF points with a top-left origin.
type Token struct {
	Text   string  `json:"text" yaml:"text"`
	X0     float64 `json:"x0" yaml:"x0"`
	X1     float64 `json:"x1" yaml:"x1"`
	Top    float64 `json:"top" yaml:"top"`
	Bottom float64 `json:"bottom" yaml:"bottom"`
}

// CenterX returns the horizontal centre of the token
func (t Token) CenterX() float64 {
	return (t.X0 + t.X1) / 2
}

// Anchor is the reference position of a keyword header
type Anchor struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ToleranceWindow bounds the area below a keyword where values are collected
type ToleranceWindow struct {
	Left  float64 `json:"left" yaml:"left" mapstructure:"left"`
	Right float64 `json:"right" yaml:"right" mapstructure:"right"`
	MinDY float64 `json:"min_dy" yaml:"min_dy" mapstructure:"min_dy"`
}

// DefaultTolerance is used for keywords without an explicit window
var DefaultTolerance = ToleranceWindow{Left: 10, Right: 30, MinDY: 50}

// Keyword is a column header label with its collection window
type Keyword struct {
	Label     string          `json:"label" yaml:"label"`
	Tolerance ToleranceWindow `json:"tolerance" yaml:"tolerance"`
}

// DefaultKeywords returns the Pf*, Pl*, Module set used by the survey reports
func DefaultKeywords() []Keyword {
	return []Keyword{
		{Label: KeywordPf, Tolerance: ToleranceWindow{Left: 10, Right: 30, MinDY: 50}},
		{Label: KeywordPl, Tolerance: ToleranceWindow{Left: 10, Right: 30, MinDY: 50}},
		{Label: KeywordModule, Tolerance: ToleranceWindow{Left: 10, Right: 54, MinDY: 50}},
	}
}

// PositionedValue is a numeric token reading with its vertical anchor
type PositionedValue struct {
	Y     float64 `json:"y"`
	Value float64 `json:"value"`
}

// Sequence is an ordered list of readings; a nil entry marks an inferred gap.
type Sequence []*float64

// Float returns a pointer to v, for building sequences
func Float(v float64) *float64 {
	return &v
}

// SequenceOf builds a Sequence without gaps
func SequenceOf(values ...float64) Sequence {
	seq := make(Sequence, len(values))
	for i, v := range values {
		seq[i] = Float(v)
	}
	return seq
}

// Clone returns a deep copy of the sequence
func (s Sequence) Clone() Sequence {
	if s == nil {
		return nil
	}
	out := make(Sequence, len(s))
	for i, v := range s {
		if v != nil {
			out[i] = Float(*v)
		}
	}
	return out
}

// Gaps returns the number of nil entries
func (s Sequence) Gaps() int {
	n := 0
	for _, v := range s {
		if v == nil {
			n++
		}
	}
	return n
}

// Values returns the readings of positioned values in order
func Values(pvs []PositionedValue) []float64 {
	out := make([]float64, len(pvs))
	for i, pv := range pvs {
		out[i] = pv.Value
	}
	return out
}
