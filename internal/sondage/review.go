package sondage

import (
	"fmt"
	"sort"
)

// ReviewColumn is one editable sequence of a borehole together with its
// automatic anomaly flags and the audit log of indices touched by manual
// edits. A flag whose index has been touched is no longer shown.
type ReviewColumn struct {
	Values  Sequence `json:"values" yaml:"values"`
	Flags   []int    `json:"flags,omitempty" yaml:"flags,omitempty"`
	Touched []int    `json:"touched,omitempty" yaml:"touched,omitempty"`
}

// NewReviewColumn wraps a sequence and its flags
func NewReviewColumn(values Sequence, flags []int) *ReviewColumn {
	c := &ReviewColumn{Values: values}
	c.addFlags(flags, 0)
	return c
}

// Len returns the number of entries
func (c *ReviewColumn) Len() int {
	return len(c.Values)
}

// appendPage concatenates a page sequence, shifting its flags by the prior length
func (c *ReviewColumn) appendPage(values Sequence, flags []int) {
	offset := len(c.Values)
	c.Values = append(c.Values, values...)
	c.addFlags(flags, offset)
}

func (c *ReviewColumn) addFlags(flags []int, offset int) {
	for _, f := range flags {
		c.Flags = insertSorted(c.Flags, f+offset)
	}
}

// VisibleFlags returns the flagged indices that no manual edit has touched
func (c *ReviewColumn) VisibleFlags() []int {
	visible := make([]int, 0, len(c.Flags))
	for _, f := range c.Flags {
		if f < len(c.Values) && !c.isTouched(f) {
			visible = append(visible, f)
		}
	}
	return visible
}

func (c *ReviewColumn) isTouched(i int) bool {
	for _, t := range c.Touched {
		if t == i {
			return true
		}
	}
	return false
}

// touch records index i in the audit log, once
func (c *ReviewColumn) touch(i int) {
	if !c.isTouched(i) {
		c.Touched = append(c.Touched, i)
	}
}

// shiftTouched moves every touched index >= from by delta, keeping log
// order and dropping entries that land on an index already logged
func (c *ReviewColumn) shiftTouched(from, delta int) {
	if len(c.Touched) == 0 {
		return
	}
	touched := make([]int, 0, len(c.Touched))
	seen := make(map[int]bool, len(c.Touched))
	for _, t := range c.Touched {
		if t >= from {
			t += delta
		}
		if !seen[t] {
			seen[t] = true
			touched = append(touched, t)
		}
	}
	c.Touched = touched
}

func (c *ReviewColumn) checkIndex(i int) error {
	if i < 0 || i >= len(c.Values) {
		return fmt.Errorf("index %d out of range [0, %d)", i, len(c.Values))
	}
	return nil
}

// Delete removes entry i. Flags and touched indices above i move down by
// one, a flag on i itself disappears and i stays touched.
func (c *ReviewColumn) Delete(i int) error {
	if err := c.checkIndex(i); err != nil {
		return err
	}
	c.Values = append(c.Values[:i], c.Values[i+1:]...)

	flags := c.Flags[:0]
	for _, f := range c.Flags {
		switch {
		case f < i:
			flags = append(flags, f)
		case f > i:
			flags = append(flags, f-1)
		}
	}
	c.Flags = flags
	c.shiftTouched(i+1, -1)
	c.touch(i)
	return nil
}

// Insert places v (nil for a gap) at index i, shifting later entries, flags
// and touched indices up by one. i == Len() appends.
func (c *ReviewColumn) Insert(i int, v *float64) error {
	if i < 0 || i > len(c.Values) {
		return fmt.Errorf("index %d out of range [0, %d]", i, len(c.Values))
	}
	c.Values = append(c.Values, nil)
	copy(c.Values[i+1:], c.Values[i:])
	c.Values[i] = v

	for k, f := range c.Flags {
		if f >= i {
			c.Flags[k] = f + 1
		}
	}
	c.shiftTouched(i, 1)
	c.touch(i)
	return nil
}

// Append adds v at the end
func (c *ReviewColumn) Append(v *float64) {
	_ = c.Insert(len(c.Values), v)
}

// SetNull replaces entry i by a gap
func (c *ReviewColumn) SetNull(i int) error {
	return c.Set(i, nil)
}

// Set replaces entry i
func (c *ReviewColumn) Set(i int, v *float64) error {
	if err := c.checkIndex(i); err != nil {
		return err
	}
	c.Values[i] = v
	c.touch(i)
	return nil
}

// Move takes entry from and reinserts it at to. Flags keep their positions,
// so every index from from to to joins the touched log and no flag is left
// pointing at a shifted value.
func (c *ReviewColumn) Move(from, to int) error {
	if err := c.checkIndex(from); err != nil {
		return err
	}
	if err := c.checkIndex(to); err != nil {
		return err
	}
	if from == to {
		return nil
	}

	item := c.Values[from]
	c.Values = append(c.Values[:from], c.Values[from+1:]...)
	c.Values = append(c.Values, nil)
	copy(c.Values[to+1:], c.Values[to:])
	c.Values[to] = item

	step := 1
	if to < from {
		step = -1
	}
	for k := from; k != to+step; k += step {
		c.touch(k)
	}
	return nil
}

// Clone returns a deep copy
func (c *ReviewColumn) Clone() *ReviewColumn {
	return &ReviewColumn{
		Values:  c.Values.Clone(),
		Flags:   append([]int(nil), c.Flags...),
		Touched: append([]int(nil), c.Touched...),
	}
}

func insertSorted(s []int, v int) []int {
	i := sort.SearchInts(s, v)
	if i < len(s) && s[i] == v {
		return s
	}
	s = append(s, 0)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}
