// Package review holds the manual review step between extraction and
// export: edit operations on sondage columns and the YAML session file
// that carries the review state between runs.
package review

import (
	"fmt"
	"strings"

	"github.com/a3tai/mcp-sondage-reader/internal/sondage"
)

// Op is a review edit operation
type Op string

const (
	OpDelete Op = "delete"
	OpInsert Op = "insert"
	OpAppend Op = "append"
	OpNull   Op = "null"
	OpSet    Op = "set"
	OpMove   Op = "move"
)

// ParseOp validates an operation name
func ParseOp(s string) (Op, error) {
	op := Op(strings.ToLower(strings.TrimSpace(s)))
	switch op {
	case OpDelete, OpInsert, OpAppend, OpNull, OpSet, OpMove:
		return op, nil
	default:
		return "", fmt.Errorf("unknown edit operation %q (want delete, insert, append, null, set or move)", s)
	}
}

// Edit is one change to a column of a sondage. Value nil stands for an
// empty cell; To is only used by move.
type Edit struct {
	Sondage string   `json:"sondage" yaml:"sondage"`
	Column  string   `json:"column" yaml:"column"`
	Op      Op       `json:"op" yaml:"op"`
	Index   int      `json:"index,omitempty" yaml:"index,omitempty"`
	To      int      `json:"to,omitempty" yaml:"to,omitempty"`
	Value   *float64 `json:"value,omitempty" yaml:"value,omitempty"`
}

func (e Edit) String() string {
	switch e.Op {
	case OpAppend:
		return fmt.Sprintf("%s %s/%s %s", e.Op, e.Sondage, e.Column, formatValue(e.Value))
	case OpInsert, OpSet:
		return fmt.Sprintf("%s %s/%s[%d] %s", e.Op, e.Sondage, e.Column, e.Index, formatValue(e.Value))
	case OpMove:
		return fmt.Sprintf("%s %s/%s[%d] -> [%d]", e.Op, e.Sondage, e.Column, e.Index, e.To)
	default:
		return fmt.Sprintf("%s %s/%s[%d]", e.Op, e.Sondage, e.Column, e.Index)
	}
}

func formatValue(v *float64) string {
	if v == nil {
		return "empty"
	}
	return fmt.Sprintf("%g", *v)
}

// Apply performs the edit on store. Editing a validated sondage withdraws
// its validation.
func Apply(store *sondage.Store, e Edit) error {
	col, err := store.Edit(e.Sondage, e.Column)
	if err != nil {
		return err
	}

	switch e.Op {
	case OpDelete:
		err = col.Delete(e.Index)
	case OpInsert:
		err = col.Insert(e.Index, e.Value)
	case OpAppend:
		col.Append(e.Value)
	case OpNull:
		err = col.SetNull(e.Index)
	case OpSet:
		err = col.Set(e.Index, e.Value)
	case OpMove:
		err = col.Move(e.Index, e.To)
	default:
		err = fmt.Errorf("unknown edit operation %q", e.Op)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", e, err)
	}

	if store.IsValidated(e.Sondage) {
		return store.Reopen(e.Sondage)
	}
	return nil
}

// ApplyAll applies edits in order and stops at the first failure
func ApplyAll(store *sondage.Store, edits []Edit) error {
	for i, e := range edits {
		if err := Apply(store, e); err != nil {
			return fmt.Errorf("edit %d: %w", i+1, err)
		}
	}
	return nil
}

// ValidateAll validates every pending sondage and returns the failures by
// name. Sondages that pass are validated in encounter order.
func ValidateAll(store *sondage.Store) map[string]error {
	failures := make(map[string]error)
	for _, name := range store.Pending() {
		if err := store.Validate(name); err != nil {
			failures[name] = err
		}
	}
	return failures
}
