package review

import (
	"context"
	"testing"

	"github.com/a3tai/mcp-sondage-reader/internal/sondage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newStore holds one sondage with a 4-entry depth ladder, one Pf* reading
// short and a flagged pair at 1 and 2
func newStore(t *testing.T) *sondage.Store {
	t.Helper()
	store := sondage.NewStore([]string{sondage.KeywordPf, sondage.KeywordPl}, nil)
	page := sondage.PageResult{
		Page: 1,
		Sequences: map[string]sondage.Sequence{
			sondage.KeywordPf: sondage.SequenceOf(0.4, 0.5, 0.52, 0.7, 0.8),
			sondage.KeywordPl: sondage.SequenceOf(1.0, 1.2, 1.4, 1.6),
		},
		Flags: map[string][]int{sondage.KeywordPf: {1, 2}},
	}
	require.NoError(t, store.Merge(context.Background(), "SP1", page,
		sondage.FixedDepth(sondage.DepthRange{Start: 1, End: 2.5, Step: 0.5})))
	return store
}

func TestParseOp(t *testing.T) {
	for _, s := range []string{"delete", "INSERT", " append ", "null", "set", "move"} {
		_, err := ParseOp(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseOp("swap")
	assert.Error(t, err)
}

func TestApply(t *testing.T) {
	tests := []struct {
		name       string
		edit       Edit
		wantValues sondage.Sequence
		wantFlags  []int
	}{
		{
			name:       "delete duplicate",
			edit:       Edit{Op: OpDelete, Index: 2},
			wantValues: sondage.SequenceOf(0.4, 0.5, 0.7, 0.8),
			wantFlags:  []int{1},
		},
		{
			name:       "insert gap",
			edit:       Edit{Op: OpInsert, Index: 0},
			wantValues: sondage.Sequence{nil, sondage.Float(0.4), sondage.Float(0.5), sondage.Float(0.52), sondage.Float(0.7), sondage.Float(0.8)},
			wantFlags:  []int{2, 3},
		},
		{
			name:       "append value",
			edit:       Edit{Op: OpAppend, Value: sondage.Float(0.9)},
			wantValues: sondage.SequenceOf(0.4, 0.5, 0.52, 0.7, 0.8, 0.9),
			wantFlags:  []int{1, 2},
		},
		{
			name:       "null hides flag",
			edit:       Edit{Op: OpNull, Index: 2},
			wantValues: sondage.Sequence{sondage.Float(0.4), sondage.Float(0.5), nil, sondage.Float(0.7), sondage.Float(0.8)},
			wantFlags:  []int{1},
		},
		{
			name:       "set value",
			edit:       Edit{Op: OpSet, Index: 4, Value: sondage.Float(0.85)},
			wantValues: sondage.SequenceOf(0.4, 0.5, 0.52, 0.7, 0.85),
			wantFlags:  []int{1, 2},
		},
		{
			name:       "move hides flags on shifted values",
			edit:       Edit{Op: OpMove, Index: 0, To: 4},
			wantValues: sondage.SequenceOf(0.5, 0.52, 0.7, 0.8, 0.4),
			wantFlags:  []int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStore(t)
			tt.edit.Sondage = "SP1"
			tt.edit.Column = sondage.KeywordPf

			require.NoError(t, Apply(store, tt.edit))

			col, err := store.Edit("SP1", sondage.KeywordPf)
			require.NoError(t, err)
			assert.Equal(t, tt.wantValues, col.Values)
			assert.Equal(t, tt.wantFlags, col.VisibleFlags())
		})
	}
}

func TestApply_Errors(t *testing.T) {
	store := newStore(t)

	assert.Error(t, Apply(store, Edit{Sondage: "SP9", Column: sondage.KeywordPf, Op: OpDelete}))
	assert.Error(t, Apply(store, Edit{Sondage: "SP1", Column: "Module", Op: OpDelete}))
	assert.Error(t, Apply(store, Edit{Sondage: "SP1", Column: sondage.KeywordPf, Op: "swap"}))

	err := Apply(store, Edit{Sondage: "SP1", Column: sondage.KeywordPf, Op: OpDelete, Index: 9})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delete SP1/Pf*[9]")
}

func TestApply_ReopensValidated(t *testing.T) {
	store := newStore(t)
	require.NoError(t, Apply(store, Edit{Sondage: "SP1", Column: sondage.KeywordPf, Op: OpDelete, Index: 2}))
	require.NoError(t, store.Validate("SP1"))

	require.NoError(t, Apply(store, Edit{Sondage: "SP1", Column: sondage.ColumnDepth, Op: OpSet, Index: 0, Value: sondage.Float(1.1)}))
	assert.False(t, store.IsValidated("SP1"))
}

func TestApplyAllAndValidateAll(t *testing.T) {
	store := newStore(t)

	failures := ValidateAll(store)
	require.Contains(t, failures, "SP1")
	assert.ErrorIs(t, failures["SP1"], sondage.ErrLengthMismatch)

	err := ApplyAll(store, []Edit{
		{Sondage: "SP1", Column: sondage.KeywordPf, Op: OpDelete, Index: 2},
		{Sondage: "SP1", Column: sondage.KeywordPf, Op: OpDelete, Index: 40},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "edit 2")

	assert.Empty(t, ValidateAll(store))
	assert.Equal(t, []string{"SP1"}, store.ValidatedNames())
}

func TestEditString(t *testing.T) {
	assert.Equal(t, "append SP1/Pl* empty", Edit{Sondage: "SP1", Column: "Pl*", Op: OpAppend}.String())
	assert.Equal(t, "set SP1/Pl*[2] 1.5", Edit{Sondage: "SP1", Column: "Pl*", Op: OpSet, Index: 2, Value: sondage.Float(1.5)}.String())
	assert.Equal(t, "move SP1/Pl*[0] -> [3]", Edit{Sondage: "SP1", Column: "Pl*", Op: OpMove, To: 3}.String())
}
