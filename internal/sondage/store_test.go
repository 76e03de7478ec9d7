package sondage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countingDepth(r DepthRange, calls *map[string]int) DepthSource {
	return DepthSourceFunc(func(_ context.Context, name string) (DepthRange, error) {
		(*calls)[name]++
		return r, nil
	})
}

func TestStore_MergeAppendsAndOffsetsFlags(t *testing.T) {
	calls := map[string]int{}
	src := countingDepth(DepthRange{Start: 0, End: 1, Step: 0.2}, &calls)
	store := NewStore([]string{KeywordPf, KeywordPl}, nil)
	ctx := context.Background()

	page1 := PageResult{
		Page: 1,
		Sequences: map[string]Sequence{
			KeywordPf: SequenceOf(1, 2, 3),
			KeywordPl: {Float(5), nil, Float(6), Float(7)},
		},
		Flags: map[string][]int{KeywordPf: {1, 2}},
	}
	page2 := PageResult{
		Page: 2,
		Sequences: map[string]Sequence{
			KeywordPf: SequenceOf(4, 5),
			KeywordPl: SequenceOf(8, 9),
		},
		Flags: map[string][]int{KeywordPf: {0, 1}, KeywordPl: {0, 1}},
	}

	require.NoError(t, store.Merge(ctx, "SP1", page1, src))
	require.NoError(t, store.Merge(ctx, "SP1", page2, src))

	assert.Equal(t, 1, calls["SP1"], "depth requested once per sondage")

	sd, ok := store.Get("SP1")
	require.True(t, ok)
	assert.Equal(t, []int{1, 2}, sd.Pages)

	pf := sd.Column(KeywordPf)
	assert.Equal(t, 5, pf.Len(), "sum of both page lengths")
	assert.Equal(t, []int{1, 2, 3, 4}, pf.Flags)

	pl := sd.Column(KeywordPl)
	assert.Equal(t, 6, pl.Len())
	assert.Equal(t, []int{4, 5}, pl.Flags, "page 2 flags offset by page 1 length")

	assert.Equal(t, SequenceOf(0, 0.2, 0.4, 0.6, 0.8, 1.0), sd.Column(ColumnDepth).Values)
}

func TestStore_MergeDoesNotAliasPageSequences(t *testing.T) {
	store := NewStore([]string{KeywordPf}, nil)
	seq := SequenceOf(1, 2)
	require.NoError(t, store.Merge(context.Background(), "SP1",
		PageResult{Sequences: map[string]Sequence{KeywordPf: seq}}, FixedDepth(DepthRange{Start: 0, End: 1, Step: 1})))

	*seq[0] = 42
	sd, _ := store.Get("SP1")
	assert.Equal(t, 1.0, *sd.Column(KeywordPf).Values[0])
}

func TestStore_OrderAndValidation(t *testing.T) {
	calls := map[string]int{}
	src := countingDepth(DepthRange{Start: 0, End: 0.4, Step: 0.2}, &calls)
	store := NewStore([]string{KeywordPf}, nil)
	ctx := context.Background()

	require.NoError(t, store.Merge(ctx, "SP2", PageResult{Page: 1, Sequences: map[string]Sequence{KeywordPf: SequenceOf(1, 2, 3)}}, src))
	require.NoError(t, store.Merge(ctx, "SP1", PageResult{Page: 2, Sequences: map[string]Sequence{KeywordPf: SequenceOf(1, 2)}}, src))

	assert.Equal(t, []string{"SP2", "SP1"}, store.Names())
	assert.Equal(t, map[string]int{"SP1": 1, "SP2": 1}, calls)

	require.NoError(t, store.Validate("SP2"))

	err := store.Validate("SP1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLengthMismatch)
	assert.True(t, ErrorTypeLengthMismatch.IsBlocking())
	assert.Equal(t, []string{"SP1"}, store.Pending())

	col, err := store.Edit("SP1", KeywordPf)
	require.NoError(t, err)
	col.Append(nil)
	require.NoError(t, store.Validate("SP1"))

	assert.Equal(t, []string{"SP2", "SP1"}, store.ValidatedNames())
	assert.Empty(t, store.Pending())

	require.NoError(t, store.Reopen("SP2"))
	assert.Equal(t, []string{"SP1"}, store.ValidatedNames())
	require.NoError(t, store.Validate("SP2"))
	assert.Equal(t, []string{"SP1", "SP2"}, store.ValidatedNames(), "export follows validation order")

	assert.Error(t, store.Reopen("SP9"))
	_, err = store.Edit("SP9", KeywordPf)
	assert.Error(t, err)
	_, err = store.Edit("SP1", "Pl*")
	assert.Error(t, err)
}

func TestStore_MergeWithoutDepthSource(t *testing.T) {
	store := NewStore([]string{KeywordPf}, nil)
	err := store.Merge(context.Background(), "SP1", PageResult{}, nil)
	assert.Error(t, err)
	assert.Equal(t, 0, store.Len())
}

func TestStore_MergeInvalidDepth(t *testing.T) {
	store := NewStore([]string{KeywordPf}, nil)
	err := store.Merge(context.Background(), "SP1", PageResult{}, FixedDepth(DepthRange{Start: 3, End: 1, Step: 1}))
	assert.ErrorIs(t, err, ErrInvalidDepthParameters)
	assert.Equal(t, 0, store.Len())
}
