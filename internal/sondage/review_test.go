package sondage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewColumn_Delete(t *testing.T) {
	c := NewReviewColumn(SequenceOf(1, 2, 3, 4, 5), []int{1, 3, 4})

	require.NoError(t, c.Delete(3))

	assert.Equal(t, SequenceOf(1, 2, 3, 5), c.Values)
	assert.Equal(t, []int{1, 3}, c.Flags, "flag on the deleted index dropped, above shifted down")
	assert.Equal(t, []int{3}, c.Touched)
	assert.Equal(t, []int{1}, c.VisibleFlags(), "index 3 was touched")
}

func TestReviewColumn_Insert(t *testing.T) {
	c := NewReviewColumn(SequenceOf(1, 2, 3), []int{1, 2})

	require.NoError(t, c.Insert(1, nil))

	assert.Equal(t, Sequence{Float(1), nil, Float(2), Float(3)}, c.Values)
	assert.Equal(t, []int{2, 3}, c.Flags)
	assert.Equal(t, []int{2, 3}, c.VisibleFlags())

	assert.Error(t, c.Insert(9, Float(1)))
}

func TestReviewColumn_AppendAndSetNull(t *testing.T) {
	c := NewReviewColumn(SequenceOf(1, 2), []int{0, 1})

	c.Append(Float(7))
	require.NoError(t, c.SetNull(0))

	assert.Equal(t, Sequence{nil, Float(2), Float(7)}, c.Values)
	assert.Equal(t, []int{2, 0}, c.Touched, "audit log keeps edit order")
	assert.Equal(t, []int{1}, c.VisibleFlags())

	assert.Error(t, c.SetNull(3))
}

func TestReviewColumn_Move(t *testing.T) {
	c := NewReviewColumn(SequenceOf(1, 2, 3, 4), []int{0, 2, 3})

	require.NoError(t, c.Move(0, 2))

	assert.Equal(t, SequenceOf(2, 3, 1, 4), c.Values)
	assert.Equal(t, []int{0, 1, 2}, c.Touched, "every shifted index is touched")
	assert.Equal(t, []int{3}, c.VisibleFlags())

	require.NoError(t, c.Move(3, 0))
	assert.Equal(t, SequenceOf(4, 2, 3, 1), c.Values)
	assert.Equal(t, []int{0, 1, 2, 3}, c.Touched, "indices are recorded once")

	assert.Error(t, c.Move(0, 4))
}

func TestReviewColumn_MoveHidesFlagsBetween(t *testing.T) {
	c := NewReviewColumn(SequenceOf(1, 2, 3, 4, 5), []int{2})

	require.NoError(t, c.Move(4, 1))

	assert.Equal(t, SequenceOf(1, 5, 2, 3, 4), c.Values)
	assert.Equal(t, []int{4, 3, 2, 1}, c.Touched)
	assert.Empty(t, c.VisibleFlags(), "flag 2 now points at a shifted value")
}

func TestReviewColumn_EditsFollowShiftedIndices(t *testing.T) {
	t.Run("insert shifts a corrected value", func(t *testing.T) {
		c := NewReviewColumn(SequenceOf(1, 2, 3, 4, 5, 6, 7), []int{5})
		require.NoError(t, c.Set(5, Float(6.5)))

		require.NoError(t, c.Insert(1, Float(1.5)))

		assert.Equal(t, 6.5, *c.Values[6])
		assert.Equal(t, []int{6}, c.Flags)
		assert.Equal(t, []int{6, 1}, c.Touched)
		assert.Empty(t, c.VisibleFlags(), "the corrected value stays unflagged")
	})

	t.Run("insert does not hide the value now at the old index", func(t *testing.T) {
		c := NewReviewColumn(SequenceOf(1, 2, 3, 4), []int{2})
		require.NoError(t, c.Set(1, Float(2.5)))

		require.NoError(t, c.Insert(0, Float(0.5)))

		assert.Equal(t, []int{2, 0}, c.Touched)
		assert.Equal(t, []int{3}, c.Flags)
		assert.Equal(t, []int{3}, c.VisibleFlags())
	})

	t.Run("delete shifts later corrections down", func(t *testing.T) {
		c := NewReviewColumn(SequenceOf(1, 2, 3, 4, 5), []int{1, 4})
		require.NoError(t, c.Set(4, Float(5.5)))

		require.NoError(t, c.Delete(0))

		assert.Equal(t, 5.5, *c.Values[3])
		assert.Equal(t, []int{0, 3}, c.Flags)
		assert.Equal(t, []int{3, 0}, c.Touched)
		assert.Empty(t, c.VisibleFlags())
	})

	t.Run("delete keeps the deleted index touched", func(t *testing.T) {
		c := NewReviewColumn(SequenceOf(1, 2, 3, 4), nil)
		require.NoError(t, c.Set(1, Float(2.5)))
		require.NoError(t, c.Set(2, Float(3.5)))

		require.NoError(t, c.Delete(1))

		assert.Equal(t, []int{1}, c.Touched, "index 2 lands on the logged index 1")
	})
}

func TestReviewColumn_DeleteDuplicateKeepsPartnerFlag(t *testing.T) {
	// flags 1 and 2 come from a too-close pair; deleting the duplicate at 2
	// drops its flag and leaves the partner visible
	c := NewReviewColumn(SequenceOf(1, 2, 2.05, 3), []int{1, 2})

	require.NoError(t, c.Delete(2))

	assert.Equal(t, []int{1}, c.Flags)
	assert.Equal(t, []int{1}, c.VisibleFlags())
}

func TestReviewColumn_Clone(t *testing.T) {
	c := NewReviewColumn(SequenceOf(1, 2), []int{1})
	cp := c.Clone()
	*cp.Values[0] = 9
	cp.Flags[0] = 0

	assert.Equal(t, 1.0, *c.Values[0])
	assert.Equal(t, []int{1}, c.Flags)
}
