package undo

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterCommand adds delta to a shared counter and records each
// execution and inversion in a shared trace
type counterCommand struct {
	label   string
	counter *int
	delta   int
	trace   *[]string
	execErr error
	undoErr error
}

func (c *counterCommand) Label() string { return c.label }

func (c *counterCommand) Execute() error {
	if c.execErr != nil {
		return c.execErr
	}
	*c.counter += c.delta
	if c.trace != nil {
		*c.trace = append(*c.trace, "exec "+c.label)
	}
	return nil
}

func (c *counterCommand) Undo() error {
	if c.undoErr != nil {
		return c.undoErr
	}
	*c.counter -= c.delta
	if c.trace != nil {
		*c.trace = append(*c.trace, "undo "+c.label)
	}
	return nil
}

func TestUndoRedoRoundTrip(t *testing.T) {
	s := NewStack()
	counter := 0
	for i := 1; i <= 3; i++ {
		err := s.Push(&counterCommand{label: fmt.Sprintf("c%d", i), counter: &counter, delta: i})
		require.NoError(t, err)
	}
	require.Equal(t, 6, counter)
	require.Equal(t, 3, s.Index())

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Undo())
	}
	assert.Equal(t, 0, counter, "n undos must restore the pre-history state")
	assert.Equal(t, 0, s.Index())

	// undo at the bottom is a no-op
	require.NoError(t, s.Undo())
	assert.Equal(t, 0, s.Index())

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Redo())
	}
	assert.Equal(t, 6, counter, "n redos must restore the post-history state")
	assert.Equal(t, 3, s.Index())

	// redo at the top is a no-op
	require.NoError(t, s.Redo())
	assert.Equal(t, 3, s.Index())
}

func TestPushPrunesRedoBranch(t *testing.T) {
	s := NewStack()
	counter := 0
	require.NoError(t, s.Push(&counterCommand{label: "a", counter: &counter, delta: 1}))
	require.NoError(t, s.Push(&counterCommand{label: "b", counter: &counter, delta: 10}))
	require.NoError(t, s.Undo())
	require.Equal(t, 1, counter)

	require.NoError(t, s.Push(&counterCommand{label: "c", counter: &counter, delta: 100}))
	assert.Equal(t, 2, s.Count(), "undone entry must be discarded")
	assert.Equal(t, 101, counter)

	// the discarded command must not come back
	require.NoError(t, s.Redo())
	assert.Equal(t, 101, counter)
	assert.False(t, s.CanRedo())
}

func TestSetIndexIsIteratedStepping(t *testing.T) {
	sequential := NewStack()
	jumped := NewStack()

	seqCounter, jmpCounter := 0, 0
	var seqTrace, jmpTrace []string

	for i := 1; i <= 4; i++ {
		label := fmt.Sprintf("c%d", i)
		require.NoError(t, sequential.Push(&counterCommand{label: label, counter: &seqCounter, delta: i, trace: &seqTrace}))
		require.NoError(t, jumped.Push(&counterCommand{label: label, counter: &jmpCounter, delta: i, trace: &jmpTrace}))
	}

	for i := 0; i < 3; i++ {
		require.NoError(t, sequential.Undo())
	}
	require.NoError(t, jumped.SetIndex(1))

	assert.Equal(t, seqCounter, jmpCounter)
	assert.Equal(t, seqTrace, jmpTrace, "SetIndex must emit the same intermediate steps")
	assert.Equal(t, sequential.Index(), jumped.Index())

	require.NoError(t, jumped.SetIndex(3))
	assert.Equal(t, 1+2+3, jmpCounter)
	assert.Equal(t, 3, jumped.Index())
}

func TestCleanMarkTracksSavedCursor(t *testing.T) {
	s := NewStack()
	counter := 0

	assert.True(t, s.IsClean(), "empty history starts clean")

	require.NoError(t, s.Push(&counterCommand{label: "a", counter: &counter, delta: 1}))
	assert.False(t, s.IsClean())

	s.MarkClean()
	assert.True(t, s.IsClean())

	require.NoError(t, s.Undo())
	assert.False(t, s.IsClean())

	require.NoError(t, s.Redo())
	assert.True(t, s.IsClean(), "returning to the saved cursor is clean again")
}

func TestCleanMarkUnreachableAfterPrune(t *testing.T) {
	s := NewStack()
	counter := 0
	require.NoError(t, s.Push(&counterCommand{label: "a", counter: &counter, delta: 1}))
	require.NoError(t, s.Push(&counterCommand{label: "b", counter: &counter, delta: 1}))
	s.MarkClean()

	require.NoError(t, s.Undo())
	require.NoError(t, s.Push(&counterCommand{label: "c", counter: &counter, delta: 1}))

	// the saved position was pruned; no cursor can be clean now
	require.NoError(t, s.Undo())
	assert.False(t, s.IsClean())
	require.NoError(t, s.Redo())
	assert.False(t, s.IsClean())
}

func TestFailedExecuteLeavesHistoryUntouched(t *testing.T) {
	s := NewStack()
	counter := 0
	require.NoError(t, s.Push(&counterCommand{label: "a", counter: &counter, delta: 1}))
	require.NoError(t, s.Undo())

	boom := errors.New("store rejected the mutation")
	err := s.Push(&counterCommand{label: "bad", counter: &counter, delta: 1, execErr: boom})
	require.ErrorIs(t, err, boom)

	assert.Equal(t, 0, s.Index(), "failed push must not move the cursor")
	assert.Equal(t, 1, s.Count(), "failed push must not prune the redo branch")
	assert.True(t, s.CanRedo())
}

func TestUndoFailureCorruptsHistory(t *testing.T) {
	s := NewStack()
	counter := 0
	require.NoError(t, s.Push(&counterCommand{
		label: "a", counter: &counter, delta: 1,
		undoErr: errors.New("entity already purged"),
	}))

	err := s.Undo()
	require.ErrorIs(t, err, ErrHistoryCorrupt)

	assert.False(t, s.CanUndo())
	assert.False(t, s.CanRedo())
	require.ErrorIs(t, s.Undo(), ErrHistoryCorrupt)
	require.ErrorIs(t, s.Redo(), ErrHistoryCorrupt)
	require.ErrorIs(t, s.Push(&counterCommand{label: "b", counter: &counter, delta: 1}), ErrHistoryCorrupt)
}

func TestHistoryListingsAreCapped(t *testing.T) {
	s := NewStack()
	counter := 0
	for i := 0; i < 15; i++ {
		require.NoError(t, s.Push(&counterCommand{label: fmt.Sprintf("c%d", i), counter: &counter, delta: 1}))
	}

	entries, overflow := s.UndoEntries(10)
	require.Len(t, entries, 10)
	assert.Equal(t, 5, overflow)
	assert.Equal(t, "c14", entries[0].Label, "most recent first")
	assert.Equal(t, 14, entries[0].TargetIndex)
	assert.Equal(t, "c5", entries[9].Label)

	require.NoError(t, s.SetIndex(2))
	entries, overflow = s.UndoEntries(10)
	require.Len(t, entries, 2)
	assert.Equal(t, 0, overflow)

	entries, overflow = s.RedoEntries(10)
	require.Len(t, entries, 10)
	assert.Equal(t, 3, overflow)
	assert.Equal(t, "c2", entries[0].Label, "nearest redo first")
	assert.Equal(t, 3, entries[0].TargetIndex)
}

func TestIndexAndCleanListeners(t *testing.T) {
	s := NewStack()
	counter := 0

	var indexes []int
	var cleans []bool
	s.OnIndexChanged(func(i int) { indexes = append(indexes, i) })
	s.OnCleanChanged(func(c bool) { cleans = append(cleans, c) })

	require.NoError(t, s.Push(&counterCommand{label: "a", counter: &counter, delta: 1}))
	require.NoError(t, s.Undo())
	require.NoError(t, s.Redo())
	s.MarkClean()

	assert.Equal(t, []int{1, 0, 1}, indexes)
	assert.Equal(t, []bool{false, true, false, true}, cleans)
}
