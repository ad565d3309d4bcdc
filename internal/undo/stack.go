// Package undo implements the linear command history with a position
// cursor, clean-state tracking and the reversible commands that mutate
// the entity store.
package undo

import (
	"errors"
	"fmt"

	"eventcat/internal/domain"
)

// Notifier receives the single action broadcast a command emits per
// execution or inversion
type Notifier interface {
	Notify(verb domain.Verb, kind domain.EntityKind, uuids []string)
}

// Command is a reversible unit of work wrapping one store mutation.
// Commands are immutable once constructed; re-executing one must be
// equivalent to its original execution (same UUIDs affected).
type Command interface {
	Label() string
	Execute() error
	Undo() error
}

// ErrHistoryCorrupt is returned once a command's Undo or Redo failed
// against the store. Exact inversion can no longer be guaranteed, so
// the stack refuses further stepping.
var ErrHistoryCorrupt = errors.New("undo history corrupt")

// HistoryEntry is a materialized menu record: jumping to TargetIndex
// replays or unwinds history up to that cursor position.
type HistoryEntry struct {
	Label       string
	TargetIndex int
}

// Stack is a linear history of executed commands. The cursor counts the
// commands currently applied; entries at and beyond the cursor have
// been undone and are pruned on the next push.
type Stack struct {
	entries []Command
	cursor  int
	cleanAt int // cursor value of the last persisted save, -1 if unreachable
	corrupt bool

	indexListeners []func(int)
	cleanListeners []func(bool)
}

// NewStack creates an empty history, clean at cursor 0
func NewStack() *Stack {
	return &Stack{}
}

// OnIndexChanged registers a listener invoked after every cursor move
func (s *Stack) OnIndexChanged(fn func(index int)) {
	s.indexListeners = append(s.indexListeners, fn)
}

// OnCleanChanged registers a listener invoked when IsClean flips
func (s *Stack) OnCleanChanged(fn func(clean bool)) {
	s.cleanListeners = append(s.cleanListeners, fn)
}

// Push executes the command and appends it to the history. Entries
// beyond the cursor are pruned first, invalidating any redo branch.
// If execution fails nothing is appended and the history is unchanged.
func (s *Stack) Push(cmd Command) error {
	if s.corrupt {
		return ErrHistoryCorrupt
	}
	if err := cmd.Execute(); err != nil {
		return fmt.Errorf("%s: %w", cmd.Label(), err)
	}
	wasClean := s.IsClean()
	if s.cleanAt > s.cursor {
		// the saved position is being pruned away
		s.cleanAt = -1
	}
	s.entries = append(s.entries[:s.cursor], cmd)
	s.cursor++
	s.changed(wasClean)
	return nil
}

// Undo unwinds the most recent applied command. No-op at cursor 0.
func (s *Stack) Undo() error {
	if s.corrupt {
		return ErrHistoryCorrupt
	}
	if s.cursor == 0 {
		return nil
	}
	if err := s.entries[s.cursor-1].Undo(); err != nil {
		s.corrupt = true
		return fmt.Errorf("%w: undo %s: %v", ErrHistoryCorrupt, s.entries[s.cursor-1].Label(), err)
	}
	wasClean := s.IsClean()
	s.cursor--
	s.changed(wasClean)
	return nil
}

// Redo re-applies the next undone command. No-op at the top.
func (s *Stack) Redo() error {
	if s.corrupt {
		return ErrHistoryCorrupt
	}
	if s.cursor == len(s.entries) {
		return nil
	}
	if err := s.entries[s.cursor].Execute(); err != nil {
		s.corrupt = true
		return fmt.Errorf("%w: redo %s: %v", ErrHistoryCorrupt, s.entries[s.cursor].Label(), err)
	}
	wasClean := s.IsClean()
	s.cursor++
	s.changed(wasClean)
	return nil
}

// SetIndex moves the cursor to the absolute position index by iterated
// single undo or redo steps, emitting every intermediate action.
func (s *Stack) SetIndex(index int) error {
	if index < 0 {
		index = 0
	}
	if index > len(s.entries) {
		index = len(s.entries)
	}
	for s.cursor > index {
		if err := s.Undo(); err != nil {
			return err
		}
	}
	for s.cursor < index {
		if err := s.Redo(); err != nil {
			return err
		}
	}
	return nil
}

// Index returns the cursor, the number of commands currently applied
func (s *Stack) Index() int { return s.cursor }

// Count returns the total number of history entries
func (s *Stack) Count() int { return len(s.entries) }

// CanUndo reports whether an applied command exists
func (s *Stack) CanUndo() bool { return s.cursor > 0 && !s.corrupt }

// CanRedo reports whether an undone command exists
func (s *Stack) CanRedo() bool { return s.cursor < len(s.entries) && !s.corrupt }

// IsClean reports whether the cursor matches the last saved position
func (s *Stack) IsClean() bool { return s.cursor == s.cleanAt }

// MarkClean records the current cursor as the saved position
func (s *Stack) MarkClean() {
	wasClean := s.IsClean()
	s.cleanAt = s.cursor
	if !wasClean {
		for _, fn := range s.cleanListeners {
			fn(true)
		}
	}
}

// UndoEntries lists up to max commands preceding the cursor, most
// recent first, plus how many older entries exist beyond the cap.
func (s *Stack) UndoEntries(max int) (entries []HistoryEntry, overflow int) {
	first := s.cursor - max
	if first < 0 {
		first = 0
	}
	for i := s.cursor - 1; i >= first; i-- {
		entries = append(entries, HistoryEntry{Label: s.entries[i].Label(), TargetIndex: i})
	}
	return entries, first
}

// RedoEntries lists up to max commands following the cursor, nearest
// first, plus how many further entries exist beyond the cap.
func (s *Stack) RedoEntries(max int) (entries []HistoryEntry, overflow int) {
	last := s.cursor + max
	if last > len(s.entries) {
		last = len(s.entries)
	}
	for i := s.cursor; i < last; i++ {
		entries = append(entries, HistoryEntry{Label: s.entries[i].Label(), TargetIndex: i + 1})
	}
	return entries, len(s.entries) - last
}

func (s *Stack) changed(wasClean bool) {
	for _, fn := range s.indexListeners {
		fn(s.cursor)
	}
	if clean := s.IsClean(); clean != wasClean {
		for _, fn := range s.cleanListeners {
			fn(clean)
		}
	}
}
