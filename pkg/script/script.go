// Package script records the full ordered history of edit transactions
// applied to one sheet. A script is recorded as the user corrects the
// sheet; it can be stored, reloaded against a sheet resolved by path,
// and replayed to reproduce the corrected state without the original
// interactive session.
package script

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"github.com/EvgenyM/audiveris/pkg/edit"
	"github.com/EvgenyM/audiveris/pkg/pipeline"
	"github.com/EvgenyM/audiveris/pkg/sheet"
)

var (
	ErrNoSheet       = errors.New("no sheet attached and no path recorded")
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// Resolver materializes a sheet from its recorded path.
type Resolver func(path string) (*sheet.Sheet, error)

// ReplayError reports which transaction broke a replay. Index -1 means
// the sheet itself could not be materialized. Transactions applied
// before the failure remain applied.
type ReplayError struct {
	Index int
	Err   error
}

func (e *ReplayError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("replay: unable to materialize sheet: %s", e.Err)
	}
	return fmt.Sprintf("replay: transaction %d: %s", e.Index, e.Err)
}

func (e *ReplayError) Unwrap() error { return e.Err }

// DirtyChangedFunc observes flips of the stored/dirty state.
type DirtyChangedFunc func(stored bool)

// Script is the transaction history of one sheet.
type Script struct {
	sh   *sheet.Sheet
	path string

	transactions []*edit.Transaction
	storedCount  int
	cursor       int

	mu     sync.Mutex
	nextID int
	dirty  []observerEntry
}

type observerEntry struct {
	id int
	fn DirtyChangedFunc
}

// New creates the script of a resident sheet.
func New(sh *sheet.Sheet) *Script {
	return &Script{sh: sh, path: sh.Path}
}

// Sheet reports the attached sheet, nil for a loaded, not yet replayed
// script.
func (s *Script) Sheet() *sheet.Sheet { return s.sh }

// Path reports the recorded sheet path.
func (s *Script) Path() string { return s.path }

// Transactions reports the recorded history in order.
func (s *Script) Transactions() []*edit.Transaction { return s.transactions }

// Record appends a closed transaction to the history. Recording
// truncates any redo tail left by previous undos.
func (s *Script) Record(txn *edit.Transaction) error {
	if !txn.Closed() {
		return edit.ErrTransactionOpen
	}

	wasStored := s.IsStored()

	s.transactions = append(s.transactions[:s.cursor], txn)
	s.cursor = len(s.transactions)

	s.notifyDirty(wasStored)

	return nil
}

// IsStored checks whether the script is consistent with its backup in
// storage.
func (s *Script) IsStored() bool {
	return len(s.transactions) == s.storedCount
}

// SetStored flags the script as currently consistent with its backup.
func (s *Script) SetStored() {
	wasStored := s.IsStored()
	s.storedCount = len(s.transactions)
	s.notifyDirty(wasStored)
}

// OnDirtyChanged registers an observer of the stored state and returns
// its unsubscribe func.
func (s *Script) OnDirtyChanged(fn DirtyChangedFunc) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.dirty = append(s.dirty, observerEntry{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, e := range s.dirty {
			if e.id == id {
				s.dirty = append(s.dirty[:i], s.dirty[i+1:]...)
				return
			}
		}
	}
}

func (s *Script) notifyDirty(wasStored bool) {
	stored := s.IsStored()
	if stored == wasStored {
		return
	}

	s.mu.Lock()
	entries := make([]observerEntry, len(s.dirty))
	copy(entries, s.dirty)
	s.mu.Unlock()

	for _, e := range entries {
		e.fn(stored)
	}
}

// CanUndo reports whether an applied transaction remains to undo.
func (s *Script) CanUndo() bool { return s.cursor > 0 }

// CanRedo reports whether an undone transaction remains to redo.
func (s *Script) CanRedo() bool { return s.cursor < len(s.transactions) }

// Undo replays the latest applied transaction backwards through the
// pipeline's impact protocol.
func (s *Script) Undo(ctx context.Context, pipe *pipeline.Pipeline) error {
	if !s.CanUndo() {
		return ErrNothingToUndo
	}

	txn := s.transactions[s.cursor-1]
	err := pipe.ApplyTransaction(ctx, s.sh, txn, edit.Undo)
	if err != nil {
		return errors.Wrap(err, "unable to undo transaction")
	}

	s.cursor--
	return nil
}

// Redo replays the latest undone transaction forward again.
func (s *Script) Redo(ctx context.Context, pipe *pipeline.Pipeline) error {
	if !s.CanRedo() {
		return ErrNothingToRedo
	}

	txn := s.transactions[s.cursor]
	err := pipe.ApplyTransaction(ctx, s.sh, txn, edit.Redo)
	if err != nil {
		return errors.Wrap(err, "unable to redo transaction")
	}

	s.cursor++
	return nil
}

// Run materializes the sheet when it is not resident, then replays every
// transaction in recorded order. Replay is synchronous and
// single-threaded across transactions; the first failure aborts the
// remainder and the applied prefix is retained, matching interactive
// behavior where an error mid-script simply stops further automation.
func (s *Script) Run(ctx context.Context, resolve Resolver, pipe *pipeline.Pipeline) error {
	if s.sh == nil {
		if s.path == "" {
			return &ReplayError{Index: -1, Err: ErrNoSheet}
		}

		sh, err := resolve(s.path)
		if err != nil {
			return &ReplayError{Index: -1, Err: err}
		}
		s.sh = sh
	}

	s.cursor = 0
	for i, txn := range s.transactions {
		err := pipe.ApplyTransaction(ctx, s.sh, txn, edit.Do)
		if err != nil {
			return &ReplayError{Index: i, Err: err}
		}
		s.cursor = i + 1
	}

	// A fully replayed script matches what storage holds.
	s.SetStored()

	return nil
}
