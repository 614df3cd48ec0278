package edit

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/EvgenyM/audiveris/pkg/sheet"
	"github.com/EvgenyM/audiveris/pkg/sig"
)

// Seq is the working sequence of one impact pass: the transaction's user
// tasks plus any tasks steps generate while reacting. Generated tasks
// are applied to the graph immediately and become visible to the steps
// running later in the same pass, but they are never recorded into the
// script.
type Seq struct {
	opKind  OpKind
	resolve GraphResolver

	tasks     []Task
	userCount int
}

// NewSeq builds the sequence for an already-applied transaction.
func NewSeq(txn *Transaction, opKind OpKind, resolve GraphResolver) *Seq {
	tasks := make([]Task, len(txn.Tasks()))
	copy(tasks, txn.Tasks())

	return &Seq{
		opKind:    opKind,
		resolve:   resolve,
		tasks:     tasks,
		userCount: len(tasks),
	}
}

// OpKind reports the direction of the pass.
func (s *Seq) OpKind() OpKind { return s.opKind }

// Tasks reports all tasks of the pass so far, user tasks first.
func (s *Seq) Tasks() []Task { return s.tasks }

// UserTasks reports only the tasks originating from the transaction.
func (s *Seq) UserTasks() []Task { return s.tasks[:s.userCount] }

// GeneratedTasks reports only the tasks steps added during the pass.
func (s *Seq) GeneratedTasks() []Task { return s.tasks[s.userCount:] }

// Add applies a step-generated task immediately and appends it to the
// sequence for the steps still to run.
func (s *Seq) Add(task Task) error {
	g, err := s.resolve(task.Region)
	if err != nil {
		return errors.Wrap(err, "unable to apply generated task")
	}
	if err := task.Apply(g); err != nil {
		return errors.Wrap(err, "unable to apply generated task")
	}

	s.tasks = append(s.tasks, task)
	return nil
}

// Graph resolves the interpretation graph of a region, for steps that
// need to inspect state while reacting.
func (s *Seq) Graph(region sheet.RegionID) (*sig.Graph, error) {
	return s.resolve(region)
}

// First reports the first task of the given kind, if any.
func (s *Seq) First(kind Kind) (Task, bool) {
	for _, t := range s.tasks {
		if t.Kind == kind {
			return t, true
		}
	}
	return Task{}, false
}

// Classes reports the sorted union of interpretation classes touched by
// the pass so far.
func (s *Seq) Classes() []sig.Class {
	seen := make(map[sig.Class]struct{})
	for _, t := range s.tasks {
		for _, c := range t.Classes {
			seen[c] = struct{}{}
		}
	}

	res := make([]sig.Class, 0, len(seen))
	for c := range seen {
		res = append(res, c)
	}
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res
}
