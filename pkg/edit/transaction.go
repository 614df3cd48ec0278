package edit

import (
	"github.com/pkg/errors"

	"github.com/EvgenyM/audiveris/pkg/sheet"
	"github.com/EvgenyM/audiveris/pkg/sig"
)

var (
	ErrTransactionClosed = errors.New("transaction is closed")
	ErrTransactionOpen   = errors.New("transaction is still open")
)

// GraphResolver maps a region ID to its interpretation graph.
type GraphResolver func(sheet.RegionID) (*sig.Graph, error)

// Transaction is an atomic, ordered batch of tasks produced by one user
// gesture. It is immutable once closed.
type Transaction struct {
	opening OpKind
	tasks   []Task
	closed  bool

	// impactTail holds the tasks steps generated while reacting to this
	// transaction. It is kept in memory so undo restores the graph
	// exactly, but it is never serialized: replay regenerates it through
	// the same impact passes.
	impactTail []Task
}

// NewTransaction opens a transaction with the given opening kind.
func NewTransaction(opening OpKind) *Transaction {
	return &Transaction{opening: opening}
}

// Opening reports the kind the transaction was opened with.
func (t *Transaction) Opening() OpKind { return t.opening }

// Add appends a task. Adding to a closed transaction is an error.
func (t *Transaction) Add(task Task) error {
	if t.closed {
		return ErrTransactionClosed
	}
	t.tasks = append(t.tasks, task)
	return nil
}

// Close seals the transaction.
func (t *Transaction) Close() { t.closed = true }

// Closed reports whether the transaction is sealed.
func (t *Transaction) Closed() bool { return t.closed }

// Tasks reports the ordered tasks of the transaction.
func (t *Transaction) Tasks() []Task { return t.tasks }

// SetImpactTail replaces the remembered step-generated tasks.
func (t *Transaction) SetImpactTail(tasks []Task) { t.impactTail = tasks }

// ImpactTail reports the step-generated tasks of the latest forward
// pass.
func (t *Transaction) ImpactTail() []Task { return t.impactTail }

// Apply runs every task in order against its region graph.
func (t *Transaction) Apply(resolve GraphResolver) error {
	for i, task := range t.tasks {
		g, err := resolve(task.Region)
		if err != nil {
			return errors.Wrapf(err, "task %d", i)
		}
		if err := task.Apply(g); err != nil {
			return errors.Wrapf(err, "task %d", i)
		}
	}
	return nil
}

// Unapply runs every task in reverse order against its region graph,
// restoring the state the transaction found.
func (t *Transaction) Unapply(resolve GraphResolver) error {
	for i := len(t.tasks) - 1; i >= 0; i-- {
		task := t.tasks[i]
		g, err := resolve(task.Region)
		if err != nil {
			return errors.Wrapf(err, "task %d", i)
		}
		if err := task.Unapply(g); err != nil {
			return errors.Wrapf(err, "task %d", i)
		}
	}
	return nil
}
