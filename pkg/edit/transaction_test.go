package edit_test

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EvgenyM/audiveris/pkg/edit"
	"github.com/EvgenyM/audiveris/pkg/sheet"
	"github.com/EvgenyM/audiveris/pkg/sig"
)

func singleGraph(g *sig.Graph) edit.GraphResolver {
	return func(sheet.RegionID) (*sig.Graph, error) {
		return g, nil
	}
}

func TestTransactionAddAfterClose(t *testing.T) {
	t.Parallel()

	txn := edit.NewTransaction(edit.Do)
	txn.Close()

	err := txn.Add(edit.Task{Kind: edit.KindAssign})
	assert.ErrorIs(t, err, edit.ErrTransactionClosed)
	assert.Empty(t, txn.Tasks())
}

func TestTransactionApplyUnapplyRoundTrip(t *testing.T) {
	t.Parallel()

	g, head, stem := headAndStem(t)
	before := g.Fingerprint()

	assign, err := edit.NewAssign(g, region, head, sig.ShapeNoteheadVoid)
	require.NoError(t, err)
	link, err := edit.NewLink(g, region, head, stem, sig.RelSupport)
	require.NoError(t, err)

	txn := edit.NewTransaction(edit.Do)
	require.NoError(t, txn.Add(assign))
	require.NoError(t, txn.Add(link))
	txn.Close()

	require.NoError(t, txn.Apply(singleGraph(g)))

	in, err := g.Inter(head)
	require.NoError(t, err)
	assert.Equal(t, sig.ShapeNoteheadVoid, in.Shape)
	_, err = g.Relation(head, stem)
	require.NoError(t, err)

	require.NoError(t, txn.Unapply(singleGraph(g)))
	assert.Equal(t, before, g.Fingerprint())
}

func TestTransactionUnapplyReversesOrder(t *testing.T) {
	t.Parallel()

	// The second task links the segment children, so undoing it before
	// the segment is the only order that can succeed.
	g := sig.NewGraph()
	beam, err := g.Add(&sig.Inter{Shape: sig.ShapeBeam, Bounds: image.Rect(0, 0, 40, 8), Grade: 0.8})
	require.NoError(t, err)

	segment, err := edit.NewSegment(g, region, beam, 10, 11)
	require.NoError(t, err)

	txn := edit.NewTransaction(edit.Do)
	require.NoError(t, txn.Add(segment))

	require.NoError(t, segment.Apply(g))
	link, err := edit.NewLink(g, region, 10, 11, sig.RelSupport)
	require.NoError(t, err)
	require.NoError(t, segment.Unapply(g))

	require.NoError(t, txn.Add(link))
	txn.Close()

	before := g.Fingerprint()
	require.NoError(t, txn.Apply(singleGraph(g)))
	require.NoError(t, txn.Unapply(singleGraph(g)))
	assert.Equal(t, before, g.Fingerprint())
}

func TestSeqSeparatesUserAndGeneratedTasks(t *testing.T) {
	t.Parallel()

	g, head, stem := headAndStem(t)

	assign, err := edit.NewAssign(g, region, head, sig.ShapeNoteheadVoid)
	require.NoError(t, err)

	txn := edit.NewTransaction(edit.Do)
	require.NoError(t, txn.Add(assign))
	txn.Close()
	require.NoError(t, txn.Apply(singleGraph(g)))

	seq := edit.NewSeq(txn, edit.Do, singleGraph(g))
	assert.Len(t, seq.UserTasks(), 1)
	assert.Empty(t, seq.GeneratedTasks())

	link, err := edit.NewLink(g, region, head, stem, sig.RelSupport)
	require.NoError(t, err)
	require.NoError(t, seq.Add(link))

	// Add applied the task immediately.
	_, err = g.Relation(head, stem)
	require.NoError(t, err)

	assert.Len(t, seq.UserTasks(), 1)
	assert.Len(t, seq.GeneratedTasks(), 1)
	assert.Len(t, seq.Tasks(), 2)
}

func TestSeqFirstAndClasses(t *testing.T) {
	t.Parallel()

	g, head, stem := headAndStem(t)

	deassign, err := edit.NewDeassign(g, region, head)
	require.NoError(t, err)
	link, err := edit.NewLink(g, region, head, stem, sig.RelSupport)
	require.NoError(t, err)

	txn := edit.NewTransaction(edit.Do)
	require.NoError(t, txn.Add(deassign))
	require.NoError(t, txn.Add(link))
	txn.Close()
	require.NoError(t, txn.Apply(singleGraph(g)))

	seq := edit.NewSeq(txn, edit.Do, singleGraph(g))

	first, ok := seq.First(edit.KindDeassign)
	require.True(t, ok)
	assert.Equal(t, head, first.Inter)

	_, ok = seq.First(edit.KindSegment)
	assert.False(t, ok)

	assert.Equal(t, []sig.Class{sig.ClassHead, sig.ClassStem}, seq.Classes())
}
