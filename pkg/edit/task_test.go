package edit_test

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EvgenyM/audiveris/pkg/edit"
	"github.com/EvgenyM/audiveris/pkg/sig"
)

const region = 1

func headAndStem(t *testing.T) (*sig.Graph, sig.InterID, sig.InterID) {
	t.Helper()

	g := sig.NewGraph()
	head, err := g.Add(&sig.Inter{Shape: sig.ShapeNoteheadBlack, Class: sig.ClassHead, Bounds: image.Rect(0, 0, 10, 10), Grade: 0.9})
	require.NoError(t, err)
	stem, err := g.Add(&sig.Inter{Shape: sig.ShapeStem, Class: sig.ClassStem, Bounds: image.Rect(10, 0, 12, 40), Grade: 0.7})
	require.NoError(t, err)

	return g, head, stem
}

func TestUndoInverseLaw(t *testing.T) {
	t.Parallel()

	tcs := map[string]func(t *testing.T, g *sig.Graph, head, stem sig.InterID) edit.Task{
		"assign": func(t *testing.T, g *sig.Graph, head, _ sig.InterID) edit.Task {
			task, err := edit.NewAssign(g, region, head, sig.ShapeNoteheadVoid)
			require.NoError(t, err)
			return task
		},
		"deassign": func(t *testing.T, g *sig.Graph, head, _ sig.InterID) edit.Task {
			task, err := edit.NewDeassign(g, region, head)
			require.NoError(t, err)
			return task
		},
		"add relation": func(t *testing.T, g *sig.Graph, head, stem sig.InterID) edit.Task {
			task, err := edit.NewLink(g, region, head, stem, sig.RelSupport)
			require.NoError(t, err)
			return task
		},
		"remove relation": func(t *testing.T, g *sig.Graph, head, stem sig.InterID) edit.Task {
			require.NoError(t, g.Link(head, stem, sig.RelSupport))
			task, err := edit.NewUnlink(g, region, head, stem)
			require.NoError(t, err)
			return task
		},
		"segment": func(t *testing.T, g *sig.Graph, head, _ sig.InterID) edit.Task {
			task, err := edit.NewSegment(g, region, head, 10, 11)
			require.NoError(t, err)
			return task
		},
	}

	for name, build := range tcs {
		t.Run(name, func(t *testing.T) {
			g, head, stem := headAndStem(t)
			task := build(t, g, head, stem)
			before := g.Fingerprint()

			require.NoError(t, task.Apply(g))
			assert.NotEqual(t, before, g.Fingerprint())

			require.NoError(t, task.Unapply(g))
			assert.Equal(t, before, g.Fingerprint())
		})
	}
}

func TestAssignKeepsOldShapeForUndo(t *testing.T) {
	t.Parallel()

	g, head, _ := headAndStem(t)

	deassign, err := edit.NewDeassign(g, region, head)
	require.NoError(t, err)
	require.NoError(t, deassign.Apply(g))

	in, err := g.Inter(head)
	require.NoError(t, err)
	assert.Equal(t, sig.ShapeNone, in.Shape)

	require.NoError(t, deassign.Unapply(g))

	in, err = g.Inter(head)
	require.NoError(t, err)
	assert.Equal(t, sig.ShapeNoteheadBlack, in.Shape)
}

func TestApplyMissingTarget(t *testing.T) {
	t.Parallel()

	g, head, _ := headAndStem(t)
	task, err := edit.NewAssign(g, region, head, sig.ShapeNoteheadVoid)
	require.NoError(t, err)

	_, err = g.Remove(head)
	require.NoError(t, err)

	err = task.Apply(g)
	assert.ErrorIs(t, err, sig.ErrInterNotFound)
}

func TestApplyStaleState(t *testing.T) {
	t.Parallel()

	g, head, _ := headAndStem(t)
	task, err := edit.NewAssign(g, region, head, sig.ShapeNoteheadVoid)
	require.NoError(t, err)

	_, err = g.SetShape(head, sig.ShapeWholeNote)
	require.NoError(t, err)
	before := g.Fingerprint()

	err = task.Apply(g)
	assert.ErrorIs(t, err, edit.ErrStaleTask)
	assert.Equal(t, before, g.Fingerprint())
}

func TestUnapplyStaleState(t *testing.T) {
	t.Parallel()

	g, head, _ := headAndStem(t)
	task, err := edit.NewAssign(g, region, head, sig.ShapeNoteheadVoid)
	require.NoError(t, err)
	require.NoError(t, task.Apply(g))

	// Another mutation slipped in between apply and undo.
	_, err = g.SetShape(head, sig.ShapeWholeNote)
	require.NoError(t, err)
	before := g.Fingerprint()

	err = task.Unapply(g)
	assert.ErrorIs(t, err, edit.ErrStaleTask)
	assert.Equal(t, before, g.Fingerprint())
}

func TestSegmentApplyStaleLinkLeavesGraphUntouched(t *testing.T) {
	t.Parallel()

	g, head, stem := headAndStem(t)
	task, err := edit.NewSegment(g, region, head, 10, 11)
	require.NoError(t, err)

	// A relation appeared after the task was built; the apply must fail
	// without removing the parent or its relation.
	require.NoError(t, g.Link(head, stem, sig.RelSupport))
	before := g.Fingerprint()

	err = task.Apply(g)
	assert.ErrorIs(t, err, edit.ErrLinkedTarget)
	assert.Equal(t, before, g.Fingerprint())

	_, err = g.Inter(head)
	require.NoError(t, err)
	_, err = g.Relation(head, stem)
	require.NoError(t, err)
}

func TestSegmentRefusesLinkedTarget(t *testing.T) {
	t.Parallel()

	g, head, stem := headAndStem(t)
	require.NoError(t, g.Link(head, stem, sig.RelSupport))

	_, err := edit.NewSegment(g, region, head, 10, 11)
	assert.ErrorIs(t, err, edit.ErrLinkedTarget)
}

func TestSegmentProducesFixedIDs(t *testing.T) {
	t.Parallel()

	g, head, _ := headAndStem(t)
	task, err := edit.NewSegment(g, region, head, 10, 11)
	require.NoError(t, err)

	require.NoError(t, task.Apply(g))

	left, err := g.Inter(10)
	require.NoError(t, err)
	right, err := g.Inter(11)
	require.NoError(t, err)

	assert.Equal(t, sig.ShapeNone, left.Shape)
	assert.Equal(t, sig.ShapeNone, right.Shape)
	assert.Equal(t, left.Bounds.Max.X, right.Bounds.Min.X)

	_, err = g.Inter(head)
	assert.ErrorIs(t, err, sig.ErrInterNotFound)
}

func TestTaskClasses(t *testing.T) {
	t.Parallel()

	g, head, stem := headAndStem(t)

	link, err := edit.NewLink(g, region, head, stem, sig.RelSupport)
	require.NoError(t, err)
	assert.ElementsMatch(t, []sig.Class{sig.ClassHead, sig.ClassStem}, link.Classes)

	assign, err := edit.NewAssign(g, region, head, sig.ShapeNoteheadVoid)
	require.NoError(t, err)
	assert.Equal(t, []sig.Class{sig.ClassHead}, assign.Classes)
}
