package steps_test

import (
	"context"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EvgenyM/audiveris/pkg/edit"
	"github.com/EvgenyM/audiveris/pkg/sheet"
	"github.com/EvgenyM/audiveris/pkg/sig"
	"github.com/EvgenyM/audiveris/pkg/steps"
)

func linkedRegion(t *testing.T) (*sheet.Sheet, sig.InterID, sig.InterID) {
	t.Helper()

	sh := sheet.New("scores/demo.png", image.Rect(0, 0, 100, 100))
	region, err := sh.Region(1)
	require.NoError(t, err)

	head, err := region.Graph.Add(&sig.Inter{Shape: sig.ShapeNoteheadBlack, Bounds: image.Rect(0, 10, 10, 20), Grade: 0.9})
	require.NoError(t, err)
	stem, err := region.Graph.Add(&sig.Inter{Shape: sig.ShapeStem, Bounds: image.Rect(10, 0, 12, 40), Grade: 0.7})
	require.NoError(t, err)

	return sh, head, stem
}

func TestLinkProcess(t *testing.T) {
	t.Parallel()

	sh, head, stem := linkedRegion(t)
	region, err := sh.Region(1)
	require.NoError(t, err)

	// A stem beyond the adjacency reach stays unlinked.
	far, err := region.Graph.Add(&sig.Inter{Shape: sig.ShapeStem, Bounds: image.Rect(50, 0, 52, 40), Grade: 0.6})
	require.NoError(t, err)

	step := steps.NewLink()
	assert.Equal(t, steps.LinkName, step.Name())
	require.NoError(t, step.Process(context.Background(), region))

	rel, err := region.Graph.Relation(head, stem)
	require.NoError(t, err)
	assert.Equal(t, sig.RelSupport, rel.Kind)

	_, err = region.Graph.Relation(head, far)
	assert.ErrorIs(t, err, sig.ErrRelationNotFound)

	// Reprocessing must not duplicate relations.
	require.NoError(t, step.Process(context.Background(), region))
	assert.Len(t, region.Graph.Relations(), 1)
}

func TestLinkEpilogRemovesBoundaryDuplicates(t *testing.T) {
	t.Parallel()

	sh := sheet.New("scores/demo.png",
		image.Rect(0, 0, 100, 50),
		image.Rect(0, 50, 100, 100),
	)
	upper := sh.Regions()[0]
	lower := sh.Regions()[1]

	// The same beam straddles the boundary and was detected twice; the
	// better grade wins.
	weak, err := upper.Graph.Add(&sig.Inter{Shape: sig.ShapeBeam, Bounds: image.Rect(10, 45, 60, 55), Grade: 0.6})
	require.NoError(t, err)
	strong, err := lower.Graph.Add(&sig.Inter{Shape: sig.ShapeBeam, Bounds: image.Rect(10, 46, 60, 56), Grade: 0.8})
	require.NoError(t, err)

	// Overlapping ink of a different shape stays.
	other, err := lower.Graph.Add(&sig.Inter{Shape: sig.ShapeStem, Bounds: image.Rect(10, 44, 12, 58), Grade: 0.5})
	require.NoError(t, err)

	require.NoError(t, steps.NewLink().Epilog(context.Background(), sh))

	_, err = upper.Graph.Inter(weak)
	assert.ErrorIs(t, err, sig.ErrInterNotFound)

	_, err = lower.Graph.Inter(strong)
	require.NoError(t, err)
	_, err = lower.Graph.Inter(other)
	require.NoError(t, err)
}

func TestLinkImpactUnlinksOrphans(t *testing.T) {
	t.Parallel()

	sh, head, stem := linkedRegion(t)
	region, err := sh.Region(1)
	require.NoError(t, err)
	require.NoError(t, region.Graph.Link(head, stem, sig.RelSupport))

	resolve := func(id sheet.RegionID) (*sig.Graph, error) {
		r, err := sh.Region(id)
		if err != nil {
			return nil, err
		}
		return r.Graph, nil
	}

	deassign, err := edit.NewDeassign(region.Graph, region.ID, head)
	require.NoError(t, err)
	txn := edit.NewTransaction(edit.Do)
	require.NoError(t, txn.Add(deassign))
	txn.Close()
	require.NoError(t, txn.Apply(resolve))

	seq := edit.NewSeq(txn, edit.Do, resolve)
	require.NoError(t, steps.NewLink().Impact(context.Background(), seq, edit.Do))

	// The orphaned relation is gone, removed through a generated task
	// rather than a direct mutation.
	_, err = region.Graph.Relation(head, stem)
	assert.ErrorIs(t, err, sig.ErrRelationNotFound)

	generated := seq.GeneratedTasks()
	require.Len(t, generated, 1)
	assert.Equal(t, edit.KindUnlink, generated[0].Kind)
	assert.Equal(t, head, generated[0].Source)
	assert.Equal(t, stem, generated[0].Target)
}

func TestLinkImpactIgnoresUndo(t *testing.T) {
	t.Parallel()

	sh, head, stem := linkedRegion(t)
	region, err := sh.Region(1)
	require.NoError(t, err)
	require.NoError(t, region.Graph.Link(head, stem, sig.RelSupport))

	resolve := func(id sheet.RegionID) (*sig.Graph, error) {
		r, err := sh.Region(id)
		if err != nil {
			return nil, err
		}
		return r.Graph, nil
	}

	deassign, err := edit.NewDeassign(region.Graph, region.ID, head)
	require.NoError(t, err)
	txn := edit.NewTransaction(edit.Do)
	require.NoError(t, txn.Add(deassign))
	txn.Close()

	seq := edit.NewSeq(txn, edit.Undo, resolve)
	require.NoError(t, steps.NewLink().Impact(context.Background(), seq, edit.Undo))

	// Undo leaves relation cleanup to the reversed forward tasks.
	assert.Empty(t, seq.GeneratedTasks())
	_, err = region.Graph.Relation(head, stem)
	require.NoError(t, err)
}
