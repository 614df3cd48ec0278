package steps_test

import (
	"context"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EvgenyM/audiveris/pkg/classifier"
	"github.com/EvgenyM/audiveris/pkg/sheet"
	"github.com/EvgenyM/audiveris/pkg/sig"
	"github.com/EvgenyM/audiveris/pkg/steps"
)

func fixedEngine(candidates []classifier.Candidate, err error) classifier.Engine {
	return classifier.Func(func(context.Context, string, image.Rectangle) ([]classifier.Candidate, error) {
		return candidates, err
	})
}

func TestAssignProcessOrdersDetections(t *testing.T) {
	t.Parallel()

	// Detections arrive unordered; insertion must not depend on engine
	// ordering or two runs would disagree on IDs.
	candidates := []classifier.Candidate{
		{Shape: sig.ShapeStem, Bounds: image.Rect(30, 10, 32, 50), Grade: 0.7},
		{Shape: sig.ShapeNoteheadBlack, Bounds: image.Rect(5, 5, 15, 15), Grade: 0.9},
		{Shape: sig.ShapeBeam, Bounds: image.Rect(20, 5, 60, 13), Grade: 0.8},
	}

	step := steps.NewAssign(fixedEngine(candidates, nil))
	assert.Equal(t, steps.AssignName, step.Name())

	sh := sheet.New("scores/demo.png", image.Rect(0, 0, 100, 100))
	region, err := sh.Region(1)
	require.NoError(t, err)

	require.NoError(t, step.Process(context.Background(), region))

	inters := region.Graph.Inters()
	require.Len(t, inters, 3)

	// Sorted by top-left corner: the head first, then the beam, then
	// the stem.
	assert.Equal(t, sig.ShapeNoteheadBlack, inters[0].Shape)
	assert.Equal(t, sig.InterID(1), inters[0].ID)
	assert.Equal(t, sig.ShapeBeam, inters[1].Shape)
	assert.Equal(t, sig.InterID(2), inters[1].ID)
	assert.Equal(t, sig.ShapeStem, inters[2].Shape)
	assert.Equal(t, sig.InterID(3), inters[2].ID)

	assert.Equal(t, sig.ClassHead, inters[0].Class)
	assert.Equal(t, sig.ClassBeam, inters[1].Class)
	assert.Equal(t, sig.ClassStem, inters[2].Class)
}

func TestAssignProcessDeterministicIDs(t *testing.T) {
	t.Parallel()

	forward := []classifier.Candidate{
		{Shape: sig.ShapeNoteheadBlack, Bounds: image.Rect(5, 5, 15, 15), Grade: 0.9},
		{Shape: sig.ShapeStem, Bounds: image.Rect(30, 10, 32, 50), Grade: 0.7},
	}
	backward := []classifier.Candidate{forward[1], forward[0]}

	first := sheet.New("scores/demo.png", image.Rect(0, 0, 100, 100))
	second := sheet.New("scores/demo.png", image.Rect(0, 0, 100, 100))

	require.NoError(t, steps.NewAssign(fixedEngine(forward, nil)).Process(context.Background(), first.Regions()[0]))
	require.NoError(t, steps.NewAssign(fixedEngine(backward, nil)).Process(context.Background(), second.Regions()[0]))

	assert.Equal(t, first.Regions()[0].Graph.Fingerprint(), second.Regions()[0].Graph.Fingerprint())
}

func TestAssignProcessFailureLeavesGraphUntouched(t *testing.T) {
	t.Parallel()

	step := steps.NewAssign(fixedEngine(nil, assert.AnError))

	sh := sheet.New("scores/demo.png", image.Rect(0, 0, 100, 100))
	region, err := sh.Region(1)
	require.NoError(t, err)

	err = step.Process(context.Background(), region)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Zero(t, region.Graph.Count())
}
