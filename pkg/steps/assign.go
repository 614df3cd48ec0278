// Package steps provides the standard recognition steps: ASSIGN
// populates region graphs from the classifier engine, LINK builds
// relations between the interpretations and keeps them consistent under
// corrections.
package steps

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/EvgenyM/audiveris/pkg/classifier"
	"github.com/EvgenyM/audiveris/pkg/edit"
	"github.com/EvgenyM/audiveris/pkg/sheet"
	"github.com/EvgenyM/audiveris/pkg/sig"
)

// AssignName is the name of the assignment step.
const AssignName = "ASSIGN"

// Assign populates a region's graph with one interpretation per
// classifier detection.
type Assign struct {
	engine classifier.Engine
}

// NewAssign creates the assignment step around a classifier engine.
func NewAssign(engine classifier.Engine) *Assign {
	return &Assign{engine: engine}
}

func (s *Assign) Name() string { return AssignName }

func (s *Assign) ImpactingClasses() []sig.Class {
	return []sig.Class{sig.ClassGlyph, sig.ClassHead, sig.ClassStem, sig.ClassBeam}
}

// Process classifies the region and inserts the detections. The graph is
// only mutated once the whole classification succeeded, so a failed or
// cancelled region keeps its graph untouched.
func (s *Assign) Process(ctx context.Context, region *sheet.Region) error {
	candidates, err := s.engine.Classify(ctx, region.Sheet.Path, region.Bounds)
	if err != nil {
		return errors.Wrap(err, "unable to classify region")
	}

	// Insertion order fixes the assigned IDs; sort so two runs over the
	// same detections produce identical graphs.
	sort.Slice(candidates, func(i, j int) bool {
		bi, bj := candidates[i].Bounds, candidates[j].Bounds
		if bi.Min.Y != bj.Min.Y {
			return bi.Min.Y < bj.Min.Y
		}
		if bi.Min.X != bj.Min.X {
			return bi.Min.X < bj.Min.X
		}
		return candidates[i].Shape < candidates[j].Shape
	})

	for _, c := range candidates {
		_, err := region.Graph.Add(&sig.Inter{
			Class:  sig.ClassOf(c.Shape),
			Shape:  c.Shape,
			Bounds: c.Bounds,
			Grade:  c.Grade,
		})
		if err != nil {
			return errors.Wrap(err, "unable to add detection")
		}
	}

	return nil
}

// Epilog does nothing: assignment has no cross-region phase.
func (s *Assign) Epilog(context.Context, *sheet.Sheet) error { return nil }

// Impact does nothing to the graph: an assignment correction carries its
// own mutation. The step still declares its classes so it takes its
// place in the impact ordering.
func (s *Assign) Impact(context.Context, *edit.Seq, edit.OpKind) error { return nil }
