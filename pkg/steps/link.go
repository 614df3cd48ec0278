package steps

import (
	"context"

	"github.com/pkg/errors"

	"github.com/EvgenyM/audiveris/pkg/edit"
	"github.com/EvgenyM/audiveris/pkg/sheet"
	"github.com/EvgenyM/audiveris/pkg/sig"
)

// LinkName is the name of the linking step.
const LinkName = "LINK"

// reach is how far, in pixels, two interpretations may sit apart and
// still be considered adjacent for a support relation.
const reach = 2

// Link builds support relations between compatible interpretations and
// keeps them consistent: its epilog resolves duplicate interpretations
// straddling region boundaries, and its impact removes relations
// orphaned by a deassignment.
type Link struct{}

// NewLink creates the linking step.
func NewLink() *Link { return &Link{} }

func (s *Link) Name() string { return LinkName }

func (s *Link) ImpactingClasses() []sig.Class {
	return []sig.Class{sig.ClassHead, sig.ClassStem, sig.ClassBeam, sig.ClassWord, sig.ClassSentence}
}

// Process links every head to the stems adjacent to it.
func (s *Link) Process(ctx context.Context, region *sheet.Region) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	g := region.Graph
	stems := g.ByClass(sig.ClassStem)

	for _, headID := range g.ByClass(sig.ClassHead) {
		head, err := g.Inter(headID)
		if err != nil {
			return errors.Wrap(err, "unable to link head")
		}

		grown := head.Bounds.Inset(-reach)
		for _, stemID := range stems {
			stem, err := g.Inter(stemID)
			if err != nil {
				return errors.Wrap(err, "unable to link stem")
			}
			if !grown.Overlaps(stem.Bounds) {
				continue
			}
			if _, err := g.Relation(headID, stemID); err == nil {
				continue
			}
			if err := g.Link(headID, stemID, sig.RelSupport); err != nil {
				return errors.Wrap(err, "unable to add support relation")
			}
		}
	}

	return nil
}

// Epilog removes duplicate interpretations across region boundaries:
// when two regions hold the same shape over overlapping ink, only the
// better grade survives. Runs with exclusive access to the whole sheet.
func (s *Link) Epilog(ctx context.Context, sh *sheet.Sheet) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	regions := sh.Regions()
	for i, upper := range regions {
		if i+1 >= len(regions) {
			break
		}
		lower := regions[i+1]

		for _, up := range upper.Graph.Inters() {
			upLives := true
			for _, down := range lower.Graph.Inters() {
				if !upLives {
					break
				}
				if up.Shape == sig.ShapeNone || up.Shape != down.Shape {
					continue
				}
				if !up.Bounds.Overlaps(down.Bounds) {
					continue
				}

				loser, g := down, lower.Graph
				if down.Grade > up.Grade {
					loser, g = up, upper.Graph
					upLives = false
				}
				if _, err := g.Remove(loser.ID); err != nil {
					return errors.Wrap(err, "unable to remove duplicate inter")
				}
			}
		}
	}

	return nil
}

// Impact reacts to deassignments by unlinking the relations they
// orphaned. The generated tasks join the sequence for the steps after
// this one; they are not recorded into the script. Undo needs no work
// here: the forward pass's generated tasks are reversed with the
// transaction itself.
func (s *Link) Impact(ctx context.Context, seq *edit.Seq, opKind edit.OpKind) error {
	if opKind == edit.Undo {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, t := range seq.UserTasks() {
		if t.Kind != edit.KindDeassign {
			continue
		}

		g, err := seq.Graph(t.Region)
		if err != nil {
			return errors.Wrap(err, "unable to resolve region")
		}

		for _, rel := range g.RelationsOf(t.Inter) {
			task, err := edit.NewUnlink(g, t.Region, rel.Source, rel.Target)
			if err != nil {
				return errors.Wrap(err, "unable to build orphan unlink")
			}
			if err := seq.Add(task); err != nil {
				return errors.Wrap(err, "unable to unlink orphaned relation")
			}
		}
	}

	return nil
}
