// Package edit implements reversible user corrections to interpretation
// graphs: tasks, transactions and the working sequence of an impact pass.
package edit

import (
	"image"

	"github.com/pkg/errors"

	"github.com/EvgenyM/audiveris/pkg/sheet"
	"github.com/EvgenyM/audiveris/pkg/sig"
)

var (
	ErrStaleTask    = errors.New("task does not match current graph state")
	ErrLinkedTarget = errors.New("target still carries relations")
)

// OpKind is the direction a transaction is replayed with.
type OpKind int

const (
	Do OpKind = iota
	Undo
	Redo
)

func (k OpKind) String() string {
	switch k {
	case Do:
		return "DO"
	case Undo:
		return "UNDO"
	case Redo:
		return "REDO"
	default:
		return "UNKNOWN"
	}
}

// Kind discriminates the closed set of task variants. The string values
// are part of the persisted script format; do not rename.
type Kind string

const (
	KindAssign   Kind = "assign"
	KindDeassign Kind = "deassign"
	KindLink     Kind = "add-relation"
	KindUnlink   Kind = "remove-relation"
	KindSegment  Kind = "segment"
)

// InterSnapshot captures one interpretation for reversible removal and
// re-insertion.
type InterSnapshot struct {
	ID     sig.InterID `json:"id"`
	Class  sig.Class   `json:"class"`
	Shape  sig.Shape   `json:"shape"`
	Bounds [4]int      `json:"bounds"`
	Grade  float64     `json:"grade"`
}

func snapshot(in *sig.Inter) InterSnapshot {
	return InterSnapshot{
		ID:     in.ID,
		Class:  in.Class,
		Shape:  in.Shape,
		Bounds: [4]int{in.Bounds.Min.X, in.Bounds.Min.Y, in.Bounds.Max.X, in.Bounds.Max.Y},
		Grade:  in.Grade,
	}
}

func (s InterSnapshot) inter() *sig.Inter {
	return &sig.Inter{
		ID:     s.ID,
		Class:  s.Class,
		Shape:  s.Shape,
		Bounds: image.Rect(s.Bounds[0], s.Bounds[1], s.Bounds[2], s.Bounds[3]),
		Grade:  s.Grade,
	}
}

// Task is one reversible correction to a region graph. A task is never
// mutated after creation: undo and redo read the stored old and new
// values, they do not recompute them.
type Task struct {
	Kind   Kind           `json:"kind"`
	Region sheet.RegionID `json:"region"`

	Inter    sig.InterID `json:"inter,omitempty"`
	Source   sig.InterID `json:"source,omitempty"`
	Target   sig.InterID `json:"target,omitempty"`
	Relation sig.RelKind `json:"relation,omitempty"`

	OldShape sig.Shape `json:"old,omitempty"`
	NewShape sig.Shape `json:"new,omitempty"`

	Parent   *InterSnapshot  `json:"parent,omitempty"`
	Children []InterSnapshot `json:"children,omitempty"`

	Classes []sig.Class `json:"classes"`
}

// NewAssign builds a task relabeling an interpretation, capturing the
// shape it overwrites.
func NewAssign(g *sig.Graph, region sheet.RegionID, id sig.InterID, shape sig.Shape) (Task, error) {
	in, err := g.Inter(id)
	if err != nil {
		return Task{}, errors.Wrap(err, "unable to build assign task")
	}

	return Task{
		Kind:     KindAssign,
		Region:   region,
		Inter:    id,
		OldShape: in.Shape,
		NewShape: shape,
		Classes:  []sig.Class{in.Class},
	}, nil
}

// NewDeassign builds a task clearing an interpretation's shape, capturing
// the previous label so deassign-then-undo restores it exactly.
func NewDeassign(g *sig.Graph, region sheet.RegionID, id sig.InterID) (Task, error) {
	in, err := g.Inter(id)
	if err != nil {
		return Task{}, errors.Wrap(err, "unable to build deassign task")
	}

	return Task{
		Kind:     KindDeassign,
		Region:   region,
		Inter:    id,
		OldShape: in.Shape,
		NewShape: sig.ShapeNone,
		Classes:  []sig.Class{in.Class},
	}, nil
}

// NewLink builds a task adding a relation between two interpretations.
func NewLink(g *sig.Graph, region sheet.RegionID, source, target sig.InterID, kind sig.RelKind) (Task, error) {
	src, err := g.Inter(source)
	if err != nil {
		return Task{}, errors.Wrap(err, "unable to build link task")
	}
	tgt, err := g.Inter(target)
	if err != nil {
		return Task{}, errors.Wrap(err, "unable to build link task")
	}

	return Task{
		Kind:     KindLink,
		Region:   region,
		Source:   source,
		Target:   target,
		Relation: kind,
		Classes:  classUnion(src.Class, tgt.Class),
	}, nil
}

// NewUnlink builds a task removing an existing relation.
func NewUnlink(g *sig.Graph, region sheet.RegionID, source, target sig.InterID) (Task, error) {
	rel, err := g.Relation(source, target)
	if err != nil {
		return Task{}, errors.Wrap(err, "unable to build unlink task")
	}
	src, err := g.Inter(source)
	if err != nil {
		return Task{}, errors.Wrap(err, "unable to build unlink task")
	}
	tgt, err := g.Inter(target)
	if err != nil {
		return Task{}, errors.Wrap(err, "unable to build unlink task")
	}

	return Task{
		Kind:     KindUnlink,
		Region:   region,
		Source:   source,
		Target:   target,
		Relation: rel.Kind,
		Classes:  classUnion(src.Class, tgt.Class),
	}, nil
}

// NewSegment builds a task splitting one unlinked interpretation into
// two halves. The produced IDs are fixed at creation so replay assigns
// the same identities.
func NewSegment(g *sig.Graph, region sheet.RegionID, id sig.InterID, left, right sig.InterID) (Task, error) {
	in, err := g.Inter(id)
	if err != nil {
		return Task{}, errors.Wrap(err, "unable to build segment task")
	}
	if len(g.RelationsOf(id)) > 0 {
		return Task{}, errors.Wrapf(ErrLinkedTarget, "inter %d", id)
	}

	parent := snapshot(in)
	mid := (in.Bounds.Min.X + in.Bounds.Max.X) / 2

	leftSnap := parent
	leftSnap.ID = left
	leftSnap.Shape = sig.ShapeNone
	leftSnap.Bounds = [4]int{in.Bounds.Min.X, in.Bounds.Min.Y, mid, in.Bounds.Max.Y}

	rightSnap := parent
	rightSnap.ID = right
	rightSnap.Shape = sig.ShapeNone
	rightSnap.Bounds = [4]int{mid, in.Bounds.Min.Y, in.Bounds.Max.X, in.Bounds.Max.Y}

	return Task{
		Kind:     KindSegment,
		Region:   region,
		Inter:    id,
		Parent:   &parent,
		Children: []InterSnapshot{leftSnap, rightSnap},
		Classes:  []sig.Class{in.Class},
	}, nil
}

// Apply mutates the graph from the task's old to its new value. An
// absent target is an error, never a silent no-op, and every
// precondition is checked before the first mutation so a failed apply
// leaves the graph untouched.
func (t Task) Apply(g *sig.Graph) error {
	switch t.Kind {
	case KindAssign, KindDeassign:
		return errors.Wrapf(setShapeChecked(g, t.Inter, t.OldShape, t.NewShape),
			"%s inter %d", t.Kind, t.Inter)

	case KindLink:
		return errors.Wrapf(g.Link(t.Source, t.Target, t.Relation), "apply %s", t.Kind)

	case KindUnlink:
		return errors.Wrapf(g.Unlink(t.Source, t.Target, t.Relation), "apply %s", t.Kind)

	case KindSegment:
		if len(g.RelationsOf(t.Inter)) > 0 {
			return errors.Wrapf(ErrLinkedTarget, "segment inter %d", t.Inter)
		}
		if _, err := g.Remove(t.Inter); err != nil {
			return errors.Wrapf(err, "segment inter %d", t.Inter)
		}
		for _, child := range t.Children {
			if _, err := g.Add(child.inter()); err != nil {
				return errors.Wrapf(err, "segment inter %d", t.Inter)
			}
		}
		return nil

	default:
		return errors.Errorf("unknown task kind %q", t.Kind)
	}
}

// Unapply mutates the graph from the task's new value back to its old
// value. It is the exact inverse of Apply.
func (t Task) Unapply(g *sig.Graph) error {
	switch t.Kind {
	case KindAssign, KindDeassign:
		return errors.Wrapf(setShapeChecked(g, t.Inter, t.NewShape, t.OldShape),
			"undo %s inter %d", t.Kind, t.Inter)

	case KindLink:
		return errors.Wrapf(g.Unlink(t.Source, t.Target, t.Relation), "undo %s", t.Kind)

	case KindUnlink:
		return errors.Wrapf(g.Link(t.Source, t.Target, t.Relation), "undo %s", t.Kind)

	case KindSegment:
		for _, child := range t.Children {
			if _, err := g.Remove(child.ID); err != nil {
				return errors.Wrapf(err, "undo segment inter %d", t.Inter)
			}
		}
		if _, err := g.Add(t.Parent.inter()); err != nil {
			return errors.Wrapf(err, "undo segment inter %d", t.Inter)
		}
		return nil

	default:
		return errors.Errorf("unknown task kind %q", t.Kind)
	}
}

// setShapeChecked verifies the recorded shape against the graph before
// writing, so a stale task fails without mutating anything.
func setShapeChecked(g *sig.Graph, id sig.InterID, want, next sig.Shape) error {
	in, err := g.Inter(id)
	if err != nil {
		return err
	}
	if in.Shape != want {
		return errors.Wrapf(ErrStaleTask, "shape %q, task recorded %q", in.Shape, want)
	}

	_, err = g.SetShape(id, next)
	return err
}

func classUnion(classes ...sig.Class) []sig.Class {
	seen := make(map[sig.Class]struct{}, len(classes))
	res := make([]sig.Class, 0, len(classes))
	for _, c := range classes {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		res = append(res, c)
	}
	return res
}
