// Package sig implements the per-region symbol interpretation graph:
// typed interpretation vertices connected by typed relations, mutated by
// pipeline steps during processing and by edit tasks during correction.
package sig

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"

	"github.com/EvgenyM/audiveris/internal/store"
)

func interHash(in *Inter) InterID { return in.ID }

// Graph holds the interpretations of one region. A Graph is exclusively
// owned by the pipeline while a process or impact call touches its
// region; it is not safe for concurrent external mutation during those
// windows.
type Graph struct {
	mu     sync.Mutex
	nextID InterID

	g  graph.Graph[InterID, *Inter]
	st store.GraphStore[InterID, *Inter]
}

// NewGraph creates an empty interpretation graph.
func NewGraph() *Graph {
	st := store.NewMemoryStore[InterID, *Inter](func(in *Inter) string {
		return string(in.Class)
	})

	return &Graph{
		g:  graph.NewWithStore(interHash, st, graph.Directed()),
		st: st,
	}
}

// Add inserts an interpretation. A zero ID is replaced by the next value
// of the graph's monotonic counter; an explicit ID (replay, segmentation)
// is kept and the counter is bumped past it.
func (gr *Graph) Add(in *Inter) (InterID, error) {
	gr.mu.Lock()
	if in.ID == 0 {
		gr.nextID++
		in.ID = gr.nextID
	} else if in.ID > gr.nextID {
		gr.nextID = in.ID
	}
	gr.mu.Unlock()

	if in.Class == "" {
		in.Class = ClassOf(in.Shape)
	}

	err := gr.g.AddVertex(in)
	if err != nil {
		if errors.Is(err, graph.ErrVertexAlreadyExists) {
			return 0, errors.Wrapf(ErrDuplicateInter, "inter %d", in.ID)
		}
		return 0, errors.Wrapf(err, "unable to add inter %d", in.ID)
	}

	return in.ID, nil
}

// Inter reports the interpretation with the given ID.
func (gr *Graph) Inter(id InterID) (*Inter, error) {
	in, err := gr.g.Vertex(id)
	if err != nil {
		if errors.Is(err, graph.ErrVertexNotFound) {
			return nil, errors.Wrapf(ErrInterNotFound, "inter %d", id)
		}
		return nil, errors.Wrapf(err, "unable to get inter %d", id)
	}
	return in, nil
}

// SetShape relabels an interpretation and reports the shape it replaced.
// An absent target is an error, never a silent no-op.
func (gr *Graph) SetShape(id InterID, shape Shape) (Shape, error) {
	in, err := gr.Inter(id)
	if err != nil {
		return ShapeNone, err
	}

	old := in.Shape
	in.Shape = shape

	return old, nil
}

// Remove deletes an interpretation together with every relation touching
// it, and reports the removed relations so the caller can account for
// the cascade.
func (gr *Graph) Remove(id InterID) ([]Relation, error) {
	removed, err := gr.st.RemoveVertexAndEdges(id)
	if err != nil {
		if errors.Is(err, graph.ErrVertexNotFound) {
			return nil, errors.Wrapf(ErrInterNotFound, "inter %d", id)
		}
		return nil, errors.Wrapf(err, "unable to remove inter %d", id)
	}

	rels := make([]Relation, 0, len(removed))
	for _, e := range removed {
		rels = append(rels, relationOf(e))
	}
	sortRelations(rels)

	return rels, nil
}

// Link adds a typed relation between two present interpretations. At
// most one relation may exist per ordered pair.
func (gr *Graph) Link(source, target InterID, kind RelKind) error {
	err := gr.g.AddEdge(source, target, graph.EdgeData(kind))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, graph.ErrEdgeAlreadyExists):
		return errors.Wrapf(ErrDuplicateRelation, "%d -> %d", source, target)
	case errors.Is(err, graph.ErrVertexNotFound):
		return errors.Wrapf(ErrInterNotFound, "relation %d -> %d", source, target)
	default:
		return errors.Wrapf(err, "unable to link %d -> %d", source, target)
	}
}

// Unlink removes the relation between two interpretations. The kind must
// match the stored relation, so an undo cannot remove a relation it did
// not create.
func (gr *Graph) Unlink(source, target InterID, kind RelKind) error {
	e, err := gr.st.Edge(source, target)
	if err != nil {
		return errors.Wrapf(ErrRelationNotFound, "%d -> %d", source, target)
	}
	if relationOf(e).Kind != kind {
		return errors.Wrapf(ErrRelationKindsDiffer, "%d -> %d: have %s, want %s",
			source, target, relationOf(e).Kind, kind)
	}

	err = gr.g.RemoveEdge(source, target)
	if err != nil {
		return errors.Wrapf(err, "unable to unlink %d -> %d", source, target)
	}

	return nil
}

// Relation reports the relation between two interpretations, if any.
func (gr *Graph) Relation(source, target InterID) (Relation, error) {
	e, err := gr.st.Edge(source, target)
	if err != nil {
		return Relation{}, errors.Wrapf(ErrRelationNotFound, "%d -> %d", source, target)
	}
	return relationOf(e), nil
}

// ByClass reports the IDs of all interpretations with the given class,
// in ascending ID order.
func (gr *Graph) ByClass(class Class) []InterID {
	ids := gr.st.ByGroup(string(class))
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Inters reports every interpretation in ascending ID order.
func (gr *Graph) Inters() []*Inter {
	ids, _ := gr.st.ListVertices()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	inters := make([]*Inter, 0, len(ids))
	for _, id := range ids {
		in, _, err := gr.st.Vertex(id)
		if err != nil {
			continue
		}
		inters = append(inters, in)
	}
	return inters
}

// Relations reports every relation, ordered by source then target.
func (gr *Graph) Relations() []Relation {
	edges, _ := gr.st.ListEdges()

	rels := make([]Relation, 0, len(edges))
	for _, e := range edges {
		rels = append(rels, relationOf(e))
	}
	sortRelations(rels)
	return rels
}

// RelationsOf reports every relation touching the given interpretation,
// ordered by source then target.
func (gr *Graph) RelationsOf(id InterID) []Relation {
	var res []Relation
	for _, rel := range gr.Relations() {
		if rel.Source == id || rel.Target == id {
			res = append(res, rel)
		}
	}
	return res
}

// Count reports the number of interpretations.
func (gr *Graph) Count() int {
	n, _ := gr.st.VertexCount()
	return n
}

// Fingerprint digests the graph content into a stable hex string. Two
// graphs built by the same sequence of operations produce the same
// fingerprint; replay equality is checked with it.
func (gr *Graph) Fingerprint() string {
	h := sha256.New()

	for _, in := range gr.Inters() {
		fmt.Fprintf(h, "i|%d|%s|%s|%d,%d,%d,%d|%.6f\n",
			in.ID, in.Class, in.Shape,
			in.Bounds.Min.X, in.Bounds.Min.Y, in.Bounds.Max.X, in.Bounds.Max.Y,
			in.Grade)
	}
	for _, rel := range gr.Relations() {
		fmt.Fprintf(h, "r|%d|%d|%s\n", rel.Source, rel.Target, rel.Kind)
	}

	return hex.EncodeToString(h.Sum(nil))
}

func relationOf(e graph.Edge[InterID]) Relation {
	kind, _ := e.Properties.Data.(RelKind)
	return Relation{Source: e.Source, Target: e.Target, Kind: kind}
}

func sortRelations(rels []Relation) {
	sort.Slice(rels, func(i, j int) bool {
		if rels[i].Source != rels[j].Source {
			return rels[i].Source < rels[j].Source
		}
		return rels[i].Target < rels[j].Target
	})
}
