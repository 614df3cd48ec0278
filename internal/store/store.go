package store

import (
	"sync"

	"github.com/dominikbraun/graph"
)

// GraphStore extends the graph store contract with the operations the
// interpretation graph needs: group lookups and cascading removal.
type GraphStore[K comparable, T any] interface {
	graph.Store[K, T]
	UpdateVertex(k K, options ...func(*graph.VertexProperties))
	ByGroup(group string) []K
	RemoveVertexAndEdges(k K) ([]graph.Edge[K], error)
}

// MemoryStore is an in-memory graph store. Vertices are indexed by the
// group key derived from their value at insertion time; the group of a
// vertex must not change while it is stored.
type MemoryStore[K comparable, T any] struct {
	lock             sync.RWMutex
	groupOf          func(T) string
	vertices         map[K]T
	vertexProperties map[K]*graph.VertexProperties
	groups           map[string]map[K]struct{}

	// outEdges and inEdges store all outgoing and ingoing edges for all vertices. For O(1) access,
	// these edges themselves are stored in maps whose keys are the hashes of the target vertices.
	outEdges map[K]map[K]graph.Edge[K] // source -> target
	inEdges  map[K]map[K]graph.Edge[K] // target -> source
}

func NewMemoryStore[K comparable, T any](groupOf func(T) string) GraphStore[K, T] {
	return &MemoryStore[K, T]{
		groupOf:          groupOf,
		vertices:         make(map[K]T),
		vertexProperties: make(map[K]*graph.VertexProperties),
		groups:           make(map[string]map[K]struct{}),
		outEdges:         make(map[K]map[K]graph.Edge[K]),
		inEdges:          make(map[K]map[K]graph.Edge[K]),
	}
}

func (s *MemoryStore[K, T]) AddVertex(k K, t T, p graph.VertexProperties) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.vertices[k]; ok {
		return graph.ErrVertexAlreadyExists
	}

	s.vertices[k] = t
	s.vertexProperties[k] = &p

	group := s.groupOf(t)
	if s.groups[group] == nil {
		s.groups[group] = make(map[K]struct{})
	}
	s.groups[group][k] = struct{}{}

	return nil
}

func (s *MemoryStore[K, T]) ListVertices() ([]K, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	hashes := make([]K, 0, len(s.vertices))
	for k := range s.vertices {
		hashes = append(hashes, k)
	}

	return hashes, nil
}

func (s *MemoryStore[K, T]) VertexCount() (int, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return len(s.vertices), nil
}

func (s *MemoryStore[K, T]) Vertex(k K) (T, graph.VertexProperties, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	v, ok := s.vertices[k]
	if !ok {
		return v, graph.VertexProperties{}, graph.ErrVertexNotFound
	}

	p := s.vertexProperties[k]

	return v, *p, nil
}

// ByGroup reports the hashes of all vertices whose value maps to the given
// group key. Order is unspecified.
func (s *MemoryStore[K, T]) ByGroup(group string) []K {
	s.lock.RLock()
	defer s.lock.RUnlock()

	hashes := make([]K, 0, len(s.groups[group]))
	for k := range s.groups[group] {
		hashes = append(hashes, k)
	}

	return hashes
}

func (s *MemoryStore[K, T]) RemoveVertex(k K) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	v, ok := s.vertices[k]
	if !ok {
		return graph.ErrVertexNotFound
	}

	if edges, ok := s.inEdges[k]; ok {
		if len(edges) > 0 {
			return graph.ErrVertexHasEdges
		}
		delete(s.inEdges, k)
	}

	if edges, ok := s.outEdges[k]; ok {
		if len(edges) > 0 {
			return graph.ErrVertexHasEdges
		}
		delete(s.outEdges, k)
	}

	s.deleteVertex(k, v)

	return nil
}

// RemoveVertexAndEdges removes a vertex together with every edge touching
// it and reports the removed edges, so the caller can account for the
// cascade.
func (s *MemoryStore[K, T]) RemoveVertexAndEdges(k K) ([]graph.Edge[K], error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	v, ok := s.vertices[k]
	if !ok {
		return nil, graph.ErrVertexNotFound
	}

	removed := make([]graph.Edge[K], 0, len(s.inEdges[k])+len(s.outEdges[k]))

	for source, edge := range s.inEdges[k] {
		removed = append(removed, edge)
		delete(s.outEdges[source], k)
	}
	delete(s.inEdges, k)

	for target, edge := range s.outEdges[k] {
		// A self-loop shows up in both maps but must be reported once.
		if target != k {
			removed = append(removed, edge)
		}
		delete(s.inEdges[target], k)
	}
	delete(s.outEdges, k)

	s.deleteVertex(k, v)

	return removed, nil
}

func (s *MemoryStore[K, T]) deleteVertex(k K, v T) {
	delete(s.vertices, k)
	delete(s.vertexProperties, k)

	group := s.groupOf(v)
	delete(s.groups[group], k)
	if len(s.groups[group]) == 0 {
		delete(s.groups, group)
	}
}

func (s *MemoryStore[K, T]) AddEdge(sourceHash, targetHash K, edge graph.Edge[K]) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.outEdges[sourceHash]; !ok {
		s.outEdges[sourceHash] = make(map[K]graph.Edge[K])
	}

	s.outEdges[sourceHash][targetHash] = edge

	if _, ok := s.inEdges[targetHash]; !ok {
		s.inEdges[targetHash] = make(map[K]graph.Edge[K])
	}

	s.inEdges[targetHash][sourceHash] = edge

	return nil
}

func (s *MemoryStore[K, T]) UpdateVertex(k K, options ...func(*graph.VertexProperties)) {
	s.lock.Lock()
	defer s.lock.Unlock()

	for _, opt := range options {
		opt(s.vertexProperties[k])
	}
}

func (s *MemoryStore[K, T]) UpdateEdge(sourceHash, targetHash K, edge graph.Edge[K]) error {
	if _, err := s.Edge(sourceHash, targetHash); err != nil {
		return err
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	s.outEdges[sourceHash][targetHash] = edge
	s.inEdges[targetHash][sourceHash] = edge

	return nil
}

func (s *MemoryStore[K, T]) RemoveEdge(sourceHash, targetHash K) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	delete(s.inEdges[targetHash], sourceHash)
	delete(s.outEdges[sourceHash], targetHash)
	return nil
}

func (s *MemoryStore[K, T]) Edge(sourceHash, targetHash K) (graph.Edge[K], error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	sourceEdges, ok := s.outEdges[sourceHash]
	if !ok {
		return graph.Edge[K]{}, graph.ErrEdgeNotFound
	}

	edge, ok := sourceEdges[targetHash]
	if !ok {
		return graph.Edge[K]{}, graph.ErrEdgeNotFound
	}

	return edge, nil
}

func (s *MemoryStore[K, T]) ListEdges() ([]graph.Edge[K], error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	res := make([]graph.Edge[K], 0)
	for _, edges := range s.outEdges {
		for _, edge := range edges {
			res = append(res, edge)
		}
	}
	return res, nil
}
