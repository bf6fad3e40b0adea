// Package memory provides an in-memory graph.Store, used by tests and by
// embedded callers that do not need durability.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/typegraph-io/typegraph/internal/entities"
	"github.com/typegraph-io/typegraph/internal/graph"
)

type edgeKey struct {
	fromID int64
	toID   int64
	label  string
}

// Store is a mutex-guarded in-memory implementation of graph.Store.
type Store struct {
	mu sync.RWMutex

	nextID    int64
	byID      map[int64]*graph.Vertex
	byName    map[string]int64
	byGUID    map[string]int64
	order     []int64 // creation order, for category iteration
	props     map[int64]map[string]string
	listProps map[int64]map[string][]string
	edges     map[edgeKey]bool
	edgeOrder []edgeKey
}

// NewStore creates an empty in-memory graph store.
func NewStore() *Store {
	return &Store{
		byID:      make(map[int64]*graph.Vertex),
		byName:    make(map[string]int64),
		byGUID:    make(map[string]int64),
		props:     make(map[int64]map[string]string),
		listProps: make(map[int64]map[string][]string),
		edges:     make(map[edgeKey]bool),
	}
}

// CreateVertex creates a vertex for the named type.
func (s *Store) CreateVertex(ctx context.Context, typeName, guid string, category entities.TypeCategory) (*graph.Vertex, error) {
	if typeName == "" {
		return nil, fmt.Errorf("type name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byName[typeName]; exists {
		return nil, fmt.Errorf("vertex already exists for type: %s", typeName)
	}
	if guid == "" {
		guid = uuid.NewString()
	}

	s.nextID++
	now := time.Now()
	v := &graph.Vertex{
		ID:        s.nextID,
		GUID:      guid,
		TypeName:  typeName,
		Category:  category,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.byID[v.ID] = v
	s.byName[typeName] = v.ID
	s.byGUID[guid] = v.ID
	s.order = append(s.order, v.ID)
	s.props[v.ID] = make(map[string]string)
	s.listProps[v.ID] = make(map[string][]string)

	return copyVertex(v), nil
}

// FindVertexByName returns the vertex for the type name, or nil.
func (s *Store) FindVertexByName(ctx context.Context, typeName string) (*graph.Vertex, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byName[typeName]
	if !ok {
		return nil, nil
	}
	return copyVertex(s.byID[id]), nil
}

// FindVertexByGUID returns the vertex for the guid, or nil.
func (s *Store) FindVertexByGUID(ctx context.Context, guid string) (*graph.Vertex, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byGUID[guid]
	if !ok {
		return nil, nil
	}
	return copyVertex(s.byID[id]), nil
}

// FindVerticesByCategory returns all vertices of the category in creation order.
func (s *Store) FindVerticesByCategory(ctx context.Context, category entities.TypeCategory) ([]*graph.Vertex, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*graph.Vertex
	for _, id := range s.order {
		if v, ok := s.byID[id]; ok && v.Category == category {
			result = append(result, copyVertex(v))
		}
	}
	return result, nil
}

// DeleteVertex removes the vertex together with its properties and edges.
func (s *Store) DeleteVertex(ctx context.Context, v *graph.Vertex) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.byID[v.ID]
	if !ok {
		return fmt.Errorf("vertex %d does not exist", v.ID)
	}

	delete(s.byID, stored.ID)
	delete(s.byName, stored.TypeName)
	delete(s.byGUID, stored.GUID)
	delete(s.props, stored.ID)
	delete(s.listProps, stored.ID)
	for i, id := range s.order {
		if id == stored.ID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.removeEdges(func(k edgeKey) bool { return k.fromID == stored.ID || k.toID == stored.ID })

	return nil
}

// DeleteOutEdges removes every outgoing edge of the vertex.
func (s *Store) DeleteOutEdges(ctx context.Context, v *graph.Vertex) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeEdges(func(k edgeKey) bool { return k.fromID == v.ID })
	return nil
}

// GetOrCreateEdge idempotently creates a labeled edge.
func (s *Store) GetOrCreateEdge(ctx context.Context, from, to *graph.Vertex, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[from.ID]; !ok {
		return fmt.Errorf("edge source vertex %d does not exist", from.ID)
	}
	if _, ok := s.byID[to.ID]; !ok {
		return fmt.Errorf("edge target vertex %d does not exist", to.ID)
	}

	k := edgeKey{fromID: from.ID, toID: to.ID, label: label}
	if !s.edges[k] {
		s.edges[k] = true
		s.edgeOrder = append(s.edgeOrder, k)
	}
	return nil
}

// OutEdges returns the outgoing edges of the vertex in creation order.
func (s *Store) OutEdges(ctx context.Context, v *graph.Vertex) ([]*graph.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*graph.Edge
	for _, k := range s.edgeOrder {
		if s.edges[k] && k.fromID == v.ID {
			result = append(result, &graph.Edge{FromID: k.fromID, ToID: k.toID, Label: k.label})
		}
	}
	return result, nil
}

// SetProperty sets a string property on the vertex.
func (s *Store) SetProperty(ctx context.Context, v *graph.Vertex, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	props, ok := s.props[v.ID]
	if !ok {
		return fmt.Errorf("vertex %d does not exist", v.ID)
	}
	props[key] = value
	s.byID[v.ID].UpdatedAt = time.Now()
	return nil
}

// SetListProperty sets a string-list property on the vertex.
func (s *Store) SetListProperty(ctx context.Context, v *graph.Vertex, key string, values []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	props, ok := s.listProps[v.ID]
	if !ok {
		return fmt.Errorf("vertex %d does not exist", v.ID)
	}
	props[key] = append([]string(nil), values...)
	s.byID[v.ID].UpdatedAt = time.Now()
	return nil
}

// GetProperty returns the string property and whether it is present.
func (s *Store) GetProperty(ctx context.Context, v *graph.Vertex, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	props, ok := s.props[v.ID]
	if !ok {
		return "", false, fmt.Errorf("vertex %d does not exist", v.ID)
	}
	value, present := props[key]
	return value, present, nil
}

// GetListProperty returns the list property, or nil when absent.
func (s *Store) GetListProperty(ctx context.Context, v *graph.Vertex, key string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	props, ok := s.listProps[v.ID]
	if !ok {
		return nil, fmt.Errorf("vertex %d does not exist", v.ID)
	}
	values, present := props[key]
	if !present {
		return nil, nil
	}
	return append([]string(nil), values...), nil
}

// IsVertexOfCategory reports whether the vertex carries the category tag.
func (s *Store) IsVertexOfCategory(v *graph.Vertex, category entities.TypeCategory) bool {
	return v != nil && v.Category == category
}

// removeEdges drops every edge matching the predicate. Callers hold the lock.
func (s *Store) removeEdges(match func(edgeKey) bool) {
	kept := s.edgeOrder[:0]
	for _, k := range s.edgeOrder {
		if match(k) {
			delete(s.edges, k)
			continue
		}
		kept = append(kept, k)
	}
	s.edgeOrder = kept
}

func copyVertex(v *graph.Vertex) *graph.Vertex {
	c := *v
	return &c
}
