// Package graph defines the property-graph store the type catalog is built
// on. Vertices carry a type name, a category tag, and string or string-list
// properties; directed labeled edges connect a type to the types it
// references. Durability and isolation are the implementation's concern.
package graph

import (
	"context"
	"time"

	"github.com/typegraph-io/typegraph/internal/entities"
)

// Vertex is a lightweight handle to a stored type vertex.
type Vertex struct {
	ID        int64
	GUID      string
	TypeName  string
	Category  entities.TypeCategory
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Edge is a directed, labeled edge between two type vertices.
type Edge struct {
	FromID int64
	ToID   int64
	Label  string
}

// Store is the graph-storage contract consumed by the catalog. Lookups
// return a nil vertex (and nil error) when nothing matches, so callers can
// distinguish "absent" from storage failures.
type Store interface {
	// CreateVertex creates a vertex for the named type. A blank guid is
	// replaced with a freshly minted one.
	CreateVertex(ctx context.Context, typeName, guid string, category entities.TypeCategory) (*Vertex, error)

	FindVertexByName(ctx context.Context, typeName string) (*Vertex, error)
	FindVertexByGUID(ctx context.Context, guid string) (*Vertex, error)

	// FindVerticesByCategory returns all vertices of a category in creation
	// order.
	FindVerticesByCategory(ctx context.Context, category entities.TypeCategory) ([]*Vertex, error)

	// DeleteVertex removes the vertex and its properties and edges.
	DeleteVertex(ctx context.Context, v *Vertex) error

	// DeleteOutEdges removes every outgoing edge of the vertex.
	DeleteOutEdges(ctx context.Context, v *Vertex) error

	// GetOrCreateEdge idempotently creates a labeled edge; repeated calls
	// for the same (from, to, label) converge to a single edge.
	GetOrCreateEdge(ctx context.Context, from, to *Vertex, label string) error

	// OutEdges returns the vertex's outgoing edges, supporting
	// type-dependency traversals without decoding any stored blob.
	OutEdges(ctx context.Context, v *Vertex) ([]*Edge, error)

	SetProperty(ctx context.Context, v *Vertex, key, value string) error
	SetListProperty(ctx context.Context, v *Vertex, key string, values []string) error

	// GetProperty returns the string property and whether it is present.
	GetProperty(ctx context.Context, v *Vertex, key string) (string, bool, error)

	// GetListProperty returns the list property; absent keys yield nil.
	GetListProperty(ctx context.Context, v *Vertex, key string) ([]string, error)

	// IsVertexOfCategory reports whether the vertex carries the category tag.
	IsVertexOfCategory(v *Vertex, category entities.TypeCategory) bool
}
