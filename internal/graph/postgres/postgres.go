// Package postgres implements graph.Store on PostgreSQL. Vertices, their
// properties, and edges live in three tables created by the migrations under
// internal/infrastructure/database/migrations/postgres.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/typegraph-io/typegraph/internal/entities"
	"github.com/typegraph-io/typegraph/internal/graph"
)

// Store implements graph.Store using PostgreSQL.
type Store struct {
	db *sql.DB
}

// NewStore creates a new PostgreSQL graph store.
func NewStore(db *sql.DB) graph.Store {
	return &Store{db: db}
}

// CreateVertex creates a vertex for the named type.
func (s *Store) CreateVertex(ctx context.Context, typeName, guid string, category entities.TypeCategory) (*graph.Vertex, error) {
	if typeName == "" {
		return nil, fmt.Errorf("type name is required")
	}
	if guid == "" {
		guid = uuid.NewString()
	}

	query := `
		INSERT INTO type_vertices (guid, name, category, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	now := time.Now()

	var id int64
	if err := s.db.QueryRowContext(ctx, query, guid, typeName, string(category), now, now).Scan(&id); err != nil {
		return nil, fmt.Errorf("failed to create vertex for %s: %w", typeName, err)
	}

	return &graph.Vertex{
		ID:        id,
		GUID:      guid,
		TypeName:  typeName,
		Category:  category,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// FindVertexByName returns the vertex for the type name, or nil.
func (s *Store) FindVertexByName(ctx context.Context, typeName string) (*graph.Vertex, error) {
	query := `
		SELECT id, guid, name, category, created_at, updated_at
		FROM type_vertices
		WHERE name = $1
	`
	return s.scanVertex(s.db.QueryRowContext(ctx, query, typeName))
}

// FindVertexByGUID returns the vertex for the guid, or nil.
func (s *Store) FindVertexByGUID(ctx context.Context, guid string) (*graph.Vertex, error) {
	query := `
		SELECT id, guid, name, category, created_at, updated_at
		FROM type_vertices
		WHERE guid = $1
	`
	return s.scanVertex(s.db.QueryRowContext(ctx, query, guid))
}

// FindVerticesByCategory returns all vertices of the category in creation order.
func (s *Store) FindVerticesByCategory(ctx context.Context, category entities.TypeCategory) ([]*graph.Vertex, error) {
	query := `
		SELECT id, guid, name, category, created_at, updated_at
		FROM type_vertices
		WHERE category = $1
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, query, string(category))
	if err != nil {
		return nil, fmt.Errorf("failed to query vertices by category: %w", err)
	}
	defer rows.Close()

	var result []*graph.Vertex
	for rows.Next() {
		var v graph.Vertex
		var category string
		if err := rows.Scan(&v.ID, &v.GUID, &v.TypeName, &category, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan vertex: %w", err)
		}
		v.Category = entities.TypeCategory(category)
		result = append(result, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate vertices: %w", err)
	}
	return result, nil
}

// DeleteVertex removes the vertex; properties and edges follow via cascade.
func (s *Store) DeleteVertex(ctx context.Context, v *graph.Vertex) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM type_vertices WHERE id = $1`, v.ID)
	if err != nil {
		return fmt.Errorf("failed to delete vertex %d: %w", v.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("vertex %d does not exist", v.ID)
	}
	return nil
}

// DeleteOutEdges removes every outgoing edge of the vertex.
func (s *Store) DeleteOutEdges(ctx context.Context, v *graph.Vertex) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM type_edges WHERE from_id = $1`, v.ID); err != nil {
		return fmt.Errorf("failed to delete out edges of vertex %d: %w", v.ID, err)
	}
	return nil
}

// GetOrCreateEdge idempotently creates a labeled edge.
func (s *Store) GetOrCreateEdge(ctx context.Context, from, to *graph.Vertex, label string) error {
	query := `
		INSERT INTO type_edges (from_id, to_id, label, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (from_id, to_id, label) DO NOTHING
	`
	if _, err := s.db.ExecContext(ctx, query, from.ID, to.ID, label, time.Now()); err != nil {
		return fmt.Errorf("failed to create edge %s: %w", label, err)
	}
	return nil
}

// OutEdges returns the vertex's outgoing edges in creation order.
func (s *Store) OutEdges(ctx context.Context, v *graph.Vertex) ([]*graph.Edge, error) {
	query := `
		SELECT from_id, to_id, label
		FROM type_edges
		WHERE from_id = $1
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, query, v.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query out edges: %w", err)
	}
	defer rows.Close()

	var result []*graph.Edge
	for rows.Next() {
		var e graph.Edge
		if err := rows.Scan(&e.FromID, &e.ToID, &e.Label); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		result = append(result, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate edges: %w", err)
	}
	return result, nil
}

// SetProperty sets a string property on the vertex.
func (s *Store) SetProperty(ctx context.Context, v *graph.Vertex, key, value string) error {
	query := `
		INSERT INTO type_vertex_properties (vertex_id, key, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (vertex_id, key) DO UPDATE SET value = $3, list_value = NULL
	`
	if _, err := s.db.ExecContext(ctx, query, v.ID, key, value); err != nil {
		return fmt.Errorf("failed to set property %s: %w", key, err)
	}
	return s.touch(ctx, v)
}

// SetListProperty sets a string-list property on the vertex.
func (s *Store) SetListProperty(ctx context.Context, v *graph.Vertex, key string, values []string) error {
	query := `
		INSERT INTO type_vertex_properties (vertex_id, key, list_value)
		VALUES ($1, $2, $3)
		ON CONFLICT (vertex_id, key) DO UPDATE SET list_value = $3, value = NULL
	`
	if _, err := s.db.ExecContext(ctx, query, v.ID, key, pq.Array(values)); err != nil {
		return fmt.Errorf("failed to set list property %s: %w", key, err)
	}
	return s.touch(ctx, v)
}

// GetProperty returns the string property and whether it is present.
func (s *Store) GetProperty(ctx context.Context, v *graph.Vertex, key string) (string, bool, error) {
	query := `SELECT value FROM type_vertex_properties WHERE vertex_id = $1 AND key = $2`

	var value sql.NullString
	err := s.db.QueryRowContext(ctx, query, v.ID, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get property %s: %w", key, err)
	}
	if !value.Valid {
		return "", false, nil
	}
	return value.String, true, nil
}

// GetListProperty returns the list property, or nil when absent.
func (s *Store) GetListProperty(ctx context.Context, v *graph.Vertex, key string) ([]string, error) {
	query := `SELECT list_value FROM type_vertex_properties WHERE vertex_id = $1 AND key = $2`

	var values pq.StringArray
	err := s.db.QueryRowContext(ctx, query, v.ID, key).Scan(&values)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get list property %s: %w", key, err)
	}
	return []string(values), nil
}

// IsVertexOfCategory reports whether the vertex carries the category tag.
func (s *Store) IsVertexOfCategory(v *graph.Vertex, category entities.TypeCategory) bool {
	return v != nil && v.Category == category
}

// touch bumps the vertex's updated_at after a property write.
func (s *Store) touch(ctx context.Context, v *graph.Vertex) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE type_vertices SET updated_at = $1 WHERE id = $2`, time.Now(), v.ID); err != nil {
		return fmt.Errorf("failed to update vertex timestamp: %w", err)
	}
	return nil
}

func (s *Store) scanVertex(row *sql.Row) (*graph.Vertex, error) {
	var v graph.Vertex
	var category string

	err := row.Scan(&v.ID, &v.GUID, &v.TypeName, &category, &v.CreatedAt, &v.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan vertex: %w", err)
	}
	v.Category = entities.TypeCategory(category)
	return &v, nil
}
