package store

import (
	"context"
	"fmt"

	"github.com/typegraph-io/typegraph/internal/entities"
	"github.com/typegraph-io/typegraph/internal/graph"
)

type pendingEdge struct {
	to    *graph.Vertex
	label string
}

// addReferences materializes a directed edge from the type's vertex to every
// user-defined type its attributes reference, so type-dependency queries can
// traverse the graph without decoding attribute records.
//
// All referenced names are resolved before any edge is created; an unknown
// type fails the whole call with no partial edge set left behind. Edge
// creation itself is idempotent.
func (s *StructDefStore) addReferences(ctx context.Context, def *entities.StructDef, vertex *graph.Vertex) error {
	var edges []pendingEdge

	for _, attr := range def.AttributeDefs {
		for _, refTypeName := range entities.ReferencedTypeNames(attr.TypeName) {
			if entities.IsBuiltInTypeName(refTypeName) {
				continue
			}

			refVertex, err := s.graph.FindVertexByName(ctx, refTypeName)
			if err != nil {
				return fmt.Errorf("failed to look up referenced type %s: %w", refTypeName, err)
			}
			if refVertex == nil {
				return fmt.Errorf("%s.%s references %s: %w", def.Name, attr.Name, refTypeName, entities.ErrUnknownReferencedType)
			}

			edges = append(edges, pendingEdge{
				to:    refVertex,
				label: referenceEdgeLabel(vertex.TypeName, attr.Name),
			})
		}
	}

	for _, e := range edges {
		if err := s.graph.GetOrCreateEdge(ctx, vertex, e.to, e.label); err != nil {
			return fmt.Errorf("failed to create reference edge %s: %w", e.label, err)
		}
	}

	return nil
}
