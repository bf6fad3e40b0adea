// Package store implements the struct-type-definition repository over a
// property graph. Each struct type is one vertex; its attribute definitions
// are JSON records in vertex properties, and its references to other types
// are labeled edges. Relationship constraints are re-derived on read by
// cross-referencing the referenced type's stored attributes.
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/typegraph-io/typegraph/internal/entities"
	"github.com/typegraph-io/typegraph/internal/graph"
	"github.com/typegraph-io/typegraph/internal/typeregistry"
)

// StructDefStore persists struct type definitions as graph vertices.
//
// It performs no locking of its own: operations are synchronous sequences of
// graph-store calls, and concurrent writers to the same type name rely on the
// graph store's isolation (or the caller serializing).
type StructDefStore struct {
	graph    graph.Store
	registry *typeregistry.Registry
	logger   *zap.SugaredLogger
}

// NewStructDefStore creates a struct definition store on the given graph.
func NewStructDefStore(g graph.Store, registry *typeregistry.Registry, logger *zap.SugaredLogger) *StructDefStore {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &StructDefStore{
		graph:    g,
		registry: registry,
		logger:   logger,
	}
}

// PrepareCreate validates the definition, creates its vertex, and writes the
// attribute properties. Reference edges are not created yet; callers batching
// many definitions run PrepareCreate for all of them before committing any
// with Create, catching validation failures before unrelated definitions
// mutate the graph.
func (s *StructDefStore) PrepareCreate(ctx context.Context, def *entities.StructDef) (*graph.Vertex, error) {
	s.logger.Debugw("preparing struct definition create", "name", def.Name)

	if err := def.Validate(); err != nil {
		return nil, err
	}

	structType, err := s.registry.GetType(def.Name)
	if err != nil {
		return nil, err
	}
	if structType.Category != entities.TypeCategoryStruct {
		return nil, fmt.Errorf("%s: %w", def.Name, entities.ErrNotAStructType)
	}

	existing, err := s.graph.FindVertexByName(ctx, def.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to look up type vertex %s: %w", def.Name, err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%s: %w", def.Name, entities.ErrTypeAlreadyExists)
	}

	vertex, err := s.graph.CreateVertex(ctx, def.Name, def.GUID, entities.TypeCategoryStruct)
	if err != nil {
		return nil, fmt.Errorf("failed to create type vertex %s: %w", def.Name, err)
	}

	if err := s.WriteAttributes(ctx, def, structType, vertex); err != nil {
		return nil, err
	}

	return vertex, nil
}

// Create persists the definition. A prepared vertex from a prior
// PrepareCreate may be passed in; with nil, the prepare phase runs first.
// Reference edges are materialized and the definition is read back through
// the codec for confirmation.
func (s *StructDefStore) Create(ctx context.Context, def *entities.StructDef, prepared *graph.Vertex) (*entities.StructDef, error) {
	s.logger.Debugw("creating struct definition", "name", def.Name)

	vertex := prepared
	if vertex == nil {
		var err error
		vertex, err = s.PrepareCreate(ctx, def)
		if err != nil {
			return nil, err
		}
	}

	if err := s.addReferences(ctx, def, vertex); err != nil {
		return nil, err
	}

	return s.toStructDef(ctx, vertex)
}

// GetAll returns every struct definition in the catalog.
func (s *StructDefStore) GetAll(ctx context.Context) ([]*entities.StructDef, error) {
	vertices, err := s.graph.FindVerticesByCategory(ctx, entities.TypeCategoryStruct)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate struct vertices: %w", err)
	}

	defs := make([]*entities.StructDef, 0, len(vertices))
	for _, vertex := range vertices {
		def, err := s.toStructDef(ctx, vertex)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// GetByName returns the struct definition with the given name.
func (s *StructDefStore) GetByName(ctx context.Context, name string) (*entities.StructDef, error) {
	vertex, err := s.findVertexByNameAndCategory(ctx, name, entities.TypeCategoryStruct)
	if err != nil {
		return nil, err
	}
	if vertex == nil {
		return nil, fmt.Errorf("no struct definition exists with name %s: %w", name, entities.ErrNotFound)
	}
	return s.toStructDef(ctx, vertex)
}

// GetByGUID returns the struct definition with the given guid.
func (s *StructDefStore) GetByGUID(ctx context.Context, guid string) (*entities.StructDef, error) {
	vertex, err := s.findVertexByGUIDAndCategory(ctx, guid, entities.TypeCategoryStruct)
	if err != nil {
		return nil, err
	}
	if vertex == nil {
		return nil, fmt.Errorf("no struct definition exists with guid %s: %w", guid, entities.ErrNotFound)
	}
	return s.toStructDef(ctx, vertex)
}

// Update overwrites the stored definition, dispatching on whichever identity
// the definition carries: name when present, guid otherwise.
func (s *StructDefStore) Update(ctx context.Context, def *entities.StructDef) (*entities.StructDef, error) {
	if def.Name != "" {
		return s.UpdateByName(ctx, def.Name, def)
	}
	return s.UpdateByGUID(ctx, def.GUID, def)
}

// UpdateByName overwrites the definition stored under the given name. The
// attribute properties are rewritten in place and reference edges for the
// new definition are added. Edges no longer implied by the new definition
// are not retracted; this layer cannot tell them apart from edges a
// concurrent writer just created.
func (s *StructDefStore) UpdateByName(ctx context.Context, name string, def *entities.StructDef) (*entities.StructDef, error) {
	s.logger.Debugw("updating struct definition", "name", name)

	if err := def.Validate(); err != nil {
		return nil, err
	}

	structType, err := s.registry.GetType(def.Name)
	if err != nil {
		return nil, err
	}
	if structType.Category != entities.TypeCategoryStruct {
		return nil, fmt.Errorf("%s: %w", def.Name, entities.ErrNotAStructType)
	}

	vertex, err := s.findVertexByNameAndCategory(ctx, name, entities.TypeCategoryStruct)
	if err != nil {
		return nil, err
	}
	if vertex == nil {
		return nil, fmt.Errorf("no struct definition exists with name %s: %w", name, entities.ErrNotFound)
	}

	if err := s.WriteAttributes(ctx, def, structType, vertex); err != nil {
		return nil, err
	}
	if err := s.addReferences(ctx, def, vertex); err != nil {
		return nil, err
	}

	return s.toStructDef(ctx, vertex)
}

// UpdateByGUID overwrites the definition stored under the given guid.
func (s *StructDefStore) UpdateByGUID(ctx context.Context, guid string, def *entities.StructDef) (*entities.StructDef, error) {
	s.logger.Debugw("updating struct definition", "guid", guid)

	if err := def.Validate(); err != nil {
		return nil, err
	}

	structType, err := s.registry.GetTypeByGUID(guid)
	if err != nil {
		return nil, err
	}
	if structType.Category != entities.TypeCategoryStruct {
		return nil, fmt.Errorf("%s: %w", structType.Name, entities.ErrNotAStructType)
	}

	vertex, err := s.findVertexByGUIDAndCategory(ctx, guid, entities.TypeCategoryStruct)
	if err != nil {
		return nil, err
	}
	if vertex == nil {
		return nil, fmt.Errorf("no struct definition exists with guid %s: %w", guid, entities.ErrNotFound)
	}

	if err := s.WriteAttributes(ctx, def, structType, vertex); err != nil {
		return nil, err
	}
	if err := s.addReferences(ctx, def, vertex); err != nil {
		return nil, err
	}

	return s.toStructDef(ctx, vertex)
}

// PrepareDeleteByName severs all outgoing reference edges of the named type's
// vertex so nothing can traverse out of it. This is the irreversible point of
// a delete; the vertex itself is removed by DeleteByName.
func (s *StructDefStore) PrepareDeleteByName(ctx context.Context, name string) (*graph.Vertex, error) {
	s.logger.Debugw("preparing struct definition delete", "name", name)

	vertex, err := s.findVertexByNameAndCategory(ctx, name, entities.TypeCategoryStruct)
	if err != nil {
		return nil, err
	}
	if vertex == nil {
		return nil, fmt.Errorf("no struct definition exists with name %s: %w", name, entities.ErrNotFound)
	}

	if err := s.graph.DeleteOutEdges(ctx, vertex); err != nil {
		return nil, fmt.Errorf("failed to delete out edges of %s: %w", name, err)
	}
	return vertex, nil
}

// DeleteByName removes the named struct definition. A prepared vertex from
// PrepareDeleteByName may be passed in; with nil, the prepare phase runs
// first.
func (s *StructDefStore) DeleteByName(ctx context.Context, name string, prepared *graph.Vertex) error {
	s.logger.Debugw("deleting struct definition", "name", name)

	vertex := prepared
	if vertex == nil {
		var err error
		vertex, err = s.PrepareDeleteByName(ctx, name)
		if err != nil {
			return err
		}
	}

	if err := s.graph.DeleteVertex(ctx, vertex); err != nil {
		return fmt.Errorf("failed to delete vertex of %s: %w", name, err)
	}
	return nil
}

// PrepareDeleteByGUID severs all outgoing reference edges of the identified
// type's vertex.
func (s *StructDefStore) PrepareDeleteByGUID(ctx context.Context, guid string) (*graph.Vertex, error) {
	s.logger.Debugw("preparing struct definition delete", "guid", guid)

	vertex, err := s.findVertexByGUIDAndCategory(ctx, guid, entities.TypeCategoryStruct)
	if err != nil {
		return nil, err
	}
	if vertex == nil {
		return nil, fmt.Errorf("no struct definition exists with guid %s: %w", guid, entities.ErrNotFound)
	}

	if err := s.graph.DeleteOutEdges(ctx, vertex); err != nil {
		return nil, fmt.Errorf("failed to delete out edges of %s: %w", guid, err)
	}
	return vertex, nil
}

// DeleteByGUID removes the identified struct definition.
func (s *StructDefStore) DeleteByGUID(ctx context.Context, guid string, prepared *graph.Vertex) error {
	s.logger.Debugw("deleting struct definition", "guid", guid)

	vertex := prepared
	if vertex == nil {
		var err error
		vertex, err = s.PrepareDeleteByGUID(ctx, guid)
		if err != nil {
			return err
		}
	}

	if err := s.graph.DeleteVertex(ctx, vertex); err != nil {
		return fmt.Errorf("failed to delete vertex of %s: %w", guid, err)
	}
	return nil
}

// Search returns every struct definition matching the filter.
func (s *StructDefStore) Search(ctx context.Context, filter *entities.SearchFilter) (*entities.StructDefs, error) {
	vertices, err := s.graph.FindVerticesByCategory(ctx, entities.TypeCategoryStruct)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate struct vertices: %w", err)
	}

	result := &entities.StructDefs{}
	for _, vertex := range vertices {
		def, err := s.toStructDef(ctx, vertex)
		if err != nil {
			return nil, err
		}
		if filter.Matches(def) {
			result.List = append(result.List, def)
		}
	}
	return result, nil
}

// WriteAttributes writes the ordered attribute-name list, one encoded record
// per attribute, and the description onto the vertex. The name list and the
// per-attribute records are always written together so they stay consistent.
// Exposed for sibling stores managing other categories over the same vertex
// layout.
func (s *StructDefStore) WriteAttributes(ctx context.Context, def *entities.StructDef, structType *typeregistry.Type, vertex *graph.Vertex) error {
	attrNames := make([]string, 0, len(def.AttributeDefs))

	for _, attr := range def.AttributeDefs {
		record, err := EncodeAttributeDef(attr, structType, s.registry)
		if err != nil {
			return err
		}
		if err := s.graph.SetProperty(ctx, vertex, attributePropertyKey(def.Name, attr.Name), record); err != nil {
			return fmt.Errorf("failed to write attribute %s.%s: %w", def.Name, attr.Name, err)
		}
		attrNames = append(attrNames, attr.Name)
	}

	if err := s.graph.SetListProperty(ctx, vertex, typePropertyKey(def.Name), attrNames); err != nil {
		return fmt.Errorf("failed to write attribute list of %s: %w", def.Name, err)
	}
	if err := s.graph.SetProperty(ctx, vertex, typeDescriptionPropertyKey, def.Description); err != nil {
		return fmt.Errorf("failed to write description of %s: %w", def.Name, err)
	}
	return nil
}

// toStructDef reconstructs the definition from its vertex, decoding every
// attribute record in stored order.
func (s *StructDefStore) toStructDef(ctx context.Context, vertex *graph.Vertex) (*entities.StructDef, error) {
	ret := &entities.StructDef{
		Name:      vertex.TypeName,
		GUID:      vertex.GUID,
		CreatedAt: vertex.CreatedAt,
		UpdatedAt: vertex.UpdatedAt,
	}

	description, ok, err := s.graph.GetProperty(ctx, vertex, typeDescriptionPropertyKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read description of %s: %w", ret.Name, err)
	}
	if ok {
		ret.Description = description
	}

	_, records, err := s.lookupAttributeBlobs(ctx, vertex, ret.Name)
	if err != nil {
		return nil, err
	}

	attributeDefs := make([]*entities.AttributeDef, 0, len(records))
	for _, record := range records {
		attr, err := s.toAttributeDef(ctx, record, ret)
		if err != nil {
			return nil, err
		}
		attributeDefs = append(attributeDefs, attr)
	}
	ret.AttributeDefs = attributeDefs

	return ret, nil
}

// toAttributeDef decodes one stored attribute record, re-deriving the
// relationship constraints. The composite and reverse-attribute fields were
// computed at write time from the writer's view; decode cross-checks them
// against the referenced type's currently stored attributes rather than
// trusting them blindly.
func (s *StructDefStore) toAttributeDef(ctx context.Context, recordJSON string, owner *entities.StructDef) (*entities.AttributeDef, error) {
	var record attributeRecord
	if err := json.Unmarshal([]byte(recordJSON), &record); err != nil {
		return nil, fmt.Errorf("%s: %w", owner.Name, entities.ErrDecode)
	}

	ret := &entities.AttributeDef{
		Name:        record.Name,
		TypeName:    record.DataType,
		IsUnique:    record.IsUnique,
		IsIndexable: record.IsIndexable,
	}

	reverseAttrName := ""
	if record.ReverseAttributeName != nil {
		reverseAttrName = *record.ReverseAttributeName
	}

	if reverseAttrName != "" || record.IsComposite {
		if entities.IsMapTypeName(ret.TypeName) {
			return nil, fmt.Errorf("%s.%s: constraint on map type %s: %w",
				owner.Name, ret.Name, ret.TypeName, entities.ErrUnsupportedConstraint)
		}
	}

	elemTypeName := ret.TypeName
	if entities.IsArrayTypeName(elemTypeName) {
		if refs := entities.ReferencedTypeNames(ret.TypeName); len(refs) > 0 {
			elemTypeName = refs[0]
		}
	}

	if !entities.IsBuiltInTypeName(elemTypeName) {
		if err := s.inferConstraints(ctx, &record, ret, owner, elemTypeName, reverseAttrName); err != nil {
			return nil, err
		}
	}

	if err := decodeMultiplicity(record.Multiplicity, ret); err != nil {
		return nil, err
	}

	return ret, nil
}

// inferConstraints classifies the relationship to the referenced entity type
// by scanning that type's stored attributes for a symmetric back-pointer: an
// attribute whose data type is the current struct and whose reverse attribute
// is the current attribute. First match in stored order wins.
//
// A composite relationship becomes mapped-from-ref when a back-pointer is
// found, and a bare foreign key otherwise (an owned collection with no
// explicit inverse). A declared reverse attribute additionally attaches a
// cascade-delete foreign key, whether or not the back-pointer still exists.
func (s *StructDefStore) inferConstraints(ctx context.Context, record *attributeRecord, ret *entities.AttributeDef,
	owner *entities.StructDef, elemTypeName, reverseAttrName string) error {
	refVertex, err := s.graph.FindVertexByName(ctx, elemTypeName)
	if err != nil {
		return fmt.Errorf("failed to look up referenced type %s: %w", elemTypeName, err)
	}
	if refVertex == nil || !s.graph.IsVertexOfCategory(refVertex, entities.TypeCategoryEntity) {
		return nil
	}
	if reverseAttrName == "" && !record.IsComposite {
		return nil
	}

	refAttributeName := ""
	_, refRecords, err := s.lookupAttributeBlobs(ctx, refVertex, elemTypeName)
	if err != nil {
		return err
	}
	for _, refRecordJSON := range refRecords {
		var refRecord attributeRecord
		if err := json.Unmarshal([]byte(refRecordJSON), &refRecord); err != nil {
			return fmt.Errorf("%s: %w", elemTypeName, entities.ErrDecode)
		}

		refReverse := ""
		if refRecord.ReverseAttributeName != nil {
			refReverse = *refRecord.ReverseAttributeName
		}
		if refRecord.DataType == owner.Name && refReverse == ret.Name {
			refAttributeName = refRecord.Name
			break
		}
	}

	if record.IsComposite {
		if refAttributeName != "" {
			ret.AddConstraint(entities.NewConstraintDefWithParam(
				entities.ConstraintTypeMappedFromRef,
				entities.ConstraintParamRefAttribute, refAttributeName))
		} else {
			ret.AddConstraint(entities.NewConstraintDef(entities.ConstraintTypeForeignKey))
		}
	}

	if reverseAttrName != "" {
		ret.AddConstraint(entities.NewConstraintDefWithParam(
			entities.ConstraintTypeForeignKey,
			entities.ConstraintParamOnDelete, entities.ConstraintParamValCascade))
	}

	return nil
}

// lookupAttributeBlobs returns the vertex's stored attribute names and their
// encoded records, in declared order. Every name in the list must have a
// record; a missing one means the vertex's properties have drifted.
func (s *StructDefStore) lookupAttributeBlobs(ctx context.Context, vertex *graph.Vertex, typeName string) ([]string, []string, error) {
	attrNames, err := s.graph.GetListProperty(ctx, vertex, typePropertyKey(typeName))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read attribute list of %s: %w", typeName, err)
	}

	records := make([]string, 0, len(attrNames))
	for _, attrName := range attrNames {
		record, ok, err := s.graph.GetProperty(ctx, vertex, attributePropertyKey(typeName, attrName))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read attribute %s.%s: %w", typeName, attrName, err)
		}
		if !ok {
			return nil, nil, fmt.Errorf("%s.%s has no stored record: %w", typeName, attrName, entities.ErrDecode)
		}
		records = append(records, record)
	}
	return attrNames, records, nil
}

func (s *StructDefStore) findVertexByNameAndCategory(ctx context.Context, name string, category entities.TypeCategory) (*graph.Vertex, error) {
	vertex, err := s.graph.FindVertexByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to look up type vertex %s: %w", name, err)
	}
	if vertex == nil || !s.graph.IsVertexOfCategory(vertex, category) {
		return nil, nil
	}
	return vertex, nil
}

func (s *StructDefStore) findVertexByGUIDAndCategory(ctx context.Context, guid string, category entities.TypeCategory) (*graph.Vertex, error) {
	vertex, err := s.graph.FindVertexByGUID(ctx, guid)
	if err != nil {
		return nil, fmt.Errorf("failed to look up type vertex %s: %w", guid, err)
	}
	if vertex == nil || !s.graph.IsVertexOfCategory(vertex, category) {
		return nil, nil
	}
	return vertex, nil
}
