package handlers

import (
	"github.com/typegraph-io/typegraph/internal/entities"
)

// StructDefPayload is the wire representation of a struct type definition.
type StructDefPayload struct {
	Name          string                 `json:"name"`
	GUID          string                 `json:"guid,omitempty"`
	Description   string                 `json:"description,omitempty"`
	AttributeDefs []*AttributeDefPayload `json:"attributeDefs"`
	CreatedAt     string                 `json:"createdAt,omitempty"`
	UpdatedAt     string                 `json:"updatedAt,omitempty"`
}

// AttributeDefPayload is the wire representation of one attribute definition.
type AttributeDefPayload struct {
	Name           string                  `json:"name"`
	TypeName       string                  `json:"typeName"`
	IsUnique       bool                    `json:"isUnique,omitempty"`
	IsIndexable    bool                    `json:"isIndexable,omitempty"`
	IsOptional     bool                    `json:"isOptional,omitempty"`
	ValuesMinCount int                     `json:"valuesMinCount,omitempty"`
	ValuesMaxCount int                     `json:"valuesMaxCount,omitempty"`
	Cardinality    string                  `json:"cardinality,omitempty"`
	Constraints    []*ConstraintDefPayload `json:"constraints,omitempty"`
}

// ConstraintDefPayload is the wire representation of a relationship constraint.
type ConstraintDefPayload struct {
	Type   string            `json:"type"`
	Params map[string]string `json:"params,omitempty"`
}

// CreateTypesRequest is the body of a bundle create call.
type CreateTypesRequest struct {
	StructDefs []*StructDefPayload `json:"structDefs"`
}

// TypesResponse wraps a list of definitions.
type TypesResponse struct {
	StructDefs []*StructDefPayload `json:"structDefs"`
}

// ErrorResponse carries a machine-readable error.
type ErrorResponse struct {
	Error string `json:"error"`
}

const timeFormat = "2006-01-02T15:04:05Z07:00"

func toEntity(p *StructDefPayload) *entities.StructDef {
	if p == nil {
		return nil
	}
	def := &entities.StructDef{
		Name:        p.Name,
		GUID:        p.GUID,
		Description: p.Description,
	}
	for _, a := range p.AttributeDefs {
		attr := &entities.AttributeDef{
			Name:           a.Name,
			TypeName:       a.TypeName,
			IsUnique:       a.IsUnique,
			IsIndexable:    a.IsIndexable,
			IsOptional:     a.IsOptional,
			ValuesMinCount: a.ValuesMinCount,
			ValuesMaxCount: a.ValuesMaxCount,
			Cardinality:    entities.Cardinality(a.Cardinality),
		}
		for _, c := range a.Constraints {
			attr.AddConstraint(&entities.ConstraintDef{Type: c.Type, Params: c.Params})
		}
		def.AttributeDefs = append(def.AttributeDefs, attr)
	}
	return def
}

func toPayload(def *entities.StructDef) *StructDefPayload {
	if def == nil {
		return nil
	}
	p := &StructDefPayload{
		Name:          def.Name,
		GUID:          def.GUID,
		Description:   def.Description,
		AttributeDefs: make([]*AttributeDefPayload, 0, len(def.AttributeDefs)),
	}
	if !def.CreatedAt.IsZero() {
		p.CreatedAt = def.CreatedAt.UTC().Format(timeFormat)
	}
	if !def.UpdatedAt.IsZero() {
		p.UpdatedAt = def.UpdatedAt.UTC().Format(timeFormat)
	}
	for _, a := range def.AttributeDefs {
		attr := &AttributeDefPayload{
			Name:           a.Name,
			TypeName:       a.TypeName,
			IsUnique:       a.IsUnique,
			IsIndexable:    a.IsIndexable,
			IsOptional:     a.IsOptional,
			ValuesMinCount: a.ValuesMinCount,
			ValuesMaxCount: a.ValuesMaxCount,
			Cardinality:    string(a.Cardinality),
		}
		for _, c := range a.Constraints {
			attr.Constraints = append(attr.Constraints, &ConstraintDefPayload{Type: c.Type, Params: c.Params})
		}
		p.AttributeDefs = append(p.AttributeDefs, attr)
	}
	return p
}

func toPayloads(defs []*entities.StructDef) []*StructDefPayload {
	payloads := make([]*StructDefPayload, 0, len(defs))
	for _, def := range defs {
		payloads = append(payloads, toPayload(def))
	}
	return payloads
}
