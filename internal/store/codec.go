package store

import (
	"encoding/json"
	"fmt"

	"github.com/typegraph-io/typegraph/internal/entities"
	"github.com/typegraph-io/typegraph/internal/typeregistry"
)

// attributeRecord is the persisted shape of one attribute definition. The
// multiplicity is itself a JSON string, matching the two-level encoding used
// throughout the store; changing it would break every already-persisted
// vertex.
type attributeRecord struct {
	Name                 string  `json:"name"`
	DataType             string  `json:"dataType"`
	IsUnique             bool    `json:"isUnique"`
	IsIndexable          bool    `json:"isIndexable"`
	IsComposite          bool    `json:"isComposite"`
	ReverseAttributeName *string `json:"reverseAttributeName"`
	Multiplicity         string  `json:"multiplicity"`
}

type multiplicityRecord struct {
	Lower    *int `json:"lower"`
	Upper    *int `json:"upper"`
	IsUnique bool `json:"isUnique"`
}

// EncodeAttributeDef serializes one attribute definition to its persisted
// JSON record, deriving the relationship flags from the resolved owning
// type. structType must be the registry entry for the attribute's owner.
//
// A foreign-key attribute additionally records the referenced entity type's
// reverse attribute name, when that type declares a mapped-from-ref
// attribute pointing back at (owner, attribute). The relationship is
// composite when the attribute is mapped-from-ref, or is a foreign key with
// no such reverse attribute.
func EncodeAttributeDef(attr *entities.AttributeDef, structType *typeregistry.Type, registry *typeregistry.Registry) (string, error) {
	isForeignKey := structType.IsForeignKeyAttribute(attr.Name)
	isMappedFromRef := structType.IsMappedFromRefAttribute(attr.Name)

	reverseAttrName := ""
	if isForeignKey {
		elemTypeName := entities.ElementTypeName(attr.TypeName)
		if refType, err := registry.GetType(elemTypeName); err == nil && refType.Category == entities.TypeCategoryEntity {
			reverseAttrName = refType.MappedFromRefAttribute(structType.Name, attr.Name)
		}
	}

	isComposite := isMappedFromRef || (isForeignKey && reverseAttrName == "")

	multiplicity := multiplicityRecord{
		Lower:    &attr.ValuesMinCount,
		Upper:    &attr.ValuesMaxCount,
		IsUnique: attr.Cardinality == entities.CardinalitySet,
	}
	multiplicityJSON, err := json.Marshal(multiplicity)
	if err != nil {
		return "", fmt.Errorf("failed to encode multiplicity of %s.%s: %w", structType.Name, attr.Name, err)
	}

	record := attributeRecord{
		Name:         attr.Name,
		DataType:     attr.TypeName,
		IsUnique:     attr.IsUnique,
		IsIndexable:  attr.IsIndexable,
		IsComposite:  isComposite,
		Multiplicity: string(multiplicityJSON),
	}
	if reverseAttrName != "" {
		record.ReverseAttributeName = &reverseAttrName
	}

	recordJSON, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("failed to encode attribute %s.%s: %w", structType.Name, attr.Name, err)
	}
	return string(recordJSON), nil
}

// decodeMultiplicity applies the multiplicity policy:
//   - lower absent or 0 means optional with min 0, otherwise required with
//     min = lower;
//   - upper absent or below 2 means SINGLE with max 1 regardless of the
//     stated upper, otherwise max = upper with SET when isUnique else LIST.
func decodeMultiplicity(multiplicityJSON string, attr *entities.AttributeDef) error {
	var m multiplicityRecord
	if err := json.Unmarshal([]byte(multiplicityJSON), &m); err != nil {
		return fmt.Errorf("attribute %s: %w", attr.Name, entities.ErrDecode)
	}

	if m.Lower == nil || *m.Lower == 0 {
		attr.IsOptional = true
		attr.ValuesMinCount = 0
	} else {
		attr.IsOptional = false
		attr.ValuesMinCount = *m.Lower
	}

	if m.Upper == nil || *m.Upper < 2 {
		attr.Cardinality = entities.CardinalitySingle
		attr.ValuesMaxCount = 1
	} else {
		if m.IsUnique {
			attr.Cardinality = entities.CardinalitySet
		} else {
			attr.Cardinality = entities.CardinalityList
		}
		attr.ValuesMaxCount = *m.Upper
	}

	return nil
}
