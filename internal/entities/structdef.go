package entities

import (
	"fmt"
	"time"
)

// Cardinality describes how many values an attribute holds.
type Cardinality string

const (
	CardinalitySingle Cardinality = "SINGLE"
	CardinalityList   Cardinality = "LIST"
	CardinalitySet    Cardinality = "SET"
)

// StructDef represents a user-defined struct type: a named schema consisting
// of an ordered attribute list. The attribute order is the declaration order
// and round-trips through storage.
type StructDef struct {
	Name          string          // Unique type name
	GUID          string          // Unique immutable identifier
	Description   string          // Optional human-readable description
	AttributeDefs []*AttributeDef // Ordered attribute definitions
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// GetAttribute returns the attribute definition by name, or nil if absent.
func (d *StructDef) GetAttribute(name string) *AttributeDef {
	for _, a := range d.AttributeDefs {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// HasAttribute reports whether the struct declares an attribute with the given name.
func (d *StructDef) HasAttribute(name string) bool {
	return d.GetAttribute(name) != nil
}

// Validate checks that the struct definition is well formed.
func (d *StructDef) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("struct name is required")
	}

	seen := make(map[string]bool, len(d.AttributeDefs))
	for _, a := range d.AttributeDefs {
		if a == nil {
			return fmt.Errorf("%s: nil attribute definition", d.Name)
		}
		if err := a.Validate(); err != nil {
			return fmt.Errorf("%s: %w", d.Name, err)
		}
		if seen[a.Name] {
			return fmt.Errorf("%s: duplicate attribute name: %s", d.Name, a.Name)
		}
		seen[a.Name] = true
	}
	return nil
}

// AttributeDef represents a single attribute of a struct type.
type AttributeDef struct {
	Name           string         // Unique within the owning struct
	TypeName       string         // Declared type: primitive, array<X>, map<K,V>, or a user-defined type
	IsUnique       bool           // Value must be unique across instances
	IsIndexable    bool           // Value participates in indexes
	IsOptional     bool           // Value may be absent
	ValuesMinCount int            // Minimum number of values
	ValuesMaxCount int            // Maximum number of values
	Cardinality    Cardinality    // SINGLE, LIST, or SET
	Constraints    []*ConstraintDef
}

// Validate checks that the attribute definition is well formed.
func (a *AttributeDef) Validate() error {
	if a.Name == "" {
		return fmt.Errorf("attribute name is required")
	}
	if a.TypeName == "" {
		return fmt.Errorf("attribute %s: type name is required", a.Name)
	}
	return nil
}

// AddConstraint appends a relationship constraint to the attribute.
func (a *AttributeDef) AddConstraint(c *ConstraintDef) {
	a.Constraints = append(a.Constraints, c)
}

// FindConstraint returns the first constraint of the given type, or nil.
func (a *AttributeDef) FindConstraint(constraintType string) *ConstraintDef {
	for _, c := range a.Constraints {
		if c.Type == constraintType {
			return c
		}
	}
	return nil
}

// HasConstraint reports whether the attribute carries a constraint of the given type.
func (a *AttributeDef) HasConstraint(constraintType string) bool {
	return a.FindConstraint(constraintType) != nil
}

// StructDefs wraps a collection of struct definitions returned by Search.
type StructDefs struct {
	List []*StructDef
}
