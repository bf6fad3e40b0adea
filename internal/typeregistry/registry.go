// Package typeregistry holds the in-memory view of every registered type.
// The catalog consults it for type categories and for the resolved
// relationship metadata the attribute codec needs at encode time.
package typeregistry

import (
	"fmt"
	"sync"

	"github.com/typegraph-io/typegraph/internal/entities"
)

// Type is a resolved entry in the registry. StructDef is nil for primitives.
type Type struct {
	Name      string
	GUID      string
	Category  entities.TypeCategory
	StructDef *entities.StructDef
}

// Registry maps type names and guids to resolved types. It is safe for
// concurrent use.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*Type
	byGUID map[string]*Type
}

// New creates a registry pre-seeded with the built-in primitive types.
func New() *Registry {
	r := &Registry{
		byName: make(map[string]*Type),
		byGUID: make(map[string]*Type),
	}

	for _, name := range []string{
		"boolean", "byte", "short", "int", "long",
		"float", "double", "biginteger", "bigdecimal", "string", "date",
	} {
		r.byName[name] = &Type{Name: name, Category: entities.TypeCategoryPrimitive}
	}

	return r
}

// Register adds or replaces a type entry. Re-registering an existing name is
// the update path; the guid index follows the latest registration.
func (r *Registry) Register(t *Type) error {
	if t == nil || t.Name == "" {
		return fmt.Errorf("type name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.byName[t.Name]; ok && prev.GUID != "" {
		delete(r.byGUID, prev.GUID)
	}
	r.byName[t.Name] = t
	if t.GUID != "" {
		r.byGUID[t.GUID] = t
	}
	return nil
}

// RegisterStructDef registers a struct definition under the given category.
func (r *Registry) RegisterStructDef(def *entities.StructDef, category entities.TypeCategory) error {
	if def == nil {
		return fmt.Errorf("struct definition is required")
	}
	return r.Register(&Type{
		Name:      def.Name,
		GUID:      def.GUID,
		Category:  category,
		StructDef: def,
	})
}

// Unregister removes a type entry by name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.byName[name]; ok {
		if t.GUID != "" {
			delete(r.byGUID, t.GUID)
		}
		delete(r.byName, name)
	}
}

// GetType returns the registered type by name.
func (r *Registry) GetType(name string) (*Type, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, entities.ErrNotFound)
	}
	return t, nil
}

// GetTypeByGUID returns the registered type by guid.
func (r *Registry) GetTypeByGUID(guid string) (*Type, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.byGUID[guid]
	if !ok {
		return nil, fmt.Errorf("%s: %w", guid, entities.ErrNotFound)
	}
	return t, nil
}

// IsForeignKeyAttribute reports whether the named attribute carries a
// foreignKey constraint.
func (t *Type) IsForeignKeyAttribute(attrName string) bool {
	if t.StructDef == nil {
		return false
	}
	a := t.StructDef.GetAttribute(attrName)
	return a != nil && a.HasConstraint(entities.ConstraintTypeForeignKey)
}

// IsMappedFromRefAttribute reports whether the named attribute carries a
// mappedFromRef constraint.
func (t *Type) IsMappedFromRefAttribute(attrName string) bool {
	if t.StructDef == nil {
		return false
	}
	a := t.StructDef.GetAttribute(attrName)
	return a != nil && a.HasConstraint(entities.ConstraintTypeMappedFromRef)
}

// MappedFromRefAttribute returns the name of this type's attribute that owns
// (typeName, attrName) through a mappedFromRef constraint, or "" if none.
// The scan follows declared attribute order; first match wins.
func (t *Type) MappedFromRefAttribute(typeName, attrName string) string {
	if t.StructDef == nil {
		return ""
	}
	for _, a := range t.StructDef.AttributeDefs {
		c := a.FindConstraint(entities.ConstraintTypeMappedFromRef)
		if c == nil {
			continue
		}
		if entities.ElementTypeName(a.TypeName) == typeName && c.Param(entities.ConstraintParamRefAttribute) == attrName {
			return a.Name
		}
	}
	return ""
}
