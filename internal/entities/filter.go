package entities

import "strings"

// SearchFilter narrows the result of a catalog search. Zero-valued fields do
// not filter.
type SearchFilter struct {
	Name         string // Exact type name
	NameContains string // Substring of the type name
	GUID         string // Exact guid
}

// Matches reports whether the struct definition satisfies every set field.
func (f *SearchFilter) Matches(def *StructDef) bool {
	if f == nil || def == nil {
		return def != nil
	}
	if f.Name != "" && def.Name != f.Name {
		return false
	}
	if f.NameContains != "" && !strings.Contains(def.Name, f.NameContains) {
		return false
	}
	if f.GUID != "" && def.GUID != f.GUID {
		return false
	}
	return true
}
