package entities

import "fmt"

// TypeCategory is the closed set of type kinds known to the catalog.
type TypeCategory string

const (
	TypeCategoryPrimitive TypeCategory = "PRIMITIVE"
	TypeCategoryEnum      TypeCategory = "ENUM"
	TypeCategoryArray     TypeCategory = "ARRAY"
	TypeCategoryMap       TypeCategory = "MAP"
	TypeCategoryStruct    TypeCategory = "STRUCT"
	TypeCategoryEntity    TypeCategory = "ENTITY"
)

// ParseTypeCategory converts the stored category tag back to a TypeCategory.
func ParseTypeCategory(s string) (TypeCategory, error) {
	switch TypeCategory(s) {
	case TypeCategoryPrimitive, TypeCategoryEnum, TypeCategoryArray,
		TypeCategoryMap, TypeCategoryStruct, TypeCategoryEntity:
		return TypeCategory(s), nil
	default:
		return "", fmt.Errorf("unknown type category: %q", s)
	}
}
