package entities

import "strings"

// Type-name grammar helpers. Declared type names are either a plain name,
// array<X>, or map<K,V>, with arbitrary nesting inside the wrappers.

const (
	arrayTypePrefix = "array<"
	mapTypePrefix   = "map<"
	typeNameSuffix  = ">"
)

var builtInTypeNames = map[string]bool{
	"boolean":    true,
	"byte":       true,
	"short":      true,
	"int":        true,
	"long":       true,
	"float":      true,
	"double":     true,
	"biginteger": true,
	"bigdecimal": true,
	"string":     true,
	"date":       true,
}

// IsBuiltInTypeName reports whether the name denotes a built-in primitive or
// a wrapper (array/map) type.
func IsBuiltInTypeName(typeName string) bool {
	return builtInTypeNames[typeName] || IsArrayTypeName(typeName) || IsMapTypeName(typeName)
}

// IsPrimitiveTypeName reports whether the name denotes a built-in scalar.
func IsPrimitiveTypeName(typeName string) bool {
	return builtInTypeNames[typeName]
}

// IsArrayTypeName reports whether the name denotes an array-of-X type.
func IsArrayTypeName(typeName string) bool {
	return strings.HasPrefix(typeName, arrayTypePrefix) && strings.HasSuffix(typeName, typeNameSuffix)
}

// IsMapTypeName reports whether the name denotes a map-of-K-V type.
func IsMapTypeName(typeName string) bool {
	return strings.HasPrefix(typeName, mapTypePrefix) && strings.HasSuffix(typeName, typeNameSuffix)
}

// ElementTypeName unwraps one level of array, returning the element type
// name. Non-array names are returned unchanged.
func ElementTypeName(typeName string) string {
	if !IsArrayTypeName(typeName) {
		return typeName
	}
	return strings.TrimSpace(typeName[len(arrayTypePrefix) : len(typeName)-len(typeNameSuffix)])
}

// ReferencedTypeNames returns every type name referenced by the declared
// type, unwrapping array and map wrappers recursively. Names appear in
// declaration order, without duplicates. Built-in scalars are included;
// callers filter with IsBuiltInTypeName as needed.
func ReferencedTypeNames(typeName string) []string {
	var names []string
	seen := make(map[string]bool)
	collectReferencedTypeNames(typeName, seen, &names)
	return names
}

func collectReferencedTypeNames(typeName string, seen map[string]bool, names *[]string) {
	typeName = strings.TrimSpace(typeName)

	switch {
	case IsArrayTypeName(typeName):
		collectReferencedTypeNames(ElementTypeName(typeName), seen, names)
	case IsMapTypeName(typeName):
		inner := typeName[len(mapTypePrefix) : len(typeName)-len(typeNameSuffix)]
		for _, part := range splitTopLevel(inner) {
			collectReferencedTypeNames(part, seen, names)
		}
	case typeName == "":
		// malformed wrapper; nothing to collect
	default:
		if !seen[typeName] {
			seen[typeName] = true
			*names = append(*names, typeName)
		}
	}
}

// splitTopLevel splits a comma-separated list, ignoring commas nested inside
// angle brackets, so map<string,array<map<string,Foo>>> splits correctly.
func splitTopLevel(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '<':
			depth++
		case '>':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}
