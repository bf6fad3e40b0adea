package entities

import "errors"

// Error kinds surfaced by the catalog. Callers match with errors.Is; the
// wrapping message carries the identifying type/attribute name.
var (
	// ErrNotAStructType is returned when the named type exists but is not
	// struct-category.
	ErrNotAStructType = errors.New("not a struct type")

	// ErrTypeAlreadyExists is returned when a create is attempted for a name
	// that already has a vertex.
	ErrTypeAlreadyExists = errors.New("type already exists")

	// ErrNotFound is returned when a name or guid has no corresponding
	// vertex or registry entry.
	ErrNotFound = errors.New("type not found")

	// ErrUnknownReferencedType is returned when an attribute references a
	// type name with no vertex, so reference edges cannot be created.
	ErrUnknownReferencedType = errors.New("unknown referenced type")

	// ErrUnsupportedConstraint is returned when a relationship constraint is
	// requested on a map-typed attribute.
	ErrUnsupportedConstraint = errors.New("constraint not supported")

	// ErrDecode is returned when a stored attribute blob does not parse to
	// the expected shape.
	ErrDecode = errors.New("malformed attribute record")
)
