package store

// Vertex property keys and edge labels. The attribute-name list for a type
// lives under the type's own key; each attribute's encoded record lives under
// the type-qualified attribute key. Reference edges reuse the attribute key
// as their label so repeated materialization converges on the same edge.

const typePropertyPrefix = "__type."

const typeDescriptionPropertyKey = typePropertyPrefix + "description"

// typePropertyKey returns the key holding the ordered attribute-name list.
func typePropertyKey(typeName string) string {
	return typePropertyPrefix + typeName
}

// attributePropertyKey returns the key holding one attribute's encoded record.
func attributePropertyKey(typeName, attrName string) string {
	return typePropertyPrefix + typeName + "." + attrName
}

// referenceEdgeLabel returns the deterministic label for the edge from a
// type's vertex to a referenced type's vertex.
func referenceEdgeLabel(typeName, attrName string) string {
	return typePropertyPrefix + typeName + "." + attrName
}
