package entities

// Constraint types and parameter keys carried by attribute definitions.
const (
	// ConstraintTypeForeignKey marks an attribute as a reference to another
	// type. With the onDelete=cascade param, deleting the referenced side's
	// owner triggers deletion of the referencing side.
	ConstraintTypeForeignKey = "foreignKey"

	// ConstraintTypeMappedFromRef marks an attribute whose values are owned
	// by the named reverse attribute on the referenced type rather than
	// stored independently.
	ConstraintTypeMappedFromRef = "mappedFromRef"

	ConstraintParamRefAttribute = "refAttribute"
	ConstraintParamOnDelete     = "onDelete"
	ConstraintParamValCascade   = "cascade"
)

// ConstraintDef is a tagged relationship constraint on an attribute.
type ConstraintDef struct {
	Type   string
	Params map[string]string
}

// NewConstraintDef creates a constraint without parameters.
func NewConstraintDef(constraintType string) *ConstraintDef {
	return &ConstraintDef{Type: constraintType}
}

// NewConstraintDefWithParam creates a constraint with a single parameter.
func NewConstraintDefWithParam(constraintType, key, value string) *ConstraintDef {
	return &ConstraintDef{
		Type:   constraintType,
		Params: map[string]string{key: value},
	}
}

// Param returns the value of the named parameter, or "" if absent.
func (c *ConstraintDef) Param(key string) string {
	if c.Params == nil {
		return ""
	}
	return c.Params[key]
}

// IsCascadeDelete reports whether this is a foreign key with cascading delete.
func (c *ConstraintDef) IsCascadeDelete() bool {
	return c.Type == ConstraintTypeForeignKey && c.Param(ConstraintParamOnDelete) == ConstraintParamValCascade
}
