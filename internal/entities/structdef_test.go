package entities

import (
	"strings"
	"testing"
)

func TestStructDef_Validate(t *testing.T) {
	tests := []struct {
		name    string
		def     *StructDef
		wantErr string
	}{
		{
			name: "valid definition",
			def: &StructDef{
				Name: "Person",
				AttributeDefs: []*AttributeDef{
					{Name: "name", TypeName: "string"},
					{Name: "age", TypeName: "int"},
				},
			},
		},
		{
			name:    "missing name",
			def:     &StructDef{},
			wantErr: "struct name is required",
		},
		{
			name: "duplicate attribute names",
			def: &StructDef{
				Name: "Person",
				AttributeDefs: []*AttributeDef{
					{Name: "name", TypeName: "string"},
					{Name: "name", TypeName: "string"},
				},
			},
			wantErr: "duplicate attribute name",
		},
		{
			name: "attribute without type",
			def: &StructDef{
				Name:          "Person",
				AttributeDefs: []*AttributeDef{{Name: "name"}},
			},
			wantErr: "type name is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.def.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestStructDef_GetAttribute(t *testing.T) {
	def := &StructDef{
		Name: "Person",
		AttributeDefs: []*AttributeDef{
			{Name: "name", TypeName: "string"},
			{Name: "address", TypeName: "Address"},
		},
	}

	if a := def.GetAttribute("address"); a == nil || a.TypeName != "Address" {
		t.Errorf("GetAttribute(address) = %+v, want Address attribute", a)
	}
	if a := def.GetAttribute("missing"); a != nil {
		t.Errorf("GetAttribute(missing) = %+v, want nil", a)
	}
}

func TestAttributeDef_Constraints(t *testing.T) {
	a := &AttributeDef{Name: "columns", TypeName: "array<Column>"}

	if a.HasConstraint(ConstraintTypeForeignKey) {
		t.Error("new attribute should have no constraints")
	}

	a.AddConstraint(NewConstraintDefWithParam(ConstraintTypeMappedFromRef, ConstraintParamRefAttribute, "table"))
	a.AddConstraint(NewConstraintDefWithParam(ConstraintTypeForeignKey, ConstraintParamOnDelete, ConstraintParamValCascade))

	mfr := a.FindConstraint(ConstraintTypeMappedFromRef)
	if mfr == nil || mfr.Param(ConstraintParamRefAttribute) != "table" {
		t.Errorf("mappedFromRef constraint = %+v, want refAttribute=table", mfr)
	}

	fk := a.FindConstraint(ConstraintTypeForeignKey)
	if fk == nil || !fk.IsCascadeDelete() {
		t.Errorf("foreignKey constraint = %+v, want cascade delete", fk)
	}
}

func TestSearchFilter_Matches(t *testing.T) {
	def := &StructDef{Name: "hive_table", GUID: "guid-1"}

	tests := []struct {
		name   string
		filter *SearchFilter
		want   bool
	}{
		{"nil filter matches", nil, true},
		{"empty filter matches", &SearchFilter{}, true},
		{"exact name", &SearchFilter{Name: "hive_table"}, true},
		{"wrong name", &SearchFilter{Name: "hive_column"}, false},
		{"name contains", &SearchFilter{NameContains: "table"}, true},
		{"name contains miss", &SearchFilter{NameContains: "column"}, false},
		{"guid", &SearchFilter{GUID: "guid-1"}, true},
		{"wrong guid", &SearchFilter{GUID: "guid-2"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(def); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}
