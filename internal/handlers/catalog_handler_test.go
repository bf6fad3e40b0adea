package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/typegraph-io/typegraph/internal/entities"
)

type mockCatalogService struct {
	createFunc       func(ctx context.Context, def *entities.StructDef) (*entities.StructDef, error)
	createBundleFunc func(ctx context.Context, defs []*entities.StructDef) ([]*entities.StructDef, error)
	getAllFunc       func(ctx context.Context) ([]*entities.StructDef, error)
	getByNameFunc    func(ctx context.Context, name string) (*entities.StructDef, error)
	getByGUIDFunc    func(ctx context.Context, guid string) (*entities.StructDef, error)
	updateFunc       func(ctx context.Context, def *entities.StructDef) (*entities.StructDef, error)
	searchFunc       func(ctx context.Context, filter *entities.SearchFilter) (*entities.StructDefs, error)
	deleteByNameFunc func(ctx context.Context, name string) error
	deleteByGUIDFunc func(ctx context.Context, guid string) error
}

func (m *mockCatalogService) Create(ctx context.Context, def *entities.StructDef) (*entities.StructDef, error) {
	return m.createFunc(ctx, def)
}

func (m *mockCatalogService) CreateBundle(ctx context.Context, defs []*entities.StructDef) ([]*entities.StructDef, error) {
	return m.createBundleFunc(ctx, defs)
}

func (m *mockCatalogService) GetAll(ctx context.Context) ([]*entities.StructDef, error) {
	return m.getAllFunc(ctx)
}

func (m *mockCatalogService) GetByName(ctx context.Context, name string) (*entities.StructDef, error) {
	return m.getByNameFunc(ctx, name)
}

func (m *mockCatalogService) GetByGUID(ctx context.Context, guid string) (*entities.StructDef, error) {
	return m.getByGUIDFunc(ctx, guid)
}

func (m *mockCatalogService) Update(ctx context.Context, def *entities.StructDef) (*entities.StructDef, error) {
	return m.updateFunc(ctx, def)
}

func (m *mockCatalogService) Search(ctx context.Context, filter *entities.SearchFilter) (*entities.StructDefs, error) {
	return m.searchFunc(ctx, filter)
}

func (m *mockCatalogService) DeleteByName(ctx context.Context, name string) error {
	return m.deleteByNameFunc(ctx, name)
}

func (m *mockCatalogService) DeleteByGUID(ctx context.Context, guid string) error {
	return m.deleteByGUIDFunc(ctx, guid)
}

func newTestMux(mock *mockCatalogService) *http.ServeMux {
	mux := http.NewServeMux()
	NewCatalogHandler(mock, nil).RegisterRoutes(mux)
	return mux
}

func TestCatalogHandler_GetTypeByName(t *testing.T) {
	mock := &mockCatalogService{
		getByNameFunc: func(ctx context.Context, name string) (*entities.StructDef, error) {
			if name != "db_config" {
				t.Errorf("name = %s, want db_config", name)
			}
			return &entities.StructDef{
				Name: "db_config",
				GUID: "guid-123",
				AttributeDefs: []*entities.AttributeDef{
					{Name: "host", TypeName: "string", Cardinality: entities.CardinalitySingle},
				},
			}, nil
		},
	}

	rec := httptest.NewRecorder()
	newTestMux(mock).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/types/name/db_config", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var payload StructDefPayload
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.Name != "db_config" || payload.GUID != "guid-123" {
		t.Errorf("payload = %+v", payload)
	}
	if len(payload.AttributeDefs) != 1 || payload.AttributeDefs[0].Name != "host" {
		t.Errorf("attributes = %+v", payload.AttributeDefs)
	}
}

func TestCatalogHandler_ErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"not found", fmt.Errorf("db_config: %w", entities.ErrNotFound), http.StatusNotFound},
		{"already exists", fmt.Errorf("db_config: %w", entities.ErrTypeAlreadyExists), http.StatusConflict},
		{"not a struct", fmt.Errorf("db_config: %w", entities.ErrNotAStructType), http.StatusBadRequest},
		{"unknown reference", fmt.Errorf("x: %w", entities.ErrUnknownReferencedType), http.StatusBadRequest},
		{"unsupported constraint", fmt.Errorf("x: %w", entities.ErrUnsupportedConstraint), http.StatusBadRequest},
		{"decode failure", fmt.Errorf("x: %w", entities.ErrDecode), http.StatusInternalServerError},
		{"unclassified", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockCatalogService{
				getByNameFunc: func(ctx context.Context, name string) (*entities.StructDef, error) {
					return nil, tt.err
				},
			}

			rec := httptest.NewRecorder()
			newTestMux(mock).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/types/name/db_config", nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var errResp ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
				t.Fatalf("failed to decode error response: %v", err)
			}
			if errResp.Error == "" {
				t.Error("error response has empty message")
			}
		})
	}
}

func TestCatalogHandler_CreateTypes(t *testing.T) {
	var gotDefs []*entities.StructDef
	mock := &mockCatalogService{
		createBundleFunc: func(ctx context.Context, defs []*entities.StructDef) ([]*entities.StructDef, error) {
			gotDefs = defs
			return defs, nil
		},
	}

	body := `{"structDefs":[{"name":"db_config","attributeDefs":[{"name":"host","typeName":"string","constraints":[{"type":"foreignKey","params":{"onDelete":"cascade"}}]}]}]}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/types", bytes.NewBufferString(body))
	newTestMux(mock).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	if len(gotDefs) != 1 {
		t.Fatalf("service received %d defs, want 1", len(gotDefs))
	}
	attr := gotDefs[0].GetAttribute("host")
	if attr == nil {
		t.Fatal("host attribute missing")
	}
	c := attr.FindConstraint(entities.ConstraintTypeForeignKey)
	if c == nil || !c.IsCascadeDelete() {
		t.Errorf("constraint = %+v, want cascading foreignKey", c)
	}
}

func TestCatalogHandler_CreateTypes_BadRequest(t *testing.T) {
	mock := &mockCatalogService{
		createBundleFunc: func(ctx context.Context, defs []*entities.StructDef) ([]*entities.StructDef, error) {
			t.Fatal("service called for invalid request")
			return nil, nil
		},
	}
	mux := newTestMux(mock)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{not json`},
		{"empty bundle", `{"structDefs":[]}`},
		{"missing name", `{"structDefs":[{"attributeDefs":[]}]}`},
		{"missing attribute type", `{"structDefs":[{"name":"x","attributeDefs":[{"name":"a"}]}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/v1/types", bytes.NewBufferString(tt.body))
			mux.ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestCatalogHandler_ListTypes_ForwardsFilter(t *testing.T) {
	mock := &mockCatalogService{
		searchFunc: func(ctx context.Context, filter *entities.SearchFilter) (*entities.StructDefs, error) {
			if filter.NameContains != "db_" {
				t.Errorf("NameContains = %q, want db_", filter.NameContains)
			}
			return &entities.StructDefs{List: []*entities.StructDef{{Name: "db_config"}}}, nil
		},
	}

	rec := httptest.NewRecorder()
	newTestMux(mock).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/types?contains=db_", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp TypesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.StructDefs) != 1 || resp.StructDefs[0].Name != "db_config" {
		t.Errorf("response = %+v", resp.StructDefs)
	}
}

func TestCatalogHandler_UpdateType_NameMismatch(t *testing.T) {
	mock := &mockCatalogService{
		updateFunc: func(ctx context.Context, def *entities.StructDef) (*entities.StructDef, error) {
			t.Fatal("service called for mismatched names")
			return nil, nil
		},
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/v1/types/name/db_config", bytes.NewBufferString(`{"name":"other"}`))
	newTestMux(mock).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestCatalogHandler_DeleteTypeByName(t *testing.T) {
	deleted := ""
	mock := &mockCatalogService{
		deleteByNameFunc: func(ctx context.Context, name string) error {
			deleted = name
			return nil
		},
	}

	rec := httptest.NewRecorder()
	newTestMux(mock).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v1/types/name/db_config", nil))

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if deleted != "db_config" {
		t.Errorf("deleted = %q, want db_config", deleted)
	}
}

func TestCatalogHandler_DeleteTypeByGUID(t *testing.T) {
	mock := &mockCatalogService{
		deleteByGUIDFunc: func(ctx context.Context, guid string) error {
			return fmt.Errorf("%s: %w", guid, entities.ErrNotFound)
		},
	}

	rec := httptest.NewRecorder()
	newTestMux(mock).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v1/types/guid/guid-123", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
