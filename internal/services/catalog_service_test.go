package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/typegraph-io/typegraph/internal/entities"
	"github.com/typegraph-io/typegraph/internal/graph/memory"
	"github.com/typegraph-io/typegraph/internal/infrastructure/metrics"
	"github.com/typegraph-io/typegraph/internal/store"
	"github.com/typegraph-io/typegraph/internal/typeregistry"
	"github.com/typegraph-io/typegraph/pkg/cache"
	"github.com/typegraph-io/typegraph/pkg/cache/memorycache"
)

func newTestService(t *testing.T, defCache cache.Cache, collector *metrics.Collector) (*CatalogService, *typeregistry.Registry) {
	t.Helper()
	g := memory.NewStore()
	registry := typeregistry.New()
	defStore := store.NewStructDefStore(g, registry, nil)
	svc := NewCatalogService(defStore, registry, defCache, time.Minute, collector, nil, nil)
	return svc, registry
}

func newTestCache(t *testing.T) cache.Cache {
	t.Helper()
	c, err := memorycache.New(&memorycache.Config{
		MaxEntries:    100,
		DefaultTTL:    time.Minute,
		EnableMetrics: true,
	})
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCatalogService_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	svc, registry := newTestService(t, nil, nil)

	def := &entities.StructDef{
		Name:        "db_config",
		Description: "database connection settings",
		AttributeDefs: []*entities.AttributeDef{
			{Name: "host", TypeName: "string", ValuesMinCount: 1, ValuesMaxCount: 1},
		},
	}

	created, err := svc.Create(ctx, def)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.GUID == "" {
		t.Error("created definition has no guid")
	}

	// The service owns the registration pass.
	typ, err := registry.GetType("db_config")
	if err != nil {
		t.Fatalf("type not registered: %v", err)
	}
	if typ.Category != entities.TypeCategoryStruct {
		t.Errorf("registered category = %s, want STRUCT", typ.Category)
	}

	got, err := svc.GetByName(ctx, "db_config")
	if err != nil {
		t.Fatalf("GetByName() error = %v", err)
	}
	if got.Description != "database connection settings" {
		t.Errorf("description = %q", got.Description)
	}
}

func TestCatalogService_Create_Invalid(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, nil, nil)

	if _, err := svc.Create(ctx, nil); err == nil {
		t.Error("Create(nil) succeeded, want error")
	}
	if _, err := svc.Create(ctx, &entities.StructDef{}); err == nil {
		t.Error("Create() with empty name succeeded, want error")
	}
}

func TestCatalogService_Create_UnregistersOnFailure(t *testing.T) {
	ctx := context.Background()
	svc, registry := newTestService(t, nil, nil)

	def := &entities.StructDef{
		Name: "db_config",
		AttributeDefs: []*entities.AttributeDef{
			{Name: "backup", TypeName: "missing_type"},
		},
	}

	_, err := svc.Create(ctx, def)
	if !errors.Is(err, entities.ErrUnknownReferencedType) {
		t.Fatalf("Create() error = %v, want ErrUnknownReferencedType", err)
	}
	if _, err := registry.GetType("db_config"); err == nil {
		t.Error("failed create left a registry entry behind")
	}
}

func TestCatalogService_CreateBundle_InterdependentOrder(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, nil, nil)

	// outer references inner but is listed first; the prepare pass creates
	// both vertices before any edge is resolved.
	defs := []*entities.StructDef{
		{
			Name:          "outer",
			AttributeDefs: []*entities.AttributeDef{{Name: "inner", TypeName: "inner"}},
		},
		{Name: "inner"},
	}

	created, err := svc.CreateBundle(ctx, defs)
	if err != nil {
		t.Fatalf("CreateBundle() error = %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("created %d defs, want 2", len(created))
	}

	for _, name := range []string{"outer", "inner"} {
		if _, err := svc.GetByName(ctx, name); err != nil {
			t.Errorf("GetByName(%s) error = %v", name, err)
		}
	}
}

func TestCatalogService_CreateBundle_RollbackOnPrepareFailure(t *testing.T) {
	ctx := context.Background()
	svc, registry := newTestService(t, nil, nil)

	if _, err := svc.Create(ctx, &entities.StructDef{Name: "existing"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	defs := []*entities.StructDef{
		{Name: "fresh"},
		{Name: "existing"}, // duplicate fails the prepare pass
	}

	_, err := svc.CreateBundle(ctx, defs)
	if !errors.Is(err, entities.ErrTypeAlreadyExists) {
		t.Fatalf("CreateBundle() error = %v, want ErrTypeAlreadyExists", err)
	}

	// The aborted bundle leaves no trace of the fresh definition.
	if _, err := svc.GetByName(ctx, "fresh"); !errors.Is(err, entities.ErrNotFound) {
		t.Errorf("GetByName(fresh) error = %v, want ErrNotFound", err)
	}
	if _, err := registry.GetType("fresh"); err == nil {
		t.Error("aborted bundle left a registry entry behind")
	}

	// The pre-existing definition is untouched.
	if _, err := svc.GetByName(ctx, "existing"); err != nil {
		t.Errorf("GetByName(existing) error = %v", err)
	}
}

func TestCatalogService_CreateBundle_RollbackOnCommitFailure(t *testing.T) {
	ctx := context.Background()
	svc, registry := newTestService(t, nil, nil)

	// Every member survives the prepare pass; the reference to an
	// unregistered type only surfaces when edges are materialized, after
	// alpha has already committed.
	defs := []*entities.StructDef{
		{Name: "alpha"},
		{
			Name: "beta",
			AttributeDefs: []*entities.AttributeDef{
				{Name: "ref", TypeName: "missing_type"},
			},
		},
	}

	_, err := svc.CreateBundle(ctx, defs)
	if !errors.Is(err, entities.ErrUnknownReferencedType) {
		t.Fatalf("CreateBundle() error = %v, want ErrUnknownReferencedType", err)
	}

	for _, name := range []string{"alpha", "beta"} {
		if _, err := svc.GetByName(ctx, name); !errors.Is(err, entities.ErrNotFound) {
			t.Errorf("GetByName(%s) error = %v, want ErrNotFound", name, err)
		}
		if _, err := registry.GetType(name); err == nil {
			t.Errorf("aborted bundle left a registry entry for %s behind", name)
		}
	}

	// The same bundle succeeds once the missing reference is registered
	// and persisted first.
	if _, err := svc.Create(ctx, &entities.StructDef{Name: "missing_type"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := svc.CreateBundle(ctx, defs); err != nil {
		t.Fatalf("CreateBundle() retry error = %v", err)
	}
}

func TestCatalogService_GetByName_ReadsThroughCache(t *testing.T) {
	ctx := context.Background()
	defCache := newTestCache(t)
	svc, _ := newTestService(t, defCache, nil)

	if _, err := svc.Create(ctx, &entities.StructDef{Name: "db_config"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := svc.GetByName(ctx, "db_config"); err != nil {
		t.Fatalf("GetByName() error = %v", err)
	}
	if defCache.Len() != 1 {
		t.Fatalf("cache holds %d entries after read, want 1", defCache.Len())
	}

	if _, err := svc.GetByName(ctx, "db_config"); err != nil {
		t.Fatalf("GetByName() error = %v", err)
	}
	if hits := defCache.Metrics().Hits; hits == 0 {
		t.Error("second read did not hit the cache")
	}
}

func TestCatalogService_Update_InvalidatesCache(t *testing.T) {
	ctx := context.Background()
	defCache := newTestCache(t)
	svc, _ := newTestService(t, defCache, nil)

	def := &entities.StructDef{Name: "db_config", Description: "before"}
	if _, err := svc.Create(ctx, def); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := svc.GetByName(ctx, "db_config"); err != nil {
		t.Fatalf("GetByName() error = %v", err)
	}

	def.Description = "after"
	if _, err := svc.Update(ctx, def); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := svc.GetByName(ctx, "db_config")
	if err != nil {
		t.Fatalf("GetByName() after update error = %v", err)
	}
	if got.Description != "after" {
		t.Errorf("description = %q, want after (stale cache entry)", got.Description)
	}
}

func TestCatalogService_DeleteByName(t *testing.T) {
	ctx := context.Background()
	defCache := newTestCache(t)
	svc, registry := newTestService(t, defCache, nil)

	if _, err := svc.Create(ctx, &entities.StructDef{Name: "db_config"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := svc.GetByName(ctx, "db_config"); err != nil {
		t.Fatalf("GetByName() error = %v", err)
	}

	if err := svc.DeleteByName(ctx, "db_config"); err != nil {
		t.Fatalf("DeleteByName() error = %v", err)
	}

	if _, err := svc.GetByName(ctx, "db_config"); !errors.Is(err, entities.ErrNotFound) {
		t.Errorf("GetByName() after delete error = %v, want ErrNotFound", err)
	}
	if _, err := registry.GetType("db_config"); err == nil {
		t.Error("delete left a registry entry behind")
	}
}

func TestCatalogService_DeleteByGUID(t *testing.T) {
	ctx := context.Background()
	svc, registry := newTestService(t, nil, nil)

	if _, err := svc.Create(ctx, &entities.StructDef{Name: "db_config", GUID: "guid-123"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := svc.DeleteByGUID(ctx, "guid-123"); err != nil {
		t.Fatalf("DeleteByGUID() error = %v", err)
	}
	if _, err := registry.GetType("db_config"); err == nil {
		t.Error("delete left a registry entry behind")
	}
	if err := svc.DeleteByGUID(ctx, "guid-123"); !errors.Is(err, entities.ErrNotFound) {
		t.Errorf("second DeleteByGUID() error = %v, want ErrNotFound", err)
	}
}

func TestCatalogService_DeleteByName_CorruptBlob(t *testing.T) {
	ctx := context.Background()
	g := memory.NewStore()
	registry := typeregistry.New()
	defStore := store.NewStructDefStore(g, registry, nil)
	svc := NewCatalogService(defStore, registry, nil, time.Minute, nil, nil, nil)

	def := &entities.StructDef{
		Name: "db_config",
		AttributeDefs: []*entities.AttributeDef{
			{Name: "host", TypeName: "string"},
		},
	}
	if _, err := svc.Create(ctx, def); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Overwrite the stored blob with garbage so the definition no longer
	// decodes.
	vertex, err := g.FindVertexByName(ctx, "db_config")
	if err != nil {
		t.Fatalf("FindVertexByName() error = %v", err)
	}
	if err := g.SetProperty(ctx, vertex, "__type.db_config.host", "{not json"); err != nil {
		t.Fatalf("SetProperty() error = %v", err)
	}

	if _, err := svc.GetByName(ctx, "db_config"); !errors.Is(err, entities.ErrDecode) {
		t.Fatalf("GetByName() error = %v, want ErrDecode", err)
	}

	// Deletion must not depend on a decodable blob.
	if err := svc.DeleteByName(ctx, "db_config"); err != nil {
		t.Fatalf("DeleteByName() error = %v", err)
	}
	if _, err := svc.GetByName(ctx, "db_config"); !errors.Is(err, entities.ErrNotFound) {
		t.Errorf("GetByName() after delete error = %v, want ErrNotFound", err)
	}
}

func TestCatalogService_Search(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, nil, nil)

	for _, name := range []string{"db_config", "db_replica", "queue_config"} {
		if _, err := svc.Create(ctx, &entities.StructDef{Name: name}); err != nil {
			t.Fatalf("Create(%s) error = %v", name, err)
		}
	}

	found, err := svc.Search(ctx, &entities.SearchFilter{NameContains: "db_"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(found.List) != 2 {
		t.Errorf("Search() returned %d defs, want 2", len(found.List))
	}

	all, err := svc.Search(ctx, nil)
	if err != nil {
		t.Fatalf("Search(nil) error = %v", err)
	}
	if len(all.List) != 3 {
		t.Errorf("Search(nil) returned %d defs, want 3", len(all.List))
	}
}

func TestCatalogService_RecordsOperationMetrics(t *testing.T) {
	ctx := context.Background()
	collector := metrics.NewCollector()
	svc, _ := newTestService(t, nil, collector)

	if _, err := svc.Create(ctx, &entities.StructDef{Name: "db_config"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := svc.GetByName(ctx, "missing"); err == nil {
		t.Fatal("GetByName(missing) succeeded, want error")
	}

	m := collector.GetOperationMetrics()
	if m.Counts["create"] != 1 {
		t.Errorf("create count = %d, want 1", m.Counts["create"])
	}
	if m.Counts["get_by_name"] != 1 {
		t.Errorf("get_by_name count = %d, want 1", m.Counts["get_by_name"])
	}
	if m.ErrorCounts["get_by_name"] != 1 {
		t.Errorf("get_by_name error count = %d, want 1", m.ErrorCounts["get_by_name"])
	}
}
