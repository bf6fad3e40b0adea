package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/typegraph-io/typegraph/internal/entities"
	"github.com/typegraph-io/typegraph/internal/graph"
	"github.com/typegraph-io/typegraph/internal/infrastructure/metrics"
	"github.com/typegraph-io/typegraph/internal/typeregistry"
	"github.com/typegraph-io/typegraph/pkg/cache"
)

// StructDefStore is the persistence contract the catalog service drives.
type StructDefStore interface {
	PrepareCreate(ctx context.Context, def *entities.StructDef) (*graph.Vertex, error)
	Create(ctx context.Context, def *entities.StructDef, prepared *graph.Vertex) (*entities.StructDef, error)
	GetAll(ctx context.Context) ([]*entities.StructDef, error)
	GetByName(ctx context.Context, name string) (*entities.StructDef, error)
	GetByGUID(ctx context.Context, guid string) (*entities.StructDef, error)
	Update(ctx context.Context, def *entities.StructDef) (*entities.StructDef, error)
	PrepareDeleteByName(ctx context.Context, name string) (*graph.Vertex, error)
	DeleteByName(ctx context.Context, name string, prepared *graph.Vertex) error
	PrepareDeleteByGUID(ctx context.Context, guid string) (*graph.Vertex, error)
	DeleteByGUID(ctx context.Context, guid string, prepared *graph.Vertex) error
	Search(ctx context.Context, filter *entities.SearchFilter) (*entities.StructDefs, error)
}

// CatalogServiceInterface defines the interface for struct type catalog operations
type CatalogServiceInterface interface {
	Create(ctx context.Context, def *entities.StructDef) (*entities.StructDef, error)
	CreateBundle(ctx context.Context, defs []*entities.StructDef) ([]*entities.StructDef, error)
	GetAll(ctx context.Context) ([]*entities.StructDef, error)
	GetByName(ctx context.Context, name string) (*entities.StructDef, error)
	GetByGUID(ctx context.Context, guid string) (*entities.StructDef, error)
	Update(ctx context.Context, def *entities.StructDef) (*entities.StructDef, error)
	Search(ctx context.Context, filter *entities.SearchFilter) (*entities.StructDefs, error)
	DeleteByName(ctx context.Context, name string) error
	DeleteByGUID(ctx context.Context, guid string) error
}

// CatalogService coordinates the type registry, the definition store, and the
// read cache. It owns the registration pass: definitions are registered in
// the registry before the store encodes them, so the codec sees the resolved
// relationship metadata of every type in the same request.
type CatalogService struct {
	defStore StructDefStore
	registry *typeregistry.Registry
	cache    cache.Cache
	cacheTTL time.Duration
	metrics  *metrics.Collector
	exporter *metrics.PrometheusExporter
	logger   *zap.SugaredLogger
}

// NewCatalogService creates a new CatalogService. cache, collector, and
// exporter may be nil to disable caching and instrumentation.
func NewCatalogService(
	defStore StructDefStore,
	registry *typeregistry.Registry,
	defCache cache.Cache,
	cacheTTL time.Duration,
	collector *metrics.Collector,
	exporter *metrics.PrometheusExporter,
	logger *zap.SugaredLogger,
) *CatalogService {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if collector != nil && defCache != nil {
		collector.SetCache(defCache)
	}
	return &CatalogService{
		defStore: defStore,
		registry: registry,
		cache:    defCache,
		cacheTTL: cacheTTL,
		metrics:  collector,
		exporter: exporter,
		logger:   logger,
	}
}

const (
	cacheKeyNamePrefix = "structdef:name:"
	cacheKeyGUIDPrefix = "structdef:guid:"
)

// Create validates, registers, and persists a single struct definition.
func (s *CatalogService) Create(ctx context.Context, def *entities.StructDef) (*entities.StructDef, error) {
	start := time.Now()
	var err error
	defer func() { s.observe("create", start, err) }()

	if def == nil {
		err = fmt.Errorf("struct definition is required")
		return nil, err
	}
	if err = def.Validate(); err != nil {
		return nil, err
	}

	_, lookupErr := s.registry.GetType(def.Name)
	wasRegistered := lookupErr == nil

	if err = s.registry.RegisterStructDef(def, entities.TypeCategoryStruct); err != nil {
		return nil, fmt.Errorf("failed to register type %s: %w", def.Name, err)
	}

	created, createErr := s.defStore.Create(ctx, def, nil)
	if createErr != nil {
		if !wasRegistered {
			s.registry.Unregister(def.Name)
		}
		err = createErr
		return nil, err
	}

	s.invalidate(ctx, created)
	s.logger.Infow("created struct definition", "name", created.Name, "guid", created.GUID)
	return created, nil
}

// CreateBundle persists a batch of interdependent definitions. All of them
// are registered and prepared before any is committed, so definitions may
// reference each other regardless of order and a validation failure anywhere
// leaves the graph untouched.
func (s *CatalogService) CreateBundle(ctx context.Context, defs []*entities.StructDef) ([]*entities.StructDef, error) {
	start := time.Now()
	var err error
	defer func() { s.observe("create_bundle", start, err) }()

	if len(defs) == 0 {
		err = fmt.Errorf("at least one struct definition is required")
		return nil, err
	}
	for _, def := range defs {
		if def == nil {
			err = fmt.Errorf("nil struct definition in bundle")
			return nil, err
		}
		if err = def.Validate(); err != nil {
			return nil, err
		}
	}

	var newlyRegistered []string
	for _, def := range defs {
		if _, lookupErr := s.registry.GetType(def.Name); lookupErr != nil {
			newlyRegistered = append(newlyRegistered, def.Name)
		}
		if err = s.registry.RegisterStructDef(def, entities.TypeCategoryStruct); err != nil {
			err = fmt.Errorf("failed to register type %s: %w", def.Name, err)
			s.rollbackBundle(ctx, nil, nil, newlyRegistered)
			return nil, err
		}
	}

	prepared := make([]*graph.Vertex, 0, len(defs))
	for i, def := range defs {
		vertex, prepErr := s.defStore.PrepareCreate(ctx, def)
		if prepErr != nil {
			err = prepErr
			s.rollbackBundle(ctx, defs[:i], prepared, newlyRegistered)
			return nil, err
		}
		prepared = append(prepared, vertex)
	}

	created := make([]*entities.StructDef, 0, len(defs))
	for i, def := range defs {
		got, createErr := s.defStore.Create(ctx, def, prepared[i])
		if createErr != nil {
			err = createErr
			// Committed members are rolled back too; their reference
			// edges go with the vertex.
			s.rollbackBundle(ctx, defs, prepared, newlyRegistered)
			return nil, fmt.Errorf("failed to commit bundle at %s: %w", def.Name, err)
		}
		s.invalidate(ctx, got)
		created = append(created, got)
	}

	s.logger.Infow("created struct definition bundle", "count", len(created))
	return created, nil
}

// rollbackBundle deletes vertices prepared by an aborted bundle and removes
// the registry entries the bundle introduced.
func (s *CatalogService) rollbackBundle(ctx context.Context, defs []*entities.StructDef, prepared []*graph.Vertex, newlyRegistered []string) {
	for i, vertex := range prepared {
		if delErr := s.defStore.DeleteByName(ctx, defs[i].Name, vertex); delErr != nil {
			s.logger.Errorw("failed to roll back prepared definition", "name", defs[i].Name, "error", delErr)
		}
	}
	for _, name := range newlyRegistered {
		s.registry.Unregister(name)
	}
}

// GetAll returns every struct definition in the catalog.
func (s *CatalogService) GetAll(ctx context.Context) ([]*entities.StructDef, error) {
	start := time.Now()
	var err error
	defer func() { s.observe("get_all", start, err) }()

	var defs []*entities.StructDef
	defs, err = s.defStore.GetAll(ctx)
	return defs, err
}

// GetByName returns the struct definition with the given name, reading
// through the cache when one is configured.
func (s *CatalogService) GetByName(ctx context.Context, name string) (*entities.StructDef, error) {
	start := time.Now()
	var err error
	defer func() { s.observe("get_by_name", start, err) }()

	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, cacheKeyNamePrefix+name); ok {
			if def, isDef := cached.(*entities.StructDef); isDef {
				if s.exporter != nil {
					s.exporter.RecordCacheHit()
				}
				return def, nil
			}
		}
		if s.exporter != nil {
			s.exporter.RecordCacheMiss()
		}
	}

	var def *entities.StructDef
	def, err = s.defStore.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if cacheErr := s.cache.Set(ctx, cacheKeyNamePrefix+name, def, s.cacheTTL); cacheErr != nil {
			s.logger.Warnw("failed to cache struct definition", "name", name, "error", cacheErr)
		}
	}
	return def, nil
}

// GetByGUID returns the struct definition with the given guid, reading
// through the cache when one is configured.
func (s *CatalogService) GetByGUID(ctx context.Context, guid string) (*entities.StructDef, error) {
	start := time.Now()
	var err error
	defer func() { s.observe("get_by_guid", start, err) }()

	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, cacheKeyGUIDPrefix+guid); ok {
			if def, isDef := cached.(*entities.StructDef); isDef {
				if s.exporter != nil {
					s.exporter.RecordCacheHit()
				}
				return def, nil
			}
		}
		if s.exporter != nil {
			s.exporter.RecordCacheMiss()
		}
	}

	var def *entities.StructDef
	def, err = s.defStore.GetByGUID(ctx, guid)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if cacheErr := s.cache.Set(ctx, cacheKeyGUIDPrefix+guid, def, s.cacheTTL); cacheErr != nil {
			s.logger.Warnw("failed to cache struct definition", "guid", guid, "error", cacheErr)
		}
	}
	return def, nil
}

// Update overwrites an existing struct definition and refreshes the registry
// entry so later encodes see the new attribute set.
func (s *CatalogService) Update(ctx context.Context, def *entities.StructDef) (*entities.StructDef, error) {
	start := time.Now()
	var err error
	defer func() { s.observe("update", start, err) }()

	if def == nil {
		err = fmt.Errorf("struct definition is required")
		return nil, err
	}
	if err = def.Validate(); err != nil {
		return nil, err
	}

	if err = s.registry.RegisterStructDef(def, entities.TypeCategoryStruct); err != nil {
		return nil, fmt.Errorf("failed to register type %s: %w", def.Name, err)
	}

	var updated *entities.StructDef
	updated, err = s.defStore.Update(ctx, def)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, updated)
	s.logger.Infow("updated struct definition", "name", updated.Name, "guid", updated.GUID)
	return updated, nil
}

// Search returns every struct definition matching the filter.
func (s *CatalogService) Search(ctx context.Context, filter *entities.SearchFilter) (*entities.StructDefs, error) {
	start := time.Now()
	var err error
	defer func() { s.observe("search", start, err) }()

	if filter == nil {
		filter = &entities.SearchFilter{}
	}

	var defs *entities.StructDefs
	defs, err = s.defStore.Search(ctx, filter)
	return defs, err
}

// DeleteByName removes the named struct definition from the store, the
// registry, and the cache. The vertex identity alone drives the cache
// invalidation, so a definition whose stored blobs no longer decode can
// still be removed.
func (s *CatalogService) DeleteByName(ctx context.Context, name string) error {
	start := time.Now()
	var err error
	defer func() { s.observe("delete_by_name", start, err) }()

	var vertex *graph.Vertex
	vertex, err = s.defStore.PrepareDeleteByName(ctx, name)
	if err != nil {
		return err
	}

	if err = s.defStore.DeleteByName(ctx, name, vertex); err != nil {
		return err
	}

	s.registry.Unregister(name)
	s.invalidateKeys(ctx, name, vertex.GUID)
	s.logger.Infow("deleted struct definition", "name", name)
	return nil
}

// DeleteByGUID removes the identified struct definition from the store, the
// registry, and the cache. Like DeleteByName it never decodes the stored
// definition.
func (s *CatalogService) DeleteByGUID(ctx context.Context, guid string) error {
	start := time.Now()
	var err error
	defer func() { s.observe("delete_by_guid", start, err) }()

	var vertex *graph.Vertex
	vertex, err = s.defStore.PrepareDeleteByGUID(ctx, guid)
	if err != nil {
		return err
	}

	if err = s.defStore.DeleteByGUID(ctx, guid, vertex); err != nil {
		return err
	}

	s.registry.Unregister(vertex.TypeName)
	s.invalidateKeys(ctx, vertex.TypeName, guid)
	s.logger.Infow("deleted struct definition", "name", vertex.TypeName, "guid", guid)
	return nil
}

// invalidate drops both cache entries of a definition.
func (s *CatalogService) invalidate(ctx context.Context, def *entities.StructDef) {
	if def == nil {
		return
	}
	s.invalidateKeys(ctx, def.Name, def.GUID)
}

// invalidateKeys drops the cache entries for a name/guid pair.
func (s *CatalogService) invalidateKeys(ctx context.Context, name, guid string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cacheKeyNamePrefix+name); err != nil {
		s.logger.Warnw("failed to invalidate cache", "name", name, "error", err)
	}
	if guid != "" {
		if err := s.cache.Delete(ctx, cacheKeyGUIDPrefix+guid); err != nil {
			s.logger.Warnw("failed to invalidate cache", "guid", guid, "error", err)
		}
	}
}

func (s *CatalogService) observe(op string, start time.Time, err error) {
	elapsed := time.Since(start).Seconds()
	if s.metrics != nil {
		s.metrics.RecordOperation(op)
		s.metrics.RecordDuration(op, elapsed)
		if err != nil {
			s.metrics.RecordError(op)
		}
	}
	if s.exporter != nil {
		s.exporter.RecordOperation(op)
		s.exporter.RecordDuration(op, elapsed)
		if err != nil {
			s.exporter.RecordError(op)
		}
	}
}
