// Package handlers exposes the catalog over HTTP with a JSON body per call.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/typegraph-io/typegraph/internal/entities"
	"github.com/typegraph-io/typegraph/internal/services"
)

// CatalogHandler handles struct type catalog HTTP requests.
type CatalogHandler struct {
	service services.CatalogServiceInterface
	logger  *zap.SugaredLogger
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(service services.CatalogServiceInterface, logger *zap.SugaredLogger) *CatalogHandler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &CatalogHandler{service: service, logger: logger}
}

// RegisterRoutes attaches the catalog routes to the mux.
func (h *CatalogHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/types", h.ListTypes)
	mux.HandleFunc("POST /v1/types", h.CreateTypes)
	mux.HandleFunc("GET /v1/types/name/{name}", h.GetTypeByName)
	mux.HandleFunc("PUT /v1/types/name/{name}", h.UpdateType)
	mux.HandleFunc("DELETE /v1/types/name/{name}", h.DeleteTypeByName)
	mux.HandleFunc("GET /v1/types/guid/{guid}", h.GetTypeByGUID)
	mux.HandleFunc("DELETE /v1/types/guid/{guid}", h.DeleteTypeByGUID)
}

// ListTypes returns all struct definitions, optionally filtered by the
// name, contains, and guid query parameters.
func (h *CatalogHandler) ListTypes(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := &entities.SearchFilter{
		Name:         query.Get("name"),
		NameContains: query.Get("contains"),
		GUID:         query.Get("guid"),
	}

	defs, err := h.service.Search(r.Context(), filter)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, &TypesResponse{StructDefs: toPayloads(defs.List)})
}

// CreateTypes creates every definition in the request body as one bundle.
func (h *CatalogHandler) CreateTypes(w http.ResponseWriter, r *http.Request) {
	var req CreateTypesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, &ErrorResponse{Error: "invalid request body"})
		return
	}

	defs := make([]*entities.StructDef, 0, len(req.StructDefs))
	for _, p := range req.StructDefs {
		def := toEntity(p)
		if err := def.Validate(); err != nil {
			h.writeJSON(w, http.StatusBadRequest, &ErrorResponse{Error: err.Error()})
			return
		}
		defs = append(defs, def)
	}
	if len(defs) == 0 {
		h.writeJSON(w, http.StatusBadRequest, &ErrorResponse{Error: "at least one struct definition is required"})
		return
	}

	created, err := h.service.CreateBundle(r.Context(), defs)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, &TypesResponse{StructDefs: toPayloads(created)})
}

// GetTypeByName returns one definition by name.
func (h *CatalogHandler) GetTypeByName(w http.ResponseWriter, r *http.Request) {
	def, err := h.service.GetByName(r.Context(), r.PathValue("name"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toPayload(def))
}

// GetTypeByGUID returns one definition by guid.
func (h *CatalogHandler) GetTypeByGUID(w http.ResponseWriter, r *http.Request) {
	def, err := h.service.GetByGUID(r.Context(), r.PathValue("guid"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toPayload(def))
}

// UpdateType overwrites the definition named in the path.
func (h *CatalogHandler) UpdateType(w http.ResponseWriter, r *http.Request) {
	var payload StructDefPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeJSON(w, http.StatusBadRequest, &ErrorResponse{Error: "invalid request body"})
		return
	}

	def := toEntity(&payload)
	name := r.PathValue("name")
	if def.Name == "" {
		def.Name = name
	}
	if def.Name != name {
		h.writeJSON(w, http.StatusBadRequest, &ErrorResponse{Error: "body name does not match path"})
		return
	}
	if err := def.Validate(); err != nil {
		h.writeJSON(w, http.StatusBadRequest, &ErrorResponse{Error: err.Error()})
		return
	}

	updated, err := h.service.Update(r.Context(), def)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toPayload(updated))
}

// DeleteTypeByName removes one definition by name.
func (h *CatalogHandler) DeleteTypeByName(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteByName(r.Context(), r.PathValue("name")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteTypeByGUID removes one definition by guid.
func (h *CatalogHandler) DeleteTypeByGUID(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteByGUID(r.Context(), r.PathValue("guid")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CatalogHandler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Errorw("failed to encode response", "error", err)
	}
}

// writeError maps catalog errors to HTTP statuses. Conflicting names map to
// 409, missing definitions to 404, caller mistakes to 400, and storage
// corruption to 500.
func (h *CatalogHandler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, entities.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, entities.ErrTypeAlreadyExists):
		status = http.StatusConflict
	case errors.Is(err, entities.ErrNotAStructType),
		errors.Is(err, entities.ErrUnknownReferencedType),
		errors.Is(err, entities.ErrUnsupportedConstraint):
		status = http.StatusBadRequest
	case errors.Is(err, entities.ErrDecode):
		status = http.StatusInternalServerError
	}

	if status == http.StatusInternalServerError {
		h.logger.Errorw("catalog request failed", "error", err)
	}
	h.writeJSON(w, status, &ErrorResponse{Error: err.Error()})
}
