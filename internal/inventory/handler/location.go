package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pharmanet/pharmanet-backend/internal/inventory/repository"
	"github.com/pharmanet/pharmanet-backend/pkg/httputil"
	"github.com/pharmanet/pharmanet-backend/pkg/logger"
)

// LocationHandler handles location registry endpoints
type LocationHandler struct {
	registry *repository.LocationRegistry
	logger   *logger.Logger
}

// NewLocationHandler creates a new location handler
func NewLocationHandler(registry *repository.LocationRegistry, log *logger.Logger) *LocationHandler {
	return &LocationHandler{
		registry: registry,
		logger:   log,
	}
}

// List lists all pharmacy locations in registry order
func (h *LocationHandler) List(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, h.registry.List())
}

// Get gets a location by id
func (h *LocationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	loc, err := h.registry.Get(id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, loc)
}
