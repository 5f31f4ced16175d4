package handler

import (
	"net/http"

	"github.com/pharmanet/pharmanet-backend/internal/inventory/service"
	"github.com/pharmanet/pharmanet-backend/pkg/httputil"
	"github.com/pharmanet/pharmanet-backend/pkg/logger"
)

// SyncHandler exposes the sync coordinator over HTTP
type SyncHandler struct {
	coordinator *service.SyncCoordinator
	logger      *logger.Logger
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(coordinator *service.SyncCoordinator, log *logger.Logger) *SyncHandler {
	return &SyncHandler{
		coordinator: coordinator,
		logger:      log,
	}
}

// StatusResponse reports the coordinator state and queue depth
type StatusResponse struct {
	Status  service.SyncStatus `json:"status"`
	Pending int                `json:"pending"`
}

// ConnectivityRequest feeds the host platform's connectivity signal
type ConnectivityRequest struct {
	Online *bool `json:"online" validate:"required"`
}

// Status returns the coordinator state and pending change count
func (h *SyncHandler) Status(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, StatusResponse{
		Status:  h.coordinator.Status(),
		Pending: h.coordinator.PendingCount(),
	})
}

// SyncNow triggers an immediate flush of the pending queue
func (h *SyncHandler) SyncNow(w http.ResponseWriter, r *http.Request) {
	result, err := h.coordinator.SyncInventory(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, result)
}

// Connectivity updates the coordinator's connectivity state. Restoring
// connectivity flushes the pending queue before responding.
func (h *SyncHandler) Connectivity(w http.ResponseWriter, r *http.Request) {
	var req ConnectivityRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	h.coordinator.SetOnline(r.Context(), *req.Online)

	httputil.JSON(w, http.StatusOK, StatusResponse{
		Status:  h.coordinator.Status(),
		Pending: h.coordinator.PendingCount(),
	})
}
