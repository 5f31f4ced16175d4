package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pharmanet/pharmanet-backend/internal/inventory/service"
	"github.com/pharmanet/pharmanet-backend/pkg/httputil"
	"github.com/pharmanet/pharmanet-backend/pkg/logger"
)

// DashboardHandler serves aggregate views for the dashboard screens
type DashboardHandler struct {
	ledger *service.Ledger
	logger *logger.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(ledger *service.Ledger, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{
		ledger: ledger,
		logger: log,
	}
}

// Stats summarizes ledger state across all locations
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, h.ledger.GetDashboardStats())
}

// PharmacyMovements returns the movement history at one location
func (h *DashboardHandler) PharmacyMovements(w http.ResponseWriter, r *http.Request) {
	pharmacyID := chi.URLParam(r, "pharmacyID")

	movements, err := h.ledger.MovementsAt(pharmacyID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, movements)
}
