package handler

import (
	"net/http"
	"strconv"

	"github.com/pharmanet/pharmanet-backend/internal/inventory/service"
	"github.com/pharmanet/pharmanet-backend/pkg/errors"
	"github.com/pharmanet/pharmanet-backend/pkg/httputil"
	"github.com/pharmanet/pharmanet-backend/pkg/logger"
)

// AlertHandler handles low-stock and expiry query endpoints
type AlertHandler struct {
	ledger *service.Ledger
	logger *logger.Logger
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(ledger *service.Ledger, log *logger.Logger) *AlertHandler {
	return &AlertHandler{
		ledger: ledger,
		logger: log,
	}
}

// LowStock lists items at or below their minimum threshold, most
// critical first. Accepts an optional pharmacy_id query filter.
func (h *AlertHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	pharmacyID := r.URL.Query().Get("pharmacy_id")

	items, err := h.ledger.LowStockItems(pharmacyID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, items)
}

// Expiring lists items expiring within the query window, soonest
// first. Accepts optional days (default 30) and pharmacy_id filters.
func (h *AlertHandler) Expiring(w http.ResponseWriter, r *http.Request) {
	pharmacyID := r.URL.Query().Get("pharmacy_id")

	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			httputil.Error(w, errors.BadRequest("days must be an integer"))
			return
		}
		days = parsed
	}

	items, err := h.ledger.ExpiringItems(days, pharmacyID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, items)
}

// Availability reports which locations hold a product, in registry order
func (h *AlertHandler) Availability(w http.ResponseWriter, r *http.Request) {
	productID := r.URL.Query().Get("product_id")
	if productID == "" {
		httputil.Error(w, errors.BadRequest("product_id is required"))
		return
	}

	httputil.JSON(w, http.StatusOK, h.ledger.ItemAvailability(productID))
}
