package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pharmanet/pharmanet-backend/internal/inventory/repository"
	"github.com/pharmanet/pharmanet-backend/internal/inventory/service"
	"github.com/pharmanet/pharmanet-backend/pkg/httputil"
	"github.com/pharmanet/pharmanet-backend/pkg/logger"
)

// ItemHandler handles item read and write endpoints
type ItemHandler struct {
	ledger *service.Ledger
	logger *logger.Logger
}

// NewItemHandler creates a new item handler
func NewItemHandler(ledger *service.Ledger, log *logger.Logger) *ItemHandler {
	return &ItemHandler{
		ledger: ledger,
		logger: log,
	}
}

// ProvisionRequest creates a stock record at a location
type ProvisionRequest struct {
	PharmacyID      string    `json:"pharmacy_id" validate:"required"`
	ProductID       string    `json:"product_id" validate:"required"`
	Name            string    `json:"name" validate:"required"`
	Brand           string    `json:"brand"`
	CurrentStock    int       `json:"current_stock"`
	MinStock        int       `json:"min_stock"`
	MaxStock        int       `json:"max_stock"`
	UnitPriceCents  int       `json:"unit_price_cents"`
	Supplier        string    `json:"supplier"`
	ExpiryDate      time.Time `json:"expiry_date"`
	StorageLocation string    `json:"storage_location"`
	BatchNumber     string    `json:"batch_number"`
	Reserved        int       `json:"reserved"`
}

// UpdateStockRequest replaces an item's stock level.
// NewStock is a pointer so zero is distinguishable from absent; the
// ledger rejects negative targets with a typed error.
type UpdateStockRequest struct {
	NewStock *int   `json:"new_stock" validate:"required"`
	Notes    string `json:"notes"`
}

// QuantityRequest carries the unit count for sales, restocks,
// write-offs and reservations
type QuantityRequest struct {
	Quantity int `json:"quantity" validate:"required"`
}

// TransferRequest moves stock between two locations
type TransferRequest struct {
	ProductID    string `json:"product_id" validate:"required"`
	FromPharmacy string `json:"from_pharmacy" validate:"required"`
	ToPharmacy   string `json:"to_pharmacy" validate:"required"`
	Quantity     int    `json:"quantity" validate:"required"`
}

// ListByPharmacy lists all items at one location
func (h *ItemHandler) ListByPharmacy(w http.ResponseWriter, r *http.Request) {
	pharmacyID := chi.URLParam(r, "pharmacyID")

	items, err := h.ledger.ItemsAt(pharmacyID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, items)
}

// Get gets one item record
func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	pharmacyID := chi.URLParam(r, "pharmacyID")
	productID := chi.URLParam(r, "productID")

	item, err := h.ledger.GetItem(pharmacyID, productID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, item)
}

// Provision creates a stock record at a location
func (h *ItemHandler) Provision(w http.ResponseWriter, r *http.Request) {
	var req ProvisionRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	item := &repository.InventoryItem{
		PharmacyID:      req.PharmacyID,
		ProductID:       req.ProductID,
		Name:            req.Name,
		Brand:           req.Brand,
		CurrentStock:    req.CurrentStock,
		MinStock:        req.MinStock,
		MaxStock:        req.MaxStock,
		UnitPriceCents:  req.UnitPriceCents,
		Supplier:        req.Supplier,
		ExpiryDate:      req.ExpiryDate,
		StorageLocation: req.StorageLocation,
		BatchNumber:     req.BatchNumber,
		Reserved:        req.Reserved,
	}

	if err := h.ledger.ProvisionItem(r.Context(), item); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, item)
}

// UpdateStock replaces an item's stock level (manual edit form)
func (h *ItemHandler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	pharmacyID := chi.URLParam(r, "pharmacyID")
	productID := chi.URLParam(r, "productID")

	var req UpdateStockRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	movement, err := h.ledger.UpdateStock(r.Context(), pharmacyID, productID, *req.NewStock, req.Notes)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, movement)
}

// Sale records a point-of-sale decrement
func (h *ItemHandler) Sale(w http.ResponseWriter, r *http.Request) {
	h.quantityOp(w, r, h.ledger.RecordSale)
}

// Restock records a replenishment delivery
func (h *ItemHandler) Restock(w http.ResponseWriter, r *http.Request) {
	h.quantityOp(w, r, h.ledger.RecordRestock)
}

// Expired writes off expired units
func (h *ItemHandler) Expired(w http.ResponseWriter, r *http.Request) {
	h.quantityOp(w, r, h.ledger.RecordExpired)
}

// quantityOp shares the decode/validate/record flow for the three
// quantity-based mutations.
func (h *ItemHandler) quantityOp(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, pharmacyID, productID string, quantity int) (*repository.StockMovement, error)) {
	pharmacyID := chi.URLParam(r, "pharmacyID")
	productID := chi.URLParam(r, "productID")

	var req QuantityRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	movement, err := op(r.Context(), pharmacyID, productID, req.Quantity)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, movement)
}

// Reserve places a hold on units for a pending order
func (h *ItemHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	pharmacyID := chi.URLParam(r, "pharmacyID")
	productID := chi.URLParam(r, "productID")

	var req QuantityRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := h.ledger.ReserveStock(r.Context(), pharmacyID, productID, req.Quantity); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

// Release releases a previously placed hold
func (h *ItemHandler) Release(w http.ResponseWriter, r *http.Request) {
	pharmacyID := chi.URLParam(r, "pharmacyID")
	productID := chi.URLParam(r, "productID")

	var req QuantityRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := h.ledger.ReleaseReservation(r.Context(), pharmacyID, productID, req.Quantity); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

// Transfer moves stock between two locations
func (h *ItemHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	movements, err := h.ledger.TransferStock(r.Context(), req.ProductID, req.FromPharmacy, req.ToPharmacy, req.Quantity)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, movements)
}

// Movements returns the movement history for one item
func (h *ItemHandler) Movements(w http.ResponseWriter, r *http.Request) {
	pharmacyID := chi.URLParam(r, "pharmacyID")
	productID := chi.URLParam(r, "productID")

	movements, err := h.ledger.MovementsForItem(pharmacyID, productID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, movements)
}

// Replay reconstructs an item's stock from its movement log
func (h *ItemHandler) Replay(w http.ResponseWriter, r *http.Request) {
	pharmacyID := chi.URLParam(r, "pharmacyID")
	productID := chi.URLParam(r, "productID")

	result, err := h.ledger.ReplayStock(pharmacyID, productID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, result)
}
