package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/pharmanet/pharmanet-backend/internal/inventory/handler"
	"github.com/pharmanet/pharmanet-backend/internal/inventory/repository"
	"github.com/pharmanet/pharmanet-backend/internal/inventory/service"
	"github.com/pharmanet/pharmanet-backend/pkg/httputil"
	"github.com/pharmanet/pharmanet-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (chi.Router, *service.Ledger) {
	t.Helper()

	registry, err := repository.NewLocationRegistry([]*repository.PharmacyLocation{
		{ID: "central", Name: "Farmacia Central", IsMain: true},
		{ID: "norte", Name: "Farmacia Norte"},
	})
	require.NoError(t, err)

	log := logger.NewNop()
	ledger := service.NewLedger(registry, log)

	itemHandler := handler.NewItemHandler(ledger, log)
	alertHandler := handler.NewAlertHandler(ledger, log)

	r := chi.NewRouter()
	r.Use(httputil.ActingUser)
	r.Route("/pharmacies/{pharmacyID}/items/{productID}", func(r chi.Router) {
		r.Get("/", itemHandler.Get)
		r.Put("/stock", itemHandler.UpdateStock)
		r.Post("/sale", itemHandler.Sale)
	})
	r.Post("/items", itemHandler.Provision)
	r.Post("/transfers", itemHandler.Transfer)
	r.Get("/alerts/low-stock", alertHandler.LowStock)

	return r, ledger
}

func seedItem(t *testing.T, ledger *service.Ledger, pharmacyID, productID string, stock, minStock int) {
	t.Helper()

	err := ledger.ProvisionItem(context.Background(), &repository.InventoryItem{
		PharmacyID:   pharmacyID,
		ProductID:    productID,
		Name:         productID,
		CurrentStock: stock,
		MinStock:     minStock,
		MaxStock:     1000,
	})
	require.NoError(t, err)
}

func doJSON(t *testing.T, router chi.Router, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) httputil.Response {
	t.Helper()

	var resp httputil.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestProvisionEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/items", handler.ProvisionRequest{
		PharmacyID:   "central",
		ProductID:    "ibuprofeno-400",
		Name:         "Ibuprofeno 400mg",
		CurrentStock: 50,
		MinStock:     10,
		MaxStock:     200,
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
}

func TestProvisionEndpoint_ValidationError(t *testing.T) {
	router, _ := newTestRouter(t)

	// Missing required name.
	rec := doJSON(t, router, http.MethodPost, "/items", handler.ProvisionRequest{
		PharmacyID: "central",
		ProductID:  "p1",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Contains(t, resp.Error.Details, "Name")
}

func TestGetItemEndpoint(t *testing.T) {
	router, ledger := newTestRouter(t)
	seedItem(t, ledger, "central", "p1", 25, 5)

	rec := doJSON(t, router, http.MethodGet, "/pharmacies/central/items/p1/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/pharmacies/central/items/missing/", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateStockEndpoint(t *testing.T) {
	router, ledger := newTestRouter(t)
	seedItem(t, ledger, "central", "p1", 25, 5)

	newStock := 40
	rec := doJSON(t, router, http.MethodPut, "/pharmacies/central/items/p1/stock", handler.UpdateStockRequest{
		NewStock: &newStock,
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	item, err := ledger.GetItem("central", "p1")
	require.NoError(t, err)
	assert.Equal(t, 40, item.CurrentStock)
}

func TestUpdateStockEndpoint_NegativeRejected(t *testing.T) {
	router, ledger := newTestRouter(t)
	seedItem(t, ledger, "central", "p1", 25, 5)

	newStock := -1
	rec := doJSON(t, router, http.MethodPut, "/pharmacies/central/items/p1/stock", handler.UpdateStockRequest{
		NewStock: &newStock,
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_STOCK", resp.Error.Code)
}

func TestSaleEndpoint_InsufficientStock(t *testing.T) {
	router, ledger := newTestRouter(t)
	seedItem(t, ledger, "central", "p1", 3, 1)

	rec := doJSON(t, router, http.MethodPost, "/pharmacies/central/items/p1/sale", handler.QuantityRequest{
		Quantity: 5,
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INSUFFICIENT_STOCK", resp.Error.Code)
}

func TestSaleEndpoint_RecordsActor(t *testing.T) {
	router, ledger := newTestRouter(t)
	seedItem(t, ledger, "central", "p1", 10, 1)

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(handler.QuantityRequest{Quantity: 2}))
	req := httptest.NewRequest(http.MethodPost, "/pharmacies/central/items/p1/sale", &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "user-7")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	movements, err := ledger.MovementsForItem("central", "p1")
	require.NoError(t, err)
	assert.Equal(t, "user-7", movements[len(movements)-1].PerformedBy)
}

func TestTransferEndpoint(t *testing.T) {
	router, ledger := newTestRouter(t)
	seedItem(t, ledger, "central", "p1", 30, 5)

	rec := doJSON(t, router, http.MethodPost, "/transfers", handler.TransferRequest{
		ProductID:    "p1",
		FromPharmacy: "central",
		ToPharmacy:   "norte",
		Quantity:     10,
	})
	assert.Equal(t, http.StatusCreated, rec.Code)

	dst, err := ledger.GetItem("norte", "p1")
	require.NoError(t, err)
	assert.Equal(t, 10, dst.CurrentStock)
}

func TestTransferEndpoint_UnknownLocation(t *testing.T) {
	router, ledger := newTestRouter(t)
	seedItem(t, ledger, "central", "p1", 30, 5)

	rec := doJSON(t, router, http.MethodPost, "/transfers", handler.TransferRequest{
		ProductID:    "p1",
		FromPharmacy: "central",
		ToPharmacy:   "nowhere",
		Quantity:     10,
	})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "LOCATION_NOT_FOUND", resp.Error.Code)
}

func TestLowStockEndpoint(t *testing.T) {
	router, ledger := newTestRouter(t)
	seedItem(t, ledger, "central", "low", 2, 10)
	seedItem(t, ledger, "central", "ok", 50, 10)

	rec := doJSON(t, router, http.MethodGet, "/alerts/low-stock", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	resp := decodeResponse(t, rec)
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)

	var items []repository.InventoryItem
	require.NoError(t, json.Unmarshal(raw, &items))
	require.Len(t, items, 1)
	assert.Equal(t, "central:low", items[0].ID)
}
