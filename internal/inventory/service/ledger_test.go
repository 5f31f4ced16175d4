package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/pharmanet/pharmanet-backend/internal/inventory/repository"
	"github.com/pharmanet/pharmanet-backend/internal/inventory/service"
	"github.com/pharmanet/pharmanet-backend/pkg/actor"
	"github.com/pharmanet/pharmanet-backend/pkg/errors"
	"github.com/pharmanet/pharmanet-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry(t *testing.T) *repository.LocationRegistry {
	t.Helper()

	registry, err := repository.NewLocationRegistry([]*repository.PharmacyLocation{
		{ID: "central", Name: "Farmacia Central", IsMain: true},
		{ID: "norte", Name: "Farmacia Norte"},
		{ID: "sur", Name: "Farmacia Sur"},
	})
	require.NoError(t, err)

	return registry
}

func newTestLedger(t *testing.T, opts ...service.Option) *service.Ledger {
	t.Helper()
	return service.NewLedger(testRegistry(t), logger.NewNop(), opts...)
}

func provision(t *testing.T, ledger *service.Ledger, pharmacyID, productID string, stock, minStock int) {
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

func TestProvisionItem(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	err := ledger.ProvisionItem(ctx, &repository.InventoryItem{
		PharmacyID:   "central",
		ProductID:    "ibuprofeno-400",
		Name:         "Ibuprofeno 400mg",
		CurrentStock: 50,
		MinStock:     10,
		MaxStock:     200,
	})
	require.NoError(t, err)

	item, err := ledger.GetItem("central", "ibuprofeno-400")
	require.NoError(t, err)
	assert.Equal(t, "central:ibuprofeno-400", item.ID)
	assert.Equal(t, 50, item.CurrentStock)
	assert.False(t, item.LastUpdated.IsZero())

	// Provisioning writes the opening movement so replay stays consistent.
	movements, err := ledger.MovementsForItem("central", "ibuprofeno-400")
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, repository.MovementRestock, movements[0].Type)
	assert.Equal(t, 50, movements[0].Quantity)
}

func TestProvisionItem_Validation(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		item     *repository.InventoryItem
		sentinel error
	}{
		{
			name:     "unknown location",
			item:     &repository.InventoryItem{PharmacyID: "nowhere", ProductID: "p1", CurrentStock: 1},
			sentinel: errors.ErrLocationNotFound,
		},
		{
			name:     "negative stock",
			item:     &repository.InventoryItem{PharmacyID: "central", ProductID: "p1", CurrentStock: -3},
			sentinel: errors.ErrInvalidStock,
		},
		{
			name:     "missing product id",
			item:     &repository.InventoryItem{PharmacyID: "central", CurrentStock: 1},
			sentinel: errors.ErrBadRequest,
		},
		{
			name:     "min above max",
			item:     &repository.InventoryItem{PharmacyID: "central", ProductID: "p1", CurrentStock: 1, MinStock: 20, MaxStock: 10},
			sentinel: errors.ErrBadRequest,
		},
		{
			name:     "reserved above stock",
			item:     &repository.InventoryItem{PharmacyID: "central", ProductID: "p1", CurrentStock: 5, MaxStock: 10, Reserved: 6},
			sentinel: errors.ErrBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ledger.ProvisionItem(ctx, tt.item)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.sentinel))
		})
	}
}

func TestProvisionItem_Duplicate(t *testing.T) {
	ledger := newTestLedger(t)
	provision(t, ledger, "central", "p1", 10, 2)

	err := ledger.ProvisionItem(context.Background(), &repository.InventoryItem{
		PharmacyID:   "central",
		ProductID:    "p1",
		CurrentStock: 5,
		MaxStock:     100,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConflict))
}

func TestUpdateStock(t *testing.T) {
	ledger := newTestLedger(t)
	provision(t, ledger, "central", "p1", 40, 5)

	m, err := ledger.UpdateStock(context.Background(), "central", "p1", 25, "cycle count")
	require.NoError(t, err)
	assert.Equal(t, repository.MovementAdjustment, m.Type)
	assert.Equal(t, -15, m.Quantity)

	item, err := ledger.GetItem("central", "p1")
	require.NoError(t, err)
	assert.Equal(t, 25, item.CurrentStock)
}

func TestUpdateStock_RejectsNegative(t *testing.T) {
	ledger := newTestLedger(t)
	provision(t, ledger, "central", "p1", 40, 5)

	_, err := ledger.UpdateStock(context.Background(), "central", "p1", -1, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidStock))

	// Rejection leaves the level unchanged.
	item, err := ledger.GetItem("central", "p1")
	require.NoError(t, err)
	assert.Equal(t, 40, item.CurrentStock)
}

func TestUpdateStock_ClampsReservation(t *testing.T) {
	ledger := newTestLedger(t)
	provision(t, ledger, "central", "p1", 40, 5)
	require.NoError(t, ledger.ReserveStock(context.Background(), "central", "p1", 10))

	_, err := ledger.UpdateStock(context.Background(), "central", "p1", 4, "")
	require.NoError(t, err)

	item, err := ledger.GetItem("central", "p1")
	require.NoError(t, err)
	assert.Equal(t, 4, item.CurrentStock)
	assert.Equal(t, 4, item.Reserved)
}

func TestRecordSale(t *testing.T) {
	ledger := newTestLedger(t)
	provision(t, ledger, "central", "p1", 10, 2)

	m, err := ledger.RecordSale(context.Background(), "central", "p1", 3)
	require.NoError(t, err)
	assert.Equal(t, repository.MovementSale, m.Type)
	assert.Equal(t, -3, m.Quantity)

	item, err := ledger.GetItem("central", "p1")
	require.NoError(t, err)
	assert.Equal(t, 7, item.CurrentStock)
}

func TestRecordSale_InsufficientStock(t *testing.T) {
	ledger := newTestLedger(t)
	provision(t, ledger, "central", "p1", 5, 2)

	_, err := ledger.RecordSale(context.Background(), "central", "p1", 6)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInsufficientStock))

	item, err := ledger.GetItem("central", "p1")
	require.NoError(t, err)
	assert.Equal(t, 5, item.CurrentStock)

	// No movement is recorded for the rejected sale.
	movements, err := ledger.MovementsForItem("central", "p1")
	require.NoError(t, err)
	assert.Len(t, movements, 1)
}

func TestRecordSale_NonPositiveQuantity(t *testing.T) {
	ledger := newTestLedger(t)
	provision(t, ledger, "central", "p1", 5, 2)

	for _, qty := range []int{0, -4} {
		_, err := ledger.RecordSale(context.Background(), "central", "p1", qty)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrBadRequest))
	}
}

func TestRecordExpired(t *testing.T) {
	ledger := newTestLedger(t)
	provision(t, ledger, "central", "p1", 10, 2)

	m, err := ledger.RecordExpired(context.Background(), "central", "p1", 4)
	require.NoError(t, err)
	assert.Equal(t, repository.MovementExpired, m.Type)
	assert.Equal(t, -4, m.Quantity)

	item, err := ledger.GetItem("central", "p1")
	require.NoError(t, err)
	assert.Equal(t, 6, item.CurrentStock)
}

func TestRecordRestock(t *testing.T) {
	ledger := newTestLedger(t)
	provision(t, ledger, "central", "p1", 10, 2)

	m, err := ledger.RecordRestock(context.Background(), "central", "p1", 15)
	require.NoError(t, err)
	assert.Equal(t, repository.MovementRestock, m.Type)
	assert.Equal(t, 15, m.Quantity)

	item, err := ledger.GetItem("central", "p1")
	require.NoError(t, err)
	assert.Equal(t, 25, item.CurrentStock)
}

func TestRecordMovement_CarriesActor(t *testing.T) {
	ledger := newTestLedger(t)
	provision(t, ledger, "central", "p1", 10, 2)

	ctx := actor.WithActor(context.Background(), &actor.Actor{ID: "user-42", Name: "Ana"})
	m, err := ledger.RecordSale(ctx, "central", "p1", 1)
	require.NoError(t, err)
	assert.Equal(t, "user-42", m.PerformedBy)

	// No actor in context falls back to the system actor.
	m, err = ledger.RecordSale(context.Background(), "central", "p1", 1)
	require.NoError(t, err)
	assert.Equal(t, "system", m.PerformedBy)
}

func TestTransferStock(t *testing.T) {
	ledger := newTestLedger(t)
	provision(t, ledger, "central", "p1", 30, 5)
	provision(t, ledger, "norte", "p1", 10, 5)

	movements, err := ledger.TransferStock(context.Background(), "p1", "central", "norte", 12)
	require.NoError(t, err)
	require.Len(t, movements, 2)

	out, in := movements[0], movements[1]
	assert.Equal(t, -12, out.Quantity)
	assert.Equal(t, 12, in.Quantity)
	assert.Equal(t, 0, out.Quantity+in.Quantity)

	// Both legs share one transfer id and carry the route.
	require.NotNil(t, out.TransferID)
	require.NotNil(t, in.TransferID)
	assert.Equal(t, *out.TransferID, *in.TransferID)
	assert.Equal(t, "central", *out.FromPharmacy)
	assert.Equal(t, "norte", *out.ToPharmacy)

	src, err := ledger.GetItem("central", "p1")
	require.NoError(t, err)
	dst, err := ledger.GetItem("norte", "p1")
	require.NoError(t, err)
	assert.Equal(t, 18, src.CurrentStock)
	assert.Equal(t, 22, dst.CurrentStock)
}

func TestTransferStock_PreservesTotal(t *testing.T) {
	ledger := newTestLedger(t)
	provision(t, ledger, "central", "p1", 30, 5)
	provision(t, ledger, "norte", "p1", 10, 5)

	total := func() int {
		sum := 0
		for _, item := range ledger.AllItems() {
			sum += item.CurrentStock
		}
		return sum
	}

	before := total()

	_, err := ledger.TransferStock(context.Background(), "p1", "central", "norte", 7)
	require.NoError(t, err)
	_, err = ledger.TransferStock(context.Background(), "p1", "norte", "central", 7)
	require.NoError(t, err)

	assert.Equal(t, before, total())
}

func TestTransferStock_CreatesDestinationItem(t *testing.T) {
	ledger := newTestLedger(t)
	provision(t, ledger, "central", "p1", 30, 5)

	_, err := ledger.TransferStock(context.Background(), "p1", "central", "sur", 10)
	require.NoError(t, err)

	dst, err := ledger.GetItem("sur", "p1")
	require.NoError(t, err)
	assert.Equal(t, 10, dst.CurrentStock)
	assert.Equal(t, "sur", dst.PharmacyID)
	// Catalog data is inherited from the source record.
	assert.Equal(t, "p1", dst.Name)
	assert.Equal(t, 5, dst.MinStock)
	assert.Equal(t, 0, dst.Reserved)
}

func TestTransferStock_Rejections(t *testing.T) {
	ledger := newTestLedger(t)
	provision(t, ledger, "central", "p1", 30, 5)

	ctx := context.Background()

	_, err := ledger.TransferStock(ctx, "p1", "central", "central", 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrBadRequest))

	_, err = ledger.TransferStock(ctx, "p1", "central", "nowhere", 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrLocationNotFound))

	_, err = ledger.TransferStock(ctx, "p1", "central", "norte", 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrBadRequest))

	_, err = ledger.TransferStock(ctx, "missing", "central", "norte", 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestTransferStock_InsufficientLeavesBothUnchanged(t *testing.T) {
	ledger := newTestLedger(t)
	provision(t, ledger, "central", "p1", 8, 2)
	provision(t, ledger, "norte", "p1", 3, 2)

	_, err := ledger.TransferStock(context.Background(), "p1", "central", "norte", 9)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInsufficientStock))

	src, err := ledger.GetItem("central", "p1")
	require.NoError(t, err)
	dst, err := ledger.GetItem("norte", "p1")
	require.NoError(t, err)
	assert.Equal(t, 8, src.CurrentStock)
	assert.Equal(t, 3, dst.CurrentStock)
}

func TestReserveAndRelease(t *testing.T) {
	ledger := newTestLedger(t)
	provision(t, ledger, "central", "p1", 20, 2)
	ctx := context.Background()

	require.NoError(t, ledger.ReserveStock(ctx, "central", "p1", 15))

	item, err := ledger.GetItem("central", "p1")
	require.NoError(t, err)
	assert.Equal(t, 15, item.Reserved)
	assert.Equal(t, 5, item.Available())

	// A hold cannot exceed what is on the shelf.
	err = ledger.ReserveStock(ctx, "central", "p1", 6)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInsufficientStock))

	require.NoError(t, ledger.ReleaseReservation(ctx, "central", "p1", 10))

	item, err = ledger.GetItem("central", "p1")
	require.NoError(t, err)
	assert.Equal(t, 5, item.Reserved)

	err = ledger.ReleaseReservation(ctx, "central", "p1", 6)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrBadRequest))
}

func TestLedger_PublishesMovements(t *testing.T) {
	var published []*repository.StockMovement
	var stocks []int

	pub := publisherFunc(func(ctx context.Context, m *repository.StockMovement, newStock int) {
		published = append(published, m)
		stocks = append(stocks, newStock)
	})

	ledger := newTestLedger(t, service.WithPublisher(pub))
	provision(t, ledger, "central", "p1", 10, 2)

	_, err := ledger.RecordSale(context.Background(), "central", "p1", 4)
	require.NoError(t, err)

	// Opening movement plus the sale.
	require.Len(t, published, 2)
	assert.Equal(t, repository.MovementSale, published[1].Type)
	assert.Equal(t, []int{10, 6}, stocks)
}

type publisherFunc func(ctx context.Context, m *repository.StockMovement, newStock int)

func (f publisherFunc) PublishStockMovement(ctx context.Context, m *repository.StockMovement, newStock int) {
	f(ctx, m, newStock)
}

func TestLedger_WithClock(t *testing.T) {
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ledger := newTestLedger(t, service.WithClock(func() time.Time { return fixed }))
	provision(t, ledger, "central", "p1", 10, 2)

	m, err := ledger.RecordSale(context.Background(), "central", "p1", 1)
	require.NoError(t, err)
	assert.Equal(t, fixed, m.Timestamp)

	item, err := ledger.GetItem("central", "p1")
	require.NoError(t, err)
	assert.Equal(t, fixed, item.LastUpdated)
}
