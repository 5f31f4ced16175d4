package repository_test

import (
	"testing"

	"github.com/pharmanet/pharmanet-backend/internal/inventory/repository"
	"github.com/stretchr/testify/assert"
)

func TestMovementLog_SumByItem(t *testing.T) {
	log := repository.NewMovementLog()

	log.Append(&repository.StockMovement{ID: "m1", ItemID: "central:p1", PharmacyID: "central", Quantity: 50})
	log.Append(&repository.StockMovement{ID: "m2", ItemID: "central:p1", PharmacyID: "central", Quantity: -12})
	log.Append(&repository.StockMovement{ID: "m3", ItemID: "central:p2", PharmacyID: "central", Quantity: 7})
	log.Append(&repository.StockMovement{ID: "m4", ItemID: "central:p1", PharmacyID: "central", Quantity: 5})

	assert.Equal(t, 43, log.SumByItem("central:p1"))
	assert.Equal(t, 7, log.SumByItem("central:p2"))
	assert.Equal(t, 0, log.SumByItem("missing"))
}

func TestMovementLog_AppendCopies(t *testing.T) {
	log := repository.NewMovementLog()

	m := &repository.StockMovement{ID: "m1", ItemID: "central:p1", Quantity: 10}
	log.Append(m)
	m.Quantity = 999

	stored := log.ListByItem("central:p1")
	assert.Equal(t, 10, stored[0].Quantity)
}

func TestMovementLog_ListByPharmacy(t *testing.T) {
	log := repository.NewMovementLog()

	log.Append(&repository.StockMovement{ID: "m1", ItemID: "central:p1", PharmacyID: "central", Quantity: 1})
	log.Append(&repository.StockMovement{ID: "m2", ItemID: "norte:p1", PharmacyID: "norte", Quantity: 2})
	log.Append(&repository.StockMovement{ID: "m3", ItemID: "central:p2", PharmacyID: "central", Quantity: 3})

	central := log.ListByPharmacy("central")
	assert.Len(t, central, 2)
	assert.Equal(t, "m1", central[0].ID)
	assert.Equal(t, "m3", central[1].ID)

	assert.Equal(t, 3, log.Len())
}

func TestItemID(t *testing.T) {
	assert.Equal(t, "central:ibuprofeno-400", repository.ItemID("central", "ibuprofeno-400"))
}
