package service

import (
	"context"
	"time"
)

// LowStockAlert is delivered to the notification sink when an item
// first drops to or below its minimum threshold.
type LowStockAlert struct {
	ItemID       string    `json:"item_id"`
	ItemName     string    `json:"item_name"`
	ProductID    string    `json:"product_id"`
	PharmacyID   string    `json:"pharmacy_id"`
	PharmacyName string    `json:"pharmacy_name"`
	CurrentStock int       `json:"current_stock"`
	MinStock     int       `json:"min_stock"`
	At           time.Time `json:"at"`
}

// Notifier delivers low-stock alerts to an external sink (toast,
// push, message broker). Delivery happens synchronously within the
// mutation that triggered the alert.
type Notifier interface {
	NotifyLowStock(ctx context.Context, alert LowStockAlert)
}

// NotifierFunc adapts a function to the Notifier interface
type NotifierFunc func(ctx context.Context, alert LowStockAlert)

// NotifyLowStock implements Notifier
func (f NotifierFunc) NotifyLowStock(ctx context.Context, alert LowStockAlert) {
	f(ctx, alert)
}

// alertTracker keeps the edge-trigger state per item: an alert fires
// only when stock crosses from above the minimum to at-or-below it.
// Repeated drops while already below stay silent until stock first
// recovers above the minimum.
//
// Shares the ledger's locking discipline; not safe for standalone
// concurrent use.
type alertTracker struct {
	below map[string]bool
}

func newAlertTracker() *alertTracker {
	return &alertTracker{below: make(map[string]bool)}
}

// seed sets the initial threshold state for a newly provisioned item
func (t *alertTracker) seed(itemID string, below bool) {
	t.below[itemID] = below
}

// evaluate records the post-mutation stock level and reports whether a
// low-stock alert should fire for this mutation.
func (t *alertTracker) evaluate(itemID string, currentStock, minStock int) bool {
	below := currentStock <= minStock
	was := t.below[itemID]
	t.below[itemID] = below
	return below && !was
}
