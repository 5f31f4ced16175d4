package repository

import "time"

// MovementType classifies a stock-affecting event
type MovementType string

// Movement types
const (
	MovementSale       MovementType = "sale"
	MovementRestock    MovementType = "restock"
	MovementTransfer   MovementType = "transfer"
	MovementExpired    MovementType = "expired"
	MovementAdjustment MovementType = "adjustment"
)

// StockMovement is an immutable log entry for a single stock-affecting
// event. Transfer legs carry the same TransferID and their quantities
// sum to zero.
type StockMovement struct {
	ID           string       `json:"id" db:"id"`
	ItemID       string       `json:"item_id" db:"item_id"`
	PharmacyID   string       `json:"pharmacy_id" db:"pharmacy_id"`
	Type         MovementType `json:"type" db:"movement_type"`
	Quantity     int          `json:"quantity" db:"quantity"`
	FromPharmacy *string      `json:"from_pharmacy,omitempty" db:"from_pharmacy"`
	ToPharmacy   *string      `json:"to_pharmacy,omitempty" db:"to_pharmacy"`
	TransferID   *string      `json:"transfer_id,omitempty" db:"transfer_id"`
	Timestamp    time.Time    `json:"timestamp" db:"occurred_at"`
	PerformedBy  string       `json:"performed_by" db:"performed_by"`
	Notes        *string      `json:"notes,omitempty" db:"notes"`
}

// MovementLog is the append-only history of stock movements.
// Entries are immutable once appended; the log is owned exclusively by
// the ledger and shares its locking discipline.
type MovementLog struct {
	movements []*StockMovement
}

// NewMovementLog creates an empty movement log
func NewMovementLog() *MovementLog {
	return &MovementLog{}
}

// Append adds a movement to the log
func (l *MovementLog) Append(m *StockMovement) {
	copied := *m
	l.movements = append(l.movements, &copied)
}

// ListByItem returns all movements for one item, oldest first
func (l *MovementLog) ListByItem(itemID string) []*StockMovement {
	var out []*StockMovement
	for _, m := range l.movements {
		if m.ItemID == itemID {
			out = append(out, m)
		}
	}
	return out
}

// ListByPharmacy returns all movements at one location, oldest first
func (l *MovementLog) ListByPharmacy(pharmacyID string) []*StockMovement {
	var out []*StockMovement
	for _, m := range l.movements {
		if m.PharmacyID == pharmacyID {
			out = append(out, m)
		}
	}
	return out
}

// All returns the full log, oldest first
func (l *MovementLog) All() []*StockMovement {
	out := make([]*StockMovement, len(l.movements))
	copy(out, l.movements)
	return out
}

// SumByItem returns the net quantity recorded for one item.
// Because every item starts life with a provisioning movement, this is
// the replayed stock level.
func (l *MovementLog) SumByItem(itemID string) int {
	sum := 0
	for _, m := range l.movements {
		if m.ItemID == itemID {
			sum += m.Quantity
		}
	}
	return sum
}

// Len returns the number of logged movements
func (l *MovementLog) Len() int {
	return len(l.movements)
}
