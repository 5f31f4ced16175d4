package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pharmanet/pharmanet-backend/internal/inventory/repository"
	"github.com/pharmanet/pharmanet-backend/pkg/actor"
	"github.com/pharmanet/pharmanet-backend/pkg/errors"
	"github.com/pharmanet/pharmanet-backend/pkg/logger"
)

// MovementPublisher receives every stock-affecting mutation.
// Implementations must tolerate a nil receiver.
type MovementPublisher interface {
	PublishStockMovement(ctx context.Context, m *repository.StockMovement, newStock int)
}

// ChangeQueue receives local mutations destined for the remote system
// of record. The sync coordinator implements it.
type ChangeQueue interface {
	Enqueue(change PendingChange)
}

// Ledger is the authoritative in-memory store of per-location stock
// records. All mutations are serialized behind one mutex: the single
// logical writer the stores rely on. Transfers mutate both legs under
// a single lock hold, so readers never observe a partial transfer.
type Ledger struct {
	mu        sync.Mutex
	registry  *repository.LocationRegistry
	items     *repository.ItemStore
	movements *repository.MovementLog
	alerts    *alertTracker
	notifier  Notifier
	queue     ChangeQueue
	publisher MovementPublisher
	logger    *logger.Logger
	now       func() time.Time
}

// Option configures a Ledger
type Option func(*Ledger)

// WithNotifier sets the low-stock notification sink
func WithNotifier(n Notifier) Option {
	return func(l *Ledger) { l.notifier = n }
}

// WithQueue sets the pending-change queue for outbound sync
func WithQueue(q ChangeQueue) Option {
	return func(l *Ledger) { l.queue = q }
}

// WithPublisher sets the stock event publisher
func WithPublisher(p MovementPublisher) Option {
	return func(l *Ledger) { l.publisher = p }
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// NewLedger creates a ledger over the given location registry
func NewLedger(registry *repository.LocationRegistry, log *logger.Logger, opts ...Option) *Ledger {
	l := &Ledger{
		registry:  registry,
		items:     repository.NewItemStore(),
		movements: repository.NewMovementLog(),
		alerts:    newAlertTracker(),
		logger:    log,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Registry returns the location registry
func (l *Ledger) Registry() *repository.LocationRegistry {
	return l.registry
}

// mutation captures everything a single ledger operation produced
// while the lock was held. Side effects (alert, queue, publish) are
// delivered after unlock but before the operation returns, so callers
// always observe them as part of the mutation.
type mutation struct {
	movements []*repository.StockMovement
	snapshots []*repository.InventoryItem
	alerts    []LowStockAlert
}

func (l *Ledger) finish(ctx context.Context, mut *mutation) {
	for _, alert := range mut.alerts {
		if l.notifier != nil {
			l.notifier.NotifyLowStock(ctx, alert)
		}
	}

	for i, m := range mut.movements {
		if l.publisher != nil {
			l.publisher.PublishStockMovement(ctx, m, mut.snapshots[i].CurrentStock)
		}
		if l.queue != nil {
			l.queue.Enqueue(PendingChange{Movement: m, Item: mut.snapshots[i]})
		}
	}
}

// record appends a movement for the (already mutated) canonical item
// and evaluates the low-stock threshold. Caller holds l.mu.
func (l *Ledger) record(item *repository.InventoryItem, m *repository.StockMovement, mut *mutation) {
	item.LastUpdated = m.Timestamp
	l.movements.Append(m)

	mut.movements = append(mut.movements, m)
	mut.snapshots = append(mut.snapshots, item.Clone())

	if l.alerts.evaluate(item.ID, item.CurrentStock, item.MinStock) {
		pharmacyName := item.PharmacyID
		if loc, err := l.registry.Get(item.PharmacyID); err == nil {
			pharmacyName = loc.Name
		}

		mut.alerts = append(mut.alerts, LowStockAlert{
			ItemID:       item.ID,
			ItemName:     item.Name,
			ProductID:    item.ProductID,
			PharmacyID:   item.PharmacyID,
			PharmacyName: pharmacyName,
			CurrentStock: item.CurrentStock,
			MinStock:     item.MinStock,
			At:           m.Timestamp,
		})
	}
}

func (l *Ledger) newMovement(ctx context.Context, item *repository.InventoryItem, mt repository.MovementType, quantity int, notes string) *repository.StockMovement {
	m := &repository.StockMovement{
		ID:          uuid.New().String(),
		ItemID:      item.ID,
		PharmacyID:  item.PharmacyID,
		Type:        mt,
		Quantity:    quantity,
		Timestamp:   l.now().UTC(),
		PerformedBy: actor.FromContext(ctx).ID,
	}
	if notes != "" {
		m.Notes = &notes
	}
	return m
}

// ProvisionItem registers a catalog record at a location. Items are
// created once per (location, product) and afterwards only mutated by
// stock operations, never deleted.
func (l *Ledger) ProvisionItem(ctx context.Context, item *repository.InventoryItem) error {
	if !l.registry.Exists(item.PharmacyID) {
		return errors.LocationNotFound(item.PharmacyID)
	}
	if item.ProductID == "" {
		return errors.BadRequest("product id is required")
	}
	if item.CurrentStock < 0 {
		return errors.InvalidStock(repository.ItemID(item.PharmacyID, item.ProductID), item.CurrentStock)
	}
	if item.MinStock < 0 || item.MaxStock < item.MinStock {
		return errors.BadRequest("min stock must be between 0 and max stock")
	}
	if item.Reserved < 0 || item.Reserved > item.CurrentStock {
		return errors.BadRequest("reserved units cannot exceed current stock")
	}

	l.mu.Lock()

	if existing := l.items.Get(item.PharmacyID, item.ProductID); existing != nil {
		l.mu.Unlock()
		return errors.Conflict("item already provisioned at this location")
	}

	stored := item.Clone()
	stored.LastUpdated = l.now().UTC()
	l.items.Put(stored)
	item.ID = stored.ID
	item.PricePerUnit = stored.PricePerUnit

	// Seed the threshold state so an item provisioned at or below its
	// minimum does not fire until stock first recovers and drops again.
	l.alerts.seed(stored.ID, stored.CurrentStock <= stored.MinStock)

	mut := &mutation{}
	var snapshot *repository.InventoryItem
	if stored.CurrentStock > 0 {
		m := l.newMovement(ctx, stored, repository.MovementRestock, stored.CurrentStock, "initial stock")
		l.record(stored, m, mut)
	} else {
		snapshot = stored.Clone()
	}

	l.mu.Unlock()

	l.logger.Info().
		Str("item_id", stored.ID).
		Str("pharmacy_id", stored.PharmacyID).
		Int("stock", stored.CurrentStock).
		Msg("item provisioned")

	if snapshot != nil {
		// A zero-stock provisioning has no movement; still mirror the item.
		if l.queue != nil {
			l.queue.Enqueue(PendingChange{Item: snapshot})
		}
		return nil
	}

	l.finish(ctx, mut)
	return nil
}

// UpdateStock replaces an item's stock level and records an adjustment
// movement carrying the signed difference. Negative targets are
// rejected, never clamped.
func (l *Ledger) UpdateStock(ctx context.Context, pharmacyID, productID string, newStock int, notes string) (*repository.StockMovement, error) {
	if newStock < 0 {
		return nil, errors.InvalidStock(repository.ItemID(pharmacyID, productID), newStock)
	}

	l.mu.Lock()

	item := l.items.Get(pharmacyID, productID)
	if item == nil {
		l.mu.Unlock()
		return nil, errors.NotFound("item")
	}

	delta := newStock - item.CurrentStock
	item.CurrentStock = newStock
	if item.Reserved > item.CurrentStock {
		// A hold cannot exceed what is on the shelf.
		item.Reserved = item.CurrentStock
	}

	m := l.newMovement(ctx, item, repository.MovementAdjustment, delta, notes)
	mut := &mutation{}
	l.record(item, m, mut)

	l.mu.Unlock()
	l.finish(ctx, mut)

	return m, nil
}

// RecordSale decrements stock for a sale. Selling more than is on the
// shelf is rejected with an insufficient stock error.
func (l *Ledger) RecordSale(ctx context.Context, pharmacyID, productID string, quantity int) (*repository.StockMovement, error) {
	return l.decrement(ctx, pharmacyID, productID, quantity, repository.MovementSale)
}

// RecordExpired writes off expired units with an expired movement
func (l *Ledger) RecordExpired(ctx context.Context, pharmacyID, productID string, quantity int) (*repository.StockMovement, error) {
	return l.decrement(ctx, pharmacyID, productID, quantity, repository.MovementExpired)
}

func (l *Ledger) decrement(ctx context.Context, pharmacyID, productID string, quantity int, mt repository.MovementType) (*repository.StockMovement, error) {
	if quantity <= 0 {
		return nil, errors.BadRequest("quantity must be positive")
	}

	l.mu.Lock()

	item := l.items.Get(pharmacyID, productID)
	if item == nil {
		l.mu.Unlock()
		return nil, errors.NotFound("item")
	}
	if quantity > item.CurrentStock {
		available := item.CurrentStock
		l.mu.Unlock()
		return nil, errors.InsufficientStock(item.ID, available, quantity)
	}

	item.CurrentStock -= quantity
	if item.Reserved > item.CurrentStock {
		item.Reserved = item.CurrentStock
	}

	m := l.newMovement(ctx, item, mt, -quantity, "")
	mut := &mutation{}
	l.record(item, m, mut)

	l.mu.Unlock()
	l.finish(ctx, mut)

	return m, nil
}

// RecordRestock increments stock for a replenishment delivery
func (l *Ledger) RecordRestock(ctx context.Context, pharmacyID, productID string, quantity int) (*repository.StockMovement, error) {
	if quantity <= 0 {
		return nil, errors.BadRequest("quantity must be positive")
	}

	l.mu.Lock()

	item := l.items.Get(pharmacyID, productID)
	if item == nil {
		l.mu.Unlock()
		return nil, errors.NotFound("item")
	}

	item.CurrentStock += quantity

	m := l.newMovement(ctx, item, repository.MovementRestock, quantity, "")
	mut := &mutation{}
	l.record(item, m, mut)

	l.mu.Unlock()
	l.finish(ctx, mut)

	return m, nil
}

// TransferStock moves stock between two locations as one atomic unit:
// both legs apply under a single lock hold or neither does. The paired
// movements share a transfer id and sum to zero.
func (l *Ledger) TransferStock(ctx context.Context, productID, fromPharmacy, toPharmacy string, quantity int) ([]*repository.StockMovement, error) {
	if quantity <= 0 {
		return nil, errors.BadRequest("transfer quantity must be positive")
	}
	if fromPharmacy == toPharmacy {
		return nil, errors.BadRequest("transfer source and destination must differ")
	}
	if !l.registry.Exists(fromPharmacy) {
		return nil, errors.LocationNotFound(fromPharmacy)
	}
	if !l.registry.Exists(toPharmacy) {
		return nil, errors.LocationNotFound(toPharmacy)
	}

	l.mu.Lock()

	src := l.items.Get(fromPharmacy, productID)
	if src == nil {
		l.mu.Unlock()
		return nil, errors.NotFound("item")
	}
	if src.CurrentStock < quantity {
		available := src.CurrentStock
		l.mu.Unlock()
		return nil, errors.InsufficientStock(src.ID, available, quantity)
	}

	dst := l.items.Get(toPharmacy, productID)
	if dst == nil {
		// First transfer to this location: inherit the catalog data.
		dst = src.Clone()
		dst.PharmacyID = toPharmacy
		dst.CurrentStock = 0
		dst.Reserved = 0
		dst.LastUpdated = l.now().UTC()
		l.items.Put(dst)
		l.alerts.seed(dst.ID, dst.CurrentStock <= dst.MinStock)
	}

	transferID := uuid.New().String()
	from := fromPharmacy
	to := toPharmacy

	src.CurrentStock -= quantity
	if src.Reserved > src.CurrentStock {
		src.Reserved = src.CurrentStock
	}
	dst.CurrentStock += quantity

	out := l.newMovement(ctx, src, repository.MovementTransfer, -quantity, "")
	out.FromPharmacy = &from
	out.ToPharmacy = &to
	out.TransferID = &transferID

	in := l.newMovement(ctx, dst, repository.MovementTransfer, quantity, "")
	in.FromPharmacy = &from
	in.ToPharmacy = &to
	in.TransferID = &transferID

	mut := &mutation{}
	l.record(src, out, mut)
	l.record(dst, in, mut)

	l.mu.Unlock()
	l.finish(ctx, mut)

	l.logger.Info().
		Str("product_id", productID).
		Str("from", fromPharmacy).
		Str("to", toPharmacy).
		Int("quantity", quantity).
		Str("transfer_id", transferID).
		Msg("stock transferred")

	return []*repository.StockMovement{out, in}, nil
}

// ReserveStock places a hold on units for a pending order.
// Holds never exceed current stock.
func (l *Ledger) ReserveStock(ctx context.Context, pharmacyID, productID string, quantity int) error {
	if quantity <= 0 {
		return errors.BadRequest("quantity must be positive")
	}

	l.mu.Lock()

	item := l.items.Get(pharmacyID, productID)
	if item == nil {
		l.mu.Unlock()
		return errors.NotFound("item")
	}
	if item.Reserved+quantity > item.CurrentStock {
		available := item.Available()
		id := item.ID
		l.mu.Unlock()
		return errors.InsufficientStock(id, available, quantity)
	}

	item.Reserved += quantity
	item.LastUpdated = l.now().UTC()
	snapshot := item.Clone()

	l.mu.Unlock()

	if l.queue != nil {
		l.queue.Enqueue(PendingChange{Item: snapshot})
	}

	return nil
}

// ReleaseReservation releases a previously placed hold
func (l *Ledger) ReleaseReservation(ctx context.Context, pharmacyID, productID string, quantity int) error {
	if quantity <= 0 {
		return errors.BadRequest("quantity must be positive")
	}

	l.mu.Lock()

	item := l.items.Get(pharmacyID, productID)
	if item == nil {
		l.mu.Unlock()
		return errors.NotFound("item")
	}
	if quantity > item.Reserved {
		l.mu.Unlock()
		return errors.BadRequest("release exceeds reserved units")
	}

	item.Reserved -= quantity
	item.LastUpdated = l.now().UTC()
	snapshot := item.Clone()

	l.mu.Unlock()

	if l.queue != nil {
		l.queue.Enqueue(PendingChange{Item: snapshot})
	}

	return nil
}
