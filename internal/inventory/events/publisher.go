package events

import (
	"context"
	"time"

	"github.com/pharmanet/pharmanet-backend/internal/inventory/repository"
	"github.com/pharmanet/pharmanet-backend/internal/inventory/service"
	"github.com/pharmanet/pharmanet-backend/pkg/logger"
	"github.com/pharmanet/pharmanet-backend/pkg/messaging"
)

// InventoryEventPublisher publishes inventory events to the message
// broker. It is the notification sink for low-stock alerts and
// implements the ledger's publisher interfaces. All methods tolerate a
// nil receiver so broker-less setups can pass nil.
type InventoryEventPublisher struct {
	publisher *messaging.Publisher
	logger    *logger.Logger
}

// NewInventoryEventPublisher creates a new inventory event publisher
func NewInventoryEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*InventoryEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeInventoryEvents, "inventory-service", log)
	if err != nil {
		return nil, err
	}

	return &InventoryEventPublisher{
		publisher: publisher,
		logger:    log,
	}, nil
}

// PublishStockMovement publishes an event for a stock-affecting mutation
func (p *InventoryEventPublisher) PublishStockMovement(ctx context.Context, m *repository.StockMovement, newStock int) {
	if p == nil {
		return
	}

	data := messaging.StockMovementEvent{
		MovementID:   m.ID,
		ItemID:       m.ItemID,
		PharmacyID:   m.PharmacyID,
		MovementType: string(m.Type),
		Quantity:     m.Quantity,
		NewStock:     newStock,
		TransferID:   m.TransferID,
		FromPharmacy: m.FromPharmacy,
		ToPharmacy:   m.ToPharmacy,
		PerformedBy:  m.PerformedBy,
	}

	eventType := movementEventType(m.Type)
	if err := p.publisher.Publish(ctx, eventType, data); err != nil {
		p.logger.Error().Err(err).Str("movement_id", m.ID).Msg("failed to publish stock movement event")
	}
}

// NotifyLowStock implements service.Notifier by publishing the alert
// for the notification/toast collaborators.
func (p *InventoryEventPublisher) NotifyLowStock(ctx context.Context, alert service.LowStockAlert) {
	if p == nil {
		return
	}

	data := messaging.LowStockAlertEvent{
		ItemID:       alert.ItemID,
		ItemName:     alert.ItemName,
		PharmacyID:   alert.PharmacyID,
		PharmacyName: alert.PharmacyName,
		CurrentStock: alert.CurrentStock,
		MinStock:     alert.MinStock,
	}

	if err := p.publisher.Publish(ctx, messaging.EventLowStockAlert, data); err != nil {
		p.logger.Error().Err(err).Str("item_id", alert.ItemID).Msg("failed to publish low stock alert")
	}
}

// PublishSyncCompleted publishes an event after a successful queue flush
func (p *InventoryEventPublisher) PublishSyncCompleted(ctx context.Context, flushed int, duration time.Duration) {
	if p == nil {
		return
	}

	data := messaging.SyncCompletedEvent{
		FlushedCount: flushed,
		Duration:     duration,
	}

	if err := p.publisher.Publish(ctx, messaging.EventSyncCompleted, data); err != nil {
		p.logger.Error().Err(err).Msg("failed to publish sync completed event")
	}
}

func movementEventType(mt repository.MovementType) string {
	switch mt {
	case repository.MovementSale:
		return messaging.EventStockSold
	case repository.MovementRestock:
		return messaging.EventStockRestocked
	case repository.MovementTransfer:
		return messaging.EventStockTransferred
	case repository.MovementExpired:
		return messaging.EventStockExpired
	default:
		return messaging.EventStockAdjusted
	}
}
