package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	// Stock events
	EventStockAdjusted    = "inventory.stock.adjusted"
	EventStockSold        = "inventory.stock.sold"
	EventStockRestocked   = "inventory.stock.restocked"
	EventStockTransferred = "inventory.stock.transferred"
	EventStockExpired     = "inventory.stock.expired"

	// Alert events
	EventLowStockAlert = "inventory.alert.low_stock"

	// Sync events
	EventSyncCompleted = "inventory.sync.completed"
)

// Exchange names
const (
	ExchangeInventoryEvents = "inventory.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            GenerateEventID(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// GenerateEventID generates a unique event id
func GenerateEventID() string {
	return uuid.New().String()
}

// StockMovementEvent is published for every stock-affecting mutation
type StockMovementEvent struct {
	MovementID   string  `json:"movement_id"`
	ItemID       string  `json:"item_id"`
	PharmacyID   string  `json:"pharmacy_id"`
	MovementType string  `json:"movement_type"`
	Quantity     int     `json:"quantity"`
	NewStock     int     `json:"new_stock"`
	TransferID   *string `json:"transfer_id,omitempty"`
	FromPharmacy *string `json:"from_pharmacy,omitempty"`
	ToPharmacy   *string `json:"to_pharmacy,omitempty"`
	PerformedBy  string  `json:"performed_by"`
}

// LowStockAlertEvent is published when an item first crosses its minimum threshold
type LowStockAlertEvent struct {
	ItemID       string `json:"item_id"`
	ItemName     string `json:"item_name"`
	PharmacyID   string `json:"pharmacy_id"`
	PharmacyName string `json:"pharmacy_name"`
	CurrentStock int    `json:"current_stock"`
	MinStock     int    `json:"min_stock"`
}

// SyncCompletedEvent is published after a successful queue flush
type SyncCompletedEvent struct {
	FlushedCount int           `json:"flushed_count"`
	Duration     time.Duration `json:"duration"`
}
