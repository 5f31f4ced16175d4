package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pharmanet/pharmanet-backend/pkg/config"
	"github.com/pharmanet/pharmanet-backend/pkg/logger"
)

// PostgresRemoteStore mirrors the ledger into the remote system of
// record the sync coordinator reconciles against. The in-memory ledger
// stays authoritative; this store only receives flushed changes.
type PostgresRemoteStore struct {
	db     *sqlx.DB
	logger *logger.Logger
}

// NewPostgresRemoteStore connects to the remote store
func NewPostgresRemoteStore(cfg *config.RemoteConfig, log *logger.Logger) (*PostgresRemoteStore, error) {
	db, err := sqlx.Connect("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to remote store: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	log.Info().Str("database", cfg.Database).Msg("connected to remote store")

	return &PostgresRemoteStore{db: db, logger: log}, nil
}

// NewPostgresRemoteStoreWithDB wraps an existing connection. Used by tests.
func NewPostgresRemoteStoreWithDB(db *sqlx.DB, log *logger.Logger) *PostgresRemoteStore {
	return &PostgresRemoteStore{db: db, logger: log}
}

// SaveMovements writes a batch of movements inside one transaction.
// Re-delivery after a failed flush is expected (at-least-once), so
// inserts dedupe on the movement id.
func (s *PostgresRemoteStore) SaveMovements(ctx context.Context, movements []*StockMovement) error {
	if len(movements) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO stock_movements (
			id, item_id, pharmacy_id, movement_type, quantity,
			from_pharmacy, to_pharmacy, transfer_id, occurred_at, performed_by, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING
	`

	for _, m := range movements {
		if _, err := tx.ExecContext(ctx, query,
			m.ID, m.ItemID, m.PharmacyID, m.Type, m.Quantity,
			m.FromPharmacy, m.ToPharmacy, m.TransferID, m.Timestamp, m.PerformedBy, m.Notes,
		); err != nil {
			return fmt.Errorf("failed to save movement %s: %w", m.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit movements: %w", err)
	}

	return nil
}

// UpsertItems mirrors item snapshots so the remote copy stays
// queryable. Last write wins per item.
func (s *PostgresRemoteStore) UpsertItems(ctx context.Context, items []*InventoryItem) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO inventory_items (
			id, pharmacy_id, product_id, name, brand, current_stock, min_stock, max_stock,
			unit_price_cents, supplier, expiry_date, storage_location, batch_number, reserved, last_updated
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			current_stock = EXCLUDED.current_stock,
			min_stock = EXCLUDED.min_stock,
			max_stock = EXCLUDED.max_stock,
			unit_price_cents = EXCLUDED.unit_price_cents,
			supplier = EXCLUDED.supplier,
			expiry_date = EXCLUDED.expiry_date,
			storage_location = EXCLUDED.storage_location,
			batch_number = EXCLUDED.batch_number,
			reserved = EXCLUDED.reserved,
			last_updated = EXCLUDED.last_updated
	`

	for _, item := range items {
		if _, err := tx.ExecContext(ctx, query,
			item.ID, item.PharmacyID, item.ProductID, item.Name, item.Brand,
			item.CurrentStock, item.MinStock, item.MaxStock, item.UnitPriceCents,
			item.Supplier, item.ExpiryDate, item.StorageLocation, item.BatchNumber,
			item.Reserved, item.LastUpdated,
		); err != nil {
			return fmt.Errorf("failed to upsert item %s: %w", item.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit items: %w", err)
	}

	return nil
}

// Health returns the health status of the remote store
func (s *PostgresRemoteStore) Health(ctx context.Context) map[string]string {
	status := map[string]string{
		"status": "up",
	}

	if err := s.db.PingContext(ctx); err != nil {
		status["status"] = "down"
		status["error"] = err.Error()
	}

	return status
}

// Close closes the connection pool
func (s *PostgresRemoteStore) Close() error {
	return s.db.Close()
}
