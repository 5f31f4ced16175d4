package service

import (
	"sort"
	"time"

	"github.com/pharmanet/pharmanet-backend/internal/inventory/repository"
	"github.com/pharmanet/pharmanet-backend/pkg/errors"
)

// Read-side queries over the ledger. None of these mutate state; all
// of them return defensive copies.

// Availability reports stock for one product at one location
type Availability struct {
	Pharmacy *repository.PharmacyLocation `json:"pharmacy"`
	Stock    int                          `json:"stock"`
}

// ReplayResult compares an item's recorded stock level with the level
// reconstructed from its movement log.
type ReplayResult struct {
	ItemID     string `json:"item_id"`
	Recorded   int    `json:"recorded"`
	Replayed   int    `json:"replayed"`
	Consistent bool   `json:"consistent"`
}

// DashboardStats summarizes ledger state for the dashboard screens
type DashboardStats struct {
	TotalItems        int            `json:"total_items"`
	TotalStock        int            `json:"total_stock"`
	TotalReserved     int            `json:"total_reserved"`
	LowStockCount     int            `json:"low_stock_count"`
	ExpiringCount     int            `json:"expiring_count"`
	ExpiredCount      int            `json:"expired_count"`
	MovementCount     int            `json:"movement_count"`
	LocationBreakdown map[string]int `json:"location_breakdown"`
}

// GetItem returns one item record
func (l *Ledger) GetItem(pharmacyID, productID string) (*repository.InventoryItem, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	item := l.items.Get(pharmacyID, productID)
	if item == nil {
		return nil, errors.NotFound("item")
	}
	return item.Clone(), nil
}

// ItemsAt returns all items at one location, sorted by name
func (l *Ledger) ItemsAt(pharmacyID string) ([]*repository.InventoryItem, error) {
	if !l.registry.Exists(pharmacyID) {
		return nil, errors.LocationNotFound(pharmacyID)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return cloneItems(l.items.ListByPharmacy(pharmacyID)), nil
}

// AllItems returns every item in the ledger
func (l *Ledger) AllItems() []*repository.InventoryItem {
	l.mu.Lock()
	defer l.mu.Unlock()

	return cloneItems(l.items.All())
}

// LowStockItems returns items at or below their minimum threshold,
// most critical first (ascending by currentStock - minStock). Pass an
// empty pharmacyID to query all locations.
func (l *Ledger) LowStockItems(pharmacyID string) ([]*repository.InventoryItem, error) {
	if pharmacyID != "" && !l.registry.Exists(pharmacyID) {
		return nil, errors.LocationNotFound(pharmacyID)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var out []*repository.InventoryItem
	for _, item := range l.items.All() {
		if pharmacyID != "" && item.PharmacyID != pharmacyID {
			continue
		}
		if item.CurrentStock <= item.MinStock {
			out = append(out, item.Clone())
		}
	}

	sort.Slice(out, func(a, b int) bool {
		da := out[a].CurrentStock - out[a].MinStock
		db := out[b].CurrentStock - out[b].MinStock
		if da != db {
			return da < db
		}
		return out[a].ID < out[b].ID
	})

	return out, nil
}

// ExpiringItems returns items whose expiry date falls within the given
// number of days from now, soonest first. The upper bound is
// inclusive: an item expiring exactly `days` from now is included.
// Already-expired items are included as well.
func (l *Ledger) ExpiringItems(days int, pharmacyID string) ([]*repository.InventoryItem, error) {
	if days <= 0 {
		days = 30
	}
	if pharmacyID != "" && !l.registry.Exists(pharmacyID) {
		return nil, errors.LocationNotFound(pharmacyID)
	}

	cutoff := l.now().UTC().Add(time.Duration(days) * 24 * time.Hour)

	l.mu.Lock()
	defer l.mu.Unlock()

	var out []*repository.InventoryItem
	for _, item := range l.items.All() {
		if pharmacyID != "" && item.PharmacyID != pharmacyID {
			continue
		}
		if item.ExpiryDate.IsZero() {
			continue
		}
		if !item.ExpiryDate.After(cutoff) {
			out = append(out, item.Clone())
		}
	}

	sort.Slice(out, func(a, b int) bool {
		if !out[a].ExpiryDate.Equal(out[b].ExpiryDate) {
			return out[a].ExpiryDate.Before(out[b].ExpiryDate)
		}
		return out[a].ID < out[b].ID
	})

	return out, nil
}

// ItemAvailability reports which locations hold a product, in registry
// order. Locations with zero stock are omitted.
func (l *Ledger) ItemAvailability(productID string) []Availability {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []Availability
	for _, loc := range l.registry.List() {
		item := l.items.Get(loc.ID, productID)
		if item == nil || item.CurrentStock <= 0 {
			continue
		}
		out = append(out, Availability{Pharmacy: loc, Stock: item.CurrentStock})
	}

	return out
}

// MovementsForItem returns the movement history for one item, oldest first
func (l *Ledger) MovementsForItem(pharmacyID, productID string) ([]*repository.StockMovement, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.items.Get(pharmacyID, productID) == nil {
		return nil, errors.NotFound("item")
	}
	return l.movements.ListByItem(repository.ItemID(pharmacyID, productID)), nil
}

// MovementsAt returns the movement history at one location, oldest first
func (l *Ledger) MovementsAt(pharmacyID string) ([]*repository.StockMovement, error) {
	if !l.registry.Exists(pharmacyID) {
		return nil, errors.LocationNotFound(pharmacyID)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.movements.ListByPharmacy(pharmacyID), nil
}

// ReplayStock reconstructs an item's stock level from its movement log
// and compares it with the recorded level. The movement log is the
// source of truth; a mismatch indicates ledger corruption.
func (l *Ledger) ReplayStock(pharmacyID, productID string) (*ReplayResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	item := l.items.Get(pharmacyID, productID)
	if item == nil {
		return nil, errors.NotFound("item")
	}

	replayed := l.movements.SumByItem(item.ID)

	return &ReplayResult{
		ItemID:     item.ID,
		Recorded:   item.CurrentStock,
		Replayed:   replayed,
		Consistent: replayed == item.CurrentStock,
	}, nil
}

// GetDashboardStats summarizes the ledger for the dashboard screens
func (l *Ledger) GetDashboardStats() *DashboardStats {
	expiryCutoff := l.now().UTC().Add(30 * 24 * time.Hour)
	now := l.now().UTC()

	l.mu.Lock()
	defer l.mu.Unlock()

	stats := &DashboardStats{
		LocationBreakdown: make(map[string]int),
	}

	for _, item := range l.items.All() {
		stats.TotalItems++
		stats.TotalStock += item.CurrentStock
		stats.TotalReserved += item.Reserved
		stats.LocationBreakdown[item.PharmacyID]++

		if item.CurrentStock <= item.MinStock {
			stats.LowStockCount++
		}
		if !item.ExpiryDate.IsZero() {
			if item.ExpiryDate.Before(now) {
				stats.ExpiredCount++
			} else if !item.ExpiryDate.After(expiryCutoff) {
				stats.ExpiringCount++
			}
		}
	}

	stats.MovementCount = l.movements.Len()

	return stats
}

func cloneItems(items []*repository.InventoryItem) []*repository.InventoryItem {
	out := make([]*repository.InventoryItem, len(items))
	for i, item := range items {
		out[i] = item.Clone()
	}
	return out
}
