package repository

import (
	"sort"
	"time"
)

// InventoryItem is one stock record per product per location.
type InventoryItem struct {
	ID              string    `json:"id"`
	PharmacyID      string    `json:"pharmacy_id"`
	ProductID       string    `json:"product_id"`
	Name            string    `json:"name"`
	Brand           string    `json:"brand,omitempty"`
	CurrentStock    int       `json:"current_stock"`
	MinStock        int       `json:"min_stock"`
	MaxStock        int       `json:"max_stock"`
	UnitPriceCents  int       `json:"unit_price_cents"`
	Supplier        string    `json:"supplier,omitempty"`
	ExpiryDate      time.Time `json:"expiry_date"`
	StorageLocation string    `json:"storage_location,omitempty"`
	BatchNumber     string    `json:"batch_number,omitempty"`
	Reserved        int       `json:"reserved"`
	LastUpdated     time.Time `json:"last_updated"`
	// Computed field for API compatibility
	PricePerUnit float64 `json:"price_per_unit"`
}

// ItemID builds the composite id for a (location, product) record
func ItemID(pharmacyID, productID string) string {
	return pharmacyID + ":" + productID
}

// Clone returns a copy of the item safe to hand to readers
func (i *InventoryItem) Clone() *InventoryItem {
	copied := *i
	return &copied
}

// Available returns the stock not held by reservations
func (i *InventoryItem) Available() int {
	return i.CurrentStock - i.Reserved
}

type itemKey struct {
	pharmacyID string
	productID  string
}

// ItemStore is the in-memory set of inventory items keyed by
// (pharmacyID, productID).
//
// The store itself is not safe for concurrent use; the ledger owns it
// and serializes all access behind its own mutex.
type ItemStore struct {
	items map[itemKey]*InventoryItem
}

// NewItemStore creates an empty item store
func NewItemStore() *ItemStore {
	return &ItemStore{
		items: make(map[itemKey]*InventoryItem),
	}
}

// Get returns the canonical record for (pharmacyID, productID), or nil
func (s *ItemStore) Get(pharmacyID, productID string) *InventoryItem {
	return s.items[itemKey{pharmacyID, productID}]
}

// Put inserts or replaces the record for the item's (pharmacyID, productID)
func (s *ItemStore) Put(item *InventoryItem) {
	item.ID = ItemID(item.PharmacyID, item.ProductID)
	item.PricePerUnit = float64(item.UnitPriceCents) / 100.0
	s.items[itemKey{item.PharmacyID, item.ProductID}] = item
}

// ListByPharmacy returns all records at one location, sorted by name
func (s *ItemStore) ListByPharmacy(pharmacyID string) []*InventoryItem {
	var out []*InventoryItem
	for key, item := range s.items {
		if key.pharmacyID == pharmacyID {
			out = append(out, item)
		}
	}
	sortByName(out)
	return out
}

// ListByProduct returns all records for one product across locations
func (s *ItemStore) ListByProduct(productID string) []*InventoryItem {
	var out []*InventoryItem
	for key, item := range s.items {
		if key.productID == productID {
			out = append(out, item)
		}
	}
	sortByName(out)
	return out
}

// All returns every record in the store, sorted by id for stable iteration
func (s *ItemStore) All() []*InventoryItem {
	out := make([]*InventoryItem, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, item)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out
}

// Len returns the number of records
func (s *ItemStore) Len() int {
	return len(s.items)
}

func sortByName(items []*InventoryItem) {
	sort.Slice(items, func(a, b int) bool {
		if items[a].Name != items[b].Name {
			return items[a].Name < items[b].Name
		}
		return items[a].ID < items[b].ID
	})
}
