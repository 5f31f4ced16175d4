package repository

import (
	"fmt"

	"github.com/pharmanet/pharmanet-backend/pkg/errors"
)

// PharmacyLocation represents a retail pharmacy location.
// Locations are reference data: the registry is built once at startup
// and never mutated afterwards.
type PharmacyLocation struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	IsMain    bool    `json:"is_main"`
}

// LocationRegistry holds the fixed set of pharmacy locations.
// Lookups preserve registration order for views that report across
// all locations.
type LocationRegistry struct {
	byID    map[string]*PharmacyLocation
	ordered []*PharmacyLocation
}

// NewLocationRegistry builds a registry from the given locations.
// Ids must be unique and non-empty.
func NewLocationRegistry(locations []*PharmacyLocation) (*LocationRegistry, error) {
	if len(locations) == 0 {
		return nil, fmt.Errorf("at least one location is required")
	}

	r := &LocationRegistry{
		byID:    make(map[string]*PharmacyLocation, len(locations)),
		ordered: make([]*PharmacyLocation, 0, len(locations)),
	}

	for _, loc := range locations {
		if loc.ID == "" {
			return nil, fmt.Errorf("location %q has an empty id", loc.Name)
		}
		if _, exists := r.byID[loc.ID]; exists {
			return nil, fmt.Errorf("duplicate location id %q", loc.ID)
		}

		copied := *loc
		r.byID[copied.ID] = &copied
		r.ordered = append(r.ordered, &copied)
	}

	return r, nil
}

// Get returns the location with the given id
func (r *LocationRegistry) Get(id string) (*PharmacyLocation, error) {
	loc, ok := r.byID[id]
	if !ok {
		return nil, errors.LocationNotFound(id)
	}
	return loc, nil
}

// Exists reports whether the given id is registered
func (r *LocationRegistry) Exists(id string) bool {
	_, ok := r.byID[id]
	return ok
}

// List returns all locations in registration order
func (r *LocationRegistry) List() []*PharmacyLocation {
	out := make([]*PharmacyLocation, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Main returns the main location, or nil if none is flagged
func (r *LocationRegistry) Main() *PharmacyLocation {
	for _, loc := range r.ordered {
		if loc.IsMain {
			return loc
		}
	}
	return nil
}

// Len returns the number of registered locations
func (r *LocationRegistry) Len() int {
	return len(r.ordered)
}
