package seed

import (
	"context"
	"time"

	"github.com/pharmanet/pharmanet-backend/internal/inventory/repository"
	"github.com/pharmanet/pharmanet-backend/internal/inventory/service"
	"github.com/pharmanet/pharmanet-backend/pkg/logger"
)

// Locations returns the pharmacy network topology. The first entry is
// the main branch that anchors transfers in the demo dataset.
func Locations() []*repository.PharmacyLocation {
	return []*repository.PharmacyLocation{
		{
			ID:        "farmacia-central",
			Name:      "Farmacia Central",
			Address:   "Av. Corrientes 1247, Buenos Aires",
			Latitude:  -34.6037,
			Longitude: -58.3816,
			IsMain:    true,
		},
		{
			ID:        "farmacia-norte",
			Name:      "Farmacia Norte",
			Address:   "Av. Cabildo 2890, Buenos Aires",
			Latitude:  -34.5614,
			Longitude: -58.4636,
		},
		{
			ID:        "farmacia-sur",
			Name:      "Farmacia Sur",
			Address:   "Av. Sáenz 1120, Buenos Aires",
			Latitude:  -34.6534,
			Longitude: -58.4012,
		},
		{
			ID:        "farmacia-oeste",
			Name:      "Farmacia Oeste",
			Address:   "Av. Rivadavia 7450, Buenos Aires",
			Latitude:  -34.6301,
			Longitude: -58.4858,
		},
	}
}

// Items returns the demo catalog, relative to now so the expiry
// queries always have items inside and outside the 30-day window.
func Items(now time.Time) []*repository.InventoryItem {
	day := 24 * time.Hour

	return []*repository.InventoryItem{
		// Farmacia Central carries the widest catalog.
		{
			PharmacyID:      "farmacia-central",
			ProductID:       "ibuprofeno-400",
			Name:            "Ibuprofeno 400mg x30",
			Brand:           "Ibupirac",
			CurrentStock:    120,
			MinStock:        30,
			MaxStock:        300,
			UnitPriceCents:  185000,
			Supplier:        "Droguería del Sud",
			ExpiryDate:      now.Add(320 * day),
			StorageLocation: "Góndola A3",
			BatchNumber:     "IB-2406-114",
		},
		{
			PharmacyID:      "farmacia-central",
			ProductID:       "paracetamol-500",
			Name:            "Paracetamol 500mg x20",
			Brand:           "Tafirol",
			CurrentStock:    85,
			MinStock:        25,
			MaxStock:        250,
			UnitPriceCents:  92000,
			Supplier:        "Droguería del Sud",
			ExpiryDate:      now.Add(25 * day),
			StorageLocation: "Góndola A1",
			BatchNumber:     "PA-2403-078",
		},
		{
			PharmacyID:      "farmacia-central",
			ProductID:       "amoxicilina-500",
			Name:            "Amoxicilina 500mg x21",
			Brand:           "Amoxidal",
			CurrentStock:    42,
			MinStock:        15,
			MaxStock:        120,
			UnitPriceCents:  410000,
			Supplier:        "Monroe Americana",
			ExpiryDate:      now.Add(190 * day),
			StorageLocation: "Estante R2",
			BatchNumber:     "AM-2405-033",
		},
		{
			PharmacyID:      "farmacia-central",
			ProductID:       "insulina-glargina",
			Name:            "Insulina Glargina 100UI lapicera",
			Brand:           "Lantus",
			CurrentStock:    18,
			MinStock:        8,
			MaxStock:        40,
			UnitPriceCents:  2890000,
			Supplier:        "Monroe Americana",
			ExpiryDate:      now.Add(60 * day),
			StorageLocation: "Heladera H1",
			BatchNumber:     "IN-2407-009",
		},
		{
			PharmacyID:      "farmacia-central",
			ProductID:       "losartan-50",
			Name:            "Losartán 50mg x30",
			Brand:           "Cozaarex",
			CurrentStock:    66,
			MinStock:        20,
			MaxStock:        180,
			UnitPriceCents:  240000,
			Supplier:        "Droguería Suizo",
			ExpiryDate:      now.Add(400 * day),
			StorageLocation: "Góndola B2",
			BatchNumber:     "LO-2402-151",
		},

		// Farmacia Norte starts with a couple of items already at or
		// near their minimum so the alert screens are not empty.
		{
			PharmacyID:      "farmacia-norte",
			ProductID:       "ibuprofeno-400",
			Name:            "Ibuprofeno 400mg x30",
			Brand:           "Ibupirac",
			CurrentStock:    28,
			MinStock:        30,
			MaxStock:        150,
			UnitPriceCents:  185000,
			Supplier:        "Droguería del Sud",
			ExpiryDate:      now.Add(280 * day),
			StorageLocation: "Góndola 2",
			BatchNumber:     "IB-2406-115",
		},
		{
			PharmacyID:      "farmacia-norte",
			ProductID:       "omeprazol-20",
			Name:            "Omeprazol 20mg x28",
			Brand:           "Losec",
			CurrentStock:    54,
			MinStock:        18,
			MaxStock:        140,
			UnitPriceCents:  310000,
			Supplier:        "Droguería Suizo",
			ExpiryDate:      now.Add(150 * day),
			StorageLocation: "Góndola 1",
			BatchNumber:     "OM-2404-062",
		},
		{
			PharmacyID:      "farmacia-norte",
			ProductID:       "salbutamol-inh",
			Name:            "Salbutamol inhalador 100mcg",
			Brand:           "Ventolin",
			CurrentStock:    12,
			MinStock:        10,
			MaxStock:        60,
			UnitPriceCents:  520000,
			Supplier:        "Monroe Americana",
			ExpiryDate:      now.Add(90 * day),
			StorageLocation: "Estante 4",
			BatchNumber:     "SA-2405-021",
		},

		// Farmacia Sur holds a batch that is already expired.
		{
			PharmacyID:      "farmacia-sur",
			ProductID:       "paracetamol-500",
			Name:            "Paracetamol 500mg x20",
			Brand:           "Tafirol",
			CurrentStock:    40,
			MinStock:        20,
			MaxStock:        120,
			UnitPriceCents:  92000,
			Supplier:        "Droguería del Sud",
			ExpiryDate:      now.Add(-5 * day),
			StorageLocation: "Góndola A",
			BatchNumber:     "PA-2311-204",
		},
		{
			PharmacyID:      "farmacia-sur",
			ProductID:       "metformina-850",
			Name:            "Metformina 850mg x60",
			Brand:           "DBI",
			CurrentStock:    75,
			MinStock:        25,
			MaxStock:        200,
			UnitPriceCents:  198000,
			Supplier:        "Droguería Suizo",
			ExpiryDate:      now.Add(500 * day),
			StorageLocation: "Góndola B",
			BatchNumber:     "ME-2401-087",
		},
		{
			PharmacyID:      "farmacia-sur",
			ProductID:       "amoxicilina-500",
			Name:            "Amoxicilina 500mg x21",
			Brand:           "Amoxidal",
			CurrentStock:    9,
			MinStock:        12,
			MaxStock:        80,
			UnitPriceCents:  410000,
			Supplier:        "Monroe Americana",
			ExpiryDate:      now.Add(210 * day),
			StorageLocation: "Estante R1",
			BatchNumber:     "AM-2405-034",
		},

		// Farmacia Oeste is the smallest branch.
		{
			PharmacyID:      "farmacia-oeste",
			ProductID:       "losartan-50",
			Name:            "Losartán 50mg x30",
			Brand:           "Cozaarex",
			CurrentStock:    33,
			MinStock:        15,
			MaxStock:        100,
			UnitPriceCents:  240000,
			Supplier:        "Droguería Suizo",
			ExpiryDate:      now.Add(365 * day),
			StorageLocation: "Góndola 1",
			BatchNumber:     "LO-2402-152",
		},
		{
			PharmacyID:      "farmacia-oeste",
			ProductID:       "ibuprofeno-400",
			Name:            "Ibuprofeno 400mg x30",
			Brand:           "Ibupirac",
			CurrentStock:    58,
			MinStock:        20,
			MaxStock:        120,
			UnitPriceCents:  185000,
			Supplier:        "Droguería del Sud",
			ExpiryDate:      now.Add(14 * day),
			StorageLocation: "Góndola 1",
			BatchNumber:     "IB-2403-096",
		},
	}
}

// Provision loads the demo catalog through the ledger's provisioning
// operation so every seeded item gets its opening movement and alert
// state. Seeding runs before the HTTP server accepts traffic.
func Provision(ctx context.Context, ledger *service.Ledger, log *logger.Logger) error {
	items := Items(time.Now().UTC())

	for _, item := range items {
		if err := ledger.ProvisionItem(ctx, item); err != nil {
			return err
		}
	}

	log.Info().Int("items", len(items)).Msg("demo catalog provisioned")
	return nil
}
