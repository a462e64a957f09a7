package commerce

import (
	"context"
	"strings"

	"github.com/maisonvera/concierge/internal/domain/entities"
	"github.com/maisonvera/concierge/internal/domain/providers"
)

// MockCatalogAdapter serves the built-in house collection for local
// development, in fixed catalog order.
type MockCatalogAdapter struct {
	products []*entities.Product
}

// NewMockCatalogAdapter creates a catalog provider over the built-in
// collection.
func NewMockCatalogAdapter() *MockCatalogAdapter {
	return &MockCatalogAdapter{products: HouseCollection()}
}

var _ providers.CatalogProvider = (*MockCatalogAdapter)(nil)

// Search filters the collection by category.
func (m *MockCatalogAdapter) Search(_ context.Context, filter providers.CatalogFilter) ([]*entities.Product, error) {
	var out []*entities.Product
	for _, p := range m.products {
		if filter.Category != "" && !strings.EqualFold(p.Category, filter.Category) {
			continue
		}
		out = append(out, p)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

// HouseCollection is the development catalog. Positions are meaningful:
// the recommender's tie-break preserves this order.
func HouseCollection() []*entities.Product {
	return []*entities.Product{
		{ID: "mv-r-001", Name: "Lumière Solitaire", Category: "ring", Metal: "gold", Stone: "diamond", Price: 1850, InStock: true, ShipDays: 5, Tags: []string{"classic", "solitaire"}, BestsellerScore: 0.95, MarginScore: 0.45},
		{ID: "mv-r-002", Name: "Véra Pavé Band", Category: "ring", Metal: "gold", Stone: "diamond", Price: 980, InStock: true, ShipDays: 1, Tags: []string{"modern", "pave"}, BestsellerScore: 0.7, MarginScore: 0.6, ReadyToShip: true},
		{ID: "mv-r-003", Name: "Nuit Sapphire Ring", Category: "ring", Metal: "platinum", Stone: "sapphire", Price: 1450, InStock: true, ShipDays: 7, Tags: []string{"vintage", "statement"}, BestsellerScore: 0.55, MarginScore: 0.8},
		{ID: "mv-r-004", Name: "Aube Silver Ring", Category: "ring", Metal: "silver", Stone: "", Price: 320, InStock: true, ShipDays: 2, Tags: []string{"minimalist"}, BestsellerScore: 0.4, MarginScore: 0.9, ReadyToShip: true},
		{ID: "mv-n-001", Name: "Cascade Pendant", Category: "necklace", Metal: "gold", Stone: "diamond", Price: 1250, InStock: true, ShipDays: 3, Tags: []string{"classic"}, BestsellerScore: 0.85, MarginScore: 0.5, ReadyToShip: true},
		{ID: "mv-n-002", Name: "Éclat Choker", Category: "necklace", Metal: "gold", Stone: "", Price: 640, InStock: true, ShipDays: 1, Tags: []string{"modern", "layering"}, BestsellerScore: 0.6, MarginScore: 0.7, ReadyToShip: true},
		{ID: "mv-n-003", Name: "Reverie Emerald Drop", Category: "necklace", Metal: "gold", Stone: "emerald", Price: 2100, InStock: false, ShipDays: 10, Tags: []string{"statement"}, BestsellerScore: 0.75, MarginScore: 0.85},
		{ID: "mv-b-001", Name: "Rive Tennis Bracelet", Category: "bracelet", Metal: "gold", Stone: "diamond", Price: 2950, InStock: true, ShipDays: 5, Tags: []string{"classic", "statement"}, BestsellerScore: 0.9, MarginScore: 0.55},
		{ID: "mv-b-002", Name: "Lien Silver Cuff", Category: "bracelet", Metal: "silver", Stone: "", Price: 410, InStock: true, ShipDays: 2, Tags: []string{"minimalist", "everyday"}, BestsellerScore: 0.5, MarginScore: 0.85, ReadyToShip: true},
		{ID: "mv-e-001", Name: "Étoile Studs", Category: "earrings", Metal: "gold", Stone: "diamond", Price: 890, InStock: true, ShipDays: 1, Tags: []string{"classic", "everyday"}, BestsellerScore: 0.95, MarginScore: 0.6, ReadyToShip: true},
		{ID: "mv-e-002", Name: "Velours Sapphire Hoops", Category: "earrings", Metal: "gold", Stone: "sapphire", Price: 1150, InStock: true, ShipDays: 4, Tags: []string{"vintage"}, BestsellerScore: 0.65, MarginScore: 0.75},
		{ID: "mv-e-003", Name: "Brume Pearl Drops", Category: "earrings", Metal: "silver", Stone: "pearl", Price: 540, InStock: true, ShipDays: 2, Tags: []string{"romantic"}, BestsellerScore: 0.45, MarginScore: 0.8, ReadyToShip: true},
	}
}
