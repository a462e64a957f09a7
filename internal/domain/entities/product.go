package entities

// Product represents a catalog item. Products are read-only snapshots
// sourced from the catalog collaborator; the engine never mutates them.
type Product struct {
	ID              string   `json:"id" db:"id"`
	Name            string   `json:"name" db:"name"`
	Category        string   `json:"category" db:"category"`
	Metal           string   `json:"metal" db:"metal"`
	Stone           string   `json:"stone" db:"stone"`
	Price           float64  `json:"price" db:"price"`
	InStock         bool     `json:"in_stock" db:"in_stock"`
	ShipDays        int      `json:"ship_days" db:"ship_days"`
	Tags            []string `json:"tags,omitempty" db:"-"`
	BestsellerScore float64  `json:"bestseller_score" db:"bestseller_score"`
	MarginScore     float64  `json:"margin_score" db:"margin_score"`
	ReadyToShip     bool     `json:"ready_to_ship" db:"ready_to_ship"`
}

// ProductCard is the renderable projection of a product returned to the widget.
type ProductCard struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Category string   `json:"category"`
	Metal    string   `json:"metal"`
	Stone    string   `json:"stone"`
	Price    float64  `json:"price"`
	ShipDays int      `json:"ship_days"`
	Tags     []string `json:"tags,omitempty"`
}

// CardFor builds the renderable projection of a product.
func CardFor(p *Product) ProductCard {
	return ProductCard{
		ID:       p.ID,
		Name:     p.Name,
		Category: p.Category,
		Metal:    p.Metal,
		Stone:    p.Stone,
		Price:    p.Price,
		ShipDays: p.ShipDays,
		Tags:     p.Tags,
	}
}
