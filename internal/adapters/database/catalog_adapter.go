package database

import (
	"context"
	"database/sql"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"
	"github.com/maisonvera/concierge/internal/domain/entities"
	"github.com/maisonvera/concierge/internal/domain/providers"
	"github.com/maisonvera/concierge/internal/infrastructure/clients/postgres"
	apperrors "github.com/maisonvera/concierge/pkg/errors"
)

// CatalogAdapter implements CatalogProvider against Postgres.
type CatalogAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewCatalogAdapter creates a new catalog adapter
func NewCatalogAdapter(client *postgres.Client) *CatalogAdapter {
	return &CatalogAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

var _ providers.CatalogProvider = (*CatalogAdapter)(nil)

// Search returns the in-catalog products for a category in stable catalog
// order. Ordering matters: the recommender's tie-break preserves it, so
// the query must be deterministic across calls.
func (a *CatalogAdapter) Search(ctx context.Context, filter providers.CatalogFilter) ([]*entities.Product, error) {
	ds := a.db.Select(
		"id", "name", "category", "metal", "stone", "price", "in_stock",
		"ship_days", "tags", "bestseller_score", "margin_score", "ready_to_ship",
	).From("products").
		Order(goqu.I("catalog_position").Asc(), goqu.I("id").Asc())

	if filter.Category != "" {
		ds = ds.Where(goqu.L("LOWER(category)").Eq(goqu.L("LOWER(?)", filter.Category)))
	}
	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build catalog query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query catalog", err)
	}
	defer rows.Close()

	var products []*entities.Product
	for rows.Next() {
		var p entities.Product
		var metal, stone sql.NullString
		var tags pq.StringArray

		err := rows.Scan(
			&p.ID, &p.Name, &p.Category, &metal, &stone, &p.Price, &p.InStock,
			&p.ShipDays, &tags, &p.BestsellerScore, &p.MarginScore, &p.ReadyToShip,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan product", err)
		}

		p.Metal = metal.String
		p.Stone = stone.String
		p.Tags = []string(tags)
		products = append(products, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate catalog rows", err)
	}

	return products, nil
}

// Upsert inserts or replaces a product row. Used by the catalog seeder.
func (a *CatalogAdapter) Upsert(ctx context.Context, p *entities.Product, position int) error {
	record := goqu.Record{
		"id":               p.ID,
		"name":             p.Name,
		"category":         p.Category,
		"metal":            sql.NullString{String: p.Metal, Valid: p.Metal != ""},
		"stone":            sql.NullString{String: p.Stone, Valid: p.Stone != ""},
		"price":            p.Price,
		"in_stock":         p.InStock,
		"ship_days":        p.ShipDays,
		"tags":             pq.Array(p.Tags),
		"bestseller_score": p.BestsellerScore,
		"margin_score":     p.MarginScore,
		"ready_to_ship":    p.ReadyToShip,
		"catalog_position": position,
	}

	query, args, err := a.db.Insert("products").Rows(record).
		OnConflict(goqu.DoUpdate("id", record)).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build product upsert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to upsert product", err)
	}
	return nil
}
