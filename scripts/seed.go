package main

import (
	"context"
	"log"
	"os"

	"github.com/maisonvera/concierge/internal/adapters/database"
	"github.com/maisonvera/concierge/internal/adapters/providers/commerce"
	"github.com/maisonvera/concierge/internal/infrastructure/clients/postgres"
	"github.com/maisonvera/concierge/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pgClient.Close()

	ctx := context.Background()

	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, truncating products before seeding")
		if _, err := pgClient.DB().ExecContext(ctx, `TRUNCATE TABLE products RESTART IDENTITY CASCADE`); err != nil {
			log.Fatalf("Failed to reset tables: %v", err)
		}
	}

	catalog := database.NewCatalogAdapter(pgClient)

	// Seed the house collection in catalog order; position drives the
	// recommender's deterministic tie-break.
	for i, product := range commerce.HouseCollection() {
		if err := catalog.Upsert(ctx, product, i); err != nil {
			log.Fatalf("Failed to seed product %s: %v", product.ID, err)
		}
		log.Printf("Seeded product %s (%s)", product.ID, product.Name)
	}

	log.Printf("Seeding complete: %d products", len(commerce.HouseCollection()))
}
