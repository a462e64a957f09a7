package services

import (
	"testing"

	"github.com/maisonvera/concierge/internal/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }

func sampleCatalog() []*entities.Product {
	return []*entities.Product{
		{ID: "p1", Category: "ring", Metal: "gold", Stone: "diamond", Price: 950, InStock: true, ShipDays: 5, Tags: []string{"classic", "solitaire"}, BestsellerScore: 0.9, MarginScore: 0.4, ReadyToShip: false},
		{ID: "p2", Category: "ring", Metal: "gold", Stone: "diamond", Price: 700, InStock: true, ShipDays: 1, Tags: []string{"modern", "pave"}, BestsellerScore: 0.6, MarginScore: 0.7, ReadyToShip: true},
		{ID: "p3", Category: "ring", Metal: "silver", Stone: "sapphire", Price: 300, InStock: true, ShipDays: 2, Tags: []string{"vintage"}, BestsellerScore: 0.3, MarginScore: 0.9, ReadyToShip: true},
		{ID: "p4", Category: "necklace", Metal: "gold", Stone: "", Price: 500, InStock: true, ShipDays: 3, Tags: []string{"classic"}, BestsellerScore: 0.8, MarginScore: 0.5, ReadyToShip: true},
		{ID: "p5", Category: "ring", Metal: "gold", Stone: "diamond", Price: 1200, InStock: true, ShipDays: 1, Tags: []string{"classic"}, BestsellerScore: 1.0, MarginScore: 1.0, ReadyToShip: true},
		{ID: "p6", Category: "ring", Metal: "gold", Stone: "diamond", Price: 800, InStock: false, ShipDays: 1, Tags: []string{"classic"}, BestsellerScore: 1.0, MarginScore: 1.0, ReadyToShip: true},
	}
}

func TestRecommendationService_BudgetMaxIsHardCeiling(t *testing.T) {
	svc := NewRecommendationService(DefaultScoringWeights(), 6)
	prefs := entities.Preferences{Category: "ring", BudgetMax: f64(950)}

	ranked := svc.Rank(sampleCatalog(), prefs)

	ids := rankedIDs(ranked)
	// p5 is over budget, p6 is out of stock, p4 is the wrong category.
	assert.NotContains(t, ids, "p5")
	assert.NotContains(t, ids, "p6")
	assert.NotContains(t, ids, "p4")
	// A product priced exactly at the ceiling survives.
	assert.Contains(t, ids, "p1")
}

func TestRecommendationService_HardFilters(t *testing.T) {
	svc := NewRecommendationService(DefaultScoringWeights(), 6)

	metal := svc.Rank(sampleCatalog(), entities.Preferences{Category: "ring", Metal: "silver", BudgetMax: f64(2000)})
	assert.Equal(t, []string{"p3"}, rankedIDs(metal))

	ready := svc.Rank(sampleCatalog(), entities.Preferences{Category: "ring", BudgetMax: f64(2000), ReadyToShip: true})
	assert.NotContains(t, rankedIDs(ready), "p1")

	minBudget := svc.Rank(sampleCatalog(), entities.Preferences{Category: "ring", BudgetMin: f64(600), BudgetMax: f64(1000)})
	assert.NotContains(t, rankedIDs(minBudget), "p3")
}

func TestRecommendationService_StableOrdering(t *testing.T) {
	svc := NewRecommendationService(DefaultScoringWeights(), 6)
	prefs := entities.Preferences{Category: "ring", BudgetMax: f64(1000), StyleTags: []string{"classic", "modern"}}

	first := svc.Rank(sampleCatalog(), prefs)
	for i := 0; i < 25; i++ {
		again := svc.Rank(sampleCatalog(), prefs)
		require.Equal(t, rankedIDs(first), rankedIDs(again))
		for j := range first {
			assert.Equal(t, first[j].Score, again[j].Score)
		}
	}
}

func TestRecommendationService_TieBreakKeepsCatalogOrder(t *testing.T) {
	svc := NewRecommendationService(DefaultScoringWeights(), 6)
	// Two products with identical scoring inputs; only catalog position differs.
	catalog := []*entities.Product{
		{ID: "a", Category: "ring", Price: 100, InStock: true, ShipDays: 5, BestsellerScore: 0.5, MarginScore: 0.5},
		{ID: "b", Category: "ring", Price: 100, InStock: true, ShipDays: 5, BestsellerScore: 0.5, MarginScore: 0.5},
	}

	ranked := svc.Rank(catalog, entities.Preferences{Category: "ring", BudgetMax: f64(500)})

	assert.Equal(t, []string{"a", "b"}, rankedIDs(ranked))
}

func TestRecommendationService_ShipBonus(t *testing.T) {
	svc := NewRecommendationService(DefaultScoringWeights(), 6)
	catalog := []*entities.Product{
		{ID: "slow", Category: "ring", Price: 100, InStock: true, ShipDays: 3, BestsellerScore: 0.5, MarginScore: 0.5},
		{ID: "fast", Category: "ring", Price: 100, InStock: true, ShipDays: 2, BestsellerScore: 0.5, MarginScore: 0.5},
	}

	ranked := svc.Rank(catalog, entities.Preferences{Category: "ring", BudgetMax: f64(500)})

	require.Len(t, ranked, 2)
	assert.Equal(t, "fast", ranked[0].Product.ID)
	assert.InDelta(t, 0.2, ranked[0].Score-ranked[1].Score, 1e-9)
}

func TestRecommendationService_StyleOverlapCapsAtOne(t *testing.T) {
	assert.Equal(t, 0.0, styleOverlap([]string{"classic"}, nil))
	assert.InDelta(t, 1.0/3.0, styleOverlap([]string{"classic"}, []string{"classic"}), 1e-9)
	assert.Equal(t, 1.0, styleOverlap(
		[]string{"classic", "modern", "vintage", "bold"},
		[]string{"classic", "modern", "vintage", "bold"},
	))
}

func TestRecommendationService_PriceProximityBounds(t *testing.T) {
	// Well under budget caps at 1.
	assert.Equal(t, 1.0, priceProximity(100, 1000))
	// Exactly at budget contributes nothing.
	assert.Equal(t, 0.0, priceProximity(1000, 1000))
	// Over budget clamps at -0.3 (reachable only on unfiltered snapshots).
	assert.Equal(t, -0.3, priceProximity(5000, 1000))
	// Small budgets use the 50 floor as denominator.
	assert.InDelta(t, 0.2, priceProximity(90, 100), 1e-9)
}

func TestRecommendationService_TopKTruncation(t *testing.T) {
	svc := NewRecommendationService(DefaultScoringWeights(), 2)

	ranked := svc.Rank(sampleCatalog(), entities.Preferences{Category: "ring", BudgetMax: f64(2000)})

	assert.Len(t, ranked, 2)
}

func TestRecommendationService_EmptyResultIsValid(t *testing.T) {
	svc := NewRecommendationService(DefaultScoringWeights(), 6)

	ranked := svc.Rank(sampleCatalog(), entities.Preferences{Category: "tiara", BudgetMax: f64(100)})

	assert.Empty(t, ranked)
}

func rankedIDs(ranked []ScoredProduct) []string {
	ids := make([]string, 0, len(ranked))
	for _, r := range ranked {
		ids = append(ids, r.Product.ID)
	}
	return ids
}
