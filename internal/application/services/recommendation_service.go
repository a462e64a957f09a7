package services

import (
	"sort"
	"strings"

	"github.com/maisonvera/concierge/internal/domain/entities"
)

// ScoringWeights are the soft-ranking weights applied to products that
// survive the hard filter stage.
type ScoringWeights struct {
	StyleOverlap   float64
	Bestseller     float64
	Margin         float64
	PriceProximity float64
	ShipBonus      float64
}

// DefaultScoringWeights returns the production weights.
func DefaultScoringWeights() ScoringWeights {
	return ScoringWeights{
		StyleOverlap:   0.5,
		Bestseller:     0.3,
		Margin:         0.1,
		PriceProximity: 0.1,
		ShipBonus:      0.2,
	}
}

// ScoredProduct pairs a product with its ranking score and breakdown.
type ScoredProduct struct {
	Product        *entities.Product
	Score          float64
	ScoreBreakdown map[string]float64
}

// RecommendationService ranks a catalog snapshot against session
// preferences. Pure and total: identical inputs always produce identical
// ordered output, and an empty result is valid.
//
// BudgetMax is a hard ceiling: over-budget products are removed in the
// filter stage. The price-proximity term then only rewards being close to
// the ceiling from below; its negative clamp branch applies only when a
// caller ranks an unfiltered snapshot.
type RecommendationService struct {
	weights ScoringWeights
	topK    int
}

// NewRecommendationService creates a ranker with the given weights and
// result size.
func NewRecommendationService(weights ScoringWeights, topK int) *RecommendationService {
	if topK <= 0 {
		topK = 6
	}
	return &RecommendationService{weights: weights, topK: topK}
}

// Rank filters and scores the catalog, returning at most topK products in
// descending score order. Ties keep catalog insertion order, so repeated
// calls with identical inputs return bit-identical ordering.
func (s *RecommendationService) Rank(catalog []*entities.Product, prefs entities.Preferences) []ScoredProduct {
	survivors := make([]ScoredProduct, 0, len(catalog))
	for _, p := range catalog {
		if !s.passesFilter(p, prefs) {
			continue
		}
		score, breakdown := s.score(p, prefs)
		survivors = append(survivors, ScoredProduct{
			Product:        p,
			Score:          score,
			ScoreBreakdown: breakdown,
		})
	}

	sort.SliceStable(survivors, func(i, j int) bool {
		return survivors[i].Score > survivors[j].Score
	})

	if len(survivors) > s.topK {
		survivors = survivors[:s.topK]
	}
	return survivors
}

// passesFilter applies the hard constraints. All specified constraints
// must pass.
func (s *RecommendationService) passesFilter(p *entities.Product, prefs entities.Preferences) bool {
	if !p.InStock {
		return false
	}
	if prefs.Category != "" && !strings.EqualFold(p.Category, prefs.Category) {
		return false
	}
	if prefs.Metal != "" && !strings.EqualFold(p.Metal, prefs.Metal) {
		return false
	}
	if prefs.Stone != "" && !strings.EqualFold(p.Stone, prefs.Stone) {
		return false
	}
	if prefs.BudgetMin != nil && p.Price < *prefs.BudgetMin {
		return false
	}
	if prefs.BudgetMax != nil && p.Price > *prefs.BudgetMax {
		return false
	}
	if prefs.ReadyToShip && !p.ReadyToShip {
		return false
	}
	return true
}

func (s *RecommendationService) score(p *entities.Product, prefs entities.Preferences) (float64, map[string]float64) {
	breakdown := make(map[string]float64)

	overlap := styleOverlap(p.Tags, prefs.StyleTags)
	breakdown["style"] = overlap * s.weights.StyleOverlap

	breakdown["bestseller"] = p.BestsellerScore * s.weights.Bestseller
	breakdown["margin"] = p.MarginScore * s.weights.Margin

	proximity := 0.0
	if prefs.BudgetMax != nil {
		proximity = priceProximity(p.Price, *prefs.BudgetMax)
	}
	breakdown["price"] = proximity * s.weights.PriceProximity

	ship := 0.0
	if p.ShipDays <= 2 {
		ship = s.weights.ShipBonus
	}
	breakdown["ship"] = ship

	total := breakdown["style"] + breakdown["bestseller"] + breakdown["margin"] + breakdown["price"] + breakdown["ship"]
	return total, breakdown
}

// styleOverlap is |tags ∩ requested| / 3 capped at 1; zero when no style
// tags were requested.
func styleOverlap(tags, requested []string) float64 {
	if len(requested) == 0 {
		return 0
	}
	matched := 0
	for _, want := range requested {
		for _, have := range tags {
			if strings.EqualFold(want, have) {
				matched++
				break
			}
		}
	}
	overlap := float64(matched) / 3.0
	if overlap > 1 {
		overlap = 1
	}
	return overlap
}

// priceProximity rewards being close to but not over the budget ceiling.
func priceProximity(price, budgetMax float64) float64 {
	denom := 0.2 * budgetMax
	if denom < 50 {
		denom = 50
	}
	v := (budgetMax - price) / denom
	if v > 1 {
		v = 1
	}
	if v < -0.3 {
		v = -0.3
	}
	return v
}
