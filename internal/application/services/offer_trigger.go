package services

import (
	"github.com/maisonvera/concierge/internal/domain/entities"
)

// DefaultBespokeKeywords are the style tags that signal interest in a
// custom or bespoke piece.
func DefaultBespokeKeywords() []string {
	return []string{"custom", "bespoke", "one-of-a-kind", "made-to-order"}
}

// OfferTriggerEvaluator decides whether a session qualifies for the capsule
// reservation offer. Pure: reads only the session snapshot it is handed.
type OfferTriggerEvaluator struct {
	minShortlist    int
	bespokeKeywords []string
}

// NewOfferTriggerEvaluator creates an evaluator with the given bespoke
// keyword set.
func NewOfferTriggerEvaluator(bespokeKeywords []string) *OfferTriggerEvaluator {
	return &OfferTriggerEvaluator{
		minShortlist:    2,
		bespokeKeywords: bespokeKeywords,
	}
}

// ShouldOffer reports capsule eligibility: a shortlist of at least two
// pieces, an inspiration upload, or bespoke style tags.
func (e *OfferTriggerEvaluator) ShouldOffer(session *entities.Session) bool {
	if len(session.Shortlist) >= e.minShortlist {
		return true
	}
	if session.Preferences.InspirationUploaded {
		return true
	}
	return session.Preferences.HasStyleTag(e.bespokeKeywords)
}
