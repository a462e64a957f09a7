package services

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/maisonvera/concierge/internal/domain/entities"
)

// ClassifierRule binds a compiled pattern to the intent it selects.
// Rule order is part of the contract: the first matching rule wins.
type ClassifierRule struct {
	Intent  entities.Intent
	Pattern *regexp.Regexp
}

// Classification is the classifier's total output. Intent is always set;
// the capture fields are populated only by command shortcuts.
type Classification struct {
	Intent       entities.Intent
	FromShortcut bool
	OrderID      string
	GiftAmount   *float64
	RingSize     string
}

// ClassifyInput is one utterance or structured UI action to classify.
type ClassifyInput struct {
	Text           string
	ExplicitIntent string
}

// IntentClassifier maps utterances and UI actions to intents using an
// ordered rule table. Pure and deterministic: no I/O, no hidden state.
type IntentClassifier struct {
	rules []ClassifierRule
}

// NewIntentClassifier creates a classifier over the given ordered rules.
func NewIntentClassifier(rules []ClassifierRule) *IntentClassifier {
	return &IntentClassifier{rules: rules}
}

// DefaultClassifierRules returns the production rule table. Earlier rules
// take precedence: an utterance like "return my order" must resolve to the
// return flow even though it also mentions an order.
func DefaultClassifierRules() []ClassifierRule {
	return []ClassifierRule{
		{entities.IntentReturnExchange, regexp.MustCompile(`\b(return|exchange|refund|rma|send (it |this )?back)\b`)},
		{entities.IntentTrackOrder, regexp.MustCompile(`\b(track|order status|where('s| is) my order|shipping status|delivery update|shipped)\b`)},
		{entities.IntentCapsuleReserve, regexp.MustCompile(`\b(capsule|reserve|hold (these|those|my)|on hold|custom design|bespoke)\b`)},
		{entities.IntentStylistContact, regexp.MustCompile(`\b(stylist|advisor|consult|human|speak (to|with)|talk (to|with)|call me)\b`)},
		{entities.IntentCSAT, regexp.MustCompile(`\b(rate|rating|feedback|satisfied|satisfaction|review (my|the) experience)\b`)},
		{entities.IntentGiftCard, regexp.MustCompile(`\b(gift ?card|voucher|gift certificate)\b`)},
		{entities.IntentSizeGuide, regexp.MustCompile(`\b(size guide|ring size|sizing|what size|resize)\b`)},
		{entities.IntentFindProduct, regexp.MustCompile(`\b(ring|rings|necklace|bracelet|earring|earrings|pendant|engagement|wedding band|diamond|sapphire|emerald|gold|silver|platinum|shop|browse|looking for|show me|gift|jewelry|jewellery)\b`)},
	}
}

var (
	trackShortcut = regexp.MustCompile(`^/track\s+(\S+)$`)
	giftShortcut  = regexp.MustCompile(`^/gift\s+(\d+(?:\.\d+)?)$`)
	sizeShortcut  = regexp.MustCompile(`^/size\s+(\S+)$`)
)

// Classify resolves the input to an intent. Explicit UI signals always win
// over text inference; command shortcuts win over the rule table; otherwise
// the first matching rule decides. Never fails: the worst case is unknown.
func (c *IntentClassifier) Classify(input ClassifyInput) Classification {
	if input.ExplicitIntent != "" {
		if intent, ok := entities.ParseIntent(input.ExplicitIntent); ok {
			return Classification{Intent: intent}
		}
		return Classification{Intent: entities.IntentUnknown}
	}

	text := strings.ToLower(strings.TrimSpace(input.Text))
	if text == "" {
		return Classification{Intent: entities.IntentUnknown}
	}

	if m := trackShortcut.FindStringSubmatch(text); m != nil {
		return Classification{
			Intent:       entities.IntentTrackOrder,
			FromShortcut: true,
			OrderID:      strings.ToUpper(m[1]),
		}
	}
	if m := giftShortcut.FindStringSubmatch(text); m != nil {
		// The pattern only admits digits, so parsing cannot fail.
		amount, _ := strconv.ParseFloat(m[1], 64)
		return Classification{
			Intent:       entities.IntentGiftCard,
			FromShortcut: true,
			GiftAmount:   &amount,
		}
	}
	if m := sizeShortcut.FindStringSubmatch(text); m != nil {
		return Classification{
			Intent:       entities.IntentSizeGuide,
			FromShortcut: true,
			RingSize:     m[1],
		}
	}

	for _, rule := range c.rules {
		if rule.Pattern.MatchString(text) {
			return Classification{Intent: rule.Intent}
		}
	}

	return Classification{Intent: entities.IntentUnknown}
}
