package entities

// Intent classifies what the user or the UI wants to do this turn.
type Intent string

const (
	IntentFindProduct    Intent = "find_product"
	IntentTrackOrder     Intent = "track_order"
	IntentReturnExchange Intent = "return_exchange"
	IntentCapsuleReserve Intent = "capsule_reserve"
	IntentStylistContact Intent = "stylist_contact"
	IntentCSAT           Intent = "csat"
	IntentGiftCard       Intent = "gift_card"
	IntentSizeGuide      Intent = "size_guide"
	IntentUnknown        Intent = "unknown"
)

var knownIntents = map[Intent]struct{}{
	IntentFindProduct:    {},
	IntentTrackOrder:     {},
	IntentReturnExchange: {},
	IntentCapsuleReserve: {},
	IntentStylistContact: {},
	IntentCSAT:           {},
	IntentGiftCard:       {},
	IntentSizeGuide:      {},
}

// ParseIntent maps a string to a known Intent. Unknown or empty input
// returns (IntentUnknown, false).
func ParseIntent(s string) (Intent, bool) {
	intent := Intent(s)
	if _, ok := knownIntents[intent]; ok {
		return intent, true
	}
	return IntentUnknown, false
}
