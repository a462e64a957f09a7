package services

import (
	"fmt"
	"time"

	"github.com/maisonvera/concierge/internal/domain/entities"
)

// Transition is the pure output of one conversation step: the next state,
// the actions the orchestrator must dispatch, the response surfaces, and
// the session deltas to commit if every action succeeds.
type Transition struct {
	Next         entities.State
	Actions      []entities.Action
	Messages     []string
	Form         *entities.FormPrompt
	QuickReplies []string
	PrefDelta    *entities.Preferences
	ShortlistAdd []string
	OfferCapsule bool
}

// quickStartReplies is the finite recovery surface rendered whenever the
// engine cannot route an utterance.
var quickStartReplies = []string{
	"Find a piece",
	"Track my order",
	"Start a return",
	"Reserve a capsule",
	"Talk to a stylist",
}

// ConversationStateMachine computes state transitions. It reads the session
// snapshot it is handed and never mutates it; all mutation happens when the
// orchestrator commits the returned deltas.
type ConversationStateMachine struct {
	offers        *OfferTriggerEvaluator
	csatThreshold int
}

// NewConversationStateMachine creates a state machine. Ratings strictly
// below csatThreshold open a stylist escalation in the same turn.
func NewConversationStateMachine(offers *OfferTriggerEvaluator, csatThreshold int) *ConversationStateMachine {
	return &ConversationStateMachine{
		offers:        offers,
		csatThreshold: csatThreshold,
	}
}

// Transition routes one classified turn. Any state may receive any intent:
// a return-flow session can pivot back to product discovery mid-flow.
func (m *ConversationStateMachine) Transition(session *entities.Session, cls Classification, payload *entities.TurnPayload, now time.Time) Transition {
	if payload == nil {
		payload = &entities.TurnPayload{}
	}

	switch cls.Intent {
	case entities.IntentFindProduct:
		return m.findProduct(session, payload)
	case entities.IntentTrackOrder:
		return m.trackOrder(session, cls, payload)
	case entities.IntentReturnExchange:
		return m.returnExchange(session, payload)
	case entities.IntentCapsuleReserve:
		return m.capsuleReserve(session, payload, now)
	case entities.IntentStylistContact:
		return m.stylistContact(session, payload)
	case entities.IntentCSAT:
		return m.csat(session, payload)
	case entities.IntentGiftCard:
		return m.giftCard(cls)
	case entities.IntentSizeGuide:
		return m.sizeGuide(cls)
	default:
		return m.unknown(session)
	}
}

func (m *ConversationStateMachine) findProduct(session *entities.Session, payload *entities.TurnPayload) Transition {
	delta := preferenceDelta(payload)

	merged := session.Preferences
	merged.Merge(delta)

	t := Transition{
		PrefDelta:    delta,
		ShortlistAdd: payload.ShortlistAdd,
	}

	if missing := merged.MissingProductFields(); len(missing) > 0 {
		t.Next = entities.StateCollectingPreferences
		t.Messages = []string{"A couple of details and I can pull pieces for you."}
		t.Form = &entities.FormPrompt{Name: "preferences", Fields: missing}
		return t
	}

	t.Next = entities.StateShowingRecommendations
	t.Actions = []entities.Action{{
		Type:      entities.ActionRunRecommendation,
		SessionID: session.ID,
	}}
	t.Messages = []string{"Here is what I would shortlist for you."}

	preview := session.Clone()
	preview.Preferences = merged
	preview.AddToShortlist(payload.ShortlistAdd...)
	t.OfferCapsule = m.offers.ShouldOffer(preview)
	return t
}

func (m *ConversationStateMachine) trackOrder(session *entities.Session, cls Classification, payload *entities.TurnPayload) Transition {
	orderID := payload.OrderID
	if orderID == "" {
		orderID = cls.OrderID
	}

	if orderID == "" && (payload.Email == "" || payload.Zip == "") {
		return Transition{
			Next:     entities.StateAwaitingOrderLookup,
			Messages: []string{"I can check on that. What's the order number, or the email and zip on the order?"},
			Form:     &entities.FormPrompt{Name: "order_lookup", Fields: []string{"order_id", "email", "zip"}},
		}
	}

	lookup := entities.Action{
		Type:      entities.ActionLookupOrder,
		SessionID: session.ID,
		OrderID:   orderID,
		Email:     payload.Email,
		Zip:       payload.Zip,
	}
	subscribe := entities.Action{
		Type:      entities.ActionSubscribeOrderUpdates,
		SessionID: session.ID,
		OrderID:   orderID,
		DedupKey:  entities.NewDedupKey(session.ID, entities.ActionSubscribeOrderUpdates, payload.IdempotencyToken, orderID),
	}

	return Transition{
		Next:    entities.StateWelcome,
		Actions: []entities.Action{lookup, subscribe},
	}
}

func (m *ConversationStateMachine) returnExchange(session *entities.Session, payload *entities.TurnPayload) Transition {
	orderID := payload.OrderID
	prefilled := false
	if orderID == "" && session.LastOrderRef != nil {
		// Carry-over is mandatory: a session that already looked up an
		// order is never re-prompted for its number.
		orderID = session.LastOrderRef.OrderID
		prefilled = true
	}

	if orderID == "" {
		return Transition{
			Next:     entities.StateAwaitingReturnDetails,
			Messages: []string{"I can set that up. Which order is this about, and what's the reason?"},
			Form:     &entities.FormPrompt{Name: "return_details", Fields: []string{"order_id", "reason"}},
		}
	}

	if payload.Reason == "" {
		msg := "What's the reason for the return?"
		if prefilled {
			msg = fmt.Sprintf("I'll use order %s. What's the reason for the return?", orderID)
		}
		return Transition{
			Next:     entities.StateAwaitingReturnDetails,
			Messages: []string{msg},
			Form:     &entities.FormPrompt{Name: "return_details", Fields: []string{"reason"}},
		}
	}

	return Transition{
		Next: entities.StateAwaitingCSAT,
		Actions: []entities.Action{{
			Type:      entities.ActionCreateReturn,
			SessionID: session.ID,
			OrderID:   orderID,
			Reason:    payload.Reason,
			DedupKey:  entities.NewDedupKey(session.ID, entities.ActionCreateReturn, payload.IdempotencyToken, orderID, payload.Reason),
		}},
		Messages: []string{"Done — your return label is on its way. How did we do today, 1 to 5?"},
	}
}

func (m *ConversationStateMachine) capsuleReserve(session *entities.Session, payload *entities.TurnPayload, now time.Time) Transition {
	if hold := session.ActiveCapsuleHold(now); hold != nil {
		return Transition{
			Next:     session.State,
			Messages: []string{fmt.Sprintf("Your capsule is already reserved until %s.", hold.ExpiresAt.Format(time.RFC1123))},
		}
	}

	preview := session.Clone()
	preview.AddToShortlist(payload.ShortlistAdd...)
	if delta := preferenceDelta(payload); delta != nil {
		preview.Preferences.Merge(delta)
	}

	if !m.offers.ShouldOffer(preview) {
		return Transition{
			Next:         session.State,
			Messages:     []string{"Capsules hold two or more shortlisted pieces for 48 hours. Save a couple of favorites first and I'll set one aside."},
			QuickReplies: []string{"Find a piece"},
		}
	}

	return Transition{
		Next:         session.State,
		ShortlistAdd: payload.ShortlistAdd,
		Actions: []entities.Action{{
			Type:      entities.ActionReserveCapsule,
			SessionID: session.ID,
			ItemIDs:   preview.Shortlist,
			DedupKey:  entities.NewDedupKey(session.ID, entities.ActionReserveCapsule, payload.IdempotencyToken, preview.Shortlist...),
		}},
	}
}

func (m *ConversationStateMachine) stylistContact(session *entities.Session, payload *entities.TurnPayload) Transition {
	contact := mergedContact(session, payload)

	if contact.Email == "" {
		return Transition{
			Next:     entities.StateAwaitingContactInfo,
			Messages: []string{"Happy to connect you with a stylist. Where can they reach you?"},
			Form:     &entities.FormPrompt{Name: "contact_info", Fields: []string{"name", "email", "phone"}},
		}
	}

	return Transition{
		Next: entities.StateWelcome,
		Actions: []entities.Action{{
			Type:      entities.ActionCreateStylistTicket,
			SessionID: session.ID,
			Name:      contact.Name,
			Email:     contact.Email,
			Phone:     contact.Phone,
			Context:   stylistContext(session),
			DedupKey:  entities.NewDedupKey(session.ID, entities.ActionCreateStylistTicket, payload.IdempotencyToken, contact.Email, stylistContext(session)),
		}},
		Messages: []string{"A stylist will reach out shortly."},
	}
}

func (m *ConversationStateMachine) csat(session *entities.Session, payload *entities.TurnPayload) Transition {
	if payload.Rating == nil {
		return Transition{
			Next:     entities.StateAwaitingCSAT,
			Messages: []string{"How did we do today, 1 to 5?"},
			Form:     &entities.FormPrompt{Name: "csat", Fields: []string{"rating"}},
		}
	}

	rating := *payload.Rating
	if rating < 1 || rating > 5 {
		return Transition{
			Next:     entities.StateAwaitingCSAT,
			Messages: []string{"Ratings go from 1 to 5."},
			Form:     &entities.FormPrompt{Name: "csat", Fields: []string{"rating"}},
		}
	}

	record := entities.Action{
		Type:      entities.ActionRecordCSAT,
		SessionID: session.ID,
		Rating:    rating,
		Comment:   payload.Comment,
		DedupKey:  entities.NewDedupKey(session.ID, entities.ActionRecordCSAT, payload.IdempotencyToken, fmt.Sprintf("rating:%d", rating)),
	}

	if rating >= m.csatThreshold {
		return Transition{
			Next:     entities.StateWelcome,
			Actions:  []entities.Action{record},
			Messages: []string{"Thank you — glad we could help."},
		}
	}

	// Negative ratings open a stylist escalation within the same turn.
	contact := mergedContact(session, payload)
	if contact.Email == "" {
		return Transition{
			Next:     entities.StateAwaitingContactInfo,
			Actions:  []entities.Action{record},
			Messages: []string{"I'm sorry we fell short. Leave your contact details and a stylist will make it right."},
			Form:     &entities.FormPrompt{Name: "contact_info", Fields: []string{"name", "email", "phone"}},
		}
	}

	escalation := entities.Action{
		Type:      entities.ActionCreateStylistTicket,
		SessionID: session.ID,
		Name:      contact.Name,
		Email:     contact.Email,
		Phone:     contact.Phone,
		Context:   fmt.Sprintf("csat escalation: rated %d/5", rating),
		DedupKey:  entities.NewDedupKey(session.ID, entities.ActionCreateStylistTicket, payload.IdempotencyToken, contact.Email, fmt.Sprintf("csat:%d", rating)),
	}

	return Transition{
		Next:     entities.StateWelcome,
		Actions:  []entities.Action{record, escalation},
		Messages: []string{"I'm sorry we fell short. A stylist will reach out to make it right."},
	}
}

func (m *ConversationStateMachine) giftCard(cls Classification) Transition {
	msg := "Gift cards are available from $50 to $2,500 and never expire."
	if cls.GiftAmount != nil {
		msg = fmt.Sprintf("A $%.0f gift card — lovely choice. I'll take you to checkout.", *cls.GiftAmount)
	}
	return Transition{
		Next:     entities.StateWelcome,
		Messages: []string{msg},
	}
}

func (m *ConversationStateMachine) sizeGuide(cls Classification) Transition {
	msg := "Our size guide covers ring, bracelet, and necklace measurements — I'll open it for you."
	if cls.RingSize != "" {
		msg = fmt.Sprintf("Size %s noted. Most of our rings can be made in that size.", cls.RingSize)
	}
	return Transition{
		Next:     entities.StateWelcome,
		Messages: []string{msg},
	}
}

func (m *ConversationStateMachine) unknown(session *entities.Session) Transition {
	return Transition{
		Next:         session.State,
		Messages:     []string{"I didn't quite catch that. Here's what I can help with:"},
		QuickReplies: quickStartReplies,
	}
}

// preferenceDelta extracts the preference fields a payload carries, or nil
// when it carries none.
func preferenceDelta(payload *entities.TurnPayload) *entities.Preferences {
	delta := &entities.Preferences{
		Category:            payload.Category,
		Metal:               payload.Metal,
		Stone:               payload.Stone,
		BudgetMin:           payload.BudgetMin,
		BudgetMax:           payload.BudgetMax,
		StyleTags:           payload.StyleTags,
		InspirationUploaded: payload.InspirationUploaded,
	}
	if payload.ReadyToShip != nil {
		delta.ReadyToShip = *payload.ReadyToShip
	}

	empty := delta.Category == "" && delta.Metal == "" && delta.Stone == "" &&
		delta.BudgetMin == nil && delta.BudgetMax == nil && len(delta.StyleTags) == 0 &&
		!delta.ReadyToShip && !delta.InspirationUploaded
	if empty {
		return nil
	}
	return delta
}

func mergedContact(session *entities.Session, payload *entities.TurnPayload) entities.Contact {
	contact := entities.Contact{}
	if session.Contact != nil {
		contact = *session.Contact
	}
	if payload.Name != "" {
		contact.Name = payload.Name
	}
	if payload.Email != "" {
		contact.Email = payload.Email
	}
	if payload.Phone != "" {
		contact.Phone = payload.Phone
	}
	return contact
}

func stylistContext(session *entities.Session) string {
	if len(session.Shortlist) > 0 {
		return fmt.Sprintf("shortlist of %d pieces", len(session.Shortlist))
	}
	if session.LastOrderRef != nil {
		return "existing order follow-up"
	}
	return "general inquiry"
}
