package entities

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// ActionType identifies a side-effecting or read operation emitted by the
// state machine and executed by the dispatcher.
type ActionType string

const (
	ActionRunRecommendation     ActionType = "run_recommendation"
	ActionLookupOrder           ActionType = "lookup_order"
	ActionCreateReturn          ActionType = "create_return"
	ActionReserveCapsule        ActionType = "reserve_capsule"
	ActionCreateStylistTicket   ActionType = "create_stylist_ticket"
	ActionRecordCSAT            ActionType = "record_csat"
	ActionSubscribeOrderUpdates ActionType = "subscribe_order_updates"
)

// Mutating reports whether the action creates downstream side effects and
// therefore must pass through the idempotency guard.
func (t ActionType) Mutating() bool {
	switch t {
	case ActionCreateReturn, ActionReserveCapsule, ActionCreateStylistTicket,
		ActionRecordCSAT, ActionSubscribeOrderUpdates:
		return true
	}
	return false
}

// Action is a unit of work the orchestrator executes after a transition.
// Mutating actions carry a non-empty DedupKey before reaching the guard.
type Action struct {
	Type      ActionType `json:"type"`
	SessionID string     `json:"session_id"`
	DedupKey  string     `json:"dedup_key,omitempty"`

	OrderID string   `json:"order_id,omitempty"`
	Email   string   `json:"email,omitempty"`
	Zip     string   `json:"zip,omitempty"`
	Reason  string   `json:"reason,omitempty"`
	Name    string   `json:"name,omitempty"`
	Phone   string   `json:"phone,omitempty"`
	Context string   `json:"context,omitempty"`
	Rating  int      `json:"rating,omitempty"`
	Comment string   `json:"comment,omitempty"`
	ItemIDs []string `json:"item_ids,omitempty"`
}

// NewDedupKey derives a deterministic idempotency key from the session, the
// action type, and either a caller-supplied token or a payload fingerprint.
func NewDedupKey(sessionID string, actionType ActionType, token string, payloadParts ...string) string {
	discriminator := token
	if discriminator == "" {
		discriminator = strings.Join(payloadParts, "|")
	}
	sum := sha256.Sum256([]byte(sessionID + "|" + string(actionType) + "|" + discriminator))
	return hex.EncodeToString(sum[:])
}

// OrderStatus is the order collaborator's lookup result.
type OrderStatus struct {
	OrderID          string     `json:"order_id"`
	Status           string     `json:"status"`
	Carrier          string     `json:"carrier,omitempty"`
	TrackingURL      string     `json:"tracking_url,omitempty"`
	EstimatedArrival *time.Time `json:"estimated_arrival,omitempty"`
	EmailHint        string     `json:"email_hint,omitempty"`
}

// ReturnResult is the returns collaborator's RMA record.
type ReturnResult struct {
	RMAID    string `json:"rma_id"`
	LabelURL string `json:"label_url"`
}

// TicketResult is the ticketing collaborator's created ticket.
type TicketResult struct {
	TicketID string `json:"ticket_id"`
}

// CapsuleReservation is the capsule collaborator's hold confirmation.
type CapsuleReservation struct {
	CapsuleID string    `json:"capsule_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ActionResult is the typed outcome of a dispatched action. Exactly one of
// the payload fields matching the action type is set.
type ActionResult struct {
	Type       ActionType          `json:"type"`
	Order      *OrderStatus        `json:"order,omitempty"`
	Return     *ReturnResult       `json:"return,omitempty"`
	Ticket     *TicketResult       `json:"ticket,omitempty"`
	Capsule    *CapsuleReservation `json:"capsule,omitempty"`
	Subscribed bool                `json:"subscribed,omitempty"`
	Recorded   bool                `json:"recorded,omitempty"`
	Duplicate  bool                `json:"duplicate,omitempty"`
}
