package entities

import "time"

// TurnRequest is the orchestrator's inbound envelope: a free-text utterance,
// an explicit UI intent, or both, plus any structured payload.
type TurnRequest struct {
	SessionID      string       `json:"session_id"`
	Text           string       `json:"text,omitempty"`
	ExplicitIntent string       `json:"explicit_intent,omitempty"`
	Payload        *TurnPayload `json:"payload,omitempty"`
}

// TurnPayload carries the structured fields a turn may supply.
type TurnPayload struct {
	Category            string   `json:"category,omitempty"`
	Metal               string   `json:"metal,omitempty"`
	Stone               string   `json:"stone,omitempty"`
	BudgetMin           *float64 `json:"budget_min,omitempty"`
	BudgetMax           *float64 `json:"budget_max,omitempty"`
	StyleTags           []string `json:"style_tags,omitempty"`
	ReadyToShip         *bool    `json:"ready_to_ship,omitempty"`
	InspirationUploaded bool     `json:"inspiration_uploaded,omitempty"`

	OrderID string `json:"order_id,omitempty"`
	Email   string `json:"email,omitempty"`
	Zip     string `json:"zip,omitempty"`
	Reason  string `json:"reason,omitempty"`

	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`

	Rating  *int   `json:"rating,omitempty"`
	Comment string `json:"comment,omitempty"`

	ShortlistAdd []string `json:"shortlist_add,omitempty"`

	// IdempotencyToken lets callers pin retried requests to one dedup key.
	IdempotencyToken string `json:"idempotency_token,omitempty"`
}

// CapsuleOffer is the capsule reservation surface shown to the widget.
type CapsuleOffer struct {
	Eligible  bool       `json:"eligible"`
	Message   string     `json:"message,omitempty"`
	CapsuleID string     `json:"capsule_id,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// FormPrompt asks the widget to render a structured input form.
type FormPrompt struct {
	Name   string   `json:"name"`
	Fields []string `json:"fields"`
}

// TurnResponse is the orchestrator's outbound envelope.
type TurnResponse struct {
	RequestID    string        `json:"request_id"`
	SessionID    string        `json:"session_id"`
	Intent       Intent        `json:"intent"`
	State        State         `json:"state"`
	Messages     []string      `json:"messages"`
	Cards        []ProductCard `json:"cards,omitempty"`
	Offer        *CapsuleOffer `json:"offer,omitempty"`
	Form         *FormPrompt   `json:"form,omitempty"`
	QuickReplies []string      `json:"quick_replies,omitempty"`
	Duplicate    bool          `json:"duplicate,omitempty"`
	Order        *OrderStatus  `json:"order,omitempty"`
	Return       *ReturnResult `json:"return,omitempty"`
	Ticket       *TicketResult `json:"ticket,omitempty"`
}
