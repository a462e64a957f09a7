package entities

import (
	"strings"
	"time"
)

// State is the current position of a session in the conversation machine.
type State string

const (
	StateWelcome                State = "WELCOME"
	StateCollectingPreferences  State = "COLLECTING_PREFERENCES"
	StateShowingRecommendations State = "SHOWING_RECOMMENDATIONS"
	StateAwaitingOrderLookup    State = "AWAITING_ORDER_LOOKUP"
	StateAwaitingReturnDetails  State = "AWAITING_RETURN_DETAILS"
	StateAwaitingContactInfo    State = "AWAITING_CONTACT_INFO"
	StateAwaitingCSAT           State = "AWAITING_CSAT"
	StateTerminalError          State = "TERMINAL_ERROR"
)

// Preferences holds the shopping filters a session has accumulated.
// All fields are optional; zero values mean "not specified".
type Preferences struct {
	Category            string   `json:"category,omitempty"`
	Metal               string   `json:"metal,omitempty"`
	Stone               string   `json:"stone,omitempty"`
	BudgetMin           *float64 `json:"budget_min,omitempty"`
	BudgetMax           *float64 `json:"budget_max,omitempty"`
	StyleTags           []string `json:"style_tags,omitempty"`
	ReadyToShip         bool     `json:"ready_to_ship,omitempty"`
	InspirationUploaded bool     `json:"inspiration_uploaded,omitempty"`
}

// Merge folds a delta into the preferences. Set fields win; unset fields
// keep the prior value, so filters accumulate across turns.
func (p *Preferences) Merge(delta *Preferences) {
	if delta == nil {
		return
	}
	if delta.Category != "" {
		p.Category = delta.Category
	}
	if delta.Metal != "" {
		p.Metal = delta.Metal
	}
	if delta.Stone != "" {
		p.Stone = delta.Stone
	}
	if delta.BudgetMin != nil {
		v := *delta.BudgetMin
		p.BudgetMin = &v
	}
	if delta.BudgetMax != nil {
		v := *delta.BudgetMax
		p.BudgetMax = &v
	}
	if len(delta.StyleTags) > 0 {
		p.StyleTags = appendUnique(p.StyleTags, delta.StyleTags...)
	}
	if delta.ReadyToShip {
		p.ReadyToShip = true
	}
	if delta.InspirationUploaded {
		p.InspirationUploaded = true
	}
}

// MissingProductFields returns the filter fields still required before a
// recommendation can run. Category and a budget ceiling are required; the
// rest only narrow the result.
func (p *Preferences) MissingProductFields() []string {
	var missing []string
	if p.Category == "" {
		missing = append(missing, "category")
	}
	if p.BudgetMax == nil {
		missing = append(missing, "budget_max")
	}
	return missing
}

// HasStyleTag reports whether any style tag matches the given keyword set
// (case-insensitive).
func (p *Preferences) HasStyleTag(keywords []string) bool {
	for _, tag := range p.StyleTags {
		for _, kw := range keywords {
			if strings.EqualFold(tag, kw) {
				return true
			}
		}
	}
	return false
}

func (p *Preferences) clone() Preferences {
	out := *p
	if p.BudgetMin != nil {
		v := *p.BudgetMin
		out.BudgetMin = &v
	}
	if p.BudgetMax != nil {
		v := *p.BudgetMax
		out.BudgetMax = &v
	}
	out.StyleTags = append([]string(nil), p.StyleTags...)
	return out
}

// OrderRef is the order context a session carries between turns.
type OrderRef struct {
	OrderID   string `json:"order_id"`
	EmailHint string `json:"email_hint,omitempty"`
}

// CapsuleHold is a time-boxed reservation of shortlisted pieces.
type CapsuleHold struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the hold has lapsed. An expired hold is treated
// as absent for all eligibility checks even before it is purged.
func (h *CapsuleHold) Expired(now time.Time) bool {
	return now.After(h.ExpiresAt)
}

// Contact is the session's contact info for stylist follow-ups.
type Contact struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Session is the per-conversation mutable record. It is owned exclusively
// by the SessionStore and mutated only inside ApplyTurn.
type Session struct {
	ID           string       `json:"id"`
	State        State        `json:"state"`
	Preferences  Preferences  `json:"preferences"`
	Shortlist    []string     `json:"shortlist,omitempty"`
	LastOrderRef *OrderRef    `json:"last_order_ref,omitempty"`
	CapsuleHold  *CapsuleHold `json:"capsule_hold,omitempty"`
	Contact      *Contact     `json:"contact,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	LastActiveAt time.Time    `json:"last_active_at"`
}

// NewSession creates a fresh session in the welcome state.
func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:           id,
		State:        StateWelcome,
		CreatedAt:    now,
		LastActiveAt: now,
	}
}

// AddToShortlist appends product ids preserving insertion order and
// skipping duplicates.
func (s *Session) AddToShortlist(ids ...string) {
	for _, id := range ids {
		if id == "" {
			continue
		}
		exists := false
		for _, have := range s.Shortlist {
			if have == id {
				exists = true
				break
			}
		}
		if !exists {
			s.Shortlist = append(s.Shortlist, id)
		}
	}
}

// ActiveCapsuleHold returns the hold if present and not expired.
func (s *Session) ActiveCapsuleHold(now time.Time) *CapsuleHold {
	if s.CapsuleHold == nil || s.CapsuleHold.Expired(now) {
		return nil
	}
	return s.CapsuleHold
}

// Clone returns a deep copy safe to hand to the pure transition function.
func (s *Session) Clone() *Session {
	out := *s
	out.Preferences = s.Preferences.clone()
	out.Shortlist = append([]string(nil), s.Shortlist...)
	if s.LastOrderRef != nil {
		ref := *s.LastOrderRef
		out.LastOrderRef = &ref
	}
	if s.CapsuleHold != nil {
		hold := *s.CapsuleHold
		out.CapsuleHold = &hold
	}
	if s.Contact != nil {
		contact := *s.Contact
		out.Contact = &contact
	}
	return &out
}

func appendUnique(dst []string, src ...string) []string {
	for _, s := range src {
		found := false
		for _, have := range dst {
			if strings.EqualFold(have, s) {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, s)
		}
	}
	return dst
}
