package entities

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Analytics event names emitted per turn.
const (
	EventTurnCompleted       = "turn_completed"
	EventRecommendationShown = "recommendation_shown"
	EventActionExecuted      = "action_executed"
	EventActionDuplicate     = "action_duplicate"
	EventActionFailed        = "action_failed"
	EventCSATRecorded        = "csat_recorded"
	EventEscalationOpened    = "escalation_opened"
)

// AnalyticsEvent is a correlated, PII-free record of one aspect of a turn.
// Raw emails, phones, and free-text comments never appear in properties;
// order references are salted-hashed before emission.
type AnalyticsEvent struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	SessionID  string            `json:"session_id"`
	RequestID  string            `json:"request_id"`
	Intent     Intent            `json:"intent"`
	Timestamp  time.Time         `json:"timestamp"`
	Properties map[string]string `json:"properties,omitempty"`
}

// HashOrderRef produces the salted hash under which an order reference may
// appear in analytics properties.
func HashOrderRef(salt, orderID string) string {
	sum := sha256.Sum256([]byte(salt + "|" + orderID))
	return hex.EncodeToString(sum[:])
}
