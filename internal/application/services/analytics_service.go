package services

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/maisonvera/concierge/internal/domain/entities"
	"github.com/maisonvera/concierge/internal/domain/providers"
	"github.com/maisonvera/concierge/internal/infrastructure/observability"
)

// ActionOutcome is what the orchestrator reports about one dispatched
// action so the emitter can describe it without re-touching collaborators.
type ActionOutcome struct {
	Type      entities.ActionType
	Duplicate bool
	Err       error
	OrderID   string
	Rating    int
}

// TurnRecord summarizes one completed turn for analytics.
type TurnRecord struct {
	RequestID string
	SessionID string
	Intent    entities.Intent
	State     entities.State
	CardCount int
	Duplicate bool
	Actions   []ActionOutcome
}

// AnalyticsService turns a TurnRecord into the correlated event set and
// publishes it. Events never carry raw emails, phones, or free-text
// comments; order references are salted-hashed first. Publish failures are
// logged and never fail the turn.
type AnalyticsService struct {
	sink providers.AnalyticsSink
	salt string
	now  func() time.Time
}

// NewAnalyticsService creates an emitter over the sink. salt is the
// deployment-wide secret used to hash order references.
func NewAnalyticsService(sink providers.AnalyticsSink, salt string) *AnalyticsService {
	return &AnalyticsService{
		sink: sink,
		salt: salt,
		now:  time.Now,
	}
}

// EmitTurn publishes every event the turn produced. All events share the
// turn's request id so downstream consumers can re-correlate them.
func (s *AnalyticsService) EmitTurn(ctx context.Context, record TurnRecord) {
	events := s.buildEvents(record)
	for _, event := range events {
		if err := s.sink.Publish(ctx, event); err != nil {
			observability.LoggerFromContext(ctx).Warn().
				Err(err).
				Str("event", event.Name).
				Str("request_id", record.RequestID).
				Msg("analytics publish failed")
		}
	}
}

func (s *AnalyticsService) buildEvents(record TurnRecord) []*entities.AnalyticsEvent {
	events := []*entities.AnalyticsEvent{
		s.newEvent(record, entities.EventTurnCompleted, map[string]string{
			"state":      string(record.State),
			"card_count": strconv.Itoa(record.CardCount),
			"duplicate":  strconv.FormatBool(record.Duplicate),
		}),
	}

	if record.CardCount > 0 {
		events = append(events, s.newEvent(record, entities.EventRecommendationShown, map[string]string{
			"card_count": strconv.Itoa(record.CardCount),
		}))
	}

	for _, outcome := range record.Actions {
		events = append(events, s.actionEvents(record, outcome)...)
	}
	return events
}

func (s *AnalyticsService) actionEvents(record TurnRecord, outcome ActionOutcome) []*entities.AnalyticsEvent {
	props := map[string]string{"action": string(outcome.Type)}
	if outcome.OrderID != "" {
		props["order_ref"] = entities.HashOrderRef(s.salt, outcome.OrderID)
	}

	switch {
	case outcome.Err != nil:
		return []*entities.AnalyticsEvent{s.newEvent(record, entities.EventActionFailed, props)}
	case outcome.Duplicate:
		return []*entities.AnalyticsEvent{s.newEvent(record, entities.EventActionDuplicate, props)}
	}

	events := []*entities.AnalyticsEvent{s.newEvent(record, entities.EventActionExecuted, props)}

	switch outcome.Type {
	case entities.ActionRecordCSAT:
		events = append(events, s.newEvent(record, entities.EventCSATRecorded, map[string]string{
			"rating": strconv.Itoa(outcome.Rating),
		}))
	case entities.ActionCreateStylistTicket:
		events = append(events, s.newEvent(record, entities.EventEscalationOpened, nil))
	}
	return events
}

func (s *AnalyticsService) newEvent(record TurnRecord, name string, props map[string]string) *entities.AnalyticsEvent {
	return &entities.AnalyticsEvent{
		ID:         uuid.NewString(),
		Name:       name,
		SessionID:  record.SessionID,
		RequestID:  record.RequestID,
		Intent:     record.Intent,
		Timestamp:  s.now(),
		Properties: props,
	}
}
