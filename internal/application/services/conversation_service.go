package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/maisonvera/concierge/internal/domain/entities"
	"github.com/maisonvera/concierge/internal/domain/providers"
	"github.com/maisonvera/concierge/internal/infrastructure/observability"
	apperrors "github.com/maisonvera/concierge/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

// ConversationService is the per-turn orchestrator. It classifies the
// utterance, runs the pure transition under the session's writer lock,
// dispatches the resulting actions (mutations behind the idempotency
// guard), commits the session deltas only when every action succeeded,
// and emits the turn's analytics.
type ConversationService struct {
	classifier  *IntentClassifier
	machine     *ConversationStateMachine
	recommender *RecommendationService
	dispatcher  *ActionDispatcher
	guard       *IdempotencyGuard
	store       *SessionStore
	analytics   *AnalyticsService
	catalog     providers.CatalogProvider
	cache       providers.CacheProvider
	cacheTTL    time.Duration
	metrics     *observability.Metrics
	now         func() time.Time
}

// ConversationServiceDeps bundles the orchestrator's collaborators.
// cache and metrics may be nil.
type ConversationServiceDeps struct {
	Classifier  *IntentClassifier
	Machine     *ConversationStateMachine
	Recommender *RecommendationService
	Dispatcher  *ActionDispatcher
	Guard       *IdempotencyGuard
	Store       *SessionStore
	Analytics   *AnalyticsService
	Catalog     providers.CatalogProvider
	Cache       providers.CacheProvider
	CacheTTL    time.Duration
	Metrics     *observability.Metrics
}

// NewConversationService wires the orchestrator.
func NewConversationService(deps ConversationServiceDeps) *ConversationService {
	return &ConversationService{
		classifier:  deps.Classifier,
		machine:     deps.Machine,
		recommender: deps.Recommender,
		dispatcher:  deps.Dispatcher,
		guard:       deps.Guard,
		store:       deps.Store,
		analytics:   deps.Analytics,
		catalog:     deps.Catalog,
		cache:       deps.Cache,
		cacheTTL:    deps.CacheTTL,
		metrics:     deps.Metrics,
		now:         time.Now,
	}
}

// ProcessTurn handles one inbound turn end to end.
func (s *ConversationService) ProcessTurn(ctx context.Context, req *entities.TurnRequest) (*entities.TurnResponse, error) {
	if req == nil || req.SessionID == "" {
		return nil, apperrors.NewValidationError("session_id is required")
	}

	start := s.now()
	requestID := uuid.NewString()

	ctx, span := observability.StartSpan(ctx, "concierge.turn")
	defer span.End()

	cls := s.classifier.Classify(ClassifyInput{
		Text:           req.Text,
		ExplicitIntent: req.ExplicitIntent,
	})
	observability.SetSpanAttributes(span,
		attribute.String("concierge.session_id", req.SessionID),
		attribute.String("concierge.intent", string(cls.Intent)),
	)

	logger := observability.LoggerFromContext(ctx).With().
		Str("request_id", requestID).
		Str("session_id", req.SessionID).
		Str("intent", string(cls.Intent)).
		Logger()

	response := &entities.TurnResponse{
		RequestID: requestID,
		SessionID: req.SessionID,
		Intent:    cls.Intent,
	}
	var outcomes []ActionOutcome

	turnErr := s.store.ApplyTurn(ctx, req.SessionID, func(session *entities.Session) error {
		transition := s.machine.Transition(session, cls, req.Payload, s.now())

		session.Preferences.Merge(transition.PrefDelta)
		session.AddToShortlist(transition.ShortlistAdd...)
		s.commitContact(session, req.Payload)

		response.State = transition.Next
		response.Messages = transition.Messages
		response.Form = transition.Form
		response.QuickReplies = transition.QuickReplies
		if transition.OfferCapsule {
			response.Offer = &entities.CapsuleOffer{
				Eligible: true,
				Message:  "I can set these aside in a capsule for 48 hours — just say the word.",
			}
		}

		for _, action := range transition.Actions {
			if action.Type == entities.ActionRunRecommendation {
				if err := s.runRecommendation(ctx, session, response); err != nil {
					outcomes = append(outcomes, ActionOutcome{Type: action.Type, Err: err})
					return err
				}
				outcomes = append(outcomes, ActionOutcome{Type: action.Type})
				continue
			}

			if action.Type == entities.ActionSubscribeOrderUpdates && action.OrderID == "" {
				// The email+zip path resolves the order id only at lookup
				// dispatch; bind the subscription to the resolved id.
				if session.LastOrderRef == nil {
					continue
				}
				token := ""
				if req.Payload != nil {
					token = req.Payload.IdempotencyToken
				}
				action.OrderID = session.LastOrderRef.OrderID
				action.DedupKey = entities.NewDedupKey(session.ID, action.Type, token, action.OrderID)
			}

			result, duplicate, err := s.runAction(ctx, action)
			outcomes = append(outcomes, ActionOutcome{
				Type:      action.Type,
				Duplicate: duplicate,
				Err:       err,
				OrderID:   action.OrderID,
				Rating:    action.Rating,
			})

			if err != nil {
				if action.Type == entities.ActionLookupOrder && apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
					// A miss is a conversational answer, not a failure:
					// re-prompt and skip the rest of the turn's actions.
					response.State = entities.StateAwaitingOrderLookup
					response.Messages = []string{"I couldn't find an order matching that. Mind double-checking the number, or the email and zip?"}
					response.Form = &entities.FormPrompt{Name: "order_lookup", Fields: []string{"order_id", "email", "zip"}}
					session.State = entities.StateAwaitingOrderLookup
					return nil
				}
				logger.Error().Err(err).Str("action", string(action.Type)).Msg("action dispatch failed")
				return err
			}

			if duplicate {
				response.Duplicate = true
				if s.metrics != nil {
					observability.RecordDuplicate(ctx, s.metrics, string(action.Type))
				}
			}
			s.applyResult(session, response, result)
		}

		session.State = transition.Next
		return nil
	})

	record := TurnRecord{
		RequestID: requestID,
		SessionID: req.SessionID,
		Intent:    cls.Intent,
		State:     response.State,
		CardCount: len(response.Cards),
		Duplicate: response.Duplicate,
		Actions:   outcomes,
	}
	s.analytics.EmitTurn(ctx, record)

	if s.metrics != nil {
		observability.RecordTurnMetric(ctx, s.metrics, string(cls.Intent), statusFor(turnErr), s.now().Sub(start))
	}

	if turnErr != nil {
		return nil, turnErr
	}
	logger.Info().Str("state", string(response.State)).Int("cards", len(response.Cards)).Msg("turn completed")
	return response, nil
}

// runAction routes mutating actions through the idempotency guard and
// executes reads directly.
func (s *ConversationService) runAction(ctx context.Context, action entities.Action) (*entities.ActionResult, bool, error) {
	if action.Type.Mutating() && action.DedupKey != "" {
		return s.guard.Execute(ctx, action.DedupKey, func(ctx context.Context) (*entities.ActionResult, error) {
			return s.dispatcher.Dispatch(ctx, action)
		})
	}
	result, err := s.dispatcher.Dispatch(ctx, action)
	return result, false, err
}

// runRecommendation ranks the cached catalog snapshot against the
// session's merged preferences and fills the response cards.
func (s *ConversationService) runRecommendation(ctx context.Context, session *entities.Session, response *entities.TurnResponse) error {
	products, err := s.catalogSnapshot(ctx, session.Preferences.Category)
	if err != nil {
		return err
	}

	ranked := s.recommender.Rank(products, session.Preferences)
	if len(ranked) == 0 {
		response.Messages = []string{"Nothing in the collection matches all of that at once. Would you loosen the budget or try another metal?"}
		response.QuickReplies = []string{"Raise my budget", "Any metal works"}
		return nil
	}

	cards := make([]entities.ProductCard, 0, len(ranked))
	for _, sp := range ranked {
		cards = append(cards, entities.CardFor(sp.Product))
	}
	response.Cards = cards
	return nil
}

// catalogSnapshot fetches the category snapshot, serving it from cache
// inside the TTL window so bursts of turns share one catalog read.
func (s *ConversationService) catalogSnapshot(ctx context.Context, category string) ([]*entities.Product, error) {
	key := "catalog:" + strings.ToLower(category)

	if s.cache != nil {
		if data, err := s.cache.Get(ctx, key); err == nil {
			var products []*entities.Product
			if err := json.Unmarshal(data, &products); err == nil {
				if s.metrics != nil {
					observability.RecordCacheHit(ctx, s.metrics, key)
				}
				return products, nil
			}
		}
		if s.metrics != nil {
			observability.RecordCacheMiss(ctx, s.metrics, key)
		}
	}

	products, err := s.catalog.Search(ctx, providers.CatalogFilter{Category: category, Limit: 200})
	if err != nil {
		return nil, apperrors.NewExternalError("catalog search failed", err)
	}

	if s.cache != nil {
		if data, err := json.Marshal(products); err == nil {
			if err := s.cache.Set(ctx, key, data, int(s.cacheTTL.Seconds())); err != nil {
				observability.LoggerFromContext(ctx).Warn().Err(err).Msg("failed to cache catalog snapshot")
			}
		}
	}
	return products, nil
}

// applyResult folds a successful action result into the session and the
// response.
func (s *ConversationService) applyResult(session *entities.Session, response *entities.TurnResponse, result *entities.ActionResult) {
	if result == nil {
		return
	}
	switch result.Type {
	case entities.ActionLookupOrder:
		session.LastOrderRef = &entities.OrderRef{
			OrderID:   result.Order.OrderID,
			EmailHint: result.Order.EmailHint,
		}
		response.Order = result.Order
		msg := fmt.Sprintf("Order %s is %s.", result.Order.OrderID, result.Order.Status)
		if result.Order.TrackingURL != "" {
			msg = fmt.Sprintf("Order %s is %s — track it here: %s", result.Order.OrderID, result.Order.Status, result.Order.TrackingURL)
		}
		response.Messages = append(response.Messages, msg)
	case entities.ActionCreateReturn:
		response.Return = result.Return
	case entities.ActionCreateStylistTicket:
		response.Ticket = result.Ticket
	case entities.ActionReserveCapsule:
		session.CapsuleHold = &entities.CapsuleHold{
			ID:        result.Capsule.CapsuleID,
			CreatedAt: s.now(),
			ExpiresAt: result.Capsule.ExpiresAt,
		}
		expires := result.Capsule.ExpiresAt
		response.Offer = &entities.CapsuleOffer{
			Eligible:  true,
			CapsuleID: result.Capsule.CapsuleID,
			ExpiresAt: &expires,
		}
		response.Messages = append(response.Messages,
			fmt.Sprintf("Your capsule is reserved until %s.", expires.Format(time.RFC1123)))
	}
}

// commitContact folds any contact fields the payload carried into the
// session so later turns can reuse them.
func (s *ConversationService) commitContact(session *entities.Session, payload *entities.TurnPayload) {
	if payload == nil {
		return
	}
	if payload.Name == "" && payload.Email == "" && payload.Phone == "" {
		return
	}
	if session.Contact == nil {
		session.Contact = &entities.Contact{}
	}
	if payload.Name != "" {
		session.Contact.Name = payload.Name
	}
	if payload.Email != "" {
		session.Contact.Email = payload.Email
	}
	if payload.Phone != "" {
		session.Contact.Phone = payload.Phone
	}
}

func statusFor(err error) int {
	switch {
	case err == nil:
		return 200
	case apperrors.IsType(err, apperrors.ErrorTypeValidation):
		return 400
	case apperrors.IsType(err, apperrors.ErrorTypeNotFound):
		return 404
	case apperrors.IsType(err, apperrors.ErrorTypeDuplicate):
		return 409
	default:
		return 500
	}
}
