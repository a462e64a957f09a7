package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/maisonvera/concierge/internal/domain/entities"
	apperrors "github.com/maisonvera/concierge/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type conversationFixture struct {
	svc       *ConversationService
	catalog   *fakeCatalog
	orders    *fakeOrders
	returns   *fakeReturns
	ticketing *fakeTicketing
	capsules  *fakeCapsules
	csat      *fakeCSAT
	sink      *fakeSink
	store     *SessionStore
	cache     *fakeCache
}

func newConversationFixture() *conversationFixture {
	f := &conversationFixture{
		catalog:   &fakeCatalog{products: sampleCatalog()},
		orders:    newFakeOrders(),
		returns:   &fakeReturns{},
		ticketing: &fakeTicketing{},
		capsules:  newFakeCapsules(48 * time.Hour),
		csat:      &fakeCSAT{},
		sink:      &fakeSink{},
		store:     NewSessionStore(time.Hour),
		cache:     newFakeCache(),
	}

	dispatcher := NewActionDispatcher(f.orders, f.returns, f.ticketing, f.capsules, f.csat, 300*time.Millisecond, nil)

	f.svc = NewConversationService(ConversationServiceDeps{
		Classifier:  NewIntentClassifier(DefaultClassifierRules()),
		Machine:     NewConversationStateMachine(NewOfferTriggerEvaluator(DefaultBespokeKeywords()), 3),
		Recommender: NewRecommendationService(DefaultScoringWeights(), 6),
		Dispatcher:  dispatcher,
		Guard:       NewIdempotencyGuard(24*time.Hour, nil),
		Store:       f.store,
		Analytics:   NewAnalyticsService(f.sink, "test-salt"),
		Catalog:     f.catalog,
		Cache:       f.cache,
		CacheTTL:    time.Minute,
	})
	return f
}

func TestProcessTurn_RequiresSessionID(t *testing.T) {
	f := newConversationFixture()

	_, err := f.svc.ProcessTurn(context.Background(), &entities.TurnRequest{Text: "show me rings"})

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestProcessTurn_FindProductReturnsRankedCards(t *testing.T) {
	f := newConversationFixture()

	resp, err := f.svc.ProcessTurn(context.Background(), &entities.TurnRequest{
		SessionID:      "s1",
		ExplicitIntent: "find_product",
		Payload:        &entities.TurnPayload{Category: "ring", BudgetMax: f64(1000)},
	})

	require.NoError(t, err)
	assert.Equal(t, entities.StateShowingRecommendations, resp.State)
	require.NotEmpty(t, resp.Cards)
	// p5 is over budget, p6 is out of stock; the rest are rings under 1000.
	for _, card := range resp.Cards {
		assert.NotEqual(t, "p5", card.ID)
		assert.NotEqual(t, "p6", card.ID)
	}
	assert.Contains(t, f.sink.eventNames(), entities.EventRecommendationShown)
}

func TestProcessTurn_PreferencesAccumulateAcrossTurns(t *testing.T) {
	f := newConversationFixture()
	ctx := context.Background()

	first, err := f.svc.ProcessTurn(ctx, &entities.TurnRequest{
		SessionID:      "s1",
		ExplicitIntent: "find_product",
		Payload:        &entities.TurnPayload{Category: "ring"},
	})
	require.NoError(t, err)
	assert.Equal(t, entities.StateCollectingPreferences, first.State)
	require.NotNil(t, first.Form)
	assert.Equal(t, []string{"budget_max"}, first.Form.Fields)

	second, err := f.svc.ProcessTurn(ctx, &entities.TurnRequest{
		SessionID:      "s1",
		ExplicitIntent: "find_product",
		Payload:        &entities.TurnPayload{BudgetMax: f64(1000)},
	})
	require.NoError(t, err)
	assert.Equal(t, entities.StateShowingRecommendations, second.State)
	assert.NotEmpty(t, second.Cards)
}

func TestProcessTurn_CatalogSnapshotIsCached(t *testing.T) {
	f := newConversationFixture()
	ctx := context.Background()
	payload := &entities.TurnPayload{Category: "ring", BudgetMax: f64(1000)}

	for i := 0; i < 3; i++ {
		_, err := f.svc.ProcessTurn(ctx, &entities.TurnRequest{
			SessionID:      "s1",
			ExplicitIntent: "find_product",
			Payload:        payload,
		})
		require.NoError(t, err)
	}

	assert.Equal(t, 1, f.catalog.searchCount())
}

func TestProcessTurn_TrackOrderShortcutCommitsOrderRef(t *testing.T) {
	f := newConversationFixture()
	f.orders.orders["MV-1001"] = &entities.OrderStatus{
		OrderID: "MV-1001", Status: "in transit", Carrier: "UPS",
		TrackingURL: "https://track.test/MV-1001", EmailHint: "a***@example.com",
	}

	resp, err := f.svc.ProcessTurn(context.Background(), &entities.TurnRequest{
		SessionID: "s1",
		Text:      "/track mv-1001",
	})

	require.NoError(t, err)
	require.NotNil(t, resp.Order)
	assert.Equal(t, "in transit", resp.Order.Status)
	assert.Equal(t, []string{"MV-1001:s1"}, f.orders.subscriptions)

	snapshot := f.store.Snapshot("s1")
	require.NotNil(t, snapshot.LastOrderRef)
	assert.Equal(t, "MV-1001", snapshot.LastOrderRef.OrderID)
}

func TestProcessTurn_EmailZipLookupSubscribesResolvedOrder(t *testing.T) {
	f := newConversationFixture()
	f.orders.orders["MV-7777"] = &entities.OrderStatus{
		OrderID: "MV-7777", Status: "shipped", Carrier: "FedEx",
		EmailHint: "ada@example.com",
	}

	resp, err := f.svc.ProcessTurn(context.Background(), &entities.TurnRequest{
		SessionID:      "s1",
		ExplicitIntent: "track_order",
		Payload:        &entities.TurnPayload{Email: "ada@example.com", Zip: "10001"},
	})

	require.NoError(t, err)
	require.NotNil(t, resp.Order)
	assert.Equal(t, "MV-7777", resp.Order.OrderID)
	// The subscription carries the id the lookup resolved, not the empty
	// one the caller supplied.
	assert.Equal(t, []string{"MV-7777:s1"}, f.orders.subscriptions)

	snapshot := f.store.Snapshot("s1")
	require.NotNil(t, snapshot.LastOrderRef)
	assert.Equal(t, "MV-7777", snapshot.LastOrderRef.OrderID)
}

func TestProcessTurn_OrderNotFoundIsConversational(t *testing.T) {
	f := newConversationFixture()

	resp, err := f.svc.ProcessTurn(context.Background(), &entities.TurnRequest{
		SessionID: "s1",
		Text:      "/track MV-9999",
	})

	require.NoError(t, err)
	assert.Equal(t, entities.StateAwaitingOrderLookup, resp.State)
	require.NotNil(t, resp.Form)
	assert.Nil(t, resp.Order)
	// The miss short-circuits the turn; no subscription is attempted.
	assert.Empty(t, f.orders.subscriptions)
}

func TestProcessTurn_ReturnUsesCarriedOrderContext(t *testing.T) {
	f := newConversationFixture()
	f.orders.orders["MV-2002"] = &entities.OrderStatus{OrderID: "MV-2002", Status: "delivered"}
	ctx := context.Background()

	_, err := f.svc.ProcessTurn(ctx, &entities.TurnRequest{SessionID: "s1", Text: "/track MV-2002"})
	require.NoError(t, err)

	resp, err := f.svc.ProcessTurn(ctx, &entities.TurnRequest{
		SessionID: "s1",
		Text:      "I want to return it",
		Payload:   &entities.TurnPayload{Reason: "wrong size"},
	})

	require.NoError(t, err)
	require.NotNil(t, resp.Return)
	assert.Equal(t, "RMA-MV-2002", resp.Return.RMAID)
	assert.Equal(t, entities.StateAwaitingCSAT, resp.State)
}

func TestProcessTurn_DuplicateReturnReplaysSameRMA(t *testing.T) {
	f := newConversationFixture()
	ctx := context.Background()
	req := &entities.TurnRequest{
		SessionID: "s1",
		Text:      "start a return please",
		Payload:   &entities.TurnPayload{OrderID: "MV-3003", Reason: "changed my mind"},
	}

	first, err := f.svc.ProcessTurn(ctx, req)
	require.NoError(t, err)
	assert.False(t, first.Duplicate)

	second, err := f.svc.ProcessTurn(ctx, req)
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.Equal(t, first.Return.RMAID, second.Return.RMAID)
	// The collaborator ran exactly once.
	assert.Equal(t, 1, f.returns.callCount())
	assert.Contains(t, f.sink.eventNames(), entities.EventActionDuplicate)
}

func TestProcessTurn_CapsuleReservationCommitsHold(t *testing.T) {
	f := newConversationFixture()

	resp, err := f.svc.ProcessTurn(context.Background(), &entities.TurnRequest{
		SessionID: "s1",
		Text:      "reserve these in a capsule",
		Payload:   &entities.TurnPayload{ShortlistAdd: []string{"p1", "p2"}},
	})

	require.NoError(t, err)
	require.NotNil(t, resp.Offer)
	assert.Equal(t, "CAP-1", resp.Offer.CapsuleID)
	require.NotNil(t, resp.Offer.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(48*time.Hour), *resp.Offer.ExpiresAt, time.Minute)

	snapshot := f.store.Snapshot("s1")
	require.NotNil(t, snapshot.CapsuleHold)
	assert.Equal(t, "CAP-1", snapshot.CapsuleHold.ID)
	assert.Equal(t, []string{"p1", "p2"}, snapshot.Shortlist)
}

func TestProcessTurn_FailedActionAbortsSessionCommit(t *testing.T) {
	f := newConversationFixture()
	f.returns.err = errors.New("returns gateway down")

	_, err := f.svc.ProcessTurn(context.Background(), &entities.TurnRequest{
		SessionID: "s1",
		Text:      "return my order",
		Payload:   &entities.TurnPayload{OrderID: "MV-3003", Reason: "damaged"},
	})

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
	// Nothing committed: the session is still where it started.
	assert.Equal(t, entities.StateWelcome, f.store.Snapshot("s1").State)
	assert.Contains(t, f.sink.eventNames(), entities.EventActionFailed)
}

func TestProcessTurn_LowCSATEscalatesSameTurn(t *testing.T) {
	f := newConversationFixture()

	resp, err := f.svc.ProcessTurn(context.Background(), &entities.TurnRequest{
		SessionID:      "s1",
		ExplicitIntent: "csat",
		Payload:        &entities.TurnPayload{Rating: intp(1), Email: "ada@example.com", Name: "Ada"},
	})

	require.NoError(t, err)
	require.NotNil(t, resp.Ticket)
	require.Len(t, f.csat.records, 1)
	assert.Equal(t, 1, f.csat.records[0].Rating)
	require.Len(t, f.ticketing.tickets, 1)
	assert.Contains(t, f.sink.eventNames(), entities.EventCSATRecorded)
	assert.Contains(t, f.sink.eventNames(), entities.EventEscalationOpened)
}

func TestProcessTurn_UnknownIntentLeavesStateAndOffersQuickReplies(t *testing.T) {
	f := newConversationFixture()
	ctx := context.Background()

	_, err := f.svc.ProcessTurn(ctx, &entities.TurnRequest{
		SessionID:      "s1",
		ExplicitIntent: "find_product",
		Payload:        &entities.TurnPayload{Category: "ring"},
	})
	require.NoError(t, err)

	resp, err := f.svc.ProcessTurn(ctx, &entities.TurnRequest{
		SessionID: "s1",
		Text:      "purple unicorn rainbow",
	})

	require.NoError(t, err)
	assert.Equal(t, entities.IntentUnknown, resp.Intent)
	assert.Equal(t, entities.StateCollectingPreferences, resp.State)
	assert.NotEmpty(t, resp.QuickReplies)
}

func TestProcessTurn_EveryResponseCarriesRequestID(t *testing.T) {
	f := newConversationFixture()

	resp, err := f.svc.ProcessTurn(context.Background(), &entities.TurnRequest{
		SessionID: "s1",
		Text:      "hello there",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, resp.RequestID)
	for _, event := range f.sink.published() {
		assert.Equal(t, resp.RequestID, event.RequestID)
	}
}
