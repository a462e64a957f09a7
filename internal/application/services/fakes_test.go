package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/maisonvera/concierge/internal/domain/entities"
	"github.com/maisonvera/concierge/internal/domain/providers"
	apperrors "github.com/maisonvera/concierge/pkg/errors"
)

// fakeCache is an in-memory CacheProvider used across the service tests.
type fakeCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (c *fakeCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.data[key]
	if !ok {
		return nil, apperrors.NewNotFoundError("cache key not found")
	}
	return value, nil
}

func (c *fakeCache) Set(_ context.Context, key string, value []byte, _ int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = append([]byte(nil), value...)
	return nil
}

func (c *fakeCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *fakeCache) Exists(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok, nil
}

var _ providers.CacheProvider = (*fakeCache)(nil)

// fakeCatalog serves a fixed snapshot and counts searches so tests can
// assert on snapshot caching.
type fakeCatalog struct {
	mu       sync.Mutex
	products []*entities.Product
	searches int
	err      error
}

func (f *fakeCatalog) Search(_ context.Context, _ providers.CatalogFilter) ([]*entities.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches++
	if f.err != nil {
		return nil, f.err
	}
	return f.products, nil
}

func (f *fakeCatalog) searchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.searches
}

// fakeOrders resolves lookups against a fixed order map. transientErrs are
// consumed one per Lookup call before the real answer, which lets tests
// exercise the read retry.
type fakeOrders struct {
	mu            sync.Mutex
	orders        map[string]*entities.OrderStatus
	transientErrs []error
	lookups       int
	subscriptions []string
	subscribeErr  error
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{orders: make(map[string]*entities.OrderStatus)}
}

func (f *fakeOrders) Lookup(_ context.Context, q providers.OrderLookup) (*entities.OrderStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	if len(f.transientErrs) > 0 {
		err := f.transientErrs[0]
		f.transientErrs = f.transientErrs[1:]
		return nil, err
	}
	if q.OrderID != "" {
		if status, ok := f.orders[q.OrderID]; ok {
			return status, nil
		}
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no order %s", q.OrderID))
	}
	for _, status := range f.orders {
		if status.EmailHint == q.Email {
			return status, nil
		}
	}
	return nil, apperrors.NewNotFoundError("no order matches that email and zip")
}

func (f *fakeOrders) SubscribeUpdates(_ context.Context, orderID, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subscribeErr != nil {
		return f.subscribeErr
	}
	f.subscriptions = append(f.subscriptions, orderID+":"+sessionID)
	return nil
}

func (f *fakeOrders) lookupCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lookups
}

// fakeReturns hands out deterministic RMA ids per order.
type fakeReturns struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeReturns) CreateReturn(_ context.Context, req providers.ReturnRequest) (*entities.ReturnResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &entities.ReturnResult{
		RMAID:    "RMA-" + req.OrderID,
		LabelURL: "https://labels.maisonvera.test/RMA-" + req.OrderID,
	}, nil
}

func (f *fakeReturns) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeTicketing struct {
	mu      sync.Mutex
	tickets []providers.TicketRequest
	err     error
}

func (f *fakeTicketing) CreateTicket(_ context.Context, req providers.TicketRequest) (*entities.TicketResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.tickets = append(f.tickets, req)
	return &entities.TicketResult{TicketID: fmt.Sprintf("TIC-%d", len(f.tickets))}, nil
}

type fakeCapsules struct {
	mu       sync.Mutex
	holdTTL  time.Duration
	now      func() time.Time
	reserved []providers.CapsuleRequest
	err      error
}

func newFakeCapsules(holdTTL time.Duration) *fakeCapsules {
	return &fakeCapsules{holdTTL: holdTTL, now: time.Now}
}

func (f *fakeCapsules) Reserve(_ context.Context, req providers.CapsuleRequest) (*entities.CapsuleReservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.reserved = append(f.reserved, req)
	return &entities.CapsuleReservation{
		CapsuleID: fmt.Sprintf("CAP-%d", len(f.reserved)),
		ExpiresAt: f.now().Add(f.holdTTL),
	}, nil
}

type fakeCSAT struct {
	mu      sync.Mutex
	records []providers.CSATRecord
	err     error
}

func (f *fakeCSAT) Record(_ context.Context, rec providers.CSATRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, rec)
	return nil
}

type fakeSink struct {
	mu     sync.Mutex
	events []*entities.AnalyticsEvent
	err    error
}

func (f *fakeSink) Publish(_ context.Context, event *entities.AnalyticsEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakeSink) published() []*entities.AnalyticsEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*entities.AnalyticsEvent(nil), f.events...)
}

func (f *fakeSink) eventNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.events))
	for _, e := range f.events {
		names = append(names, e.Name)
	}
	return names
}
