package providers

import (
	"context"

	"github.com/maisonvera/concierge/internal/domain/entities"
)

// CatalogFilter is the structured query sent to the catalog collaborator.
// The recommendation engine scores whatever snapshot comes back; the hard
// filter stage is applied in-engine so ordering stays deterministic.
type CatalogFilter struct {
	Category string
	Limit    int
}

// CatalogProvider exposes the product catalog.
type CatalogProvider interface {
	// Search returns a catalog snapshot in stable catalog order.
	Search(ctx context.Context, filter CatalogFilter) ([]*entities.Product, error)
}

// OrderLookup identifies an order by id or by email+zip.
type OrderLookup struct {
	OrderID string
	Email   string
	Zip     string
}

// OrderProvider exposes the order backend.
type OrderProvider interface {
	// Lookup resolves an order. Returns a NOT_FOUND AppError when no
	// order matches.
	Lookup(ctx context.Context, q OrderLookup) (*entities.OrderStatus, error)

	// SubscribeUpdates registers the session for shipping notifications.
	SubscribeUpdates(ctx context.Context, orderID, sessionID string) error
}

// ReturnRequest is the returns collaborator's create payload.
type ReturnRequest struct {
	OrderID string
	Reason  string
}

// ReturnsProvider exposes the returns/RMA backend.
type ReturnsProvider interface {
	// CreateReturn opens an RMA. A CONFLICT AppError signals the backend
	// already holds an RMA for this order.
	CreateReturn(ctx context.Context, req ReturnRequest) (*entities.ReturnResult, error)
}

// TicketRequest is the ticketing collaborator's create payload.
type TicketRequest struct {
	Name    string
	Email   string
	Phone   string
	Context string
}

// TicketingProvider exposes the CRM ticketing backend.
type TicketingProvider interface {
	CreateTicket(ctx context.Context, req TicketRequest) (*entities.TicketResult, error)
}

// CapsuleRequest reserves shortlisted items for a session.
type CapsuleRequest struct {
	SessionID string
	ItemIDs   []string
}

// CapsuleStore exposes the capsule reservation backend.
type CapsuleStore interface {
	Reserve(ctx context.Context, req CapsuleRequest) (*entities.CapsuleReservation, error)
}

// CSATRecord is a satisfaction rating tied to a session.
type CSATRecord struct {
	SessionID string
	Rating    int
	Comment   string
}

// CSATProvider records satisfaction ratings.
type CSATProvider interface {
	Record(ctx context.Context, rec CSATRecord) error
}

// AnalyticsSink receives turn events with at-least-once delivery.
// Publish failures are logged by the caller and never fail a turn.
type AnalyticsSink interface {
	Publish(ctx context.Context, event *entities.AnalyticsEvent) error
}
