package commerce

import (
	"context"
	"fmt"
	"sync"

	"github.com/maisonvera/concierge/internal/domain/entities"
	"github.com/maisonvera/concierge/internal/domain/providers"
	apperrors "github.com/maisonvera/concierge/pkg/errors"
)

// MockTicketingAdapter creates stylist tickets in memory with sequential
// ids.
type MockTicketingAdapter struct {
	mu      sync.Mutex
	tickets []providers.TicketRequest
}

// NewMockTicketingAdapter creates a mock ticketing provider.
func NewMockTicketingAdapter() *MockTicketingAdapter {
	return &MockTicketingAdapter{}
}

var _ providers.TicketingProvider = (*MockTicketingAdapter)(nil)

// CreateTicket records the request and returns the new ticket id.
func (m *MockTicketingAdapter) CreateTicket(_ context.Context, req providers.TicketRequest) (*entities.TicketResult, error) {
	if req.Email == "" {
		return nil, apperrors.NewValidationError("a contact email is required to open a ticket")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickets = append(m.tickets, req)
	return &entities.TicketResult{TicketID: fmt.Sprintf("TIC-%04d", len(m.tickets))}, nil
}

// Tickets returns a copy of the created tickets.
func (m *MockTicketingAdapter) Tickets() []providers.TicketRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]providers.TicketRequest(nil), m.tickets...)
}
