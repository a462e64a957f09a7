package commerce

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/maisonvera/concierge/internal/domain/entities"
	"github.com/maisonvera/concierge/internal/domain/providers"
	apperrors "github.com/maisonvera/concierge/pkg/errors"
)

// MockReturnsAdapter issues RMAs in memory. One RMA per order: a second
// create for the same order reports the conflict the way the real
// returns backend would.
type MockReturnsAdapter struct {
	mu   sync.Mutex
	rmas map[string]*entities.ReturnResult
}

// NewMockReturnsAdapter creates a mock returns provider.
func NewMockReturnsAdapter() *MockReturnsAdapter {
	return &MockReturnsAdapter{rmas: make(map[string]*entities.ReturnResult)}
}

var _ providers.ReturnsProvider = (*MockReturnsAdapter)(nil)

// CreateReturn opens an RMA for the order.
func (m *MockReturnsAdapter) CreateReturn(_ context.Context, req providers.ReturnRequest) (*entities.ReturnResult, error) {
	orderID := strings.ToUpper(req.OrderID)
	if orderID == "" {
		return nil, apperrors.NewValidationError("order id is required to open a return")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.rmas[orderID]; exists {
		return nil, apperrors.NewDuplicateError(fmt.Sprintf("an RMA already exists for order %s", orderID))
	}

	result := &entities.ReturnResult{
		RMAID:    "RMA-" + orderID,
		LabelURL: fmt.Sprintf("https://labels.maisonvera.test/RMA-%s.pdf", orderID),
	}
	m.rmas[orderID] = result
	return result, nil
}
