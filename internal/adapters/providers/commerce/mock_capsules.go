package commerce

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/maisonvera/concierge/internal/domain/entities"
	"github.com/maisonvera/concierge/internal/domain/providers"
	apperrors "github.com/maisonvera/concierge/pkg/errors"
)

// MockCapsuleAdapter reserves capsules in memory.
type MockCapsuleAdapter struct {
	mu      sync.Mutex
	holdTTL time.Duration
	counter int
	now     func() time.Time
}

// NewMockCapsuleAdapter creates a mock capsule store whose holds last
// holdTTL.
func NewMockCapsuleAdapter(holdTTL time.Duration) *MockCapsuleAdapter {
	return &MockCapsuleAdapter{
		holdTTL: holdTTL,
		now:     time.Now,
	}
}

var _ providers.CapsuleStore = (*MockCapsuleAdapter)(nil)

// Reserve creates a hold over the shortlisted items.
func (m *MockCapsuleAdapter) Reserve(_ context.Context, req providers.CapsuleRequest) (*entities.CapsuleReservation, error) {
	if len(req.ItemIDs) == 0 {
		return nil, apperrors.NewValidationError("a capsule needs at least one item")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return &entities.CapsuleReservation{
		CapsuleID: fmt.Sprintf("CAP-%04d", m.counter),
		ExpiresAt: m.now().Add(m.holdTTL),
	}, nil
}
