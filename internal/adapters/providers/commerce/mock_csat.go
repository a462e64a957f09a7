package commerce

import (
	"context"
	"sync"

	"github.com/maisonvera/concierge/internal/domain/providers"
	apperrors "github.com/maisonvera/concierge/pkg/errors"
)

// MockCSATAdapter stores satisfaction ratings in memory.
type MockCSATAdapter struct {
	mu      sync.Mutex
	records []providers.CSATRecord
}

// NewMockCSATAdapter creates a mock CSAT provider.
func NewMockCSATAdapter() *MockCSATAdapter {
	return &MockCSATAdapter{}
}

var _ providers.CSATProvider = (*MockCSATAdapter)(nil)

// Record stores one rating.
func (m *MockCSATAdapter) Record(_ context.Context, rec providers.CSATRecord) error {
	if rec.Rating < 1 || rec.Rating > 5 {
		return apperrors.NewValidationError("rating must be between 1 and 5")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

// Records returns a copy of the stored ratings.
func (m *MockCSATAdapter) Records() []providers.CSATRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]providers.CSATRecord(nil), m.records...)
}
