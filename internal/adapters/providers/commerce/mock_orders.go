package commerce

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/maisonvera/concierge/internal/domain/entities"
	"github.com/maisonvera/concierge/internal/domain/providers"
	apperrors "github.com/maisonvera/concierge/pkg/errors"
)

// MockOrderAdapter provides deterministic order lookups for local
// development. The same order id always resolves to the same status, so
// conversation flows can be replayed exactly.
type MockOrderAdapter struct {
	mu            sync.Mutex
	subscriptions map[string][]string
	now           func() time.Time
}

// NewMockOrderAdapter creates a mock order provider.
func NewMockOrderAdapter() *MockOrderAdapter {
	return &MockOrderAdapter{
		subscriptions: make(map[string][]string),
		now:           time.Now,
	}
}

var _ providers.OrderProvider = (*MockOrderAdapter)(nil)

var mockStatuses = []struct {
	status  string
	carrier string
}{
	{"processing", ""},
	{"shipped", "UPS"},
	{"in transit", "FedEx"},
	{"delivered", "DHL"},
}

// Lookup resolves ids with the house prefix; everything else is not found.
func (m *MockOrderAdapter) Lookup(_ context.Context, q providers.OrderLookup) (*entities.OrderStatus, error) {
	orderID := strings.ToUpper(q.OrderID)
	if orderID == "" && q.Email != "" && q.Zip != "" {
		orderID = deriveOrderID(q.Email, q.Zip)
	}
	if !strings.HasPrefix(orderID, "MV-") {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no order matches %q", q.OrderID))
	}

	pick := mockStatuses[checksum(orderID)%len(mockStatuses)]
	status := &entities.OrderStatus{
		OrderID: orderID,
		Status:  pick.status,
		Carrier: pick.carrier,
	}
	if pick.carrier != "" {
		status.TrackingURL = fmt.Sprintf("https://tracking.maisonvera.test/%s", orderID)
		eta := m.now().Add(time.Duration(2+checksum(orderID)%5) * 24 * time.Hour)
		status.EstimatedArrival = &eta
	}
	if q.Email != "" {
		status.EmailHint = maskEmail(q.Email)
	}
	return status, nil
}

// SubscribeUpdates records the subscription in memory.
func (m *MockOrderAdapter) SubscribeUpdates(_ context.Context, orderID, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions[orderID] = append(m.subscriptions[orderID], sessionID)
	return nil
}

// Subscriptions returns the sessions subscribed to an order.
func (m *MockOrderAdapter) Subscriptions(orderID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.subscriptions[orderID]...)
}

func deriveOrderID(email, zip string) string {
	return fmt.Sprintf("MV-%04d", checksum(strings.ToLower(email)+"|"+zip)%10000)
}

func checksum(s string) int {
	sum := sha256.Sum256([]byte(s))
	return int(sum[0])<<8 | int(sum[1])
}

func maskEmail(email string) string {
	at := strings.IndexByte(email, '@')
	if at <= 1 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}
