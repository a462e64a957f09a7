package events

import (
	"context"
	"sync"

	"github.com/maisonvera/concierge/internal/domain/entities"
	"github.com/maisonvera/concierge/internal/domain/providers"
	"github.com/maisonvera/concierge/internal/infrastructure/observability"
)

// MemorySink buffers analytics events in memory. Used when the engine
// runs without Redis (local development, tests).
type MemorySink struct {
	mu     sync.Mutex
	events []*entities.AnalyticsEvent
	limit  int
}

// NewMemorySink creates a sink that retains at most limit events,
// dropping the oldest first.
func NewMemorySink(limit int) *MemorySink {
	if limit <= 0 {
		limit = 1000
	}
	return &MemorySink{limit: limit}
}

var _ providers.AnalyticsSink = (*MemorySink)(nil)

// Publish appends the event to the buffer.
func (s *MemorySink) Publish(ctx context.Context, event *entities.AnalyticsEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, event)
	if len(s.events) > s.limit {
		s.events = s.events[len(s.events)-s.limit:]
	}

	observability.LoggerFromContext(ctx).Debug().
		Str("event", event.Name).
		Str("event_id", event.ID).
		Msg("buffered analytics event")
	return nil
}

// Events returns a copy of the buffered events.
func (s *MemorySink) Events() []*entities.AnalyticsEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*entities.AnalyticsEvent(nil), s.events...)
}
