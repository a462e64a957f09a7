package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/maisonvera/concierge/internal/domain/entities"
	"github.com/maisonvera/concierge/internal/domain/providers"
	redisclient "github.com/maisonvera/concierge/internal/infrastructure/clients/redis"
	"github.com/maisonvera/concierge/internal/infrastructure/observability"
)

// AnalyticsChannel is the pub/sub channel the concierge publishes turn
// events on. Downstream consumers (warehouse loaders, dashboards)
// subscribe to it directly.
const AnalyticsChannel = "concierge.analytics"

// RedisSink publishes analytics events over Redis Pub/Sub. Delivery is
// at-least-once from the engine's point of view: the emitter retries
// nothing here, it only logs failures, so consumers must dedupe on the
// event id.
type RedisSink struct {
	client  *redisclient.Client
	channel string
}

// NewRedisSink creates a sink publishing on the default analytics channel.
func NewRedisSink(client *redisclient.Client) providers.AnalyticsSink {
	return &RedisSink{
		client:  client,
		channel: AnalyticsChannel,
	}
}

// Publish marshals and publishes one event.
func (s *RedisSink) Publish(ctx context.Context, event *entities.AnalyticsEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal analytics event: %w", err)
	}

	if err := s.client.Client().Publish(ctx, s.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish analytics event: %w", err)
	}

	observability.LoggerFromContext(ctx).Debug().
		Str("channel", s.channel).
		Str("event", event.Name).
		Str("event_id", event.ID).
		Msg("published analytics event")
	return nil
}
