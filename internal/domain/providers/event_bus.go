package providers

import (
	"context"

	"github.com/movaride/behavior-analytics/internal/domain/entities"
)

// SessionFeedChannel is the pub/sub channel carrying live ingest events.
const SessionFeedChannel = "sessions:feed"

// EventBus fans session events out to live dashboard subscribers.
type EventBus interface {
	// Publish publishes an event to all subscribers of channel.
	Publish(ctx context.Context, channel string, event *entities.SessionEvent) error

	// Subscribe returns a channel of events; it is closed (drained) when
	// ctx is done.
	Subscribe(ctx context.Context, channel string) (<-chan *entities.SessionEvent, error)

	// Close tears down all subscriptions.
	Close() error
}
