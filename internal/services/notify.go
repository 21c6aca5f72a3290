package services

import (
	"context"
	"log/slog"
	"time"

	"portalunk/internal/amqp"
)

// Invalidator drops cached views after a write.
type Invalidator interface {
	Invalidate()
}

// publishTimeout caps how long a write waits on the broker.
const publishTimeout = 2 * time.Second

// notifier announces a committed write. Publishing is best effort: the
// record is already stored, so a broker failure is logged and swallowed.
type notifier struct {
	publisher amqp.Publisher
	cache     Invalidator
	timeout   time.Duration
}

func newNotifier(p amqp.Publisher, c Invalidator) notifier {
	if p == nil {
		p = amqp.NopPublisher{}
	}
	return notifier{publisher: p, cache: c, timeout: publishTimeout}
}

func (n notifier) changed(ctx context.Context, t amqp.MessageType, id string) {
	if n.cache != nil {
		n.cache.Invalidate()
	}
	// Detached from the request so a client disconnect does not drop the
	// event, and bounded so a broker outage does not stall the response.
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	defer cancel()
	if err := n.publisher.Publish(pctx, t, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish finance event",
			"type", t, "entity_id", id, "error", err)
	}
}
