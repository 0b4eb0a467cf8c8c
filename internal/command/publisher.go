package command

import (
	"context"

	"go.uber.org/zap"
)

// EventPublisher is satisfied by *events.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

// publish is best effort: the write has already committed, so a lost event
// is logged rather than surfaced to the caller.
func publish(ctx context.Context, logger *zap.Logger, p EventPublisher, stream, eventType string, data any) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, stream, eventType, data); err != nil {
		logger.Warn("failed to publish event",
			zap.String("stream", stream),
			zap.String("type", eventType),
			zap.Error(err),
		)
	}
}
