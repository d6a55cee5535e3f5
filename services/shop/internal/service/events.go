package service

import (
	"context"
	"time"

	"github.com/Skotchmaster/restaurant_orders/pkg/events"
	"github.com/Skotchmaster/restaurant_orders/pkg/logging"
)

const publishTimeout = 5 * time.Second

// publish is called after the owning transaction committed. Delivery
// failures are logged and never reach the caller.
func publish(ctx context.Context, pub events.Publisher, topic, key, eventType string, payload any) {
	if pub == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := pub.Publish(ctx, topic, key, events.NewEnvelope(eventType, payload)); err != nil {
		logging.FromContext(ctx).Error("publish_event_failed", "topic", topic, "type", eventType, "error", err)
	}
}
