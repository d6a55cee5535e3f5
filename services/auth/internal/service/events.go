package service

import (
	"context"
	"time"

	"github.com/Skotchmaster/restaurant_orders/pkg/events"
	"github.com/Skotchmaster/restaurant_orders/pkg/logging"
)

func publish(ctx context.Context, pub events.Publisher, key, eventType string, payload any) {
	if pub == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := pub.Publish(ctx, TopicUsers, key, events.NewEnvelope(eventType, payload)); err != nil {
		logging.FromContext(ctx).Error("publish_event_failed", "type", eventType, "error", err)
	}
}
