package services

import (
	"context"
	"encoding/json"

	"razorpay-provider/internal/models"
	"razorpay-provider/pkg/logger"
	"razorpay-provider/pkg/websocket"

	"github.com/redis/go-redis/v9"
)

const PaymentEventsChannel = "payments:events"

// PaymentEventPublisher fans classified webhook events out to live consumers.
type PaymentEventPublisher interface {
	Publish(ctx context.Context, event *models.PaymentEvent) error
}

// HubPublisher delivers events to the websocket clients of this instance.
type HubPublisher struct {
	hub *websocket.Hub
}

func NewHubPublisher(hub *websocket.Hub) *HubPublisher {
	return &HubPublisher{hub: hub}
}

func (p *HubPublisher) Publish(_ context.Context, event *models.PaymentEvent) error {
	room := websocket.RoomAll
	if event.SessionID != "" {
		room = websocket.SessionRoom(event.SessionID)
	}
	p.hub.Publish(room, event.Event, event)
	return nil
}

// EventBus is the pub/sub subset of pkg/cache.
type EventBus interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}

// RedisEventRelay publishes events on Redis so every instance's hub sees
// them, whichever instance received the webhook.
type RedisEventRelay struct {
	bus    EventBus
	local  PaymentEventPublisher
	logger *logger.Logger
}

func NewRedisEventRelay(bus EventBus, local PaymentEventPublisher, log *logger.Logger) *RedisEventRelay {
	return &RedisEventRelay{bus: bus, local: local, logger: log}
}

func (r *RedisEventRelay) Publish(ctx context.Context, event *models.PaymentEvent) error {
	return r.bus.Publish(ctx, PaymentEventsChannel, event)
}

// Run forwards relayed events to the local publisher until ctx is done.
func (r *RedisEventRelay) Run(ctx context.Context) error {
	sub := r.bus.Subscribe(ctx, PaymentEventsChannel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.forward(ctx, msg.Payload)
		}
	}
}

func (r *RedisEventRelay) forward(ctx context.Context, payload string) {
	var event models.PaymentEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		r.logger.WithError(err).Warn("dropping malformed relayed payment event")
		return
	}
	if err := r.local.Publish(ctx, &event); err != nil {
		r.logger.WithError(err).Warn("failed to deliver relayed payment event")
	}
}
