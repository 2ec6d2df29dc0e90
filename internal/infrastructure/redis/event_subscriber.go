package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"auction-explorer/internal/domain"
	"auction-explorer/pkg/logger"
)

type EventSubscriberImpl struct {
	client *redis.Client
	log    logger.Logger
}

func NewEventSubscriber(client *redis.Client, log logger.Logger) *EventSubscriberImpl {
	return &EventSubscriberImpl{
		client: client,
		log:    log,
	}
}

func (r *EventSubscriberImpl) SubscribeToAuctionEvents(ctx context.Context, handler domain.EventHandler) error {
	pubsub := r.client.Subscribe(ctx, auctionEventsChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()

	r.log.Info("Assinado ao barramento de eventos de leilão")

	for {
		select {
		case msg := <-ch:
			event, err := r.parseEventData(msg.Payload)
			if err != nil {
				r.log.Error("Falha ao interpretar evento", "payload", msg.Payload, "error", err)
				continue
			}

			if err := handler(event); err != nil {
				r.log.Error("Falha ao tratar evento", "event", event, "error", err)
			}

		case <-ctx.Done():
			r.log.Info("Assinatura de eventos finalizada")
			return ctx.Err()
		}
	}
}

func (r *EventSubscriberImpl) parseEventData(payload string) (*domain.AuctionEvent, error) {
	// Parse "auction:eventType:actor:amountWei:timestamp"
	parts := strings.Split(payload, ":")
	if len(parts) < 5 {
		return nil, fmt.Errorf("formato de evento inválido: %s", payload)
	}

	timestamp, err := strconv.ParseInt(parts[4], 10, 64)
	if err != nil {
		return nil, err
	}

	return &domain.AuctionEvent{
		Auction:   parts[0],
		Type:      domain.AuctionEventType(parts[1]),
		Actor:     parts[2],
		AmountWei: parts[3],
		Timestamp: time.Unix(timestamp, 0),
	}, nil
}
