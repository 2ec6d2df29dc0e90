package redis

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"

	"auction-explorer/internal/domain"
)

const auctionEventsChannel = "auction_events"

type EventPublisherImpl struct {
	client *redis.Client
}

func NewEventPublisher(client *redis.Client) *EventPublisherImpl {
	return &EventPublisherImpl{client: client}
}

func (r *EventPublisherImpl) PublishAuctionEvent(ctx context.Context, event *domain.AuctionEvent) error {
	eventData := fmt.Sprintf("%s:%s:%s:%s:%d",
		event.Auction, event.Type, event.Actor, event.AmountWei, event.Timestamp.Unix())

	return r.client.Publish(ctx, auctionEventsChannel, eventData).Err()
}
