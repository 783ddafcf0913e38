package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"jobmate/offer-watcher/internal/model"
)

// ChannelNewOffer is the pub/sub channel new offers are published on.
const ChannelNewOffer = "EVENT_NEW_OFFER"

type publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// RedisPublisher publishes each new offer as JSON for downstream consumers
// (chat bots, the gateway's SSE stream).
type RedisPublisher struct {
	rdb     publisher
	channel string
}

// NewRedisPublisher publishes on ChannelNewOffer.
func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, channel: ChannelNewOffer}
}

type offerMessage struct {
	Type string `json:"type"`
	model.NewOfferEvent
}

func (p *RedisPublisher) Notify(ctx context.Context, ev model.NewOfferEvent) error {
	payload, err := json.Marshal(offerMessage{Type: ChannelNewOffer, NewOfferEvent: ev})
	if err != nil {
		return fmt.Errorf("marshal %s: %w", ChannelNewOffer, err)
	}
	if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", ChannelNewOffer, err)
	}
	return nil
}
