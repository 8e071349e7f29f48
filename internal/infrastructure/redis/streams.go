package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// BillingStream carries post-commit billing facts (subscription activations,
// invite acceptances) for downstream consumers such as receipts or analytics.
const BillingStream = "billing:events"

type StreamProducer struct {
	client *redis.Client
}

func NewStreamProducer(client *redis.Client) *StreamProducer {
	return &StreamProducer{client: client}
}

// PublishBillingEvent appends an event to the billing stream. The payload is
// the outbox entry payload; the entry id makes downstream dedup possible.
func (p *StreamProducer) PublishBillingEvent(ctx context.Context, entryID, eventType string, data map[string]any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: BillingStream,
		Values: map[string]any{
			"entry_id":   entryID,
			"event_type": eventType,
			"payload":    string(payload),
			"timestamp":  time.Now().Unix(),
		},
	}

	if _, err := p.client.XAdd(ctx, args).Result(); err != nil {
		return fmt.Errorf("failed to publish billing event: %w", err)
	}

	return nil
}
