package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Pub/sub channels carrying outbound events to downstream consumers.
const (
	ChannelReportGenerated = "reportforge:report_generated"
	ChannelReportFailed    = "reportforge:report_failed"
)

// Publisher emits outbound events. Implemented over Redis pub/sub; faked in tests.
type Publisher interface {
	PublishGenerated(ctx context.Context, event ReportGenerated) error
	PublishFailed(ctx context.Context, event ReportGenerationFailed) error
}

// RedisPublisher publishes outbound events on Redis pub/sub channels.
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher wraps an existing Redis client.
func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

// PublishGenerated emits a ReportGenerated event.
func (p *RedisPublisher) PublishGenerated(ctx context.Context, event ReportGenerated) error {
	return p.publish(ctx, ChannelReportGenerated, event)
}

// PublishFailed emits a ReportGenerationFailed event.
func (p *RedisPublisher) PublishFailed(ctx context.Context, event ReportGenerationFailed) error {
	return p.publish(ctx, ChannelReportFailed, event)
}

func (p *RedisPublisher) publish(ctx context.Context, channel string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal outbound event: %w", err)
	}
	if err := p.client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish to %q: %w", channel, err)
	}
	return nil
}
