package queue

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Message represents a message read from a Redis stream.
type Message struct {
	ID    string        // Redis message ID (e.g., "1702000000000-0")
	Event TimelineEvent // Parsed event data
}

// Consumer defines the interface for consuming events from a stream.
type Consumer interface {
	// EnsureGroup creates the consumer group if it doesn't exist.
	// Should be called at worker startup.
	EnsureGroup(ctx context.Context, stream, group string) error

	// Read reads new messages from the stream for this consumer using
	// XREADGROUP, blocking up to `block` waiting for messages.
	Read(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]Message, error)

	// ReadPending reads messages that were delivered to this consumer but
	// never acknowledged, for crash recovery at startup.
	ReadPending(ctx context.Context, stream, group, consumer string, count int64) ([]Message, error)

	// Ack acknowledges that messages have been processed.
	Ack(ctx context.Context, stream, group string, messageIDs ...string) error
}

// RedisConsumer implements Consumer using Redis Streams.
type RedisConsumer struct {
	client *redis.Client
}

// NewConsumer creates a new Consumer backed by Redis Streams.
func NewConsumer(client *redis.Client) Consumer {
	return &RedisConsumer{client: client}
}

// EnsureGroup creates the consumer group with MKSTREAM so the stream is
// created too if needed. Starting at "0" lets the group pick up messages
// published before the first worker came up.
func (c *RedisConsumer) EnsureGroup(ctx context.Context, stream, group string) error {
	err := c.client.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	if err != nil {
		// BUSYGROUP means the group already exists
		if strings.Contains(err.Error(), "BUSYGROUP") {
			return nil
		}
		return fmt.Errorf("create consumer group: %w", err)
	}

	log.Printf("[Consumer] created group=%s on stream=%s", group, stream)
	return nil
}

// Read reads only messages not yet delivered to any consumer (">" id).
func (c *RedisConsumer) Read(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]Message, error) {
	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{stream, ">"},
		Count:    count,
		Block:    block,
	}).Result()

	if err == redis.Nil {
		// Timeout, no new messages
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("xreadgroup: %w", err)
	}

	messages, malformed := parseMessages(streams)
	c.ackMalformed(ctx, stream, group, malformed)
	return messages, nil
}

// ReadPending uses id "0" to re-read this consumer's unacknowledged messages.
func (c *RedisConsumer) ReadPending(ctx context.Context, stream, group, consumer string, count int64) ([]Message, error) {
	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{stream, "0"},
		Count:    count,
	}).Result()

	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("xreadgroup pending: %w", err)
	}

	messages, malformed := parseMessages(streams)
	c.ackMalformed(ctx, stream, group, malformed)
	return messages, nil
}

// Ack acknowledges messages using XACK.
func (c *RedisConsumer) Ack(ctx context.Context, stream, group string, messageIDs ...string) error {
	if len(messageIDs) == 0 {
		return nil
	}

	if err := c.client.XAck(ctx, stream, group, messageIDs...).Err(); err != nil {
		return fmt.Errorf("xack: %w", err)
	}
	return nil
}

// ackMalformed acknowledges messages that failed to parse. They can never be
// processed, so leaving them pending would only make every worker restart
// re-scan them.
func (c *RedisConsumer) ackMalformed(ctx context.Context, stream, group string, ids []string) {
	if len(ids) == 0 {
		return
	}
	if err := c.client.XAck(ctx, stream, group, ids...).Err(); err != nil {
		log.Printf("[Consumer] failed to ack malformed messages: ids=%v err=%v", ids, err)
	}
}

// parseMessages splits a read batch into parsed messages and the IDs of
// malformed ones, which the caller acknowledges and drops.
func parseMessages(streams []redis.XStream) ([]Message, []string) {
	var messages []Message
	var malformed []string
	for _, s := range streams {
		for _, msg := range s.Messages {
			event, err := ParseTimelineEvent(msg.Values)
			if err != nil {
				log.Printf("[Consumer] parse error, dropping message: msgID=%s err=%v", msg.ID, err)
				malformed = append(malformed, msg.ID)
				continue
			}
			messages = append(messages, Message{ID: msg.ID, Event: event})
		}
	}
	return messages, malformed
}
