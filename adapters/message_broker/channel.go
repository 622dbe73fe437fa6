package message_broker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/endo-ava/link-persona-bot/domain"
	"github.com/endo-ava/link-persona-bot/utils/log"
)

const topicBuffer = 100

// ChannelMessageBroker implements MessageBroker using Go channels. Every
// topic and routing key pair owns one buffered channel shared by its
// subscribers.
type ChannelMessageBroker struct {
	topics map[string]chan domain.Message
	mu     sync.RWMutex
	closed bool
}

func NewChannelMessageBroker() *ChannelMessageBroker {
	return &ChannelMessageBroker{
		topics: make(map[string]chan domain.Message),
	}
}

func makeKey(topic, routingKey string) string {
	return topic + ":" + routingKey
}

// channelFor returns the channel for key, creating it on first use.
// Callers must hold the write lock.
func (b *ChannelMessageBroker) channelFor(key string) chan domain.Message {
	channel, exists := b.topics[key]
	if !exists {
		channel = make(chan domain.Message, topicBuffer)
		b.topics[key] = channel
	}
	return channel
}

// Publish sends a message without blocking; a full topic is an error.
func (b *ChannelMessageBroker) Publish(ctx context.Context, topic string, routingKey string, message []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("message broker is closed")
	}

	channel := b.channelFor(makeKey(topic, routingKey))
	msg := domain.Message{
		Topic:      topic,
		RoutingKey: routingKey,
		Payload:    message,
		Timestamp:  time.Now(),
	}

	select {
	case channel <- msg:
		log.WithCtx(ctx).Debug("📤 Message published to topic",
			zap.String("topic", topic),
			zap.String("routingKey", routingKey),
			zap.Int("payload_size", len(message)))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("topic channel is full: %s:%s", topic, routingKey)
	}
}

// Subscribe returns the channel for topic and routingKey. Subscribers of the
// same topic and key share one channel, so each message reaches only one of
// them; fan-out belongs to the consumer, as websocket.Hub does.
func (b *ChannelMessageBroker) Subscribe(ctx context.Context, topic string, routingKey string) (<-chan domain.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, fmt.Errorf("message broker is closed")
	}

	channel := b.channelFor(makeKey(topic, routingKey))
	log.WithCtx(ctx).Info("📡 Subscribed to topic", zap.String("topic", topic), zap.String("routingKey", routingKey))
	return channel, nil
}

// Close closes every topic channel, ending all subscriptions.
func (b *ChannelMessageBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for key, channel := range b.topics {
		close(channel)
		log.With(zap.String("key", key)).Debug("🔒 Closed topic channel")
	}
	b.topics = make(map[string]chan domain.Message)

	log.With().Info("🔒 Message broker closed")
	return nil
}

func (b *ChannelMessageBroker) TopicCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics)
}

func (b *ChannelMessageBroker) IsClosed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.closed
}
