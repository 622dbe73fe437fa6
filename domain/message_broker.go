package domain

import (
	"context"
	"time"
)

// MessageBroker defines the interface for message broker operations
type MessageBroker interface {
	// Publish sends a message to a specific topic/channel with a routing key
	Publish(ctx context.Context, topic string, routingKey string, message []byte) error

	// Subscribe listens for messages on a specific topic/channel and routing key
	Subscribe(ctx context.Context, topic string, routingKey string) (<-chan Message, error)

	// Close closes the message broker connection
	Close() error
}

// Message represents a message received from the broker
type Message struct {
	Topic      string
	RoutingKey string
	Payload    []byte
	Timestamp  time.Time
}

const SummaryTopic = "summary.created"

// SummaryEvent is published after every successful article summary.
type SummaryEvent struct {
	ID           string      `json:"id"`
	ChannelID    string      `json:"channelId,omitempty"`
	PersonaID    string      `json:"personaId"`
	Persona      PersonaInfo `json:"persona"`
	ArticleTitle string      `json:"articleTitle"`
	ArticleURL   string      `json:"articleUrl"`
	Summary      string      `json:"summary"`
	CreatedAt    time.Time   `json:"createdAt"`
}
