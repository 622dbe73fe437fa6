package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/endo-ava/link-persona-bot/domain"
)

// Redis implements domain.ConversationStore on top of Redis so persona
// bindings and histories survive restarts.
type Redis struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
	limit  int
	window int
}

var _ domain.ConversationStore = (*Redis)(nil)

type Option func(*Redis)

// WithTTL expires a channel's keys after ttl without activity.
func WithTTL(ttl time.Duration) Option {
	return func(r *Redis) {
		r.ttl = ttl
	}
}

// WithPrefix sets the key prefix for channel keys.
func WithPrefix(prefix string) Option {
	return func(r *Redis) {
		r.prefix = prefix
	}
}

// NewRedis connects to the given server.
func NewRedis(addr, password string, db, limit, window int, opts ...Option) *Redis {
	client := backend.NewClient(&backend.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewRedisFromClient(client, limit, window, opts...)
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(client *backend.Client, limit, window int, opts ...Option) *Redis {
	r := &Redis{
		client: client,
		prefix: "linkpersona:channel:",
		limit:  limit,
		window: window,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Redis) personaKey(channelID string) string {
	return r.prefix + channelID + ":persona"
}

func (r *Redis) historyKey(channelID string) string {
	return r.prefix + channelID + ":history"
}

func (r *Redis) indexKey() string {
	return r.prefix + "index"
}

// Ping checks the connection.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) SetPersona(ctx context.Context, channelID, personaID string) error {
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.personaKey(channelID), personaID, r.ttl)
	pipe.SAdd(ctx, r.indexKey(), channelID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set persona: %w", err)
	}
	return nil
}

func (r *Redis) GetPersona(ctx context.Context, channelID string) (string, bool, error) {
	id, err := r.client.Get(ctx, r.personaKey(channelID)).Result()
	if errors.Is(err, backend.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get persona: %w", err)
	}
	return id, true, nil
}

func (r *Redis) AppendMessage(ctx context.Context, channelID string, role domain.Role, content string) error {
	data, err := json.Marshal(domain.ChatMessage{Role: role, Content: content})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	key := r.historyKey(channelID)
	pipe := r.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.LTrim(ctx, key, int64(-r.limit), -1)
	pipe.SAdd(ctx, r.indexKey(), channelID)
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

func (r *Redis) RecentHistory(ctx context.Context, channelID string, n int) ([]domain.ChatMessage, error) {
	if n <= 0 {
		n = r.window
	}
	start := int64(0)
	if n > 0 {
		start = int64(-n)
	}
	raw, err := r.client.LRange(ctx, r.historyKey(channelID), start, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	history := make([]domain.ChatMessage, 0, len(raw))
	for _, item := range raw {
		var msg domain.ChatMessage
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message: %w", err)
		}
		history = append(history, msg)
	}
	return history, nil
}

func (r *Redis) ClearHistory(ctx context.Context, channelID string) error {
	if err := r.client.Del(ctx, r.historyKey(channelID)).Err(); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

func (r *Redis) ResetPersona(ctx context.Context, channelID string) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.personaKey(channelID), r.historyKey(channelID))
	pipe.SRem(ctx, r.indexKey(), channelID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to reset persona: %w", err)
	}
	return nil
}

func (r *Redis) Stats(ctx context.Context) (domain.ConversationStats, error) {
	var stats domain.ConversationStats

	channels, err := r.client.SMembers(ctx, r.indexKey()).Result()
	if err != nil {
		return stats, fmt.Errorf("failed to list channels: %w", err)
	}

	for _, id := range channels {
		hasPersona, err := r.client.Exists(ctx, r.personaKey(id)).Result()
		if err != nil {
			return stats, fmt.Errorf("failed to read channel %s: %w", id, err)
		}
		length, err := r.client.LLen(ctx, r.historyKey(id)).Result()
		if err != nil {
			return stats, fmt.Errorf("failed to read channel %s: %w", id, err)
		}
		if hasPersona == 0 && length == 0 {
			continue
		}
		stats.Channels++
		if hasPersona > 0 {
			stats.ChannelsWithPersona++
		}
		stats.TotalMessages += int(length)
	}
	return stats, nil
}

// Close closes the redis client.
func (r *Redis) Close() error {
	return r.client.Close()
}
