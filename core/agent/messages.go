package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/siherrmann/finrag/model"
)

// DefaultSession is used when the context carries no session id.
const DefaultSession = "default"

type sessionKey struct{}

// WithSession attaches a message log session id to ctx.
func WithSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionKey{}, sessionID)
}

// SessionFromContext returns the session id of ctx or DefaultSession.
func SessionFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(sessionKey{}).(string); ok && id != "" {
		return id
	}
	return DefaultSession
}

// MessageLog records the question and answer turns of a session.
type MessageLog interface {
	Append(ctx context.Context, sessionID string, messages ...model.Message) error
	History(ctx context.Context, sessionID string) ([]model.Message, error)
}

// MemoryMessageLog keeps sessions in process memory.
type MemoryMessageLog struct {
	mu       sync.Mutex
	sessions map[string][]model.Message
}

func NewMemoryMessageLog() *MemoryMessageLog {
	return &MemoryMessageLog{sessions: map[string][]model.Message{}}
}

func (l *MemoryMessageLog) Append(ctx context.Context, sessionID string, messages ...model.Message) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sessions[sessionID] = append(l.sessions[sessionID], messages...)
	return nil
}

func (l *MemoryMessageLog) History(ctx context.Context, sessionID string) ([]model.Message, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	history := make([]model.Message, len(l.sessions[sessionID]))
	copy(history, l.sessions[sessionID])
	return history, nil
}

// RedisMessageLog stores each session as a Redis list of JSON messages.
type RedisMessageLog struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisMessageLog creates a Redis backed log. A zero ttl keeps sessions forever.
func NewRedisMessageLog(client *redis.Client, ttl time.Duration) *RedisMessageLog {
	return &RedisMessageLog{client: client, prefix: "finrag:messages:", ttl: ttl}
}

func (l *RedisMessageLog) key(sessionID string) string {
	return l.prefix + sessionID
}

func (l *RedisMessageLog) Append(ctx context.Context, sessionID string, messages ...model.Message) error {
	if len(messages) == 0 {
		return nil
	}

	values := make([]interface{}, 0, len(messages))
	for _, m := range messages {
		b, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("marshaling message: %w", err)
		}
		values = append(values, b)
	}

	key := l.key(sessionID)
	pipe := l.client.TxPipeline()
	pipe.RPush(ctx, key, values...)
	if l.ttl > 0 {
		pipe.Expire(ctx, key, l.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("appending to redis: %w", err)
	}
	return nil
}

func (l *RedisMessageLog) History(ctx context.Context, sessionID string) ([]model.Message, error) {
	raw, err := l.client.LRange(ctx, l.key(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("reading from redis: %w", err)
	}

	history := make([]model.Message, 0, len(raw))
	for _, r := range raw {
		var m model.Message
		if err := json.Unmarshal([]byte(r), &m); err != nil {
			return nil, fmt.Errorf("unmarshaling message: %w", err)
		}
		history = append(history, m)
	}
	return history, nil
}
