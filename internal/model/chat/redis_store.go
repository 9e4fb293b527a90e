package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "geochat:transcript:"

// RedisStore keeps each transcript in a Redis list of JSON encoded messages.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisStore wraps an existing client. A zero ttl keeps transcripts forever;
// otherwise every write slides the expiry forward.
func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: defaultKeyPrefix,
		ttl:    ttl,
	}
}

// NewRedisClient parses a redis:// URL and verifies the connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client := redis.NewClient(opt)
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}
	return client, nil
}

func (s *RedisStore) key(sessionID string) string {
	return s.prefix + sessionID
}

// Load reads the full list for the session.
func (s *RedisStore) Load(ctx context.Context, sessionID string) (Transcript, error) {
	raw, err := s.client.LRange(ctx, s.key(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load transcript: %w", err)
	}
	if len(raw) == 0 {
		return nil, ErrSessionNotFound
	}

	items := make(Transcript, 0, len(raw))
	for i, entry := range raw {
		var msg Message
		if err := json.Unmarshal([]byte(entry), &msg); err != nil {
			return nil, fmt.Errorf("decode transcript entry %d: %w", i, err)
		}
		items = append(items, msg)
	}
	return items, nil
}

// Create seeds the list unless another writer created it first.
func (s *RedisStore) Create(ctx context.Context, sessionID string, seed Transcript) error {
	values, err := encodeMessages(seed)
	if err != nil {
		return err
	}
	if len(values) == 0 {
		return nil
	}

	key := s.key(sessionID)
	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.RPush(ctx, key, values...)
			if s.ttl > 0 {
				pipe.Expire(ctx, key, s.ttl)
			}
			return nil
		})
		return err
	}, key)

	// A concurrent Create won the race; the session exists either way.
	if errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("create transcript: %w", err)
	}
	return nil
}

// Append pushes msgs atomically. RPUSHX refuses to create a missing list.
func (s *RedisStore) Append(ctx context.Context, sessionID string, msgs ...Message) error {
	values, err := encodeMessages(msgs)
	if err != nil {
		return err
	}
	if len(values) == 0 {
		return nil
	}

	key := s.key(sessionID)
	var push *redis.IntCmd
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		push = pipe.RPushX(ctx, key, values...)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("append transcript: %w", err)
	}
	if push.Val() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func encodeMessages(msgs []Message) ([]any, error) {
	values := make([]any, 0, len(msgs))
	for _, msg := range msgs {
		data, err := json.Marshal(msg)
		if err != nil {
			return nil, fmt.Errorf("encode message: %w", err)
		}
		values = append(values, string(data))
	}
	return values, nil
}
