// Package presence keeps short-lived typing state in Redis. Keys expire on
// their own, so a client that disconnects mid-typing simply ages out.
package presence

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const typingTTL = 6 * time.Second

type Store interface {
	SetTyping(ctx context.Context, conversationID, userID string, isTyping bool) error
	TypingUsers(ctx context.Context, conversationID string) ([]string, error)
}

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func typingKey(conversationID, userID string) string {
	return fmt.Sprintf("typing:%s:%s", conversationID, userID)
}

func (s *RedisStore) SetTyping(ctx context.Context, conversationID, userID string, isTyping bool) error {
	key := typingKey(conversationID, userID)
	if !isTyping {
		return s.client.Del(ctx, key).Err()
	}
	return s.client.Set(ctx, key, "1", typingTTL).Err()
}

func (s *RedisStore) TypingUsers(ctx context.Context, conversationID string) ([]string, error) {
	pattern := typingKey(conversationID, "*")
	prefix := typingKey(conversationID, "")

	var users []string
	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		users = append(users, key[len(prefix):])
	}
	return users, iter.Err()
}

// NopStore is used when Redis is not configured.
type NopStore struct{}

func (NopStore) SetTyping(context.Context, string, string, bool) error { return nil }
func (NopStore) TypingUsers(context.Context, string) ([]string, error) { return nil, nil }
