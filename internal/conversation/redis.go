package conversation

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

var _ Log = (*RedisLog)(nil)

// RedisLog keeps one list per user with the newest message at the head
type RedisLog struct {
	client *redis.Client
	prefix string
}

// NewRedisLog connects to a redis:// URI and verifies the connection
func NewRedisLog(ctx context.Context, uri, prefix string) (*RedisLog, error) {
	opts, err := redis.ParseURL(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis uri: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	if prefix == "" {
		prefix = "chat_history"
	}
	return &RedisLog{client: client, prefix: prefix}, nil
}

func (r *RedisLog) key(userID string) string {
	return r.prefix + ":" + userID
}

func (r *RedisLog) Insert(ctx context.Context, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return r.client.LPush(ctx, r.key(msg.UserID), data).Err()
}

func (r *RedisLog) Latest(ctx context.Context, userID string, limit int) ([]Message, error) {
	items, err := r.client.LRange(ctx, r.key(userID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Message, 0, len(items))
	for _, item := range items {
		var msg Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, fmt.Errorf("failed to decode message: %w", err)
		}
		msg.Timestamp = msg.Timestamp.UTC()
		out = append(out, msg)
	}
	return out, nil
}

func (r *RedisLog) DeleteUser(ctx context.Context, userID string) error {
	return r.client.Del(ctx, r.key(userID)).Err()
}

func (r *RedisLog) Close(context.Context) error {
	return r.client.Close()
}
