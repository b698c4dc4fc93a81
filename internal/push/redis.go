package push

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const userChannelPrefix = "notify:user:"

// RedisChannel publishes payloads to a per-user Redis channel. Gateway
// processes holding the client connections subscribe to the channels of
// their connected users and forward what arrives.
type RedisChannel struct {
	client *redis.Client
}

// NewRedisChannel wraps an established client.
func NewRedisChannel(client *redis.Client) *RedisChannel {
	return &RedisChannel{client: client}
}

// PushToUser publishes to the user's channel. Zero subscribers is not an
// error; the user simply is not connected right now.
func (c *RedisChannel) PushToUser(ctx context.Context, userID string, payload []byte) error {
	if err := c.client.Publish(ctx, userChannelPrefix+userID, payload).Err(); err != nil {
		return fmt.Errorf("push to user %s: %w", userID, err)
	}
	return nil
}
