package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/resortbooking/config"
	"github.com/redis/go-redis/v9"
)

// RedisCache keeps read-through copies of registry settings and short-lived
// per-room locks around booking creation.
type RedisCache struct {
	client      *redis.Client
	settingsTTL time.Duration
}

func NewRedisCache(client *redis.Client, settingsTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, settingsTTL: settingsTTL}
}

func NewClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
}

// GetSetting returns nil without error on a cache miss.
func (c *RedisCache) GetSetting(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, settingKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

func (c *RedisCache) SetSetting(ctx context.Context, key string, value []byte) error {
	return c.client.Set(ctx, settingKey(key), value, c.settingsTTL).Err()
}

func (c *RedisCache) DeleteSettings(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	redisKeys := make([]string, 0, len(keys))
	for _, k := range keys {
		redisKeys = append(redisKeys, settingKey(k))
	}
	return c.client.Del(ctx, redisKeys...).Err()
}

func (c *RedisCache) AcquireRoomLock(ctx context.Context, roomID string, checkIn, checkOut time.Time, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, roomLockKey(roomID, checkIn, checkOut), "locked", ttl).Result()
}

func (c *RedisCache) ReleaseRoomLock(ctx context.Context, roomID string, checkIn, checkOut time.Time) error {
	return c.client.Del(ctx, roomLockKey(roomID, checkIn, checkOut)).Err()
}

func settingKey(key string) string {
	return "cache:settings:" + key
}

func roomLockKey(roomID string, checkIn, checkOut time.Time) string {
	return fmt.Sprintf("lock:room:%s:%s:%s", roomID, checkIn.Format("20060102"), checkOut.Format("20060102"))
}

// MarkNotificationSent records a delivered template. It returns false when
// the same template was already marked for the booking.
func (c *RedisCache) MarkNotificationSent(ctx context.Context, bookingID int64, kind string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, fmt.Sprintf("notify:sent:%d:%s", bookingID, kind), time.Now().UTC().Format(time.RFC3339), ttl).Result()
}
