package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const DefaultQueueKey = "scheduler:booking_expiry"

// RedisScheduler is a delayed queue of booking ids in a sorted set scored by
// due time. Each id is present at most once, which makes scheduling
// idempotent. An entry is delivered by whichever poller removes it first.
type RedisScheduler struct {
	client *redis.Client
	key    string
	logger *logrus.Logger
}

type Option func(*RedisScheduler)

func WithQueueKey(key string) Option {
	return func(s *RedisScheduler) {
		s.key = key
	}
}

func NewRedisScheduler(client *redis.Client, logger *logrus.Logger, opts ...Option) *RedisScheduler {
	s := &RedisScheduler{client: client, key: DefaultQueueKey, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScheduleOnce queues bookingID for delivery at at. It returns false when an
// entry for the id is already pending; the existing due time is kept.
func (s *RedisScheduler) ScheduleOnce(ctx context.Context, bookingID int64, at time.Time) (bool, error) {
	added, err := s.client.ZAddNX(ctx, s.key, redis.Z{Score: score(at), Member: member(bookingID)}).Result()
	if err != nil {
		return false, fmt.Errorf("schedule booking %d: %w", bookingID, err)
	}
	return added == 1, nil
}

func (s *RedisScheduler) Cancel(ctx context.Context, bookingID int64) error {
	return s.client.ZRem(ctx, s.key, member(bookingID)).Err()
}

func (s *RedisScheduler) Pending(ctx context.Context, bookingID int64) (bool, error) {
	_, err := s.client.ZScore(ctx, s.key, member(bookingID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Claim removes and returns up to limit entries due at or before now.
func (s *RedisScheduler) Claim(ctx context.Context, now time.Time, limit int64) ([]int64, error) {
	members, err := s.client.ZRangeByScore(ctx, s.key, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatFloat(score(now), 'f', -1, 64),
		Count: limit,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("read due entries: %w", err)
	}

	claimed := make([]int64, 0, len(members))
	for _, m := range members {
		removed, err := s.client.ZRem(ctx, s.key, m).Result()
		if err != nil {
			return claimed, fmt.Errorf("claim %s: %w", m, err)
		}
		if removed == 0 {
			continue
		}
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			s.logger.WithField("member", m).Warn("dropping malformed scheduler entry")
			continue
		}
		claimed = append(claimed, id)
	}
	return claimed, nil
}

// Run polls the queue every interval and hands each claimed id to handle
// until ctx is cancelled. Handler errors are logged and the entry is dropped;
// the fallback sweep covers anything left held.
func (s *RedisScheduler) Run(ctx context.Context, interval time.Duration, handle func(context.Context, int64) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ids, err := s.Claim(ctx, time.Now(), 100)
			if err != nil {
				s.logger.WithError(err).Error("scheduler poll failed")
			}
			for _, id := range ids {
				if err := handle(ctx, id); err != nil {
					s.logger.WithError(err).WithField("booking_id", id).Error("scheduled callback failed")
				}
			}
		}
	}
}

func score(t time.Time) float64 {
	return float64(t.Unix())
}

func member(bookingID int64) string {
	return strconv.FormatInt(bookingID, 10)
}
