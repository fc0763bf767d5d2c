package scheduler

import (
	"testing"
	"time"

	"github.com/Domenick1991/resortbooking/internal/logger"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestNewRedisScheduler(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	defer client.Close()

	s := NewRedisScheduler(client, logger.Discard())
	assert.Equal(t, DefaultQueueKey, s.key)

	s = NewRedisScheduler(client, logger.Discard(), WithQueueKey("custom"))
	assert.Equal(t, "custom", s.key)
}

func TestScoreAndMember(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, float64(at.Unix()), score(at))
	assert.Equal(t, "42", member(42))
}
