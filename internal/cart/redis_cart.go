package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Domenick1991/resortbooking/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrSessionNotFound = errors.New("checkout session not found")

// LineItem is the single "pay now" entry handed to checkout. Booking carries
// the full snapshot so order creation can read it back.
type LineItem struct {
	BookingID int64          `json:"booking_id"`
	Label     string         `json:"label"`
	Price     float64        `json:"price"`
	Quantity  int            `json:"quantity"`
	Booking   domain.Booking `json:"booking"`
}

type Session struct {
	ID        string     `json:"id"`
	Items     []LineItem `json:"items"`
	CreatedAt time.Time  `json:"created_at"`
}

func (s Session) BookingIDs() []int64 {
	ids := make([]int64, 0, len(s.Items))
	for _, item := range s.Items {
		ids = append(ids, item.BookingID)
	}
	return ids
}

// RedisCart keeps checkout sessions in redis with a sliding TTL.
type RedisCart struct {
	client      *redis.Client
	checkoutURL string
	ttl         time.Duration
}

func NewRedisCart(client *redis.Client, checkoutURL string, ttl time.Duration) *RedisCart {
	return &RedisCart{client: client, checkoutURL: checkoutURL, ttl: ttl}
}

// StartCheckout replaces the session contents with one line item priced at
// the booking's pay-now amount. An empty sessionID starts a new session.
func (c *RedisCart) StartCheckout(ctx context.Context, sessionID string, booking domain.Booking) (string, string, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	session := Session{
		ID:        sessionID,
		Items:     []LineItem{NewLineItem(booking)},
		CreatedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(session)
	if err != nil {
		return "", "", err
	}

	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, sessionKey(sessionID))
		pipe.Set(ctx, sessionKey(sessionID), data, c.ttl)
		pipe.Set(ctx, bookingKey(booking.ID), sessionID, c.ttl)
		return nil
	})
	if err != nil {
		return "", "", fmt.Errorf("store checkout session: %w", err)
	}

	return sessionID, RedirectURL(c.checkoutURL, sessionID), nil
}

func (c *RedisCart) Get(ctx context.Context, sessionID string) (*Session, error) {
	data, err := c.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decode checkout session: %w", err)
	}
	return &session, nil
}

// BookingIDs resolves the bookings referenced by a checkout session.
func (c *RedisCart) BookingIDs(ctx context.Context, sessionID string) ([]int64, error) {
	session, err := c.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return session.BookingIDs(), nil
}

func (c *RedisCart) Clear(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx, sessionKey(sessionID)).Err()
}

func NewLineItem(booking domain.Booking) LineItem {
	label := "Booking #" + strconv.FormatInt(booking.ID, 10)
	if booking.RoomName != "" {
		label += ": " + booking.RoomName
	}
	return LineItem{
		BookingID: booking.ID,
		Label:     label,
		Price:     booking.PayNow,
		Quantity:  1,
		Booking:   booking,
	}
}

func RedirectURL(base, sessionID string) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "session=" + url.QueryEscape(sessionID)
}

func sessionKey(id string) string {
	return "cart:session:" + id
}

func bookingKey(id int64) string {
	return "cart:booking:" + strconv.FormatInt(id, 10)
}
