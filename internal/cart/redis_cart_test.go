package cart

import (
	"testing"

	"github.com/Domenick1991/resortbooking/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestNewLineItem(t *testing.T) {
	b := domain.Booking{ID: 12, RoomName: "Lagoon Villa", PayNow: 1000, Total: 10000}

	item := NewLineItem(b)

	assert.Equal(t, int64(12), item.BookingID)
	assert.Equal(t, "Booking #12: Lagoon Villa", item.Label)
	assert.Equal(t, 1000.0, item.Price)
	assert.Equal(t, 1, item.Quantity)
	assert.Equal(t, b, item.Booking)
}

func TestRedirectURL(t *testing.T) {
	assert.Equal(t, "/checkout?session=abc", RedirectURL("/checkout", "abc"))
	assert.Equal(t, "https://shop.example/pay?step=1&session=a+b", RedirectURL("https://shop.example/pay?step=1", "a b"))
}

func TestSession_BookingIDs(t *testing.T) {
	s := Session{Items: []LineItem{{BookingID: 1}, {BookingID: 5}}}
	assert.Equal(t, []int64{1, 5}, s.BookingIDs())
}
