package booking

import (
	"math"

	"github.com/Domenick1991/resortbooking/internal/domain"
)

const DefaultFullPaymentDiscount = 0.05

type Quote struct {
	Total    float64
	Discount float64
	PayNow   float64
	Balance  float64
}

// PriceStay computes what the guest owes from the room's nightly price.
// Deposit mode charges the room deposit up front regardless of stay length.
func PriceStay(pricePerNight, deposit float64, nights, guests int, mode domain.PaymentMode, discountRate float64) Quote {
	total := domain.RoundMoney(pricePerNight * float64(nights) * float64(guests))

	if mode == domain.PaymentModeFull {
		discount := domain.RoundMoney(total * discountRate)
		return Quote{
			Total:    total,
			Discount: discount,
			PayNow:   domain.RoundMoney(total - discount),
			Balance:  0,
		}
	}

	payNow := domain.RoundMoney(deposit)
	return Quote{
		Total:    total,
		Discount: 0,
		PayNow:   payNow,
		Balance:  domain.RoundMoney(math.Max(0, total-payNow)),
	}
}

// RoomsNeeded is the number of units required to seat guests.
func RoomsNeeded(guests, capacity int) int {
	if capacity <= 0 {
		capacity = domain.DefaultCapacity
	}
	if guests <= 0 {
		return 1
	}
	return (guests + capacity - 1) / capacity
}
