package models

import "math"

type Earnings struct {
	Total         float64 `json:"total"`
	PendingPayout float64 `json:"pending_payout"`
	Completed     int     `json:"completed"`
}

// ComputeEarnings derives provider totals from a booking set. It is pure and
// recomputed from scratch every time the set changes.
func ComputeEarnings(bookings []*Booking) Earnings {
	var e Earnings
	for _, b := range bookings {
		if b == nil || b.Status != StatusCompleted {
			continue
		}
		p := sanePrice(b.Price)
		e.Completed++
		e.Total += p
		if !b.PayoutRequested && !b.Paid {
			e.PendingPayout += p
		}
	}
	return e
}

// PayoutEligible is the same predicate PendingPayout sums over.
func PayoutEligible(b *Booking) bool {
	return b != nil && b.Status == StatusCompleted && !b.PayoutRequested && !b.Paid
}

// Amount is the price as counted towards earnings.
func (b *Booking) Amount() float64 {
	return sanePrice(b.Price)
}

func sanePrice(p float64) float64 {
	if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
		return 0
	}
	return p
}

type PayoutFailure struct {
	BookingID string `json:"booking_id"`
	Error     string `json:"error"`
}

type PayoutResult struct {
	Requested []string        `json:"requested"`
	Failed    []PayoutFailure `json:"failed,omitempty"`
	Amount    float64         `json:"amount"`
}
