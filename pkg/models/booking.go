package models

import (
	"sort"
	"time"
)

// Booking is a customer's request for one service in one time slot.
// Customer and provider fields are copied at creation and never re-joined.
type Booking struct {
	ID              string     `json:"id"`
	ServiceID       string     `json:"service_id"`
	ServiceTitle    string     `json:"service_title"`
	ProviderID      string     `json:"provider_id"`
	ProviderName    string     `json:"provider_name"`
	ProviderPhone   string     `json:"provider_phone"`
	CustomerID      string     `json:"customer_id"`
	CustomerName    string     `json:"customer_name"`
	CustomerPhone   string     `json:"customer_phone"`
	CustomerAddress string     `json:"customer_address"`
	TimeSlot        string     `json:"time_slot"`
	Price           float64    `json:"price"`
	Status          Status     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	PaymentDone     bool       `json:"payment_done"`
	PaymentDoneAt   *time.Time `json:"payment_done_at,omitempty"`

	Paid              bool       `json:"paid"`
	PaidAt            *time.Time `json:"paid_at,omitempty"`
	PayoutRequested   bool       `json:"payout_requested"`
	PayoutRequestedAt *time.Time `json:"payout_requested_at,omitempty"`
}

// Clone returns a deep copy, so snapshots handed to readers stay immutable.
func (b *Booking) Clone() *Booking {
	if b == nil {
		return nil
	}
	c := *b
	c.PaymentDoneAt = cloneTime(b.PaymentDoneAt)
	c.PaidAt = cloneTime(b.PaidAt)
	c.PayoutRequestedAt = cloneTime(b.PayoutRequestedAt)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// BookingFilter selects bookings by a single owner id. Exactly one of the
// fields is expected to be set.
type BookingFilter struct {
	CustomerID string `json:"customer_id,omitempty"`
	ProviderID string `json:"provider_id,omitempty"`
}

func (f BookingFilter) Matches(b *Booking) bool {
	if b == nil {
		return false
	}
	if f.CustomerID != "" && b.CustomerID != f.CustomerID {
		return false
	}
	if f.ProviderID != "" && b.ProviderID != f.ProviderID {
		return false
	}
	return true
}

func (f BookingFilter) Empty() bool {
	return f.CustomerID == "" && f.ProviderID == ""
}

// BookingChange is the message published after any booking write. It only
// says who may be affected; subscribers reload their full matching set.
type BookingChange struct {
	BookingID  string `json:"booking_id"`
	CustomerID string `json:"customer_id"`
	ProviderID string `json:"provider_id"`
}

func ChangeOf(b *Booking) BookingChange {
	return BookingChange{BookingID: b.ID, CustomerID: b.CustomerID, ProviderID: b.ProviderID}
}

// Affects reports whether a subscriber with filter f could see the change.
func (c BookingChange) Affects(f BookingFilter) bool {
	if f.CustomerID != "" && f.CustomerID != c.CustomerID {
		return false
	}
	if f.ProviderID != "" && f.ProviderID != c.ProviderID {
		return false
	}
	return true
}

type CreateBookingRequest struct {
	ServiceID  string `json:"service_id" validate:"required"`
	TimeSlot   string `json:"time_slot" validate:"required,timeslot"`
	CustomerID string `json:"-"`
}

// Actor is whoever asks for a status change.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// CountByClass tallies bookings per classification for dashboards.
func CountByClass(bookings []*Booking) map[Classification]int {
	out := map[Classification]int{ClassActive: 0, ClassCompleted: 0, ClassClosed: 0}
	for _, b := range bookings {
		if c, ok := b.Status.Classification(); ok {
			out[c]++
		}
	}
	return out
}

// SortNewestFirst orders bookings by creation time, newest first. Equal
// timestamps keep their input order.
func SortNewestFirst(bookings []*Booking) {
	sort.SliceStable(bookings, func(i, j int) bool {
		return bookings[i].CreatedAt.After(bookings[j].CreatedAt)
	})
}
