package models

import "time"

type Profile struct {
	ID         string    `json:"id"`
	TelegramID *int64    `json:"telegram_id,omitempty"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	Address    string    `json:"address"`
	Role       Role      `json:"role"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// bookingSnapshot is the subset of a profile copied onto a new booking.
type bookingSnapshot struct {
	Name    string `validate:"required"`
	Phone   string `validate:"required"`
	Address string
}

func (p *Profile) snapshot() bookingSnapshot {
	return bookingSnapshot{Name: p.Name, Phone: p.Phone, Address: p.Address}
}
