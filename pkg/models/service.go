package models

import "time"

// Service is a catalog entry offered by one provider.
type Service struct {
	ID            string    `json:"id"`
	Title         string    `json:"title" validate:"required_without=Subservice"`
	Category      string    `json:"category"`
	Subservice    string    `json:"subservice"`
	Price         float64   `json:"price" validate:"gte=0"`
	ProviderID    string    `json:"provider_id"`
	ProviderName  string    `json:"provider_name"`
	ProviderPhone string    `json:"provider_phone"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// DisplayTitle falls back to the subservice name, then to a generic label.
func (s *Service) DisplayTitle() string {
	if s.Title != "" {
		return s.Title
	}
	if s.Subservice != "" {
		return s.Subservice
	}
	return "Service"
}
