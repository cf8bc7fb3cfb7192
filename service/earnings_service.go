package service

import (
	"context"
	"errors"
	"fmt"

	"homeservices/pkg/logger"
	"homeservices/pkg/models"
	"homeservices/storage"
)

type EarningsService interface {
	Summary(ctx context.Context, providerID string) (models.Earnings, error)
	// RequestPayout flags every eligible completed booking one at a time.
	// Failures do not stop the batch and nothing is rolled back; the result
	// lists what went through and the joined error lists what did not.
	RequestPayout(ctx context.Context, providerID string) (*models.PayoutResult, error)
	MarkPaid(ctx context.Context, bookingID string) (*models.Booking, error)
}

type earningsService struct {
	stg storage.IStorage
	log logger.ILogger
}

func NewEarningsService(stg storage.IStorage, log logger.ILogger) EarningsService {
	return &earningsService{
		stg: stg,
		log: log,
	}
}

func (s *earningsService) Summary(ctx context.Context, providerID string) (models.Earnings, error) {
	if providerID == "" {
		return models.Earnings{}, models.ErrUnauthenticated
	}
	bookings, err := s.stg.Booking().List(ctx, models.BookingFilter{ProviderID: providerID})
	if err != nil {
		return models.Earnings{}, err
	}
	return models.ComputeEarnings(bookings), nil
}

func (s *earningsService) RequestPayout(ctx context.Context, providerID string) (*models.PayoutResult, error) {
	if providerID == "" {
		return nil, models.ErrUnauthenticated
	}
	bookings, err := s.stg.Booking().List(ctx, models.BookingFilter{ProviderID: providerID})
	if err != nil {
		return nil, err
	}

	result := &models.PayoutResult{Requested: []string{}}
	var errs []error
	for _, b := range bookings {
		if !models.PayoutEligible(b) {
			continue
		}
		if _, err := s.stg.Booking().RequestPayout(ctx, b.ID); err != nil {
			s.log.Error("failed to request payout", logger.String("booking_id", b.ID), logger.Error(err))
			result.Failed = append(result.Failed, models.PayoutFailure{BookingID: b.ID, Error: err.Error()})
			errs = append(errs, fmt.Errorf("booking %s: %w", b.ID, err))
			continue
		}
		result.Requested = append(result.Requested, b.ID)
		result.Amount += b.Amount()
	}

	if len(result.Requested) == 0 && len(errs) == 0 {
		return nil, models.ErrNothingToPayout
	}

	s.log.Info("payout requested",
		logger.String("provider_id", providerID),
		logger.Int("bookings", len(result.Requested)),
		logger.Int("failed", len(result.Failed)),
		logger.Float64("amount", result.Amount),
	)
	return result, errors.Join(errs...)
}

func (s *earningsService) MarkPaid(ctx context.Context, bookingID string) (*models.Booking, error) {
	b, err := s.stg.Booking().GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status != models.StatusCompleted {
		return nil, &models.ValidationError{Field: "status", Reason: "only completed bookings can be paid out"}
	}
	if b.Paid {
		return b, nil
	}
	if !b.PayoutRequested {
		s.log.Warning("marking booking paid without a payout request", logger.String("booking_id", bookingID))
	}

	paid, err := s.stg.Booking().MarkPaid(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	s.log.Info("booking paid out", logger.String("booking_id", bookingID), logger.Float64("amount", paid.Amount()))
	return paid, nil
}
