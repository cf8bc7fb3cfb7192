package service

import (
	"context"
	"fmt"

	"homeservices/pkg/logger"
	"homeservices/pkg/models"
	"homeservices/pkg/payment"
	"homeservices/storage"
)

type PaymentGateway interface {
	CreateOrder(ctx context.Context, amount float64) (*payment.Order, error)
}

type PaymentResult struct {
	Booking *models.Booking `json:"booking"`
	OrderID string          `json:"order_id,omitempty"`
}

// PaymentService records that a customer has paid for a completed booking.
type PaymentService interface {
	Pay(ctx context.Context, bookingID, customerID string) (*PaymentResult, error)
	// ConfirmManually marks the booking paid without a gateway order, e.g.
	// for cash handed to the provider.
	ConfirmManually(ctx context.Context, bookingID, customerID string) (*PaymentResult, error)
}

type paymentService struct {
	stg     storage.IStorage
	gateway PaymentGateway
	log     logger.ILogger
}

func NewPaymentService(stg storage.IStorage, gateway PaymentGateway, log logger.ILogger) PaymentService {
	return &paymentService{stg: stg, gateway: gateway, log: log}
}

func (s *paymentService) Pay(ctx context.Context, bookingID, customerID string) (*PaymentResult, error) {
	b, err := s.payable(ctx, bookingID, customerID)
	if err != nil {
		return nil, err
	}
	if b.PaymentDone {
		return &PaymentResult{Booking: b}, nil
	}
	if s.gateway == nil {
		return nil, fmt.Errorf("%w: %v", models.ErrPaymentFailed, payment.ErrNotConfigured)
	}

	order, err := s.gateway.CreateOrder(ctx, b.Amount())
	if err != nil {
		s.log.Error("payment order failed", logger.String("booking_id", bookingID), logger.Error(err))
		return nil, fmt.Errorf("%w: %v", models.ErrPaymentFailed, err)
	}

	done, err := s.stg.Booking().MarkPaymentDone(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	s.log.Info("booking payment done", logger.String("booking_id", bookingID), logger.String("order_id", order.ID))
	return &PaymentResult{Booking: done, OrderID: order.ID}, nil
}

func (s *paymentService) ConfirmManually(ctx context.Context, bookingID, customerID string) (*PaymentResult, error) {
	b, err := s.payable(ctx, bookingID, customerID)
	if err != nil {
		return nil, err
	}
	if b.PaymentDone {
		return &PaymentResult{Booking: b}, nil
	}
	done, err := s.stg.Booking().MarkPaymentDone(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	s.log.Info("booking payment confirmed manually", logger.String("booking_id", bookingID))
	return &PaymentResult{Booking: done}, nil
}

func (s *paymentService) payable(ctx context.Context, bookingID, customerID string) (*models.Booking, error) {
	if customerID == "" {
		return nil, models.ErrUnauthenticated
	}
	b, err := s.stg.Booking().GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.CustomerID != customerID {
		return nil, models.ErrForbidden
	}
	if b.Status != models.StatusCompleted {
		return nil, &models.ValidationError{Field: "status", Reason: "only completed bookings can be paid"}
	}
	return b, nil
}
