package service

import (
	"context"
	"fmt"

	"homeservices/pkg/logger"
	"homeservices/pkg/models"
	"homeservices/storage"
)

type BookingService interface {
	CreateBooking(ctx context.Context, req models.CreateBookingRequest) (*models.Booking, error)
	// Transition is the only way a booking's status changes.
	Transition(ctx context.Context, bookingID string, actor models.Actor, target models.Status) (*models.Booking, error)
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	List(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, error)
}

type bookingService struct {
	stg    storage.IStorage
	log    logger.ILogger
	strict bool
}

func NewBookingService(stg storage.IStorage, log logger.ILogger, strict bool) BookingService {
	return &bookingService{
		stg:    stg,
		log:    log,
		strict: strict,
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, req models.CreateBookingRequest) (*models.Booking, error) {
	if req.CustomerID == "" {
		return nil, models.ErrUnauthenticated
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	svc, err := s.stg.Service().GetByID(ctx, req.ServiceID)
	if err != nil {
		return nil, fmt.Errorf("load service: %w", err)
	}

	customer, err := s.stg.User().GetByID(ctx, req.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("load customer profile: %w", err)
	}
	if err := customer.ValidateForBooking(); err != nil {
		return nil, err
	}

	booking, err := s.stg.Booking().Create(ctx, &models.Booking{
		ServiceID:       svc.ID,
		ServiceTitle:    svc.DisplayTitle(),
		ProviderID:      svc.ProviderID,
		ProviderName:    svc.ProviderName,
		ProviderPhone:   svc.ProviderPhone,
		CustomerID:      customer.ID,
		CustomerName:    customer.Name,
		CustomerPhone:   customer.Phone,
		CustomerAddress: customer.Address,
		TimeSlot:        req.TimeSlot,
		Price:           svc.Price,
		Status:          models.StatusRequested,
	})
	if err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}

	s.log.Info("booking created",
		logger.String("booking_id", booking.ID),
		logger.String("service_id", svc.ID),
		logger.String("customer_id", customer.ID),
		logger.String("slot", booking.TimeSlot),
	)
	return booking, nil
}

func (s *bookingService) Transition(ctx context.Context, bookingID string, actor models.Actor, target models.Status) (*models.Booking, error) {
	if !actor.Role.Valid() {
		return nil, &models.ValidationError{Field: "role", Reason: "unknown role " + string(actor.Role)}
	}

	booking, err := s.stg.Booking().GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if actor.ID != "" && !owns(booking, actor) {
		return nil, models.ErrForbidden
	}

	if booking.Status == target {
		s.log.Debug("transition to current status ignored",
			logger.String("booking_id", bookingID), logger.String("status", string(target)))
		return booking, nil
	}

	if err := models.ValidateTransition(booking.Status, actor.Role, target); err != nil {
		s.log.Warning("transition rejected",
			logger.String("booking_id", bookingID),
			logger.String("from", string(booking.Status)),
			logger.String("to", string(target)),
			logger.String("role", string(actor.Role)),
		)
		return nil, err
	}

	var updated *models.Booking
	if s.strict {
		updated, err = s.stg.Booking().CompareAndUpdateStatus(ctx, bookingID, booking.Status, target)
	} else {
		updated, err = s.stg.Booking().UpdateStatus(ctx, bookingID, target)
	}
	if err != nil {
		return nil, err
	}

	s.log.Info("booking status changed",
		logger.String("booking_id", bookingID),
		logger.String("from", string(booking.Status)),
		logger.String("to", string(updated.Status)),
		logger.String("role", string(actor.Role)),
	)
	return updated, nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	return s.stg.Booking().GetByID(ctx, id)
}

func (s *bookingService) List(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, error) {
	if filter.Empty() {
		return nil, &models.ValidationError{Field: "filter", Reason: "customer or provider id required"}
	}
	bookings, err := s.stg.Booking().List(ctx, filter)
	if err != nil {
		return nil, err
	}
	models.SortNewestFirst(bookings)
	return bookings, nil
}

func owns(b *models.Booking, actor models.Actor) bool {
	switch actor.Role {
	case models.RoleCustomer:
		return b.CustomerID == actor.ID
	case models.RoleProvider:
		return b.ProviderID == actor.ID
	}
	return false
}
