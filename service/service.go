package service

import (
	"homeservices/pkg/logger"
	"homeservices/storage"
)

type IServiceManager interface {
	User() UserService
	Catalog() CatalogService
	Booking() BookingService
	Earnings() EarningsService
	Payment() PaymentService
	Sessions() *Sessions
}

type Options struct {
	// StrictTransitions turns status writes into compare-and-set.
	StrictTransitions bool
	Gateway           PaymentGateway
}

type service struct {
	userService     UserService
	catalogService  CatalogService
	bookingService  BookingService
	earningsService EarningsService
	paymentService  PaymentService
	sessions        *Sessions
}

func New(stg storage.IStorage, log logger.ILogger, opts Options) IServiceManager {
	return &service{
		userService:     NewUserService(stg, log),
		catalogService:  NewCatalogService(stg, log),
		bookingService:  NewBookingService(stg, log, opts.StrictTransitions),
		earningsService: NewEarningsService(stg, log),
		paymentService:  NewPaymentService(stg, opts.Gateway, log),
		sessions:        NewSessions(stg.Feed(), log),
	}
}

func (s *service) User() UserService {
	return s.userService
}

func (s *service) Catalog() CatalogService {
	return s.catalogService
}

func (s *service) Booking() BookingService {
	return s.bookingService
}

func (s *service) Earnings() EarningsService {
	return s.earningsService
}

func (s *service) Payment() PaymentService {
	return s.paymentService
}

func (s *service) Sessions() *Sessions {
	return s.sessions
}
