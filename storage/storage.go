package storage

import (
	"context"

	"homeservices/pkg/models"
)

type IStorage interface {
	Booking() IBookingStorage
	Service() IServiceStorage
	User() IUserStorage
	Feed() IBookingFeed
	// SetPublisher routes change messages somewhere other than the local feed,
	// e.g. a cross-process bus that fans back into Feed().
	SetPublisher(p IChangePublisher)
	Close()
}

// IBookingStorage never validates transitions; callers do.
type IBookingStorage interface {
	Create(ctx context.Context, booking *models.Booking) (*models.Booking, error)
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	List(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, error)
	UpdateStatus(ctx context.Context, id string, status models.Status) (*models.Booking, error)
	CompareAndUpdateStatus(ctx context.Context, id string, from, to models.Status) (*models.Booking, error)
	MarkPaymentDone(ctx context.Context, id string) (*models.Booking, error)
	RequestPayout(ctx context.Context, id string) (*models.Booking, error)
	MarkPaid(ctx context.Context, id string) (*models.Booking, error)
}

type IServiceStorage interface {
	Create(ctx context.Context, svc *models.Service) (*models.Service, error)
	Update(ctx context.Context, svc *models.Service) (*models.Service, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*models.Service, error)
	GetAll(ctx context.Context) ([]*models.Service, error)
	GetByProvider(ctx context.Context, providerID string) ([]*models.Service, error)
}

type IUserStorage interface {
	Create(ctx context.Context, p *models.Profile) (*models.Profile, error)
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	GetByTelegramID(ctx context.Context, teleID int64) (*models.Profile, error)
	GetOrCreateByTelegram(ctx context.Context, teleID int64, name string, role models.Role) (*models.Profile, error)
	UpdatePhone(ctx context.Context, id, phone string) error
	UpdateAddress(ctx context.Context, id, address string) error
	UpdateName(ctx context.Context, id, name string) error
	UpdateRole(ctx context.Context, id string, role models.Role) error
}

// FeedEvent carries the full current set of bookings matching a
// subscription, or the error that prevented loading it.
type FeedEvent struct {
	Bookings []*models.Booking
	Err      error
}

type Subscription interface {
	// Events is closed once the subscription stops.
	Events() <-chan FeedEvent
	// Close stops delivery and returns after the producer has exited.
	Close()
}

type IChangePublisher interface {
	Publish(ctx context.Context, change models.BookingChange) error
}

type IBookingFeed interface {
	IChangePublisher
	Subscribe(ctx context.Context, filter models.BookingFilter) (Subscription, error)
}
