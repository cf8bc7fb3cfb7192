// Package memory keeps everything in process. It backs the dev mode and the
// service tests, and behaves like the Postgres store: server-assigned ids and
// timestamps, single-field status writes, full-snapshot change feed.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"homeservices/pkg/logger"
	"homeservices/pkg/models"
	"homeservices/storage"
)

var _ storage.IStorage = (*Store)(nil)

type Store struct {
	mu       sync.RWMutex
	bookings map[string]*models.Booking
	order    []string
	services map[string]*models.Service
	users    map[string]*models.Profile
	byTele   map[int64]string

	last time.Time
	now  func() time.Time

	log       logger.ILogger
	hub       *storage.Hub
	publisher storage.IChangePublisher
}

func New(log logger.ILogger, resync time.Duration) *Store {
	s := &Store{
		bookings: make(map[string]*models.Booking),
		services: make(map[string]*models.Service),
		users:    make(map[string]*models.Profile),
		byTele:   make(map[int64]string),
		now:      time.Now,
		log:      log,
	}
	s.hub = storage.NewHub(s.listBookings, resync, log)
	s.publisher = s.hub
	return s
}

func (s *Store) Booking() storage.IBookingStorage { return &bookingRepo{s: s} }
func (s *Store) Service() storage.IServiceStorage { return &serviceRepo{s: s} }
func (s *Store) User() storage.IUserStorage       { return &userRepo{s: s} }
func (s *Store) Feed() storage.IBookingFeed       { return s.hub }

func (s *Store) SetPublisher(p storage.IChangePublisher) {
	s.mu.Lock()
	s.publisher = p
	s.mu.Unlock()
}

func (s *Store) Close() {
	s.hub.Close()
}

// tick returns a server timestamp strictly after the previous one.
// Callers hold s.mu.
func (s *Store) tick() time.Time {
	t := s.now().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

func (s *Store) publish(ctx context.Context, b *models.Booking) {
	s.mu.RLock()
	p := s.publisher
	s.mu.RUnlock()
	if err := p.Publish(ctx, models.ChangeOf(b)); err != nil {
		s.log.Warning("failed to publish booking change", logger.String("booking_id", b.ID), logger.Error(err))
	}
}

func (s *Store) listBookings(_ context.Context, filter models.BookingFilter) ([]*models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Booking, 0)
	for _, id := range s.order {
		b := s.bookings[id]
		if filter.Matches(b) {
			out = append(out, b.Clone())
		}
	}
	return out, nil
}

type bookingRepo struct {
	s *Store
}

func (r *bookingRepo) Create(ctx context.Context, booking *models.Booking) (*models.Booking, error) {
	r.s.mu.Lock()
	b := booking.Clone()
	b.ID = uuid.NewString()
	b.CreatedAt = r.s.tick()
	b.UpdatedAt = b.CreatedAt
	r.s.bookings[b.ID] = b
	r.s.order = append(r.s.order, b.ID)
	out := b.Clone()
	r.s.mu.Unlock()

	r.s.publish(ctx, out)
	return out, nil
}

func (r *bookingRepo) GetByID(_ context.Context, id string) (*models.Booking, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	b, ok := r.s.bookings[id]
	if !ok {
		return nil, &models.NotFoundError{Entity: "booking", ID: id}
	}
	return b.Clone(), nil
}

func (r *bookingRepo) List(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, error) {
	return r.s.listBookings(ctx, filter)
}

// mutate applies fn to the stored booking under the write lock and publishes
// the change if fn returns nil.
func (r *bookingRepo) mutate(ctx context.Context, id string, fn func(b *models.Booking, now time.Time) error) (*models.Booking, error) {
	r.s.mu.Lock()
	b, ok := r.s.bookings[id]
	if !ok {
		r.s.mu.Unlock()
		return nil, &models.NotFoundError{Entity: "booking", ID: id}
	}
	if err := fn(b, r.s.tick()); err != nil {
		r.s.mu.Unlock()
		return nil, err
	}
	out := b.Clone()
	r.s.mu.Unlock()

	r.s.publish(ctx, out)
	return out, nil
}

func (r *bookingRepo) UpdateStatus(ctx context.Context, id string, status models.Status) (*models.Booking, error) {
	return r.mutate(ctx, id, func(b *models.Booking, now time.Time) error {
		b.Status = status
		b.UpdatedAt = now
		return nil
	})
}

func (r *bookingRepo) CompareAndUpdateStatus(ctx context.Context, id string, from, to models.Status) (*models.Booking, error) {
	return r.mutate(ctx, id, func(b *models.Booking, now time.Time) error {
		if b.Status != from {
			return models.ErrConcurrentUpdate
		}
		b.Status = to
		b.UpdatedAt = now
		return nil
	})
}

func (r *bookingRepo) MarkPaymentDone(ctx context.Context, id string) (*models.Booking, error) {
	return r.mutate(ctx, id, func(b *models.Booking, now time.Time) error {
		if !b.PaymentDone {
			b.PaymentDone = true
			b.PaymentDoneAt = &now
		}
		b.UpdatedAt = now
		return nil
	})
}

func (r *bookingRepo) RequestPayout(ctx context.Context, id string) (*models.Booking, error) {
	return r.mutate(ctx, id, func(b *models.Booking, now time.Time) error {
		b.PayoutRequested = true
		b.PayoutRequestedAt = &now
		b.UpdatedAt = now
		return nil
	})
}

func (r *bookingRepo) MarkPaid(ctx context.Context, id string) (*models.Booking, error) {
	return r.mutate(ctx, id, func(b *models.Booking, now time.Time) error {
		if !b.Paid {
			b.Paid = true
			b.PaidAt = &now
		}
		b.UpdatedAt = now
		return nil
	})
}

type serviceRepo struct {
	s *Store
}

func cloneService(svc *models.Service) *models.Service {
	c := *svc
	return &c
}

func (r *serviceRepo) Create(_ context.Context, svc *models.Service) (*models.Service, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := cloneService(svc)
	c.ID = uuid.NewString()
	c.CreatedAt = r.s.tick()
	c.UpdatedAt = c.CreatedAt
	r.s.services[c.ID] = c
	return cloneService(c), nil
}

func (r *serviceRepo) Update(_ context.Context, svc *models.Service) (*models.Service, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.services[svc.ID]
	if !ok {
		return nil, &models.NotFoundError{Entity: "service", ID: svc.ID}
	}
	c := cloneService(svc)
	c.ProviderID = cur.ProviderID
	c.CreatedAt = cur.CreatedAt
	c.UpdatedAt = r.s.tick()
	r.s.services[c.ID] = c
	return cloneService(c), nil
}

func (r *serviceRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.services[id]; !ok {
		return &models.NotFoundError{Entity: "service", ID: id}
	}
	delete(r.s.services, id)
	return nil
}

func (r *serviceRepo) GetByID(_ context.Context, id string) (*models.Service, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	svc, ok := r.s.services[id]
	if !ok {
		return nil, &models.NotFoundError{Entity: "service", ID: id}
	}
	return cloneService(svc), nil
}

func (r *serviceRepo) GetAll(_ context.Context) ([]*models.Service, error) {
	return r.filter(func(*models.Service) bool { return true }), nil
}

func (r *serviceRepo) GetByProvider(_ context.Context, providerID string) ([]*models.Service, error) {
	return r.filter(func(svc *models.Service) bool { return svc.ProviderID == providerID }), nil
}

func (r *serviceRepo) filter(keep func(*models.Service) bool) []*models.Service {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*models.Service, 0, len(r.s.services))
	for _, svc := range r.s.services {
		if keep(svc) {
			out = append(out, cloneService(svc))
		}
	}
	sortServices(out)
	return out
}

func sortServices(list []*models.Service) {
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
}

type userRepo struct {
	s *Store
}

func cloneProfile(p *models.Profile) *models.Profile {
	c := *p
	if p.TelegramID != nil {
		id := *p.TelegramID
		c.TelegramID = &id
	}
	return &c
}

func (r *userRepo) Create(_ context.Context, p *models.Profile) (*models.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := cloneProfile(p)
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = r.s.tick()
	c.UpdatedAt = c.CreatedAt
	r.s.users[c.ID] = c
	if c.TelegramID != nil {
		r.s.byTele[*c.TelegramID] = c.ID
	}
	return cloneProfile(c), nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*models.Profile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.users[id]
	if !ok {
		return nil, &models.NotFoundError{Entity: "profile", ID: id}
	}
	return cloneProfile(p), nil
}

func (r *userRepo) GetByTelegramID(ctx context.Context, teleID int64) (*models.Profile, error) {
	r.s.mu.RLock()
	id, ok := r.s.byTele[teleID]
	r.s.mu.RUnlock()
	if !ok {
		return nil, &models.NotFoundError{Entity: "profile", ID: "telegram"}
	}
	return r.GetByID(ctx, id)
}

func (r *userRepo) GetOrCreateByTelegram(ctx context.Context, teleID int64, name string, role models.Role) (*models.Profile, error) {
	r.s.mu.Lock()
	if id, ok := r.s.byTele[teleID]; ok {
		p := cloneProfile(r.s.users[id])
		r.s.mu.Unlock()
		return p, nil
	}
	r.s.mu.Unlock()
	return r.Create(ctx, &models.Profile{TelegramID: &teleID, Name: name, Role: role})
}

func (r *userRepo) update(id string, fn func(p *models.Profile)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.users[id]
	if !ok {
		return &models.NotFoundError{Entity: "profile", ID: id}
	}
	fn(p)
	p.UpdatedAt = r.s.tick()
	return nil
}

func (r *userRepo) UpdatePhone(_ context.Context, id, phone string) error {
	return r.update(id, func(p *models.Profile) { p.Phone = phone })
}

func (r *userRepo) UpdateAddress(_ context.Context, id, address string) error {
	return r.update(id, func(p *models.Profile) { p.Address = address })
}

func (r *userRepo) UpdateName(_ context.Context, id, name string) error {
	return r.update(id, func(p *models.Profile) { p.Name = name })
}

func (r *userRepo) UpdateRole(_ context.Context, id string, role models.Role) error {
	return r.update(id, func(p *models.Profile) { p.Role = role })
}
