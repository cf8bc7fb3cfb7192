package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"homeservices/pkg/logger"
	"homeservices/pkg/models"
	"homeservices/storage"
	"homeservices/storage/memory"
)

type fixture struct {
	stg      *memory.Store
	provider *models.Profile
	customer *models.Profile
	service  *models.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	stg := memory.New(logger.NewNop(), 0)
	t.Cleanup(stg.Close)

	provider, err := stg.User().Create(ctx, &models.Profile{Name: "Kiran Plumbing", Phone: "+91 90000 00001", Role: models.RoleProvider})
	require.NoError(t, err)
	customer, err := stg.User().Create(ctx, &models.Profile{Name: "Asha", Phone: "+91 90000 00002", Address: "12 MG Road", Role: models.RoleCustomer})
	require.NoError(t, err)
	svc, err := stg.Service().Create(ctx, &models.Service{
		Title:         "Tap repair",
		Category:      "Plumbing",
		Price:         450,
		ProviderID:    provider.ID,
		ProviderName:  provider.Name,
		ProviderPhone: provider.Phone,
	})
	require.NoError(t, err)

	return &fixture{stg: stg, provider: provider, customer: customer, service: svc}
}

func (f *fixture) book(t *testing.T, bs BookingService) *models.Booking {
	t.Helper()
	b, err := bs.CreateBooking(context.Background(), models.CreateBookingRequest{
		ServiceID:  f.service.ID,
		TimeSlot:   "10:30 AM",
		CustomerID: f.customer.ID,
	})
	require.NoError(t, err)
	return b
}

func (f *fixture) providerActor() models.Actor {
	return models.Actor{ID: f.provider.ID, Role: models.RoleProvider}
}

func (f *fixture) customerActor() models.Actor {
	return models.Actor{ID: f.customer.ID, Role: models.RoleCustomer}
}

type recorder struct {
	mu   sync.Mutex
	msgs []string
	ch   chan string
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan string, 64)}
}

func (r *recorder) Notify(_ context.Context, message string) error {
	r.mu.Lock()
	r.msgs = append(r.msgs, message)
	r.mu.Unlock()
	r.ch <- message
	return nil
}

func (r *recorder) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.msgs...)
}

func (r *recorder) wait(t *testing.T) string {
	t.Helper()
	select {
	case m := <-r.ch:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("no notification")
	}
	return ""
}

// manualFeed hands events to the projection exactly when the test says so.
type manualFeed struct {
	mu   sync.Mutex
	subs []*manualSub
	err  error
}

func (f *manualFeed) Publish(context.Context, models.BookingChange) error { return nil }

func (f *manualFeed) Subscribe(ctx context.Context, filter models.BookingFilter) (storage.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	s := &manualSub{events: make(chan storage.FeedEvent), stop: make(chan struct{})}
	f.subs = append(f.subs, s)
	return s, nil
}

func (f *manualFeed) last() *manualSub {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subs[len(f.subs)-1]
}

type manualSub struct {
	events chan storage.FeedEvent
	stop   chan struct{}
	once   sync.Once
}

func (s *manualSub) Events() <-chan storage.FeedEvent { return s.events }

func (s *manualSub) Close() {
	s.once.Do(func() {
		close(s.stop)
		close(s.events)
	})
}

// push delivers one event; it returns false if the subscription is closed.
func (s *manualSub) push(ev storage.FeedEvent) (sent bool) {
	defer func() {
		if recover() != nil {
			sent = false
		}
	}()
	select {
	case <-s.stop:
		return false
	case s.events <- ev:
		return true
	}
}

func booking(id string, status models.Status, created time.Time) *models.Booking {
	return &models.Booking{ID: id, ServiceTitle: "Tap repair", CustomerID: "c1", ProviderID: "p1", Status: status, CreatedAt: created}
}
