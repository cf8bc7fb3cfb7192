package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homeservices/pkg/logger"
	"homeservices/pkg/models"
)

type fakeSource struct {
	mu       sync.Mutex
	bookings []*models.Booking
	err      error
	loads    int
}

func (f *fakeSource) load(_ context.Context, filter models.BookingFilter) ([]*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	if f.err != nil {
		return nil, f.err
	}
	var out []*models.Booking
	for _, b := range f.bookings {
		if filter.Matches(b) {
			out = append(out, b.Clone())
		}
	}
	return out, nil
}

func (f *fakeSource) set(bookings []*models.Booking, err error) {
	f.mu.Lock()
	f.bookings, f.err = bookings, err
	f.mu.Unlock()
}

func next(t *testing.T, sub Subscription) FeedEvent {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		require.True(t, ok, "events closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no feed event")
	}
	return FeedEvent{}
}

func TestHubDeliversInitialSnapshotAndChanges(t *testing.T) {
	src := &fakeSource{bookings: []*models.Booking{{ID: "b1", CustomerID: "c1", ProviderID: "p1", Status: models.StatusRequested}}}
	hub := NewHub(src.load, 0, logger.NewNop())
	defer hub.Close()

	sub, err := hub.Subscribe(context.Background(), models.BookingFilter{ProviderID: "p1"})
	require.NoError(t, err)

	ev := next(t, sub)
	require.NoError(t, ev.Err)
	require.Len(t, ev.Bookings, 1)

	src.set([]*models.Booking{{ID: "b1", CustomerID: "c1", ProviderID: "p1", Status: models.StatusAccepted}}, nil)
	require.NoError(t, hub.Publish(context.Background(), models.BookingChange{BookingID: "b1", CustomerID: "c1", ProviderID: "p1"}))

	ev = next(t, sub)
	assert.Equal(t, models.StatusAccepted, ev.Bookings[0].Status)
}

func TestHubSkipsUnaffectedSubscribers(t *testing.T) {
	src := &fakeSource{}
	hub := NewHub(src.load, 0, logger.NewNop())
	defer hub.Close()

	sub, err := hub.Subscribe(context.Background(), models.BookingFilter{CustomerID: "c1"})
	require.NoError(t, err)
	next(t, sub)

	require.NoError(t, hub.Publish(context.Background(), models.BookingChange{BookingID: "x", CustomerID: "c2", ProviderID: "p9"}))

	select {
	case <-sub.Events():
		t.Fatal("unexpected event for another customer")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubReportsSyncErrorAndRecoversOnResync(t *testing.T) {
	src := &fakeSource{err: errors.New("connection reset")}
	hub := NewHub(src.load, 20*time.Millisecond, logger.NewNop())
	defer hub.Close()

	sub, err := hub.Subscribe(context.Background(), models.BookingFilter{CustomerID: "c1"})
	require.NoError(t, err)

	ev := next(t, sub)
	assert.ErrorIs(t, ev.Err, models.ErrSync)

	src.set([]*models.Booking{{ID: "b1", CustomerID: "c1", Status: models.StatusRequested}}, nil)
	for {
		ev = next(t, sub)
		if ev.Err == nil {
			break
		}
	}
	assert.Len(t, ev.Bookings, 1)
}

func TestHubCloseStopsSubscription(t *testing.T) {
	src := &fakeSource{}
	hub := NewHub(src.load, 0, logger.NewNop())

	sub, err := hub.Subscribe(context.Background(), models.BookingFilter{CustomerID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, 1, hub.Subscribers())

	sub.Close()
	assert.Equal(t, 0, hub.Subscribers())

	for range sub.Events() {
	}

	hub.Close()
	_, err = hub.Subscribe(context.Background(), models.BookingFilter{CustomerID: "c1"})
	assert.ErrorIs(t, err, ErrFeedClosed)
}
