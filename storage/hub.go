package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	"homeservices/pkg/logger"
	"homeservices/pkg/models"
)

var ErrFeedClosed = errors.New("booking feed closed")

// SnapshotLoader returns every booking matching filter.
type SnapshotLoader func(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, error)

// Hub turns change messages into full-snapshot events for each subscriber.
// Signals coalesce: a subscriber that falls behind gets one fresh snapshot,
// not a backlog.
type Hub struct {
	load   SnapshotLoader
	resync time.Duration
	log    logger.ILogger

	mu     sync.Mutex
	subs   map[uint64]*hubSubscription
	nextID uint64
	closed bool
}

// NewHub builds a hub. resync > 0 reloads every subscriber on that interval,
// which is also how a subscriber recovers after a failed load.
func NewHub(load SnapshotLoader, resync time.Duration, log logger.ILogger) *Hub {
	return &Hub{
		load:   load,
		resync: resync,
		log:    log,
		subs:   make(map[uint64]*hubSubscription),
	}
}

func (h *Hub) Subscribe(ctx context.Context, filter models.BookingFilter) (Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrFeedClosed
	}

	subCtx, cancel := context.WithCancel(ctx)
	h.nextID++
	s := &hubSubscription{
		hub:    h,
		id:     h.nextID,
		filter: filter,
		dirty:  make(chan struct{}, 1),
		events: make(chan FeedEvent),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	h.subs[s.id] = s
	s.dirty <- struct{}{}

	go s.run(subCtx)
	return s, nil
}

// Publish marks every subscriber the change may affect as dirty.
func (h *Hub) Publish(_ context.Context, change models.BookingChange) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, s := range h.subs {
		if change.Affects(s.filter) {
			s.mark()
		}
	}
	return nil
}

// NotifyAll forces a reload for every subscriber.
func (h *Hub) NotifyAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, s := range h.subs {
		s.mark()
	}
}

func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	subs := make([]*hubSubscription, 0, len(h.subs))
	for _, s := range h.subs {
		subs = append(subs, s)
	}
	h.mu.Unlock()

	for _, s := range subs {
		s.Close()
	}
}

func (h *Hub) remove(id uint64) {
	h.mu.Lock()
	delete(h.subs, id)
	h.mu.Unlock()
}

type hubSubscription struct {
	hub    *Hub
	id     uint64
	filter models.BookingFilter
	dirty  chan struct{}
	events chan FeedEvent
	cancel context.CancelFunc
	done   chan struct{}
}

func (s *hubSubscription) Events() <-chan FeedEvent {
	return s.events
}

func (s *hubSubscription) Close() {
	s.cancel()
	s.hub.remove(s.id)
	<-s.done
}

func (s *hubSubscription) mark() {
	select {
	case s.dirty <- struct{}{}:
	default:
	}
}

func (s *hubSubscription) run(ctx context.Context) {
	defer close(s.done)
	defer close(s.events)

	var tick <-chan time.Time
	if s.hub.resync > 0 {
		t := time.NewTicker(s.hub.resync)
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.dirty:
		case <-tick:
		}

		bookings, err := s.hub.load(ctx, s.filter)
		if ctx.Err() != nil {
			return
		}
		ev := FeedEvent{Bookings: bookings}
		if err != nil {
			s.hub.log.Warning("snapshot load failed", logger.Any("filter", s.filter), logger.Error(err))
			ev = FeedEvent{Err: &models.SyncError{Err: err}}
		}

		select {
		case s.events <- ev:
		case <-ctx.Done():
			return
		}
	}
}
