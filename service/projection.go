package service

import (
	"context"
	"sync"

	"homeservices/pkg/logger"
	"homeservices/pkg/models"
	"homeservices/storage"
)

// Notifier shows a short message to the user that owns a projection.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

type NotifierFunc func(ctx context.Context, message string) error

func (f NotifierFunc) Notify(ctx context.Context, message string) error {
	return f(ctx, message)
}

// StatusMessage is the notification text for a booking whose status moved.
func StatusMessage(b *models.Booking) string {
	return "Booking update: " + b.ServiceTitle + " - " + b.Status.Friendly()
}

// Projection keeps one user's live, newest-first view of their bookings and
// emits exactly one notification per observed status change. New bookings
// and removed bookings never notify.
//
// Change hooks run on the projection's event goroutine and must not call
// Subscribe or Unsubscribe.
type Projection struct {
	feed     storage.IBookingFeed
	notifier Notifier
	log      logger.ILogger

	mu       sync.RWMutex
	view     []*models.Booking
	prev     map[string]models.Status
	lastErr  error
	filter   models.BookingFilter
	active   bool
	onChange []func([]*models.Booking)
	onError  []func(error)

	// lifecycle serializes Subscribe and Unsubscribe.
	lifecycle sync.Mutex
	cancel    context.CancelFunc
	sub       storage.Subscription
	done      chan struct{}
}

func NewProjection(feed storage.IBookingFeed, notifier Notifier, log logger.ILogger) *Projection {
	return &Projection{
		feed:     feed,
		notifier: notifier,
		log:      log,
	}
}

// OnChange registers fn to receive every applied snapshot.
func (p *Projection) OnChange(fn func(bookings []*models.Booking)) {
	p.mu.Lock()
	p.onChange = append(p.onChange, fn)
	p.mu.Unlock()
}

// OnError registers fn to receive sync failures.
func (p *Projection) OnError(fn func(err error)) {
	p.mu.Lock()
	p.onError = append(p.onError, fn)
	p.mu.Unlock()
}

// Subscribe tears down any running subscription and starts a new one for
// filter. The first snapshot only seeds the view.
func (p *Projection) Subscribe(ctx context.Context, filter models.BookingFilter) error {
	if filter.Empty() {
		return models.ErrUnauthenticated
	}

	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()

	p.stop()

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	sub, err := p.feed.Subscribe(loopCtx, filter)
	if err != nil {
		cancel()
		return &models.SyncError{Err: err}
	}

	p.mu.Lock()
	p.filter = filter
	p.active = true
	p.mu.Unlock()

	p.cancel = cancel
	p.sub = sub
	p.done = make(chan struct{})
	go p.loop(loopCtx, sub, p.done)

	p.log.Debug("projection subscribed", logger.Any("filter", filter))
	return nil
}

// Unsubscribe stops the subscription and clears all state. When it returns
// no further notifications will be emitted.
func (p *Projection) Unsubscribe() {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()
	p.stop()
}

func (p *Projection) stop() {
	if p.cancel != nil {
		p.cancel()
		p.sub.Close()
		<-p.done
		p.cancel, p.sub, p.done = nil, nil, nil
	}

	p.mu.Lock()
	p.view = nil
	p.prev = nil
	p.lastErr = nil
	p.filter = models.BookingFilter{}
	p.active = false
	p.mu.Unlock()
}

func (p *Projection) loop(ctx context.Context, sub storage.Subscription, done chan struct{}) {
	defer close(done)
	for ev := range sub.Events() {
		if ctx.Err() != nil {
			return
		}
		if ev.Err != nil {
			p.fail(ev.Err)
			continue
		}
		p.apply(ctx, ev.Bookings)
	}
}

// apply replaces the view with snapshot and notifies for every booking that
// was already known with a different status.
func (p *Projection) apply(ctx context.Context, snapshot []*models.Booking) {
	sorted := make([]*models.Booking, len(snapshot))
	copy(sorted, snapshot)
	models.SortNewestFirst(sorted)

	next := make(map[string]models.Status, len(sorted))
	var changed []*models.Booking

	p.mu.Lock()
	for _, b := range sorted {
		next[b.ID] = b.Status
		if old, ok := p.prev[b.ID]; ok && old != b.Status {
			changed = append(changed, b)
		}
	}
	p.prev = next
	p.view = sorted
	p.lastErr = nil
	hooks := append([]func([]*models.Booking){}, p.onChange...)
	p.mu.Unlock()

	for _, b := range changed {
		if err := p.notifier.Notify(ctx, StatusMessage(b)); err != nil {
			p.log.Warning("failed to deliver booking update",
				logger.String("booking_id", b.ID), logger.Error(err))
		}
	}

	for _, fn := range hooks {
		fn(cloneBookings(sorted))
	}
}

func (p *Projection) fail(err error) {
	p.mu.Lock()
	p.lastErr = err
	hooks := append([]func(error){}, p.onError...)
	p.mu.Unlock()

	p.log.Error("booking sync failed, keeping last view", logger.Error(err))
	for _, fn := range hooks {
		fn(err)
	}
}

// Bookings returns a copy of the current view, newest first.
func (p *Projection) Bookings() []*models.Booking {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return cloneBookings(p.view)
}

func (p *Projection) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.view)
}

// ByClass returns the current bookings in classification c.
func (p *Projection) ByClass(c models.Classification) []*models.Booking {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*models.Booking, 0)
	for _, b := range p.view {
		if got, ok := b.Status.Classification(); ok && got == c {
			out = append(out, b.Clone())
		}
	}
	return out
}

// Earnings is recomputed from the current view on every call.
func (p *Projection) Earnings() models.Earnings {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return models.ComputeEarnings(p.view)
}

// Ready reports whether the first snapshot has been applied.
func (p *Projection) Ready() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.view != nil
}

func (p *Projection) Err() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastErr
}

func (p *Projection) Active() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.active
}

func (p *Projection) Filter() models.BookingFilter {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.filter
}

func cloneBookings(in []*models.Booking) []*models.Booking {
	out := make([]*models.Booking, len(in))
	for i, b := range in {
		out[i] = b.Clone()
	}
	return out
}
