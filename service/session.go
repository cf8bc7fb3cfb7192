package service

import (
	"context"
	"sync"

	"homeservices/pkg/logger"
	"homeservices/pkg/models"
	"homeservices/storage"
)

// FilterFor is the booking set a signed-in actor watches.
func FilterFor(actor models.Actor) models.BookingFilter {
	if actor.Role == models.RoleProvider {
		return models.BookingFilter{ProviderID: actor.ID}
	}
	return models.BookingFilter{CustomerID: actor.ID}
}

// Sessions owns one projection per signed-in client. A client is whatever
// the caller uses as key, e.g. a chat on one bot.
type Sessions struct {
	feed storage.IBookingFeed
	log  logger.ILogger

	mu       sync.Mutex
	sessions map[string]*Projection
}

func NewSessions(feed storage.IBookingFeed, log logger.ILogger) *Sessions {
	return &Sessions{
		feed:     feed,
		log:      log,
		sessions: make(map[string]*Projection),
	}
}

// AuthStateChanged points client key at actor. An empty actor id signs the
// client out. Signing in again as the same actor keeps the running
// projection; any other change replaces it.
func (s *Sessions) AuthStateChanged(ctx context.Context, key string, actor models.Actor, notifier Notifier) (*Projection, error) {
	if actor.ID == "" {
		s.End(key)
		return nil, nil
	}

	filter := FilterFor(actor)

	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.sessions[key]; ok {
		if cur.Active() && cur.Filter() == filter {
			return cur, nil
		}
		cur.Unsubscribe()
		delete(s.sessions, key)
	}

	p := NewProjection(s.feed, notifier, s.log.With(logger.String("session", key)))
	if err := p.Subscribe(ctx, filter); err != nil {
		return nil, err
	}
	s.sessions[key] = p
	s.log.Info("session started", logger.String("session", key), logger.String("user_id", actor.ID), logger.String("role", string(actor.Role)))
	return p, nil
}

func (s *Sessions) Get(key string) (*Projection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.sessions[key]
	return p, ok
}

func (s *Sessions) End(key string) {
	s.mu.Lock()
	p, ok := s.sessions[key]
	delete(s.sessions, key)
	s.mu.Unlock()

	if ok {
		p.Unsubscribe()
		s.log.Info("session ended", logger.String("session", key))
	}
}

func (s *Sessions) EndAll() {
	s.mu.Lock()
	all := s.sessions
	s.sessions = make(map[string]*Projection)
	s.mu.Unlock()

	for _, p := range all {
		p.Unsubscribe()
	}
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
