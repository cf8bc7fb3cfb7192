package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homeservices/pkg/logger"
	"homeservices/pkg/models"
)

func TestSessionsLifecycle(t *testing.T) {
	feed := &manualFeed{}
	s := NewSessions(feed, logger.NewNop())
	ctx := context.Background()
	customer := models.Actor{ID: "c1", Role: models.RoleCustomer}

	p, err := s.AuthStateChanged(ctx, "chat-1", customer, newRecorder())
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, models.BookingFilter{CustomerID: "c1"}, p.Filter())
	assert.Equal(t, 1, s.Len())

	// same actor keeps the projection
	again, err := s.AuthStateChanged(ctx, "chat-1", customer, newRecorder())
	require.NoError(t, err)
	assert.Same(t, p, again)
	assert.Len(t, feed.subs, 1)

	// another actor on the same client replaces it
	provider := models.Actor{ID: "p1", Role: models.RoleProvider}
	replaced, err := s.AuthStateChanged(ctx, "chat-1", provider, newRecorder())
	require.NoError(t, err)
	assert.NotSame(t, p, replaced)
	assert.False(t, p.Active())
	assert.Equal(t, models.BookingFilter{ProviderID: "p1"}, replaced.Filter())

	// sign out
	gone, err := s.AuthStateChanged(ctx, "chat-1", models.Actor{}, nil)
	require.NoError(t, err)
	assert.Nil(t, gone)
	assert.False(t, replaced.Active())
	_, ok := s.Get("chat-1")
	assert.False(t, ok)
}

func TestSessionsEndAll(t *testing.T) {
	s := NewSessions(&manualFeed{}, logger.NewNop())
	ctx := context.Background()

	a, err := s.AuthStateChanged(ctx, "a", models.Actor{ID: "c1", Role: models.RoleCustomer}, newRecorder())
	require.NoError(t, err)
	b, err := s.AuthStateChanged(ctx, "b", models.Actor{ID: "p1", Role: models.RoleProvider}, newRecorder())
	require.NoError(t, err)

	s.EndAll()
	assert.Equal(t, 0, s.Len())
	assert.False(t, a.Active())
	assert.False(t, b.Active())
}
