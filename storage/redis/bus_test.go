package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homeservices/pkg/logger"
	"homeservices/pkg/models"
)

type sink struct {
	got []models.BookingChange
}

func (s *sink) Publish(_ context.Context, change models.BookingChange) error {
	s.got = append(s.got, change)
	return nil
}

func unreachable(t *testing.T) *Bus {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	bus := NewWithClient(client, "bookings:test", logger.NewNop())
	t.Cleanup(func() { _ = bus.Close() })
	return bus
}

func TestPublishFailsWithoutServer(t *testing.T) {
	bus := unreachable(t)
	err := bus.Publish(context.Background(), models.BookingChange{BookingID: "b1"})
	assert.Error(t, err)
}

func TestListenReportsSubscribeFailure(t *testing.T) {
	bus := unreachable(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ready := make(chan error, 1)
	done := make(chan struct{})
	s := &sink{}
	go func() {
		defer close(done)
		bus.Listen(ctx, s, func(err error) { ready <- err })
	}()

	select {
	case err := <-ready:
		require.Error(t, err)
	case <-ctx.Done():
		t.Fatal("listen never became ready")
	}
	<-done
	assert.Empty(t, s.got)
}
