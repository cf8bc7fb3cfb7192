package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homeservices/pkg/logger"
	"homeservices/pkg/models"
)

func TestCreateBookingSnapshotsServiceAndCustomer(t *testing.T) {
	f := newFixture(t)
	bs := NewBookingService(f.stg, logger.NewNop(), false)

	b := f.book(t, bs)

	assert.NotEmpty(t, b.ID)
	assert.Equal(t, models.StatusRequested, b.Status)
	assert.Equal(t, "Tap repair", b.ServiceTitle)
	assert.Equal(t, 450.0, b.Price)
	assert.Equal(t, f.provider.ID, b.ProviderID)
	assert.Equal(t, "Kiran Plumbing", b.ProviderName)
	assert.Equal(t, "Asha", b.CustomerName)
	assert.Equal(t, "12 MG Road", b.CustomerAddress)
	assert.Equal(t, "10:30 AM", b.TimeSlot)
	assert.False(t, b.CreatedAt.IsZero())

	// later profile edits do not touch the booking
	require.NoError(t, f.stg.User().UpdateName(context.Background(), f.customer.ID, "Asha K"))
	got, err := bs.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Asha", got.CustomerName)
}

func TestCreateBookingRetryCreatesAnotherBooking(t *testing.T) {
	f := newFixture(t)
	bs := NewBookingService(f.stg, logger.NewNop(), false)

	a := f.book(t, bs)
	b := f.book(t, bs)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestCreateBookingTitleFallback(t *testing.T) {
	f := newFixture(t)
	bs := NewBookingService(f.stg, logger.NewNop(), false)
	svc, err := f.stg.Service().Create(context.Background(), &models.Service{Subservice: "Fan install", ProviderID: f.provider.ID})
	require.NoError(t, err)

	b, err := bs.CreateBooking(context.Background(), models.CreateBookingRequest{ServiceID: svc.ID, TimeSlot: "08:00 AM", CustomerID: f.customer.ID})
	require.NoError(t, err)
	assert.Equal(t, "Fan install", b.ServiceTitle)
	assert.Equal(t, 0.0, b.Price)
}

func TestCreateBookingFailures(t *testing.T) {
	f := newFixture(t)
	bs := NewBookingService(f.stg, logger.NewNop(), false)
	ctx := context.Background()

	incomplete, err := f.stg.User().Create(ctx, &models.Profile{Name: "No Phone", Role: models.RoleCustomer})
	require.NoError(t, err)

	tests := []struct {
		name string
		req  models.CreateBookingRequest
		want error
	}{
		{"signed out", models.CreateBookingRequest{ServiceID: f.service.ID, TimeSlot: "08:00 AM"}, models.ErrUnauthenticated},
		{"bad slot", models.CreateBookingRequest{ServiceID: f.service.ID, TimeSlot: "08:15 AM", CustomerID: f.customer.ID}, models.ErrValidation},
		{"missing service", models.CreateBookingRequest{ServiceID: "nope", TimeSlot: "08:00 AM", CustomerID: f.customer.ID}, models.ErrNotFound},
		{"missing profile", models.CreateBookingRequest{ServiceID: f.service.ID, TimeSlot: "08:00 AM", CustomerID: "ghost"}, models.ErrNotFound},
		{"incomplete profile", models.CreateBookingRequest{ServiceID: f.service.ID, TimeSlot: "08:00 AM", CustomerID: incomplete.ID}, models.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := bs.CreateBooking(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	all, err := f.stg.Booking().List(ctx, models.BookingFilter{ProviderID: f.provider.ID})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestTransitionHappyPath(t *testing.T) {
	f := newFixture(t)
	bs := NewBookingService(f.stg, logger.NewNop(), false)
	ctx := context.Background()
	b := f.book(t, bs)

	for _, next := range []models.Status{models.StatusAccepted, models.StatusEnroute, models.StatusCompleted} {
		got, err := bs.Transition(ctx, b.ID, f.providerActor(), next)
		require.NoError(t, err)
		assert.Equal(t, next, got.Status)
	}
}

func TestTransitionIllegalLeavesBookingUnchanged(t *testing.T) {
	f := newFixture(t)
	bs := NewBookingService(f.stg, logger.NewNop(), false)
	ctx := context.Background()
	b := f.book(t, bs)

	_, err := bs.Transition(ctx, b.ID, f.providerActor(), models.StatusCompleted)
	assert.ErrorIs(t, err, models.ErrIllegalTransition)

	_, err = bs.Transition(ctx, b.ID, f.customerActor(), models.StatusAccepted)
	assert.ErrorIs(t, err, models.ErrIllegalTransition)

	got, err := bs.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRequested, got.Status)
	assert.Equal(t, b.UpdatedAt, got.UpdatedAt)
}

func TestTransitionIdentityDoesNotWrite(t *testing.T) {
	f := newFixture(t)
	bs := NewBookingService(f.stg, logger.NewNop(), false)
	ctx := context.Background()
	b := f.book(t, bs)

	got, err := bs.Transition(ctx, b.ID, f.customerActor(), models.StatusRequested)
	require.NoError(t, err)
	assert.Equal(t, b.UpdatedAt, got.UpdatedAt)

	stored, err := bs.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.UpdatedAt, stored.UpdatedAt)
}

func TestTransitionChecksOwnershipAndInput(t *testing.T) {
	f := newFixture(t)
	bs := NewBookingService(f.stg, logger.NewNop(), false)
	ctx := context.Background()
	b := f.book(t, bs)

	_, err := bs.Transition(ctx, b.ID, models.Actor{ID: "someone-else", Role: models.RoleProvider}, models.StatusAccepted)
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = bs.Transition(ctx, "missing", f.providerActor(), models.StatusAccepted)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = bs.Transition(ctx, b.ID, models.Actor{ID: f.provider.ID, Role: "admin"}, models.StatusAccepted)
	assert.ErrorIs(t, err, models.ErrValidation)

	// anonymous actors skip the ownership check but not the role rules
	got, err := bs.Transition(ctx, b.ID, models.Actor{Role: models.RoleCustomer}, models.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, got.Status)
}

func TestConcurrentConflictingTransitions(t *testing.T) {
	for _, strict := range []bool{false, true} {
		f := newFixture(t)
		bs := NewBookingService(f.stg, logger.NewNop(), strict)
		ctx := context.Background()
		b := f.book(t, bs)

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i, target := range []models.Status{models.StatusAccepted, models.StatusRejected} {
			wg.Add(1)
			go func(i int, target models.Status) {
				defer wg.Done()
				_, errs[i] = bs.Transition(ctx, b.ID, f.providerActor(), target)
			}(i, target)
		}
		wg.Wait()

		got, err := bs.GetByID(ctx, b.ID)
		require.NoError(t, err)
		assert.Contains(t, []models.Status{models.StatusAccepted, models.StatusRejected}, got.Status)

		if strict {
			failed := 0
			for _, err := range errs {
				if err != nil {
					failed++
					assert.True(t, errors.Is(err, models.ErrConcurrentUpdate) || errors.Is(err, models.ErrIllegalTransition), err)
				}
			}
			assert.Equal(t, 1, failed)
		}
	}
}

func TestListRequiresFilter(t *testing.T) {
	f := newFixture(t)
	bs := NewBookingService(f.stg, logger.NewNop(), false)
	_, err := bs.List(context.Background(), models.BookingFilter{})
	assert.ErrorIs(t, err, models.ErrValidation)
}
