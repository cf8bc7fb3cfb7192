package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homeservices/pkg/logger"
	"homeservices/pkg/models"
	"homeservices/storage"
)

// flakyStorage fails RequestPayout for one booking id.
type flakyStorage struct {
	storage.IStorage
	failID string
}

func (s *flakyStorage) Booking() storage.IBookingStorage {
	return &flakyBookings{IBookingStorage: s.IStorage.Booking(), failID: s.failID}
}

type flakyBookings struct {
	storage.IBookingStorage
	failID string
}

func (b *flakyBookings) RequestPayout(ctx context.Context, id string) (*models.Booking, error) {
	if id == b.failID {
		return nil, errors.New("write timeout")
	}
	return b.IBookingStorage.RequestPayout(ctx, id)
}

func completed(t *testing.T, f *fixture, bs BookingService) *models.Booking {
	t.Helper()
	b := f.book(t, bs)
	for _, s := range []models.Status{models.StatusAccepted, models.StatusEnroute, models.StatusCompleted} {
		var err error
		b, err = bs.Transition(context.Background(), b.ID, f.providerActor(), s)
		require.NoError(t, err)
	}
	return b
}

func TestEarningsSummaryAndPayout(t *testing.T) {
	f := newFixture(t)
	bs := NewBookingService(f.stg, logger.NewNop(), false)
	es := NewEarningsService(f.stg, logger.NewNop())
	ctx := context.Background()

	_, err := es.RequestPayout(ctx, f.provider.ID)
	assert.ErrorIs(t, err, models.ErrNothingToPayout)

	completed(t, f, bs)
	completed(t, f, bs)
	f.book(t, bs)

	sum, err := es.Summary(ctx, f.provider.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Earnings{Total: 900, PendingPayout: 900, Completed: 2}, sum)

	res, err := es.RequestPayout(ctx, f.provider.ID)
	require.NoError(t, err)
	assert.Len(t, res.Requested, 2)
	assert.Equal(t, 900.0, res.Amount)

	sum, err = es.Summary(ctx, f.provider.ID)
	require.NoError(t, err)
	assert.Equal(t, 900.0, sum.Total)
	assert.Equal(t, 0.0, sum.PendingPayout)

	_, err = es.RequestPayout(ctx, f.provider.ID)
	assert.ErrorIs(t, err, models.ErrNothingToPayout)
}

func TestRequestPayoutContinuesPastFailures(t *testing.T) {
	f := newFixture(t)
	bs := NewBookingService(f.stg, logger.NewNop(), false)
	ctx := context.Background()

	bad := completed(t, f, bs)
	completed(t, f, bs)

	es := NewEarningsService(&flakyStorage{IStorage: f.stg, failID: bad.ID}, logger.NewNop())
	res, err := es.RequestPayout(ctx, f.provider.ID)
	require.Error(t, err)
	require.NotNil(t, res)
	assert.Len(t, res.Requested, 1)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, bad.ID, res.Failed[0].BookingID)

	// the successful item stays flagged, the failed one remains pending
	sum, err := es.Summary(ctx, f.provider.ID)
	require.NoError(t, err)
	assert.Equal(t, 450.0, sum.PendingPayout)
}

func TestMarkPaid(t *testing.T) {
	f := newFixture(t)
	bs := NewBookingService(f.stg, logger.NewNop(), false)
	es := NewEarningsService(f.stg, logger.NewNop())
	ctx := context.Background()

	open := f.book(t, bs)
	_, err := es.MarkPaid(ctx, open.ID)
	assert.ErrorIs(t, err, models.ErrValidation)

	// administrative override without a payout request
	done := completed(t, f, bs)
	paid, err := es.MarkPaid(ctx, done.ID)
	require.NoError(t, err)
	assert.True(t, paid.Paid)
	require.NotNil(t, paid.PaidAt)

	again, err := es.MarkPaid(ctx, done.ID)
	require.NoError(t, err)
	assert.Equal(t, *paid.PaidAt, *again.PaidAt)

	// paid without a request no longer counts as pending
	sum, err := es.Summary(ctx, f.provider.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, sum.PendingPayout)
	assert.Equal(t, 450.0, sum.Total)

	_, err = es.MarkPaid(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
