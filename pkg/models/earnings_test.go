package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeEarnings(t *testing.T) {
	tests := []struct {
		name     string
		bookings []*Booking
		want     Earnings
	}{
		{
			name: "empty",
			want: Earnings{},
		},
		{
			name: "only non completed",
			bookings: []*Booking{
				{Status: StatusRequested, Price: 100},
				{Status: StatusEnroute, Price: 200},
				{Status: StatusCancelled, Price: 300},
			},
			want: Earnings{},
		},
		{
			name: "one paid out one pending",
			bookings: []*Booking{
				{Status: StatusCompleted, Price: 500},
				{Status: StatusCompleted, Price: 300, PayoutRequested: true},
			},
			want: Earnings{Total: 800, PendingPayout: 500, Completed: 2},
		},
		{
			name: "paid without request is not pending",
			bookings: []*Booking{
				{Status: StatusCompleted, Price: 250, Paid: true},
			},
			want: Earnings{Total: 250, Completed: 1},
		},
		{
			name: "invalid prices count as zero",
			bookings: []*Booking{
				{Status: StatusCompleted, Price: math.NaN()},
				{Status: StatusCompleted, Price: -10},
				{Status: StatusCompleted, Price: math.Inf(1)},
				{Status: StatusCompleted, Price: 40},
			},
			want: Earnings{Total: 40, PendingPayout: 40, Completed: 4},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeEarnings(tt.bookings))
		})
	}
}

func TestPayoutEligible(t *testing.T) {
	assert.True(t, PayoutEligible(&Booking{Status: StatusCompleted}))
	assert.False(t, PayoutEligible(&Booking{Status: StatusCompleted, PayoutRequested: true}))
	assert.False(t, PayoutEligible(&Booking{Status: StatusCompleted, Paid: true}))
	assert.False(t, PayoutEligible(&Booking{Status: StatusEnroute}))
	assert.False(t, PayoutEligible(nil))
}

func TestCountByClass(t *testing.T) {
	got := CountByClass([]*Booking{
		{Status: StatusRequested},
		{Status: StatusAccepted},
		{Status: StatusCompleted},
		{Status: StatusRejected},
	})
	assert.Equal(t, 2, got[ClassActive])
	assert.Equal(t, 1, got[ClassCompleted])
	assert.Equal(t, 1, got[ClassClosed])
}
