package bot

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"homeservices/pkg/models"
)

func TestBookingTextPerRole(t *testing.T) {
	b := &models.Booking{
		ServiceTitle:    "Tap repair",
		TimeSlot:        "10:30 AM",
		Price:           450,
		Status:          models.StatusCompleted,
		CustomerName:    "Asha",
		CustomerPhone:   "+91 90000 00002",
		CustomerAddress: "12 MG Road",
		ProviderName:    "Kiran Plumbing",
		ProviderPhone:   "+91 90000 00001",
	}

	provider := bookingText(b, models.RoleProvider)
	assert.Contains(t, provider, "Asha")
	assert.Contains(t, provider, "12 MG Road")
	assert.NotContains(t, provider, "Payment")

	customer := bookingText(b, models.RoleCustomer)
	assert.Contains(t, customer, "Kiran Plumbing")
	assert.Contains(t, customer, "₹450")
	assert.Contains(t, customer, "Payment pending")
}

func TestMoney(t *testing.T) {
	assert.Equal(t, "₹450", money(450))
	assert.Equal(t, "₹99.50", money(99.5))
	assert.Equal(t, "₹0", money(0))
}

func TestPayload(t *testing.T) {
	parts, ok := payload("abc|3", 2)
	assert.True(t, ok)
	assert.Equal(t, []string{"abc", "3"}, parts)

	_, ok = payload("abc", 2)
	assert.False(t, ok)
	_, ok = payload("abc|", 2)
	assert.False(t, ok)
}

func TestUserError(t *testing.T) {
	assert.Equal(t, "enter a valid phone number", userError(models.ValidatePhone("x")))
	assert.Equal(t, "Nothing to pay out yet.", userError(models.ErrNothingToPayout))
	assert.Equal(t, "This booking has changed, refresh and try again.",
		userError(fmt.Errorf("wrapped: %w", models.ErrConcurrentUpdate)))
	assert.Equal(t, "Something went wrong.", userError(assert.AnError))
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "+919000000001", normalizePhone("919000000001"))
	assert.Equal(t, "+919000000001", normalizePhone(" +919000000001 "))
	assert.Equal(t, "", normalizePhone(""))
}

func TestBookingMenu(t *testing.T) {
	b := &Bot{}
	customer := models.Actor{ID: "c1", Role: models.RoleCustomer}
	provider := models.Actor{ID: "p1", Role: models.RoleProvider}

	requested := &models.Booking{ID: "b1", Status: models.StatusRequested, Price: 450}
	assert.Len(t, b.bookingMenu(requested, customer).InlineKeyboard[0], 1)
	assert.Len(t, b.bookingMenu(requested, provider).InlineKeyboard[0], 2)

	done := &models.Booking{ID: "b1", Status: models.StatusCompleted, Price: 450}
	row := b.bookingMenu(done, customer).InlineKeyboard[0]
	assert.Len(t, row, 1)
	assert.Equal(t, "💳 Pay ₹450", row[0].Text)

	done.PaymentDone = true
	assert.Empty(t, b.bookingMenu(done, customer).InlineKeyboard)
	assert.Empty(t, b.bookingMenu(done, provider).InlineKeyboard)
}

func TestEarningsAndPayoutText(t *testing.T) {
	txt := earningsText(models.Earnings{Total: 900, PendingPayout: 450, Completed: 2})
	assert.Contains(t, txt, "Completed jobs: 2")
	assert.Contains(t, txt, "Pending payout: ₹450")

	assert.Contains(t, payoutText(&models.PayoutResult{Requested: []string{"a"}, Amount: 450}), "1 booking(s), ₹450")
	assert.Contains(t, payoutText(&models.PayoutResult{Failed: []models.PayoutFailure{{BookingID: "x"}}}), "could not be flagged")
}
