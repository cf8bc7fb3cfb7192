package bot

import (
	"errors"
	"fmt"
	"strings"

	"homeservices/pkg/models"
)

var tabLabels = []struct {
	Class models.Classification
	Label string
}{
	{models.ClassActive, "Active"},
	{models.ClassCompleted, "Completed"},
	{models.ClassClosed, "Cancelled"},
}

var statusButtons = map[models.Status]string{
	models.StatusAccepted:  "✅ Accept",
	models.StatusRejected:  "🚫 Reject",
	models.StatusEnroute:   "🚗 On the way",
	models.StatusCompleted: "🏁 Complete",
	models.StatusCancelled: "❌ Cancel",
}

func bookingText(b *models.Booking, role models.Role) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📦 %s\n", b.ServiceTitle)
	fmt.Fprintf(&sb, "🕒 %s\n", b.TimeSlot)
	fmt.Fprintf(&sb, "💰 %s\n", money(b.Price))
	fmt.Fprintf(&sb, "📊 %s\n", b.Status.Friendly())
	if role == models.RoleProvider {
		fmt.Fprintf(&sb, "👤 %s, %s\n", b.CustomerName, b.CustomerPhone)
		if b.CustomerAddress != "" {
			fmt.Fprintf(&sb, "🏠 %s\n", b.CustomerAddress)
		}
	} else {
		fmt.Fprintf(&sb, "🧰 %s, %s\n", b.ProviderName, b.ProviderPhone)
		if b.Status == models.StatusCompleted {
			if b.PaymentDone {
				sb.WriteString("💳 Paid\n")
			} else {
				sb.WriteString("💳 Payment pending\n")
			}
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func serviceText(s *models.Service) string {
	line := fmt.Sprintf("🛠 %s · %s", s.DisplayTitle(), money(s.Price))
	if s.Category != "" {
		line += "\n🗂 " + s.Category
	}
	if s.ProviderName != "" {
		line += "\n🧰 " + s.ProviderName
	}
	return line
}

func earningsText(e models.Earnings) string {
	return fmt.Sprintf("💰 Earnings\n\nCompleted jobs: %d\nTotal: %s\nPending payout: %s",
		e.Completed, money(e.Total), money(e.PendingPayout))
}

func payoutText(r *models.PayoutResult) string {
	txt := fmt.Sprintf("✅ Payout requested for %d booking(s), %s.", len(r.Requested), money(r.Amount))
	if len(r.Failed) > 0 {
		txt += fmt.Sprintf("\n⚠️ %d booking(s) could not be flagged, try again later.", len(r.Failed))
	}
	return txt
}

func money(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("₹%d", int64(v))
	}
	return fmt.Sprintf("₹%.2f", v)
}

// userError turns a domain error into a short message for an alert.
func userError(err error) string {
	switch {
	case errors.Is(err, models.ErrIllegalTransition), errors.Is(err, models.ErrConcurrentUpdate):
		return "This booking has changed, refresh and try again."
	case errors.Is(err, models.ErrNotFound):
		return "Not found."
	case errors.Is(err, models.ErrForbidden):
		return "This is not yours."
	case errors.Is(err, models.ErrNothingToPayout):
		return "Nothing to pay out yet."
	case errors.Is(err, models.ErrPaymentFailed):
		return "Payment failed."
	case errors.Is(err, models.ErrValidation):
		var ve *models.ValidationError
		if errors.As(err, &ve) && ve.Reason != "" {
			return ve.Reason
		}
		return "Invalid input."
	}
	return "Something went wrong."
}

// normalizePhone keeps Telegram contact numbers in a dialable form.
func normalizePhone(p string) string {
	p = strings.TrimSpace(p)
	if p != "" && !strings.HasPrefix(p, "+") {
		p = "+" + p
	}
	return p
}

// payload splits callback data into exactly n parts.
func payload(data string, n int) ([]string, bool) {
	parts := strings.Split(data, "|")
	if len(parts) != n {
		return nil, false
	}
	for _, p := range parts {
		if p == "" {
			return nil, false
		}
	}
	return parts, true
}
