package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	tele "gopkg.in/telebot.v3"

	"homeservices/pkg/logger"
	"homeservices/pkg/models"
	"homeservices/service"
)

func (b *Bot) handleServices(c tele.Context) error {
	services, err := b.Svc.Catalog().List(context.Background())
	if err != nil {
		b.Log.Error("failed to list services", logger.Error(err))
		return c.Send(messages["error"])
	}
	if len(services) == 0 {
		return c.Send(messages["no_services"])
	}
	for _, s := range services {
		menu := &tele.ReplyMarkup{}
		menu.Inline(menu.Row(menu.Data("📅 Book", btnBook.Unique, s.ID)))
		c.Send(serviceText(s), menu)
	}
	return nil
}

func (b *Bot) handleBook(c tele.Context) error {
	serviceID := c.Callback().Data
	if _, err := b.Svc.Catalog().Get(context.Background(), serviceID); err != nil {
		return b.respondErr(c, err)
	}

	menu := &tele.ReplyMarkup{}
	var rows []tele.Row
	var current []tele.Btn
	for i, slot := range models.TimeSlots {
		current = append(current, menu.Data(slot, btnSlot.Unique, serviceID, strconv.Itoa(i)))
		if (i+1)%3 == 0 {
			rows = append(rows, menu.Row(current...))
			current = nil
		}
	}
	if len(current) > 0 {
		rows = append(rows, menu.Row(current...))
	}
	menu.Inline(rows...)

	c.Respond()
	return c.Send(messages["pick_slot"], menu)
}

func (b *Bot) handleSlot(c tele.Context) error {
	parts, ok := payload(c.Callback().Data, 2)
	if !ok {
		return c.Respond()
	}
	idx, err := strconv.Atoi(parts[1])
	if err != nil || idx < 0 || idx >= len(models.TimeSlots) {
		return c.Respond()
	}
	actor, err := b.actor(c)
	if err != nil {
		return b.respondErr(c, err)
	}

	booking, err := b.Svc.Booking().CreateBooking(context.Background(), models.CreateBookingRequest{
		ServiceID:  parts[0],
		TimeSlot:   models.TimeSlots[idx],
		CustomerID: actor.ID,
	})
	if err != nil {
		return b.respondErr(c, err)
	}

	c.Respond(&tele.CallbackResponse{Text: "Booked"})
	c.Edit(messages["booked"] + "\n\n" + bookingText(booking, models.RoleCustomer))
	b.notifyPeer(booking.ProviderID, fmt.Sprintf(messages["notif_new"], bookingText(booking, models.RoleProvider)))
	return nil
}

// handleBookings shows the tab bar on the customer side and the full list on
// the provider side.
func (b *Bot) handleBookings(c tele.Context) error {
	bookings, actor, err := b.bookings(c)
	if err != nil {
		b.Log.Error("failed to load bookings", logger.Error(err))
		return c.Send(messages["error"])
	}
	if actor.Role == models.RoleProvider {
		return b.sendBookings(c, actor, bookings)
	}

	counts := models.CountByClass(bookings)
	menu := &tele.ReplyMarkup{}
	var row []tele.Btn
	for _, t := range tabLabels {
		row = append(row, menu.Data(fmt.Sprintf("%s (%d)", t.Label, counts[t.Class]), btnTab.Unique, string(t.Class)))
	}
	menu.Inline(menu.Row(row...))
	c.Send("📋 Your bookings", menu)

	return b.sendBookings(c, actor, byClass(bookings, models.ClassActive))
}

func (b *Bot) handleTab(c tele.Context) error {
	bookings, actor, err := b.bookings(c)
	if err != nil {
		return b.respondErr(c, err)
	}
	c.Respond()
	return b.sendBookings(c, actor, byClass(bookings, models.Classification(c.Callback().Data)))
}

func (b *Bot) handleCancel(c tele.Context) error {
	actor, err := b.actor(c)
	if err != nil {
		return b.respondErr(c, err)
	}
	booking, err := b.Svc.Booking().Transition(context.Background(), c.Callback().Data, actor, models.StatusCancelled)
	if err != nil {
		return b.respondErr(c, err)
	}
	c.Respond(&tele.CallbackResponse{Text: "Cancelled"})
	return c.Edit(bookingText(booking, actor.Role), b.bookingMenu(booking, actor))
}

func (b *Bot) handlePay(c tele.Context) error {
	actor, err := b.actor(c)
	if err != nil {
		return b.respondErr(c, err)
	}
	res, err := b.Svc.Payment().Pay(context.Background(), c.Callback().Data, actor.ID)
	if errors.Is(err, models.ErrPaymentFailed) {
		c.Respond()
		menu := &tele.ReplyMarkup{}
		menu.Inline(menu.Row(menu.Data("💵 I paid in cash", btnPaidManual.Unique, c.Callback().Data)))
		return c.Send("⚠️ Online payment is unavailable right now. Paid the provider directly?", menu)
	}
	if err != nil {
		return b.respondErr(c, err)
	}
	c.Respond(&tele.CallbackResponse{Text: "Paid"})
	return c.Edit(bookingText(res.Booking, actor.Role), b.bookingMenu(res.Booking, actor))
}

func (b *Bot) handlePaidManual(c tele.Context) error {
	actor, err := b.actor(c)
	if err != nil {
		return b.respondErr(c, err)
	}
	res, err := b.Svc.Payment().ConfirmManually(context.Background(), c.Callback().Data, actor.ID)
	if err != nil {
		return b.respondErr(c, err)
	}
	c.Respond(&tele.CallbackResponse{Text: "Thanks!"})
	return c.Edit(bookingText(res.Booking, actor.Role))
}

func (b *Bot) handleAddressStart(c tele.Context) error {
	if _, err := b.actor(c); err != nil {
		return c.Send(messages["error"])
	}
	b.setStep(c.Sender().ID, StepAddress)
	return c.Send(messages["ask_address"], tele.RemoveKeyboard)
}

func (b *Bot) handleAddressText(c tele.Context) error {
	actor, err := b.actor(c)
	if err != nil {
		return c.Send(messages["error"])
	}
	if err := b.Svc.User().SetAddress(context.Background(), actor.ID, c.Text()); err != nil {
		b.Log.Error("failed to save address", logger.String("user_id", actor.ID), logger.Error(err))
		return c.Send(messages["error"])
	}
	b.setStep(c.Sender().ID, StepIdle)
	c.Send(messages["address_saved"])
	return b.showMenu(c)
}

// bookings reads the live view when it has synced and falls back to a
// direct query right after sign-in.
func (b *Bot) bookings(c tele.Context) ([]*models.Booking, models.Actor, error) {
	actor, err := b.actor(c)
	if err != nil {
		return nil, actor, err
	}
	if p, ok := b.projection(c); ok && p.Ready() {
		return p.Bookings(), actor, nil
	}
	list, err := b.Svc.Booking().List(context.Background(), service.FilterFor(actor))
	return list, actor, err
}

func (b *Bot) sendBookings(c tele.Context, actor models.Actor, bookings []*models.Booking) error {
	if len(bookings) == 0 {
		return c.Send(messages["no_bookings"])
	}
	for _, bk := range bookings {
		c.Send(bookingText(bk, actor.Role), b.bookingMenu(bk, actor))
	}
	return nil
}

// bookingMenu offers the moves the actor may make from the booking's
// current status.
func (b *Bot) bookingMenu(bk *models.Booking, actor models.Actor) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	var row []tele.Btn
	for _, next := range models.NextStatuses(bk.Status, actor.Role) {
		if actor.Role == models.RoleCustomer {
			if next == models.StatusCancelled {
				row = append(row, menu.Data(statusButtons[next], btnCancel.Unique, bk.ID))
			}
			continue
		}
		row = append(row, menu.Data(statusButtons[next], btnStatus.Unique, bk.ID, string(next)))
	}
	if actor.Role == models.RoleCustomer && bk.Status == models.StatusCompleted && !bk.PaymentDone {
		row = append(row, menu.Data("💳 Pay "+money(bk.Price), btnPay.Unique, bk.ID))
	}
	if len(row) > 0 {
		menu.Inline(menu.Row(row...))
	}
	return menu
}

func byClass(bookings []*models.Booking, class models.Classification) []*models.Booking {
	out := make([]*models.Booking, 0, len(bookings))
	for _, bk := range bookings {
		if got, ok := bk.Status.Classification(); ok && got == class {
			out = append(out, bk)
		}
	}
	return out
}
