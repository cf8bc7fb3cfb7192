package bot

import (
	"context"
	"strings"

	"github.com/spf13/cast"
	tele "gopkg.in/telebot.v3"

	"homeservices/pkg/logger"
	"homeservices/pkg/models"
)

func (b *Bot) handleStatus(c tele.Context) error {
	parts, ok := payload(c.Callback().Data, 2)
	if !ok {
		return c.Respond()
	}
	target, err := models.ParseStatus(parts[1])
	if err != nil {
		return b.respondErr(c, err)
	}
	actor, err := b.actor(c)
	if err != nil {
		return b.respondErr(c, err)
	}

	booking, err := b.Svc.Booking().Transition(context.Background(), parts[0], actor, target)
	if err != nil {
		return b.respondErr(c, err)
	}
	c.Respond(&tele.CallbackResponse{Text: booking.Status.Friendly()})
	return c.Edit(bookingText(booking, actor.Role), b.bookingMenu(booking, actor))
}

func (b *Bot) handleEarnings(c tele.Context) error {
	actor, err := b.actor(c)
	if err != nil {
		return c.Send(messages["error"])
	}

	var e models.Earnings
	if p, ok := b.projection(c); ok && p.Ready() {
		e = p.Earnings()
	} else if e, err = b.Svc.Earnings().Summary(context.Background(), actor.ID); err != nil {
		b.Log.Error("failed to load earnings", logger.String("user_id", actor.ID), logger.Error(err))
		return c.Send(messages["error"])
	}

	if e.PendingPayout <= 0 {
		return c.Send(earningsText(e))
	}
	menu := &tele.ReplyMarkup{}
	menu.Inline(menu.Row(menu.Data("🏦 Request payout", btnPayout.Unique)))
	return c.Send(earningsText(e), menu)
}

func (b *Bot) handlePayout(c tele.Context) error {
	actor, err := b.actor(c)
	if err != nil {
		return b.respondErr(c, err)
	}
	res, err := b.Svc.Earnings().RequestPayout(context.Background(), actor.ID)
	if res == nil {
		return b.respondErr(c, err)
	}
	if err != nil {
		b.Log.Warning("payout partially failed", logger.String("user_id", actor.ID), logger.Error(err))
	}
	c.Respond()
	return c.Edit(payoutText(res))
}

func (b *Bot) handleMyServices(c tele.Context) error {
	actor, err := b.actor(c)
	if err != nil {
		return c.Send(messages["error"])
	}
	services, err := b.Svc.Catalog().ListByProvider(context.Background(), actor.ID)
	if err != nil {
		b.Log.Error("failed to list provider services", logger.String("user_id", actor.ID), logger.Error(err))
		return c.Send(messages["error"])
	}
	if len(services) == 0 {
		return c.Send(messages["no_services"])
	}
	for _, s := range services {
		menu := &tele.ReplyMarkup{}
		menu.Inline(menu.Row(menu.Data("🗑 Delete", btnServiceDrop.Unique, s.ID)))
		c.Send(serviceText(s), menu)
	}
	return nil
}

func (b *Bot) handleServiceDelete(c tele.Context) error {
	actor, err := b.actor(c)
	if err != nil {
		return b.respondErr(c, err)
	}
	if err := b.Svc.Catalog().Delete(context.Background(), actor.ID, c.Callback().Data); err != nil {
		return b.respondErr(c, err)
	}
	c.Respond(&tele.CallbackResponse{Text: "Deleted"})
	return c.Delete()
}

func (b *Bot) handleServiceAddStart(c tele.Context) error {
	if _, err := b.actor(c); err != nil {
		return c.Send(messages["error"])
	}
	st := b.state(c.Sender().ID)
	b.mu.Lock()
	st.Draft = models.Service{}
	st.Step = StepServiceTitle
	b.mu.Unlock()
	return c.Send(messages["service_title"], tele.RemoveKeyboard)
}

func (b *Bot) handleServiceDraftText(c tele.Context, step string) error {
	text := strings.TrimSpace(c.Text())
	st := b.state(c.Sender().ID)

	switch step {
	case StepServiceTitle:
		b.mu.Lock()
		st.Draft.Title = text
		st.Step = StepServiceCat
		b.mu.Unlock()
		return c.Send(messages["service_cat"])
	case StepServiceCat:
		b.mu.Lock()
		st.Draft.Category = text
		st.Step = StepServicePrice
		b.mu.Unlock()
		return c.Send(messages["service_price"])
	}

	price, err := cast.ToFloat64E(strings.TrimPrefix(text, "₹"))
	if err != nil || price < 0 {
		return c.Send(messages["bad_price"])
	}
	actor, err := b.actor(c)
	if err != nil {
		return c.Send(messages["error"])
	}

	b.mu.Lock()
	draft := st.Draft
	draft.Price = price
	st.Draft = models.Service{}
	st.Step = StepIdle
	b.mu.Unlock()

	if _, err := b.Svc.Catalog().Create(context.Background(), actor.ID, &draft); err != nil {
		b.Log.Warning("failed to add service", logger.String("user_id", actor.ID), logger.Error(err))
		c.Send("❌ " + userError(err))
		return b.showMenu(c)
	}
	c.Send(messages["service_added"])
	return b.showMenu(c)
}
