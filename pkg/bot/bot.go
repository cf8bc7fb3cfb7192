package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	tele "gopkg.in/telebot.v3"

	"homeservices/pkg/logger"
	"homeservices/pkg/models"
	"homeservices/service"
)

type BotType string

const (
	BotTypeCustomer BotType = "customer"
	BotTypeProvider BotType = "provider"
)

const (
	StepIdle         = "idle"
	StepAddress      = "awaiting_address"
	StepServiceTitle = "awaiting_service_title"
	StepServiceCat   = "awaiting_service_category"
	StepServicePrice = "awaiting_service_price"
)

// chatState is the dialog position of one Telegram user on one bot.
type chatState struct {
	ProfileID string
	Step      string
	Draft     models.Service
}

type Bot struct {
	Type BotType
	Bot  *tele.Bot
	Log  logger.ILogger
	Svc  service.IServiceManager
	// Peer is the other side's bot, used to reach users who are not
	// talking to this one.
	Peer *Bot

	mu    sync.Mutex
	chats map[int64]*chatState
}

// Inline buttons. Payloads travel in the callback data.
var (
	btnBook        = tele.Btn{Unique: "svc_book"}
	btnSlot        = tele.Btn{Unique: "bk_slot"}
	btnTab         = tele.Btn{Unique: "bk_tab"}
	btnCancel      = tele.Btn{Unique: "bk_cancel"}
	btnPay         = tele.Btn{Unique: "bk_pay"}
	btnPaidManual  = tele.Btn{Unique: "bk_paid_manual"}
	btnStatus      = tele.Btn{Unique: "bk_status"}
	btnPayout      = tele.Btn{Unique: "earn_payout"}
	btnServiceDrop = tele.Btn{Unique: "svc_del"}
)

var messages = map[string]string{
	"welcome_customer": "👋 Welcome! Book trusted local professionals in a few taps.",
	"welcome_provider": "👋 Welcome, partner! Manage your services and bookings here.",
	"contact_msg":      "Please share your phone number to finish signing up:",
	"share_contact":    "📱 Share phone number",
	"own_contact":      "Please share your own phone number.",
	"registered":       "🎉 You're all set!",
	"ask_address":      "🏠 Send the address where services should happen:",
	"address_saved":    "✅ Address saved.",
	"signed_out":       "👋 Signed out. Send /start to sign in again.",
	"menu":             "Choose an option:",
	"no_services":      "📭 No services available right now.",
	"pick_slot":        "🕒 Pick a time slot:",
	"booked":           "✅ Booking requested! You'll be notified when the provider responds.",
	"no_bookings":      "📭 No bookings here.",
	"notif_new":        "🔔 New booking request!\n%s",
	"service_title":    "📝 Service title?",
	"service_cat":      "🗂 Category? (e.g. Plumbing, Cleaning)",
	"service_price":    "💰 Price in INR?",
	"bad_price":        "Please send a number, e.g. 450",
	"service_added":    "✅ Service added.",
	"error":            "❌ Something went wrong. Please try again.",
}

var (
	menuServices   = tele.Btn{Text: "🛠 Services"}
	menuBookings   = tele.Btn{Text: "📋 My bookings"}
	menuAddress    = tele.Btn{Text: "🏠 Set address"}
	menuEarnings   = tele.Btn{Text: "💰 Earnings"}
	menuMyServices = tele.Btn{Text: "🗂 My services"}
	menuAddService = tele.Btn{Text: "➕ Add service"}
)

func New(botType BotType, token string, svc service.IServiceManager, log logger.ILogger) (*Bot, error) {
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c tele.Context) {
			log.Error("telegram handler failed", logger.String("bot", string(botType)), logger.Error(err))
		},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, err
	}
	bot := &Bot{
		Type:  botType,
		Bot:   b,
		Log:   log.With(logger.String("bot", string(botType))),
		Svc:   svc,
		chats: make(map[int64]*chatState),
	}
	bot.registerHandlers()
	return bot, nil
}

func (b *Bot) Start() {
	b.Log.Info("bot started")
	b.Bot.Start()
}

// Stop ends every live session this bot owns and stops polling.
func (b *Bot) Stop() {
	b.mu.Lock()
	ids := make([]int64, 0, len(b.chats))
	for id := range b.chats {
		ids = append(ids, id)
	}
	b.mu.Unlock()

	for _, id := range ids {
		b.Svc.Sessions().End(b.sessionKey(id))
	}
	b.Bot.Stop()
}

func (b *Bot) registerHandlers() {
	b.Bot.Handle("/start", b.handleStart)
	b.Bot.Handle("/logout", b.handleLogout)
	b.Bot.Handle(tele.OnContact, b.handleContact)
	b.Bot.Handle(&menuBookings, b.handleBookings)

	if b.Type == BotTypeCustomer {
		b.Bot.Handle(&menuServices, b.handleServices)
		b.Bot.Handle(&menuAddress, b.handleAddressStart)
		b.Bot.Handle(&btnBook, b.handleBook)
		b.Bot.Handle(&btnSlot, b.handleSlot)
		b.Bot.Handle(&btnTab, b.handleTab)
		b.Bot.Handle(&btnCancel, b.handleCancel)
		b.Bot.Handle(&btnPay, b.handlePay)
		b.Bot.Handle(&btnPaidManual, b.handlePaidManual)
	} else {
		b.Bot.Handle(&menuEarnings, b.handleEarnings)
		b.Bot.Handle(&menuMyServices, b.handleMyServices)
		b.Bot.Handle(&menuAddService, b.handleServiceAddStart)
		b.Bot.Handle(&btnStatus, b.handleStatus)
		b.Bot.Handle(&btnPayout, b.handlePayout)
		b.Bot.Handle(&btnServiceDrop, b.handleServiceDelete)
	}

	b.Bot.Handle(tele.OnText, b.handleText)
}

func (b *Bot) role() models.Role {
	if b.Type == BotTypeProvider {
		return models.RoleProvider
	}
	return models.RoleCustomer
}

func (b *Bot) sessionKey(chatID int64) string {
	return fmt.Sprintf("tg:%s:%d", b.Type, chatID)
}

func (b *Bot) state(teleID int64) *chatState {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, ok := b.chats[teleID]
	if !ok {
		st = &chatState{Step: StepIdle}
		b.chats[teleID] = st
	}
	return st
}

func (b *Bot) setStep(teleID int64, step string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if st, ok := b.chats[teleID]; ok {
		st.Step = step
	}
}

// signIn registers the sender and points their chat session at the live
// booking view. Status changes then reach the chat through the notifier.
func (b *Bot) signIn(ctx context.Context, c tele.Context) (*models.Profile, error) {
	sender := c.Sender()
	name := strings.TrimSpace(sender.FirstName + " " + sender.LastName)
	if name == "" {
		name = sender.Username
	}

	p, err := b.Svc.User().Register(ctx, sender.ID, name, b.role())
	if err != nil {
		return nil, err
	}

	actor := models.Actor{ID: p.ID, Role: b.role()}
	if _, err := b.Svc.Sessions().AuthStateChanged(ctx, b.sessionKey(sender.ID), actor, b.notifier(sender.ID)); err != nil {
		b.Log.Error("failed to start booking session", logger.String("user_id", p.ID), logger.Error(err))
	}

	b.mu.Lock()
	st, ok := b.chats[sender.ID]
	if !ok {
		st = &chatState{}
		b.chats[sender.ID] = st
	}
	st.ProfileID = p.ID
	st.Step = StepIdle
	b.mu.Unlock()
	return p, nil
}

// actor returns the signed-in actor for the sender, signing them in on the
// first message after a restart.
func (b *Bot) actor(c tele.Context) (models.Actor, error) {
	st := b.state(c.Sender().ID)
	b.mu.Lock()
	id := st.ProfileID
	b.mu.Unlock()
	if id != "" {
		return models.Actor{ID: id, Role: b.role()}, nil
	}
	p, err := b.signIn(context.Background(), c)
	if err != nil {
		return models.Actor{}, err
	}
	return models.Actor{ID: p.ID, Role: b.role()}, nil
}

func (b *Bot) notifier(chatID int64) service.Notifier {
	return service.NotifierFunc(func(ctx context.Context, message string) error {
		_, err := b.Bot.Send(&tele.User{ID: chatID}, "🔔 "+message)
		return err
	})
}

func (b *Bot) handleStart(c tele.Context) error {
	ctx := context.Background()
	p, err := b.signIn(ctx, c)
	if err != nil {
		b.Log.Error("failed to sign in", logger.Int64("telegram_id", c.Sender().ID), logger.Error(err))
		return c.Send(messages["error"])
	}

	if b.Type == BotTypeCustomer {
		c.Send(messages["welcome_customer"])
	} else {
		c.Send(messages["welcome_provider"])
	}

	if p.Phone == "" {
		menu := &tele.ReplyMarkup{ResizeKeyboard: true}
		menu.Reply(menu.Row(menu.Contact(messages["share_contact"])))
		return c.Send(messages["contact_msg"], menu)
	}
	return b.showMenu(c)
}

func (b *Bot) handleLogout(c tele.Context) error {
	b.Svc.Sessions().End(b.sessionKey(c.Sender().ID))
	b.mu.Lock()
	delete(b.chats, c.Sender().ID)
	b.mu.Unlock()
	return c.Send(messages["signed_out"], tele.RemoveKeyboard)
}

func (b *Bot) handleContact(c tele.Context) error {
	contact := c.Message().Contact
	if contact.UserID != c.Sender().ID {
		return c.Send(messages["own_contact"])
	}
	actor, err := b.actor(c)
	if err != nil {
		return c.Send(messages["error"])
	}
	if err := b.Svc.User().SetPhone(context.Background(), actor.ID, normalizePhone(contact.PhoneNumber)); err != nil {
		b.Log.Error("failed to save phone", logger.String("user_id", actor.ID), logger.Error(err))
		return c.Send(messages["error"])
	}
	c.Send(messages["registered"], tele.RemoveKeyboard)

	if b.Type == BotTypeCustomer {
		p, err := b.Svc.User().Get(context.Background(), actor.ID)
		if err == nil && p.Address == "" {
			b.setStep(c.Sender().ID, StepAddress)
			return c.Send(messages["ask_address"])
		}
	}
	return b.showMenu(c)
}

func (b *Bot) showMenu(c tele.Context) error {
	menu := &tele.ReplyMarkup{ResizeKeyboard: true}
	if b.Type == BotTypeCustomer {
		menu.Reply(
			menu.Row(menuServices, menuBookings),
			menu.Row(menuAddress),
		)
	} else {
		menu.Reply(
			menu.Row(menuBookings, menuEarnings),
			menu.Row(menuMyServices, menuAddService),
		)
	}
	return c.Send(messages["menu"], menu)
}

func (b *Bot) handleText(c tele.Context) error {
	st := b.state(c.Sender().ID)
	b.mu.Lock()
	step := st.Step
	b.mu.Unlock()

	switch step {
	case StepAddress:
		return b.handleAddressText(c)
	case StepServiceTitle, StepServiceCat, StepServicePrice:
		return b.handleServiceDraftText(c, step)
	}
	return nil
}

// projection returns the live view backing the sender's chat, if any.
func (b *Bot) projection(c tele.Context) (*service.Projection, bool) {
	if _, err := b.actor(c); err != nil {
		return nil, false
	}
	p, ok := b.Svc.Sessions().Get(b.sessionKey(c.Sender().ID))
	if !ok || !p.Active() {
		return nil, false
	}
	return p, true
}

// notifyPeer reaches a profile through the other bot.
func (b *Bot) notifyPeer(profileID, text string) {
	if b.Peer == nil {
		return
	}
	p, err := b.Svc.User().Get(context.Background(), profileID)
	if err != nil || p.TelegramID == nil {
		return
	}
	if _, err := b.Peer.Bot.Send(&tele.User{ID: *p.TelegramID}, text); err != nil {
		b.Log.Warning("failed to notify peer", logger.String("user_id", profileID), logger.Error(err))
	}
}

func (b *Bot) respondErr(c tele.Context, err error) error {
	b.Log.Warning("action rejected", logger.Error(err))
	return c.Respond(&tele.CallbackResponse{Text: "❌ " + userError(err), ShowAlert: true})
}
