// Package bot runs the Telegram long-poll loop and drives the message
// pipeline: rate limit, consent, secret extraction, classification,
// authorization and dispatch.
package bot

import (
	"context"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ledgerbot/internal/auth"
	"ledgerbot/internal/cache"
	"ledgerbot/internal/core"
	"ledgerbot/internal/log"
	"ledgerbot/internal/ratelimit"
	"ledgerbot/internal/reply"
)

// UserStore is the slice of the repository the handler needs.
type UserStore interface {
	GetUser(ctx context.Context, id string) (*core.User, error)
	UpsertUser(ctx context.Context, u core.User) error
}

// Classifier maps one message to an intent.
type Classifier interface {
	Classify(ctx context.Context, message string, nowUTC time.Time) (core.Intent, error)
}

// Dispatcher executes an intent and renders the reply.
type Dispatcher interface {
	Dispatch(ctx context.Context, userID string, intent core.Intent) (string, error)
}

// Sender is the outbound side of the Telegram API.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Handler struct {
	api         *tgbotapi.BotAPI
	sender      Sender
	users       UserStore
	classifier  Classifier
	dispatcher  Dispatcher
	gate        *auth.Gate
	limiter     *ratelimit.Limiter
	userCache   *cache.TTLCache[*core.User]
	logger      *log.Logger
	pollTimeout int
	now         func() time.Time
}

// Deps carries the handler's collaborators.
type Deps struct {
	Users       UserStore
	Classifier  Classifier
	Dispatcher  Dispatcher
	Gate        *auth.Gate
	Limiter     *ratelimit.Limiter
	UserCache   *cache.TTLCache[*core.User]
	Logger      *log.Logger
	PollTimeout int
}

func New(api *tgbotapi.BotAPI, deps Deps) *Handler {
	return &Handler{
		api:         api,
		sender:      api,
		users:       deps.Users,
		classifier:  deps.Classifier,
		dispatcher:  deps.Dispatcher,
		gate:        deps.Gate,
		limiter:     deps.Limiter,
		userCache:   deps.UserCache,
		logger:      deps.Logger.WithComponent(log.ComponentBot),
		pollTimeout: deps.PollTimeout,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Run consumes updates until ctx is cancelled.
func (h *Handler) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = h.pollTimeout

	updates := h.api.GetUpdatesChan(u)
	h.logger.Info("listening for updates", "bot", h.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			h.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			h.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate routes one update. Non-message updates are ignored.
func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}

	switch {
	case msg.Contact != nil:
		h.handleContact(ctx, msg)
	case msg.Text != "":
		h.handleText(ctx, msg)
	}
}

func (h *Handler) handleText(ctx context.Context, msg *tgbotapi.Message) {
	senderID := strconv.FormatInt(msg.From.ID, 10)
	chatID := msg.Chat.ID

	if !h.limiter.Allow(senderID) {
		h.send(chatID, reply.RateLimited)
		return
	}

	if msg.Text == "/start" {
		h.send(chatID, reply.Welcome)
		return
	}

	user, err := h.lookupUser(ctx, senderID)
	if err != nil {
		h.logger.ErrorContext(ctx, "user lookup failed",
			log.FieldUserID, senderID, log.FieldError, err.Error())
		h.send(chatID, reply.TryAgain)
		return
	}

	// Consent is checked before the message is sent anywhere.
	if user == nil || !user.Consented {
		h.sendConsentPrompt(chatID)
		return
	}

	cleaned, secretPresent := h.gate.ExtractSecret(msg.Text)

	intent, err := h.classifier.Classify(ctx, cleaned, h.now())
	if err != nil {
		h.logger.ErrorContext(ctx, "classification failed",
			log.FieldUserID, senderID, log.FieldError, err.Error())
		h.send(chatID, reply.TryAgain)
		return
	}

	switch decision := h.gate.Authorize(user, intent.Action, secretPresent); decision {
	case auth.RequireConsent:
		h.sendConsentPrompt(chatID)
		return
	case auth.RequirePendingApproval:
		h.send(chatID, reply.PendingApproval)
		return
	case auth.RequireSecret:
		h.send(chatID, reply.Unauthorized)
		return
	case auth.Allow:
	}

	text, err := h.dispatcher.Dispatch(ctx, user.ID, intent)
	if err != nil {
		h.logger.ErrorContext(ctx, "dispatch failed",
			log.FieldUserID, senderID,
			log.FieldAction, string(intent.Action),
			log.FieldError, err.Error())
		h.send(chatID, reply.TryAgain)
		return
	}

	h.send(chatID, text)
}

func (h *Handler) handleContact(ctx context.Context, msg *tgbotapi.Message) {
	senderID := strconv.FormatInt(msg.From.ID, 10)
	chatID := msg.Chat.ID

	// Only the sender's own contact counts as consent.
	if msg.Contact.UserID != msg.From.ID {
		h.send(chatID, reply.ConsentPrompt)
		return
	}

	err := h.users.UpsertUser(ctx, core.User{
		ID:        senderID,
		Phone:     msg.Contact.PhoneNumber,
		Consented: true,
		CreatedAt: h.now(),
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "consent upsert failed",
			log.FieldUserID, senderID, log.FieldError, err.Error())
		h.send(chatID, reply.TryAgain)
		return
	}
	h.userCache.Delete(senderID)

	out := tgbotapi.NewMessage(chatID, "Thanks! "+reply.PendingApproval)
	out.ReplyMarkup = tgbotapi.NewRemoveKeyboard(false)
	if _, err := h.sender.Send(out); err != nil {
		h.logger.ErrorContext(ctx, "send failed",
			log.FieldChatID, chatID, log.FieldError, err.Error())
	}
}

func (h *Handler) lookupUser(ctx context.Context, senderID string) (*core.User, error) {
	if user, ok := h.userCache.Get(senderID); ok {
		return user, nil
	}
	user, err := h.users.GetUser(ctx, senderID)
	if err != nil {
		return nil, err
	}
	if user != nil {
		h.userCache.Set(senderID, user)
	}
	return user, nil
}

func (h *Handler) sendConsentPrompt(chatID int64) {
	out := tgbotapi.NewMessage(chatID, reply.ConsentPrompt)
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButtonContact("Share my contact"),
		),
	)
	keyboard.OneTimeKeyboard = true
	out.ReplyMarkup = keyboard
	if _, err := h.sender.Send(out); err != nil {
		h.logger.Error("send failed",
			log.FieldChatID, chatID, log.FieldError, err.Error())
	}
}

func (h *Handler) send(chatID int64, text string) {
	if _, err := h.sender.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		h.logger.Error("send failed",
			log.FieldChatID, chatID, log.FieldError, err.Error())
	}
}
