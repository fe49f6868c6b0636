package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ledgerbot/internal/auth"
	"ledgerbot/internal/cache"
	"ledgerbot/internal/core"
	"ledgerbot/internal/log"
	"ledgerbot/internal/ratelimit"
	"ledgerbot/internal/reply"
)

type fakeSender struct {
	sent []tgbotapi.Chattable
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) lastText(t *testing.T) string {
	t.Helper()
	if len(f.sent) == 0 {
		t.Fatal("no message was sent")
	}
	msg, ok := f.sent[len(f.sent)-1].(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("last sent message has type %T", f.sent[len(f.sent)-1])
	}
	return msg.Text
}

type fakeUsers struct {
	users    map[string]*core.User
	upserts  []core.User
	getCalls int
	getErr   error
}

func (f *fakeUsers) GetUser(_ context.Context, id string) (*core.User, error) {
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.users[id], nil
}

func (f *fakeUsers) UpsertUser(_ context.Context, u core.User) error {
	f.upserts = append(f.upserts, u)
	return nil
}

type fakeClassifier struct {
	intent     core.Intent
	err        error
	gotMessage string
	calls      int
}

func (f *fakeClassifier) Classify(_ context.Context, message string, _ time.Time) (core.Intent, error) {
	f.calls++
	f.gotMessage = message
	return f.intent, f.err
}

type fakeDispatcher struct {
	reply     string
	err       error
	gotUserID string
	calls     int
}

func (f *fakeDispatcher) Dispatch(_ context.Context, userID string, _ core.Intent) (string, error) {
	f.calls++
	f.gotUserID = userID
	return f.reply, f.err
}

type fixture struct {
	handler    *Handler
	sender     *fakeSender
	users      *fakeUsers
	classifier *fakeClassifier
	dispatcher *fakeDispatcher
	limiter    *ratelimit.Limiter
}

func newFixture(t *testing.T, secret string, users map[string]*core.User) *fixture {
	t.Helper()
	sender := &fakeSender{}
	store := &fakeUsers{users: users}
	classifier := &fakeClassifier{intent: core.GeneralReply("hi")}
	dispatcher := &fakeDispatcher{reply: "done"}
	limiter := ratelimit.NewLimiter(ratelimit.Config{MessagesPerMinute: 100})
	t.Cleanup(limiter.Stop)

	logger := log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
	h := &Handler{
		sender:     sender,
		users:      store,
		classifier: classifier,
		dispatcher: dispatcher,
		gate:       auth.NewGate(secret),
		limiter:    limiter,
		userCache:  cache.NewTTLCache[*core.User](time.Minute),
		logger:     logger,
		now:        func() time.Time { return time.Date(2024, 1, 10, 15, 0, 0, 0, time.UTC) },
	}
	return &fixture{handler: h, sender: sender, users: store, classifier: classifier, dispatcher: dispatcher, limiter: limiter}
}

func textUpdate(senderID, chatID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: senderID},
		Chat: &tgbotapi.Chat{ID: chatID},
		Text: text,
	}}
}

func contactUpdate(senderID, chatID, contactUserID int64, phone string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		From:    &tgbotapi.User{ID: senderID},
		Chat:    &tgbotapi.Chat{ID: chatID},
		Contact: &tgbotapi.Contact{UserID: contactUserID, PhoneNumber: phone},
	}}
}

func allowedUser(id string) *core.User {
	return &core.User{ID: id, Consented: true, Allowed: true}
}

func TestHandleText_UnknownUserGetsConsentPrompt(t *testing.T) {
	f := newFixture(t, "", nil)

	f.handler.HandleUpdate(context.Background(), textUpdate(42, 100, "spent 20 on food"))

	if got := f.sender.lastText(t); got != reply.ConsentPrompt {
		t.Errorf("reply = %q, want consent prompt", got)
	}
	if f.classifier.calls != 0 {
		t.Errorf("classifier was called %d times, want 0 before consent", f.classifier.calls)
	}
	msg := f.sender.sent[0].(tgbotapi.MessageConfig)
	keyboard, ok := msg.ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup)
	if !ok {
		t.Fatalf("reply markup has type %T, want ReplyKeyboardMarkup", msg.ReplyMarkup)
	}
	if len(keyboard.Keyboard) == 0 || len(keyboard.Keyboard[0]) == 0 || !keyboard.Keyboard[0][0].RequestContact {
		t.Error("consent prompt should carry a contact request button")
	}
}

func TestHandleText_AllowedUserFlow(t *testing.T) {
	f := newFixture(t, "", map[string]*core.User{"42": allowedUser("42")})
	f.classifier.intent = core.Intent{
		Action: core.ActionCreate,
		Create: &core.CreateData{Type: "expense", Amount: 20, Category: "food"},
	}

	f.handler.HandleUpdate(context.Background(), textUpdate(42, 100, "spent 20 on food"))

	if f.classifier.gotMessage != "spent 20 on food" {
		t.Errorf("classifier got %q", f.classifier.gotMessage)
	}
	if f.dispatcher.gotUserID != "42" {
		t.Errorf("dispatcher got user %q, want 42", f.dispatcher.gotUserID)
	}
	if got := f.sender.lastText(t); got != "done" {
		t.Errorf("reply = %q, want dispatcher reply", got)
	}
}

func TestHandleText_SecretIsStrippedBeforeClassification(t *testing.T) {
	f := newFixture(t, "unlock", map[string]*core.User{"42": allowedUser("42")})
	f.classifier.intent = core.Intent{
		Action: core.ActionCreate,
		Create: &core.CreateData{Type: "expense", Amount: 20, Category: "food"},
	}

	f.handler.HandleUpdate(context.Background(), textUpdate(42, 100, "unlock spent 20 on food"))

	if f.classifier.gotMessage != "spent 20 on food" {
		t.Errorf("classifier got %q, want secret stripped", f.classifier.gotMessage)
	}
	if got := f.sender.lastText(t); got != "done" {
		t.Errorf("reply = %q, want dispatcher reply", got)
	}
}

func TestHandleText_MissingSecret(t *testing.T) {
	f := newFixture(t, "unlock", map[string]*core.User{"42": allowedUser("42")})
	f.classifier.intent = core.Intent{
		Action: core.ActionDelete,
		Match:  &core.Match{Category: "food"},
	}

	f.handler.HandleUpdate(context.Background(), textUpdate(42, 100, "delete my food expenses"))

	if got := f.sender.lastText(t); got != reply.Unauthorized {
		t.Errorf("reply = %q, want %q", got, reply.Unauthorized)
	}
	if f.dispatcher.calls != 0 {
		t.Errorf("dispatcher was called %d times, want 0", f.dispatcher.calls)
	}
}

func TestHandleText_PendingApproval(t *testing.T) {
	f := newFixture(t, "", map[string]*core.User{"42": {ID: "42", Consented: true}})
	f.classifier.intent = core.Intent{Action: core.ActionRead, Filters: &core.Filters{}}

	f.handler.HandleUpdate(context.Background(), textUpdate(42, 100, "show my expenses"))

	if got := f.sender.lastText(t); got != reply.PendingApproval {
		t.Errorf("reply = %q, want %q", got, reply.PendingApproval)
	}
}

func TestHandleText_GeneralReplyBypassesApproval(t *testing.T) {
	f := newFixture(t, "", map[string]*core.User{"42": {ID: "42", Consented: true}})
	f.classifier.intent = core.GeneralReply("Hello!")

	f.handler.HandleUpdate(context.Background(), textUpdate(42, 100, "hi there"))

	if got := f.sender.lastText(t); got != "done" {
		t.Errorf("reply = %q, want dispatcher reply", got)
	}
	if f.dispatcher.calls != 1 {
		t.Errorf("dispatcher was called %d times, want 1", f.dispatcher.calls)
	}
}

func TestHandleText_Start(t *testing.T) {
	f := newFixture(t, "", nil)

	f.handler.HandleUpdate(context.Background(), textUpdate(42, 100, "/start"))

	if got := f.sender.lastText(t); got != reply.Welcome {
		t.Errorf("reply = %q, want welcome text", got)
	}
}

func TestHandleText_RateLimited(t *testing.T) {
	f := newFixture(t, "", map[string]*core.User{"42": allowedUser("42")})
	f.limiter.Stop()
	limiter := ratelimit.NewLimiter(ratelimit.Config{MessagesPerMinute: 1})
	t.Cleanup(limiter.Stop)
	f.handler.limiter = limiter

	f.handler.HandleUpdate(context.Background(), textUpdate(42, 100, "hi"))
	f.handler.HandleUpdate(context.Background(), textUpdate(42, 100, "hi again"))

	if got := f.sender.lastText(t); got != reply.RateLimited {
		t.Errorf("reply = %q, want %q", got, reply.RateLimited)
	}
}

func TestHandleText_ClassifierFailure(t *testing.T) {
	f := newFixture(t, "", map[string]*core.User{"42": allowedUser("42")})
	f.classifier.err = errors.New("model unavailable")

	f.handler.HandleUpdate(context.Background(), textUpdate(42, 100, "spent 20 on food"))

	if got := f.sender.lastText(t); got != reply.TryAgain {
		t.Errorf("reply = %q, want %q", got, reply.TryAgain)
	}
}

func TestHandleText_DispatcherFailure(t *testing.T) {
	f := newFixture(t, "", map[string]*core.User{"42": allowedUser("42")})
	f.dispatcher.err = errors.New("db locked")

	f.handler.HandleUpdate(context.Background(), textUpdate(42, 100, "spent 20 on food"))

	if got := f.sender.lastText(t); got != reply.TryAgain {
		t.Errorf("reply = %q, want %q", got, reply.TryAgain)
	}
}

func TestHandleText_UserCache(t *testing.T) {
	f := newFixture(t, "", map[string]*core.User{"42": allowedUser("42")})

	f.handler.HandleUpdate(context.Background(), textUpdate(42, 100, "first"))
	f.handler.HandleUpdate(context.Background(), textUpdate(42, 100, "second"))

	if f.users.getCalls != 1 {
		t.Errorf("store was queried %d times, want 1 thanks to the cache", f.users.getCalls)
	}
}

func TestHandleContact(t *testing.T) {
	t.Run("own contact records consent", func(t *testing.T) {
		f := newFixture(t, "", nil)

		f.handler.HandleUpdate(context.Background(), contactUpdate(42, 100, 42, "+1555000"))

		if len(f.users.upserts) != 1 {
			t.Fatalf("upserts = %d, want 1", len(f.users.upserts))
		}
		u := f.users.upserts[0]
		if u.ID != "42" || !u.Consented || u.Phone != "+1555000" {
			t.Errorf("upserted user = %+v", u)
		}
		if u.Allowed {
			t.Error("consent must not grant approval")
		}
		if got := f.sender.lastText(t); !strings.Contains(got, reply.PendingApproval) {
			t.Errorf("reply = %q, want pending approval notice", got)
		}
	})

	t.Run("foreign contact is rejected", func(t *testing.T) {
		f := newFixture(t, "", nil)

		f.handler.HandleUpdate(context.Background(), contactUpdate(42, 100, 43, "+1555000"))

		if len(f.users.upserts) != 0 {
			t.Errorf("upserts = %d, want 0", len(f.users.upserts))
		}
		if got := f.sender.lastText(t); got != reply.ConsentPrompt {
			t.Errorf("reply = %q, want consent prompt", got)
		}
	})

	t.Run("consent invalidates the cached user", func(t *testing.T) {
		f := newFixture(t, "", map[string]*core.User{"42": {ID: "42"}})

		// Prime the cache with the unconsented row.
		f.handler.HandleUpdate(context.Background(), textUpdate(42, 100, "hello"))
		f.users.users["42"] = &core.User{ID: "42", Consented: true}

		f.handler.HandleUpdate(context.Background(), contactUpdate(42, 100, 42, "+1555000"))
		f.handler.HandleUpdate(context.Background(), textUpdate(42, 100, "hello again"))

		if got := f.sender.lastText(t); got == reply.ConsentPrompt {
			t.Error("stale cached user should have been evicted after consent")
		}
	})
}

func TestHandleUpdate_IgnoresNonMessages(t *testing.T) {
	f := newFixture(t, "", nil)

	f.handler.HandleUpdate(context.Background(), tgbotapi.Update{})

	if len(f.sender.sent) != 0 {
		t.Errorf("sent %d messages, want 0", len(f.sender.sent))
	}
}
