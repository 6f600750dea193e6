package bot

import (
	"context"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"vehicle-info-bot/internal/config"
	"vehicle-info-bot/internal/domain/vehicle"
	"vehicle-info-bot/internal/registry"
)

type fakeBotAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.MessageConfig
	requests []tgbotapi.Chattable
	params   map[string]tgbotapi.Params
	updates  chan tgbotapi.Update
	stopped  bool
}

func newFakeBotAPI() *fakeBotAPI {
	return &fakeBotAPI{
		updates: make(chan tgbotapi.Update),
		params:  map[string]tgbotapi.Params{},
	}
}

func (f *fakeBotAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeBotAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeBotAPI) MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.params[endpoint] = params
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeBotAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeBotAPI) StopReceivingUpdates() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func (f *fakeBotAPI) sentTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	texts := make([]string, 0, len(f.sent))
	for _, m := range f.sent {
		texts = append(texts, m.Text)
	}
	return texts
}

func newTestTelegram(api BotAPI, searcher *recordingSearcher) *Telegram {
	return NewTelegram(api, newHandler(searcher), config.TelegramConfig{PollTimeout: 1}, zerolog.Nop())
}

func textUpdate(chatType, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 5,
		From:      &tgbotapi.User{ID: 7},
		Chat:      &tgbotapi.Chat{ID: 42, Type: chatType},
		Text:      text,
	}}
}

func commandUpdate(command string) tgbotapi.Update {
	update := textUpdate("private", command)
	update.Message.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(command)}}
	return update
}

func TestHandleUpdate_PrivateLookup(t *testing.T) {
	api := newFakeBotAPI()
	searcher := &recordingSearcher{result: &registry.Result{Record: vehicle.Record{"tozeret_nm": "Mazda"}}}
	tg := newTestTelegram(api, searcher)

	tg.HandleUpdate(context.Background(), textUpdate("private", "12-345-67"))

	require.Len(t, api.sent, 1)
	msg := api.sent[0]
	assert.Equal(t, int64(42), msg.ChatID)
	assert.Equal(t, tgbotapi.ModeMarkdown, msg.ParseMode)
	assert.Zero(t, msg.ReplyToMessageID)
	assert.Equal(t, FoundHeader+"\n\n*יצרן:* Mazda", msg.Text)

	require.Len(t, api.requests, 1)
	action, ok := api.requests[0].(tgbotapi.ChatActionConfig)
	require.True(t, ok)
	assert.Equal(t, tgbotapi.ChatTyping, action.Action)
}

func TestHandleUpdate_GroupRepliesToMessage(t *testing.T) {
	api := newFakeBotAPI()
	tg := newTestTelegram(api, &recordingSearcher{})

	tg.HandleUpdate(context.Background(), textUpdate("group", "hello there"))

	require.Len(t, api.sent, 1)
	assert.Equal(t, 5, api.sent[0].ReplyToMessageID)
	assert.Equal(t, HelpText, api.sent[0].Text)
}

func TestHandleUpdate_Commands(t *testing.T) {
	api := newFakeBotAPI()
	tg := newTestTelegram(api, &recordingSearcher{})

	tg.HandleUpdate(context.Background(), commandUpdate("/start"))
	tg.HandleUpdate(context.Background(), commandUpdate("/help"))
	tg.HandleUpdate(context.Background(), commandUpdate("/settings"))

	assert.Equal(t, []string{HelpText, HelpText}, api.sentTexts())
}

func TestHandleUpdate_IgnoresNonText(t *testing.T) {
	api := newFakeBotAPI()
	tg := newTestTelegram(api, &recordingSearcher{})

	tg.HandleUpdate(context.Background(), tgbotapi.Update{})
	tg.HandleUpdate(context.Background(), textUpdate("private", ""))

	assert.Empty(t, api.sent)
}

func TestSetWebhook(t *testing.T) {
	api := newFakeBotAPI()
	tg := newTestTelegram(api, &recordingSearcher{})

	require.NoError(t, tg.SetWebhook("https://bot.example.org/api/v1/telegram/webhook", "s3cret"))

	params := api.params["setWebhook"]
	assert.Equal(t, "https://bot.example.org/api/v1/telegram/webhook", params["url"])
	assert.Equal(t, "s3cret", params["secret_token"])
}

func TestRun_StopsOnCancelWithoutLeaks(t *testing.T) {
	defer goleak.VerifyNone(t)

	api := newFakeBotAPI()
	searcher := &recordingSearcher{err: registry.ErrNotFound}
	tg := newTestTelegram(api, searcher)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tg.Run(ctx) }()

	api.updates <- textUpdate("private", "no digits here")
	api.updates <- textUpdate("private", "ok")

	require.Eventually(t, func() bool { return len(api.sentTexts()) == 1 }, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	api.mu.Lock()
	defer api.mu.Unlock()
	assert.True(t, api.stopped)
	_, deleted := api.requests[0].(tgbotapi.DeleteWebhookConfig)
	assert.True(t, deleted)
}
