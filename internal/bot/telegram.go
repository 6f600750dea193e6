package bot

import (
	"context"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"vehicle-info-bot/internal/config"
	"vehicle-info-bot/internal/domain/vehicle"
	"vehicle-info-bot/internal/metrics"
)

// BotAPI is the subset of *tgbotapi.BotAPI the adapter uses.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Telegram feeds Bot API updates into a Handler.
type Telegram struct {
	api         BotAPI
	handler     *Handler
	pollTimeout int
	log         zerolog.Logger

	inflight sync.WaitGroup
}

// NewBotAPI connects to the Bot API and verifies the token.
func NewBotAPI(cfg config.TelegramConfig) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("connect to telegram: %w", err)
	}
	api.Debug = cfg.Debug
	return api, nil
}

func NewTelegram(api BotAPI, handler *Handler, cfg config.TelegramConfig, log zerolog.Logger) *Telegram {
	return &Telegram{
		api:         api,
		handler:     handler,
		pollTimeout: cfg.PollTimeout,
		log:         log.With().Str("component", "telegram").Logger(),
	}
}

// Run long-polls for updates until ctx is cancelled, handling each message on
// its own goroutine. It returns once all in-flight messages are answered.
func (t *Telegram) Run(ctx context.Context) error {
	if _, err := t.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("delete webhook before polling: %w", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = t.pollTimeout
	updates := t.api.GetUpdatesChan(u)

	t.log.Info().Int("poll_timeout", t.pollTimeout).Msg("polling for updates")

	defer t.inflight.Wait()
	for {
		select {
		case <-ctx.Done():
			t.api.StopReceivingUpdates()
			t.log.Info().Msg("stopped polling")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			t.inflight.Add(1)
			go func() {
				defer t.inflight.Done()
				t.HandleUpdate(ctx, update)
			}()
		}
	}
}

// SetWebhook registers url with the Bot API. secret, when set, is echoed by
// Telegram in the X-Telegram-Bot-Api-Secret-Token header.
func (t *Telegram) SetWebhook(url, secret string) error {
	params := tgbotapi.Params{"url": url}
	params.AddNonEmpty("secret_token", secret)

	if _, err := t.api.MakeRequest("setWebhook", params); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	t.log.Info().Str("url", url).Msg("webhook registered")
	return nil
}

// HandleUpdate answers a single update synchronously.
func (t *Telegram) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	m := update.Message
	if m == nil || m.Text == "" || m.Chat == nil {
		return
	}

	conv := &telegramConversation{api: t.api, chatID: m.Chat.ID}
	if !m.Chat.IsPrivate() {
		conv.replyTo = m.MessageID
	}

	if m.IsCommand() {
		t.handleCommand(ctx, m, conv)
		return
	}

	msg := vehicle.IncomingMessage{
		ChatID:    m.Chat.ID,
		MessageID: m.MessageID,
		Text:      m.Text,
	}
	if m.From != nil {
		msg.SenderID = m.From.ID
	}

	t.handler.Handle(ctx, msg, conv)
}

func (t *Telegram) handleCommand(ctx context.Context, m *tgbotapi.Message, conv Conversation) {
	switch m.Command() {
	case "start", "help":
		metrics.RecordMessage("command")
		if err := conv.Reply(ctx, HelpText); err != nil {
			t.log.Error().Err(err).Int64("chat_id", m.Chat.ID).Msg("failed to send help")
		}
	default:
		t.log.Debug().Str("command", m.Command()).Msg("ignoring command")
	}
}

type telegramConversation struct {
	api     BotAPI
	chatID  int64
	replyTo int
}

func (c *telegramConversation) Typing(_ context.Context) error {
	_, err := c.api.Request(tgbotapi.NewChatAction(c.chatID, tgbotapi.ChatTyping))
	return err
}

func (c *telegramConversation) Reply(_ context.Context, text string) error {
	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyToMessageID = c.replyTo
	_, err := c.api.Send(msg)
	return err
}
