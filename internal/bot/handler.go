package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"vehicle-info-bot/internal/domain/vehicle"
	"vehicle-info-bot/internal/metrics"
	"vehicle-info-bot/internal/service"
	"vehicle-info-bot/internal/utils"
)

var errLookupFailed = errors.New("lookup failed")

// Conversation is the reply side of a chat: a typing indicator and a
// Markdown text message.
type Conversation interface {
	Typing(ctx context.Context) error
	Reply(ctx context.Context, text string) error
}

type Lookuper interface {
	Lookup(ctx context.Context, plate string) (*service.LookupResult, error)
}

// Handler turns one incoming chat message into at most one reply.
type Handler struct {
	lookup Lookuper
	log    zerolog.Logger
}

func NewHandler(lookup Lookuper, log zerolog.Logger) *Handler {
	return &Handler{
		lookup: lookup,
		log:    log,
	}
}

// Handle never returns an error or panics: every failure is logged and
// answered with an apology.
func (h *Handler) Handle(ctx context.Context, msg vehicle.IncomingMessage, conv Conversation) {
	log := h.log.With().
		Str("request_id", uuid.NewString()).
		Int64("chat_id", msg.ChatID).
		Int64("sender_id", msg.SenderID).
		Logger()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("panic while handling message")
			metrics.RecordMessage("error")
			h.apologize(ctx, log, conv, GenericErrorText)
		}
	}()

	if err := h.respond(ctx, log, msg, conv); err != nil {
		log.Error().Err(err).Msg("failed to handle message")
		metrics.RecordMessage("error")
		h.apologize(ctx, log, conv, errorText(err))
	}
}

func (h *Handler) respond(ctx context.Context, log zerolog.Logger, msg vehicle.IncomingMessage, conv Conversation) error {
	text := strings.TrimSpace(msg.Text)
	if utils.IsTooShort(text) {
		metrics.RecordMessage("ignored")
		return nil
	}

	if !utils.IsLikelyPlate(text) {
		metrics.RecordMessage("help")
		return conv.Reply(ctx, HelpText)
	}

	metrics.RecordMessage("lookup")
	log.Info().Str("plate", text).Msg("processing plate lookup")

	if err := conv.Typing(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to send typing indicator")
	}

	result, err := h.lookup.Lookup(ctx, text)
	if err != nil {
		return fmt.Errorf("%w: %w", errLookupFailed, err)
	}

	return conv.Reply(ctx, renderResult(result))
}

func (h *Handler) apologize(ctx context.Context, log zerolog.Logger, conv Conversation, text string) {
	if err := conv.Reply(ctx, text); err != nil {
		log.Error().Err(err).Msg("failed to send error reply")
	}
}

func renderResult(result *service.LookupResult) string {
	switch result.Outcome {
	case service.OutcomeFound:
		body := service.NoDetailsText
		if !result.Reply.Empty() {
			body = result.Reply.Markdown(escapeMarkdown)
		}
		return FoundHeader + "\n\n" + body
	case service.OutcomeMalformed:
		return FoundHeader + "\n\n" + service.FormatErrorText
	default:
		return fmt.Sprintf(NotFoundFormat, escapeMarkdown(result.Plate))
	}
}

func errorText(err error) string {
	if errors.Is(err, errLookupFailed) {
		return LookupErrorText
	}
	return GenericErrorText
}

func escapeMarkdown(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}
