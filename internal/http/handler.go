package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"vehicle-info-bot/internal/config"
	"vehicle-info-bot/internal/domain/vehicle"
	"vehicle-info-bot/internal/http/middleware"
	"vehicle-info-bot/internal/service"
)

const webhookSecretHeader = "X-Telegram-Bot-Api-Secret-Token"

type Lookuper interface {
	Lookup(ctx context.Context, plate string) (*service.LookupResult, error)
}

type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update tgbotapi.Update)
}

type Handler struct {
	lookup  Lookuper
	updates UpdateHandler
	config  *config.Config
	log     zerolog.Logger
}

// NewHandler wires the HTTP API. updates may be nil when the bot runs in
// polling mode, in which case the webhook route is not registered.
func NewHandler(
	lookup Lookuper,
	updates UpdateHandler,
	cfg *config.Config,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		lookup:  lookup,
		updates: updates,
		config:  cfg,
		log:     log,
	}
}

func (h *Handler) Register(r *gin.Engine, authMiddleware gin.HandlerFunc) {
	// Public endpoints
	public := r.Group("/api/v1")
	if h.updates != nil {
		public.POST("/telegram/webhook", h.telegramWebhook)
	}

	// Protected endpoints
	protected := r.Group("/api/v1")
	protected.Use(authMiddleware)
	{
		protected.GET("/vehicles/:plate", h.getVehicle)
	}
}

type vehicleResponse struct {
	Plate      string         `json:"plate"`
	Normalized string         `json:"normalized"`
	Resource   string         `json:"resource"`
	Fields     []vehicle.Line `json:"fields"`
	Text       string         `json:"text"`
}

func (h *Handler) getVehicle(c *gin.Context) {
	plate := strings.TrimSpace(c.Param("plate"))
	if plate == "" {
		c.JSON(http.StatusBadRequest, errorResponse("plate parameter is required"))
		return
	}

	result, err := h.lookup.Lookup(c.Request.Context(), plate)
	if err != nil {
		h.handleError(c, err)
		return
	}

	switch result.Outcome {
	case service.OutcomeFound:
		fields := result.Reply.Lines
		if fields == nil {
			fields = []vehicle.Line{}
		}
		text := service.NoDetailsText
		if !result.Reply.Empty() {
			text = result.Reply.Plain()
		}
		c.JSON(http.StatusOK, successResponse(vehicleResponse{
			Plate:      result.Plate,
			Normalized: result.Normalized,
			Resource:   result.Resource,
			Fields:     fields,
			Text:       text,
		}))
	case service.OutcomeMalformed:
		c.JSON(http.StatusUnprocessableEntity, errorResponse(service.ErrMalformedRecord.Error()))
	default:
		c.JSON(http.StatusNotFound, gin.H{
			"error": "vehicle not found",
			"plate": result.Plate,
		})
	}
}

func (h *Handler) telegramWebhook(c *gin.Context) {
	if secret := h.config.Telegram.WebhookSecret; secret != "" {
		if !middleware.Equal(c.GetHeader(webhookSecretHeader), secret) {
			h.log.Warn().
				Str("remote_addr", c.ClientIP()).
				Msg("rejected webhook call with bad secret")
			c.JSON(http.StatusUnauthorized, errorResponse("unauthorized"))
			return
		}
	}

	var update tgbotapi.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	h.log.Debug().Int("update_id", update.UpdateID).Msg("received telegram update")
	h.updates.HandleUpdate(c.Request.Context(), update)

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, errorResponse("registry timeout"))
	default:
		h.log.Error().Err(err).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func successResponse(data interface{}) gin.H {
	return gin.H{
		"data": data,
	}
}

func errorResponse(message string) gin.H {
	return gin.H{
		"error": message,
	}
}
