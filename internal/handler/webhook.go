package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"ticket-stream-portal/internal/service"

	"github.com/labstack/echo/v4"
)

const maxWebhookBody = 1 << 20

type WebhookHandler struct {
	settlementService service.SettlementService
	log               *slog.Logger
}

func NewWebhookHandler(settlementService service.SettlementService, log *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		settlementService: settlementService,
		log:               log,
	}
}

// PayPalWebhook acknowledges every authentic delivery it can make sense of;
// only signature failures and transient errors are reported back.
func (h *WebhookHandler) PayPalWebhook(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return c.NoContent(http.StatusBadRequest)
	}

	err = h.settlementService.HandleWebhook(ctx, c.Request().Header, body)
	var verr *service.ValidationError
	switch {
	case err == nil:
		return c.NoContent(http.StatusOK)
	case errors.Is(err, service.ErrSignature):
		h.log.WarnContext(ctx, "webhook signature rejected")
		return c.NoContent(http.StatusBadRequest)
	case errors.Is(err, service.ErrNotFound), errors.As(err, &verr):
		h.log.WarnContext(ctx, "webhook not applied", "error", err)
		return c.NoContent(http.StatusOK)
	default:
		h.log.ErrorContext(ctx, "handle webhook", "error", err)
		return c.NoContent(http.StatusServiceUnavailable)
	}
}
