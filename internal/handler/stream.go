package handler

import (
	"log/slog"
	"net/http"

	"ticket-stream-portal/internal/dto"
	"ticket-stream-portal/internal/service"

	"github.com/labstack/echo/v4"
)

type StreamHandler struct {
	redemptionService service.RedemptionService
	cookieName        string
	secureCookie      bool
	log               *slog.Logger
}

func NewStreamHandler(redemptionService service.RedemptionService, cookieName string, secureCookie bool, log *slog.Logger) *StreamHandler {
	return &StreamHandler{
		redemptionService: redemptionService,
		cookieName:        cookieName,
		secureCookie:      secureCookie,
		log:               log,
	}
}

// Stream redeems ?token=. The first device gets a grant cookie that lets it
// come back; everyone else is turned away.
func (h *StreamHandler) Stream(c echo.Context) error {
	ctx := c.Request().Context()

	req := service.RedeemRequest{
		Token:     c.QueryParam("token"),
		ClientIP:  c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	}
	if cookie, err := c.Cookie(h.cookieName); err == nil {
		req.Grant = cookie.Value
	}

	decision, err := h.redemptionService.Redeem(ctx, req)
	if err != nil {
		return writeError(c, h.log, err)
	}

	if !decision.Granted {
		if decision.Reason == service.DeniedAlreadyUsed {
			// purchaser identity stays in the operator log
			h.log.InfoContext(ctx, "stream access denied",
				"reason", decision.Reason,
				"purchaser_email", decision.PurchaserEmail,
				"client_ip", req.ClientIP,
			)
			return c.JSON(http.StatusConflict, dto.StreamResponse{Access: "denied", Reason: string(decision.Reason)})
		}
		return c.JSON(http.StatusNotFound, dto.StreamResponse{Access: "denied", Reason: string(decision.Reason)})
	}

	if decision.Grant != nil {
		c.SetCookie(&http.Cookie{
			Name:     h.cookieName,
			Value:    decision.Grant.Value,
			Path:     "/stream",
			Expires:  decision.Grant.Expires,
			HttpOnly: true,
			Secure:   h.secureCookie,
			SameSite: http.SameSiteLaxMode,
		})
	}

	resp := dto.StreamResponse{
		Access:        "granted",
		Resumed:       decision.Resumed,
		IsLive:        decision.IsLive,
		PurchaserName: decision.PurchaserName,
	}
	if decision.IsLive {
		resp.StreamURL = decision.StreamURL
	}
	return c.JSON(http.StatusOK, resp)
}
