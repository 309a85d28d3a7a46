package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"ticket-stream-portal/internal/dto"
	"ticket-stream-portal/internal/service"

	"github.com/labstack/echo/v4"
)

type CheckoutHandler struct {
	issuanceService service.IssuanceService
	log             *slog.Logger
}

func NewCheckoutHandler(issuanceService service.IssuanceService, log *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		issuanceService: issuanceService,
		log:             log,
	}
}

func (h *CheckoutHandler) Checkout(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid req body"})
	}

	result, err := h.issuanceService.Checkout(ctx, req.Name, req.Email)
	if err != nil {
		return writeError(c, h.log, err)
	}

	return c.JSON(http.StatusOK, dto.CheckoutResponse{
		PurchaseID:  result.PurchaseID,
		OrderID:     result.OrderID,
		ApprovalURL: result.ApprovalURL,
	})
}

// HandleSuccess is the PayPal return URL. PayPal passes the order id as "token".
func (h *CheckoutHandler) HandleSuccess(c echo.Context) error {
	ctx := c.Request().Context()

	orderID := c.QueryParam("token")
	if orderID == "" {
		return c.String(http.StatusBadRequest, "missing order token")
	}

	err := h.issuanceService.CompleteCheckout(ctx, orderID)
	if errors.Is(err, service.ErrNotFound) {
		return c.String(http.StatusNotFound, "unknown order")
	}
	if err != nil {
		h.log.ErrorContext(ctx, "capture order", "order_id", orderID, "error", err)
		return c.HTML(http.StatusBadGateway, paymentPage("Payment not completed",
			"We could not capture your payment. You have not been charged; please try again."))
	}

	return c.HTML(http.StatusOK, paymentPage("Payment approved",
		"We are confirming your payment. Your stream link will arrive by email shortly."))
}

func (h *CheckoutHandler) CardCheckout(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CardCheckoutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid req body"})
	}

	result, err := h.issuanceService.CardCheckout(ctx, req.Name, req.Email, req.Nonce)
	if err != nil {
		return writeError(c, h.log, err)
	}

	return c.JSON(http.StatusOK, dto.CardCheckoutResponse{
		PurchaseID:    result.PurchaseID,
		TransactionID: result.TransactionID,
		StreamURL:     result.StreamLink,
	})
}

func paymentPage(title, message string) string {
	return `<!DOCTYPE html>
<html>
<head>
	<meta charset="utf-8">
	<title>` + title + `</title>
	<style>
		body {
			font-family: Arial, sans-serif;
			text-align: center;
			margin-top: 80px;
		}
		.countdown {
			font-size: 24px;
			font-weight: bold;
		}
	</style>
</head>
<body>
	<h2>` + title + `</h2>
	<p>` + message + `</p>
	<p>Redirecting to homepage in <span class="countdown" id="countdown">15</span> seconds…</p>

	<script>
		let seconds = 15;
		const el = document.getElementById("countdown");

		const timer = setInterval(function () {
			seconds--;
			el.textContent = seconds;

			if (seconds <= 0) {
				clearInterval(timer);
				window.location.href = "/";
			}
		}, 1000);
	</script>
</body>
</html>
`
}
