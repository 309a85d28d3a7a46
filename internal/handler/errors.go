package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"ticket-stream-portal/internal/dto"
	"ticket-stream-portal/internal/service"

	"github.com/labstack/echo/v4"
)

// writeError maps service errors onto HTTP responses.
func writeError(c echo.Context, log *slog.Logger, err error) error {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: verr.Message, Field: verr.Field})
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "not found"})
	case errors.Is(err, service.ErrDeclined):
		return c.JSON(http.StatusPaymentRequired, dto.ErrorResponse{Error: "payment declined"})
	case errors.Is(err, service.ErrUnavailable):
		log.ErrorContext(c.Request().Context(), "payment provider error", "error", err)
		return c.JSON(http.StatusBadGateway, dto.ErrorResponse{Error: "payment provider unavailable"})
	case errors.Is(err, service.ErrPersistence):
		log.ErrorContext(c.Request().Context(), "store error", "error", err)
		return c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: "temporarily unavailable"})
	default:
		log.ErrorContext(c.Request().Context(), "unhandled error", "error", err)
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal error"})
	}
}
