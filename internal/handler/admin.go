package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"ticket-stream-portal/internal/auth"
	"ticket-stream-portal/internal/dto"
	"ticket-stream-portal/internal/service"

	"github.com/labstack/echo/v4"
)

type AdminLogin interface {
	Login(password string) (string, time.Time, error)
}

type AdminHandler struct {
	adminService    service.AdminService
	reminderService service.ReminderService
	login           AdminLogin
	log             *slog.Logger
	now             func() time.Time
}

func NewAdminHandler(adminService service.AdminService, reminderService service.ReminderService, login AdminLogin, log *slog.Logger) *AdminHandler {
	return &AdminHandler{
		adminService:    adminService,
		reminderService: reminderService,
		login:           login,
		log:             log,
		now:             time.Now,
	}
}

func (h *AdminHandler) Login(c echo.Context) error {
	var req dto.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid req body"})
	}

	token, exp, err := h.login.Login(req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		h.log.WarnContext(c.Request().Context(), "admin login failed", "client_ip", c.RealIP())
		return c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid password"})
	}
	if err != nil {
		return writeError(c, h.log, err)
	}

	return c.JSON(http.StatusOK, dto.LoginResponse{Token: token, ExpiresAt: exp})
}

func (h *AdminHandler) ListPurchases(c echo.Context) error {
	purchases, err := h.adminService.ListPurchases(c.Request().Context())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, purchases)
}

func (h *AdminHandler) ListTokens(c echo.Context) error {
	usages, err := h.adminService.ListTokens(c.Request().Context())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, usages)
}

func (h *AdminHandler) Stats(c echo.Context) error {
	stats, err := h.adminService.Stats(c.Request().Context())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *AdminHandler) Revoke(c echo.Context) error {
	if err := h.adminService.Revoke(c.Request().Context(), c.Param("id")); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "revoked"})
}

func (h *AdminHandler) GetStream(c echo.Context) error {
	settings, err := h.adminService.StreamSettings(c.Request().Context())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, settings)
}

func (h *AdminHandler) ToggleLive(c echo.Context) error {
	settings, err := h.adminService.ToggleLive(c.Request().Context())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, settings)
}

func (h *AdminHandler) SetStreamURL(c echo.Context) error {
	var req dto.SetStreamURLRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid req body"})
	}

	settings, err := h.adminService.SetStreamURL(c.Request().Context(), req.URL)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, settings)
}

func (h *AdminHandler) Export(c echo.Context) error {
	export, err := h.adminService.Export(c.Request().Context())
	if err != nil {
		return writeError(c, h.log, err)
	}
	filename := "tickets-export-" + export.ExportedAt.Format("2006-01-02") + ".json"
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.JSON(http.StatusOK, export)
}

func (h *AdminHandler) SendReminders(c echo.Context) error {
	result, err := h.reminderService.SendReminders(c.Request().Context(), h.now())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *AdminHandler) ResendConfirmation(c echo.Context) error {
	err := h.adminService.ResendConfirmation(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "sent"})
}
