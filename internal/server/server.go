package server

import (
	"context"
	"log/slog"
	"net/http"

	"ticket-stream-portal/internal/handler"
	appmw "ticket-stream-portal/internal/middleware"
	"ticket-stream-portal/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type Options struct {
	Issuance   service.IssuanceService
	Settlement service.SettlementService
	Redemption service.RedemptionService
	Admin      service.AdminService
	Reminders  service.ReminderService

	AdminLogin   handler.AdminLogin
	AdminSession appmw.SessionValidator
	// RateLimit guards the public write and redemption routes. Nil disables it.
	RateLimit echo.MiddlewareFunc

	GrantCookie  string
	SecureCookie bool
	Log          *slog.Logger
}

type Server struct {
	echo            *echo.Echo
	checkoutHandler *handler.CheckoutHandler
	webhookHandler  *handler.WebhookHandler
	streamHandler   *handler.StreamHandler
	adminHandler    *handler.AdminHandler
	adminAuth       echo.MiddlewareFunc
	rateLimit       echo.MiddlewareFunc
}

func NewServer(opts Options) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(requestLogger(opts.Log))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	rateLimit := opts.RateLimit
	if rateLimit == nil {
		rateLimit = func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	s := &Server{
		echo:            e,
		checkoutHandler: handler.NewCheckoutHandler(opts.Issuance, opts.Log),
		webhookHandler:  handler.NewWebhookHandler(opts.Settlement, opts.Log),
		streamHandler:   handler.NewStreamHandler(opts.Redemption, opts.GrantCookie, opts.SecureCookie, opts.Log),
		adminHandler:    handler.NewAdminHandler(opts.Admin, opts.Reminders, opts.AdminLogin, opts.Log),
		adminAuth:       appmw.AdminAuth(opts.AdminSession),
		rateLimit:       rateLimit,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.echo.GET("/stream", s.streamHandler.Stream, s.rateLimit)

	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// -------- checkout --------
	checkout := api.Group("/checkout")
	checkout.POST("", s.checkoutHandler.Checkout, s.rateLimit)
	checkout.POST("/card", s.checkoutHandler.CardCheckout, s.rateLimit)
	checkout.GET("/success", s.checkoutHandler.HandleSuccess)

	// -------- paypal webhooks --------
	api.POST("/paypal/webhook", s.webhookHandler.PayPalWebhook)

	// -------- admin --------
	api.POST("/admin/login", s.adminHandler.Login, s.rateLimit)

	admin := api.Group("/admin", s.adminAuth)
	admin.GET("/purchases", s.adminHandler.ListPurchases)
	admin.POST("/purchases/:id/resend-confirmation", s.adminHandler.ResendConfirmation)
	admin.GET("/tokens", s.adminHandler.ListTokens)
	admin.POST("/tokens/:id/revoke", s.adminHandler.Revoke)
	admin.GET("/stats", s.adminHandler.Stats)
	admin.GET("/stream", s.adminHandler.GetStream)
	admin.POST("/stream/toggle", s.adminHandler.ToggleLive)
	admin.PUT("/stream/url", s.adminHandler.SetStreamURL)
	admin.GET("/export", s.adminHandler.Export)
	admin.POST("/reminders", s.adminHandler.SendReminders)
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func requestLogger(log *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURIPath:  true,
		LogMethod:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"path", v.URIPath,
				"status", v.Status,
				"latency", v.Latency,
				"remote_ip", v.RemoteIP,
			}
			if v.Error != nil {
				log.ErrorContext(c.Request().Context(), "request", append(attrs, "error", v.Error)...)
				return nil
			}
			log.InfoContext(c.Request().Context(), "request", attrs...)
			return nil
		},
	})
}
