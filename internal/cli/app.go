package cli

import (
	"fmt"
	"io"
	"log/slog"

	"ticket-stream-portal/internal/auth"
	"ticket-stream-portal/internal/client"
	"ticket-stream-portal/internal/config"
	"ticket-stream-portal/internal/logging"
	"ticket-stream-portal/internal/notify"
	"ticket-stream-portal/internal/repository"
	"ticket-stream-portal/internal/service"

	"gorm.io/gorm"
)

// app holds the wired services shared by the commands.
type app struct {
	cfg   *config.Config
	event config.Event
	log   *slog.Logger
	db    *gorm.DB

	sender     notify.Sender
	grants     *auth.GrantSigner
	admin      *auth.AdminAuthenticator
	issuance   service.IssuanceService
	settlement service.SettlementService
	redemption service.RedemptionService
	adminSvc   service.AdminService
	reminders  service.ReminderService

	closers []func() error
}

func loadConfig(stderr io.Writer) (*config.Config, *slog.Logger, error) {
	cfg, foundEnv, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log := logging.New(stderr, cfg.Log)
	if !foundEnv {
		log.Debug("no .env file found")
	}
	return cfg, log, nil
}

func newApp(cfg *config.Config, log *slog.Logger) (*app, error) {
	event, err := config.LoadEvent(cfg.EventFile)
	if err != nil {
		return nil, err
	}

	db, err := client.InitDB(cfg.Database)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, event: event, log: log, db: db}
	if sqlDB, err := db.DB(); err == nil {
		a.closers = append(a.closers, sqlDB.Close)
	}

	if cfg.AMQP.URL != "" {
		sender, closeFn, err := notify.DialQueueSender(cfg.AMQP.URL, cfg.AMQP.Queue)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.sender = sender
		a.closers = append(a.closers, closeFn)
	} else {
		log.Info("AMQP_URL not set, notifications are logged in-process")
		a.sender = notify.NewLogSender(log)
	}

	grantSecret, err := secretOrEphemeral(cfg, "GRANT_SECRET", cfg.Grant.Secret, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	adminSecret, err := secretOrEphemeral(cfg, "ADMIN_JWT_SECRET", cfg.Admin.JWTSecret, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.grants = auth.NewGrantSigner(grantSecret, cfg.Grant.TTL)
	a.admin = auth.NewAdminAuthenticator(cfg.Admin.PasswordHash, adminSecret, cfg.Admin.SessionTTL)

	paypalClient := client.NewPaypalClient(&cfg.Paypal)
	braintreeClient := client.NewBraintreeClient(&cfg.BrainTree)

	purchaseRepo := repository.NewPurchaseRepository(db)
	tokenUsageRepo := repository.NewTokenUsageRepository(db)
	streamSettingsRepo := repository.NewStreamSettingsRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)

	a.settlement = service.NewSettlementService(
		db, paypalClient,
		purchaseRepo,
		webhookEventRepo,
		a.sender, event, cfg.BaseURL, log,
	)
	a.issuance = service.NewIssuanceService(
		db, paypalClient, braintreeClient, a.settlement,
		purchaseRepo,
		tokenUsageRepo,
		event, cfg.BaseURL, log,
	)
	a.redemption = service.NewRedemptionService(purchaseRepo, tokenUsageRepo, streamSettingsRepo, a.grants, log)
	a.adminSvc = service.NewAdminService(purchaseRepo, tokenUsageRepo, streamSettingsRepo, a.sender, event, cfg.BaseURL, log)
	a.reminders = service.NewReminderService(purchaseRepo, a.sender, event, cfg.BaseURL, log)

	return a, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("close resource", "error", err)
		}
	}
	a.closers = nil
}

// secretOrEphemeral returns the configured signing secret. Outside production
// a missing secret is replaced by a random one that lives for this process.
func secretOrEphemeral(cfg *config.Config, name, value string, log *slog.Logger) (string, error) {
	if value != "" {
		return value, nil
	}
	if cfg.Environment.IsProduction() {
		return "", fmt.Errorf("%s must be set in production", name)
	}
	secret, err := auth.NewAccessToken()
	if err != nil {
		return "", err
	}
	log.Warn("signing secret not set, using an ephemeral one", "name", name)
	return secret, nil
}
