package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"ticket-stream-portal/internal/config"
	"ticket-stream-portal/internal/model"
	"ticket-stream-portal/internal/notify"
	"ticket-stream-portal/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Stats struct {
	TicketsSold     int64  `json:"tickets_sold"`
	Revenue         string `json:"revenue"`
	Currency        string `json:"currency"`
	UsedTokens      int64  `json:"used_tokens"`
	PendingPayments int64  `json:"pending_payments"`
	FailedPayments  int64  `json:"failed_payments"`
}

type Export struct {
	Purchases   []*model.Purchase   `json:"purchases"`
	TokenUsages []*model.TokenUsage `json:"token_usages"`
	Stats       *Stats              `json:"stats"`
	ExportedAt  time.Time           `json:"exported_at"`
}

type AdminService interface {
	ListPurchases(ctx context.Context) ([]*model.Purchase, error)
	ListTokens(ctx context.Context) ([]*model.TokenUsage, error)
	Stats(ctx context.Context) (*Stats, error)
	Revoke(ctx context.Context, usageID string) error
	ToggleLive(ctx context.Context) (*model.StreamSettings, error)
	SetStreamURL(ctx context.Context, url string) (*model.StreamSettings, error)
	StreamSettings(ctx context.Context) (*model.StreamSettings, error)
	Export(ctx context.Context) (*Export, error)
	ResendConfirmation(ctx context.Context, purchaseID string) error
}

type adminServiceImpl struct {
	purchaseRepo       repository.PurchaseRepository
	tokenUsageRepo     repository.TokenUsageRepository
	streamSettingsRepo repository.StreamSettingsRepository
	sender             notify.Sender
	event              config.Event
	serviceBaseUrl     string
	log                *slog.Logger
	now                func() time.Time
}

func NewAdminService(
	purchaseRepo repository.PurchaseRepository,
	tokenUsageRepo repository.TokenUsageRepository,
	streamSettingsRepo repository.StreamSettingsRepository,
	sender notify.Sender,
	event config.Event,
	serviceBaseUrl string,
	log *slog.Logger,
) AdminService {
	return &adminServiceImpl{
		purchaseRepo:       purchaseRepo,
		tokenUsageRepo:     tokenUsageRepo,
		streamSettingsRepo: streamSettingsRepo,
		sender:             sender,
		event:              event,
		serviceBaseUrl:     serviceBaseUrl,
		log:                log,
		now:                time.Now,
	}
}

func (s *adminServiceImpl) ListPurchases(ctx context.Context) ([]*model.Purchase, error) {
	purchases, err := s.purchaseRepo.List(ctx)
	if err != nil {
		return nil, persistence("list purchases", err)
	}
	return purchases, nil
}

func (s *adminServiceImpl) ListTokens(ctx context.Context) ([]*model.TokenUsage, error) {
	usages, err := s.tokenUsageRepo.List(ctx)
	if err != nil {
		return nil, persistence("list token usages", err)
	}
	return usages, nil
}

// Stats derives revenue from the completed count and the current unit price.
func (s *adminServiceImpl) Stats(ctx context.Context) (*Stats, error) {
	counts, err := s.purchaseRepo.CountByStatus(ctx)
	if err != nil {
		return nil, persistence("count purchases", err)
	}
	used, err := s.tokenUsageRepo.CountUsed(ctx)
	if err != nil {
		return nil, persistence("count used tokens", err)
	}

	sold := counts[model.PaymentCompleted]
	return &Stats{
		TicketsSold:     sold,
		Revenue:         s.event.Price.Mul(decimal.NewFromInt(sold)).StringFixed(2),
		Currency:        s.event.Currency,
		UsedTokens:      used,
		PendingPayments: counts[model.PaymentPending],
		FailedPayments:  counts[model.PaymentFailed],
	}, nil
}

func (s *adminServiceImpl) Revoke(ctx context.Context, usageID string) error {
	ok, err := s.tokenUsageRepo.Revoke(ctx, usageID)
	if err != nil {
		return persistence("revoke token", err)
	}
	if !ok {
		return ErrNotFound
	}
	s.log.InfoContext(ctx, "token revoked", "usage_id", usageID)
	return nil
}

func (s *adminServiceImpl) ToggleLive(ctx context.Context) (*model.StreamSettings, error) {
	settings, err := s.streamSettingsRepo.ToggleLive(ctx)
	if err != nil {
		return nil, persistence("toggle live", err)
	}
	s.log.InfoContext(ctx, "stream live toggled", "is_live", settings.IsLive)
	return settings, nil
}

// SetStreamURL stores the URL as given; an empty value clears it.
func (s *adminServiceImpl) SetStreamURL(ctx context.Context, url string) (*model.StreamSettings, error) {
	var value *string
	if url = strings.TrimSpace(url); url != "" {
		value = &url
	}
	settings, err := s.streamSettingsRepo.SetURL(ctx, value)
	if err != nil {
		return nil, persistence("set stream url", err)
	}
	s.log.InfoContext(ctx, "stream url updated", "cleared", value == nil)
	return settings, nil
}

func (s *adminServiceImpl) StreamSettings(ctx context.Context) (*model.StreamSettings, error) {
	settings, err := s.streamSettingsRepo.Get(ctx)
	if err != nil {
		return nil, persistence("read stream settings", err)
	}
	return settings, nil
}

func (s *adminServiceImpl) Export(ctx context.Context) (*Export, error) {
	purchases, err := s.ListPurchases(ctx)
	if err != nil {
		return nil, err
	}
	usages, err := s.ListTokens(ctx)
	if err != nil {
		return nil, err
	}
	stats, err := s.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &Export{
		Purchases:   purchases,
		TokenUsages: usages,
		Stats:       stats,
		ExportedAt:  s.now().UTC(),
	}, nil
}

// ResendConfirmation sends the confirmation again for a completed purchase.
// Unlike settlement, a delivery failure is returned to the caller.
func (s *adminServiceImpl) ResendConfirmation(ctx context.Context, purchaseID string) error {
	p, err := s.purchaseRepo.FindByID(ctx, purchaseID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return persistence("find purchase", err)
	}
	if p.PaymentStatus != model.PaymentCompleted {
		return &ValidationError{Field: "payment_status", Message: fmt.Sprintf("purchase is %s, not completed", p.PaymentStatus)}
	}

	err = s.sender.SendPurchaseConfirmation(ctx, notify.Confirmation{
		To:         p.Email,
		Name:       p.Name,
		PurchaseID: p.ID,
		StreamLink: StreamLink(s.serviceBaseUrl, p.Token),
		Event:      eventDetails(s.event),
	})
	if err != nil {
		return fmt.Errorf("send purchase confirmation: %w", err)
	}
	return nil
}
