package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"ticket-stream-portal/internal/client"
	"ticket-stream-portal/internal/config"
	"ticket-stream-portal/internal/model"
	"ticket-stream-portal/internal/notify"
	"ticket-stream-portal/internal/repository"

	"gorm.io/gorm"
)

type WebhookVerifier interface {
	VerifyWebhookSignature(ctx context.Context, headers http.Header, body []byte) error
}

type SettlementService interface {
	HandleWebhook(ctx context.Context, headers http.Header, body []byte) error
	Settle(ctx context.Context, ev model.PaymentEvent) error
}

type settlementServiceImpl struct {
	db               *gorm.DB
	verifier         WebhookVerifier
	purchaseRepo     repository.PurchaseRepository
	webhookEventRepo repository.WebhookEventRepository
	sender           notify.Sender
	event            config.Event
	serviceBaseUrl   string
	log              *slog.Logger
}

func NewSettlementService(
	db *gorm.DB,
	verifier WebhookVerifier,
	purchaseRepo repository.PurchaseRepository,
	webhookEventRepo repository.WebhookEventRepository,
	sender notify.Sender,
	event config.Event,
	serviceBaseUrl string,
	log *slog.Logger,
) SettlementService {
	return &settlementServiceImpl{
		db:               db,
		verifier:         verifier,
		purchaseRepo:     purchaseRepo,
		webhookEventRepo: webhookEventRepo,
		sender:           sender,
		event:            event,
		serviceBaseUrl:   serviceBaseUrl,
		log:              log,
	}
}

// HandleWebhook authenticates a PayPal notification before anything is read
// from it, then settles it.
func (s *settlementServiceImpl) HandleWebhook(ctx context.Context, headers http.Header, body []byte) error {
	if err := s.verifier.VerifyWebhookSignature(ctx, headers, body); err != nil {
		if errors.Is(err, client.ErrInvalidSignature) {
			return ErrSignature
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	ev, err := client.DecodePaypalEvent(body)
	if err != nil {
		return &ValidationError{Field: "body", Message: err.Error()}
	}
	return s.Settle(ctx, ev)
}

// Settle applies a verified payment event. Each event id is applied at most
// once and the confirmation goes out only on the transition to completed.
func (s *settlementServiceImpl) Settle(ctx context.Context, ev model.PaymentEvent) error {
	log := s.log.With("event_id", ev.ID, "event_type", ev.Type)

	if ev.Kind != model.PaymentEventCompleted && ev.Kind != model.PaymentEventFailed {
		log.InfoContext(ctx, "ignoring payment event")
		return nil
	}
	if ev.ID == "" {
		return &ValidationError{Field: "id", Message: "payment event has no id"}
	}

	purchase, err := s.findPurchase(ctx, ev)
	if err != nil {
		return err
	}
	log = log.With("purchase_id", purchase.ID)

	var duplicate, transitioned bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fresh, err := s.webhookEventRepo.MarkProcessed(ctx, tx, ev.ID, ev.Type, purchase.ID)
		if err != nil {
			return fmt.Errorf("record webhook event: %w", err)
		}
		if !fresh {
			duplicate = true
			return nil
		}

		switch ev.Kind {
		case model.PaymentEventCompleted:
			transitioned, err = s.purchaseRepo.MarkCompleted(ctx, tx, purchase.ID, ev.PaymentReference)
		case model.PaymentEventFailed:
			transitioned, err = s.purchaseRepo.MarkFailed(ctx, tx, purchase.ID, ev.PaymentReference)
		}
		if err != nil {
			return fmt.Errorf("update payment status: %w", err)
		}
		return nil
	})
	if err != nil {
		return persistence("settle payment", err)
	}

	switch {
	case duplicate:
		log.InfoContext(ctx, "payment event already processed")
		return nil
	case !transitioned:
		log.InfoContext(ctx, "payment status unchanged", "status", purchase.PaymentStatus)
		return nil
	}

	log.InfoContext(ctx, "payment status updated", "kind", ev.Kind)
	if ev.Kind == model.PaymentEventCompleted {
		s.sendConfirmation(ctx, purchase)
	}
	return nil
}

func (s *settlementServiceImpl) findPurchase(ctx context.Context, ev model.PaymentEvent) (*model.Purchase, error) {
	var (
		purchase *model.Purchase
		err      error
	)
	switch {
	case ev.PurchaseID != "":
		purchase, err = s.purchaseRepo.FindByID(ctx, ev.PurchaseID)
	case ev.PaymentReference != "":
		purchase, err = s.purchaseRepo.FindByPaymentReference(ctx, ev.PaymentReference)
	default:
		return nil, ErrNotFound
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, persistence("find purchase", err)
	}
	return purchase, nil
}

func (s *settlementServiceImpl) sendConfirmation(ctx context.Context, p *model.Purchase) {
	err := s.sender.SendPurchaseConfirmation(ctx, notify.Confirmation{
		To:         p.Email,
		Name:       p.Name,
		PurchaseID: p.ID,
		StreamLink: StreamLink(s.serviceBaseUrl, p.Token),
		Event:      eventDetails(s.event),
	})
	if err != nil {
		s.log.ErrorContext(ctx, "send purchase confirmation", "purchase_id", p.ID, "error", err)
	}
}
