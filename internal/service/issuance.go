package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"ticket-stream-portal/internal/auth"
	"ticket-stream-portal/internal/client"
	"ticket-stream-portal/internal/config"
	"ticket-stream-portal/internal/model"
	"ticket-stream-portal/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"
)

type Issued struct {
	PurchaseID string
	Token      string
}

type CheckoutResult struct {
	PurchaseID  string
	OrderID     string
	ApprovalURL string
}

type CardCheckoutResult struct {
	PurchaseID    string
	TransactionID string
	StreamLink    string
}

type IssuanceService interface {
	Issue(ctx context.Context, name, email string) (*Issued, error)
	Checkout(ctx context.Context, name, email string) (*CheckoutResult, error)
	CompleteCheckout(ctx context.Context, orderID string) error
	CardCheckout(ctx context.Context, name, email, nonce string) (*CardCheckoutResult, error)
}

type issuanceServiceImpl struct {
	db              *gorm.DB
	paypalClient    client.PaypalClient
	braintreeClient client.BraintreeClient
	settlement      SettlementService
	purchaseRepo    repository.PurchaseRepository
	tokenUsageRepo  repository.TokenUsageRepository
	event           config.Event
	serviceBaseUrl  string
	log             *slog.Logger
	newToken        func() (string, error)
}

func NewIssuanceService(
	db *gorm.DB,
	paypalClient client.PaypalClient,
	braintreeClient client.BraintreeClient,
	settlement SettlementService,
	purchaseRepo repository.PurchaseRepository,
	tokenUsageRepo repository.TokenUsageRepository,
	event config.Event,
	serviceBaseUrl string,
	log *slog.Logger,
) IssuanceService {
	return &issuanceServiceImpl{
		db:              db,
		paypalClient:    paypalClient,
		braintreeClient: braintreeClient,
		settlement:      settlement,
		purchaseRepo:    purchaseRepo,
		tokenUsageRepo:  tokenUsageRepo,
		event:           event,
		serviceBaseUrl:  strings.TrimRight(serviceBaseUrl, "/"),
		log:             log,
		newToken:        auth.NewAccessToken,
	}
}

// Issue creates a pending purchase and its unused token record atomically.
func (s *issuanceServiceImpl) Issue(ctx context.Context, name, email string) (*Issued, error) {
	name, email, err := normalizeBuyer(name, email)
	if err != nil {
		return nil, err
	}

	token, err := s.newToken()
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	purchase := &model.Purchase{
		ID:            uuid.NewString(),
		Name:          name,
		Email:         email,
		Token:         token,
		PaymentStatus: model.PaymentPending,
	}
	usage := &model.TokenUsage{
		ID:    uuid.NewString(),
		Token: token,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.purchaseRepo.Create(ctx, tx, purchase); err != nil {
			return fmt.Errorf("store purchase: %w", err)
		}
		if err := s.tokenUsageRepo.Create(ctx, tx, usage); err != nil {
			return fmt.Errorf("store token usage: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, persistence("issue token", err)
	}

	s.log.InfoContext(ctx, "ticket issued", "purchase_id", purchase.ID)
	return &Issued{PurchaseID: purchase.ID, Token: token}, nil
}

// Checkout issues a ticket and opens a PayPal order for it. Payment is only
// settled once the signed webhook arrives.
func (s *issuanceServiceImpl) Checkout(ctx context.Context, name, email string) (*CheckoutResult, error) {
	issued, err := s.Issue(ctx, name, email)
	if err != nil {
		return nil, err
	}

	resp, err := s.paypalClient.CreateOrder(ctx, client.CreateOrderRequest{
		PurchaseID:  issued.PurchaseID,
		Description: s.event.Name,
		Amount:      s.event.Price,
		Currency:    s.event.Currency,
		ReturnURL:   s.serviceBaseUrl + "/api/checkout/success",
		CancelURL:   s.serviceBaseUrl + "/",
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if err := s.purchaseRepo.SetPaymentReference(ctx, issued.PurchaseID, resp.OrderID); err != nil {
		return nil, persistence("store payment reference", err)
	}

	return &CheckoutResult{
		PurchaseID:  issued.PurchaseID,
		OrderID:     resp.OrderID,
		ApprovalURL: resp.ApproveURL,
	}, nil
}

// CompleteCheckout captures an order the buyer approved on PayPal.
func (s *issuanceServiceImpl) CompleteCheckout(ctx context.Context, orderID string) error {
	if orderID == "" {
		return &ValidationError{Field: "token", Message: "missing order id"}
	}

	_, err := s.purchaseRepo.FindByPaymentReference(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return persistence("find purchase by order", err)
	}

	if err := s.paypalClient.CaptureOrder(ctx, orderID); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// CardCheckout issues a ticket and charges a Braintree nonce synchronously.
// The charge result is fed through settlement like any other payment event.
func (s *issuanceServiceImpl) CardCheckout(ctx context.Context, name, email, nonce string) (*CardCheckoutResult, error) {
	if strings.TrimSpace(nonce) == "" {
		return nil, &ValidationError{Field: "nonce", Message: "is required"}
	}

	issued, err := s.Issue(ctx, name, email)
	if err != nil {
		return nil, err
	}

	txID, chargeErr := s.braintreeClient.ChargeOneTime(ctx, nonce, s.event.Price, issued.PurchaseID)
	if chargeErr != nil && !errors.Is(chargeErr, client.ErrPaymentDeclined) {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, chargeErr)
	}

	ev := model.PaymentEvent{
		ID:               "braintree:" + txID,
		Type:             "braintree.transaction",
		Kind:             model.PaymentEventCompleted,
		PurchaseID:       issued.PurchaseID,
		PaymentReference: txID,
	}
	if chargeErr != nil {
		ev.Kind = model.PaymentEventFailed
		if txID == "" {
			ev.ID = "braintree:declined:" + issued.PurchaseID
		}
	}

	if err := s.settlement.Settle(ctx, ev); err != nil {
		return nil, err
	}
	if chargeErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeclined, chargeErr)
	}

	return &CardCheckoutResult{
		PurchaseID:    issued.PurchaseID,
		TransactionID: txID,
		StreamLink:    StreamLink(s.serviceBaseUrl, issued.Token),
	}, nil
}

func normalizeBuyer(name, email string) (string, string, error) {
	name = norm.NFC.String(strings.TrimSpace(name))
	email = strings.ToLower(strings.TrimSpace(email))

	if name == "" {
		return "", "", &ValidationError{Field: "name", Message: "is required"}
	}
	if email == "" {
		return "", "", &ValidationError{Field: "email", Message: "is required"}
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 || strings.ContainsAny(email, " \t") {
		return "", "", &ValidationError{Field: "email", Message: "is not a valid address"}
	}
	return name, email, nil
}
