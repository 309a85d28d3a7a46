package service

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"ticket-stream-portal/internal/auth"
	"ticket-stream-portal/internal/client"
	"ticket-stream-portal/internal/config"
	"ticket-stream-portal/internal/logging"
	"ticket-stream-portal/internal/model"
	"ticket-stream-portal/internal/notify"
	"ticket-stream-portal/internal/repository"
)

const testBaseURL = "https://tickets.example.com"

type fakePaypal struct {
	mu        sync.Mutex
	orders    []client.CreateOrderRequest
	captured  []string
	createErr error
	verifyErr error
}

func (f *fakePaypal) CreateOrder(_ context.Context, req client.CreateOrderRequest) (*client.CreateOrderResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.orders = append(f.orders, req)
	id := "ORDER-" + req.PurchaseID
	return &client.CreateOrderResponse{OrderID: id, ApproveURL: "https://paypal.test/checkoutnow?token=" + id}, nil
}

func (f *fakePaypal) CaptureOrder(_ context.Context, orderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.captured = append(f.captured, orderID)
	return nil
}

func (f *fakePaypal) VerifyWebhookSignature(context.Context, http.Header, []byte) error {
	return f.verifyErr
}

type fakeBraintree struct {
	txID string
	err  error
}

func (f *fakeBraintree) ChargeOneTime(context.Context, string, decimal.Decimal, string) (string, error) {
	return f.txID, f.err
}

type recordingSender struct {
	mu            sync.Mutex
	failFor       map[string]bool
	confirmations []notify.Confirmation
	reminders     []notify.Reminder
}

func (r *recordingSender) SendPurchaseConfirmation(_ context.Context, c notify.Confirmation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failFor[c.To] {
		return errors.New("smtp unavailable")
	}
	r.confirmations = append(r.confirmations, c)
	return nil
}

func (r *recordingSender) SendEventReminder(_ context.Context, m notify.Reminder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failFor[m.To] {
		return errors.New("smtp unavailable")
	}
	r.reminders = append(r.reminders, m)
	return nil
}

func (r *recordingSender) confirmationCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.confirmations)
}

type testEnv struct {
	db         *gorm.DB
	purchases  repository.PurchaseRepository
	usages     repository.TokenUsageRepository
	settings   repository.StreamSettingsRepository
	sender     *recordingSender
	paypal     *fakePaypal
	braintree  *fakeBraintree
	grants     *auth.GrantSigner
	settlement SettlementService
	issuance   IssuanceService
	redemption RedemptionService
	admin      AdminService
	reminders  ReminderService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := client.InitDB(config.Database{
		Driver:       "sqlite",
		URL:          filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=5000&_journal_mode=WAL",
		MaxIdleConns: 1,
		MaxOpenConns: 1,
	})
	require.NoError(t, err)

	log := logging.Discard()
	event := config.DefaultEvent()

	env := &testEnv{
		db:        db,
		purchases: repository.NewPurchaseRepository(db),
		usages:    repository.NewTokenUsageRepository(db),
		settings:  repository.NewStreamSettingsRepository(db),
		sender:    &recordingSender{failFor: map[string]bool{}},
		paypal:    &fakePaypal{},
		braintree: &fakeBraintree{txID: "bt-1"},
		grants:    auth.NewGrantSigner("test-grant-secret", time.Hour),
	}
	env.settlement = NewSettlementService(db, env.paypal, env.purchases, repository.NewWebhookEventRepository(db),
		env.sender, event, testBaseURL, log)
	env.issuance = NewIssuanceService(db, env.paypal, env.braintree, env.settlement, env.purchases, env.usages,
		event, testBaseURL, log)
	env.redemption = NewRedemptionService(env.purchases, env.usages, env.settings, env.grants, log)
	env.admin = NewAdminService(env.purchases, env.usages, env.settings, env.sender, event, testBaseURL, log)
	env.reminders = NewReminderService(env.purchases, env.sender, event, testBaseURL, log)
	return env
}

// issue creates a pending purchase.
func (e *testEnv) issue(t *testing.T, name, email string) *Issued {
	t.Helper()
	issued, err := e.issuance.Issue(context.Background(), name, email)
	require.NoError(t, err)
	return issued
}

// paid creates a purchase and settles it as completed.
func (e *testEnv) paid(t *testing.T, name, email string) *Issued {
	t.Helper()
	issued := e.issue(t, name, email)
	require.NoError(t, e.settlement.Settle(context.Background(), model.PaymentEvent{
		ID:         "WH-" + issued.PurchaseID,
		Type:       "PAYMENT.CAPTURE.COMPLETED",
		Kind:       model.PaymentEventCompleted,
		PurchaseID: issued.PurchaseID,
	}))
	return issued
}

func (e *testEnv) status(t *testing.T, purchaseID string) model.PaymentStatus {
	t.Helper()
	p, err := e.purchases.FindByID(context.Background(), purchaseID)
	require.NoError(t, err)
	return p.PaymentStatus
}
