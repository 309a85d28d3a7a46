package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket-stream-portal/internal/client"
	"ticket-stream-portal/internal/model"
)

func TestIssue_CreatesPendingPurchaseAndUnusedToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	issued := env.issue(t, "  Zoé ", " Zoe@Example.COM ")
	assert.Len(t, issued.Token, 64)

	p, err := env.purchases.FindByID(ctx, issued.PurchaseID)
	require.NoError(t, err)
	assert.Equal(t, "Zoé", p.Name)
	assert.Equal(t, "zoe@example.com", p.Email)
	assert.Equal(t, model.PaymentPending, p.PaymentStatus)
	assert.Equal(t, issued.Token, p.Token)

	u, err := env.usages.FindByToken(ctx, issued.Token)
	require.NoError(t, err)
	assert.False(t, u.Used)
	assert.Nil(t, u.FirstAccessedAt)

	other := env.issue(t, "Ada", "ada@example.com")
	assert.NotEqual(t, issued.Token, other.Token)
}

func TestIssue_Validation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name, buyer, email, field string
	}{
		{"missing name", "   ", "ada@example.com", "name"},
		{"missing email", "Ada", "", "email"},
		{"no at sign", "Ada", "ada.example.com", "email"},
		{"nothing after at", "Ada", "ada@", "email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.issuance.Issue(context.Background(), tt.buyer, tt.email)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	purchases, err := env.purchases.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, purchases)
}

func TestIssue_RollsBackWhenTokenRecordFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// a stray token record makes the second insert collide
	require.NoError(t, env.usages.Create(ctx, env.db, &model.TokenUsage{ID: "stray", Token: "dup"}))
	env.issuance.(*issuanceServiceImpl).newToken = func() (string, error) { return "dup", nil }

	_, err := env.issuance.Issue(ctx, "Ada", "ada@example.com")
	assert.ErrorIs(t, err, ErrPersistence)

	purchases, err := env.purchases.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, purchases)
}

func TestIssue_TokenGenerationFailure(t *testing.T) {
	env := newTestEnv(t)
	env.issuance.(*issuanceServiceImpl).newToken = func() (string, error) { return "", errors.New("entropy") }

	_, err := env.issuance.Issue(context.Background(), "Ada", "ada@example.com")
	assert.ErrorContains(t, err, "generate access token")
}

func TestCheckout_CreatesOrderAndStoresReference(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.issuance.Checkout(ctx, "Ada", "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "ORDER-"+res.PurchaseID, res.OrderID)
	assert.Contains(t, res.ApprovalURL, res.OrderID)

	require.Len(t, env.paypal.orders, 1)
	req := env.paypal.orders[0]
	assert.Equal(t, res.PurchaseID, req.PurchaseID)
	assert.Equal(t, "10.00", req.Amount.StringFixed(2))
	assert.Equal(t, "USD", req.Currency)
	assert.Equal(t, testBaseURL+"/api/checkout/success", req.ReturnURL)

	p, err := env.purchases.FindByPaymentReference(ctx, res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, res.PurchaseID, p.ID)
	assert.Equal(t, model.PaymentPending, p.PaymentStatus)
}

func TestCheckout_ProviderFailure(t *testing.T) {
	env := newTestEnv(t)
	env.paypal.createErr = errors.New("503")

	_, err := env.issuance.Checkout(context.Background(), "Ada", "ada@example.com")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestCompleteCheckout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	assert.ErrorIs(t, env.issuance.CompleteCheckout(ctx, "ORDER-unknown"), ErrNotFound)

	var verr *ValidationError
	assert.ErrorAs(t, env.issuance.CompleteCheckout(ctx, ""), &verr)

	res, err := env.issuance.Checkout(ctx, "Ada", "ada@example.com")
	require.NoError(t, err)
	require.NoError(t, env.issuance.CompleteCheckout(ctx, res.OrderID))
	assert.Equal(t, []string{res.OrderID}, env.paypal.captured)

	// capture alone does not settle
	assert.Equal(t, model.PaymentPending, env.status(t, res.PurchaseID))
}

func TestCardCheckout_Success(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.issuance.CardCheckout(context.Background(), "Ada", "ada@example.com", "fake-valid-nonce")
	require.NoError(t, err)
	assert.Equal(t, "bt-1", res.TransactionID)
	assert.Contains(t, res.StreamLink, testBaseURL+"/stream?token=")

	p, err := env.purchases.FindByID(context.Background(), res.PurchaseID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentCompleted, p.PaymentStatus)
	require.NotNil(t, p.PaymentReference)
	assert.Equal(t, "bt-1", *p.PaymentReference)

	require.Equal(t, 1, env.sender.confirmationCount())
	assert.Equal(t, res.StreamLink, env.sender.confirmations[0].StreamLink)
}

func TestCardCheckout_Declined(t *testing.T) {
	env := newTestEnv(t)
	env.braintree.err = client.ErrPaymentDeclined

	_, err := env.issuance.CardCheckout(context.Background(), "Ada", "ada@example.com", "fake-processor-declined-visa-nonce")
	assert.ErrorIs(t, err, ErrDeclined)

	purchases, err := env.purchases.List(context.Background())
	require.NoError(t, err)
	require.Len(t, purchases, 1)
	assert.Equal(t, model.PaymentFailed, purchases[0].PaymentStatus)
	assert.Zero(t, env.sender.confirmationCount())
}

func TestCardCheckout_GatewayError(t *testing.T) {
	env := newTestEnv(t)
	env.braintree.err = errors.New("connection refused")

	_, err := env.issuance.CardCheckout(context.Background(), "Ada", "ada@example.com", "nonce")
	assert.ErrorIs(t, err, ErrUnavailable)

	purchases, err := env.purchases.List(context.Background())
	require.NoError(t, err)
	require.Len(t, purchases, 1)
	assert.Equal(t, model.PaymentPending, purchases[0].PaymentStatus)
}

func TestCardCheckout_MissingNonce(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.issuance.CardCheckout(context.Background(), "Ada", "ada@example.com", "")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "nonce", verr.Field)
}
