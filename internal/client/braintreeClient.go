package client

import (
	"context"
	"errors"
	"fmt"

	"ticket-stream-portal/internal/config"

	"github.com/braintree-go/braintree-go"
	"github.com/shopspring/decimal"
)

var ErrPaymentDeclined = errors.New("payment declined")

type BraintreeClient interface {
	// ChargeOneTime charges a card nonce from the drop-in UI and returns the transaction id.
	ChargeOneTime(ctx context.Context, nonce string, amount decimal.Decimal, orderID string) (string, error)
}

type braintreeClientImpl struct {
	gateway *braintree.Braintree
}

func NewBraintreeClient(cfg *config.Braintree) BraintreeClient {
	env := braintree.Sandbox
	if cfg.Environment == "production" {
		env = braintree.Production
	}

	gateway := braintree.New(
		env,
		cfg.MerchantID,
		cfg.PublicKey,
		cfg.PrivateKey,
	)

	return &braintreeClientImpl{
		gateway: gateway,
	}
}

func (c *braintreeClientImpl) ChargeOneTime(ctx context.Context, nonce string, amount decimal.Decimal, orderID string) (string, error) {
	// braintree wants unscaled cents with scale 2: 10.00 -> NewDecimal(1000, 2)
	cents := amount.Round(2).Mul(decimal.NewFromInt(100)).IntPart()

	req := &braintree.TransactionRequest{
		Type:               "sale",
		Amount:             braintree.NewDecimal(cents, 2),
		PaymentMethodNonce: nonce,
		OrderId:            orderID,
		Options: &braintree.TransactionOptions{
			SubmitForSettlement: true,
		},
	}

	tx, err := c.gateway.Transaction().Create(ctx, req)
	if err != nil {
		return "", fmt.Errorf("transaction creation failed: %w", err)
	}

	switch tx.Status {
	case braintree.TransactionStatusProcessorDeclined,
		braintree.TransactionStatusGatewayRejected,
		braintree.TransactionStatusFailed:
		return tx.Id, fmt.Errorf("%w: %s", ErrPaymentDeclined, tx.ProcessorResponseText)
	}

	return tx.Id, nil
}
