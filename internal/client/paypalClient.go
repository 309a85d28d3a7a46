package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"ticket-stream-portal/internal/config"
	"ticket-stream-portal/internal/model"

	"github.com/shopspring/decimal"
)

var ErrInvalidSignature = errors.New("paypal webhook signature invalid")

type PaypalClient interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResponse, error)
	CaptureOrder(ctx context.Context, orderID string) error
	VerifyWebhookSignature(ctx context.Context, headers http.Header, body []byte) error
}

type paypalClientImpl struct {
	httpClient         *http.Client
	baseApiURL         string
	paypalClientID     string
	paypalClientSecret string
	webhookID          string
}

type PaypalCreateOrderResult struct {
	ID     string             `json:"id"`
	Links  []model.PaypalLink `json:"links"`
	Status string             `json:"status"`
}

type CreateOrderRequest struct {
	// PurchaseID is sent as custom_id and comes back on capture webhooks.
	PurchaseID  string
	Description string
	Amount      decimal.Decimal
	Currency    string
	ReturnURL   string
	CancelURL   string
}

type CreateOrderResponse struct {
	OrderID    string
	ApproveURL string
}

func NewPaypalClient(paypalCfg *config.Paypal) PaypalClient {
	return &paypalClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseApiURL:         paypalCfg.BaseApiURL,
		paypalClientID:     paypalCfg.ClientID,
		paypalClientSecret: paypalCfg.ClientSecret,
		webhookID:          paypalCfg.WebhookID,
	}
}

func (c *paypalClientImpl) getAccessToken(ctx context.Context) (string, error) {
	auth := base64.StdEncoding.EncodeToString(
		[]byte(c.paypalClientID + ":" + c.paypalClientSecret),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseApiURL+"/v1/oauth2/token",
		bytes.NewBufferString("grant_type=client_credentials"))
	if err != nil {
		return "", fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("paypal oauth error %d: %s", resp.StatusCode, string(b))
	}

	var res struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", fmt.Errorf("decode oauth response: %w", err)
	}
	return res.AccessToken, nil
}

func (c *paypalClientImpl) CreateOrder(ctx context.Context, in CreateOrderRequest) (*CreateOrderResponse, error) {
	payload := map[string]interface{}{
		"intent": "CAPTURE",
		"purchase_units": []map[string]interface{}{
			{
				"reference_id": in.PurchaseID,
				"custom_id":    in.PurchaseID,
				"description":  in.Description,
				"amount": map[string]string{
					"currency_code": in.Currency,
					"value":         in.Amount.StringFixed(2),
				},
			},
		},
		"application_context": map[string]string{
			"return_url":          in.ReturnURL,
			"cancel_url":          in.CancelURL,
			"shipping_preference": "NO_SHIPPING",
		},
	}

	var result PaypalCreateOrderResult
	if err := c.postJSON(ctx, "/v2/checkout/orders", payload, &result); err != nil {
		return nil, fmt.Errorf("create paypal order: %w", err)
	}

	return &CreateOrderResponse{
		OrderID:    result.ID,
		ApproveURL: extractApproveURL(result.Links),
	}, nil
}

func (c *paypalClientImpl) CaptureOrder(ctx context.Context, orderID string) error {
	path := fmt.Sprintf("/v2/checkout/orders/%s/capture", orderID)
	if err := c.postJSON(ctx, path, nil, nil); err != nil {
		return fmt.Errorf("capture paypal order: %w", err)
	}
	return nil
}

// VerifyWebhookSignature asks PayPal to validate the transmission headers
// against the configured webhook id.
func (c *paypalClientImpl) VerifyWebhookSignature(ctx context.Context, headers http.Header, body []byte) error {
	if !json.Valid(body) {
		return ErrInvalidSignature
	}

	payload := map[string]interface{}{
		"auth_algo":         headers.Get("PAYPAL-AUTH-ALGO"),
		"cert_url":          headers.Get("PAYPAL-CERT-URL"),
		"transmission_id":   headers.Get("PAYPAL-TRANSMISSION-ID"),
		"transmission_sig":  headers.Get("PAYPAL-TRANSMISSION-SIG"),
		"transmission_time": headers.Get("PAYPAL-TRANSMISSION-TIME"),
		"webhook_id":        c.webhookID,
		"webhook_event":     json.RawMessage(body),
	}

	var result struct {
		VerificationStatus string `json:"verification_status"`
	}
	if err := c.postJSON(ctx, "/v1/notifications/verify-webhook-signature", payload, &result); err != nil {
		return fmt.Errorf("verify webhook signature: %w", err)
	}
	if result.VerificationStatus != "SUCCESS" {
		return ErrInvalidSignature
	}
	return nil
}

func (c *paypalClientImpl) postJSON(ctx context.Context, path string, payload, out interface{}) error {
	accessToken, err := c.getAccessToken(ctx)
	if err != nil {
		return fmt.Errorf("get paypal access token: %w", err)
	}

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal req payload: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseApiURL+path, body)
	if err != nil {
		return fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("paypal error %d: %s", resp.StatusCode, string(b))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode paypal response: %w", err)
	}
	return nil
}

func extractApproveURL(links []model.PaypalLink) string {
	for _, link := range links {
		if link.Rel == "approve" || link.Rel == "payer-action" {
			return link.Href
		}
	}
	return ""
}
