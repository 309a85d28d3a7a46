package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket-stream-portal/internal/config"
	"ticket-stream-portal/internal/model"
)

type fakePaypal struct {
	verification string
	lastOrder    map[string]any
	lastVerify   map[string]any
	captured     []string
}

func (f *fakePaypal) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "client-id", user)
		assert.Equal(t, "client-secret", pass)
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "A21"})
	})
	mux.HandleFunc("/v2/checkout/orders", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer A21", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&f.lastOrder))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "ORDER-1",
			"status": "CREATED",
			"links": []map[string]string{
				{"rel": "self", "href": "https://api.paypal.test/v2/checkout/orders/ORDER-1"},
				{"rel": "approve", "href": "https://paypal.test/checkoutnow?token=ORDER-1"},
			},
		})
	})
	mux.HandleFunc("/v2/checkout/orders/ORDER-1/capture", func(w http.ResponseWriter, r *http.Request) {
		f.captured = append(f.captured, "ORDER-1")
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":"ORDER-1","status":"COMPLETED"}`)
	})
	mux.HandleFunc("/v2/checkout/orders/ORDER-404/capture", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"name":"RESOURCE_NOT_FOUND"}`, http.StatusNotFound)
	})
	mux.HandleFunc("/v1/notifications/verify-webhook-signature", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&f.lastVerify))
		_ = json.NewEncoder(w).Encode(map[string]string{"verification_status": f.verification})
	})
	return mux
}

func newTestPaypal(t *testing.T, f *fakePaypal) PaypalClient {
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	return NewPaypalClient(&config.Paypal{
		BaseApiURL:   srv.URL,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		WebhookID:    "WH-ID",
	})
}

func TestPaypalClient_CreateOrder(t *testing.T) {
	f := &fakePaypal{}
	c := newTestPaypal(t, f)

	resp, err := c.CreateOrder(context.Background(), CreateOrderRequest{
		PurchaseID: "p-1",
		Amount:     decimal.RequireFromString("10"),
		Currency:   "USD",
		ReturnURL:  "http://localhost/api/checkout/success",
		CancelURL:  "http://localhost/",
	})
	require.NoError(t, err)
	assert.Equal(t, "ORDER-1", resp.OrderID)
	assert.Equal(t, "https://paypal.test/checkoutnow?token=ORDER-1", resp.ApproveURL)

	units := f.lastOrder["purchase_units"].([]any)
	unit := units[0].(map[string]any)
	assert.Equal(t, "p-1", unit["custom_id"])
	assert.Equal(t, "10.00", unit["amount"].(map[string]any)["value"])
}

func TestPaypalClient_CaptureOrder(t *testing.T) {
	f := &fakePaypal{}
	c := newTestPaypal(t, f)

	require.NoError(t, c.CaptureOrder(context.Background(), "ORDER-1"))
	assert.Equal(t, []string{"ORDER-1"}, f.captured)

	err := c.CaptureOrder(context.Background(), "ORDER-404")
	assert.ErrorContains(t, err, "paypal error 404")
}

func TestPaypalClient_VerifyWebhookSignature(t *testing.T) {
	headers := http.Header{}
	headers.Set("PAYPAL-TRANSMISSION-ID", "tx-1")
	headers.Set("PAYPAL-AUTH-ALGO", "SHA256withRSA")
	body := []byte(`{"id":"WH-1","event_type":"PAYMENT.CAPTURE.COMPLETED"}`)

	t.Run("success", func(t *testing.T) {
		f := &fakePaypal{verification: "SUCCESS"}
		c := newTestPaypal(t, f)

		require.NoError(t, c.VerifyWebhookSignature(context.Background(), headers, body))
		assert.Equal(t, "WH-ID", f.lastVerify["webhook_id"])
		assert.Equal(t, "tx-1", f.lastVerify["transmission_id"])
		assert.Equal(t, "WH-1", f.lastVerify["webhook_event"].(map[string]any)["id"])
	})

	t.Run("failure", func(t *testing.T) {
		c := newTestPaypal(t, &fakePaypal{verification: "FAILURE"})
		assert.ErrorIs(t, c.VerifyWebhookSignature(context.Background(), headers, body), ErrInvalidSignature)
	})

	t.Run("not json", func(t *testing.T) {
		c := newTestPaypal(t, &fakePaypal{verification: "SUCCESS"})
		assert.ErrorIs(t, c.VerifyWebhookSignature(context.Background(), headers, []byte("nope")), ErrInvalidSignature)
	})
}

func TestDecodePaypalEvent(t *testing.T) {
	tests := []struct {
		name string
		body string
		want model.PaymentEvent
	}{
		{
			name: "capture completed",
			body: `{"id":"WH-1","event_type":"PAYMENT.CAPTURE.COMPLETED","resource":{"id":"CAP-1","custom_id":"p-1","supplementary_data":{"related_ids":{"order_id":"ORDER-1"}}}}`,
			want: model.PaymentEvent{ID: "WH-1", Type: "PAYMENT.CAPTURE.COMPLETED", Kind: model.PaymentEventCompleted, PurchaseID: "p-1", PaymentReference: "ORDER-1"},
		},
		{
			name: "capture denied",
			body: `{"id":"WH-2","event_type":"PAYMENT.CAPTURE.DENIED","resource":{"custom_id":"p-2"}}`,
			want: model.PaymentEvent{ID: "WH-2", Type: "PAYMENT.CAPTURE.DENIED", Kind: model.PaymentEventFailed, PurchaseID: "p-2"},
		},
		{
			name: "approval reversed",
			body: `{"id":"WH-3","event_type":"CHECKOUT.PAYMENT-APPROVAL.REVERSED","resource":{"id":"ORDER-3","purchase_units":[{"custom_id":"p-3"}]}}`,
			want: model.PaymentEvent{ID: "WH-3", Type: "CHECKOUT.PAYMENT-APPROVAL.REVERSED", Kind: model.PaymentEventFailed, PurchaseID: "p-3", PaymentReference: "ORDER-3"},
		},
		{
			name: "other",
			body: `{"id":"WH-4","event_type":"CHECKOUT.ORDER.APPROVED","resource":{"id":"ORDER-4"}}`,
			want: model.PaymentEvent{ID: "WH-4", Type: "CHECKOUT.ORDER.APPROVED", Kind: model.PaymentEventOther},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodePaypalEvent([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := DecodePaypalEvent([]byte(`{"event_type":"PAYMENT.CAPTURE.COMPLETED"}`))
	assert.Error(t, err)
}
