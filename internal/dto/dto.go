package dto

import "time"

type CheckoutRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type CheckoutResponse struct {
	PurchaseID  string `json:"purchase_id"`
	OrderID     string `json:"order_id"`
	ApprovalURL string `json:"approval_url"`
}

type CardCheckoutRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Nonce string `json:"nonce"`
}

type CardCheckoutResponse struct {
	PurchaseID    string `json:"purchase_id"`
	TransactionID string `json:"transaction_id"`
	StreamURL     string `json:"stream_url"`
}

// StreamResponse is the body of GET /stream. Denials carry only the reason.
type StreamResponse struct {
	Access        string  `json:"access"`
	Reason        string  `json:"reason,omitempty"`
	Resumed       bool    `json:"resumed,omitempty"`
	IsLive        bool    `json:"is_live"`
	StreamURL     *string `json:"stream_url,omitempty"`
	PurchaserName string  `json:"purchaser_name,omitempty"`
}

type LoginRequest struct {
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type SetStreamURLRequest struct {
	URL string `json:"url"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}
