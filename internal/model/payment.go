package model

type PaymentEventKind string

const (
	PaymentEventCompleted PaymentEventKind = "completed"
	PaymentEventFailed    PaymentEventKind = "failed"
	PaymentEventOther     PaymentEventKind = "other"
)

// PaymentEvent is a verified, provider-neutral payment notification.
// PurchaseID is preferred for lookup; PaymentReference is the fallback.
type PaymentEvent struct {
	ID               string
	Type             string
	Kind             PaymentEventKind
	PurchaseID       string
	PaymentReference string
}
