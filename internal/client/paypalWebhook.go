package client

import (
	"encoding/json"
	"fmt"

	"ticket-stream-portal/internal/model"
)

// DecodePaypalEvent maps a PayPal webhook body onto a PaymentEvent.
// Event types we do not act on decode to PaymentEventOther.
func DecodePaypalEvent(body []byte) (model.PaymentEvent, error) {
	var payload model.PayPalWebhookEvent
	if err := json.Unmarshal(body, &payload); err != nil {
		return model.PaymentEvent{}, fmt.Errorf("decode webhook payload: %w", err)
	}
	if payload.ID == "" {
		return model.PaymentEvent{}, fmt.Errorf("webhook payload has no event id")
	}

	ev := model.PaymentEvent{
		ID:   payload.ID,
		Type: payload.EventType,
		Kind: model.PaymentEventOther,
	}

	res := payload.Resource
	switch payload.EventType {
	case "PAYMENT.CAPTURE.COMPLETED":
		ev.Kind = model.PaymentEventCompleted
		ev.PurchaseID = res.CustomID
		ev.PaymentReference = res.SupplementaryData.RelatedIDs.OrderID
	case "PAYMENT.CAPTURE.DENIED", "PAYMENT.CAPTURE.DECLINED":
		ev.Kind = model.PaymentEventFailed
		ev.PurchaseID = res.CustomID
		ev.PaymentReference = res.SupplementaryData.RelatedIDs.OrderID
	case "CHECKOUT.PAYMENT-APPROVAL.REVERSED":
		// resource is the order itself
		ev.Kind = model.PaymentEventFailed
		ev.PaymentReference = res.ID
		if len(res.PurchaseUnits) > 0 {
			ev.PurchaseID = res.PurchaseUnits[0].CustomID
		}
	}

	return ev, nil
}
