package notify

import (
	"context"
	"time"
)

// Sender delivers customer notifications. Implementations must be safe for
// concurrent use.
type Sender interface {
	SendPurchaseConfirmation(ctx context.Context, msg Confirmation) error
	SendEventReminder(ctx context.Context, msg Reminder) error
}

// EventDetails is the event information shown in every message.
type EventDetails struct {
	Name     string    `json:"name"`
	Artist   string    `json:"artist"`
	Venue    string    `json:"venue"`
	Location string    `json:"location"`
	StartsAt time.Time `json:"starts_at"`
}

type Confirmation struct {
	To         string       `json:"to"`
	Name       string       `json:"name"`
	PurchaseID string       `json:"purchase_id"`
	StreamLink string       `json:"stream_link"`
	Event      EventDetails `json:"event"`
}

type Reminder struct {
	To             string       `json:"to"`
	Name           string       `json:"name"`
	StreamLink     string       `json:"stream_link"`
	TimeUntilEvent string       `json:"time_until_event"`
	Event          EventDetails `json:"event"`
}
