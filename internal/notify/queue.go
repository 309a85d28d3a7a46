package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	kindConfirmation = "purchase_confirmation"
	kindReminder     = "event_reminder"
)

// envelope is the message body published to the notification queue.
type envelope struct {
	Kind         string        `json:"kind"`
	Confirmation *Confirmation `json:"confirmation,omitempty"`
	Reminder     *Reminder     `json:"reminder,omitempty"`
}

// Publisher is the subset of *amqp.Channel used by QueueSender.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// QueueSender hands notifications to the broker for the notify worker to deliver.
type QueueSender struct {
	pub   Publisher
	queue string
}

func NewQueueSender(pub Publisher, queue string) *QueueSender {
	return &QueueSender{pub: pub, queue: queue}
}

// DialQueueSender connects to the broker and declares the durable queue.
// The returned func closes the channel and connection.
func DialQueueSender(url, queue string) (*QueueSender, func() error, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("declare queue: %w", err)
	}

	closeFn := func() error {
		_ = ch.Close()
		return conn.Close()
	}
	return NewQueueSender(ch, queue), closeFn, nil
}

func (s *QueueSender) SendPurchaseConfirmation(ctx context.Context, c Confirmation) error {
	return s.publish(ctx, envelope{Kind: kindConfirmation, Confirmation: &c})
}

func (s *QueueSender) SendEventReminder(ctx context.Context, r Reminder) error {
	return s.publish(ctx, envelope{Kind: kindReminder, Reminder: &r})
}

func (s *QueueSender) publish(ctx context.Context, env envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	err = s.pub.PublishWithContext(ctx, "", s.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}
