package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Consumer drains the notification queue into a delivering Sender.
type Consumer struct {
	url      string
	queue    string
	delivery Sender
	log      *slog.Logger
}

func NewConsumer(url, queue string, delivery Sender, log *slog.Logger) *Consumer {
	return &Consumer{url: url, queue: queue, delivery: delivery, log: log}
}

// Run consumes until ctx is cancelled, reconnecting with backoff.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warn("notify consumer: dial failed", "error", err, "retry_in", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("notify consumer: loop ended, reconnecting", "error", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(20, 0, false); err != nil {
		c.log.Warn("notify consumer: set qos failed", "error", err)
	}
	if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.Handle(ctx, d.Body); err != nil {
				c.log.Error("notify consumer: handle message failed", "error", err)
				// no requeue, a poison message would loop forever
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Handle decodes one queued notification and delivers it.
func (c *Consumer) Handle(ctx context.Context, body []byte) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}

	switch env.Kind {
	case kindConfirmation:
		if env.Confirmation == nil {
			return fmt.Errorf("%s without payload", env.Kind)
		}
		return c.delivery.SendPurchaseConfirmation(ctx, *env.Confirmation)
	case kindReminder:
		if env.Reminder == nil {
			return fmt.Errorf("%s without payload", env.Kind)
		}
		return c.delivery.SendEventReminder(ctx, *env.Reminder)
	default:
		return fmt.Errorf("unknown notification kind %q", env.Kind)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
