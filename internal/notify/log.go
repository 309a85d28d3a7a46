package notify

import (
	"context"
	"log/slog"
)

// LogSender renders messages and writes them to the log instead of delivering them.
type LogSender struct {
	log *slog.Logger
}

func NewLogSender(log *slog.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) SendPurchaseConfirmation(ctx context.Context, c Confirmation) error {
	msg, err := RenderConfirmation(c)
	if err != nil {
		return err
	}
	s.emit(ctx, "purchase_confirmation", msg)
	return nil
}

func (s *LogSender) SendEventReminder(ctx context.Context, r Reminder) error {
	msg, err := RenderReminder(r)
	if err != nil {
		return err
	}
	s.emit(ctx, "event_reminder", msg)
	return nil
}

func (s *LogSender) emit(ctx context.Context, kind string, msg Message) {
	s.log.InfoContext(ctx, "notification sent",
		"kind", kind,
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.Body,
	)
}
