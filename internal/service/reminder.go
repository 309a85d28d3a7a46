package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ticket-stream-portal/internal/config"
	"ticket-stream-portal/internal/notify"
	"ticket-stream-portal/internal/repository"
)

type ReminderResult struct {
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
	Total      int `json:"total"`
}

type ReminderService interface {
	SendReminders(ctx context.Context, now time.Time) (*ReminderResult, error)
}

type reminderServiceImpl struct {
	purchaseRepo   repository.PurchaseRepository
	sender         notify.Sender
	event          config.Event
	serviceBaseUrl string
	log            *slog.Logger
}

func NewReminderService(
	purchaseRepo repository.PurchaseRepository,
	sender notify.Sender,
	event config.Event,
	serviceBaseUrl string,
	log *slog.Logger,
) ReminderService {
	return &reminderServiceImpl{
		purchaseRepo:   purchaseRepo,
		sender:         sender,
		event:          event,
		serviceBaseUrl: serviceBaseUrl,
		log:            log,
	}
}

// SendReminders messages every completed purchase. Individual failures are
// counted, not returned.
func (s *reminderServiceImpl) SendReminders(ctx context.Context, now time.Time) (*ReminderResult, error) {
	purchases, err := s.purchaseRepo.ListCompleted(ctx)
	if err != nil {
		return nil, persistence("list completed purchases", err)
	}

	until := FormatTimeUntil(s.event.StartsAt.Sub(now))
	res := &ReminderResult{Total: len(purchases)}
	for _, p := range purchases {
		err := s.sender.SendEventReminder(ctx, notify.Reminder{
			To:             p.Email,
			Name:           p.Name,
			StreamLink:     StreamLink(s.serviceBaseUrl, p.Token),
			TimeUntilEvent: until,
			Event:          eventDetails(s.event),
		})
		if err != nil {
			res.Failed++
			s.log.ErrorContext(ctx, "send event reminder", "purchase_id", p.ID, "error", err)
			continue
		}
		res.Successful++
	}

	s.log.InfoContext(ctx, "reminders sent", "successful", res.Successful, "failed", res.Failed, "total", res.Total)
	return res, nil
}

// FormatTimeUntil renders the time left before the event, e.g.
// "2 hours and 1 minute", "45 minutes" or "Starting now!".
func FormatTimeUntil(d time.Duration) string {
	hours := int(d / time.Hour)
	minutes := int((d % time.Hour) / time.Minute)

	switch {
	case hours > 0:
		return fmt.Sprintf("%s and %s", plural(hours, "hour"), plural(minutes, "minute"))
	case minutes > 0:
		return plural(minutes, "minute")
	default:
		return "Starting now!"
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
