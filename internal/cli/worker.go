package cli

import (
	"errors"
	"os/signal"
	"syscall"

	"ticket-stream-portal/internal/notify"

	"github.com/spf13/cobra"
)

// NewNotifyWorkerCommand creates the command that drains the notification
// queue and delivers each message.
func NewNotifyWorkerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "notify-worker",
		Short: "Consume queued confirmation and reminder messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if cfg.AMQP.URL == "" {
				return errors.New("AMQP_URL must be set for notify-worker")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			consumer := notify.NewConsumer(cfg.AMQP.URL, cfg.AMQP.Queue, notify.NewLogSender(log), log)
			log.Info("notify worker started", "queue", cfg.AMQP.Queue)
			return consumer.Run(ctx)
		},
	}
}
