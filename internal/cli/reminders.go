package cli

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"
)

// NewSendRemindersCommand creates the command that sends the event reminder
// to every paid purchaser.
func NewSendRemindersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "send-reminders",
		Short: "Send the event reminder to all paid purchasers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			a, err := newApp(cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.reminders.SendReminders(cmd.Context(), time.Now())
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
}
