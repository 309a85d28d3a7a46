package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand creates the root command for the ticket portal.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "ticket-stream-portal",
		Short:         "Ticket sales and single-use stream access for one live event",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(NewServeCommand())
	cmd.AddCommand(NewNotifyWorkerCommand())
	cmd.AddCommand(NewSendRemindersCommand())
	cmd.AddCommand(NewHashPasswordCommand())

	return cmd
}
