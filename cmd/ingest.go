package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/retainly/intake/internal/inbox"
	"github.com/retainly/intake/internal/notify"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Watch the drop directory and ingest intake request files",
	Long: "Ingest watches the inbox drop directory for .toml intake requests. Each\n" +
		"request creates an account and application and runs the conflict scan.\n" +
		"Runs until interrupted.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		w, err := inbox.NewWatcher(s.cfg.InboxDir, s.service)
		if err != nil {
			return err
		}
		w.Toaster = notify.NewTerminal()
		w.Audit = s.audit

		if err := w.Start(ctx); err != nil {
			return err
		}
		fmt.Printf("watching %s for intake requests (ctrl-c to stop)\n", s.cfg.InboxDir)

		<-ctx.Done()
		w.Stop()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}
