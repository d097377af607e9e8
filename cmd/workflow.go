package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/retainly/intake/internal/record"
)

// formatTime renders an optional timestamp for status output.
func formatTime(t *time.Time) string {
	if t == nil {
		return "(none)"
	}
	return t.Local().Format(time.RFC3339)
}

var consentCmd = &cobra.Command{
	Use:   "consent APPLICATION_ID",
	Short: "Capture the client's identity/consent acknowledgment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.service.CaptureConsent(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("consent captured for %s\n", args[0])
		return nil
	},
}

var submitCmd = &cobra.Command{
	Use:   "submit APPLICATION_ID",
	Short: "Submit the application for an asynchronous credit decision",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.service.SubmitCreditCheck(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("submitted %s; decision pending\n", args[0])
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status APPLICATION_ID",
	Short: "Show an application's current workflow state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		fields := append([]string{}, record.DecisionFields...)
		fields = append(fields, record.ConflictFields...)
		fields = append(fields, record.FieldConsentAt, record.FieldSubmittedAt, record.FieldStep)

		snap, err := s.store.Fetch(ctx, args[0], fields)
		if err != nil {
			return err
		}

		fmt.Printf("application %s\n", snap.ID)
		fmt.Printf("  account   %s\n", snap.AccountName)
		fmt.Printf("  step      %s\n", snap.Step)
		decisionStr := snap.Decision
		if decisionStr == "" {
			decisionStr = "(none)"
		}
		fmt.Printf("  decision  %s\n", decisionStr)
		fmt.Printf("  consent   %s\n", formatTime(snap.ConsentAt))
		fmt.Printf("  submitted %s\n", formatTime(snap.SubmittedAt))
		if snap.ConflictAlert {
			state := "active"
			if snap.ConflictDismissed {
				state = "dismissed"
			}
			fmt.Printf("  conflict  %s: %s\n", state, snap.ConflictMessage)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(consentCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(statusCmd)
}
