package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/retainly/intake/internal/conflict"
	"github.com/retainly/intake/internal/notify"
	"github.com/retainly/intake/internal/record"
)

var conflictsCmd = &cobra.Command{
	Use:   "conflicts NAME...",
	Short: "Scan party names against existing client accounts",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		matches, err := s.service.ConflictScan(ctx, args)
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			fmt.Println("no conflicts found")
			return nil
		}
		for _, m := range matches {
			fmt.Printf("%.2f  %q matches existing client %q\n", m.Score, m.Counterparty, m.AccountName)
		}
		return nil
	},
}

var dismissCmd = &cobra.Command{
	Use:   "dismiss APPLICATION_ID",
	Short: "Dismiss an application's conflict-of-interest alert",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		appID := args[0]
		snap, err := s.store.Fetch(ctx, appID, record.ConflictFields)
		if err != nil {
			return err
		}
		if !snap.ConflictAlert {
			fmt.Println("no conflict alert on this application")
			return nil
		}

		tracker := conflict.NewTracker(s.store, conflict.NewSessionCache(), appID)
		tracker.Toaster = notify.NewTerminal()
		tracker.Audit = s.audit
		eval := tracker.Evaluate(ctx, snap)
		if !eval.Shown && snap.ConflictDismissed {
			fmt.Println("alert already dismissed and unchanged")
			return nil
		}
		tracker.Dismiss(ctx)
		fmt.Printf("conflict alert dismissed for %s\n", appID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(conflictsCmd)
	rootCmd.AddCommand(dismissCmd)
}
