package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/retainly/intake/internal/conflict"
	"github.com/retainly/intake/internal/decision"
	"github.com/retainly/intake/internal/notify"
	"github.com/retainly/intake/internal/retainer"
	"github.com/retainly/intake/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui APPLICATION_ID",
	Short: "Watch the decision poll in a live dashboard",
	Args:  cobra.ExactArgs(1),
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	appID := args[0]
	cfg := decision.Config{
		MaxAttempts:  s.policy.Poll.MaxAttempts,
		Interval:     s.policy.Poll.Interval(),
		InitialDelay: s.policy.Poll.InitialDelay(),
	}

	poller, err := decision.New(s.store, func() string { return appID }, cfg)
	if err != nil {
		return err
	}
	poller.Terminal = decision.PendingTerminal(s.policy.PendingSentinels...)
	poller.Audit = s.audit

	tracker := conflict.NewTracker(s.store, conflict.NewSessionCache(), appID)
	tracker.Toaster = notify.Discard{} // the dashboard is the presentation surface
	tracker.Audit = s.audit

	bridge := &tui.Bridge{
		Store:   s.store,
		Hub:     s.store.Hub(),
		Service: s.service,
		Poller:  poller,
		Tracker: tracker,
		Calc:    retainer.New(s.policy.Tiers),
		Refresh: time.Duration(s.cfg.RefreshSeconds) * time.Second,
		AppID:   appID,
	}

	return tui.Run(ctx, bridge, cfg.MaxAttempts)
}
