package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/retainly/intake/internal/decision"
	"github.com/retainly/intake/internal/record"
	"github.com/retainly/intake/internal/retainer"
)

var watchCmd = &cobra.Command{
	Use:   "watch APPLICATION_ID",
	Short: "Poll for the credit decision and print the outcome",
	Long: "Watch polls the application's decision field on the policy schedule until a\n" +
		"terminal decision appears or the attempt budget runs out, then advances the\n" +
		"workflow and prints the retainer quote.",
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().Int("max-attempts", 0, "override poll attempt budget")
	watchCmd.Flags().Duration("interval", 0, "override poll interval")
	watchCmd.Flags().Duration("initial-delay", -1, "override delay before first poll")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	appID := args[0]
	cfg := pollConfig(cmd, s)

	poller, err := decision.New(s.store, func() string { return appID }, cfg)
	if err != nil {
		return err
	}
	poller.Terminal = decision.PendingTerminal(s.policy.PendingSentinels...)
	poller.Audit = s.audit

	fmt.Printf("watching %s (up to %d attempts, every %v)\n", appID, cfg.MaxAttempts, cfg.Interval)
	poller.Start(ctx)
	defer poller.Stop()

	var res decision.Result
	select {
	case res = <-poller.Done():
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := s.service.Advance(ctx, appID, res); err != nil {
		return err
	}

	switch res.Outcome {
	case decision.OutcomeDecisionFound:
		calc := retainer.New(s.policy.Tiers)
		q := calc.Quote(res.Snapshot.Decision, res.Snapshot.QuotedAmount, res.Snapshot.ReducedAmount)
		fmt.Printf("decision %q after %d attempt(s)\n", res.Snapshot.Decision, res.Attempts)
		fmt.Printf("standard retainer $%.2f, reduced $%.2f\n", q.Standard, q.Reduced)
	case decision.OutcomeTimedOut:
		fmt.Printf("no decision after %d attempt(s); routed to manual review\n", res.Attempts)
	case decision.OutcomeFetchFailed:
		return fmt.Errorf("decision fetch failed: %w", res.Err)
	}
	return nil
}

// pollConfig builds the poller config from policy with flag overrides.
func pollConfig(cmd *cobra.Command, s *session) decision.Config {
	cfg := decision.Config{
		MaxAttempts:  s.policy.Poll.MaxAttempts,
		Interval:     s.policy.Poll.Interval(),
		InitialDelay: s.policy.Poll.InitialDelay(),
	}
	if v, _ := cmd.Flags().GetInt("max-attempts"); v > 0 {
		cfg.MaxAttempts = v
	}
	if v, _ := cmd.Flags().GetDuration("interval"); v > 0 {
		cfg.Interval = v
	}
	if v, _ := cmd.Flags().GetDuration("initial-delay"); v >= 0 {
		cfg.InitialDelay = v
	}
	return cfg
}

// decideCmd writes a decision onto an application, standing in for the
// credit bureau's asynchronous callback in local setups and demos.
var decideCmd = &cobra.Command{
	Use:   "decide APPLICATION_ID DECISION",
	Short: "Record a credit decision (stands in for the bureau callback)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		values := record.Values{record.FieldDecision: args[1]}
		if v, _ := cmd.Flags().GetFloat64("quoted"); v > 0 {
			values[record.FieldQuotedAmount] = v
		}
		if v, _ := cmd.Flags().GetFloat64("reduced"); v > 0 {
			values[record.FieldReducedAmount] = v
		}
		if err := s.store.Update(ctx, args[0], values); err != nil {
			return err
		}
		s.store.NotifyChanged(args[0])
		fmt.Printf("decision %q recorded for %s\n", args[1], args[0])
		return nil
	},
}

func init() {
	decideCmd.Flags().Float64("quoted", 0, "server-quoted standard retainer amount")
	decideCmd.Flags().Float64("reduced", 0, "server-quoted reduced retainer amount")
	rootCmd.AddCommand(decideCmd)
}
