package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/retainly/intake/internal/config"
	"github.com/retainly/intake/internal/policy"
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Manage the workflow policy file",
}

var policyInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the built-in default policy to the policy path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := config.Load()
		if err := policy.Save(cfg.PolicyPath, policy.Default()); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", cfg.PolicyPath)
		return nil
	},
}

var policyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective policy",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := config.Load()
		pol, err := policy.Load(cfg.PolicyPath)
		if err != nil {
			return err
		}

		fmt.Printf("pending sentinels: %v\n", pol.PendingSentinels)
		fmt.Printf("poll: %d attempts, every %v, first after %v\n",
			pol.Poll.MaxAttempts, pol.Poll.Interval(), pol.Poll.InitialDelay())
		fmt.Printf("conflict threshold: %.2f\n", pol.ConflictThreshold)

		labels := make([]string, 0, len(pol.Tiers))
		for l := range pol.Tiers {
			labels = append(labels, l)
		}
		sort.Strings(labels)
		for _, l := range labels {
			fmt.Printf("tier %-8s %.0f%% discount\n", l, pol.Tiers[l]*100)
		}
		return nil
	},
}

func init() {
	policyCmd.AddCommand(policyInitCmd)
	policyCmd.AddCommand(policyShowCmd)
	rootCmd.AddCommand(policyCmd)
}
