package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/retainly/intake/internal/retainer"
)

var retainerCmd = &cobra.Command{
	Use:   "retainer DECISION",
	Short: "Compute the retainer quote for a decision label",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		var quoted, reduced *float64
		if v, _ := cmd.Flags().GetFloat64("quoted"); cmd.Flags().Changed("quoted") {
			quoted = &v
		}
		if v, _ := cmd.Flags().GetFloat64("reduced"); cmd.Flags().Changed("reduced") {
			reduced = &v
		}

		calc := retainer.New(s.policy.Tiers)
		q := calc.Quote(args[0], quoted, reduced)

		if d, ok := calc.Discount(args[0]); ok {
			fmt.Printf("tier %s: %.0f%% discount\n", args[0], d*100)
		} else {
			fmt.Printf("label %q is not a known tier\n", args[0])
		}
		fmt.Printf("standard $%.2f, reduced $%.2f\n", q.Standard, q.Reduced)
		return nil
	},
}

func init() {
	retainerCmd.Flags().Float64("quoted", 0, "server-quoted standard amount")
	retainerCmd.Flags().Float64("reduced", 0, "server-supplied reduced amount")
	rootCmd.AddCommand(retainerCmd)
}
