package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage client accounts",
}

var accountNewCmd = &cobra.Command{
	Use:   "new NAME",
	Short: "Create a client account and open an intake application",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountNew,
}

var accountListCmd = &cobra.Command{
	Use:   "list",
	Short: "List client accounts",
	Args:  cobra.NoArgs,
	RunE:  runAccountList,
}

func init() {
	accountNewCmd.Flags().String("email", "", "client email")
	accountNewCmd.Flags().String("phone", "", "client phone")
	accountNewCmd.Flags().StringSlice("counterparty", nil, "opposing party name (repeatable), scanned for conflicts")

	accountCmd.AddCommand(accountNewCmd)
	accountCmd.AddCommand(accountListCmd)
	rootCmd.AddCommand(accountCmd)
}

func runAccountNew(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	email, _ := cmd.Flags().GetString("email")
	phone, _ := cmd.Flags().GetString("phone")
	counterparties, _ := cmd.Flags().GetStringSlice("counterparty")

	account, err := s.service.CreateAccount(ctx, args[0], email, phone)
	if err != nil {
		return err
	}
	appID, err := s.service.OpenApplication(ctx, account, counterparties)
	if err != nil {
		return err
	}

	fmt.Printf("account     %s\n", account.ID)
	fmt.Printf("application %s\n", appID)

	matches, err := s.service.ConflictScan(ctx, counterparties)
	if err != nil {
		return err
	}
	for _, m := range matches {
		fmt.Printf("conflict    %q matches existing client %q (score %.2f)\n",
			m.Counterparty, m.AccountName, m.Score)
	}
	return nil
}

func runAccountList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	accounts, err := s.store.Accounts(ctx)
	if err != nil {
		return err
	}
	for _, a := range accounts {
		fmt.Printf("%s  %s\n", a.ID, a.Name)
	}
	return nil
}
