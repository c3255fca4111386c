package main

import (
	"github.com/spf13/cobra"

	"github.com/pankaj-dahiya-devops/aicost/internal/output"
)

func newAccountsCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Log in with SSO and list the accessible accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, token, err := a.login(cmd)
			if err != nil {
				return err
			}
			accounts, err := b.ListAccounts(cmd.Context(), token)
			if err != nil {
				return err
			}
			if format == "json" {
				return output.WriteJSON(cmd.OutOrStdout(), accounts)
			}
			output.RenderAccounts(cmd.OutOrStdout(), accounts)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")
	return cmd
}
