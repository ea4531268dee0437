package cli

import (
	"github.com/spf13/cobra"
)

// newAuthCmd creates the auth command for keyring-backed token storage.
func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the stored GitHub token",
		Long: `Store or remove a GitHub token in the system keyring.

A stored token is used automatically when no token is found in the config
file, a keys file, or the GITHUB_TOKEN environment variable.`,
	}

	cmd.AddCommand(newAuthSetCmd())
	cmd.AddCommand(newAuthClearCmd())

	return cmd
}

func newAuthSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <token>",
		Short: "Store a GitHub token in the system keyring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := storeToken(args[0]); err != nil {
				return err
			}
			printSuccess("Token stored in system keyring")
			return nil
		},
	}
}

func newAuthClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the GitHub token from the system keyring",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := deleteToken(); err != nil {
				printInfo("No stored token found")
				return nil
			}
			printSuccess("Token removed")
			return nil
		},
	}
}
