// Package commands implements the carteira command line.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/carteira-dev/carteira/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "carteira",
		Short:   "Personal finances with credit card billing cycles",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("repo", ".", "data repository directory")
	rootCmd.PersistentFlags().String("pin", "", "PIN to unlock changes (or "+envPINHint+")")

	rootCmd.AddCommand(
		newInitCommand(),
		newCardCommand(),
		newEntryCommand(),
		newResolveCommand(),
		newInvoiceCommand(),
		newSummaryCommand(),
		newBreakdownCommand(),
		newImportCommand(),
		newGoalCommand(),
		newLockCommand(),
		newLogCommand(),
	)

	return rootCmd
}
