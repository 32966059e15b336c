package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/folio-dev/folio/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var workspaceDir string

	rootCmd := &cobra.Command{
		Use:     "folio",
		Short:   "Local investment ledger with a version-controllable text format",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&workspaceDir, "workspace", "C", ".", "workspace directory")

	rootCmd.AddCommand(newInitCommand(&workspaceDir))
	rootCmd.AddCommand(newBuyCommand(&workspaceDir))
	rootCmd.AddCommand(newSellCommand(&workspaceDir))
	rootCmd.AddCommand(newDividendCommand(&workspaceDir))
	rootCmd.AddCommand(newFeeCommand(&workspaceDir))
	rootCmd.AddCommand(newTransactionsCommand(&workspaceDir))
	rootCmd.AddCommand(newPositionsCommand(&workspaceDir))
	rootCmd.AddCommand(newExportCommand(&workspaceDir))
	rootCmd.AddCommand(newImportCommand(&workspaceDir))

	return rootCmd
}
