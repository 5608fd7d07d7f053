package commands

import (
	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledgerport/internal/buildinfo"
	"github.com/cleared-dev/ledgerport/internal/config"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:     "ledgerport",
		Short:   "Convert legacy flat-file ledgers into a double-entry model",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.FileName, "path to "+config.FileName)

	rootCmd.AddCommand(
		newInitCommand(),
		newCheckCommand(&configPath),
		newConvertCommand(&configPath),
		newExportCommand(&configPath),
	)

	return rootCmd
}
