// Package cli provides the dhis2scan command-line interface.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ArnholdInstitute/dhis2ingestion/internal/cli/commands"
	"github.com/ArnholdInstitute/dhis2ingestion/internal/cli/config"
)

var cfgFile string

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dhis2scan",
		Short: "dhis2scan - DHIS2 indicator metadata scraper and validator",
		Long: `dhis2scan pulls indicator definitions out of a DHIS2 metadata registry,
rebuilds each formula as human-readable calculation text, and flags
inconsistencies between formulas, descriptions, and indicator types.

Credentials come from flags, DHIS2_-prefixed environment variables, a
dhis2scan.yaml config file, or a per-country JSON params file pointed at
by DHIS2_PARAMS_FILE.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			level := slog.LevelWarn
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(),
				&slog.HandlerOptions{Level: level})))

			if cfg.Verbose {
				if used := config.GetConfigFileUsed(); used != "" {
					fmt.Fprintf(os.Stderr, "Using config file: %s\n", used)
				}
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./dhis2scan.yaml)")
	rootCmd.PersistentFlags().String("base-url", "", "Base URL of the DHIS2 system, e.g. play.dhis2.org/demo")
	rootCmd.PersistentFlags().String("username", "", "DHIS2 username for basic auth")
	rootCmd.PersistentFlags().String("password", "", "DHIS2 password for basic auth")
	rootCmd.PersistentFlags().String("token", "", "OAuth2 bearer token (overrides basic auth)")
	rootCmd.PersistentFlags().String("country", "", "Country entry to use from the params file")
	rootCmd.PersistentFlags().String("params-file", "", "Per-country credentials file (JSON, also via DHIS2_PARAMS_FILE)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output format (csv|json|table)")
	rootCmd.PersistentFlags().String("state", "", "Path to the scan-history database (disabled when empty)")
	rootCmd.PersistentFlags().Int("workers", config.DefaultWorkers, "Concurrent indicator lookups per group")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"csv", "json", "table"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(commands.NewScanCommand())
	rootCmd.AddCommand(commands.NewGroupsCommand())
	rootCmd.AddCommand(commands.NewHistoryCommand())
	rootCmd.AddCommand(commands.NewVersionCommand(Version, BuildDate, GitCommit))

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
