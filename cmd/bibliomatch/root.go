package main

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/helixir/bibliomatch-service/internal/config"
	"github.com/helixir/bibliomatch-service/internal/domain"
	"github.com/helixir/bibliomatch-service/internal/observability"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	format     string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "bibliomatch",
		Short: "Match partial references against a curated spreadsheet and public catalogs",
		Long: `bibliomatch finds bibliographic records for partial references.

"search" ranks the rows of a curated xlsx dataset. "reconcile" queries Google
Books, Open Library and Crossref, optionally fills gaps through a language
model, and prints formatted citations with a confidence score.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			return validateFormat(opts.format)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to a config file (default: ./config.yaml when present)")
	cmd.PersistentFlags().StringVarP(&opts.format, "format", "o", formatJSON, "Output format: json, yaml or human")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log pipeline progress to stderr")

	cmd.AddCommand(newSearchCmd(opts))
	cmd.AddCommand(newReconcileCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// loadConfig reads the configuration and tags failures as configuration errors.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFile(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}
	return cfg, nil
}

// logger writes to the command's error stream; stdout carries only results.
func (o *rootOptions) logger(cmd *cobra.Command, cfg *config.Config) zerolog.Logger {
	lc := observability.DefaultLoggingConfig()
	lc.Level = "warn"
	if o.verbose {
		lc.Level = "debug"
	}
	lc.Format = "console"
	lc.TimeFormat = cfg.Logging.TimeFormat
	return observability.NewLoggerTo(lc, cmd.ErrOrStderr()).With().Str("component", "cli").Logger()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the bibliomatch version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "bibliomatch %s\n", version)
			return err
		},
	}
}
