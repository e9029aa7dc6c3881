package main

import (
	"github.com/spf13/cobra"

	"github.com/helixir/bibliomatch-service/internal/app"
	"github.com/helixir/bibliomatch-service/internal/config"
	"github.com/helixir/bibliomatch-service/internal/domain"
)

type reconcileOptions struct {
	query      string
	criteria   domain.QueryCriteria
	maxResults int
	maxEnrich  int
	noEnrich   bool
}

func newReconcileCmd(root *rootOptions) *cobra.Command {
	var opts reconcileOptions

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Build citations for a partial reference from the public catalogs",
		Example: `  # Structured criteria
  bibliomatch reconcile --author "Machado de Assis" --title "Dom Casmurro"

  # Free-text query, three citations, human-readable
  bibliomatch reconcile --query "assis, dom casmurro" --max-results 3 -o human`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcile(cmd, root, opts)
		},
	}

	cmd.Flags().StringVar(&opts.query, "query", "", "Free-text query (default: the criteria joined)")
	cmd.Flags().StringVar(&opts.criteria.Author, "author", "", "Author name")
	cmd.Flags().StringVar(&opts.criteria.Title, "title", "", "Work title")
	cmd.Flags().StringVar(&opts.criteria.Year, "year", "", "Publication year")
	cmd.Flags().StringVar(&opts.criteria.Journal, "journal", "", "Journal name; selects the article path")
	cmd.Flags().StringVar(&opts.criteria.Publisher, "publisher", "", "Publisher")
	cmd.Flags().StringVar(&opts.criteria.Identifier, "identifier", "", "ISBN or DOI")
	cmd.Flags().StringVar(&opts.criteria.Extra, "extra", "", "Free-text extra information")
	cmd.Flags().IntVar(&opts.maxResults, "max-results", 0, "Number of citations (default: reconcile.max_results)")
	cmd.Flags().IntVar(&opts.maxEnrich, "max-enrich", -1, "Records sent to the oracle (default: reconcile.max_enrich)")
	cmd.Flags().BoolVar(&opts.noEnrich, "no-enrich", false, "Skip language-model enrichment")

	return cmd
}

func runReconcile(cmd *cobra.Command, root *rootOptions, opts reconcileOptions) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	applyReconcileFlags(cfg, opts)
	logger := root.logger(cmd, cfg)

	components, err := app.Build(cmd.Context(), cfg, logger, nil)
	if err != nil {
		return err
	}
	defer components.Close()

	res, err := components.Reconciler.Reconcile(cmd.Context(), opts.query, opts.criteria)
	if err != nil {
		return err
	}
	return writeReconciliation(cmd.OutOrStdout(), root.format, res)
}

// applyReconcileFlags overrides the configured limits. Out-of-range values
// are clamped by the pipeline.
func applyReconcileFlags(cfg *config.Config, opts reconcileOptions) {
	if opts.maxResults > 0 {
		cfg.Reconcile.MaxResults = opts.maxResults
	}
	if opts.maxEnrich >= 0 {
		cfg.Reconcile.MaxEnrich = opts.maxEnrich
	}
	if opts.noEnrich {
		cfg.Reconcile.MaxEnrich = 0
	}
}
