package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/helixir/bibliomatch-service/internal/app"
	"github.com/helixir/bibliomatch-service/internal/domain"
	"github.com/helixir/bibliomatch-service/internal/localmatch"
)

type searchOptions struct {
	dataPath        string
	query           localmatch.Query
	topK            int
	noAuthorPenalty bool
	noYearPenalty   bool
}

func newSearchCmd(root *rootOptions) *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Rank the rows of the curated spreadsheet against a partial reference",
		Example: `  # Search by author and title
  bibliomatch search --data refs.xlsx --author "Machado de Assis" --title "Dom Casmurro"

  # Top 3 matches, without the year penalty, as YAML
  bibliomatch search --data refs.xlsx --title casmurro --year 1899 --top-k 3 --no-year-penalty -o yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, root, opts)
		},
	}

	cmd.Flags().StringVar(&opts.dataPath, "data", "", "Path to the xlsx dataset (default: local_matcher.data_path)")
	cmd.Flags().StringVar(&opts.query.Author, "author", "", "Author name")
	cmd.Flags().StringVar(&opts.query.Title, "title", "", "Work title")
	cmd.Flags().StringVar(&opts.query.Year, "year", "", "Publication year")
	cmd.Flags().StringVar(&opts.query.Extra, "extra", "", "Free-text extra information")
	cmd.Flags().IntVar(&opts.topK, "top-k", 0, "Number of matches (default: local_matcher.top_k)")
	cmd.Flags().BoolVar(&opts.noAuthorPenalty, "no-author-penalty", false, "Disable the author mismatch penalty")
	cmd.Flags().BoolVar(&opts.noYearPenalty, "no-year-penalty", false, "Disable the year mismatch penalty")

	return cmd
}

func runSearch(cmd *cobra.Command, root *rootOptions, opts searchOptions) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	logger := root.logger(cmd, cfg)

	q := localmatch.Query{
		Author: strings.TrimSpace(opts.query.Author),
		Title:  strings.TrimSpace(opts.query.Title),
		Year:   strings.TrimSpace(opts.query.Year),
		Extra:  strings.TrimSpace(opts.query.Extra),
	}
	if q.Author == "" && q.Title == "" && q.Year == "" && q.Extra == "" {
		return domain.ErrEmptyQuery
	}
	if opts.topK < 0 {
		return domain.NewValidationError("top-k", "must be at least 1")
	}

	path := opts.dataPath
	if path == "" {
		path = cfg.LocalMatcher.DataPath
	}
	if path == "" {
		return fmt.Errorf("%w: no dataset given; pass --data or set local_matcher.data_path", domain.ErrConfiguration)
	}

	ds, err := localmatch.LoadWorkbook(path)
	if err != nil {
		return err
	}
	matcher := localmatch.NewMatcher(ds)
	logger.Debug().Str("path", path).Int("rows", matcher.Len()).Msg("local dataset loaded")

	searchOpts := app.LocalOptions(cfg.LocalMatcher)
	if opts.topK > 0 {
		searchOpts.TopK = opts.topK
	}
	if opts.noAuthorPenalty {
		searchOpts.Penalties.Author.Enabled = false
	}
	if opts.noYearPenalty {
		searchOpts.Penalties.Year.Enabled = false
	}

	results := matcher.Search(q, searchOpts)
	if len(results) == 0 {
		return fmt.Errorf("%w: no row of %s matches the query", domain.ErrNotFound, path)
	}
	return writeSearch(cmd.OutOrStdout(), root.format, results)
}
