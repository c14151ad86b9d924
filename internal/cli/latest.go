package cli

import (
	"fmt"
	"time"

	"github.com/pfrederiksen/wahlumfragen/internal/config"
	"github.com/pfrederiksen/wahlumfragen/internal/survey"
	"github.com/spf13/cobra"
)

func newLatestCmd(opts *globalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "latest",
		Short: "Print the latest matching survey without sending it",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseFormat(format)
			if err != nil {
				return err
			}

			cfg, surveys, err := fetchSurveys(cmd, opts)
			if err != nil {
				return err
			}
			query, err := cfg.SurveyQuery()
			if err != nil {
				return err
			}

			return WriteSurvey(cmd.OutOrStdout(), query.Latest(surveys), f, opts.verbose)
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")

	return cmd
}

func newSurveysCmd(opts *globalOptions) *cobra.Command {
	var (
		format string
		order  string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "surveys",
		Short: "List surveys matching the configured query",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseFormat(format)
			if err != nil {
				return err
			}
			sortOrder, err := parseSortOrder(order)
			if err != nil {
				return err
			}
			if limit < 0 {
				return fmt.Errorf("--limit must not be negative")
			}

			cfg, surveys, err := fetchSurveys(cmd, opts)
			if err != nil {
				return err
			}
			query, err := cfg.SurveyQuery()
			if err != nil {
				return err
			}

			selected := query.Select(surveys)
			if limit > 0 && len(selected) > limit {
				selected = selected[:limit]
			}
			sortSurveys(selected, sortOrder)

			return WriteSurveys(cmd.OutOrStdout(), &SurveyList{
				CheckedAt: time.Now().UTC(),
				Source:    cfg.Source,
				Count:     len(selected),
				Surveys:   selected,
			}, f, opts.verbose)
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")
	cmd.Flags().StringVar(&order, "sort", string(SortByDate), "Sort by: date, institute or participants")
	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of surveys to list (0 for all)")

	return cmd
}

// fetchSurveys loads the configuration and all surveys from the configured
// source. No notifier is required.
func fetchSurveys(cmd *cobra.Command, opts *globalOptions) (*config.Config, []*survey.Survey, error) {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(false); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	setupLogger(cmd.ErrOrStderr(), cfg)

	src, err := newSource(cfg)
	if err != nil {
		return nil, nil, err
	}
	surveys, err := src.Surveys(cmdContext(cmd))
	if err != nil {
		return nil, nil, fmt.Errorf("fetching surveys from %s: %w", src.Name(), err)
	}
	return cfg, surveys, nil
}
