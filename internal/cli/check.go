package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newCheckCmd(opts *globalOptions) *cobra.Command {
	var (
		format string
		resend bool
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run a single check and exit",
		Long: `Fetch the source's last update marker once, compare it with the stored
state and post the latest matching survey if the data changed.

Exit codes:
  0 - nothing new
  1 - error
  2 - a new survey was sent`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, opts, format, resend)
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&resend, "resend", false, "Send the latest survey even if it was sent before")

	return cmd
}

func runCheck(cmd *cobra.Command, opts *globalOptions, flagFormat string, resend bool) error {
	format, err := parseFormat(flagFormat)
	if err != nil {
		return err
	}

	// keep stdout valid JSON when previewing a dry run
	preview := cmd.OutOrStdout()
	if format == FormatJSON {
		preview = cmd.ErrOrStderr()
	}

	w, _, err := newWatcher(cmd, opts, resend, preview)
	if err != nil {
		return err
	}

	res, err := w.Check(cmdContext(cmd))
	if err != nil {
		return fmt.Errorf("checking for new surveys: %w", err)
	}

	if err := WriteCheckResult(cmd.OutOrStdout(), res, format); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if res.Sent {
		return &ExitCodeError{Code: ExitNewSurvey}
	}
	return nil
}

func parseFormat(s string) (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(strings.TrimSpace(s)))
	if format != FormatText && format != FormatJSON {
		return "", fmt.Errorf("invalid format: %s (must be 'text' or 'json')", s)
	}
	return format, nil
}
