package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/pfrederiksen/wahlumfragen/internal/discord"
	"github.com/pfrederiksen/wahlumfragen/internal/survey"
)

// DryRunNotifier prints the webhook payload that would be posted
type DryRunNotifier struct {
	w    io.Writer
	opts discord.MessageOptions
}

// NewDryRunNotifier creates a new dry-run notifier writing to w
func NewDryRunNotifier(w io.Writer, opts discord.MessageOptions) *DryRunNotifier {
	return &DryRunNotifier{w: w, opts: opts}
}

// Name returns "dry-run"
func (n *DryRunNotifier) Name() string {
	return "dry-run"
}

// Notify prints the rendered message
func (n *DryRunNotifier) Notify(_ context.Context, s *survey.Survey) error {
	if s == nil {
		return fmt.Errorf("survey is required")
	}

	data, err := json.MarshalIndent(discord.FormatSurvey(s, n.opts), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}

	fmt.Fprintf(n.w, "--- Survey %s (%s) ---\n", s.ID, s.Source)
	fmt.Fprintln(n.w, string(data))
	fmt.Fprintln(n.w)
	return nil
}
