package notifier

import (
	"context"
	"fmt"

	"github.com/pfrederiksen/wahlumfragen/internal/discord"
	"github.com/pfrederiksen/wahlumfragen/internal/survey"
)

// webhookSender is satisfied by *discord.Client
type webhookSender interface {
	Send(ctx context.Context, msg *discord.WebhookMessage) error
}

// DiscordNotifier posts surveys to a Discord webhook
type DiscordNotifier struct {
	client webhookSender
	opts   discord.MessageOptions
}

// NewDiscordNotifier creates a notifier for the given webhook URL
func NewDiscordNotifier(webhookURL string, opts discord.MessageOptions) (*DiscordNotifier, error) {
	client, err := discord.NewClient(webhookURL)
	if err != nil {
		return nil, err
	}
	return &DiscordNotifier{client: client, opts: opts}, nil
}

// Name returns "discord"
func (n *DiscordNotifier) Name() string {
	return "discord"
}

// Notify renders the survey as an embed and posts it
func (n *DiscordNotifier) Notify(ctx context.Context, s *survey.Survey) error {
	if s == nil {
		return fmt.Errorf("survey is required")
	}
	if err := n.client.Send(ctx, discord.FormatSurvey(s, n.opts)); err != nil {
		return fmt.Errorf("posting survey %s to discord: %w", s.ID, err)
	}
	return nil
}
