package notifier

import (
	"context"
	"fmt"

	"github.com/pfrederiksen/wahlumfragen/internal/survey"
	"github.com/pfrederiksen/wahlumfragen/internal/telegram"
)

type messageSender interface {
	SendMessage(ctx context.Context, text string) error
}

// TelegramNotifier sends surveys to a Telegram chat
type TelegramNotifier struct {
	client messageSender
}

// NewTelegramNotifier creates a notifier for the given bot and chat
func NewTelegramNotifier(botToken, chatID string) (*TelegramNotifier, error) {
	client, err := telegram.NewClient(botToken, chatID)
	if err != nil {
		return nil, err
	}
	return &TelegramNotifier{client: client}, nil
}

// Name returns "telegram"
func (n *TelegramNotifier) Name() string {
	return "telegram"
}

// Notify sends the survey as an HTML message
func (n *TelegramNotifier) Notify(ctx context.Context, s *survey.Survey) error {
	if s == nil {
		return fmt.Errorf("survey is required")
	}
	if err := n.client.SendMessage(ctx, telegram.FormatSurvey(s)); err != nil {
		return fmt.Errorf("sending survey %s to telegram: %w", s.ID, err)
	}
	return nil
}
