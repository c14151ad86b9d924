package notifier

import (
	"context"

	"github.com/pfrederiksen/wahlumfragen/internal/survey"
)

// Notifier defines the interface for posting survey notifications
type Notifier interface {
	// Name identifies the channel in logs and errors
	Name() string
	// Notify posts a notification for the given survey
	Notify(ctx context.Context, s *survey.Survey) error
}
