package notifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/wahlumfragen/internal/survey"
	"golang.org/x/time/rate"
)

// Multi delivers a survey to several notifiers in order.
// Every notifier is attempted; failures are joined into one error.
//
// To the caller a delivery either succeeds on every channel or fails as a
// whole. The watcher records a survey as sent only on success, so a later
// retry repeats the channels that had already delivered it.
type Multi struct {
	notifiers []Notifier
	limiter   *rate.Limiter
}

// NewMulti creates a fan-out notifier that waits at least spacing between deliveries
func NewMulti(spacing time.Duration, notifiers ...Notifier) *Multi {
	limit := rate.Inf
	if spacing > 0 {
		limit = rate.Every(spacing)
	}
	return &Multi{
		notifiers: notifiers,
		limiter:   rate.NewLimiter(limit, 1),
	}
}

// Name lists the wrapped notifiers
func (m *Multi) Name() string {
	names := make([]string, 0, len(m.notifiers))
	for _, n := range m.notifiers {
		names = append(names, n.Name())
	}
	return strings.Join(names, ",")
}

// Len returns the number of wrapped notifiers
func (m *Multi) Len() int {
	return len(m.notifiers)
}

// Notify sends the survey to every notifier
func (m *Multi) Notify(ctx context.Context, s *survey.Survey) error {
	if len(m.notifiers) == 0 {
		return fmt.Errorf("no notifiers configured")
	}

	var errs []error
	for _, n := range m.notifiers {
		if err := m.limiter.Wait(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
			break
		}
		if err := n.Notify(ctx, s); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
		}
	}
	return errors.Join(errs...)
}
