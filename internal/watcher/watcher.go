// Package watcher implements the fetch-compare-notify loop.
//
// On every check the watcher asks its Source for the provider's "last update"
// marker. When the marker differs from the stored one, the newest survey that
// matches the configured query is handed to a notifier. The marker is recorded
// before delivery is attempted, so a survey that fails to deliver is not retried
// until the provider publishes again.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pfrederiksen/wahlumfragen/internal/logger"
	"github.com/pfrederiksen/wahlumfragen/internal/notifier"
	"github.com/pfrederiksen/wahlumfragen/internal/storage"
	"github.com/pfrederiksen/wahlumfragen/internal/survey"
)

// Source is a poll-data provider
type Source interface {
	Name() string
	LastUpdate(ctx context.Context) (string, error)
	Surveys(ctx context.Context) ([]*survey.Survey, error)
}

// Store persists watcher state between checks
type Store interface {
	Load() (*storage.State, error)
	Save(state *storage.State) error
}

// Options tunes a Watcher. Zero values fall back to defaults.
type Options struct {
	Interval        time.Duration
	ResendUnchanged bool
	Logger          *logger.Logger
	Metrics         *logger.Metrics
}

// Result describes the outcome of a single check
type Result struct {
	CheckedAt  time.Time      `json:"checked_at"`
	LastUpdate string         `json:"last_update"`
	Changed    bool           `json:"changed"`
	Survey     *survey.Survey `json:"survey,omitempty"`
	Duplicate  bool           `json:"duplicate,omitempty"`
	Sent       bool           `json:"sent"`
}

// Status is a point-in-time view of the watcher for the status server
type Status struct {
	RunID      string        `json:"run_id"`
	Source     string        `json:"source"`
	Interval   string        `json:"interval"`
	StartedAt  time.Time     `json:"started_at"`
	Checks     int64         `json:"checks"`
	LastResult *Result       `json:"last_result,omitempty"`
	LastError  string        `json:"last_error,omitempty"`
	State      storage.State `json:"state"`
}

// Watcher polls a Source and notifies about new surveys
type Watcher struct {
	source   Source
	query    survey.Query
	notifier notifier.Notifier
	store    Store

	interval time.Duration
	resend   bool
	runID    string
	log      *logger.Logger
	metrics  *logger.Metrics
	now      func() time.Time

	mu         sync.Mutex
	startedAt  time.Time
	checks     int64
	lastResult *Result
	lastErr    error
	state      storage.State
}

// DefaultInterval matches the cadence DAWUM publishes at
const DefaultInterval = 10 * time.Hour

// New creates a Watcher. Each Watcher gets a fresh run ID that is attached to
// every log line it writes.
func New(source Source, query survey.Query, n notifier.Notifier, store Store, opts Options) *Watcher {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = logger.DefaultMetrics()
	}
	if store == nil {
		store = storage.NewMemory()
	}

	runID := uuid.NewString()
	return &Watcher{
		source:   source,
		query:    query,
		notifier: n,
		store:    store,
		interval: opts.Interval,
		resend:   opts.ResendUnchanged,
		runID:    runID,
		log: opts.Logger.With(logger.Fields{
			"run_id": runID,
			"source": source.Name(),
		}),
		metrics: opts.Metrics,
		now:     time.Now,
	}
}

// RunID identifies this watcher in logs and status output
func (w *Watcher) RunID() string {
	return w.runID
}

// Check runs one fetch-compare-notify iteration.
//
// The returned Result is non-nil whenever the last-update marker was fetched,
// even if a later step failed.
func (w *Watcher) Check(ctx context.Context) (res *Result, err error) {
	start := w.now()
	w.metrics.IncrCounter("checks.total")

	// persisted tracks what the store holds so Status never reports unsaved changes
	var persisted *storage.State
	snapshot := func(st *storage.State) {
		cp := *st
		persisted = &cp
	}

	defer func() {
		w.metrics.RecordTiming("check.duration", w.now().Sub(start))
		w.metrics.SetGauge("last_check.unix", float64(start.Unix()))
		if err != nil {
			w.metrics.IncrCounter("checks.errors")
		}
		w.record(res, persisted, err)
	}()

	state, err := w.store.Load()
	if err != nil {
		return nil, fmt.Errorf("loading state: %w", err)
	}
	snapshot(state)

	lastUpdate, err := w.source.LastUpdate(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching last update from %s: %w", w.source.Name(), err)
	}
	lastUpdate = strings.TrimSpace(lastUpdate)

	res = &Result{CheckedAt: start, LastUpdate: lastUpdate}

	if lastUpdate == state.LastUpdate {
		w.log.Debug("no new data", logger.Fields{"last_update": lastUpdate})
		return res, nil
	}

	res.Changed = true
	w.metrics.IncrCounter("checks.changed")
	w.log.Info("new data available", logger.Fields{
		"last_update": lastUpdate,
		"previous":    state.LastUpdate,
	})

	state.LastUpdate = lastUpdate
	if err := w.store.Save(state); err != nil {
		return res, fmt.Errorf("saving state: %w", err)
	}
	snapshot(state)

	surveys, err := w.source.Surveys(ctx)
	if err != nil {
		return res, fmt.Errorf("fetching surveys from %s: %w", w.source.Name(), err)
	}

	latest := w.query.Latest(surveys)
	if latest == nil {
		w.log.Warn("no survey matches the query", logger.Fields{"surveys": len(surveys)})
		return res, nil
	}
	res.Survey = latest
	w.metrics.SetGauge("survey.parties", float64(len(latest.Results)))

	fingerprint := survey.Fingerprint(latest)
	if fingerprint == state.LastFingerprint && !w.resend {
		res.Duplicate = true
		w.log.Info("latest survey already sent", logger.Fields{"survey_id": latest.ID})
		return res, nil
	}

	if w.notifier == nil {
		return res, errors.New("no notifier configured")
	}
	if err := w.notifier.Notify(ctx, latest); err != nil {
		return res, fmt.Errorf("notifying %s: %w", w.notifier.Name(), err)
	}

	res.Sent = true
	w.metrics.IncrCounter("notifications.sent")
	w.log.Info("survey sent", logger.Fields{
		"survey_id": latest.ID,
		"institute": latest.Institute,
		"release":   latest.Release.Format("2006-01-02"),
		"notifier":  w.notifier.Name(),
	})

	state.LastFingerprint = fingerprint
	state.LastSurveyID = latest.ID
	state.LastSentAt = w.now().UTC()
	if err := w.store.Save(state); err != nil {
		return res, fmt.Errorf("saving state: %w", err)
	}
	snapshot(state)
	return res, nil
}

// Run checks immediately and then once per interval until ctx is cancelled.
// Check failures are logged and never stop the loop.
func (w *Watcher) Run(ctx context.Context) error {
	w.mu.Lock()
	w.startedAt = w.now()
	w.mu.Unlock()

	w.log.Info("watcher started", logger.Fields{"interval": w.interval.String()})

	w.runCheck(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("watcher stopped", nil)
			return nil
		case <-ticker.C:
			w.runCheck(ctx)
		}
	}
}

func (w *Watcher) runCheck(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			w.metrics.IncrCounter("checks.errors")
			w.log.Error("check panicked", logger.Fields{"stack": string(debug.Stack())}, fmt.Errorf("panic: %v", r))
		}
	}()

	if _, err := w.Check(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		w.log.Error("check failed", nil, err)
	}
}

// record stores the outcome of a check. state is the last state Check loaded
// or saved, nil when loading failed.
func (w *Watcher) record(res *Result, state *storage.State, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.checks++
	if res != nil {
		w.lastResult = res
	}
	w.lastErr = err

	if state != nil {
		w.state = *state
	}
}

// Status returns a snapshot for reporting
func (w *Watcher) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()

	st := Status{
		RunID:      w.runID,
		Source:     w.source.Name(),
		Interval:   w.interval.String(),
		StartedAt:  w.startedAt,
		Checks:     w.checks,
		LastResult: w.lastResult,
		State:      w.state,
	}
	if w.lastErr != nil {
		st.LastError = w.lastErr.Error()
	}
	return st
}
