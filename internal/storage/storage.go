package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const stateFile = "state.json"

// State is everything the watcher remembers between checks
type State struct {
	LastUpdate      string    `json:"last_update"`
	LastFingerprint string    `json:"last_fingerprint,omitempty"`
	LastSurveyID    string    `json:"last_survey_id,omitempty"`
	LastSentAt      time.Time `json:"last_sent_at,omitempty"`
	UpdatedAt       string    `json:"updated_at,omitempty"` // RFC3339 timestamp
}

// Storage handles persistence of watcher state on disk
type Storage struct {
	dataDir string
	mu      sync.Mutex
}

// New creates a new Storage instance
func New(dataDir string) (*Storage, error) {
	// Expand ~ to home directory
	if strings.HasPrefix(dataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, dataDir[2:])
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Storage{
		dataDir: dataDir,
	}, nil
}

// Path returns the location of the state file
func (s *Storage) Path() string {
	return filepath.Join(s.dataDir, stateFile)
}

// Load reads state from disk. A missing file yields an empty state.
func (s *Storage) Load() (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return &State{}, nil
		}
		return nil, fmt.Errorf("reading state: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parsing state: %w", err)
	}

	return &state, nil
}

// Save writes state to disk via a temp file and rename
func (s *Storage) Save(state *State) error {
	if state == nil {
		return fmt.Errorf("state is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	tmp := s.Path() + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing state: %w", err)
	}
	if err := os.Rename(tmp, s.Path()); err != nil {
		return fmt.Errorf("replacing state: %w", err)
	}

	return nil
}

// Memory keeps state in process memory only
type Memory struct {
	mu    sync.Mutex
	state State
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{}
}

// Load returns a copy of the current state
func (m *Memory) Load() (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state := m.state
	return &state, nil
}

// Save replaces the current state with a copy of state
func (m *Memory) Save(state *State) error {
	if state == nil {
		return fmt.Errorf("state is nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	state.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	m.state = *state
	return nil
}
