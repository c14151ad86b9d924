package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	gistFilename = "wahlumfragen-state.json"
	gistTimeout  = 15 * time.Second
)

// gistAPIURL is a variable so tests can point it at an httptest server
var gistAPIURL = "https://api.github.com/gists"

// Gist keeps watcher state in a file of a private GitHub Gist, for scheduled
// runs (for example CI cron jobs) that have no persistent disk.
type Gist struct {
	gistID      string
	githubToken string
	httpClient  *http.Client
	mu          sync.Mutex
}

// NewGist creates a Gist-backed state store
func NewGist(gistID, githubToken string) (*Gist, error) {
	if gistID == "" {
		return nil, fmt.Errorf("gist ID is required")
	}
	if githubToken == "" {
		return nil, fmt.Errorf("GitHub token is required")
	}

	return &Gist{
		gistID:      gistID,
		githubToken: githubToken,
		httpClient: &http.Client{
			Timeout: gistTimeout,
		},
	}, nil
}

// Load retrieves state from the Gist. A missing or empty file yields an empty state.
func (g *Gist) Load() (*State, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	req, err := g.newRequest(http.MethodGet, nil)
	if err != nil {
		return nil, err
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching gist: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Response bodies may echo request details; keep them out of errors.
		return nil, fmt.Errorf("GitHub API error (status %d)", resp.StatusCode)
	}

	var gistResp struct {
		Files map[string]struct {
			Content string `json:"content"`
		} `json:"files"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&gistResp); err != nil {
		return nil, fmt.Errorf("decoding gist response: %w", err)
	}

	file, exists := gistResp.Files[gistFilename]
	if !exists || strings.TrimSpace(file.Content) == "" {
		return &State{}, nil
	}

	var state State
	if err := json.Unmarshal([]byte(file.Content), &state); err != nil {
		return nil, fmt.Errorf("parsing state: %w", err)
	}
	return &state, nil
}

// Save writes state to the Gist file
func (g *Gist) Save(state *State) error {
	if state == nil {
		return fmt.Errorf("state is nil")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	state.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	content, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}

	payload, err := json.Marshal(map[string]interface{}{
		"files": map[string]interface{}{
			gistFilename: map[string]string{
				"content": string(content),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	req, err := g.newRequest(http.MethodPatch, payload)
	if err != nil {
		return err
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("updating gist: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GitHub API error (status %d)", resp.StatusCode)
	}
	return nil
}

func (g *Gist) newRequest(method string, body []byte) (*http.Request, error) {
	url := fmt.Sprintf("%s/%s", gistAPIURL, g.gistID)

	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("token %s", g.githubToken))
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}
