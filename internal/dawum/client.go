package dawum

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pfrederiksen/wahlumfragen/internal/survey"
)

const (
	DataURL       = "https://api.dawum.de/"
	LastUpdateURL = "https://api.dawum.de/last_update.txt"
	UserAgent     = "wahlumfragen/1.0 (github.com/pfrederiksen/wahlumfragen)"
	Timeout       = 30 * time.Second

	maxDataSize       = 64 << 20
	maxLastUpdateSize = 1 << 10
)

// Client fetches data from the DAWUM API
type Client struct {
	httpClient    *http.Client
	dataURL       string
	lastUpdateURL string
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL points the client at a different API root, mainly for tests.
// The last update file is expected at <base>/last_update.txt.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		base = strings.TrimRight(base, "/")
		c.dataURL = base + "/"
		c.lastUpdateURL = base + "/last_update.txt"
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// New creates a new DAWUM client
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: Timeout,
		},
		dataURL:       DataURL,
		lastUpdateURL: LastUpdateURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name identifies the source in logs and survey fingerprints
func (c *Client) Name() string {
	return SourceName
}

// LastUpdate returns the trimmed contents of the last update file
func (c *Client) LastUpdate(ctx context.Context) (string, error) {
	body, err := c.get(ctx, c.lastUpdateURL, maxLastUpdateSize)
	if err != nil {
		return "", fmt.Errorf("fetching last update: %w", err)
	}
	return strings.TrimSpace(string(body)), nil
}

// Fetch downloads and decodes the full database document
func (c *Client) Fetch(ctx context.Context) (*Data, error) {
	body, err := c.get(ctx, c.dataURL, maxDataSize)
	if err != nil {
		return nil, fmt.Errorf("fetching data: %w", err)
	}

	var data Data
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("parsing data: %w", err)
	}
	return &data, nil
}

// Surveys fetches the database and resolves all surveys
func (c *Client) Surveys(ctx context.Context) ([]*survey.Survey, error) {
	data, err := c.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return data.ResolveSurveys()
}

func (c *Client) get(ctx context.Context, url string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return body, nil
}
