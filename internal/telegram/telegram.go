package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	timeout = 10 * time.Second

	// maxMessageLength is the Bot API limit for message text
	maxMessageLength = 4096
)

// apiBaseURL is a variable so tests can point it at an httptest server
var apiBaseURL = "https://api.telegram.org/bot"

// Client represents a Telegram Bot API client
type Client struct {
	botToken   string
	chatID     string
	httpClient *http.Client
}

// NewClient creates a new Telegram client
func NewClient(botToken, chatID string) (*Client, error) {
	if botToken == "" {
		return nil, fmt.Errorf("bot token is required")
	}
	if chatID == "" {
		return nil, fmt.Errorf("chat ID is required")
	}

	return &Client{
		botToken: botToken,
		chatID:   chatID,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// SendMessage sends an HTML message to the configured chat
func (c *Client) SendMessage(ctx context.Context, text string) error {
	if text == "" {
		return fmt.Errorf("message text is required")
	}
	if len([]rune(text)) > maxMessageLength {
		return fmt.Errorf("message text exceeds %d characters", maxMessageLength)
	}

	url := fmt.Sprintf("%s%s/sendMessage", apiBaseURL, c.botToken)

	payload := map[string]interface{}{
		"chat_id":                  c.chatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	if !result.OK {
		return fmt.Errorf("telegram API error: %s", result.Description)
	}

	return nil
}
