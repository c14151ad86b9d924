// Package config provides YAML configuration for the survey watcher.
//
// Configuration is layered: built-in defaults, then an optional YAML file,
// then environment variables for secrets, then command-line flags (applied by
// the cli package). String values holding secrets may reference environment
// variables as ${VAR} or ${VAR:-default}.
//
// Example configuration:
//
//	source: dawum
//	poll_interval: 10h
//	data_dir: ~/.local/share/wahlumfragen
//	status_addr: ":8080"
//
//	query:
//	  released_after: 2025-01-01
//	  parliaments: [Bundestagswahl, Bundestag]
//
//	discord:
//	  webhook_url: ${DISCORD_WEBHOOK_URL}
//	  username: Wahlumfragen 2025 🇩🇪
//
//	telegram:
//	  bot_token: ${TELEGRAM_BOT_TOKEN}
//	  chat_id: "-100123456"
//
//	state_gist:
//	  id: ${STATE_GIST_ID}
//	  token: ${STATE_GITHUB_TOKEN}
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/pfrederiksen/wahlumfragen/internal/discord"
	"github.com/pfrederiksen/wahlumfragen/internal/notifier"
	"github.com/pfrederiksen/wahlumfragen/internal/survey"
	"gopkg.in/yaml.v3"
)

const (
	SourceDawum     = "dawum"
	SourceWahlrecht = "wahlrecht"

	DefaultPollInterval  = 10 * time.Hour
	DefaultNotifySpacing = 2 * time.Second
	DefaultDataDir       = "~/.local/share/wahlumfragen"

	// minPollInterval keeps the watcher from hammering the data provider
	minPollInterval = time.Minute
)

// ErrNoNotifier is returned when no delivery channel is configured outside dry-run mode
var ErrNoNotifier = errors.New("no notifier configured: set discord.webhook_url, telegram, or twitter credentials")

// Config is the root configuration structure
type Config struct {
	// Source selects the data provider: "dawum" or "wahlrecht".
	Source string `yaml:"source"`

	// PollInterval is the time between checks. Defaults to 10h.
	PollInterval Duration `yaml:"poll_interval"`

	// NotifySpacing is the minimum gap between deliveries to different channels.
	NotifySpacing Duration `yaml:"notify_spacing"`

	// SourceURL overrides the provider endpoint: the API root for dawum or
	// the overview page for wahlrecht.
	SourceURL string `yaml:"source_url"`

	// DataDir holds state.json. Empty keeps state in memory only.
	DataDir string `yaml:"data_dir"`

	// StatusAddr enables the status HTTP server when set, e.g. ":8080".
	StatusAddr string `yaml:"status_addr"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// ResendUnchanged posts the latest survey even if it was already delivered.
	ResendUnchanged bool `yaml:"resend_unchanged"`

	// StateGist keeps state in a GitHub Gist instead of data_dir when set.
	StateGist GistConfig `yaml:"state_gist"`

	Query    QueryConfig                 `yaml:"query"`
	Discord  DiscordConfig               `yaml:"discord"`
	Telegram TelegramConfig              `yaml:"telegram"`
	Twitter  notifier.TwitterCredentials `yaml:"twitter"`
}

// QueryConfig selects which surveys are announced
type QueryConfig struct {
	// ReleasedAfter is a date (YYYY-MM-DD); only newer surveys qualify.
	ReleasedAfter string `yaml:"released_after"`
	// Parliaments lists accepted parliament shortcuts, names or elections.
	Parliaments []string `yaml:"parliaments"`
}

// DiscordConfig configures the webhook and bot identity
type DiscordConfig struct {
	WebhookURL             string `yaml:"webhook_url"`
	discord.MessageOptions `yaml:",inline"`
}

// GistConfig identifies the GitHub Gist holding watcher state
type GistConfig struct {
	ID    string `yaml:"id"`
	Token string `yaml:"token"`
}

// Enabled reports whether a Gist is configured
func (g GistConfig) Enabled() bool {
	return g.ID != "" || g.Token != ""
}

// TelegramConfig configures the Telegram bot
type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration as a string like "10h0m0s".
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Source:        SourceDawum,
		PollInterval:  Duration(DefaultPollInterval),
		NotifySpacing: Duration(DefaultNotifySpacing),
		DataDir:       DefaultDataDir,
		LogLevel:      "info",
		Query: QueryConfig{
			ReleasedAfter: survey.DefaultReleasedAfter.Format("2006-01-02"),
			Parliaments:   append([]string(nil), survey.DefaultParliaments...),
		},
		Discord: DiscordConfig{
			MessageOptions: discord.DefaultMessageOptions(),
		},
	}
}

// Load reads and parses a YAML configuration file on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data on top of the defaults and expands
// environment references in secret fields.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.expand(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// expand replaces ${VAR} references in fields that typically carry secrets
func (c *Config) expand() error {
	fields := []*string{
		&c.Discord.WebhookURL,
		&c.Telegram.BotToken,
		&c.Telegram.ChatID,
		&c.Twitter.APIKey,
		&c.Twitter.APISecret,
		&c.Twitter.AccessToken,
		&c.Twitter.AccessSecret,
		&c.DataDir,
		&c.StateGist.ID,
		&c.StateGist.Token,
	}
	for _, f := range fields {
		expanded, err := expandEnvVars(*f)
		if err != nil {
			return err
		}
		*f = expanded
	}
	return nil
}

// ApplyEnv fills empty secret fields from the conventional environment variables:
// DISCORD_WEBHOOK_URL, TELEGRAM_BOT_TOKEN, TELEGRAM_CHAT_ID, STATE_GIST_ID,
// STATE_GITHUB_TOKEN and TWITTER_*.
func (c *Config) ApplyEnv() {
	setIfEmpty(&c.Discord.WebhookURL, os.Getenv("DISCORD_WEBHOOK_URL"))
	setIfEmpty(&c.Telegram.BotToken, os.Getenv("TELEGRAM_BOT_TOKEN"))
	setIfEmpty(&c.Telegram.ChatID, os.Getenv("TELEGRAM_CHAT_ID"))
	setIfEmpty(&c.StateGist.ID, os.Getenv("STATE_GIST_ID"))
	setIfEmpty(&c.StateGist.Token, os.Getenv("STATE_GITHUB_TOKEN"))

	env := notifier.TwitterCredentialsFromEnv()
	setIfEmpty(&c.Twitter.APIKey, env.APIKey)
	setIfEmpty(&c.Twitter.APISecret, env.APISecret)
	setIfEmpty(&c.Twitter.AccessToken, env.AccessToken)
	setIfEmpty(&c.Twitter.AccessSecret, env.AccessSecret)
}

func setIfEmpty(dst *string, value string) {
	if *dst == "" && value != "" {
		*dst = value
	}
}

// SurveyQuery converts the query section into a survey.Query
func (c *Config) SurveyQuery() (survey.Query, error) {
	q := survey.Query{Parliaments: append([]string(nil), c.Query.Parliaments...)}
	if strings.TrimSpace(c.Query.ReleasedAfter) == "" {
		return q, nil
	}
	after, err := survey.ParseDate(strings.TrimSpace(c.Query.ReleasedAfter))
	if err != nil {
		return survey.Query{}, fmt.Errorf("query.released_after must be YYYY-MM-DD, got %q", c.Query.ReleasedAfter)
	}
	q.ReleasedAfter = after
	return q, nil
}

// HasNotifier reports whether at least one delivery channel is configured
func (c *Config) HasNotifier() bool {
	return c.Discord.WebhookURL != "" ||
		(c.Telegram.BotToken != "" && c.Telegram.ChatID != "") ||
		c.Twitter.Complete()
}

// Validate checks the configuration. requireNotifier is false for dry runs
// and read-only commands.
func (c *Config) Validate(requireNotifier bool) error {
	switch c.Source {
	case SourceDawum, SourceWahlrecht:
	default:
		return fmt.Errorf("unknown source %q (expected %q or %q)", c.Source, SourceDawum, SourceWahlrecht)
	}

	if c.PollInterval.Duration() < minPollInterval {
		return fmt.Errorf("poll_interval must be at least %s, got %s", minPollInterval, c.PollInterval.Duration())
	}
	if c.SourceURL != "" {
		if err := checkAbsoluteURL(c.SourceURL); err != nil {
			return fmt.Errorf("source_url %w", err)
		}
	}
	if c.NotifySpacing.Duration() < 0 {
		return fmt.Errorf("notify_spacing must not be negative")
	}

	if c.LogLevel != "" {
		switch strings.ToLower(c.LogLevel) {
		case "debug", "info", "warn", "error":
		default:
			return fmt.Errorf("unknown log_level %q", c.LogLevel)
		}
	}

	if _, err := c.SurveyQuery(); err != nil {
		return err
	}

	if c.Discord.WebhookURL != "" {
		if err := checkAbsoluteURL(c.Discord.WebhookURL); err != nil {
			return fmt.Errorf("discord.webhook_url %w", err)
		}
	}

	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram requires both bot_token and chat_id")
	}
	if c.StateGist.Enabled() && (c.StateGist.ID == "" || c.StateGist.Token == "") {
		return fmt.Errorf("state_gist requires both id and token")
	}
	if c.Twitter.Any() && !c.Twitter.Complete() {
		return fmt.Errorf("twitter requires api_key, api_secret, access_token and access_secret")
	}

	if requireNotifier && !c.HasNotifier() {
		return ErrNoNotifier
	}
	return nil
}

func checkAbsoluteURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("must be an absolute http(s) URL")
	}
	return nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		varName := submatches[1]
		hasDefault := submatches[2] != ""

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return submatches[3]
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}
