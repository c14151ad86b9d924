package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pfrederiksen/wahlumfragen/internal/survey"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Source != SourceDawum {
		t.Errorf("Source = %q, want %q", cfg.Source, SourceDawum)
	}
	if cfg.PollInterval.Duration() != 10*time.Hour {
		t.Errorf("PollInterval = %v, want 10h", cfg.PollInterval.Duration())
	}
	if cfg.Discord.Username == "" {
		t.Error("Discord.Username should default to the bot name")
	}
	if cfg.DataDir != DefaultDataDir {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, DefaultDataDir)
	}
	if cfg.Query.ReleasedAfter != "2025-01-01" {
		t.Errorf("Query.ReleasedAfter = %q, want 2025-01-01", cfg.Query.ReleasedAfter)
	}

	cfg.Query.Parliaments[0] = "changed"
	if survey.DefaultParliaments[0] == "changed" {
		t.Error("Default() shares the parliaments slice with the survey package")
	}
}

func TestParse(t *testing.T) {
	t.Setenv("TEST_WEBHOOK", "https://discord.example/api/webhooks/1/abc")

	data := []byte(`
source: wahlrecht
poll_interval: 30m
notify_spacing: 5s
status_addr: ":9090"
query:
  released_after: 2025-02-01
  parliaments: [Bundestag]
discord:
  webhook_url: ${TEST_WEBHOOK}
  username: Umfragebot
telegram:
  bot_token: ${MISSING_TOKEN:-fallback}
  chat_id: "42"
`)

	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Source != SourceWahlrecht {
		t.Errorf("Source = %q", cfg.Source)
	}
	if cfg.PollInterval.Duration() != 30*time.Minute {
		t.Errorf("PollInterval = %v, want 30m", cfg.PollInterval.Duration())
	}
	if cfg.NotifySpacing.Duration() != 5*time.Second {
		t.Errorf("NotifySpacing = %v, want 5s", cfg.NotifySpacing.Duration())
	}
	if cfg.Discord.WebhookURL != "https://discord.example/api/webhooks/1/abc" {
		t.Errorf("WebhookURL = %q, env reference not expanded", cfg.Discord.WebhookURL)
	}
	if cfg.Discord.Username != "Umfragebot" {
		t.Errorf("Username = %q, want Umfragebot", cfg.Discord.Username)
	}
	if cfg.Discord.AvatarURL == "" || cfg.Discord.Color == 0 {
		t.Error("message defaults were lost when the discord section was set")
	}
	if cfg.Discord.Footer != "" {
		t.Errorf("Footer = %q, want empty so messages credit their source", cfg.Discord.Footer)
	}
	if cfg.Telegram.BotToken != "fallback" {
		t.Errorf("BotToken = %q, want fallback", cfg.Telegram.BotToken)
	}

	q, err := cfg.SurveyQuery()
	if err != nil {
		t.Fatalf("SurveyQuery() error = %v", err)
	}
	if len(q.Parliaments) != 1 || q.Parliaments[0] != "Bundestag" {
		t.Errorf("Parliaments = %v", q.Parliaments)
	}
	if got := q.ReleasedAfter.Format("2006-01-02"); got != "2025-02-01" {
		t.Errorf("ReleasedAfter = %s, want 2025-02-01", got)
	}

	if err := cfg.Validate(true); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"bad yaml", "source: [", "failed to parse YAML"},
		{"bad duration", "poll_interval: often", "invalid duration"},
		{"missing env", "discord:\n  webhook_url: ${WAHLUMFRAGEN_UNSET_VAR}", "WAHLUMFRAGEN_UNSET_VAR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if err == nil {
				t.Fatal("Parse() expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("log_level: debug\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.Source != SourceDawum {
		t.Errorf("Source = %q, defaults not applied", cfg.Source)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() of missing file expected error")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("DISCORD_WEBHOOK_URL", "https://discord.example/hook")
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("TELEGRAM_CHAT_ID", "123")
	t.Setenv("TWITTER_API_KEY", "key")
	t.Setenv("STATE_GIST_ID", "gist")
	t.Setenv("STATE_GITHUB_TOKEN", "ghp")

	cfg := Default()
	cfg.Telegram.ChatID = "from-file"
	cfg.ApplyEnv()

	if cfg.Discord.WebhookURL != "https://discord.example/hook" {
		t.Errorf("WebhookURL = %q", cfg.Discord.WebhookURL)
	}
	if cfg.Telegram.BotToken != "token" {
		t.Errorf("BotToken = %q", cfg.Telegram.BotToken)
	}
	if cfg.Telegram.ChatID != "from-file" {
		t.Errorf("ChatID = %q, file value should win over env", cfg.Telegram.ChatID)
	}
	if cfg.StateGist.ID != "gist" || cfg.StateGist.Token != "ghp" {
		t.Errorf("StateGist = %+v", cfg.StateGist)
	}
	if cfg.Twitter.APIKey != "key" {
		t.Errorf("Twitter.APIKey = %q", cfg.Twitter.APIKey)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Discord.WebhookURL = "https://discord.example/api/webhooks/1/abc"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		require bool
		wantErr error
		errText string
	}{
		{name: "valid", mutate: func(*Config) {}, require: true},
		{name: "unknown source", mutate: func(c *Config) { c.Source = "infratest" }, errText: "unknown source"},
		{name: "interval too short", mutate: func(c *Config) { c.PollInterval = Duration(time.Second) }, errText: "poll_interval"},
		{name: "negative spacing", mutate: func(c *Config) { c.NotifySpacing = Duration(-time.Second) }, errText: "notify_spacing"},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "loud" }, errText: "log_level"},
		{name: "bad date", mutate: func(c *Config) { c.Query.ReleasedAfter = "01.01.2025" }, errText: "released_after"},
		{name: "bad source url", mutate: func(c *Config) { c.SourceURL = "api.dawum.de" }, errText: "source_url"},
		{name: "relative webhook", mutate: func(c *Config) { c.Discord.WebhookURL = "/api/webhooks" }, errText: "webhook_url"},
		{name: "telegram half configured", mutate: func(c *Config) { c.Telegram.BotToken = "t" }, errText: "telegram"},
		{name: "gist without token", mutate: func(c *Config) { c.StateGist.ID = "abc" }, errText: "state_gist"},
		{name: "twitter half configured", mutate: func(c *Config) { c.Twitter.APIKey = "k" }, errText: "twitter"},
		{
			name:    "no notifier",
			mutate:  func(c *Config) { c.Discord.WebhookURL = "" },
			require: true,
			wantErr: ErrNoNotifier,
		},
		{name: "no notifier allowed in dry run", mutate: func(c *Config) { c.Discord.WebhookURL = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate(tt.require)
			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
				}
			case tt.errText != "":
				if err == nil || !strings.Contains(err.Error(), tt.errText) {
					t.Errorf("Validate() error = %v, want it to mention %q", err, tt.errText)
				}
			default:
				if err != nil {
					t.Errorf("Validate() unexpected error = %v", err)
				}
			}
		})
	}
}

func TestHasNotifier(t *testing.T) {
	cfg := Default()
	if cfg.HasNotifier() {
		t.Error("HasNotifier() = true for empty config")
	}

	cfg.Telegram.BotToken = "t"
	cfg.Telegram.ChatID = "1"
	if !cfg.HasNotifier() {
		t.Error("HasNotifier() = false with telegram configured")
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("WAHL_SET", "value")

	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"${WAHL_SET}", "value"},
		{"pre-${WAHL_SET}-post", "pre-value-post"},
		{"${WAHL_UNSET:-dflt}", "dflt"},
		{"${WAHL_SET:-dflt}", "value"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := expandEnvVars(tt.in)
			if err != nil {
				t.Fatalf("expandEnvVars(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("expandEnvVars(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
