package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dghubble/go-twitter/twitter" //nolint:staticcheck // Using stable v1.1 API
	"github.com/pfrederiksen/wahlumfragen/internal/discord"
	"github.com/pfrederiksen/wahlumfragen/internal/survey"
)

func testSurvey() *survey.Survey {
	return &survey.Survey{
		ID:           "3950",
		Source:       "dawum",
		Release:      time.Date(2025, 2, 11, 0, 0, 0, 0, time.UTC),
		Participants: 1502,
		Institute:    "Verian (Emnid)",
		Tasker:       "Bild am Sonntag",
		Results: []survey.Result{
			{Party: "SPD", Percent: 16},
			{Party: "CDU/CSU", Percent: 30},
			{Party: "AfD", Percent: 21},
		},
	}
}

// recorder is a Notifier that remembers what it was asked to send
type recorder struct {
	name string
	err  error
	got  []*survey.Survey
}

func (r *recorder) Name() string { return r.name }

func (r *recorder) Notify(_ context.Context, s *survey.Survey) error {
	r.got = append(r.got, s)
	return r.err
}

func TestDiscordNotifier(t *testing.T) {
	var payload discord.WebhookMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&payload)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	n, err := NewDiscordNotifier(server.URL, discord.MessageOptions{})
	if err != nil {
		t.Fatalf("NewDiscordNotifier() error = %v", err)
	}
	if n.Name() != "discord" {
		t.Errorf("Name() = %q", n.Name())
	}

	if err := n.Notify(context.Background(), testSurvey()); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if len(payload.Embeds) != 1 || payload.Embeds[0].Title != "Aktuellste Umfrage vom 11.2.2025" {
		t.Errorf("webhook received %+v", payload)
	}
}

func TestDiscordNotifier_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message": "Unknown Webhook", "code": 10015}`))
	}))
	defer server.Close()

	n, _ := NewDiscordNotifier(server.URL, discord.MessageOptions{})
	err := n.Notify(context.Background(), testSurvey())
	if err == nil || !strings.Contains(err.Error(), "Unknown Webhook") {
		t.Errorf("Notify() error = %v, want Unknown Webhook", err)
	}
}

func TestNewDiscordNotifier_EmptyURL(t *testing.T) {
	if _, err := NewDiscordNotifier("", discord.MessageOptions{}); !errors.Is(err, discord.ErrEmptyWebhook) {
		t.Errorf("NewDiscordNotifier(\"\") error = %v, want ErrEmptyWebhook", err)
	}
}

type fakeSender struct {
	text string
	err  error
}

func (f *fakeSender) SendMessage(_ context.Context, text string) error {
	f.text = text
	return f.err
}

func TestTelegramNotifier(t *testing.T) {
	sender := &fakeSender{}
	n := &TelegramNotifier{client: sender}

	if err := n.Notify(context.Background(), testSurvey()); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if !strings.Contains(sender.text, "<b>CDU/CSU</b>: 30%") {
		t.Errorf("sent text = %q", sender.text)
	}

	sender.err = errors.New("chat not found")
	if err := n.Notify(context.Background(), testSurvey()); err == nil || !strings.Contains(err.Error(), "chat not found") {
		t.Errorf("Notify() error = %v, want wrapped sender error", err)
	}
}

func TestNewTelegramNotifier_Validation(t *testing.T) {
	if _, err := NewTelegramNotifier("", "1"); err == nil {
		t.Error("NewTelegramNotifier() expected error without token")
	}
	if _, err := NewTelegramNotifier("token", "1"); err != nil {
		t.Errorf("NewTelegramNotifier() error = %v", err)
	}
}

type fakeStatuses struct {
	tweets []string
	err    error
}

func (f *fakeStatuses) Update(status string, _ *twitter.StatusUpdateParams) (*twitter.Tweet, error) {
	f.tweets = append(f.tweets, status)
	return &twitter.Tweet{Text: status}, f.err
}

func TestTwitterNotifier(t *testing.T) {
	statuses := &fakeStatuses{}
	n := &TwitterNotifier{statuses: statuses}

	if err := n.Notify(context.Background(), testSurvey()); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if len(statuses.tweets) != 1 {
		t.Fatalf("posted %d tweets, want 1", len(statuses.tweets))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := n.Notify(ctx, testSurvey()); !errors.Is(err, context.Canceled) {
		t.Errorf("Notify() with cancelled context error = %v", err)
	}
	if len(statuses.tweets) != 1 {
		t.Error("Notify() posted despite cancelled context")
	}
}

func TestNewTwitterNotifier_MissingCredentials(t *testing.T) {
	if _, err := NewTwitterNotifier(TwitterCredentials{APIKey: "k"}); err == nil {
		t.Error("NewTwitterNotifier() expected error for incomplete credentials")
	}
}

func TestTwitterCredentialsFromEnv(t *testing.T) {
	t.Setenv("TWITTER_API_KEY", "k")
	t.Setenv("TWITTER_API_SECRET", "s")
	t.Setenv("TWITTER_ACCESS_TOKEN", "t")
	t.Setenv("TWITTER_ACCESS_SECRET", "as")

	creds := TwitterCredentialsFromEnv()
	if !creds.Complete() || !creds.Any() {
		t.Errorf("TwitterCredentialsFromEnv() = %+v, want complete", creds)
	}
	if (TwitterCredentials{}).Any() {
		t.Error("empty credentials should not report Any()")
	}
}

func TestFormatTweet(t *testing.T) {
	tweet := formatTweet(testSurvey())

	for _, want := range []string{
		"Neue Umfrage vom 11.2.2025",
		"Verian (Emnid) für Bild am Sonntag",
		"CDU/CSU 30%",
		"#Sonntagsfrage",
		"Daten: dawum.de",
	} {
		if !strings.Contains(tweet, want) {
			t.Errorf("formatTweet() missing %q in tweet:\n%s", want, tweet)
		}
	}
	if strings.Index(tweet, "CDU/CSU") > strings.Index(tweet, "SPD") {
		t.Error("formatTweet() results not sorted")
	}
}

func TestFormatTweet_Truncates(t *testing.T) {
	s := testSurvey()
	for i := 0; i < 40; i++ {
		s.Results = append(s.Results, survey.Result{Party: "Kleinpartei Nummer " + strings.Repeat("x", i%5), Percent: 0.5})
	}

	tweet := formatTweet(s)
	if n := len([]rune(tweet)); n > maxTweetLength {
		t.Errorf("formatTweet() length = %d, want <= %d", n, maxTweetLength)
	}
	if !strings.HasSuffix(tweet, "...") {
		t.Error("truncated tweet should end with ellipsis")
	}
}

func TestDryRunNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewDryRunNotifier(&buf, discord.MessageOptions{})

	if err := n.Notify(context.Background(), testSurvey()); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "--- Survey 3950 (dawum) ---") {
		t.Errorf("output missing header:\n%s", out)
	}
	if !strings.Contains(out, `"username": "Wahlumfragen 2025 🇩🇪"`) {
		t.Errorf("output missing webhook payload:\n%s", out)
	}
	if err := n.Notify(context.Background(), nil); err == nil {
		t.Error("Notify(nil) expected error")
	}
}

func TestMulti_DeliversToAll(t *testing.T) {
	a := &recorder{name: "a", err: errors.New("boom")}
	b := &recorder{name: "b"}
	m := NewMulti(0, a, b)

	err := m.Notify(context.Background(), testSurvey())
	if err == nil || !strings.Contains(err.Error(), "a: boom") {
		t.Errorf("Notify() error = %v, want a's failure", err)
	}
	if len(a.got) != 1 || len(b.got) != 1 {
		t.Errorf("deliveries a=%d b=%d, want 1 each", len(a.got), len(b.got))
	}
	if m.Name() != "a,b" || m.Len() != 2 {
		t.Errorf("Name() = %q, Len() = %d", m.Name(), m.Len())
	}
}

func TestMulti_Spacing(t *testing.T) {
	a, b := &recorder{name: "a"}, &recorder{name: "b"}
	m := NewMulti(50*time.Millisecond, a, b)

	start := time.Now()
	if err := m.Notify(context.Background(), testSurvey()); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("Notify() took %v, want deliveries spaced by ~50ms", elapsed)
	}
}

func TestMulti_CancelledContext(t *testing.T) {
	a, b := &recorder{name: "a"}, &recorder{name: "b"}
	m := NewMulti(time.Hour, a, b)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := m.Notify(ctx, testSurvey()); err == nil {
		t.Error("Notify() expected error for cancelled context")
	}
	if len(b.got) != 0 {
		t.Error("Notify() should stop once the context is cancelled")
	}
}

func TestMulti_Empty(t *testing.T) {
	if err := NewMulti(0).Notify(context.Background(), testSurvey()); err == nil {
		t.Error("Notify() expected error without notifiers")
	}
}
