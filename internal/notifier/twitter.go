package notifier

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dghubble/go-twitter/twitter" //nolint:staticcheck // Using stable v1.1 API
	"github.com/dghubble/oauth1"
	"github.com/pfrederiksen/wahlumfragen/internal/discord"
	"github.com/pfrederiksen/wahlumfragen/internal/survey"
)

const maxTweetLength = 280

// TwitterCredentials holds OAuth1 user-context credentials
type TwitterCredentials struct {
	APIKey       string `yaml:"api_key"`
	APISecret    string `yaml:"api_secret"`
	AccessToken  string `yaml:"access_token"`
	AccessSecret string `yaml:"access_secret"`
}

// TwitterCredentialsFromEnv reads credentials from:
// - TWITTER_API_KEY
// - TWITTER_API_SECRET
// - TWITTER_ACCESS_TOKEN
// - TWITTER_ACCESS_SECRET
func TwitterCredentialsFromEnv() TwitterCredentials {
	return TwitterCredentials{
		APIKey:       os.Getenv("TWITTER_API_KEY"),
		APISecret:    os.Getenv("TWITTER_API_SECRET"),
		AccessToken:  os.Getenv("TWITTER_ACCESS_TOKEN"),
		AccessSecret: os.Getenv("TWITTER_ACCESS_SECRET"),
	}
}

// Complete reports whether all four credentials are set
func (c TwitterCredentials) Complete() bool {
	return c.APIKey != "" && c.APISecret != "" && c.AccessToken != "" && c.AccessSecret != ""
}

// Any reports whether at least one credential is set
func (c TwitterCredentials) Any() bool {
	return c.APIKey != "" || c.APISecret != "" || c.AccessToken != "" || c.AccessSecret != ""
}

type statusUpdater interface {
	Update(status string, params *twitter.StatusUpdateParams) (*twitter.Tweet, error)
}

// twitterStatuses adapts the go-twitter service, which also returns the raw response
type twitterStatuses struct {
	service *twitter.StatusService
}

func (t twitterStatuses) Update(status string, params *twitter.StatusUpdateParams) (*twitter.Tweet, error) {
	tweet, _, err := t.service.Update(status, params)
	return tweet, err
}

// TwitterNotifier posts surveys to Twitter
type TwitterNotifier struct {
	statuses statusUpdater
}

// NewTwitterNotifier creates a new Twitter notifier
func NewTwitterNotifier(creds TwitterCredentials) (*TwitterNotifier, error) {
	if !creds.Complete() {
		return nil, fmt.Errorf("missing required Twitter credentials")
	}

	config := oauth1.NewConfig(creds.APIKey, creds.APISecret)
	token := oauth1.NewToken(creds.AccessToken, creds.AccessSecret)
	httpClient := config.Client(oauth1.NoContext, token)
	client := twitter.NewClient(httpClient)

	return &TwitterNotifier{statuses: twitterStatuses{service: client.Statuses}}, nil
}

// Name returns "twitter"
func (n *TwitterNotifier) Name() string {
	return "twitter"
}

// Notify posts one tweet for the survey
func (n *TwitterNotifier) Notify(ctx context.Context, s *survey.Survey) error {
	if s == nil {
		return fmt.Errorf("survey is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := n.statuses.Update(formatTweet(s), nil); err != nil {
		return fmt.Errorf("failed to post tweet for survey %s: %w", s.ID, err)
	}
	return nil
}

// formatTweet formats a survey as a tweet
func formatTweet(s *survey.Survey) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("🗳️ Neue Umfrage vom %s\n", survey.FormatGermanDate(s.Release)))
	if s.Institute != "" {
		b.WriteString(fmt.Sprintf("🏛 %s", s.Institute))
		if s.Tasker != "" {
			b.WriteString(fmt.Sprintf(" für %s", s.Tasker))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	for _, r := range survey.SortedResults(s) {
		b.WriteString(fmt.Sprintf("%s %s%%\n", r.Party, discord.FormatPercent(r.Percent)))
	}

	b.WriteString(fmt.Sprintf("\nDaten: %s\n#Sonntagsfrage #Umfrage", survey.Attribution(s)))

	tweet := b.String()
	runes := []rune(tweet)
	if len(runes) > maxTweetLength {
		tweet = string(runes[:maxTweetLength-3]) + "..."
	}

	return tweet
}
