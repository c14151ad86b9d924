package discord

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pfrederiksen/wahlumfragen/internal/survey"
)

// Discord embed limits
const (
	maxTitleLength      = 256
	maxFieldValueLength = 1024
)

const (
	DefaultUsername  = "Wahlumfragen 2025 🇩🇪"
	DefaultAvatarURL = "https://pbs.twimg.com/profile_images/698577756838346752/iSvS-h-1_400x400.png"
	DefaultColor     = 3447003
	DefaultFooter    = "Daten bereitgestellt von dawum.de | coded by UnbreakCode"

	// footerFormat credits the survey's own data source
	footerFormat = "Daten bereitgestellt von %s | coded by UnbreakCode"

	resultsFieldName = "Ergebnisse (sortiert nach Prozenten)"
	unknown          = "unbekannt"
)

// WebhookMessage is the JSON body accepted by Discord webhooks
type WebhookMessage struct {
	Username  string  `json:"username,omitempty"`
	AvatarURL string  `json:"avatar_url,omitempty"`
	Content   string  `json:"content,omitempty"`
	Embeds    []Embed `json:"embeds,omitempty"`
}

// Embed is a rich message block
type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	URL         string       `json:"url,omitempty"`
	Color       int          `json:"color,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
}

// EmbedField is a name/value pair inside an embed
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// EmbedFooter is the small text under an embed
type EmbedFooter struct {
	Text string `json:"text"`
}

// MessageOptions controls the presentation of survey messages
type MessageOptions struct {
	Username  string `yaml:"username"`
	AvatarURL string `yaml:"avatar_url"`
	Color     int    `yaml:"color"`
	Footer    string `yaml:"footer"`
}

// DefaultMessageOptions returns the stock bot identity. Footer is left empty
// so each message credits the source its survey came from.
func DefaultMessageOptions() MessageOptions {
	return MessageOptions{
		Username:  DefaultUsername,
		AvatarURL: DefaultAvatarURL,
		Color:     DefaultColor,
	}
}

// withDefaults fills zero fields from DefaultMessageOptions
func (o MessageOptions) withDefaults() MessageOptions {
	d := DefaultMessageOptions()
	if o.Username == "" {
		o.Username = d.Username
	}
	if o.AvatarURL == "" {
		o.AvatarURL = d.AvatarURL
	}
	if o.Color == 0 {
		o.Color = d.Color
	}
	return o
}

// footerText returns the configured footer, or a credit line for the survey's source
func footerText(s *survey.Survey, opts MessageOptions) string {
	if opts.Footer != "" {
		return opts.Footer
	}
	return fmt.Sprintf(footerFormat, survey.Attribution(s))
}

// FormatSurvey renders a survey as a webhook message
func FormatSurvey(s *survey.Survey, opts MessageOptions) *WebhookMessage {
	opts = opts.withDefaults()

	title := truncate(fmt.Sprintf("Aktuellste Umfrage vom %s", survey.FormatGermanDate(s.Release)), maxTitleLength)

	description := fmt.Sprintf("**Institut**: %s\n**Auftraggeber**: %s\n**Teilnehmer**: %s",
		orUnknown(s.Institute), orUnknown(s.Tasker), formatParticipants(s.Participants))

	embed := Embed{
		Title:       title,
		Description: description,
		Color:       opts.Color,
		Fields: []EmbedField{
			{Name: resultsFieldName, Value: FormatResults(survey.SortedResults(s))},
		},
		Footer: &EmbedFooter{Text: footerText(s, opts)},
	}

	return &WebhookMessage{
		Username:  opts.Username,
		AvatarURL: opts.AvatarURL,
		Embeds:    []Embed{embed},
	}
}

// FormatResults renders one "**PARTY**: N%" line per result, dropping
// trailing lines that would exceed Discord's field value limit. A first line
// that is too long on its own is truncated, since Discord rejects empty values.
func FormatResults(results []survey.Result) string {
	if len(results) == 0 {
		return "Keine Ergebnisse"
	}

	var b strings.Builder
	for i, r := range results {
		line := fmt.Sprintf("**%s**: %s%%\n", r.Party, FormatPercent(r.Percent))
		if b.Len()+len(line) > maxFieldValueLength {
			if i == 0 {
				return truncateBytes(line, maxFieldValueLength)
			}
			break
		}
		b.WriteString(line)
	}
	return b.String()
}

// FormatPercent prints a percentage without trailing zeros, e.g. 30 or 13.5
func FormatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

func formatParticipants(n int) string {
	if n <= 0 {
		return unknown
	}
	return strconv.Itoa(n)
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return unknown
	}
	return s
}

// truncateBytes cuts s to at most max bytes on a rune boundary, marking the cut with "..."
func truncateBytes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
