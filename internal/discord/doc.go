// Package discord delivers survey summaries to a Discord webhook.
//
// FormatSurvey renders a survey as a webhook message with one embed, listing
// party results from highest to lowest. Client posts messages to the webhook
// URL and retries rate-limited (429) and server-side (5xx) failures with
// exponential backoff, waiting at least as long as Discord's Retry-After header
// asks for. Other 4xx responses are treated as permanent.
package discord
