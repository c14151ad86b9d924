package survey

import (
	"crypto/sha1"
	"fmt"
	"sort"
	"time"
)

// Parliament identifies the body a survey was conducted for
type Parliament struct {
	Shortcut string `json:"shortcut"`
	Name     string `json:"name"`
	Election string `json:"election"`
}

// Result is a single party's share in a survey
type Result struct {
	Party     string  `json:"party"`
	PartyName string  `json:"party_name,omitempty"`
	Percent   float64 `json:"percent"`
}

// Survey represents a published election poll
type Survey struct {
	ID           string     `json:"id"`
	Source       string     `json:"source"`
	Release      time.Time  `json:"release"`
	PeriodStart  time.Time  `json:"period_start,omitempty"`
	PeriodEnd    time.Time  `json:"period_end,omitempty"`
	Participants int        `json:"participants"`
	Parliament   Parliament `json:"parliament"`
	Institute    string     `json:"institute"`
	Tasker       string     `json:"tasker"`
	Method       string     `json:"method,omitempty"`
	Results      []Result   `json:"results"`
}

// Fingerprint returns a deterministic identifier for a survey, stable across runs
func Fingerprint(s *Survey) string {
	if s == nil {
		return ""
	}
	h := sha1.New()
	h.Write([]byte(s.Source + "|" + s.ID))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// SortedResults returns the survey's results ordered by percentage, highest first.
// Ties are ordered by party shortcut. The survey itself is left untouched.
func SortedResults(s *Survey) []Result {
	if s == nil {
		return nil
	}
	results := make([]Result, len(s.Results))
	copy(results, s.Results)

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Percent != results[j].Percent {
			return results[i].Percent > results[j].Percent
		}
		return results[i].Party < results[j].Party
	})
	return results
}

var attributions = map[string]string{
	"dawum":     "dawum.de",
	"wahlrecht": "wahlrecht.de",
}

// Attribution names the website a survey's data came from
func Attribution(s *Survey) string {
	if s == nil {
		return ""
	}
	if a, ok := attributions[s.Source]; ok {
		return a
	}
	return s.Source
}
