package survey

import (
	"sort"
	"strings"
	"time"
)

// DefaultReleasedAfter is the cut-off for surveys of the 2025 federal election cycle.
var DefaultReleasedAfter = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// DefaultParliaments matches the federal parliament by election or shortcut name.
var DefaultParliaments = []string{"Bundestagswahl", "Bundestag"}

// Query selects surveys by release date and parliament
type Query struct {
	// ReleasedAfter excludes surveys released on or before this instant. Zero disables the bound.
	ReleasedAfter time.Time
	// Parliaments lists accepted shortcut, name, or election values. Empty accepts all.
	Parliaments []string
}

// DefaultQuery returns the query for the latest federal election survey
func DefaultQuery() Query {
	parliaments := make([]string, len(DefaultParliaments))
	copy(parliaments, DefaultParliaments)
	return Query{
		ReleasedAfter: DefaultReleasedAfter,
		Parliaments:   parliaments,
	}
}

// Match reports whether a survey satisfies the query
func (q Query) Match(s *Survey) bool {
	if s == nil {
		return false
	}
	if !q.ReleasedAfter.IsZero() && !s.Release.After(q.ReleasedAfter) {
		return false
	}
	if len(q.Parliaments) == 0 {
		return true
	}
	for _, want := range q.Parliaments {
		want = strings.TrimSpace(want)
		if strings.EqualFold(s.Parliament.Shortcut, want) ||
			strings.EqualFold(s.Parliament.Name, want) ||
			strings.EqualFold(s.Parliament.Election, want) {
			return true
		}
	}
	return false
}

// Select returns matching surveys sorted by release date, newest first
func (q Query) Select(surveys []*Survey) []*Survey {
	selected := make([]*Survey, 0, len(surveys))
	for _, s := range surveys {
		if q.Match(s) {
			selected = append(selected, s)
		}
	}

	sort.SliceStable(selected, func(i, j int) bool {
		if !selected[i].Release.Equal(selected[j].Release) {
			return selected[i].Release.After(selected[j].Release)
		}
		return lessID(selected[j].ID, selected[i].ID)
	})

	return selected
}

// Latest returns the newest matching survey, or nil if none match
func (q Query) Latest(surveys []*Survey) *Survey {
	selected := q.Select(surveys)
	if len(selected) == 0 {
		return nil
	}
	return selected[0]
}

// lessID orders numeric IDs numerically and falls back to string order
func lessID(a, b string) bool {
	if len(a) != len(b) && isDigits(a) && isDigits(b) {
		return len(a) < len(b)
	}
	return a < b
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
