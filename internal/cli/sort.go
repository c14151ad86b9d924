package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pfrederiksen/wahlumfragen/internal/survey"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByDate         SortOrder = "date"
	SortByInstitute    SortOrder = "institute"
	SortByParticipants SortOrder = "participants"
)

func parseSortOrder(s string) (SortOrder, error) {
	order := SortOrder(strings.ToLower(strings.TrimSpace(s)))
	switch order {
	case SortByDate, SortByInstitute, SortByParticipants:
		return order, nil
	default:
		return "", fmt.Errorf("invalid sort order: %s (must be 'date', 'institute' or 'participants')", s)
	}
}

// sortSurveys sorts surveys in place. Surveys that compare equal keep
// their newest-first order.
func sortSurveys(surveys []*survey.Survey, order SortOrder) {
	switch order {
	case SortByDate:
		sort.SliceStable(surveys, func(i, j int) bool {
			return surveys[i].Release.After(surveys[j].Release)
		})
	case SortByInstitute:
		sort.SliceStable(surveys, func(i, j int) bool {
			return strings.ToLower(surveys[i].Institute) < strings.ToLower(surveys[j].Institute)
		})
	case SortByParticipants:
		sort.SliceStable(surveys, func(i, j int) bool {
			return surveys[i].Participants > surveys[j].Participants
		})
	}
}
