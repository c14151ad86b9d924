package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/pfrederiksen/wahlumfragen/internal/discord"
	"github.com/pfrederiksen/wahlumfragen/internal/survey"
	"github.com/pfrederiksen/wahlumfragen/internal/watcher"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// SurveyList is the output of the surveys command
type SurveyList struct {
	CheckedAt time.Time        `json:"checked_at"`
	Source    string           `json:"source"`
	Count     int              `json:"count"`
	Surveys   []*survey.Survey `json:"surveys"`
}

// WriteSurvey writes one survey in the specified format
func WriteSurvey(w io.Writer, s *survey.Survey, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, s)
	case FormatText:
		if s == nil {
			fmt.Fprintln(w, "No matching survey found.")
			return nil
		}
		writeSurveyText(w, s, verbose)
		return nil
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteSurveys writes a list of surveys in the specified format
func WriteSurveys(w io.Writer, list *SurveyList, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, list)
	case FormatText:
		if list.Count == 0 {
			fmt.Fprintln(w, "No matching surveys found.")
			return nil
		}
		for i, s := range list.Surveys {
			if i > 0 {
				fmt.Fprintln(w)
			}
			writeSurveyText(w, s, verbose)
		}
		fmt.Fprintf(w, "\nTotal: %d surveys from %s\n", list.Count, list.Source)
		return nil
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteCheckResult writes the outcome of a single check
func WriteCheckResult(w io.Writer, res *watcher.Result, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, res)
	case FormatText:
		switch {
		case !res.Changed:
			fmt.Fprintf(w, "No new data (last update: %s).\n", res.LastUpdate)
		case res.Survey == nil:
			fmt.Fprintf(w, "Data changed (last update: %s), but no survey matches the query.\n", res.LastUpdate)
		case res.Sent:
			fmt.Fprintf(w, "Sent survey %s (%s, %s).\n",
				res.Survey.ID, orUnknown(res.Survey.Institute), survey.FormatGermanDate(res.Survey.Release))
		default:
			fmt.Fprintf(w, "Latest survey %s was already sent.\n", res.Survey.ID)
		}
		return nil
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func writeSurveyText(w io.Writer, s *survey.Survey, verbose bool) {
	fmt.Fprintf(w, "Umfrage vom %s\n", survey.FormatGermanDate(s.Release))
	fmt.Fprintf(w, "  Institut:      %s\n", orUnknown(s.Institute))
	fmt.Fprintf(w, "  Auftraggeber:  %s\n", orUnknown(s.Tasker))
	if s.Participants > 0 {
		fmt.Fprintf(w, "  Teilnehmer:    %d\n", s.Participants)
	} else {
		fmt.Fprintf(w, "  Teilnehmer:    %s\n", "unbekannt")
	}

	if verbose {
		fmt.Fprintf(w, "  ID:            %s\n", s.ID)
		if parliament := s.Parliament.Name; parliament != "" {
			fmt.Fprintf(w, "  Parlament:     %s\n", parliament)
		}
		if !s.PeriodStart.IsZero() && !s.PeriodEnd.IsZero() {
			fmt.Fprintf(w, "  Zeitraum:      %s - %s\n",
				survey.FormatGermanDate(s.PeriodStart), survey.FormatGermanDate(s.PeriodEnd))
		}
		if s.Method != "" {
			fmt.Fprintf(w, "  Methode:       %s\n", s.Method)
		}
	}

	for _, r := range survey.SortedResults(s) {
		fmt.Fprintf(w, "    %-10s %5s%%\n", r.Party, discord.FormatPercent(r.Percent))
	}
	fmt.Fprintf(w, "  Daten: %s\n", survey.Attribution(s))
}

func orUnknown(s string) string {
	if s == "" {
		return "unbekannt"
	}
	return s
}
