package dawum

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pfrederiksen/wahlumfragen/internal/survey"
)

// SourceName identifies surveys that came from DAWUM
const SourceName = "dawum"

// Data is the DAWUM database document
type Data struct {
	Database    Database              `json:"Database"`
	Parliaments map[string]Parliament `json:"Parliaments"`
	Institutes  map[string]Named      `json:"Institutes"`
	Taskers     map[string]Named      `json:"Taskers"`
	Methods     map[string]Named      `json:"Methods"`
	Parties     map[string]Party      `json:"Parties"`
	Surveys     map[string]Survey     `json:"Surveys"`
}

// Database holds document metadata
type Database struct {
	License    License `json:"License"`
	Publisher  string  `json:"Publisher"`
	Author     string  `json:"Author"`
	LastUpdate string  `json:"Last_Update"`
}

// License describes the data license
type License struct {
	Name     string `json:"Name"`
	Shortcut string `json:"Shortcut"`
	Link     string `json:"Link"`
}

// Parliament is a DAWUM parliament entry
type Parliament struct {
	Shortcut string `json:"Shortcut"`
	Name     string `json:"Name"`
	Election string `json:"Election"`
}

// Named is an entry that only carries a name (institutes, taskers, methods)
type Named struct {
	Name string `json:"Name"`
}

// Party is a DAWUM party entry
type Party struct {
	Shortcut string `json:"Shortcut"`
	Name     string `json:"Name"`
}

// Period is the fieldwork window of a survey
type Period struct {
	DateStart string `json:"Date_Start"`
	DateEnd   string `json:"Date_End"`
}

// Survey is a raw DAWUM survey with ID references
type Survey struct {
	Date            string             `json:"Date"`
	SurveyPeriod    Period             `json:"Survey_Period"`
	SurveyedPersons string             `json:"Surveyed_Persons"`
	ParliamentID    string             `json:"Parliament_ID"`
	InstituteID     string             `json:"Institute_ID"`
	TaskerID        string             `json:"Tasker_ID"`
	MethodID        string             `json:"Method_ID"`
	Results         map[string]float64 `json:"Results"`
}

// ResolveSurveys converts every raw survey into a survey.Survey.
// Unknown references resolve to empty names; an unparsable release date is an error.
func (d *Data) ResolveSurveys() ([]*survey.Survey, error) {
	surveys := make([]*survey.Survey, 0, len(d.Surveys))
	for id, raw := range d.Surveys {
		s, err := d.resolve(id, raw)
		if err != nil {
			return nil, fmt.Errorf("survey %s: %w", id, err)
		}
		surveys = append(surveys, s)
	}
	return surveys, nil
}

// ResolveSurvey converts a single survey by ID
func (d *Data) ResolveSurvey(id string) (*survey.Survey, error) {
	raw, ok := d.Surveys[id]
	if !ok {
		return nil, fmt.Errorf("survey not found: %s", id)
	}
	return d.resolve(id, raw)
}

func (d *Data) resolve(id string, raw Survey) (*survey.Survey, error) {
	release, err := survey.ParseDate(raw.Date)
	if err != nil {
		return nil, fmt.Errorf("parsing release date %q: %w", raw.Date, err)
	}

	s := &survey.Survey{
		ID:           id,
		Source:       SourceName,
		Release:      release,
		Participants: parseParticipants(raw.SurveyedPersons),
		Institute:    d.Institutes[raw.InstituteID].Name,
		Tasker:       d.Taskers[raw.TaskerID].Name,
		Method:       d.Methods[raw.MethodID].Name,
		Results:      make([]survey.Result, 0, len(raw.Results)),
	}

	if p, ok := d.Parliaments[raw.ParliamentID]; ok {
		s.Parliament = survey.Parliament{Shortcut: p.Shortcut, Name: p.Name, Election: p.Election}
	}

	// Period dates are informational; a malformed one is dropped rather than failing the survey
	if start, err := survey.ParseDate(raw.SurveyPeriod.DateStart); err == nil {
		s.PeriodStart = start
	}
	if end, err := survey.ParseDate(raw.SurveyPeriod.DateEnd); err == nil {
		s.PeriodEnd = end
	}

	for partyID, percent := range raw.Results {
		party := d.Parties[partyID]
		shortcut := party.Shortcut
		if shortcut == "" {
			shortcut = partyID
		}
		s.Results = append(s.Results, survey.Result{
			Party:     shortcut,
			PartyName: party.Name,
			Percent:   percent,
		})
	}

	return s, nil
}

// parseParticipants accepts plain or thousands-separated counts; anything else is 0
func parseParticipants(s string) int {
	s = strings.NewReplacer(".", "", ",", "", " ", "").Replace(strings.TrimSpace(s))
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
