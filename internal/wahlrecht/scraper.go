package wahlrecht

import (
	"context"
	"crypto/sha1"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/wahlumfragen/internal/survey"
)

const (
	OverviewURL = "https://www.wahlrecht.de/umfragen/"
	UserAgent   = "wahlumfragen/1.0 (github.com/pfrederiksen/wahlumfragen)"
	Timeout     = 30 * time.Second
	SourceName  = "wahlrecht"
)

var (
	percentPattern      = regexp.MustCompile(`^(\d+(?:,\d+)?)\s*%$`)
	participantsPattern = regexp.MustCompile(`(\d{1,3}(?:\.\d{3})+|\d+)\s*$`)
	slugPattern         = regexp.MustCompile(`[^a-z0-9]+`)
)

var bundestag = survey.Parliament{Shortcut: "Bundestag", Name: "Bundestag", Election: "Bundestagswahl"}

// Scraper handles fetching and parsing the wahlrecht.de overview table
type Scraper struct {
	client *http.Client
	url    string
}

// New creates a new Scraper instance
func New() *Scraper {
	return &Scraper{
		client: &http.Client{
			Timeout: Timeout,
		},
		url: OverviewURL,
	}
}

// NewWithURL creates a Scraper for a different page, mainly for tests
func NewWithURL(url string) *Scraper {
	s := New()
	s.url = url
	return s
}

// Name identifies the source in logs and survey fingerprints
func (s *Scraper) Name() string {
	return SourceName
}

// LastUpdate derives a change marker from the table: the newest release date
// plus a short hash over every institute's release date.
func (s *Scraper) LastUpdate(ctx context.Context) (string, error) {
	surveys, err := s.Surveys(ctx)
	if err != nil {
		return "", err
	}
	if len(surveys) == 0 {
		return "", fmt.Errorf("no surveys found on %s", s.url)
	}
	return changeMarker(surveys), nil
}

// Surveys fetches the page and returns one survey per institute column
func (s *Scraper) Surveys(ctx context.Context) ([]*survey.Survey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return parseSurveys(resp.Body)
}

// column collects one institute's values while walking the table rows
type column struct {
	index     int
	institute string
	survey    *survey.Survey
}

// parseSurveys extracts surveys from the overview HTML
func parseSurveys(r io.Reader) ([]*survey.Survey, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	table := doc.Find("table.wilko").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("poll table not found")
	}

	// Institute columns come from header cells that carry a link
	var columns []*column
	table.Find("thead tr").First().Children().Each(func(i int, cell *goquery.Selection) {
		name := strings.TrimSpace(cell.Find("a").First().Text())
		if name == "" {
			return
		}
		columns = append(columns, &column{
			index:     i,
			institute: name,
			survey: &survey.Survey{
				Source:     SourceName,
				Institute:  name,
				Parliament: bundestag,
			},
		})
	})
	if len(columns) == 0 {
		return nil, fmt.Errorf("no institute columns found")
	}

	table.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Children()
		label := strings.TrimSpace(cells.First().Text())
		id, _ := row.Attr("id")

		for _, col := range columns {
			if col.index >= cells.Length() {
				continue
			}
			value := strings.TrimSpace(cells.Eq(col.index).Text())
			applyCell(col.survey, id, label, value)
		}
	})

	surveys := make([]*survey.Survey, 0, len(columns))
	for _, col := range columns {
		if col.survey.Release.IsZero() {
			continue
		}
		col.survey.ID = fmt.Sprintf("%s-%s", slug(col.institute), col.survey.Release.Format("2006-01-02"))
		surveys = append(surveys, col.survey)
	}

	return surveys, nil
}

// applyCell records one table cell on the institute's survey
func applyCell(s *survey.Survey, rowID, label, value string) {
	switch {
	case rowID == "datum" || strings.HasPrefix(label, "Veröffentl"):
		if t, err := parseGermanDate(value); err == nil {
			s.Release = t
		}
	case rowID == "befragte" || strings.HasPrefix(label, "Befragte"):
		s.Participants = parseParticipants(value)
	case rowID == "auftraggeber" || strings.HasPrefix(label, "Auftraggeber"):
		s.Tasker = value
	case label == "":
		// spacer rows
	default:
		if percent, ok := parsePercent(value); ok {
			s.Results = append(s.Results, survey.Result{Party: label, Percent: percent})
		}
	}
}

// parsePercent parses values like "30 %" or "13,5 %"
func parsePercent(value string) (float64, bool) {
	value = strings.ReplaceAll(value, "\u00a0", " ")
	m := percentPattern.FindStringSubmatch(strings.TrimSpace(value))
	if m == nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.Replace(m[1], ",", ".", 1), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// parseParticipants reads the trailing count from values like "T • 1.502"
func parseParticipants(value string) int {
	m := participantsPattern.FindStringSubmatch(strings.TrimSpace(value))
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m[1], ".", ""))
	if err != nil {
		return 0
	}
	return n
}

// parseGermanDate parses "11.02.2025" as midnight in Berlin
func parseGermanDate(value string) (time.Time, error) {
	t, err := time.Parse("02.01.2006", value)
	if err != nil {
		return time.Time{}, err
	}
	return survey.ParseDate(t.Format("2006-01-02"))
}

func slug(name string) string {
	s := strings.ToLower(name)
	s = strings.NewReplacer("ä", "ae", "ö", "oe", "ü", "ue", "ß", "ss").Replace(s)
	return strings.Trim(slugPattern.ReplaceAllString(s, "-"), "-")
}

// changeMarker summarises the release dates of all columns
func changeMarker(surveys []*survey.Survey) string {
	ids := make([]string, 0, len(surveys))
	var newest time.Time
	for _, s := range surveys {
		ids = append(ids, s.ID)
		if s.Release.After(newest) {
			newest = s.Release
		}
	}
	sort.Strings(ids)

	h := sha1.New()
	h.Write([]byte(strings.Join(ids, "|")))
	return fmt.Sprintf("%s/%x", newest.Format("2006-01-02"), h.Sum(nil)[:4])
}
