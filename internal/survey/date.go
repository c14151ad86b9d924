package survey

import (
	"time"
	_ "time/tzdata"
)

// berlin is used to render release dates the way German readers expect them.
var berlin = loadBerlin()

func loadBerlin() *time.Location {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		return time.UTC
	}
	return loc
}

// FormatGermanDate renders a date in the short de-DE form, e.g. "7.3.2025"
func FormatGermanDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(berlin).Format("2.1.2006")
}

// ParseDate parses a calendar date ("2006-01-02") as midnight in Berlin
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, berlin)
}
