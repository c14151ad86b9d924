package telegram

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/pfrederiksen/wahlumfragen/internal/survey"
)

// FormatSurvey formats a survey as a Telegram HTML message
func FormatSurvey(s *survey.Survey) string {
	var msg strings.Builder

	msg.WriteString(fmt.Sprintf("🗳️ <b>Aktuellste Umfrage vom %s</b>\n\n", survey.FormatGermanDate(s.Release)))

	msg.WriteString(fmt.Sprintf("🏛 <b>Institut:</b> %s\n", escapeOrUnknown(s.Institute)))
	msg.WriteString(fmt.Sprintf("📰 <b>Auftraggeber:</b> %s\n", escapeOrUnknown(s.Tasker)))
	if s.Participants > 0 {
		msg.WriteString(fmt.Sprintf("👥 <b>Teilnehmer:</b> %d\n", s.Participants))
	}
	if !s.PeriodStart.IsZero() && !s.PeriodEnd.IsZero() {
		msg.WriteString(fmt.Sprintf("📅 <b>Zeitraum:</b> %s – %s\n",
			survey.FormatGermanDate(s.PeriodStart), survey.FormatGermanDate(s.PeriodEnd)))
	}

	msg.WriteString("\n")
	for _, r := range survey.SortedResults(s) {
		msg.WriteString(fmt.Sprintf("<b>%s</b>: %s%%\n",
			html.EscapeString(r.Party), strconv.FormatFloat(r.Percent, 'f', -1, 64)))
	}

	msg.WriteString(fmt.Sprintf("\n<i>Daten: %s</i>\n#Sonntagsfrage #Umfrage", html.EscapeString(survey.Attribution(s))))

	return msg.String()
}

func escapeOrUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unbekannt"
	}
	return html.EscapeString(s)
}
