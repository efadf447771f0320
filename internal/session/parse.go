package session

import (
	"regexp"
	"strings"

	"listing-site-backend/internal/models"
)

var (
	labeledPhone    = regexp.MustCompile(`(?i)(?:телефон|phone|тел)\s*:\s*([+\d][\d\s()\-]{6,})`)
	labeledEmail    = regexp.MustCompile(`(?i)(?:e-?mail|почта)\s*:\s*([A-Z0-9._%+\-]+@[A-Z0-9.\-]+\.[A-Z]{2,})`)
	labeledTelegram = regexp.MustCompile(`(?i)(?:telegram|телеграм|tg)\s*:\s*@?([A-Z0-9_]{4,})`)

	anyPhone = regexp.MustCompile(`\+?\d[\d\s()\-]{5,}\d`)
	anyEmail = regexp.MustCompile(`(?i)[A-Z0-9._%+\-]+@[A-Z0-9.\-]+\.[A-Z]{2,}`)
)

// parseSpecs reads "area, rooms, completion" positionally. Missing or blank
// positions keep their current value, extra positions are ignored.
func parseSpecs(text string, f *models.Fields) {
	parts := strings.Split(text, ",")
	targets := []*string{&f.Area, &f.Rooms, &f.CompletionDate}
	for i, target := range targets {
		if i >= len(parts) {
			break
		}
		if v := strings.TrimSpace(parts[i]); v != "" {
			*target = v
		}
	}
}

// parseContacts extracts labeled broker contacts. Labels that are missing or
// malformed leave the corresponding field untouched.
func parseContacts(text string, f *models.Fields) {
	if m := labeledPhone.FindStringSubmatch(text); m != nil {
		f.BrokerPhone = strings.TrimSpace(m[1])
	}
	if m := labeledEmail.FindStringSubmatch(text); m != nil {
		f.BrokerEmail = m[1]
	}
	if m := labeledTelegram.FindStringSubmatch(text); m != nil {
		f.BrokerTelegram = m[1]
	}
}

// extractLeadContacts finds a phone number and an email in free text.
func extractLeadContacts(text string) (phone, email string) {
	if m := anyEmail.FindString(text); m != "" {
		email = m
		text = strings.Replace(text, m, " ", 1)
	}
	if m := anyPhone.FindString(text); m != "" {
		phone = strings.TrimSpace(m)
	}
	return phone, email
}
