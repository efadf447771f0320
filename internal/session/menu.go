package session

import (
	"regexp"
	"strings"
)

// Button labels. Incoming text equal to a label is treated as a press.
const (
	BtnCreate   = "🏗 Create listing"
	BtnListings = "📋 My listings"
	BtnSettings = "⚙️ Settings"

	BtnPhoto  = "📸 Photo"
	BtnVideo  = "🎥 Video"
	BtnFinish = "✅ Finish upload"
	BtnBack   = "⬅️ Back to choice"
	BtnCancel = "❌ Cancel"

	BtnYes          = "✅ Yes"
	BtnNo           = "🚫 No"
	BtnSkipContacts = "⏭ Skip contacts"
)

var editCommand = regexp.MustCompile(`(?i)^(?:/?edit|✏️ edit)\s+(\d+)$`)

func isCancel(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case strings.ToLower(BtnCancel), "/cancel", "cancel":
		return true
	}
	return false
}

func mainMenu() [][]string {
	return [][]string{
		{BtnCreate},
		{BtnListings},
		{BtnSettings},
	}
}

func mediaMenu() [][]string {
	return [][]string{
		{BtnPhoto, BtnVideo},
		{BtnFinish},
		{BtnCancel},
	}
}

func collectingMenu() [][]string {
	return [][]string{
		{BtnBack},
		{BtnCancel},
	}
}

func yesNoMenu() [][]string {
	return [][]string{
		{BtnYes, BtnNo},
		{BtnCancel},
	}
}

func contactsMenu() [][]string {
	return [][]string{
		{BtnSkipContacts},
		{BtnCancel},
	}
}

func cancelMenu() [][]string {
	return [][]string{{BtnCancel}}
}

// styleMenu lays labels out two per row.
func styleMenu(labels []string) [][]string {
	rows := make([][]string, 0, len(labels)/2+2)
	for i := 0; i < len(labels); i += 2 {
		end := min(i+2, len(labels))
		rows = append(rows, append([]string(nil), labels[i:end]...))
	}
	return append(rows, []string{BtnCancel})
}
