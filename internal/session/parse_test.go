package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"listing-site-backend/internal/models"
)

func TestParseSpecs(t *testing.T) {
	tests := []struct {
		name                  string
		input                 string
		area, rooms, complete string
	}{
		{"all three", "150 sqm, 3 rooms, 2025", "150 sqm", "3 rooms", "2025"},
		{"only area", "150 sqm", "150 sqm", models.NotSpecified, models.NotSpecified},
		{"blank middle", "150 sqm, , Q4 2025", "150 sqm", models.NotSpecified, "Q4 2025"},
		{"extras ignored", "1, 2, 3, 4, 5", "1", "2", "3"},
		{"empty", "", models.NotSpecified, models.NotSpecified, models.NotSpecified},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := models.NewFields()
			parseSpecs(tt.input, &f)
			assert.Equal(t, tt.area, f.Area)
			assert.Equal(t, tt.rooms, f.Rooms)
			assert.Equal(t, tt.complete, f.CompletionDate)
		})
	}
}

func TestParseContacts(t *testing.T) {
	var f models.Fields
	parseContacts("Телефон: +7 (999) 123-45-67\nПочта: agent@mail.ru\nTG: @agent_007", &f)
	assert.Equal(t, "+7 (999) 123-45-67", f.BrokerPhone)
	assert.Equal(t, "agent@mail.ru", f.BrokerEmail)
	assert.Equal(t, "agent_007", f.BrokerTelegram)
}

func TestParseContacts_MalformedLeavesFieldsUnset(t *testing.T) {
	var f models.Fields
	parseContacts("phone: 12\nemail: not-an-email\ntelegram: @ab", &f)
	assert.False(t, f.HasContacts())
}

func TestExtractLeadContacts(t *testing.T) {
	phone, email := extractLeadContacts("Hi, reach me at +1 (555) 123-4567 or me@example.com")
	assert.Equal(t, "+1 (555) 123-4567", phone)
	assert.Equal(t, "me@example.com", email)

	phone, email = extractLeadContacts("just looking")
	assert.Empty(t, phone)
	assert.Empty(t, email)
}

func TestEditCommand(t *testing.T) {
	for _, in := range []string{"Edit 1", "edit 12", "/edit 3", "✏️ Edit 4"} {
		assert.NotNil(t, editCommand.FindStringSubmatch(in), in)
	}
	for _, in := range []string{"Edit", "Edit one", "please edit 1"} {
		assert.Nil(t, editCommand.FindStringSubmatch(in), in)
	}
}

func TestStyleMenuTwoPerRow(t *testing.T) {
	rows := styleMenu([]string{"a", "b", "c"})
	assert.Equal(t, [][]string{{"a", "b"}, {"c"}, {BtnCancel}}, rows)
}
