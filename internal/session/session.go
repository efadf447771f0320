// Package session drives the per-user questionnaire that collects a listing.
package session

import (
	"time"

	"listing-site-backend/internal/models"
	"listing-site-backend/internal/style"
)

type Step string

const (
	StepIdle               Step = "idle"
	StepMediaChoice        Step = "media_type_choice"
	StepCollectingPhoto    Step = "collecting_photo"
	StepCollectingVideo    Step = "collecting_video"
	StepDescription        Step = "description"
	StepStyleChoice        Step = "style_choice"
	StepTitle              Step = "title"
	StepPrice              Step = "price"
	StepLocation           Step = "location"
	StepSpecs              Step = "specs"
	StepContactsChoice     Step = "contacts_choice"
	StepCollectingContacts Step = "collecting_contacts"
	StepSynthesizing       Step = "synthesizing"
	StepLeadCollect        Step = "lead_collect"
)

// Session is the in-progress conversation of one user.
type Session struct {
	UserID int64
	Step   Step
	Fields models.Fields
	Media  []models.MediaItem
	Style  style.Descriptor

	// LeadListingID is set on the lead branch only.
	LeadListingID int64
	// LastShown keeps listing ids in the order "My listings" numbered them.
	LastShown []int64

	Touched time.Time
}

func newSession(userID int64) *Session {
	return &Session{
		UserID: userID,
		Step:   StepIdle,
		Fields: models.NewFields(),
	}
}

func (s *Session) counts() (photos, videos int) {
	return models.CountMedia(s.Media)
}

type InputKind int

const (
	InputText InputKind = iota
	InputPhoto
	InputVideo
	InputStart
)

func (k InputKind) String() string {
	switch k {
	case InputText:
		return "text"
	case InputPhoto:
		return "photo"
	case InputVideo:
		return "video"
	case InputStart:
		return "start"
	}
	return "unknown"
}

// Input is one inbound user event, already stripped of transport details.
type Input struct {
	Kind InputKind
	// Text holds the message text, or the deep-link payload for InputStart.
	Text string
	// FileRef is the transport reference of an attached photo or video.
	FileRef   string
	Username  string
	FirstName string
}

// Attachment is a file sent along with a reply.
type Attachment struct {
	Name string
	Data []byte
}

// Reply is one outbound message. ChatID zero means the sender. When Document
// is set Text becomes its caption.
type Reply struct {
	ChatID         int64
	Text           string
	Keyboard       [][]string
	RemoveKeyboard bool
	Document       *Attachment
}

// Effect is everything the transport has to deliver for one input.
type Effect struct {
	Replies []Reply
}

func (e *Effect) say(text string, keyboard [][]string) {
	e.Replies = append(e.Replies, Reply{Text: text, Keyboard: keyboard})
}

// Empty reports whether the input produced nothing to send.
func (e Effect) Empty() bool {
	return len(e.Replies) == 0
}
