package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// NotSpecified is the default value of spec fields the user did not provide.
const NotSpecified = "not specified"

type MediaKind string

const (
	MediaPhoto MediaKind = "photo"
	MediaVideo MediaKind = "video"
)

// MediaItem is one uploaded asset. Photos carry normalized JPEG bytes, videos
// only the transport file reference which is resolved at publication time.
type MediaItem struct {
	ID       uuid.UUID `json:"id"`
	Kind     MediaKind `json:"kind"`
	Source   string    `json:"source"`
	MimeType string    `json:"mime_type,omitempty"`
	Data     []byte    `json:"data,omitempty"`
}

// Fields are the questionnaire answers.
type Fields struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	Price          string `json:"price"`
	Location       string `json:"location"`
	Area           string `json:"area"`
	Rooms          string `json:"rooms"`
	CompletionDate string `json:"completion_date"`
	BrokerPhone    string `json:"broker_phone,omitempty"`
	BrokerEmail    string `json:"broker_email,omitempty"`
	BrokerTelegram string `json:"broker_telegram,omitempty"`
}

// NewFields returns fields with spec values set to NotSpecified.
func NewFields() Fields {
	return Fields{
		Area:           NotSpecified,
		Rooms:          NotSpecified,
		CompletionDate: NotSpecified,
	}
}

func (f Fields) HasContacts() bool {
	return f.BrokerPhone != "" || f.BrokerEmail != "" || f.BrokerTelegram != ""
}

type Listing struct {
	ID        int64
	OwnerID   int64
	Fields    Fields
	StyleKey  string
	StyleName string
	Document  string
	Media     json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Lead struct {
	ID        int64
	ListingID int64
	UserID    int64
	Username  string
	FirstName string
	Phone     string
	Email     string
	Message   string
	CreatedAt time.Time
}

type User struct {
	ID        int64
	Username  string
	FirstName string
	CreatedAt time.Time
}

// EncodeManifest serializes media for storage alongside a listing.
func EncodeManifest(items []MediaItem) (json.RawMessage, error) {
	if items == nil {
		items = []MediaItem{}
	}
	return json.Marshal(items)
}

// DecodeManifest restores media stored by EncodeManifest. An empty manifest
// yields no items.
func DecodeManifest(raw json.RawMessage) ([]MediaItem, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var items []MediaItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// CountMedia returns number of photos and videos.
func CountMedia(items []MediaItem) (photos, videos int) {
	for _, m := range items {
		switch m.Kind {
		case MediaPhoto:
			photos++
		case MediaVideo:
			videos++
		}
	}
	return photos, videos
}
