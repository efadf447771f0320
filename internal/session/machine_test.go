package session

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listing-site-backend/internal/models"
	"listing-site-backend/internal/services"
	"listing-site-backend/internal/style"
)

type fakeGenerator struct {
	drafts      []services.Draft
	regenerated []int64
	leads       []*models.Lead
	users       []*models.User
	listings    []models.Listing
	owners      map[int64]int64
	genErr      error
}

func (g *fakeGenerator) Generate(_ context.Context, d services.Draft) (*services.Result, error) {
	if g.genErr != nil {
		return nil, g.genErr
	}
	g.drafts = append(g.drafts, d)
	photos, videos := models.CountMedia(d.Media)
	return &services.Result{
		Listing:  &models.Listing{ID: int64(len(g.drafts)), OwnerID: d.OwnerID, Fields: d.Fields, StyleKey: d.Style.Key, StyleName: d.Style.Name},
		Document: "<html></html>",
		FileName: "page.html",
		LeadLink: "https://t.me/bot?start=lead_1",
		Photos:   photos,
		Videos:   videos,
	}, nil
}

func (g *fakeGenerator) Regenerate(_ context.Context, ownerID, listingID int64) (*services.Result, error) {
	if g.owners[listingID] != ownerID {
		return nil, services.ErrListingNotFound
	}
	g.regenerated = append(g.regenerated, listingID)
	return &services.Result{
		Listing:  &models.Listing{ID: listingID, OwnerID: ownerID, Fields: models.Fields{Title: "Rebuilt"}},
		Document: "<html></html>",
		FileName: "rebuilt.html",
	}, nil
}

func (g *fakeGenerator) Listings(_ context.Context, ownerID int64, limit int) ([]models.Listing, error) {
	return g.listings, nil
}

func (g *fakeGenerator) RecordLead(_ context.Context, lead *models.Lead) (*models.Listing, error) {
	owner, ok := g.owners[lead.ListingID]
	if !ok {
		return nil, services.ErrListingNotFound
	}
	g.leads = append(g.leads, lead)
	return &models.Listing{ID: lead.ListingID, OwnerID: owner, Fields: models.Fields{Title: "Sunny Loft"}}, nil
}

func (g *fakeGenerator) RegisterUser(_ context.Context, u *models.User) error {
	g.users = append(g.users, u)
	return nil
}

type fakeMedia struct{ fail bool }

func (f fakeMedia) Photo(_ context.Context, ref string) (models.MediaItem, error) {
	if f.fail {
		return models.MediaItem{}, errors.New("broken image")
	}
	return models.MediaItem{ID: uuid.New(), Kind: models.MediaPhoto, Source: ref, MimeType: "image/jpeg", Data: []byte("jpg")}, nil
}

func (f fakeMedia) Video(_ context.Context, ref string) (models.MediaItem, error) {
	return models.MediaItem{ID: uuid.New(), Kind: models.MediaVideo, Source: ref, MimeType: "video/mp4"}, nil
}

const user = int64(100)

func newTestMachine(gen *fakeGenerator, m MediaNormalizer, cfg Config) (*Machine, *Store) {
	store := NewStore(0, nil)
	return NewMachine(store, gen, m, style.NewResolver(), cfg, nil), store
}

func text(s string) Input { return Input{Kind: InputText, Text: s} }

func send(t *testing.T, m *Machine, in Input) Effect {
	t.Helper()
	return m.Handle(context.Background(), user, in)
}

func step(t *testing.T, st *Store) Step {
	t.Helper()
	s, ok := st.Get(user)
	require.True(t, ok, "session expected")
	return s.Step
}

func TestMachine_FullQuestionnaire(t *testing.T) {
	gen := &fakeGenerator{}
	m, st := newTestMachine(gen, fakeMedia{}, Config{})

	eff := send(t, m, Input{Kind: InputStart, Username: "broker", FirstName: "Ann"})
	require.Len(t, eff.Replies, 1)
	assert.Equal(t, mainMenu(), eff.Replies[0].Keyboard)
	require.Len(t, gen.users, 1)
	assert.Equal(t, "broker", gen.users[0].Username)

	send(t, m, text(BtnCreate))
	assert.Equal(t, StepMediaChoice, step(t, st))

	send(t, m, text(BtnPhoto))
	assert.Equal(t, StepCollectingPhoto, step(t, st))
	send(t, m, Input{Kind: InputPhoto, FileRef: "p1"})
	eff = send(t, m, Input{Kind: InputPhoto, FileRef: "p2"})
	assert.Contains(t, eff.Replies[0].Text, "Photo 2 added")

	send(t, m, text(BtnBack))
	send(t, m, text(BtnVideo))
	send(t, m, Input{Kind: InputVideo, FileRef: "v1"})
	send(t, m, text(BtnBack))
	eff = send(t, m, text(BtnFinish))
	assert.Contains(t, eff.Replies[0].Text, "2 photo(s), 1 video(s)")
	assert.Equal(t, StepDescription, step(t, st))

	eff = send(t, m, text("Luxury penthouse with a pool"))
	assert.Contains(t, eff.Replies[0].Text, "Luxury")
	assert.Equal(t, StepStyleChoice, step(t, st))

	send(t, m, text(style.AutoLabel))
	send(t, m, text("Sunny Penthouse"))
	send(t, m, text("$1,200,000"))
	send(t, m, text("Moscow, Tverskaya 1"))
	send(t, m, text("150 sqm, 3 rooms, 2025"))
	assert.Equal(t, StepContactsChoice, step(t, st))

	send(t, m, text(BtnYes))
	assert.Equal(t, StepCollectingContacts, step(t, st))
	eff = send(t, m, text("phone: +1 555 123 4567\nemail: agent@mail.com\ntelegram: @broker_x"))

	require.Len(t, gen.drafts, 1)
	d := gen.drafts[0]
	assert.Equal(t, user, d.OwnerID)
	assert.Equal(t, "luxury", d.Style.Key)
	assert.Equal(t, "Sunny Penthouse", d.Fields.Title)
	assert.Equal(t, "Luxury penthouse with a pool", d.Fields.Description)
	assert.Equal(t, "$1,200,000", d.Fields.Price)
	assert.Equal(t, "Moscow, Tverskaya 1", d.Fields.Location)
	assert.Equal(t, "150 sqm", d.Fields.Area)
	assert.Equal(t, "3 rooms", d.Fields.Rooms)
	assert.Equal(t, "2025", d.Fields.CompletionDate)
	assert.Equal(t, "+1 555 123 4567", d.Fields.BrokerPhone)
	assert.Equal(t, "agent@mail.com", d.Fields.BrokerEmail)
	assert.Equal(t, "broker_x", d.Fields.BrokerTelegram)
	assert.Len(t, d.Media, 3)

	require.Len(t, eff.Replies, 1)
	r := eff.Replies[0]
	require.NotNil(t, r.Document)
	assert.Equal(t, "page.html", r.Document.Name)
	assert.Contains(t, r.Text, "Photos: 2 | 🎥 Videos: 1")
	assert.Contains(t, r.Text, "Sunny Penthouse")

	_, ok := st.Get(user)
	assert.False(t, ok, "session must be gone after synthesis")
}

func TestMachine_ExplicitStyleAndSkippedContacts(t *testing.T) {
	gen := &fakeGenerator{}
	m, _ := newTestMachine(gen, fakeMedia{}, Config{})

	send(t, m, text(BtnCreate))
	send(t, m, text(BtnPhoto))
	send(t, m, Input{Kind: InputPhoto, FileRef: "p1"})
	send(t, m, text(BtnBack))
	send(t, m, text(BtnFinish))
	send(t, m, text("Luxury villa"))
	send(t, m, text("🌃 Neon City"))
	send(t, m, text("Villa"))
	send(t, m, text("$1"))
	send(t, m, text("Nice"))
	send(t, m, text("120 sqm"))
	send(t, m, text(BtnYes))
	send(t, m, text(BtnSkipContacts))

	require.Len(t, gen.drafts, 1)
	d := gen.drafts[0]
	assert.Equal(t, "neon_city", d.Style.Key)
	assert.Equal(t, "120 sqm", d.Fields.Area)
	assert.Equal(t, models.NotSpecified, d.Fields.Rooms)
	assert.False(t, d.Fields.HasContacts())
}

func TestMachine_FinishWithoutMedia(t *testing.T) {
	m, st := newTestMachine(&fakeGenerator{}, fakeMedia{}, Config{})

	send(t, m, text(BtnCreate))
	eff := send(t, m, text(BtnFinish))
	assert.Contains(t, eff.Replies[0].Text, "at least one")
	assert.Equal(t, StepMediaChoice, step(t, st))
}

func TestMachine_PhotoLimit(t *testing.T) {
	m, _ := newTestMachine(&fakeGenerator{}, fakeMedia{}, Config{MaxPhotos: 1})

	send(t, m, text(BtnCreate))
	send(t, m, text(BtnPhoto))
	send(t, m, Input{Kind: InputPhoto, FileRef: "p1"})
	eff := send(t, m, Input{Kind: InputPhoto, FileRef: "p2"})
	assert.Contains(t, eff.Replies[0].Text, "limit reached")
}

func TestMachine_WrongInputKeepsStep(t *testing.T) {
	m, st := newTestMachine(&fakeGenerator{}, fakeMedia{}, Config{})

	send(t, m, text(BtnCreate))
	send(t, m, text(BtnPhoto))
	eff := send(t, m, Input{Kind: InputVideo, FileRef: "v1"})
	assert.Contains(t, eff.Replies[0].Text, "Send a photo")
	assert.Equal(t, StepCollectingPhoto, step(t, st))

	send(t, m, text(BtnBack))
	eff = send(t, m, Input{Kind: InputPhoto, FileRef: "p1"})
	assert.Contains(t, eff.Replies[0].Text, "Choose the media type")
	assert.Equal(t, StepMediaChoice, step(t, st))

	send(t, m, text(BtnPhoto))
	send(t, m, Input{Kind: InputPhoto, FileRef: "p1"})
	send(t, m, text(BtnBack))
	send(t, m, text(BtnFinish))
	eff = send(t, m, Input{Kind: InputPhoto, FileRef: "p2"})
	assert.Contains(t, eff.Replies[0].Text, "description as text")
	assert.Equal(t, StepDescription, step(t, st))
}

func TestMachine_MediaFailureContinues(t *testing.T) {
	m, st := newTestMachine(&fakeGenerator{}, fakeMedia{fail: true}, Config{})

	send(t, m, text(BtnCreate))
	send(t, m, text(BtnPhoto))
	eff := send(t, m, Input{Kind: InputPhoto, FileRef: "p1"})
	assert.Contains(t, eff.Replies[0].Text, "Could not process")
	assert.Equal(t, StepCollectingPhoto, step(t, st))

	s, _ := st.Get(user)
	assert.Empty(t, s.Media)
}

func TestMachine_CancelFromAnyStep(t *testing.T) {
	m, st := newTestMachine(&fakeGenerator{}, fakeMedia{}, Config{})

	send(t, m, text(BtnCreate))
	send(t, m, text(BtnPhoto))
	eff := send(t, m, text(BtnCancel))
	assert.Contains(t, eff.Replies[0].Text, "Cancelled")
	_, ok := st.Get(user)
	assert.False(t, ok)

	eff = send(t, m, text("/cancel"))
	assert.Contains(t, eff.Replies[0].Text, "Cancelled")
}

func TestMachine_TextWithoutSessionIsIgnored(t *testing.T) {
	m, _ := newTestMachine(&fakeGenerator{}, fakeMedia{}, Config{})
	assert.True(t, send(t, m, text("hello")).Empty())
}

func TestMachine_GenerationFailureDropsSession(t *testing.T) {
	gen := &fakeGenerator{genErr: errors.New("disk full")}
	m, st := newTestMachine(gen, fakeMedia{}, Config{})

	send(t, m, text(BtnCreate))
	send(t, m, text(BtnPhoto))
	send(t, m, Input{Kind: InputPhoto, FileRef: "p1"})
	send(t, m, text(BtnBack))
	send(t, m, text(BtnFinish))
	for _, s := range []string{"desc", style.AutoLabel, "t", "p", "l", "s"} {
		send(t, m, text(s))
	}
	eff := send(t, m, text(BtnNo))
	assert.Contains(t, eff.Replies[0].Text, "Could not build")
	_, ok := st.Get(user)
	assert.False(t, ok)
}

func TestMachine_LeadFlow(t *testing.T) {
	gen := &fakeGenerator{owners: map[int64]int64{5: 42}}
	m, st := newTestMachine(gen, fakeMedia{}, Config{})

	eff := send(t, m, Input{Kind: InputStart, Text: "lead_5"})
	assert.Contains(t, eff.Replies[0].Text, "Request for the property accepted")
	assert.Equal(t, StepLeadCollect, step(t, st))

	eff = m.Handle(context.Background(), user, Input{Kind: InputText, Text: "Call me +1 555 123 4567 or buyer@mail.com", Username: "buyer"})
	require.Len(t, gen.leads, 1)
	lead := gen.leads[0]
	assert.Equal(t, int64(5), lead.ListingID)
	assert.Equal(t, "+1 555 123 4567", lead.Phone)
	assert.Equal(t, "buyer@mail.com", lead.Email)

	require.Len(t, eff.Replies, 2)
	assert.Zero(t, eff.Replies[0].ChatID)
	assert.Equal(t, int64(42), eff.Replies[1].ChatID)
	assert.Contains(t, eff.Replies[1].Text, "@buyer")
	assert.Contains(t, eff.Replies[1].Text, "Sunny Loft")

	_, ok := st.Get(user)
	assert.False(t, ok)
}

func TestMachine_LeadForUnknownListing(t *testing.T) {
	gen := &fakeGenerator{owners: map[int64]int64{}}
	m, _ := newTestMachine(gen, fakeMedia{}, Config{})

	send(t, m, Input{Kind: InputStart, Text: "lead_9"})
	eff := send(t, m, text("+1 555 123 4567"))
	require.Len(t, eff.Replies, 1)
	assert.Contains(t, eff.Replies[0].Text, "Listing not found")
}

func TestMachine_MalformedLeadPayloadShowsMenu(t *testing.T) {
	m, st := newTestMachine(&fakeGenerator{}, fakeMedia{}, Config{})

	eff := send(t, m, Input{Kind: InputStart, Text: "lead_abc"})
	assert.Equal(t, mainMenu(), eff.Replies[0].Keyboard)
	_, ok := st.Get(user)
	assert.False(t, ok)
}

func TestMachine_ListingsAndEdit(t *testing.T) {
	gen := &fakeGenerator{
		owners: map[int64]int64{11: user, 10: user},
		listings: []models.Listing{
			{ID: 11, OwnerID: user, Fields: models.Fields{Title: "Newest"}},
			{ID: 10, OwnerID: user, Fields: models.Fields{Title: "Older"}},
		},
	}
	m, _ := newTestMachine(gen, fakeMedia{}, Config{})

	eff := send(t, m, text(BtnListings))
	assert.Contains(t, eff.Replies[0].Text, "1. <b>Newest</b>")
	assert.Contains(t, eff.Replies[0].Text, "2. <b>Older</b>")

	eff = send(t, m, text("Edit 2"))
	assert.Equal(t, []int64{10}, gen.regenerated)
	require.NotNil(t, eff.Replies[0].Document)
	assert.Equal(t, "rebuilt.html", eff.Replies[0].Document.Name)

	eff = send(t, m, text("edit 3"))
	assert.Contains(t, eff.Replies[0].Text, "Invalid number")
}

func TestMachine_EditForeignListing(t *testing.T) {
	gen := &fakeGenerator{
		owners:   map[int64]int64{11: 7},
		listings: []models.Listing{{ID: 11}},
	}
	m, _ := newTestMachine(gen, fakeMedia{}, Config{})

	send(t, m, text(BtnListings))
	eff := send(t, m, text("Edit 1"))
	assert.Contains(t, eff.Replies[0].Text, "Listing not found")
}

func TestMachine_CreateKeepsShownListings(t *testing.T) {
	gen := &fakeGenerator{listings: []models.Listing{{ID: 3}}}
	m, st := newTestMachine(gen, fakeMedia{}, Config{})

	send(t, m, text(BtnListings))
	send(t, m, text(BtnCreate))
	s, ok := st.Get(user)
	require.True(t, ok)
	assert.Equal(t, []int64{3}, s.LastShown)
}

func TestMachine_Settings(t *testing.T) {
	m, _ := newTestMachine(&fakeGenerator{}, fakeMedia{}, Config{MaxPhotos: 5})
	eff := send(t, m, text(BtnSettings))
	assert.Contains(t, eff.Replies[0].Text, fmt.Sprintf("1 to %d", 5))
}
