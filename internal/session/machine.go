package session

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"listing-site-backend/internal/media"
	"listing-site-backend/internal/models"
	"listing-site-backend/internal/services"
	"listing-site-backend/internal/style"
)

// Generator runs the listing pipeline on behalf of the machine.
type Generator interface {
	Generate(ctx context.Context, draft services.Draft) (*services.Result, error)
	Regenerate(ctx context.Context, ownerID, listingID int64) (*services.Result, error)
	Listings(ctx context.Context, ownerID int64, limit int) ([]models.Listing, error)
	RecordLead(ctx context.Context, lead *models.Lead) (*models.Listing, error)
	RegisterUser(ctx context.Context, user *models.User) error
}

var _ Generator = (*services.ListingService)(nil)

// MediaNormalizer turns transport file references into media items.
type MediaNormalizer interface {
	Photo(ctx context.Context, ref string) (models.MediaItem, error)
	Video(ctx context.Context, ref string) (models.MediaItem, error)
}

var _ MediaNormalizer = (*media.Normalizer)(nil)

type Config struct {
	MaxPhotos int
	ListLimit int
}

// Machine is the questionnaire state machine. Handle must not be called
// concurrently for the same user, see Dispatcher.
type Machine struct {
	store  *Store
	gen    Generator
	media  MediaNormalizer
	styles *style.Resolver
	cfg    Config
	log    *zap.Logger
}

func NewMachine(store *Store, gen Generator, media MediaNormalizer, styles *style.Resolver, cfg Config, log *zap.Logger) *Machine {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.MaxPhotos <= 0 {
		cfg.MaxPhotos = 12
	}
	if cfg.ListLimit <= 0 {
		cfg.ListLimit = 10
	}
	return &Machine{
		store:  store,
		gen:    gen,
		media:  media,
		styles: styles,
		cfg:    cfg,
		log:    log.Named("machine"),
	}
}

// Handle processes one input of a user and returns what has to be sent back.
// Global triggers are checked first, everything else goes to the handler of
// the current step.
func (m *Machine) Handle(ctx context.Context, userID int64, in Input) Effect {
	text := strings.TrimSpace(in.Text)

	if in.Kind == InputStart {
		return m.start(ctx, userID, in)
	}
	if in.Kind == InputText {
		switch {
		case isCancel(text):
			return m.cancel(userID)
		case text == BtnCreate:
			return m.create(userID)
		case text == BtnListings:
			return m.listings(ctx, userID)
		case text == BtnSettings:
			return m.settings()
		}
		if match := editCommand.FindStringSubmatch(text); match != nil {
			return m.edit(ctx, userID, match[1])
		}
	}

	s, ok := m.store.Get(userID)
	if !ok {
		return Effect{}
	}

	var eff Effect
	switch s.Step {
	case StepMediaChoice:
		m.onMediaChoice(s, in, text, &eff)
	case StepCollectingPhoto, StepCollectingVideo:
		m.onCollecting(ctx, s, in, text, &eff)
	case StepDescription:
		m.onDescription(s, in, text, &eff)
	case StepStyleChoice:
		m.onStyleChoice(s, in, text, &eff)
	case StepTitle:
		if m.acceptText(in, text, &eff, "Please send the title as text.") {
			s.Fields.Title = text
			s.Step = StepPrice
			eff.say("💰 Enter the price (for example: $250,000):", cancelMenu())
		}
	case StepPrice:
		if m.acceptText(in, text, &eff, "Please send the price as text.") {
			s.Fields.Price = text
			s.Step = StepLocation
			eff.say("📍 Enter the address or district:", cancelMenu())
		}
	case StepLocation:
		if m.acceptText(in, text, &eff, "Please send the location as text.") {
			s.Fields.Location = text
			s.Step = StepSpecs
			eff.say("📐 Enter characteristics separated by commas: area, rooms, completion date\n"+
				"For example: <code>150 sqm, 3 rooms, Q4 2025</code>", cancelMenu())
		}
	case StepSpecs:
		if m.acceptText(in, text, &eff, "Please send characteristics as text.") {
			parseSpecs(text, &s.Fields)
			s.Step = StepContactsChoice
			eff.say("📞 Add broker contacts to the page?", yesNoMenu())
		}
	case StepContactsChoice:
		return m.onContactsChoice(ctx, s, in, text)
	case StepCollectingContacts:
		return m.onContacts(ctx, s, in, text)
	case StepLeadCollect:
		return m.onLead(ctx, s, in, text)
	default:
		// idle sessions only remember the listings page, synthesizing is transient
	}
	return eff
}

func (m *Machine) acceptText(in Input, text string, eff *Effect, prompt string) bool {
	if in.Kind == InputText && text != "" {
		return true
	}
	eff.say(prompt, cancelMenu())
	return false
}

func (m *Machine) start(ctx context.Context, userID int64, in Input) Effect {
	user := &models.User{ID: userID, Username: in.Username, FirstName: in.FirstName}
	if err := m.gen.RegisterUser(ctx, user); err != nil {
		m.log.Warn("Unable to register user", zap.Int64("user_id", userID), zap.Error(err))
	}

	var eff Effect
	payload := strings.TrimSpace(in.Text)
	if rest, ok := strings.CutPrefix(payload, "lead_"); ok {
		if id, err := strconv.ParseInt(rest, 10, 64); err == nil && id > 0 {
			s := newSession(userID)
			s.Step = StepLeadCollect
			s.LeadListingID = id
			m.store.Put(s)
			eff.say("📩 <b>Request for the property accepted!</b>\n\n"+
				"Please leave your contact:\nphone +1 555 123 4567 or email name@mail.com", cancelMenu())
			return eff
		}
		m.log.Debug("Malformed lead payload", zap.Int64("user_id", userID), zap.String("payload", payload))
	}

	m.store.Delete(userID)
	eff.say("<b>🏆 Listing page builder</b>\n\n"+
		"I turn your photos, videos and a few answers into a ready-to-publish property page.\n\n"+
		"• 📷 HD photo gallery\n• 🎥 Video tours\n• 🗺 Embedded map\n• 🎨 Automatic style detection\n• 📱 Responsive layout\n\n"+
		"Start with <b>"+BtnCreate+"</b> 👇", mainMenu())
	return eff
}

func (m *Machine) cancel(userID int64) Effect {
	m.store.Delete(userID)
	var eff Effect
	eff.say("❌ Cancelled. Nothing was saved.", mainMenu())
	return eff
}

func (m *Machine) create(userID int64) Effect {
	s := newSession(userID)
	if prev, ok := m.store.Get(userID); ok {
		s.LastShown = prev.LastShown
	}
	s.Step = StepMediaChoice
	m.store.Put(s)

	var eff Effect
	eff.say(fmt.Sprintf("🏗 <b>New listing</b>\n\nUpload photos (up to %d) and videos of the property. Choose what to send:", m.cfg.MaxPhotos), mediaMenu())
	return eff
}

func (m *Machine) settings() Effect {
	var eff Effect
	eff.say(fmt.Sprintf("⚙️ <b>Settings</b>\n\n"+
		"• Photos per listing: 1 to %d\n"+
		"• Video support\n"+
		"• Google Maps embed\n"+
		"• Automatic style detection\n"+
		"• %d hand-made themes\n"+
		"• Responsive layout", m.cfg.MaxPhotos, len(m.styles.Catalog())), mainMenu())
	return eff
}

func (m *Machine) listings(ctx context.Context, userID int64) Effect {
	var eff Effect

	items, err := m.gen.Listings(ctx, userID, m.cfg.ListLimit)
	if err != nil {
		m.log.Error("Unable to list listings", zap.Int64("user_id", userID), zap.Error(err))
		eff.say("❌ Could not load your listings, please try again later.", mainMenu())
		return eff
	}
	if len(items) == 0 {
		eff.say("📭 <b>You have no listings yet</b>\n\nStart with "+BtnCreate, mainMenu())
		return eff
	}

	s, ok := m.store.Get(userID)
	if !ok {
		s = newSession(userID)
		m.store.Put(s)
	}
	s.LastShown = s.LastShown[:0]

	var b strings.Builder
	b.WriteString("📋 <b>Your listings:</b>\n\n")
	for i, l := range items {
		s.LastShown = append(s.LastShown, l.ID)
		fmt.Fprintf(&b, "%d. <b>%s</b>\n   🎨 %s · 📅 %s\n\n",
			i+1, html.EscapeString(l.Fields.Title), html.EscapeString(l.StyleName), l.CreatedAt.Format("2006-01-02"))
	}
	fmt.Fprintf(&b, "<b>Total:</b> %d\n\nTo rebuild a listing send <code>Edit N</code> (for example: Edit 1)", len(items))
	eff.say(b.String(), mainMenu())
	return eff
}

func (m *Machine) edit(ctx context.Context, userID int64, num string) Effect {
	var eff Effect

	idx, _ := strconv.Atoi(num)
	s, ok := m.store.Get(userID)
	if !ok || idx < 1 || idx > len(s.LastShown) {
		eff.say("❌ Invalid number. Open "+BtnListings+" and try again.", mainMenu())
		return eff
	}
	listingID := s.LastShown[idx-1]

	res, err := m.gen.Regenerate(ctx, userID, listingID)
	switch {
	case errors.Is(err, services.ErrListingNotFound):
		eff.say("❌ Listing not found.", mainMenu())
		return eff
	case err != nil:
		m.log.Error("Unable to rebuild listing", zap.Int64("user_id", userID), zap.Int64("listing_id", listingID), zap.Error(err))
		eff.say("❌ Could not rebuild the listing, please try again later.", mainMenu())
		return eff
	}

	eff.Replies = append(eff.Replies, resultReply("♻️ <b>Listing rebuilt!</b>", res))
	return eff
}

func (m *Machine) onMediaChoice(s *Session, in Input, text string, eff *Effect) {
	if in.Kind != InputText {
		eff.say("Choose the media type with the buttons below.", mediaMenu())
		return
	}
	switch text {
	case BtnPhoto:
		s.Step = StepCollectingPhoto
		eff.say(fmt.Sprintf("📸 Send photos one by one (up to %d). Press %q when done.", m.cfg.MaxPhotos, BtnBack), collectingMenu())
	case BtnVideo:
		s.Step = StepCollectingVideo
		eff.say(fmt.Sprintf("🎥 Send videos one by one. Press %q when done.", BtnBack), collectingMenu())
	case BtnFinish:
		photos, videos := s.counts()
		if photos+videos == 0 {
			eff.say("⚠️ Add at least one photo or video first.", mediaMenu())
			return
		}
		s.Step = StepDescription
		eff.say(fmt.Sprintf("✅ Media saved: %d photo(s), %d video(s).\n\n📝 Now send the property description:", photos, videos), cancelMenu())
	default:
		eff.say("Choose the media type with the buttons below.", mediaMenu())
	}
}

func (m *Machine) onCollecting(ctx context.Context, s *Session, in Input, text string, eff *Effect) {
	want := InputPhoto
	if s.Step == StepCollectingVideo {
		want = InputVideo
	}

	switch {
	case in.Kind == InputText && text == BtnBack:
		s.Step = StepMediaChoice
		photos, videos := s.counts()
		eff.say(fmt.Sprintf("Uploaded so far: %d photo(s), %d video(s). Choose what to send next:", photos, videos), mediaMenu())
		return
	case in.Kind != want:
		if want == InputPhoto {
			eff.say("Send a photo or press "+BtnBack+".", collectingMenu())
		} else {
			eff.say("Send a video or press "+BtnBack+".", collectingMenu())
		}
		return
	}

	log := m.log.With(zap.Int64("user_id", s.UserID), zap.String("step", string(s.Step)))

	var (
		item models.MediaItem
		err  error
	)
	if want == InputPhoto {
		if photos, _ := s.counts(); photos >= m.cfg.MaxPhotos {
			eff.say(fmt.Sprintf("⚠️ Photo limit reached (%d). Press %s.", m.cfg.MaxPhotos, BtnBack), collectingMenu())
			return
		}
		item, err = m.media.Photo(ctx, in.FileRef)
	} else {
		item, err = m.media.Video(ctx, in.FileRef)
	}
	if err != nil {
		log.Warn("Unable to process media", zap.String("ref", in.FileRef), zap.Error(err))
		eff.say("❌ Could not process this file, please send another one.", collectingMenu())
		return
	}

	s.Media = append(s.Media, item)
	photos, videos := s.counts()
	if want == InputPhoto {
		eff.say(fmt.Sprintf("📸 Photo %d added.", photos), collectingMenu())
	} else {
		eff.say(fmt.Sprintf("🎥 Video %d added.", videos), collectingMenu())
	}
}

func (m *Machine) onDescription(s *Session, in Input, text string, eff *Effect) {
	if !m.acceptText(in, text, eff, "📝 Please send the description as text.") {
		return
	}
	s.Fields.Description = text
	s.Style = m.styles.Detect(text)
	s.Step = StepStyleChoice
	eff.say(fmt.Sprintf("🎨 Choose a style. Detected from the description: <b>%s</b>", html.EscapeString(s.Style.Name)),
		styleMenu(m.styles.Labels()))
}

func (m *Machine) onStyleChoice(s *Session, in Input, text string, eff *Effect) {
	if in.Kind != InputText {
		eff.say("Choose a style with the buttons below.", styleMenu(m.styles.Labels()))
		return
	}
	if text != style.AutoLabel {
		d, ok := m.styles.ByLabel(text)
		if !ok {
			eff.say("Choose a style with the buttons below.", styleMenu(m.styles.Labels()))
			return
		}
		s.Style = d
	}
	s.Step = StepTitle
	eff.say(fmt.Sprintf("Style: <b>%s</b>\n\n🏷 Enter the listing title:", html.EscapeString(s.Style.Name)), cancelMenu())
}

func (m *Machine) onContactsChoice(ctx context.Context, s *Session, in Input, text string) Effect {
	var eff Effect
	switch {
	case in.Kind == InputText && text == BtnYes:
		s.Step = StepCollectingContacts
		eff.say("Send contacts, one per line:\n"+
			"<code>phone: +1 555 123 4567\nemail: name@mail.com\ntelegram: @username</code>", contactsMenu())
		return eff
	case in.Kind == InputText && text == BtnNo:
		return m.synthesize(ctx, s)
	}
	eff.say("📞 Add broker contacts to the page?", yesNoMenu())
	return eff
}

func (m *Machine) onContacts(ctx context.Context, s *Session, in Input, text string) Effect {
	if in.Kind != InputText || text == "" {
		var eff Effect
		eff.say("Send contacts as text or press "+BtnSkipContacts+".", contactsMenu())
		return eff
	}
	if text != BtnSkipContacts {
		parseContacts(text, &s.Fields)
	}
	return m.synthesize(ctx, s)
}

// synthesize hands the collected draft to the generator. The session is gone
// afterwards whatever the outcome.
func (m *Machine) synthesize(ctx context.Context, s *Session) Effect {
	s.Step = StepSynthesizing
	defer m.store.Delete(s.UserID)

	var eff Effect
	res, err := m.gen.Generate(ctx, services.Draft{
		OwnerID: s.UserID,
		Fields:  s.Fields,
		Media:   s.Media,
		Style:   s.Style,
	})
	if err != nil {
		m.log.Error("Unable to generate listing", zap.Int64("user_id", s.UserID), zap.Error(err))
		eff.say("❌ Could not build the page, please try again.", mainMenu())
		return eff
	}

	eff.Replies = append(eff.Replies, resultReply("✅ <b>Your page is ready!</b>", res))
	return eff
}

func (m *Machine) onLead(ctx context.Context, s *Session, in Input, text string) Effect {
	var eff Effect
	if in.Kind != InputText || text == "" {
		eff.say("Please send your phone number or email as text.", cancelMenu())
		return eff
	}
	defer m.store.Delete(s.UserID)

	phone, email := extractLeadContacts(text)
	lead := &models.Lead{
		ListingID: s.LeadListingID,
		UserID:    s.UserID,
		Username:  in.Username,
		FirstName: in.FirstName,
		Phone:     phone,
		Email:     email,
		Message:   text,
	}

	listing, err := m.gen.RecordLead(ctx, lead)
	switch {
	case errors.Is(err, services.ErrListingNotFound):
		eff.say("❌ Listing not found.", mainMenu())
		return eff
	case err != nil:
		m.log.Error("Unable to record lead", zap.Int64("user_id", s.UserID), zap.Int64("listing_id", s.LeadListingID), zap.Error(err))
		eff.say("❌ Could not send your request, please try again later.", mainMenu())
		return eff
	}

	eff.say("✅ Thank you! Your request has been sent, the broker will contact you soon.", mainMenu())
	eff.Replies = append(eff.Replies, Reply{ChatID: listing.OwnerID, Text: leadNotice(listing, lead)})
	return eff
}

func leadNotice(l *models.Listing, lead *models.Lead) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📩 <b>New lead for \"%s\"</b> (#%d)\n\n", html.EscapeString(l.Fields.Title), l.ID)
	who := strings.TrimSpace(lead.FirstName)
	if lead.Username != "" {
		who = strings.TrimSpace(who + " @" + lead.Username)
	}
	if who != "" {
		fmt.Fprintf(&b, "👤 %s\n", html.EscapeString(who))
	}
	if lead.Phone != "" {
		fmt.Fprintf(&b, "📞 %s\n", html.EscapeString(lead.Phone))
	}
	if lead.Email != "" {
		fmt.Fprintf(&b, "📧 %s\n", html.EscapeString(lead.Email))
	}
	fmt.Fprintf(&b, "\n💬 %s", html.EscapeString(lead.Message))
	return b.String()
}

func resultReply(headline string, res *services.Result) Reply {
	var b strings.Builder
	b.WriteString(headline)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "🏷 <b>Title:</b> %s\n", html.EscapeString(res.Listing.Fields.Title))
	fmt.Fprintf(&b, "🎨 <b>Style:</b> %s\n", html.EscapeString(res.Listing.StyleName))
	fmt.Fprintf(&b, "📸 Photos: %d | 🎥 Videos: %d\n", res.Photos, res.Videos)
	if res.HasMap {
		b.WriteString("🗺 Map: yes\n")
	} else {
		b.WriteString("🗺 Map: no\n")
	}
	if res.Location != "" {
		fmt.Fprintf(&b, "🌐 <b>Published:</b> %s\n", html.EscapeString(res.Location))
	}
	fmt.Fprintf(&b, "📩 <b>Lead link:</b> %s", html.EscapeString(res.LeadLink))

	return Reply{
		Text:     b.String(),
		Keyboard: mainMenu(),
		Document: &Attachment{Name: res.FileName, Data: []byte(res.Document)},
	}
}
