package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"listing-site-backend/internal/database"
	"listing-site-backend/internal/models"
	"listing-site-backend/internal/page"
	"listing-site-backend/internal/publish"
	"listing-site-backend/internal/style"
)

var ErrListingNotFound = errors.New("listing not found")

// Publisher stores a listing page somewhere the public can reach it.
type Publisher interface {
	Publish(ctx context.Context, id int64, render publish.Renderer, items []models.MediaItem) (*publish.Publication, error)
	// Withdraw removes everything published for id.
	Withdraw(ctx context.Context, id int64) error
	LeadLink(id int64) string
}

var _ Publisher = (*publish.Sink)(nil)

// Draft is a completed questionnaire.
type Draft struct {
	OwnerID int64
	Fields  models.Fields
	Media   []models.MediaItem
	Style   style.Descriptor
}

// Result is what the owner gets back after a listing has been generated.
type Result struct {
	Listing *models.Listing
	// Document is the self-contained page with photos inlined.
	Document string
	FileName string
	// Location is empty when publication failed.
	Location string
	LeadLink string
	Photos   int
	Videos   int
	HasMap   bool
}

type Options struct {
	Badge string
	Lang  string
}

type ListingService struct {
	repo   database.Repository
	pub    Publisher
	styles *style.Resolver
	opts   Options
	now    func() time.Time
	log    *zap.Logger
}

func NewListingService(repo database.Repository, pub Publisher, styles *style.Resolver, opts Options, log *zap.Logger) *ListingService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ListingService{
		repo:   repo,
		pub:    pub,
		styles: styles,
		opts:   opts,
		now:    time.Now,
		log:    log.Named("listings"),
	}
}

// Generate synthesizes the page, stores the listing to obtain its id,
// publishes it and stores the final document. When the final document cannot
// be stored the new listing and its publication are rolled back.
func (s *ListingService) Generate(ctx context.Context, d Draft) (*Result, error) {
	if d.Style.Key == "" {
		d.Style = style.Default()
	}
	now := s.now().UTC()
	render := s.renderer(d.Fields, d.Style, now.Year())

	doc, err := render(d.Media)
	if err != nil {
		return nil, err
	}
	manifest, err := models.EncodeManifest(d.Media)
	if err != nil {
		return nil, fmt.Errorf("failed to encode media: %w", err)
	}

	l := &models.Listing{
		OwnerID:   d.OwnerID,
		Fields:    d.Fields,
		StyleKey:  d.Style.Key,
		StyleName: d.Style.Name,
		Document:  doc,
		Media:     manifest,
		CreatedAt: now,
		UpdatedAt: now,
	}
	id, err := s.repo.Create(ctx, l)
	if err != nil {
		return nil, fmt.Errorf("failed to store listing: %w", err)
	}
	l.ID = id

	log := s.log.With(zap.Int64("listing_id", id))
	log.Info("Listing created", zap.Int64("user_id", d.OwnerID), zap.String("style", d.Style.Key))

	res, err := s.finish(ctx, l, render, d.Media)
	if err != nil {
		if werr := s.pub.Withdraw(ctx, id); werr != nil {
			log.Error("Unable to withdraw publication", zap.Error(werr))
		}
		if derr := s.repo.Delete(ctx, id, d.OwnerID); derr != nil {
			log.Error("Unable to roll back listing", zap.Error(derr))
		}
		return nil, err
	}
	return res, nil
}

// Regenerate rebuilds a stored listing from its fields, media and style and
// overwrites it under the same id. When the final document cannot be stored
// the previous record is left as it was.
func (s *ListingService) Regenerate(ctx context.Context, ownerID, listingID int64) (*Result, error) {
	l, err := s.Listing(ctx, ownerID, listingID)
	if err != nil {
		return nil, err
	}
	items, err := models.DecodeManifest(l.Media)
	if err != nil {
		return nil, fmt.Errorf("failed to decode media of listing %d: %w", l.ID, err)
	}

	st, ok := s.styles.ByKey(l.StyleKey)
	if !ok {
		s.log.Warn("Stored style is unknown, using default",
			zap.Int64("listing_id", l.ID), zap.String("style", l.StyleKey))
		st = style.Default()
	}
	l.StyleKey, l.StyleName = st.Key, st.Name

	return s.finish(ctx, l, s.renderer(l.Fields, st, l.CreatedAt.UTC().Year()), items)
}

func (s *ListingService) renderer(f models.Fields, st style.Descriptor, year int) publish.Renderer {
	opts := page.Options{Year: year, Badge: s.opts.Badge, Lang: s.opts.Lang}
	return func(items []models.MediaItem) (string, error) {
		doc, err := page.Synthesize(f, items, st, opts)
		if err != nil {
			return "", fmt.Errorf("failed to synthesize page: %w", err)
		}
		return doc.HTML, nil
	}
}

func (s *ListingService) finish(ctx context.Context, l *models.Listing, render publish.Renderer, items []models.MediaItem) (*Result, error) {
	log := s.log.With(zap.Int64("listing_id", l.ID))

	res := &Result{
		Listing:  l,
		FileName: FileName(l),
		LeadLink: s.pub.LeadLink(l.ID),
		HasMap:   page.MapURL(l.Fields.Location) != "",
	}

	var (
		html  string
		shown []models.MediaItem
	)
	pub, err := s.pub.Publish(ctx, l.ID, func(kept []models.MediaItem) (string, error) {
		doc, err := render(kept)
		if err != nil {
			return "", err
		}
		html, shown = doc, kept
		return doc, nil
	}, items)
	if err != nil {
		log.Warn("Publication incomplete", zap.Error(err))
	}

	if pub != nil {
		res.Location = pub.Location
	} else {
		// nothing stored, videos have no source to point at
		shown = photosOf(items)
		if html, err = render(shown); err != nil {
			return nil, err
		}
	}
	res.Photos, res.Videos = models.CountMedia(shown)

	final := page.Inline(page.ResolveLead(html, res.LeadLink), shown)
	if pub != nil {
		// videos are too heavy to inline, point them at the published copies
		final = page.Relink(final, shown, func(it models.MediaItem) (string, bool) {
			link, ok := pub.Links[it.ID]
			return link, ok
		})
	}
	res.Document = final
	l.Document = res.Document
	l.UpdatedAt = s.now().UTC()
	if err := s.repo.Replace(ctx, l); err != nil {
		return nil, fmt.Errorf("failed to store final document: %w", err)
	}
	return res, nil
}

func photosOf(items []models.MediaItem) []models.MediaItem {
	var photos []models.MediaItem
	for _, it := range items {
		if it.Kind == models.MediaPhoto {
			photos = append(photos, it)
		}
	}
	return photos
}

// Listing returns a listing of the owner.
func (s *ListingService) Listing(ctx context.Context, ownerID, listingID int64) (*models.Listing, error) {
	l, err := s.repo.Get(ctx, listingID, ownerID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrListingNotFound, listingID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load listing %d: %w", listingID, err)
	}
	return l, nil
}

func (s *ListingService) Listings(ctx context.Context, ownerID int64, limit int) ([]models.Listing, error) {
	return s.repo.ListByOwner(ctx, ownerID, limit)
}

// RecordLead stores a lead and returns the listing it was left for so the
// owner can be notified.
func (s *ListingService) RecordLead(ctx context.Context, lead *models.Lead) (*models.Listing, error) {
	l, err := s.repo.GetByID(ctx, lead.ListingID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrListingNotFound, lead.ListingID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load listing %d: %w", lead.ListingID, err)
	}

	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = s.now().UTC()
	}
	id, err := s.repo.AddLead(ctx, lead)
	if errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrListingNotFound, lead.ListingID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to store lead: %w", err)
	}
	lead.ID = id

	s.log.Info("Lead recorded",
		zap.Int64("listing_id", l.ID),
		zap.Int64("lead_id", id),
		zap.Int64("user_id", lead.UserID))
	return l, nil
}

// Leads returns leads of a listing after checking it belongs to the owner.
func (s *ListingService) Leads(ctx context.Context, ownerID, listingID int64, limit int) ([]models.Lead, error) {
	if _, err := s.Listing(ctx, ownerID, listingID); err != nil {
		return nil, err
	}
	return s.repo.ListLeads(ctx, listingID, limit)
}

func (s *ListingService) RegisterUser(ctx context.Context, u *models.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now().UTC()
	}
	return s.repo.UpsertUser(ctx, u)
}

// FileName is the attachment name of a listing page.
func FileName(l *models.Listing) string {
	if name := slug.Make(l.Fields.Title); name != "" {
		return name + ".html"
	}
	return fmt.Sprintf("listing_%d.html", l.ID)
}
