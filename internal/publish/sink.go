// Package publish writes synthesized pages and their media to storage.
package publish

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"listing-site-backend/internal/media"
	"listing-site-backend/internal/models"
	"listing-site-backend/internal/page"
)

const (
	DefaultLinkBase = "https://t.me"
	IndexFile       = "index.html"
)

// Backend stores files under slash separated paths.
type Backend interface {
	Put(ctx context.Context, path string, data []byte, contentType string) error
	// Clear removes everything stored under dir.
	Clear(ctx context.Context, dir string) error
	// Location returns where a stored path can be retrieved from.
	Location(path string) string
}

// Publication describes the result of publishing one listing.
type Publication struct {
	ListingID int64
	Location  string
	// Document is the published page with media pointing at stored files.
	Document string
	LeadLink string
	Files    []string
	// Items are the media that were stored, in page order.
	Items []models.MediaItem
	// Links maps stored media to their public location.
	Links map[uuid.UUID]string
}

type Options struct {
	LinkBase  string
	BotHandle string
}

// Sink publishes listing pages keyed by listing id. Publishing an id again
// replaces everything previously stored for it.
type Sink struct {
	backend Backend
	fetcher media.Fetcher
	opts    Options
	log     *zap.Logger
}

func NewSink(backend Backend, fetcher media.Fetcher, opts Options, log *zap.Logger) *Sink {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.LinkBase == "" {
		opts.LinkBase = DefaultLinkBase
	}
	opts.LinkBase = strings.TrimRight(opts.LinkBase, "/")
	opts.BotHandle = strings.TrimPrefix(opts.BotHandle, "@")
	return &Sink{backend: backend, fetcher: fetcher, opts: opts, log: log.Named("publish")}
}

// LeadLink is the deep link that opens the lead dialogue for listing id.
func (s *Sink) LeadLink(id int64) string {
	return fmt.Sprintf("%s/%s?start=lead_%d", s.opts.LinkBase, s.opts.BotHandle, id)
}

// Withdraw removes everything published for listing id.
func (s *Sink) Withdraw(ctx context.Context, id int64) error {
	if err := s.backend.Clear(ctx, SiteDir(id)); err != nil {
		return fmt.Errorf("failed to withdraw %s: %w", SiteDir(id), err)
	}
	return nil
}

// SiteDir is the storage directory of listing id.
func SiteDir(id int64) string {
	return fmt.Sprintf("site_%d", id)
}

// Renderer produces the listing document for the media that made it into
// storage.
type Renderer func(items []models.MediaItem) (string, error)

// Publish stores media of the listing, renders the document for the stored
// items, points it at them, resolves the lead link and stores the document.
// Media that cannot be fetched or stored is left out of the page and
// numbering stays sequential. When only some media fail the publication is
// still returned together with the aggregated error.
func (s *Sink) Publish(ctx context.Context, id int64, render Renderer, items []models.MediaItem) (*Publication, error) {
	dir := SiteDir(id)
	log := s.log.With(zap.Int64("listing_id", id))

	if err := s.backend.Clear(ctx, dir); err != nil {
		return nil, fmt.Errorf("failed to clear %s: %w", dir, err)
	}

	pub := &Publication{ListingID: id, LeadLink: s.LeadLink(id), Links: make(map[uuid.UUID]string, len(items))}

	var (
		errs    error
		photos  int
		videos  int
		targets = make(map[uuid.UUID]string, len(items))
	)
	for _, it := range items {
		var (
			name string
			data []byte
		)
		switch it.Kind {
		case models.MediaPhoto:
			name = fmt.Sprintf("photo_%d.%s", photos+1, media.Extension(it, nil))
			data = it.Data
		case models.MediaVideo:
			var err error
			data, err = s.fetcher.Fetch(ctx, it.Source)
			if err != nil {
				log.Warn("Video left out", zap.String("ref", it.Source), zap.Error(err))
				errs = multierr.Append(errs, fmt.Errorf("video %s: %w", it.Source, err))
				continue
			}
			name = fmt.Sprintf("video_%d.%s", videos+1, media.Extension(it, data))
		default:
			continue
		}
		if len(data) == 0 {
			errs = multierr.Append(errs, fmt.Errorf("%s: empty payload", name))
			continue
		}

		rel := "media/" + name
		if err := s.backend.Put(ctx, dir+"/"+rel, data, it.MimeType); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		if it.Kind == models.MediaPhoto {
			photos++
		} else {
			videos++
		}
		targets[it.ID] = rel
		pub.Items = append(pub.Items, it)
		pub.Files = append(pub.Files, dir+"/"+rel)
		pub.Links[it.ID] = s.backend.Location(dir + "/" + rel)
	}

	doc, err := render(pub.Items)
	if err != nil {
		return nil, multierr.Append(errs, fmt.Errorf("failed to render page: %w", err))
	}

	html := page.Relink(doc, pub.Items, func(it models.MediaItem) (string, bool) {
		rel, ok := targets[it.ID]
		return rel, ok
	})
	html = page.ResolveLead(html, pub.LeadLink)

	index := dir + "/" + IndexFile
	if err := s.backend.Put(ctx, index, []byte(html), "text/html; charset=utf-8"); err != nil {
		return nil, multierr.Append(errs, fmt.Errorf("failed to store %s: %w", index, err))
	}

	pub.Document = html
	pub.Location = s.backend.Location(index)
	pub.Files = append(pub.Files, index)

	log.Info("Listing published", zap.String("location", pub.Location), zap.Int("files", len(pub.Files)))
	return pub, errs
}
