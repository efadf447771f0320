package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/h2non/filetype"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp"

	"listing-site-backend/internal/models"
)

var ErrNotImage = errors.New("payload is not an image")

// Fetcher downloads raw bytes of a transport file reference.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

type Options struct {
	MaxWidth    int
	MaxHeight   int
	JPEGQuality int
}

func DefaultOptions() Options {
	return Options{MaxWidth: 1200, MaxHeight: 800, JPEGQuality: 90}
}

// Normalizer turns uploaded media into embeddable form: photos are fitted into
// the configured box and re-encoded as JPEG, videos stay deferred references.
type Normalizer struct {
	fetcher Fetcher
	opts    Options
	log     *zap.Logger
}

func NewNormalizer(fetcher Fetcher, opts Options, log *zap.Logger) *Normalizer {
	if log == nil {
		log = zap.NewNop()
	}
	def := DefaultOptions()
	if opts.MaxWidth <= 0 {
		opts.MaxWidth = def.MaxWidth
	}
	if opts.MaxHeight <= 0 {
		opts.MaxHeight = def.MaxHeight
	}
	if opts.JPEGQuality <= 0 || opts.JPEGQuality > 100 {
		opts.JPEGQuality = def.JPEGQuality
	}
	return &Normalizer{fetcher: fetcher, opts: opts, log: log.Named("media")}
}

// Photo downloads the referenced photo and normalizes it.
func (n *Normalizer) Photo(ctx context.Context, ref string) (models.MediaItem, error) {
	data, err := n.fetcher.Fetch(ctx, ref)
	if err != nil {
		return models.MediaItem{}, fmt.Errorf("failed to fetch photo: %w", err)
	}
	return n.NormalizePhoto(ref, data)
}

// NormalizePhoto decodes, orients, downsizes and re-encodes image bytes.
func (n *Normalizer) NormalizePhoto(ref string, data []byte) (models.MediaItem, error) {
	if !filetype.IsImage(data) {
		return models.MediaItem{}, ErrNotImage
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return models.MediaItem{}, fmt.Errorf("unable to decode image: %w", err)
	}

	if b := img.Bounds(); b.Dx() > n.opts.MaxWidth || b.Dy() > n.opts.MaxHeight {
		img = imaging.Fit(img, n.opts.MaxWidth, n.opts.MaxHeight, imaging.Lanczos)
		n.log.Debug("Photo downsized",
			zap.String("ref", ref),
			zap.Int("width", img.Bounds().Dx()),
			zap.Int("height", img.Bounds().Dy()))
	}

	encoded, err := encodeJPEG(img, n.opts.JPEGQuality)
	if err != nil {
		return models.MediaItem{}, err
	}

	return models.MediaItem{
		ID:       uuid.New(),
		Kind:     models.MediaPhoto,
		Source:   ref,
		MimeType: "image/jpeg",
		Data:     encoded,
	}, nil
}

// Video records the reference only, bytes are pulled when the listing is
// published.
func (n *Normalizer) Video(_ context.Context, ref string) (models.MediaItem, error) {
	if ref == "" {
		return models.MediaItem{}, errors.New("empty video reference")
	}
	return models.MediaItem{
		ID:       uuid.New(),
		Kind:     models.MediaVideo,
		Source:   ref,
		MimeType: "video/mp4",
	}, nil
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("unable to encode JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// DataURI returns the inline representation of a photo.
func DataURI(item models.MediaItem) string {
	mime := item.MimeType
	if mime == "" {
		mime = "image/jpeg"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(item.Data)
}

// Handle is the transient in-document reference of an item until it is either
// inlined or published to storage.
func Handle(item models.MediaItem) string {
	return "upload://" + item.ID.String()
}

// Extension picks the stored file extension, sniffing data when present.
func Extension(item models.MediaItem, data []byte) string {
	if item.Kind == models.MediaPhoto {
		return "jpg"
	}
	if len(data) > 0 {
		if kind, err := filetype.Match(data); err == nil && filetype.IsVideo(data) {
			return kind.Extension
		}
	}
	return "mp4"
}
