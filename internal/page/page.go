// Package page synthesizes the static listing page out of typed sections.
package page

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"unicode"

	sprig "github.com/go-task/slim-sprig/v3"

	"listing-site-backend/internal/media"
	"listing-site-backend/internal/models"
	"listing-site-backend/internal/style"
)

// LeadPlaceholder is the call-to-action target until a listing id is known.
const LeadPlaceholder = "LEAD_PLACEHOLDER"

//go:embed templates/*.tmpl assets/* variants/*.css
var assets embed.FS

var templates = template.Must(
	template.New("page").Funcs(sprig.FuncMap()).ParseFS(assets, "templates/*.tmpl"),
)

var (
	baseCSS = mustAsset("assets/base.css")
	script  = mustAsset("assets/page.js")
)

func mustAsset(name string) string {
	data, err := assets.ReadFile(name)
	if err != nil {
		panic(err)
	}
	return string(data)
}

type Options struct {
	// Year printed in the footer.
	Year  int
	Badge string
	Lang  string
}

// Document is a synthesized page. Media are referenced by transient handles
// (see media.Handle) until Inline or a publication backend resolves them.
type Document struct {
	Title    string
	StyleKey string
	HTML     string
	Sections []Section
}

type layoutData struct {
	Lang       string
	Class      string
	Title      string
	Primary    template.CSS
	Secondary  template.CSS
	Accent     template.CSS
	Background string
	Motion     string
	BaseCSS    template.CSS
	VariantCSS template.CSS
	Script     template.JS
	Sections   []template.HTML
}

// Synthesize builds the page for the given answers, media and style. It has no
// side effects and the same input always yields the same output.
func Synthesize(f models.Fields, items []models.MediaItem, st style.Descriptor, opts Options) (*Document, error) {
	if opts.Badge == "" {
		opts.Badge = "Exclusive property"
	}
	if opts.Lang == "" {
		opts.Lang = "en"
	}

	variant, _ := VariantFor(st.Key)

	photos, clips := splitMedia(items)
	location := NewLocation(f.Location)
	nav := NewNav(len(clips) > 0, location.MapURL != "", f.HasContacts())

	sections := []Section{
		Header{
			Badge:       opts.Badge,
			Title:       f.Title,
			Description: f.Description,
			Price:       f.Price,
			CTAHref:     LeadPlaceholder,
			Decoration:  variant.Decoration,
		},
		nav,
		About{Description: f.Description},
		NewSpecs(f),
		Gallery{Photos: photos, Placeholder: galleryPlaceholder},
	}
	if len(clips) > 0 {
		sections = append(sections, Videos{Clips: clips})
	}
	sections = append(sections,
		location,
		Contacts{
			Phone:     f.BrokerPhone,
			Email:     f.BrokerEmail,
			Telegram:  strings.TrimPrefix(f.BrokerTelegram, "@"),
			HasBroker: f.HasContacts(),
			LeadHref:  LeadPlaceholder,
		},
		Footer{Title: f.Title, Year: opts.Year},
	)

	data := layoutData{
		Lang:       opts.Lang,
		Class:      variant.Class,
		Title:      f.Title,
		Primary:    template.CSS(st.Primary),
		Secondary:  template.CSS(st.Secondary),
		Accent:     template.CSS(st.Accent),
		Background: st.Background,
		Motion:     "motion-light",
		BaseCSS:    template.CSS(baseCSS),
		VariantCSS: variant.CSS,
		Script:     template.JS(script),
	}
	if st.HeavyAnimation() {
		data.Motion = "motion-heavy"
	}
	for _, s := range sections {
		html, err := s.Render()
		if err != nil {
			return nil, err
		}
		data.Sections = append(data.Sections, html)
	}

	buf := new(bytes.Buffer)
	if err := templates.ExecuteTemplate(buf, "layout", data); err != nil {
		return nil, fmt.Errorf("failed to render page: %w", err)
	}

	return &Document{
		Title:    f.Title,
		StyleKey: st.Key,
		HTML:     buf.String(),
		Sections: sections,
	}, nil
}

func splitMedia(items []models.MediaItem) ([]Photo, []Clip) {
	var (
		photos []Photo
		clips  []Clip
	)
	for _, it := range items {
		src := template.URL(media.Handle(it))
		switch it.Kind {
		case models.MediaPhoto:
			photos = append(photos, Photo{Number: len(photos) + 1, Src: src})
		case models.MediaVideo:
			clips = append(clips, Clip{Number: len(clips) + 1, Src: src})
		}
	}
	return photos, clips
}

// NewNav lists only sections that have content.
func NewNav(hasVideo, hasMap, hasContacts bool) Nav {
	items := []NavItem{
		{Anchor: "about", Label: "About"},
		{Anchor: "specs", Label: "Characteristics"},
		{Anchor: "gallery", Label: "Gallery"},
	}
	if hasVideo {
		items = append(items, NavItem{Anchor: "videos", Label: "Video"})
	}
	if hasMap {
		items = append(items, NavItem{Anchor: "map", Label: "Map"})
	} else {
		items = append(items, NavItem{Anchor: "location", Label: "Location"})
	}
	if hasContacts {
		items = append(items, NavItem{Anchor: "contact", Label: "Contacts"})
	}
	return Nav{Items: items}
}

// NewSpecs keeps values that are present and not the NotSpecified sentinel.
func NewSpecs(f models.Fields) Specs {
	all := []SpecItem{
		{Icon: "💰", Label: "Price", Value: f.Price},
		{Icon: "📍", Label: "Location", Value: f.Location},
		{Icon: "📐", Label: "Area", Value: f.Area},
		{Icon: "🚪", Label: "Rooms", Value: f.Rooms},
		{Icon: "📅", Label: "Completion date", Value: f.CompletionDate},
	}
	s := Specs{Placeholder: specsPlaceholder}
	for _, it := range all {
		it.Value = strings.TrimSpace(it.Value)
		if it.Value == "" || strings.EqualFold(it.Value, models.NotSpecified) {
			continue
		}
		s.Items = append(s.Items, it)
	}
	return s
}

func NewLocation(location string) Location {
	location = strings.TrimSpace(location)
	if location == "" {
		return Location{Paragraph: "Location details are available on request."}
	}
	if u := MapURL(location); u != "" {
		return Location{Address: location, MapURL: template.URL(u)}
	}
	return Location{Address: location, Paragraph: location}
}

// MapURL returns an embeddable map address for location, or an empty string
// when nothing usable remains after sanitizing.
func MapURL(location string) string {
	clean := strings.TrimSpace(strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsSpace(r):
			return r
		case r == '_', r == ',', r == '-':
			return r
		}
		return -1
	}, location))
	if clean == "" {
		return ""
	}
	return "https://www.google.com/maps?q=" + url.QueryEscape(clean) + "&output=embed"
}

// Relink replaces media handles in doc with whatever target returns. Items
// for which target reports false keep their handle.
func Relink(doc string, items []models.MediaItem, target func(models.MediaItem) (string, bool)) string {
	pairs := make([]string, 0, 2*len(items))
	for _, it := range items {
		if to, ok := target(it); ok {
			pairs = append(pairs, media.Handle(it), to)
		}
	}
	if len(pairs) == 0 {
		return doc
	}
	return strings.NewReplacer(pairs...).Replace(doc)
}

// Inline embeds photos as data URIs, producing a self-contained page.
func Inline(doc string, items []models.MediaItem) string {
	return Relink(doc, items, func(it models.MediaItem) (string, bool) {
		if it.Kind != models.MediaPhoto || len(it.Data) == 0 {
			return "", false
		}
		return media.DataURI(it), true
	})
}

// ResolveLead substitutes every lead placeholder with link.
func ResolveLead(doc, link string) string {
	return strings.ReplaceAll(doc, LeadPlaceholder, link)
}
