package page

import (
	"bytes"
	"fmt"
	"html/template"
)

const (
	specsPlaceholder   = "Characteristics not specified"
	galleryPlaceholder = "No photos added"
)

// Section is one typed block of the page.
type Section interface {
	Render() (template.HTML, error)
}

type Header struct {
	Badge       string
	Title       string
	Description string
	Price       string
	CTAHref     string
	Decoration  template.HTML
}

func (s Header) Render() (template.HTML, error) { return render("header", s) }

type NavItem struct {
	Anchor string
	Label  string
}

type Nav struct {
	Items []NavItem
}

func (s Nav) Render() (template.HTML, error) { return render("nav", s) }

type About struct {
	Description string
}

func (s About) Render() (template.HTML, error) { return render("about", s) }

type SpecItem struct {
	Icon  string
	Label string
	Value string
}

type Specs struct {
	Items       []SpecItem
	Placeholder string
}

func (s Specs) Render() (template.HTML, error) { return render("specs", s) }

type Photo struct {
	Number int
	Src    template.URL
}

type Gallery struct {
	Photos      []Photo
	Placeholder string
}

func (s Gallery) Render() (template.HTML, error) { return render("gallery", s) }

type Clip struct {
	Number int
	Src    template.URL
}

type Videos struct {
	Clips []Clip
}

func (s Videos) Render() (template.HTML, error) { return render("videos", s) }

// Location renders an embedded map when MapURL is set, a paragraph otherwise.
type Location struct {
	Address   string
	MapURL    template.URL
	Paragraph string
}

func (s Location) Render() (template.HTML, error) { return render("location", s) }

type Contacts struct {
	Phone     string
	Email     string
	Telegram  string
	HasBroker bool
	LeadHref  string
}

func (s Contacts) Render() (template.HTML, error) { return render("contacts", s) }

type Footer struct {
	Title string
	Year  int
}

func (s Footer) Render() (template.HTML, error) { return render("footer", s) }

func render(name string, data any) (template.HTML, error) {
	buf := new(bytes.Buffer)
	if err := templates.ExecuteTemplate(buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s section: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}
