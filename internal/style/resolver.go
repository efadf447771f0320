package style

import (
	"strings"

	"golang.org/x/text/cases"
)

// Resolver picks a theme either from the explicit catalog or by scanning a
// description for keywords. It holds no mutable state.
type Resolver struct {
	catalog  []Theme
	keywords []KeywordSet
}

// NewResolver returns resolver over the built-in catalog and keyword table.
func NewResolver() *Resolver {
	return NewResolverWith(defaultCatalog, defaultKeywords)
}

// NewResolverWith builds resolver over the given catalog and keyword table.
// Keywords are folded once here so matching is case-insensitive.
func NewResolverWith(catalog []Theme, table []KeywordSet) *Resolver {
	folded := make([]KeywordSet, len(table))
	for i, set := range table {
		kws := make([]string, 0, len(set.Keywords))
		for _, kw := range set.Keywords {
			if kw = fold(kw); kw != "" {
				kws = append(kws, kw)
			}
		}
		folded[i] = KeywordSet{Keywords: kws, Descriptor: set.Descriptor}
	}
	return &Resolver{catalog: catalog, keywords: folded}
}

// Catalog returns themes available for explicit choice in declaration order.
func (r *Resolver) Catalog() []Theme {
	out := make([]Theme, len(r.catalog))
	copy(out, r.catalog)
	return out
}

// Labels returns catalog labels followed by the auto-detection label.
func (r *Resolver) Labels() []string {
	labels := make([]string, 0, len(r.catalog)+1)
	for _, t := range r.catalog {
		labels = append(labels, t.Label)
	}
	return append(labels, AutoLabel)
}

// ByLabel looks up catalog theme by its button label.
func (r *Resolver) ByLabel(label string) (Descriptor, bool) {
	label = strings.TrimSpace(label)
	for _, t := range r.catalog {
		if t.Label == label {
			return t.Descriptor, true
		}
	}
	return Descriptor{}, false
}

// ByKey finds a theme by key in the catalog, then in the keyword table. Used
// when a stored listing is regenerated so its style is never re-detected.
func (r *Resolver) ByKey(key string) (Descriptor, bool) {
	if key == KeyDefault {
		return neutral, true
	}
	for _, t := range r.catalog {
		if t.Descriptor.Key == key {
			return t.Descriptor, true
		}
	}
	for _, set := range r.keywords {
		if set.Descriptor.Key == key {
			return set.Descriptor, true
		}
	}
	return Descriptor{}, false
}

// Detect returns the first theme in table order with any keyword contained in
// the description, or the neutral default.
func (r *Resolver) Detect(description string) Descriptor {
	desc := fold(description)
	if desc == "" {
		return neutral
	}
	for _, set := range r.keywords {
		for _, kw := range set.Keywords {
			if strings.Contains(desc, kw) {
				return set.Descriptor
			}
		}
	}
	return neutral
}

// Resolve honors an explicit catalog key, falling back to keyword detection.
func (r *Resolver) Resolve(choice, description string) Descriptor {
	if choice != "" {
		for _, t := range r.catalog {
			if t.Descriptor.Key == choice {
				return t.Descriptor
			}
		}
	}
	return r.Detect(description)
}

func fold(s string) string {
	// cases.Caser keeps state, a fresh one per call
	return cases.Fold().String(strings.TrimSpace(s))
}
