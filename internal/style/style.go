package style

// Descriptor is a visual theme applied to a synthesized page.
type Descriptor struct {
	Key        string `json:"key"`
	Name       string `json:"name"`
	Primary    string `json:"primary"`
	Secondary  string `json:"secondary"`
	Accent     string `json:"accent"`
	Background string `json:"background,omitempty"`
	Animation  string `json:"animation,omitempty"`
}

// HeavyAnimation reports whether the theme carries animated decorations.
func (d Descriptor) HeavyAnimation() bool {
	switch d.Animation {
	case "extreme", "ultra", "heavy":
		return true
	}
	return false
}

// Theme is a catalog entry the user can pick explicitly.
type Theme struct {
	Label      string
	Descriptor Descriptor
}

// KeywordSet maps description keywords to a theme. Order of sets in a table
// decides which theme wins when several match.
type KeywordSet struct {
	Keywords   []string
	Descriptor Descriptor
}

const (
	KeyDefault = "universal"
	AutoLabel  = "🧠 Auto from description"
)

var neutral = Descriptor{
	Key:       KeyDefault,
	Name:      "Universal",
	Primary:   "#95a5a6",
	Secondary: "#7f8c8d",
	Accent:    "#bdc3c7",
}

// Default returns the neutral theme used when nothing else matches.
func Default() Descriptor {
	return neutral
}

var defaultCatalog = []Theme{
	{"🌆 Pixel City", Descriptor{Key: "pixel_city", Name: "🏙️ Pixel City", Primary: "#ff6b35", Secondary: "#2c3e50", Accent: "#f7c59f", Background: "pixel-city", Animation: "extreme"}},
	{"🌃 Neon City", Descriptor{Key: "neon_city", Name: "🌌 Neon City", Primary: "#00e6ff", Secondary: "#0a0a2a", Accent: "#ff00cc", Background: "neon-city", Animation: "extreme"}},
	{"🅽 Neo Premium", Descriptor{Key: "neo_premium", Name: "🅽 Neo Premium", Primary: "#8a2be2", Secondary: "#00e5ff", Accent: "#ff0066", Background: "neo", Animation: "extreme"}},
	{"🏠 Living House", Descriptor{Key: "living_house", Name: "🏠 Living House", Primary: "#ff9f1c", Secondary: "#2ec4b6", Accent: "#e71d36", Background: "living-house", Animation: "ultra"}},
	{"🌴 Tropical Paradise", Descriptor{Key: "tropical_paradise", Name: "🌴 Tropical Paradise", Primary: "#ff7e5f", Secondary: "#feb47b", Accent: "#00c6ff", Background: "tropical", Animation: "smooth"}},
	{"🚀 Space Station", Descriptor{Key: "space_station", Name: "🚀 Space Station", Primary: "#000428", Secondary: "#004e92", Accent: "#ff00cc", Background: "space", Animation: "galactic"}},
	{"🎮 Retro 80s", Descriptor{Key: "retro_80s", Name: "🎮 Retro 80s", Primary: "#ff6a00", Secondary: "#ee0979", Accent: "#ffd700", Background: "retro", Animation: "vintage"}},
	{"⚡ Cyberpunk", Descriptor{Key: "cyberpunk", Name: "⚡ Cyberpunk", Primary: "#0f0c29", Secondary: "#302b63", Accent: "#e74c3c", Background: "cyber", Animation: "glitch"}},
}

var defaultKeywords = []KeywordSet{
	{
		Keywords:   []string{"элит", "премиум", "люкс", "penthouse", "дизайнерский", "эксклюзив", "роскош", "elite", "premium", "luxury", "exclusive"},
		Descriptor: Descriptor{Key: "luxury", Name: "Luxury", Primary: "#d4af37", Secondary: "#2c3e50", Accent: "#8b4513"},
	},
	{
		Keywords:   []string{"modern", "современ", "студ", "новострой", "ремонт", "евро", "minimal", "лофт", "хайтек", "loft", "hi-tech", "renovated", "new build"},
		Descriptor: Descriptor{Key: "modern", Name: "Modern", Primary: "#34495e", Secondary: "#e74c3c", Accent: "#3498db"},
	},
	{
		Keywords:   []string{"классик", "сталин", "кирпич", "дерево", "камин", "антик", "исторический", "царский", "classic", "brick", "fireplace", "antique", "historic"},
		Descriptor: Descriptor{Key: "classic", Name: "Classic", Primary: "#8b4513", Secondary: "#d4af37", Accent: "#2c3e50"},
	},
	{
		Keywords:   []string{"пляж", "море", "курорт", "отпуск", "вилла", "шале", "beach", "seaside", "resort", "villa", "chalet"},
		Descriptor: Descriptor{Key: "beach", Name: "Beach", Primary: "#0077be", Secondary: "#f4a460", Accent: "#87ceeb"},
	},
	{
		Keywords:   []string{"урбан", "город", "метро", "центр", "апартаменты", "biznes", "офис", "urban", "downtown", "metro", "apartments", "office"},
		Descriptor: Descriptor{Key: "urban", Name: "Urban", Primary: "#2c3e50", Secondary: "#7f8c8d", Accent: "#e74c3c"},
	},
	{
		Keywords:   []string{"пиксель", "pixel", "игра", "гейм", "gaming"},
		Descriptor: Descriptor{Key: "pixel_luxury", Name: "🏰 Pixel Luxury", Primary: "#ff6b35", Secondary: "#2c3e50", Accent: "#f7c59f", Background: "pixel", Animation: "heavy"},
	},
	{
		Keywords:   []string{"нео", "футуро", "кибер", "техно", "будущее", "космос", "futur", "cyber", "techno", "cosmos"},
		Descriptor: Descriptor{Key: "neo_futuristic", Name: "🚀 Neo Futuristic", Primary: "#00ff88", Secondary: "#0a0a2a", Accent: "#ff0080", Background: "futuristic", Animation: "extreme"},
	},
}
