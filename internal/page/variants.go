package page

import (
	"html/template"
	"io/fs"
)

// Variant holds per-theme decorative fragments.
type Variant struct {
	Class      string
	CSS        template.CSS
	Decoration template.HTML
}

var variantDefs = map[string]struct {
	class      string
	decoration string
}{
	"pixel_city": {
		class: "pixel-city",
		decoration: `<div class="pixel-skyline">` +
			`<div class="pixel-building" style="left:5%"></div>` +
			`<div class="pixel-building" style="left:30%;height:160px"></div>` +
			`<div class="pixel-building" style="left:70%;height:140px"></div>` +
			`<div class="pixel-cloud" style="left:15%"></div>` +
			`<div class="pixel-cloud" style="left:60%;top:18%"></div>` +
			`<div class="pixel-bird"></div></div>`,
	},
	"neon_city": {
		class:      "neon-city",
		decoration: `<div class="neon-glow"></div><div class="neon-scan"></div><div class="neon-grid"></div>`,
	},
	"neo_premium": {
		class:      "neo",
		decoration: `<div class="neon-gradient"></div>`,
	},
	"living_house": {
		class: "living-house",
		decoration: `<div class="flying-house"><div class="house-eye"></div>` +
			`<div class="house-eye right"></div><div class="house-smile"></div></div>`,
	},
	"tropical_paradise": {class: "tropical"},
	"space_station":     {class: "space"},
	"retro_80s":         {class: "retro"},
	"cyberpunk":         {class: "cyber"},
}

// VariantFor returns the decorative variant of a style key. Unknown keys,
// including the neutral default, have none.
func VariantFor(key string) (Variant, bool) {
	def, ok := variantDefs[key]
	if !ok {
		return Variant{}, false
	}
	css, err := fs.ReadFile(assets, "variants/"+key+".css")
	if err != nil {
		return Variant{}, false
	}
	return Variant{
		Class:      def.class,
		CSS:        template.CSS(css),
		Decoration: template.HTML(def.decoration),
	}, true
}
