package render

import (
	"strings"

	"github.com/youruser/potwapp/internal/palette"
	"github.com/youruser/potwapp/internal/student"
)

// Input is everything a template may look at. Templates must not fetch
// anything or modify the record.
type Input struct {
	Student student.Record
	Colors  palette.Colors
	LogoURL string
	// LogoAltURL is tried when LogoURL fails, typically an inline base64
	// placeholder supplied by the caller.
	LogoAltURL  string
	Branding    bool
	Association string
	ShareURL    string
}

// Template lays out a personality card.
type Template interface {
	Name() string
	Render(in Input) *Scene
}

const DefaultTemplate = "premium"

var (
	templateOrder = []string{"premium", "minimalist", "vibrant", "modern"}
	templates     = map[string]Template{
		"premium":    Premium{},
		"minimalist": Minimalist{},
		"vibrant":    Vibrant{},
		"modern":     Modern{},
	}
)

// Lookup resolves a template tag. Unknown or empty tags resolve to the
// default template; ok reports whether the tag was recognised.
func Lookup(tag string) (t Template, ok bool) {
	t, ok = templates[strings.ToLower(strings.TrimSpace(tag))]
	if !ok {
		return templates[DefaultTemplate], false
	}
	return t, true
}

// Names lists the template tags in their published order.
func Names() []string {
	return append([]string(nil), templateOrder...)
}

// Render is Lookup followed by Render.
func Render(tag string, in Input) *Scene {
	t, _ := Lookup(tag)
	return t.Render(in)
}
