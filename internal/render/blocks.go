package render

import (
	"image/color"
	"strings"

	imagepkg "github.com/youruser/potwapp/internal/image"
	"github.com/youruser/potwapp/internal/palette"
	"github.com/youruser/potwapp/internal/student"
)

const (
	Headline    = "PERSONALITY OF THE WEEK"
	Hashtag     = "#PersonalityOfTheWeek"
	lineSpacing = 1.25
)

// textBlock wraps s into a block at (x, y). Empty input yields nil so no
// empty container is ever emitted.
func textBlock(x, y, w float64, s string, style FontStyle, size float64, c color.NRGBA, align Align, maxLines int) *Text {
	lines := Fonts().Wrap(style, size, s, w, maxLines)
	if len(lines) == 0 {
		return nil
	}
	return &Text{
		Rect:       Rect{x, y, w, float64(len(lines)) * size * lineSpacing},
		Lines:      lines,
		Font:       style,
		Size:       size,
		LineHeight: lineSpacing,
		Color:      c,
		Align:      align,
	}
}

// column stacks blocks downward and drops anything that would cross limit.
type column struct {
	x, w     float64
	y, limit float64
	nodes    []Node
}

func newColumn(x, y, w, limit float64) *column {
	return &column{x: x, w: w, y: y, limit: limit}
}

func (c *column) remaining() float64 { return c.limit - c.y }

// text appends a wrapped block, shortening it to the lines that still fit.
func (c *column) text(s string, style FontStyle, size float64, col color.NRGBA, align Align, maxLines int, gapAfter float64) *Text {
	fit := int(c.remaining() / (size * lineSpacing))
	if fit <= 0 {
		return nil
	}
	if maxLines <= 0 || maxLines > fit {
		maxLines = fit
	}
	t := textBlock(c.x, c.y, c.w, s, style, size, col, align, maxLines)
	if t == nil {
		return nil
	}
	c.nodes = append(c.nodes, t)
	c.y += t.H + gapAfter
	return t
}

func (c *column) skip(d float64) { c.y += d }

func (c *column) add(nodes ...Node) { c.nodes = append(c.nodes, nodes...) }

func quoted(s string) string {
	s = strings.Trim(strings.TrimSpace(s), "\"“”")
	if s == "" {
		return ""
	}
	return "“" + s + "”"
}

// placeholder is the initial-letter stand-in for a missing photo.
func placeholder(r Rect, shape Shape, radius float64, bg color.NRGBA, initial string) []Node {
	var base Node
	if shape == ShapeCircle {
		base = &Circle{CX: r.X + r.W/2, CY: r.Y + r.H/2, R: r.W / 2, Fill: Solid(bg)}
	} else {
		base = &Box{Rect: r, Fill: Solid(bg), Radius: radius}
	}
	size := min(r.W, r.H) * 0.5
	glyph := &Text{
		Rect:       Rect{r.X, r.Y + (r.H-size*lineSpacing)/2, r.W, size * lineSpacing},
		Lines:      []string{initial},
		Font:       Bold,
		Size:       size,
		LineHeight: lineSpacing,
		Color:      palette.ReadableOn(bg),
		Align:      AlignCenter,
	}
	return []Node{base, glyph}
}

// photoSlot renders the student photo, or the placeholder when the record
// has none or the image cannot be loaded.
func photoSlot(r Rect, shape Shape, radius float64, s student.Record, bg color.NRGBA) []Node {
	ph := placeholder(r, shape, radius, bg, s.Initial())
	url := strings.TrimSpace(s.PhotoURL)
	if url == "" {
		return ph
	}
	return []Node{&Picture{Rect: r, Slot: "photo", URL: url, Shape: shape, Radius: radius, Fallback: ph}}
}

func associationInitial(name string) string {
	for _, w := range strings.Fields(name) {
		for _, ch := range w {
			return strings.ToUpper(string(ch))
		}
	}
	return "•"
}

// LogoSlot renders the association logo inside a circle of diameter d. A
// missing or broken logo shows a glyph of the association's initial.
// Nothing is rendered when branding is off. Only the branding fields of in
// are read.
func LogoSlot(x, y, d float64, in Input, glyphBg color.NRGBA) []Node {
	if !in.Branding {
		return nil
	}
	r := Rect{x, y, d, d}
	glyph := placeholder(r, ShapeCircle, 0, glyphBg, associationInitial(in.Association))
	if strings.TrimSpace(in.LogoURL) == "" && strings.TrimSpace(in.LogoAltURL) == "" {
		return glyph
	}
	return []Node{&Picture{Rect: r, Slot: "logo", URL: in.LogoURL, AltURL: in.LogoAltURL, Shape: ShapeCircle, Fallback: glyph}}
}

// brandName is the association name line; nil when branding is off.
func brandName(x, y, w float64, in Input, size float64, c color.NRGBA, align Align) *Text {
	if !in.Branding {
		return nil
	}
	return textBlock(x, y, w, in.Association, Bold, size, c, align, 2)
}

// shareCode renders a QR code linking to the student's public profile.
func shareCode(r Rect, in Input, fg, bg color.NRGBA) Node {
	if strings.TrimSpace(in.ShareURL) == "" {
		return nil
	}
	img, err := imagepkg.ShareCode(in.ShareURL, int(r.W), fg, bg)
	if err != nil {
		return nil
	}
	return &Bitmap{Rect: r, Image: img}
}

func socialsLine(s student.Record) string {
	socials := s.Socials()
	parts := make([]string, 0, len(socials))
	for _, f := range socials {
		parts = append(parts, f.Label+" "+f.Value)
	}
	return strings.Join(parts, "   ")
}

// favoriteAccent is the student's favorite color when it parses, else def.
func favoriteAccent(s student.Record, def color.NRGBA) color.NRGBA {
	return palette.SafeAccent(s.FavoriteColor, def)
}
