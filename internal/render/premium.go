package render

import (
	"image/color"
	"strings"

	"github.com/youruser/potwapp/internal/palette"
	"github.com/youruser/potwapp/internal/student"
)

// Premium is the default template: a deep tinted background, gradient hero
// band, circular portrait and a two-column grid of detail tiles.
type Premium struct{}

func (Premium) Name() string { return "premium" }

func (Premium) Render(in Input) *Scene {
	p := in.Colors
	s := in.Student
	bg := palette.Darken(p.Primary(), 0.32)
	bg = palette.Mix(bg, palette.Ink, 0.35)
	sc := NewScene("premium", bg)

	hero := Rect{0, 0, CardWidth, 760}
	sc.Add(&Box{Rect: hero, Fill: Linear(hero, true, p.Primary(), p.Secondary(), bg)})
	sc.Add(&Circle{CX: 940, CY: 120, R: 220, Fill: Solid(palette.WithAlpha(p.Highlight(), 0.18))})
	sc.Add(&Circle{CX: 90, CY: 640, R: 160, Fill: Solid(palette.WithAlpha(p.Accent(), 0.14))})

	// Header row: logo + association on the left, headline on the right.
	headInk := palette.Paper
	sc.Add(LogoSlot(60, 60, 110, in, p.Accent())...)
	if t := brandName(190, 78, 420, in, 30, headInk, AlignLeft); t != nil {
		sc.Add(t)
	}
	sc.Add(&Box{Rect: Rect{620, 82, 400, 64}, Fill: Solid(palette.WithAlpha(palette.Ink, 0.35)), Radius: 32})
	sc.Add(textBlock(620, 96, 400, Headline, Bold, 24, headInk, AlignCenter, 1))

	// Portrait with accent ring.
	ring := favoriteAccent(s, p.Accent())
	sc.Add(&Circle{CX: 540, CY: 470, R: 236, Fill: Solid(ring)})
	sc.Add(photoSlot(Rect{320, 250, 440, 440}, ShapeCircle, 0, s, p.Secondary())...)

	col := newColumn(80, 760, 920, 1740)
	nameSize := Fonts().Fit(Bold, s.FullName, 920, 48, 78)
	col.text(s.FullName, Bold, nameSize, palette.Paper, AlignCenter, 2, 12)
	sub := palette.EnsureContrast(palette.Lighten(p.Highlight(), 0.2), bg, 4.5)
	col.text(s.Subtitle(), Regular, 34, sub, AlignCenter, 1, 8)
	col.skip(22)

	if q := quoted(s.Quote); q != "" {
		panel := palette.Mix(bg, p.Primary(), 0.35)
		lines := Fonts().Wrap(Italic, 38, q, 840, 3)
		h := float64(len(lines))*38*lineSpacing + 60
		if h <= col.remaining() {
			col.add(&Box{Rect: Rect{80, col.y, 920, h}, Fill: Solid(panel), Radius: 28})
			col.add(&Box{Rect: Rect{80, col.y, 10, h}, Fill: Solid(ring), Radius: 5})
			inner := newColumn(120, col.y+30, 840, col.y+h)
			inner.text(q, Italic, 38, palette.ReadableOn(panel), AlignCenter, 3, 0)
			col.add(inner.nodes...)
			col.skip(h + 28)
		}
	}

	if s.Bio != "" {
		col.text(s.Bio, Regular, 30, palette.Mix(palette.Paper, bg, 0.15), AlignLeft, 4, 24)
	}

	premiumTiles(col, s.KnownFields(), palette.Mix(bg, palette.Paper, 0.08), ring)
	sc.Add(col.nodes...)

	// Footer.
	foot := palette.Mix(palette.Paper, bg, 0.25)
	if line := socialsLine(s); line != "" {
		sc.Add(textBlock(80, 1770, 700, line, Bold, 28, foot, AlignLeft, 1))
	}
	sc.Add(textBlock(80, 1830, 700, Hashtag, Bold, 30, palette.EnsureContrast(ring, bg, 3), AlignLeft, 1))
	sc.Add(shareCode(Rect{880, 1740, 140, 140}, in, palette.Ink, palette.Paper))
	return sc
}

// premiumTiles lays fields out as a two-column grid. A row that does not fit
// ends the grid.
func premiumTiles(col *column, fields []student.Field, tile, bar color.NRGBA) {
	const (
		gap       = 20.0
		pad       = 22.0
		labelSize = 22.0
		valueSize = 28.0
	)
	w := (col.w - gap) / 2
	label := palette.EnsureContrast(palette.Lighten(bar, 0.15), tile, 3)
	ink := palette.ReadableOn(tile)
	for i := 0; i < len(fields); i += 2 {
		row := fields[i:min(i+2, len(fields))]
		var cells [][]Node
		h := 0.0
		for j, f := range row {
			x := col.x + float64(j)*(w+gap)
			c := newColumn(x+pad+8, col.y+pad, w-2*pad-8, col.y+1e4)
			c.text(strings.ToUpper(f.Label), Bold, labelSize, label, AlignLeft, 1, 6)
			c.text(f.Value, Regular, valueSize, ink, AlignLeft, 3, 0)
			h = max(h, c.y-col.y+pad)
			cells = append(cells, c.nodes)
		}
		if h > col.remaining() {
			return
		}
		for j, nodes := range cells {
			x := col.x + float64(j)*(w+gap)
			col.add(&Box{Rect: Rect{x, col.y, w, h}, Fill: Solid(tile), Radius: 22})
			col.add(&Box{Rect: Rect{x, col.y + pad, 6, h - 2*pad}, Fill: Solid(bar), Radius: 3})
			col.add(nodes...)
		}
		col.skip(h + gap)
	}
}
