package render

import (
	"github.com/youruser/potwapp/internal/palette"
)

// Vibrant fills the canvas with a diagonal palette gradient and sets the
// details on a white panel as colored chips.
type Vibrant struct{}

func (Vibrant) Name() string { return "vibrant" }

func (Vibrant) Render(in Input) *Scene {
	p := in.Colors
	s := in.Student
	sc := NewScene("vibrant", p.Primary())

	full := Rect{0, 0, CardWidth, CardHeight}
	sc.Add(&Box{Rect: full, Fill: Paint{Gradient: &Gradient{
		X0: 0, Y0: 0, X1: CardWidth, Y1: CardHeight,
		Stops: []Stop{{0, p.Primary()}, {0.5, p.Accent()}, {1, p.Highlight()}},
	}}})
	sc.Add(&Circle{CX: 1000, CY: 200, R: 260, Fill: Solid(palette.WithAlpha(palette.Paper, 0.16))})
	sc.Add(&Circle{CX: 120, CY: 1720, R: 300, Fill: Solid(palette.WithAlpha(palette.Paper, 0.12))})

	onGrad := palette.ReadableOn(palette.Mix(p.Primary(), p.Accent(), 0.3))
	sc.Add(LogoSlot(60, 60, 100, in, p.Secondary())...)
	if t := brandName(180, 82, 500, in, 28, onGrad, AlignLeft); t != nil {
		sc.Add(t)
	}
	sc.Add(textBlock(60, 200, 960, Headline, Bold, 52, onGrad, AlignCenter, 2))

	ring := favoriteAccent(s, palette.Paper)
	sc.Add(&Circle{CX: 540, CY: 560, R: 210, Fill: Solid(ring)})
	sc.Add(photoSlot(Rect{350, 370, 380, 380}, ShapeCircle, 0, s, p.Secondary())...)

	panel := Rect{60, 800, 960, 1000}
	sc.Add(&Box{Rect: panel, Fill: Solid(palette.Paper), Radius: 48})

	col := newColumn(110, 850, 860, panel.Bottom()-40)
	nameSize := Fonts().Fit(Bold, s.FullName, 860, 44, 72)
	col.text(s.FullName, Bold, nameSize, palette.Ink, AlignCenter, 2, 10)
	col.text(s.Subtitle(), Bold, 30, palette.EnsureContrast(p.Primary(), palette.Paper, 4.5), AlignCenter, 1, 20)
	if q := quoted(s.Quote); q != "" {
		col.text(q, Italic, 32, palette.MustParse("#374151"), AlignCenter, 3, 24)
	}

	for i, f := range s.KnownFields() {
		chip := p.Role(i % 4)
		ink := palette.ReadableOn(chip)
		c := newColumn(col.x+24, col.y+18, col.w-48, col.limit)
		c.text(f.Label, Bold, 22, ink, AlignLeft, 1, 4)
		c.text(f.Value, Regular, 28, ink, AlignLeft, 2, 0)
		h := c.y - col.y + 18
		if len(c.nodes) < 2 || h > col.remaining() {
			break
		}
		col.add(&Box{Rect: Rect{col.x, col.y, col.w, h}, Fill: Solid(chip), Radius: 26})
		col.add(c.nodes...)
		col.skip(h + 16)
	}
	sc.Add(col.nodes...)

	foot := palette.ReadableOn(p.Highlight())
	if line := socialsLine(s); line != "" {
		sc.Add(textBlock(60, 1820, 760, line, Bold, 26, foot, AlignLeft, 1))
	}
	sc.Add(textBlock(60, 1860, 760, Hashtag, Bold, 28, foot, AlignLeft, 1))
	sc.Add(shareCode(Rect{900, 1810, 100, 100}, in, palette.Ink, palette.Paper))
	return sc
}
