package render

import (
	"fmt"

	"github.com/youruser/potwapp/internal/palette"
)

// Modern draws a dark rounded card on a transparent canvas with an accent
// stripe and numbered fields. PNG output keeps the transparent margin; JPEG
// output gets the matte instead.
type Modern struct{}

func (Modern) Name() string { return "modern" }

func (Modern) Render(in Input) *Scene {
	p := in.Colors
	s := in.Student
	sc := NewScene("modern", palette.WithAlpha(p.Primary(), 0))
	sc.Matte = palette.Darken(p.Primary(), 0.4)

	card := Rect{40, 40, CardWidth - 80, CardHeight - 80}
	face := palette.Mix(palette.Ink, p.Secondary(), 0.15)
	sc.Add(&Box{Rect: card, Fill: Solid(face), Radius: 56, Stroke: palette.WithAlpha(p.Highlight(), 0.5), StrokeWidth: 3})
	accent := palette.EnsureContrast(favoriteAccent(s, p.Accent()), face, 3)
	sc.Add(&Box{Rect: Rect{card.X, 300, 16, 520}, Fill: Linear(Rect{card.X, 300, 16, 520}, true, accent, p.Primary()), Radius: 8})

	ink := palette.ReadableOn(face)
	muted := palette.Mix(ink, face, 0.4)
	sc.Add(LogoSlot(100, 100, 90, in, p.Primary())...)
	if t := brandName(210, 120, 400, in, 26, muted, AlignLeft); t != nil {
		sc.Add(t)
	}
	sc.Add(textBlock(560, 124, 420, Headline, Mono, 22, accent, AlignRight, 1))

	sc.Add(photoSlot(Rect{100, 300, 420, 520}, ShapeRounded, 40, s, p.Primary())...)

	side := newColumn(560, 320, 420, 820)
	nameSize := Fonts().Fit(Bold, s.FullName, 420, 40, 64)
	side.text(s.FullName, Bold, nameSize, ink, AlignLeft, 3, 16)
	side.text(s.Subtitle(), Regular, 28, muted, AlignLeft, 2, 20)
	if bd := s.Birthday(); bd != "" {
		side.text("Birthday · "+bd, Mono, 24, accent, AlignLeft, 1, 12)
	}
	sc.Add(side.nodes...)

	col := newColumn(100, 870, 880, 1730)
	if q := quoted(s.Quote); q != "" {
		col.text(q, Italic, 36, ink, AlignLeft, 3, 20)
	}
	if s.Bio != "" {
		col.text(s.Bio, Regular, 28, muted, AlignLeft, 4, 28)
	}
	n := 0
	for _, f := range s.KnownFields() {
		if col.remaining() < 2*28*lineSpacing+12 {
			break
		}
		n++
		top := col.y
		col.add(textBlock(100, top, 70, fmt.Sprintf("%02d", n), Mono, 28, accent, AlignLeft, 1))
		item := newColumn(180, top, 800, col.limit)
		item.text(f.Label, Bold, 24, ink, AlignLeft, 1, 2)
		item.text(f.Value, Regular, 28, muted, AlignLeft, 2, 0)
		col.add(item.nodes...)
		col.y = item.y + 22
	}
	sc.Add(col.nodes...)

	if line := socialsLine(s); line != "" {
		sc.Add(textBlock(100, 1760, 720, line, Regular, 24, muted, AlignLeft, 1))
	}
	sc.Add(textBlock(100, 1804, 720, Hashtag, Bold, 28, accent, AlignLeft, 1))
	sc.Add(shareCode(Rect{860, 1740, 120, 120}, in, palette.Ink, palette.Paper))
	return sc
}
