package render

import (
	"github.com/youruser/potwapp/internal/palette"
)

// Minimalist is a light card with a rounded portrait and a plain
// label/value list.
type Minimalist struct{}

func (Minimalist) Name() string { return "minimalist" }

func (Minimalist) Render(in Input) *Scene {
	p := in.Colors
	s := in.Student
	bg := palette.MustParse("#FAFAF9")
	sc := NewScene("minimalist", bg)

	accent := palette.EnsureContrast(favoriteAccent(s, p.Primary()), bg, 3)
	muted := palette.MustParse("#6B7280")

	sc.Add(&Box{Rect: Rect{0, 0, CardWidth, 14}, Fill: Solid(accent)})
	sc.Add(LogoSlot(80, 80, 84, in, accent)...)
	if t := brandName(184, 104, 500, in, 26, palette.Ink, AlignLeft); t != nil {
		sc.Add(t)
	}
	sc.Add(textBlock(80, 210, 920, Headline, Bold, 30, accent, AlignLeft, 1))
	sc.Add(&Box{Rect: Rect{80, 262, 120, 4}, Fill: Solid(accent)})

	sc.Add(photoSlot(Rect{80, 320, 360, 440}, ShapeRounded, 36, s, palette.Mix(p.Primary(), bg, 0.55))...)

	side := newColumn(480, 340, 520, 760)
	nameSize := Fonts().Fit(Bold, s.FullName, 520, 44, 68)
	side.text(s.FullName, Bold, nameSize, palette.Ink, AlignLeft, 3, 14)
	side.text(s.Subtitle(), Regular, 30, muted, AlignLeft, 2, 24)
	if q := quoted(s.Quote); q != "" {
		side.text(q, Italic, 30, palette.Ink, AlignLeft, 4, 0)
	}
	sc.Add(side.nodes...)

	col := newColumn(80, 820, 920, 1740)
	if s.Bio != "" {
		col.text(s.Bio, Regular, 30, palette.Ink, AlignLeft, 4, 32)
	}
	for _, f := range s.KnownFields() {
		if col.remaining() < 22*lineSpacing+30*lineSpacing+28 {
			break
		}
		col.add(&Box{Rect: Rect{80, col.y, 920, 1}, Fill: Solid(palette.Mix(muted, bg, 0.7))})
		col.skip(14)
		col.text(f.Label, Bold, 22, accent, AlignLeft, 1, 4)
		col.text(f.Value, Regular, 30, palette.Ink, AlignLeft, 2, 14)
	}
	sc.Add(col.nodes...)

	if line := socialsLine(s); line != "" {
		sc.Add(textBlock(80, 1780, 720, line, Regular, 26, muted, AlignLeft, 1))
	}
	sc.Add(textBlock(80, 1830, 720, Hashtag, Bold, 28, accent, AlignLeft, 1))
	sc.Add(shareCode(Rect{880, 1740, 120, 120}, in, palette.Ink, bg))
	return sc
}
