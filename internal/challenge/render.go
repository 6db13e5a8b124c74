package challenge

import (
	"fmt"
	"image/color"

	"github.com/youruser/potwapp/internal/palette"
	"github.com/youruser/potwapp/internal/render"
)

// Options style a challenge card. No student record is involved.
type Options struct {
	Colors      palette.Colors
	Branding    bool
	Association string
	LogoURL     string
	LogoAltURL  string
}

// Render lays out the card for day. Day 0 is a grid of every prompt; any
// other day shows its single prompt. Days outside 0..30 fail with
// ErrDayNotFound instead of producing a blank card.
func Render(day int, opts Options) (*render.Scene, error) {
	e, err := Lookup(day)
	if err != nil {
		return nil, err
	}
	if len(opts.Colors) == 0 {
		opts.Colors = palette.Fallback()
	}
	if day == 0 {
		return intro(e, opts), nil
	}
	return single(e, opts), nil
}

func base(name string, opts Options) (*render.Scene, float64) {
	p := opts.Colors
	bg := palette.Mix(palette.Darken(p.Primary(), 0.3), palette.Ink, 0.4)
	sc := render.NewScene(name, bg)
	full := render.Rect{W: render.CardWidth, H: render.CardHeight}
	sc.Add(&render.Box{Rect: full, Fill: render.Linear(full, true, bg, palette.Darken(p.Secondary(), 0.25))})
	sc.Add(&render.Circle{CX: 980, CY: 140, R: 240, Fill: render.Solid(palette.WithAlpha(p.Accent(), 0.18))})

	y := 80.0
	if opts.Branding {
		sc.Add(logo(opts)...)
		if t := text(190, 100, 700, opts.Association, render.Bold, 28, palette.Paper, render.AlignLeft, 2); t != nil {
			sc.Add(t)
		}
		y = 220
	}
	accent := palette.EnsureContrast(p.Highlight(), bg, 4.5)
	sc.Add(text(80, y, 920, Title, render.Bold, 52, accent, render.AlignLeft, 2))
	return sc, y + 52*1.25*2 + 20
}

func logo(opts Options) []render.Node {
	return render.LogoSlot(80, 80, 90, render.Input{
		Branding:    opts.Branding,
		Association: opts.Association,
		LogoURL:     opts.LogoURL,
		LogoAltURL:  opts.LogoAltURL,
	}, opts.Colors.Accent())
}

func text(x, y, w float64, s string, style render.FontStyle, size float64, c color.NRGBA, align render.Align, maxLines int) *render.Text {
	lines := render.Fonts().Wrap(style, size, s, w, maxLines)
	if len(lines) == 0 {
		return nil
	}
	return &render.Text{
		Rect:       render.Rect{X: x, Y: y, W: w, H: float64(len(lines)) * size * 1.25},
		Lines:      lines,
		Font:       style,
		Size:       size,
		LineHeight: 1.25,
		Color:      c,
		Align:      align,
	}
}

func intro(e Entry, opts Options) *render.Scene {
	p := opts.Colors
	sc, top := base("challenge-intro", opts)
	sc.Add(text(80, top, 920, e.Prompt, render.Italic, 30, palette.Paper, render.AlignLeft, 3))
	top += 3*30*1.25 + 30

	const (
		cols = 3
		rows = Days / cols
		gap  = 16.0
	)
	cellW := (920 - gap*(cols-1)) / cols
	cellH := (render.CardHeight - 80 - top - gap*(rows-1)) / rows
	tile := palette.WithAlpha(palette.Paper, 0.08)
	num := palette.EnsureContrast(p.Accent(), sc.Matte, 3)
	for d := 1; d <= Days; d++ {
		i := d - 1
		x := 80 + float64(i%cols)*(cellW+gap)
		y := top + float64(i/cols)*(cellH+gap)
		sc.Add(&render.Box{Rect: render.Rect{X: x, Y: y, W: cellW, H: cellH}, Fill: render.Solid(tile), Radius: 16})
		sc.Add(text(x+14, y+10, 60, fmt.Sprintf("%02d", d), render.Mono, 22, num, render.AlignLeft, 1))
		sc.Add(text(x+14, y+40, cellW-28, entries[d], render.Regular, 19, palette.Paper, render.AlignLeft, int((cellH-50)/(19*1.25))))
	}
	return sc
}

func single(e Entry, opts Options) *render.Scene {
	p := opts.Colors
	sc, top := base(fmt.Sprintf("challenge-day-%02d", e.Day), opts)

	badge := render.Rect{X: 80, Y: top + 80, W: 920, H: 300}
	sc.Add(&render.Box{Rect: badge, Fill: render.Linear(badge, false, p.Primary(), p.Accent()), Radius: 40})
	ink := palette.ReadableOn(palette.Mix(p.Primary(), p.Accent(), 0.5))
	sc.Add(text(badge.X, badge.Y+40, badge.W, "DAY", render.Bold, 48, ink, render.AlignCenter, 1))
	sc.Add(text(badge.X, badge.Y+110, badge.W, fmt.Sprintf("%02d", e.Day), render.Bold, 120, ink, render.AlignCenter, 1))

	size := render.Fonts().Fit(render.Bold, e.Prompt, 920, 48, 72)
	sc.Add(text(80, badge.Bottom()+120, 920, e.Prompt, render.Bold, size, palette.Paper, render.AlignCenter, 6))

	sc.Add(text(80, 1700, 920, fmt.Sprintf("Day %d of %d", e.Day, Days), render.Regular, 30, palette.Mix(palette.Paper, sc.Matte, 0.3), render.AlignCenter, 1))
	sc.Add(text(80, 1760, 920, render.Hashtag, render.Bold, 32, palette.EnsureContrast(p.Highlight(), sc.Matte, 4.5), render.AlignCenter, 1))
	return sc
}
