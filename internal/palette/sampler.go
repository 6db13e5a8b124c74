package palette

import (
	"context"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	imagepkg "github.com/youruser/potwapp/internal/image"
	"github.com/youruser/potwapp/internal/logger"
)

// Colors is an ordered palette: primary, secondary, accent, highlight, and
// optionally a fifth sample. Extracted palettes hold 1..5 entries.
type Colors []color.NRGBA

const (
	RolePrimary = iota
	RoleSecondary
	RoleAccent
	RoleHighlight
)

// Fallback returns the fixed four-color palette used whenever extraction
// cannot produce a usable result.
func Fallback() Colors {
	return Colors{
		{R: 0x1E, G: 0x3A, B: 0x8A, A: 0xff},
		{R: 0x7C, G: 0x3A, B: 0xED, A: 0xff},
		{R: 0xF5, G: 0x9E, B: 0x0B, A: 0xff},
		{R: 0x10, G: 0xB9, B: 0x81, A: 0xff},
	}
}

// Role returns the color for a structural role. Palettes shorter than the
// role index derive the missing shade from the primary color so every role
// is always defined.
func (c Colors) Role(role int) color.NRGBA {
	if role < len(c) {
		return c[role]
	}
	if len(c) == 0 {
		return Fallback()[role%4]
	}
	p := c[0]
	switch role {
	case RoleSecondary:
		return Darken(p, 0.18)
	case RoleAccent:
		h, s, l := ToHSL(p)
		return FromHSL(h+150, s, clamp(l, 0.35, 0.6))
	default:
		return Lighten(p, 0.25)
	}
}

func (c Colors) Primary() color.NRGBA   { return c.Role(RolePrimary) }
func (c Colors) Secondary() color.NRGBA { return c.Role(RoleSecondary) }
func (c Colors) Accent() color.NRGBA    { return c.Role(RoleAccent) }
func (c Colors) Highlight() color.NRGBA { return c.Role(RoleHighlight) }

func (c Colors) Hex() []string {
	out := make([]string, len(c))
	for i, v := range c {
		out[i] = Hex(v)
	}
	return out
}

const (
	maxSampleSide = 300
	minBrightness = 20.0
	maxBrightness = 235.0
)

// Sampler extracts palettes from remote images.
type Sampler struct {
	fetcher imagepkg.Fetcher
	log     *logger.Logger
}

func NewSampler(fetcher imagepkg.Fetcher, log *logger.Logger) *Sampler {
	if log == nil {
		log = logger.Nop()
	}
	return &Sampler{fetcher: fetcher, log: log.With("component", "palette")}
}

// Extract never fails: load errors, decode errors, panics in decoders and
// fully filtered samples all yield Fallback().
func (s *Sampler) Extract(ctx context.Context, imageURL string) (out Colors) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Warn("palette extraction panicked", "url", imageURL, "panic", fmt.Sprint(r))
			out = Fallback()
		}
	}()
	if imageURL == "" {
		return Fallback()
	}
	img, err := s.fetcher.Fetch(ctx, imageURL)
	if err != nil {
		s.log.Warn("palette source unavailable, using fallback", "url", imageURL, "error", err)
		return Fallback()
	}
	colors := FromImage(img)
	if len(colors) == 0 {
		s.log.Debug("palette samples filtered out, using fallback", "url", imageURL)
		return Fallback()
	}
	return colors
}

// FromImage samples the four corners and the center of img (after
// downscaling to at most 300px on its longest side), drops near-black and
// near-white samples, and dedupes by hex value preserving order. The result
// may be empty.
func FromImage(img image.Image) Colors {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil
	}
	small := imaging.Clone(img)
	if b.Dx() > maxSampleSide || b.Dy() > maxSampleSide {
		small = imaging.Fit(img, maxSampleSide, maxSampleSide, imaging.Box)
	}
	w, h := small.Bounds().Dx(), small.Bounds().Dy()
	points := []image.Point{
		{0, 0},
		{w - 1, 0},
		{0, h - 1},
		{w - 1, h - 1},
		{w / 2, h / 2},
	}

	seen := make(map[string]bool, len(points))
	out := make(Colors, 0, len(points))
	for _, p := range points {
		px := small.NRGBAAt(p.X, p.Y)
		px.A = 0xff
		br := Brightness(px)
		if br <= minBrightness || br >= maxBrightness {
			continue
		}
		key := Hex(px)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, px)
	}
	return out
}
