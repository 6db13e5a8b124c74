package palette

import (
	"encoding/hex"
	"errors"
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
)

var ErrInvalidColor = errors.New("invalid color")

// LooksLikeColor is the cheap prefix guard applied to user-entered color
// strings: a hex literal or an rgb/rgba/hsl/hsla function.
func LooksLikeColor(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, p := range []string{"#", "rgb(", "rgba(", "hsl(", "hsla("} {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// SafeAccent turns a user-entered color into a usable accent. Strings that
// fail the prefix guard, or pass it but do not parse, yield def.
func SafeAccent(raw string, def color.NRGBA) color.NRGBA {
	if !LooksLikeColor(raw) {
		return def
	}
	c, err := ParseColor(raw)
	if err != nil {
		return def
	}
	c.A = 0xff
	return c
}

// ParseColor parses #rgb, #rrggbb, #rrggbbaa, rgb(), rgba(), hsl() and hsla().
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.HasPrefix(s, "#"):
		return parseHex(s[1:])
	case strings.HasPrefix(s, "rgb"):
		args, err := funcArgs(s, "rgb", "rgba")
		if err != nil {
			return color.NRGBA{}, err
		}
		return parseRGB(args)
	case strings.HasPrefix(s, "hsl"):
		args, err := funcArgs(s, "hsl", "hsla")
		if err != nil {
			return color.NRGBA{}, err
		}
		return parseHSL(args)
	}
	return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
}

// MustParse is for compile-time palette constants.
func MustParse(s string) color.NRGBA {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

func parseHex(h string) (color.NRGBA, error) {
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 && len(h) != 8 {
		return color.NRGBA{}, fmt.Errorf("%w: hex length %d", ErrInvalidColor, len(h))
	}
	raw, err := hex.DecodeString(h)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%w: %v", ErrInvalidColor, err)
	}
	c := color.NRGBA{R: raw[0], G: raw[1], B: raw[2], A: 0xff}
	if len(raw) == 4 {
		c.A = raw[3]
	}
	return c, nil
}

func funcArgs(s string, names ...string) ([]string, error) {
	open := strings.IndexByte(s, '(')
	if open < 0 || !strings.HasSuffix(s, ")") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	name := strings.TrimSpace(s[:open])
	known := false
	for _, n := range names {
		known = known || name == n
	}
	if !known {
		return nil, fmt.Errorf("%w: unknown function %q", ErrInvalidColor, name)
	}
	body := s[open+1 : len(s)-1]
	body = strings.NewReplacer("/", " ", ",", " ").Replace(body)
	args := strings.Fields(body)
	if len(args) != 3 && len(args) != 4 {
		return nil, fmt.Errorf("%w: expected 3 or 4 components in %q", ErrInvalidColor, s)
	}
	return args, nil
}

func parseRGB(args []string) (color.NRGBA, error) {
	var ch [3]uint8
	for i := 0; i < 3; i++ {
		v, err := component(args[i], 255)
		if err != nil {
			return color.NRGBA{}, err
		}
		ch[i] = uint8(math.Round(v))
	}
	a, err := alpha(args)
	if err != nil {
		return color.NRGBA{}, err
	}
	return color.NRGBA{R: ch[0], G: ch[1], B: ch[2], A: a}, nil
}

func parseHSL(args []string) (color.NRGBA, error) {
	h, err := strconv.ParseFloat(strings.TrimSuffix(args[0], "deg"), 64)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%w: hue %q", ErrInvalidColor, args[0])
	}
	sat, err := component(args[1], 1)
	if err != nil {
		return color.NRGBA{}, err
	}
	lig, err := component(args[2], 1)
	if err != nil {
		return color.NRGBA{}, err
	}
	a, err := alpha(args)
	if err != nil {
		return color.NRGBA{}, err
	}
	c := FromHSL(h, sat, lig)
	c.A = a
	return c, nil
}

// component parses a plain number (0..limit) or a percentage and clamps it.
func component(s string, limit float64) (float64, error) {
	scale := 1.0
	if strings.HasSuffix(s, "%") {
		s = strings.TrimSuffix(s, "%")
		scale = limit / 100
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: component %q", ErrInvalidColor, s)
	}
	return clamp(v*scale, 0, limit), nil
}

func alpha(args []string) (uint8, error) {
	if len(args) < 4 {
		return 0xff, nil
	}
	v, err := component(args[3], 1)
	if err != nil {
		return 0, err
	}
	return uint8(math.Round(v * 255)), nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Hex formats c as #RRGGBB, ignoring alpha.
func Hex(c color.NRGBA) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// Brightness is the HSP perceived brightness in 0..255.
func Brightness(c color.NRGBA) float64 {
	r, g, b := float64(c.R), float64(c.G), float64(c.B)
	return math.Sqrt(0.299*r*r + 0.587*g*g + 0.114*b*b)
}

// ToHSL converts c to hue in degrees and saturation/lightness in 0..1.
func ToHSL(c color.NRGBA) (h, s, l float64) {
	r, g, b := float64(c.R)/255, float64(c.G)/255, float64(c.B)/255
	mx, mn := math.Max(r, math.Max(g, b)), math.Min(r, math.Min(g, b))
	l = (mx + mn) / 2
	if mx == mn {
		return 0, 0, l
	}
	d := mx - mn
	if l > 0.5 {
		s = d / (2 - mx - mn)
	} else {
		s = d / (mx + mn)
	}
	switch mx {
	case r:
		h = (g - b) / d
		if g < b {
			h += 6
		}
	case g:
		h = (b-r)/d + 2
	default:
		h = (r-g)/d + 4
	}
	return h * 60, s, l
}

func FromHSL(h, s, l float64) color.NRGBA {
	h = math.Mod(math.Mod(h, 360)+360, 360) / 360
	if s == 0 {
		v := uint8(math.Round(l * 255))
		return color.NRGBA{R: v, G: v, B: v, A: 0xff}
	}
	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q
	conv := func(t float64) uint8 {
		if t < 0 {
			t++
		}
		if t > 1 {
			t--
		}
		var v float64
		switch {
		case t < 1.0/6:
			v = p + (q-p)*6*t
		case t < 0.5:
			v = q
		case t < 2.0/3:
			v = p + (q-p)*(2.0/3-t)*6
		default:
			v = p
		}
		return uint8(math.Round(clamp(v, 0, 1) * 255))
	}
	return color.NRGBA{R: conv(h + 1.0/3), G: conv(h), B: conv(h - 1.0/3), A: 0xff}
}

// Lighten raises HSL lightness by amount (0..1), keeping alpha.
func Lighten(c color.NRGBA, amount float64) color.NRGBA {
	h, s, l := ToHSL(c)
	out := FromHSL(h, s, clamp(l+amount, 0, 1))
	out.A = c.A
	return out
}

// Darken lowers HSL lightness by amount (0..1), keeping alpha.
func Darken(c color.NRGBA, amount float64) color.NRGBA {
	return Lighten(c, -amount)
}

func WithAlpha(c color.NRGBA, a float64) color.NRGBA {
	c.A = uint8(math.Round(clamp(a, 0, 1) * 255))
	return c
}

// Mix blends a toward b by t (0..1).
func Mix(a, b color.NRGBA, t float64) color.NRGBA {
	t = clamp(t, 0, 1)
	lerp := func(x, y uint8) uint8 { return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t)) }
	return color.NRGBA{R: lerp(a.R, b.R), G: lerp(a.G, b.G), B: lerp(a.B, b.B), A: lerp(a.A, b.A)}
}

var (
	Ink   = color.NRGBA{R: 0x11, G: 0x18, B: 0x27, A: 0xff}
	Paper = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// ReadableOn picks dark ink or white for text placed on bg.
func ReadableOn(bg color.NRGBA) color.NRGBA {
	if Brightness(bg) > 150 {
		return Ink
	}
	return Paper
}

// Contrast returns the WCAG contrast ratio between two opaque colors.
func Contrast(a, b color.NRGBA) float64 {
	la, lb := luminance(a), luminance(b)
	if la < lb {
		la, lb = lb, la
	}
	return (la + 0.05) / (lb + 0.05)
}

func luminance(c color.NRGBA) float64 {
	ch := func(v uint8) float64 {
		f := float64(v) / 255
		if f <= 0.03928 {
			return f / 12.92
		}
		return math.Pow((f+0.055)/1.055, 2.4)
	}
	return 0.2126*ch(c.R) + 0.7152*ch(c.G) + 0.0722*ch(c.B)
}

// EnsureContrast darkens (or lightens) fg until it reaches min contrast
// against bg, falling back to ReadableOn when no shade of fg gets there.
func EnsureContrast(fg, bg color.NRGBA, min float64) color.NRGBA {
	if Contrast(fg, bg) >= min {
		return fg
	}
	step := -0.08
	if Brightness(bg) < 128 {
		step = 0.08
	}
	c := fg
	for i := 0; i < 12; i++ {
		c = Lighten(c, step)
		if Contrast(c, bg) >= min {
			return c
		}
	}
	return ReadableOn(bg)
}
