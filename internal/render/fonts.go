package render

import (
	"fmt"
	"strings"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

type FontStyle int

const (
	Regular FontStyle = iota
	Bold
	Italic
	Mono
)

// FontBook holds the parsed card typefaces. Layout measurement shares one
// set of faces behind a mutex; rasterization asks for fresh faces because
// truetype faces are not safe for concurrent use.
type FontBook struct {
	fonts map[FontStyle]*truetype.Font

	mu    sync.Mutex
	faces map[faceKey]font.Face
	ctx   *gg.Context
}

type faceKey struct {
	style FontStyle
	size  float64
}

func NewFontBook() (*FontBook, error) {
	sources := map[FontStyle][]byte{
		Regular: goregular.TTF,
		Bold:    gobold.TTF,
		Italic:  goitalic.TTF,
		Mono:    gomono.TTF,
	}
	fonts := make(map[FontStyle]*truetype.Font, len(sources))
	for style, ttf := range sources {
		f, err := truetype.Parse(ttf)
		if err != nil {
			return nil, fmt.Errorf("parse font %d: %w", style, err)
		}
		fonts[style] = f
	}
	return &FontBook{
		fonts: fonts,
		faces: make(map[faceKey]font.Face),
		ctx:   gg.NewContext(1, 1),
	}, nil
}

var (
	defaultBookOnce sync.Once
	defaultBook     *FontBook
)

// Fonts returns the shared font book built from the embedded Go fonts.
func Fonts() *FontBook {
	defaultBookOnce.Do(func() {
		b, err := NewFontBook()
		if err != nil {
			panic(err)
		}
		defaultBook = b
	})
	return defaultBook
}

// NewFace returns a face owned by the caller.
func (b *FontBook) NewFace(style FontStyle, size float64) font.Face {
	f, ok := b.fonts[style]
	if !ok {
		f = b.fonts[Regular]
	}
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
}

func (b *FontBook) sharedFaceLocked(style FontStyle, size float64) font.Face {
	k := faceKey{style, size}
	if f, ok := b.faces[k]; ok {
		return f
	}
	f := b.NewFace(style, size)
	b.faces[k] = f
	return f
}

// Measure returns the rendered width of s.
func (b *FontBook) Measure(style FontStyle, size float64, s string) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ctx.SetFontFace(b.sharedFaceLocked(style, size))
	w, _ := b.ctx.MeasureString(s)
	return w
}

// Wrap breaks text into lines no wider than width. When maxLines > 0 the
// result is cut to that many lines and the last one ends with an ellipsis.
func (b *FontBook) Wrap(style FontStyle, size float64, text string, width float64, maxLines int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ctx.SetFontFace(b.sharedFaceLocked(style, size))

	var lines []string
	for _, l := range b.ctx.WordWrap(text, width) {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, b.hardBreakLocked(l, width)...)
		}
	}
	if maxLines <= 0 || len(lines) <= maxLines {
		return lines
	}
	lines = lines[:maxLines]
	last := []rune(lines[maxLines-1])
	for len(last) > 0 {
		candidate := strings.TrimRight(string(last), " ,.;:") + "…"
		if w, _ := b.ctx.MeasureString(candidate); w <= width {
			lines[maxLines-1] = candidate
			return lines
		}
		last = last[:len(last)-1]
	}
	lines[maxLines-1] = "…"
	return lines
}

// hardBreakLocked splits a line that is still wider than width, which
// happens when a single word (a handle or URL) does not fit, rune by rune.
func (b *FontBook) hardBreakLocked(line string, width float64) []string {
	if w, _ := b.ctx.MeasureString(line); w <= width {
		return []string{line}
	}
	var out []string
	var cur []rune
	for _, r := range line {
		next := append(cur, r)
		if w, _ := b.ctx.MeasureString(string(next)); w > width && len(cur) > 0 {
			if t := strings.TrimSpace(string(cur)); t != "" {
				out = append(out, t)
			}
			cur = []rune{r}
			continue
		}
		cur = next
	}
	if t := strings.TrimSpace(string(cur)); t != "" {
		out = append(out, t)
	}
	return out
}

// Fit returns the largest size in [lo, hi] (stepping by 2) at which s fits
// on one line of the given width.
func (b *FontBook) Fit(style FontStyle, s string, width, lo, hi float64) float64 {
	for size := hi; size > lo; size -= 2 {
		if b.Measure(style, size, s) <= width {
			return size
		}
	}
	return lo
}

// FaceSet is a per-capture set of faces keyed by style and pixel size.
type FaceSet struct {
	book  *FontBook
	faces map[faceKey]font.Face
}

// Embed creates every face a scene needs at the given scale up front, so a
// conversion attempt never starts with missing typefaces.
func (b *FontBook) Embed(s *Scene, scale float64) *FaceSet {
	fs := &FaceSet{book: b, faces: make(map[faceKey]font.Face)}
	s.Walk(func(n Node) {
		if t, ok := n.(*Text); ok {
			fs.Face(t.Font, t.Size*scale)
		}
	})
	return fs
}

func (fs *FaceSet) Face(style FontStyle, size float64) font.Face {
	k := faceKey{style, size}
	if f, ok := fs.faces[k]; ok {
		return f
	}
	f := fs.book.NewFace(style, size)
	fs.faces[k] = f
	return f
}

func (fs *FaceSet) Len() int { return len(fs.faces) }
