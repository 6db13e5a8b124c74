package render

import (
	"image"
	"image/color"
)

// Canvas size of every card, in scene units. Captures multiply it by the
// requested scale.
const (
	CardWidth  = 1080
	CardHeight = 1920
)

type Rect struct {
	X, Y, W, H float64
}

func (r Rect) Bottom() float64 { return r.Y + r.H }
func (r Rect) Right() float64  { return r.X + r.W }

func (r Rect) Inset(d float64) Rect {
	return Rect{r.X + d, r.Y + d, r.W - 2*d, r.H - 2*d}
}

// Node is one element of a laid-out card. The set of node types is closed.
type Node interface {
	Bounds() Rect
}

type Stop struct {
	Offset float64
	Color  color.NRGBA
}

// Gradient is a linear gradient between two points in scene coordinates.
type Gradient struct {
	X0, Y0, X1, Y1 float64
	Stops          []Stop
}

// Paint is a solid color, or a gradient when Gradient is non-nil.
type Paint struct {
	Color    color.NRGBA
	Gradient *Gradient
}

func Solid(c color.NRGBA) Paint { return Paint{Color: c} }

func Linear(r Rect, vertical bool, colors ...color.NRGBA) Paint {
	g := &Gradient{X0: r.X, Y0: r.Y, X1: r.Right(), Y1: r.Y}
	if vertical {
		g.X1, g.Y1 = r.X, r.Bottom()
	}
	for i, c := range colors {
		off := 0.0
		if len(colors) > 1 {
			off = float64(i) / float64(len(colors)-1)
		}
		g.Stops = append(g.Stops, Stop{off, c})
	}
	return Paint{Gradient: g}
}

type Box struct {
	Rect
	Fill        Paint
	Radius      float64
	Stroke      color.NRGBA
	StrokeWidth float64
}

func (b *Box) Bounds() Rect { return b.Rect }

type Circle struct {
	CX, CY, R   float64
	Fill        Paint
	Stroke      color.NRGBA
	StrokeWidth float64
}

func (c *Circle) Bounds() Rect { return Rect{c.CX - c.R, c.CY - c.R, 2 * c.R, 2 * c.R} }

type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// Text is a pre-wrapped block. Lines are laid out from the top of Rect, one
// every Size*LineHeight units.
type Text struct {
	Rect
	Lines      []string
	Font       FontStyle
	Size       float64
	LineHeight float64
	Color      color.NRGBA
	Align      Align
}

func (t *Text) Bounds() Rect { return t.Rect }

type Shape int

const (
	ShapeRect Shape = iota
	ShapeRounded
	ShapeCircle
)

// Picture is a remote image slot. When neither URL nor AltURL produce an
// image, Fallback is drawn in its place.
type Picture struct {
	Rect
	Slot     string
	URL      string
	AltURL   string
	Shape    Shape
	Radius   float64
	Fallback []Node
}

func (p *Picture) Bounds() Rect { return p.Rect }

// Bitmap is an image generated during layout, such as a QR code.
type Bitmap struct {
	Rect
	Image image.Image
}

func (b *Bitmap) Bounds() Rect { return b.Rect }

// Scene is a fully laid-out card. Background is painted before any node;
// a transparent background keeps the PNG alpha channel, while Matte is the
// opaque color used when the target format has none.
type Scene struct {
	Template   string
	Width      int
	Height     int
	Background color.NRGBA
	Matte      color.NRGBA
	Nodes      []Node
}

func NewScene(template string, bg color.NRGBA) *Scene {
	matte := bg
	matte.A = 0xff
	return &Scene{Template: template, Width: CardWidth, Height: CardHeight, Background: bg, Matte: matte}
}

// Add appends non-nil nodes.
func (s *Scene) Add(nodes ...Node) {
	for _, n := range nodes {
		if n != nil && !isNilNode(n) {
			s.Nodes = append(s.Nodes, n)
		}
	}
}

func isNilNode(n Node) bool {
	switch v := n.(type) {
	case *Box:
		return v == nil
	case *Circle:
		return v == nil
	case *Text:
		return v == nil
	case *Picture:
		return v == nil
	case *Bitmap:
		return v == nil
	}
	return false
}

// Walk visits every node depth-first, including picture fallbacks.
func (s *Scene) Walk(fn func(Node)) {
	walkNodes(s.Nodes, fn)
}

func walkNodes(nodes []Node, fn func(Node)) {
	for _, n := range nodes {
		fn(n)
		if p, ok := n.(*Picture); ok {
			walkNodes(p.Fallback, fn)
		}
	}
}

// Pictures lists the picture slots that need remote assets.
func (s *Scene) Pictures() []*Picture {
	var out []*Picture
	for _, n := range s.Nodes {
		if p, ok := n.(*Picture); ok {
			out = append(out, p)
		}
	}
	return out
}

// Picture returns the picture in the named slot, or nil.
func (s *Scene) Picture(slot string) *Picture {
	for _, p := range s.Pictures() {
		if p.Slot == slot {
			return p
		}
	}
	return nil
}

// Strings returns every text line in draw order, fallbacks included.
func (s *Scene) Strings() []string {
	var out []string
	s.Walk(func(n Node) {
		if t, ok := n.(*Text); ok {
			out = append(out, t.Lines...)
		}
	})
	return out
}
