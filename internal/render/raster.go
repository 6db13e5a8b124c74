package render

import (
	"context"
	"errors"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	imagepkg "github.com/youruser/potwapp/internal/image"
)

var ErrInvalidScale = errors.New("scale must be a finite number >= 1")

// Assets resolves the remote images referenced by Picture nodes. A nil image
// means the asset is unavailable and the picture's fallback is drawn.
type Assets interface {
	Image(url string) image.Image
}

// NoAssets draws every picture as its fallback.
type NoAssets struct{}

func (NoAssets) Image(string) image.Image { return nil }

// Rasterize draws a scene at the given pixel ratio. The canvas is exactly
// Width*scale by Height*scale pixels. Glyphs are not affected by the gg
// transform, so every coordinate and font size is scaled here instead.
func Rasterize(ctx context.Context, s *Scene, assets Assets, faces *FaceSet, scale float64) (*image.RGBA, error) {
	if math.IsNaN(scale) || math.IsInf(scale, 0) || scale < 1 {
		return nil, ErrInvalidScale
	}
	if assets == nil {
		assets = NoAssets{}
	}
	if faces == nil {
		faces = Fonts().Embed(s, scale)
	}
	w := int(math.Round(float64(s.Width) * scale))
	h := int(math.Round(float64(s.Height) * scale))
	r := &rasterizer{dc: gg.NewContext(w, h), assets: assets, faces: faces, k: scale}

	r.dc.SetColor(s.Background)
	r.dc.Clear()
	for _, n := range s.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r.draw(n)
	}
	img, ok := r.dc.Image().(*image.RGBA)
	if !ok {
		return nil, errors.New("unexpected canvas type")
	}
	return img, nil
}

type rasterizer struct {
	dc     *gg.Context
	assets Assets
	faces  *FaceSet
	k      float64
}

func (r *rasterizer) draw(n Node) {
	switch v := n.(type) {
	case *Box:
		r.box(v)
	case *Circle:
		r.circle(v)
	case *Text:
		r.text(v)
	case *Picture:
		r.picture(v)
	case *Bitmap:
		r.bitmap(v)
	}
}

func (r *rasterizer) paint(p Paint) {
	if g := p.Gradient; g != nil {
		grad := gg.NewLinearGradient(g.X0*r.k, g.Y0*r.k, g.X1*r.k, g.Y1*r.k)
		for _, st := range g.Stops {
			grad.AddColorStop(st.Offset, st.Color)
		}
		r.dc.SetFillStyle(grad)
		return
	}
	r.dc.SetColor(p.Color)
}

func (r *rasterizer) boxPath(rc Rect, radius float64) {
	k := r.k
	if radius > 0 {
		r.dc.DrawRoundedRectangle(rc.X*k, rc.Y*k, rc.W*k, rc.H*k, radius*k)
		return
	}
	r.dc.DrawRectangle(rc.X*k, rc.Y*k, rc.W*k, rc.H*k)
}

func (r *rasterizer) fillStroke(fill Paint, stroke Paint, width float64) {
	r.paint(fill)
	if width <= 0 {
		r.dc.Fill()
		return
	}
	r.dc.FillPreserve()
	r.dc.SetColor(stroke.Color)
	r.dc.SetLineWidth(width * r.k)
	r.dc.Stroke()
}

func (r *rasterizer) box(b *Box) {
	r.boxPath(b.Rect, b.Radius)
	r.fillStroke(b.Fill, Solid(b.Stroke), b.StrokeWidth)
}

func (r *rasterizer) circle(c *Circle) {
	r.dc.DrawCircle(c.CX*r.k, c.CY*r.k, c.R*r.k)
	r.fillStroke(c.Fill, Solid(c.Stroke), c.StrokeWidth)
}

func (r *rasterizer) text(t *Text) {
	face := r.faces.Face(t.Font, t.Size*r.k)
	r.dc.SetFontFace(face)
	r.dc.SetColor(t.Color)

	m := face.Metrics()
	ascent := float64(m.Ascent) / 64
	descent := float64(m.Descent) / 64
	lh := t.Size * t.LineHeight * r.k

	x, ax := t.X*r.k, 0.0
	switch t.Align {
	case AlignCenter:
		x, ax = (t.X+t.W/2)*r.k, 0.5
	case AlignRight:
		x, ax = t.Right()*r.k, 1
	}
	for i, line := range t.Lines {
		top := t.Y*r.k + float64(i)*lh
		baseline := top + (lh-(ascent+descent))/2 + ascent
		r.dc.DrawStringAnchored(line, x, baseline, ax, 0)
	}
}

func (r *rasterizer) picture(p *Picture) {
	img := r.assets.Image(p.URL)
	if img == nil && p.AltURL != "" {
		img = r.assets.Image(p.AltURL)
	}
	if img == nil {
		for _, n := range p.Fallback {
			r.draw(n)
		}
		return
	}
	k := r.k
	w, h := int(math.Round(p.W*k)), int(math.Round(p.H*k))
	if w <= 0 || h <= 0 {
		return
	}
	cover := imagepkg.Cover(img, w, h)
	x, y := int(math.Round(p.X*k)), int(math.Round(p.Y*k))

	// gg keeps the clip mask until it is reset.
	defer r.dc.ResetClip()
	switch p.Shape {
	case ShapeCircle:
		r.dc.DrawCircle(p.X*k+float64(w)/2, p.Y*k+float64(h)/2, float64(min(w, h))/2)
		r.dc.Clip()
	case ShapeRounded:
		r.boxPath(p.Rect, p.Radius)
		r.dc.Clip()
	}
	r.dc.DrawImage(cover, x, y)
}

func (r *rasterizer) bitmap(b *Bitmap) {
	if b.Image == nil {
		return
	}
	w, h := int(math.Round(b.W*r.k)), int(math.Round(b.H*r.k))
	if w <= 0 || h <= 0 {
		return
	}
	img := imaging.Resize(b.Image, w, h, imaging.NearestNeighbor)
	r.dc.DrawImage(img, int(math.Round(b.X*r.k)), int(math.Round(b.Y*r.k)))
}
