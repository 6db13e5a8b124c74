package render

import (
	"context"
	"image"

	xdraw "golang.org/x/image/draw"
)

// PreviewWidth is the default thumbnail width for on-screen previews.
const PreviewWidth = 360

// Preview renders the same scene a capture would, downscaled to width. The
// scene is never re-laid out, so the preview and the exported card match.
func Preview(ctx context.Context, s *Scene, assets Assets, width int) (image.Image, error) {
	if width <= 0 {
		width = PreviewWidth
	}
	full, err := Rasterize(ctx, s, assets, nil, 1)
	if err != nil {
		return nil, err
	}
	b := full.Bounds()
	if width >= b.Dx() {
		return full, nil
	}
	height := b.Dy() * width / b.Dx()
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), full, b, xdraw.Src, nil)
	return dst, nil
}
