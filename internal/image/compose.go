package imagepkg

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
)

// ParseFormat accepts "png", "jpeg" and "jpg".
func ParseFormat(s string) (Format, bool) {
	switch s {
	case "png", "":
		return FormatPNG, true
	case "jpeg", "jpg":
		return FormatJPEG, true
	}
	return "", false
}

func (f Format) MIME() string {
	if f == FormatJPEG {
		return "image/jpeg"
	}
	return "image/png"
}

// Cover scales and center-crops img to exactly w×h.
func Cover(img image.Image, w, h int) *image.NRGBA {
	return imaging.Fill(img, w, h, imaging.Center, imaging.Lanczos)
}

// Flatten composites img onto an opaque background. JPEG has no alpha
// channel, so any transparency is resolved here rather than by the encoder.
func Flatten(img image.Image, bg color.Color) *image.NRGBA {
	b := img.Bounds()
	canvas := imaging.New(b.Dx(), b.Dy(), opaque(bg))
	return imaging.Overlay(canvas, img, image.Pt(0, 0), 1.0)
}

func opaque(c color.Color) color.NRGBA {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	n.A = 0xff
	return n
}

// Encode serializes img. PNG is lossless; JPEG uses the given quality after
// flattening onto bg.
func Encode(img image.Image, format Format, jpegQuality int, bg color.Color) ([]byte, error) {
	buf := new(bytes.Buffer)
	var err error
	switch format {
	case FormatPNG:
		err = imaging.Encode(buf, img, imaging.PNG)
	case FormatJPEG:
		err = imaging.Encode(buf, Flatten(img, bg), imaging.JPEG, imaging.JPEGQuality(jpegQuality))
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

// DataURL wraps an encoded image in a base64 data: URL.
func DataURL(format Format, blob []byte) string {
	return "data:" + format.MIME() + ";base64," + base64.StdEncoding.EncodeToString(blob)
}
