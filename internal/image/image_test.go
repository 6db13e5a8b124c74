package imagepkg

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func solid(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestFetchCacheBustsEveryRequest(t *testing.T) {
	body := pngBytes(t, solid(4, 4, color.NRGBA{R: 200, A: 255}))
	var mu sync.Mutex
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.URL.Query().Get("_cb"))
		mu.Unlock()
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(time.Second, true)
	for i := 0; i < 2; i++ {
		img, err := f.Fetch(context.Background(), srv.URL+"/photo.png?w=10")
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if img.Bounds().Dx() != 4 {
			t.Fatalf("unexpected bounds %v", img.Bounds())
		}
	}
	if len(seen) != 2 || seen[0] == "" || seen[0] == seen[1] {
		t.Fatalf("expected two distinct cache-bust values, got %q", seen)
	}
}

func TestFetchNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	f := NewHTTPFetcher(time.Second, false)
	if _, err := f.Fetch(context.Background(), srv.URL+"/logo.png"); err == nil {
		t.Fatalf("expected error for 404")
	}
	if _, err := f.Fetch(context.Background(), "  "); err != ErrEmptyURL {
		t.Fatalf("expected ErrEmptyURL, got %v", err)
	}
}

func TestDataURLRoundTrip(t *testing.T) {
	src := solid(3, 2, color.NRGBA{G: 255, A: 255})
	blob, err := Encode(src, FormatPNG, 90, color.White)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	u := DataURL(FormatPNG, blob)
	if !strings.HasPrefix(u, "data:image/png;base64,") {
		t.Fatalf("unexpected prefix %q", u[:30])
	}
	img, err := (&HTTPFetcher{}).Fetch(context.Background(), u)
	if err != nil {
		t.Fatalf("Fetch(data url) error = %v", err)
	}
	if img.Bounds().Dx() != 3 || img.Bounds().Dy() != 2 {
		t.Fatalf("unexpected bounds %v", img.Bounds())
	}
	if _, err := DecodeDataURL("data:image/png,notbase64"); err == nil {
		t.Fatalf("expected error for non-base64 data url")
	}
}

func TestEncodeJPEGFlattensTransparency(t *testing.T) {
	src := solid(8, 8, color.NRGBA{})
	blob, err := Encode(src, FormatJPEG, 92, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if len(blob) == 0 || blob[0] != 0xFF || blob[1] != 0xD8 {
		t.Fatalf("expected JPEG SOI marker")
	}
	flat := Flatten(src, color.NRGBA{R: 10, G: 20, B: 30, A: 0})
	if got := flat.NRGBAAt(4, 4); got != (color.NRGBA{R: 10, G: 20, B: 30, A: 255}) {
		t.Fatalf("expected opaque background pixel, got %v", got)
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatPNG, "png": FormatPNG, "jpg": FormatJPEG, "jpeg": FormatJPEG} {
		got, ok := ParseFormat(in)
		if !ok || got != want {
			t.Fatalf("ParseFormat(%q) = %q, %v", in, got, ok)
		}
	}
	if _, ok := ParseFormat("gif"); ok {
		t.Fatalf("gif should be rejected")
	}
}

func TestCover(t *testing.T) {
	out := Cover(solid(40, 10, color.Black), 20, 20)
	if out.Bounds().Dx() != 20 || out.Bounds().Dy() != 20 {
		t.Fatalf("unexpected bounds %v", out.Bounds())
	}
}

func TestShareCode(t *testing.T) {
	img, err := ShareCode("https://potw.test/s/1", 120, color.Black, color.Transparent)
	if err != nil {
		t.Fatalf("ShareCode() error = %v", err)
	}
	if img.Bounds().Dx() == 0 {
		t.Fatalf("expected non-empty qr image")
	}
	b, err := GenerateQRPNG("hello", 64)
	if err != nil || len(b) == 0 {
		t.Fatalf("GenerateQRPNG() = %d bytes, %v", len(b), err)
	}
}
