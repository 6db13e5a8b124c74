package render

import (
	"context"
	"image"
	"image/color"
	"reflect"
	"strings"
	"testing"

	"github.com/youruser/potwapp/internal/palette"
	"github.com/youruser/potwapp/internal/student"
)

func fullRecord() student.Record {
	return student.Record{
		ID:                  "s-1",
		FullName:            "Ada Lovelace",
		Level:               "300",
		Department:          "Computer Science",
		PhotoURL:            "https://cdn.example.com/ada.jpg",
		Quote:               "Imagination is the discovering faculty",
		Bio:                 "Writes programs for engines that do not exist yet.",
		Hobbies:             "Chess, poetry",
		Achievements:        "First published algorithm",
		FavoriteCourse:      "Analysis",
		LeastFavoriteCourse: "Statistics",
		BestMoment:          "The Bernoulli numbers note",
		FavoriteLecturer:    "Prof. De Morgan",
		Advice:              "Ship the note.",
		Instagram:           "ada",
		LinkedIn:            "ada-lovelace",
		BirthMonth:          "December",
		BirthDay:            "10",
		Track:               "Theory",
		FavoriteColor:       "#ff00aa",
	}
}

func input(r student.Record) Input {
	return Input{
		Student:     r,
		Colors:      palette.Fallback(),
		LogoURL:     "https://cdn.example.com/logo.png",
		Branding:    true,
		Association: "Computing Students Association",
	}
}

func TestLookupFallsBackToDefault(t *testing.T) {
	for _, tag := range []string{"", "nonexistent", "PREMIUMX"} {
		tpl, ok := Lookup(tag)
		if ok {
			t.Fatalf("Lookup(%q) reported a known tag", tag)
		}
		if tpl.Name() != DefaultTemplate {
			t.Fatalf("Lookup(%q) = %s, want %s", tag, tpl.Name(), DefaultTemplate)
		}
	}
	tpl, ok := Lookup(" Vibrant ")
	if !ok || tpl.Name() != "vibrant" {
		t.Fatalf("Lookup(Vibrant) = %s, %v", tpl.Name(), ok)
	}
	if got := Render("nonexistent", input(fullRecord())); got.Template != "premium" {
		t.Fatalf("unknown tag rendered %s", got.Template)
	}
}

func TestTemplatesNeverRenderMissingValues(t *testing.T) {
	records := map[string]student.Record{
		"minimal": {ID: "s-2", FullName: "Bo"},
		"full":    fullRecord(),
		"blank":   {ID: "s-3", FullName: "Cy", Quote: "   ", Hobbies: " ", Bio: ""},
	}
	for _, name := range Names() {
		for label, rec := range records {
			sc := Render(name, input(rec))
			if sc.Width != CardWidth || sc.Height != CardHeight {
				t.Fatalf("%s/%s: size %dx%d", name, label, sc.Width, sc.Height)
			}
			for _, s := range sc.Strings() {
				if strings.TrimSpace(s) == "" {
					t.Fatalf("%s/%s: empty text line", name, label)
				}
				low := strings.ToLower(s)
				for _, bad := range []string{"undefined", "null", "<nil>", "“”"} {
					if strings.Contains(low, bad) {
						t.Fatalf("%s/%s: rendered %q", name, label, s)
					}
				}
			}
			sc.Walk(func(n Node) {
				if _, ok := n.(*Text); !ok {
					return
				}
				b := n.Bounds()
				if b.W < 0 || b.H < 0 || b.Bottom() > CardHeight {
					t.Fatalf("%s/%s: node out of canvas: %+v", name, label, b)
				}
			})
		}
	}
}

func TestMissingPhotoShowsInitial(t *testing.T) {
	rec := student.Record{ID: "s-4", FullName: "ada lovelace"}
	for _, name := range Names() {
		sc := Render(name, input(rec))
		if sc.Picture("photo") != nil {
			t.Fatalf("%s: photo slot without a photo url", name)
		}
		found := false
		for _, s := range sc.Strings() {
			if s == "A" {
				found = true
			}
		}
		if !found {
			t.Fatalf("%s: initial placeholder missing", name)
		}
	}
}

func TestBrandingOffOmitsLogoAndName(t *testing.T) {
	in := input(fullRecord())
	in.Branding = false
	for _, name := range Names() {
		sc := Render(name, in)
		if sc.Picture("logo") != nil {
			t.Fatalf("%s: logo slot with branding off", name)
		}
		for _, s := range sc.Strings() {
			if strings.Contains(s, "Computing Students") {
				t.Fatalf("%s: association name with branding off", name)
			}
		}
	}
}

func TestBrandingWithoutLogoUsesGlyph(t *testing.T) {
	in := input(fullRecord())
	in.LogoURL = ""
	sc := Render("premium", in)
	if sc.Picture("logo") != nil {
		t.Fatal("logo slot without any logo url")
	}
	found := false
	for _, s := range sc.Strings() {
		if s == "C" {
			found = true
		}
	}
	if !found {
		t.Fatal("association glyph missing")
	}

	in.LogoAltURL = "data:image/png;base64,AAAA"
	p := Render("premium", in).Picture("logo")
	if p == nil || p.AltURL != in.LogoAltURL || len(p.Fallback) == 0 {
		t.Fatalf("logo slot = %+v", p)
	}
}

func TestInvalidFavoriteColorFallsBack(t *testing.T) {
	bad := fullRecord()
	bad.FavoriteColor = "banana"
	none := fullRecord()
	none.FavoriteColor = ""
	for _, name := range Names() {
		got := Render(name, input(bad))
		want := Render(name, input(none))
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("%s: banana changed the layout", name)
		}
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	in := input(fullRecord())
	in.ShareURL = "https://potw.example.com/s/s-1"
	for _, name := range Names() {
		a := Render(name, in)
		b := Render(name, in)
		if !reflect.DeepEqual(a.Strings(), b.Strings()) || len(a.Nodes) != len(b.Nodes) {
			t.Fatalf("%s: two renders differ", name)
		}
	}
}

type mapAssets map[string]image.Image

func (m mapAssets) Image(url string) image.Image { return m[url] }

func solid(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func pictureScene() *Scene {
	sc := NewScene("test", palette.Paper)
	sc.Width, sc.Height = 100, 100
	red := color.NRGBA{R: 0xff, A: 0xff}
	sc.Add(&Picture{
		Rect:     Rect{10, 10, 50, 50},
		Slot:     "photo",
		URL:      "https://x/photo.png",
		AltURL:   "data:alt",
		Fallback: []Node{&Box{Rect: Rect{10, 10, 50, 50}, Fill: Solid(red)}},
	})
	return sc
}

func TestRasterizePictureFallbacks(t *testing.T) {
	ctx := context.Background()
	blue := color.NRGBA{B: 0xff, A: 0xff}
	green := color.NRGBA{G: 0xff, A: 0xff}

	cases := []struct {
		name   string
		assets Assets
		want   color.NRGBA
	}{
		{"primary", mapAssets{"https://x/photo.png": solid(8, 8, blue)}, blue},
		{"alt", mapAssets{"data:alt": solid(8, 8, green)}, green},
		{"none", NoAssets{}, color.NRGBA{R: 0xff, A: 0xff}},
	}
	for _, tc := range cases {
		img, err := Rasterize(ctx, pictureScene(), tc.assets, nil, 1)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		got := color.NRGBAModel.Convert(img.At(35, 35)).(color.NRGBA)
		if got != tc.want {
			t.Fatalf("%s: pixel = %v, want %v", tc.name, got, tc.want)
		}
		bg := color.NRGBAModel.Convert(img.At(90, 90)).(color.NRGBA)
		if bg != palette.Paper {
			t.Fatalf("%s: background = %v", tc.name, bg)
		}
	}
}

func TestRasterizeScale(t *testing.T) {
	sc := pictureScene()
	img, err := Rasterize(context.Background(), sc, nil, nil, 2)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 200 {
		t.Fatalf("bounds = %v", b)
	}
	for _, s := range []float64{0, 0.5, -1} {
		if _, err := Rasterize(context.Background(), sc, nil, nil, s); err != ErrInvalidScale {
			t.Fatalf("scale %v: err = %v", s, err)
		}
	}
}

func TestRasterizeHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Rasterize(ctx, pictureScene(), nil, nil, 1); err != context.Canceled {
		t.Fatalf("err = %v", err)
	}
}

func TestModernKeepsTransparentMargin(t *testing.T) {
	sc := Render("modern", input(fullRecord()))
	if sc.Background.A != 0 || sc.Matte.A != 0xff {
		t.Fatalf("background %v matte %v", sc.Background, sc.Matte)
	}
	img, err := Rasterize(context.Background(), sc, nil, nil, 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, _, a := img.At(5, 5).RGBA(); a != 0 {
		t.Fatalf("corner alpha = %d", a)
	}
}

func TestEmbedCoversEveryTextFace(t *testing.T) {
	sc := Render("premium", input(fullRecord()))
	fs := Fonts().Embed(sc, 2)
	n := fs.Len()
	if n == 0 {
		t.Fatal("no faces embedded")
	}
	if _, err := Rasterize(context.Background(), sc, nil, fs, 2); err != nil {
		t.Fatal(err)
	}
	if fs.Len() != n {
		t.Fatalf("rasterizer created %d faces after embedding", fs.Len()-n)
	}
}

func TestPreviewWidth(t *testing.T) {
	sc := Render("minimalist", input(fullRecord()))
	img, err := Preview(context.Background(), sc, nil, 270)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 270 || b.Dy() != 480 {
		t.Fatalf("preview bounds = %v", b)
	}
}

func TestWrapTruncatesWithEllipsis(t *testing.T) {
	long := strings.Repeat("word ", 200)
	lines := Fonts().Wrap(Regular, 30, long, 400, 2)
	if len(lines) != 2 || !strings.HasSuffix(lines[1], "…") {
		t.Fatalf("lines = %q", lines)
	}
	if Fonts().Wrap(Regular, 30, "   ", 400, 2) != nil {
		t.Fatal("blank text produced lines")
	}
}

func TestWrapBreaksOverlongWords(t *testing.T) {
	word := strings.Repeat("w", 120)
	lines := Fonts().Wrap(Regular, 30, word, 400, 0)
	if len(lines) < 2 {
		t.Fatalf("overlong word stayed on %d line(s)", len(lines))
	}
	if got := strings.Join(lines, ""); got != word {
		t.Fatalf("hard break lost runes: %d of %d", len([]rune(got)), len(word))
	}
	for i, l := range lines {
		if w := Fonts().Measure(Regular, 30, l); w > 400 {
			t.Fatalf("line %d width %.0f exceeds box", i, w)
		}
	}

	capped := Fonts().Wrap(Regular, 30, "@"+word+" tail", 400, 3)
	if len(capped) != 3 || !strings.HasSuffix(capped[2], "…") {
		t.Fatalf("capped = %q", capped)
	}
	for i, l := range capped {
		if w := Fonts().Measure(Regular, 30, l); w > 400 {
			t.Fatalf("capped line %d width %.0f exceeds box", i, w)
		}
	}
}
