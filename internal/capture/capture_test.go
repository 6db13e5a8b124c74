package capture

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/youruser/potwapp/internal/assets"
	imagepkg "github.com/youruser/potwapp/internal/image"
	"github.com/youruser/potwapp/internal/palette"
	"github.com/youruser/potwapp/internal/render"
	"github.com/youruser/potwapp/internal/student"
)

type sleeps struct {
	mu sync.Mutex
	d  []time.Duration
}

func (s *sleeps) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.d = append(s.d, d)
	s.mu.Unlock()
	return nil
}

func staticTracker() *assets.Tracker {
	return assets.NewTracker(imagepkg.FetcherFunc(func(ctx context.Context, url string) (image.Image, error) {
		return imaging.New(4, 4, color.NRGBA{B: 0xff, A: 0xff}), nil
	}), time.Second, nil)
}

func smallSurface(name string) *Surface {
	sc := render.NewScene("test", color.NRGBA{R: 0x20, G: 0x20, B: 0x40, A: 0xff})
	sc.Width, sc.Height = 40, 60
	sc.Add(&render.Box{Rect: render.Rect{X: 5, Y: 5, W: 20, H: 20}, Fill: render.Solid(palette.Paper)})
	s := NewSurface()
	s.Mount(sc, name)
	return s
}

func quietHooks() Hooks {
	return Hooks{OnGenerated: func(*Artifact) {}}
}

func TestCaptureNotReady(t *testing.T) {
	p := New(Config{Tracker: staticTracker(), Hooks: quietHooks()})
	ctx := context.Background()

	if _, err := p.Capture(ctx, nil, Options{}); !errors.Is(err, ErrNotReady) {
		t.Fatalf("nil surface: err = %v", err)
	}
	if _, err := p.Capture(ctx, NewSurface(), Options{}); !errors.Is(err, ErrNotReady) {
		t.Fatalf("empty surface: err = %v", err)
	}
	s := smallSurface("x")
	s.Detach()
	if _, err := p.Capture(ctx, s, Options{}); !errors.Is(err, ErrNotReady) {
		t.Fatalf("detached surface: err = %v", err)
	}
	card := NewCard(student.Record{ID: "1", FullName: "Ada"}, CardOptions{}, nil)
	if _, err := card.Capture(ctx, p, Options{}); !errors.Is(err, ErrNotReady) {
		t.Fatalf("unprepared card: err = %v", err)
	}
	if p.State() != StateIdle {
		t.Fatalf("state = %s", p.State())
	}
}

func TestCaptureInvalidOptions(t *testing.T) {
	p := New(Config{Tracker: staticTracker(), Hooks: quietHooks()})
	for _, opts := range []Options{
		{Format: "gif"},
		{Format: "png", Scale: 0.5},
		{Format: "png", Scale: -2},
		{Format: "png", Scale: DefaultMaxScale + 0.5},
		{Format: "png", Scale: 1e5},
	} {
		if _, err := p.Capture(context.Background(), smallSurface("x"), opts); !errors.Is(err, ErrInvalidOptions) {
			t.Fatalf("%+v: err = %v", opts, err)
		}
	}

	capped := New(Config{Tracker: staticTracker(), Hooks: quietHooks(), MaxScale: 2})
	if _, err := capped.Capture(context.Background(), smallSurface("x"), Options{Format: "png", Scale: 3}); !errors.Is(err, ErrInvalidOptions) {
		t.Fatalf("scale above configured cap: err = %v", err)
	}
	if _, err := capped.Capture(context.Background(), smallSurface("x"), Options{Format: "png", Scale: 2}); err != nil {
		t.Fatalf("scale at configured cap: %v", err)
	}
}

func TestCaptureConverterPanicIsFailedAttempt(t *testing.T) {
	var sl sleeps
	calls := 0
	p := New(Config{
		Tracker: staticTracker(),
		Hooks:   quietHooks(),
		Sleep:   sl.sleep,
		Converter: ConverterFunc(func(ctx context.Context, job Job) ([]byte, error) {
			calls++
			panic("canvas allocation failed")
		}),
	})

	_, err := p.Capture(context.Background(), smallSurface("x"), Options{Format: "png"})
	var ce *CaptureError
	if !errors.As(err, &ce) || !errors.Is(err, ErrConversionFailed) {
		t.Fatalf("err = %v, want *CaptureError", err)
	}
	if ce.Attempts != 3 || calls != 3 {
		t.Fatalf("attempts = %d, calls = %d", ce.Attempts, calls)
	}
	if p.State() != StateFailed || p.Busy() {
		t.Fatalf("state = %v busy = %v", p.State(), p.Busy())
	}
}

func TestCaptureRetriesWithGrowingBackoff(t *testing.T) {
	var sl sleeps
	var states []State
	calls := 0
	p := New(Config{
		Tracker: staticTracker(),
		Hooks:   quietHooks(),
		Sleep:   sl.sleep,
		OnState: func(s State) { states = append(states, s) },
		Converter: ConverterFunc(func(ctx context.Context, job Job) ([]byte, error) {
			calls++
			if calls < 3 {
				return nil, errors.New("canvas tainted")
			}
			return RasterConverter{}.Convert(ctx, job)
		}),
	})

	a, err := p.Capture(context.Background(), smallSurface("ada"), Options{Format: imagepkg.FormatPNG, Scale: 1})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if calls != 3 {
		t.Fatalf("converter calls = %d", calls)
	}
	if want := []time.Duration{2 * time.Second, 4 * time.Second}; !reflect.DeepEqual(sl.d, want) {
		t.Fatalf("sleeps = %v, want %v", sl.d, want)
	}
	want := []State{StateRendering, StateAwaitingAssets, StateConverting, StateSucceeded}
	if !reflect.DeepEqual(states, want) {
		t.Fatalf("states = %v", states)
	}
	if !strings.HasPrefix(a.DataURL, "data:image/png;base64,") || len(a.Blob) == 0 {
		t.Fatalf("artifact = %.40s (%d bytes)", a.DataURL, len(a.Blob))
	}
}

func TestCaptureStopsAfterThreeAttempts(t *testing.T) {
	var sl sleeps
	boom := errors.New("conversion exploded")
	calls := 0
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	p := New(Config{
		Tracker: staticTracker(),
		Hooks:   quietHooks(),
		Sleep:   sl.sleep,
		Metrics: m,
		Converter: ConverterFunc(func(ctx context.Context, job Job) ([]byte, error) {
			calls++
			return nil, boom
		}),
	})

	_, err := p.Capture(context.Background(), smallSurface("ada"), Options{})
	var ce *CaptureError
	if !errors.As(err, &ce) || ce.Attempts != 3 {
		t.Fatalf("err = %v", err)
	}
	if !errors.Is(err, ErrConversionFailed) || !errors.Is(err, boom) {
		t.Fatalf("err does not wrap causes: %v", err)
	}
	if calls != 3 {
		t.Fatalf("converter calls = %d, want 3", calls)
	}
	if want := []time.Duration{2 * time.Second, 4 * time.Second}; !reflect.DeepEqual(sl.d, want) {
		t.Fatalf("sleeps = %v", sl.d)
	}
	if p.State() != StateFailed || p.Busy() {
		t.Fatalf("state = %s busy = %v", p.State(), p.Busy())
	}
	if got := testutil.ToFloat64(m.attempts.WithLabelValues("test", "png")); got != 3 {
		t.Fatalf("attempts metric = %v", got)
	}
	if got := testutil.ToFloat64(m.failures.WithLabelValues("test", "png")); got != 1 {
		t.Fatalf("failures metric = %v", got)
	}

	// The pipeline is usable again after a failure.
	p.cfg.Converter = RasterConverter{}
	if _, err := p.Capture(context.Background(), smallSurface("ada"), Options{}); err != nil {
		t.Fatalf("capture after failure: %v", err)
	}
}

func TestCaptureRejectsReentry(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	p := New(Config{
		Tracker: staticTracker(),
		Hooks:   quietHooks(),
		Converter: ConverterFunc(func(ctx context.Context, job Job) ([]byte, error) {
			close(started)
			<-release
			return []byte{1}, nil
		}),
	})

	done := make(chan error, 1)
	go func() {
		_, err := p.Capture(context.Background(), smallSurface("a"), Options{})
		done <- err
	}()
	<-started
	if !p.Busy() {
		t.Fatal("pipeline not busy during capture")
	}
	if _, err := p.Capture(context.Background(), smallSurface("b"), Options{}); !errors.Is(err, ErrBusy) {
		t.Fatalf("second capture: err = %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first capture: %v", err)
	}
	if p.Busy() {
		t.Fatal("busy flag left set")
	}
}

func TestCaptureHooksFireInOrder(t *testing.T) {
	var order []string
	dir := t.TempDir()
	p := New(Config{
		Tracker:    staticTracker(),
		Downloader: DirDownloader{Dir: dir},
		Hooks: Hooks{
			OnGenerated: func(*Artifact) { order = append(order, "generated") },
			OnDownload:  func(*Artifact) error { order = append(order, "download"); return nil },
			OnExport: func(context.Context, *Artifact) error {
				order = append(order, "export")
				return errors.New("upload failed")
			},
		},
	})
	a, err := p.Capture(context.Background(), smallSurface("ada"), Options{})
	if err != nil {
		t.Fatalf("export failure failed the capture: %v", err)
	}
	if want := []string{"generated", "download", "export"}; !reflect.DeepEqual(order, want) {
		t.Fatalf("order = %v", order)
	}
	if a.SavedTo != "" {
		t.Fatalf("default download ran with hooks registered: %s", a.SavedTo)
	}
}

func TestCaptureDefaultDownloadJPEG(t *testing.T) {
	dir := t.TempDir()
	p := New(Config{Tracker: staticTracker(), Downloader: DirDownloader{Dir: dir}})

	a, err := p.Capture(context.Background(), smallSurface("ada-lovelace"), Options{Format: "JPG", Scale: 2})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if a.Format != imagepkg.FormatJPEG || !strings.HasPrefix(a.DataURL, "data:image/jpeg;base64,") {
		t.Fatalf("format = %s, url = %.30s", a.Format, a.DataURL)
	}
	if a.Width != 80 || a.Height != 120 {
		t.Fatalf("size = %dx%d", a.Width, a.Height)
	}
	want := filepath.Join(dir, "ada-lovelace.jpeg")
	if a.SavedTo != want {
		t.Fatalf("saved to %q, want %q", a.SavedTo, want)
	}
	data, err := os.ReadFile(want)
	if err != nil || !bytes.Equal(data, a.Blob) {
		t.Fatalf("saved file mismatch: %v", err)
	}

	unnamed, err := p.Capture(context.Background(), smallSurface(""), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if unnamed.Filename != "card.png" {
		t.Fatalf("filename = %s", unnamed.Filename)
	}
}

func pngHandler(img image.Image) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_ = png.Encode(w, img)
	}
}

func TestCardCaptureWithBrokenLogo(t *testing.T) {
	mux := http.NewServeMux()
	mux.Handle("/photo.png", pngHandler(imaging.New(64, 64, color.NRGBA{R: 0xc8, G: 0x1e, B: 0x1e, A: 0xff})))
	mux.HandleFunc("/logo.png", http.NotFound)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	fetcher := imagepkg.NewHTTPFetcher(2*time.Second, true)
	sampler := palette.NewSampler(fetcher, nil)
	rec := student.Record{ID: "s-1", FullName: "Ada Lovelace", Department: "Computer Science", PhotoURL: srv.URL + "/photo.png"}
	card := NewCard(rec, CardOptions{
		Template:    "premium",
		Branding:    true,
		LogoURL:     srv.URL + "/logo.png",
		Association: "Computing Students Association",
	}, sampler)

	sc := card.Prepare(context.Background())
	if sc.Picture("logo") == nil || sc.Picture("photo") == nil {
		t.Fatal("prepared scene lacks picture slots")
	}
	if got := card.Colors().Hex(); len(got) == 0 || got[0] != "#C81E1E" {
		t.Fatalf("palette = %v", got)
	}

	var sl sleeps
	p := New(Config{
		Tracker: assets.NewTracker(fetcher, time.Second, nil),
		Hooks:   quietHooks(),
		Sleep:   sl.sleep,
	})
	a, err := card.Capture(context.Background(), p, Options{Format: imagepkg.FormatPNG, Scale: 1})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if len(sl.d) != 0 {
		t.Fatalf("broken logo caused retries: %v", sl.d)
	}
	img, err := png.Decode(bytes.NewReader(a.Blob))
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != render.CardWidth || b.Dy() != render.CardHeight {
		t.Fatalf("bounds = %v", b)
	}
	if a.Filename != "ada-lovelace.png" || a.Template != "premium" {
		t.Fatalf("artifact = %s / %s", a.Filename, a.Template)
	}
}

func TestCardPrepareFallsBackWithoutPhoto(t *testing.T) {
	sampler := palette.NewSampler(imagepkg.FetcherFunc(func(ctx context.Context, url string) (image.Image, error) {
		t.Fatal("fetch without a photo url")
		return nil, nil
	}), nil)
	card := NewCard(student.Record{ID: "1", FullName: "ada"}, CardOptions{Template: "nonexistent"}, sampler)
	sc := card.Prepare(context.Background())
	if !reflect.DeepEqual(card.Colors(), palette.Fallback()) {
		t.Fatalf("colors = %v", card.Colors().Hex())
	}
	if sc.Template != render.DefaultTemplate {
		t.Fatalf("template = %s", sc.Template)
	}
	if _, _, ok := card.Surface().Snapshot(); !ok {
		t.Fatal("surface not mounted after prepare")
	}
}
