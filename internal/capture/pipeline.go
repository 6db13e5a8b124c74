package capture

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync/atomic"
	"time"

	"github.com/youruser/potwapp/internal/assets"
	imagepkg "github.com/youruser/potwapp/internal/image"
	"github.com/youruser/potwapp/internal/logger"
	"github.com/youruser/potwapp/internal/render"
)

var (
	ErrNotReady         = errors.New("capture surface is not ready")
	ErrBusy             = errors.New("a capture is already in progress")
	ErrInvalidOptions   = errors.New("invalid capture options")
	ErrConversionFailed = errors.New("card conversion failed")
)

// CaptureError reports a capture that failed after every attempt. It
// matches ErrConversionFailed and the last attempt's error.
type CaptureError struct {
	Attempts int
	Err      error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("card conversion failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *CaptureError) Unwrap() []error { return []error{ErrConversionFailed, e.Err} }

type State int32

const (
	StateIdle State = iota
	StateRendering
	StateAwaitingAssets
	StateConverting
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRendering:
		return "rendering"
	case StateAwaitingAssets:
		return "awaiting-assets"
	case StateConverting:
		return "converting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

type Options struct {
	Format imagepkg.Format
	// Scale multiplies the card's fixed pixel size. Zero means 1.
	Scale float64
}

// DefaultMaxScale caps Scale so a request cannot ask for a canvas larger
// than the process can allocate.
const DefaultMaxScale = 4

func (o Options) normalize(maxScale float64) (Options, error) {
	f, ok := imagepkg.ParseFormat(strings.ToLower(string(o.Format)))
	if !ok {
		return o, fmt.Errorf("%w: format %q", ErrInvalidOptions, o.Format)
	}
	o.Format = f
	if o.Scale == 0 {
		o.Scale = 1
	}
	if math.IsNaN(o.Scale) || math.IsInf(o.Scale, 0) || o.Scale < 1 {
		return o, fmt.Errorf("%w: scale %v must be >= 1", ErrInvalidOptions, o.Scale)
	}
	if o.Scale > maxScale {
		return o, fmt.Errorf("%w: scale %v exceeds %v", ErrInvalidOptions, o.Scale, maxScale)
	}
	return o, nil
}

// Artifact is a finished card image. DataURL and Blob hold the same bytes.
type Artifact struct {
	DataURL  string
	Blob     []byte
	Format   imagepkg.Format
	Scale    float64
	Width    int
	Height   int
	Template string
	Filename string
	// SavedTo is set when the default downloader wrote the artifact.
	SavedTo string
}

// Job is one conversion attempt's input.
type Job struct {
	Scene       *render.Scene
	Assets      render.Assets
	Faces       *render.FaceSet
	Options     Options
	JPEGQuality int
}

// Converter turns a laid-out scene into encoded bytes.
type Converter interface {
	Convert(ctx context.Context, job Job) ([]byte, error)
}

type ConverterFunc func(ctx context.Context, job Job) ([]byte, error)

func (fn ConverterFunc) Convert(ctx context.Context, job Job) ([]byte, error) { return fn(ctx, job) }

// RasterConverter draws the scene with the gg rasterizer and encodes it.
// JPEG output is flattened onto the scene's matte.
type RasterConverter struct{}

func (RasterConverter) Convert(ctx context.Context, job Job) ([]byte, error) {
	img, err := render.Rasterize(ctx, job.Scene, job.Assets, job.Faces, job.Options.Scale)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return imagepkg.Encode(img, job.Options.Format, job.JPEGQuality, job.Scene.Matte)
}

// Hooks fire after a successful capture, in field order. Hook errors are
// logged and do not fail the capture.
type Hooks struct {
	OnGenerated func(a *Artifact)
	OnDownload  func(a *Artifact) error
	OnExport    func(ctx context.Context, a *Artifact) error
}

func (h Hooks) empty() bool {
	return h.OnGenerated == nil && h.OnDownload == nil && h.OnExport == nil
}

// Sleeper waits between attempts; it returns early with ctx's error.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type Config struct {
	Tracker        *assets.Tracker
	Converter      Converter
	Fonts          *render.FontBook
	Hooks          Hooks
	Downloader     Downloader
	MaxAttempts    int
	// MaxScale is the largest accepted Options.Scale. Defaults to 4.
	MaxScale       float64
	BackoffUnit    time.Duration
	AttemptTimeout time.Duration
	JPEGQuality    int
	Sleep          Sleeper
	Metrics        *Metrics
	Logger         *logger.Logger
	// OnState observes every state transition.
	OnState func(State)
}

// Pipeline turns a mounted scene into a card image. One pipeline runs at
// most one capture at a time; a second caller gets ErrBusy.
type Pipeline struct {
	cfg   Config
	busy  atomic.Bool
	state atomic.Int32
}

func New(cfg Config) *Pipeline {
	if cfg.Tracker == nil {
		cfg.Tracker = assets.NewTracker(imagepkg.NewHTTPFetcher(10*time.Second, true), assets.DefaultTimeout, cfg.Logger)
	}
	if cfg.Converter == nil {
		cfg.Converter = RasterConverter{}
	}
	if cfg.Fonts == nil {
		cfg.Fonts = render.Fonts()
	}
	if cfg.Downloader == nil {
		cfg.Downloader = DirDownloader{Dir: "."}
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.MaxScale < 1 {
		cfg.MaxScale = DefaultMaxScale
	}
	if cfg.BackoffUnit <= 0 {
		cfg.BackoffUnit = 2 * time.Second
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = 60 * time.Second
	}
	if cfg.JPEGQuality <= 0 || cfg.JPEGQuality > 100 {
		cfg.JPEGQuality = 92
	}
	if cfg.Sleep == nil {
		cfg.Sleep = sleepCtx
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	return &Pipeline{cfg: cfg}
}

func (p *Pipeline) State() State { return State(p.state.Load()) }

// Busy reports whether a capture is in flight, for callers that disable
// their controls meanwhile.
func (p *Pipeline) Busy() bool { return p.busy.Load() }

func (p *Pipeline) setState(s State) {
	p.state.Store(int32(s))
	if p.cfg.OnState != nil {
		p.cfg.OnState(s)
	}
}

// Capture renders the surface's scene to an image. It fails with
// ErrNotReady when nothing is mounted, ErrBusy when another capture is in
// flight and ErrInvalidOptions for a bad format or scale. Conversion is
// retried with a growing delay; only the final failure is returned, as a
// *CaptureError.
func (p *Pipeline) Capture(ctx context.Context, surface *Surface, opts Options) (*Artifact, error) {
	scene, name, ok := surface.Snapshot()
	if !ok {
		return nil, ErrNotReady
	}
	opts, err := opts.normalize(p.cfg.MaxScale)
	if err != nil {
		return nil, err
	}
	if !p.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer p.busy.Store(false)

	start := time.Now()
	tpl, format := scene.Template, string(opts.Format)
	log := p.cfg.Logger.With("template", tpl, "format", format, "scale", opts.Scale)

	p.setState(StateRendering)
	faces := p.cfg.Fonts.Embed(scene, opts.Scale)

	p.setState(StateAwaitingAssets)
	set := p.cfg.Tracker.AwaitReady(ctx, scene)

	p.setState(StateConverting)
	blob, attempts, err := p.convert(ctx, scene, set, faces, opts, log)
	if err != nil {
		p.cfg.Metrics.done(tpl, format, false, time.Since(start).Seconds())
		p.setState(StateFailed)
		log.Error("capture failed", "attempts", attempts, "error", err.Error())
		return nil, &CaptureError{Attempts: attempts, Err: err}
	}

	base := strings.TrimSpace(name)
	if base == "" {
		base = "card"
	}
	a := &Artifact{
		DataURL:  imagepkg.DataURL(opts.Format, blob),
		Blob:     blob,
		Format:   opts.Format,
		Scale:    opts.Scale,
		Width:    int(math.Round(float64(scene.Width) * opts.Scale)),
		Height:   int(math.Round(float64(scene.Height) * opts.Scale)),
		Template: tpl,
		Filename: base + "." + format,
	}
	p.cfg.Metrics.done(tpl, format, true, time.Since(start).Seconds())
	p.setState(StateSucceeded)
	log.Info("capture succeeded", "attempts", attempts, "bytes", len(blob), "took", time.Since(start).String())

	p.fireHooks(ctx, a, log)
	return a, nil
}

func (p *Pipeline) convert(ctx context.Context, scene *render.Scene, set *assets.Set, faces *render.FaceSet, opts Options, log *logger.Logger) ([]byte, int, error) {
	var lastErr error
	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := p.cfg.Sleep(ctx, time.Duration(attempt-1)*p.cfg.BackoffUnit); err != nil {
				return nil, attempt - 1, err
			}
			// Images that failed before get another chance; fetches are
			// cache-busted so a broken response is not reused.
			if set.Incomplete() {
				set = p.cfg.Tracker.AwaitReady(ctx, scene)
			}
		}
		p.cfg.Metrics.attempt(scene.Template, string(opts.Format))

		actx, cancel := context.WithTimeout(ctx, p.cfg.AttemptTimeout)
		blob, err := p.safeConvert(actx, Job{
			Scene:       scene,
			Assets:      set,
			Faces:       faces,
			Options:     opts,
			JPEGQuality: p.cfg.JPEGQuality,
		})
		cancel()
		if err == nil && len(blob) == 0 {
			err = errors.New("converter returned no data")
		}
		if err == nil {
			return blob, attempt, nil
		}
		lastErr = err
		log.Warn("conversion attempt failed", "attempt", attempt, "of", p.cfg.MaxAttempts, "error", err.Error())
		if ctx.Err() != nil {
			return nil, attempt, ctx.Err()
		}
	}
	return nil, p.cfg.MaxAttempts, lastErr
}

// safeConvert turns a converter panic into a failed attempt.
func (p *Pipeline) safeConvert(ctx context.Context, job Job) (blob []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			blob, err = nil, fmt.Errorf("converter panicked: %v", r)
		}
	}()
	return p.cfg.Converter.Convert(ctx, job)
}

func (p *Pipeline) fireHooks(ctx context.Context, a *Artifact, log *logger.Logger) {
	h := p.cfg.Hooks
	if h.empty() {
		path, err := p.cfg.Downloader.Download(a)
		if err != nil {
			log.Warn("default download failed", "error", err.Error())
			return
		}
		a.SavedTo = path
		return
	}
	if h.OnGenerated != nil {
		h.OnGenerated(a)
	}
	if h.OnDownload != nil {
		if err := h.OnDownload(a); err != nil {
			log.Warn("download hook failed", "error", err.Error())
		}
	}
	if h.OnExport != nil {
		if err := h.OnExport(ctx, a); err != nil {
			log.Warn("export hook failed", "error", err.Error())
		}
	}
}
