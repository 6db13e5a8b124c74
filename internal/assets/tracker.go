package assets

import (
	"context"
	"image"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	imagepkg "github.com/youruser/potwapp/internal/image"
	"github.com/youruser/potwapp/internal/logger"
	"github.com/youruser/potwapp/internal/render"
)

// DefaultTimeout bounds how long a capture waits for images that neither
// load nor fail.
const DefaultTimeout = 3 * time.Second

// Tracker loads the pictures a scene references before it is rasterized.
type Tracker struct {
	fetcher imagepkg.Fetcher
	timeout time.Duration
	log     *logger.Logger
}

func NewTracker(fetcher imagepkg.Fetcher, timeout time.Duration, log *logger.Logger) *Tracker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Tracker{fetcher: fetcher, timeout: timeout, log: log}
}

// AwaitReady returns once every picture in the scene has loaded or failed,
// or when the safety timeout elapses, whichever comes first. Each picture
// is loaded independently; a failure only marks that picture failed.
// Pictures still loading at the deadline are reported as pending and drawn
// with their fallback.
func (t *Tracker) AwaitReady(ctx context.Context, scene *render.Scene) *Set {
	set := newSet()
	if scene == nil {
		return set
	}
	pics := scene.Pictures()
	if len(pics) == 0 {
		return set
	}

	waitCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	for _, p := range pics {
		if p.URL != "" {
			set.track(p.URL)
		} else {
			set.track(p.AltURL)
		}
	}

	g, gctx := errgroup.WithContext(waitCtx)
	for _, p := range pics {
		p := p
		g.Go(func() error {
			t.load(gctx, set, p)
			return nil
		})
	}
	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-waitCtx.Done():
		t.log.Warn("asset wait timed out", "pending", len(set.Pending()), "timeout", t.timeout.String())
	}
	set.seal()
	return set
}

func (t *Tracker) load(ctx context.Context, set *Set, p *render.Picture) {
	for _, url := range []string{p.URL, p.AltURL} {
		if url == "" {
			continue
		}
		if set.Image(url) != nil {
			return
		}
		set.track(url)
		img, err := t.fetcher.Fetch(ctx, url)
		if err == nil {
			set.loaded(url, img)
			return
		}
		set.failed(url, err)
		t.log.Debug("asset failed", "slot", p.Slot, "url", url, "error", err.Error())
		if ctx.Err() != nil {
			return
		}
	}
}

// Set is the outcome of one readiness wait. Once AwaitReady returns the set
// is sealed and late loads are discarded.
type Set struct {
	mu      sync.RWMutex
	sealed  bool
	images  map[string]image.Image
	errs    map[string]error
	tracked map[string]bool
}

func newSet() *Set {
	return &Set{
		images:  make(map[string]image.Image),
		errs:    make(map[string]error),
		tracked: make(map[string]bool),
	}
}

func (s *Set) track(urls ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sealed {
		return
	}
	for _, u := range urls {
		if u != "" {
			s.tracked[u] = true
		}
	}
}

func (s *Set) loaded(url string, img image.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sealed {
		return
	}
	s.images[url] = img
	delete(s.errs, url)
}

func (s *Set) failed(url string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sealed {
		return
	}
	s.errs[url] = err
}

func (s *Set) seal() {
	s.mu.Lock()
	s.sealed = true
	s.mu.Unlock()
}

// Image implements render.Assets.
func (s *Set) Image(url string) image.Image {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.images[url]
}

// Failed returns the load error for url, or nil.
func (s *Set) Failed(url string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errs[url]
}

// Pending lists tracked URLs that neither loaded nor failed.
func (s *Set) Pending() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for u := range s.tracked {
		if _, ok := s.images[u]; ok {
			continue
		}
		if _, ok := s.errs[u]; ok {
			continue
		}
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

// Incomplete reports whether any tracked image failed or never arrived.
func (s *Set) Incomplete() bool {
	if len(s.Pending()) > 0 {
		return true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.errs) > 0
}

// Loaded reports how many distinct URLs produced an image.
func (s *Set) Loaded() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.images)
}
