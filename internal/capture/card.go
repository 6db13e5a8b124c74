package capture

import (
	"context"
	"sync"

	"github.com/youruser/potwapp/internal/palette"
	"github.com/youruser/potwapp/internal/render"
	"github.com/youruser/potwapp/internal/student"
)

// CardOptions are the per-card presentation choices.
type CardOptions struct {
	Template    string
	Branding    bool
	LogoURL     string
	LogoAltURL  string
	Association string
	ShareURL    string
}

// Card binds one student record to a template and a surface. The surface
// stays unmounted until Prepare has extracted the palette, so capturing an
// unprepared card fails with ErrNotReady.
type Card struct {
	rec     student.Record
	opts    CardOptions
	sampler *palette.Sampler
	surface *Surface

	mu     sync.Mutex
	colors palette.Colors
	scene  *render.Scene
}

func NewCard(rec student.Record, opts CardOptions, sampler *palette.Sampler) *Card {
	return &Card{rec: rec, opts: opts, sampler: sampler, surface: NewSurface()}
}

// Prepare samples the palette from the student's photo, lays the card out
// and mounts it. Extraction never fails; it falls back to the fixed palette.
func (c *Card) Prepare(ctx context.Context) *render.Scene {
	colors := palette.Fallback()
	if c.sampler != nil {
		colors = c.sampler.Extract(ctx, c.rec.PhotoURL)
	}
	sc := render.Render(c.opts.Template, render.Input{
		Student:     c.rec,
		Colors:      colors,
		LogoURL:     c.opts.LogoURL,
		LogoAltURL:  c.opts.LogoAltURL,
		Branding:    c.opts.Branding,
		Association: c.opts.Association,
		ShareURL:    c.opts.ShareURL,
	})

	c.mu.Lock()
	c.colors, c.scene = colors, sc
	c.mu.Unlock()
	c.surface.Mount(sc, c.rec.Slug())
	return sc
}

// Colors returns the extracted palette, or nil before Prepare.
func (c *Card) Colors() palette.Colors {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.colors
}

func (c *Card) Scene() *render.Scene {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scene
}

func (c *Card) Surface() *Surface { return c.surface }

// Capture runs the pipeline against this card's surface.
func (c *Card) Capture(ctx context.Context, p *Pipeline, opts Options) (*Artifact, error) {
	return p.Capture(ctx, c.surface, opts)
}
