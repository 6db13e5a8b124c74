// Command cardgen renders Personality of the Week cards to files without
// running the HTTP server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/youruser/potwapp/internal/assets"
	"github.com/youruser/potwapp/internal/capture"
	"github.com/youruser/potwapp/internal/challenge"
	"github.com/youruser/potwapp/internal/config"
	imagepkg "github.com/youruser/potwapp/internal/image"
	"github.com/youruser/potwapp/internal/logger"
	"github.com/youruser/potwapp/internal/palette"
	"github.com/youruser/potwapp/internal/student"
)

type idList []string

func (l *idList) String() string { return strings.Join(*l, ",") }
func (l *idList) Set(v string) error {
	v = strings.TrimSpace(v)
	if v != "" {
		*l = append(*l, v)
	}
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("config: %v\n", err)
		os.Exit(1)
	}

	var ids idList
	var featuredOnly, noBranding bool
	var tpl, format, out string
	var scale float64
	var day, parallel int
	flag.Var(&ids, "id", "student id to render (repeatable)")
	flag.BoolVar(&featuredOnly, "featured", false, "render featured students only")
	flag.StringVar(&tpl, "template", cfg.DefaultTemplate, "card template")
	flag.StringVar(&format, "format", "png", "png or jpeg")
	flag.Float64Var(&scale, "scale", 1, "output scale, at least 1")
	flag.IntVar(&day, "day", -1, "render the challenge card for this day instead of students")
	flag.BoolVar(&noBranding, "no-branding", false, "leave out the association logo and name")
	flag.StringVar(&out, "out", cfg.OutputDir, "output directory")
	flag.IntVar(&parallel, "parallel", 4, "cards rendered at once")
	flag.Parse()

	lg, err := logger.New(logger.Options{Mode: cfg.LogMode, MinLevel: cfg.LogLevel})
	if err != nil {
		fmt.Printf("logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	tracker := assets.NewTracker(imagepkg.NewHTTPFetcher(cfg.Capture.FetchTimeout, true), cfg.Capture.AssetTimeout, lg)
	newPipeline := func(key string) *capture.Pipeline {
		cc := cfg.Capture
		return capture.New(capture.Config{
			Tracker:        tracker,
			Downloader:     capture.DirDownloader{Dir: out},
			MaxAttempts:    cc.MaxAttempts,
			MaxScale:       cc.MaxScale,
			BackoffUnit:    cc.BackoffUnit,
			AttemptTimeout: cc.AttemptTimeout,
			JPEGQuality:    cc.JPEGQuality,
			Logger:         lg.With("card", key),
		})
	}
	opts := capture.Options{Format: imagepkg.Format(strings.ToLower(format)), Scale: scale}
	ctx := context.Background()

	if day >= 0 {
		if err := renderDay(ctx, cfg, day, !noBranding, newPipeline, opts); err != nil {
			fmt.Printf("day %d: %v\n", day, err)
			os.Exit(1)
		}
		return
	}

	recs, err := selectStudents(cfg.DataDir, ids, featuredOnly)
	if err != nil {
		fmt.Printf("load students: %v\n", err)
		os.Exit(1)
	}
	if len(recs) == 0 {
		fmt.Println("no students matched")
		return
	}

	sampler := palette.NewSampler(imagepkg.NewHTTPFetcher(cfg.Capture.FetchTimeout, false), lg)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(parallel, 1))
	for _, rec := range recs {
		rec := rec
		g.Go(func() error {
			card := capture.NewCard(rec, capture.CardOptions{
				Template:    tpl,
				Branding:    !noBranding,
				LogoURL:     cfg.LogoURL,
				LogoAltURL:  cfg.LogoFallbackDataURL,
				Association: cfg.AssociationName,
				ShareURL:    shareURL(cfg.ShareBaseURL, rec.ID),
			}, sampler)
			card.Prepare(gctx)
			a, err := card.Capture(gctx, newPipeline(rec.ID), opts)
			if err != nil {
				return fmt.Errorf("%s: %w", rec.FullName, err)
			}
			fmt.Printf("wrote %s (%dx%d)\n", a.SavedTo, a.Width, a.Height)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func renderDay(ctx context.Context, cfg config.App, day int, branding bool, newPipeline func(string) *capture.Pipeline, opts capture.Options) error {
	sc, err := challenge.Render(day, challenge.Options{
		Branding:    branding,
		Association: cfg.AssociationName,
		LogoURL:     cfg.LogoURL,
		LogoAltURL:  cfg.LogoFallbackDataURL,
	})
	if err != nil {
		return err
	}
	name := fmt.Sprintf("challenge-day-%02d", day)
	surface := capture.NewSurface()
	surface.Mount(sc, name)
	a, err := newPipeline(name).Capture(ctx, surface, opts)
	if err != nil {
		return err
	}
	fmt.Printf("wrote %s (%dx%d)\n", a.SavedTo, a.Width, a.Height)
	return nil
}

func selectStudents(dataDir string, ids []string, featuredOnly bool) ([]student.Record, error) {
	all, err := student.LoadFromDataDir(dataDir)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		if featuredOnly {
			return student.Filter(all, student.FilterOptions{FeaturedMode: "featured"}), nil
		}
		return all, nil
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []student.Record
	for _, r := range all {
		if want[r.ID] && (!featuredOnly || r.Featured) {
			out = append(out, r)
		}
	}
	return out, nil
}

func shareURL(base, id string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		return ""
	}
	return base + "/" + id
}
