package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/youruser/potwapp/internal/api"
	"github.com/youruser/potwapp/internal/assets"
	"github.com/youruser/potwapp/internal/capture"
	"github.com/youruser/potwapp/internal/config"
	imagepkg "github.com/youruser/potwapp/internal/image"
	"github.com/youruser/potwapp/internal/logger"
	"github.com/youruser/potwapp/internal/media"
	"github.com/youruser/potwapp/internal/palette"
	"github.com/youruser/potwapp/internal/student"
	"github.com/youruser/potwapp/internal/util"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	lg, err := logger.New(logger.Options{Mode: cfg.LogMode, Redact: cfg.IsProduction(), MinLevel: cfg.LogLevel})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer lg.Sync()

	if err := run(cfg, lg); err != nil {
		lg.Fatal("server failed", "error", err.Error())
	}
}

func run(cfg config.App, lg *logger.Logger) error {
	if cfg.StoreEngine == student.EngineJSON || cfg.StoreEngine == student.EngineSQLite {
		if err := util.EnsureDir(filepath.Dir(cfg.StoreDSN)); err != nil {
			return err
		}
	}
	repo, err := student.NewByEngine(cfg.StoreEngine, cfg.StoreDSN)
	if err != nil {
		return err
	}

	// Load CSVs at startup (best-effort)
	if recs, err := student.LoadFromDataDir(cfg.DataDir); err != nil {
		lg.Warn("failed to load CSVs at startup", "dir", cfg.DataDir, "error", err.Error())
	} else {
		n, err := student.Seed(context.Background(), repo, recs)
		if err != nil {
			lg.Warn("seeding stopped early", "seeded", n, "error", err.Error())
		} else {
			lg.Info("students seeded", "seeded", n, "read", len(recs))
		}
	}

	var uploader media.Uploader
	if cfg.CloudinaryConfigured() {
		uploader = media.NewCloudinary(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
		lg.Info("cloudinary configured", "cloud", cfg.CloudinaryCloudName)
	} else {
		base := cfg.ShareBaseURL
		if base == "" {
			base = "http://localhost:" + cfg.Port
		}
		uploader = media.Local{Dir: filepath.Join(cfg.OutputDir, "cards"), BaseURL: base + "/cards"}
		lg.Info("cloudinary not configured, storing cards locally", "dir", filepath.Join(cfg.OutputDir, "cards"))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	srvDeps := api.Deps{
		Config:   cfg,
		Repo:     repo,
		Sampler:  palette.NewSampler(imagepkg.NewHTTPFetcher(cfg.Capture.FetchTimeout, false), lg),
		Tracker:  assets.NewTracker(imagepkg.NewHTTPFetcher(cfg.Capture.FetchTimeout, true), cfg.Capture.AssetTimeout, lg),
		Uploader: uploader,
		Metrics:  capture.NewMetrics(reg),
		Logger:   lg,
	}
	opts := api.RouterOptions{Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{})}
	if _, ok := uploader.(media.Local); ok {
		opts.CardsDir = filepath.Join(cfg.OutputDir, "cards")
		if err := util.EnsureDir(opts.CardsDir); err != nil {
			return err
		}
	}
	r := api.NewRouter(api.NewServer(srvDeps), opts)

	// A capture may retry for several minutes, so writes get more room than reads.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 4 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		lg.Info("starting server", "addr", "http://localhost:"+cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errc:
		return err
	case <-quit:
	}
	lg.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Warn("server forced shutdown", "error", err.Error())
	}
	lg.Info("server exited")
	return nil
}
