package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/youruser/potwapp/internal/assets"
	"github.com/youruser/potwapp/internal/capture"
	"github.com/youruser/potwapp/internal/challenge"
	"github.com/youruser/potwapp/internal/config"
	imagepkg "github.com/youruser/potwapp/internal/image"
	"github.com/youruser/potwapp/internal/logger"
	"github.com/youruser/potwapp/internal/media"
	"github.com/youruser/potwapp/internal/palette"
	"github.com/youruser/potwapp/internal/render"
	"github.com/youruser/potwapp/internal/student"
)

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	Config   config.App
	Repo     student.Repository
	Sampler  *palette.Sampler
	Tracker  *assets.Tracker
	Uploader media.Uploader
	Metrics  *capture.Metrics
	Logger   *logger.Logger
	// Sleep overrides the retry delay, for tests.
	Sleep capture.Sleeper
}

type Server struct {
	Deps
	// One pipeline per card subject, so concurrent captures of the same
	// card are refused while different cards render in parallel.
	pipelines sync.Map
}

func NewServer(d Deps) *Server {
	if d.Logger == nil {
		d.Logger = logger.Nop()
	}
	if d.Tracker == nil {
		d.Tracker = assets.NewTracker(imagepkg.NewHTTPFetcher(d.Config.Capture.FetchTimeout, true), d.Config.Capture.AssetTimeout, d.Logger)
	}
	if d.Sampler == nil {
		d.Sampler = palette.NewSampler(imagepkg.NewHTTPFetcher(d.Config.Capture.FetchTimeout, false), d.Logger)
	}
	return &Server{Deps: d}
}

func (s *Server) pipeline(key string) *capture.Pipeline {
	if p, ok := s.pipelines.Load(key); ok {
		return p.(*capture.Pipeline)
	}
	cc := s.Config.Capture
	log := s.Logger.With("pipeline", key)
	p, _ := s.pipelines.LoadOrStore(key, capture.New(capture.Config{
		Tracker:        s.Tracker,
		MaxAttempts:    cc.MaxAttempts,
		MaxScale:       cc.MaxScale,
		BackoffUnit:    cc.BackoffUnit,
		AttemptTimeout: cc.AttemptTimeout,
		JPEGQuality:    cc.JPEGQuality,
		Sleep:          s.Sleep,
		Metrics:        s.Metrics,
		Logger:         log,
		Hooks: capture.Hooks{
			OnGenerated: func(a *capture.Artifact) {
				log.Debug("card generated", "file", a.Filename, "bytes", len(a.Blob))
			},
		},
	}))
	return p.(*capture.Pipeline)
}

func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func listTemplates(c *gin.Context) {
	RespondOK(c, gin.H{"templates": render.Names(), "default": render.DefaultTemplate})
}

func (s *Server) loadStudent(c *gin.Context) (student.Record, bool) {
	rec, err := s.Repo.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, err)
		return student.Record{}, false
	}
	return rec, true
}

func (s *Server) listStudents(c *gin.Context) {
	recs, err := s.Repo.List(c.Request.Context())
	if err != nil {
		respondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"count": len(recs), "students": recs})
}

func (s *Server) getStudent(c *gin.Context) {
	if rec, ok := s.loadStudent(c); ok {
		RespondOK(c, rec)
	}
}

func (s *Server) featured(c *gin.Context) {
	recs, err := s.Repo.ListFeatured(c.Request.Context())
	if err != nil {
		respondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"count": len(recs), "students": recs})
}

func (s *Server) filter(c *gin.Context) {
	var opt student.FilterOptions
	if err := c.ShouldBindJSON(&opt); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	all, err := s.Repo.List(c.Request.Context())
	if err != nil {
		respondDomainError(c, err)
		return
	}
	out := student.Filter(all, opt)
	RespondOK(c, gin.H{"count": len(out), "students": out})
}

func (s *Server) setFeatured(c *gin.Context) {
	var body struct {
		Featured *bool `json:"featured" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	rec, err := s.Repo.SetFeatured(c.Request.Context(), c.Param("id"), *body.Featured)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	RespondOK(c, rec)
}

// cardRequest is the card query: ?template=&format=&scale=&branding=
type cardRequest struct {
	Template string  `form:"template" json:"template"`
	Format   string  `form:"format" json:"format"`
	Scale    float64 `form:"scale" json:"scale"`
	Branding *bool   `form:"branding" json:"branding"`
}

func (r cardRequest) options() capture.Options {
	return capture.Options{Format: imagepkg.Format(strings.ToLower(r.Format)), Scale: r.Scale}
}

func (r cardRequest) branding() bool {
	return r.Branding == nil || *r.Branding
}

func (s *Server) cardOptions(rec student.Record, req cardRequest) capture.CardOptions {
	opts := capture.CardOptions{
		Template:    req.Template,
		Branding:    req.branding(),
		LogoURL:     s.Config.LogoURL,
		LogoAltURL:  s.Config.LogoFallbackDataURL,
		Association: s.Config.AssociationName,
	}
	if opts.Template == "" {
		opts.Template = s.Config.DefaultTemplate
	}
	if base := strings.TrimSpace(s.Config.ShareBaseURL); base != "" {
		opts.ShareURL = strings.TrimRight(base, "/") + "/" + rec.ID
	}
	return opts
}

func (s *Server) captureStudent(ctx context.Context, rec student.Record, req cardRequest) (*capture.Artifact, error) {
	card := capture.NewCard(rec, s.cardOptions(rec, req), s.Sampler)
	card.Prepare(ctx)
	return card.Capture(ctx, s.pipeline("student:"+rec.ID), req.options())
}

func sendArtifact(c *gin.Context, a *capture.Artifact) {
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", a.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, a.Format.MIME(), a.Blob)
}

func (s *Server) studentCard(c *gin.Context) {
	var req cardRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_query", err)
		return
	}
	rec, ok := s.loadStudent(c)
	if !ok {
		return
	}
	a, err := s.captureStudent(c.Request.Context(), rec, req)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	sendArtifact(c, a)
}

func (s *Server) studentPreview(c *gin.Context) {
	var req cardRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_query", err)
		return
	}
	width, err := strconv.Atoi(c.DefaultQuery("width", strconv.Itoa(render.PreviewWidth)))
	if err != nil || width <= 0 || width > render.CardWidth {
		RespondError(c, http.StatusBadRequest, "invalid_query", errors.New("width must be between 1 and 1080"))
		return
	}
	rec, ok := s.loadStudent(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	card := capture.NewCard(rec, s.cardOptions(rec, req), s.Sampler)
	sc := card.Prepare(ctx)
	img, err := render.Preview(ctx, sc, s.Tracker.AwaitReady(ctx, sc), width)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	blob, err := imagepkg.Encode(img, imagepkg.FormatPNG, 0, sc.Matte)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", blob)
}

// persistCard captures the card, uploads it and stores its URL on the
// student.
func (s *Server) persistCard(c *gin.Context) {
	var req cardRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_body", err)
			return
		}
	}
	if s.Uploader == nil {
		RespondError(c, http.StatusServiceUnavailable, "uploads_disabled", errors.New("no media uploader configured"))
		return
	}
	rec, ok := s.loadStudent(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	a, err := s.captureStudent(ctx, rec, req)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	name := rec.Slug()
	if name == "" {
		name = "card"
	}
	url, err := s.Uploader.Upload(ctx, name+"-"+rec.ID, a.DataURL)
	if err != nil {
		s.Logger.Error("card upload failed", "student_id", rec.ID, "error", err.Error())
		RespondError(c, http.StatusBadGateway, "upload_failed", err)
		return
	}
	updated, err := s.Repo.AttachCard(ctx, rec.ID, url)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"cardImageURL": url, "student": updated})
}

func parseDay(c *gin.Context) (int, bool) {
	day, err := strconv.Atoi(c.Param("day"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_day", fmt.Errorf("day must be a number: %q", c.Param("day")))
		return 0, false
	}
	return day, true
}

func (s *Server) challengeEntry(c *gin.Context) {
	day, ok := parseDay(c)
	if !ok {
		return
	}
	e, err := challenge.Lookup(day)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	RespondOK(c, e)
}

func (s *Server) challengeCard(c *gin.Context) {
	day, ok := parseDay(c)
	if !ok {
		return
	}
	var req cardRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_query", err)
		return
	}
	sc, err := challenge.Render(day, challenge.Options{
		Branding:    req.branding(),
		Association: s.Config.AssociationName,
		LogoURL:     s.Config.LogoURL,
		LogoAltURL:  s.Config.LogoFallbackDataURL,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}
	surface := capture.NewSurface()
	surface.Mount(sc, fmt.Sprintf("challenge-day-%02d", day))
	a, err := s.pipeline(fmt.Sprintf("challenge:%d", day)).Capture(c.Request.Context(), surface, req.options())
	if err != nil {
		respondDomainError(c, err)
		return
	}
	sendArtifact(c, a)
}

// qr endpoint returns a PNG of a QR for "text" query param
func qrHandler(c *gin.Context) {
	text := c.Query("text")
	if text == "" {
		RespondError(c, http.StatusBadRequest, "invalid_query", errors.New("text is required"))
		return
	}
	size := 400
	if v, err := strconv.Atoi(c.Query("size")); err == nil {
		size = min(max(v, 64), 1024)
	}
	b, err := imagepkg.GenerateQRPNG(text, size)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "qr_failed", err)
		return
	}
	c.Data(http.StatusOK, "image/png", b)
}
