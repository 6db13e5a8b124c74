package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/youruser/potwapp/internal/auth"
)

// RouterOptions holds the optional mounts of the router.
type RouterOptions struct {
	// Metrics is served at /metrics when set.
	Metrics http.Handler
	// CardsDir is served at /cards when set, for locally stored uploads.
	CardsDir string
}

func NewRouter(s *Server, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), RequestLogger(s.Logger), CORS(s.Config.CORSOrigins))
	RegisterRoutes(r, s)
	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics))
	}
	if opts.CardsDir != "" {
		r.Static("/cards", opts.CardsDir)
	}
	return r
}

func RegisterRoutes(r *gin.Engine, s *Server) {
	admin := auth.AdminOnly(s.Config.JWTSigningKey, s.Config.JWTIssuer)

	api := r.Group("/api")
	{
		api.GET("/health", health)
		api.GET("/templates", listTemplates)
		api.GET("/qr", qrHandler)

		api.GET("/students", s.listStudents)
		api.GET("/students/featured", s.featured)
		api.POST("/students/filter", s.filter)
		api.GET("/students/:id", s.getStudent)
		api.GET("/students/:id/card", s.studentCard)
		api.GET("/students/:id/card/preview", s.studentPreview)
		api.POST("/students/:id/card", admin, s.persistCard)
		api.PUT("/students/:id/featured", admin, s.setFeatured)

		api.GET("/challenge/:day", s.challengeEntry)
		api.GET("/challenge/:day/card", s.challengeCard)
	}
}
