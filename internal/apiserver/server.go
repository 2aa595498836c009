// Package apiserver exposes the query surface: read endpoints over the
// search pipelines, registry lookups, and the credential-refresh webhook.
package apiserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"indiewatch/internal/credstore"
	"indiewatch/internal/engine"
	"indiewatch/internal/engine/media"
	"indiewatch/internal/registry"
)

// Server wires the pipelines, registry and credential store into HTTP
// handlers.
type Server struct {
	pipelines *media.Pipelines
	registry  *registry.Registry
	creds     *credstore.Store
}

func New(p *media.Pipelines, reg *registry.Registry, creds *credstore.Store) *Server {
	return &Server{pipelines: p, registry: reg, creds: creds}
}

// Router builds the gin engine with all routes registered. Health, metrics
// and the privacy notice stay outside the auth group.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", s.handleHealth)
	r.GET("/metrics", s.handleMetrics)
	r.GET("/privacy", s.handlePrivacy)

	authed := r.Group("/", requireAPIKey())
	authed.GET("/media", s.handleMedia)
	authed.GET("/sources", s.handleSources)
	authed.GET("/youtube", s.handleYouTube)
	authed.GET("/x", s.handleX)
	authed.GET("/substack", s.handleSubstack)
	authed.GET("/news", s.handleNews)
	authed.GET("/youtube-transcripts", s.handleTranscripts)
	authed.POST("/cookies", s.handleCookies)
	authed.POST("/refresh", s.handleRefresh)

	return r
}

// requireAPIKey checks the shared secret in the X-API-Key header or the
// api_key query parameter.
func requireAPIKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("X-API-Key")
		if key == "" {
			key = c.Query("api_key")
		}
		if engine.Cfg.APIKey == "" || key != engine.Cfg.APIKey {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing API key"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// writeError maps the pipeline error taxonomy onto HTTP statuses: caller
// mistakes are 400s, dead upstream credentials are 502s, the rest is a 500.
func writeError(c *gin.Context, err error) {
	var invalid *engine.InvalidRequestError
	if errors.As(err, &invalid) {
		c.JSON(http.StatusBadRequest, gin.H{"error": invalid.Error()})
		return
	}
	var auth *engine.UpstreamAuthError
	if errors.As(err, &auth) {
		slog.Error("upstream auth failure", slog.String("platform", auth.Platform), slog.Any("err", err))
		c.JSON(http.StatusBadGateway, gin.H{"error": auth.Error()})
		return
	}
	slog.Error("request failed", slog.String("path", c.FullPath()), slog.Any("err", err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "sources": s.registry.Len()})
}

func (s *Server) handleMetrics(c *gin.Context) {
	c.String(http.StatusOK, engine.FormatMetrics())
}

func (s *Server) handlePrivacy(c *gin.Context) {
	c.String(http.StatusOK, "You are ok")
}
