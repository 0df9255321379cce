// Package server exposes the resolver and analysis engine over a thin
// JSON HTTP surface.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/logops-io/logops/internal/domain"
	"github.com/logops-io/logops/internal/resolver"
	"github.com/logops-io/logops/internal/search"
)

// LogResolver is the resolver surface the handlers need
type LogResolver interface {
	PodList(ctx context.Context, f domain.Filter) (resolver.PodListResult, error)
	PodLogs(ctx context.Context, f domain.Filter) (resolver.PodLogsResult, error)
	Search(ctx context.Context, f domain.Filter) (*domain.SearchResult, error)
	Statistics(ctx context.Context, f domain.Filter) (*domain.Stats, error)
	Available(ctx context.Context) bool
}

// Analyzer is the analysis surface the handlers need
type Analyzer interface {
	Run(ctx context.Context, req domain.AnalysisRequest) (domain.AnalysisResult, error)
}

// HealthProber reports search store health for the health endpoint
type HealthProber interface {
	Health(ctx context.Context) *search.Health
	Index() string
}

// Server wires the handlers to their dependencies. All dependencies are
// constructed by the caller and injected here.
type Server struct {
	resolver        LogResolver
	engine          Analyzer
	store           HealthProber
	modelConfigured bool
	logger          *zap.Logger
}

// New creates a Server
func New(r LogResolver, engine Analyzer, store HealthProber, modelConfigured bool, logger *zap.Logger) *Server {
	return &Server{
		resolver:        r,
		engine:          engine,
		store:           store,
		modelConfigured: modelConfigured,
		logger:          logger,
	}
}

// Router builds the gin engine with all routes registered
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		api.GET("/health", s.handleHealth)
		api.GET("/pods", s.handlePods)
		api.POST("/pod-logs", s.handlePodLogs)
		api.GET("/search", s.handleSearch)
		api.GET("/stats", s.handleStats)
		api.POST("/summarize", s.handleSummarize)
		api.POST("/analyze", s.handleAnalyze)
	}

	return router
}

func (s *Server) handleHealth(c *gin.Context) {
	health := s.store.Health(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"store":            health,
		"index":            s.store.Index(),
		"model_configured": s.modelConfigured,
	})
}

func (s *Server) handlePods(c *gin.Context) {
	f := domain.NewFilter(
		c.Query("application"), c.Query("cluster"), c.Query("bundle"), "")

	result, err := s.resolver.PodList(c.Request.Context(), f)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"pods":   result.Pods,
		"source": result.Source,
	})
}

type podLogsRequest struct {
	Application string `json:"application" form:"application"`
	Cluster     string `json:"cluster" form:"cluster"`
	Bundle      string `json:"bundle" form:"bundle"`
	Pod         string `json:"pod" form:"pod"`
}

func (s *Server) handlePodLogs(c *gin.Context) {
	var req podLogsRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}

	f := domain.NewFilter(req.Application, req.Cluster, req.Bundle, req.Pod)
	result, err := s.resolver.PodLogs(c.Request.Context(), f)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"logs":   result.Text,
		"source": result.Source,
		"total":  result.Total,
	})
}

func (s *Server) handleSearch(c *gin.Context) {
	f := domain.Filter{
		Application: c.Query("application"),
		Cluster:     c.Query("cluster"),
		Bundle:      c.Query("bundle"),
		Pod:         c.Query("pod"),
		LogLevel:    c.Query("level"),
		SearchText:  c.Query("q"),
	}
	f.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	f.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(domain.DefaultPageSize)))

	if v := c.Query("start_time"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "start_time must be RFC3339"})
			return
		}
		f.StartTime = t
	}
	if v := c.Query("end_time"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "end_time must be RFC3339"})
			return
		}
		f.EndTime = t
	}

	result, err := s.resolver.Search(c.Request.Context(), f)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleStats(c *gin.Context) {
	f := domain.Filter{
		Application: c.Query("application"),
		Cluster:     c.Query("cluster"),
		Bundle:      c.Query("bundle"),
	}

	stats, err := s.resolver.Statistics(c.Request.Context(), f)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

type analysisRequest struct {
	LogText string `json:"log_text" form:"log_text"`
	// UseRemote defaults to true; an explicit false pins the local tier
	UseRemote *bool `json:"use_remote" form:"use_remote"`
}

func (s *Server) handleSummarize(c *gin.Context) {
	s.analyze(c, domain.IntentSummarize)
}

func (s *Server) handleAnalyze(c *gin.Context) {
	s.analyze(c, domain.IntentRootCause)
}

func (s *Server) analyze(c *gin.Context, intent domain.Intent) {
	var req analysisRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}

	analysisReq := domain.NewAnalysisRequest(req.LogText, intent)
	analysisReq.RemoteOptOut = req.UseRemote != nil && !*req.UseRemote

	result, err := s.engine.Run(c.Request.Context(), analysisReq)
	if err != nil {
		s.logger.Error("analysis failed", zap.String("intent", string(intent)), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "analysis unavailable"})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrStoreUnavailable), errors.Is(err, domain.ErrQueryFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": "search store unavailable"})
	default:
		s.logger.Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
