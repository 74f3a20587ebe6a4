package server

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/narrisia/email-orchestrator/config"
	"github.com/narrisia/email-orchestrator/internal/analysis"
	"github.com/narrisia/email-orchestrator/internal/company"
	"github.com/narrisia/email-orchestrator/internal/job"
	"github.com/narrisia/email-orchestrator/internal/mail"
	"github.com/narrisia/email-orchestrator/internal/progress"
	"github.com/narrisia/email-orchestrator/internal/storage"
)

// Server handles HTTP requests for the email credibility orchestrator.
type Server struct {
	cfg        *config.Config
	router     *gin.Engine
	jobManager *job.Manager
	pipeline   *analysis.Pipeline
	store      storage.Store

	// newSimulator builds the per-job progress simulator; tests shrink the
	// timings through it.
	newSimulator func() *progress.Simulator
}

// New creates a new HTTP server instance wired to the configured mail
// source, analysis pipeline and report store.
func New(cfg *config.Config) (*Server, error) {
	store, err := newStore(cfg)
	if err != nil {
		return nil, err
	}

	timeout := time.Duration(cfg.Analysis.RequestTimeoutSeconds) * time.Second
	pipeline := &analysis.Pipeline{
		Mail:       mail.New(cfg.Mail.BaseURL, cfg.Mail.MaxResults, timeout),
		Details:    company.NewDetailsFetcher(cfg.Analysis.UserAgent, timeout),
		Classifier: analysis.NewKeywordClassifier(),
	}

	server := &Server{
		cfg:          cfg,
		router:       gin.Default(),
		jobManager:   job.NewManager(),
		pipeline:     pipeline,
		store:        store,
		newSimulator: progress.New,
	}

	server.setupRoutes(server.router)
	return server, nil
}

func newStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Type {
	case "gcs":
		return storage.NewGCSStore(context.Background(), cfg.Storage.Bucket, cfg.Storage.ObjectPrefix, cfg.Storage.CredentialsFile)
	case "local", "":
		return storage.NewLocalStore(cfg.Storage.OutputDir)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Storage.Type)
	}
}

// setupRoutes configures the HTTP routes
func (s *Server) setupRoutes(router *gin.Engine) {
	// CORS middleware for the dashboard frontend
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Oauth-Token")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.GET("/health", s.healthCheck)

	api := router.Group("/api/v1")
	{
		api.GET("/emails", s.fetchEmails)
		api.POST("/analyze", s.startAnalysis)
		api.GET("/jobs", s.listJobs)
		api.GET("/jobs/:id", s.getJobStatus)
		api.DELETE("/jobs/:id", s.cancelJob)
		api.GET("/jobs/:id/reports", s.getJobReports)
	}
}

// Start starts the HTTP server
func (s *Server) Start(port string) error {
	return s.router.Run(":" + port)
}
