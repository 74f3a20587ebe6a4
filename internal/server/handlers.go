package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/narrisia/email-orchestrator/internal/company"
	"github.com/narrisia/email-orchestrator/internal/job"
	"github.com/narrisia/email-orchestrator/internal/mail"
	"github.com/narrisia/email-orchestrator/internal/storage"
)

const oauthTokenHeader = "Oauth-Token"

// healthCheck handles health check requests
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now(),
		"service":   "email-orchestrator",
	})
}

// fetchEmails relays unread emails without analysis: the fast path the
// dashboard uses to populate the inbox view.
func (s *Server) fetchEmails(c *gin.Context) {
	token := c.GetHeader(oauthTokenHeader)
	if token == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "OAuth token required"})
		return
	}

	emails, err := s.pipeline.Mail.FetchUnread(c.Request.Context(), token)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, mail.ErrTokenExpired):
			status = http.StatusUnauthorized
		case errors.Is(err, mail.ErrInsufficientScope):
			status = http.StatusForbidden
		}
		slog.Error("Failed to fetch emails", "error", err)
		c.JSON(status, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, EmailsResponse{
		Emails:    emails,
		Companies: company.NamesFromEmails(emails),
	})
}

// startAnalysis kicks off a background credibility analysis over the
// account's unread emails.
func (s *Server) startAnalysis(c *gin.Context) {
	token := c.GetHeader(oauthTokenHeader)
	if token == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "OAuth token required"})
		return
	}

	jobStatus, ctx := s.jobManager.CreateJob()

	go s.runAnalysis(ctx, jobStatus.ID, token)

	c.JSON(http.StatusAccepted, AnalyzeResponse{
		JobID:   jobStatus.ID,
		Status:  "accepted",
		Message: "Analysis started",
	})
}

// getJobStatus handles job status requests
func (s *Server) getJobStatus(c *gin.Context) {
	jobStatus, err := s.jobManager.GetJob(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, jobStatus)
}

// cancelJob handles job cancellation requests
func (s *Server) cancelJob(c *gin.Context) {
	err := s.jobManager.CancelJob(c.Param("id"))
	switch {
	case errors.Is(err, job.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, job.ErrInvalidState):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusOK, MessageResponse{Message: "Job cancelled"})
	}
}

// listJobs handles listing all jobs with pagination
func (s *Server) listJobs(c *gin.Context) {
	page := 1
	pageSize := job.DefaultPageSize

	if p := c.Query("page"); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil && parsed > 0 {
			page = parsed
		}
	}
	if ps := c.Query("pageSize"); ps != "" {
		if parsed, err := strconv.Atoi(ps); err == nil && parsed > 0 && parsed <= job.MaxPageSize {
			pageSize = parsed
		}
	}

	c.JSON(http.StatusOK, s.jobManager.ListJobs(page, pageSize))
}

// getJobReports loads the persisted report batch of a finished job.
func (s *Server) getJobReports(c *gin.Context) {
	jobID := c.Param("id")

	reports, err := s.store.LoadReports(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
			return
		}
		slog.Error("Failed to load reports", "jobId", jobID, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, ReportsResponse{JobID: jobID, Reports: reports})
}
