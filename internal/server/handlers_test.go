package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/narrisia/email-orchestrator/internal/job"
	"github.com/narrisia/email-orchestrator/internal/mail"
)

func startAnalysis(t *testing.T, server *Server) string {
	t.Helper()

	req, _ := http.NewRequest("POST", "/api/v1/analyze", nil)
	req.Header.Set("Oauth-Token", "token")

	rr := httptest.NewRecorder()
	server.router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())

	var response AnalyzeResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	require.NotEmpty(t, response.JobID)
	require.Equal(t, "accepted", response.Status)
	return response.JobID
}

func waitForJob(t *testing.T, server *Server, jobID, wantStatus string) *job.Status {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		jobStatus, err := server.jobManager.GetJob(jobID)
		require.NoError(t, err)
		if jobStatus.Status == wantStatus {
			return jobStatus
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Job %s never reached status %q", jobID, wantStatus)
	return nil
}

func TestStartAnalysisMissingToken(t *testing.T) {
	server := newTestServer(t)

	req, _ := http.NewRequest("POST", "/api/v1/analyze", nil)
	rr := httptest.NewRecorder()
	server.router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAnalysisLifecycle(t *testing.T) {
	server := newTestServer(t)
	jobID := startAnalysis(t, server)

	jobStatus := waitForJob(t, server, jobID, job.StatusCompleted)
	assert.Equal(t, 100.0, jobStatus.Progress)
	assert.Equal(t, 1, jobStatus.Reports)
	assert.NotEmpty(t, jobStatus.ResultPath)
	assert.NotNil(t, jobStatus.EndTime)
	assert.NotEmpty(t, jobStatus.Events, "simulator snapshots should appear in the job history")

	// Progress events are monotone until the final jump to 100.
	prev := 0.0
	for i, event := range jobStatus.Events {
		assert.GreaterOrEqual(t, event.Progress, prev, "event %d went backwards", i)
		prev = event.Progress
	}

	// The persisted reports are served back.
	req, _ := http.NewRequest("GET", "/api/v1/jobs/"+jobID+"/reports", nil)
	rr := httptest.NewRecorder()
	server.router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var response ReportsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	require.Len(t, response.Reports, 1)
	assert.Equal(t, "Pictory", response.Reports[0].CompanyName)
	assert.NotNil(t, response.Reports[0].Credibility)
}

func TestAnalysisFailureMarksJobFailed(t *testing.T) {
	server := newTestServer(t)
	server.pipeline.Mail = &stubMail{err: mail.ErrTokenExpired}

	jobID := startAnalysis(t, server)

	jobStatus := waitForJob(t, server, jobID, job.StatusFailed)
	assert.NotEmpty(t, jobStatus.Error)
	assert.Less(t, jobStatus.Progress, 100.0, "failures must not force progress to 100")
}

func TestCancelRunningJob(t *testing.T) {
	server := newTestServer(t)
	// Slow fetch keeps the job in processing long enough to cancel it.
	server.pipeline.Mail = &stubMail{delay: time.Second}

	jobID := startAnalysis(t, server)
	waitForJob(t, server, jobID, job.StatusProcessing)

	req, _ := http.NewRequest("DELETE", "/api/v1/jobs/"+jobID, nil)
	rr := httptest.NewRecorder()
	server.router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	jobStatus, err := server.jobManager.GetJob(jobID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusCancelled, jobStatus.Status)
}

func TestCancelFinishedJob(t *testing.T) {
	server := newTestServer(t)
	jobID := startAnalysis(t, server)
	waitForJob(t, server, jobID, job.StatusCompleted)

	req, _ := http.NewRequest("DELETE", "/api/v1/jobs/"+jobID, nil)
	rr := httptest.NewRecorder()
	server.router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCancelJobNotFound(t *testing.T) {
	server := newTestServer(t)

	req, _ := http.NewRequest("DELETE", "/api/v1/jobs/missing", nil)
	rr := httptest.NewRecorder()
	server.router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}
