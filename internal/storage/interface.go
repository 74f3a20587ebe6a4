package storage

import (
	"context"
	"errors"

	"github.com/narrisia/email-orchestrator/internal/domain"
)

var ErrNotFound = errors.New("reports not found")

// Store persists the analysis reports produced by a job so the dashboard
// can reload them after the run.
type Store interface {
	// SaveReports writes a job's report batch and returns its location.
	SaveReports(ctx context.Context, jobID string, reports []domain.AnalysisReport) (string, error)

	// LoadReports reads back the batch saved for a job. Returns ErrNotFound
	// when no batch was saved.
	LoadReports(ctx context.Context, jobID string) ([]domain.AnalysisReport, error)

	// ListJobs returns the job IDs with saved report batches.
	ListJobs(ctx context.Context) ([]string, error)
}
