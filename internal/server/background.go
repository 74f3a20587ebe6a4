package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/narrisia/email-orchestrator/internal/analysis"
	"github.com/narrisia/email-orchestrator/internal/domain"
	"github.com/narrisia/email-orchestrator/internal/progress"
)

// Upper bound on a single analysis batch so abandoned jobs never hang
// forever.
const jobTimeout = 45 * time.Minute

type analysisResult struct {
	reports    []domain.AnalysisReport
	resultPath string
}

// runAnalysis executes one analysis job. The pipeline's real progress is
// unobservable, so a progress simulator interpolates over the weighted
// analysis steps while the batch runs; each simulator snapshot becomes a
// job progress event the dashboard can poll.
func (s *Server) runAnalysis(ctx context.Context, jobID, token string) {
	slog.Info("Starting background analysis", "jobId", jobID)

	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	if err := s.jobManager.SetProcessing(jobID, "Starting analysis"); err != nil {
		slog.Error("Job failed to retrieve", "jobId", jobID, "error", err)
		return
	}

	sim := s.newSimulator()
	sim.AddListener(func(snap progress.Snapshot) {
		_ = s.jobManager.UpdateProgress(jobID, snap.Percent, snap.CurrentStep)
	})

	result, err := progress.Run(ctx, sim, analysis.Steps, func(ctx context.Context) (analysisResult, error) {
		reports, err := s.pipeline.Analyze(ctx, token)
		if err != nil {
			return analysisResult{}, err
		}
		path, err := s.store.SaveReports(ctx, jobID, reports)
		if err != nil {
			return analysisResult{}, fmt.Errorf("failed to save reports: %w", err)
		}
		return analysisResult{reports: reports, resultPath: path}, nil
	})

	if err != nil {
		cancelled := errors.Is(ctx.Err(), context.Canceled)
		_ = s.jobManager.Fail(jobID, err, cancelled)
		if cancelled {
			slog.Warn("Job cancelled", "jobId", jobID)
		} else {
			slog.Error("Job failed", "jobId", jobID, "error", err)
		}
		return
	}

	_ = s.jobManager.Complete(jobID, len(result.reports), result.resultPath)
	slog.Info("Job completed successfully", "jobId", jobID, "reports", len(result.reports))
}
