package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/narrisia/email-orchestrator/internal/domain"
)

// LocalStore implements Store on the local filesystem: one JSON file per
// job under the output directory.
type LocalStore struct {
	outputDir string
}

// NewLocalStore creates the output directory if needed.
func NewLocalStore(outputDir string) (*LocalStore, error) {
	if err := os.MkdirAll(outputDir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}
	return &LocalStore{outputDir: outputDir}, nil
}

func (s *LocalStore) SaveReports(_ context.Context, jobID string, reports []domain.AnalysisReport) (string, error) {
	data, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode reports: %w", err)
	}

	path := s.reportPath(jobID)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write reports: %w", err)
	}
	return path, nil
}

func (s *LocalStore) LoadReports(_ context.Context, jobID string) ([]domain.AnalysisReport, error) {
	data, err := os.ReadFile(s.reportPath(jobID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, jobID)
		}
		return nil, fmt.Errorf("failed to read reports: %w", err)
	}

	var reports []domain.AnalysisReport
	if err := json.Unmarshal(data, &reports); err != nil {
		return nil, fmt.Errorf("failed to decode reports: %w", err)
	}
	return reports, nil
}

func (s *LocalStore) ListJobs(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.outputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read output directory: %w", err)
	}

	var jobs []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		jobs = append(jobs, strings.TrimSuffix(entry.Name(), ".json"))
	}
	return jobs, nil
}

func (s *LocalStore) reportPath(jobID string) string {
	return filepath.Join(s.outputDir, jobID+".json")
}
