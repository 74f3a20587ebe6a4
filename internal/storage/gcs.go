package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/narrisia/email-orchestrator/internal/domain"
)

// GCSStore implements Store on a Google Cloud Storage bucket: one JSON
// object per job under the configured prefix.
type GCSStore struct {
	client       *storage.Client
	bucket       string
	objectPrefix string
}

// NewGCSStore creates a GCS-backed store. With an empty credentialsFile
// the client uses application default credentials.
func NewGCSStore(ctx context.Context, bucket, objectPrefix, credentialsFile string) (*GCSStore, error) {
	var client *storage.Client
	var err error

	if credentialsFile != "" {
		client, err = storage.NewClient(ctx, option.WithCredentialsFile(credentialsFile))
	} else {
		client, err = storage.NewClient(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	return &GCSStore{
		client:       client,
		bucket:       bucket,
		objectPrefix: objectPrefix,
	}, nil
}

func (s *GCSStore) SaveReports(ctx context.Context, jobID string, reports []domain.AnalysisReport) (string, error) {
	data, err := json.Marshal(reports)
	if err != nil {
		return "", fmt.Errorf("failed to encode reports: %w", err)
	}

	object := s.objectName(jobID)
	w := s.client.Bucket(s.bucket).Object(object).NewWriter(ctx)
	w.ContentType = "application/json"

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write reports object: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize reports object: %w", err)
	}
	return fmt.Sprintf("gs://%s/%s", s.bucket, object), nil
}

func (s *GCSStore) LoadReports(ctx context.Context, jobID string) ([]domain.AnalysisReport, error) {
	r, err := s.client.Bucket(s.bucket).Object(s.objectName(jobID)).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, jobID)
		}
		return nil, fmt.Errorf("failed to open reports object: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read reports object: %w", err)
	}

	var reports []domain.AnalysisReport
	if err := json.Unmarshal(data, &reports); err != nil {
		return nil, fmt.Errorf("failed to decode reports: %w", err)
	}
	return reports, nil
}

func (s *GCSStore) ListJobs(ctx context.Context) ([]string, error) {
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: s.objectPrefix})

	var jobs []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list report objects: %w", err)
		}
		name := path.Base(attrs.Name)
		if strings.HasSuffix(name, ".json") {
			jobs = append(jobs, strings.TrimSuffix(name, ".json"))
		}
	}
	return jobs, nil
}

func (s *GCSStore) objectName(jobID string) string {
	if s.objectPrefix == "" {
		return jobID + ".json"
	}
	return path.Join(s.objectPrefix, jobID+".json")
}
