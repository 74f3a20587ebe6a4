package job

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manager tracks analysis jobs. Handlers and background workers touch the
// same map, so all access goes through the mutex.
type Manager struct {
	mu   sync.RWMutex
	jobs map[string]*Status
}

// NewManager creates a new job manager
func NewManager() *Manager {
	return &Manager{
		jobs: make(map[string]*Status),
	}
}

// CreateJob registers a new pending job and returns it with the context
// its worker should run under.
func (m *Manager) CreateJob() (*Status, context.Context) {
	ctx, cancel := context.WithCancel(context.Background())

	job := &Status{
		ID:         uuid.NewString(),
		Status:     StatusPending,
		Progress:   0,
		Message:    "Job created",
		StartTime:  time.Now(),
		Events:     make([]Event, 0),
		cancelFunc: cancel,
	}

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.mu.Unlock()

	return job.clone(), ctx
}

// GetJob retrieves a copy of a job by ID. The tracked struct never leaves
// the mutex: workers keep mutating it while handlers serialize the copy.
func (m *Manager) GetJob(jobID string) (*Status, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, exists := m.jobs[jobID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, jobID)
	}
	return job.clone(), nil
}

// SetProcessing moves a job into the processing state.
func (m *Manager) SetProcessing(jobID, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, exists := m.jobs[jobID]
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, jobID)
	}
	job.Status = StatusProcessing
	job.Message = message
	return nil
}

// UpdateProgress records a progress point and appends it to the job's
// event history.
func (m *Manager) UpdateProgress(jobID string, progress float64, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, exists := m.jobs[jobID]
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, jobID)
	}

	job.Progress = progress
	job.Message = message
	job.Events = append(job.Events, Event{
		Progress:  progress,
		Message:   message,
		Timestamp: time.Now(),
	})
	return nil
}

// Complete marks a job successful.
func (m *Manager) Complete(jobID string, reports int, resultPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, exists := m.jobs[jobID]
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, jobID)
	}

	endTime := time.Now()
	job.Status = StatusCompleted
	job.Progress = 100
	job.Message = "Analysis completed successfully"
	job.Reports = reports
	job.ResultPath = resultPath
	job.EndTime = &endTime
	return nil
}

// Fail marks a job failed (or cancelled, when cancelled is true).
func (m *Manager) Fail(jobID string, err error, cancelled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, exists := m.jobs[jobID]
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, jobID)
	}

	endTime := time.Now()
	job.EndTime = &endTime
	if cancelled {
		job.Status = StatusCancelled
		job.Message = "Analysis was cancelled"
	} else {
		job.Status = StatusFailed
		job.Message = "Analysis failed"
		if err != nil {
			job.Error = err.Error()
		}
	}
	return nil
}

// CancelJob cancels a pending or processing job.
func (m *Manager) CancelJob(jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, exists := m.jobs[jobID]
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, jobID)
	}

	if job.Status != StatusProcessing && job.Status != StatusPending {
		return fmt.Errorf("%w: %s", ErrInvalidState, job.Status)
	}

	job.cancelFunc()
	job.Status = StatusCancelled
	job.Message = "Job cancelled by user"
	endTime := time.Now()
	job.EndTime = &endTime

	return nil
}

// ListJobs lists all jobs with pagination, newest first.
func (m *Manager) ListJobs(page, pageSize int) *Response {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > MaxPageSize {
		pageSize = DefaultPageSize
	}

	m.mu.RLock()
	jobs := make([]*Status, 0, len(m.jobs))
	for _, job := range m.jobs {
		jobs = append(jobs, job.clone())
	}
	m.mu.RUnlock()

	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].StartTime.After(jobs[j].StartTime)
	})

	start := (page - 1) * pageSize
	end := start + pageSize

	if start >= len(jobs) {
		return &Response{
			Jobs:       []*Status{},
			Page:       page,
			PageSize:   pageSize,
			TotalJobs:  len(jobs),
			TotalPages: (len(jobs) + pageSize - 1) / pageSize,
		}
	}

	if end > len(jobs) {
		end = len(jobs)
	}

	return &Response{
		Jobs:       jobs[start:end],
		Page:       page,
		PageSize:   pageSize,
		TotalJobs:  len(jobs),
		TotalPages: (len(jobs) + pageSize - 1) / pageSize,
	}
}
