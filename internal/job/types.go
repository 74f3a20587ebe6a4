package job

import (
	"context"
	"time"
)

// Constants for job status
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusCancelled  = "cancelled"
)

// Constants for pagination
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Event is one point of the progress history kept for a job.
type Event struct {
	Progress  float64   `json:"progress"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Status represents the current state of an analysis job.
type Status struct {
	ID         string     `json:"id"`
	Status     string     `json:"status"`
	Progress   float64    `json:"progress"`
	Message    string     `json:"message"`
	Error      string     `json:"error,omitempty"`
	Reports    int        `json:"reports"`
	ResultPath string     `json:"result_path,omitempty"`
	Events     []Event    `json:"events"`
	StartTime  time.Time  `json:"start_time"`
	EndTime    *time.Time `json:"end_time,omitempty"`
	cancelFunc context.CancelFunc
}

// clone returns a detached copy of the status. Callers serialize job
// statuses while the worker keeps mutating the tracked struct, so the
// manager only ever hands out copies.
func (s *Status) clone() *Status {
	c := *s
	c.cancelFunc = nil
	c.Events = append([]Event(nil), s.Events...)
	if s.EndTime != nil {
		t := *s.EndTime
		c.EndTime = &t
	}
	return &c
}

// Response represents a paginated job listing.
type Response struct {
	Jobs       []*Status `json:"jobs"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalJobs  int       `json:"total_jobs"`
	TotalPages int       `json:"total_pages"`
}
