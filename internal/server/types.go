package server

import "github.com/narrisia/email-orchestrator/internal/domain"

// EmailsResponse is the fast fetch-only payload relayed to the dashboard.
// Companies carries the per-sender company name, index-aligned with Emails,
// so the inbox view can label senders before any analysis runs.
type EmailsResponse struct {
	Emails    []domain.Email `json:"emails"`
	Companies []string       `json:"companies"`
}

// AnalyzeResponse acknowledges a started analysis job.
type AnalyzeResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ReportsResponse carries the persisted reports for a finished job.
type ReportsResponse struct {
	JobID   string                  `json:"job_id"`
	Reports []domain.AnalysisReport `json:"reports"`
}

// MessageResponse represents a generic message payload used for success responses.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents a generic error payload used for error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}
