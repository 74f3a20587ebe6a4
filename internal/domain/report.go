package domain

import "time"

// Email is a parsed inbound message as relayed to the dashboard.
type Email struct {
	ID      string    `json:"id"`
	Subject string    `json:"subject"`
	Sender  string    `json:"sender"`
	Date    time.Time `json:"date"`
	Snippet string    `json:"snippet,omitempty"`
	Body    string    `json:"-"`
}

// CompanyProfile describes the company behind an email sender.
type CompanyProfile struct {
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	Website         string `json:"website,omitempty"`
	IsPersonalEmail bool   `json:"is_personal_email"`
}

// CredibilityScore is the weighted trust score computed for a company plus
// the inputs and per-factor contributions that produced it.
type CredibilityScore struct {
	Score          float64            `json:"score"`
	RawMetrics     map[string]any     `json:"raw_metrics"`
	ScoreBreakdown map[string]float64 `json:"score_breakdown"`
}

// BusinessValue captures whether an email mentions anything of monetary
// relevance and how confident the classifier is.
type BusinessValue struct {
	Relevant   bool    `json:"relevant"`
	Category   string  `json:"category,omitempty"`
	Confidence float64 `json:"confidence"`
}

// EmailClassification is the intent analysis of a single email.
type EmailClassification struct {
	Intent           string        `json:"intent"`
	IntentConfidence float64       `json:"intent_confidence"`
	BusinessValue    BusinessValue `json:"business_value"`
	Notes            string        `json:"notes,omitempty"`
}

// AnalysisReport is the per-email credibility analysis result stored for
// the dashboard.
type AnalysisReport struct {
	ReportID             string               `json:"report_id"`
	CompanyName          string               `json:"company_name"`
	ResearchDate         time.Time            `json:"research_date"`
	OverallStatus        string               `json:"overall_status"`
	CompletionPercentage float64              `json:"completion_percentage"`
	CompanyProfile       CompanyProfile       `json:"company_profile"`
	Credibility          *CredibilityScore    `json:"credibility,omitempty"`
	EmailClassification  *EmailClassification `json:"email_classification,omitempty"`
	ContactQuality       string               `json:"contact_quality,omitempty"`
	KeyInsights          []string             `json:"key_insights,omitempty"`
	Recommendations      []string             `json:"recommendations,omitempty"`

	// Dashboard display fields.
	EmailSender  string `json:"email_sender,omitempty"`
	EmailSnippet string `json:"email_snippet,omitempty"`
}
