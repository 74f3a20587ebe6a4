package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/narrisia/email-orchestrator/internal/company"
	"github.com/narrisia/email-orchestrator/internal/domain"
	"github.com/narrisia/email-orchestrator/internal/progress"
)

// Steps is the weighted step list shown while an analysis batch runs. The
// heavier research and scoring phases take a larger share of the displayed
// progress.
var Steps = []progress.Step{
	{ID: "fetch", Label: "Fetching unread emails", Weight: 1},
	{ID: "identify", Label: "Identifying companies", Weight: 1},
	{ID: "research", Label: "Researching companies", Weight: 2},
	{ID: "score", Label: "Scoring credibility", Weight: 2},
	{ID: "classify", Label: "Classifying intent", Weight: 1},
	{ID: "save", Label: "Saving reports", Weight: 1},
}

// MailSource fetches unread emails on behalf of a user.
type MailSource interface {
	FetchUnread(ctx context.Context, token string) ([]domain.Email, error)
}

// DetailsSource looks up public metadata for a company website.
type DetailsSource interface {
	Fetch(website string) *company.Details
}

// Pipeline runs the credibility analysis over a batch of unread emails:
// company identification, site research, credibility scoring and intent
// classification. Individual email failures are logged and skipped so one
// bad sender never sinks the batch.
type Pipeline struct {
	Mail       MailSource
	Details    DetailsSource
	Classifier IntentClassifier
}

// Analyze fetches unread emails for the token's account and produces one
// report per email. A cancelled context aborts the batch.
func (p *Pipeline) Analyze(ctx context.Context, token string) ([]domain.AnalysisReport, error) {
	emails, err := p.Mail.FetchUnread(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch emails: %w", err)
	}
	slog.Info("Fetched unread emails", "count", len(emails))

	reports := make([]domain.AnalysisReport, 0, len(emails))
	for _, email := range emails {
		select {
		case <-ctx.Done():
			return reports, ctx.Err()
		default:
		}

		report, err := p.analyzeEmail(ctx, email)
		if err != nil {
			slog.Error("Failed to process email", "sender", email.Sender, "error", err)
			continue
		}
		reports = append(reports, report)
	}

	slog.Info("Analysis batch complete", "reports", len(reports))
	return reports, nil
}

func (p *Pipeline) analyzeEmail(ctx context.Context, email domain.Email) (domain.AnalysisReport, error) {
	name := company.NameFromSender(email.Sender)
	senderDomain := company.SenderDomain(email.Sender)

	profile := domain.CompanyProfile{
		Name:            name,
		IsPersonalEmail: name == company.NameGeneric,
	}

	metrics := DefaultMetrics()
	if !profile.IsPersonalEmail && name != company.NameUnknown {
		details := p.Details.Fetch(company.WebsiteFor(name, senderDomain))
		profile.Website = details.Website
		profile.Description = details.Description
		metrics = metricsFromDetails(details)
	}

	score, breakdown := Score(metrics)

	classification, err := p.Classifier.Classify(ctx, bodyOrSnippet(email))
	if err != nil {
		slog.Warn("Classification failed", "company", name, "error", err)
		classification = FallbackClassification("Classification failed: " + err.Error())
	}

	snippet := truncate(email.Snippet, reportSnippetLimit)

	return domain.AnalysisReport{
		ReportID:             uuid.NewString(),
		CompanyName:          name,
		ResearchDate:         time.Now(),
		OverallStatus:        "completed",
		CompletionPercentage: 100,
		CompanyProfile:       profile,
		Credibility: &domain.CredibilityScore{
			Score: score,
			RawMetrics: map[string]any{
				"age_years":               metrics.AgeYears,
				"market_cap":              metrics.MarketCap,
				"employee_count":          metrics.Employees,
				"domain_age":              metrics.DomainAgeYears,
				"sentiment_score":         metrics.SentimentScore,
				"certified":               metrics.Certified,
				"funded_by_top_investors": metrics.FundedByTopInvestors,
			},
			ScoreBreakdown: breakdown,
		},
		EmailClassification: &classification,
		ContactQuality:      ContactQuality(score),
		EmailSender:         email.Sender,
		EmailSnippet:        snippet,
	}, nil
}

// metricsFromDetails derives scoring signals from scraped site metadata.
// Signals the scrape cannot observe keep their defaults.
func metricsFromDetails(details *company.Details) Metrics {
	m := DefaultMetrics()
	// A reachable site with a real description and TLS is the closest thing
	// to verification the scrape can offer.
	m.Certified = details.SSLCertificate && details.Description != ""
	if details.Description != "" {
		m.SentimentScore = 0.6
	}
	return m
}

func bodyOrSnippet(email domain.Email) string {
	if email.Body != "" {
		return email.Body
	}
	return email.Snippet
}

const reportSnippetLimit = 300

// truncate caps s at limit bytes without splitting a multi-byte rune.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
