package analysis

import (
	"context"
	"strings"

	"github.com/narrisia/email-orchestrator/internal/domain"
)

// IntentClassifier determines the purpose of an email and whether it
// carries business value.
type IntentClassifier interface {
	Classify(ctx context.Context, emailBody string) (domain.EmailClassification, error)
}

// FallbackClassification is what a report carries when classification
// fails: the pipeline never aborts a batch over a classifier error.
func FallbackClassification(reason string) domain.EmailClassification {
	return domain.EmailClassification{
		Intent:           "unknown",
		IntentConfidence: 0.0,
		BusinessValue: domain.BusinessValue{
			Relevant:   false,
			Category:   "unknown",
			Confidence: 0.0,
		},
		Notes: reason,
	}
}

// KeywordClassifier is a deterministic classifier over keyword families.
// It stands in for the hosted model behind the classification contract:
// same output shape, same confidence bounds, same failure fallback.
type KeywordClassifier struct{}

func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

var intentKeywords = []struct {
	intent   string
	keywords []string
}{
	{"business inquiry", []string{"pricing", "quote", "proposal", "partnership", "demo", "purchase", "interested in your", "collaborat"}},
	{"job application", []string{"resume", "curriculum vitae", "applying for", "job application", "position of"}},
	{"newsletter", []string{"unsubscribe", "newsletter", "weekly digest", "view in browser"}},
	{"spam", []string{"you have won", "lottery", "claim your prize", "act now", "limited time offer"}},
}

var businessValueCategories = []struct {
	category string
	keywords []string
}{
	{"sales", []string{"pricing", "purchase", "buy", "demo", "deal"}},
	{"budget", []string{"budget", "allocation", "spend"}},
	{"quotation", []string{"quote", "quotation", "estimate", "proposal"}},
	{"invoice", []string{"invoice", "payment due", "billing"}},
	{"finance", []string{"funding", "investment", "revenue", "financial"}},
}

// Classify scans the email body for intent and business-value signals.
func (c *KeywordClassifier) Classify(_ context.Context, emailBody string) (domain.EmailClassification, error) {
	body := strings.ToLower(emailBody)

	intent := "other"
	hits := 0
	for _, candidate := range intentKeywords {
		n := countHits(body, candidate.keywords)
		if n > hits {
			intent = candidate.intent
			hits = n
		}
	}

	category := ""
	categoryHits := 0
	for _, candidate := range businessValueCategories {
		n := countHits(body, candidate.keywords)
		if n > categoryHits {
			category = candidate.category
			categoryHits = n
		}
	}

	classification := domain.EmailClassification{
		Intent:           intent,
		IntentConfidence: confidence(hits),
		BusinessValue: domain.BusinessValue{
			Relevant:   categoryHits > 0,
			Category:   category,
			Confidence: confidence(categoryHits),
		},
	}
	return classification, nil
}

func countHits(body string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if strings.Contains(body, kw) {
			n++
		}
	}
	return n
}

// confidence maps hit counts to [0.2, 0.95]; zero hits stay low-confidence.
func confidence(hits int) float64 {
	if hits == 0 {
		return 0.2
	}
	c := 0.5 + 0.15*float64(hits)
	if c > 0.95 {
		c = 0.95
	}
	return c
}
