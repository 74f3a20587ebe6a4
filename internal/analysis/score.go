package analysis

import (
	"math"
)

// Metrics are the raw company signals feeding the credibility score.
// Defaults mirror what the dashboard assumes when a signal is unknown.
type Metrics struct {
	AgeYears             int     `json:"age_years"`
	MarketCap            float64 `json:"market_cap"`
	Employees            int     `json:"employee_count"`
	DomainAgeYears       int     `json:"domain_age"`
	SentimentScore       float64 `json:"sentiment_score"`
	Certified            bool    `json:"certified"`
	FundedByTopInvestors bool    `json:"funded_by_top_investors"`
}

// DefaultMetrics are used when nothing is known about a company.
func DefaultMetrics() Metrics {
	return Metrics{
		AgeYears:       5,
		Employees:      100,
		DomainAgeYears: 5,
		SentimentScore: 0.5,
	}
}

// Factor weights. They sum to 100 so the score lands in [0, 100].
const (
	weightCompanyAge = 20.0
	weightMarketCap  = 15.0
	weightEmployees  = 15.0
	weightDomainAge  = 15.0
	weightSentiment  = 15.0
	weightCertified  = 10.0
	weightInvestors  = 10.0
)

// Saturation points: signals at or above these earn the factor's full weight.
const (
	maxAgeYears       = 20.0
	maxDomainAgeYears = 15.0
	// log10 scales for the open-ended signals.
	marketCapLogCeil = 12.0 // ~1T
	employeesLogCeil = 6.0  // ~1M
)

// Score computes the weighted credibility score and its per-factor
// breakdown. The computation is deterministic: equal metrics always produce
// equal scores.
func Score(m Metrics) (float64, map[string]float64) {
	breakdown := map[string]float64{
		"company_age": clamp01(float64(m.AgeYears)/maxAgeYears) * weightCompanyAge,
		"market_cap":  clamp01(logScale(m.MarketCap, marketCapLogCeil)) * weightMarketCap,
		"employees":   clamp01(logScale(float64(m.Employees), employeesLogCeil)) * weightEmployees,
		"domain_age":  clamp01(float64(m.DomainAgeYears)/maxDomainAgeYears) * weightDomainAge,
		"sentiment":   clamp01(m.SentimentScore) * weightSentiment,
	}
	if m.Certified {
		breakdown["certified"] = weightCertified
	} else {
		breakdown["certified"] = 0
	}
	if m.FundedByTopInvestors {
		breakdown["top_investors"] = weightInvestors
	} else {
		breakdown["top_investors"] = 0
	}

	total := 0.0
	for _, v := range breakdown {
		total += v
	}
	return math.Round(total*10) / 10, breakdown
}

// ContactQuality buckets a credibility score for dashboard display.
func ContactQuality(score float64) string {
	switch {
	case score > 70:
		return "High"
	case score > 40:
		return "Medium"
	default:
		return "Low"
	}
}

func logScale(v, ceil float64) float64 {
	if v <= 0 {
		return 0
	}
	return math.Log10(v+1) / ceil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
