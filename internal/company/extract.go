package company

import (
	"regexp"
	"strings"

	"github.com/narrisia/email-orchestrator/internal/domain"
)

// Sentinel names returned when no company can be derived from a sender.
const (
	NameGeneric = "Generic"
	NameUnknown = "Unknown"
)

var (
	addressPattern = regexp.MustCompile(`<([^>]+)>`)
	domainPattern  = regexp.MustCompile(`@([\w.-]+)`)
)

// genericDomains are consumer mail providers that carry no company signal.
var genericDomains = map[string]struct{}{
	"gmail.com":      {},
	"yahoo.com":      {},
	"outlook.com":    {},
	"hotmail.com":    {},
	"protonmail.com": {},
}

// knownCompanyDomains maps well-known domains (and their subdomains) to
// display names, e.g. accounts.google.com -> Google.
var knownCompanyDomains = map[string]string{
	"google.com":    "Google",
	"microsoft.com": "Microsoft",
	"apple.com":     "Apple",
	"amazon.com":    "Amazon",
	"facebook.com":  "Facebook",
	"meta.com":      "Meta",
	"twitter.com":   "Twitter",
	"linkedin.com":  "LinkedIn",
	"youtube.com":   "Youtube",
	"instagram.com": "Instagram",
}

// NameFromSender derives a company name from an email sender string.
// "John <john@pictory.ai>" -> "Pictory", "Google <no-reply@accounts.google.com>"
// -> "Google". Consumer providers map to NameGeneric, unparseable senders to
// NameUnknown.
func NameFromSender(sender string) string {
	address := strings.TrimSpace(sender)
	if m := addressPattern.FindStringSubmatch(sender); m != nil {
		address = m[1]
	}

	var domain string
	if m := domainPattern.FindStringSubmatch(address); m != nil {
		domain = strings.ToLower(m[1])
	}
	if domain == "" {
		return NameUnknown
	}

	if _, ok := genericDomains[domain]; ok {
		return NameGeneric
	}

	for known, name := range knownCompanyDomains {
		if domain == known || strings.HasSuffix(domain, "."+known) {
			return name
		}
	}

	parts := strings.Split(domain, ".")
	if len(parts) >= 3 {
		// Collapse subdomains: mail.pictory.ai -> Pictory.
		return capitalize(parts[len(parts)-2])
	}
	return capitalize(parts[0])
}

// NamesFromEmails extracts a company name per email sender.
func NamesFromEmails(emails []domain.Email) []string {
	names := make([]string, len(emails))
	for i, e := range emails {
		names[i] = NameFromSender(e.Sender)
	}
	return names
}

// SenderDomain returns the bare domain of a sender for display, or
// NameUnknown when none can be parsed.
func SenderDomain(sender string) string {
	address := sender
	if m := addressPattern.FindStringSubmatch(sender); m != nil {
		address = m[1]
	}
	if m := domainPattern.FindStringSubmatch(address); m != nil {
		return strings.ToLower(m[1])
	}
	return NameUnknown
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
