package company

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly"
)

// Details holds what can be learned about a company from its public site.
type Details struct {
	Website        string `json:"website"`
	Title          string `json:"title,omitempty"`
	Description    string `json:"description,omitempty"`
	SiteName       string `json:"site_name,omitempty"`
	SSLCertificate bool   `json:"ssl_certificate"`
}

// DetailsFetcher scrapes the landing page of a company website for
// dashboard display metadata.
type DetailsFetcher struct {
	userAgent string
	timeout   time.Duration
}

// NewDetailsFetcher creates a fetcher with the given request settings.
func NewDetailsFetcher(userAgent string, timeout time.Duration) *DetailsFetcher {
	return &DetailsFetcher{userAgent: userAgent, timeout: timeout}
}

// WebsiteFor guesses the website for a company identified from a sender:
// the sender domain when one parses, otherwise <name>.com.
func WebsiteFor(companyName, senderDomain string) string {
	if senderDomain != "" && senderDomain != NameUnknown {
		return "https://" + senderDomain
	}
	return fmt.Sprintf("https://%s.com", strings.ToLower(companyName))
}

// Fetch collects metadata from the company's landing page. Failures degrade
// to minimal details rather than aborting the caller's pipeline: the
// analysis can proceed without site metadata.
func (f *DetailsFetcher) Fetch(website string) *Details {
	details := &Details{
		Website:        website,
		SSLCertificate: strings.HasPrefix(website, "https://"),
	}

	c := colly.NewCollector(
		colly.AllowURLRevisit(),
		colly.Async(false),
	)
	c.SetRequestTimeout(f.timeout)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", f.userAgent)
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "en-US,en;q=0.5")
	})

	c.OnError(func(r *colly.Response, err error) {
		slog.Debug("Company site request failed", "url", r.Request.URL, "error", err)
	})

	c.OnHTML("head", func(e *colly.HTMLElement) {
		details.Title = strings.TrimSpace(e.ChildText("title"))
		details.Description = metaContent(e.DOM, `meta[name="description"]`)
		if details.Description == "" {
			details.Description = metaContent(e.DOM, `meta[property="og:description"]`)
		}
		details.SiteName = metaContent(e.DOM, `meta[property="og:site_name"]`)
	})

	if err := c.Visit(website); err != nil {
		slog.Debug("Company details unavailable", "website", website, "error", err)
	}

	return details
}

func metaContent(sel *goquery.Selection, selector string) string {
	content, _ := sel.Find(selector).Attr("content")
	return strings.TrimSpace(content)
}
