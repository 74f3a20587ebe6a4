package mail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	netmail "net/mail"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/narrisia/email-orchestrator/internal/domain"
)

var (
	ErrTokenExpired      = errors.New("oauth token expired")
	ErrInsufficientScope = errors.New("insufficient permissions")
)

const snippetLimit = 200

// Client fetches unread messages through the Gmail REST API using the
// caller's OAuth access token. It only relays: all parsing beyond header
// and body extraction stays with the analysis pipeline.
type Client struct {
	baseURL    string
	maxResults int
	httpClient *http.Client
}

// New creates a mail client. baseURL is the Gmail API origin; tests point
// it at a local server.
func New(baseURL string, maxResults int, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		maxResults: maxResults,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type listResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

type messageResponse struct {
	ID           string  `json:"id"`
	Snippet      string  `json:"snippet"`
	InternalDate string  `json:"internalDate"`
	Payload      payload `json:"payload"`
}

type payload struct {
	MimeType string `json:"mimeType"`
	Headers  []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"headers"`
	Body struct {
		Data string `json:"data"`
	} `json:"body"`
	Parts []payload `json:"parts"`
}

// FetchUnread lists unread message IDs and fetches each message's headers
// and plain-text body.
func (c *Client) FetchUnread(ctx context.Context, token string) ([]domain.Email, error) {
	listURL := fmt.Sprintf("%s/gmail/v1/users/me/messages?q=is:unread&maxResults=%d", c.baseURL, c.maxResults)

	var list listResponse
	if err := c.get(ctx, listURL, token, &list); err != nil {
		return nil, fmt.Errorf("failed to list unread messages: %w", err)
	}

	emails := make([]domain.Email, 0, len(list.Messages))
	for _, m := range list.Messages {
		msgURL := fmt.Sprintf("%s/gmail/v1/users/me/messages/%s?format=full", c.baseURL, m.ID)

		var msg messageResponse
		if err := c.get(ctx, msgURL, token, &msg); err != nil {
			slog.Error("Failed to fetch message", "id", m.ID, "error", err)
			continue
		}
		emails = append(emails, parseMessage(msg))
	}

	slog.Info("Fetched unread messages", "count", len(emails))
	return emails, nil
}

func (c *Client) get(ctx context.Context, url, token string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return ErrTokenExpired
	case http.StatusForbidden:
		return ErrInsufficientScope
	default:
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func parseMessage(msg messageResponse) domain.Email {
	email := domain.Email{
		ID:      msg.ID,
		Snippet: msg.Snippet,
		Body:    textBody(msg.Payload),
	}
	email.Snippet = truncate(email.Snippet, snippetLimit)

	for _, h := range msg.Payload.Headers {
		switch h.Name {
		case "Subject":
			email.Subject = h.Value
		case "From":
			email.Sender = h.Value
		case "Date":
			if t, err := netmail.ParseDate(h.Value); err == nil {
				email.Date = t
			}
		}
	}
	if email.Sender == "" {
		email.Sender = "Unknown Sender"
	}
	if email.Date.IsZero() {
		if ms, err := strconv.ParseInt(msg.InternalDate, 10, 64); err == nil {
			email.Date = time.UnixMilli(ms)
		} else {
			email.Date = time.Now()
		}
	}
	return email
}

// textBody walks the MIME tree and returns the first text/plain part.
func textBody(p payload) string {
	if strings.HasPrefix(p.MimeType, "text/plain") && p.Body.Data != "" {
		return decodeBody(p.Body.Data)
	}
	for _, part := range p.Parts {
		if body := textBody(part); body != "" {
			return body
		}
	}
	// Single-part messages without an explicit mime type.
	if len(p.Parts) == 0 && p.Body.Data != "" {
		return decodeBody(p.Body.Data)
	}
	return ""
}

func decodeBody(data string) string {
	decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
	if err != nil {
		return ""
	}
	return string(decoded)
}

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
