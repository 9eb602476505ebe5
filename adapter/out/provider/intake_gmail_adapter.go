// Package provider implements mail provider adapters.
package provider

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"intake_server/core/domain"
	"intake_server/core/port/out"
	"intake_server/pkg/apperr"
	"intake_server/pkg/logger"
)

// GmailConfig holds OAuth credentials for the Gmail adapter.
type GmailConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	Timeout      time.Duration
}

// GmailAdapter implements out.MailProvider against the Gmail API, with a
// circuit breaker so a flapping API degrades to per-message failures
// instead of hammering the provider.
type GmailAdapter struct {
	service *gmail.Service
	cb      *gobreaker.CircuitBreaker
	timeout time.Duration
}

// NewGmailAdapter creates a Gmail adapter from a refresh token.
func NewGmailAdapter(ctx context.Context, cfg GmailConfig) (*GmailAdapter, error) {
	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gmail.GmailReadonlyScope},
	}
	token := &oauth2.Token{RefreshToken: cfg.RefreshToken}
	client := oauthCfg.Client(ctx, token)

	service, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	cbSettings := gobreaker.Settings{
		Name:        "gmail",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker %s: %s -> %s", name, from, to)
		},
	}

	return &GmailAdapter{
		service: service,
		cb:      gobreaker.NewCircuitBreaker(cbSettings),
		timeout: timeout,
	}, nil
}

// ListMessageIDs returns one page of message ids received since the
// query boundary. The time window is translated to Gmail query syntax
// here; callers never see provider-specific queries.
func (a *GmailAdapter) ListMessageIDs(ctx context.Context, query *out.MailListQuery) (*out.MailIDPage, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	req := a.service.Users.Messages.List("me").Q(buildQuery(query.Since))
	if query.PageToken != "" {
		req = req.PageToken(query.PageToken)
	}
	if query.PageSize > 0 {
		req = req.MaxResults(int64(query.PageSize))
	}

	result, err := a.cb.Execute(func() (interface{}, error) {
		return req.Context(ctx).Do()
	})
	if err != nil {
		return nil, apperr.Provider(err, "failed to list messages")
	}
	resp := result.(*gmail.ListMessagesResponse)

	ids := make([]string, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		ids = append(ids, m.Id)
	}
	return &out.MailIDPage{IDs: ids, NextPageToken: resp.NextPageToken}, nil
}

// GetMessage fetches and normalizes a single message.
func (a *GmailAdapter) GetMessage(ctx context.Context, messageID string) (*domain.ParsedMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	result, err := a.cb.Execute(func() (interface{}, error) {
		return a.service.Users.Messages.Get("me", messageID).
			Format("full").
			Context(ctx).
			Do()
	})
	if err != nil {
		return nil, apperr.Provider(err, "failed to get message "+messageID)
	}

	return parseMessage(result.(*gmail.Message)), nil
}

// buildQuery translates a time boundary into Gmail search syntax.
// Gmail's after: operator has second resolution and is inclusive.
func buildQuery(since time.Time) string {
	return fmt.Sprintf("after:%d", since.Unix())
}

// parseMessage normalizes a raw Gmail message into the canonical shape.
func parseMessage(msg *gmail.Message) *domain.ParsedMessage {
	pm := &domain.ParsedMessage{
		ID:         msg.Id,
		ThreadID:   msg.ThreadId,
		Snippet:    msg.Snippet,
		ReceivedAt: time.Unix(msg.InternalDate/1000, 0),
	}

	if msg.Payload != nil {
		for _, header := range msg.Payload.Headers {
			switch header.Name {
			case "From":
				pm.From = parseFrom(header.Value)
			case "Subject":
				pm.Subject = header.Value
			}
		}
		pm.BodyText = parseBodyText(msg.Payload)
	}

	// Snippet is all Gmail gives for some bodiless notifications.
	if pm.BodyText == "" {
		pm.BodyText = msg.Snippet
	}
	return pm
}

func parseFrom(value string) domain.EmailAddress {
	addr, err := mail.ParseAddress(value)
	if err != nil {
		return domain.EmailAddress{Email: strings.TrimSpace(value)}
	}
	return domain.EmailAddress{Email: addr.Address, Name: addr.Name}
}

// parseBodyText walks the MIME tree for the first text/plain part,
// falling back to stripped-down text/html.
func parseBodyText(payload *gmail.MessagePart) string {
	if payload == nil {
		return ""
	}

	if payload.MimeType == "text/plain" && payload.Body != nil && payload.Body.Data != "" {
		data, err := base64.URLEncoding.DecodeString(payload.Body.Data)
		if err == nil {
			return string(data)
		}
	}

	for _, part := range payload.Parts {
		if text := parseBodyText(part); text != "" {
			return text
		}
	}

	if payload.MimeType == "text/html" && payload.Body != nil && payload.Body.Data != "" {
		data, err := base64.URLEncoding.DecodeString(payload.Body.Data)
		if err == nil {
			return stripHTML(string(data))
		}
	}
	return ""
}

// stripHTML is a crude tag stripper, enough for regex extraction over
// HTML-only notification bodies.
func stripHTML(html string) string {
	var b strings.Builder
	inTag := false
	for _, r := range html {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			b.WriteRune('\n')
		case !inTag:
			b.WriteRune(r)
		}
	}
	text := b.String()
	text = strings.ReplaceAll(text, "&nbsp;", " ")
	text = strings.ReplaceAll(text, "&amp;", "&")
	lines := strings.Split(text, "\n")
	var cleaned []string
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return strings.Join(cleaned, "\n")
}
