package domain

import (
	"strings"
	"time"
)

// =============================================================================
// ParsedMessage - canonical shape of one inbound email
// =============================================================================

// EmailAddress is a parsed From header.
type EmailAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Domain returns the part after '@', lower-cased. Empty when the address
// is malformed.
func (a EmailAddress) Domain() string {
	at := strings.LastIndex(a.Email, "@")
	if at < 0 || at == len(a.Email)-1 {
		return ""
	}
	return strings.ToLower(a.Email[at+1:])
}

// ParsedMessage is the normalized form of one inbound email, produced by
// the retriever and read-only for every downstream stage.
type ParsedMessage struct {
	ID         string       `json:"id"` // provider-unique message id
	ThreadID   string       `json:"thread_id,omitempty"`
	From       EmailAddress `json:"from"`
	Subject    string       `json:"subject"`
	BodyText   string       `json:"body_text"`
	Snippet    string       `json:"snippet,omitempty"`
	ReceivedAt time.Time    `json:"received_at"`
}

// SenderEmail returns the sender address lower-cased for comparisons.
func (m *ParsedMessage) SenderEmail() string {
	return strings.ToLower(strings.TrimSpace(m.From.Email))
}
