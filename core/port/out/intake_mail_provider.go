package out

import (
	"context"
	"time"

	"intake_server/core/domain"
)

// MailProvider is the outbound port for the mail retrieval collaborator.
// Implementations own the translation of a time window into provider
// query syntax and the normalization of raw messages into ParsedMessage.
type MailProvider interface {
	// ListMessageIDs returns one page of provider message ids received
	// at or after since, plus the token for the next page ("" when done).
	ListMessageIDs(ctx context.Context, query *MailListQuery) (*MailIDPage, error)

	// GetMessage fetches and normalizes a single message.
	GetMessage(ctx context.Context, messageID string) (*domain.ParsedMessage, error)
}

// MailListQuery selects a window of messages.
type MailListQuery struct {
	Since     time.Time
	PageToken string
	PageSize  int
}

// MailIDPage is one page of the id listing.
type MailIDPage struct {
	IDs           []string
	NextPageToken string
}
