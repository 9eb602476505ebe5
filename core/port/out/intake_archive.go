package out

import (
	"context"

	"github.com/google/uuid"

	"intake_server/core/domain"
)

// MessageArchive stores full message bodies for messages that failed or
// were flagged for review, so a human can inspect the original text.
// Archiving is best-effort; failures must not fail message processing.
type MessageArchive interface {
	Archive(ctx context.Context, orgID uuid.UUID, msg *domain.ParsedMessage, reason string) error
}
