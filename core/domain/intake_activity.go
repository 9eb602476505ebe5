package domain

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ActivityEntry - append-only, human-facing record of automated actions
// =============================================================================

// ActivityType names what the pipeline did with a message.
type ActivityType string

const (
	ActivityLeadCreated       ActivityType = "lead_created"
	ActivityEmailLinked       ActivityType = "email_linked"
	ActivityCarrierEmail      ActivityType = "carrier_email_received"
	ActivityPossibleDuplicate ActivityType = "possible_duplicate"
	ActivityNeedsReview       ActivityType = "needs_review"
	ActivityParseFailed       ActivityType = "could_not_parse"
)

// ActivityEntry is never mutated after creation except to flip IsRead.
type ActivityEntry struct {
	ID              uuid.UUID    `json:"id"`
	OrgID           uuid.UUID    `json:"org_id"`
	Type            ActivityType `json:"type"`
	Title           string       `json:"title"`
	Description     string       `json:"description,omitempty"`
	LinkedContactID *uuid.UUID   `json:"linked_contact_id,omitempty"`
	LinkedMessageID string       `json:"linked_message_id,omitempty"`
	IsRead          bool         `json:"is_read"`
	CreatedAt       time.Time    `json:"created_at"`
}
