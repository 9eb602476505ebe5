package domain

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ProcessedMessage - the idempotency ledger
// =============================================================================

// ProcessedStatus is the terminal state of one message's processing.
type ProcessedStatus string

const (
	ProcessedCompleted ProcessedStatus = "completed"
	ProcessedFailed    ProcessedStatus = "failed"
	ProcessedSkipped   ProcessedStatus = "skipped"
)

// Classification is the category the pipeline settled on for a message.
type Classification string

const (
	ClassLeadNotification Classification = "lead_notification"
	ClassInternal         Classification = "internal"
	ClassCarrier          Classification = "carrier"
	ClassCustomerEmail    Classification = "customer_email"
	ClassNewInquiry       Classification = "new_inquiry"
	ClassMarketing        Classification = "marketing"
	ClassUnknown          Classification = "unknown"
)

// ProcessedMessage is one row of the idempotency ledger, keyed by the
// provider message id (unique constraint). It is written exactly once
// per message, on every terminal branch including failure, and is the
// sole source of truth for "have we seen this message".
type ProcessedMessage struct {
	MessageID       string          `json:"message_id"`
	OrgID           uuid.UUID       `json:"org_id"`
	Status          ProcessedStatus `json:"status"`
	Classification  Classification  `json:"classification"`
	LinkedContactID *uuid.UUID      `json:"linked_contact_id,omitempty"`
	Error           string          `json:"error,omitempty"`
	ProcessedAt     time.Time       `json:"processed_at"`
}
