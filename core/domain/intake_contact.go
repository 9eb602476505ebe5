package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Contact - customer/lead record in the customer store
// =============================================================================

// ContactStage tracks where a contact sits in the sales funnel.
type ContactStage string

const (
	StageNewLead    ContactStage = "new_lead"
	StageContacted  ContactStage = "contacted"
	StageEstimating ContactStage = "estimating"
	StageActiveJob  ContactStage = "active_job"
	StageClosed     ContactStage = "closed"
)

// Contact is a customer or prospective-customer record, partitioned by
// organization.
type Contact struct {
	ID           uuid.UUID    `json:"id"`
	OrgID        uuid.UUID    `json:"org_id"`
	FirstName    string       `json:"first_name"`
	LastName     string       `json:"last_name"`
	Email        string       `json:"email,omitempty"`
	Phone        string       `json:"phone,omitempty"`
	Address      string       `json:"address,omitempty"`
	City         string       `json:"city,omitempty"`
	State        string       `json:"state,omitempty"`
	ZipCode      string       `json:"zip_code,omitempty"`
	ClaimNumber  string       `json:"claim_number,omitempty"`
	PolicyNumber string       `json:"policy_number,omitempty"`
	Stage        ContactStage `json:"stage"`
	LeadSource   string       `json:"lead_source,omitempty"`
	JobPriority  string       `json:"job_priority,omitempty"`

	// Every address ever seen for this contact, used by the resolver's
	// address tier.
	KnownAddresses []string `json:"known_addresses,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FullName joins first and last name for display.
func (c *Contact) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName))
}

// MergeBlankFields copies identifying fields from the extracted lead into
// any blank slots on the contact. Existing values always win. Returns
// true when anything changed.
func (c *Contact) MergeBlankFields(lead *ExtractedLead) bool {
	changed := false
	set := func(dst *string, src string) {
		if *dst == "" && src != "" {
			*dst = src
			changed = true
		}
	}
	set(&c.Email, lead.Email)
	set(&c.Phone, lead.Phone)
	set(&c.Address, lead.Address)
	set(&c.City, lead.City)
	set(&c.State, lead.State)
	set(&c.ZipCode, lead.ZipCode)
	set(&c.LeadSource, lead.Source)
	set(&c.JobPriority, lead.JobPriority)
	return changed
}

// ContactNote is a timeline note attached to a contact.
type ContactNote struct {
	ID              uuid.UUID `json:"id"`
	OrgID           uuid.UUID `json:"org_id"`
	ContactID       uuid.UUID `json:"contact_id"`
	Body            string    `json:"body"`
	SourceMessageID string    `json:"source_message_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}
