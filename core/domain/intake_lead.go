package domain

import "strings"

// =============================================================================
// ExtractedLead - structured record pulled out of a lead-notification email
// =============================================================================

// ExtractedLead is produced by the structured extractor for recognized
// lead-notification messages. A lead with no name, no email and no phone
// is invalid and must never leave the extractor.
type ExtractedLead struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Address     string `json:"address,omitempty"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	ZipCode     string `json:"zip_code,omitempty"`
	Source      string `json:"source,omitempty"`
	Notes       string `json:"notes,omitempty"`
	JobPriority string `json:"job_priority,omitempty"`
}

// HasName reports whether any name was extracted. The "Unknown" default
// applied after validation does not count.
func (l *ExtractedLead) HasName() bool {
	return strings.TrimSpace(l.FirstName) != "" || strings.TrimSpace(l.LastName) != ""
}

// HasIdentity reports whether the lead carries at least one identifying
// field. Leads without identity are rejected by the extractor.
func (l *ExtractedLead) HasIdentity() bool {
	return l.HasName() || l.Email != "" || l.Phone != ""
}

// FullName joins first and last name for display.
func (l *ExtractedLead) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(l.FirstName) + " " + strings.TrimSpace(l.LastName))
}
