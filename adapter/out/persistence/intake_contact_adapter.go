// Package persistence provides PostgreSQL adapters implementing the
// outbound ports.
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"intake_server/core/domain"
)

// ContactAdapter implements out.ContactRepository using PostgreSQL.
type ContactAdapter struct {
	db *sqlx.DB
}

// NewContactAdapter creates a new ContactAdapter.
func NewContactAdapter(db *sqlx.DB) *ContactAdapter {
	return &ContactAdapter{db: db}
}

// contactRow represents the database row for contacts.
type contactRow struct {
	ID             uuid.UUID      `db:"id"`
	OrgID          uuid.UUID      `db:"org_id"`
	FirstName      string         `db:"first_name"`
	LastName       string         `db:"last_name"`
	Email          sql.NullString `db:"email"`
	Phone          sql.NullString `db:"phone"`
	Address        sql.NullString `db:"address"`
	City           sql.NullString `db:"city"`
	State          sql.NullString `db:"state"`
	ZipCode        sql.NullString `db:"zip_code"`
	ClaimNumber    sql.NullString `db:"claim_number"`
	PolicyNumber   sql.NullString `db:"policy_number"`
	Stage          string         `db:"stage"`
	LeadSource     sql.NullString `db:"lead_source"`
	JobPriority    sql.NullString `db:"job_priority"`
	KnownAddresses pq.StringArray `db:"known_addresses"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

func (r *contactRow) toDomain() *domain.Contact {
	c := &domain.Contact{
		ID:             r.ID,
		OrgID:          r.OrgID,
		FirstName:      r.FirstName,
		LastName:       r.LastName,
		Stage:          domain.ContactStage(r.Stage),
		KnownAddresses: r.KnownAddresses,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	if r.Email.Valid {
		c.Email = r.Email.String
	}
	if r.Phone.Valid {
		c.Phone = r.Phone.String
	}
	if r.Address.Valid {
		c.Address = r.Address.String
	}
	if r.City.Valid {
		c.City = r.City.String
	}
	if r.State.Valid {
		c.State = r.State.String
	}
	if r.ZipCode.Valid {
		c.ZipCode = r.ZipCode.String
	}
	if r.ClaimNumber.Valid {
		c.ClaimNumber = r.ClaimNumber.String
	}
	if r.PolicyNumber.Valid {
		c.PolicyNumber = r.PolicyNumber.String
	}
	if r.LeadSource.Valid {
		c.LeadSource = r.LeadSource.String
	}
	if r.JobPriority.Valid {
		c.JobPriority = r.JobPriority.String
	}
	return c
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Create inserts a new contact.
func (a *ContactAdapter) Create(ctx context.Context, contact *domain.Contact) error {
	query := `
		INSERT INTO contacts (id, org_id, first_name, last_name, email, phone,
			address, city, state, zip_code, claim_number, policy_number,
			stage, lead_source, job_priority, known_addresses, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW(), NOW())
	`
	_, err := a.db.ExecContext(ctx, query,
		contact.ID, contact.OrgID, contact.FirstName, contact.LastName,
		nullString(contact.Email), nullString(contact.Phone),
		nullString(contact.Address), nullString(contact.City),
		nullString(contact.State), nullString(contact.ZipCode),
		nullString(contact.ClaimNumber), nullString(contact.PolicyNumber),
		string(contact.Stage), nullString(contact.LeadSource), nullString(contact.JobPriority),
		pq.StringArray(contact.KnownAddresses),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create contact: %w", err)
	}
	return nil
}

// Update rewrites the mutable fields of a contact.
func (a *ContactAdapter) Update(ctx context.Context, contact *domain.Contact) error {
	query := `
		UPDATE contacts
		SET first_name = $3, last_name = $4, email = $5, phone = $6,
			address = $7, city = $8, state = $9, zip_code = $10,
			claim_number = $11, policy_number = $12, stage = $13,
			lead_source = $14, job_priority = $15, known_addresses = $16,
			updated_at = NOW()
		WHERE org_id = $1 AND id = $2
	`
	result, err := a.db.ExecContext(ctx, query,
		contact.OrgID, contact.ID, contact.FirstName, contact.LastName,
		nullString(contact.Email), nullString(contact.Phone),
		nullString(contact.Address), nullString(contact.City),
		nullString(contact.State), nullString(contact.ZipCode),
		nullString(contact.ClaimNumber), nullString(contact.PolicyNumber),
		string(contact.Stage), nullString(contact.LeadSource), nullString(contact.JobPriority),
		pq.StringArray(contact.KnownAddresses),
	)
	if err != nil {
		return fmt.Errorf("failed to update contact: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID fetches one contact.
func (a *ContactAdapter) GetByID(ctx context.Context, orgID, id uuid.UUID) (*domain.Contact, error) {
	var row contactRow
	err := a.db.GetContext(ctx, &row,
		`SELECT * FROM contacts WHERE org_id = $1 AND id = $2`, orgID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	return row.toDomain(), nil
}

// FindByEmail performs a case-insensitive exact email match.
func (a *ContactAdapter) FindByEmail(ctx context.Context, orgID uuid.UUID, email string) (*domain.Contact, error) {
	var row contactRow
	err := a.db.GetContext(ctx, &row,
		`SELECT * FROM contacts WHERE org_id = $1 AND LOWER(email) = LOWER($2) LIMIT 1`, orgID, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find contact by email: %w", err)
	}
	return row.toDomain(), nil
}

// FindByPhoneSuffix matches stored numbers whose digits end with the
// given suffix.
func (a *ContactAdapter) FindByPhoneSuffix(ctx context.Context, orgID uuid.UUID, digits string) ([]*domain.Contact, error) {
	var rows []contactRow
	err := a.db.SelectContext(ctx, &rows,
		`SELECT * FROM contacts
		 WHERE org_id = $1 AND REGEXP_REPLACE(COALESCE(phone, ''), '\D', '', 'g') LIKE '%' || $2`,
		orgID, digits)
	if err != nil {
		return nil, fmt.Errorf("failed to find contacts by phone: %w", err)
	}
	return toDomainContacts(rows), nil
}

// FindByName performs a case-insensitive exact first+last name match.
func (a *ContactAdapter) FindByName(ctx context.Context, orgID uuid.UUID, firstName, lastName string) ([]*domain.Contact, error) {
	var rows []contactRow
	err := a.db.SelectContext(ctx, &rows,
		`SELECT * FROM contacts
		 WHERE org_id = $1 AND LOWER(first_name) = LOWER($2) AND LOWER(last_name) = LOWER($3)`,
		orgID, firstName, lastName)
	if err != nil {
		return nil, fmt.Errorf("failed to find contacts by name: %w", err)
	}
	return toDomainContacts(rows), nil
}

// FindByClaimNumber fetches the contact holding a claim number.
func (a *ContactAdapter) FindByClaimNumber(ctx context.Context, orgID uuid.UUID, claimNumber string) (*domain.Contact, error) {
	return a.findByField(ctx, orgID, "claim_number", claimNumber)
}

// FindByPolicyNumber fetches the contact holding a policy number.
func (a *ContactAdapter) FindByPolicyNumber(ctx context.Context, orgID uuid.UUID, policyNumber string) (*domain.Contact, error) {
	return a.findByField(ctx, orgID, "policy_number", policyNumber)
}

func (a *ContactAdapter) findByField(ctx context.Context, orgID uuid.UUID, column, value string) (*domain.Contact, error) {
	var row contactRow
	query := fmt.Sprintf(`SELECT * FROM contacts WHERE org_id = $1 AND %s = $2 LIMIT 1`, column)
	err := a.db.GetContext(ctx, &row, query, orgID, value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find contact by %s: %w", column, err)
	}
	return row.toDomain(), nil
}

// ListWithAddresses returns contacts with at least one known address.
func (a *ContactAdapter) ListWithAddresses(ctx context.Context, orgID uuid.UUID) ([]*domain.Contact, error) {
	var rows []contactRow
	err := a.db.SelectContext(ctx, &rows,
		`SELECT * FROM contacts
		 WHERE org_id = $1 AND known_addresses IS NOT NULL AND CARDINALITY(known_addresses) > 0`,
		orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts with addresses: %w", err)
	}
	return toDomainContacts(rows), nil
}

// CreateNote attaches a timeline note to a contact.
func (a *ContactAdapter) CreateNote(ctx context.Context, note *domain.ContactNote) error {
	query := `
		INSERT INTO contact_notes (id, org_id, contact_id, body, source_message_id, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`
	_, err := a.db.ExecContext(ctx, query,
		note.ID, note.OrgID, note.ContactID, note.Body, nullString(note.SourceMessageID))
	if err != nil {
		return fmt.Errorf("failed to create contact note: %w", err)
	}
	return nil
}

func toDomainContacts(rows []contactRow) []*domain.Contact {
	contacts := make([]*domain.Contact, 0, len(rows))
	for i := range rows {
		contacts = append(contacts, rows[i].toDomain())
	}
	return contacts
}
