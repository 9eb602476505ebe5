package out

import (
	"context"

	"github.com/google/uuid"

	"intake_server/core/domain"
)

// ContactRepository is the outbound port for the customer store. All
// lookups are partitioned by organization and assume read-your-writes
// consistency within one organization.
type ContactRepository interface {
	Create(ctx context.Context, contact *domain.Contact) error
	Update(ctx context.Context, contact *domain.Contact) error
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*domain.Contact, error)

	// FindByEmail performs a case-insensitive exact email match.
	FindByEmail(ctx context.Context, orgID uuid.UUID, email string) (*domain.Contact, error)

	// FindByPhoneSuffix matches stored phone numbers whose normalized
	// digits end with the given suffix (last 10 digits).
	FindByPhoneSuffix(ctx context.Context, orgID uuid.UUID, digits string) ([]*domain.Contact, error)

	// FindByName performs a case-insensitive exact first+last name match.
	FindByName(ctx context.Context, orgID uuid.UUID, firstName, lastName string) ([]*domain.Contact, error)

	FindByClaimNumber(ctx context.Context, orgID uuid.UUID, claimNumber string) (*domain.Contact, error)
	FindByPolicyNumber(ctx context.Context, orgID uuid.UUID, policyNumber string) (*domain.Contact, error)

	// ListWithAddresses returns contacts that have at least one known
	// address, for the resolver's address-similarity tier.
	ListWithAddresses(ctx context.Context, orgID uuid.UUID) ([]*domain.Contact, error)

	// CreateNote attaches a timeline note to a contact.
	CreateNote(ctx context.Context, note *domain.ContactNote) error
}
