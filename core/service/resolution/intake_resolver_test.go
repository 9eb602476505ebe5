package resolution

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"intake_server/core/domain"
)

// fakeContactRepo is an in-memory ContactRepository that counts lookups
// so short-circuit behavior is observable.
type fakeContactRepo struct {
	contacts []*domain.Contact

	emailCalls   int
	phoneCalls   int
	nameCalls    int
	claimCalls   int
	policyCalls  int
	addressCalls int
}

func (f *fakeContactRepo) Create(ctx context.Context, c *domain.Contact) error {
	f.contacts = append(f.contacts, c)
	return nil
}

func (f *fakeContactRepo) Update(ctx context.Context, c *domain.Contact) error { return nil }

func (f *fakeContactRepo) GetByID(ctx context.Context, orgID, id uuid.UUID) (*domain.Contact, error) {
	for _, c := range f.contacts {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, nil
}

func (f *fakeContactRepo) FindByEmail(ctx context.Context, orgID uuid.UUID, email string) (*domain.Contact, error) {
	f.emailCalls++
	for _, c := range f.contacts {
		if strings.EqualFold(c.Email, email) {
			return c, nil
		}
	}
	return nil, nil
}

func (f *fakeContactRepo) FindByPhoneSuffix(ctx context.Context, orgID uuid.UUID, digits string) ([]*domain.Contact, error) {
	f.phoneCalls++
	var out []*domain.Contact
	for _, c := range f.contacts {
		stored := onlyDigits(c.Phone)
		if stored != "" && strings.HasSuffix(stored, digits) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeContactRepo) FindByName(ctx context.Context, orgID uuid.UUID, firstName, lastName string) ([]*domain.Contact, error) {
	f.nameCalls++
	var out []*domain.Contact
	for _, c := range f.contacts {
		if strings.EqualFold(c.FirstName, firstName) && strings.EqualFold(c.LastName, lastName) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeContactRepo) FindByClaimNumber(ctx context.Context, orgID uuid.UUID, claimNumber string) (*domain.Contact, error) {
	f.claimCalls++
	for _, c := range f.contacts {
		if c.ClaimNumber == claimNumber {
			return c, nil
		}
	}
	return nil, nil
}

func (f *fakeContactRepo) FindByPolicyNumber(ctx context.Context, orgID uuid.UUID, policyNumber string) (*domain.Contact, error) {
	f.policyCalls++
	for _, c := range f.contacts {
		if c.PolicyNumber == policyNumber {
			return c, nil
		}
	}
	return nil, nil
}

func (f *fakeContactRepo) ListWithAddresses(ctx context.Context, orgID uuid.UUID) ([]*domain.Contact, error) {
	f.addressCalls++
	var out []*domain.Contact
	for _, c := range f.contacts {
		if len(c.KnownAddresses) > 0 {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeContactRepo) CreateNote(ctx context.Context, note *domain.ContactNote) error { return nil }

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

var testOrgID = uuid.MustParse("11111111-1111-1111-1111-111111111111")

func contact(first, last, email, phone string) *domain.Contact {
	return &domain.Contact{
		ID:        uuid.New(),
		OrgID:     testOrgID,
		FirstName: first,
		LastName:  last,
		Email:     email,
		Phone:     phone,
	}
}

// TestResolveEmailShortCircuit tests that an exact email match is
// definitive: no other tier runs.
func TestResolveEmailShortCircuit(t *testing.T) {
	jane := contact("Jane", "Smith", "jane.smith@example.com", "(555) 123-4567")
	repo := &fakeContactRepo{contacts: []*domain.Contact{jane}}
	resolver := NewResolver(repo, 0)

	candidates, err := resolver.Resolve(context.Background(), testOrgID, &domain.ParsedMessage{
		From:     domain.EmailAddress{Email: "Jane.Smith@Example.com", Name: "Jane Smith"},
		BodyText: "call me at (555) 123-4567",
	})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(candidates))
	}
	if candidates[0].ContactID != jane.ID || candidates[0].Confidence != domain.ConfidenceEmail || candidates[0].MatchType != domain.MatchEmail {
		t.Errorf("candidate = %+v", candidates[0])
	}
	if repo.phoneCalls != 0 || repo.nameCalls != 0 || repo.addressCalls != 0 {
		t.Errorf("lower tiers ran after an exact email match: phone=%d name=%d address=%d",
			repo.phoneCalls, repo.nameCalls, repo.addressCalls)
	}
}

// TestResolveLowerTiersAccumulate tests that without an email match every
// applicable tier contributes and candidates come back sorted.
func TestResolveLowerTiersAccumulate(t *testing.T) {
	byPhone := contact("Pat", "Lee", "", "(555) 123-4567")
	byName := contact("Jane", "Smith", "", "")
	repo := &fakeContactRepo{contacts: []*domain.Contact{byPhone, byName}}
	resolver := NewResolver(repo, 0)

	candidates, err := resolver.Resolve(context.Background(), testOrgID, &domain.ParsedMessage{
		From:     domain.EmailAddress{Email: "unknown@example.com", Name: "Jane Smith"},
		BodyText: "you can reach me at (555) 123-4567",
	})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("got %d candidates, want 2", len(candidates))
	}
	if candidates[0].MatchType != domain.MatchPhone || candidates[0].ContactID != byPhone.ID {
		t.Errorf("first candidate = %+v, want phone match first", candidates[0])
	}
	if candidates[1].MatchType != domain.MatchName || candidates[1].Confidence != domain.ConfidenceName {
		t.Errorf("second candidate = %+v, want name match at %v", candidates[1], domain.ConfidenceName)
	}
}

func TestResolveAddressTier(t *testing.T) {
	owner := contact("Sam", "Hill", "", "")
	owner.KnownAddresses = []string{"123 Main Street"}
	other := contact("Ada", "Byron", "", "")
	other.KnownAddresses = []string{"987 Elm Road"}
	repo := &fakeContactRepo{contacts: []*domain.Contact{owner, other}}
	resolver := NewResolver(repo, 0.7)

	candidates, err := resolver.Resolve(context.Background(), testOrgID, &domain.ParsedMessage{
		From:     domain.EmailAddress{Email: "tenant@example.com"},
		BodyText: "The property at 123 Main St. has hail damage.",
	})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, want 1: %+v", len(candidates), candidates)
	}
	got := candidates[0]
	if got.ContactID != owner.ID || got.MatchType != domain.MatchAddress {
		t.Errorf("candidate = %+v, want address match on owner", got)
	}
	// Identical normalized addresses: similarity 1.0 scaled by the tier factor.
	if got.Confidence != domain.AddressConfidenceScale {
		t.Errorf("confidence = %v, want %v", got.Confidence, domain.AddressConfidenceScale)
	}
}

// TestResolveForCarrierClaimShortCircuit tests that a claim-number hit
// is near-definitive and skips every lower tier.
func TestResolveForCarrierClaimShortCircuit(t *testing.T) {
	insured := contact("Jane", "Smith", "jane@example.com", "")
	insured.ClaimNumber = "99-1234"
	repo := &fakeContactRepo{contacts: []*domain.Contact{insured}}
	resolver := NewResolver(repo, 0)

	candidates, err := resolver.ResolveForCarrier(context.Background(), testOrgID, &domain.ParsedMessage{
		From:     domain.EmailAddress{Email: "adjuster@statefarm.com", Name: "Pat Adjuster"},
		BodyText: "Regarding Claim #: 99-1234 for your insured.",
	})
	if err != nil {
		t.Fatalf("ResolveForCarrier() error = %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(candidates))
	}
	got := candidates[0]
	if got.ContactID != insured.ID || got.MatchType != domain.MatchClaim || got.Confidence != domain.ConfidenceClaimNumber {
		t.Errorf("candidate = %+v", got)
	}
	if repo.emailCalls != 0 || repo.nameCalls != 0 {
		t.Errorf("lower tiers ran after a claim-number match: email=%d name=%d", repo.emailCalls, repo.nameCalls)
	}
}

// TestResolveForCarrierInsuredName tests that the labeled insured line
// beats the adjuster's display name for the name tier.
func TestResolveForCarrierInsuredName(t *testing.T) {
	insured := contact("Jane", "Smith", "", "")
	repo := &fakeContactRepo{contacts: []*domain.Contact{insured}}
	resolver := NewResolver(repo, 0)

	candidates, err := resolver.ResolveForCarrier(context.Background(), testOrgID, &domain.ParsedMessage{
		From:     domain.EmailAddress{Email: "adjuster@statefarm.com", Name: "Pat Adjuster"},
		BodyText: "Insured: Jane Smith\nWe are reviewing the estimate.",
	})
	if err != nil {
		t.Fatalf("ResolveForCarrier() error = %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, want 1: %+v", len(candidates), candidates)
	}
	got := candidates[0]
	if got.ContactID != insured.ID || got.MatchType != domain.MatchName || got.Confidence != domain.ConfidenceCarrierName {
		t.Errorf("candidate = %+v, want insured-name match at %v", got, domain.ConfidenceCarrierName)
	}
}
