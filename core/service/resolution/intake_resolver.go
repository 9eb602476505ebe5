// Package resolution matches inbound messages to existing contacts using
// a cascade of confidence-scored tiers.
package resolution

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"intake_server/core/domain"
	"intake_server/core/port/out"
	"intake_server/pkg/logger"
)

// Body-signal patterns for the phone, address, claim and policy tiers.
var (
	bodyPhonePattern    = regexp.MustCompile(`(?:\(\d{3}\)\s*|\b\d{3}[-.])\d{3}[-.\s]?\d{4}\b`)
	bodyAddressPattern  = regexp.MustCompile(`(?i)\b\d+\s+[A-Za-z0-9 .'-]*?\b(?:st|street|ave|avenue|rd|road|dr|drive|ln|lane|blvd|boulevard|way|ct|court|pl|place)\.?\b`)
	claimNumberPattern  = regexp.MustCompile(`(?i)claim\s*(?:number|no\.?|#)?\s*[:#]\s*([A-Za-z0-9][A-Za-z0-9-]{2,})`)
	policyNumberPattern = regexp.MustCompile(`(?i)policy\s*(?:number|no\.?|#)?\s*[:#]\s*([A-Za-z0-9][A-Za-z0-9-]{2,})`)
	insuredNamePattern  = regexp.MustCompile(`(?im)^\s*(?:insured|policyholder)(?:\s+name)?\s*:\s*(.+)$`)
)

// Resolver searches the customer store for matches against a parsed
// message. Tiers run in order; a tier is skipped only when its input
// signal is absent, never because an earlier tier already produced a
// candidate. The exceptions are the definitive short-circuits (exact
// email, claim number, policy number).
type Resolver struct {
	contacts         out.ContactRepository
	addressThreshold float64
}

// NewResolver creates a resolver. A non-positive threshold falls back to
// the default address-similarity cutoff.
func NewResolver(contacts out.ContactRepository, addressThreshold float64) *Resolver {
	if addressThreshold <= 0 {
		addressThreshold = domain.DefaultAddressSimilarityThreshold
	}
	return &Resolver{contacts: contacts, addressThreshold: addressThreshold}
}

// Resolve runs the general four-tier cascade. Candidates come back sorted
// by descending confidence; callers apply their own acceptance threshold.
func (r *Resolver) Resolve(ctx context.Context, orgID uuid.UUID, msg *domain.ParsedMessage) ([]domain.MatchCandidate, error) {
	// Tier 1: exact email. Definitive, nothing else runs.
	if c, err := r.matchEmail(ctx, orgID, msg.SenderEmail()); err != nil {
		return nil, err
	} else if c != nil {
		return []domain.MatchCandidate{*c}, nil
	}

	var candidates []domain.MatchCandidate

	phones, err := r.matchPhone(ctx, orgID, msg.BodyText)
	if err != nil {
		return nil, err
	}
	candidates = append(candidates, phones...)

	names, err := r.matchName(ctx, orgID, msg.From.Name, domain.ConfidenceName)
	if err != nil {
		return nil, err
	}
	candidates = append(candidates, names...)

	addrs, err := r.matchAddress(ctx, orgID, msg.BodyText, domain.AddressConfidenceScale)
	if err != nil {
		return nil, err
	}
	candidates = append(candidates, addrs...)

	domain.SortCandidates(candidates)
	return candidates, nil
}

// ResolveForCarrier additionally tries claim-number and policy-number
// exact lookups first, each near-definitive and short-circuiting, and
// uses the carrier confidences for the name and address tiers.
func (r *Resolver) ResolveForCarrier(ctx context.Context, orgID uuid.UUID, msg *domain.ParsedMessage) ([]domain.MatchCandidate, error) {
	if m := claimNumberPattern.FindStringSubmatch(msg.BodyText); m != nil {
		contact, err := r.contacts.FindByClaimNumber(ctx, orgID, m[1])
		if err != nil {
			return nil, err
		}
		if contact != nil {
			return []domain.MatchCandidate{{ContactID: contact.ID, Confidence: domain.ConfidenceClaimNumber, MatchType: domain.MatchClaim}}, nil
		}
	}

	if m := policyNumberPattern.FindStringSubmatch(msg.BodyText); m != nil {
		contact, err := r.contacts.FindByPolicyNumber(ctx, orgID, m[1])
		if err != nil {
			return nil, err
		}
		if contact != nil {
			return []domain.MatchCandidate{{ContactID: contact.ID, Confidence: domain.ConfidencePolicyNumber, MatchType: domain.MatchPolicy}}, nil
		}
	}

	if c, err := r.matchEmail(ctx, orgID, msg.SenderEmail()); err != nil {
		return nil, err
	} else if c != nil {
		return []domain.MatchCandidate{*c}, nil
	}

	var candidates []domain.MatchCandidate

	phones, err := r.matchPhone(ctx, orgID, msg.BodyText)
	if err != nil {
		return nil, err
	}
	candidates = append(candidates, phones...)

	// Carrier mail names the insured, not the sender; prefer the labeled
	// insured/policyholder line over the adjuster's display name.
	nameSource := msg.From.Name
	if m := insuredNamePattern.FindStringSubmatch(msg.BodyText); m != nil {
		nameSource = strings.TrimSpace(m[1])
	}
	names, err := r.matchName(ctx, orgID, nameSource, domain.ConfidenceCarrierName)
	if err != nil {
		return nil, err
	}
	candidates = append(candidates, names...)

	addrs, err := r.matchAddress(ctx, orgID, msg.BodyText, domain.AddressCarrierConfidenceScale)
	if err != nil {
		return nil, err
	}
	candidates = append(candidates, addrs...)

	domain.SortCandidates(candidates)
	return candidates, nil
}

func (r *Resolver) matchEmail(ctx context.Context, orgID uuid.UUID, email string) (*domain.MatchCandidate, error) {
	if email == "" {
		return nil, nil
	}
	contact, err := r.contacts.FindByEmail(ctx, orgID, email)
	if err != nil {
		return nil, err
	}
	if contact == nil {
		return nil, nil
	}
	return &domain.MatchCandidate{ContactID: contact.ID, Confidence: domain.ConfidenceEmail, MatchType: domain.MatchEmail}, nil
}

// matchPhone compares the last 10 digits of a phone-like token in the
// body against stored numbers.
func (r *Resolver) matchPhone(ctx context.Context, orgID uuid.UUID, body string) ([]domain.MatchCandidate, error) {
	token := bodyPhonePattern.FindString(body)
	if token == "" {
		return nil, nil
	}
	digits := digitsOnly(token)
	if len(digits) > 10 {
		digits = digits[len(digits)-10:]
	}
	if len(digits) < 7 {
		return nil, nil
	}
	contacts, err := r.contacts.FindByPhoneSuffix(ctx, orgID, digits)
	if err != nil {
		return nil, err
	}
	var candidates []domain.MatchCandidate
	for _, c := range contacts {
		candidates = append(candidates, domain.MatchCandidate{ContactID: c.ID, Confidence: domain.ConfidencePhone, MatchType: domain.MatchPhone})
	}
	return candidates, nil
}

// matchName requires a display name of at least two tokens and does a
// case-insensitive exact first+last lookup.
func (r *Resolver) matchName(ctx context.Context, orgID uuid.UUID, displayName string, confidence float64) ([]domain.MatchCandidate, error) {
	tokens := strings.Fields(strings.TrimSpace(displayName))
	if len(tokens) < 2 {
		return nil, nil
	}
	first, last := tokens[0], tokens[len(tokens)-1]
	contacts, err := r.contacts.FindByName(ctx, orgID, first, last)
	if err != nil {
		return nil, err
	}
	var candidates []domain.MatchCandidate
	for _, c := range contacts {
		candidates = append(candidates, domain.MatchCandidate{ContactID: c.ID, Confidence: confidence, MatchType: domain.MatchName})
	}
	return candidates, nil
}

// matchAddress scores a body address fragment against every known
// address of every contact; candidates above the similarity threshold
// are included at similarity scaled by the tier factor.
func (r *Resolver) matchAddress(ctx context.Context, orgID uuid.UUID, body string, scale float64) ([]domain.MatchCandidate, error) {
	fragment := bodyAddressPattern.FindString(body)
	if fragment == "" {
		return nil, nil
	}
	normalized := NormalizeAddress(fragment)
	if normalized == "" {
		return nil, nil
	}

	contacts, err := r.contacts.ListWithAddresses(ctx, orgID)
	if err != nil {
		return nil, err
	}
	var candidates []domain.MatchCandidate
	for _, c := range contacts {
		best := 0.0
		for _, stored := range c.KnownAddresses {
			if sim := AddressSimilarity(normalized, NormalizeAddress(stored)); sim > best {
				best = sim
			}
		}
		if best >= r.addressThreshold {
			candidates = append(candidates, domain.MatchCandidate{ContactID: c.ID, Confidence: best * scale, MatchType: domain.MatchAddress})
		}
	}
	if len(candidates) > 0 {
		logger.Debug("address tier matched %d contact(s) for fragment %q", len(candidates), fragment)
	}
	return candidates, nil
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
