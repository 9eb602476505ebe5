package domain

import (
	"sort"

	"github.com/google/uuid"
)

// =============================================================================
// MatchCandidate - confidence-scored resolver output
// =============================================================================

// MatchType names the resolver tier that produced a candidate.
type MatchType string

const (
	MatchEmail   MatchType = "email"
	MatchPhone   MatchType = "phone"
	MatchName    MatchType = "name"
	MatchAddress MatchType = "address"
	MatchClaim   MatchType = "claim"
	MatchPolicy  MatchType = "policy"
)

// Tier confidences. The address threshold is configurable (see config);
// these are the scores each tier assigns on a hit.
const (
	ConfidenceEmail        = 1.0
	ConfidenceClaimNumber  = 0.95
	ConfidencePolicyNumber = 0.9
	ConfidencePhone        = 0.9
	ConfidenceName         = 0.7
	ConfidenceCarrierName  = 0.75

	// Address-tier similarity is scaled before becoming a confidence.
	AddressConfidenceScale        = 0.8
	AddressCarrierConfidenceScale = 0.85

	// DefaultAddressSimilarityThreshold is heuristic, not validated
	// against labeled data; keep it configurable.
	DefaultAddressSimilarityThreshold = 0.7

	// DefaultAcceptThreshold is the orchestrator's acceptance bar for
	// resolver candidates.
	DefaultAcceptThreshold = 0.7
)

// MatchCandidate is one possible contact for a message, with a [0,1]
// confidence. Not a calibrated probability.
type MatchCandidate struct {
	ContactID  uuid.UUID `json:"contact_id"`
	Confidence float64   `json:"confidence"`
	MatchType  MatchType `json:"match_type"`
}

// SortCandidates orders candidates by descending confidence in place.
func SortCandidates(candidates []MatchCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})
}

// BestCandidate returns the highest-confidence candidate at or above the
// threshold, or nil.
func BestCandidate(candidates []MatchCandidate, threshold float64) *MatchCandidate {
	best := -1
	for i := range candidates {
		if candidates[i].Confidence < threshold {
			continue
		}
		if best < 0 || candidates[i].Confidence > candidates[best].Confidence {
			best = i
		}
	}
	if best < 0 {
		return nil
	}
	return &candidates[best]
}
