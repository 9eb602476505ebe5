package resolution

import (
	"strings"
)

// Street-type abbreviations expanded during normalization so that
// "123 Main St." and "123 Main Street" compare equal.
var streetAbbreviations = map[string]string{
	"st":   "street",
	"ave":  "avenue",
	"av":   "avenue",
	"rd":   "road",
	"dr":   "drive",
	"ln":   "lane",
	"blvd": "boulevard",
	"ct":   "court",
	"pl":   "place",
	"hwy":  "highway",
	"pkwy": "parkway",
	"cir":  "circle",
	"ter":  "terrace",
	"apt":  "apartment",
	"ste":  "suite",
	"n":    "north",
	"s":    "south",
	"e":    "east",
	"w":    "west",
}

// NormalizeAddress lower-cases, strips punctuation, expands street
// abbreviations and collapses whitespace.
func NormalizeAddress(addr string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(addr) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	tokens := strings.Fields(b.String())
	for i, tok := range tokens {
		if full, ok := streetAbbreviations[tok]; ok {
			tokens[i] = full
		}
	}
	return strings.Join(tokens, " ")
}

// AddressSimilarity scores two already-normalized addresses as
// |shared tokens| / max(|tokens a|, |tokens b|). Identical normalized
// addresses score 1.0; either side empty scores 0.
func AddressSimilarity(a, b string) float64 {
	tokensA := strings.Fields(a)
	tokensB := strings.Fields(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}
	setA := make(map[string]struct{}, len(tokensA))
	for _, tok := range tokensA {
		setA[tok] = struct{}{}
	}
	shared := 0
	seen := make(map[string]struct{}, len(tokensB))
	for _, tok := range tokensB {
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		if _, ok := setA[tok]; ok {
			shared++
		}
	}
	max := len(setA)
	if len(seen) > max {
		max = len(seen)
	}
	return float64(shared) / float64(max)
}
