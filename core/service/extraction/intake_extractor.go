// Package extraction pulls structured lead records out of semi-structured
// lead-notification email bodies, including forwarded ones.
package extraction

import (
	"regexp"
	"strings"

	"intake_server/core/domain"
	"intake_server/pkg/logger"
)

// Extractor turns a lead-notification message into an ExtractedLead.
// Field rules are independent and best-effort; the only hard requirement
// is that at least one of name, email or phone is found.
type Extractor struct{}

// NewExtractor creates an Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract runs every field rule against the message. Returns (nil, false)
// when no identifying field could be found; never a fully blank record.
func (e *Extractor) Extract(msg *domain.ParsedMessage) (*domain.ExtractedLead, bool) {
	body := stripForwardEnvelope(msg.BodyText)
	subject := stripSubjectPrefixes(msg.Subject)

	lead := &domain.ExtractedLead{}

	// Name: subject first, then the contact block, then a generic label.
	lead.FirstName, lead.LastName = nameFromSubject(subject)
	if !lead.HasName() {
		lead.FirstName, lead.LastName = nameFromContactBlock(body)
	}

	lead.Phone = extractPhone(body)
	lead.Email = extractEmail(body, msg.SenderEmail())
	lead.City, lead.State, lead.ZipCode = extractCityStateZip(body)
	lead.Address = extractStreetAddress(body)
	lead.Source = firstSubmatch(sourcePattern, body)
	lead.JobPriority = firstSubmatch(jobPriorityPattern, body)
	lead.Notes = extractNotes(body)

	if !lead.HasName() {
		lead.FirstName, lead.LastName = nameFromGenericLabel(body)
	}

	if !lead.HasIdentity() {
		logger.Debug("extraction rejected: no name, email or phone in message %s", msg.ID)
		return nil, false
	}
	if !lead.HasName() {
		lead.FirstName, lead.LastName = "Unknown", ""
	}
	return lead, true
}

// stripForwardEnvelope discards everything before the earliest forward
// marker so a human forwarder's signature is never parsed as lead data.
func stripForwardEnvelope(body string) string {
	lower := strings.ToLower(body)
	earliest := -1
	for _, marker := range forwardMarkers {
		if idx := strings.Index(lower, marker); idx >= 0 && (earliest < 0 || idx < earliest) {
			earliest = idx
		}
	}
	if loc := forwardFromLinePattern.FindStringIndex(body); loc != nil && (earliest < 0 || loc[0] < earliest) {
		earliest = loc[0]
	}
	if earliest < 0 {
		return body
	}
	return body[earliest:]
}

// stripSubjectPrefixes removes stacked Fwd:/Fw:/Re: prefixes.
func stripSubjectPrefixes(subject string) string {
	s := strings.TrimSpace(subject)
	for {
		stripped := subjectPrefixPattern.ReplaceAllString(s, "")
		if stripped == s {
			return s
		}
		s = strings.TrimSpace(stripped)
	}
}

func nameFromSubject(subject string) (first, last string) {
	if m := subjectNamePattern.FindStringSubmatch(subject); m != nil {
		return m[2], m[1]
	}
	return "", ""
}

// nameFromContactBlock scans the lines after "Customer contact
// information:" for the first one that parses as a name, handling both
// "Last, First" and "First Last" orderings.
func nameFromContactBlock(body string) (first, last string) {
	loc := contactBlockHeader.FindStringIndex(body)
	if loc == nil {
		return "", ""
	}
	for _, line := range strings.Split(body[loc[1]:], "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		// Stop scanning once the block turns into contact details.
		if emailPattern.MatchString(line) || phonePatterns[0].MatchString(line) || phonePatterns[1].MatchString(line) {
			return "", ""
		}
		if m := lastFirstNamePattern.FindStringSubmatch(line); m != nil {
			return m[2], m[1]
		}
		if m := firstLastNamePattern.FindStringSubmatch(line); m != nil {
			return m[1], m[2]
		}
		return "", ""
	}
	return "", ""
}

func nameFromGenericLabel(body string) (first, last string) {
	m := genericNamePattern.FindStringSubmatch(body)
	if m == nil {
		return "", ""
	}
	return splitName(strings.TrimSpace(m[1]))
}

func splitName(full string) (first, last string) {
	if m := lastFirstNamePattern.FindStringSubmatch(full); m != nil {
		return m[2], m[1]
	}
	tokens := strings.Fields(full)
	switch len(tokens) {
	case 0:
		return "", ""
	case 1:
		return tokens[0], ""
	default:
		return tokens[0], tokens[len(tokens)-1]
	}
}

func extractPhone(body string) string {
	for i, pattern := range phonePatterns {
		m := pattern.FindStringSubmatch(body)
		if m == nil {
			continue
		}
		raw := m[0]
		if i == 2 {
			raw = m[1] // labeled rule captures the number after "Phone:"
		}
		return normalizePhone(raw)
	}
	return ""
}

// normalizePhone formats clean 10-digit numbers as (XXX) XXX-XXXX and
// returns anything else trimmed as-is.
func normalizePhone(raw string) string {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if len(d) == 11 && d[0] == '1' {
		d = d[1:]
	}
	if len(d) == 10 {
		return "(" + d[0:3] + ") " + d[3:6] + "-" + d[6:10]
	}
	return strings.TrimSpace(raw)
}

// extractEmail returns the first address that is not a system address:
// source-system domain, noreply variants, and the message sender are all
// skipped so a notification's own plumbing is never captured.
func extractEmail(body, senderEmail string) string {
	for _, match := range emailPattern.FindAllString(body, -1) {
		candidate := strings.ToLower(match)
		if strings.Contains(candidate, sourceSystemDomainFragment) {
			continue
		}
		if strings.Contains(candidate, "noreply") || strings.Contains(candidate, "no-reply") || strings.Contains(candidate, "do-not-reply") {
			continue
		}
		if candidate == senderEmail {
			continue
		}
		return match
	}
	return ""
}

const sourceSystemDomainFragment = "acculynx"

func extractCityStateZip(body string) (city, state, zip string) {
	m := cityStateZipPattern.FindStringSubmatch(body)
	if m == nil {
		return "", "", ""
	}
	return strings.TrimSpace(m[1]), m[2], m[3]
}

// extractStreetAddress tries an explicit "Address:" label, then the
// street-suffix heuristic. Fragments of five characters or fewer and
// bare state codes are noise, not addresses.
func extractStreetAddress(body string) string {
	if m := addressLinePattern.FindStringSubmatch(body); m != nil {
		if addr := cleanAddressFragment(m[1]); addr != "" {
			return addr
		}
	}
	if m := streetSuffixPattern.FindStringSubmatch(body); m != nil {
		return cleanAddressFragment(m[1])
	}
	return ""
}

func cleanAddressFragment(fragment string) string {
	addr := strings.TrimSpace(strings.Trim(fragment, ",. "))
	if len(addr) <= 5 {
		return ""
	}
	if bareStatePattern.MatchString(addr) {
		return ""
	}
	return addr
}

func firstSubmatch(pattern *regexp.Regexp, body string) string {
	if m := pattern.FindStringSubmatch(body); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// extractNotes returns everything after "Lead Notes:" up to the first
// blank line or known footer marker.
func extractNotes(body string) string {
	loc := leadNotesPattern.FindStringIndex(body)
	if loc == nil {
		return ""
	}
	rest := body[loc[1]:]
	var lines []string
	for _, line := range strings.Split(rest, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			break
		}
		lowered := strings.ToLower(trimmed)
		stop := false
		for _, marker := range notesFooterMarkers {
			if strings.HasPrefix(lowered, marker) {
				stop = true
				break
			}
		}
		if stop {
			break
		}
		lines = append(lines, trimmed)
	}
	return strings.Join(lines, "\n")
}
