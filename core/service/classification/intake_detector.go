// Package classification implements the deterministic pre-classifiers
// that run before extraction, resolution and the AI fallback.
package classification

import (
	"regexp"
	"strings"

	"intake_server/core/domain"
)

// Kind is the pre-classification outcome for a message.
type Kind string

const (
	KindLeadNotification Kind = "lead_notification"
	KindInternal         Kind = "internal"
	KindCarrier          Kind = "carrier"
	KindUnclassified     Kind = "unclassified"
)

// sourceSystemName identifies the lead source system. Forwarded
// notifications keep this name in the origin address and body.
const sourceSystemName = "acculynx"

// leadSubjectPattern matches "Lead Assigned:" subjects, with any stack of
// Fwd:/Fw:/Re: prefixes.
var leadSubjectPattern = regexp.MustCompile(`(?i)^(?:(?:fwd?|re):\s*)*lead assigned:`)

// leadBodyPhrases are fixed indicators of a lead-notification body.
var leadBodyPhrases = []string{
	"new lead notification",
	"customer contact information:",
	"you have been assigned as the primary owner",
	"a new lead has been assigned to you",
	"lead details below",
}

// internalSenderPatterns match known no-reply/system sender addresses.
var internalSenderPatterns = []string{
	"noreply@",
	"no-reply@",
	"donotreply@",
	"do-not-reply@",
	"mailer-daemon@",
	"postmaster@",
	"bounce@",
	"bounces@",
}

// Detector runs the three pre-classification predicates in fixed priority
// order. Lead-notification detection always wins: a forwarded lead
// notification arrives from the user's own address and must not be
// dropped as internal mail.
type Detector struct {
	carrierDomains map[string]struct{}
}

// DefaultCarrierDomains lists known insurance-carrier sender domains.
var DefaultCarrierDomains = []string{
	"statefarm.com",
	"allstate.com",
	"geico.com",
	"progressive.com",
	"libertymutual.com",
	"farmersinsurance.com",
	"nationwide.com",
	"usaa.com",
	"travelers.com",
	"amfam.com",
	"thehartford.com",
	"erieinsurance.com",
	"safeco.com",
	"chubb.com",
}

// NewDetector creates a detector with the default carrier-domain list.
func NewDetector() *Detector {
	return NewDetectorWithCarriers(DefaultCarrierDomains)
}

// NewDetectorWithCarriers creates a detector with a custom carrier list.
func NewDetectorWithCarriers(carriers []string) *Detector {
	domains := make(map[string]struct{}, len(carriers))
	for _, d := range carriers {
		domains[strings.ToLower(d)] = struct{}{}
	}
	return &Detector{carrierDomains: domains}
}

// Detect classifies a message through the fixed-priority predicates.
func (d *Detector) Detect(msg *domain.ParsedMessage) Kind {
	if d.IsLeadNotification(msg) {
		return KindLeadNotification
	}
	if d.IsInternalSender(msg) {
		return KindInternal
	}
	if d.IsCarrierSender(msg) {
		return KindCarrier
	}
	return KindUnclassified
}

// IsLeadNotification reports whether the message is a lead notification:
// a "Lead Assigned:" subject (any Fwd:/Fw:/Re: prefixes), a sender domain
// naming the source system, or one of the fixed body phrases.
func (d *Detector) IsLeadNotification(msg *domain.ParsedMessage) bool {
	if leadSubjectPattern.MatchString(strings.TrimSpace(msg.Subject)) {
		return true
	}
	if strings.Contains(msg.From.Domain(), sourceSystemName) {
		return true
	}
	body := strings.ToLower(msg.BodyText)
	for _, phrase := range leadBodyPhrases {
		if strings.Contains(body, phrase) {
			return true
		}
	}
	return false
}

// IsInternalSender reports whether the sender is a known no-reply/system
// address. Only meaningful when IsLeadNotification returned false.
func (d *Detector) IsInternalSender(msg *domain.ParsedMessage) bool {
	sender := msg.SenderEmail()
	for _, pattern := range internalSenderPatterns {
		if strings.HasPrefix(sender, pattern) {
			return true
		}
	}
	return false
}

// IsCarrierSender reports whether the sender domain belongs to a known
// insurance carrier, either exactly or as a subdomain.
func (d *Detector) IsCarrierSender(msg *domain.ParsedMessage) bool {
	senderDomain := msg.From.Domain()
	if senderDomain == "" {
		return false
	}
	if _, ok := d.carrierDomains[senderDomain]; ok {
		return true
	}
	for carrier := range d.carrierDomains {
		if strings.HasSuffix(senderDomain, "."+carrier) {
			return true
		}
	}
	return false
}
