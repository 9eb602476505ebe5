package extraction

import "regexp"

// Each field is extracted by an ordered list of independent, best-effort
// pattern attempts; no rule invalidates another rule's result.

// Subject handling.
var (
	subjectPrefixPattern = regexp.MustCompile(`(?i)^(?:fwd?|re):\s*`)
	subjectNamePattern   = regexp.MustCompile(`(?i)lead assigned:\s*([A-Za-z'-]+)\s*,\s*([A-Za-z'-]+)`)
)

// Forward-envelope markers. The earliest occurrence wins and everything
// before it is discarded, so the forwarder's own signature never leaks
// into the extracted lead.
var forwardMarkers = []string{
	"begin forwarded message:",
	"---------- forwarded message ---------",
	"customer contact information:",
}

// forwardFromLinePattern matches a quoted From: line naming the source
// system inside a forwarded body.
var forwardFromLinePattern = regexp.MustCompile(`(?im)^\s*>?\s*from:.*acculynx`)

// Name rules.
var (
	contactBlockHeader   = regexp.MustCompile(`(?i)customer contact information:\s*`)
	lastFirstNamePattern = regexp.MustCompile(`^([A-Za-z'-]+)\s*,\s*([A-Za-z'-]+)$`)
	firstLastNamePattern = regexp.MustCompile(`^([A-Za-z'-]+)\s+([A-Za-z'-]+)$`)
	genericNamePattern   = regexp.MustCompile(`(?im)^\s*(?:name|customer):\s*(.+)$`)
)

// Phone rules, tried in order: parenthesized area code, hyphenated, then
// a labeled "Phone:" line.
var phonePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\(\d{3}\)\s*\d{3}[-.\s]?\d{4}`),
	regexp.MustCompile(`\b\d{3}-\d{3}-\d{4}\b`),
	regexp.MustCompile(`(?im)^\s*phone:?\s*([+\d][\d\s().-]{6,})$`),
}

// Email rule. Matches are filtered afterwards against system addresses.
var emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

// Address rules.
var (
	cityStateZipPattern = regexp.MustCompile(`([A-Za-z .'-]+),\s*([A-Z]{2}),?\s+(\d{5})(?:-\d{4})?`)
	addressLinePattern  = regexp.MustCompile(`(?im)^\s*address:\s*(.+)$`)
	streetSuffixPattern = regexp.MustCompile(`(?i)\b(\d+\s+[A-Za-z0-9 .'-]*?\b(?:st|street|ave|avenue|rd|road|dr|drive|ln|lane|blvd|boulevard|way|ct|court|pl|place)\.?)(?:\s|,|$)`)
	bareStatePattern    = regexp.MustCompile(`^[A-Z]{2}\.?$`)
)

// Labeled metadata rules.
var (
	sourcePattern      = regexp.MustCompile(`(?im)^\s*source:\s*(.+)$`)
	jobPriorityPattern = regexp.MustCompile(`(?im)^\s*job priority:\s*(.+)$`)
	leadNotesPattern   = regexp.MustCompile(`(?i)lead notes:\s*`)
)

// notesFooterMarkers terminate the free-text notes block.
var notesFooterMarkers = []string{
	"thank you",
	"this email was sent",
	"unsubscribe",
	"view in browser",
	"all rights reserved",
}
