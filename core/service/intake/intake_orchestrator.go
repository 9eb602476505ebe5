// Package intake orchestrates per-message processing: pre-classification,
// extraction, contact resolution, AI fallback, side effects, ledger and
// activity-log writes.
package intake

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"intake_server/core/domain"
	"intake_server/core/port/out"
	"intake_server/core/service/classification"
	"intake_server/core/service/extraction"
	"intake_server/core/service/resolution"
	"intake_server/pkg/logger"
)

// Outcome summarizes one message's terminal state for run statistics.
type Outcome int

const (
	OutcomeProcessed Outcome = iota
	OutcomeSkipped
	OutcomeFailed
	OutcomeAlreadySeen
)

// Orchestrator runs the per-message state machine. Every terminal branch
// writes exactly one ledger row before returning, and one bad message
// never aborts the batch: errors and panics are contained at the
// per-message boundary.
type Orchestrator struct {
	detector   *classification.Detector
	extractor  *extraction.Extractor
	resolver   *resolution.Resolver
	classifier out.TextClassifier
	contacts   out.ContactRepository
	ledger     out.LedgerRepository
	activities out.ActivityRepository
	archive    out.MessageArchive // optional

	acceptThreshold float64
}

// OrchestratorDeps holds dependencies for creating an Orchestrator.
type OrchestratorDeps struct {
	Detector   *classification.Detector
	Extractor  *extraction.Extractor
	Resolver   *resolution.Resolver
	Classifier out.TextClassifier
	Contacts   out.ContactRepository
	Ledger     out.LedgerRepository
	Activities out.ActivityRepository
	Archive    out.MessageArchive
}

// NewOrchestrator creates an orchestrator. A non-positive threshold falls
// back to the default acceptance bar.
func NewOrchestrator(deps OrchestratorDeps, acceptThreshold float64) *Orchestrator {
	if acceptThreshold <= 0 {
		acceptThreshold = domain.DefaultAcceptThreshold
	}
	return &Orchestrator{
		detector:        deps.Detector,
		extractor:       deps.Extractor,
		resolver:        deps.Resolver,
		classifier:      deps.Classifier,
		contacts:        deps.Contacts,
		ledger:          deps.Ledger,
		activities:      deps.Activities,
		archive:         deps.Archive,
		acceptThreshold: acceptThreshold,
	}
}

// ProcessMessage runs the full state machine for one message.
func (o *Orchestrator) ProcessMessage(ctx context.Context, orgID uuid.UUID, msg *domain.ParsedMessage) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic processing message %s: %v", msg.ID, r)
			o.recordFailure(ctx, orgID, msg, domain.ClassUnknown, fmt.Errorf("panic: %v", r))
			outcome = OutcomeFailed
		}
	}()

	// Idempotency gate: a ledger row means this message is done, no
	// matter which run wrote it.
	existing, err := o.ledger.GetByMessageID(ctx, msg.ID)
	if err != nil {
		logger.Error("ledger lookup failed for message %s: %v", msg.ID, err)
		return OutcomeFailed
	}
	if existing != nil {
		return OutcomeAlreadySeen
	}

	outcome, err = o.process(ctx, orgID, msg)
	if err != nil {
		logger.Error("processing message %s failed: %v", msg.ID, err)
		o.recordFailure(ctx, orgID, msg, classificationFor(o.detector.Detect(msg)), err)
		return OutcomeFailed
	}
	return outcome
}

func (o *Orchestrator) process(ctx context.Context, orgID uuid.UUID, msg *domain.ParsedMessage) (Outcome, error) {
	switch o.detector.Detect(msg) {
	case classification.KindLeadNotification:
		return o.processLeadNotification(ctx, orgID, msg)
	case classification.KindInternal:
		return OutcomeSkipped, o.writeLedger(ctx, &domain.ProcessedMessage{
			MessageID:      msg.ID,
			OrgID:          orgID,
			Status:         domain.ProcessedSkipped,
			Classification: domain.ClassInternal,
		})
	case classification.KindCarrier:
		return o.processCarrier(ctx, orgID, msg)
	default:
		return o.processUnclassified(ctx, orgID, msg)
	}
}

// processLeadNotification extracts a structured lead, deduplicates it
// against the customer store and performs the matching side effect.
func (o *Orchestrator) processLeadNotification(ctx context.Context, orgID uuid.UUID, msg *domain.ParsedMessage) (Outcome, error) {
	lead, ok := o.extractor.Extract(msg)
	if !ok {
		o.archiveForReview(ctx, orgID, msg, "extraction failed")
		if err := o.writeLedger(ctx, &domain.ProcessedMessage{
			MessageID:      msg.ID,
			OrgID:          orgID,
			Status:         domain.ProcessedFailed,
			Classification: domain.ClassLeadNotification,
			Error:          "no identifying fields extracted",
		}); err != nil {
			return OutcomeFailed, err
		}
		o.logActivity(ctx, &domain.ActivityEntry{
			OrgID:           orgID,
			Type:            domain.ActivityParseFailed,
			Title:           "Could not parse lead notification",
			Description:     fmt.Sprintf("Subject: %s", msg.Subject),
			LinkedMessageID: msg.ID,
		})
		return OutcomeFailed, nil
	}

	// Three-tier duplicate check: exact email, phone suffix, exact name.
	match, matchType, err := o.findDuplicate(ctx, orgID, lead)
	if err != nil {
		return OutcomeFailed, err
	}

	switch {
	case match != nil && (matchType == domain.MatchEmail || matchType == domain.MatchPhone):
		if err := o.attachNote(ctx, orgID, match.ID, msg); err != nil {
			return OutcomeFailed, err
		}
		if err := o.completeLinked(ctx, orgID, msg, domain.ClassLeadNotification, match.ID); err != nil {
			return OutcomeFailed, err
		}
		o.logActivity(ctx, &domain.ActivityEntry{
			OrgID:           orgID,
			Type:            domain.ActivityEmailLinked,
			Title:           fmt.Sprintf("Lead email linked to %s", match.FullName()),
			LinkedContactID: &match.ID,
			LinkedMessageID: msg.ID,
		})
		return OutcomeProcessed, nil

	case match != nil: // name-only match: likely the same person, fill in blanks
		if match.MergeBlankFields(lead) {
			if err := o.contacts.Update(ctx, match); err != nil {
				return OutcomeFailed, err
			}
		}
		if err := o.completeLinked(ctx, orgID, msg, domain.ClassLeadNotification, match.ID); err != nil {
			return OutcomeFailed, err
		}
		o.logActivity(ctx, &domain.ActivityEntry{
			OrgID:           orgID,
			Type:            domain.ActivityPossibleDuplicate,
			Title:           fmt.Sprintf("Possible duplicate lead: %s", match.FullName()),
			Description:     "A new lead notification matched an existing contact by name only",
			LinkedContactID: &match.ID,
			LinkedMessageID: msg.ID,
		})
		return OutcomeProcessed, nil

	default:
		contact, err := o.createLeadContact(ctx, orgID, lead, msg)
		if err != nil {
			return OutcomeFailed, err
		}
		if err := o.completeLinked(ctx, orgID, msg, domain.ClassLeadNotification, contact.ID); err != nil {
			return OutcomeFailed, err
		}
		o.logActivity(ctx, &domain.ActivityEntry{
			OrgID:           orgID,
			Type:            domain.ActivityLeadCreated,
			Title:           fmt.Sprintf("New lead created: %s", contact.FullName()),
			Description:     describeLead(lead),
			LinkedContactID: &contact.ID,
			LinkedMessageID: msg.ID,
		})
		return OutcomeProcessed, nil
	}
}

func (o *Orchestrator) processCarrier(ctx context.Context, orgID uuid.UUID, msg *domain.ParsedMessage) (Outcome, error) {
	candidates, err := o.resolver.ResolveForCarrier(ctx, orgID, msg)
	if err != nil {
		return OutcomeFailed, err
	}
	if best := domain.BestCandidate(candidates, o.acceptThreshold); best != nil {
		if err := o.attachNote(ctx, orgID, best.ContactID, msg); err != nil {
			return OutcomeFailed, err
		}
		if err := o.completeLinked(ctx, orgID, msg, domain.ClassCarrier, best.ContactID); err != nil {
			return OutcomeFailed, err
		}
		o.logActivity(ctx, &domain.ActivityEntry{
			OrgID:           orgID,
			Type:            domain.ActivityCarrierEmail,
			Title:           "Carrier email received",
			Description:     fmt.Sprintf("Matched by %s (confidence %.2f)", best.MatchType, best.Confidence),
			LinkedContactID: &best.ContactID,
			LinkedMessageID: msg.ID,
		})
		return OutcomeProcessed, nil
	}

	o.archiveForReview(ctx, orgID, msg, "carrier email with no confident match")
	if err := o.writeLedger(ctx, &domain.ProcessedMessage{
		MessageID:      msg.ID,
		OrgID:          orgID,
		Status:         domain.ProcessedCompleted,
		Classification: domain.ClassCarrier,
	}); err != nil {
		return OutcomeFailed, err
	}
	o.logActivity(ctx, &domain.ActivityEntry{
		OrgID:           orgID,
		Type:            domain.ActivityNeedsReview,
		Title:           "Carrier email needs review",
		Description:     fmt.Sprintf("From %s: %s", msg.From.Email, msg.Subject),
		LinkedMessageID: msg.ID,
	})
	return OutcomeProcessed, nil
}

func (o *Orchestrator) processUnclassified(ctx context.Context, orgID uuid.UUID, msg *domain.ParsedMessage) (Outcome, error) {
	candidates, err := o.resolver.Resolve(ctx, orgID, msg)
	if err != nil {
		return OutcomeFailed, err
	}
	if best := domain.BestCandidate(candidates, o.acceptThreshold); best != nil {
		if err := o.attachNote(ctx, orgID, best.ContactID, msg); err != nil {
			return OutcomeFailed, err
		}
		if err := o.completeLinked(ctx, orgID, msg, domain.ClassCustomerEmail, best.ContactID); err != nil {
			return OutcomeFailed, err
		}
		o.logActivity(ctx, &domain.ActivityEntry{
			OrgID:           orgID,
			Type:            domain.ActivityEmailLinked,
			Title:           fmt.Sprintf("Email linked: %s", msg.Subject),
			Description:     fmt.Sprintf("Matched by %s (confidence %.2f)", best.MatchType, best.Confidence),
			LinkedContactID: &best.ContactID,
			LinkedMessageID: msg.ID,
		})
		return OutcomeProcessed, nil
	}

	return o.processWithAI(ctx, orgID, msg)
}

// processWithAI is the last resort: one blocking call to the external
// classifier, degrading to needs-review on anything but a clean label.
func (o *Orchestrator) processWithAI(ctx context.Context, orgID uuid.UUID, msg *domain.ParsedMessage) (Outcome, error) {
	label, err := o.classifier.Classify(ctx, &out.ClassifyInput{
		From:    msg.From.Email,
		Subject: msg.Subject,
		Body:    msg.BodyText,
	})
	if err != nil {
		label = out.LabelUnknown
	}

	switch label {
	case out.LabelNewInquiry:
		first, last := splitDisplayName(msg.From.Name)
		contact := &domain.Contact{
			ID:        uuid.New(),
			OrgID:     orgID,
			FirstName: first,
			LastName:  last,
			Email:     msg.SenderEmail(),
			Stage:     domain.StageNewLead,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		if err := o.contacts.Create(ctx, contact); err != nil {
			return OutcomeFailed, err
		}
		if err := o.attachNote(ctx, orgID, contact.ID, msg); err != nil {
			return OutcomeFailed, err
		}
		if err := o.completeLinked(ctx, orgID, msg, domain.ClassNewInquiry, contact.ID); err != nil {
			return OutcomeFailed, err
		}
		o.logActivity(ctx, &domain.ActivityEntry{
			OrgID:           orgID,
			Type:            domain.ActivityLeadCreated,
			Title:           fmt.Sprintf("New lead created: %s", contact.FullName()),
			Description:     "Created from an inbound inquiry",
			LinkedContactID: &contact.ID,
			LinkedMessageID: msg.ID,
		})
		return OutcomeProcessed, nil

	case out.LabelMarketing:
		return OutcomeSkipped, o.writeLedger(ctx, &domain.ProcessedMessage{
			MessageID:      msg.ID,
			OrgID:          orgID,
			Status:         domain.ProcessedSkipped,
			Classification: domain.ClassMarketing,
		})

	default:
		o.archiveForReview(ctx, orgID, msg, "unclassified message")
		if err := o.writeLedger(ctx, &domain.ProcessedMessage{
			MessageID:      msg.ID,
			OrgID:          orgID,
			Status:         domain.ProcessedCompleted,
			Classification: domain.ClassUnknown,
		}); err != nil {
			return OutcomeFailed, err
		}
		o.logActivity(ctx, &domain.ActivityEntry{
			OrgID:           orgID,
			Type:            domain.ActivityNeedsReview,
			Title:           "Email needs review",
			Description:     fmt.Sprintf("From %s: %s", msg.From.Email, msg.Subject),
			LinkedMessageID: msg.ID,
		})
		return OutcomeProcessed, nil
	}
}

// findDuplicate checks the customer store for an existing contact the
// extracted lead most likely refers to: exact email, then phone suffix,
// then exact first+last name.
func (o *Orchestrator) findDuplicate(ctx context.Context, orgID uuid.UUID, lead *domain.ExtractedLead) (*domain.Contact, domain.MatchType, error) {
	if lead.Email != "" {
		contact, err := o.contacts.FindByEmail(ctx, orgID, strings.ToLower(lead.Email))
		if err != nil {
			return nil, "", err
		}
		if contact != nil {
			return contact, domain.MatchEmail, nil
		}
	}
	if lead.Phone != "" {
		digits := lastTenDigits(lead.Phone)
		if digits != "" {
			contacts, err := o.contacts.FindByPhoneSuffix(ctx, orgID, digits)
			if err != nil {
				return nil, "", err
			}
			if len(contacts) > 0 {
				return contacts[0], domain.MatchPhone, nil
			}
		}
	}
	if lead.HasName() && lead.FirstName != "Unknown" {
		contacts, err := o.contacts.FindByName(ctx, orgID, lead.FirstName, lead.LastName)
		if err != nil {
			return nil, "", err
		}
		if len(contacts) > 0 {
			return contacts[0], domain.MatchName, nil
		}
	}
	return nil, "", nil
}

// createLeadContact creates a contact in the new-lead stage plus the
// initial timeline note carrying the extracted free-text notes.
func (o *Orchestrator) createLeadContact(ctx context.Context, orgID uuid.UUID, lead *domain.ExtractedLead, msg *domain.ParsedMessage) (*domain.Contact, error) {
	now := time.Now()
	contact := &domain.Contact{
		ID:          uuid.New(),
		OrgID:       orgID,
		FirstName:   lead.FirstName,
		LastName:    lead.LastName,
		Email:       strings.ToLower(lead.Email),
		Phone:       lead.Phone,
		Address:     lead.Address,
		City:        lead.City,
		State:       lead.State,
		ZipCode:     lead.ZipCode,
		Stage:       domain.StageNewLead,
		LeadSource:  lead.Source,
		JobPriority: lead.JobPriority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if lead.Address != "" {
		contact.KnownAddresses = []string{lead.Address}
	}
	if err := o.contacts.Create(ctx, contact); err != nil {
		return nil, err
	}

	body := "Lead created from email notification."
	if lead.Notes != "" {
		body += "\n\n" + lead.Notes
	}
	note := &domain.ContactNote{
		ID:              uuid.New(),
		OrgID:           orgID,
		ContactID:       contact.ID,
		Body:            body,
		SourceMessageID: msg.ID,
		CreatedAt:       now,
	}
	if err := o.contacts.CreateNote(ctx, note); err != nil {
		return nil, err
	}
	return contact, nil
}

func (o *Orchestrator) attachNote(ctx context.Context, orgID, contactID uuid.UUID, msg *domain.ParsedMessage) error {
	body := fmt.Sprintf("Email received: %s", msg.Subject)
	if msg.Snippet != "" {
		body += "\n\n" + msg.Snippet
	}
	return o.contacts.CreateNote(ctx, &domain.ContactNote{
		ID:              uuid.New(),
		OrgID:           orgID,
		ContactID:       contactID,
		Body:            body,
		SourceMessageID: msg.ID,
		CreatedAt:       time.Now(),
	})
}

// completeLinked writes the completed ledger row for a message that was
// linked to a contact.
func (o *Orchestrator) completeLinked(ctx context.Context, orgID uuid.UUID, msg *domain.ParsedMessage, class domain.Classification, contactID uuid.UUID) error {
	return o.writeLedger(ctx, &domain.ProcessedMessage{
		MessageID:       msg.ID,
		OrgID:           orgID,
		Status:          domain.ProcessedCompleted,
		Classification:  class,
		LinkedContactID: &contactID,
	})
}

// writeLedger inserts the ledger row. A unique-constraint hit means a
// concurrent run already finished this message and is swallowed as
// success, per the at-least-once delivery contract.
func (o *Orchestrator) writeLedger(ctx context.Context, record *domain.ProcessedMessage) error {
	if record.ProcessedAt.IsZero() {
		record.ProcessedAt = time.Now()
	}
	err := o.ledger.Insert(ctx, record)
	if errors.Is(err, out.ErrAlreadyProcessed) {
		logger.Debug("ledger row for message %s already written by a concurrent run", record.MessageID)
		return nil
	}
	return err
}

// recordFailure writes the failed ledger row at the per-message boundary.
// A second failure here is only logged; the cursor not advancing means
// the message is retried on the next run.
func (o *Orchestrator) recordFailure(ctx context.Context, orgID uuid.UUID, msg *domain.ParsedMessage, class domain.Classification, cause error) {
	o.archiveForReview(ctx, orgID, msg, "processing failed")
	err := o.writeLedger(ctx, &domain.ProcessedMessage{
		MessageID:      msg.ID,
		OrgID:          orgID,
		Status:         domain.ProcessedFailed,
		Classification: class,
		Error:          cause.Error(),
	})
	if err != nil {
		logger.Error("failed to record failure for message %s: %v", msg.ID, err)
		return
	}
	o.logActivity(ctx, &domain.ActivityEntry{
		OrgID:           orgID,
		Type:            domain.ActivityNeedsReview,
		Title:           "Email processing failed",
		Description:     fmt.Sprintf("From %s: %s", msg.From.Email, msg.Subject),
		LinkedMessageID: msg.ID,
	})
}

// logActivity appends an activity entry. The ledger row is already
// written by the time this runs, so a failed activity insert is logged
// and dropped rather than failing the message.
func (o *Orchestrator) logActivity(ctx context.Context, entry *domain.ActivityEntry) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if err := o.activities.Create(ctx, entry); err != nil {
		logger.Error("failed to write activity entry for message %s: %v", entry.LinkedMessageID, err)
	}
}

// archiveForReview stores the raw body for later inspection; best-effort.
func (o *Orchestrator) archiveForReview(ctx context.Context, orgID uuid.UUID, msg *domain.ParsedMessage, reason string) {
	if o.archive == nil {
		return
	}
	if err := o.archive.Archive(ctx, orgID, msg, reason); err != nil {
		logger.Warn("failed to archive message %s: %v", msg.ID, err)
	}
}

// describeLead builds the activity description for a created lead.
func describeLead(lead *domain.ExtractedLead) string {
	var parts []string
	if lead.Phone != "" {
		parts = append(parts, lead.Phone)
	}
	if lead.Email != "" {
		parts = append(parts, lead.Email)
	}
	if lead.Address != "" {
		parts = append(parts, lead.Address)
	}
	if lead.Source != "" {
		parts = append(parts, "via "+lead.Source)
	}
	return strings.Join(parts, " · ")
}

func classificationFor(kind classification.Kind) domain.Classification {
	switch kind {
	case classification.KindLeadNotification:
		return domain.ClassLeadNotification
	case classification.KindInternal:
		return domain.ClassInternal
	case classification.KindCarrier:
		return domain.ClassCarrier
	default:
		return domain.ClassUnknown
	}
}

func splitDisplayName(displayName string) (first, last string) {
	tokens := strings.Fields(strings.TrimSpace(displayName))
	switch len(tokens) {
	case 0:
		return "Unknown", ""
	case 1:
		return tokens[0], ""
	default:
		return tokens[0], tokens[len(tokens)-1]
	}
}

func lastTenDigits(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) > 10 {
		digits = digits[len(digits)-10:]
	}
	if len(digits) < 7 {
		return ""
	}
	return digits
}
