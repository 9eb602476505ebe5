package intake

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"intake_server/core/domain"
	"intake_server/core/port/out"
)

// In-memory fakes for the outbound ports.

type fakeContacts struct {
	mu       sync.Mutex
	contacts []*domain.Contact
	notes    []*domain.ContactNote
	updates  int
}

func (f *fakeContacts) Create(ctx context.Context, c *domain.Contact) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contacts = append(f.contacts, c)
	return nil
}

func (f *fakeContacts) Update(ctx context.Context, c *domain.Contact) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	return nil
}

func (f *fakeContacts) GetByID(ctx context.Context, orgID, id uuid.UUID) (*domain.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.contacts {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, nil
}

func (f *fakeContacts) FindByEmail(ctx context.Context, orgID uuid.UUID, email string) (*domain.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.contacts {
		if c.Email != "" && strings.EqualFold(c.Email, email) {
			return c, nil
		}
	}
	return nil, nil
}

func (f *fakeContacts) FindByPhoneSuffix(ctx context.Context, orgID uuid.UUID, digits string) ([]*domain.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res []*domain.Contact
	for _, c := range f.contacts {
		var b strings.Builder
		for _, r := range c.Phone {
			if r >= '0' && r <= '9' {
				b.WriteRune(r)
			}
		}
		if b.Len() > 0 && strings.HasSuffix(b.String(), digits) {
			res = append(res, c)
		}
	}
	return res, nil
}

func (f *fakeContacts) FindByName(ctx context.Context, orgID uuid.UUID, firstName, lastName string) ([]*domain.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res []*domain.Contact
	for _, c := range f.contacts {
		if strings.EqualFold(c.FirstName, firstName) && strings.EqualFold(c.LastName, lastName) {
			res = append(res, c)
		}
	}
	return res, nil
}

func (f *fakeContacts) FindByClaimNumber(ctx context.Context, orgID uuid.UUID, claimNumber string) (*domain.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.contacts {
		if c.ClaimNumber == claimNumber {
			return c, nil
		}
	}
	return nil, nil
}

func (f *fakeContacts) FindByPolicyNumber(ctx context.Context, orgID uuid.UUID, policyNumber string) (*domain.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.contacts {
		if c.PolicyNumber == policyNumber {
			return c, nil
		}
	}
	return nil, nil
}

func (f *fakeContacts) ListWithAddresses(ctx context.Context, orgID uuid.UUID) ([]*domain.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res []*domain.Contact
	for _, c := range f.contacts {
		if len(c.KnownAddresses) > 0 {
			res = append(res, c)
		}
	}
	return res, nil
}

func (f *fakeContacts) CreateNote(ctx context.Context, note *domain.ContactNote) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notes = append(f.notes, note)
	return nil
}

type fakeLedger struct {
	mu   sync.Mutex
	rows map[string]*domain.ProcessedMessage
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{rows: make(map[string]*domain.ProcessedMessage)}
}

func (f *fakeLedger) Insert(ctx context.Context, record *domain.ProcessedMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.rows[record.MessageID]; exists {
		return out.ErrAlreadyProcessed
	}
	f.rows[record.MessageID] = record
	return nil
}

func (f *fakeLedger) GetByMessageID(ctx context.Context, messageID string) (*domain.ProcessedMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[messageID], nil
}

type fakeActivities struct {
	mu      sync.Mutex
	entries []*domain.ActivityEntry
}

func (f *fakeActivities) Create(ctx context.Context, entry *domain.ActivityEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeActivities) ListUnread(ctx context.Context, orgID uuid.UUID, limit int) ([]*domain.ActivityEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entries, nil
}

func (f *fakeActivities) MarkRead(ctx context.Context, orgID, id uuid.UUID) error { return nil }

// fakeClassifier returns a fixed label, or panics when told to.
type fakeClassifier struct {
	label   out.AILabel
	err     error
	doPanic bool
	calls   int
}

func (f *fakeClassifier) Classify(ctx context.Context, input *out.ClassifyInput) (out.AILabel, error) {
	f.calls++
	if f.doPanic {
		panic("classifier exploded")
	}
	return f.label, f.err
}

type fakeArchive struct {
	mu      sync.Mutex
	reasons map[string]string
}

func newFakeArchive() *fakeArchive {
	return &fakeArchive{reasons: make(map[string]string)}
}

func (f *fakeArchive) Archive(ctx context.Context, orgID uuid.UUID, msg *domain.ParsedMessage, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reasons[msg.ID] = reason
	return nil
}

type fakeCursors struct {
	mu       sync.Mutex
	cursor   *domain.SyncCursor
	advances []time.Time
	statuses []domain.SyncStatus
}

func (f *fakeCursors) GetByOrg(ctx context.Context, orgID uuid.UUID) (*domain.SyncCursor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cursor, nil
}

func (f *fakeCursors) Advance(ctx context.Context, orgID uuid.UUID, syncedAt time.Time, stats domain.SyncRunStats) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.advances = append(f.advances, syncedAt)
	f.cursor = &domain.SyncCursor{OrgID: orgID, LastSyncedAt: syncedAt, Status: domain.SyncStatusIdle}
	return nil
}

func (f *fakeCursors) SetStatus(ctx context.Context, orgID uuid.UUID, status domain.SyncStatus, lastError string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, status)
	return nil
}

// fakeProvider serves a fixed set of messages in fixed-size pages and
// records the query windows it saw.
type fakeProvider struct {
	mu       sync.Mutex
	messages []*domain.ParsedMessage
	pageSize int
	listErr  error
	failIDs  map[string]error
	queries  []out.MailListQuery
}

func (f *fakeProvider) ListMessageIDs(ctx context.Context, query *out.MailListQuery) (*out.MailIDPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, *query)
	if f.listErr != nil {
		return nil, f.listErr
	}
	start := 0
	if query.PageToken != "" {
		for i, m := range f.messages {
			if m.ID == query.PageToken {
				start = i
				break
			}
		}
	}
	size := f.pageSize
	if size <= 0 {
		size = len(f.messages)
	}
	end := start + size
	next := ""
	if end >= len(f.messages) {
		end = len(f.messages)
	} else {
		next = f.messages[end].ID
	}
	ids := make([]string, 0, end-start)
	for _, m := range f.messages[start:end] {
		ids = append(ids, m.ID)
	}
	return &out.MailIDPage{IDs: ids, NextPageToken: next}, nil
}

func (f *fakeProvider) GetMessage(ctx context.Context, messageID string) (*domain.ParsedMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failIDs[messageID]; ok {
		return nil, err
	}
	for _, m := range f.messages {
		if m.ID == messageID {
			return m, nil
		}
	}
	return nil, nil
}
