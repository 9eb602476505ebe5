package intake

import (
	"context"
	"errors"
	"testing"
	"time"

	"intake_server/core/domain"
	"intake_server/core/port/out"
	"intake_server/core/service/classification"
	"intake_server/core/service/extraction"
	"intake_server/core/service/resolution"
)

func newSyncEnv(provider *fakeProvider, cursors *fakeCursors, pageSize int) (*SyncService, *orchestratorEnv) {
	env := newOrchestratorEnv(&fakeClassifier{label: out.LabelUnknown})
	sync := NewSyncService(provider, cursors, env.orch, pageSize, 24*time.Hour)
	return sync, env
}

func internalMsg(id string, receivedAt time.Time) *domain.ParsedMessage {
	return &domain.ParsedMessage{
		ID:         id,
		From:       domain.EmailAddress{Email: "noreply@github.com"},
		Subject:    "Build " + id,
		BodyText:   "all green",
		ReceivedAt: receivedAt,
	}
}

// TestSyncRunAdvancesCursorToRunStart tests that a clean run pages
// through the whole window and moves the boundary to the run start time.
func TestSyncRunAdvancesCursorToRunStart(t *testing.T) {
	base := time.Now().Add(-time.Hour)
	provider := &fakeProvider{
		pageSize: 2,
		messages: []*domain.ParsedMessage{
			internalMsg("m1", base),
			internalMsg("m2", base.Add(time.Minute)),
			internalMsg("m3", base.Add(2*time.Minute)),
		},
	}
	cursors := &fakeCursors{}
	sync, env := newSyncEnv(provider, cursors, 2)

	started := time.Now()
	stats, err := sync.Run(context.Background(), testOrgID)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if stats.Fetched != 3 || stats.Skipped != 3 || stats.Processed != 0 || stats.Failed != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if len(provider.queries) != 2 {
		t.Errorf("got %d list calls, want 2 pages", len(provider.queries))
	}
	if len(cursors.advances) != 1 {
		t.Fatalf("got %d cursor advances, want 1", len(cursors.advances))
	}
	if cursors.advances[0].Before(started.Add(-time.Second)) {
		t.Errorf("cursor advanced to %v, want the run start time", cursors.advances[0])
	}
	if len(env.ledger.rows) != 3 {
		t.Errorf("got %d ledger rows, want 3", len(env.ledger.rows))
	}
}

// TestSyncRunFirstSyncUsesLookback tests the default lookback window on
// an organization that has never synced.
func TestSyncRunFirstSyncUsesLookback(t *testing.T) {
	provider := &fakeProvider{}
	cursors := &fakeCursors{}
	sync, _ := newSyncEnv(provider, cursors, 10)

	before := time.Now()
	if _, err := sync.Run(context.Background(), testOrgID); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(provider.queries) != 1 {
		t.Fatalf("got %d list calls, want 1", len(provider.queries))
	}
	since := provider.queries[0].Since
	want := before.Add(-24 * time.Hour)
	if since.Before(want.Add(-time.Minute)) || since.After(want.Add(time.Minute)) {
		t.Errorf("first-sync window starts at %v, want about %v", since, want)
	}
}

// TestSyncRunResumesFromCursor tests that an existing cursor's boundary
// is used instead of the lookback window.
func TestSyncRunResumesFromCursor(t *testing.T) {
	lastSynced := time.Now().Add(-10 * time.Minute)
	provider := &fakeProvider{}
	cursors := &fakeCursors{cursor: &domain.SyncCursor{OrgID: testOrgID, LastSyncedAt: lastSynced}}
	sync, _ := newSyncEnv(provider, cursors, 10)

	if _, err := sync.Run(context.Background(), testOrgID); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := provider.queries[0].Since; !got.Equal(lastSynced) {
		t.Errorf("since = %v, want cursor boundary %v", got, lastSynced)
	}
}

// TestSyncRunListFailureLeavesCursor tests that a provider failure
// mid-run records the error status and never advances the cursor, so the
// next run re-fetches the same window.
func TestSyncRunListFailureLeavesCursor(t *testing.T) {
	provider := &fakeProvider{listErr: errors.New("gmail unavailable")}
	cursors := &fakeCursors{}
	sync, _ := newSyncEnv(provider, cursors, 10)

	if _, err := sync.Run(context.Background(), testOrgID); err == nil {
		t.Fatal("Run() error = nil, want list failure surfaced")
	}

	if len(cursors.advances) != 0 {
		t.Errorf("cursor advanced despite a failed run: %v", cursors.advances)
	}
	last := cursors.statuses[len(cursors.statuses)-1]
	if last != domain.SyncStatusError {
		t.Errorf("final status = %v, want %v", last, domain.SyncStatusError)
	}
}

// TestSyncRunFetchFailureIsPerMessage tests that a single stuck fetch
// fails that message only: it gets a failed ledger row and the rest of
// the page still processes.
func TestSyncRunFetchFailureIsPerMessage(t *testing.T) {
	base := time.Now().Add(-time.Hour)
	provider := &fakeProvider{
		messages: []*domain.ParsedMessage{
			internalMsg("m1", base),
			internalMsg("m2", base.Add(time.Minute)),
		},
		failIDs: map[string]error{"m2": errors.New("timeout")},
	}
	cursors := &fakeCursors{}
	sync, env := newSyncEnv(provider, cursors, 10)

	stats, err := sync.Run(context.Background(), testOrgID)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if stats.Failed != 1 || stats.Skipped != 1 {
		t.Errorf("stats = %+v, want one failed and one skipped", stats)
	}
	row := env.ledger.rows["m2"]
	if row == nil || row.Status != domain.ProcessedFailed {
		t.Errorf("ledger row for the failed fetch = %+v", row)
	}
	if len(cursors.advances) != 1 {
		t.Errorf("a per-message fetch failure must not block the cursor")
	}
}

// TestSyncRunProcessesAscendingReceivedAt tests the in-page ordering
// tie-break.
func TestSyncRunProcessesAscendingReceivedAt(t *testing.T) {
	base := time.Now().Add(-time.Hour)
	var order []string
	recorder := &orderRecordingOrchestrator{order: &order}

	provider := &fakeProvider{
		messages: []*domain.ParsedMessage{
			internalMsg("newest", base.Add(2*time.Minute)),
			internalMsg("oldest", base),
			internalMsg("middle", base.Add(time.Minute)),
		},
	}
	cursors := &fakeCursors{}
	sync := NewSyncService(provider, cursors, recorder.orchestrator(), 10, 24*time.Hour)

	if _, err := sync.Run(context.Background(), testOrgID); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := []string{"oldest", "middle", "newest"}
	if len(order) != len(want) {
		t.Fatalf("processed %d messages, want %d", len(order), len(want))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("processing order = %v, want %v", order, want)
		}
	}
}

// orderRecordingOrchestrator builds a real orchestrator whose ledger
// records insertion order.
type orderRecordingOrchestrator struct {
	order *[]string
}

func (r *orderRecordingOrchestrator) orchestrator() *Orchestrator {
	ledger := &orderRecordingLedger{inner: newFakeLedger(), order: r.order}
	return NewOrchestrator(OrchestratorDeps{
		Detector:   classification.NewDetector(),
		Extractor:  extraction.NewExtractor(),
		Resolver:   resolution.NewResolver(&fakeContacts{}, 0),
		Classifier: &fakeClassifier{label: out.LabelUnknown},
		Contacts:   &fakeContacts{},
		Ledger:     ledger,
		Activities: &fakeActivities{},
	}, 0)
}

type orderRecordingLedger struct {
	inner *fakeLedger
	order *[]string
}

func (l *orderRecordingLedger) Insert(ctx context.Context, record *domain.ProcessedMessage) error {
	*l.order = append(*l.order, record.MessageID)
	return l.inner.Insert(ctx, record)
}

func (l *orderRecordingLedger) GetByMessageID(ctx context.Context, messageID string) (*domain.ProcessedMessage, error) {
	return l.inner.GetByMessageID(ctx, messageID)
}
