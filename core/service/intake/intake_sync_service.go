package intake

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"intake_server/core/domain"
	"intake_server/core/port/out"
	"intake_server/pkg/logger"
)

// DefaultLookback is applied on an organization's first sync, when no
// cursor exists yet.
const DefaultLookback = 24 * time.Hour

// SyncService drives one organization's sync run: fetch unseen messages
// since the cursor, page by page, feed each to the orchestrator, and
// advance the cursor only after the whole window completed. A mid-run
// failure leaves the cursor untouched so the next run re-fetches the
// same window; the ledger makes the replay idempotent.
type SyncService struct {
	provider     out.MailProvider
	cursors      out.SyncCursorRepository
	orchestrator *Orchestrator

	pageSize int
	lookback time.Duration
}

// NewSyncService creates a sync service. Zero pageSize or lookback fall
// back to defaults.
func NewSyncService(provider out.MailProvider, cursors out.SyncCursorRepository, orchestrator *Orchestrator, pageSize int, lookback time.Duration) *SyncService {
	if pageSize <= 0 {
		pageSize = 50
	}
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	return &SyncService{
		provider:     provider,
		cursors:      cursors,
		orchestrator: orchestrator,
		pageSize:     pageSize,
		lookback:     lookback,
	}
}

// Run executes one full sync for an organization.
func (s *SyncService) Run(ctx context.Context, orgID uuid.UUID) (*domain.SyncRunStats, error) {
	started := time.Now()

	cursor, err := s.cursors.GetByOrg(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("load sync cursor: %w", err)
	}
	since := started.Add(-s.lookback)
	if cursor != nil && !cursor.IsFirstSync() {
		since = cursor.LastSyncedAt
	}

	if err := s.cursors.SetStatus(ctx, orgID, domain.SyncStatusSyncing, ""); err != nil {
		return nil, fmt.Errorf("mark sync started: %w", err)
	}

	stats := domain.SyncRunStats{}
	pageToken := ""
	for {
		page, err := s.provider.ListMessageIDs(ctx, &out.MailListQuery{
			Since:     since,
			PageToken: pageToken,
			PageSize:  s.pageSize,
		})
		if err != nil {
			s.failRun(ctx, orgID, err)
			return nil, fmt.Errorf("list messages: %w", err)
		}

		s.processPage(ctx, orgID, page.IDs, &stats)

		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	stats.Duration = time.Since(started)

	// The boundary moves to the run's start time; anything received
	// during the run is picked up by the next one.
	if err := s.cursors.Advance(ctx, orgID, started, stats); err != nil {
		s.failRun(ctx, orgID, err)
		return nil, fmt.Errorf("advance sync cursor: %w", err)
	}

	logger.Info("sync completed for org %s: fetched=%d processed=%d skipped=%d failed=%d in %s",
		orgID, stats.Fetched, stats.Processed, stats.Skipped, stats.Failed, stats.Duration.Round(time.Millisecond))
	return &stats, nil
}

// processPage fetches and processes one page of message ids. Messages
// are processed in ascending received-time order, the documented
// tie-break for which message becomes the original creator when several
// refer to the same lead.
func (s *SyncService) processPage(ctx context.Context, orgID uuid.UUID, ids []string, stats *domain.SyncRunStats) {
	messages := make([]*domain.ParsedMessage, 0, len(ids))
	for _, id := range ids {
		msg, err := s.provider.GetMessage(ctx, id)
		if err != nil {
			// A stuck or failed fetch is this message's failure, not
			// the batch's; record it so retries stay visible.
			logger.Error("failed to fetch message %s: %v", id, err)
			s.recordFetchFailure(ctx, orgID, id, err)
			stats.Failed++
			continue
		}
		messages = append(messages, msg)
	}
	stats.Fetched += len(ids)

	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].ReceivedAt.Before(messages[j].ReceivedAt)
	})

	for _, msg := range messages {
		switch s.orchestrator.ProcessMessage(ctx, orgID, msg) {
		case OutcomeProcessed:
			stats.Processed++
		case OutcomeSkipped, OutcomeAlreadySeen:
			stats.Skipped++
		case OutcomeFailed:
			stats.Failed++
		}
	}
}

func (s *SyncService) recordFetchFailure(ctx context.Context, orgID uuid.UUID, messageID string, cause error) {
	err := s.orchestrator.writeLedger(ctx, &domain.ProcessedMessage{
		MessageID:      messageID,
		OrgID:          orgID,
		Status:         domain.ProcessedFailed,
		Classification: domain.ClassUnknown,
		Error:          cause.Error(),
	})
	if err != nil {
		logger.Error("failed to record fetch failure for message %s: %v", messageID, err)
	}
}

func (s *SyncService) failRun(ctx context.Context, orgID uuid.UUID, cause error) {
	if err := s.cursors.SetStatus(ctx, orgID, domain.SyncStatusError, cause.Error()); err != nil {
		logger.Error("failed to record sync error for org %s: %v", orgID, err)
	}
}
