package http

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"intake_server/adapter/out/persistence"
	"intake_server/core/domain"
)

type fakeActivityRepo struct {
	markReadErr error
	entries     []*domain.ActivityEntry
	listErr     error
}

func (f *fakeActivityRepo) Create(ctx context.Context, entry *domain.ActivityEntry) error {
	return nil
}

func (f *fakeActivityRepo) ListUnread(ctx context.Context, orgID uuid.UUID, limit int) ([]*domain.ActivityEntry, error) {
	return f.entries, f.listErr
}

func (f *fakeActivityRepo) MarkRead(ctx context.Context, orgID, id uuid.UUID) error {
	return f.markReadErr
}

func newActivityApp(repo *fakeActivityRepo) *fiber.App {
	app := fiber.New()
	NewActivityHandler(repo).Register(app)
	return app
}

func TestMarkReadStatusCodes(t *testing.T) {
	orgID := uuid.New()
	activityID := uuid.New()

	tests := []struct {
		name       string
		repoErr    error
		wantStatus int
	}{
		{"success", nil, fiber.StatusOK},
		{"missing entry", persistence.ErrNotFound, fiber.StatusNotFound},
		{"database failure", errors.New("connection refused"), fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newActivityApp(&fakeActivityRepo{markReadErr: tt.repoErr})

			req := httptest.NewRequest("POST", "/activities/"+activityID.String()+"/read?org_id="+orgID.String(), nil)
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
		})
	}
}

func TestMarkReadRejectsBadIDs(t *testing.T) {
	app := newActivityApp(&fakeActivityRepo{})

	req := httptest.NewRequest("POST", "/activities/not-a-uuid/read?org_id="+uuid.New().String(), nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, fiber.StatusBadRequest)
	}

	req = httptest.NewRequest("POST", "/activities/"+uuid.New().String()+"/read?org_id=nope", nil)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, fiber.StatusBadRequest)
	}
}
