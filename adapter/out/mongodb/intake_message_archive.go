package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"intake_server/core/domain"
)

const archiveCollection = "message_archive"

// MessageArchiveAdapter implements out.MessageArchive. Full bodies of
// failed and review-flagged messages land here, keyed by message id so a
// replayed message overwrites rather than duplicates.
type MessageArchiveAdapter struct {
	collection *mongo.Collection
}

// NewMessageArchiveAdapter creates the archive adapter.
func NewMessageArchiveAdapter(client *mongo.Client, database string) *MessageArchiveAdapter {
	return &MessageArchiveAdapter{
		collection: client.Database(database).Collection(archiveCollection),
	}
}

type archivedMessage struct {
	MessageID  string    `bson:"_id"`
	OrgID      string    `bson:"org_id"`
	ThreadID   string    `bson:"thread_id,omitempty"`
	FromEmail  string    `bson:"from_email"`
	FromName   string    `bson:"from_name,omitempty"`
	Subject    string    `bson:"subject"`
	BodyText   string    `bson:"body_text"`
	Snippet    string    `bson:"snippet,omitempty"`
	ReceivedAt time.Time `bson:"received_at"`
	Reason     string    `bson:"reason"`
	ArchivedAt time.Time `bson:"archived_at"`
}

// Archive upserts the raw message with the reason it was kept.
func (a *MessageArchiveAdapter) Archive(ctx context.Context, orgID uuid.UUID, msg *domain.ParsedMessage, reason string) error {
	doc := archivedMessage{
		MessageID:  msg.ID,
		OrgID:      orgID.String(),
		ThreadID:   msg.ThreadID,
		FromEmail:  msg.From.Email,
		FromName:   msg.From.Name,
		Subject:    msg.Subject,
		BodyText:   msg.BodyText,
		Snippet:    msg.Snippet,
		ReceivedAt: msg.ReceivedAt,
		Reason:     reason,
		ArchivedAt: time.Now(),
	}

	opts := options.Replace().SetUpsert(true)
	_, err := a.collection.ReplaceOne(ctx, bson.M{"_id": msg.ID}, doc, opts)
	if err != nil {
		return fmt.Errorf("failed to archive message %s: %w", msg.ID, err)
	}
	return nil
}
