package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"DocTalk/internal/models"
	"DocTalk/pkg/logger"
)

// ChatStore persists the per-room chat transcript.
type ChatStore interface {
	NextSequenceNumber(ctx context.Context, roomID int64) (int64, error)
	Append(ctx context.Context, msg *models.ChatMessage) error
	List(ctx context.Context, roomID int64) ([]models.ChatMessage, error)
	DeleteAll(ctx context.Context, roomID int64) (int64, error)
}

// MongoChatStore is the MongoDB implementation of ChatStore. Messages for a
// room carry sequence numbers starting at 1 with no gaps; ordering is defined
// by the sequence number, not the insertion timestamp.
type MongoChatStore struct {
	coll *mongo.Collection
	log  logger.Logger
}

// NewMongoChatStore binds the store to the configured database and collection.
func NewMongoChatStore(client *mongo.Client, database, collection string, log logger.Logger) *MongoChatStore {
	return &MongoChatStore{
		coll: client.Database(database).Collection(collection),
		log:  log,
	}
}

// EnsureIndexes creates the compound index the sequence lookup and the listing
// query both rely on. Safe to call on every startup.
func (s *MongoChatStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "room_id", Value: 1}, {Key: "sequence_number", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create chat message index: %w", err)
	}
	return nil
}

// NextSequenceNumber returns the sequence number the next message in the room
// should carry: one more than the highest stored so far, or 1 for an empty
// room. This is a plain read; the caller owns the write that follows.
func (s *MongoChatStore) NextSequenceNumber(ctx context.Context, roomID int64) (int64, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "sequence_number", Value: -1}})

	var last models.ChatMessage
	err := s.coll.FindOne(ctx, bson.M{"room_id": roomID}, opts).Decode(&last)
	if err == mongo.ErrNoDocuments {
		return 1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("find last message for room %d: %w", roomID, err)
	}
	return last.SequenceNumber + 1, nil
}

// Append inserts one message into the transcript.
func (s *MongoChatStore) Append(ctx context.Context, msg *models.ChatMessage) error {
	if _, err := s.coll.InsertOne(ctx, msg); err != nil {
		return fmt.Errorf("insert message for room %d: %w", msg.RoomID, err)
	}
	return nil
}

// List returns the room's full transcript ordered by sequence number.
func (s *MongoChatStore) List(ctx context.Context, roomID int64) ([]models.ChatMessage, error) {
	opts := options.Find().SetSort(bson.D{{Key: "sequence_number", Value: 1}})

	cursor, err := s.coll.Find(ctx, bson.M{"room_id": roomID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find messages for room %d: %w", roomID, err)
	}
	defer cursor.Close(ctx)

	var messages []models.ChatMessage
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("decode messages for room %d: %w", roomID, err)
	}
	return messages, nil
}

// DeleteAll removes every message of the room and returns how many were
// deleted. Deleting from a room with no messages is not an error.
func (s *MongoChatStore) DeleteAll(ctx context.Context, roomID int64) (int64, error) {
	result, err := s.coll.DeleteMany(ctx, bson.M{"room_id": roomID})
	if err != nil {
		return 0, fmt.Errorf("delete messages for room %d: %w", roomID, err)
	}
	s.log.Info(fmt.Sprintf("Deleted %d chat messages for room %d", result.DeletedCount, roomID))
	return result.DeletedCount, nil
}

// compile-time check to ensure MongoChatStore implements the ChatStore interface
var _ ChatStore = (*MongoChatStore)(nil)
