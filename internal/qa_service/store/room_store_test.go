package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"DocTalk/internal/models"
	"DocTalk/internal/qa_service/apperrors"
	"DocTalk/pkg/logger"
)

func newTestRoomStore(t *testing.T) *RoomStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "rooms.db")), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open sqlite database: %v", err)
	}
	if err := db.AutoMigrate(&models.Room{}); err != nil {
		t.Fatalf("Failed to migrate rooms table: %v", err)
	}
	return NewRoomStore(db, *logger.New("test", ""))
}

func TestRoomStoreCreateAssignsID(t *testing.T) {
	s := newTestRoomStore(t)

	room := &models.Room{UserID: 1, Title: "manual", FilePath: "pdfs/a.pdf"}
	if err := s.Create(context.Background(), room); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if room.ID == 0 {
		t.Error("Expected a generated room id")
	}

	got, err := s.Get(context.Background(), room.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Title != "manual" || got.UserID != 1 {
		t.Errorf("Stored room does not match: %+v", got)
	}
}

func TestRoomStoreGetUnknownRoom(t *testing.T) {
	s := newTestRoomStore(t)

	_, err := s.Get(context.Background(), 12345)
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestRoomStoreListByUser(t *testing.T) {
	s := newTestRoomStore(t)
	ctx := context.Background()

	for _, title := range []string{"first", "second"} {
		if err := s.Create(ctx, &models.Room{UserID: 7, Title: title}); err != nil {
			t.Fatalf("Create(%s) error = %v", title, err)
		}
	}
	if err := s.Create(ctx, &models.Room{UserID: 8, Title: "other user"}); err != nil {
		t.Fatalf("Create(other user) error = %v", err)
	}

	rooms, err := s.ListByUser(ctx, 7)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(rooms) != 2 {
		t.Fatalf("Expected 2 rooms for user 7, got %d", len(rooms))
	}
	if rooms[0].Title != "first" || rooms[1].Title != "second" {
		t.Errorf("Expected rooms in creation order, got %q then %q", rooms[0].Title, rooms[1].Title)
	}

	empty, err := s.ListByUser(ctx, 99)
	if err != nil {
		t.Fatalf("ListByUser(99) error = %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("Expected no rooms for unknown user, got %d", len(empty))
	}
}

func TestRoomStoreDelete(t *testing.T) {
	s := newTestRoomStore(t)
	ctx := context.Background()

	room := &models.Room{UserID: 1, Title: "doomed"}
	if err := s.Create(ctx, room); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := s.Delete(ctx, room.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Get(ctx, room.ID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("Expected the room to be gone, got %v", err)
	}

	// Deleting again reports the missing row.
	if err := s.Delete(ctx, room.ID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("Expected ErrNotFound on double delete, got %v", err)
	}
}

func TestRoomStoreTransactionRollsBack(t *testing.T) {
	s := newTestRoomStore(t)
	ctx := context.Background()

	boom := errors.New("ingestion failed")
	var createdID int64
	err := s.Transaction(ctx, func(tx *RoomStore) error {
		room := &models.Room{UserID: 1, Title: "rolled back"}
		if err := tx.Create(ctx, room); err != nil {
			return err
		}
		createdID = room.ID
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected the callback error to surface, got %v", err)
	}

	if _, err := s.Get(ctx, createdID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("Expected the room to be rolled back, got %v", err)
	}
}

func TestRoomStoreTransactionCommits(t *testing.T) {
	s := newTestRoomStore(t)
	ctx := context.Background()

	var createdID int64
	err := s.Transaction(ctx, func(tx *RoomStore) error {
		room := &models.Room{UserID: 1, Title: "committed"}
		if err := tx.Create(ctx, room); err != nil {
			return err
		}
		createdID = room.ID
		return nil
	})
	if err != nil {
		t.Fatalf("Transaction() error = %v", err)
	}

	if _, err := s.Get(ctx, createdID); err != nil {
		t.Errorf("Expected the room to be committed, got %v", err)
	}
}
