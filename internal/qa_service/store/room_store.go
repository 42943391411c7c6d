// Package store holds the persistence adapters of the QA service: the
// relational room registry, the MongoDB chat transcript, and the MinIO
// object store for uploaded PDFs.
package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"DocTalk/internal/models"
	"DocTalk/internal/qa_service/apperrors"
	"DocTalk/pkg/logger"
)

// RoomStore persists room records through GORM.
type RoomStore struct {
	db  *gorm.DB
	log logger.Logger
}

// NewRoomStore creates a RoomStore on top of an initialized GORM handle.
func NewRoomStore(db *gorm.DB, log logger.Logger) *RoomStore {
	return &RoomStore{db: db, log: log}
}

// Create inserts the room and backfills its generated id.
func (s *RoomStore) Create(ctx context.Context, room *models.Room) error {
	if err := s.db.WithContext(ctx).Create(room).Error; err != nil {
		return fmt.Errorf("create room: %w: %v", apperrors.ErrInternal, err)
	}
	return nil
}

// Get returns one room by id, or ErrNotFound.
func (s *RoomStore) Get(ctx context.Context, roomID int64) (*models.Room, error) {
	var room models.Room
	err := s.db.WithContext(ctx).First(&room, roomID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("room %d: %w", roomID, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get room %d: %w: %v", roomID, apperrors.ErrInternal, err)
	}
	return &room, nil
}

// ListByUser returns the user's rooms in creation order. An empty result is
// not an error at this layer.
func (s *RoomStore) ListByUser(ctx context.Context, userID int64) ([]models.Room, error) {
	var rooms []models.Room
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&rooms).Error
	if err != nil {
		return nil, fmt.Errorf("list rooms for user %d: %w: %v", userID, apperrors.ErrInternal, err)
	}
	return rooms, nil
}

// Delete removes the room row. Deleting a room that does not exist returns
// ErrNotFound.
func (s *RoomStore) Delete(ctx context.Context, roomID int64) error {
	result := s.db.WithContext(ctx).Delete(&models.Room{}, roomID)
	if result.Error != nil {
		return fmt.Errorf("delete room %d: %w: %v", roomID, apperrors.ErrInternal, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("room %d: %w", roomID, apperrors.ErrNotFound)
	}
	return nil
}

// Transaction runs fn inside a database transaction, handing it a RoomStore
// bound to the transactional handle. A non-nil error from fn rolls back.
func (s *RoomStore) Transaction(ctx context.Context, fn func(tx *RoomStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&RoomStore{db: tx, log: s.log})
	})
}
