// Package service contains the use-case layer of the QA service. It wires
// the stores and the RAG pipelines together and owns the cross-store
// consistency rules: transactional room creation and best-effort cascading
// deletion.
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"DocTalk/internal/models"
	"DocTalk/internal/qa_service/apperrors"
	"DocTalk/internal/qa_service/store"
	"DocTalk/pkg/logger"
)

// Ingestor runs the one-time ingestion of a room's extracted text.
type Ingestor interface {
	Ingest(ctx context.Context, roomID string, text string) (int, error)
}

// Answerer answers a question against a room's ingested chunks.
type Answerer interface {
	Answer(ctx context.Context, roomID int64, question string) (string, error)
}

// TextProvider turns uploaded PDF bytes into extracted text, caching by title.
type TextProvider interface {
	GetText(ctx context.Context, title string, data []byte) (string, error)
}

// ObjectStore keeps the raw uploaded file and returns its stored path.
type ObjectStore interface {
	Put(ctx context.Context, objectName string, data []byte) (string, error)
}

// VectorDeleter removes every vector belonging to a room.
type VectorDeleter interface {
	DeleteByRoom(ctx context.Context, roomID string) error
}

// Service implements the QA service use cases.
type Service struct {
	rooms    *store.RoomStore
	chats    store.ChatStore
	pdfs     ObjectStore
	texts    TextProvider
	ingestor Ingestor
	answerer Answerer
	vectors  VectorDeleter
	log      logger.Logger
}

// New assembles a Service from its collaborators.
func New(
	rooms *store.RoomStore,
	chats store.ChatStore,
	pdfs ObjectStore,
	texts TextProvider,
	ingestor Ingestor,
	answerer Answerer,
	vectors VectorDeleter,
	log logger.Logger,
) *Service {
	return &Service{
		rooms:    rooms,
		chats:    chats,
		pdfs:     pdfs,
		texts:    texts,
		ingestor: ingestor,
		answerer: answerer,
		vectors:  vectors,
		log:      log,
	}
}

// CreateRoom handles a PDF upload end to end: extract (or reuse cached) text,
// store the original file, create the room row, and ingest the text into the
// vector store. The room row and the ingestion run inside one relational
// transaction, so an ingestion failure rolls the room back and no half-created
// room is ever visible.
//
// The stored PDF object is written before the transaction and is not removed
// on rollback; an orphan object in the bucket is accepted.
func (s *Service) CreateRoom(ctx context.Context, userID int64, title string, pdfData []byte) (*models.Room, int, error) {
	if userID <= 0 {
		return nil, 0, fmt.Errorf("user id must be positive: %w", apperrors.ErrInvalidInput)
	}
	if strings.TrimSpace(title) == "" {
		return nil, 0, fmt.Errorf("title must not be empty: %w", apperrors.ErrInvalidInput)
	}
	if len(pdfData) == 0 {
		return nil, 0, fmt.Errorf("uploaded file is empty: %w", apperrors.ErrInvalidInput)
	}

	text, err := s.texts.GetText(ctx, title, pdfData)
	if err != nil {
		if errors.Is(err, apperrors.ErrExtraction) {
			return nil, 0, err
		}
		return nil, 0, fmt.Errorf("load text for %q: %w: %v", title, apperrors.ErrInternal, err)
	}

	objectName := fmt.Sprintf("pdfs/%s.pdf", uuid.NewString())
	filePath, err := s.pdfs.Put(ctx, objectName, pdfData)
	if err != nil {
		return nil, 0, fmt.Errorf("store uploaded file: %w: %v", apperrors.ErrInternal, err)
	}

	var (
		room       *models.Room
		chunkCount int
	)
	err = s.rooms.Transaction(ctx, func(tx *store.RoomStore) error {
		room = &models.Room{UserID: userID, Title: title, FilePath: filePath}
		if err := tx.Create(ctx, room); err != nil {
			return err
		}
		n, err := s.ingestor.Ingest(ctx, strconv.FormatInt(room.ID, 10), text)
		if err != nil {
			return err
		}
		chunkCount = n
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	s.log.Info(fmt.Sprintf("Created room %d for user %d with %d chunks", room.ID, userID, chunkCount))
	return room, chunkCount, nil
}

// AskQuestion answers a question in the context of one room. The room must
// exist; the question and the generated answer are appended to the room's
// transcript by the answer pipeline.
func (s *Service) AskQuestion(ctx context.Context, roomID int64, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", fmt.Errorf("question must not be empty: %w", apperrors.ErrInvalidInput)
	}
	if _, err := s.rooms.Get(ctx, roomID); err != nil {
		return "", err
	}
	return s.answerer.Answer(ctx, roomID, question)
}

// ListRooms returns the user's rooms. A user with no rooms is reported as
// ErrNotFound rather than an empty list.
func (s *Service) ListRooms(ctx context.Context, userID int64) ([]models.Room, error) {
	rooms, err := s.rooms.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(rooms) == 0 {
		return nil, fmt.Errorf("no rooms found for user %d: %w", userID, apperrors.ErrNotFound)
	}
	return rooms, nil
}

// ListMessages returns the room's transcript ordered by sequence number.
// There is no existence check: an unknown or already-deleted room simply has
// an empty transcript, so listing after a cascade delete yields an empty
// list rather than an error.
func (s *Service) ListMessages(ctx context.Context, roomID int64) ([]models.ChatMessage, error) {
	messages, err := s.chats.List(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("list messages for room %d: %w: %v", roomID, apperrors.ErrInternal, err)
	}
	return messages, nil
}

// DeleteRoom removes the room and everything derived from it: vectors first,
// then transcript messages, then the room row. The legs run in that fixed
// order and every leg is attempted even when an earlier one fails, so a
// partial failure still removes as much as possible. Leg failures are
// collected and returned together.
//
// A room that only fails on the relational leg because the row does not exist
// surfaces as ErrNotFound; any other failure combination is ErrInternal.
func (s *Service) DeleteRoom(ctx context.Context, roomID int64) error {
	var errs []error

	if err := s.vectors.DeleteByRoom(ctx, strconv.FormatInt(roomID, 10)); err != nil {
		s.log.Error(fmt.Sprintf("Vector deletion failed for room %d: %v", roomID, err))
		errs = append(errs, fmt.Errorf("vector store: %w", err))
	}

	if _, err := s.chats.DeleteAll(ctx, roomID); err != nil {
		s.log.Error(fmt.Sprintf("Transcript deletion failed for room %d: %v", roomID, err))
		errs = append(errs, fmt.Errorf("transcript: %w", err))
	}

	if err := s.rooms.Delete(ctx, roomID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) && len(errs) == 0 {
			return err
		}
		s.log.Error(fmt.Sprintf("Room deletion failed for room %d: %v", roomID, err))
		errs = append(errs, fmt.Errorf("room record: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("delete room %d: %w: %v", roomID, apperrors.ErrInternal, errors.Join(errs...))
	}

	s.log.Info(fmt.Sprintf("Deleted room %d across all stores", roomID))
	return nil
}
