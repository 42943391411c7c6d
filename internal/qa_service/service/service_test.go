package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"DocTalk/internal/models"
	"DocTalk/internal/qa_service/apperrors"
	"DocTalk/internal/qa_service/store"
	"DocTalk/pkg/logger"
)

type fakeChatStore struct {
	msgs       map[int64][]models.ChatMessage
	deleteErr  error
	deletedFor []int64
}

func newFakeChatStore() *fakeChatStore {
	return &fakeChatStore{msgs: make(map[int64][]models.ChatMessage)}
}

func (f *fakeChatStore) NextSequenceNumber(ctx context.Context, roomID int64) (int64, error) {
	return int64(len(f.msgs[roomID])) + 1, nil
}

func (f *fakeChatStore) Append(ctx context.Context, msg *models.ChatMessage) error {
	f.msgs[msg.RoomID] = append(f.msgs[msg.RoomID], *msg)
	return nil
}

func (f *fakeChatStore) List(ctx context.Context, roomID int64) ([]models.ChatMessage, error) {
	return f.msgs[roomID], nil
}

func (f *fakeChatStore) DeleteAll(ctx context.Context, roomID int64) (int64, error) {
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	f.deletedFor = append(f.deletedFor, roomID)
	n := int64(len(f.msgs[roomID]))
	delete(f.msgs, roomID)
	return n, nil
}

type fakePDFStore struct {
	objects map[string][]byte
	err     error
}

func (f *fakePDFStore) Put(ctx context.Context, objectName string, data []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.objects == nil {
		f.objects = make(map[string][]byte)
	}
	f.objects[objectName] = data
	return objectName, nil
}

type fakeTexts struct {
	text string
	err  error
}

func (f *fakeTexts) GetText(ctx context.Context, title string, data []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type fakeIngestor struct {
	count int
	err   error
	rooms []string
}

func (f *fakeIngestor) Ingest(ctx context.Context, roomID string, text string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.rooms = append(f.rooms, roomID)
	return f.count, nil
}

type fakeAnswerer struct {
	answer    string
	err       error
	questions []string
}

func (f *fakeAnswerer) Answer(ctx context.Context, roomID int64, question string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.questions = append(f.questions, question)
	return f.answer, nil
}

type fakeVectors struct {
	err     error
	deleted []string
}

func (f *fakeVectors) DeleteByRoom(ctx context.Context, roomID string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, roomID)
	return nil
}

type serviceFixture struct {
	svc      *Service
	rooms    *store.RoomStore
	chats    *fakeChatStore
	pdfs     *fakePDFStore
	texts    *fakeTexts
	ingestor *fakeIngestor
	answerer *fakeAnswerer
	vectors  *fakeVectors
}

func newFixture(t *testing.T) *serviceFixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "rooms.db")), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open sqlite database: %v", err)
	}
	if err := db.AutoMigrate(&models.Room{}); err != nil {
		t.Fatalf("Failed to migrate rooms table: %v", err)
	}

	log := *logger.New("test", "")
	f := &serviceFixture{
		rooms:    store.NewRoomStore(db, log),
		chats:    newFakeChatStore(),
		pdfs:     &fakePDFStore{},
		texts:    &fakeTexts{text: "extracted text"},
		ingestor: &fakeIngestor{count: 3},
		answerer: &fakeAnswerer{answer: "generated answer"},
		vectors:  &fakeVectors{},
	}
	f.svc = New(f.rooms, f.chats, f.pdfs, f.texts, f.ingestor, f.answerer, f.vectors, log)
	return f
}

func TestCreateRoomSuccess(t *testing.T) {
	f := newFixture(t)

	room, chunks, err := f.svc.CreateRoom(context.Background(), 7, "my report", []byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("CreateRoom() error = %v", err)
	}
	if room.ID == 0 {
		t.Error("Expected a persisted room id")
	}
	if chunks != 3 {
		t.Errorf("Expected 3 chunks reported, got %d", chunks)
	}
	if room.FilePath == "" {
		t.Error("Expected the stored object path on the room")
	}
	if _, ok := f.pdfs.objects[room.FilePath]; !ok {
		t.Error("Expected the PDF bytes to be stored under the recorded path")
	}
	if len(f.ingestor.rooms) != 1 || f.ingestor.rooms[0] != fmt.Sprintf("%d", room.ID) {
		t.Errorf("Expected ingestion keyed by the room id, got %v", f.ingestor.rooms)
	}
}

func TestCreateRoomValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		userID int64
		title  string
		data   []byte
	}{
		{"zero user id", 0, "title", []byte("x")},
		{"blank title", 7, "   ", []byte("x")},
		{"empty file", 7, "title", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := f.svc.CreateRoom(ctx, tc.userID, tc.title, tc.data)
			if !errors.Is(err, apperrors.ErrInvalidInput) {
				t.Fatalf("Expected ErrInvalidInput, got %v", err)
			}
		})
	}
	if len(f.ingestor.rooms) != 0 {
		t.Error("Expected no ingestion for rejected requests")
	}
}

func TestCreateRoomRollsBackOnIngestFailure(t *testing.T) {
	f := newFixture(t)
	f.ingestor.err = fmt.Errorf("embedder offline: %w", apperrors.ErrInternal)

	_, _, err := f.svc.CreateRoom(context.Background(), 7, "my report", []byte("%PDF-1.4"))
	if !errors.Is(err, apperrors.ErrInternal) {
		t.Fatalf("Expected ErrInternal, got %v", err)
	}

	// The transactional room row must not survive the failed ingestion.
	if _, err := f.svc.ListRooms(context.Background(), 7); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("Expected no rooms after rollback, got %v", err)
	}
}

func TestCreateRoomSurfacesIngestConflict(t *testing.T) {
	f := newFixture(t)
	f.ingestor.err = fmt.Errorf("room already ingested: %w", apperrors.ErrConflict)

	_, _, err := f.svc.CreateRoom(context.Background(), 7, "my report", []byte("%PDF-1.4"))
	if !errors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("Expected ErrConflict, got %v", err)
	}
}

func TestCreateRoomExtractionFailure(t *testing.T) {
	f := newFixture(t)
	f.texts.err = fmt.Errorf("unreadable pdf: %w", apperrors.ErrExtraction)

	_, _, err := f.svc.CreateRoom(context.Background(), 7, "my report", []byte("junk"))
	if !errors.Is(err, apperrors.ErrExtraction) {
		t.Fatalf("Expected ErrExtraction, got %v", err)
	}
	if len(f.pdfs.objects) != 0 {
		t.Error("Expected no stored object when extraction fails")
	}
}

func TestAskQuestion(t *testing.T) {
	f := newFixture(t)
	room, _, err := f.svc.CreateRoom(context.Background(), 7, "my report", []byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("CreateRoom() error = %v", err)
	}

	answer, err := f.svc.AskQuestion(context.Background(), room.ID, "what is this about?")
	if err != nil {
		t.Fatalf("AskQuestion() error = %v", err)
	}
	if answer != "generated answer" {
		t.Errorf("Expected the pipeline answer, got %q", answer)
	}
}

func TestAskQuestionUnknownRoom(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.AskQuestion(context.Background(), 999, "anyone home?")
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
	if len(f.answerer.questions) != 0 {
		t.Error("Expected no pipeline call for an unknown room")
	}
}

func TestAskQuestionRejectsEmptyQuestion(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.AskQuestion(context.Background(), 1, "   ")
	if !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestListRoomsEmptyIsNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ListRooms(context.Background(), 7)
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for a user with no rooms, got %v", err)
	}
}

func TestListMessages(t *testing.T) {
	f := newFixture(t)
	room, _, err := f.svc.CreateRoom(context.Background(), 7, "my report", []byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("CreateRoom() error = %v", err)
	}
	f.chats.msgs[room.ID] = []models.ChatMessage{
		{RoomID: room.ID, SequenceNumber: 1, Sender: models.SenderUser, Content: "q"},
		{RoomID: room.ID, SequenceNumber: 2, Sender: models.SenderSystem, Content: "a"},
	}

	msgs, err := f.svc.ListMessages(context.Background(), room.ID)
	if err != nil {
		t.Fatalf("ListMessages() error = %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(msgs))
	}
}

func TestListMessagesUnknownRoomIsEmpty(t *testing.T) {
	f := newFixture(t)

	msgs, err := f.svc.ListMessages(context.Background(), 999)
	if err != nil {
		t.Fatalf("ListMessages() error = %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("Expected an empty transcript for an unknown room, got %d messages", len(msgs))
	}
}

func TestListMessagesEmptyAfterDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	room, _, err := f.svc.CreateRoom(ctx, 7, "my report", []byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("CreateRoom() error = %v", err)
	}
	f.chats.msgs[room.ID] = []models.ChatMessage{
		{RoomID: room.ID, SequenceNumber: 1, Sender: models.SenderUser, Content: "q"},
		{RoomID: room.ID, SequenceNumber: 2, Sender: models.SenderSystem, Content: "a"},
	}

	if err := f.svc.DeleteRoom(ctx, room.ID); err != nil {
		t.Fatalf("DeleteRoom() error = %v", err)
	}

	// A deleted room reads as an empty transcript, not an error.
	msgs, err := f.svc.ListMessages(ctx, room.ID)
	if err != nil {
		t.Fatalf("ListMessages() after delete error = %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("Expected an empty transcript after deletion, got %d messages", len(msgs))
	}
}

func TestDeleteRoomCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	room, _, err := f.svc.CreateRoom(ctx, 7, "my report", []byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("CreateRoom() error = %v", err)
	}

	if err := f.svc.DeleteRoom(ctx, room.ID); err != nil {
		t.Fatalf("DeleteRoom() error = %v", err)
	}

	wantRoomKey := fmt.Sprintf("%d", room.ID)
	if len(f.vectors.deleted) != 1 || f.vectors.deleted[0] != wantRoomKey {
		t.Errorf("Expected vector deletion for room %s, got %v", wantRoomKey, f.vectors.deleted)
	}
	if len(f.chats.deletedFor) != 1 || f.chats.deletedFor[0] != room.ID {
		t.Errorf("Expected transcript deletion for room %d, got %v", room.ID, f.chats.deletedFor)
	}
	if _, err := f.svc.ListRooms(ctx, 7); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("Expected the room row to be gone, got %v", err)
	}
}

func TestDeleteRoomAggregatesLegFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	room, _, err := f.svc.CreateRoom(ctx, 7, "my report", []byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("CreateRoom() error = %v", err)
	}

	f.vectors.err = errors.New("milvus unreachable")
	f.chats.deleteErr = errors.New("mongo unreachable")

	err = f.svc.DeleteRoom(ctx, room.ID)
	if !errors.Is(err, apperrors.ErrInternal) {
		t.Fatalf("Expected ErrInternal aggregate, got %v", err)
	}

	// The relational leg still ran even though the earlier legs failed.
	if _, err := f.svc.ListRooms(ctx, 7); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("Expected the room row to be deleted despite leg failures, got %v", err)
	}
}

func TestDeleteRoomUnknownRoom(t *testing.T) {
	f := newFixture(t)

	err := f.svc.DeleteRoom(context.Background(), 999)
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
	if errors.Is(err, apperrors.ErrInternal) {
		t.Error("A missing room alone must not be reported as an internal failure")
	}
}
