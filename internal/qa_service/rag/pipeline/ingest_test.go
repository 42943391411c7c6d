package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"DocTalk/internal/qa_service/apperrors"
	"DocTalk/internal/qa_service/rag/schema"
	"DocTalk/pkg/logger"
)

func testLogger() logger.Logger {
	return *logger.New("test", "")
}

type fakeSplitter struct {
	chunks []string
}

func (f *fakeSplitter) Split(text string) []string { return f.chunks }

type fakeEmbedder struct {
	dim   int
	short bool
	empty bool
	err   error
	calls int
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.empty {
		return nil, nil
	}
	n := len(texts)
	if f.short {
		n--
	}
	out := make([][]float32, n)
	for i := range out {
		out[i] = make([]float32, f.dim)
	}
	return out, nil
}

type fakeVectorStore struct {
	hasRoom    bool
	hasRoomErr error
	failBatch  int // 1-based index of the Upsert call that fails; 0 never fails
	batches    [][]*schema.Document
	deleted    []string
}

func (f *fakeVectorStore) Upsert(ctx context.Context, docs []*schema.Document) error {
	f.batches = append(f.batches, docs)
	if f.failBatch > 0 && len(f.batches) == f.failBatch {
		return errors.New("upsert exploded")
	}
	return nil
}

func (f *fakeVectorStore) Query(ctx context.Context, embedding []float32, topK int, roomID string) ([]*schema.Document, error) {
	return nil, nil
}

func (f *fakeVectorStore) DeleteByRoom(ctx context.Context, roomID string) error {
	f.deleted = append(f.deleted, roomID)
	return nil
}

func (f *fakeVectorStore) HasRoom(ctx context.Context, roomID string) (bool, error) {
	return f.hasRoom, f.hasRoomErr
}

func manyChunks(n int) []string {
	chunks := make([]string, n)
	for i := range chunks {
		chunks[i] = fmt.Sprintf("chunk %d", i)
	}
	return chunks
}

func TestIngestRejectsAlreadyIngestedRoom(t *testing.T) {
	store := &fakeVectorStore{hasRoom: true}
	embedder := &fakeEmbedder{dim: 3}
	p := NewIngestionPipeline(&fakeSplitter{chunks: []string{"a"}}, embedder, store, 100, 3, testLogger())

	_, err := p.Ingest(context.Background(), "7", "some text")
	if !errors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("Expected ErrConflict, got %v", err)
	}
	if len(store.batches) != 0 {
		t.Errorf("Expected no upserts for a duplicate room, got %d", len(store.batches))
	}
	if embedder.calls != 0 {
		t.Errorf("Expected no embedding calls for a duplicate room, got %d", embedder.calls)
	}
}

func TestIngestRejectsEmptyText(t *testing.T) {
	store := &fakeVectorStore{}
	embedder := &fakeEmbedder{dim: 3}
	p := NewIngestionPipeline(&fakeSplitter{}, embedder, store, 100, 3, testLogger())

	_, err := p.Ingest(context.Background(), "7", "   \n\t ")
	if !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("Expected ErrInvalidInput, got %v", err)
	}
	if len(store.batches) != 0 || embedder.calls != 0 {
		t.Error("Expected no store or embedder activity for empty text")
	}
}

func TestIngestBatchesInOrderWithDeterministicIDs(t *testing.T) {
	store := &fakeVectorStore{}
	p := NewIngestionPipeline(&fakeSplitter{chunks: manyChunks(250)}, &fakeEmbedder{dim: 3}, store, 100, 3, testLogger())

	count, err := p.Ingest(context.Background(), "7", "long document")
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if count != 250 {
		t.Errorf("Expected 250 chunks reported, got %d", count)
	}

	if len(store.batches) != 3 {
		t.Fatalf("Expected 3 batches, got %d", len(store.batches))
	}
	for i, want := range []int{100, 100, 50} {
		if len(store.batches[i]) != want {
			t.Errorf("Expected batch %d to hold %d documents, got %d", i, want, len(store.batches[i]))
		}
	}

	// Ids follow the room and the zero-based chunk index across batches.
	idx := 0
	for _, batch := range store.batches {
		for _, doc := range batch {
			wantID := fmt.Sprintf("7-%d", idx)
			if doc.ID != wantID {
				t.Fatalf("Expected document id %s, got %s", wantID, doc.ID)
			}
			if doc.Metadata[schema.MetadataKeyRoomID] != "7" {
				t.Fatalf("Expected room id metadata on document %s", doc.ID)
			}
			if doc.Metadata[schema.MetadataKeyOriginalText] != doc.Text {
				t.Fatalf("Expected original text metadata to match chunk text on %s", doc.ID)
			}
			idx++
		}
	}
}

func TestIngestFailsOnEmbeddingCountMismatch(t *testing.T) {
	store := &fakeVectorStore{}
	p := NewIngestionPipeline(&fakeSplitter{chunks: manyChunks(5)}, &fakeEmbedder{dim: 3, short: true}, store, 100, 3, testLogger())

	_, err := p.Ingest(context.Background(), "7", "text")
	if !errors.Is(err, apperrors.ErrInternal) {
		t.Fatalf("Expected ErrInternal on count mismatch, got %v", err)
	}
	if len(store.batches) != 0 {
		t.Error("Expected no upserts after a count mismatch")
	}
}

func TestIngestFailsOnDimensionMismatch(t *testing.T) {
	store := &fakeVectorStore{}
	p := NewIngestionPipeline(&fakeSplitter{chunks: manyChunks(5)}, &fakeEmbedder{dim: 3}, store, 100, 4, testLogger())

	_, err := p.Ingest(context.Background(), "7", "text")
	if !errors.Is(err, apperrors.ErrInternal) {
		t.Fatalf("Expected ErrInternal on dimension mismatch, got %v", err)
	}
	if len(store.batches) != 0 {
		t.Error("Expected no upserts after a dimension mismatch")
	}
}

func TestIngestStopsOnUpsertFailure(t *testing.T) {
	store := &fakeVectorStore{failBatch: 2}
	p := NewIngestionPipeline(&fakeSplitter{chunks: manyChunks(250)}, &fakeEmbedder{dim: 3}, store, 100, 3, testLogger())

	_, err := p.Ingest(context.Background(), "7", "text")
	if !errors.Is(err, apperrors.ErrInternal) {
		t.Fatalf("Expected ErrInternal on upsert failure, got %v", err)
	}
	// The failing batch is the last one attempted.
	if len(store.batches) != 2 {
		t.Errorf("Expected ingestion to stop after the failing batch, got %d batches", len(store.batches))
	}
}
