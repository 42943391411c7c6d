package pipeline

import (
	"context"
	"fmt"
	"strings"

	"DocTalk/internal/qa_service/apperrors"
	"DocTalk/internal/qa_service/rag/interfaces"
	"DocTalk/internal/qa_service/rag/schema"
	"DocTalk/pkg/logger"
)

// defaultBatchSize bounds a single upsert request to respect vector-store
// payload limits.
const defaultBatchSize = 100

// IngestionPipeline orchestrates the one-time ingestion of a room's text:
// dedupe check, splitting, embedding, and batched upserts into the vector
// store.
type IngestionPipeline struct {
	splitter    interfaces.Splitter
	embedder    interfaces.EmbeddingModel
	vectorStore interfaces.VectorStore
	batchSize   int
	dim         int
	log         logger.Logger
}

// NewIngestionPipeline creates a new IngestionPipeline. dim is the expected
// embedding dimension; zero disables the dimension check.
func NewIngestionPipeline(
	splitter interfaces.Splitter,
	embedder interfaces.EmbeddingModel,
	vectorStore interfaces.VectorStore,
	batchSize int,
	dim int,
	log logger.Logger,
) *IngestionPipeline {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &IngestionPipeline{
		splitter:    splitter,
		embedder:    embedder,
		vectorStore: vectorStore,
		batchSize:   batchSize,
		dim:         dim,
		log:         log,
	}
}

// Ingest runs the full pipeline for one room and returns the number of chunks
// stored. Ingestion for a room id is a one-time operation: if any vector for
// the room already exists the call fails with ErrConflict and nothing is
// written.
//
// Batches are upserted in increasing chunk-index order but there is no
// atomicity across batches; a failure mid-way can leave a partially populated
// room, which the presence-based dedupe guard then treats as ingested.
func (p *IngestionPipeline) Ingest(ctx context.Context, roomID string, text string) (int, error) {
	exists, err := p.vectorStore.HasRoom(ctx, roomID)
	if err != nil {
		return 0, fmt.Errorf("dedupe check for room %s: %w: %v", roomID, apperrors.ErrInternal, err)
	}
	if exists {
		return 0, fmt.Errorf("room %s already has ingested vectors: %w", roomID, apperrors.ErrConflict)
	}

	if strings.TrimSpace(text) == "" {
		return 0, fmt.Errorf("no text extracted from the document: %w", apperrors.ErrInvalidInput)
	}

	chunks := p.splitter.Split(text)
	p.log.Info(fmt.Sprintf("Split text for room %s into %d chunks", roomID, len(chunks)))

	embeddings, err := p.embedder.Embed(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("embed chunks for room %s: %w: %v", roomID, apperrors.ErrInternal, err)
	}
	if len(embeddings) != len(chunks) {
		return 0, fmt.Errorf("embedder returned %d vectors for %d chunks: %w", len(embeddings), len(chunks), apperrors.ErrInternal)
	}

	docs := make([]*schema.Document, len(chunks))
	for i, chunk := range chunks {
		if p.dim > 0 && len(embeddings[i]) != p.dim {
			return 0, fmt.Errorf("embedding %d has dimension %d, expected %d: %w", i, len(embeddings[i]), p.dim, apperrors.ErrInternal)
		}
		docs[i] = &schema.Document{
			// Deterministic id scheme: chunk index is the zero-based position
			// in the split sequence.
			ID:        fmt.Sprintf("%s-%d", roomID, i),
			Text:      chunk,
			Embedding: embeddings[i],
			Metadata: map[string]interface{}{
				schema.MetadataKeyRoomID:       roomID,
				schema.MetadataKeyOriginalText: chunk,
			},
		}
	}

	for start := 0; start < len(docs); start += p.batchSize {
		end := start + p.batchSize
		if end > len(docs) {
			end = len(docs)
		}
		p.log.Info(fmt.Sprintf("Upserting batch %d for room %s (%d vectors)", start/p.batchSize+1, roomID, end-start))
		if err := p.vectorStore.Upsert(ctx, docs[start:end]); err != nil {
			return 0, fmt.Errorf("upsert batch starting at %d for room %s: %w: %v", start, roomID, apperrors.ErrInternal, err)
		}
	}

	p.log.Info(fmt.Sprintf("Successfully ingested %d chunks for room %s", len(chunks), roomID))
	return len(chunks), nil
}
