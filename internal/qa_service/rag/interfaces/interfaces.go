package interfaces

import (
	"context"

	"DocTalk/internal/qa_service/rag/schema"
)

// Extractor is the interface for turning raw uploaded file bytes into plain text.
type Extractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
}

// Splitter is the interface for splitting a text into smaller chunks.
// Implementations must be deterministic: the same input and parameters always
// yield the same chunk sequence, because the chunk index becomes part of the
// vector id.
type Splitter interface {
	Split(text string) []string
}

// VectorStore is the interface for storing and querying chunk vectors,
// scoped to a room.
type VectorStore interface {
	// Upsert writes one batch of documents. Callers are responsible for
	// batching; a single call maps to a single store request.
	Upsert(ctx context.Context, docs []*schema.Document) error
	// Query runs a similarity search restricted to vectors whose room_id
	// metadata equals roomID, returning the topK most similar documents.
	Query(ctx context.Context, embedding []float32, topK int, roomID string) ([]*schema.Document, error)
	// DeleteByRoom removes every vector belonging to the room.
	DeleteByRoom(ctx context.Context, roomID string) error
	// HasRoom reports whether at least one vector exists for the room.
	HasRoom(ctx context.Context, roomID string) (bool, error)
}

// EmbeddingModel is the interface for a text embedding model.
type EmbeddingModel interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// LLM is the interface for a large language model that can generate text.
type LLM interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
