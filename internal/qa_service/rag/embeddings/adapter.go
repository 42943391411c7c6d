package embeddings

import (
	"context"

	"DocTalk/internal/embedding"
	"DocTalk/internal/qa_service/rag/interfaces"
)

// Adapter adapts the project's provider-specific embedding clients to the
// generic EmbeddingModel interface used by the pipelines.
type Adapter struct {
	client embedding.Embedding
}

// NewAdapter creates a new adapter around any configured embedding client.
func NewAdapter(client embedding.Embedding) *Adapter {
	return &Adapter{client: client}
}

// Embed calls the underlying client's EmbedBatch method to satisfy the
// EmbeddingModel interface.
func (a *Adapter) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return a.client.EmbedBatch(ctx, texts)
}

// compile-time check to ensure Adapter implements the EmbeddingModel interface
var _ interfaces.EmbeddingModel = (*Adapter)(nil)
