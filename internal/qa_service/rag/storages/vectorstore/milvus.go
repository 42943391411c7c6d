package vectorstore

import (
	"context"
	"fmt"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"DocTalk/internal/database/milvus"
	"DocTalk/internal/qa_service/rag/interfaces"
	"DocTalk/internal/qa_service/rag/schema"
	"DocTalk/pkg/logger"
)

const (
	// Schema fields of the Milvus collection holding the chunk vectors.
	FieldID           = "id"
	FieldRoomID       = "room_id"
	FieldOriginalText = "original_text"
	FieldEmbedding    = "embedding"
)

// MilvusStore is an adapter for the Milvus client that implements the
// VectorStore interface. All operations are scoped to a room through an
// expression filter on the room_id field.
type MilvusStore struct {
	log        logger.Logger
	client     client.Client // The raw client from the MilvusClient wrapper
	collection string
	dim        int
}

// NewMilvusStore creates a new MilvusStore adapter.
// It takes the project's MilvusClient wrapper and the embedding dimension of
// the collection's vector field.
func NewMilvusStore(milvusClient *milvus.MilvusClient, dim int, log logger.Logger) (*MilvusStore, error) {
	if milvusClient == nil || milvusClient.Client == nil {
		return nil, fmt.Errorf("milvus client is not initialized")
	}
	return &MilvusStore{
		log:        log,
		client:     milvusClient.Client,
		collection: milvusClient.Config.Schema.CollectionName,
		dim:        dim,
	}, nil
}

// Upsert writes one batch of documents into the Milvus collection.
// Each document must carry its room id and original text in Metadata.
func (s *MilvusStore) Upsert(ctx context.Context, docs []*schema.Document) error {
	if len(docs) == 0 {
		return nil
	}

	ids := make([]string, len(docs))
	roomIDs := make([]string, len(docs))
	texts := make([]string, len(docs))
	embeddings := make([][]float32, len(docs))

	for i, doc := range docs {
		ids[i] = doc.ID
		embeddings[i] = doc.Embedding
		if rid, ok := doc.Metadata[schema.MetadataKeyRoomID].(string); ok {
			roomIDs[i] = rid
		}
		texts[i] = doc.Text
	}

	idCol := entity.NewColumnVarChar(FieldID, ids)
	roomIDCol := entity.NewColumnVarChar(FieldRoomID, roomIDs)
	textCol := entity.NewColumnVarChar(FieldOriginalText, texts)
	embeddingCol := entity.NewColumnFloatVector(FieldEmbedding, s.dim, embeddings)

	s.log.Info(fmt.Sprintf("Upserting %d vectors into Milvus collection: %s", len(docs), s.collection))
	_, err := s.client.Upsert(ctx, s.collection, "" /* default partition */, idCol, roomIDCol, textCol, embeddingCol)
	if err != nil {
		s.log.Error(fmt.Sprintf("Failed to upsert data into Milvus: %v", err))
		return fmt.Errorf("failed to upsert data into Milvus: %w", err)
	}

	return nil
}

// Query performs a vector search restricted to one room and returns the topK
// most similar chunks with their original text and score.
func (s *MilvusStore) Query(ctx context.Context, embedding []float32, topK int, roomID string) ([]*schema.Document, error) {
	filterExpr := roomFilter(roomID)

	searchParams, _ := entity.NewIndexIvfFlatSearchParam(10)
	outputFields := []string{FieldID, FieldOriginalText, FieldRoomID}

	s.log.Info(fmt.Sprintf("Querying Milvus collection '%s' with filter: '%s'", s.collection, filterExpr))

	searchResults, err := s.client.Search(
		ctx, s.collection, []string{}, filterExpr, outputFields,
		[]entity.Vector{entity.FloatVector(embedding)},
		FieldEmbedding, entity.L2, topK, searchParams,
	)
	if err != nil {
		s.log.Error(fmt.Sprintf("Failed to search in Milvus: %v", err))
		return nil, fmt.Errorf("failed to search in Milvus: %w", err)
	}

	var results []*schema.Document
	for _, res := range searchResults {
		findColumn := func(name string) entity.Column {
			for _, field := range res.Fields {
				if field.Name() == name {
					return field
				}
			}
			return nil
		}

		idCol, ok := findColumn(FieldID).(*entity.ColumnVarChar)
		if !ok {
			s.log.Warn("Search result is missing ID field or has wrong type, skipping.")
			continue
		}
		idData := idCol.Data()

		var textData, roomData []string
		if textCol, ok := findColumn(FieldOriginalText).(*entity.ColumnVarChar); ok {
			textData = textCol.Data()
		}
		if roomCol, ok := findColumn(FieldRoomID).(*entity.ColumnVarChar); ok {
			roomData = roomCol.Data()
		}

		for i := 0; i < res.ResultCount; i++ {
			doc := &schema.Document{
				ID:       idData[i],
				Metadata: map[string]interface{}{schema.MetadataKeyScore: res.Scores[i]},
			}
			if textData != nil {
				doc.Text = textData[i]
			}
			if roomData != nil {
				doc.Metadata[schema.MetadataKeyRoomID] = roomData[i]
			}
			results = append(results, doc)
		}
	}

	return results, nil
}

// DeleteByRoom removes every vector belonging to the room.
func (s *MilvusStore) DeleteByRoom(ctx context.Context, roomID string) error {
	expr := roomFilter(roomID)
	s.log.Info(fmt.Sprintf("Deleting vectors from Milvus collection '%s' with filter: '%s'", s.collection, expr))
	if err := s.client.Delete(ctx, s.collection, "", expr); err != nil {
		s.log.Error(fmt.Sprintf("Failed to delete vectors from Milvus: %v", err))
		return fmt.Errorf("failed to delete vectors from Milvus: %w", err)
	}
	return nil
}

// HasRoom reports whether at least one vector exists for the room. Presence
// of a single vector is enough: ingestion uses this as its dedupe guard.
func (s *MilvusStore) HasRoom(ctx context.Context, roomID string) (bool, error) {
	rs, err := s.client.Query(ctx, s.collection, nil, roomFilter(roomID), []string{FieldID}, client.WithLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to query Milvus for room %s: %w", roomID, err)
	}
	idCol := rs.GetColumn(FieldID)
	return idCol != nil && idCol.Len() > 0, nil
}

// roomFilter builds the Milvus boolean expression scoping an operation to one room.
func roomFilter(roomID string) string {
	return fmt.Sprintf(`%s == "%s"`, FieldRoomID, roomID)
}

// compile-time check to ensure MilvusStore implements the VectorStore interface
var _ interfaces.VectorStore = (*MilvusStore)(nil)
