package schema

const (
	// MetadataKeyRoomID is the key for the owning room's id (stored as a string).
	MetadataKeyRoomID = "room_id"
	// MetadataKeyOriginalText is the key for the chunk's original text payload.
	MetadataKeyOriginalText = "original_text"
	// MetadataKeyScore is the key for the similarity score attached by retrieval.
	MetadataKeyScore = "score"
)

// Document is the central data structure representing a chunk of text and its
// associated data. It is the primary data carrier throughout the RAG pipeline.
type Document struct {
	// ID is the unique identifier for this chunk. Ingestion assigns the
	// deterministic scheme "{room_id}-{chunk_index}".
	ID string

	// Text is the string content of the chunk.
	Text string

	// Embedding is the vector representation of the text.
	Embedding []float32

	// Metadata holds arbitrary data about the chunk, such as room_id and
	// the retrieval score.
	Metadata map[string]interface{}
}
