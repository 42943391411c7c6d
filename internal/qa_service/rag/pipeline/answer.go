package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"DocTalk/internal/models"
	"DocTalk/internal/qa_service/apperrors"
	"DocTalk/internal/qa_service/rag/interfaces"
	"DocTalk/internal/qa_service/rag/schema"
	"DocTalk/pkg/logger"
)

// Transcript persists the per-room chat log the pipeline writes question and
// answer messages into.
type Transcript interface {
	NextSequenceNumber(ctx context.Context, roomID int64) (int64, error)
	Append(ctx context.Context, msg *models.ChatMessage) error
}

// AnswerPipeline answers a question against one room's ingested chunks and
// records both the question and the answer in the room's transcript.
type AnswerPipeline struct {
	embedder    interfaces.EmbeddingModel
	vectorStore interfaces.VectorStore
	llm         interfaces.LLM
	transcript  Transcript
	topK        int
	log         logger.Logger
}

// NewAnswerPipeline creates a new AnswerPipeline. topK is a retriever
// configuration, not something the caller controls per request.
func NewAnswerPipeline(
	embedder interfaces.EmbeddingModel,
	vectorStore interfaces.VectorStore,
	llm interfaces.LLM,
	transcript Transcript,
	topK int,
	log logger.Logger,
) *AnswerPipeline {
	if topK <= 0 {
		topK = 4
	}
	return &AnswerPipeline{
		embedder:    embedder,
		vectorStore: vectorStore,
		llm:         llm,
		transcript:  transcript,
		topK:        topK,
		log:         log,
	}
}

// Answer persists the question, retrieves the room's most similar chunks,
// generates an answer from them, persists it, and returns the answer text.
//
// The question message is written before anything else: if retrieval or
// generation fails afterwards the transcript keeps an orphan question with no
// paired answer. That partial write is deliberate and is not rolled back.
func (p *AnswerPipeline) Answer(ctx context.Context, roomID int64, question string) (string, error) {
	if err := p.appendMessage(ctx, roomID, models.SenderUser, question); err != nil {
		return "", fmt.Errorf("persist question for room %d: %w: %v", roomID, apperrors.ErrInternal, err)
	}

	queryEmbeddings, err := p.embedder.Embed(ctx, []string{question})
	if err != nil {
		return "", fmt.Errorf("embed question for room %d: %w: %v", roomID, apperrors.ErrInternal, err)
	}
	if len(queryEmbeddings) == 0 {
		return "", fmt.Errorf("embedder returned no vector for the question in room %d: %w", roomID, apperrors.ErrInternal)
	}

	docs, err := p.vectorStore.Query(ctx, queryEmbeddings[0], p.topK, strconv.FormatInt(roomID, 10))
	if err != nil {
		return "", fmt.Errorf("query vectors for room %d: %w: %v", roomID, apperrors.ErrInternal, err)
	}
	p.log.Info(fmt.Sprintf("Retrieved %d context chunks for room %d", len(docs), roomID))

	// "Stuff" strategy: all retrieved context goes into a single prompt.
	prompt := p.buildPrompt(question, docs)

	answer, err := p.llm.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generate answer for room %d: %w: %v", roomID, apperrors.ErrInternal, err)
	}

	if err := p.appendMessage(ctx, roomID, models.SenderSystem, answer); err != nil {
		return "", fmt.Errorf("persist answer for room %d: %w: %v", roomID, apperrors.ErrInternal, err)
	}

	return answer, nil
}

// appendMessage computes the next sequence number for the room and inserts
// the message. This is a read-then-write with no locking: two concurrent
// writers can compute the same sequence number, producing a duplicate but
// never a gap.
func (p *AnswerPipeline) appendMessage(ctx context.Context, roomID int64, sender, content string) error {
	seq, err := p.transcript.NextSequenceNumber(ctx, roomID)
	if err != nil {
		return err
	}
	return p.transcript.Append(ctx, &models.ChatMessage{
		RoomID:         roomID,
		SequenceNumber: seq,
		Sender:         sender,
		Content:        content,
		Timestamp:      time.Now().UTC(),
	})
}

// buildPrompt constructs a prompt string from a question and a list of
// context documents.
func (p *AnswerPipeline) buildPrompt(question string, documents []*schema.Document) string {
	var sb strings.Builder

	sb.WriteString("Based on the following context, please answer the question.\n\nContext:\n")

	for i, doc := range documents {
		sb.WriteString("---\n")
		sb.WriteString(fmt.Sprintf("Context %d:\n%s\n", i+1, doc.Text))
	}

	sb.WriteString("---\n\n")
	sb.WriteString(fmt.Sprintf("Question: %s", question))

	return sb.String()
}
