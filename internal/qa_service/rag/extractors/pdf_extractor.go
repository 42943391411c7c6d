package extractors

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"DocTalk/internal/qa_service/apperrors"
	"DocTalk/internal/qa_service/rag/interfaces"
)

// PDFExtractor implements the Extractor interface for PDF file bytes.
type PDFExtractor struct{}

// NewPDFExtractor creates a new PDFExtractor.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// Extract reads the PDF from raw bytes and returns the plain text of all
// pages joined by a single space. Malformed input surfaces as ErrExtraction.
func (e *PDFExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w: %v", apperrors.ErrExtraction, err)
	}

	parts := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extract page %d: %w: %v", i, apperrors.ErrExtraction, err)
		}
		parts = append(parts, text)
	}

	return strings.Join(parts, " "), nil
}

// compile-time check to ensure PDFExtractor implements the Extractor interface
var _ interfaces.Extractor = (*PDFExtractor)(nil)
