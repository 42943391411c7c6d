// Package cache avoids repeated PDF extraction by keeping extracted text on
// disk, keyed by the human-supplied upload title.
//
// Keying by title (rather than room id or a content hash) means two uploads
// sharing a title reuse the first upload's cached text, even if the file
// differs. That is the historical behavior of this cache and is kept as is.
package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"DocTalk/internal/qa_service/rag/interfaces"
	"DocTalk/pkg/logger"
)

// TextCache is a durable file cache in front of the text extractor.
type TextCache struct {
	dir       string
	extractor interfaces.Extractor
	log       logger.Logger
}

// NewTextCache creates a TextCache rooted at dir, creating it if needed.
func NewTextCache(dir string, extractor interfaces.Extractor, log logger.Logger) (*TextCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create text cache dir %s: %w", dir, err)
	}
	return &TextCache{dir: dir, extractor: extractor, log: log}, nil
}

// GetText returns the extracted text for the given title. A cache hit returns
// the stored file contents without touching the source bytes; a miss extracts
// the text, persists it under the title, and returns it. Cache write failures
// are not masked.
func (c *TextCache) GetText(ctx context.Context, title string, data []byte) (string, error) {
	// Base() strips any path components a caller smuggles into the title, so
	// cache files never land outside the cache dir.
	path := filepath.Join(c.dir, filepath.Base(title)+".txt")

	if content, err := os.ReadFile(path); err == nil {
		c.log.Info(fmt.Sprintf("Loading extracted text from cache: %s", path))
		return string(content), nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("read text cache %s: %w", path, err)
	}

	c.log.Info("No cache entry found, extracting text from source")
	text, err := c.extractor.Extract(ctx, data)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("write text cache %s: %w", path, err)
	}
	c.log.Info(fmt.Sprintf("Saved extracted text to cache: %s", path))

	return text, nil
}
