package splitters

import (
	"strings"
	"unicode/utf8"

	"DocTalk/internal/qa_service/rag/interfaces"
)

// defaultSeparators are tried largest-semantic-unit first; the empty string
// falls back to per-character windows.
var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// RecursiveCharacterSplitter implements the Splitter interface by recursively
// breaking text on the largest separator that still occurs in it, then merging
// the pieces into chunks of at most ChunkSize characters where each chunk
// after the first overlaps the previous by ChunkOverlap characters.
//
// Splitting is purely positional and deterministic, so the index of a chunk in
// the returned sequence is stable for a given input and configuration.
type RecursiveCharacterSplitter struct {
	ChunkSize    int
	ChunkOverlap int
	separators   []string
}

// NewRecursiveCharacterSplitter creates a new RecursiveCharacterSplitter.
func NewRecursiveCharacterSplitter(chunkSize, chunkOverlap int) *RecursiveCharacterSplitter {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = 0
	}
	return &RecursiveCharacterSplitter{
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
		separators:   defaultSeparators,
	}
}

// Split splits text into an ordered sequence of chunk strings.
func (s *RecursiveCharacterSplitter) Split(text string) []string {
	if text == "" {
		return nil
	}
	return s.splitText(text, s.separators)
}

// splitText picks the first separator present in the text, splits on it, and
// recurses with the remaining separators for any piece still larger than a
// chunk. Separators stay attached to the preceding piece so that joining the
// pieces reproduces the original text byte for byte.
func (s *RecursiveCharacterSplitter) splitText(text string, separators []string) []string {
	separator := separators[len(separators)-1]
	var next []string
	for i, sep := range separators {
		if sep == "" || strings.Contains(text, sep) {
			separator = sep
			next = separators[i+1:]
			break
		}
	}

	splits := splitKeepSeparator(text, separator)

	var chunks []string
	var good []string
	for _, piece := range splits {
		if utf8.RuneCountInString(piece) < s.ChunkSize {
			good = append(good, piece)
			continue
		}
		if len(good) > 0 {
			chunks = append(chunks, s.merge(good)...)
			good = nil
		}
		if len(next) == 0 {
			chunks = append(chunks, piece)
		} else {
			chunks = append(chunks, s.splitText(piece, next)...)
		}
	}
	if len(good) > 0 {
		chunks = append(chunks, s.merge(good)...)
	}
	return chunks
}

// merge packs pieces into chunks of at most ChunkSize characters, carrying the
// trailing ChunkOverlap characters of a finished chunk into the next one.
func (s *RecursiveCharacterSplitter) merge(splits []string) []string {
	var chunks []string
	var current []string
	total := 0
	for _, piece := range splits {
		n := utf8.RuneCountInString(piece)
		if total+n > s.ChunkSize && total > 0 {
			chunks = append(chunks, strings.Join(current, ""))
			// Drop pieces from the front until only the overlap remains.
			for total > s.ChunkOverlap || (total+n > s.ChunkSize && total > 0) {
				if len(current) == 0 {
					break
				}
				total -= utf8.RuneCountInString(current[0])
				current = current[1:]
			}
		}
		current = append(current, piece)
		total += n
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, ""))
	}
	return chunks
}

// splitKeepSeparator splits text on sep keeping the separator attached to the
// preceding piece. The empty separator splits into individual characters.
func splitKeepSeparator(text, sep string) []string {
	if sep == "" {
		return strings.Split(text, "")
	}
	return strings.SplitAfter(text, sep)
}

// compile-time check to ensure RecursiveCharacterSplitter implements the Splitter interface
var _ interfaces.Splitter = (*RecursiveCharacterSplitter)(nil)
