package parser

import (
	"strings"

	"github.com/v7mdd/MoodleMate/internal/models"
)

const (
	DefaultChunkSize    = 1000 // characters
	DefaultChunkOverlap = 200  // characters
)

// Chunker splits page text into overlapping fixed-size chunks.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 {
		chunkOverlap = 0
	}
	if chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 2
	}
	return &Chunker{chunkSize: chunkSize, chunkOverlap: chunkOverlap}
}

func (c *Chunker) ChunkSize() int    { return c.chunkSize }
func (c *Chunker) ChunkOverlap() int { return c.chunkOverlap }

// Split chunks every page of doc. Chunks never span two pages.
func (c *Chunker) Split(doc models.Document) []models.Chunk {
	var chunks []models.Chunk
	for _, page := range doc.Pages {
		for _, s := range chunkContent(page.Text, c.chunkSize, c.chunkOverlap) {
			chunks = append(chunks, models.Chunk{
				Content:    s.text,
				Source:     doc.Path,
				PageNumber: page.Number,
				StartIndex: s.start,
				ChunkID:    len(chunks) + 1,
			})
		}
	}
	return chunks
}

// SplitAll chunks documents in order.
func (c *Chunker) SplitAll(docs []models.Document) []models.Chunk {
	var chunks []models.Chunk
	for _, doc := range docs {
		chunks = append(chunks, c.Split(doc)...)
	}
	return chunks
}

type segment struct {
	text  string
	start int
}

func isBreak(r rune) bool {
	return r == ' ' || r == '\n' || r == '.'
}

// chunk content into segments of at most maxChars runes. Consecutive segments
// share exactly overlapChars runes; start is the rune offset in content.
func chunkContent(content string, maxChars, overlapChars int) []segment {
	runes := []rune(content)
	contentLen := len(runes)
	if contentLen == 0 || maxChars <= 0 {
		return nil
	}

	var segments []segment
	start := 0
	for start < contentLen {
		end := min(start+maxChars, contentLen)

		// Prefer a clean break in the last 10% of the window, as long as the
		// next window still moves forward.
		if end < contentLen {
			lookBack := maxChars / 10
			for i := end - 1; i >= end-lookBack && i >= start+overlapChars; i-- {
				if isBreak(runes[i]) {
					end = i + 1
					break
				}
			}
		}

		// blank windows are dropped, so their neighbours may not share
		// overlapChars runes
		text := string(runes[start:end])
		if strings.TrimSpace(text) != "" {
			segments = append(segments, segment{text: text, start: start})
		}

		if end >= contentLen {
			break
		}
		start = end - overlapChars
	}

	return segments
}
