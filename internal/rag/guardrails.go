package rag

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/v7mdd/MoodleMate/internal/models"
)

// greeting replies shorter than this carry no citations
const greetingMaxLength = 60

// Citation formats a chunk's source as "<file> (Page N)", N being 1-based.
func Citation(chunk models.RetrievedChunk) string {
	return fmt.Sprintf("%s (Page %d)", filepath.Base(chunk.Source), chunk.PageNumber+1)
}

// FilterCitations returns the deduplicated citations for an answer, or none
// when the model disclaims knowledge or the answer is a short greeting.
// Both checks are plain case-insensitive substring matches.
func FilterCitations(answer string, chunksUsed []models.RetrievedChunk) []string {
	sources := []string{}
	seen := make(map[string]struct{}, len(chunksUsed))
	for _, chunk := range chunksUsed {
		id := Citation(chunk)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		sources = append(sources, id)
	}

	lower := strings.ToLower(answer)
	if containsAny(lower, models.DisclaimerPhrases) {
		return []string{}
	}
	if containsAny(lower, models.GreetingPhrases) && utf8.RuneCountInString(answer) < greetingMaxLength {
		return []string{}
	}
	return sources
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
