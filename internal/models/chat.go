package models

import "time"

// ChatResponse is returned for every answered message.
type ChatResponse struct {
	Answer       string   `json:"response"`
	SessionID    string   `json:"session_id"`
	IsNewSession bool     `json:"new_session"`
	Sources      []string `json:"sources"`
}

type SessionSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type HistoryMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// IndexSummary is the result of an ingest run.
type IndexSummary struct {
	DocumentCount int       `json:"document_count"`
	ChunkCount    int       `json:"chunk_count"`
	BuiltAt       time.Time `json:"built_at"`
}

// SessionTitle derives a session title from the first user message.
func SessionTitle(message string) string {
	runes := []rune(message)
	if len(runes) > MaxTitleLength {
		return string(runes[:MaxTitleLength]) + "..."
	}
	return message
}
