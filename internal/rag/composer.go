package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"

	"github.com/v7mdd/MoodleMate/internal/llmservice"
	"github.com/v7mdd/MoodleMate/internal/models"
)

// Answer is the raw model answer and the chunks that were in its prompt.
type Answer struct {
	Text       string
	ChunksUsed []models.RetrievedChunk
}

// Composer grounds a question in retrieved chunks and asks the model once.
//
// The security instructions in the system prompt are a best-effort mitigation
// against prompt disclosure and instruction override. Model adherence is
// probabilistic and nothing here guarantees non-disclosure.
type Composer struct {
	llm         llmservice.Generator
	temperature float64
}

func NewComposer(llm llmservice.Generator, temperature float64) *Composer {
	return &Composer{llm: llm, temperature: temperature}
}

// BuildPrompt returns the system message (instructions, security block and
// context) followed by the user's query.
func BuildPrompt(query string, chunks []models.RetrievedChunk) []llms.MessageContent {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	var system strings.Builder
	system.WriteString(models.SystemPromptTemplate)
	system.WriteString(models.SecurityPromptTemplate)
	system.WriteString(strings.Join(texts, models.ContextSeparator))

	return []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextContent{Text: system.String()}},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextContent{Text: query}},
		},
	}
}

func (c *Composer) Answer(ctx context.Context, query string, chunks []models.RetrievedChunk) (Answer, error) {
	messages := BuildPrompt(query, chunks)

	text, err := llmservice.GenerateContent(ctx, c.llm, messages, c.temperature)
	if err != nil {
		return Answer{}, fmt.Errorf("%w: %v", models.ErrGeneration, err)
	}
	log.Debug().Int("chunks", len(chunks)).Int("answer_len", len(text)).Msg("Generated answer")

	return Answer{Text: text, ChunksUsed: chunks}, nil
}
