package llmservice

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/v7mdd/MoodleMate/internal/config"
	"github.com/v7mdd/MoodleMate/internal/models"
)

// Generator is the part of llms.Model used to answer questions.
type Generator interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// NewLLM creates an OpenAI-compatible chat client (Groq by default).
func NewLLM(llmConfig *config.LLMConfig) (*openai.LLM, error) {
	log.Debug().
		Str("base_url", llmConfig.BaseURL).
		Str("model", llmConfig.Model).
		Float64("temperature", llmConfig.Temperature).
		Msg("Creating LLM client")

	key := llmConfig.APIKey()
	if key == "" {
		return nil, fmt.Errorf("%w: %s not set", models.ErrConfiguration, llmConfig.APIKeyEnv)
	}
	llm, err := openai.New(
		openai.WithBaseURL(llmConfig.BaseURL),
		openai.WithToken(key),
		openai.WithModel(llmConfig.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrConfiguration, err)
	}
	return llm, nil
}

// call llm once and return the text of the first choice
func GenerateContent(ctx context.Context, llm Generator, messages []llms.MessageContent, temperature float64) (string, error) {
	res, err := llm.GenerateContent(ctx, messages, llms.WithTemperature(temperature))
	if err != nil {
		return "", err
	}
	if res == nil || len(res.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}
	return res.Choices[0].Content, nil
}
