package llmservice

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/v7mdd/MoodleMate/internal/config"
	"github.com/v7mdd/MoodleMate/internal/models"
)

type stubModel struct {
	resp *llms.ContentResponse
	err  error
	opts llms.CallOptions
}

func (s *stubModel) GenerateContent(_ context.Context, _ []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	for _, o := range options {
		o(&s.opts)
	}
	return s.resp, s.err
}

func TestGenerateContent(t *testing.T) {
	m := &stubModel{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "Gradient descent."}}}}

	text, err := GenerateContent(context.Background(), m, nil, 0.5)
	require.NoError(t, err)
	assert.Equal(t, "Gradient descent.", text)
	assert.Equal(t, 0.5, m.opts.Temperature)
}

func TestGenerateContent_Errors(t *testing.T) {
	_, err := GenerateContent(context.Background(), &stubModel{err: errors.New("429 rate limited")}, nil, 0.5)
	assert.ErrorContains(t, err, "429")

	_, err = GenerateContent(context.Background(), &stubModel{resp: &llms.ContentResponse{}}, nil, 0.5)
	assert.ErrorContains(t, err, "no choices")
}

func TestNewLLM_MissingKey(t *testing.T) {
	t.Setenv("MOODLEMATE_TEST_GROQ", "")
	_, err := NewLLM(&config.LLMConfig{BaseURL: "http://localhost", Model: "m", APIKeyEnv: "MOODLEMATE_TEST_GROQ"})
	assert.ErrorIs(t, err, models.ErrConfiguration)
}

func TestNewLLM(t *testing.T) {
	t.Setenv("MOODLEMATE_TEST_GROQ", "gsk_test")
	llm, err := NewLLM(&config.LLMConfig{BaseURL: "http://localhost", Model: "llama-3.1-8b-instant", APIKeyEnv: "MOODLEMATE_TEST_GROQ"})
	require.NoError(t, err)
	assert.NotNil(t, llm)
}
