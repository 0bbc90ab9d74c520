package embedding

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/v7mdd/MoodleMate/internal/config"
	"github.com/v7mdd/MoodleMate/internal/models"
)

// Embedder is satisfied by langchaingo's embeddings.EmbedderImpl.
type Embedder = embeddings.Embedder

// NewEmbedder creates the embedder selected by cfg.Provider
func NewEmbedder(cfg *config.EmbeddingConfig) (*embeddings.EmbedderImpl, error) {
	log.Debug().Interface("config", map[string]any{
		"provider":   cfg.Provider,
		"model":      cfg.Model,
		"base_url":   cfg.BaseURL,
		"batch_size": cfg.BatchSize,
	}).Msg("Creating embedder")

	client, err := newClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: embedder %s: %v", models.ErrConfiguration, cfg.Identity(), err)
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithBatchSize(cfg.BatchSize))
	if err != nil {
		return nil, fmt.Errorf("%w: embedder %s: %v", models.ErrConfiguration, cfg.Identity(), err)
	}
	return embedder, nil
}

func newClient(cfg *config.EmbeddingConfig) (embeddings.EmbedderClient, error) {
	switch cfg.Provider {
	case "ollama":
		return ollama.New(
			ollama.WithServerURL(cfg.BaseURL),
			ollama.WithModel(cfg.Model),
		)
	case "openai":
		key := (config.LLMConfig{APIKeyEnv: cfg.APIKeyEnv}).APIKey()
		if key == "" {
			return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
		}
		return openai.New(
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithToken(key),
			openai.WithEmbeddingModel(cfg.Model),
		)
	case "hash":
		return NewHashEmbedder(cfg.Dimensions), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Provider)
	}
}

// GenerateEmbedding embeds every chunk. The result is index-aligned with chunks.
func GenerateEmbedding(ctx context.Context, embedder Embedder, chunks []models.Chunk) ([]models.ChunkEmbedding, error) {
	if len(chunks) == 0 {
		log.Info().Msg("No chunks to embed")
		return nil, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	vectors, err := embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	chunkEmbeddings := make([]models.ChunkEmbedding, len(chunks))
	for i, chunk := range chunks {
		chunkEmbeddings[i] = models.ChunkEmbedding{Chunk: chunk, Embedding: vectors[i]}
	}
	log.Debug().Int("chunks", len(chunkEmbeddings)).Msg("Generated embeddings")
	return chunkEmbeddings, nil
}
