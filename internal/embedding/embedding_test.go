package embedding

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/v7mdd/MoodleMate/internal/config"
	"github.com/v7mdd/MoodleMate/internal/models"
)

func hashEmbedder(t *testing.T) Embedder {
	t.Helper()
	e, err := NewEmbedder(&config.EmbeddingConfig{Provider: "hash", Model: "fnv", Dimensions: 64, BatchSize: 2})
	require.NoError(t, err)
	return e
}

func TestHashEmbedder_Deterministic(t *testing.T) {
	h := NewHashEmbedder(32)
	ctx := context.Background()

	a, err := h.CreateEmbedding(ctx, []string{"Supervised learning", "supervised LEARNING"})
	require.NoError(t, err)
	require.Len(t, a, 2)
	assert.Equal(t, a[0], a[1])
	assert.Len(t, a[0], 32)

	var norm float64
	for _, v := range a[0] {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)
}

func TestHashEmbedder_NoTokens(t *testing.T) {
	vecs, err := NewHashEmbedder(8).CreateEmbedding(context.Background(), []string{"...."})
	require.NoError(t, err)
	assert.Equal(t, float32(1), vecs[0][0])
}

func TestHashEmbedder_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewHashEmbedder(8).CreateEmbedding(ctx, []string{"x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewEmbedder_OpenAIWithoutKey(t *testing.T) {
	t.Setenv("MOODLEMATE_EMPTY_KEY", "")
	_, err := NewEmbedder(&config.EmbeddingConfig{Provider: "openai", Model: "m", APIKeyEnv: "MOODLEMATE_EMPTY_KEY"})
	assert.ErrorIs(t, err, models.ErrConfiguration)
}

func TestNewEmbedder_UnknownProvider(t *testing.T) {
	_, err := NewEmbedder(&config.EmbeddingConfig{Provider: "word2vec"})
	assert.ErrorIs(t, err, models.ErrConfiguration)
}

func TestGenerateEmbedding(t *testing.T) {
	e := hashEmbedder(t)
	chunks := []models.Chunk{
		{Content: "gradient descent", Source: "a.pdf", PageNumber: 0, ChunkID: 1},
		{Content: "backpropagation", Source: "a.pdf", PageNumber: 1, ChunkID: 2},
		{Content: "decision trees", Source: "b.pdf", PageNumber: 0, ChunkID: 3},
	}

	out, err := GenerateEmbedding(context.Background(), e, chunks)
	require.NoError(t, err)
	require.Len(t, out, 3)
	for i := range chunks {
		assert.Equal(t, chunks[i], out[i].Chunk)
		assert.Len(t, out[i].Embedding, 64)
	}

	query, err := e.EmbedQuery(context.Background(), "gradient descent")
	require.NoError(t, err)
	assert.Equal(t, query, out[0].Embedding)
}

func TestGenerateEmbedding_Empty(t *testing.T) {
	out, err := GenerateEmbedding(context.Background(), hashEmbedder(t), nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}

type failingEmbedder struct{}

func (failingEmbedder) EmbedDocuments(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("connection refused")
}

func (failingEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	return nil, errors.New("connection refused")
}

type shortEmbedder struct{ failingEmbedder }

func (shortEmbedder) EmbedDocuments(context.Context, []string) ([][]float32, error) {
	return [][]float32{{1}}, nil
}

func TestGenerateEmbedding_Errors(t *testing.T) {
	chunks := []models.Chunk{{Content: "a"}, {Content: "b"}}

	_, err := GenerateEmbedding(context.Background(), failingEmbedder{}, chunks)
	assert.ErrorContains(t, err, "connection refused")

	_, err = GenerateEmbedding(context.Background(), shortEmbedder{}, chunks)
	assert.ErrorContains(t, err, "1 vectors for 2 chunks")
}
