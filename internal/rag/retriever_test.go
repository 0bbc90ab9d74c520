package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/v7mdd/MoodleMate/internal/models"
)

type stubIndex struct {
	gotVector []float32
	gotK      int
	results   []models.RetrievedChunk
	err       error
}

func (s *stubIndex) Query(_ context.Context, v []float32, k int) ([]models.RetrievedChunk, error) {
	s.gotVector, s.gotK = v, k
	return s.results, s.err
}

type stubEmbedder struct {
	vector []float32
	err    error
}

func (s stubEmbedder) EmbedDocuments(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("not used")
}

func (s stubEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	return s.vector, s.err
}

func TestIndexRetriever_Retrieve(t *testing.T) {
	idx := &stubIndex{results: []models.RetrievedChunk{{Content: "c", Source: "a.pdf"}}}
	r := NewRetriever(idx, stubEmbedder{vector: []float32{0.1, 0.2}})

	got, err := r.Retrieve(context.Background(), "q", 3)
	require.NoError(t, err)
	assert.Equal(t, idx.results, got)
	assert.Equal(t, []float32{0.1, 0.2}, idx.gotVector)
	assert.Equal(t, 3, idx.gotK)
}

func TestIndexRetriever_Errors(t *testing.T) {
	r := NewRetriever(&stubIndex{}, stubEmbedder{err: errors.New("ollama down")})
	_, err := r.Retrieve(context.Background(), "q", 3)
	assert.ErrorIs(t, err, models.ErrRetrieval)

	r = NewRetriever(&stubIndex{err: errors.New("corrupt gob")}, stubEmbedder{vector: []float32{1}})
	_, err = r.Retrieve(context.Background(), "q", 3)
	assert.ErrorIs(t, err, models.ErrRetrieval)
}
